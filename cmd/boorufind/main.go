package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	configfile "github.com/custodia-labs/boorufind/internal/adapters/driven/config/file"
	"github.com/custodia-labs/boorufind/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/boorufind/internal/adapters/driven/transport"
	"github.com/custodia-labs/boorufind/internal/adapters/driving/cli"
	"github.com/custodia-labs/boorufind/internal/core/services"
	"github.com/custodia-labs/boorufind/internal/finders"
	"github.com/custodia-labs/boorufind/internal/logger"
)

// version is overridden at build time via -ldflags.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// A .env in the working directory can carry credentials during
	// development; absence is not an error.
	_ = godotenv.Load()

	baseDir := os.Getenv("BOORUFIND_HOME")
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolve home directory: %w", err)
		}
		baseDir = filepath.Join(home, ".boorufind")
	}

	configStore, err := configfile.NewConfigStore(baseDir)
	if err != nil {
		return fmt.Errorf("open config store: %w", err)
	}

	archive, err := sqlite.NewStore(filepath.Join(baseDir, "data"))
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer archive.Close()

	client := transport.NewClient(nil)

	aggregator := services.NewAggregator()
	finders.RegisterDefaults(aggregator, configStore)
	applySharedConfig(aggregator, configStore)

	// Reload shared headers, cookies and tag aliases when the config
	// file changes on disk, so long-running downloads pick up new
	// credentials.
	stopWatch, err := configStore.Watch(func() {
		applySharedConfig(aggregator, configStore)
	})
	if err != nil {
		logger.Warn("config watch unavailable: %v", err)
	} else {
		defer stopWatch()
	}

	cli.SetVersion(version)
	cli.Configure(cli.Deps{
		Aggregator:  aggregator,
		MediaClient: client,
		ConfigStore: configStore,
		PostArchive: archive,
	})
	return cli.Execute()
}

// applySharedConfig pushes persisted "headers.<name>", "cookies.<name>"
// and "aliases.<finder>.<tag>" settings into the aggregator: headers and
// cookies go into the shared configuration, which broadcasts them to
// every registered finder, and aliases are installed per finder.
func applySharedConfig(agg *services.Aggregator, store *configfile.ConfigStore) {
	cfg := agg.Configuration()
	for _, key := range store.Keys() {
		switch {
		case strings.HasPrefix(key, "headers."):
			cfg.SetHeader(strings.TrimPrefix(key, "headers."), store.GetString(key))
		case strings.HasPrefix(key, "cookies."):
			cfg.SetCookie(strings.TrimPrefix(key, "cookies."), store.GetString(key))
		case strings.HasPrefix(key, "aliases."):
			parts := strings.SplitN(strings.TrimPrefix(key, "aliases."), ".", 2)
			if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
				logger.Warn("Ignoring malformed alias key %q", key)
				continue
			}
			if err := agg.SetTagAlias(parts[1], store.GetString(key), parts[0]); err != nil {
				logger.Warn("Alias %q: %v", key, err)
			}
		}
	}
}
