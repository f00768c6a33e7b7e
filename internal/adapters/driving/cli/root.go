// Package cli implements the command-line interface.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/boorufind/internal/core/ports/driven"
	"github.com/custodia-labs/boorufind/internal/core/ports/driving"
	"github.com/custodia-labs/boorufind/internal/logger"
)

// version is stamped by the build; overridden through SetVersion.
var version = "dev"

// Injected dependencies. Set through Configure before Execute.
var (
	aggregator  driving.Aggregator
	mediaClient driven.MediaClient
	configStore driven.ConfigStore
	postArchive driven.PostArchive
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "boorufind",
	Short: "Search and download posts across image boards",
	Long: `Boorufind queries multiple image boards through one interface,
merging posts, comments, and annotations into a single normalized
collection, and downloads media in bulk with bounded parallelism.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
}

// Deps holds the services the commands operate on.
type Deps struct {
	Aggregator  driving.Aggregator
	MediaClient driven.MediaClient
	ConfigStore driven.ConfigStore
	PostArchive driven.PostArchive
}

// Configure injects the services the commands depend on.
func Configure(deps Deps) {
	aggregator = deps.Aggregator
	mediaClient = deps.MediaClient
	configStore = deps.ConfigStore
	postArchive = deps.PostArchive
}

// SetVersion overrides the reported version string.
func SetVersion(v string) {
	version = v
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
