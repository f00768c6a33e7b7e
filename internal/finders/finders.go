// Package finders wires the built-in content sources into an
// aggregator.
package finders

import (
	"fmt"

	"github.com/custodia-labs/boorufind/internal/core/ports/driven"
	"github.com/custodia-labs/boorufind/internal/core/ports/driving"
	"github.com/custodia-labs/boorufind/internal/finders/danbooru"
	"github.com/custodia-labs/boorufind/internal/finders/gelbooru"
)

// Builtin lists the names of the built-in finders.
func Builtin() []string {
	return []string{danbooru.SourceName, gelbooru.SourceName}
}

// RegisterDefaults registers the built-in finders on the aggregator.
// Credentials are read from the config store under
// "finders.<name>.<key>"; missing credentials leave the finder in
// anonymous mode.
func RegisterDefaults(agg driving.Aggregator, store driven.ConfigStore) {
	agg.Register(danbooru.SourceName, danbooru.New(
		credential(store, danbooru.SourceName, "api_key"),
	))
	agg.Register(gelbooru.SourceName, gelbooru.New(
		credential(store, gelbooru.SourceName, "api_key"),
		credential(store, gelbooru.SourceName, "user_id"),
	))
}

func credential(store driven.ConfigStore, finder, key string) string {
	if store == nil {
		return ""
	}
	return store.GetString(fmt.Sprintf("finders.%s.%s", finder, key))
}
