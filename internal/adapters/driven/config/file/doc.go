// Package file provides the TOML-backed settings store. It persists
// shared request headers and cookies, per-finder tag aliases and
// finder credentials under the boorufind config directory, and can
// watch the file so external edits are re-applied to live finders.
package file
