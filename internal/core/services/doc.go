// Package services contains the core engines: the multi-finder
// aggregator, the bounded-parallel bulk fetcher, the download
// pipeline and the hash deduplication filter.
package services
