package services

import (
	"context"

	"github.com/custodia-labs/boorufind/internal/core/domain"
	"github.com/custodia-labs/boorufind/internal/logger"
)

// DedupOptions controls the duplicate filter.
type DedupOptions struct {
	// ComputeMissing materializes pending hash lists before filtering.
	// This is a blocking network operation per post; when false, a post
	// with pending hashes is kept and a warning is surfaced.
	ComputeMissing bool

	// Fetcher retrieves media bytes for hash computation. Required
	// only when ComputeMissing is set.
	Fetcher domain.MediaFetcher
}

// FilterDuplicates removes posts whose content hash was already seen.
//
// The pass is single and order-preserving: a post is dropped the first
// time any of its media hashes matches a hash seen earlier in the
// list, so the first occurrence always wins. Posts whose hashes are
// unavailable are kept, never guessed at.
func FilterDuplicates(ctx context.Context, posts []*domain.Post, opts DedupOptions) []*domain.Post {
	seen := make(map[string]struct{})
	kept := make([]*domain.Post, 0, len(posts))

	for _, post := range posts {
		if post == nil {
			continue
		}

		if !post.HashesReady() && opts.ComputeMissing {
			if err := post.ComputeHashes(ctx, opts.Fetcher); err != nil {
				logger.Warn("Hash computation failed for %s: %v", post, err)
			}
		}

		hashes, ok := post.Hashes()
		if !ok {
			logger.Warn("Post %s has no hash list, keeping it", post)
			kept = append(kept, post)
			continue
		}

		duplicate := false
		for _, h := range hashes {
			if h == "" {
				continue
			}
			if _, dup := seen[h]; dup {
				duplicate = true
				break
			}
			seen[h] = struct{}{}
		}

		if duplicate {
			logger.Debug("Dropping duplicate %s", post)
			continue
		}
		kept = append(kept, post)
	}

	return kept
}
