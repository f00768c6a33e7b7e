package services

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/boorufind/internal/core/domain"
	"github.com/custodia-labs/boorufind/internal/core/ports/driven"
	"github.com/custodia-labs/boorufind/internal/logger"
)

const (
	// DefaultMaxConcurrency bounds the record-level tasks in flight.
	DefaultMaxConcurrency = 10

	// DefaultMaxRate bounds task starts per second.
	DefaultMaxRate = 10
)

// FetchOptions controls a bulk fetch run.
type FetchOptions struct {
	// OnlyFirst fetches only each post's first media reference.
	OnlyFirst bool

	// Block makes FetchAll wait for every task. When false, FetchAll
	// returns immediately and callers poll post.Fetched, call Wait, or
	// Cancel later.
	Block bool
}

// Fetcher retrieves the binary payloads behind many posts' media
// references under a concurrency cap and a rate cap.
//
// One task runs per post. At most maxConcurrency tasks are in flight
// at any instant, and no more than maxRate tasks start per second even
// when concurrency slots are free. Each task fills its post's data
// slots index-for-index; a failed reference leaves its slot unset
// without aborting the task's other references.
type Fetcher struct {
	client         driven.MediaClient
	maxConcurrency int
	limiter        *rate.Limiter

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewFetcher creates a bulk fetcher. Non-positive bounds fall back to
// the defaults.
func NewFetcher(client driven.MediaClient, maxConcurrency, maxRate int) *Fetcher {
	if maxConcurrency <= 0 {
		maxConcurrency = DefaultMaxConcurrency
	}
	if maxRate <= 0 {
		maxRate = DefaultMaxRate
	}
	return &Fetcher{
		client:         client,
		maxConcurrency: maxConcurrency,
		limiter:        rate.NewLimiter(rate.Limit(maxRate), 1),
	}
}

// FetchAll retrieves the media payloads for every post in the list,
// writing bytes into each post's data slots. A previous run is
// cancelled first; a post with zero successful references is still
// marked fetched (best effort is terminal, callers re-invoke if they
// need completeness).
//
// In blocking mode the call returns when all tasks finish or the
// context is cancelled. In non-blocking mode it returns immediately.
func (f *Fetcher) FetchAll(ctx context.Context, posts []*domain.Post, opts FetchOptions) error {
	if posts == nil {
		return fmt.Errorf("%w: nil post list", domain.ErrInvalidInput)
	}

	f.Cancel()

	if len(posts) == 0 {
		logger.Warn("Fetch requested with an empty post list")
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	f.mu.Lock()
	f.cancel = cancel
	f.done = done
	f.mu.Unlock()

	logger.Section("Bulk Fetch")
	logger.Info("Fetching %d posts (concurrency=%d, blocking=%t)", len(posts), f.maxConcurrency, opts.Block)

	go f.run(runCtx, posts, opts, done)

	if opts.Block {
		<-done
		return runCtx.Err()
	}
	return nil
}

// run issues one task per post, gated by the semaphore and the rate
// limiter, and closes done when the last task finishes.
func (f *Fetcher) run(ctx context.Context, posts []*domain.Post, opts FetchOptions, done chan struct{}) {
	defer close(done)

	sem := make(chan struct{}, f.maxConcurrency)
	var wg sync.WaitGroup

	for _, post := range posts {
		if post == nil {
			continue
		}
		// Rate-gate task issuance before taking a concurrency slot.
		if err := f.limiter.Wait(ctx); err != nil {
			break
		}
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			wg.Wait()
			return
		}

		wg.Add(1)
		go func(p *domain.Post) {
			defer wg.Done()
			defer func() { <-sem }()
			f.fetchPost(ctx, p, opts.OnlyFirst)
		}(post)
	}

	wg.Wait()
}

// fetchPost retrieves all (or only the first) media references of one
// post. Reference failures are isolated; cancellation stops remaining
// references but keeps completed slots.
func (f *Fetcher) fetchPost(ctx context.Context, post *domain.Post, onlyFirst bool) {
	urls := post.MediaURLs
	if onlyFirst && len(urls) > 1 {
		urls = urls[:1]
	}

	for i, mediaURL := range urls {
		if ctx.Err() != nil {
			return
		}
		body, err := f.client.Fetch(ctx, mediaURL, post.Headers(), post.Cookies())
		if err != nil {
			// An interrupted post stays unfetched; only genuine
			// per-reference failures are skipped over.
			if ctx.Err() != nil {
				return
			}
			logger.Warn("Fetch failed for %q: %v", mediaURL, err)
			continue
		}
		post.SetData(i, body)
	}
	post.MarkFetched()
}

// Cancel stops issuing new tasks and interrupts in-flight transport
// calls. Completed data slots stay populated. Cancel is idempotent,
// callable from any goroutine, and safe when nothing is in flight.
func (f *Fetcher) Cancel() {
	f.mu.Lock()
	cancel := f.cancel
	done := f.done
	f.cancel = nil
	f.done = nil
	f.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	logger.Debug("Bulk fetch cancelled")
}

// Wait blocks until the current run finishes or the context is done.
// Returns immediately when nothing is running.
func (f *Fetcher) Wait(ctx context.Context) error {
	f.mu.Lock()
	done := f.done
	f.mu.Unlock()

	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
