package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/boorufind/internal/core/domain"
	"github.com/custodia-labs/boorufind/internal/core/ports/driven"
	"github.com/custodia-labs/boorufind/internal/logger"
)

// Downloader streams many posts' media payloads to disk under the
// same concurrency and rate discipline as the bulk fetcher.
type Downloader struct {
	client         driven.MediaClient
	maxConcurrency int
	limiter        *rate.Limiter
}

// NewDownloader creates a download pipeline. Non-positive bounds fall
// back to the fetcher defaults.
func NewDownloader(client driven.MediaClient, maxConcurrency, maxRate int) *Downloader {
	if maxConcurrency <= 0 {
		maxConcurrency = DefaultMaxConcurrency
	}
	if maxRate <= 0 {
		maxRate = DefaultMaxRate
	}
	return &Downloader{
		client:         client,
		maxConcurrency: maxConcurrency,
		limiter:        rate.NewLimiter(rate.Limit(maxRate), 1),
	}
}

// Download writes every media reference of every post into dir,
// creating the directory if absent. Posts are processed in a shuffled
// copy of the input so a mixed-source batch does not burst one
// platform with consecutive requests. Failed references are logged and
// contribute no path; partial results stand on cancellation.
//
// Returns the stored file paths. Their order follows completion, not
// the input order.
func (d *Downloader) Download(ctx context.Context, posts []*domain.Post, dir string) ([]string, error) {
	if posts == nil {
		return nil, fmt.Errorf("%w: nil post list", domain.ErrInvalidInput)
	}
	if dir == "" {
		return nil, fmt.Errorf("%w: empty target directory", domain.ErrInvalidInput)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create directory: %w", err)
	}

	shuffled := make([]*domain.Post, len(posts))
	copy(shuffled, posts)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	logger.Section("Download")
	logger.Info("Downloading %d posts to %s (concurrency=%d)", len(posts), dir, d.maxConcurrency)

	var (
		mu    sync.Mutex
		paths []string
		wg    sync.WaitGroup
	)
	sem := make(chan struct{}, d.maxConcurrency)

	for _, post := range shuffled {
		if post == nil {
			continue
		}
		if err := d.limiter.Wait(ctx); err != nil {
			break
		}
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			wg.Wait()
			return paths, ctx.Err()
		}

		wg.Add(1)
		go func(p *domain.Post) {
			defer wg.Done()
			defer func() { <-sem }()
			for _, path := range d.downloadPost(ctx, p, dir) {
				mu.Lock()
				paths = append(paths, path)
				mu.Unlock()
			}
		}(post)
	}

	wg.Wait()
	logger.Info("Stored %d files", len(paths))
	return paths, ctx.Err()
}

// downloadPost streams each media reference of one post to disk and
// returns the stored paths. A reference whose request or write fails
// is skipped.
func (d *Downloader) downloadPost(ctx context.Context, post *domain.Post, dir string) []string {
	var stored []string
	for i, mediaURL := range post.MediaURLs {
		if ctx.Err() != nil {
			return stored
		}

		file, path, err := createCollisionFree(dir, post.Filenames[i])
		if err != nil {
			logger.Warn("Create %q in %q failed: %v", post.Filenames[i], dir, err)
			continue
		}

		err = d.client.FetchTo(ctx, mediaURL, post.Headers(), post.Cookies(), file)
		closeErr := file.Close()
		if err != nil {
			logger.Warn("Download failed for %q: %v", mediaURL, err)
			os.Remove(path)
			continue
		}
		if closeErr != nil {
			logger.Warn("Close %q failed: %v", path, closeErr)
			continue
		}
		stored = append(stored, path)
	}
	return stored
}

// createCollisionFree opens dir/filename for writing. The file is
// created exclusively, so two concurrent tasks claiming the same name
// can never end up writing to one path; the loser falls back to a
// short unique suffix inserted before the extension. Two posts from
// different sources can legitimately share a filename.
func createCollisionFree(dir, filename string) (*os.File, string, error) {
	if filename == "" {
		filename = uuid.NewString()
	}
	path := filepath.Join(dir, filename)
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err == nil {
		return file, path, nil
	}
	if !errors.Is(err, os.ErrExist) {
		return nil, "", err
	}

	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)
	path = filepath.Join(dir, fmt.Sprintf("%s_%s%s", base, uuid.NewString()[:8], ext))
	file, err = os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, "", err
	}
	return file, path, nil
}
