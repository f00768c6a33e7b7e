package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/custodia-labs/boorufind/internal/core/domain"
	"github.com/custodia-labs/boorufind/internal/core/ports/driven"
	"github.com/custodia-labs/boorufind/internal/core/ports/driving"
	"github.com/custodia-labs/boorufind/internal/logger"
)

// Ensure Aggregator implements the interface.
var _ driving.Aggregator = (*Aggregator)(nil)

// registered pairs a finder with its registration name. The slice
// order defines merge order and first-match scan order.
type registered struct {
	name   string
	finder driven.Finder
}

// Aggregator fans one logical query out to every registered finder and
// merges the heterogeneous results into a single normalized list.
//
// Registration order is the only ordering contract: unscoped searches
// concatenate per-finder results in registration order, and unscoped
// singular lookups scan finders in registration order and stop at the
// first hit. Within one finder, result order is whatever the platform
// returned.
//
// Registration and removal are not synchronized against in-flight
// fan-out; callers must not mutate the registry while a query runs.
type Aggregator struct {
	finders []registered
	config  *domain.Config
	aliases map[string]map[string]string
}

// NewAggregator creates an empty aggregator. Header and cookie changes
// on its shared configuration broadcast to every registered finder.
func NewAggregator() *Aggregator {
	a := &Aggregator{
		aliases: make(map[string]map[string]string),
	}
	a.config = domain.NewConfig(a.onConfigChange)
	return a
}

// onConfigChange rebroadcasts shared header/cookie mutations to every
// registered finder's own configuration.
func (a *Aggregator) onConfigChange(key, value string, isCookie, isHeader bool) {
	for _, entry := range a.finders {
		cfg := entry.finder.Configuration()
		if cfg == nil {
			continue
		}
		switch {
		case isCookie:
			cfg.SetCookie(key, value)
		case isHeader:
			cfg.SetHeader(key, value)
		}
	}
}

// Register adds a finder under a name. Reusing a name silently
// replaces the previous finder while keeping its registration slot, so
// merge order stays stable across replacements.
func (a *Aggregator) Register(name string, finder driven.Finder) {
	for i, entry := range a.finders {
		if entry.name == name {
			a.finders[i].finder = finder
			return
		}
	}
	a.finders = append(a.finders, registered{name: name, finder: finder})
	if _, ok := a.aliases[name]; !ok {
		a.aliases[name] = make(map[string]string)
	}
}

// Remove unregisters a finder and its alias table.
func (a *Aggregator) Remove(name string) {
	for i, entry := range a.finders {
		if entry.name == name {
			a.finders = append(a.finders[:i], a.finders[i+1:]...)
			break
		}
	}
	delete(a.aliases, name)
}

// Has reports whether a finder is registered under the name.
func (a *Aggregator) Has(name string) bool {
	_, err := a.lookup(name)
	return err == nil
}

// Names returns the registered finder names in registration order.
func (a *Aggregator) Names() []string {
	names := make([]string, len(a.finders))
	for i, entry := range a.finders {
		names[i] = entry.name
	}
	return names
}

// Finder returns the finder registered under the name, or
// domain.ErrUnknownFinder.
func (a *Aggregator) Finder(name string) (driven.Finder, error) {
	return a.lookup(name)
}

// Configuration returns the shared configuration overlay.
func (a *Aggregator) Configuration() *domain.Config {
	return a.config
}

// SetTagAlias maps literal tag text to a finder-specific equivalent.
// The alias is applied by substring replacement before dispatching a
/// search to that finder, so "rating:safe" can become "rating:s" on
// platforms with a different rating vocabulary.
func (a *Aggregator) SetTagAlias(tag, alias, finder string) error {
	if _, err := a.lookup(finder); err != nil {
		return err
	}
	a.aliases[finder][tag] = alias
	return nil
}

// translateTags applies a finder's alias table to the query string.
func (a *Aggregator) translateTags(tags, finder string) string {
	for tag, alias := range a.aliases[finder] {
		tags = strings.ReplaceAll(tags, tag, alias)
	}
	return tags
}

// lookup resolves a finder name, failing fast on unknown names.
func (a *Aggregator) lookup(name string) (driven.Finder, error) {
	for _, entry := range a.finders {
		if entry.name == name {
			return entry.finder, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", domain.ErrUnknownFinder, name)
}

// SearchPosts queries for posts matching the tags.
//
// Scoped to one finder, only that finder's alias table applies and its
// error propagates. Unscoped, every finder is queried concurrently;
// a failing finder is isolated (logged, zero records) and results are
// concatenated in registration order with per-finder internal ordering
// preserved.
func (a *Aggregator) SearchPosts(ctx context.Context, tags string, opts driving.QueryOptions) ([]*domain.Post, error) {
	searchOpts := driven.SearchOptions{Limit: opts.Limit, Page: opts.Page}

	if opts.Finder != "" {
		finder, err := a.lookup(opts.Finder)
		if err != nil {
			return nil, err
		}
		return finder.SearchPosts(ctx, a.translateTags(tags, opts.Finder), searchOpts)
	}

	logger.Section("Post Search Fan-Out")
	logger.Debug("Query: %q across %d finders", tags, len(a.finders))

	perFinder := make([][]*domain.Post, len(a.finders))

	var wg sync.WaitGroup
	for i, entry := range a.finders {
		wg.Add(1)
		go func(slot int, name string, finder driven.Finder) {
			defer wg.Done()
			posts, err := finder.SearchPosts(ctx, a.translateTags(tags, name), searchOpts)
			if err != nil {
				logger.Warn("Finder %s search failed: %v", name, err)
				return
			}
			if len(posts) == 0 {
				logger.Debug("Finder %s returned 0 posts", name)
			}
			perFinder[slot] = posts
		}(i, entry.name, entry.finder)
	}
	wg.Wait()

	var all []*domain.Post
	for _, posts := range perFinder {
		all = append(all, posts...)
	}

	logger.Info("Merged %d posts", len(all))
	return all, nil
}

// GetPost returns the post with the given ID. Unscoped, finders are
// scanned in registration order and the first hit wins; later finders
// are never consulted even if they also have the ID. This is a
// deliberate adapter-priority contract, not an optimization target.
func (a *Aggregator) GetPost(ctx context.Context, id int64, finderName string) (*domain.Post, error) {
	if finderName != "" {
		finder, err := a.lookup(finderName)
		if err != nil {
			return nil, err
		}
		return finder.GetPost(ctx, id)
	}

	for _, entry := range a.finders {
		post, err := entry.finder.GetPost(ctx, id)
		if err != nil {
			if !errors.Is(err, domain.ErrNotFound) {
				logger.Warn("Finder %s get post %d failed: %v", entry.name, id, err)
			}
			continue
		}
		return post, nil
	}
	return nil, domain.ErrNotFound
}

// SearchComments queries for comments, fanning out concurrently when
// unscoped, with the same isolation and merge-order contract as
// SearchPosts. Finders without comment support contribute nothing.
func (a *Aggregator) SearchComments(ctx context.Context, opts driving.CommentQueryOptions) ([]*domain.Comment, error) {
	commentOpts := driven.CommentOptions{PostID: opts.PostID, Limit: opts.Limit, Page: opts.Page}

	if opts.Finder != "" {
		finder, err := a.lookup(opts.Finder)
		if err != nil {
			return nil, err
		}
		return finder.SearchComments(ctx, commentOpts)
	}

	perFinder := make([][]*domain.Comment, len(a.finders))

	var wg sync.WaitGroup
	for i, entry := range a.finders {
		wg.Add(1)
		go func(slot int, name string, finder driven.Finder) {
			defer wg.Done()
			comments, err := finder.SearchComments(ctx, commentOpts)
			if err != nil {
				if !errors.Is(err, domain.ErrUnsupported) {
					logger.Warn("Finder %s comment search failed: %v", name, err)
				}
				return
			}
			perFinder[slot] = comments
		}(i, entry.name, entry.finder)
	}
	wg.Wait()

	var all []*domain.Comment
	for _, comments := range perFinder {
		all = append(all, comments...)
	}
	return all, nil
}

// GetComment returns the comment with the given ID, first match in
// registration order.
func (a *Aggregator) GetComment(ctx context.Context, id, postID int64, finderName string) (*domain.Comment, error) {
	if finderName != "" {
		finder, err := a.lookup(finderName)
		if err != nil {
			return nil, err
		}
		return finder.GetComment(ctx, id, postID)
	}

	for _, entry := range a.finders {
		comment, err := entry.finder.GetComment(ctx, id, postID)
		if err != nil {
			if !errors.Is(err, domain.ErrNotFound) && !errors.Is(err, domain.ErrUnsupported) {
				logger.Warn("Finder %s get comment %d failed: %v", entry.name, id, err)
			}
			continue
		}
		return comment, nil
	}
	return nil, domain.ErrNotFound
}

// GetNotes collects a post's annotations, concatenating across
// finders when unscoped.
func (a *Aggregator) GetNotes(ctx context.Context, postID int64, finderName string) ([]*domain.Note, error) {
	if finderName != "" {
		finder, err := a.lookup(finderName)
		if err != nil {
			return nil, err
		}
		return finder.GetNotes(ctx, postID)
	}

	perFinder := make([][]*domain.Note, len(a.finders))

	var wg sync.WaitGroup
	for i, entry := range a.finders {
		wg.Add(1)
		go func(slot int, name string, finder driven.Finder) {
			defer wg.Done()
			notes, err := finder.GetNotes(ctx, postID)
			if err != nil {
				if !errors.Is(err, domain.ErrUnsupported) {
					logger.Warn("Finder %s get notes failed: %v", name, err)
				}
				return
			}
			perFinder[slot] = notes
		}(i, entry.name, entry.finder)
	}
	wg.Wait()

	var all []*domain.Note
	for _, notes := range perFinder {
		all = append(all, notes...)
	}
	return all, nil
}

// GetParent resolves a post's parent, first match in registration
// order. The finder stores the parent on the post as a side effect.
func (a *Aggregator) GetParent(ctx context.Context, post *domain.Post, finderName string) (*domain.Post, error) {
	if post == nil {
		return nil, fmt.Errorf("%w: nil post", domain.ErrInvalidInput)
	}

	if finderName != "" {
		finder, err := a.lookup(finderName)
		if err != nil {
			return nil, err
		}
		return finder.GetParent(ctx, post)
	}

	for _, entry := range a.finders {
		parent, err := entry.finder.GetParent(ctx, post)
		if err != nil {
			if !errors.Is(err, domain.ErrNotFound) && !errors.Is(err, domain.ErrUnsupported) {
				logger.Warn("Finder %s get parent failed: %v", entry.name, err)
			}
			continue
		}
		return parent, nil
	}
	return nil, domain.ErrNotFound
}

// GetChildren resolves a post's children across finders. The finder
// stores the children on the post as a side effect.
func (a *Aggregator) GetChildren(ctx context.Context, post *domain.Post, finderName string) ([]*domain.Post, error) {
	if post == nil {
		return nil, fmt.Errorf("%w: nil post", domain.ErrInvalidInput)
	}

	if finderName != "" {
		finder, err := a.lookup(finderName)
		if err != nil {
			return nil, err
		}
		return finder.GetChildren(ctx, post)
	}

	var all []*domain.Post
	for _, entry := range a.finders {
		children, err := entry.finder.GetChildren(ctx, post)
		if err != nil {
			if !errors.Is(err, domain.ErrNotFound) && !errors.Is(err, domain.ErrUnsupported) {
				logger.Warn("Finder %s get children failed: %v", entry.name, err)
			}
			continue
		}
		all = append(all, children...)
	}
	if len(all) > 0 {
		post.SetChildren(all)
	}
	return all, nil
}
