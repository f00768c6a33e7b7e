package driving

import (
	"context"

	"github.com/custodia-labs/boorufind/internal/core/domain"
	"github.com/custodia-labs/boorufind/internal/core/ports/driven"
)

// QueryOptions extends the finder search options with an optional
// finder scope. An empty Finder means "fan out to every registered
// finder"; a non-empty one dispatches to that finder only.
type QueryOptions struct {
	Finder string
	Limit  int
	Page   int
}

// CommentQueryOptions scopes a comment query the same way.
type CommentQueryOptions struct {
	Finder string
	PostID int64
	Limit  int
	Page   int
}

// Aggregator fans queries out to registered finders and merges the
// results into one normalized collection.
type Aggregator interface {
	// Register adds a finder under a name. Reusing a name silently
	// replaces the previous finder.
	Register(name string, finder driven.Finder)

	// Remove unregisters a finder.
	Remove(name string)

	// Has reports whether a finder is registered under the name.
	Has(name string) bool

	// Names returns the registered finder names in registration order.
	Names() []string

	// SearchPosts queries the scoped finder, or all finders
	// concurrently, and concatenates results in registration order.
	SearchPosts(ctx context.Context, tags string, opts QueryOptions) ([]*domain.Post, error)

	// GetPost returns the first match scanning finders in registration
	// order, or domain.ErrNotFound.
	GetPost(ctx context.Context, id int64, finder string) (*domain.Post, error)

	// SearchComments fans a comment query out like SearchPosts.
	SearchComments(ctx context.Context, opts CommentQueryOptions) ([]*domain.Comment, error)

	// GetComment returns the first match in registration order.
	GetComment(ctx context.Context, id, postID int64, finder string) (*domain.Comment, error)

	// GetNotes collects a post's annotations from the scoped finder or
	// all finders.
	GetNotes(ctx context.Context, postID int64, finder string) ([]*domain.Note, error)

	// GetParent resolves a post's parent, mutating the post's relation.
	GetParent(ctx context.Context, post *domain.Post, finder string) (*domain.Post, error)

	// GetChildren resolves a post's children, mutating the post's
	// relation.
	GetChildren(ctx context.Context, post *domain.Post, finder string) ([]*domain.Post, error)

	// SetTagAlias maps literal tag text to a finder-specific
	// equivalent, applied before dispatch to that finder.
	SetTagAlias(tag, alias, finder string) error

	// Configuration returns the shared overlay whose header and cookie
	// mutations broadcast to every registered finder.
	Configuration() *domain.Config
}
