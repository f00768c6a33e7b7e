package driven

import (
	"context"

	"github.com/custodia-labs/boorufind/internal/core/domain"
)

// SearchOptions controls a post search.
type SearchOptions struct {
	// Limit caps the number of posts returned per finder. Finders
	// paginate internally until the limit is satisfied or the source
	// is exhausted. Defaults to 100 when zero.
	Limit int

	// Page selects the starting result page. Zero means the first page.
	Page int
}

// CommentOptions controls a comment search.
type CommentOptions struct {
	// PostID restricts the search to one post. Zero means all posts.
	PostID int64

	// Limit caps the number of comments returned per finder.
	Limit int

	// Page selects the starting result page.
	Page int
}

// Finder fetches normalized records from one content platform.
// Each platform client (danbooru, gelbooru, ...) implements this
// interface; the aggregator consumes it polymorphically.
//
// "No results" is never an error: searches return empty slices and
// singular lookups return domain.ErrNotFound. Capabilities a platform
// fundamentally lacks return domain.ErrUnsupported.
type Finder interface {
	// SearchPosts returns at most opts.Limit posts matching the tags.
	SearchPosts(ctx context.Context, tags string, opts SearchOptions) ([]*domain.Post, error)

	// GetPost returns the post with the given ID, or domain.ErrNotFound.
	GetPost(ctx context.Context, id int64) (*domain.Post, error)

	// SearchComments returns comments, optionally scoped to one post.
	SearchComments(ctx context.Context, opts CommentOptions) ([]*domain.Comment, error)

	// GetComment returns the comment with the given ID, or
	// domain.ErrNotFound. Some platforms need the post ID to locate a
	// comment; pass zero when unknown.
	GetComment(ctx context.Context, id, postID int64) (*domain.Comment, error)

	// GetNotes returns the annotations placed on a post.
	GetNotes(ctx context.Context, postID int64) ([]*domain.Note, error)

	// GetParent looks up the post's parent, stores it on the post as a
	// side effect and returns it. Returns domain.ErrNotFound when the
	// post has no parent.
	GetParent(ctx context.Context, post *domain.Post) (*domain.Post, error)

	// GetChildren looks up the post's children, stores them on the post
	// as a side effect and returns them.
	GetChildren(ctx context.Context, post *domain.Post) ([]*domain.Post, error)

	// Configuration returns the finder's mutable configuration.
	// Finders react to header/cookie changes without being replaced.
	Configuration() *domain.Config
}
