package driven

import (
	"context"

	"github.com/custodia-labs/boorufind/internal/core/domain"
)

// PostArchive persists normalized records locally so collections
// survive across runs. Records are keyed by (source, id).
type PostArchive interface {
	// SavePost stores or updates a post.
	SavePost(ctx context.Context, post *domain.Post) error

	// GetPost retrieves a post, or domain.ErrNotFound.
	GetPost(ctx context.Context, source string, id int64) (*domain.Post, error)

	// ListPosts returns all archived posts for a source. An empty
	// source lists every post.
	ListPosts(ctx context.Context, source string) ([]*domain.Post, error)

	// DeletePost removes a post.
	DeletePost(ctx context.Context, source string, id int64) error

	// SaveComments stores comments for a post.
	SaveComments(ctx context.Context, comments []*domain.Comment) error

	// ListComments returns archived comments for a post.
	ListComments(ctx context.Context, source string, postID int64) ([]*domain.Comment, error)

	// SaveNotes stores annotations for a post.
	SaveNotes(ctx context.Context, notes []*domain.Note) error

	// ListNotes returns archived annotations for a post.
	ListNotes(ctx context.Context, source string, postID int64) ([]*domain.Note, error)

	// Close releases resources.
	Close() error
}
