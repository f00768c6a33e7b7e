package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/boorufind/internal/core/domain"
	"github.com/custodia-labs/boorufind/internal/core/ports/driving"
)

func TestAggregator_Register(t *testing.T) {
	agg := NewAggregator()
	agg.Register("alpha", newMockFinder())
	agg.Register("beta", newMockFinder())

	assert.True(t, agg.Has("alpha"))
	assert.False(t, agg.Has("gamma"))
	assert.Equal(t, []string{"alpha", "beta"}, agg.Names())
}

func TestAggregator_RegisterReplacementKeepsSlot(t *testing.T) {
	agg := NewAggregator()
	agg.Register("alpha", newMockFinder())
	agg.Register("beta", newMockFinder())

	replacement := newMockFinder()
	agg.Register("alpha", replacement)

	assert.Equal(t, []string{"alpha", "beta"}, agg.Names())
	got, err := agg.Finder("alpha")
	require.NoError(t, err)
	assert.Same(t, replacement, got)
}

func TestAggregator_Remove(t *testing.T) {
	agg := NewAggregator()
	agg.Register("alpha", newMockFinder())
	agg.Remove("alpha")

	assert.False(t, agg.Has("alpha"))
	assert.Empty(t, agg.Names())
}

func TestAggregator_SearchPosts_MergesInRegistrationOrder(t *testing.T) {
	alpha := newMockFinder()
	alpha.posts = []*domain.Post{
		testPost("alpha", 1, "https://a/1.jpg", "h1"),
		testPost("alpha", 2, "https://a/2.jpg", "h2"),
	}
	beta := newMockFinder()
	beta.posts = []*domain.Post{
		testPost("beta", 3, "https://b/3.jpg", "h3"),
	}

	agg := NewAggregator()
	agg.Register("alpha", alpha)
	agg.Register("beta", beta)

	posts, err := agg.SearchPosts(context.Background(), "sky", driving.QueryOptions{})
	require.NoError(t, err)
	require.Len(t, posts, 3)
	assert.Equal(t, "alpha", posts[0].Source)
	assert.Equal(t, "alpha", posts[1].Source)
	assert.Equal(t, "beta", posts[2].Source)
}

func TestAggregator_SearchPosts_FailingFinderIsolated(t *testing.T) {
	alpha := newMockFinder()
	alpha.err = errors.New("upstream down")
	beta := newMockFinder()
	beta.posts = []*domain.Post{testPost("beta", 3, "https://b/3.jpg", "h3")}

	agg := NewAggregator()
	agg.Register("alpha", alpha)
	agg.Register("beta", beta)

	posts, err := agg.SearchPosts(context.Background(), "sky", driving.QueryOptions{})
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "beta", posts[0].Source)
}

func TestAggregator_SearchPosts_ScopedErrorPropagates(t *testing.T) {
	alpha := newMockFinder()
	alpha.err = errors.New("upstream down")

	agg := NewAggregator()
	agg.Register("alpha", alpha)

	_, err := agg.SearchPosts(context.Background(), "sky", driving.QueryOptions{Finder: "alpha"})
	assert.ErrorIs(t, err, alpha.err)
}

func TestAggregator_SearchPosts_UnknownFinder(t *testing.T) {
	agg := NewAggregator()

	_, err := agg.SearchPosts(context.Background(), "sky", driving.QueryOptions{Finder: "nope"})
	assert.ErrorIs(t, err, domain.ErrUnknownFinder)
}

func TestAggregator_GetPost_FirstMatchWins(t *testing.T) {
	shared := int64(10)
	alpha := newMockFinder()
	alpha.posts = []*domain.Post{testPost("alpha", shared, "https://a/10.jpg", "ha")}
	beta := newMockFinder()
	beta.posts = []*domain.Post{testPost("beta", shared, "https://b/10.jpg", "hb")}

	agg := NewAggregator()
	agg.Register("alpha", alpha)
	agg.Register("beta", beta)

	post, err := agg.GetPost(context.Background(), shared, "")
	require.NoError(t, err)
	assert.Equal(t, "alpha", post.Source)
}

func TestAggregator_GetPost_SkipsMissAndError(t *testing.T) {
	alpha := newMockFinder()
	alpha.err = errors.New("upstream down")
	beta := newMockFinder()
	beta.posts = []*domain.Post{testPost("beta", 10, "https://b/10.jpg", "hb")}

	agg := NewAggregator()
	agg.Register("alpha", alpha)
	agg.Register("beta", beta)

	post, err := agg.GetPost(context.Background(), 10, "")
	require.NoError(t, err)
	assert.Equal(t, "beta", post.Source)
}

func TestAggregator_GetPost_NotFoundAnywhere(t *testing.T) {
	agg := NewAggregator()
	agg.Register("alpha", newMockFinder())

	_, err := agg.GetPost(context.Background(), 99, "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAggregator_SearchComments_SkipsUnsupported(t *testing.T) {
	alpha := newMockFinder()
	alpha.err = domain.ErrUnsupported
	beta := newMockFinder()
	beta.comments = []*domain.Comment{{ID: 1, Source: "beta"}}

	agg := NewAggregator()
	agg.Register("alpha", alpha)
	agg.Register("beta", beta)

	comments, err := agg.SearchComments(context.Background(), driving.CommentQueryOptions{PostID: 1})
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "beta", comments[0].Source)
}

func TestAggregator_GetNotes_Merges(t *testing.T) {
	alpha := newMockFinder()
	alpha.notes = []*domain.Note{{ID: 1, Source: "alpha"}}
	beta := newMockFinder()
	beta.notes = []*domain.Note{{ID: 2, Source: "beta"}}

	agg := NewAggregator()
	agg.Register("alpha", alpha)
	agg.Register("beta", beta)

	notes, err := agg.GetNotes(context.Background(), 1, "")
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, "alpha", notes[0].Source)
	assert.Equal(t, "beta", notes[1].Source)
}

func TestAggregator_GetParent(t *testing.T) {
	parentID := int64(1)
	alpha := newMockFinder()
	parent := testPost("alpha", parentID, "https://a/1.jpg", "h1")
	alpha.posts = []*domain.Post{parent}

	child := testPost("alpha", 2, "https://a/2.jpg", "h2")
	child.ParentID = &parentID

	agg := NewAggregator()
	agg.Register("alpha", alpha)

	got, err := agg.GetParent(context.Background(), child, "")
	require.NoError(t, err)
	assert.Same(t, parent, got)
	assert.Same(t, parent, child.Parent())
}

func TestAggregator_GetChildren_StoresOnPost(t *testing.T) {
	parentID := int64(1)
	parent := testPost("alpha", parentID, "https://a/1.jpg", "h1")

	childA := testPost("alpha", 2, "https://a/2.jpg", "h2")
	childA.ParentID = &parentID
	childB := testPost("beta", 3, "https://b/3.jpg", "h3")
	childB.ParentID = &parentID

	alpha := newMockFinder()
	alpha.posts = []*domain.Post{childA}
	beta := newMockFinder()
	beta.posts = []*domain.Post{childB}

	agg := NewAggregator()
	agg.Register("alpha", alpha)
	agg.Register("beta", beta)

	children, err := agg.GetChildren(context.Background(), parent, "")
	require.NoError(t, err)
	require.Len(t, children, 2)
	assert.Len(t, parent.Children(), 2)
}

func TestAggregator_GetParent_NilPost(t *testing.T) {
	agg := NewAggregator()
	_, err := agg.GetParent(context.Background(), nil, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAggregator_TagAlias_ScopedToItsFinder(t *testing.T) {
	alpha := newMockFinder()
	beta := newMockFinder()

	agg := NewAggregator()
	agg.Register("alpha", alpha)
	agg.Register("beta", beta)

	require.NoError(t, agg.SetTagAlias("rating:safe", "rating:s", "alpha"))

	_, err := agg.SearchPosts(context.Background(), "sky rating:safe", driving.QueryOptions{})
	require.NoError(t, err)

	assert.Equal(t, "sky rating:s", alpha.lastSearchTags())
	assert.Equal(t, "sky rating:safe", beta.lastSearchTags())
}

func TestAggregator_SetTagAlias_UnknownFinder(t *testing.T) {
	agg := NewAggregator()
	err := agg.SetTagAlias("a", "b", "nope")
	assert.ErrorIs(t, err, domain.ErrUnknownFinder)
}

func TestAggregator_SharedConfigBroadcasts(t *testing.T) {
	alpha := newMockFinder()
	beta := newMockFinder()

	agg := NewAggregator()
	agg.Register("alpha", alpha)
	agg.Register("beta", beta)

	agg.Configuration().SetHeader("User-Agent", "shared-agent")
	agg.Configuration().SetCookie("session", "xyz")

	assert.Equal(t, "shared-agent", alpha.config.Header("User-Agent"))
	assert.Equal(t, "shared-agent", beta.config.Header("User-Agent"))
	assert.Equal(t, "xyz", alpha.config.Cookie("session"))
	assert.Equal(t, "xyz", beta.config.Cookie("session"))
}
