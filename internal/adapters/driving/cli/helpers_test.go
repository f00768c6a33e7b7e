package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/custodia-labs/boorufind/internal/core/domain"
	"github.com/custodia-labs/boorufind/internal/core/ports/driven"
	"github.com/custodia-labs/boorufind/internal/core/ports/driving"
)

// setupTestServices installs in-memory mocks into the package-level
// service slots and returns a cleanup that restores the originals.
func setupTestServices() func() {
	oldAggregator := aggregator
	oldMediaClient := mediaClient
	oldConfigStore := configStore
	oldPostArchive := postArchive

	aggregator = newMockAggregator()
	mediaClient = &mockMediaClient{payload: []byte("media-bytes")}
	configStore = &mockConfigStore{values: map[string]any{}}
	postArchive = newMockArchive()

	return func() {
		aggregator = oldAggregator
		mediaClient = oldMediaClient
		configStore = oldConfigStore
		postArchive = oldPostArchive
	}
}

func samplePost(source string, id int64) *domain.Post {
	return domain.NewPost(domain.PostData{
		ID:        id,
		Source:    source,
		Tags:      []string{"scenery", "sky"},
		MediaURLs: []string{fmt.Sprintf("https://cdn.example/%s/%d.jpg", source, id)},
		MD5:       []string{fmt.Sprintf("%s-%d", source, id)},
		Rating:    "g",
	})
}

var _ driving.Aggregator = (*mockAggregator)(nil)

type mockAggregator struct {
	names    []string
	posts    []*domain.Post
	comments []*domain.Comment
	notes    []*domain.Note
	config   *domain.Config
	err      error
}

func newMockAggregator() *mockAggregator {
	return &mockAggregator{
		names: []string{"alpha", "beta"},
		posts: []*domain.Post{
			samplePost("alpha", 1),
			samplePost("beta", 2),
		},
		comments: []*domain.Comment{
			{ID: 1, PostID: 1, CreatorID: 9, Body: "nice shot", Source: "alpha", CreatedAt: 1700000000},
		},
		notes: []*domain.Note{
			{ID: 1, PostID: 1, X: 10, Y: 20, Width: 100, Height: 30, Body: "caption", Source: "alpha"},
		},
		config: domain.NewConfig(nil),
	}
}

func (m *mockAggregator) Register(name string, _ driven.Finder) { m.names = append(m.names, name) }
func (m *mockAggregator) Remove(string)                         {}
func (m *mockAggregator) Has(name string) bool {
	for _, n := range m.names {
		if n == name {
			return true
		}
	}
	return false
}
func (m *mockAggregator) Names() []string { return m.names }

func (m *mockAggregator) SearchPosts(_ context.Context, _ string, _ driving.QueryOptions) ([]*domain.Post, error) {
	return m.posts, m.err
}

func (m *mockAggregator) GetPost(_ context.Context, id int64, _ string) (*domain.Post, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, p := range m.posts {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockAggregator) SearchComments(_ context.Context, _ driving.CommentQueryOptions) ([]*domain.Comment, error) {
	return m.comments, m.err
}

func (m *mockAggregator) GetComment(_ context.Context, id, _ int64, _ string) (*domain.Comment, error) {
	for _, c := range m.comments {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockAggregator) GetNotes(_ context.Context, _ int64, _ string) ([]*domain.Note, error) {
	return m.notes, m.err
}

func (m *mockAggregator) GetParent(_ context.Context, post *domain.Post, _ string) (*domain.Post, error) {
	return nil, domain.ErrNotFound
}

func (m *mockAggregator) GetChildren(context.Context, *domain.Post, string) ([]*domain.Post, error) {
	return nil, nil
}

func (m *mockAggregator) SetTagAlias(string, string, string) error { return nil }

func (m *mockAggregator) Configuration() *domain.Config { return m.config }

var _ driven.MediaClient = (*mockMediaClient)(nil)

type mockMediaClient struct {
	payload []byte
}

func (m *mockMediaClient) Fetch(context.Context, string, map[string]string, map[string]string) ([]byte, error) {
	return m.payload, nil
}

func (m *mockMediaClient) FetchTo(_ context.Context, _ string, _, _ map[string]string, w io.Writer) error {
	_, err := w.Write(m.payload)
	return err
}

var _ driven.ConfigStore = (*mockConfigStore)(nil)

type mockConfigStore struct {
	values map[string]any
}

func (s *mockConfigStore) Get(key string) (any, bool) {
	v, ok := s.values[key]
	return v, ok
}

func (s *mockConfigStore) GetString(key string) string {
	if v, ok := s.values[key].(string); ok {
		return v
	}
	return ""
}

func (s *mockConfigStore) Set(key string, value any) error {
	s.values[key] = value
	return nil
}

func (s *mockConfigStore) Delete(key string) error {
	delete(s.values, key)
	return nil
}

func (s *mockConfigStore) Keys() []string {
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	return keys
}

func (s *mockConfigStore) Watch(func()) (func(), error) { return func() {}, nil }

var _ driven.PostArchive = (*mockArchive)(nil)

type mockArchive struct {
	posts    map[string]*domain.Post
	comments []*domain.Comment
	notes    []*domain.Note
}

func newMockArchive() *mockArchive {
	return &mockArchive{posts: map[string]*domain.Post{}}
}

func archiveKey(source string, id int64) string {
	return fmt.Sprintf("%s/%d", source, id)
}

func (a *mockArchive) SavePost(_ context.Context, post *domain.Post) error {
	a.posts[archiveKey(post.Source, post.ID)] = post
	return nil
}

func (a *mockArchive) GetPost(_ context.Context, source string, id int64) (*domain.Post, error) {
	if p, ok := a.posts[archiveKey(source, id)]; ok {
		return p, nil
	}
	return nil, domain.ErrNotFound
}

func (a *mockArchive) ListPosts(_ context.Context, source string) ([]*domain.Post, error) {
	var posts []*domain.Post
	for _, p := range a.posts {
		if source == "" || p.Source == source {
			posts = append(posts, p)
		}
	}
	return posts, nil
}

func (a *mockArchive) DeletePost(_ context.Context, source string, id int64) error {
	delete(a.posts, archiveKey(source, id))
	return nil
}

func (a *mockArchive) SaveComments(_ context.Context, comments []*domain.Comment) error {
	a.comments = append(a.comments, comments...)
	return nil
}

func (a *mockArchive) ListComments(_ context.Context, source string, postID int64) ([]*domain.Comment, error) {
	var out []*domain.Comment
	for _, c := range a.comments {
		if c.Source == source && c.PostID == postID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (a *mockArchive) SaveNotes(_ context.Context, notes []*domain.Note) error {
	a.notes = append(a.notes, notes...)
	return nil
}

func (a *mockArchive) ListNotes(_ context.Context, source string, postID int64) ([]*domain.Note, error) {
	var out []*domain.Note
	for _, n := range a.notes {
		if n.Source == source && n.PostID == postID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (a *mockArchive) Close() error { return nil }
