package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/custodia-labs/boorufind/internal/core/domain"
	"github.com/custodia-labs/boorufind/internal/core/ports/driven"
)

// mockFinder is a canned-response finder for aggregator tests.
type mockFinder struct {
	config *domain.Config

	posts    []*domain.Post
	comments []*domain.Comment
	notes    []*domain.Note
	err      error

	mu         sync.Mutex
	searchTags []string
}

var _ driven.Finder = (*mockFinder)(nil)

func newMockFinder() *mockFinder {
	return &mockFinder{config: domain.NewConfig(nil)}
}

func (m *mockFinder) lastSearchTags() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.searchTags) == 0 {
		return ""
	}
	return m.searchTags[len(m.searchTags)-1]
}

func (m *mockFinder) SearchPosts(_ context.Context, tags string, _ driven.SearchOptions) ([]*domain.Post, error) {
	m.mu.Lock()
	m.searchTags = append(m.searchTags, tags)
	m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.posts, nil
}

func (m *mockFinder) GetPost(_ context.Context, id int64) (*domain.Post, error) {
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

func (m *mockFinder) SearchComments(_ context.Context, _ driven.CommentOptions) ([]*domain.Comment, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.comments, nil
}

func (m *mockFinder) GetComment(_ context.Context, id, _ int64) (*domain.Comment, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, c := range m.comments {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockFinder) GetNotes(_ context.Context, _ int64) ([]*domain.Note, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.notes, nil
}

func (m *mockFinder) GetParent(ctx context.Context, post *domain.Post) (*domain.Post, error) {
	if m.err != nil {
		return nil, m.err
	}
	if post.ParentID == nil {
		return nil, domain.ErrNotFound
	}
	parent, err := m.GetPost(ctx, *post.ParentID)
	if err != nil {
		return nil, err
	}
	post.SetParent(parent)
	return parent, nil
}

func (m *mockFinder) GetChildren(_ context.Context, post *domain.Post) ([]*domain.Post, error) {
	if m.err != nil {
		return nil, m.err
	}
	var children []*domain.Post
	for _, p := range m.posts {
		if p.ParentID != nil && *p.ParentID == post.ID {
			children = append(children, p)
		}
	}
	return children, nil
}

func (m *mockFinder) Configuration() *domain.Config {
	return m.config
}

// mockMediaClient serves byte payloads keyed by URL, with optional
// per-call delay and failure injection for concurrency tests.
type mockMediaClient struct {
	responses map[string][]byte
	failures  map[string]bool
	delay     time.Duration

	// blockAfter makes every call past the Nth block until the context
	// is cancelled. Zero disables it.
	blockAfter int

	calls      atomic.Int64
	inFlight   atomic.Int64
	maxSeen    atomic.Int64
	blockUntil chan struct{}
}

var _ driven.MediaClient = (*mockMediaClient)(nil)

func newMockMediaClient() *mockMediaClient {
	return &mockMediaClient{
		responses: make(map[string][]byte),
		failures:  make(map[string]bool),
	}
}

func (m *mockMediaClient) Fetch(ctx context.Context, rawURL string, _, _ map[string]string) ([]byte, error) {
	call := m.calls.Add(1)

	cur := m.inFlight.Add(1)
	defer m.inFlight.Add(-1)
	for {
		maxSeen := m.maxSeen.Load()
		if cur <= maxSeen || m.maxSeen.CompareAndSwap(maxSeen, cur) {
			break
		}
	}

	if m.blockAfter > 0 && call > int64(m.blockAfter) {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	if m.blockUntil != nil {
		select {
		case <-m.blockUntil:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if m.failures[rawURL] {
		return nil, errors.New("injected failure")
	}
	body, ok := m.responses[rawURL]
	if !ok {
		return nil, fmt.Errorf("no response for %q", rawURL)
	}
	return body, nil
}

func (m *mockMediaClient) FetchTo(ctx context.Context, rawURL string, headers, cookies map[string]string, w io.Writer) error {
	body, err := m.Fetch(ctx, rawURL, headers, cookies)
	if err != nil {
		return err
	}
	_, err = w.Write(body)
	return err
}

// testPost builds a post with one media reference and a ready hash.
func testPost(source string, id int64, mediaURL, hash string) *domain.Post {
	var md5s []string
	if hash != "" {
		md5s = []string{hash}
	}
	return domain.NewPost(domain.PostData{
		ID:        id,
		Source:    source,
		MediaURLs: []string{mediaURL},
		MD5:       md5s,
		Rating:    "s",
	})
}
