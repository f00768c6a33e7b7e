// Package danbooru implements the finder contract against the
// danbooru.donmai.us JSON API.
package danbooru

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/boorufind/internal/core/domain"
	"github.com/custodia-labs/boorufind/internal/core/ports/driven"
	"github.com/custodia-labs/boorufind/internal/logger"
)

// Ensure Finder implements the interface.
var _ driven.Finder = (*Finder)(nil)

const (
	// SourceName tags every record this finder produces.
	SourceName = "danbooru"

	// defaultBaseURL is the public Danbooru instance.
	defaultBaseURL = "https://danbooru.donmai.us"

	// pageSize is the API's maximum page size for anonymous users.
	pageSize = 100

	// requestsPerSecond throttles API calls; Danbooru allows around
	// ten requests per second before it starts throttling back.
	requestsPerSecond = 5
)

// Finder queries the Danbooru JSON API.
type Finder struct {
	baseURL    string
	httpClient *http.Client
	config     *domain.Config
	limiter    *rate.Limiter
}

// Option customizes a Finder.
type Option func(*Finder)

// WithBaseURL points the finder at a different Danbooru-compatible
// instance. Used by tests and by mirror deployments.
func WithBaseURL(baseURL string) Option {
	return func(f *Finder) { f.baseURL = baseURL }
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(f *Finder) { f.httpClient = client }
}

// New creates a Danbooru finder. The API key may be empty for
// anonymous access; it can be changed later through the configuration.
func New(apiKey string, opts ...Option) *Finder {
	f := &Finder{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
	}
	f.config = domain.NewConfig(nil)
	f.config.Declare("api_key", apiKey)
	f.config.Declare("login", "")
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Configuration returns the finder's mutable configuration.
func (f *Finder) Configuration() *domain.Config {
	return f.config
}

// SearchPosts returns at most opts.Limit posts matching the tags,
// paginating internally until the limit is satisfied or the source is
// exhausted. Results are sorted by post ID ascending.
func (f *Finder) SearchPosts(ctx context.Context, tags string, opts driven.SearchOptions) ([]*domain.Post, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}
	page := opts.Page
	if page <= 0 {
		page = 1
	}

	var posts []*domain.Post
	for {
		params := url.Values{}
		params.Set("tags", tags)
		params.Set("limit", fmt.Sprint(pageSize))
		params.Set("page", fmt.Sprint(page))

		var raw []apiPost
		if err := f.getJSON(ctx, "/posts.json", params, &raw); err != nil {
			return nil, fmt.Errorf("search posts: %w", err)
		}

		for _, p := range raw {
			if !p.valid() {
				continue
			}
			posts = append(posts, toPost(p))
		}

		if len(raw) < pageSize || len(posts) >= limit {
			break
		}
		page++
	}

	sort.Slice(posts, func(i, j int) bool { return posts[i].ID < posts[j].ID })
	if len(posts) > limit {
		posts = posts[:limit]
	}
	return posts, nil
}

// GetPost returns the post with the given ID, or domain.ErrNotFound.
func (f *Finder) GetPost(ctx context.Context, id int64) (*domain.Post, error) {
	var raw apiPost
	err := f.getJSON(ctx, fmt.Sprintf("/posts/%d.json", id), nil, &raw)
	if err != nil {
		if isNotFound(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get post %d: %w", id, err)
	}
	if !raw.valid() {
		return nil, domain.ErrNotFound
	}
	return toPost(raw), nil
}

// SearchComments returns comments, optionally scoped to one post.
// Deleted comments are filtered out.
func (f *Finder) SearchComments(ctx context.Context, opts driven.CommentOptions) ([]*domain.Comment, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}
	page := opts.Page
	if page <= 0 {
		page = 1
	}

	var comments []*domain.Comment
	for {
		params := url.Values{}
		params.Set("group_by", "comment")
		params.Set("limit", fmt.Sprint(pageSize))
		params.Set("page", fmt.Sprint(page))
		if opts.PostID > 0 {
			params.Set("search[post_id]", fmt.Sprint(opts.PostID))
		}

		var raw []apiComment
		if err := f.getJSON(ctx, "/comments.json", params, &raw); err != nil {
			return nil, fmt.Errorf("search comments: %w", err)
		}

		for _, c := range raw {
			if c.IsDeleted {
				continue
			}
			comments = append(comments, toComment(c))
		}

		if len(raw) < pageSize || len(comments) >= limit {
			break
		}
		page++
	}

	if len(comments) > limit {
		comments = comments[:limit]
	}
	return comments, nil
}

// GetComment returns the comment with the given ID, or
// domain.ErrNotFound. The post ID is not needed on Danbooru.
func (f *Finder) GetComment(ctx context.Context, id, _ int64) (*domain.Comment, error) {
	var raw apiComment
	err := f.getJSON(ctx, fmt.Sprintf("/comments/%d.json", id), nil, &raw)
	if err != nil {
		if isNotFound(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get comment %d: %w", id, err)
	}
	if raw.IsDeleted {
		return nil, domain.ErrNotFound
	}
	return toComment(raw), nil
}

// GetNotes returns the annotations placed on a post.
func (f *Finder) GetNotes(ctx context.Context, postID int64) ([]*domain.Note, error) {
	params := url.Values{}
	params.Set("search[post_id]", fmt.Sprint(postID))

	var raw []apiNote
	if err := f.getJSON(ctx, "/notes.json", params, &raw); err != nil {
		return nil, fmt.Errorf("get notes: %w", err)
	}

	notes := make([]*domain.Note, 0, len(raw))
	for _, n := range raw {
		notes = append(notes, toNote(n))
	}
	return notes, nil
}

// GetParent looks up the post's parent and stores it on the post.
func (f *Finder) GetParent(ctx context.Context, post *domain.Post) (*domain.Post, error) {
	if post == nil {
		return nil, fmt.Errorf("%w: nil post", domain.ErrInvalidInput)
	}
	if post.ParentID == nil {
		return nil, domain.ErrNotFound
	}

	parent, err := f.GetPost(ctx, *post.ParentID)
	if err != nil {
		return nil, err
	}
	post.SetParent(parent)
	return parent, nil
}

// GetChildren looks up the post's children and stores them on the post.
func (f *Finder) GetChildren(ctx context.Context, post *domain.Post) ([]*domain.Post, error) {
	if post == nil {
		return nil, fmt.Errorf("%w: nil post", domain.ErrInvalidInput)
	}

	children, err := f.SearchPosts(ctx, fmt.Sprintf("parent:%d", post.ID), driven.SearchOptions{Limit: 100})
	if err != nil {
		return nil, err
	}

	// The parent itself matches the parent:<id> query.
	filtered := children[:0]
	for _, c := range children {
		if c.ID != post.ID {
			filtered = append(filtered, c)
		}
	}
	post.SetChildren(filtered)
	return filtered, nil
}

// statusError carries a non-success HTTP status.
type statusError struct {
	status int
	url    string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("request %q: status %d", e.url, e.status)
}

func isNotFound(err error) bool {
	var se *statusError
	return errors.As(err, &se) && se.status == http.StatusNotFound
}

// getJSON performs a rate-limited GET against the API and decodes the
// JSON response. Credentials and configured headers/cookies are
// applied on every call so config changes take effect immediately.
func (f *Finder) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	if err := f.limiter.Wait(ctx); err != nil {
		return err
	}

	if params == nil {
		params = url.Values{}
	}
	if key := f.config.GetString("api_key"); key != "" {
		params.Set("api_key", key)
	}
	if login := f.config.GetString("login"); login != "" {
		params.Set("login", login)
	}

	reqURL := f.baseURL + path + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	for k, v := range f.config.Headers() {
		if v != "" {
			req.Header.Set(k, v)
		}
	}
	for k, v := range f.config.Cookies() {
		if v != "" {
			req.AddCookie(&http.Cookie{Name: k, Value: v})
		}
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		io.Copy(io.Discard, resp.Body)
		logger.Debug("Danbooru returned %d for %s", resp.StatusCode, path)
		return &statusError{status: resp.StatusCode, url: reqURL}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
