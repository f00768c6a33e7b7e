// Package gelbooru implements the finder contract against the
// Gelbooru dapi (the legacy Danbooru-style API Gelbooru exposes).
package gelbooru

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
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
	SourceName = "gelbooru"

	// defaultBaseURL is the public Gelbooru instance.
	defaultBaseURL = "https://gelbooru.com"

	// pageSize is the dapi's default page size.
	pageSize = 100

	// requestsPerSecond throttles API calls.
	requestsPerSecond = 5
)

// Finder queries the Gelbooru dapi.
type Finder struct {
	baseURL    string
	httpClient *http.Client
	config     *domain.Config
	limiter    *rate.Limiter
}

// Option customizes a Finder.
type Option func(*Finder)

// WithBaseURL points the finder at a different Gelbooru-compatible
// instance. Used by tests.
func WithBaseURL(baseURL string) Option {
	return func(f *Finder) { f.baseURL = baseURL }
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(f *Finder) { f.httpClient = client }
}

// New creates a Gelbooru finder. The API key and user ID may be empty
// for anonymous access.
func New(apiKey, userID string, opts ...Option) *Finder {
	f := &Finder{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
	}
	f.config = domain.NewConfig(nil)
	f.config.Declare("api_key", apiKey)
	f.config.Declare("user_id", userID)
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
	pid := opts.Page
	if pid < 0 {
		pid = 0
	}

	var posts []*domain.Post
	for {
		params := url.Values{}
		params.Set("s", "post")
		params.Set("tags", tags)
		params.Set("limit", fmt.Sprint(pageSize))
		params.Set("pid", fmt.Sprint(pid))

		var env searchEnvelope
		if err := f.getJSON(ctx, params, &env); err != nil {
			return nil, fmt.Errorf("search posts: %w", err)
		}

		for _, p := range env.Posts {
			if !p.valid() {
				continue
			}
			posts = append(posts, toPost(p))
		}

		if len(env.Posts) < pageSize || len(posts) >= limit {
			break
		}
		pid++
	}

	sort.Slice(posts, func(i, j int) bool { return posts[i].ID < posts[j].ID })
	if len(posts) > limit {
		posts = posts[:limit]
	}
	return posts, nil
}

// GetPost returns the post with the given ID, or domain.ErrNotFound.
func (f *Finder) GetPost(ctx context.Context, id int64) (*domain.Post, error) {
	params := url.Values{}
	params.Set("s", "post")
	params.Set("id", fmt.Sprint(id))

	var env searchEnvelope
	if err := f.getJSON(ctx, params, &env); err != nil {
		return nil, fmt.Errorf("get post %d: %w", id, err)
	}
	if len(env.Posts) == 0 || !env.Posts[0].valid() {
		return nil, domain.ErrNotFound
	}
	return toPost(env.Posts[0]), nil
}

// SearchComments returns the comments on one post. The dapi serves
// comments only as XML and only scoped to a post, so an unscoped
// search is unsupported. Gelbooru intermittently disables the comment
// endpoint; that degrades to an empty result with a warning rather
// than an error.
func (f *Finder) SearchComments(ctx context.Context, opts driven.CommentOptions) ([]*domain.Comment, error) {
	if opts.PostID <= 0 {
		return nil, fmt.Errorf("gelbooru comments without a post id: %w", domain.ErrUnsupported)
	}

	params := url.Values{}
	params.Set("s", "comment")
	params.Set("post_id", fmt.Sprint(opts.PostID))

	var env commentEnvelope
	if err := f.getXML(ctx, params, &env); err != nil {
		logger.Warn("Gelbooru comments for post %d unavailable, the endpoint may be disabled: %v", opts.PostID, err)
		return nil, nil
	}

	comments := make([]*domain.Comment, 0, len(env.Comments))
	for _, c := range env.Comments {
		comments = append(comments, toComment(c))
	}
	if opts.Limit > 0 && len(comments) > opts.Limit {
		comments = comments[:opts.Limit]
	}
	return comments, nil
}

// GetComment is not supported: the dapi has no per-comment endpoint.
func (f *Finder) GetComment(ctx context.Context, id, postID int64) (*domain.Comment, error) {
	return nil, fmt.Errorf("gelbooru comment lookup: %w", domain.ErrUnsupported)
}

// GetNotes returns the annotations placed on a post.
func (f *Finder) GetNotes(ctx context.Context, postID int64) ([]*domain.Note, error) {
	params := url.Values{}
	params.Set("s", "note")
	params.Set("post_id", fmt.Sprint(postID))

	var env noteEnvelope
	if err := f.getJSON(ctx, params, &env); err != nil {
		return nil, fmt.Errorf("get notes: %w", err)
	}

	notes := make([]*domain.Note, 0, len(env.Notes))
	for _, n := range env.Notes {
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

// getJSON performs a rate-limited dapi GET and decodes the JSON
// response.
func (f *Finder) getJSON(ctx context.Context, params url.Values, out any) error {
	params.Set("json", "1")
	resp, err := f.get(ctx, params)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// getXML performs a rate-limited dapi GET and decodes the XML
// response. The comment endpoint has no JSON form.
func (f *Finder) getXML(ctx context.Context, params url.Values, out any) error {
	resp, err := f.get(ctx, params)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := xml.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// get issues a dapi request. Credentials and configured
// headers/cookies are applied on every call so config changes take
// effect immediately. The caller closes the response body.
func (f *Finder) get(ctx context.Context, params url.Values) (*http.Response, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params.Set("page", "dapi")
	params.Set("q", "index")
	if key := f.config.GetString("api_key"); key != "" {
		params.Set("api_key", key)
	}
	if uid := f.config.GetString("user_id"); uid != "" {
		params.Set("user_id", uid)
	}

	reqURL := f.baseURL + "/index.php?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
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
		return nil, err
	}

	if resp.StatusCode >= 400 {
		resp.Body.Close()
		logger.Debug("Gelbooru returned %d for %s", resp.StatusCode, params.Get("s"))
		return nil, fmt.Errorf("request %q: status %d", reqURL, resp.StatusCode)
	}
	return resp, nil
}
