package domain

import (
	"context"
	"crypto/md5" //nolint:gosec // Content fingerprinting, not security.
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/custodia-labs/boorufind/internal/logger"
)

// MediaFetcher retrieves the raw bytes behind a media URL.
// It is the minimal transport capability the domain needs for lazy
// hash computation; the full client lives in the driven ports.
type MediaFetcher interface {
	Fetch(ctx context.Context, rawURL string, headers, cookies map[string]string) ([]byte, error)
}

// Dimension holds the pixel size of a single media reference.
type Dimension struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// PostData carries the raw normalized fields a finder extracted from a
// platform response. NewPost consumes it and derives the rest.
type PostData struct {
	ID         int64
	Tags       []string
	SourceURLs []string
	MediaURLs  []string
	Authors    []string
	Source     string
	Preview    string
	MD5        []string
	Rating     string
	ParentID   *int64
	Dimensions []Dimension
	Poster     string
	PosterID   int64
	Name       string
}

// Post is a normalized content record from a single platform.
//
// The identity fields are set once by NewPost and never change. The
// data slots, the content hashes and the parent/children relation are
// the only mutable parts and are guarded by an internal mutex.
//
// MediaURLs, Filenames and Dimensions are always the same length and
// index-aligned; Hashes and Data, when populated, align the same way.
type Post struct {
	// ID is the post's identifier on its source platform.
	// It is only unique per (Source, ID) pair.
	ID int64

	// Tags holds the post tags in source order.
	Tags []string

	// SourceURLs are the claimed origins of the media. Platforms rarely
	// validate these, so they may not be URLs at all.
	SourceURLs []string

	// MediaURLs reference the binary payloads. Order is significant.
	MediaURLs []string

	// Authors lists the artists credited for the work.
	Authors []string

	// Source identifies the platform the record came from
	// (for example "danbooru"). Never empty.
	Source string

	// Preview is the URL of a downscaled preview image.
	Preview string

	// Rating is the content rating, never RatingUnknown for rated input.
	Rating Rating

	// ParentID is the parent post's ID, nil when the post has no parent.
	ParentID *int64

	// Dimensions holds one width/height pair per media reference.
	Dimensions []Dimension

	// Poster is the username of the uploading user.
	Poster string

	// PosterID is the uploading user's platform ID.
	PosterID int64

	// Name is the post title, or "Post #<id>" when the platform has none.
	Name string

	// Filenames are derived from MediaURLs at construction.
	Filenames []string

	// IsVideo reports whether the first media reference is an MP4 video.
	IsVideo bool

	// IsArchive reports whether the first media reference is a ZIP archive.
	IsArchive bool

	mu        sync.RWMutex
	hashes    []string
	hashReady chan struct{}
	hashOnce  sync.Once
	data      [][]byte
	fetched   bool
	parent    *Post
	children  []*Post
	headers   map[string]string
	cookies   map[string]string
}

// NewPost builds a Post from raw finder data, computing the derived
// fields once. Dimensions are padded or truncated to match the media
// reference count so the index-alignment invariant always holds.
//
// When d.MD5 is empty the hashes start out pending; call ComputeHashes
// to materialize them and AwaitHashes to wait for readiness.
func NewPost(d PostData) *Post {
	name := d.Name
	if name == "" {
		name = fmt.Sprintf("Post #%d", d.ID)
	}

	filenames := make([]string, len(d.MediaURLs))
	for i, raw := range d.MediaURLs {
		filenames[i] = filenameFromURL(raw)
	}

	dims := make([]Dimension, len(d.MediaURLs))
	copy(dims, d.Dimensions)

	p := &Post{
		ID:         d.ID,
		Tags:       append([]string(nil), d.Tags...),
		SourceURLs: append([]string(nil), d.SourceURLs...),
		MediaURLs:  append([]string(nil), d.MediaURLs...),
		Authors:    append([]string(nil), d.Authors...),
		Source:     d.Source,
		Preview:    d.Preview,
		Rating:     ParseRating(d.Rating),
		ParentID:   d.ParentID,
		Dimensions: dims,
		Poster:     d.Poster,
		PosterID:   d.PosterID,
		Name:       name,
		Filenames:  filenames,
		hashReady:  make(chan struct{}),
	}

	if len(d.MediaURLs) > 0 {
		first := d.MediaURLs[0]
		p.IsVideo = strings.HasSuffix(first, ".mp4")
		p.IsArchive = strings.HasSuffix(first, ".zip")
	}

	if len(d.MD5) > 0 && d.MD5[0] != "" {
		p.hashes = append([]string(nil), d.MD5...)
		p.markHashesReady()
	}

	return p
}

// filenameFromURL extracts the last path segment of a media URL,
// dropping any query string. Falls back to a raw split when the URL
// does not parse.
func filenameFromURL(raw string) string {
	if u, err := url.Parse(raw); err == nil && u.Path != "" {
		parts := strings.Split(u.Path, "/")
		return parts[len(parts)-1]
	}
	parts := strings.Split(raw, "/")
	return parts[len(parts)-1]
}

func (p *Post) markHashesReady() {
	p.hashOnce.Do(func() { close(p.hashReady) })
}

// TagString returns all tags joined by spaces.
func (p *Post) TagString() string {
	return strings.Join(p.Tags, " ")
}

// HashesReady reports whether the content hashes are materialized.
func (p *Post) HashesReady() bool {
	select {
	case <-p.hashReady:
		return true
	default:
		return false
	}
}

// Hashes returns the content hashes and whether they are ready.
// The returned slice is a copy.
func (p *Post) Hashes() ([]string, bool) {
	if !p.HashesReady() {
		return nil, false
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]string(nil), p.hashes...), true
}

// AwaitHashes blocks until the hashes are ready or the context is done.
func (p *Post) AwaitHashes(ctx context.Context) error {
	select {
	case <-p.hashReady:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ComputeHashes downloads every media reference and fills the hash
// list with one MD5 digest per reference. A reference whose request
// fails contributes an empty string; this does not abort the rest.
// Repeated calls after the hashes are ready are no-ops.
func (p *Post) ComputeHashes(ctx context.Context, fetcher MediaFetcher) error {
	if p.HashesReady() {
		return nil
	}
	if fetcher == nil {
		return fmt.Errorf("%w: nil media fetcher", ErrInvalidInput)
	}

	logger.Debug("Computing hashes for %s post %d (%d references)", p.Source, p.ID, len(p.MediaURLs))

	hashes := make([]string, len(p.MediaURLs))
	for i, mediaURL := range p.MediaURLs {
		if err := ctx.Err(); err != nil {
			return err
		}
		body, err := fetcher.Fetch(ctx, mediaURL, p.Headers(), p.Cookies())
		if err != nil {
			logger.Warn("Hash fetch failed for %q: %v", mediaURL, err)
			continue
		}
		sum := md5.Sum(body) //nolint:gosec // Content fingerprinting, not security.
		hashes[i] = hex.EncodeToString(sum[:])
	}

	p.mu.Lock()
	p.hashes = hashes
	p.mu.Unlock()
	p.markHashesReady()
	return nil
}

// SetHashes overrides the hash list and marks it ready.
// Used when importing serialized records.
func (p *Post) SetHashes(hashes []string) {
	p.mu.Lock()
	p.hashes = append([]string(nil), hashes...)
	p.mu.Unlock()
	p.markHashesReady()
}

// SetData stores fetched payload bytes for the media reference at the
// given index, allocating the slot table on first use.
func (p *Post) SetData(index int, data []byte) {
	if index < 0 || index >= len(p.MediaURLs) {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.data == nil {
		p.data = make([][]byte, len(p.MediaURLs))
	}
	p.data[index] = data
}

// DataAt returns the fetched bytes for the given media index.
// The second return is false when the slot was never filled.
func (p *Post) DataAt(index int) ([]byte, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if index < 0 || index >= len(p.data) || p.data[index] == nil {
		return nil, false
	}
	return p.data[index], true
}

// Data returns a shallow copy of the payload slot table.
// Unfetched slots are nil.
func (p *Post) Data() [][]byte {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([][]byte(nil), p.data...)
}

// MarkFetched records that a bulk fetch finished with this post,
// regardless of how many references succeeded.
func (p *Post) MarkFetched() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fetched = true
}

// Fetched reports whether a bulk fetch completed for this post.
// Best-effort fetching is terminal: a post with zero filled slots is
// still fetched and is not retried automatically.
func (p *Post) Fetched() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.fetched
}

// ResetData clears the payload slots and the fetched flag to free memory.
func (p *Post) ResetData() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.data = nil
	p.fetched = false
}

// SetParent stores the parent post. Populated on demand by the
// aggregator's GetParent, never at construction.
func (p *Post) SetParent(parent *Post) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.parent = parent
}

// Parent returns the parent post if one was looked up, nil otherwise.
func (p *Post) Parent() *Post {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.parent
}

// SetChildren stores the child posts. Populated on demand by the
// aggregator's GetChildren.
func (p *Post) SetChildren(children []*Post) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.children = append([]*Post(nil), children...)
}

// Children returns the looked-up child posts.
func (p *Post) Children() []*Post {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]*Post(nil), p.children...)
}

// SetHeaders replaces the request headers used when fetching this
// post's media.
func (p *Post) SetHeaders(headers map[string]string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.headers = copyStringMap(headers)
}

// Headers returns a copy of the post's request headers.
func (p *Post) Headers() map[string]string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return copyStringMap(p.headers)
}

// SetCookies replaces the request cookies used when fetching this
// post's media.
func (p *Post) SetCookies(cookies map[string]string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cookies = copyStringMap(cookies)
}

// Cookies returns a copy of the post's request cookies.
func (p *Post) Cookies() map[string]string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return copyStringMap(p.cookies)
}

func copyStringMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// String renders a compact description for logs.
func (p *Post) String() string {
	return fmt.Sprintf("<Post %s/%d %q rating=%s media=%d>", p.Source, p.ID, p.Name, p.Rating, len(p.MediaURLs))
}
