package domain

import (
	"context"
	"crypto/md5" //nolint:gosec // Matching the production fingerprint.
	"encoding/hex"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockFetcher struct {
	responses map[string][]byte
	err       error
	calls     int
}

func (m *mockFetcher) Fetch(_ context.Context, rawURL string, _, _ map[string]string) ([]byte, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	body, ok := m.responses[rawURL]
	if !ok {
		return nil, errors.New("no such URL")
	}
	return body, nil
}

func samplePostData() PostData {
	return PostData{
		ID:         42,
		Tags:       []string{"landscape", "sky"},
		SourceURLs: []string{"https://example.com/origin"},
		MediaURLs:  []string{"https://cdn.example.com/media/abc.jpg"},
		Authors:    []string{"artist"},
		Source:     "danbooru",
		Preview:    "https://cdn.example.com/preview/abc.jpg",
		MD5:        []string{"d41d8cd98f00b204e9800998ecf8427e"},
		Rating:     "s",
		Dimensions: []Dimension{{Width: 800, Height: 600}},
		Poster:     "uploader",
		PosterID:   7,
	}
}

func TestNewPost_DerivedFields(t *testing.T) {
	post := NewPost(samplePostData())

	assert.Equal(t, "Post #42", post.Name)
	assert.Equal(t, []string{"abc.jpg"}, post.Filenames)
	assert.Equal(t, RatingGeneral, post.Rating)
	assert.False(t, post.IsVideo)
	assert.False(t, post.IsArchive)
}

func TestNewPost_ExplicitNameKept(t *testing.T) {
	d := samplePostData()
	d.Name = "Sunset"
	post := NewPost(d)

	assert.Equal(t, "Sunset", post.Name)
}

func TestNewPost_VideoAndArchiveFlags(t *testing.T) {
	d := samplePostData()
	d.MediaURLs = []string{"https://cdn.example.com/clip.mp4"}
	assert.True(t, NewPost(d).IsVideo)

	d.MediaURLs = []string{"https://cdn.example.com/pack.zip"}
	assert.True(t, NewPost(d).IsArchive)
}

func TestNewPost_DimensionsPaddedToMediaCount(t *testing.T) {
	d := samplePostData()
	d.MediaURLs = []string{"https://a/1.jpg", "https://a/2.jpg", "https://a/3.jpg"}
	d.Dimensions = []Dimension{{Width: 100, Height: 100}}

	post := NewPost(d)

	require.Len(t, post.Dimensions, 3)
	assert.Equal(t, Dimension{Width: 100, Height: 100}, post.Dimensions[0])
	assert.Equal(t, Dimension{}, post.Dimensions[1])
	assert.Len(t, post.Filenames, 3)
}

func TestNewPost_FilenameDropsQueryString(t *testing.T) {
	d := samplePostData()
	d.MediaURLs = []string{"https://cdn.example.com/media/img.png?auth=token"}

	assert.Equal(t, []string{"img.png"}, NewPost(d).Filenames)
}

func TestPost_HashesReadyWhenSourceReportsMD5(t *testing.T) {
	post := NewPost(samplePostData())

	hashes, ok := post.Hashes()
	require.True(t, ok)
	assert.Equal(t, []string{"d41d8cd98f00b204e9800998ecf8427e"}, hashes)
}

func TestPost_HashesPendingWithoutMD5(t *testing.T) {
	d := samplePostData()
	d.MD5 = nil
	post := NewPost(d)

	assert.False(t, post.HashesReady())
	_, ok := post.Hashes()
	assert.False(t, ok)
}

func TestPost_ComputeHashes(t *testing.T) {
	d := samplePostData()
	d.MD5 = nil
	post := NewPost(d)

	body := []byte("payload")
	fetcher := &mockFetcher{responses: map[string][]byte{
		"https://cdn.example.com/media/abc.jpg": body,
	}}

	require.NoError(t, post.ComputeHashes(context.Background(), fetcher))

	sum := md5.Sum(body) //nolint:gosec // Content fingerprinting, not security.
	hashes, ok := post.Hashes()
	require.True(t, ok)
	assert.Equal(t, []string{hex.EncodeToString(sum[:])}, hashes)
}

func TestPost_ComputeHashes_FailedReferenceYieldsEmptyString(t *testing.T) {
	d := samplePostData()
	d.MD5 = nil
	post := NewPost(d)

	fetcher := &mockFetcher{err: errors.New("connection refused")}

	require.NoError(t, post.ComputeHashes(context.Background(), fetcher))

	hashes, ok := post.Hashes()
	require.True(t, ok)
	assert.Equal(t, []string{""}, hashes)
}

func TestPost_ComputeHashes_NoopWhenReady(t *testing.T) {
	post := NewPost(samplePostData())
	fetcher := &mockFetcher{}

	require.NoError(t, post.ComputeHashes(context.Background(), fetcher))
	assert.Zero(t, fetcher.calls)
}

func TestPost_AwaitHashes(t *testing.T) {
	d := samplePostData()
	d.MD5 = nil
	post := NewPost(d)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, post.AwaitHashes(ctx), context.DeadlineExceeded)

	post.SetHashes([]string{"abc"})
	assert.NoError(t, post.AwaitHashes(context.Background()))
}

func TestPost_DataSlots(t *testing.T) {
	post := NewPost(samplePostData())

	_, ok := post.DataAt(0)
	assert.False(t, ok)

	post.SetData(0, []byte("bytes"))
	data, ok := post.DataAt(0)
	require.True(t, ok)
	assert.Equal(t, []byte("bytes"), data)

	// Out-of-range writes are dropped.
	post.SetData(5, []byte("overflow"))
	_, ok = post.DataAt(5)
	assert.False(t, ok)
}

func TestPost_FetchedLifecycle(t *testing.T) {
	post := NewPost(samplePostData())
	assert.False(t, post.Fetched())

	post.SetData(0, []byte("bytes"))
	post.MarkFetched()
	assert.True(t, post.Fetched())

	post.ResetData()
	assert.False(t, post.Fetched())
	_, ok := post.DataAt(0)
	assert.False(t, ok)
}

func TestPost_ParentChildren(t *testing.T) {
	post := NewPost(samplePostData())
	assert.Nil(t, post.Parent())
	assert.Empty(t, post.Children())

	parentData := samplePostData()
	parentData.ID = 41
	parent := NewPost(parentData)

	post.SetParent(parent)
	assert.Same(t, parent, post.Parent())

	post.SetChildren([]*Post{parent})
	require.Len(t, post.Children(), 1)
}

func TestPost_TagString(t *testing.T) {
	post := NewPost(samplePostData())
	assert.Equal(t, "landscape sky", post.TagString())
}
