package transport

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("payload"))
	}))
	defer srv.Close()

	c := NewClient(nil)
	body, err := c.Fetch(context.Background(), srv.URL, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), body)
}

func TestClient_Fetch_SendsHeadersAndCookies(t *testing.T) {
	var gotAuth, gotUA, gotCookie string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotUA = r.Header.Get("User-Agent")
		if c, err := r.Cookie("session"); err == nil {
			gotCookie = c.Value
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := NewClient(nil)
	_, err := c.Fetch(context.Background(), srv.URL,
		map[string]string{"Authorization": "Bearer token"},
		map[string]string{"session": "abc"})
	require.NoError(t, err)

	assert.Equal(t, "Bearer token", gotAuth)
	assert.Equal(t, defaultUserAgent, gotUA)
	assert.Equal(t, "abc", gotCookie)
}

func TestClient_Fetch_CallerOverridesUserAgent(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := NewClient(nil)
	_, err := c.Fetch(context.Background(), srv.URL, map[string]string{"User-Agent": "custom"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "custom", gotUA)
}

func TestClient_Fetch_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(nil)
	_, err := c.Fetch(context.Background(), srv.URL, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func TestClient_FetchTo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("streamed"))
	}))
	defer srv.Close()

	var buf bytes.Buffer
	c := NewClient(nil)
	require.NoError(t, c.FetchTo(context.Background(), srv.URL, nil, nil, &buf))
	assert.Equal(t, "streamed", buf.String())
}

func TestClient_Fetch_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewClient(nil)
	_, err := c.Fetch(ctx, srv.URL, nil, nil)
	assert.Error(t, err)
}
