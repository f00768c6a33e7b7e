package driven

import (
	"context"
	"io"
)

// MediaClient retrieves binary payloads referenced by posts.
// Implementations carry their own HTTP plumbing; the request headers
// and cookies come from the record being fetched so per-platform
// overrides (referers, clearance cookies) apply.
//
// A non-success status is reported as an error; callers treat it as an
// isolated per-reference failure, not a batch failure.
type MediaClient interface {
	// Fetch returns the payload bytes behind the URL.
	Fetch(ctx context.Context, rawURL string, headers, cookies map[string]string) ([]byte, error)

	// FetchTo streams the payload into w, avoiding a full in-memory
	// copy for large files.
	FetchTo(ctx context.Context, rawURL string, headers, cookies map[string]string, w io.Writer) error
}
