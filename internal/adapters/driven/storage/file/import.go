package file

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/custodia-labs/boorufind/internal/core/domain"
)

// requiredFields are checked in order so an incomplete input always
// fails naming its first missing key.
var requiredFields = []string{
	"post_id",
	"tags",
	"sources",
	"images",
	"authors",
	"source",
	"preview",
	"dimensions",
	"poster",
	"poster_id",
}

// ImportPost rebuilds a post from exported JSON. The input may be a
// file path, raw JSON bytes, or an already-parsed map. Transient
// fields (payload data, parent/children) are not restored.
func ImportPost(input any) (*domain.Post, error) {
	raw, err := rawJSON(input)
	if err != nil {
		return nil, err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("parse post JSON: %w", err)
	}
	for _, key := range requiredFields {
		if _, ok := fields[key]; !ok {
			return nil, fmt.Errorf("%w: %q", domain.ErrMissingField, key)
		}
	}

	var p postJSON
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode post JSON: %w", err)
	}

	post := domain.NewPost(domain.PostData{
		ID:         p.PostID,
		Tags:       p.Tags,
		SourceURLs: p.Sources,
		MediaURLs:  p.Images,
		Authors:    p.Authors,
		Source:     p.Source,
		Preview:    p.Preview,
		MD5:        p.MD5,
		Rating:     p.Rating.String(),
		ParentID:   p.ParentID,
		Dimensions: p.Dimensions,
		Poster:     p.Poster,
		PosterID:   p.PosterID,
		Name:       p.Name,
	})
	return post, nil
}

// rawJSON normalizes the accepted input shapes down to JSON bytes.
func rawJSON(input any) ([]byte, error) {
	switch v := input.(type) {
	case string:
		data, err := os.ReadFile(v)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", v, err)
		}
		return data, nil
	case []byte:
		return v, nil
	case map[string]any:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode parsed input: %w", err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("%w: import accepts a path, JSON bytes or a parsed map, got %T", domain.ErrInvalidInput, input)
	}
}
