package danbooru

import (
	"strings"
	"time"

	"github.com/custodia-labs/boorufind/internal/core/domain"
)

// toPost converts a Danbooru post payload into a normalized record.
func toPost(p apiPost) *domain.Post {
	return domain.NewPost(domain.PostData{
		ID:         p.ID,
		Tags:       strings.Fields(p.TagString),
		SourceURLs: strings.Fields(p.Source),
		MediaURLs:  []string{p.FileURL},
		Authors:    strings.Fields(p.TagStringArtist),
		Source:     SourceName,
		Preview:    p.PreviewFileURL,
		MD5:        []string{p.MD5},
		Rating:     p.Rating,
		ParentID:   p.ParentID,
		Dimensions: []domain.Dimension{{Width: p.ImageWidth, Height: p.ImageHeight}},
		PosterID:   p.UploaderID,
	})
}

// toComment converts a Danbooru comment payload. Danbooru does not
// return the creator name with the comment, only the ID.
func toComment(c apiComment) *domain.Comment {
	return &domain.Comment{
		ID:        c.ID,
		PostID:    c.PostID,
		CreatorID: c.CreatorID,
		Body:      c.Body,
		Source:    SourceName,
		CreatedAt: parseTimestamp(c.CreatedAt),
	}
}

// toNote converts a Danbooru note payload.
func toNote(n apiNote) *domain.Note {
	return &domain.Note{
		ID:        n.ID,
		PostID:    n.PostID,
		X:         n.X,
		Y:         n.Y,
		Width:     n.Width,
		Height:    n.Height,
		Body:      n.Body,
		Source:    SourceName,
		CreatedAt: parseTimestamp(n.CreatedAt),
	}
}

// parseTimestamp normalizes Danbooru's RFC 3339 timestamps to epoch
// seconds. Unparseable input yields zero rather than an error; the
// timestamp is informational.
func parseTimestamp(s string) int64 {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return 0
	}
	return t.Unix()
}
