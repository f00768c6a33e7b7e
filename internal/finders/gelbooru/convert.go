package gelbooru

import (
	"strings"
	"time"

	"github.com/custodia-labs/boorufind/internal/core/domain"
)

// gelbooruTimeLayout matches the Ruby-style timestamps the dapi
// returns, e.g. "Mon Sep 01 12:00:00 -0500 2025".
const gelbooruTimeLayout = "Mon Jan 02 15:04:05 -0700 2006"

// toPost converts a Gelbooru post payload into a normalized record.
// Gelbooru reports no parent as parent_id 0.
func toPost(p apiPost) *domain.Post {
	var parentID *int64
	if p.ParentID > 0 {
		id := p.ParentID
		parentID = &id
	}

	var sources []string
	if p.Source != "" {
		sources = strings.Fields(p.Source)
	}

	return domain.NewPost(domain.PostData{
		ID:         p.ID,
		Tags:       strings.Fields(p.Tags),
		SourceURLs: sources,
		MediaURLs:  []string{p.FileURL},
		Authors:    nil,
		Source:     SourceName,
		Preview:    p.PreviewURL,
		MD5:        []string{p.MD5},
		Rating:     p.Rating,
		ParentID:   parentID,
		Dimensions: []domain.Dimension{{Width: p.Width, Height: p.Height}},
		Poster:     p.Owner,
		PosterID:   p.CreatorID,
		Name:       p.Title,
	})
}

// commentTimeLayout matches the comment endpoint's timestamps, which
// use a different format than the note endpoint.
const commentTimeLayout = "2006-01-02 15:04"

// toComment converts a Gelbooru comment payload.
func toComment(c apiComment) *domain.Comment {
	createdAt := int64(0)
	if t, err := time.Parse(commentTimeLayout, c.CreatedAt); err == nil {
		createdAt = t.Unix()
	}
	return &domain.Comment{
		ID:        c.ID,
		PostID:    c.PostID,
		CreatorID: c.CreatorID,
		Creator:   c.Creator,
		Body:      c.Body,
		Source:    SourceName,
		CreatedAt: createdAt,
	}
}

// toNote converts a Gelbooru note payload.
func toNote(n apiNote) *domain.Note {
	return &domain.Note{
		ID:        int64(n.ID),
		PostID:    int64(n.PostID),
		X:         int(n.X),
		Y:         int(n.Y),
		Width:     int(n.Width),
		Height:    int(n.Height),
		Body:      n.Body,
		Source:    SourceName,
		CreatedAt: parseTimestamp(n.CreatedAt),
	}
}

// parseTimestamp normalizes the dapi's timestamp to epoch seconds.
// Unparseable input yields zero.
func parseTimestamp(s string) int64 {
	for _, layout := range []string{gelbooruTimeLayout, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Unix()
		}
	}
	return 0
}
