// Package file serializes normalized records to disk: a post becomes
// <source>_<id>.json, or a <source>_<id>.zip archive bundling the JSON
// with every fetched media payload. The JSON form round-trips through
// ImportPost back into an equivalent in-memory record.
package file

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/custodia-labs/boorufind/internal/core/domain"
)

// postJSON is the serialized shape of a post. Transient state (data
// slots, parent/children relations) is deliberately absent.
type postJSON struct {
	PostID     int64              `json:"post_id"`
	Tags       []string           `json:"tags"`
	Sources    []string           `json:"sources"`
	Images     []string           `json:"images"`
	Authors    []string           `json:"authors"`
	Source     string             `json:"source"`
	Preview    string             `json:"preview"`
	MD5        []string           `json:"md5"`
	Rating     domain.Rating      `json:"rating"`
	ParentID   *int64             `json:"parent_id"`
	Poster     string             `json:"poster"`
	PosterID   int64              `json:"poster_id"`
	Filenames  []string           `json:"filenames"`
	Name       string             `json:"name"`
	Dimensions []domain.Dimension `json:"dimensions"`
}

func toJSON(post *domain.Post) postJSON {
	hashes, _ := post.Hashes()
	return postJSON{
		PostID:     post.ID,
		Tags:       post.Tags,
		Sources:    post.SourceURLs,
		Images:     post.MediaURLs,
		Authors:    post.Authors,
		Source:     post.Source,
		Preview:    post.Preview,
		MD5:        hashes,
		Rating:     post.Rating,
		ParentID:   post.ParentID,
		Poster:     post.Poster,
		PosterID:   post.PosterID,
		Filenames:  post.Filenames,
		Name:       post.Name,
		Dimensions: post.Dimensions,
	}
}

// ExportJSON writes the post's full normalized field set to
// <dir>/<source>_<id>.json and returns the written path.
func ExportJSON(post *domain.Post, dir string) (string, error) {
	if post == nil {
		return "", fmt.Errorf("%w: nil post", domain.ErrInvalidInput)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create directory: %w", err)
	}

	data, err := json.MarshalIndent(toJSON(post), "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal post: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("%s_%d.json", post.Source, post.ID))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

// ExportArchive writes <dir>/<source>_<id>.zip containing the post's
// JSON plus every fetched media payload named by its filename. Slots
// never fetched are skipped.
func ExportArchive(post *domain.Post, dir string) (string, error) {
	if post == nil {
		return "", fmt.Errorf("%w: nil post", domain.ErrInvalidInput)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create directory: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("%s_%d.zip", post.Source, post.ID))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)

	meta, err := zw.Create(fmt.Sprintf("%s_%d.json", post.Source, post.ID))
	if err != nil {
		return "", fmt.Errorf("create archive entry: %w", err)
	}
	enc := json.NewEncoder(meta)
	enc.SetIndent("", "  ")
	if err := enc.Encode(toJSON(post)); err != nil {
		return "", fmt.Errorf("encode post: %w", err)
	}

	for i, filename := range post.Filenames {
		data, ok := post.DataAt(i)
		if !ok {
			continue
		}
		entry, err := zw.Create(filename)
		if err != nil {
			return "", fmt.Errorf("create archive entry %s: %w", filename, err)
		}
		if _, err := entry.Write(data); err != nil {
			return "", fmt.Errorf("write archive entry %s: %w", filename, err)
		}
	}

	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("finalize archive: %w", err)
	}
	return path, nil
}
