// Package sqlite provides the SQLite-backed post archive used to keep
// collections of normalized records across runs.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/boorufind/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/boorufind/internal/core/domain"
	"github.com/custodia-labs/boorufind/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.PostArchive = (*Store)(nil)

// Store is a SQLite-backed implementation of driven.PostArchive.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite archive at the specified data
// directory. If dataDir is empty, defaults to ~/.boorufind/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".boorufind", "data")
	}

	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "archive.db")

	// WAL mode for concurrent readers during bulk saves.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, path: dbPath}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}
		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// SavePost stores or updates a post.
func (s *Store) SavePost(ctx context.Context, post *domain.Post) error {
	if post == nil {
		return fmt.Errorf("%w: nil post", domain.ErrInvalidInput)
	}

	tags, err := json.Marshal(post.Tags)
	if err != nil {
		return fmt.Errorf("marshalling tags: %w", err)
	}
	sourceURLs, err := json.Marshal(post.SourceURLs)
	if err != nil {
		return fmt.Errorf("marshalling source urls: %w", err)
	}
	mediaURLs, err := json.Marshal(post.MediaURLs)
	if err != nil {
		return fmt.Errorf("marshalling media urls: %w", err)
	}
	authors, err := json.Marshal(post.Authors)
	if err != nil {
		return fmt.Errorf("marshalling authors: %w", err)
	}
	dims, err := json.Marshal(post.Dimensions)
	if err != nil {
		return fmt.Errorf("marshalling dimensions: %w", err)
	}

	var md5JSON any
	if hashes, ok := post.Hashes(); ok {
		data, err := json.Marshal(hashes)
		if err != nil {
			return fmt.Errorf("marshalling hashes: %w", err)
		}
		md5JSON = string(data)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO posts (source, post_id, tags, source_urls, media_urls, authors,
			preview, md5, rating, parent_id, dimensions, poster, poster_id, name)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(source, post_id) DO UPDATE SET
			tags = excluded.tags,
			source_urls = excluded.source_urls,
			media_urls = excluded.media_urls,
			authors = excluded.authors,
			preview = excluded.preview,
			md5 = excluded.md5,
			rating = excluded.rating,
			parent_id = excluded.parent_id,
			dimensions = excluded.dimensions,
			poster = excluded.poster,
			poster_id = excluded.poster_id,
			name = excluded.name
	`, post.Source, post.ID, string(tags), string(sourceURLs), string(mediaURLs), string(authors),
		post.Preview, md5JSON, post.Rating.String(), post.ParentID, string(dims),
		post.Poster, post.PosterID, post.Name)
	if err != nil {
		return fmt.Errorf("saving post: %w", err)
	}
	return nil
}

// GetPost retrieves a post by (source, id).
func (s *Store) GetPost(ctx context.Context, source string, id int64) (*domain.Post, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT source, post_id, tags, source_urls, media_urls, authors,
			preview, md5, rating, parent_id, dimensions, poster, poster_id, name
		FROM posts WHERE source = ? AND post_id = ?
	`, source, id)

	post, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting post: %w", err)
	}
	return post, nil
}

// ListPosts returns all archived posts for a source, or every post
// when source is empty. Ordered by source then post ID.
func (s *Store) ListPosts(ctx context.Context, source string) ([]*domain.Post, error) {
	query := `
		SELECT source, post_id, tags, source_urls, media_urls, authors,
			preview, md5, rating, parent_id, dimensions, poster, poster_id, name
		FROM posts`
	args := []any{}
	if source != "" {
		query += " WHERE source = ?"
		args = append(args, source)
	}
	query += " ORDER BY source, post_id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing posts: %w", err)
	}
	defer rows.Close()

	var posts []*domain.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning post: %w", err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating posts: %w", err)
	}
	return posts, nil
}

// DeletePost removes a post.
func (s *Store) DeletePost(ctx context.Context, source string, id int64) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM posts WHERE source = ? AND post_id = ?", source, id); err != nil {
		return fmt.Errorf("deleting post: %w", err)
	}
	return nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanPost(row scanner) (*domain.Post, error) {
	var (
		source, tags, sourceURLs, mediaURLs, authors string
		preview, rating, dims, poster, name          string
		md5JSON                                      sql.NullString
		parentID                                     sql.NullInt64
		postID, posterID                             int64
	)
	if err := row.Scan(&source, &postID, &tags, &sourceURLs, &mediaURLs, &authors,
		&preview, &md5JSON, &rating, &parentID, &dims, &poster, &posterID, &name); err != nil {
		return nil, err
	}

	data := domain.PostData{
		ID:       postID,
		Source:   source,
		Preview:  preview,
		Rating:   rating,
		Poster:   poster,
		PosterID: posterID,
		Name:     name,
	}
	if parentID.Valid {
		data.ParentID = &parentID.Int64
	}
	if err := json.Unmarshal([]byte(tags), &data.Tags); err != nil {
		return nil, fmt.Errorf("unmarshalling tags: %w", err)
	}
	if err := json.Unmarshal([]byte(sourceURLs), &data.SourceURLs); err != nil {
		return nil, fmt.Errorf("unmarshalling source urls: %w", err)
	}
	if err := json.Unmarshal([]byte(mediaURLs), &data.MediaURLs); err != nil {
		return nil, fmt.Errorf("unmarshalling media urls: %w", err)
	}
	if err := json.Unmarshal([]byte(authors), &data.Authors); err != nil {
		return nil, fmt.Errorf("unmarshalling authors: %w", err)
	}
	if err := json.Unmarshal([]byte(dims), &data.Dimensions); err != nil {
		return nil, fmt.Errorf("unmarshalling dimensions: %w", err)
	}
	if md5JSON.Valid {
		if err := json.Unmarshal([]byte(md5JSON.String), &data.MD5); err != nil {
			return nil, fmt.Errorf("unmarshalling hashes: %w", err)
		}
	}

	return domain.NewPost(data), nil
}

// SaveComments stores comments for a post.
func (s *Store) SaveComments(ctx context.Context, comments []*domain.Comment) error {
	for _, c := range comments {
		if c == nil {
			continue
		}
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO comments (source, comment_id, post_id, creator_id, creator, body, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(source, comment_id) DO UPDATE SET
				post_id = excluded.post_id,
				creator_id = excluded.creator_id,
				creator = excluded.creator,
				body = excluded.body,
				created_at = excluded.created_at
		`, c.Source, c.ID, c.PostID, c.CreatorID, c.Creator, c.Body, c.CreatedAt)
		if err != nil {
			return fmt.Errorf("saving comment %d: %w", c.ID, err)
		}
	}
	return nil
}

// ListComments returns archived comments for a post, oldest first.
func (s *Store) ListComments(ctx context.Context, source string, postID int64) ([]*domain.Comment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT source, comment_id, post_id, creator_id, creator, body, created_at
		FROM comments WHERE source = ? AND post_id = ?
		ORDER BY created_at
	`, source, postID)
	if err != nil {
		return nil, fmt.Errorf("listing comments: %w", err)
	}
	defer rows.Close()

	var comments []*domain.Comment
	for rows.Next() {
		var c domain.Comment
		if err := rows.Scan(&c.Source, &c.ID, &c.PostID, &c.CreatorID, &c.Creator, &c.Body, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning comment: %w", err)
		}
		comments = append(comments, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating comments: %w", err)
	}
	return comments, nil
}

// SaveNotes stores annotations for a post.
func (s *Store) SaveNotes(ctx context.Context, notes []*domain.Note) error {
	for _, n := range notes {
		if n == nil {
			continue
		}
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO notes (source, note_id, post_id, x, y, width, height, body, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(source, note_id) DO UPDATE SET
				post_id = excluded.post_id,
				x = excluded.x,
				y = excluded.y,
				width = excluded.width,
				height = excluded.height,
				body = excluded.body,
				created_at = excluded.created_at
		`, n.Source, n.ID, n.PostID, n.X, n.Y, n.Width, n.Height, n.Body, n.CreatedAt)
		if err != nil {
			return fmt.Errorf("saving note %d: %w", n.ID, err)
		}
	}
	return nil
}

// ListNotes returns archived annotations for a post.
func (s *Store) ListNotes(ctx context.Context, source string, postID int64) ([]*domain.Note, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT source, note_id, post_id, x, y, width, height, body, created_at
		FROM notes WHERE source = ? AND post_id = ?
		ORDER BY note_id
	`, source, postID)
	if err != nil {
		return nil, fmt.Errorf("listing notes: %w", err)
	}
	defer rows.Close()

	var notes []*domain.Note
	for rows.Next() {
		var n domain.Note
		if err := rows.Scan(&n.Source, &n.ID, &n.PostID, &n.X, &n.Y, &n.Width, &n.Height, &n.Body, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning note: %w", err)
		}
		notes = append(notes, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating notes: %w", err)
	}
	return notes, nil
}
