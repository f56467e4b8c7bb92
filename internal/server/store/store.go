// Package store persists encoded carrier PNGs and their metadata
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrNotFound indicates the requested artifact does not exist
var ErrNotFound = fmt.Errorf("artifact not found")

// Artifact describes a stored carrier PNG
type Artifact struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Size        int64     `json:"size"`
	ChunkCount  int       `json:"chunk_count"`
	HiddenCount int       `json:"hidden_count"`
	Created     time.Time `json:"created"`
}

// Store keeps artifact PNGs on disk with metadata in SQLite
type Store struct {
	db      *sql.DB
	dataDir string
}

// New opens the artifact store rooted at dataDir
func New(ctx context.Context, dataDir, dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Join(dataDir, "artifacts"), 0755); err != nil {
		return nil, fmt.Errorf("creating artifacts directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}

	// Verify connectivity
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("connecting to sqlite: %w", err)
	}

	// Apply pragmas for optimal performance
	for _, pragma := range allPragmas() {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return nil, fmt.Errorf("setting pragma: %w", err)
		}
	}

	// Create schema
	for _, stmt := range allSchemaStatements() {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("creating schema: %w", err)
		}
	}

	return &Store{db: db, dataDir: dataDir}, nil
}

// Close closes the metadata database
func (s *Store) Close() error {
	return s.db.Close()
}

// artifactPath returns the on-disk location of an artifact's PNG bytes
func (s *Store) artifactPath(id string) string {
	return filepath.Join(s.dataDir, "artifacts", id+".png")
}

// Put stores PNG bytes and metadata as a new artifact
func (s *Store) Put(ctx context.Context, name string, data []byte, chunkCount, hiddenCount int) (*Artifact, error) {
	art := &Artifact{
		ID:          uuid.New().String(),
		Name:        name,
		Size:        int64(len(data)),
		ChunkCount:  chunkCount,
		HiddenCount: hiddenCount,
		Created:     time.Now(),
	}

	if err := os.WriteFile(s.artifactPath(art.ID), data, 0644); err != nil {
		return nil, fmt.Errorf("writing artifact file: %w", err)
	}

	query := `
		INSERT INTO artifacts (id, name, size, chunk_count, hidden_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	if _, err := s.db.ExecContext(ctx, query,
		art.ID,
		art.Name,
		art.Size,
		art.ChunkCount,
		art.HiddenCount,
		art.Created.Format(time.RFC3339),
	); err != nil {
		os.Remove(s.artifactPath(art.ID))
		return nil, fmt.Errorf("inserting artifact: %w", err)
	}

	return art, nil
}

// Get retrieves artifact metadata by ID
func (s *Store) Get(ctx context.Context, id string) (*Artifact, error) {
	query := `
		SELECT id, name, size, chunk_count, hidden_count, created_at
		FROM artifacts
		WHERE id = ?
	`
	row := s.db.QueryRowContext(ctx, query, id)
	return scanArtifact(row)
}

// Data returns the stored PNG bytes for an artifact
func (s *Store) Data(ctx context.Context, id string) ([]byte, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.artifactPath(id))
	if err != nil {
		return nil, fmt.Errorf("reading artifact file: %w", err)
	}
	return data, nil
}

// List returns artifact metadata ordered newest first
func (s *Store) List(ctx context.Context, limit, offset int) ([]*Artifact, error) {
	query := `
		SELECT id, name, size, chunk_count, hidden_count, created_at
		FROM artifacts
		ORDER BY created_at DESC, id
		LIMIT ? OFFSET ?
	`
	rows, err := s.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var artifacts []*Artifact
	for rows.Next() {
		var art Artifact
		var createdAt string
		if err := rows.Scan(&art.ID, &art.Name, &art.Size, &art.ChunkCount, &art.HiddenCount, &createdAt); err != nil {
			continue
		}
		if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
			art.Created = t
		}
		artifacts = append(artifacts, &art)
	}

	return artifacts, nil
}

// Count returns the number of stored artifacts
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM artifacts`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Delete removes an artifact's metadata row and PNG bytes
func (s *Store) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM artifacts WHERE id = ?`, id)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	if err := os.Remove(s.artifactPath(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing artifact file: %w", err)
	}
	return nil
}

func scanArtifact(row *sql.Row) (*Artifact, error) {
	var art Artifact
	var createdAt string

	err := row.Scan(&art.ID, &art.Name, &art.Size, &art.ChunkCount, &art.HiddenCount, &createdAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		art.Created = t
	}

	return &art, nil
}
