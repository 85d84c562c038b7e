// Package library implements the on-disk song library: a SQLite database
// keyed by UUID, with a content hash per entry so re-adding the same source
// text is a no-op instead of a duplicate.
package library

import (
	"database/sql"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"

	"github.com/strophe/strophe/core/cache"
	"github.com/strophe/strophe/core/errors"
	"github.com/strophe/strophe/core/song"
	"github.com/strophe/strophe/core/sqlite"
	"github.com/strophe/strophe/internal/formats/base"
	"github.com/strophe/strophe/internal/logging"
)

// Entry is one stored song.
type Entry struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Dialect     string    `json:"dialect"`
	ContentHash string    `json:"content_hash"`
	Source      string    `json:"source"`
	CreatedAt   time.Time `json:"created_at"`
}

// Store is a song library backed by a SQLite database. Parse results are
// cached by content hash so repeated Song lookups do not re-parse.
type Store struct {
	db    *sql.DB
	path  string
	songs *cache.SongCache
}

const schema = `
CREATE TABLE IF NOT EXISTS songs (
	id            TEXT PRIMARY KEY,
	title         TEXT NOT NULL,
	dialect       TEXT NOT NULL,
	content_hash  TEXT NOT NULL UNIQUE,
	source        TEXT NOT NULL,
	created_at    TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_songs_title ON songs(title);
`

// Open opens (creating if needed) the library database at path.
func Open(path string) (*Store, error) {
	db, err := sqlite.Open(path)
	if err != nil {
		return nil, errors.NewIO("open", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "initializing library schema")
	}
	return &Store{db: db, path: path, songs: cache.NewDefaultSongCache()}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s.db != nil {
		err := s.db.Close()
		s.db = nil
		return err
	}
	return nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// hashContent returns the hex blake3 hash of the raw source text.
func hashContent(content []byte) string {
	sum := blake3.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// Add stores a song source. The dialect may be empty, in which case it is
// detected. Adding content that already exists returns the existing entry
// unchanged.
func (s *Store) Add(content []byte, dialect string) (*Entry, error) {
	hash := hashContent(content)
	if existing, err := s.byHash(hash); err == nil {
		logging.LibraryEvent("add-dedup", existing.ID)
		return existing, nil
	} else if !errors.Is(err, errors.ErrNotFound) {
		return nil, err
	}

	parsed, _, err := base.Parse(content, dialect)
	if err != nil {
		return nil, err
	}
	if dialect == "" {
		d, res := base.Detect(content)
		if d == nil {
			return nil, errors.NewUnsupported("content", res.Reason)
		}
		dialect = d.Name()
	}
	title := parsed.Title
	if title == "" {
		title = "Untitled"
	}

	entry := &Entry{
		ID:          uuid.NewString(),
		Title:       title,
		Dialect:     dialect,
		ContentHash: hash,
		Source:      string(content),
		CreatedAt:   time.Now().UTC(),
	}
	_, err = s.db.Exec(
		`INSERT INTO songs (id, title, dialect, content_hash, source, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.Title, entry.Dialect, entry.ContentHash, entry.Source, entry.CreatedAt,
	)
	if err != nil {
		return nil, errors.Wrap(err, "inserting song")
	}
	logging.LibraryEvent("add", entry.ID)
	return entry, nil
}

func (s *Store) byHash(hash string) (*Entry, error) {
	return s.scanOne(`SELECT id, title, dialect, content_hash, source, created_at FROM songs WHERE content_hash = ?`, hash)
}

// Get returns the entry with the given ID.
func (s *Store) Get(id string) (*Entry, error) {
	return s.scanOne(`SELECT id, title, dialect, content_hash, source, created_at FROM songs WHERE id = ?`, id)
}

func (s *Store) scanOne(query string, arg string) (*Entry, error) {
	var e Entry
	err := s.db.QueryRow(query, arg).Scan(
		&e.ID, &e.Title, &e.Dialect, &e.ContentHash, &e.Source, &e.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("song", arg)
	}
	if err != nil {
		return nil, errors.Wrap(err, "querying song")
	}
	return &e, nil
}

// List returns all entries ordered by title.
func (s *Store) List() ([]Entry, error) {
	return s.scanMany(`SELECT id, title, dialect, content_hash, source, created_at FROM songs ORDER BY title, id`)
}

// Search returns entries whose title or source contains the query,
// case-insensitively, ordered by title.
func (s *Store) Search(query string) ([]Entry, error) {
	pattern := "%" + query + "%"
	return s.scanMany(
		`SELECT id, title, dialect, content_hash, source, created_at FROM songs
		 WHERE title LIKE ? OR source LIKE ? ORDER BY title, id`,
		pattern, pattern)
}

func (s *Store) scanMany(query string, args ...any) ([]Entry, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "querying songs")
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Title, &e.Dialect, &e.ContentHash, &e.Source, &e.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scanning song row")
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Delete removes the entry with the given ID.
func (s *Store) Delete(id string) error {
	res, err := s.db.Exec(`DELETE FROM songs WHERE id = ?`, id)
	if err != nil {
		return errors.Wrap(err, "deleting song")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errors.NewNotFound("song", id)
	}
	logging.LibraryEvent("delete", id)
	return nil
}

// Song parses the stored source of an entry back into the song model.
// Results are cached by content hash; the returned song is immutable and
// may be shared between callers.
func (s *Store) Song(id string) (*song.Song, []song.Diagnostic, error) {
	entry, err := s.Get(id)
	if err != nil {
		return nil, nil, err
	}
	if hit, ok := s.songs.Get(entry.ContentHash); ok {
		return hit.Song, hit.Diags, nil
	}
	parsed, diags, err := base.Parse([]byte(entry.Source), entry.Dialect)
	if err != nil {
		return nil, nil, err
	}
	s.songs.Put(entry.ContentHash, &cache.ParseResult{Song: parsed, Diags: diags})
	return parsed, diags, nil
}
