// Package attachments stores uploaded files under MyFiles and keeps their
// metadata in SQLite. Templates reach it through attachedFile(id).
package attachments

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/natefinch/atomic"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when no attachment has the requested id.
var ErrNotFound = errors.New("attachments: not found")

// AttachedFile is one stored upload. Path is relative to the files directory
// and always uses forward slashes.
type AttachedFile struct {
	ID       int64     `json:"idfile"`
	Filename string    `json:"filename"`
	Path     string    `json:"path"`
	MimeType string    `json:"mimetype"`
	Size     int64     `json:"size"`
	Date     time.Time `json:"date"`
}

// URL is the public link served for the file.
func (f AttachedFile) URL() string {
	if f.Path == "" {
		return ""
	}
	return "MyFiles/" + f.Path
}

// IsImage reports whether the mime type is an image.
func (f AttachedFile) IsImage() bool {
	return strings.HasPrefix(f.MimeType, "image/")
}

const schema = `CREATE TABLE IF NOT EXISTS attached_files (
  idfile   INTEGER PRIMARY KEY AUTOINCREMENT,
  filename TEXT NOT NULL,
  path     TEXT NOT NULL UNIQUE,
  mimetype TEXT NOT NULL DEFAULT '',
  size     INTEGER NOT NULL DEFAULT 0,
  date     INTEGER NOT NULL
)`

// Store persists attachments.
type Store struct {
	db       *sql.DB
	filesDir string
	now      func() time.Time
}

// Open opens (creating when needed) the database at dbPath. Uploaded files
// are written below filesDir.
func Open(dbPath, filesDir string) (*Store, error) {
	if strings.TrimSpace(dbPath) == "" {
		return nil, fmt.Errorf("attachments: database path is required")
	}
	if strings.TrimSpace(filesDir) == "" {
		return nil, fmt.Errorf("attachments: files directory is required")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("attachments: create database dir: %w", err)
	}
	dsn := filepath.Clean(dbPath) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("attachments: open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("attachments: ping sqlite db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("attachments: migrate: %w", err)
	}
	return &Store{db: db, filesDir: filesDir, now: time.Now}, nil
}

// OpenRoot opens the store laid out the usual way under an installation
// root: MyFiles/attachments.db for metadata and MyFiles for content.
func OpenRoot(root string) (*Store, error) {
	myFiles := filepath.Join(root, "MyFiles")
	return Open(filepath.Join(myFiles, "attachments.db"), myFiles)
}

// Close closes the database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save writes content under a dated folder and records it. The returned
// record carries the assigned id.
func (s *Store) Save(ctx context.Context, filename string, content io.Reader) (AttachedFile, error) {
	if err := ctx.Err(); err != nil {
		return AttachedFile{}, err
	}
	if s == nil || s.db == nil {
		return AttachedFile{}, fmt.Errorf("attachments: store is not configured")
	}
	name := filepath.Base(strings.TrimSpace(filename))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return AttachedFile{}, fmt.Errorf("attachments: filename is required")
	}

	date := s.now().UTC()
	rel := path.Join(date.Format("2006"), date.Format("01"), fmt.Sprintf("%d_%s", date.UnixNano(), name))
	target := filepath.Join(s.filesDir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return AttachedFile{}, fmt.Errorf("attachments: create dir: %w", err)
	}

	if content == nil {
		content = strings.NewReader("")
	}
	counter := &countingReader{r: content}
	if err := atomic.WriteFile(target, counter); err != nil {
		return AttachedFile{}, fmt.Errorf("attachments: write %s: %w", rel, err)
	}

	file := AttachedFile{
		Filename: name,
		Path:     rel,
		MimeType: mime.TypeByExtension(filepath.Ext(name)),
		Size:     counter.n,
		Date:     date,
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO attached_files (filename, path, mimetype, size, date) VALUES (?, ?, ?, ?, ?)`,
		file.Filename, file.Path, file.MimeType, file.Size, date.UnixMilli(),
	)
	if err != nil {
		_ = os.Remove(target)
		return AttachedFile{}, fmt.Errorf("attachments: insert: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return AttachedFile{}, fmt.Errorf("attachments: last insert id: %w", err)
	}
	file.ID = id
	return file, nil
}

// Get loads one attachment.
func (s *Store) Get(ctx context.Context, id int64) (AttachedFile, error) {
	if err := ctx.Err(); err != nil {
		return AttachedFile{}, err
	}
	if s == nil || s.db == nil {
		return AttachedFile{}, fmt.Errorf("attachments: store is not configured")
	}
	var (
		file   AttachedFile
		millis int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT idfile, filename, path, mimetype, size, date FROM attached_files WHERE idfile = ?`, id,
	).Scan(&file.ID, &file.Filename, &file.Path, &file.MimeType, &file.Size, &millis)
	if errors.Is(err, sql.ErrNoRows) {
		return AttachedFile{}, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	if err != nil {
		return AttachedFile{}, fmt.Errorf("attachments: get %d: %w", id, err)
	}
	file.Date = time.UnixMilli(millis).UTC()
	return file, nil
}

// Delete removes the record and its file. A file already gone from disk is
// not an error.
func (s *Store) Delete(ctx context.Context, id int64) error {
	file, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM attached_files WHERE idfile = ?`, id); err != nil {
		return fmt.Errorf("attachments: delete %d: %w", id, err)
	}
	target := filepath.Join(s.filesDir, filepath.FromSlash(file.Path))
	if err := os.Remove(target); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("attachments: remove %s: %w", file.Path, err)
	}
	return nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
