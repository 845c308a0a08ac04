// Package docstore is the local registry of pulled documents: one small
// Markdown file with a fixed frontmatter header per document under the
// registry directory, so `docsync ls` can answer "what have I pulled,
// and when" without talking to any API.
package docstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/calvinalkan/docsync/internal/fsio"
)

var (
	// ErrNotFound is returned by Get for an unknown document id.
	ErrNotFound = errors.New("document not in registry")

	// ErrBadRecord wraps a parse failure of one record file. List reports
	// these per-record rather than failing the whole listing.
	ErrBadRecord = errors.New("bad registry record")
)

// Record describes one locally pulled document.
type Record struct {
	DocID    string
	Title    string
	Revision string
	TabCount int
	// LocalDir is the folder document.xml was pulled into.
	LocalDir string
	PulledAt time.Time
	// Notes is the record file's free-form Markdown tail; docsync never
	// writes it, but a user's annotations survive re-pulls.
	Notes string
}

// ListEntry pairs a record with its source path, or carries the parse
// error for a corrupt record file.
type ListEntry struct {
	Path   string
	Record Record
	Err    error
}

// Store reads and writes registry records in one directory.
type Store struct {
	dir string
}

// New returns a Store over the given registry directory. The directory is
// created lazily on first Put.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// Path returns the record file path for a document id.
func (s *Store) Path(docID string) string {
	return filepath.Join(s.dir, docID+".md")
}

// Put writes (or replaces) the record for r.DocID, preserving the Notes
// tail of an existing record when r.Notes is empty.
func (s *Store) Put(r Record) error {
	if r.DocID == "" {
		return fmt.Errorf("%w: empty doc id", ErrBadRecord)
	}

	if r.Notes == "" {
		if existing, err := s.Get(r.DocID); err == nil {
			r.Notes = existing.Notes
		}
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create registry dir: %w", err)
	}

	if err := fsio.WriteFileAtomic(s.Path(r.DocID), []byte(marshalRecord(r))); err != nil {
		return fmt.Errorf("write record %s: %w", r.DocID, err)
	}

	return nil
}

// Get reads one record by document id.
func (s *Store) Get(docID string) (Record, error) {
	data, err := os.ReadFile(s.Path(docID))
	if err != nil {
		if os.IsNotExist(err) {
			return Record{}, fmt.Errorf("%w: %s", ErrNotFound, docID)
		}

		return Record{}, fmt.Errorf("read record %s: %w", docID, err)
	}

	rec, err := unmarshalRecord(data)
	if err != nil {
		return Record{}, fmt.Errorf("%w %s: %w", ErrBadRecord, docID, err)
	}

	return rec, nil
}

// Delete removes a record. Deleting an absent record is not an error.
func (s *Store) Delete(docID string) error {
	err := os.Remove(s.Path(docID))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete record %s: %w", docID, err)
	}

	return nil
}

// List returns every record in the registry, sorted by record file path.
// Corrupt record files are reported as entries with Err set instead of
// aborting the listing.
func (s *Store) List() ([]ListEntry, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("read registry dir: %w", err)
	}

	var out []ListEntry

	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".md") {
			continue
		}

		path := filepath.Join(s.dir, name)

		data, readErr := os.ReadFile(path)
		if readErr != nil {
			out = append(out, ListEntry{Path: path, Err: readErr})
			continue
		}

		rec, parseErr := unmarshalRecord(data)
		if parseErr != nil {
			out = append(out, ListEntry{Path: path, Err: fmt.Errorf("%w: %w", ErrBadRecord, parseErr)})
			continue
		}

		out = append(out, ListEntry{Path: path, Record: rec})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })

	return out, nil
}
