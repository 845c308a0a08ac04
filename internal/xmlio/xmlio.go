// Package xmlio implements the on-disk layout of a pulled document: the
// editable document.xml and styles.xml at the folder root, plus the
// read-only .pristine/document.zip snapshot of both files as of the last
// pull. All writes are atomic (rename-based), so an interrupted pull never
// leaves a half-written file and re-running pull is always safe.
package xmlio

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/calvinalkan/docsync/internal/fsio"
)

const (
	// DocumentFile is the editable semantic tree.
	DocumentFile = "document.xml"
	// StylesFile is the style class dictionary.
	StylesFile = "styles.xml"
	// PristineDir holds the last-pull snapshot.
	PristineDir = ".pristine"
	// PristineZip is the snapshot archive inside PristineDir.
	PristineZip = "document.zip"
)

var (
	// ErrNoPristine is returned by ReadPristine when the folder has no
	// snapshot — it was never pulled, or the snapshot was deleted.
	ErrNoPristine = errors.New("no pristine snapshot")

	// ErrNoDocument is returned by ReadCurrent when document.xml is
	// missing.
	ErrNoDocument = errors.New("no document.xml")
)

// Layout reads and writes one pulled document's folder.
type Layout struct{}

// New returns a Layout backed by the real filesystem.
func New() *Layout {
	return &Layout{}
}

// WriteDocument atomically writes document.xml and styles.xml into dir,
// creating dir if needed.
func (l *Layout) WriteDocument(dir, docXML, stylesXML string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	if err := fsio.WriteFileAtomic(filepath.Join(dir, DocumentFile), []byte(docXML)); err != nil {
		return err
	}

	return fsio.WriteFileAtomic(filepath.Join(dir, StylesFile), []byte(stylesXML))
}

// WritePristine builds a document.zip containing both files and atomically
// replaces .pristine/document.zip.
func (l *Layout) WritePristine(dir, docXML, stylesXML string) error {
	pristine := filepath.Join(dir, PristineDir)
	if err := os.MkdirAll(pristine, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", pristine, err)
	}

	var buf bytes.Buffer

	zw := zip.NewWriter(&buf)

	for _, member := range []struct {
		name string
		body string
	}{
		{DocumentFile, docXML},
		{StylesFile, stylesXML},
	} {
		w, err := zw.Create(member.name)
		if err != nil {
			return fmt.Errorf("zip create %s: %w", member.name, err)
		}

		if _, err := w.Write([]byte(member.body)); err != nil {
			return fmt.Errorf("zip write %s: %w", member.name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("zip close: %w", err)
	}

	return fsio.WriteFileAtomic(filepath.Join(pristine, PristineZip), buf.Bytes())
}

// ReadPristine opens .pristine/document.zip and extracts both members.
func (l *Layout) ReadPristine(dir string) (docXML, stylesXML string, err error) {
	path := filepath.Join(dir, PristineDir, PristineZip)

	zr, err := zip.OpenReader(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", "", fmt.Errorf("%w: %s", ErrNoPristine, path)
		}

		return "", "", fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = zr.Close() }()

	members := map[string]*string{
		DocumentFile: &docXML,
		StylesFile:   &stylesXML,
	}

	for _, f := range zr.File {
		dst, ok := members[f.Name]
		if !ok {
			continue
		}

		rc, openErr := f.Open()
		if openErr != nil {
			return "", "", fmt.Errorf("zip open %s: %w", f.Name, openErr)
		}

		data, readErr := io.ReadAll(rc)

		_ = rc.Close()

		if readErr != nil {
			return "", "", fmt.Errorf("zip read %s: %w", f.Name, readErr)
		}

		*dst = string(data)

		delete(members, f.Name)
	}

	if len(members) > 0 {
		return "", "", fmt.Errorf("%w: %s is missing members", ErrNoPristine, path)
	}

	return docXML, stylesXML, nil
}

// ReadCurrent reads the editable document.xml and styles.xml.
func (l *Layout) ReadCurrent(dir string) (docXML, stylesXML string, err error) {
	doc, err := os.ReadFile(filepath.Join(dir, DocumentFile))
	if err != nil {
		if os.IsNotExist(err) {
			return "", "", fmt.Errorf("%w in %s", ErrNoDocument, dir)
		}

		return "", "", fmt.Errorf("read %s: %w", DocumentFile, err)
	}

	styles, err := os.ReadFile(filepath.Join(dir, StylesFile))
	if err != nil && !os.IsNotExist(err) {
		return "", "", fmt.Errorf("read %s: %w", StylesFile, err)
	}

	return string(doc), string(styles), nil
}
