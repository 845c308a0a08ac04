// Package fsio holds the two filesystem primitives docsync's local
// layout depends on: atomic file replacement (document.xml, styles.xml,
// and the pristine snapshot must never be observable half-written) and a
// per-folder advisory lock (two docsync invocations on the same folder
// must not interleave writes).
package fsio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
)

// LockFileName is the advisory lock file docsync keeps in every document
// folder. It carries no content; only its flock state matters.
const LockFileName = ".docsync.lock"

// ErrFolderLocked is returned by LockFolder when another docsync process
// holds the folder's lock.
var ErrFolderLocked = errors.New("folder in use by another docsync")

// WriteFileAtomic replaces path with data without ever exposing a
// half-written file: data lands in a temp file in the same directory,
// is fsynced, and renamed over path. The directory is fsynced afterwards
// so the rename itself survives a crash. An interrupted write leaves the
// old file intact (at worst plus an orphaned temp file, which the next
// successful write of the same path does not disturb).
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, ".docsync-write-*")
	if err != nil {
		return fmt.Errorf("atomic write %s: %w", path, err)
	}

	tmpName := tmp.Name()

	fail := func(step string, cause error) error {
		_ = tmp.Close()
		_ = os.Remove(tmpName)

		return fmt.Errorf("atomic write %s: %s: %w", path, step, cause)
	}

	if _, err := tmp.Write(data); err != nil {
		return fail("write", err)
	}

	if err := tmp.Sync(); err != nil {
		return fail("sync", err)
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)

		return fmt.Errorf("atomic write %s: close: %w", path, err)
	}

	if err := os.Chmod(tmpName, 0o644); err != nil {
		_ = os.Remove(tmpName)

		return fmt.Errorf("atomic write %s: chmod: %w", path, err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)

		return fmt.Errorf("atomic write %s: rename: %w", path, err)
	}

	return syncDir(dir)
}

// syncDir fsyncs a directory so a just-renamed entry is durable.
func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return fmt.Errorf("sync dir %s: %w", dir, err)
	}

	err = d.Sync()

	if closeErr := d.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		return fmt.Errorf("sync dir %s: %w", dir, err)
	}

	return nil
}

// FolderLock is a held lock on one document folder. Close releases it.
type FolderLock struct {
	file *os.File
}

// LockFolder takes dir's advisory lock without blocking, creating dir
// (and the lock file) if needed. A second process asking for the same
// folder gets ErrFolderLocked immediately rather than queueing — the CLI
// reports the conflict and exits, it never waits on another invocation.
//
// flock locks the open file, not the pathname, and is released
// automatically if the process dies, so a crashed docsync never leaves a
// folder permanently locked.
func LockFolder(dir string) (*FolderLock, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("lock %s: %w", dir, err)
	}

	file, err := os.OpenFile(filepath.Join(dir, LockFileName), os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", dir, err)
	}

	if err := syscall.Flock(int(file.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		_ = file.Close()

		if errors.Is(err, syscall.EWOULDBLOCK) || errors.Is(err, syscall.EAGAIN) {
			return nil, fmt.Errorf("%w: %s", ErrFolderLocked, dir)
		}

		return nil, fmt.Errorf("lock %s: %w", dir, err)
	}

	return &FolderLock{file: file}, nil
}

// Close releases the lock. Idempotent — a second Close returns nil.
func (l *FolderLock) Close() error {
	if l.file == nil {
		return nil
	}

	file := l.file
	l.file = nil

	// Closing the fd drops the flock; no explicit LOCK_UN needed.
	if err := file.Close(); err != nil {
		return fmt.Errorf("unlock: %w", err)
	}

	return nil
}
