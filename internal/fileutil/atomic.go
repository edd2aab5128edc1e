// Package fileutil provides file system utilities.
package fileutil

import (
	"fmt"
	"os"
	"path/filepath"
)

// AtomicWriter streams data to a temporary file and publishes it to its
// final path only on Commit. Readers see either the previous file or the
// complete new one, never a partial write. Abandoned writers are cleaned
// up by Close.
type AtomicWriter struct {
	f     *os.File
	final string
	perm  os.FileMode
	done  bool
}

// CreateAtomic opens an AtomicWriter targeting filename. The temporary file
// lives in the same directory so the final rename stays on one filesystem.
func CreateAtomic(filename string, perm os.FileMode) (*AtomicWriter, error) {
	f, err := os.CreateTemp(filepath.Dir(filename), filepath.Base(filename)+".tmp.*")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	return &AtomicWriter{f: f, final: filename, perm: perm}, nil
}

func (w *AtomicWriter) Write(p []byte) (int, error) {
	return w.f.Write(p)
}

// Commit syncs, closes, and renames the temporary file into place.
func (w *AtomicWriter) Commit() error {
	if w.done {
		return fmt.Errorf("atomic writer for %s already closed", w.final)
	}
	w.done = true
	tmp := w.f.Name()
	if err := w.f.Sync(); err != nil {
		w.f.Close()
		os.Remove(tmp)
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := w.f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmp, w.perm); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("set permissions: %w", err)
	}
	if err := os.Rename(tmp, w.final); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// Close discards the writer if Commit was never called. Safe to defer.
func (w *AtomicWriter) Close() error {
	if w.done {
		return nil
	}
	w.done = true
	w.f.Close()
	return os.Remove(w.f.Name())
}

// WriteFileAtomic writes data to filename in one atomic publish.
func WriteFileAtomic(filename string, data []byte, perm os.FileMode) error {
	w, err := CreateAtomic(filename, perm)
	if err != nil {
		return err
	}
	defer w.Close()
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	return w.Commit()
}
