package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"account-dispenser/internal/dispenser"
)

// File persists the document as indented JSON at path. Writes go to a temporary
// file that is renamed over the old one, so readers never see a partial document.
type File struct {
	mu   sync.Mutex
	path string
}

func OpenFile(path string) (*File, error) {
	if path == "" {
		path = "data.json"
	}

	if err := ensureDir(path); err != nil {
		return nil, err
	}

	f := &File{path: path}

	f.mu.Lock()
	defer f.mu.Unlock()
	if _, err := f.load(); err != nil {
		return nil, err
	}

	return f, nil
}

func (f *File) View(_ context.Context, fn func(doc *dispenser.Document) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := f.load()
	if err != nil {
		return err
	}
	return view(data, fn)
}

func (f *File) Update(_ context.Context, fn func(doc *dispenser.Document) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := f.load()
	if err != nil {
		return err
	}
	encoded, err := apply(data, fn)
	if err != nil {
		return err
	}
	return f.save(encoded)
}

func (f *File) Ping(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	_, err := os.Stat(f.path)
	return err
}

func (f *File) Close() error {
	return nil
}

// load reads the document, writing the empty one first if none exists.
// Callers hold f.mu.
func (f *File) load() ([]byte, error) {
	data, err := os.ReadFile(f.path)
	if err == nil {
		return data, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read %s: %w", f.path, err)
	}

	encoded, err := dispenser.EncodeDocument(dispenser.NewDocument())
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	if err := f.save(encoded); err != nil {
		return nil, err
	}
	return encoded, nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create store dir %s: %w", dir, err)
	}
	return nil
}

func (f *File) save(data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(f.path), filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", f.path, err)
	}
	return nil
}
