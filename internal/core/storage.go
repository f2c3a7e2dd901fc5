package core

// storage.go implements the staging area: a single directory holding
// validated files until they are combined or removed. Listings are computed
// on every call, so files added or removed by outside actors are visible on
// the next call. Writes go through a temp file and rename, so a reader
// never observes a partially written file.

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Store is the contract the staging area provides to the service and the
// combiner. It is deliberately small so tests can substitute fakes.
type Store interface {
	List() ([]StagedFile, error)
	Put(name string, content []byte) error
	Remove(name string) error
	ReadAll(name string) ([]byte, error)
}

// Dir is a Store backed by a directory on the local filesystem.
type Dir struct {
	root    string
	allowed map[string]bool
}

const tempSuffix = ".tmp"

// NewDir ensures root exists and returns a Store over it. Only files whose
// extension is in extensions appear in listings. Temp files left behind by
// an interrupted writer are swept on startup.
func NewDir(root string, extensions []string) (*Dir, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root %q: %w", root, err)
	}

	d := &Dir{root: root, allowed: extensionSet(extensions)}
	d.sweepTempFiles()
	return d, nil
}

// Root returns the backing directory path.
func (d *Dir) Root() string { return d.root }

// List returns metadata for every staged file, sorted by name so the
// combine order is reproducible.
func (d *Dir) List() ([]StagedFile, error) {
	entries, err := os.ReadDir(d.root)
	if err != nil {
		return nil, fmt.Errorf("list staging area: %w", err)
	}

	files := make([]StagedFile, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !extAllowed(entry.Name(), d.allowed) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			// Removed between ReadDir and stat; it is simply not here.
			continue
		}
		files = append(files, StagedFile{
			Name:    entry.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// Put persists content under name, overwriting any existing file. The
// write lands in a uuid-suffixed temp file first and is renamed into
// place. After the rename the file is read back; a zero-byte result is
// removed and reported as ErrEmptyAfterWrite.
func (d *Dir) Put(name string, content []byte) error {
	if !cleanBasename(name) {
		return fmt.Errorf("%q: unsafe name: %w", name, ErrWriteFailed)
	}

	target := filepath.Join(d.root, name)
	tmp := target + "." + uuid.NewString() + tempSuffix

	if err := os.WriteFile(tmp, content, 0o644); err != nil {
		return fmt.Errorf("%q: %w: %v", name, ErrWriteFailed, err)
	}
	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%q: %w: %v", name, ErrWriteFailed, err)
	}

	written, err := os.ReadFile(target)
	if err != nil {
		return fmt.Errorf("%q: %w: %v", name, ErrWriteFailed, err)
	}
	if len(written) == 0 {
		os.Remove(target)
		return fmt.Errorf("%q: %w", name, ErrEmptyAfterWrite)
	}

	return nil
}

// Remove deletes one staged file by name.
func (d *Dir) Remove(name string) error {
	if !cleanBasename(name) {
		return fmt.Errorf("%q: %w", name, ErrNotFound)
	}

	err := os.Remove(filepath.Join(d.root, name))
	if err == nil {
		return nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%q: %w", name, ErrNotFound)
	}
	return fmt.Errorf("%q: %w: %v", name, ErrRemoveFailed, err)
}

// ReadAll returns the full content of one staged file. Absence is reported
// as ErrNotFound so the combiner can tell a vanished file from a failed
// read.
func (d *Dir) ReadAll(name string) ([]byte, error) {
	if !cleanBasename(name) {
		return nil, fmt.Errorf("%q: %w", name, ErrNotFound)
	}

	data, err := os.ReadFile(filepath.Join(d.root, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%q: %w", name, ErrNotFound)
		}
		return nil, fmt.Errorf("%q: %w: %v", name, ErrReadFailed, err)
	}
	return data, nil
}

// sweepTempFiles removes leftovers from writers that died between
// WriteFile and Rename.
func (d *Dir) sweepTempFiles() {
	entries, err := os.ReadDir(d.root)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), tempSuffix) {
			os.Remove(filepath.Join(d.root, entry.Name()))
		}
	}
}

// cleanBasename reports whether name is a plain file name with no path
// components.
func cleanBasename(name string) bool {
	return name != "" && name != "." && name != ".." && filepath.Base(name) == name
}
