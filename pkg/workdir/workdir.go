// Package workdir models the working directory as an explicit value.
//
// Components never call os.Chdir on their own: they receive a Dir and pass
// its path to every process and file operation. Chdir exists for the rare
// collaborator that only understands the ambient process directory.
package workdir

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Dir is an immutable absolute directory path.
type Dir struct {
	path string
}

// New resolves path to an absolute Dir.
func New(path string) (Dir, error) {
	if path == "" {
		path = "."
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return Dir{}, fmt.Errorf("resolve working directory %q: %w", path, err)
	}
	return Dir{path: filepath.Clean(abs)}, nil
}

// MustNew is New for static paths; it panics on error.
func MustNew(path string) Dir {
	d, err := New(path)
	if err != nil {
		panic(err)
	}
	return d
}

// Path returns the absolute path.
func (d Dir) Path() string { return d.path }

// IsZero reports whether d was never initialised.
func (d Dir) IsZero() bool { return d.path == "" }

// String implements fmt.Stringer.
func (d Dir) String() string { return d.path }

// Join resolves elem relative to d. Absolute elements are returned as-is.
func (d Dir) Join(elem ...string) string {
	if len(elem) > 0 && filepath.IsAbs(elem[0]) {
		return filepath.Join(elem...)
	}
	return filepath.Join(append([]string{d.path}, elem...)...)
}

// Sub returns the directory rel below d.
func (d Dir) Sub(rel string) Dir {
	return Dir{path: filepath.Clean(d.Join(rel))}
}

// Ensure creates the directory (and parents) when missing.
func (d Dir) Ensure() error {
	if err := os.MkdirAll(d.path, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", d.path, err)
	}
	return nil
}

// Exists reports whether the directory exists.
func (d Dir) Exists() bool {
	info, err := os.Stat(d.path)
	return err == nil && info.IsDir()
}

// Within runs fn with the sub directory rel of d, creating it when create is set.
// The caller's Dir is never modified, so returning from fn restores the scope.
func Within(d Dir, rel string, create bool, fn func(Dir) error) error {
	sub := d.Sub(rel)
	if create {
		if err := sub.Ensure(); err != nil {
			return err
		}
	}
	return fn(sub)
}

var chdirMu sync.Mutex

// Chdir switches the process working directory to d for the duration of fn.
// The previous directory is restored on every exit path, including panics.
// Calls are serialised because the process directory is global state.
func Chdir(d Dir, fn func() error) (err error) {
	chdirMu.Lock()
	defer chdirMu.Unlock()

	prev, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("read working directory: %w", err)
	}
	if err := os.Chdir(d.path); err != nil {
		return fmt.Errorf("enter %s: %w", d.path, err)
	}
	defer func() {
		if rerr := os.Chdir(prev); rerr != nil && err == nil {
			err = fmt.Errorf("restore working directory %s: %w", prev, rerr)
		}
	}()
	return fn()
}

// WriteFile replaces path with data atomically: readers see either the old
// file or the complete new one, never a partial write.
func WriteFile(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp.*")
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Chmod(perm); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
