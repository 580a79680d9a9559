package testutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/gantry/pkg/workdir"
	"github.com/stretchr/testify/require"
)

// SetupProject creates a temporary project root and writes files into it.
// Keys are slash separated paths relative to the root.
// It fails the test immediately on error.
func SetupProject(t *testing.T, files map[string]string) workdir.Dir {
	t.Helper()

	dir, err := workdir.New(t.TempDir())
	require.NoError(t, err, "Failed to resolve temp dir")

	for rel, content := range files {
		WriteFile(t, dir, rel, content)
	}
	return dir
}

// WriteFile writes content below dir, creating parents.
func WriteFile(t *testing.T, dir workdir.Dir, rel, content string) {
	t.Helper()
	path := dir.Join(filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// ReadFile returns the content below dir.
func ReadFile(t *testing.T, dir workdir.Dir, rel string) string {
	t.Helper()
	data, err := os.ReadFile(dir.Join(filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(data)
}
