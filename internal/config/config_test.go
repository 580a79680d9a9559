package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/gantry/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), config.DefaultFile))
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
	assert.Equal(t, "demo", cfg.Demo.Dir)
	assert.Equal(t, []string{"readme.md", "node_modules", ".git", "dist"}, cfg.Demo.Preserve)
	assert.Equal(t, "SAUCE_USERNAME", cfg.Fixtures.CredentialEnv)
}

func TestLoad_Overrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), config.DefaultFile)
	require.NoError(t, os.WriteFile(path, []byte(`
demo:
  dir: site
fixtures:
  credential_env: ""
release:
  targets:
    release:
      remote: upstream
      branch: gh-pages
lock:
  redis: localhost:6379
  ttl: 30s
tasks:
  stage:
    options:
      files: [CHANGELOG.md, package.json]
`), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "site", cfg.Demo.Dir)
	assert.Equal(t, []string{"readme.md", "node_modules", ".git", "dist"}, cfg.Demo.Preserve)
	assert.Equal(t, "SAUCE_USERNAME", cfg.Fixtures.CredentialEnv, "blank values fall back")
	assert.Equal(t, config.PublishTarget{Remote: "upstream", Branch: "gh-pages"}, cfg.Release.Targets["release"])
	assert.Equal(t, "localhost:6379", cfg.Lock.Redis)
	assert.Equal(t, 30*time.Second, cfg.Lock.TTL)
	assert.Equal(t, []any{"CHANGELOG.md", "package.json"}, cfg.TaskOptions()["stage"]["files"])
}

func TestLoad_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), config.DefaultFile)
	require.NoError(t, os.WriteFile(path, []byte("demo: [unterminated"), 0o644))
	_, err := config.Load(path)
	assert.Error(t, err)
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("GANTRY_ENV_NEW=from-file\nGANTRY_ENV_SET=from-file\n"), 0o644))

	t.Setenv("GANTRY_ENV_SET", "from-shell")
	t.Setenv("GANTRY_ENV_NEW", "")
	require.NoError(t, os.Unsetenv("GANTRY_ENV_NEW"))

	require.NoError(t, config.LoadEnv(path))
	assert.Equal(t, "from-file", os.Getenv("GANTRY_ENV_NEW"))
	assert.Equal(t, "from-shell", os.Getenv("GANTRY_ENV_SET"), "existing variables win")

	assert.NoError(t, config.LoadEnv(filepath.Join(dir, "missing.env")))
	assert.NoError(t, config.LoadEnv(""))
}
