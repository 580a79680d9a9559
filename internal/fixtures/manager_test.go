package fixtures_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/gantry/internal/config"
	"github.com/aretw0/gantry/internal/fixtures"
	"github.com/aretw0/gantry/internal/testutils"
	"github.com/aretw0/gantry/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const packageTemplate = `{
  "name": "<%= _.slugify(_.humanize(appname)) %>",
  "version": "0.0.0",
  "dependencies": {
    "express": "~4.0.0",<% if (filters.mongoose) { %>
    "mongoose": "~4.0.3",<% } %><% if (filters.socketio) { %>
    "socket.io": "^1.0.6",<% } %>
    "lodash": "~2.4.1"
  }
}
`

const bowerTemplate = `{
  "name": "<%= _.slugify(_.humanize(appname)) %>",
  "dependencies": {
    "angular": ">=1.2.*"<% if (filters.bootstrap) { %>,
    "bootstrap": "~3.1.1"<% } %>
  }
}
`

func noEnv(string) (string, bool) { return "", false }

func newManager(t *testing.T, runner *testutils.FakeRunner, opts ...fixtures.Option) (*fixtures.Manager, string) {
	t.Helper()
	root := testutils.SetupProject(t, map[string]string{
		"app/templates/_package.json": packageTemplate,
		"app/templates/_bower.json":   bowerTemplate,
	})
	cfg := config.Default().Fixtures
	return fixtures.NewManager(root, cfg, runner, opts...), root.Join(cfg.Dir)
}

func TestUpdateFixtures(t *testing.T) {
	m, _ := newManager(t, testutils.NewFakeRunner())
	require.NoError(t, m.UpdateFixtures(context.Background()))

	pkg := testutils.ReadFile(t, m.Dir(), fixtures.PackageFile)
	assert.Equal(t, `{
  "name": "tempApp",
  "version": "0.0.0",
  "dependencies": {
    "express": "~4.0.0",
    "lodash": "~2.4.1"
  }
}
`, pkg)

	bower := testutils.ReadFile(t, m.Dir(), fixtures.BowerFile)
	assert.Contains(t, bower, `"name": "tempApp"`)
	assert.NotContains(t, bower, "bootstrap")
	assert.NotContains(t, bower, "<%")
}

func TestUpdateFixtures_Overwrites(t *testing.T) {
	m, _ := newManager(t, testutils.NewFakeRunner())
	testutils.WriteFile(t, m.Dir(), fixtures.PackageFile, "stale content that must vanish entirely")

	require.NoError(t, m.UpdateFixtures(context.Background()))
	assert.NotContains(t, testutils.ReadFile(t, m.Dir(), fixtures.PackageFile), "stale")
}

func TestUpdateFixtures_MissingTemplate(t *testing.T) {
	root := testutils.SetupProject(t, map[string]string{"app/templates/_package.json": packageTemplate})
	m := fixtures.NewManager(root, config.Default().Fixtures, testutils.NewFakeRunner())

	err := m.UpdateFixtures(context.Background())
	require.Error(t, err)
	assert.NoFileExists(t, m.Dir().Join(fixtures.PackageFile), "nothing is written when a template is missing")
}

func TestUpdateFixtures_Malformed(t *testing.T) {
	root := testutils.SetupProject(t, map[string]string{
		"app/templates/_package.json": `{"name": "<%= appname"}`,
		"app/templates/_bower.json":   bowerTemplate,
	})
	m := fixtures.NewManager(root, config.Default().Fixtures, testutils.NewFakeRunner())

	var malformed *domain.MalformedTemplateError
	assert.True(t, errors.As(m.UpdateFixtures(context.Background()), &malformed))
}

func TestInstallFixtures(t *testing.T) {
	t.Run("Runs Webdriver Without Credentials", func(t *testing.T) {
		runner := testutils.NewFakeRunner()
		m, dir := newManager(t, runner, fixtures.WithLookupEnv(noEnv))

		require.NoError(t, m.InstallFixtures(context.Background()))
		assert.Equal(t, []string{"npm install --quiet", "bower install", "npm run update-webdriver"}, runner.CommandLines())
		assert.Equal(t, []string{dir, dir, dir}, runner.Dirs())
	})

	t.Run("Skips Webdriver With Credentials", func(t *testing.T) {
		runner := testutils.NewFakeRunner()
		m, _ := newManager(t, runner, fixtures.WithLookupEnv(func(key string) (string, bool) {
			if key == "SAUCE_USERNAME" {
				return "ci-user", true
			}
			return "", false
		}))

		require.NoError(t, m.InstallFixtures(context.Background()))
		assert.Equal(t, []string{"npm install --quiet", "bower install"}, runner.CommandLines())
	})

	t.Run("Empty Credential Counts As Unset", func(t *testing.T) {
		runner := testutils.NewFakeRunner()
		m, _ := newManager(t, runner, fixtures.WithLookupEnv(func(string) (string, bool) { return "", true }))

		require.NoError(t, m.InstallFixtures(context.Background()))
		assert.Len(t, runner.CommandLines(), 3)
	})

	t.Run("Exit Codes Do Not Stop The Chain", func(t *testing.T) {
		runner := testutils.NewFakeRunner().On("npm install --quiet", testutils.Response{ExitCode: 1})
		m, _ := newManager(t, runner, fixtures.WithLookupEnv(noEnv))

		require.NoError(t, m.InstallFixtures(context.Background()))
		assert.Len(t, runner.CommandLines(), 3)
	})

	t.Run("Spawn Failure Stops The Chain", func(t *testing.T) {
		runner := testutils.NewFakeRunner().Fail("bower install", errors.New("executable file not found"))
		m, _ := newManager(t, runner, fixtures.WithLookupEnv(noEnv))

		err := m.InstallFixtures(context.Background())
		var spawnErr *domain.SpawnError
		require.True(t, errors.As(err, &spawnErr))
		var failure *domain.ChainFailure
		require.True(t, errors.As(err, &failure))
		assert.Equal(t, "fixtures.bower", failure.Step)
		assert.Equal(t, []string{"npm install --quiet", "bower install"}, runner.CommandLines())
	})

	t.Run("Command Override", func(t *testing.T) {
		runner := testutils.NewFakeRunner()
		m, _ := newManager(t, runner,
			fixtures.WithLookupEnv(noEnv),
			fixtures.WithCommands(map[string]domain.Command{
				"fixtures.npm": {Binary: "pnpm", Args: []string{"install"}},
			}))

		require.NoError(t, m.InstallFixtures(context.Background()))
		assert.Equal(t, "pnpm install", runner.CommandLines()[0])
	})
}
