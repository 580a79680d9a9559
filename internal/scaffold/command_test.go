package scaffold_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/gantry/internal/scaffold"
	"github.com/aretw0/gantry/internal/testutils"
	"github.com/aretw0/gantry/pkg/domain"
	"github.com/aretw0/gantry/pkg/ports"
	"github.com/aretw0/gantry/pkg/workdir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnviron(t *testing.T) {
	env, err := scaffold.Environ(ports.ScaffoldRequest{
		Generator: "angular-fullstack:app",
		Answers: map[string]any{
			"script":    "js",
			"bootstrap": true,
			"oauth":     []string{"googleAuth", "twitterAuth"},
		},
		Options: map[string]any{"skipInstall": true},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"GANTRY_GENERATOR=angular-fullstack:app",
		`GANTRY_ANSWERS={"bootstrap":true,"oauth":["googleAuth","twitterAuth"],"script":"js"}`,
		"GANTRY_ANSWER_BOOTSTRAP=true",
		`GANTRY_ANSWER_OAUTH=["googleAuth","twitterAuth"]`,
		"GANTRY_ANSWER_SCRIPT=js",
		"GANTRY_OPTION_SKIP_INSTALL=true",
	}, env)
}

func TestCommand_Scaffold(t *testing.T) {
	dir := workdir.MustNew(t.TempDir())

	t.Run("Runs In Dir With Answers", func(t *testing.T) {
		runner := testutils.NewFakeRunner()
		s := scaffold.NewCommand(runner, []string{"yo", "angular-fullstack"})

		require.NoError(t, s.Scaffold(context.Background(), dir, ports.ScaffoldRequest{
			Answers: map[string]any{"router": "uirouter"},
		}))
		calls := runner.Calls()
		require.Len(t, calls, 1)
		assert.Equal(t, "yo angular-fullstack", calls[0].String())
		assert.Equal(t, dir.Path(), calls[0].Dir)
		assert.Contains(t, calls[0].Env, "GANTRY_ANSWER_ROUTER=uirouter")
	})

	t.Run("Non-Zero Exit Fails", func(t *testing.T) {
		runner := testutils.NewFakeRunner().On("yo angular-fullstack", testutils.Response{ExitCode: 2})
		s := scaffold.NewCommand(runner, []string{"yo", "angular-fullstack"})

		err := s.Scaffold(context.Background(), dir, ports.ScaffoldRequest{})
		var exitErr *domain.ExitError
		require.True(t, errors.As(err, &exitErr))
		assert.Equal(t, 2, exitErr.ExitCode)
	})

	t.Run("Unconfigured", func(t *testing.T) {
		s := scaffold.NewCommand(testutils.NewFakeRunner(), nil)
		assert.Error(t, s.Scaffold(context.Background(), dir, ports.ScaffoldRequest{}))
	})
}
