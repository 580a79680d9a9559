// Package scaffold drives the external scaffolding engine as a child process.
package scaffold

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"unicode"

	"github.com/aretw0/gantry/internal/logging"
	"github.com/aretw0/gantry/pkg/domain"
	"github.com/aretw0/gantry/pkg/ports"
	"github.com/aretw0/gantry/pkg/workdir"
)

// Environment variables handed to the engine.
const (
	EnvGenerator     = "GANTRY_GENERATOR"
	EnvAnswers       = "GANTRY_ANSWERS"
	EnvAnswerPrefix  = "GANTRY_ANSWER_"
	EnvOptionsPrefix = "GANTRY_OPTION_"
)

// Command runs a configured command line as the scaffolding engine.
//
// Prompts are answered through the environment rather than flags, so answer
// values can never be parsed as options: every answer is exported as
// GANTRY_ANSWER_<KEY>, and the full set as JSON in GANTRY_ANSWERS.
type Command struct {
	runner ports.ProcessRunner
	argv   []string
	logger *slog.Logger
}

var _ ports.Scaffolder = (*Command)(nil)

// Option configures a Command scaffolder.
type Option func(*Command)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Command) {
		c.logger = logger
	}
}

// NewCommand creates a scaffolder running argv.
func NewCommand(runner ports.ProcessRunner, argv []string, opts ...Option) *Command {
	c := &Command{runner: runner, argv: argv, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Scaffold runs the engine in dir. A non-zero exit status fails.
func (c *Command) Scaffold(ctx context.Context, dir workdir.Dir, req ports.ScaffoldRequest) error {
	if len(c.argv) == 0 {
		return errors.New("scaffold command is not configured")
	}
	env, err := Environ(req)
	if err != nil {
		return err
	}
	cmd := domain.Command{
		Name:   "demo.scaffold",
		Binary: c.argv[0],
		Args:   c.argv[1:],
		Dir:    dir.Path(),
	}.WithEnv(env...)

	res, err := c.runner.Stream(ctx, cmd, func(line domain.OutputLine) {
		c.logger.DebugContext(ctx, line.Text, "stream", line.Stream)
	})
	if err != nil {
		return err
	}
	return res.Check()
}

// Environ encodes a scaffold request as KEY=VALUE pairs, sorted by key.
// Scalars are rendered as text; lists and maps as JSON.
func Environ(req ports.ScaffoldRequest) ([]string, error) {
	env := []string{EnvGenerator + "=" + req.Generator}

	all, err := json.Marshal(req.Answers)
	if err != nil {
		return nil, fmt.Errorf("encode answers: %w", err)
	}
	env = append(env, EnvAnswers+"="+string(all))

	for _, group := range []struct {
		prefix string
		values map[string]any
	}{
		{EnvAnswerPrefix, req.Answers},
		{EnvOptionsPrefix, req.Options},
	} {
		keys := make([]string, 0, len(group.values))
		for k := range group.values {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			val, err := encodeValue(group.values[k])
			if err != nil {
				return nil, fmt.Errorf("encode %s: %w", k, err)
			}
			env = append(env, group.prefix+envKey(k)+"="+val)
		}
	}
	return env, nil
}

func encodeValue(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	case bool, int, int64, float64:
		return fmt.Sprint(t), nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// envKey upper-cases k and splits camelCase words: uiBootstrap -> UI_BOOTSTRAP.
func envKey(k string) string {
	var sb strings.Builder
	prevLower := false
	for _, r := range k {
		switch {
		case unicode.IsUpper(r) && prevLower:
			sb.WriteByte('_')
			sb.WriteRune(r)
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			sb.WriteRune(unicode.ToUpper(r))
		default:
			sb.WriteByte('_')
		}
		prevLower = unicode.IsLower(r) || unicode.IsDigit(r)
	}
	return sb.String()
}
