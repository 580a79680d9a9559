package process

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/gantry/pkg/domain"
	"gopkg.in/yaml.v3"
)

// CommandConfig represents one named command override.
type CommandConfig struct {
	Name        string            `yaml:"name" json:"name"`
	Command     string            `yaml:"command" json:"command"`
	Args        []string          `yaml:"args" json:"args"`
	Environment map[string]string `yaml:"env" json:"env"`
	Description string            `yaml:"description" json:"description"`
}

// ConfigFile represents the structure of commands.yaml
type ConfigFile struct {
	Commands []CommandConfig `yaml:"commands" json:"commands"`
}

// ToCommand converts the override to a domain command.
func (c CommandConfig) ToCommand() domain.Command {
	cmd := domain.Command{Name: c.Name, Binary: c.Command, Args: c.Args}
	for k, v := range c.Environment {
		cmd.Env = append(cmd.Env, k+"="+v)
	}
	return cmd
}

// LoadCommands reads a command override file (YAML or JSON) and returns the
// commands keyed by name. A missing file yields an empty map.
func LoadCommands(path string) (map[string]domain.Command, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]domain.Command{}, nil
		}
		return nil, fmt.Errorf("failed to read commands config: %w", err)
	}

	var cfg ConfigFile
	ext := strings.ToLower(filepath.Ext(path))

	if ext == ".json" {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	} else {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	}

	commands := make(map[string]domain.Command)
	for _, c := range cfg.Commands {
		if c.Name == "" || c.Command == "" {
			continue
		}
		commands[c.Name] = c.ToCommand()
	}
	return commands, nil
}
