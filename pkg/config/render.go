package config

import (
	"fmt"
	"strings"

	"github.com/pelletier/go-toml"
)

// TOML renders the configuration as TOML.
func (c *Config) TOML() ([]byte, error) {
	content, err := toml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to TOML: %w", err)
	}
	return content, nil
}

// DefaultTOML renders the default configuration with a short header, as
// written by `bugsight config init`.
func DefaultTOML() (string, error) {
	content, err := DefaultConfig().TOML()
	if err != nil {
		return "", err
	}

	var buf strings.Builder
	buf.WriteString("# bugsight configuration\n")
	buf.WriteString("# analysis.cycle_policy: \"cap\" or \"error\" for cyclic class hierarchies\n\n")
	buf.Write(content)
	return buf.String(), nil
}
