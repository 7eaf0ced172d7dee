// Package config loads dock-deps settings from an optional YAML file with
// DOCKDEPS_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/northcutted/dock-deps/pkg/depgraph"
	"github.com/northcutted/dock-deps/pkg/deptree"
	"github.com/northcutted/dock-deps/pkg/spinner"
)

// DefaultFile is picked up from the working directory when no path is given.
const DefaultFile = "dock-deps.yaml"

// ErrInvalid wraps validation failures.
var ErrInvalid = errors.New("invalid configuration")

// Config is the full set of tunables.
type Config struct {
	Prune   PruneConfig   `mapstructure:"prune"`
	Tree    TreeConfig    `mapstructure:"tree"`
	Spinner SpinnerConfig `mapstructure:"spinner"`
	Syft    ToolConfig    `mapstructure:"syft"`
	Inspect ToolConfig    `mapstructure:"inspect"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// PruneConfig controls the graph size mitigation.
type PruneConfig struct {
	PathsThreshold int `mapstructure:"paths_threshold" validate:"gt=0"`
	// Strict turns a graph that is still too large after pruning into a
	// scan failure instead of falling back to the unpruned graph.
	Strict bool `mapstructure:"strict"`
}

// TreeConfig controls the legacy tree.
type TreeConfig struct {
	Enabled            bool `mapstructure:"enabled"`
	FrequencyThreshold int  `mapstructure:"frequency_threshold" validate:"gte=-1"`
}

// SpinnerConfig controls cooperative yielding during traversals.
type SpinnerConfig struct {
	Every  int           `mapstructure:"every" validate:"gte=0"`
	Budget time.Duration `mapstructure:"budget" validate:"gte=0"`
}

// ToolConfig holds per external tool settings.
type ToolConfig struct {
	Timeout time.Duration `mapstructure:"timeout" validate:"gt=0"`
}

// MetricsConfig controls the Prometheus textfile export.
type MetricsConfig struct {
	File string `mapstructure:"file"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Prune:   PruneConfig{PathsThreshold: depgraph.DefaultPathsThreshold},
		Tree:    TreeConfig{Enabled: true, FrequencyThreshold: deptree.DefaultFrequencyThreshold},
		Spinner: SpinnerConfig{Every: spinner.DefaultEvery, Budget: spinner.DefaultBudget},
		Syft:    ToolConfig{Timeout: 5 * time.Minute},
		Inspect: ToolConfig{Timeout: 30 * time.Second},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("prune.paths_threshold", d.Prune.PathsThreshold)
	v.SetDefault("prune.strict", d.Prune.Strict)
	v.SetDefault("tree.enabled", d.Tree.Enabled)
	v.SetDefault("tree.frequency_threshold", d.Tree.FrequencyThreshold)
	v.SetDefault("spinner.every", d.Spinner.Every)
	v.SetDefault("spinner.budget", d.Spinner.Budget)
	v.SetDefault("syft.timeout", d.Syft.Timeout)
	v.SetDefault("inspect.timeout", d.Inspect.Timeout)
	v.SetDefault("metrics.file", d.Metrics.File)
}

// Load reads path when it is not empty, applies environment overrides
// (DOCKDEPS_PRUNE_PATHS_THRESHOLD and so on) and validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("DOCKDEPS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = validator.New()

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}
