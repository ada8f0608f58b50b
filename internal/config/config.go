package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/san-kum/hydrosim/internal/kinetics"
	"gopkg.in/yaml.v3"
)

const (
	DefaultTemperature           = 195.0
	DefaultSolidLoading          = 100.0
	DefaultCelluloseFraction     = 0.348
	DefaultHemicelluloseFraction = 0.230
	DefaultTimeFinal             = 40.0

	DefaultIntegrator = "rk45"
	DefaultDt         = 0.01
	DefaultRelTol     = 1e-6
	DefaultAbsTol     = 1e-8
	DefaultDataDir    = ".hydrosim"
	DefaultBackend    = "fs"
)

type Config struct {
	Conditions kinetics.Conditions `yaml:"conditions" toml:"conditions"`
	Solver     SolverConfig        `yaml:"solver" toml:"solver"`
	Storage    StorageConfig       `yaml:"storage" toml:"storage"`
}

type SolverConfig struct {
	Integrator        string  `yaml:"integrator" toml:"integrator"`
	Dt                float64 `yaml:"dt" toml:"dt"`
	RelTol            float64 `yaml:"rtol" toml:"rtol"`
	AbsTol            float64 `yaml:"atol" toml:"atol"`
	Samples           int     `yaml:"samples" toml:"samples"`
	Parallel          bool    `yaml:"parallel" toml:"parallel"`
	StrictComposition bool    `yaml:"strict_composition" toml:"strict_composition"`
}

type StorageConfig struct {
	DataDir string `yaml:"data_dir" toml:"data_dir"`
	// Backend is "fs" or "sqlite".
	Backend string `yaml:"backend" toml:"backend"`
}

func DefaultConfig() *Config {
	return &Config{
		Conditions: kinetics.Conditions{
			Temperature:           DefaultTemperature,
			SolidLoading:          DefaultSolidLoading,
			CelluloseFraction:     DefaultCelluloseFraction,
			HemicelluloseFraction: DefaultHemicelluloseFraction,
			TimeFinal:             DefaultTimeFinal,
		},
		Solver: SolverConfig{
			Integrator: DefaultIntegrator,
			Dt:         DefaultDt,
			RelTol:     DefaultRelTol,
			AbsTol:     DefaultAbsTol,
			Samples:    kinetics.DefaultSamples,
			Parallel:   true,
		},
		Storage: StorageConfig{
			DataDir: DefaultDataDir,
			Backend: DefaultBackend,
		},
	}
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// Load reads a YAML or TOML file (chosen by extension) over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if isTOML(path) {
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("config: decode %s: %w", path, err)
		}
		return cfg, nil
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	var data []byte
	if isTOML(path) {
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
			return err
		}
		data = buf.Bytes()
	} else {
		var err error
		data, err = yaml.Marshal(cfg)
		if err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks the solver and storage sections. Reaction conditions are
// validated by the engine.
func (c *Config) Validate() error {
	if c.Solver.Dt <= 0 {
		return fmt.Errorf("config: solver.dt must be positive, got %g", c.Solver.Dt)
	}
	if c.Solver.RelTol <= 0 && c.Solver.AbsTol <= 0 {
		return fmt.Errorf("config: at least one of solver.rtol and solver.atol must be positive")
	}
	if c.Solver.Samples < 2 {
		return fmt.Errorf("config: solver.samples must be at least 2, got %d", c.Solver.Samples)
	}
	switch c.Storage.Backend {
	case "fs", "sqlite":
	default:
		return fmt.Errorf("config: unknown storage backend %q (want fs or sqlite)", c.Storage.Backend)
	}
	return nil
}
