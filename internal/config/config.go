package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Server holds the game server's runtime settings. Command-line flags fill
// it first; environment variables that are set override the flags.
type Server struct {
	Addr      string `env:"IMP_ADDR"`
	EngineID  string `env:"IMP_ENGINE_ID"`
	ConfigDir string `env:"IMP_CONFIG_DIR"`
	DataDir   string `env:"IMP_DATA_DIR"`

	// TuningPath defaults to <ConfigDir>/tuning.yaml.
	TuningPath string `env:"IMP_TUNING"`
	// ScenarioPath seeds nations and rails for a fresh game.
	ScenarioPath string `env:"IMP_SCENARIO"`

	SnapshotPath       string `env:"IMP_SNAPSHOT"`
	LoadLatestSnapshot bool   `env:"IMP_LOAD_LATEST_SNAPSHOT"`
	DisableDB          bool   `env:"IMP_DISABLE_DB"`
	EnableAdminHTTP    bool   `env:"IMP_ENABLE_ADMIN_HTTP"`

	// TurnSeconds < 0 keeps the tuning value; 0 disables the turn timer.
	TurnSeconds int `env:"IMP_TURN_SECONDS"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// ApplyEnv overrides cfg with any IMP_* variables present in the
// environment and validates the result.
func (cfg *Server) ApplyEnv() error {
	if err := ParseEnv(cfg); err != nil {
		return err
	}
	return cfg.Validate()
}

func (cfg *Server) Validate() error {
	if strings.TrimSpace(cfg.Addr) == "" {
		return fmt.Errorf("empty listen address")
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		return fmt.Errorf("empty data dir")
	}
	if strings.TrimSpace(cfg.EngineID) == "" {
		return fmt.Errorf("empty engine id")
	}
	return nil
}

func (cfg Server) Tuning() string {
	if p := strings.TrimSpace(cfg.TuningPath); p != "" {
		return p
	}
	return filepath.Join(cfg.ConfigDir, "tuning.yaml")
}

// GameDir is where one game's logs, snapshots and index live.
func (cfg Server) GameDir() string {
	return filepath.Join(cfg.DataDir, "games", cfg.EngineID)
}

func (cfg Server) SnapshotDir() string {
	return filepath.Join(cfg.GameDir(), "snapshots")
}
