package app

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config carries the limits and thresholds the core consumes. It is loaded
// once by the shell and passed around as an immutable value; nothing in the
// core mutates it or reads process-wide state.
type Config struct {
	ContextLimitTokens int     `yaml:"context_limit_tokens"`
	WarnRatio          float64 `yaml:"warn_ratio"`
	CriticalRatio      float64 `yaml:"critical_ratio"`
	AnchorRecent       int     `yaml:"anchor_recent"`
	MaxFileContexts    int     `yaml:"max_file_contexts"`
	PathMinScore       float64 `yaml:"path_min_score"`
	SnippetMinScore    float64 `yaml:"snippet_min_score"`
	FuzzyPatch         bool    `yaml:"fuzzy_patch"`
	WorkDir            string  `yaml:"work_dir"`
	StateDir           string  `yaml:"state_dir"`
}

func DefaultConfig() Config {
	return Config{
		ContextLimitTokens: 120000,
		WarnRatio:          0.8,
		CriticalRatio:      0.95,
		AnchorRecent:       4,
		MaxFileContexts:    8,
		// A wrong silent edit costs more than a wrong path suggestion, so the
		// snippet threshold is stricter.
		PathMinScore:    0.6,
		SnippetMinScore: 0.8,
		FuzzyPatch:      true,
	}
}

func (c Config) truncateOptions() TruncateOptions {
	return TruncateOptions{
		AnchorRecent:    c.AnchorRecent,
		MaxFileContexts: c.MaxFileContexts,
	}
}

func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	if cfg.ContextLimitTokens <= 0 {
		cfg.ContextLimitTokens = 120000
	}
	if cfg.WarnRatio <= 0 || cfg.WarnRatio > 1 {
		cfg.WarnRatio = 0.8
	}
	if cfg.CriticalRatio <= cfg.WarnRatio || cfg.CriticalRatio > 1 {
		cfg.CriticalRatio = 0.95
	}
	if cfg.AnchorRecent <= 0 {
		cfg.AnchorRecent = 4
	}
	if cfg.MaxFileContexts <= 0 {
		cfg.MaxFileContexts = 8
	}
	if cfg.PathMinScore <= 0 {
		cfg.PathMinScore = 0.6
	}
	if cfg.SnippetMinScore <= 0 {
		cfg.SnippetMinScore = 0.8
	}
	return cfg, nil
}

func SaveConfig(cfg Config, path string) error {
	if path == "" {
		return errors.New("no path provided for config")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func DefaultConfigPath() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(base, "coda", "config.yml")
}
