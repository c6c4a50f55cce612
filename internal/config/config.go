// Package config loads scribe's two-tier configuration: models.ini for
// the RemoteReasoner's model router, and scribe.toml for ambient tuning
// knobs (drift thresholds, planner concurrency, verifier strictness,
// sandbox resource caps).
package config

import (
	"os"

	"github.com/BurntSushi/toml"
	"gopkg.in/ini.v1"
)

// ModelsConfig is the RemoteReasoner's model router configuration, loaded
// from models.ini.
type ModelsConfig struct {
	Primary          string
	Fallback         string
	FallbackInterval int // N in "every Nth call uses fallback"; must be > 0 (--validate-config rejects other values; NewModelRouter treats them as 1)
	OpenRouterURL    string
}

// DefaultModelsConfig returns the router defaults used when models.ini is
// absent.
func DefaultModelsConfig() ModelsConfig {
	return ModelsConfig{
		Primary:          "qwen/qwen-2.5-72b-instruct",
		Fallback:         "meta-llama/llama-3.1-8b-instruct",
		FallbackInterval: 5,
		OpenRouterURL:    "https://openrouter.ai/api/v1/chat/completions",
	}
}

// LoadModels reads models.ini: defaults -> file -> env (env wins). A
// missing file is not an error; the defaults carry.
func LoadModels(path string) (ModelsConfig, error) {
	cfg := DefaultModelsConfig()
	if path == "" {
		path = "models.ini"
	}

	if _, err := os.Stat(path); err == nil {
		f, err := ini.Load(path)
		if err != nil {
			return cfg, &scribeConfigError{field: "models.ini", message: err.Error()}
		}
		sec := f.Section("models")
		if v := sec.Key("primary").String(); v != "" {
			cfg.Primary = v
		}
		if v := sec.Key("fallback").String(); v != "" {
			cfg.Fallback = v
		}
		if sec.HasKey("fallback_interval") {
			cfg.FallbackInterval = sec.Key("fallback_interval").MustInt(0)
		}
		if v := f.Section("openrouter").Key("base_url").String(); v != "" {
			cfg.OpenRouterURL = v
		}
	}

	if v := os.Getenv("SCRIBE_PRIMARY_MODEL"); v != "" {
		cfg.Primary = v
	}
	if v := os.Getenv("SCRIBE_FALLBACK_MODEL"); v != "" {
		cfg.Fallback = v
	}
	if v := os.Getenv("OPENROUTER_BASE_URL"); v != "" {
		cfg.OpenRouterURL = v
	}
	return cfg, nil
}

// TuningConfig holds ambient knobs not mandated by the wire protocol,
// loaded from scribe.toml.
type TuningConfig struct {
	// Drift thresholds are drift rates (1 - cosine similarity), so the
	// danger threshold is above the warn threshold.
	Drift struct {
		WarnThreshold   float64 `toml:"warn_threshold"`
		DangerThreshold float64 `toml:"danger_threshold"`
	} `toml:"drift"`
	Planner struct {
		BaseConcurrency int `toml:"base_concurrency"`
	} `toml:"planner"`
	Verifier struct {
		MinCitations int `toml:"min_citations"`
	} `toml:"verifier"`
	Sandbox struct {
		TimeoutSeconds int   `toml:"timeout_seconds"`
		MemoryMB       int64 `toml:"memory_mb"`
		MaxOutputBytes int   `toml:"max_output_bytes"`
	} `toml:"sandbox"`
}

// DefaultTuningConfig returns the ambient-tuning defaults.
func DefaultTuningConfig() TuningConfig {
	cfg := TuningConfig{}
	cfg.Drift.WarnThreshold = 0.3
	cfg.Drift.DangerThreshold = 0.6
	cfg.Planner.BaseConcurrency = 8
	cfg.Verifier.MinCitations = 2
	cfg.Sandbox.TimeoutSeconds = 10
	cfg.Sandbox.MemoryMB = 256
	cfg.Sandbox.MaxOutputBytes = 64 * 1024
	return cfg
}

// LoadTuning reads scribe.toml: defaults -> file (env has no overrides
// here; these knobs are operator-tuned, not secrets).
func LoadTuning(path string) (TuningConfig, error) {
	cfg := DefaultTuningConfig()
	if path == "" {
		path = "scribe.toml"
	}
	if _, err := os.Stat(path); err != nil {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, &scribeConfigError{field: "scribe.toml", message: err.Error()}
	}
	return cfg, nil
}

type scribeConfigError struct {
	field   string
	message string
}

func (e *scribeConfigError) Error() string { return e.field + ": " + e.message }
