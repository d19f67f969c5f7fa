package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/glzhang/soupbot/internal/oracle/anyllm"
)

// ValidAnyLLMProviders lists the provider names the any-llm backend
// accepts, taken from the adapter itself. Used by [Validate] to warn
// about likely typos.
var ValidAnyLLMProviders = anyllm.Providers()

// Load reads the YAML configuration file at path and returns a validated
// [Config]. It is a convenience wrapper around [LoadFromReader].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	// Oracle
	if cfg.Oracle.Backend != "" && !cfg.Oracle.Backend.IsValid() {
		errs = append(errs, fmt.Errorf("oracle.backend %q is invalid; valid values: glm, anyllm", cfg.Oracle.Backend))
	}
	if cfg.Oracle.Backend == BackendAnyLLM {
		if cfg.Oracle.Provider == "" {
			errs = append(errs, errors.New("oracle.provider is required when oracle.backend is anyllm"))
		} else if !slices.Contains(ValidAnyLLMProviders, cfg.Oracle.Provider) {
			slog.Warn("unknown any-llm provider name — may be a typo",
				"provider", cfg.Oracle.Provider,
				"known", ValidAnyLLMProviders,
			)
		}
		if cfg.Oracle.Model == "" {
			errs = append(errs, errors.New("oracle.model is required when oracle.backend is anyllm"))
		}
	}
	if cfg.Oracle.APIKeyEnv == "" && cfg.Oracle.Backend != "" {
		slog.Warn("oracle.api_key_env is empty; judge calls will fail unless the backend needs no key",
			"backend", cfg.Oracle.Backend,
		)
	}
	if cfg.Oracle.TimeoutSeconds < 0 {
		errs = append(errs, fmt.Errorf("oracle.timeout_seconds %d must not be negative", cfg.Oracle.TimeoutSeconds))
	}

	// Dialogue
	if cfg.Dialogue.TurnBudget < 0 {
		errs = append(errs, fmt.Errorf("dialogue.turn_budget %d must not be negative", cfg.Dialogue.TurnBudget))
	}
	if cfg.Dialogue.RevealIntervalMS < 0 {
		errs = append(errs, fmt.Errorf("dialogue.reveal_interval_ms %d must not be negative", cfg.Dialogue.RevealIntervalMS))
	}

	// Deck
	if cfg.Deck.Path == "" {
		errs = append(errs, errors.New("deck.path is required"))
	}

	// Gate
	if cfg.Gate.FreeTurns < 0 {
		errs = append(errs, fmt.Errorf("gate.free_turns %d must not be negative", cfg.Gate.FreeTurns))
	}

	return errors.Join(errs...)
}
