// Package config provides the configuration schema, loader, backend
// registry, and file watcher for the soupbot interrogation engine.
package config

import "time"

// LogLevel controls log verbosity for the soupbot process.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Backend selects the judge implementation.
type Backend string

const (
	// BackendGLM talks to Zhipu's OpenAI-compatible chat endpoint directly.
	BackendGLM Backend = "glm"

	// BackendAnyLLM routes the judge through any-llm, selecting the
	// underlying provider via oracle.provider.
	BackendAnyLLM Backend = "anyllm"
)

// IsValid reports whether b is a recognised judge backend.
func (b Backend) IsValid() bool {
	return b == BackendGLM || b == BackendAnyLLM
}

// Config is the root configuration structure for soupbot.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Oracle   OracleConfig   `yaml:"oracle"`
	Dialogue DialogueConfig `yaml:"dialogue"`
	Deck     DeckConfig     `yaml:"deck"`
	State    StateConfig    `yaml:"state"`
	Gate     GateConfig     `yaml:"gate"`
}

// ServerConfig holds settings for the ops listener (metrics and health)
// and logging.
type ServerConfig struct {
	// ListenAddr is the TCP address the ops listener binds (e.g., ":9090").
	// Empty disables the listener.
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`
}

// OracleConfig selects and configures the judge backend.
type OracleConfig struct {
	// Backend selects the judge implementation.
	Backend Backend `yaml:"backend"`

	// Provider is the any-llm provider name (e.g., "openai", "ollama").
	// Required when Backend is "anyllm"; ignored otherwise.
	Provider string `yaml:"provider"`

	// BaseURL overrides the backend's default API endpoint.
	// Leave empty to use the built-in default.
	BaseURL string `yaml:"base_url"`

	// Model selects the judge model (e.g., "glm-4.6v-flash").
	Model string `yaml:"model"`

	// APIKeyEnv names the environment variable holding the API key.
	// The key itself never appears in the config file.
	APIKeyEnv string `yaml:"api_key_env"`

	// TimeoutSeconds bounds one judge round trip. Zero uses the backend's
	// default.
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

// Timeout returns the configured judge timeout as a duration.
func (o OracleConfig) Timeout() time.Duration {
	return time.Duration(o.TimeoutSeconds) * time.Second
}

// DialogueConfig tunes the interrogation round.
type DialogueConfig struct {
	// TurnBudget is the number of scored questions per round.
	// Zero uses the engine default.
	TurnBudget int `yaml:"turn_budget"`

	// RevealIntervalMS is the delay between revealed reply fragments, in
	// milliseconds. Zero uses the playback default.
	RevealIntervalMS int `yaml:"reveal_interval_ms"`
}

// RevealInterval returns the configured fragment delay as a duration.
func (d DialogueConfig) RevealInterval() time.Duration {
	return time.Duration(d.RevealIntervalMS) * time.Millisecond
}

// DeckConfig locates the puzzle deck.
type DeckConfig struct {
	// Path is the JSON deck file to load puzzles from.
	Path string `yaml:"path"`
}

// StateConfig locates persisted per-player flags.
type StateConfig struct {
	// Path is the JSON state file. Empty keeps state in memory only, so
	// the extended instructions reappear every run.
	Path string `yaml:"path"`
}

// GateConfig configures the turn entitlement gate.
type GateConfig struct {
	// FreeTurns caps the number of turns before the gate denies.
	// Zero means unlimited.
	FreeTurns int `yaml:"free_turns"`
}
