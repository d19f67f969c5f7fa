package config_test

import (
	"errors"
	"testing"
	"time"

	"github.com/glzhang/soupbot/internal/config"
	"github.com/glzhang/soupbot/internal/oracle"
	"github.com/glzhang/soupbot/internal/oracle/mock"
)

func TestLogLevel_IsValid(t *testing.T) {
	t.Parallel()
	tests := []struct {
		level config.LogLevel
		want  bool
	}{
		{config.LogDebug, true},
		{config.LogInfo, true},
		{config.LogWarn, true},
		{config.LogError, true},
		{config.LogLevel("verbose"), false},
		{config.LogLevel(""), false},
	}
	for _, tt := range tests {
		if got := tt.level.IsValid(); got != tt.want {
			t.Errorf("LogLevel(%q).IsValid() = %v, want %v", tt.level, got, tt.want)
		}
	}
}

func TestBackend_IsValid(t *testing.T) {
	t.Parallel()
	tests := []struct {
		backend config.Backend
		want    bool
	}{
		{config.BackendGLM, true},
		{config.BackendAnyLLM, true},
		{config.Backend("carrier-pigeon"), false},
		{config.Backend(""), false},
	}
	for _, tt := range tests {
		if got := tt.backend.IsValid(); got != tt.want {
			t.Errorf("Backend(%q).IsValid() = %v, want %v", tt.backend, got, tt.want)
		}
	}
}

func TestOracleConfig_Timeout(t *testing.T) {
	t.Parallel()
	o := config.OracleConfig{TimeoutSeconds: 15}
	if got, want := o.Timeout(), 15*time.Second; got != want {
		t.Errorf("Timeout() = %v, want %v", got, want)
	}
}

func TestRegistry_CreateJudge(t *testing.T) {
	t.Parallel()
	reg := config.NewRegistry()

	var gotModel string
	reg.RegisterJudge(config.BackendGLM, func(o config.OracleConfig) (oracle.Judge, error) {
		gotModel = o.Model
		return &mock.Judge{}, nil
	})

	j, err := reg.CreateJudge(config.OracleConfig{Backend: config.BackendGLM, Model: "glm-4.6v-flash"})
	if err != nil {
		t.Fatalf("CreateJudge: %v", err)
	}
	if j == nil {
		t.Fatal("CreateJudge returned nil judge")
	}
	if gotModel != "glm-4.6v-flash" {
		t.Errorf("factory received model %q, want %q", gotModel, "glm-4.6v-flash")
	}
}

func TestRegistry_CreateJudge_Unregistered(t *testing.T) {
	t.Parallel()
	reg := config.NewRegistry()
	_, err := reg.CreateJudge(config.OracleConfig{Backend: config.BackendAnyLLM})
	if !errors.Is(err, config.ErrBackendNotRegistered) {
		t.Errorf("err = %v, want ErrBackendNotRegistered", err)
	}
}
