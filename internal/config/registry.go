package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/glzhang/soupbot/internal/oracle"
)

// ErrBackendNotRegistered is returned by [Registry.CreateJudge] when no
// factory has been registered under the requested backend name.
var ErrBackendNotRegistered = errors.New("config: judge backend not registered")

// JudgeFactory builds a judge from its oracle configuration. The factory
// is responsible for resolving the API key named by APIKeyEnv.
type JudgeFactory func(OracleConfig) (oracle.Judge, error)

// Registry maps judge backend names to constructor functions, so the
// config layer can instantiate a judge without importing the backend
// packages. It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	factories map[Backend]JudgeFactory
}

// NewRegistry returns an empty, ready-to-use [Registry].
func NewRegistry() *Registry {
	return &Registry{factories: make(map[Backend]JudgeFactory)}
}

// RegisterJudge registers a judge factory under backend. Subsequent calls
// with the same backend overwrite the previous registration.
func (r *Registry) RegisterJudge(backend Backend, factory JudgeFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[backend] = factory
}

// CreateJudge instantiates a judge using the factory registered under
// o.Backend. Returns [ErrBackendNotRegistered] if no factory has been
// registered for that backend.
func (r *Registry) CreateJudge(o OracleConfig) (oracle.Judge, error) {
	r.mu.RLock()
	factory, ok := r.factories[o.Backend]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrBackendNotRegistered, o.Backend)
	}
	return factory(o)
}
