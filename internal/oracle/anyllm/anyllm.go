// Package anyllm implements the oracle Judge on top of
// github.com/mozilla-ai/any-llm-go, so the referee can run against any
// supported backend (openai, anthropic, gemini, ollama, deepseek,
// mistral, groq, llamacpp, llamafile) instead of the GLM endpoint.
//
// The referee contract is identical to the glm adapter: same system
// instruction, same history replay, same closed verdict set.
package anyllm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	anyllmlib "github.com/mozilla-ai/any-llm-go"
	"github.com/mozilla-ai/any-llm-go/providers/anthropic"
	"github.com/mozilla-ai/any-llm-go/providers/deepseek"
	"github.com/mozilla-ai/any-llm-go/providers/gemini"
	"github.com/mozilla-ai/any-llm-go/providers/groq"
	"github.com/mozilla-ai/any-llm-go/providers/llamacpp"
	"github.com/mozilla-ai/any-llm-go/providers/llamafile"
	"github.com/mozilla-ai/any-llm-go/providers/mistral"
	"github.com/mozilla-ai/any-llm-go/providers/ollama"
	anyllmoai "github.com/mozilla-ai/any-llm-go/providers/openai"
	oai "github.com/openai/openai-go"

	"github.com/glzhang/soupbot/internal/oracle"
	"github.com/glzhang/soupbot/internal/puzzle"
)

// Judge implements oracle.Judge by wrapping an any-llm-go provider.
type Judge struct {
	backend anyllmlib.Provider
	model   string
}

// Compile-time check that *Judge satisfies [oracle.Judge].
var _ oracle.Judge = (*Judge)(nil)

// New creates a Judge backed by the named any-llm-go provider.
//
// providerName is one of: "openai", "anthropic", "gemini", "ollama",
// "deepseek", "mistral", "groq", "llamacpp", "llamafile". opts are
// any-llm-go options such as anyllmlib.WithAPIKey or
// anyllmlib.WithBaseURL; without an API key option the backend falls back
// to its usual environment variable.
func New(providerName, model string, opts ...anyllmlib.Option) (*Judge, error) {
	if providerName == "" {
		return nil, fmt.Errorf("anyllm: providerName must not be empty")
	}
	if model == "" {
		return nil, fmt.Errorf("anyllm: model must not be empty")
	}

	backend, err := createBackend(providerName, opts...)
	if err != nil {
		return nil, fmt.Errorf("anyllm: create %q backend: %w", providerName, err)
	}
	return &Judge{backend: backend, model: model}, nil
}

// backendFactories maps every supported provider name to its constructor.
// [Providers] derives the public name list from this map, so the two can
// not drift apart.
var backendFactories = map[string]func(...anyllmlib.Option) (anyllmlib.Provider, error){
	"openai":    func(o ...anyllmlib.Option) (anyllmlib.Provider, error) { return anyllmoai.New(o...) },
	"anthropic": func(o ...anyllmlib.Option) (anyllmlib.Provider, error) { return anthropic.New(o...) },
	"gemini":    func(o ...anyllmlib.Option) (anyllmlib.Provider, error) { return gemini.New(o...) },
	"ollama":    func(o ...anyllmlib.Option) (anyllmlib.Provider, error) { return ollama.New(o...) },
	"deepseek":  func(o ...anyllmlib.Option) (anyllmlib.Provider, error) { return deepseek.New(o...) },
	"mistral":   func(o ...anyllmlib.Option) (anyllmlib.Provider, error) { return mistral.New(o...) },
	"groq":      func(o ...anyllmlib.Option) (anyllmlib.Provider, error) { return groq.New(o...) },
	"llamacpp":  func(o ...anyllmlib.Option) (anyllmlib.Provider, error) { return llamacpp.New(o...) },
	"llamafile": func(o ...anyllmlib.Option) (anyllmlib.Provider, error) { return llamafile.New(o...) },
}

// Providers returns the sorted list of provider names [New] accepts.
func Providers() []string {
	names := make([]string, 0, len(backendFactories))
	for name := range backendFactories {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// createBackend instantiates the underlying any-llm-go provider.
func createBackend(providerName string, opts ...anyllmlib.Option) (anyllmlib.Provider, error) {
	factory, ok := backendFactories[strings.ToLower(providerName)]
	if !ok {
		return nil, fmt.Errorf("unsupported provider %q", providerName)
	}
	return factory(opts...)
}

// refereeResult mirrors the JSON object the referee is instructed to emit.
type refereeResult struct {
	Answer string `json:"answer"`
}

// Judge implements [oracle.Judge].
func (j *Judge) Judge(ctx context.Context, userText string, p puzzle.Puzzle, history []oracle.Exchange) (oracle.Verdict, error) {
	resp, err := j.backend.Completion(ctx, j.buildParams(userText, p, history))
	if err != nil {
		// OpenAI-compatible providers surface a decoded error object for
		// application-level failures; those are protocol, not transport.
		var apiErr *oai.Error
		if errors.As(err, &apiErr) && apiErr.Message != "" {
			return oracle.Verdict{}, &oracle.ProtocolError{
				Reason: fmt.Sprintf("service error %s: %s", apiErr.Code, apiErr.Message),
				Err:    err,
			}
		}
		return oracle.Verdict{}, &oracle.TransportError{Err: err}
	}
	if len(resp.Choices) == 0 {
		return oracle.Verdict{}, &oracle.ProtocolError{Reason: "response contains no choices"}
	}

	content := strings.TrimSpace(resp.Choices[0].Message.ContentString())
	if content == "" {
		return oracle.Verdict{}, &oracle.ProtocolError{Reason: "response content is empty"}
	}

	var result refereeResult
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		return oracle.Verdict{}, &oracle.ProtocolError{Reason: "content is not a JSON verdict", Err: err}
	}
	if result.Answer == "" {
		return oracle.Verdict{}, &oracle.ProtocolError{Reason: "verdict is missing the answer field"}
	}

	return oracle.ParseAnswer(result.Answer)
}

// buildParams assembles the completion request in the shared referee shape.
func (j *Judge) buildParams(userText string, p puzzle.Puzzle, history []oracle.Exchange) anyllmlib.CompletionParams {
	messages := make([]anyllmlib.Message, 0, 2*len(history)+2)
	messages = append(messages, anyllmlib.Message{
		Role:    anyllmlib.RoleSystem,
		Content: oracle.SystemPrompt(p),
	})
	for _, ex := range history {
		messages = append(messages,
			anyllmlib.Message{Role: anyllmlib.RoleUser, Content: ex.Question},
			anyllmlib.Message{Role: anyllmlib.RoleAssistant, Content: ex.Answer},
		)
	}
	messages = append(messages, anyllmlib.Message{Role: anyllmlib.RoleUser, Content: userText})

	return anyllmlib.CompletionParams{
		Model:    j.model,
		Messages: messages,
	}
}
