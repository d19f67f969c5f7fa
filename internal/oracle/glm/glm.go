// Package glm implements the oracle Judge against the Zhipu GLM
// chat-completions endpoint, which speaks the OpenAI wire format. The
// bearer credential is attached per call by the underlying client.
package glm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/glzhang/soupbot/internal/oracle"
	"github.com/glzhang/soupbot/internal/puzzle"
)

const (
	// DefaultBaseURL is the OpenAI-compatible GLM endpoint.
	DefaultBaseURL = "https://open.bigmodel.cn/api/paas/v4"

	// DefaultModel is the referee model.
	DefaultModel = "glm-4.6v-flash"

	// defaultTimeout bounds one judge round trip. Expiry surfaces as a
	// TransportError.
	defaultTimeout = 30 * time.Second
)

// Judge calls the GLM chat-completions API and decodes the referee's
// JSON verdict. Safe for concurrent use.
type Judge struct {
	client oai.Client
	model  string
}

// Compile-time check that *Judge satisfies [oracle.Judge].
var _ oracle.Judge = (*Judge)(nil)

// config holds optional construction settings.
type config struct {
	baseURL string
	model   string
	timeout time.Duration
}

// Option is a functional option for Judge.
type Option func(*config)

// WithBaseURL overrides the GLM endpoint, e.g. to point at a test server.
func WithBaseURL(url string) Option {
	return func(c *config) { c.baseURL = url }
}

// WithModel overrides the referee model.
func WithModel(model string) Option {
	return func(c *config) { c.model = model }
}

// WithTimeout overrides the per-call HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *config) { c.timeout = d }
}

// New constructs a GLM-backed Judge.
func New(apiKey string, opts ...Option) (*Judge, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("glm: apiKey must not be empty")
	}

	cfg := &config{
		baseURL: DefaultBaseURL,
		model:   DefaultModel,
		timeout: defaultTimeout,
	}
	for _, o := range opts {
		o(cfg)
	}

	client := oai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(cfg.baseURL),
		option.WithHTTPClient(&http.Client{Timeout: cfg.timeout}),
	)
	return &Judge{client: client, model: cfg.model}, nil
}

// refereeResult is the JSON object the referee is instructed to return as
// the completion content.
type refereeResult struct {
	Answer string `json:"answer"`
}

// Judge implements [oracle.Judge]. It makes exactly one request: the
// puzzle rendered as the system instruction, the round's judged exchanges
// replayed as user/assistant pairs in order, and userText as the final
// turn.
func (j *Judge) Judge(ctx context.Context, userText string, p puzzle.Puzzle, history []oracle.Exchange) (oracle.Verdict, error) {
	resp, err := j.client.Chat.Completions.New(ctx, j.buildParams(userText, p, history))
	if err != nil {
		// A decoded error object ({"error":{"code","message"}}) means the
		// service answered in its application dialect; only undecodable
		// failures (unreachable, timeout, junk non-2xx body) are transport.
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
	content := resp.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
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

// buildParams assembles the chat-completions request. Deterministic given
// its inputs.
func (j *Judge) buildParams(userText string, p puzzle.Puzzle, history []oracle.Exchange) oai.ChatCompletionNewParams {
	messages := make([]oai.ChatCompletionMessageParamUnion, 0, 2*len(history)+2)
	messages = append(messages, oai.SystemMessage(oracle.SystemPrompt(p)))
	for _, ex := range history {
		messages = append(messages,
			oai.UserMessage(ex.Question),
			oai.AssistantMessage(ex.Answer),
		)
	}
	messages = append(messages, oai.UserMessage(userText))

	return oai.ChatCompletionNewParams{
		Model:    shared.ChatModel(j.model),
		Messages: messages,
		ResponseFormat: oai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	}
}
