package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/invopop/jsonschema"
)

// Provider constants for LLM provider selection.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// ErrUnavailable is recorded on the status of a gateway built without credentials.
var ErrUnavailable = errors.New("language model not configured")

var errEmptyCompletion = errors.New("empty completion")

// Task selects the system instruction attached to a prompt.
type Task string

const (
	TaskAudit    Task = "audit"
	TaskDraft    Task = "draft"
	TaskReminder Task = "reminder"
	TaskDirect   Task = "direct"
	TaskMention  Task = "mention"
	TaskDefault  Task = "default"
)

// Normalize maps unknown tags to TaskDefault.
func (t Task) Normalize() Task {
	switch t {
	case TaskAudit, TaskDraft, TaskReminder, TaskDirect, TaskMention, TaskDefault:
		return t
	default:
		return TaskDefault
	}
}

// Label is the human wording of the task used in fallback replies. It always
// contains the tag itself so fallbacks stay attributable in logs and tests.
func (t Task) Label() string {
	switch t.Normalize() {
	case TaskAudit:
		return "audit request"
	case TaskDraft:
		return "draft request"
	case TaskReminder:
		return "reminder request"
	case TaskDirect:
		return "direct message"
	case TaskMention:
		return "mention"
	default:
		return "default request"
	}
}

// Config holds LLM client configuration.
type Config struct {
	Provider  string // "openai" or "anthropic"
	APIKey    string // Empty → unavailable gateway
	BaseURL   string // Optional: custom API endpoint
	Model     string
	MaxTokens int
}

// Gateway is the single entry point the bot uses to talk to a language model.
// Complete never fails: upstream errors are logged, recorded on the status and
// turned into a fallback sentence.
type Gateway interface {
	Complete(ctx context.Context, task Task, prompt string) string
	// CompleteRaw is Complete without CleanText, for replies that are parsed
	// rather than shown.
	CompleteRaw(ctx context.Context, task Task, prompt string) string
	Available() bool
	Status() Status
	Model() string
}

// Provider is one completion backend. Stream and Complete must return the
// full completion text.
type Provider interface {
	Stream(ctx context.Context, req Request) (string, error)
	Complete(ctx context.Context, req Request) (string, error)
	Model() string
}

type Request struct {
	SystemPrompt string
	UserPrompt   string
	MaxTokens    int
}

// New builds a gateway for cfg. Without an API key it returns the
// unavailable gateway rather than an error.
func New(cfg Config) (Gateway, error) {
	if cfg.APIKey == "" {
		return Unavailable(), nil
	}

	var (
		provider Provider
		err      error
	)
	switch cfg.Provider {
	case ProviderOpenAI, "":
		provider, err = newOpenAIProvider(cfg)
	case ProviderAnthropic:
		provider, err = newAnthropicProvider(cfg)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	return NewGateway(provider, cfg.MaxTokens), nil
}

// SchemaFor renders the JSON schema of T, for prompts that ask the model to
// answer with a JSON object.
func SchemaFor[T any]() string {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	data, err := json.MarshalIndent(reflector.Reflect(v), "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}
