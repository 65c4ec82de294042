package providers

import (
	"context"
	"fmt"
)

// Request is one completion request: a system instruction block and the
// assembled user prompt.
type Request struct {
	System      string
	User        string
	MaxTokens   int
	Temperature float64
}

// Response is the raw model reply. Content is handed unmodified to the
// reply parser, which owns all schema recovery.
type Response struct {
	Content    string
	TokensUsed int
}

// Completer is the provider abstraction. Implementations own transport,
// timeouts, and retries; cancellation flows through ctx.
type Completer interface {
	Complete(ctx context.Context, req Request) (Response, error)
	Name() string
}

// New creates a provider by name.
func New(provider, model string) (Completer, error) {
	switch provider {
	case "anthropic":
		return NewAnthropic(model)
	case "openai":
		return NewOpenAIChat(model)
	case "ollama", "lmstudio":
		return NewOllama(model)
	default:
		return nil, fmt.Errorf("unknown provider: %s", provider)
	}
}
