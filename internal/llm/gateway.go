package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrorSentinel prefixes the text returned in place of a failed model call.
const ErrorSentinel = "[OPENAI_ERROR]"

// IsErrorSentinel reports whether text is a gateway failure marker rather
// than a model answer.
func IsErrorSentinel(text string) bool {
	return strings.HasPrefix(strings.TrimSpace(text), ErrorSentinel)
}

// Role identifies the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single chat-completion message.
type Message struct {
	Role    Role
	Content string
}

// Completer sends a chat exchange to a model and returns the completion
// text. Implementations exist for the go-openai client and for the plain
// HTTP endpoint; one is chosen when the gateway is built.
type Completer interface {
	Complete(
		ctx context.Context,
		messages []Message,
		temperature float32,
		maxTokens int,
	) (string, error)
}

// Client adapter names accepted in Config.Client.
const (
	ClientOpenAI = "openai"
	ClientLegacy = "legacy"
)

// Config is resolved once at startup and handed to New.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string

	// Client selects the Completer implementation.
	Client string

	// Timeout bounds one request; zero keeps the transport default.
	Timeout time.Duration

	// ForceMock keeps the assistant offline even with a key present.
	ForceMock bool
}

const (
	defaultModel   = "gpt-4"
	defaultBaseURL = "https://api.openai.com/v1"
)

// Live reports whether the configuration allows real model calls.
func (c Config) Live() bool {
	return c.APIKey != "" && !c.ForceMock
}

func (c Config) withDefaults() Config {
	if c.Model == "" {
		c.Model = defaultModel
	}
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL
	}
	if c.Client == "" {
		c.Client = ClientOpenAI
	}
	return c
}

// NewCompleter builds the adapter selected by cfg, or nil when there is
// no credential to call with.
func NewCompleter(cfg Config) Completer {
	if !cfg.Live() {
		return nil
	}
	cfg = cfg.withDefaults()

	switch cfg.Client {
	case ClientLegacy:
		return NewLegacyClient(cfg)
	default:
		return NewOpenAIClient(cfg)
	}
}

// Gateway wraps a Completer so that failures never escape: a missing
// completer yields no answer and a failed call yields the error sentinel.
type Gateway struct {
	completer Completer
	log       *zap.Logger
}

// NewGateway returns a gateway around c. A nil c means no credential is
// configured and every call reports no answer without touching the network.
func NewGateway(c Completer, log *zap.Logger) *Gateway {
	if log == nil {
		log = zap.NewNop()
	}
	return &Gateway{completer: c, log: log}
}

// Configured reports whether a live completer is present.
func (g *Gateway) Configured() bool {
	return g != nil && g.completer != nil
}

// CallModel runs one completion. ok is false when no completer is
// configured or the model returned empty text; in every other case text
// holds either the completion or an ErrorSentinel-prefixed description of
// the failure.
func (g *Gateway) CallModel(
	ctx context.Context,
	messages []Message,
	temperature float32,
	maxTokens int,
) (text string, ok bool) {
	if !g.Configured() {
		return "", false
	}

	defer func() {
		if r := recover(); r != nil {
			g.log.Error("model call panicked", zap.Any("panic", r))
			text, ok = fmt.Sprintf("%s %v", ErrorSentinel, r), true
		}
	}()

	start := time.Now()
	text, err := g.completer.Complete(ctx, messages, temperature, maxTokens)
	if err != nil {
		g.log.Warn("model call failed",
			zap.Error(err),
			zap.Int("messages", len(messages)),
			zap.Duration("elapsed", time.Since(start)),
		)
		return fmt.Sprintf("%s %v", ErrorSentinel, err), true
	}

	g.log.Debug("model call completed",
		zap.Int("response_len", len(text)),
		zap.Duration("elapsed", time.Since(start)),
	)

	if text == "" {
		return "", false
	}
	return text, true
}
