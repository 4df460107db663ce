// Package llm talks to the external chat-completion service. Every backend
// sends the same role/content conversation and either buffers the reply or
// forwards each upstream fragment as it arrives.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"healthcoach-backend/internal/config"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ErrEmptyReply is returned when the upstream answers without any choice.
var ErrEmptyReply = errors.New("llm: empty reply")

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Completer is implemented by every chat-completion backend.
//
// Stream calls onDelta once per upstream fragment, in order. An error from
// onDelta stops the stream and is returned as is.
type Completer interface {
	Complete(ctx context.Context, messages []Message) (string, error)
	Stream(ctx context.Context, messages []Message, onDelta func(string) error) error
}

// Settings is the subset of configuration every backend needs.
type Settings struct {
	Model       string
	Temperature float64
	APIKey      string
	BaseURL     string

	SecretID  string
	SecretKey string
	Endpoint  string
	Region    string
	Scheme    string // HTTPS unless set
}

func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		Model:       cfg.LLMModel,
		Temperature: cfg.LLMTemperature,
		APIKey:      cfg.OpenAIAPIKey,
		BaseURL:     cfg.OpenAIBaseURL,
		SecretID:    cfg.TencentSecretID,
		SecretKey:   cfg.TencentSecretKey,
		Endpoint:    cfg.HunyuanEndpoint,
		Region:      cfg.HunyuanRegion,
		Scheme:      cfg.HunyuanScheme,
	}
}

// New builds the backend named by provider.
func New(provider string, s Settings) (Completer, error) {
	switch strings.ToLower(provider) {
	case "", config.ProviderOpenAI:
		return NewOpenAI(s), nil
	case config.ProviderLangChain:
		return NewLangChain(s)
	case config.ProviderHunyuan:
		return NewHunyuan(s)
	default:
		return nil, fmt.Errorf("llm: unsupported provider %q", provider)
	}
}

// Prompt builds the two-message conversation used by single-shot requests.
// An empty system prompt is still sent so the upstream sees the same shape
// for every request type.
func Prompt(system, user string) []Message {
	return []Message{
		{Role: RoleSystem, Content: system},
		{Role: RoleUser, Content: user},
	}
}
