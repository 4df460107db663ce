package llm

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	langopenai "github.com/tmc/langchaingo/llms/openai"
)

// LangChain 通过 langchaingo 的 openai 客户端访问兼容接口
type LangChain struct {
	model       llms.Model
	temperature float64
}

func NewLangChain(s Settings) (*LangChain, error) {
	opts := []langopenai.Option{
		langopenai.WithToken(s.APIKey),
		langopenai.WithModel(s.Model),
	}
	if s.BaseURL != "" {
		opts = append(opts, langopenai.WithBaseURL(s.BaseURL))
	}
	model, err := langopenai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("langchain openai client: %w", err)
	}
	return &LangChain{model: model, temperature: s.Temperature}, nil
}

func messageContents(messages []Message) []llms.MessageContent {
	out := make([]llms.MessageContent, 0, len(messages))
	for _, m := range messages {
		role := llms.ChatMessageTypeHuman
		switch m.Role {
		case RoleSystem:
			role = llms.ChatMessageTypeSystem
		case RoleAssistant:
			role = llms.ChatMessageTypeAI
		}
		out = append(out, llms.TextParts(role, m.Content))
	}
	return out
}

func (l *LangChain) Complete(ctx context.Context, messages []Message) (string, error) {
	resp, err := l.model.GenerateContent(ctx, messageContents(messages), llms.WithTemperature(l.temperature))
	if err != nil {
		return "", fmt.Errorf("langchain generate: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyReply
	}
	return resp.Choices[0].Content, nil
}

func (l *LangChain) Stream(ctx context.Context, messages []Message, onDelta func(string) error) error {
	_, err := l.model.GenerateContent(ctx, messageContents(messages),
		llms.WithTemperature(l.temperature),
		llms.WithStreamingFunc(func(_ context.Context, chunk []byte) error {
			if len(chunk) == 0 {
				return nil
			}
			return onDelta(string(chunk))
		}),
	)
	if err != nil {
		return fmt.Errorf("langchain stream: %w", err)
	}
	return nil
}
