package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common"
	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common/profile"
	hunyuan "github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/hunyuan/v20230901"
)

// Hunyuan 使用腾讯云官方 Go SDK
type Hunyuan struct {
	client      *hunyuan.Client
	model       string
	temperature float64
}

func NewHunyuan(s Settings) (*Hunyuan, error) {
	credential := common.NewCredential(s.SecretID, s.SecretKey)
	cpf := profile.NewClientProfile()
	cpf.HttpProfile.Endpoint = s.Endpoint
	if s.Scheme != "" {
		cpf.HttpProfile.Scheme = s.Scheme
	}
	client, err := hunyuan.NewClient(credential, s.Region, cpf)
	if err != nil {
		return nil, fmt.Errorf("hunyuan client: %w", err)
	}
	log.Info().Str("endpoint", s.Endpoint).Str("model", s.Model).Msg("hunyuan client ready")
	return &Hunyuan{client: client, model: s.Model, temperature: s.Temperature}, nil
}

func (h *Hunyuan) request(messages []Message, stream bool) *hunyuan.ChatCompletionsRequest {
	req := hunyuan.NewChatCompletionsRequest()
	req.Model = common.StringPtr(h.model)
	req.Temperature = common.Float64Ptr(h.temperature)
	req.Stream = common.BoolPtr(stream)
	for _, m := range messages {
		req.Messages = append(req.Messages, &hunyuan.Message{
			Role:    common.StringPtr(m.Role),
			Content: common.StringPtr(m.Content),
		})
	}
	return req
}

func (h *Hunyuan) Complete(ctx context.Context, messages []Message) (string, error) {
	resp, err := h.client.ChatCompletionsWithContext(ctx, h.request(messages, false))
	if err != nil {
		return "", fmt.Errorf("hunyuan chat completions: %w", err)
	}
	if resp.Response == nil || len(resp.Response.Choices) == 0 {
		return "", ErrEmptyReply
	}
	msg := resp.Response.Choices[0].Message
	if msg == nil || msg.Content == nil {
		return "", ErrEmptyReply
	}
	return *msg.Content, nil
}

// Stream 流式返回时结果在 Events 里，Response 为空
func (h *Hunyuan) Stream(ctx context.Context, messages []Message, onDelta func(string) error) error {
	resp, err := h.client.ChatCompletionsWithContext(ctx, h.request(messages, true))
	if err != nil {
		return fmt.Errorf("hunyuan chat completions stream: %w", err)
	}

	for event := range resp.Events {
		if event.Err != nil {
			return fmt.Errorf("hunyuan stream event: %w", event.Err)
		}
		if len(event.Data) == 0 {
			continue
		}
		var chunk hunyuan.ChatCompletionsResponseParams
		if err := json.Unmarshal(event.Data, &chunk); err != nil {
			return fmt.Errorf("hunyuan stream decode: %w", err)
		}
		for _, choice := range chunk.Choices {
			if choice.Delta == nil || choice.Delta.Content == nil || *choice.Delta.Content == "" {
				continue
			}
			if err := onDelta(*choice.Delta.Content); err != nil {
				return err
			}
		}
	}
	return nil
}
