// Package prompt turns a chat request into the system prompt and user
// message sent to the completion service.
package prompt

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/tmc/langchaingo/prompts"

	"healthcoach-backend/internal/common"
)

// Request is the body of POST /chat. Content and Context are kept raw since
// their shape depends on Type. UserProfile is accepted for older clients but
// no template reads it.
type Request struct {
	Type        string          `json:"type"`
	Content     json.RawMessage `json:"content"`
	UserProfile json.RawMessage `json:"userProfile,omitempty"`
	Context     json.RawMessage `json:"context,omitempty"`
}

var templates = map[string]prompts.PromptTemplate{
	common.TypeDailyMessage: prompts.NewPromptTemplate(common.DailyMessagePrompt, nil),
	common.TypeAnalyze:      prompts.NewPromptTemplate(common.AnalyzePrompt, []string{"userProfile"}),
	common.TypeConversation: prompts.NewPromptTemplate(common.ConversationPrompt,
		[]string{"userProfile", "journal", "analysis", "nutrition"}),
}

var coachTemplate = prompts.NewPromptTemplate(common.CoachPrompt,
	[]string{"recentActivities", "goals", "profile"})

// SystemPrompt renders the template selected by req.Type. Unknown types
// render an empty prompt.
func SystemPrompt(req Request) (string, error) {
	tmpl, ok := templates[req.Type]
	if !ok {
		return "", nil
	}

	values := map[string]any{}
	switch req.Type {
	case common.TypeAnalyze:
		// 只读 content.userProfile，顶层 userProfile 不参与分析
		values["userProfile"] = orDefault(fields(req.Content)["userProfile"], common.NoProfile)
	case common.TypeConversation:
		ctx := fields(req.Context)
		values["userProfile"] = orDefault(ctx["userProfile"], common.NoProfile)
		values["journal"] = text(ctx["journal"])
		values["analysis"] = text(ctx["analysis"])
		values["nutrition"] = orDefault(ctx["nutrition"], "{}")
	}

	out, err := tmpl.Format(values)
	if err != nil {
		return "", fmt.Errorf("render %s prompt: %w", req.Type, err)
	}
	return out, nil
}

type dailyMessagePayload struct {
	RecentActivities json.RawMessage `json:"recentActivities,omitempty"`
	Profile          json.RawMessage `json:"profile,omitempty"`
	Goals            json.RawMessage `json:"goals,omitempty"`
	Today            json.RawMessage `json:"today,omitempty"`
}

// UserContent derives the user message for req.Type.
func UserContent(req Request) string {
	switch req.Type {
	case common.TypeDailyMessage:
		content := fields(req.Content)
		payload, _ := json.Marshal(dailyMessagePayload{
			RecentActivities: content["recentInfo"],
			Profile:          content["userProfile"],
			Goals:            content["userGoals"],
			Today:            content["currentDay"],
		})
		return string(payload)
	case common.TypeAnalyze:
		return text(fields(req.Content)["journalEntry"])
	default:
		return text(req.Content)
	}
}

// CoachContext is what the coach endpoint knows about the user.
type CoachContext struct {
	RecentActivities any
	Goals            any
	Profile          string
}

// CoachPrompt renders the coach system prompt. Activities and goals are
// embedded as JSON.
func CoachPrompt(cc CoachContext) (string, error) {
	recent, err := json.Marshal(cc.RecentActivities)
	if err != nil {
		return "", fmt.Errorf("encode recent activities: %w", err)
	}
	goals, err := json.Marshal(cc.Goals)
	if err != nil {
		return "", fmt.Errorf("encode goals: %w", err)
	}
	return coachTemplate.Format(map[string]any{
		"recentActivities": string(recent),
		"goals":            string(goals),
		"profile":          cc.Profile,
	})
}

// fields decodes raw as an object. Anything else yields an empty map.
func fields(raw json.RawMessage) map[string]json.RawMessage {
	out := map[string]json.RawMessage{}
	if len(raw) == 0 {
		return out
	}
	_ = json.Unmarshal(raw, &out)
	return out
}

// text renders a raw value for a prompt: strings unquoted, null or missing
// as "", everything else as compact JSON.
func text(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}

func orDefault(raw json.RawMessage, def string) string {
	if s := text(raw); s != "" {
		return s
	}
	return def
}
