package application

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/leakguardhq/leakguard/internal/domain/model"
)

// ChatReplyMessage is the role-tagged message inside a ChatChoice.
type ChatReplyMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatChoice is one generated completion in a ChatReply.
type ChatChoice struct {
	Index        int              `json:"index"`
	Message      ChatReplyMessage `json:"message"`
	FinishReason string           `json:"finish_reason"`
}

// ChatUsage reports approximate token counts for a ChatReply.
type ChatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ChatReply is the completion envelope returned by the demo proxy.
type ChatReply struct {
	ID      string       `json:"id"`
	Model   string       `json:"model"`
	Choices []ChatChoice `json:"choices"`
	Usage   ChatUsage    `json:"usage"`
}

// ChatService fabricates plausible assistant replies for the public demo
// proxy. It performs no real model call; the reply is a deterministic
// function of the conversation.
type ChatService struct{}

// NewChatService creates a ChatService.
func NewChatService() *ChatService {
	return &ChatService{}
}

// Reply generates a canned assistant response to the latest user message.
func (s *ChatService) Reply(modelName string, messages []model.ChatMessage) ChatReply {
	prompt := lastUserContent(messages)

	content := fmt.Sprintf(
		"This is a demo response from %s. Your message passed the configured guardrails and was processed by the proxy.",
		modelName,
	)
	if prompt != "" {
		content = fmt.Sprintf(
			"This is a demo response from %s to: %q. In a live deployment this request would be forwarded to the model after guardrail screening.",
			modelName, truncate(prompt, 120),
		)
	}

	promptTokens := 0
	for _, m := range messages {
		promptTokens += approxTokens(m.Content)
	}
	completionTokens := approxTokens(content)

	return ChatReply{
		ID:    "chatcmpl-" + uuid.NewString(),
		Model: modelName,
		Choices: []ChatChoice{{
			Index:        0,
			Message:      ChatReplyMessage{Role: "assistant", Content: content},
			FinishReason: "stop",
		}},
		Usage: ChatUsage{
			PromptTokens:     promptTokens,
			CompletionTokens: completionTokens,
			TotalTokens:      promptTokens + completionTokens,
		},
	}
}

func lastUserContent(messages []model.ChatMessage) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "user" && messages[i].Content != "" {
			return messages[i].Content
		}
	}
	return ""
}

// truncate cuts s to at most max bytes, backing up to a rune boundary so the
// result stays valid UTF-8.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

// approxTokens estimates token usage as whitespace-delimited words.
func approxTokens(s string) int {
	return len(strings.Fields(s))
}
