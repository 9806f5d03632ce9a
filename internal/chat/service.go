package chat

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"github.com/dmitrijs2005/photovault/internal/logging"
)

const (
	systemPrompt = "You are the PhotoVault assistant. Help the user manage and organize their photo collections. Keep answers short and friendly."

	// maxContextMessages bounds how much of the log is replayed to the
	// model on each turn.
	maxContextMessages = 20
)

// Service runs the assistant conversation over a persisted history.
type Service struct {
	api       *openai.Client
	history   *History
	model     string
	maxTokens int
	log       logging.Logger
}

func NewService(apiKey, baseURL, model string, maxTokens int, history *History, log logging.Logger) *Service {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &Service{
		api:       openai.NewClientWithConfig(cfg),
		history:   history,
		model:     model,
		maxTokens: maxTokens,
		log:       log,
	}
}

// History exposes the underlying log for listing and clearing.
func (s *Service) History() *History {
	return s.history
}

// Send appends the user's message, asks the model with a bounded recent
// context, appends the reply, and returns it. Nothing is appended when
// the model call fails, so a failed turn leaves the log unchanged.
func (s *Service) Send(ctx context.Context, text string) (Message, error) {
	past, err := s.history.Load()
	if err != nil {
		return Message{}, err
	}
	if len(past) > maxContextMessages {
		past = past[len(past)-maxContextMessages:]
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(past)+2)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: systemPrompt,
	})
	for _, m := range past {
		role := openai.ChatMessageRoleAssistant
		if m.FromUser {
			role = openai.ChatMessageRoleUser
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: text,
	})

	resp, err := s.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:               s.model,
		Messages:            messages,
		MaxCompletionTokens: s.maxTokens,
	})
	if err != nil {
		return Message{}, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Message{}, fmt.Errorf("chat completion: no choices in response")
	}

	reply := NewMessage(resp.Choices[0].Message.Content, false)
	reply.Thinking = resp.Choices[0].Message.ReasoningContent

	if err := s.history.Append(NewMessage(text, true), reply); err != nil {
		return Message{}, err
	}

	s.log.Debug(ctx, "chat turn stored", "context", len(messages))
	return reply, nil
}
