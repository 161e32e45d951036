package service

import (
	"context"
	"errors"
	"strings"

	"loanwise/internal/clients"
)

const (
	maxChatMessages      = 50
	maxChatContentLength = 8000
	defaultChatMaxTokens = 1024
)

var (
	ErrChatDisabled       = errors.New("chat is not configured")
	ErrInvalidChatRequest = errors.New("invalid chat request")
)

// ChatService relays loan questions to an OpenAI-compatible API. It is
// stateless; history travels with every request.
type ChatService struct {
	ai *clients.OpenAIClient
}

func NewChatService(ai *clients.OpenAIClient) *ChatService {
	return &ChatService{ai: ai}
}

func (s *ChatService) Enabled() bool {
	return s.ai != nil && s.ai.Enabled()
}

// Stream validates the message history and forwards it upstream,
// invoking onDelta for each content fragment.
func (s *ChatService) Stream(ctx context.Context, messages []clients.ChatMessage, maxTokens int, onDelta func(string) error) error {
	if !s.Enabled() {
		return ErrChatDisabled
	}
	if err := validateChatMessages(messages); err != nil {
		return err
	}
	if maxTokens <= 0 {
		maxTokens = defaultChatMaxTokens
	}
	return s.ai.StreamCompletion(ctx, messages, maxTokens, onDelta)
}

func validateChatMessages(messages []clients.ChatMessage) error {
	if len(messages) == 0 {
		return errors.New("messages are required")
	}
	if len(messages) > maxChatMessages {
		return ErrInvalidChatRequest
	}
	for _, m := range messages {
		switch m.Role {
		case "system", "user", "assistant":
		default:
			return ErrInvalidChatRequest
		}
		if strings.TrimSpace(m.Content) == "" {
			return errors.New("message content is required")
		}
		if len(m.Content) > maxChatContentLength {
			return ErrInvalidChatRequest
		}
	}
	return nil
}
