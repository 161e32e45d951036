package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"loanwise/internal/clients"
)

func TestChatServiceDisabledWithoutKey(t *testing.T) {
	svc := NewChatService(clients.NewOpenAIClient(clients.OpenAIConfig{}))

	if svc.Enabled() {
		t.Error("expected chat to be disabled without an API key")
	}

	err := svc.Stream(context.Background(), []clients.ChatMessage{
		{Role: "user", Content: "hello"},
	}, 0, func(string) error { return nil })
	if !errors.Is(err, ErrChatDisabled) {
		t.Errorf("expected ErrChatDisabled, got %v", err)
	}
}

func TestValidateChatMessages(t *testing.T) {
	tests := []struct {
		name     string
		messages []clients.ChatMessage
		wantErr  bool
	}{
		{
			name:     "valid conversation",
			messages: []clients.ChatMessage{{Role: "system", Content: "you explain loans"}, {Role: "user", Content: "what is my EMI"}},
		},
		{
			name:    "empty list",
			wantErr: true,
		},
		{
			name:     "unknown role",
			messages: []clients.ChatMessage{{Role: "tool", Content: "x"}},
			wantErr:  true,
		},
		{
			name:     "blank content",
			messages: []clients.ChatMessage{{Role: "user", Content: "   "}},
			wantErr:  true,
		},
		{
			name:     "oversized content",
			messages: []clients.ChatMessage{{Role: "user", Content: strings.Repeat("a", maxChatContentLength+1)}},
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateChatMessages(tt.messages)
			if tt.wantErr && err == nil {
				t.Error("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
