package llm

import (
	"errors"
	"fmt"
	"testing"

	"github.com/openai/openai-go/v2"
)

func TestIsPolicyRejection(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"plain error", errors.New("connection reset"), false},
		{"wrapped plain error", fmt.Errorf("request: %w", errors.New("timeout")), false},
		{"bad request", &openai.Error{StatusCode: 400}, true},
		{"payload too large", &openai.Error{StatusCode: 413}, true},
		{"rate limited", &openai.Error{StatusCode: 429}, false},
		{"server error", &openai.Error{StatusCode: 500}, false},
		{"wrapped api error", fmt.Errorf("call: %w", &openai.Error{StatusCode: 400}), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isPolicyRejection(tt.err); got != tt.want {
				t.Errorf("isPolicyRejection(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestToParams(t *testing.T) {
	msgs := []Message{
		SystemMessage("instructions"),
		{Role: "user", Content: "article"},
		{Role: "assistant", Content: "prefill"},
	}

	params := toParams(msgs)
	if len(params) != 3 {
		t.Fatalf("expected 3 params, got %d", len(params))
	}
	if params[0].OfSystem == nil {
		t.Error("expected first message to be system-role")
	}
	if params[1].OfUser == nil {
		t.Error("expected second message to be user-role")
	}
	if params[2].OfAssistant == nil {
		t.Error("expected third message to be assistant-role")
	}
}
