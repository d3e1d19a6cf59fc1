package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/azure"
	"github.com/openai/openai-go/v2/option"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/funkysandman/geowise/internal/config"
	"github.com/funkysandman/geowise/internal/retry"
)

const (
	maxAttempts    = 5
	attemptDelay   = 5 * time.Second
	requestTimeout = 60 * time.Second
)

// Message is one role-tagged chat message.
type Message struct {
	Role    string
	Content string
}

// SystemMessage builds a system-role message.
func SystemMessage(content string) Message {
	return Message{Role: "system", Content: content}
}

// Completer is the single operation the extraction pipeline needs from a
// completion provider.
type Completer interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

// Client calls an Azure OpenAI chat deployment with bounded retry. Calls are
// gated through a shared rate limiter because every pipeline step hits the
// same backend.
type Client struct {
	client     openai.Client
	deployment string
	limiter    *rate.Limiter
}

// NewClient builds a Client for one deployment. limiter may be nil to
// disable client-side rate limiting.
func NewClient(p *config.Provider, deployment string, limiter *rate.Limiter) *Client {
	return &Client{
		client: openai.NewClient(
			azure.WithEndpoint(p.OpenAIEndpoint, p.OpenAIAPIVersion),
			azure.WithAPIKey(p.OpenAIKey),
		),
		deployment: deployment,
		limiter:    limiter,
	}
}

// Complete sends the messages and returns the completion text. Transient
// provider failures and non-normal finish reasons are retried up to 5
// attempts with a 5 second pause; each attempt has a 60 second budget.
// Requests the provider rejects outright (4xx) are not retried.
func (c *Client) Complete(ctx context.Context, messages []Message) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.deployment),
		Messages: toParams(messages),
	}

	var content string
	err := retry.Do(ctx, retry.Policy{Attempts: maxAttempts, Delay: attemptDelay}, func(ctx context.Context) error {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return retry.Permanent(err)
			}
		}

		resp, err := c.client.Chat.Completions.New(ctx, params, option.WithRequestTimeout(requestTimeout))
		if err != nil {
			if isPolicyRejection(err) {
				log.Error().Err(err).Str("deployment", c.deployment).Msg("completion request rejected by provider")
				return retry.Permanent(err)
			}
			log.Warn().Err(err).Str("deployment", c.deployment).Msg("completion attempt failed")
			return err
		}

		if len(resp.Choices) == 0 {
			log.Warn().Str("deployment", c.deployment).Msg("completion returned no choices")
			return errors.New("completion returned no choices")
		}

		choice := resp.Choices[0]
		if choice.FinishReason != "stop" {
			log.Warn().Str("finish_reason", choice.FinishReason).Msg("completion did not finish normally")
			return fmt.Errorf("completion did not finish: reason %q", choice.FinishReason)
		}

		content = choice.Message.Content
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	return content, nil
}

func toParams(messages []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case "system":
			out = append(out, openai.SystemMessage(m.Content))
		case "assistant":
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}

// isPolicyRejection reports whether the provider refused the request itself
// (oversized or disallowed content), as opposed to failing transiently.
func isPolicyRejection(err error) bool {
	var apiErr *openai.Error
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 && apiErr.StatusCode != 429
}
