// Package chat answers founders' questions in the advisor panel.
package chat

import (
	"context"
	"errors"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// NoResponse is the reply shown when the backend answered with nothing.
const NoResponse = "No response from AI"

var ErrUnavailable = errors.New("chat not configured")

type Responder interface {
	Reply(ctx context.Context, message string) (string, error)
}

// Reply asks r and substitutes NoResponse for an empty answer.
func Reply(ctx context.Context, r Responder, message string) (string, error) {
	if r == nil {
		return "", ErrUnavailable
	}
	out, err := r.Reply(ctx, message)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(out) == "" {
		return NoResponse, nil
	}
	return out, nil
}

// WebhookChatter is the chat half of the webhook client.
type WebhookChatter interface {
	Chat(ctx context.Context, message string) (string, error)
}

type WebhookResponder struct{ c WebhookChatter }

func NewWebhookResponder(c WebhookChatter) *WebhookResponder { return &WebhookResponder{c: c} }

func (w *WebhookResponder) Reply(ctx context.Context, message string) (string, error) {
	return w.c.Chat(ctx, message)
}

const systemPrompt = `You are a venture capital advisor helping a startup founder improve their pitch.
Answer concisely and concretely. Focus on what investors look for in team, market,
product, traction and defensibility. Do not invent facts about the founder's company.`

type AnthropicMessager interface {
	New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

type AnthropicResponder struct {
	messages AnthropicMessager
	model    string
}

func NewAnthropicResponder(apiKey, model string) *AnthropicResponder {
	c := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &AnthropicResponder{messages: &c.Messages, model: model}
}

func (a *AnthropicResponder) Reply(ctx context.Context, message string) (string, error) {
	resp, err := a.messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: 1024,
		System:    []anthropic.TextBlockParam{{Text: systemPrompt}},
		Messages:  []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(message))},
	})
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, b := range resp.Content {
		if b.Type == "text" {
			sb.WriteString(b.Text)
		}
	}
	return sb.String(), nil
}
