// Package llm streams chat completions from OpenRouter. Conversations
// are explicit Session values; the client itself holds no per-chat
// state.
package llm

import (
	"context"
	"errors"
	"io"

	"github.com/revrost/go-openrouter"

	"git.home.luguber.info/inful/shopassist/internal/config"
	derrors "git.home.luguber.info/inful/shopassist/internal/errors"
)

// Event is one unit of a streamed completion. Err is set on the final
// event when the stream terminated abnormally.
type Event struct {
	Text string
	Err  error
}

// Streamer is the model surface the chat service depends on.
type Streamer interface {
	Stream(ctx context.Context, systemPrompt string, session Session, userText string, withSearch bool) (<-chan Event, error)
}

// Client talks to OpenRouter.
type Client struct {
	client      *openrouter.Client
	model       string
	maxHistory  int
	temperature float32
}

// NewClient builds an OpenRouter-backed client from configuration.
func NewClient(cfg config.LLMConfig) *Client {
	var opts []openrouter.Option
	if cfg.SiteURL != "" {
		opts = append(opts, openrouter.WithHTTPReferer(cfg.SiteURL))
	}
	if cfg.AppName != "" {
		opts = append(opts, openrouter.WithXTitle(cfg.AppName))
	}
	return &Client{
		client:      openrouter.NewClient(cfg.APIKey, opts...),
		model:       cfg.Model,
		maxHistory:  cfg.MaxHistory,
		temperature: float32(cfg.Temperature),
	}
}

// Stream sends the history plus the new user turn and returns a
// channel of text deltas. The channel is closed when the stream ends.
// withSearch routes through OpenRouter's web-search variant of the
// model; callers retry without it when the first attempt fails.
func (c *Client) Stream(ctx context.Context, systemPrompt string, session Session, userText string, withSearch bool) (<-chan Event, error) {
	model := c.model
	if withSearch {
		model += ":online"
	}

	history := prepareHistory(session.History, c.maxHistory)
	messages := make([]openrouter.ChatCompletionMessage, 0, len(history)+2)
	messages = append(messages, openrouter.ChatCompletionMessage{
		Role:    openrouter.ChatMessageRoleSystem,
		Content: openrouter.Content{Text: systemPrompt},
	})
	for _, m := range history {
		role := openrouter.ChatMessageRoleUser
		if m.Role == RoleModel {
			role = openrouter.ChatMessageRoleAssistant
		}
		messages = append(messages, openrouter.ChatCompletionMessage{
			Role:    role,
			Content: openrouter.Content{Text: m.Text},
		})
	}
	messages = append(messages, openrouter.ChatCompletionMessage{
		Role:    openrouter.ChatMessageRoleUser,
		Content: openrouter.Content{Text: userText},
	})

	stream, err := c.client.CreateChatCompletionStream(ctx, openrouter.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: c.temperature,
	})
	if err != nil {
		return nil, classifyRequestError(model, err)
	}

	events := make(chan Event)
	go func() {
		defer close(events)
		defer stream.Close()
		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				select {
				case events <- Event{Err: derrors.LLMStreamInterrupted(err)}:
				case <-ctx.Done():
				}
				return
			}
			if len(resp.Choices) == 0 {
				continue
			}
			delta := resp.Choices[0].Delta.Content
			if delta == "" {
				continue
			}
			select {
			case events <- Event{Text: delta}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return events, nil
}

func classifyRequestError(model string, err error) error {
	var apiErr *openrouter.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == 401 || apiErr.HTTPStatusCode == 403 {
			return derrors.LLMAuthError(err)
		}
	}
	return derrors.LLMRequestError(model, err)
}
