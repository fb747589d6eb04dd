package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"grok-cli/internal/logging"
)

// streamRetryBackoff is the Transient-error retry schedule spec §7
// prescribes for LLM-stream timeouts: three attempts at 1s, 2s, 4s.
var streamRetryBackoff = []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}

// isTransientStreamErr reports whether err looks like a timeout rather
// than a hard failure worth surfacing immediately.
func isTransientStreamErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return false
}

// Config configures a Client against any OpenAI-compatible endpoint.
type Config struct {
	APIKey             string
	BaseURL            string
	Model              string
	Temperature        float32
	MaxTokens          int
	HTTPTimeoutSeconds int
}

// Client streams chat completions from an OpenAI-compatible endpoint,
// accumulating content and tool-call deltas for the Agent Core's tool loop.
type Client struct {
	raw *openai.Client
	cfg Config
}

// NewClient builds a Client from cfg, defaulting HTTPTimeoutSeconds to 120.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("llm: APIKey is required")
	}
	if cfg.Model == "" {
		return nil, errors.New("llm: Model is required")
	}
	if cfg.HTTPTimeoutSeconds == 0 {
		cfg.HTTPTimeoutSeconds = 120
	}

	raw := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		raw.BaseURL = cfg.BaseURL
	}
	raw.HTTPClient = &http.Client{Timeout: time.Duration(cfg.HTTPTimeoutSeconds) * time.Second}

	return &Client{raw: openai.NewClientWithConfig(raw), cfg: cfg}, nil
}

func toOpenAIMessages(msgs []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, len(msgs))
	for i, m := range msgs {
		out[i] = openai.ChatCompletionMessage{
			Role:       m.Role,
			Content:    m.Content,
			Name:       m.Name,
			ToolCallID: m.ToolCallID,
		}
		if len(m.ToolCalls) > 0 {
			tcs := make([]openai.ToolCall, len(m.ToolCalls))
			for j, tc := range m.ToolCalls {
				tcs[j] = openai.ToolCall{
					ID:   tc.ID,
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      tc.Name,
						Arguments: tc.Arguments,
					},
				}
			}
			out[i].ToolCalls = tcs
		}
	}
	return out
}

func toOpenAITools(defs []ToolDefinition) []openai.Tool {
	out := make([]openai.Tool, len(defs))
	for i, d := range defs {
		out[i] = openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        d.Name,
				Description: d.Description,
				Parameters:  d.Parameters,
			},
		}
	}
	return out
}

// Stream opens a streaming chat completion and returns a channel of
// events: content deltas as they arrive, tool-call deltas tagged by
// index (providers may interleave several calls' fragments), and a final
// done event carrying the finish reason. The channel is closed when the
// stream ends, errors, or ctx is cancelled.
func (c *Client) Stream(ctx context.Context, messages []Message, tools []ToolDefinition) <-chan StreamEvent {
	out := make(chan StreamEvent, 32)

	req := openai.ChatCompletionRequest{
		Model:       c.cfg.Model,
		Messages:    toOpenAIMessages(messages),
		Temperature: c.cfg.Temperature,
		Stream:      true,
	}
	if c.cfg.MaxTokens > 0 {
		req.MaxTokens = c.cfg.MaxTokens
	}
	if len(tools) > 0 {
		req.Tools = toOpenAITools(tools)
	}

	go func() {
		defer close(out)

		for attempt := 0; ; attempt++ {
			emitted, err := c.streamOnce(ctx, req, out)
			if err == nil {
				return
			}
			if emitted || !isTransientStreamErr(err) || attempt >= len(streamRetryBackoff) {
				out <- StreamEvent{Type: EventError, Err: err}
				return
			}

			wait := streamRetryBackoff[attempt]
			logging.LLMError("[llm] transient stream error, retrying in %s (attempt %d/%d): %v", wait, attempt+1, len(streamRetryBackoff), err)
			select {
			case <-ctx.Done():
				out <- StreamEvent{Type: EventError, Err: ctx.Err()}
				return
			case <-time.After(wait):
			}
		}
	}()

	return out
}

// streamOnce runs a single attempt at opening and draining a chat
// completion stream, writing content/tool-call events directly to out as
// they arrive. It reports emitted=true once any such event has been
// written, so the caller never retries a partially-delivered response:
// retrying after content has already reached the conversation would
// duplicate it. A nil error means the stream finished cleanly (out
// receives the terminal EventDone itself); Stream's caller is responsible
// for surfacing a non-nil error as EventError.
func (c *Client) streamOnce(ctx context.Context, req openai.ChatCompletionRequest, out chan<- StreamEvent) (emitted bool, err error) {
	stream, err := c.raw.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return false, fmt.Errorf("create stream: %w", err)
	}
	defer stream.Close()

	for {
		select {
		case <-ctx.Done():
			return emitted, ctx.Err()
		default:
		}

		chunk, recvErr := stream.Recv()
		if errors.Is(recvErr, io.EOF) {
			out <- StreamEvent{Type: EventDone}
			return true, nil
		}
		if recvErr != nil {
			return emitted, fmt.Errorf("stream recv: %w", recvErr)
		}
		if len(chunk.Choices) == 0 {
			continue
		}

		choice := chunk.Choices[0]
		if choice.Delta.Content != "" {
			out <- StreamEvent{Type: EventContent, ContentDelta: choice.Delta.Content}
			emitted = true
		}
		for _, tc := range choice.Delta.ToolCalls {
			idx := 0
			if tc.Index != nil {
				idx = *tc.Index
			}
			out <- StreamEvent{Type: EventToolCallDelta, ToolCallDelta: &ToolCallDelta{
				Index:          idx,
				ID:             tc.ID,
				Name:           tc.Function.Name,
				ArgumentsDelta: tc.Function.Arguments,
			}}
			emitted = true
		}
		if choice.FinishReason != "" {
			out <- StreamEvent{Type: EventDone, FinishReason: string(choice.FinishReason)}
			return true, nil
		}
	}
}
