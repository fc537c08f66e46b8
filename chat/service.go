/*
service.go - HR assistant conversation loop

PURPOSE:
  Runs one turn of the assistant conversation: sends the history plus the
  user's message to the LLM with the MCP tool catalog attached, executes
  any tool calls the model requests, and returns the final reply.

STATE:
  The service is stateless between turns. The caller holds the
  user/assistant history and echoes it back each turn; the system prompt
  and any tool exchanges live only inside a single turn.

LIMITS:
  - History is trimmed to the newest maxHistory messages before the LLM
    sees it, so conversations cannot grow without bound.
  - Tool-call rounds per turn are capped; a model stuck in a tool loop
    gets cut off with an explanatory reply rather than running forever.
*/
package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/warp/vacation-tracker/config"
)

// maxToolRounds caps chained tool-call rounds within a single turn.
const maxToolRounds = 5

// Service runs assistant conversation turns.
type Service struct {
	llm        *completionClient
	mcp        *MCPClient
	maxHistory int
	log        *slog.Logger
	now        func() time.Time
}

// NewService creates a Service from the assistant configuration.
func NewService(cfg config.ChatConfig, log *slog.Logger) *Service {
	return &Service{
		llm:        newCompletionClient(cfg.APIKey, cfg.BaseURL, cfg.Model),
		mcp:        NewMCPClient(cfg.MCPURL),
		maxHistory: cfg.MaxHistory,
		log:        log,
		now:        time.Now,
	}
}

// systemPrompt instructs the model. Models are unreliable about the current
// date, so the year is stated explicitly.
func (s *Service) systemPrompt() string {
	return fmt.Sprintf(`You are a professional HR assistant helping employees manage their vacation time and understand HR policies.
Be friendly, professional, and clear. When processing vacation requests, always confirm details with the user
before finalizing. Respect company policies and inform users of any limitations or conflicts. Use the available
tools to help employees with their HR needs. Please note that you can combine actions to create new functionality.
For example, you can move a vacation by deleting an existing one and creating a new one. All basic operations are
supported via tooling: add, update, view, and delete.
The current year is: %d`, s.now().Year())
}

// Chat runs one conversation turn. history holds prior user/assistant
// messages; the returned history includes this turn and is already trimmed.
// accessToken is the caller's bearer token, forwarded to the tool layer.
func (s *Service) Chat(ctx context.Context, accessToken string, history []Message, userMessage string) (string, []Message, error) {
	history = trimHistory(history, s.maxHistory)

	tools, err := s.mcp.ListTools(ctx, accessToken)
	if err != nil {
		// Degrade to a tool-less conversation rather than failing the turn.
		s.log.WarnContext(ctx, "assistant: tool discovery failed", "error", err)
		tools = nil
	}

	messages := make([]Message, 0, len(history)+2)
	messages = append(messages, Message{Role: "system", Content: s.systemPrompt()})
	messages = append(messages, history...)
	messages = append(messages, Message{Role: "user", Content: userMessage})

	reply, err := s.runTurn(ctx, accessToken, messages, tools)
	if err != nil {
		return "", nil, err
	}

	updated := append(history,
		Message{Role: "user", Content: userMessage},
		Message{Role: "assistant", Content: reply},
	)
	return reply, trimHistory(updated, s.maxHistory), nil
}

// runTurn drives the completion/tool-call loop until the model produces a
// plain reply or the round cap is hit.
func (s *Service) runTurn(ctx context.Context, accessToken string, messages []Message, tools []Tool) (string, error) {
	for round := 0; round < maxToolRounds; round++ {
		resp, err := s.llm.Complete(ctx, messages, tools)
		if err != nil {
			return "", fmt.Errorf("assistant completion: %w", err)
		}

		if len(resp.ToolCalls) == 0 {
			return resp.Content, nil
		}

		messages = append(messages, *resp)
		for _, call := range resp.ToolCalls {
			messages = append(messages, s.executeToolCall(ctx, accessToken, call))
		}
	}

	return "I wasn't able to complete that request within the allowed number of steps. Please try rephrasing or breaking it into smaller steps.", nil
}

// executeToolCall runs one requested tool call and wraps the outcome as a
// tool message. Failures become tool content so the model can explain them.
func (s *Service) executeToolCall(ctx context.Context, accessToken string, call ToolCall) Message {
	s.log.InfoContext(ctx, "assistant: calling tool", "tool", call.Function.Name)

	var args map[string]any
	if call.Function.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
			return Message{
				Role:       "tool",
				ToolCallID: call.ID,
				Content:    fmt.Sprintf("invalid tool arguments: %v", err),
			}
		}
	}

	result, err := s.mcp.CallTool(ctx, accessToken, call.Function.Name, args)
	if err != nil {
		s.log.WarnContext(ctx, "assistant: tool call failed", "tool", call.Function.Name, "error", err)
		result = fmt.Sprintf("tool call failed: %v", err)
	}

	return Message{
		Role:       "tool",
		ToolCallID: call.ID,
		Content:    result,
	}
}

// trimHistory keeps the newest max messages.
func trimHistory(history []Message, max int) []Message {
	if max <= 0 || len(history) <= max {
		return history
	}
	return history[len(history)-max:]
}
