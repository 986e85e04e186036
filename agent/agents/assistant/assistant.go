// Package assistant drives the think/act cycle for one chat turn: the chat
// model either answers or requests tool calls; requested tools run in
// request order and their results are fed back until the model converges or
// the round bound is hit.
package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	contractx "github.com/kittipos/clinic-concierge/agent/contract"
	toolx "github.com/kittipos/clinic-concierge/agent/tool"
)

// FallbackReply is returned whenever no usable reply was produced. The
// chat surface never returns empty text or internal diagnostics.
const FallbackReply = "I couldn't process your request. Please try again."

const defaultMaxRounds = 8

type Option func(*Assistant)

// WithMaxRounds bounds the tool-call iterations per turn.
func WithMaxRounds(n int) Option {
	return func(a *Assistant) {
		if n > 0 {
			a.maxRounds = n
		}
	}
}

type Assistant struct {
	persona      contractx.Persona
	model        einomodel.ToolCallingChatModel
	systemPrompt string
	allowed      map[string]struct{}
	maxRounds    int
}

// New binds the persona's tool catalog to the chat model.
func New(
	persona contractx.Persona,
	chatModel einomodel.ToolCallingChatModel,
	systemPrompt string,
	tools []*schema.ToolInfo,
	opts ...Option,
) (*Assistant, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("%w: chat model is required", contractx.ErrValidation)
	}

	boundModel := chatModel
	if len(tools) > 0 {
		var err error
		boundModel, err = chatModel.WithTools(tools)
		if err != nil {
			return nil, fmt.Errorf("%w: bind tools for persona=%s: %v", contractx.ErrModelInvoke, persona, err)
		}
	}

	allowed := make(map[string]struct{}, len(tools))
	for _, t := range tools {
		if t == nil || strings.TrimSpace(t.Name) == "" {
			continue
		}
		allowed[t.Name] = struct{}{}
	}

	a := &Assistant{
		persona:      persona,
		model:        boundModel,
		systemPrompt: strings.TrimSpace(systemPrompt),
		allowed:      allowed,
		maxRounds:    defaultMaxRounds,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a, nil
}

// Run executes one turn over the full session history. Tool failures come
// back as textual tool results so the model can explain them; only engine
// failures escalate as errors.
func (a *Assistant) Run(ctx context.Context, history []contractx.Message, exec toolx.Executor) (string, error) {
	msgs := make([]*schema.Message, 0, len(history)+2)
	if a.systemPrompt != "" {
		msgs = append(msgs, schema.SystemMessage(a.systemPrompt))
	}
	for _, m := range history {
		msgs = append(msgs, toSchemaMessage(m))
	}

	var produced []*schema.Message
	for round := 0; round < a.maxRounds; round++ {
		out, err := a.model.Generate(ctx, msgs)
		if err != nil {
			return "", fmt.Errorf("%w: generate for persona=%s: %v", contractx.ErrModelInvoke, a.persona, err)
		}
		if out == nil {
			return "", fmt.Errorf("%w: empty model response", contractx.ErrSchemaViolation)
		}

		msgs = append(msgs, out)
		produced = append(produced, out)
		if len(out.ToolCalls) == 0 {
			break
		}

		// Sequential execution in request order also fixes the
		// resubmission order.
		for _, call := range out.ToolCalls {
			resultMsg := a.executeCall(ctx, call, exec)
			msgs = append(msgs, resultMsg)
			produced = append(produced, resultMsg)
		}
	}

	return selectReply(produced), nil
}

func (a *Assistant) executeCall(ctx context.Context, call schema.ToolCall, exec toolx.Executor) *schema.Message {
	name := strings.TrimSpace(call.Function.Name)
	if name == "" {
		return schema.ToolMessage("Error: tool call name is empty", call.ID)
	}
	if _, ok := a.allowed[name]; !ok {
		return schema.ToolMessage(
			fmt.Sprintf("Error: tool=%s is not allowed for persona=%s", name, a.persona), call.ID)
	}
	if exec == nil {
		return schema.ToolMessage("Error: no tool executor available", call.ID)
	}

	args := map[string]any{}
	if raw := strings.TrimSpace(call.Function.Arguments); raw != "" {
		if err := json.Unmarshal([]byte(raw), &args); err != nil {
			return schema.ToolMessage(
				fmt.Sprintf("Error: invalid tool args for tool=%s: %v", name, err), call.ID)
		}
	}

	result, err := exec(ctx, name, args)
	if err != nil {
		log.Error().Str("tool", name).Err(err).Msg("tool execution failed")
		return schema.ToolMessage(fmt.Sprintf("Error: %v", err), call.ID)
	}
	return schema.ToolMessage(renderToolResult(result), call.ID)
}

// selectReply walks the produced messages newest-first and picks the first
// one that carries text and is not itself a tool-call request.
func selectReply(msgs []*schema.Message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		m := msgs[i]
		if m == nil || len(m.ToolCalls) > 0 {
			continue
		}
		if strings.TrimSpace(m.Content) == "" {
			continue
		}
		return m.Content
	}
	return FallbackReply
}

func renderToolResult(result contractx.ToolResult) string {
	if result.Error != "" {
		return result.Error
	}
	switch v := result.Result.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(encoded)
	}
}

func toSchemaMessage(m contractx.Message) *schema.Message {
	switch m.Role {
	case contractx.RoleAssistant:
		var calls []schema.ToolCall
		for _, c := range m.ToolCalls {
			calls = append(calls, schema.ToolCall{
				ID: c.ID,
				Function: schema.FunctionCall{
					Name:      c.Name,
					Arguments: c.Arguments,
				},
			})
		}
		return schema.AssistantMessage(m.Content, calls)
	case contractx.RoleTool:
		return schema.ToolMessage(m.Content, m.ToolCallID)
	default:
		return schema.UserMessage(m.Content)
	}
}
