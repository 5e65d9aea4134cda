package brain

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// claudeTools renders toolDefs as Anthropic tool definitions.
func claudeTools() []anthropic.ToolUnionParam {
	tools := make([]anthropic.ToolUnionParam, 0, len(toolDefs))
	for _, def := range toolDefs {
		props := map[string]any{}
		for _, p := range def.Params {
			props[p.Name] = map[string]any{"type": "integer", "description": p.Description}
		}
		t := anthropic.ToolUnionParamOfTool(
			anthropic.ToolInputSchemaParam{Type: "object", Properties: props},
			string(def.Tool),
		)
		t.OfTool.Description = anthropic.String(def.Description)
		tools = append(tools, t)
	}
	return tools
}

// claudeProvider talks to the Anthropic Messages API.
type claudeProvider struct {
	client    *anthropic.Client
	model     anthropic.Model
	maxTokens int64
	tools     []anthropic.ToolUnionParam
}

func newClaudeProvider(apiKey, model string, maxTokens int64) *claudeProvider {
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &claudeProvider{
		client:    &client,
		model:     anthropic.Model(model),
		maxTokens: maxTokens,
		tools:     claudeTools(),
	}
}

func (c *claudeProvider) Send(ctx context.Context, system string, turns []Turn) (Reply, error) {
	resp, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		System:    []anthropic.TextBlockParam{{Text: system}},
		Messages:  claudeMessages(turns),
		Tools:     c.tools,
	})
	if err != nil {
		return Reply{}, err
	}

	var reply Reply
	var text []string
	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			if t := strings.TrimSpace(block.AsText().Text); t != "" {
				text = append(text, t)
			}
		case "tool_use":
			tu := block.AsToolUse()
			raw, _ := json.Marshal(tu.Input)
			reply.Calls = append(reply.Calls, parseCall(tu.ID, tu.Name, raw))
		}
	}
	reply.Text = strings.Join(text, "\n")
	return reply, nil
}

// claudeMessages maps turns onto Anthropic messages. Tool results go back as
// user content blocks keyed by the call ID.
func claudeMessages(turns []Turn) []anthropic.MessageParam {
	msgs := make([]anthropic.MessageParam, 0, len(turns))
	for _, t := range turns {
		var blocks []anthropic.ContentBlockParamUnion
		if t.Text != "" {
			blocks = append(blocks, anthropic.NewTextBlock(t.Text))
		}
		if t.Speaker == Pet {
			for _, call := range t.Calls {
				blocks = append(blocks, anthropic.NewToolUseBlock(call.ID, call.Args, string(call.Tool)))
			}
			msgs = append(msgs, anthropic.NewAssistantMessage(blocks...))
			continue
		}
		for _, r := range t.Results {
			blocks = append(blocks, anthropic.NewToolResultBlock(r.CallID, r.Output, r.Failed))
		}
		msgs = append(msgs, anthropic.NewUserMessage(blocks...))
	}
	return msgs
}
