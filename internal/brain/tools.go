package brain

import (
	"context"
	"encoding/json"
	"fmt"
)

// Tool names a lookup the pet can make about itself.
type Tool string

const (
	ToolCheckPet     Tool = "check_pet"
	ToolRecentEvents Tool = "recent_events"
)

const (
	defaultEventLimit = 10
	maxEventLimit     = 50
)

// toolParam is one optional integer argument. The pet tools take nothing
// richer, so both providers derive their schemas from this table.
type toolParam struct {
	Name        string
	Description string
}

type toolDef struct {
	Tool        Tool
	Description string
	Params      []toolParam
}

var toolDefs = []toolDef{
	{
		Tool:        ToolCheckPet,
		Description: "Look at yourself: returns your current stats, mood, stage, age and flags as JSON. Use it instead of guessing how you feel.",
	},
	{
		Tool:        ToolRecentEvents,
		Description: "List your most recent life events (hatching, growing, pooping, falling sick, waking up) newest first, as JSON.",
		Params: []toolParam{
			{Name: "limit", Description: fmt.Sprintf("How many events to return (default %d, max %d)", defaultEventLimit, maxEventLimit)},
		},
	},
}

// ToolArgs carries the arguments of every tool; fields a tool does not take
// stay zero.
type ToolArgs struct {
	Limit int `json:"limit,omitempty"`
}

// ToolCall is the model asking to run one of the pet tools.
type ToolCall struct {
	ID   string // provider call ID; Gemini may leave it empty
	Tool Tool
	Args ToolArgs

	// argErr is set when the model sent arguments that do not decode.
	argErr error
}

// ToolResult answers one ToolCall.
type ToolResult struct {
	CallID string
	Tool   Tool
	Output string
	Failed bool
}

// parseCall decodes raw model arguments into a ToolCall. A decode failure is
// kept on the call and reported back to the model as a failed result.
func parseCall(id, name string, raw json.RawMessage) ToolCall {
	call := ToolCall{ID: id, Tool: Tool(name)}
	if len(raw) > 0 && string(raw) != "null" {
		if err := json.Unmarshal(raw, &call.Args); err != nil {
			call.argErr = err
		}
	}
	return call
}

// argMap renders the arguments as the loose map Gemini expects.
func (a ToolArgs) argMap() map[string]any {
	m := map[string]any{}
	if a.Limit > 0 {
		m["limit"] = a.Limit
	}
	return m
}

func (b *Brain) executeTool(ctx context.Context, call ToolCall) ToolResult {
	res := ToolResult{CallID: call.ID, Tool: call.Tool}
	fail := func(format string, args ...any) ToolResult {
		res.Output = fmt.Sprintf(format, args...)
		res.Failed = true
		return res
	}
	if call.argErr != nil {
		return fail("invalid input: %v", call.argErr)
	}

	switch call.Tool {
	case ToolCheckPet:
		out, err := json.Marshal(b.pet.Snapshot())
		if err != nil {
			return fail("snapshot failed: %v", err)
		}
		res.Output = string(out)

	case ToolRecentEvents:
		if b.events == nil {
			return fail("no event history is kept for this pet")
		}
		limit := call.Args.Limit
		if limit <= 0 {
			limit = defaultEventLimit
		}
		recs, err := b.events.RecentEvents(ctx, min(limit, maxEventLimit))
		if err != nil {
			return fail("Error: %v", err)
		}
		out, _ := json.Marshal(recs)
		res.Output = string(out)

	default:
		return fail("unknown tool: %s", call.Tool)
	}
	return res
}
