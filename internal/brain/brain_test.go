package brain

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"google.golang.org/genai"

	"github.com/moorebrett0/tidepet/internal/pet"
	"github.com/moorebrett0/tidepet/internal/store"
)

type staticView struct{ snap pet.Snapshot }

func (v staticView) Snapshot() pet.Snapshot { return v.snap }

// scriptedProvider replays responses in order and records what it was sent.
type scriptedProvider struct {
	replies   []Reply
	err       error
	prompts   []string
	histories [][]Turn
}

func (p *scriptedProvider) Send(_ context.Context, system string, turns []Turn) (Reply, error) {
	p.prompts = append(p.prompts, system)
	p.histories = append(p.histories, append([]Turn(nil), turns...))
	if p.err != nil {
		return Reply{}, p.err
	}
	r := p.replies[0]
	if len(p.replies) > 1 {
		p.replies = p.replies[1:]
	}
	return r, nil
}

type eventList []store.EventRecord

func (e eventList) RecordEvent(context.Context, pet.Event, uint64) error { return nil }
func (e eventList) RecentEvents(_ context.Context, limit int) ([]store.EventRecord, error) {
	return e[:min(limit, len(e))], nil
}

func hungryDolphin() pet.Snapshot {
	s := pet.NewState("Flip", "dolphin", 0)
	s.Stage = pet.StageChild
	s.Hunger = 9
	s.Mood = pet.MoodHungry
	s.AttentionNeeded = true
	return pet.NewSnapshot(s)
}

func testConfig() Config {
	return Config{MaxTools: 3, RateLimit: 10, RateWindow: time.Minute}
}

func TestAskWithoutTools(t *testing.T) {
	p := &scriptedProvider{replies: []Reply{{Text: "*clicks* feed me?"}}}
	b := newBrain(p, testConfig(), staticView{hungryDolphin()}, nil)

	got, err := b.Ask(context.Background(), "how are you?")
	if err != nil {
		t.Fatal(err)
	}
	if got != "*clicks* feed me?" {
		t.Fatalf("answer = %q", got)
	}
	prompt := p.prompts[0]
	for _, want := range []string{"You are Flip", "Dolphin", "Life stage: Juvenile", "Mood: Hungry", "Hunger: 9/100", "Needs attention: true"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("system prompt missing %q", want)
		}
	}
}

func TestCheckPetToolLoop(t *testing.T) {
	p := &scriptedProvider{replies: []Reply{
		{Calls: []ToolCall{parseCall("t1", "check_pet", json.RawMessage(`{}`))}},
		{Text: "my tummy says 9"},
	}}
	b := newBrain(p, testConfig(), staticView{hungryDolphin()}, nil)

	got, err := b.Ask(context.Background(), "check yourself")
	if err != nil {
		t.Fatal(err)
	}
	if got != "my tummy says 9" {
		t.Fatalf("answer = %q", got)
	}
	if len(p.histories) != 2 {
		t.Fatalf("provider called %d times", len(p.histories))
	}
	last := p.histories[1]
	if len(last) != 3 || last[1].Speaker != Pet || last[2].Speaker != Owner {
		t.Fatalf("history = %+v", last)
	}
	results := last[2].Results
	if len(results) != 1 || results[0].CallID != "t1" || results[0].Tool != ToolCheckPet || results[0].Failed {
		t.Fatalf("tool results = %+v", results)
	}
	var snap map[string]any
	if err := json.Unmarshal([]byte(results[0].Output), &snap); err != nil {
		t.Fatalf("check_pet output not JSON: %v", err)
	}
	if snap["name"] != "Flip" || snap["hunger"] != float64(9) || snap["mood"] != "Hungry" {
		t.Fatalf("check_pet output = %v", snap)
	}
}

func TestExecuteTool(t *testing.T) {
	events := eventList{{ID: 3, Kind: "pooped"}, {ID: 2, Kind: "grew"}, {ID: 1, Kind: "hatched"}}
	tests := []struct {
		name      string
		events    store.EventLog
		tool      string
		input     string
		wantError bool
		wantSub   string
	}{
		{"recent default", events, "recent_events", ``, false, `"kind":"hatched"`},
		{"recent null args", events, "recent_events", `null`, false, `"kind":"hatched"`},
		{"recent limited", events, "recent_events", `{"limit":1}`, false, `"kind":"pooped"`},
		{"recent bad input", events, "recent_events", `{"limit":"x"}`, true, "invalid input"},
		{"recent without history", nil, "recent_events", `{}`, true, "no event history"},
		{"unknown", events, "run_shell", `{}`, true, "unknown tool"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newBrain(&scriptedProvider{}, testConfig(), staticView{hungryDolphin()}, tt.events)
			res := b.executeTool(context.Background(), parseCall("c", tt.tool, json.RawMessage(tt.input)))
			if res.Failed != tt.wantError || !strings.Contains(res.Output, tt.wantSub) {
				t.Fatalf("executeTool = %q, %v", res.Output, res.Failed)
			}
			if res.CallID != "c" || res.Tool != Tool(tt.tool) {
				t.Fatalf("result not matched to call: %+v", res)
			}
		})
	}

	b := newBrain(&scriptedProvider{}, testConfig(), staticView{}, events)
	res := b.executeTool(context.Background(), ToolCall{Tool: ToolRecentEvents, Args: ToolArgs{Limit: 1}})
	if strings.Contains(res.Output, "grew") {
		t.Fatalf("limit ignored: %s", res.Output)
	}
}

func TestToolLoopGivesUp(t *testing.T) {
	p := &scriptedProvider{replies: []Reply{{Calls: []ToolCall{{ID: "t", Tool: ToolCheckPet}}}}}
	cfg := testConfig()
	cfg.MaxTools = 2
	b := newBrain(p, cfg, staticView{hungryDolphin()}, nil)

	got, err := b.Ask(context.Background(), "loop forever")
	if err != nil {
		t.Fatal(err)
	}
	if len(p.prompts) != 3 {
		t.Fatalf("provider called %d times, want 3", len(p.prompts))
	}
	if !strings.Contains(got, "train of thought") {
		t.Fatalf("answer = %q", got)
	}
}

func TestProviderError(t *testing.T) {
	boom := errors.New("overloaded")
	b := newBrain(&scriptedProvider{err: boom}, testConfig(), staticView{hungryDolphin()}, nil)
	if _, err := b.Ask(context.Background(), "hi"); !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
}

func TestRateLimiter(t *testing.T) {
	now := time.Unix(1000, 0)
	cfg := testConfig()
	cfg.RateLimit = 2
	p := &scriptedProvider{replies: []Reply{{Text: "ok"}}}
	b := newBrain(p, cfg, staticView{hungryDolphin()}, nil)
	b.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		if got, _ := b.Ask(context.Background(), "hi"); got != "ok" {
			t.Fatalf("call %d = %q", i, got)
		}
	}
	if got, _ := b.Ask(context.Background(), "hi"); got != RateLimited {
		t.Fatalf("third call = %q, want rate limited", got)
	}
	now = now.Add(61 * time.Second)
	if got, _ := b.Ask(context.Background(), "hi"); got != "ok" {
		t.Fatalf("after window = %q", got)
	}
}

func TestNewWithoutKeysIsNil(t *testing.T) {
	if b := New(context.Background(), Config{}, staticView{}, nil); b != nil {
		t.Fatal("brain without keys should be nil")
	}
	if b := New(context.Background(), Config{Provider: "claude"}, staticView{}, nil); b != nil {
		t.Fatal("forced claude without key should be nil")
	}
}

func TestProviderToolDeclarations(t *testing.T) {
	claude := claudeTools()
	if len(claude) != len(toolDefs) {
		t.Fatalf("claude tools = %d", len(claude))
	}
	recent := claude[1].OfTool
	if recent.Name != "recent_events" {
		t.Fatalf("claude tool name = %q", recent.Name)
	}
	props, _ := recent.InputSchema.Properties.(map[string]any)
	if _, ok := props["limit"]; !ok {
		t.Fatalf("claude recent_events schema = %+v", recent.InputSchema.Properties)
	}

	decls := geminiTools()[0].FunctionDeclarations
	if decls[0].Name != "check_pet" || decls[0].Parameters != nil {
		t.Fatalf("gemini check_pet = %+v", decls[0])
	}
	if decls[1].Parameters.Properties["limit"].Type != genai.TypeInteger {
		t.Fatalf("gemini limit schema = %+v", decls[1].Parameters)
	}
}

func TestProviderHistoryMapping(t *testing.T) {
	call := ToolCall{ID: "c1", Tool: ToolRecentEvents, Args: ToolArgs{Limit: 5}}
	turns := []Turn{
		{Speaker: Owner, Text: "what happened?"},
		{Speaker: Pet, Text: "let me think", Calls: []ToolCall{call}},
		{Speaker: Owner, Results: []ToolResult{{CallID: "c1", Tool: ToolRecentEvents, Output: "[]"}}},
	}

	msgs := claudeMessages(turns)
	if len(msgs) != 3 || msgs[1].Role != anthropic.MessageParamRoleAssistant || msgs[2].Role != anthropic.MessageParamRoleUser {
		t.Fatalf("claude messages = %+v", msgs)
	}
	use := msgs[1].Content[1].OfToolUse
	if use == nil || use.ID != "c1" || use.Name != "recent_events" {
		t.Fatalf("claude tool use = %+v", msgs[1].Content)
	}
	if res := msgs[2].Content[0].OfToolResult; res == nil || res.ToolUseID != "c1" {
		t.Fatalf("claude tool result = %+v", msgs[2].Content)
	}

	contents := geminiContents(turns)
	if len(contents) != 3 || contents[1].Role != string(genai.RoleModel) || contents[2].Role != string(genai.RoleUser) {
		t.Fatalf("gemini roles = %v %v", contents[1].Role, contents[2].Role)
	}
	fc := contents[1].Parts[1].FunctionCall
	if fc.Name != "recent_events" || fc.ID != "c1" || fc.Args["limit"] != 5 {
		t.Fatalf("gemini call = %+v", fc)
	}
	fr := contents[2].Parts[0].FunctionResponse
	if fr.Name != "recent_events" || fr.Response["output"] != "[]" {
		t.Fatalf("gemini response = %+v", fr)
	}
}
