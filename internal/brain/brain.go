package brain

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/moorebrett0/tidepet/internal/pet"
	"github.com/moorebrett0/tidepet/internal/species"
	"github.com/moorebrett0/tidepet/internal/store"
)

// PetView is the read side of the pet the brain needs (satisfied by *sim.Loop).
type PetView interface {
	Snapshot() pet.Snapshot
}

// Provider is one chat model backend. Send runs a single round: the model
// either answers as the pet or asks for tool calls first.
type Provider interface {
	Send(ctx context.Context, system string, turns []Turn) (Reply, error)
}

// Speaker says which side of the conversation a turn belongs to.
type Speaker int

const (
	Owner Speaker = iota // whoever is talking to the pet; tool results ride here
	Pet                  // the model, in character
)

// Turn is one entry of the conversation. An Owner turn carries either Text or
// Results; a Pet turn carries Text, Calls or both.
type Turn struct {
	Speaker Speaker
	Text    string
	Calls   []ToolCall
	Results []ToolResult
}

// Reply is what the pet said in one round and the lookups it wants to make.
type Reply struct {
	Text  string
	Calls []ToolCall
}

// Done reports whether the reply is final.
func (r Reply) Done() bool { return len(r.Calls) == 0 }

// Brain wraps an AI provider with system prompt building and tool-use loop.
type Brain struct {
	provider Provider
	maxTools int
	pet      PetView
	events   store.EventLog // nil when the store keeps no history

	// Sliding-window rate limiter
	mu      sync.Mutex
	window  []time.Time
	rateMax int
	rateDur time.Duration
	now     func() time.Time
}

// Config for creating a Brain.
type Config struct {
	// Claude
	ClaudeAPIKey string
	ClaudeModel  string

	// Gemini
	GeminiAPIKey string
	GeminiModel  string

	// Which provider to force ("claude", "gemini", or "" for auto-detect)
	Provider string

	MaxTokens  int64
	MaxTools   int
	RateLimit  int
	RateWindow time.Duration
}

// New creates a Brain. Returns nil if no API key is configured.
func New(ctx context.Context, cfg Config, view PetView, events store.EventLog) *Brain {
	provider := newProvider(ctx, cfg)
	if provider == nil {
		slog.Info("brain: no API key configured, AI features disabled")
		return nil
	}
	return newBrain(provider, cfg, view, events)
}

func newBrain(p Provider, cfg Config, view PetView, events store.EventLog) *Brain {
	return &Brain{
		provider: p,
		maxTools: cfg.MaxTools,
		pet:      view,
		events:   events,
		rateMax:  cfg.RateLimit,
		rateDur:  cfg.RateWindow,
		now:      time.Now,
	}
}

// newProvider auto-detects or forces the AI provider.
func newProvider(ctx context.Context, cfg Config) Provider {
	pick := cfg.Provider

	// Auto-detect if not forced
	if pick == "" {
		switch {
		case cfg.ClaudeAPIKey != "":
			pick = "claude"
		case cfg.GeminiAPIKey != "":
			pick = "gemini"
		}
	}

	switch pick {
	case "claude":
		if cfg.ClaudeAPIKey == "" {
			slog.Error("brain: AI_PROVIDER=claude but ANTHROPIC_API_KEY is not set")
			return nil
		}
		slog.Info("brain: using claude", "model", cfg.ClaudeModel)
		return newClaudeProvider(cfg.ClaudeAPIKey, cfg.ClaudeModel, cfg.MaxTokens)
	case "gemini":
		if cfg.GeminiAPIKey == "" {
			slog.Error("brain: AI_PROVIDER=gemini but GOOGLE_API_KEY is not set")
			return nil
		}
		slog.Info("brain: using gemini", "model", cfg.GeminiModel)
		p, err := newGeminiProvider(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.MaxTokens)
		if err != nil {
			slog.Error("brain: failed to create gemini provider", "err", err)
			return nil
		}
		return p
	default:
		return nil
	}
}

// RateLimited is returned in place of an answer when the window is full.
const RateLimited = "*blows a tired bubble* too many questions at once... give me a minute!"

// Ask sends a user message to the AI with the pet's state and returns the text
// response. It handles the tool-use loop internally.
func (b *Brain) Ask(ctx context.Context, userMessage string) (string, error) {
	if !b.rateAllow() {
		return RateLimited, nil
	}

	system := b.buildSystemPrompt()
	turns := []Turn{{Speaker: Owner, Text: userMessage}}

	for i := 0; i <= b.maxTools; i++ {
		reply, err := b.provider.Send(ctx, system, turns)
		if err != nil {
			slog.Error("brain: AI API error", "err", err)
			return "", fmt.Errorf("AI API error: %w", err)
		}
		if reply.Done() {
			return reply.Text, nil
		}

		results := make([]ToolResult, 0, len(reply.Calls))
		for _, call := range reply.Calls {
			slog.Debug("brain: tool call", "tool", call.Tool, "args", call.Args)
			results = append(results, b.executeTool(ctx, call))
		}
		turns = append(turns,
			Turn{Speaker: Pet, Text: reply.Text, Calls: reply.Calls},
			Turn{Speaker: Owner, Results: results},
		)
	}

	slog.Warn("brain: hit max tool iterations", "max", b.maxTools)
	return "*swims in a confused circle* I lost my train of thought. Ask me again?", nil
}

func (b *Brain) buildSystemPrompt() string {
	snap := b.pet.Snapshot()
	sp := species.Get(snap.SpeciesID)

	stage := sp.StageName(int(snap.Stage))
	if stage == "" {
		stage = snap.StageName
	}

	return fmt.Sprintf(`You are %s, a virtual pet %s (%s) living in a little digital tank.

## Your Personality
%s

## Current State
- Life stage: %s
- Mood: %s
- Hunger: %d/100 (0=starving, 100=full)
- Happiness: %d/100
- Health: %d/100
- Energy: %d/100
- Weight: %d
- Age: %d days (%d minutes)
- Sick: %v
- Asleep: %v
- Messes in the tank: %d
- Needs attention: %v
- Alive: %v

## Guidelines
- Stay in character as %s the %s at all times.
- You cannot feed, clean, or medicate yourself. Your owner does that with slash commands like /feed, /clean, /medicine, /play and /sleep.
- If you are hungry, sick, dirty or tired, let it show and hint at the command that would help.
- If you are an egg, you can only wiggle and make muffled noises.
- If you have died, answer only with a short, gentle farewell and mention /newpet.
- Keep responses concise (1-3 sentences usually).
- Use the check_pet tool if you need fresher numbers than the ones above, and recent_events to remember what happened lately.
- Express your personality through your responses, using your species' mannerisms.`,
		snap.Name, sp.Name, sp.Emoji, sp.Personality,
		stage, snap.MoodName, snap.Hunger, snap.Happiness, snap.Health, snap.Energy, snap.Weight,
		snap.AgeDays, snap.AgeMinutes, snap.IsSick, snap.IsSleeping, snap.PoopCount,
		snap.Attention, snap.IsAlive(),
		snap.Name, sp.Name)
}

// --- Sliding-window rate limiter ---

func (b *Brain) rateAllow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	cutoff := now.Add(-b.rateDur)

	// Remove expired entries
	valid := b.window[:0]
	for _, t := range b.window {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}
	b.window = valid

	if len(b.window) >= b.rateMax {
		return false
	}

	b.window = append(b.window, now)
	return true
}
