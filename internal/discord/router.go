package discord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/moorebrett0/tidepet/internal/minigame"
	"github.com/moorebrett0/tidepet/internal/pet"
	"github.com/moorebrett0/tidepet/internal/species"
)

// PetLoop is the part of sim.Loop the router drives.
type PetLoop interface {
	Snapshot() pet.Snapshot
	Do(ctx context.Context, fn func(p *pet.Pet)) (pet.Snapshot, error)
	NewPet(ctx context.Context, name, speciesID string) (pet.Snapshot, error)
}

// Asker answers free-form chat (satisfied by *brain.Brain).
type Asker interface {
	Ask(ctx context.Context, userMessage string) (string, error)
}

// Reply is a transport-neutral interaction response.
type Reply struct {
	Content    string
	Embed      *discordgo.MessageEmbed
	Ephemeral  bool
	Components []discordgo.MessageComponent
	Update     bool // edit the message the component was attached to
}

const (
	buttonJump = "wave:jump"
	buttonDive = "wave:dive"

	actionTimeout = 5 * time.Second
	askTimeout    = 60 * time.Second
)

// Router dispatches Discord messages, slash commands and button presses.
type Router struct {
	bot     *Bot
	loop    PetLoop
	brain   Asker // nil if no AI provider is configured
	games   *minigame.Sessions
	isOwner func(userID string) bool

	petChatChance float64 // probability of responding to another pet (0-1)

	// Anti-loop: cooldown for bot-to-bot responses
	mu           sync.Mutex
	lastBotReply time.Time
	botCooldown  time.Duration
}

// NewRouter creates a router and wires it to the bot.
func NewRouter(bot *Bot, loop PetLoop, b Asker, games *minigame.Sessions) *Router {
	r := &Router{
		bot:           bot,
		loop:          loop,
		brain:         b,
		games:         games,
		isOwner:       bot.IsOwner,
		petChatChance: 0.25,            // 25% chance to respond to another pet
		botCooldown:   3 * time.Minute, // don't respond to bots more than once per 3min
	}
	bot.SetRouter(r)
	return r
}

func notOwner(sp *species.Species) Reply {
	return Reply{
		Content:   fmt.Sprintf("%s nice try. only my owner gets to look after me.", sp.Emoji),
		Ephemeral: true,
	}
}

func trouble(sp *species.Species) Reply {
	return Reply{
		Content:   fmt.Sprintf("%s *blub?* something went wrong, try again in a moment.", sp.Emoji),
		Ephemeral: true,
	}
}

func waveButtons() []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{Label: "⬆️ Jump", Style: discordgo.PrimaryButton, CustomID: buttonJump},
				discordgo.Button{Label: "⬇️ Dive", Style: discordgo.SecondaryButton, CustomID: buttonDive},
			},
		},
	}
}

// spectatorCommands may be used by anyone in the channel.
var spectatorCommands = map[string]bool{"status": true, "mood": true, "help": true}

// runCommand executes one slash command. opts holds option values by name.
func (r *Router) runCommand(ctx context.Context, name string, opts map[string]string, userID string) Reply {
	snap := r.loop.Snapshot()
	sp := species.Get(snap.SpeciesID)

	if !spectatorCommands[name] && !r.isOwner(userID) {
		return notOwner(sp)
	}

	switch name {
	case "status":
		return Reply{Embed: StatusEmbed(snap, sp)}

	case "mood":
		return Reply{Content: TemplateMood(snap, sp)}

	case "help":
		return Reply{Content: TemplateHelp(snap, sp)}

	case "feed":
		food, ok := pet.ParseFood(opts["food"])
		if !ok {
			return Reply{Content: fmt.Sprintf("%s I only eat fish or shrimp.", sp.Emoji), Ephemeral: true}
		}
		reply, _ := r.act(ctx, sp, "eat", func(p *pet.Pet) bool { return p.Feed(food) },
			func(s pet.Snapshot) string { return TemplateFed(s, sp, food) })
		return reply

	case "play":
		reply, ok := r.act(ctx, sp, "play", (*pet.Pet).PlayStart, func(s pet.Snapshot) string {
			return TemplateWave(s, sp, r.games.Start(userID))
		})
		if ok {
			reply.Components = waveButtons()
		}
		return reply

	case "sleep":
		reply, _ := r.act(ctx, sp, "sleep", (*pet.Pet).Sleep,
			func(s pet.Snapshot) string { return TemplateSleep(s, sp) })
		return reply

	case "wake":
		var grumpy bool
		reply, _ := r.act(ctx, sp, "wake", func(p *pet.Pet) bool {
			before := p.State().Happiness
			ok := p.Wake()
			grumpy = ok && p.State().Happiness < before
			return ok
		}, func(s pet.Snapshot) string { return TemplateWake(s, sp, grumpy) })
		return reply

	case "clean":
		reply, _ := r.act(ctx, sp, "clean", (*pet.Pet).Clean,
			func(s pet.Snapshot) string { return TemplateClean(s, sp) })
		return reply

	case "medicine":
		reply, _ := r.act(ctx, sp, "medicine", (*pet.Pet).GiveMedicine,
			func(s pet.Snapshot) string { return TemplateMedicine(s, sp) })
		return reply

	case "newpet":
		return r.newPet(ctx, snap, opts, userID)

	default:
		return Reply{Content: "Unknown command.", Ephemeral: true}
	}
}

// act runs an action on the loop goroutine and renders either the success
// template or the refusal for the state the action was refused in. done runs
// only when the action succeeded.
func (r *Router) act(ctx context.Context, sp *species.Species, verb string, action func(*pet.Pet) bool, done func(pet.Snapshot) string) (Reply, bool) {
	ctx, cancel := context.WithTimeout(ctx, actionTimeout)
	defer cancel()

	var ok bool
	snap, err := r.loop.Do(ctx, func(p *pet.Pet) { ok = action(p) })
	if err != nil {
		slog.Error("discord: action failed", "action", verb, "err", err)
		return trouble(sp), false
	}
	if !ok {
		return Reply{Content: TemplateRefused(snap, sp, verb)}, false
	}
	return Reply{Content: done(snap)}, true
}

func (r *Router) newPet(ctx context.Context, snap pet.Snapshot, opts map[string]string, userID string) Reply {
	sp := species.Get(snap.SpeciesID)
	if snap.IsAlive() && opts["confirm"] != "true" {
		return Reply{
			Content: fmt.Sprintf("%s %s is still alive! Run `/newpet confirm:true` if you really want to start over.",
				sp.Emoji, snap.Name),
			Ephemeral: true,
		}
	}

	speciesID := strings.ToLower(strings.TrimSpace(opts["species"]))
	if speciesID == "" {
		speciesID = snap.SpeciesID
	}
	if _, ok := species.Registry[speciesID]; !ok {
		return Reply{
			Content:   fmt.Sprintf("Unknown species %q. Pick one of: %s", speciesID, strings.Join(species.OrderedIDs, ", ")),
			Ephemeral: true,
		}
	}
	name := strings.TrimSpace(opts["name"])
	if name == "" {
		name = snap.Name
	}

	ctx, cancel := context.WithTimeout(ctx, actionTimeout)
	defer cancel()
	fresh, err := r.loop.NewPet(ctx, name, speciesID)
	if err != nil {
		slog.Error("discord: new pet failed", "err", err)
		return trouble(sp)
	}
	r.games.Abandon(userID)
	slog.Info("discord: new pet", "name", name, "species", speciesID, "by", userID)
	return Reply{Content: TemplateNewPet(fresh, species.Get(speciesID))}
}

// runComponent handles a Jump/Dive button press.
func (r *Router) runComponent(ctx context.Context, customID, userID string) Reply {
	snap := r.loop.Snapshot()
	sp := species.Get(snap.SpeciesID)
	if !r.isOwner(userID) {
		return notOwner(sp)
	}

	move, err := minigame.ParseMove(strings.TrimPrefix(customID, "wave:"))
	if err != nil {
		return Reply{Content: "Unknown button.", Ephemeral: true}
	}

	g, res, done, err := r.games.Play(userID, move)
	if errors.Is(err, minigame.ErrNoGame) {
		return Reply{Content: fmt.Sprintf("%s That wave already washed out. Start a new game with /play.", sp.Emoji), Ephemeral: true}
	}
	if err != nil {
		slog.Error("discord: minigame play failed", "err", err)
		return trouble(sp)
	}
	if !done {
		return Reply{Content: TemplateRound(snap, sp, res, g), Components: waveButtons(), Update: true}
	}

	ctx, cancel := context.WithTimeout(ctx, actionTimeout)
	defer cancel()
	var ok bool
	snap, err = r.loop.Do(ctx, func(p *pet.Pet) { ok = p.PlayComplete(g.Won()) })
	if err != nil {
		slog.Error("discord: play complete failed", "err", err)
		return trouble(sp)
	}
	if !ok {
		return Reply{Content: TemplateRefused(snap, sp, "play"), Update: true}
	}
	return Reply{Content: TemplateRoundResult(snap, res) + "\n" + TemplateGameOver(snap, sp, g), Update: true}
}

// HandleInteraction dispatches a slash command or button interaction.
func (r *Router) HandleInteraction(i *discordgo.InteractionCreate) {
	userID := interactionUserID(i)
	ctx := context.Background()

	var reply Reply
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		data := i.ApplicationCommandData()
		opts := make(map[string]string, len(data.Options))
		for _, o := range data.Options {
			switch o.Type {
			case discordgo.ApplicationCommandOptionBoolean:
				opts[o.Name] = fmt.Sprint(o.BoolValue())
			default:
				opts[o.Name] = o.StringValue()
			}
		}
		reply = r.runCommand(ctx, data.Name, opts, userID)
	case discordgo.InteractionMessageComponent:
		reply = r.runComponent(ctx, i.MessageComponentData().CustomID, userID)
	default:
		return
	}
	r.respond(i, reply)
}

// HandleMessage dispatches a free-form channel message.
func (r *Router) HandleMessage(m *discordgo.MessageCreate) {
	text := strings.TrimSpace(m.Content)
	if text == "" {
		return
	}

	// If from another bot (another pet), maybe respond
	if m.Author.Bot {
		r.handlePetMessage(m, text)
		return
	}

	mentioned := r.bot.IsMentioned(m)
	if mentioned {
		text = r.bot.StripMention(text)
	}
	if reply := r.handleText(context.Background(), m.Author.ID, m.Author.Username, text, mentioned); reply != "" {
		r.bot.SendMessage(m.ChannelID, reply)
	}
}

// handleText returns the pet's answer to a human message, or "" to stay quiet.
func (r *Router) handleText(ctx context.Context, userID, username, text string, mentioned bool) string {
	snap := r.loop.Snapshot()
	sp := species.Get(snap.SpeciesID)

	if mentioned {
		if text == "" {
			// Just a bare @mention with no text
			return TemplateGreeting(snap, sp)
		}
		return r.handleDirectMessage(ctx, snap, sp, userID, username, text)
	}

	// Not mentioned: only simple patterns get a reply, so several pets in
	// one channel don't all answer every message.
	lower := strings.ToLower(text)
	switch {
	case matchesFeeding(lower) && r.isOwner(userID):
		reply, _ := r.act(ctx, sp, "eat", func(p *pet.Pet) bool { return p.Feed(pet.FoodFish) },
			func(s pet.Snapshot) string { return TemplateFed(s, sp, pet.FoodFish) })
		return reply.Content
	case matchesGreeting(lower):
		return TemplateGreeting(snap, sp)
	}
	return ""
}

// handleDirectMessage answers a message where the bot was @mentioned.
func (r *Router) handleDirectMessage(ctx context.Context, snap pet.Snapshot, sp *species.Species, userID, username, text string) string {
	if r.brain == nil || !snap.IsAlive() {
		if behavior := TemplateIdleBehavior(snap, sp); behavior != "" && snap.IsAlive() {
			return behavior
		}
		return TemplateGreeting(snap, sp)
	}

	prompt := text
	if !r.isOwner(userID) {
		prompt = fmt.Sprintf("[Message from spectator %s, not your owner]: %s", username, text)
	}
	ctx, cancel := context.WithTimeout(ctx, askTimeout)
	defer cancel()
	resp, err := r.brain.Ask(ctx, prompt)
	if err != nil {
		slog.Error("router: brain error", "err", err)
		return "Something went wrong... I'll try again in a moment."
	}
	return resp
}

// handlePetMessage decides whether to respond to another pet's message.
func (r *Router) handlePetMessage(m *discordgo.MessageCreate, text string) {
	// Check cooldown
	r.mu.Lock()
	if time.Since(r.lastBotReply) < r.botCooldown {
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()

	// Roll the dice
	if rand.Float64() > r.petChatChance {
		return
	}

	// No brain means no pet-to-pet banter
	if r.brain == nil {
		return
	}

	snap := r.loop.Snapshot()
	if !snap.IsAlive() || snap.IsSleeping {
		return
	}

	prompt := fmt.Sprintf(
		"[Another pet in the channel (%s) just said: \"%s\"]\nRespond briefly in character. You're chatting with a fellow digital pet. Keep it to 1-2 sentences max. Be playful.",
		m.Author.Username, text,
	)

	ctx, cancel := context.WithTimeout(context.Background(), askTimeout)
	defer cancel()
	resp, err := r.brain.Ask(ctx, prompt)
	if err != nil {
		slog.Debug("router: pet-to-pet brain error", "err", err)
		return
	}

	// Record the reply time
	r.mu.Lock()
	r.lastBotReply = time.Now()
	r.mu.Unlock()

	r.bot.SendMessage(m.ChannelID, resp)
}

func (r *Router) respond(i *discordgo.InteractionCreate, reply Reply) {
	typ := discordgo.InteractionResponseChannelMessageWithSource
	if reply.Update {
		typ = discordgo.InteractionResponseUpdateMessage
	}
	data := &discordgo.InteractionResponseData{
		Content:    reply.Content,
		Components: reply.Components,
	}
	if reply.Update && data.Components == nil {
		// Clear the buttons of a finished game
		data.Components = []discordgo.MessageComponent{}
	}
	if reply.Embed != nil {
		data.Embeds = []*discordgo.MessageEmbed{reply.Embed}
	}
	if reply.Ephemeral {
		// Ephemeral replies go out as a new message, never an edit
		typ = discordgo.InteractionResponseChannelMessageWithSource
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	err := r.bot.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{Type: typ, Data: data})
	if err != nil {
		slog.Error("discord: interaction respond failed", "err", err)
	}
}

// --- Pattern matchers ---

func matchesGreeting(text string) bool {
	patterns := []string{
		"hello", "hey", "howdy", "hiya", "heya",
		"good morning", "good evening", "good night",
		"what's up", "whats up",
	}
	return containsAny(text, patterns)
}

func matchesFeeding(text string) bool {
	patterns := []string{
		"feed", "food", "treat",
		"snack", "dinner", "lunch", "breakfast",
		"hungry", "nom",
	}
	return containsAny(text, patterns)
}

func containsAny(text string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}

func interactionUserID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}
