package discord

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/moorebrett0/tidepet/internal/pet"
	"github.com/moorebrett0/tidepet/internal/species"
)

// Bot wraps the Discord session and manages slash commands, messages, and presence.
type Bot struct {
	session   *discordgo.Session
	channelID string
	ownerIDs  map[string]bool

	router *Router
}

// NewBot creates and configures a Discord bot (does not connect yet).
func NewBot(token, channelID string, ownerIDs []string) (*Bot, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("invalid bot token: %w", err)
	}

	session.Identify.Intents = discordgo.IntentsGuildMessages |
		discordgo.IntentMessageContent |
		discordgo.IntentsGuilds

	owners := make(map[string]bool, len(ownerIDs))
	for _, id := range ownerIDs {
		owners[id] = true
	}

	return &Bot{
		session:   session,
		channelID: channelID,
		ownerIDs:  owners,
	}, nil
}

// SetRouter wires the router to handle messages and interactions.
func (b *Bot) SetRouter(r *Router) {
	b.router = r
	b.session.AddHandler(b.onMessageCreate)
	b.session.AddHandler(b.onInteractionCreate)
	b.session.AddHandler(b.onReady)
}

// Start opens the Discord connection and registers slash commands.
// Blocks until context is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("open discord session: %w", err)
	}

	slog.Info("discord: connected", "user", b.session.State.User.Username)

	b.registerCommands()

	<-ctx.Done()
	slog.Info("discord: shutting down")
	return b.session.Close()
}

// ChannelID returns the configured channel ID.
func (b *Bot) ChannelID() string {
	return b.channelID
}

// SendMessage sends a text message to a channel.
func (b *Bot) SendMessage(channelID, text string) {
	if text == "" {
		return
	}
	if _, err := b.session.ChannelMessageSend(channelID, text); err != nil {
		slog.Error("discord: send message failed", "err", err)
	}
}

// SendEmbed sends an embed to a channel.
func (b *Bot) SendEmbed(channelID string, embed *discordgo.MessageEmbed) {
	if _, err := b.session.ChannelMessageSendEmbed(channelID, embed); err != nil {
		slog.Error("discord: send embed failed", "err", err)
	}
}

// UpdatePresence sets the bot's Discord status from a lowercase mood key
// (see PresenceKey).
func (b *Bot) UpdatePresence(mood string) {
	status, activity := moodToPresence(mood)
	err := b.session.UpdateStatusComplex(discordgo.UpdateStatusData{
		Status: status,
		Activities: []*discordgo.Activity{
			{
				Name: activity,
				Type: discordgo.ActivityTypeCustom,
			},
		},
	})
	if err != nil {
		slog.Debug("discord: update presence failed", "err", err)
	}
}

// IsOwner checks if a user ID is in the owner list.
func (b *Bot) IsOwner(userID string) bool {
	return b.ownerIDs[userID]
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	slog.Info("discord: ready", "user", r.User.Username, "guilds", len(r.Guilds))
}

// BotUserID returns the bot's own user ID.
func (b *Bot) BotUserID() string {
	if b.session.State != nil && b.session.State.User != nil {
		return b.session.State.User.ID
	}
	return ""
}

// IsMentioned checks if the bot was @mentioned in the message.
func (b *Bot) IsMentioned(m *discordgo.MessageCreate) bool {
	for _, u := range m.Mentions {
		if u.ID == b.BotUserID() {
			return true
		}
	}
	return false
}

// StripMention removes the bot's @mention from message text.
func (b *Bot) StripMention(text string) string {
	return stripMention(text, b.BotUserID())
}

func stripMention(text, botID string) string {
	// Discord mentions look like <@123456> or <@!123456>
	text = strings.ReplaceAll(text, "<@"+botID+">", "")
	text = strings.ReplaceAll(text, "<@!"+botID+">", "")
	return strings.TrimSpace(text)
}

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	// Ignore own messages only (not other bots)
	if m.Author.ID == s.State.User.ID {
		return
	}

	// Only respond in the configured channel
	if m.ChannelID != b.channelID {
		return
	}

	if b.router != nil {
		b.router.HandleMessage(m)
	}
}

func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand, discordgo.InteractionMessageComponent:
	default:
		return
	}

	if b.router != nil {
		b.router.HandleInteraction(i)
	}
}

// commands is the slash command set registered on connect.
func commands() []*discordgo.ApplicationCommand {
	speciesChoices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(species.OrderedIDs))
	for _, id := range species.OrderedIDs {
		sp := species.Registry[id]
		speciesChoices = append(speciesChoices, &discordgo.ApplicationCommandOptionChoice{
			Name:  sp.Emoji + " " + sp.Name,
			Value: id,
		})
	}

	return []*discordgo.ApplicationCommand{
		{
			Name:        "status",
			Description: "Check your pet's stats and mood",
		},
		{
			Name:        "mood",
			Description: "Check your pet's current mood",
		},
		{
			Name:        "feed",
			Description: "Give your pet something to eat",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "food",
					Description: "Fish fills the belly, shrimp is a happy treat",
					Required:    false,
					Choices: []*discordgo.ApplicationCommandOptionChoice{
						{Name: "fish", Value: "fish"},
						{Name: "shrimp", Value: "shrimp"},
					},
				},
			},
		},
		{
			Name:        "play",
			Description: "Play a round of Jump the Wave",
		},
		{
			Name:        "sleep",
			Description: "Put your pet to bed",
		},
		{
			Name:        "wake",
			Description: "Wake your pet up",
		},
		{
			Name:        "clean",
			Description: "Clean up the tank",
		},
		{
			Name:        "medicine",
			Description: "Give your sick pet medicine",
		},
		{
			Name:        "newpet",
			Description: "Hatch a new egg",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "name",
					Description: "Name for the new pet",
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "species",
					Description: "Which sea creature",
					Choices:     speciesChoices,
				},
				{
					Type:        discordgo.ApplicationCommandOptionBoolean,
					Name:        "confirm",
					Description: "Replace a pet that is still alive",
				},
			},
		},
		{
			Name:        "help",
			Description: "Show available commands",
		},
	}
}

func (b *Bot) registerCommands() {
	appID := b.session.State.User.ID
	for _, cmd := range commands() {
		if _, err := b.session.ApplicationCommandCreate(appID, "", cmd); err != nil {
			slog.Error("discord: failed to register command", "cmd", cmd.Name, "err", err)
		} else {
			slog.Info("discord: registered command", "cmd", cmd.Name)
		}
	}
}

func moodToPresence(mood string) (status, activity string) {
	switch mood {
	case "happy":
		return "online", "making waves!"
	case "normal":
		return "online", "just drifting"
	case "egg":
		return "idle", "*wobble*"
	case "sad":
		return "idle", "anyone there?"
	case "hungry":
		return "idle", "getting hungry..."
	case "sleepy":
		return "idle", "so sleepy..."
	case "sleeping":
		return "idle", "zzz"
	case "sick":
		return "dnd", "need medicine..."
	case "dead":
		return "invisible", ""
	default:
		return "online", "just drifting"
	}
}

// PresenceKey is the mood key UpdatePresence expects for a snapshot.
func PresenceKey(snap pet.Snapshot) string { return moodKey(snap) }
