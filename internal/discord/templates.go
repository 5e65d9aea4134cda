package discord

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/moorebrett0/tidepet/internal/minigame"
	"github.com/moorebrett0/tidepet/internal/pet"
	"github.com/moorebrett0/tidepet/internal/species"
)

// progressBar renders a visual bar like ████████░░ 78%
func progressBar(value, width int) string {
	filled := value * width / pet.StatMax
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	empty := width - filled
	return fmt.Sprintf("%s%s %3d%%", strings.Repeat("█", filled), strings.Repeat("░", empty), value)
}

// moodKey is the lowercase name used for presence, colors and emoji. A dead
// pet has its own key whatever its last mood was.
func moodKey(snap pet.Snapshot) string {
	if !snap.IsAlive() {
		return "dead"
	}
	if snap.Stage == pet.StageEgg {
		return "egg"
	}
	return strings.ToLower(snap.MoodName)
}

// moodColor returns a Discord embed color for the mood.
func moodColor(mood string) int {
	switch mood {
	case "happy":
		return 0x57F287 // green
	case "normal", "egg":
		return 0x5865F2 // blurple
	case "sad":
		return 0xFEE75C // yellow
	case "hungry":
		return 0xEB459E // fuchsia
	case "sleepy", "sleeping":
		return 0x99AAB5 // grey
	case "sick":
		return 0xED4245 // red
	case "dead":
		return 0x23272A // dark
	default:
		return 0x5865F2
	}
}

func moodEmoji(mood string) string {
	switch mood {
	case "happy":
		return "\U0001F60A"
	case "normal":
		return "\U0001F60C"
	case "sad":
		return "\U0001F622"
	case "hungry":
		return "\U0001F60B"
	case "sleepy":
		return "\U0001F971"
	case "sleeping":
		return "\U0001F634"
	case "sick":
		return "\U0001F912"
	case "dead":
		return "\U0001F480"
	case "egg":
		return "\U0001F95A"
	default:
		return "\U0001F610"
	}
}

func stageLabel(snap pet.Snapshot, sp *species.Species) string {
	if name := sp.StageName(int(snap.Stage)); name != "" {
		return name
	}
	return snap.StageName
}

// StatusEmbed builds a rich embed for /status.
func StatusEmbed(snap pet.Snapshot, sp *species.Species) *discordgo.MessageEmbed {
	mood := moodKey(snap)

	stats := fmt.Sprintf(
		"hunger    %s\nhappiness %s\nhealth    %s\nenergy    %s",
		progressBar(snap.Hunger, 10),
		progressBar(snap.Happiness, 10),
		progressBar(snap.Health, 10),
		progressBar(snap.Energy, 10),
	)

	var flags []string
	if snap.IsSleeping {
		flags = append(flags, "\U0001F4A4 asleep")
	}
	if snap.IsSick {
		flags = append(flags, "\U0001F912 sick")
	}
	if snap.PoopCount > 0 {
		flags = append(flags, fmt.Sprintf("\U0001F4A9 x%d", snap.PoopCount))
	}
	if snap.Attention && snap.IsAlive() {
		flags = append(flags, "❗ needs attention")
	}
	if len(flags) == 0 {
		flags = append(flags, "all good")
	}

	record := fmt.Sprintf("weight %d | fed %d | played %d (won %d/%d) | cleaned %d | medicine %d",
		snap.Weight, snap.TimesFed, snap.TimesPlayed, snap.GamesWon, snap.GamesPlayed,
		snap.TimesCleaned, snap.TimesMedicated)

	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("%s %s the %s", sp.Emoji, snap.Name, stageLabel(snap, sp)),
		Description: fmt.Sprintf("mood: %s %s | %s", moodEmoji(mood), mood, strings.Join(flags, " | ")),
		Color:       moodColor(mood),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Stats", Value: "```\n" + stats + "\n```", Inline: false},
			{Name: "Record", Value: record, Inline: false},
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("age: %d days (%d min) | overall %d%%", snap.AgeDays, snap.AgeMinutes, snap.Overall),
		},
		Timestamp: time.Now().Format(time.RFC3339),
	}
}

func TemplateMood(snap pet.Snapshot, sp *species.Species) string {
	mood := moodKey(snap)
	switch mood {
	case "dead":
		return fmt.Sprintf("%s %s is no longer with us.", moodEmoji(mood), snap.Name)
	case "egg":
		return fmt.Sprintf("%s %s is still an egg. It wobbles a little.", moodEmoji(mood), snap.Name)
	}
	return fmt.Sprintf("%s %s is feeling %s", moodEmoji(mood), snap.Name, mood)
}

// TemplateRefused explains why an action could not happen, based on the state
// the action was refused in.
func TemplateRefused(snap pet.Snapshot, sp *species.Species, action string) string {
	switch {
	case !snap.IsAlive():
		return fmt.Sprintf("\U0001F480 %s can't %s anymore. Use /newpet to start over.", snap.Name, action)
	case snap.Stage == pet.StageEgg:
		return fmt.Sprintf("\U0001F95A %s hasn't hatched yet. Give it a couple of minutes.", snap.Name)
	}

	switch action {
	case "eat", "play":
		if snap.IsSleeping {
			return fmt.Sprintf("%s %s is fast asleep. Try /wake first.", sp.Emoji, snap.Name)
		}
		if action == "play" {
			return fmt.Sprintf("%s %s is too tired to play (energy %d). Maybe a nap?", sp.Emoji, snap.Name, snap.Energy)
		}
	case "sleep":
		return fmt.Sprintf("%s %s is already asleep.", sp.Emoji, snap.Name)
	case "wake":
		return fmt.Sprintf("%s %s is already awake.", sp.Emoji, snap.Name)
	case "clean":
		return fmt.Sprintf("%s The tank is already spotless.", sp.Emoji)
	case "medicine":
		return fmt.Sprintf("%s %s isn't sick. No medicine needed.", sp.Emoji, snap.Name)
	}
	return fmt.Sprintf("%s %s can't %s right now.", sp.Emoji, snap.Name, action)
}

func TemplateFed(snap pet.Snapshot, sp *species.Species, food pet.Food) string {
	msg := fmt.Sprintf("%s You offer %s %s. %s %s! Hunger is now %d%%.",
		sp.Emoji, snap.Name, sp.FoodName(food), snap.Name, sp.Verbs.Eat, snap.Hunger)
	if snap.Hunger >= pet.StatMax {
		msg += " That was a bit much..."
	}
	return msg
}

func TemplateSleep(snap pet.Snapshot, sp *species.Species) string {
	return fmt.Sprintf("\U0001F4A4 %s %s. Sweet dreams.", snap.Name, sp.Verbs.Sleep)
}

func TemplateWake(snap pet.Snapshot, sp *species.Species, grumpy bool) string {
	msg := fmt.Sprintf("%s %s %s.", sp.Emoji, snap.Name, sp.Verbs.Wake)
	if grumpy {
		msg += " It looks a little grumpy about being woken early."
	}
	return msg
}

func TemplateClean(snap pet.Snapshot, sp *species.Species) string {
	return fmt.Sprintf("\U0001FAE7 You scrub the tank clean. %s %s!", snap.Name, sp.Verbs.Happy)
}

func TemplateMedicine(snap pet.Snapshot, sp *species.Species) string {
	return fmt.Sprintf("\U0001F48A %s takes the medicine and perks up. Health is back to %d%%.", snap.Name, snap.Health)
}

// TemplateWave announces the wave of the current round.
func TemplateWave(snap pet.Snapshot, sp *species.Species, g *minigame.Game) string {
	crest := "a low rolling wave"
	if g.Wave() == minigame.WaveHigh {
		crest = "a huge curling wave"
	}
	return fmt.Sprintf("\U0001F30A **Jump the Wave** round %d/%d | score %d\nHere comes %s! Should %s jump or dive?",
		g.Round(), minigame.Rounds, g.Successes(), crest, snap.Name)
}

func TemplateRoundResult(snap pet.Snapshot, r minigame.RoundResult) string {
	if r.Success {
		return fmt.Sprintf("✅ %s %ss and clears the %s wave!", snap.Name, r.Move, r.Wave)
	}
	return fmt.Sprintf("\U0001F4A6 Splash! %s tried to %s and the %s wave caught them.", snap.Name, r.Move, r.Wave)
}

// TemplateRound reports one round's result followed by the next wave.
func TemplateRound(snap pet.Snapshot, sp *species.Species, r minigame.RoundResult, g *minigame.Game) string {
	return TemplateRoundResult(snap, r) + "\n" + TemplateWave(snap, sp, g)
}

func TemplateGameOver(snap pet.Snapshot, sp *species.Species, g *minigame.Game) string {
	if g.Won() {
		return fmt.Sprintf("\U0001F3C6 %d/%d! %s %s! Happiness %d%%, energy %d%%.",
			g.Successes(), minigame.Rounds, snap.Name, sp.Verbs.Happy, snap.Happiness, snap.Energy)
	}
	return fmt.Sprintf("\U0001F30A %d/%d. %s didn't win this time, but had fun anyway. Happiness %d%%, energy %d%%.",
		g.Successes(), minigame.Rounds, snap.Name, snap.Happiness, snap.Energy)
}

func TemplateGreeting(snap pet.Snapshot, sp *species.Species) string {
	switch {
	case !snap.IsAlive():
		return "\U0001F480 ..."
	case snap.Stage == pet.StageEgg:
		return "\U0001F95A *the egg wobbles*"
	case snap.IsSleeping:
		return fmt.Sprintf("\U0001F4A4 %s is snoozing.", snap.Name)
	}
	return fmt.Sprintf("%s %s %s!", sp.Emoji, snap.Name, sp.Verbs.Greet)
}

func TemplateIdleBehavior(snap pet.Snapshot, sp *species.Species) string {
	if len(sp.IdleBehaviors) == 0 {
		return ""
	}
	behavior := sp.IdleBehaviors[rand.Intn(len(sp.IdleBehaviors))]
	return fmt.Sprintf("%s %s %s.", sp.Emoji, snap.Name, behavior)
}

func TemplateMorningCheckIn(snap pet.Snapshot, sp *species.Species) string {
	mood := moodKey(snap)
	return fmt.Sprintf("%s Good morning! %s %s\nMood: %s %s | Hunger: %d%% | Energy: %d%%",
		sp.Emoji, snap.Name, sp.Verbs.Greet,
		moodEmoji(mood), mood, snap.Hunger, snap.Energy)
}

// AttentionReason names the most urgent need, or "" if nothing is wrong.
func AttentionReason(snap pet.Snapshot) string {
	switch {
	case snap.IsSick:
		return "I'm sick... could I have some /medicine?"
	case snap.Health < pet.Critical:
		return fmt.Sprintf("My health is down to %d%%.", snap.Health)
	case snap.Hunger < pet.Critical:
		return "I'm starving! Please /feed me."
	case snap.PoopCount > 0:
		return fmt.Sprintf("The tank is dirty (%d mess). Please /clean it.", snap.PoopCount)
	case snap.Energy < pet.Critical && !snap.IsSleeping:
		return "I can barely keep my eyes open. Time to /sleep?"
	case snap.Happiness < pet.Critical:
		return "I'm so lonely... will you /play with me?"
	}
	return ""
}

func TemplateAttentionAlert(snap pet.Snapshot, sp *species.Species, reason string) string {
	return fmt.Sprintf("⚠️ %s %s %s!\n%s",
		sp.Emoji, snap.Name, sp.Verbs.Distress, reason)
}

func TemplateDeathMessage(snap pet.Snapshot, sp *species.Species) string {
	return fmt.Sprintf("\U0001F480 %s has passed away at %d days old...\nUse /newpet to hatch a new egg.",
		snap.Name, snap.AgeDays)
}

func TemplateHatched(snap pet.Snapshot, sp *species.Species) string {
	return fmt.Sprintf("\U0001F95A✨ The egg is cracking... %s %s! Say hello to %s the %s.",
		snap.Name, sp.Verbs.Hatch, snap.Name, stageLabel(snap, sp))
}

func TemplateGrew(snap pet.Snapshot, sp *species.Species) string {
	return fmt.Sprintf("\U0001F331 %s %s has grown into a %s!", sp.Emoji, snap.Name, stageLabel(snap, sp))
}

func TemplateMilestone(snap pet.Snapshot, sp *species.Species, days int) string {
	return fmt.Sprintf("\U0001F389 %s %s is %d days old today! %s",
		sp.Emoji, snap.Name, days, sp.Verbs.Happy)
}

func TemplateNewPet(snap pet.Snapshot, sp *species.Species) string {
	return fmt.Sprintf("\U0001F95A A new %s egg appears in the tank. Its name will be %s. It should hatch in a couple of minutes.",
		strings.ToLower(sp.Name), snap.Name)
}

func TemplateHelp(snap pet.Snapshot, sp *species.Species) string {
	name := snap.Name
	if name == "" {
		name = "your pet"
	}
	return fmt.Sprintf("**TidePet Commands**\n\n"+
		"`/status`: see %s's stats and mood\n"+
		"`/mood`: current mood\n"+
		"`/feed food`: fish fills the belly, shrimp is a happy treat\n"+
		"`/play`: a round of Jump the Wave\n"+
		"`/sleep`, `/wake`: nap time\n"+
		"`/clean`: clean the tank\n"+
		"`/medicine`: cure sickness\n"+
		"`/newpet`: hatch a new egg\n"+
		"`/help`: this message\n\n"+
		"Only owners can care for %s, but anyone can @mention them for a chat!", name, name)
}
