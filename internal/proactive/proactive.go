// Package proactive posts unprompted messages about the pet: stage changes,
// alerts when a need turns critical, the death notice, age milestones and a
// morning check-in. It also keeps the bot presence in step with the mood.
package proactive

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/moorebrett0/tidepet/internal/discord"
	"github.com/moorebrett0/tidepet/internal/pet"
	"github.com/moorebrett0/tidepet/internal/species"
)

// MessageSender can send messages and update presence.
type MessageSender interface {
	SendMessage(channelID, text string)
	UpdatePresence(mood string)
	ChannelID() string
}

// PetView is the read side of the pet (satisfied by *sim.Loop).
type PetView interface {
	Snapshot() pet.Snapshot
}

// Milestones are the ages, in days, that get a celebration.
var Milestones = []uint64{1, 3, 7, 14, 30}

// Scheduler sends proactive messages based on pet state and time.
type Scheduler struct {
	sender MessageSender
	pet    PetView
	now    func() time.Time

	checkInterval    time.Duration
	morningHour      int
	distressCooldown time.Duration
	startedAt        time.Time

	mu             sync.Mutex
	primed         bool
	announcedDeath bool
	lastStage      pet.Stage
	lastAge        uint64
	lastMilestone  uint64
	lastMorning    time.Time
	lastDistress   time.Time
	lastMood       string
}

// Config for the proactive scheduler.
type Config struct {
	CheckInterval    time.Duration
	MorningHour      int
	DistressCooldown time.Duration

	// StartedAt is taken before the offline catch-up runs. A pet already
	// dead with an older LastUpdate died in an earlier run and was announced
	// then. Zero announces every death seen at startup.
	StartedAt time.Time
}

// New creates a proactive scheduler.
func New(sender MessageSender, view PetView, cfg Config) *Scheduler {
	return &Scheduler{
		sender:           sender,
		pet:              view,
		now:              time.Now,
		checkInterval:    cfg.CheckInterval,
		morningHour:      cfg.MorningHour,
		distressCooldown: cfg.DistressCooldown,
		startedAt:        cfg.StartedAt,
	}
}

// Run starts the tick loop. Blocks until context is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.checkInterval)
	defer ticker.Stop()

	s.check()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.check()
		}
	}
}

// prime records the state seen at startup so nothing that already happened
// is announced again.
func (s *Scheduler) prime(snap pet.Snapshot) {
	s.primed = true
	s.announcedDeath = !snap.IsAlive() && snap.LastUpdate < s.startedAt.UnixMilli()
	s.lastStage = snap.Stage
	s.lastAge = snap.AgeMinutes
	s.lastMilestone = 0
	for _, m := range Milestones {
		if snap.AgeDays >= m {
			s.lastMilestone = m
		}
	}
}

func (s *Scheduler) check() {
	snap := s.pet.Snapshot()
	sp := species.Get(snap.SpeciesID)

	s.mu.Lock()
	defer s.mu.Unlock()

	// Always update presence when mood changes
	if mood := discord.PresenceKey(snap); mood != s.lastMood {
		s.lastMood = mood
		s.sender.UpdatePresence(mood)
	}

	channelID := s.sender.ChannelID()
	if channelID == "" {
		return
	}

	// A younger pet than last time means /newpet replaced it.
	if !s.primed || snap.AgeMinutes < s.lastAge {
		s.prime(snap)
	}
	s.lastAge = snap.AgeMinutes

	// Death notice, once per pet, even if it died while we were offline
	if !snap.IsAlive() {
		s.lastStage = snap.Stage
		if !s.announcedDeath {
			s.announcedDeath = true
			slog.Info("proactive: death notice", "name", snap.Name, "age_days", snap.AgeDays)
			s.sender.SendMessage(channelID, discord.TemplateDeathMessage(snap, sp))
		}
		return
	}

	now := s.now()

	if msg := s.stageChange(snap, sp); msg != "" {
		s.sender.SendMessage(channelID, msg)
		return
	}

	// Morning check-in
	if snap.Stage != pet.StageEgg && now.Hour() == s.morningHour && now.Sub(s.lastMorning) > 20*time.Hour {
		s.lastMorning = now
		s.sender.SendMessage(channelID, discord.TemplateMorningCheckIn(snap, sp))
		return
	}

	// Attention alerts
	if snap.Attention && now.Sub(s.lastDistress) > s.distressCooldown {
		if reason := discord.AttentionReason(snap); reason != "" {
			s.lastDistress = now
			slog.Info("proactive: attention alert", "reason", reason)
			s.sender.SendMessage(channelID, discord.TemplateAttentionAlert(snap, sp, reason))
			return
		}
	}

	// Age milestones
	for _, m := range Milestones {
		if snap.AgeDays >= m && s.lastMilestone < m {
			s.lastMilestone = m
			s.sender.SendMessage(channelID, discord.TemplateMilestone(snap, sp, int(m)))
			return
		}
	}
}

// stageChange returns the announcement for a stage transition since the last
// check, or "".
func (s *Scheduler) stageChange(snap pet.Snapshot, sp *species.Species) string {
	if snap.Stage == s.lastStage {
		return ""
	}
	from := s.lastStage
	s.lastStage = snap.Stage
	slog.Info("proactive: stage change", "from", from, "to", snap.Stage)

	if from == pet.StageEgg {
		return discord.TemplateHatched(snap, sp)
	}
	return discord.TemplateGrew(snap, sp)
}

// LogSender stands in for Discord when the pet runs headless: announcements
// go to the log instead of a channel.
type LogSender struct {
	Logger *slog.Logger
}

func (l LogSender) logger() *slog.Logger {
	if l.Logger != nil {
		return l.Logger
	}
	return slog.Default()
}

func (l LogSender) SendMessage(_, text string) {
	l.logger().Info("proactive: announce", "text", text)
}

func (l LogSender) UpdatePresence(mood string) {
	l.logger().Debug("proactive: presence", "mood", mood)
}

func (LogSender) ChannelID() string { return "log" }
