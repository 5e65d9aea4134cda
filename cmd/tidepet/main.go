// Command tidepet runs a virtual sea-creature pet: the simulation loop, its
// save store, the read-only API and, when configured, the Discord bot.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/moorebrett0/tidepet/internal/api"
	"github.com/moorebrett0/tidepet/internal/brain"
	"github.com/moorebrett0/tidepet/internal/config"
	"github.com/moorebrett0/tidepet/internal/discord"
	"github.com/moorebrett0/tidepet/internal/minigame"
	"github.com/moorebrett0/tidepet/internal/onboarding"
	"github.com/moorebrett0/tidepet/internal/pet"
	"github.com/moorebrett0/tidepet/internal/proactive"
	"github.com/moorebrett0/tidepet/internal/sim"
	"github.com/moorebrett0/tidepet/internal/store"
	"github.com/moorebrett0/tidepet/internal/telemetry"
)

// gameTTL is how long an untouched Jump the Wave game stays playable.
const gameTTL = 10 * time.Minute

func main() {
	var (
		configPath = flag.String("config", "tidepet.yaml", "path to the YAML config file")
		onboard    = flag.Bool("onboard", false, "pick species and name in the terminal when there is no save")
	)
	flag.Parse()

	if err := run(*configPath, *onboard); err != nil {
		slog.Error("tidepet: fatal", "err", err)
		os.Exit(1)
	}
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func run(configPath string, onboard bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(cfg.Store)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()
	slog.Info("tidepet: store opened", "driver", cfg.Store.Driver, "path", cfg.Store.Path)

	prompter := onboarding.NewPrompter(os.Stdin, os.Stdout, 40*time.Millisecond)
	if onboard {
		if _, _, err := st.Load(ctx); errors.Is(err, store.ErrNotFound) {
			choice, err := prompter.Run()
			if err != nil {
				return fmt.Errorf("onboarding: %w", err)
			}
			cfg.Pet.Name = choice.Name
			cfg.Pet.Species = choice.SpeciesID
		} else {
			slog.Info("tidepet: save found, skipping onboarding")
		}
	}

	started := time.Now()
	loop, err := sim.Open(ctx, st, sim.Config{
		TickInterval: cfg.Pet.TickInterval,
		SaveInterval: cfg.Pet.SaveInterval,
		Name:         cfg.Pet.Name,
		Species:      cfg.Pet.Species,
		Clock:        pet.SystemClock{},
		Rand:         pet.NewRand(time.Now().UnixNano()),
		Logger:       logger,
	})
	if err != nil {
		return err
	}

	rec, err := telemetry.NewRecorder(cfg.Telemetry.Dir)
	if err != nil {
		return fmt.Errorf("open telemetry: %w", err)
	}
	defer rec.Close()
	loop.OnTick(func(snap pet.Snapshot) {
		if err := rec.WriteTick(snap); err != nil {
			slog.Warn("telemetry: write tick failed", "err", err)
		}
	})
	loop.OnEvent(func(e pet.Event, snap pet.Snapshot) {
		if err := rec.WriteEvent(e, snap.AgeMinutes); err != nil {
			slog.Warn("telemetry: write event failed", "err", err)
		}
	})

	// Only the SQLite store keeps an event history.
	events, _ := st.(store.EventLog)

	var wg sync.WaitGroup
	goRun := func(name string, fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(); err != nil {
				slog.Error("tidepet: component failed", "component", name, "err", err)
			}
		}()
	}

	if cfg.Server.Enabled {
		srv := api.NewServer(loop, events, cfg.Server.PushInterval, logger)
		loop.OnEvent(srv.PublishEvent)
		goRun("api", func() error { return srv.Serve(ctx, cfg.Server.Addr) })
	}

	var asker discord.Asker
	if b := brain.New(ctx, brain.Config{
		ClaudeAPIKey: cfg.Claude.APIKey,
		ClaudeModel:  cfg.Claude.Model,
		GeminiAPIKey: cfg.Gemini.APIKey,
		GeminiModel:  cfg.Gemini.Model,
		Provider:     cfg.AI.Provider,
		MaxTokens:    cfg.Claude.MaxTokens,
		MaxTools:     cfg.Claude.MaxTools,
		RateLimit:    cfg.Claude.RateLimit,
		RateWindow:   cfg.Claude.RateWindow,
	}, loop, events); b != nil {
		asker = b
	}

	var sender proactive.MessageSender = proactive.LogSender{Logger: logger}
	if cfg.DiscordEnabled() {
		bot, err := discord.NewBot(cfg.Discord.BotToken, cfg.Discord.ChannelID, cfg.Discord.OwnerIDs)
		if err != nil {
			return fmt.Errorf("create discord bot: %w", err)
		}
		games := minigame.NewSessions(pet.NewRand(time.Now().UnixNano()+1), gameTTL)
		discord.NewRouter(bot, loop, asker, games)
		sender = bot
		goRun("discord", func() error { return bot.Start(ctx) })
	} else {
		slog.Info("tidepet: no discord token, running headless")
	}

	if cfg.Proactive.Enabled {
		sched := proactive.New(sender, loop, proactive.Config{
			CheckInterval:    cfg.Proactive.CheckInterval,
			MorningHour:      cfg.Proactive.MorningHour,
			DistressCooldown: cfg.Proactive.DistressCooldown,
			StartedAt:        started,
		})
		goRun("proactive", func() error { sched.Run(ctx); return nil })
	}

	if onboard {
		snap := loop.Snapshot()
		prompter.PrintStartup(snap.Name, []onboarding.Check{
			{Label: "pet loaded", OK: true},
			{Label: "api listening", OK: cfg.Server.Enabled},
			{Label: "ai connected", OK: asker != nil},
			{Label: "discord connected", OK: cfg.DiscordEnabled()},
		})
	}

	// The loop saves one last time when ctx is cancelled.
	loop.Run(ctx)
	slog.Info("tidepet: shutting down")
	wg.Wait()
	return nil
}
