// Package sim hosts the pet engine: it owns the single Pet, advances it on a
// ticker, runs actions on the same goroutine, and publishes snapshots.
package sim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/moorebrett0/tidepet/internal/pet"
	"github.com/moorebrett0/tidepet/internal/store"
)

const msPerMinute = int64(time.Minute / time.Millisecond)

// ErrStopped is returned by Do once Run has returned.
var ErrStopped = errors.New("sim: loop stopped")

// Config for the loop. Clock, Rand and Logger are optional.
type Config struct {
	TickInterval time.Duration
	SaveInterval time.Duration
	Name         string // used when no save exists
	Species      string

	Clock  pet.Clock
	Rand   pet.Rand
	Logger *slog.Logger
}

// EventHandler is called on the loop goroutine for every engine event.
// It must not block; hand slow work to another goroutine.
type EventHandler func(e pet.Event, snap pet.Snapshot)

// TickHandler is called after each tick that applied at least one minute.
type TickHandler func(snap pet.Snapshot)

type command struct {
	fn   func(*pet.Pet)
	done chan pet.Snapshot
}

// Loop owns the pet. All engine calls happen on the Run goroutine.
type Loop struct {
	pet   *pet.Pet
	clock pet.Clock
	store store.Store
	cfg   Config
	log   *slog.Logger

	snap atomic.Pointer[pet.Snapshot]

	// lastApplied is the engine time up to which whole minutes have been
	// fed to Update. The sub-minute remainder stays pending.
	lastApplied int64

	cmds    chan command
	stopped chan struct{}

	onEvent []EventHandler
	onTick  []TickHandler

	// pending holds events from the offline catch-up until Run starts, so
	// handlers registered after Open still see them.
	pending []pet.Event
}

// Open loads the saved pet, replays the time it spent offline, and returns a
// loop ready to Run. With no save (or a save from another version) a new egg
// is laid.
func Open(ctx context.Context, st store.Store, cfg Config) (*Loop, error) {
	l := &Loop{
		store:   st,
		cfg:     cfg,
		clock:   cfg.Clock,
		log:     cfg.Logger,
		cmds:    make(chan command),
		stopped: make(chan struct{}),
	}
	if l.clock == nil {
		l.clock = pet.SystemClock{}
	}
	if l.log == nil {
		l.log = slog.Default()
	}

	opts := []pet.Option{pet.WithClock(l.clock), pet.WithLogger(l.log)}
	if cfg.Rand != nil {
		opts = append(opts, pet.WithRand(cfg.Rand))
	}

	now := l.clock.NowMillis()
	state, savedAt, err := st.Load(ctx)
	switch {
	case err == nil:
		l.pet = pet.Restore(state, opts...)
		away := store.OfflineMinutes(savedAt, time.UnixMilli(now))
		l.log.Info("sim: restored pet", "name", state.Name, "stage", state.Stage, "away_min", away)
		l.lastApplied = now
		l.pending = l.pet.ApplyTimeAway(away)
	case errors.Is(err, store.ErrNotFound):
		l.log.Info("sim: no save found, laying a new egg", "name", cfg.Name, "species", cfg.Species)
		l.pet = pet.New(cfg.Name, cfg.Species, opts...)
		l.lastApplied = now
	case errors.Is(err, store.ErrVersionMismatch):
		l.log.Warn("sim: save is from another version, laying a new egg", "err", err)
		l.pet = pet.New(cfg.Name, cfg.Species, opts...)
		l.lastApplied = now
	default:
		return nil, fmt.Errorf("load pet: %w", err)
	}

	l.publish()
	return l, nil
}

// OnEvent registers a handler. Call before Run.
func (l *Loop) OnEvent(h EventHandler) { l.onEvent = append(l.onEvent, h) }

// OnTick registers a handler. Call before Run.
func (l *Loop) OnTick(h TickHandler) { l.onTick = append(l.onTick, h) }

// Snapshot returns the latest published state without blocking.
func (l *Loop) Snapshot() pet.Snapshot {
	return *l.snap.Load()
}

// Do runs fn against the pet on the loop goroutine, after bringing the pet
// up to date, and returns the snapshot taken right after fn.
func (l *Loop) Do(ctx context.Context, fn func(p *pet.Pet)) (pet.Snapshot, error) {
	c := command{fn: fn, done: make(chan pet.Snapshot, 1)}
	select {
	case l.cmds <- c:
	case <-l.stopped:
		return pet.Snapshot{}, ErrStopped
	case <-ctx.Done():
		return pet.Snapshot{}, ctx.Err()
	}
	select {
	case snap := <-c.done:
		return snap, nil
	case <-ctx.Done():
		return pet.Snapshot{}, ctx.Err()
	}
}

// NewPet replaces the pet with a fresh egg and saves it immediately.
func (l *Loop) NewPet(ctx context.Context, name, speciesID string) (pet.Snapshot, error) {
	return l.Do(ctx, func(p *pet.Pet) {
		p.Reset(name, speciesID)
		l.lastApplied = l.clock.NowMillis()
		l.save(ctx)
	})
}

// Run ticks the pet until the context is cancelled, then saves one last time.
func (l *Loop) Run(ctx context.Context) {
	defer close(l.stopped)

	l.dispatch(l.pending)
	l.pending = nil

	tick := time.NewTicker(l.cfg.TickInterval)
	defer tick.Stop()
	save := time.NewTicker(l.cfg.SaveInterval)
	defer save.Stop()

	for {
		select {
		case <-ctx.Done():
			// The parent context is gone; give the final save its own deadline.
			saveCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			l.save(saveCtx)
			cancel()
			return
		case <-tick.C:
			l.step()
		case <-save.C:
			l.save(ctx)
		case c := <-l.cmds:
			l.step()
			c.fn(l.pet)
			l.publish()
			c.done <- l.Snapshot()
		}
	}
}

// step feeds every whole minute since lastApplied to the engine. Gaps longer
// than pet.MaxAwayMinutes are capped the same way as time spent offline.
func (l *Loop) step() {
	now := l.clock.NowMillis()
	if now < l.lastApplied {
		l.log.Warn("sim: clock went backwards", "by_ms", l.lastApplied-now)
		l.lastApplied = now
	}
	mins := (now - l.lastApplied) / msPerMinute
	var events []pet.Event
	if mins > pet.MaxAwayMinutes {
		// Host suspend or a forward clock jump: treat it like time offline.
		l.log.Warn("sim: long gap between ticks, capping catch-up", "gap_min", mins, "cap_min", pet.MaxAwayMinutes)
		l.lastApplied = now
		events = l.pet.ApplyTimeAway(uint64(mins))
	} else {
		l.lastApplied += mins * msPerMinute
		events = l.pet.Update(uint64(mins * msPerMinute))
	}
	l.publish()
	l.dispatch(events)

	if mins > 0 {
		snap := l.Snapshot()
		for _, h := range l.onTick {
			h(snap)
		}
	}
}

func (l *Loop) publish() {
	snap := l.pet.Snapshot()
	l.snap.Store(&snap)
}

func (l *Loop) dispatch(events []pet.Event) {
	if len(events) == 0 {
		return
	}
	snap := l.Snapshot()
	evLog, _ := l.store.(store.EventLog)
	for _, e := range events {
		if evLog != nil {
			if err := evLog.RecordEvent(context.Background(), e, snap.AgeMinutes); err != nil {
				l.log.Warn("sim: record event failed", "event", e.Kind, "err", err)
			}
		}
		for _, h := range l.onEvent {
			h(e, snap)
		}
	}
}

func (l *Loop) save(ctx context.Context) {
	if err := l.store.Save(ctx, l.pet.State(), time.UnixMilli(l.clock.NowMillis())); err != nil {
		l.log.Error("sim: save failed", "err", err)
		return
	}
	l.log.Debug("sim: saved")
}
