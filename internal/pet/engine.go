package pet

import (
	"log/slog"
)

// Decay rates are per simulated minute.
const (
	hungerDecayPerMin    = 2
	happinessDecayPerMin = 1
	energyDecayPerMin    = 1
	energyRestorePerMin  = 5
	sickDecayMultiplier  = 2

	poopFloorMin   = 30
	poopCeilingMin = 90

	sickThreshold = 30

	msPerMinute = 60000

	// MaxAwayMinutes caps offline catch-up at 48 hours.
	MaxAwayMinutes = 48 * 60
)

// Pet owns one PetState and every rule that mutates it. It performs no locking;
// all calls must come from one goroutine (see sim.Loop).
type Pet struct {
	state PetState
	clock Clock
	rng   Rand
	log   *slog.Logger
}

// Option configures a Pet.
type Option func(*Pet)

// WithClock sets the time base. Defaults to SystemClock.
func WithClock(c Clock) Option { return func(p *Pet) { p.clock = c } }

// WithRand sets the random source for poop events.
func WithRand(r Rand) Option { return func(p *Pet) { p.rng = r } }

// WithLogger sets the logger for life events.
func WithLogger(l *slog.Logger) Option { return func(p *Pet) { p.log = l } }

func newPet(opts []Option) *Pet {
	p := &Pet{clock: SystemClock{}, log: slog.Default()}
	for _, o := range opts {
		o(p)
	}
	if p.rng == nil {
		p.rng = NewRand(p.clock.NowMillis())
	}
	return p
}

// New lays a fresh egg.
func New(name, speciesID string, opts ...Option) *Pet {
	p := newPet(opts)
	p.Reset(name, speciesID)
	return p
}

// Restore wraps a previously saved state. Derived fields are recomputed.
func Restore(s PetState, opts ...Option) *Pet {
	p := newPet(opts)
	s.Normalize()
	p.state = s
	p.refreshDerived()
	return p
}

// Reset replaces the pet with a new egg. It is the only way out of StageDead.
func (p *Pet) Reset(name, speciesID string) {
	p.log.Info("pet: new egg", "name", name, "species", speciesID)
	p.state = NewState(name, speciesID, p.clock.NowMillis())
}

// State returns a copy of the current state.
func (p *Pet) State() PetState { return p.state }

// Update advances the simulation by elapsedMs. Sub-minute remainders are dropped.
func (p *Pet) Update(elapsedMs uint64) []Event {
	s := &p.state
	if s.Stage == StageDead {
		return nil
	}

	now := p.clock.NowMillis()
	elapsedMin := elapsedMs / msPerMinute
	var events []Event

	if elapsedMin > 0 {
		s.AgeMinutes += elapsedMin

		if s.Stage != StageEgg {
			events = p.decay(int(min(elapsedMin, 1<<31-1)), now, events)
		}

		// Death earlier in this tick wins: NextStage keeps Dead absorbing.
		before := s.Stage
		s.Stage = NextStage(before, s.AgeMinutes)
		if s.Stage != before {
			kind := EventGrew
			if before == StageEgg {
				kind = EventHatched
				s.Activity = ActivityIdle
			}
			p.log.Info("pet: stage change", "from", before, "to", s.Stage, "age_min", s.AgeMinutes)
			events = append(events, Event{Kind: kind, Stage: s.Stage, At: now})
		}
	}

	p.refreshDerived()
	s.LastUpdate = now
	return events
}

func (p *Pet) decay(elapsedMin int, now int64, events []Event) []Event {
	s := &p.state

	hungerDecay := elapsedMin * hungerDecayPerMin
	if s.IsSick {
		hungerDecay *= sickDecayMultiplier
	}
	s.Hunger = ClampStat(s.Hunger - hungerDecay)
	s.Happiness = ClampStat(s.Happiness - elapsedMin*happinessDecayPerMin)

	if s.IsSleeping {
		s.Energy = ClampStat(s.Energy + elapsedMin*energyRestorePerMin)
		if s.Energy >= StatMax {
			p.wake()
			events = append(events, Event{Kind: EventWokeUp, Stage: s.Stage, At: now})
		}
	} else {
		s.Energy = ClampStat(s.Energy - elapsedMin*energyDecayPerMin)
	}

	if !s.IsSleeping && p.rollPoop(now) {
		s.HasPoop = true
		s.PoopCount++
		s.LastPoop = now
		p.log.Info("pet: pooped", "count", s.PoopCount)
		events = append(events, Event{Kind: EventPooped, Stage: s.Stage, At: now})
	}

	// Flat per-call penalty, not scaled by elapsed time.
	if s.HasPoop {
		s.Health = ClampStat(s.Health - s.PoopCount)
	}

	p.convergeHealth()

	if s.Health < sickThreshold && !s.IsSick {
		s.IsSick = true
		p.log.Warn("pet: fell sick", "health", s.Health)
		events = append(events, Event{Kind: EventFellSick, Stage: s.Stage, At: now})
	}

	if s.Health == 0 {
		s.Stage = StageDead
		s.Activity = ActivityIdle
		p.log.Error("pet: died", "age_min", s.AgeMinutes)
		events = append(events, Event{Kind: EventDied, Stage: StageDead, At: now})
	}
	return events
}

// rollPoop draws against a ramp that is 0% at the floor and certain at the ceiling.
func (p *Pet) rollPoop(now int64) bool {
	since := now - p.state.LastPoop
	if since < 0 {
		return false
	}
	sinceMin := since / msPerMinute
	if sinceMin < poopFloorMin {
		return false
	}
	// Whole percent, truncated: 31 minutes is 1%, not 1.67%.
	chance := (sinceMin - poopFloorMin) * 100 / (poopCeilingMin - poopFloorMin)
	if chance > 100 {
		chance = 100
	}
	return int64(p.rng.Intn(100)) < chance
}

// HealthTarget is the level health drifts toward given the other stats.
func HealthTarget(s PetState) int {
	target := StatMax
	if s.Hunger < 50 {
		target -= (50 - s.Hunger) / 2
	}
	if s.Happiness < 40 {
		target -= (40 - s.Happiness) / 3
	}
	target -= s.PoopCount * 10
	if s.IsSick {
		target -= 20
	}
	return target
}

// convergeHealth moves health one point per call. A sick pet does not recover on its own.
func (p *Pet) convergeHealth() {
	s := &p.state
	target := HealthTarget(*s)
	switch {
	case s.Health > target:
		s.Health = ClampStat(s.Health - 1)
	case s.Health < target && !s.IsSick:
		s.Health = ClampStat(s.Health + 1)
	}
}

func (p *Pet) refreshDerived() {
	s := &p.state
	s.Mood = DetermineMood(*s)
	s.AttentionNeeded = NeedsAttention(*s)
}

// ApplyTimeAway replays an absence, capped at MaxAwayMinutes, as one Update.
func (p *Pet) ApplyTimeAway(awayMinutes uint64) []Event {
	if awayMinutes == 0 {
		return nil
	}
	if awayMinutes > MaxAwayMinutes {
		awayMinutes = MaxAwayMinutes
	}
	p.log.Info("pet: applying time away", "minutes", awayMinutes)
	return p.Update(awayMinutes * msPerMinute)
}
