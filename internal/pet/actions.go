package pet

// Action effects.
const (
	fishHungerGain      = 20
	fishWeightGain      = 3
	shrimpHungerGain    = 8
	shrimpHappinessGain = 10
	shrimpWeightGain    = 1
	overfeedThreshold   = 90
	overfeedPenalty     = 5

	playWinHappiness   = 15
	playWinEnergyCost  = 10
	playLoseHappiness  = 5
	playLoseEnergyCost = 5
	playMinEnergy      = 20

	earlyWakeEnergy  = 80
	earlyWakePenalty = 10

	medicineHealthRestore = 40
)

func (p *Pet) awake() bool {
	s := &p.state
	return s.Stage != StageDead && s.Stage != StageEgg && !s.IsSleeping
}

// Feed gives the pet food. Overfeeding (hunger already ≥90) costs health.
func (p *Pet) Feed(food Food) bool {
	if !p.awake() {
		return false
	}
	s := &p.state

	overfed := s.Hunger >= overfeedThreshold

	switch food {
	case FoodShrimp:
		s.Hunger = ClampStat(s.Hunger + shrimpHungerGain)
		s.Happiness = ClampStat(s.Happiness + shrimpHappinessGain)
		s.Weight = ClampWeight(s.Weight + shrimpWeightGain)
	default:
		s.Hunger = ClampStat(s.Hunger + fishHungerGain)
		s.Weight = ClampWeight(s.Weight + fishWeightGain)
	}

	if overfed {
		s.Health = ClampStat(s.Health - overfeedPenalty)
		p.log.Warn("pet: overfed", "health", s.Health)
	}

	s.Activity = ActivityEating
	s.LastFed = p.clock.NowMillis()
	s.TimesFed++
	p.refreshDerived()
	return true
}

// PlayStart begins a game. The outcome arrives later through PlayComplete.
func (p *Pet) PlayStart() bool {
	if !p.CanPlay() {
		return false
	}
	s := &p.state
	s.Activity = ActivityPlaying
	s.LastPlayed = p.clock.NowMillis()
	s.GamesPlayed++
	return true
}

// PlayComplete records a game outcome reported by the minigame.
func (p *Pet) PlayComplete(won bool) bool {
	s := &p.state
	if s.Stage == StageDead {
		return false
	}
	if won {
		s.Happiness = ClampStat(s.Happiness + playWinHappiness)
		s.Energy = ClampStat(s.Energy - playWinEnergyCost)
		s.GamesWon++
	} else {
		s.Happiness = ClampStat(s.Happiness + playLoseHappiness)
		s.Energy = ClampStat(s.Energy - playLoseEnergyCost)
	}
	s.TimesPlayed++
	s.Activity = ActivityIdle
	p.log.Info("pet: game finished", "won", won, "happiness", s.Happiness, "energy", s.Energy)
	p.refreshDerived()
	return true
}

// Sleep puts an awake pet to bed.
func (p *Pet) Sleep() bool {
	if !p.awake() {
		return false
	}
	s := &p.state
	s.IsSleeping = true
	s.SleepStart = p.clock.NowMillis()
	s.Activity = ActivitySleeping
	p.refreshDerived()
	return true
}

// Wake wakes a sleeping pet. Waking before energy reaches 80 costs happiness.
func (p *Pet) Wake() bool {
	if !p.state.IsSleeping || p.state.Stage == StageDead {
		return false
	}
	p.wake()
	p.refreshDerived()
	return true
}

func (p *Pet) wake() {
	s := &p.state
	if s.Energy < earlyWakeEnergy {
		s.Happiness = ClampStat(s.Happiness - earlyWakePenalty)
	}
	s.IsSleeping = false
	s.SleepStart = 0
	s.Activity = ActivityIdle
}

// ToggleSleep dispatches to Sleep or Wake.
func (p *Pet) ToggleSleep() bool {
	if p.state.IsSleeping {
		return p.Wake()
	}
	return p.Sleep()
}

// Clean removes all poop.
func (p *Pet) Clean() bool {
	s := &p.state
	if !s.HasPoop || s.Stage == StageDead {
		return false
	}
	s.HasPoop = false
	s.PoopCount = 0
	s.TimesCleaned++
	p.refreshDerived()
	return true
}

// GiveMedicine cures sickness and restores some health.
func (p *Pet) GiveMedicine() bool {
	s := &p.state
	if !s.IsSick || s.Stage == StageDead {
		return false
	}
	s.Health = ClampStat(s.Health + medicineHealthRestore)
	s.IsSick = false
	s.TimesMedicated++
	p.log.Info("pet: medicated", "health", s.Health)
	p.refreshDerived()
	return true
}
