package pet

// Snapshot is a read-only copy of PetState with derived queries.
type Snapshot struct {
	PetState

	MoodName  string `json:"mood"`
	StageName string `json:"stage_name"`
	Attention bool   `json:"attention_needed"`
	AgeDays   uint64 `json:"age_days"`
	Overall   int    `json:"overall_happiness"`
}

// Snapshot copies the current state and computes derived values.
func (p *Pet) Snapshot() Snapshot {
	return NewSnapshot(p.state)
}

// NewSnapshot builds a Snapshot from a state value.
func NewSnapshot(s PetState) Snapshot {
	return Snapshot{
		PetState:  s,
		MoodName:  s.Mood.String(),
		StageName: s.Stage.String(),
		Attention: s.AttentionNeeded,
		AgeDays:   s.AgeMinutes / minutesPerDay,
		Overall:   OverallHappiness(s),
	}
}

// IsAlive reports whether the pet has not died.
func (s Snapshot) IsAlive() bool { return s.Stage != StageDead }

// NeedsAttention reports the attention flag computed on the last update.
func (s Snapshot) NeedsAttention() bool { return s.AttentionNeeded }

// CanPlay reports whether PlayStart would succeed.
func (s Snapshot) CanPlay() bool { return canPlay(s.PetState) }

// IsAlive reports whether the pet has not died.
func (p *Pet) IsAlive() bool { return p.state.Stage != StageDead }

// NeedsAttention reports the attention flag computed on the last update.
func (p *Pet) NeedsAttention() bool { return p.state.AttentionNeeded }

// CanPlay reports whether PlayStart would succeed.
func (p *Pet) CanPlay() bool { return canPlay(p.state) }

func canPlay(s PetState) bool {
	return s.Energy >= playMinEnergy &&
		s.Stage != StageDead &&
		s.Stage != StageEgg &&
		!s.IsSleeping
}

// AgeDays returns whole days of simulated age.
func (p *Pet) AgeDays() uint64 { return p.state.AgeMinutes / minutesPerDay }

// StageName returns the display name of the current stage.
func (p *Pet) StageName() string { return p.state.Stage.String() }

// MoodName returns the display name of the current mood.
func (p *Pet) MoodName() string { return p.state.Mood.String() }

// OverallHappiness is a weighted average of the four needs.
func OverallHappiness(s PetState) int {
	return (s.Hunger*25 + s.Happiness*35 + s.Health*25 + s.Energy*15) / 100
}
