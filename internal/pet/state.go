package pet

import (
	"fmt"
	"strings"
)

// Stat bounds.
const (
	StatMin   = 0
	StatMax   = 100
	WeightMin = 1
	WeightMax = 99

	// Critical is the level below which a need triggers attention and mood changes.
	Critical = 20
)

// Stage is a life-cycle phase. Dead is terminal.
type Stage uint8

const (
	StageEgg Stage = iota
	StageBaby
	StageChild
	StageTeen
	StageAdult
	StageDead
)

var stageNames = [...]string{"Egg", "Baby", "Child", "Teen", "Adult", "Dead"}

func (s Stage) String() string {
	if int(s) < len(stageNames) {
		return stageNames[s]
	}
	return "Unknown"
}

func (s Stage) MarshalText() ([]byte, error) { return []byte(strings.ToLower(s.String())), nil }

func (s *Stage) UnmarshalText(b []byte) error {
	for i, n := range stageNames {
		if strings.EqualFold(n, string(b)) {
			*s = Stage(i)
			return nil
		}
	}
	return fmt.Errorf("unknown stage %q", b)
}

// Mood is derived from the stats on every update and is never persisted.
type Mood uint8

const (
	MoodNormal Mood = iota
	MoodHappy
	MoodSad
	MoodHungry
	MoodSleepy
	MoodSick
	MoodSleeping
)

var moodNames = [...]string{"Normal", "Happy", "Sad", "Hungry", "Sleepy", "Sick", "Sleeping"}

func (m Mood) String() string {
	if int(m) < len(moodNames) {
		return moodNames[m]
	}
	return "Unknown"
}

func (m Mood) MarshalText() ([]byte, error) { return []byte(strings.ToLower(m.String())), nil }

// Activity is a display hint set by actions and the engine.
type Activity uint8

const (
	ActivityIdle Activity = iota
	ActivityEating
	ActivityPlaying
	ActivitySleeping
	ActivitySick
	ActivityHappy
	ActivityHatching
)

var activityNames = [...]string{"Idle", "Eating", "Playing", "Sleeping", "Sick", "Happy", "Hatching"}

func (a Activity) String() string {
	if int(a) < len(activityNames) {
		return activityNames[a]
	}
	return "Unknown"
}

func (a Activity) MarshalText() ([]byte, error) { return []byte(strings.ToLower(a.String())), nil }

func (a *Activity) UnmarshalText(b []byte) error {
	for i, n := range activityNames {
		if strings.EqualFold(n, string(b)) {
			*a = Activity(i)
			return nil
		}
	}
	return fmt.Errorf("unknown activity %q", b)
}

// Food is what Feed accepts.
type Food uint8

const (
	FoodFish Food = iota
	FoodShrimp
)

func (f Food) String() string {
	if f == FoodShrimp {
		return "shrimp"
	}
	return "fish"
}

// ParseFood maps a user-facing food name to a Food.
func ParseFood(s string) (Food, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fish", "":
		return FoodFish, true
	case "shrimp":
		return FoodShrimp, true
	}
	return FoodFish, false
}

// PetState is the whole simulated creature. Timestamps are engine-clock milliseconds.
type PetState struct {
	// Identity (set at hatch, never touched by the engine)
	Name      string `json:"name" db:"name"`
	SpeciesID string `json:"species_id" db:"species_id"`

	// Primary needs (0–100)
	Hunger    int `json:"hunger" db:"hunger"`       // 0=starving, 100=full
	Happiness int `json:"happiness" db:"happiness"` // 0=miserable, 100=ecstatic
	Health    int `json:"health" db:"health"`
	Energy    int `json:"energy" db:"energy"`

	Weight     int `json:"weight" db:"weight"`         // 1–99, moved only by feeding
	Discipline int `json:"discipline" db:"discipline"` // reserved

	Stage      Stage  `json:"stage" db:"stage"`
	AgeMinutes uint64 `json:"age_minutes" db:"age_minutes"`

	Mood            Mood     `json:"-" db:"-"`
	Activity        Activity `json:"activity" db:"activity"`
	IsSick          bool     `json:"is_sick" db:"is_sick"`
	HasPoop         bool     `json:"has_poop" db:"has_poop"`
	IsSleeping      bool     `json:"is_sleeping" db:"is_sleeping"`
	AttentionNeeded bool     `json:"-" db:"-"`
	PoopCount       int      `json:"poop_count" db:"poop_count"`

	LastUpdate int64 `json:"last_update" db:"last_update"`
	LastFed    int64 `json:"last_fed" db:"last_fed"`
	LastPlayed int64 `json:"last_played" db:"last_played"`
	LastPoop   int64 `json:"last_poop" db:"last_poop"`
	SleepStart int64 `json:"sleep_start" db:"sleep_start"`

	GamesWon       int `json:"games_won" db:"games_won"`
	GamesPlayed    int `json:"games_played" db:"games_played"`
	TimesFed       int `json:"times_fed" db:"times_fed"`
	TimesPlayed    int `json:"times_played" db:"times_played"`
	TimesCleaned   int `json:"times_cleaned" db:"times_cleaned"`
	TimesMedicated int `json:"times_medicated" db:"times_medicated"`
}

// NewState returns the baseline state of a freshly laid egg.
func NewState(name, speciesID string, now int64) PetState {
	return PetState{
		Name:       name,
		SpeciesID:  speciesID,
		Hunger:     50,
		Happiness:  50,
		Health:     100,
		Energy:     100,
		Weight:     20,
		Stage:      StageEgg,
		Mood:       MoodNormal,
		Activity:   ActivityHatching,
		LastUpdate: now,
		LastFed:    now,
		LastPlayed: now,
		LastPoop:   now,
	}
}

// ClampStat bounds a primary stat to [0,100].
func ClampStat(v int) int {
	if v < StatMin {
		return StatMin
	}
	if v > StatMax {
		return StatMax
	}
	return v
}

// ClampWeight bounds weight to [1,99].
func ClampWeight(v int) int {
	if v < WeightMin {
		return WeightMin
	}
	if v > WeightMax {
		return WeightMax
	}
	return v
}

// Normalize clamps every bounded field and re-derives HasPoop. Used after loading
// a save written by something other than the engine.
func (s *PetState) Normalize() {
	s.Hunger = ClampStat(s.Hunger)
	s.Happiness = ClampStat(s.Happiness)
	s.Health = ClampStat(s.Health)
	s.Energy = ClampStat(s.Energy)
	s.Discipline = ClampStat(s.Discipline)
	s.Weight = ClampWeight(s.Weight)
	if s.PoopCount < 0 {
		s.PoopCount = 0
	}
	s.HasPoop = s.PoopCount > 0
	if s.Stage > StageDead {
		s.Stage = StageDead
	}
}
