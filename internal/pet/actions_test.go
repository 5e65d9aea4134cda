package pet

import (
	"reflect"
	"testing"
)

func TestFeed(t *testing.T) {
	tests := []struct {
		name          string
		food          Food
		hunger        int
		wantHunger    int
		wantHappiness int
		wantHealth    int
		wantWeight    int
	}{
		{"fish", FoodFish, 40, 60, 50, 100, 23},
		{"shrimp", FoodShrimp, 40, 48, 60, 100, 21},
		{"fish overfed", FoodFish, 95, 100, 50, 95, 23},
		{"shrimp overfed", FoodShrimp, 90, 98, 60, 95, 21},
		{"just under overfeed", FoodFish, 89, 100, 50, 100, 23},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := &manualClock{ms: 42}
			st := hatchedState(0)
			st.Hunger = tt.hunger
			p := restoreTestPet(st, clock, fixedRand(0))

			if !p.Feed(tt.food) {
				t.Fatal("feed refused")
			}
			s := p.State()
			if s.Hunger != tt.wantHunger || s.Happiness != tt.wantHappiness || s.Health != tt.wantHealth || s.Weight != tt.wantWeight {
				t.Fatalf("got hunger=%d happiness=%d health=%d weight=%d", s.Hunger, s.Happiness, s.Health, s.Weight)
			}
			if s.Activity != ActivityEating || s.LastFed != 42 || s.TimesFed != 1 {
				t.Fatalf("bookkeeping: activity=%v last_fed=%d times_fed=%d", s.Activity, s.LastFed, s.TimesFed)
			}
		})
	}
}

func TestFeedWeightClamped(t *testing.T) {
	st := hatchedState(0)
	st.Weight = 98
	p := restoreTestPet(st, &manualClock{}, fixedRand(0))
	p.Feed(FoodFish)
	if got := p.State().Weight; got != WeightMax {
		t.Fatalf("weight = %d, want %d", got, WeightMax)
	}
}

func TestActionsRefusedWithoutMutation(t *testing.T) {
	egg := NewState("Flip", "dolphin", 0)

	asleep := hatchedState(0)
	asleep.IsSleeping = true

	tired := hatchedState(0)
	tired.Energy = 19

	clean := hatchedState(0)

	tests := []struct {
		name  string
		state PetState
		act   func(*Pet) bool
	}{
		{"feed egg", egg, func(p *Pet) bool { return p.Feed(FoodFish) }},
		{"feed asleep", asleep, func(p *Pet) bool { return p.Feed(FoodShrimp) }},
		{"play egg", egg, (*Pet).PlayStart},
		{"play asleep", asleep, (*Pet).PlayStart},
		{"play tired", tired, (*Pet).PlayStart},
		{"sleep egg", egg, (*Pet).Sleep},
		{"sleep asleep", asleep, (*Pet).Sleep},
		{"wake awake", clean, (*Pet).Wake},
		{"clean nothing", clean, (*Pet).Clean},
		{"medicine healthy", clean, (*Pet).GiveMedicine},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := restoreTestPet(tt.state, &manualClock{ms: 99}, fixedRand(0))
			before := p.State()
			if tt.act(p) {
				t.Fatal("action should have been refused")
			}
			if !reflect.DeepEqual(before, p.State()) {
				t.Fatalf("refused action mutated state:\n got %+v\nwant %+v", p.State(), before)
			}
		})
	}
}

func TestPlayRoundTrip(t *testing.T) {
	clock := &manualClock{ms: 7}
	st := hatchedState(0)
	st.Happiness = 50
	st.Energy = 50
	p := restoreTestPet(st, clock, fixedRand(0))

	if !p.CanPlay() || !p.PlayStart() {
		t.Fatal("play start refused")
	}
	s := p.State()
	if s.Activity != ActivityPlaying || s.GamesPlayed != 1 || s.LastPlayed != 7 {
		t.Fatalf("after start: %+v", s)
	}
	if s.Happiness != 50 || s.Energy != 50 {
		t.Fatal("play start changed stats")
	}

	p.PlayComplete(true)
	s = p.State()
	if s.Happiness != 65 || s.Energy != 40 || s.GamesWon != 1 || s.TimesPlayed != 1 || s.Activity != ActivityIdle {
		t.Fatalf("after win: %+v", s)
	}

	p.PlayStart()
	p.PlayComplete(false)
	s = p.State()
	if s.Happiness != 70 || s.Energy != 35 || s.GamesWon != 1 || s.TimesPlayed != 2 || s.GamesPlayed != 2 {
		t.Fatalf("after loss: %+v", s)
	}
}

func TestSleepWakePenalty(t *testing.T) {
	tests := []struct {
		name          string
		energy        int
		wantHappiness int
	}{
		{"woken early", 79, 40},
		{"rested enough", 80, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := &manualClock{ms: 1234}
			st := hatchedState(0)
			st.Energy = tt.energy
			p := restoreTestPet(st, clock, fixedRand(0))

			if !p.Sleep() {
				t.Fatal("sleep refused")
			}
			s := p.State()
			if !s.IsSleeping || s.SleepStart != 1234 || s.Activity != ActivitySleeping || s.Mood != MoodSleeping {
				t.Fatalf("after sleep: %+v", s)
			}
			if !p.Wake() {
				t.Fatal("wake refused")
			}
			s = p.State()
			if s.Happiness != tt.wantHappiness {
				t.Fatalf("happiness = %d, want %d", s.Happiness, tt.wantHappiness)
			}
			if s.IsSleeping || s.SleepStart != 0 || s.Activity != ActivityIdle {
				t.Fatalf("after wake: %+v", s)
			}
		})
	}
}

func TestToggleSleep(t *testing.T) {
	p := restoreTestPet(hatchedState(0), &manualClock{}, fixedRand(0))
	if !p.ToggleSleep() || !p.State().IsSleeping {
		t.Fatal("toggle should put pet to sleep")
	}
	if !p.ToggleSleep() || p.State().IsSleeping {
		t.Fatal("toggle should wake pet")
	}
}

func TestClean(t *testing.T) {
	st := hatchedState(0)
	st.PoopCount = 3
	st.HasPoop = true
	p := restoreTestPet(st, &manualClock{}, fixedRand(0))

	if !p.Clean() {
		t.Fatal("clean refused")
	}
	s := p.State()
	if s.HasPoop || s.PoopCount != 0 || s.TimesCleaned != 1 {
		t.Fatalf("after clean: %+v", s)
	}
	if p.Clean() {
		t.Fatal("second clean should be refused")
	}
}

func TestGiveMedicine(t *testing.T) {
	st := hatchedState(0)
	st.IsSick = true
	st.Health = 20
	p := restoreTestPet(st, &manualClock{}, fixedRand(0))

	if !p.GiveMedicine() {
		t.Fatal("medicine refused")
	}
	s := p.State()
	if s.Health != 60 || s.IsSick || s.TimesMedicated != 1 {
		t.Fatalf("after medicine: %+v", s)
	}

	st.Health = 80
	p = restoreTestPet(st, &manualClock{}, fixedRand(0))
	p.GiveMedicine()
	if got := p.State().Health; got != 100 {
		t.Fatalf("health = %d, want clamped 100", got)
	}
}
