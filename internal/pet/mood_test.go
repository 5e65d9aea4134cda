package pet

import "testing"

func TestDetermineMood(t *testing.T) {
	base := func() PetState {
		return PetState{Hunger: 50, Happiness: 50, Health: 100, Energy: 100, Stage: StageBaby}
	}

	tests := []struct {
		name   string
		mutate func(*PetState)
		want   Mood
	}{
		{"normal", func(s *PetState) {}, MoodNormal},
		{"happy", func(s *PetState) { s.Happiness = 80; s.Hunger = 60; s.Health = 70 }, MoodHappy},
		{"not quite happy", func(s *PetState) { s.Happiness = 80; s.Hunger = 60; s.Health = 69 }, MoodNormal},
		{"sad", func(s *PetState) { s.Happiness = 19 }, MoodSad},
		{"sleepy beats sad", func(s *PetState) { s.Happiness = 5; s.Energy = 5 }, MoodSleepy},
		{"hungry beats sleepy", func(s *PetState) { s.Hunger = 5; s.Energy = 5 }, MoodHungry},
		{"sick beats hungry", func(s *PetState) { s.Hunger = 5; s.IsSick = true }, MoodSick},
		{"sleeping beats sick", func(s *PetState) { s.IsSick = true; s.IsSleeping = true }, MoodSleeping},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := base()
			tt.mutate(&s)
			if got := DetermineMood(s); got != tt.want {
				t.Fatalf("mood = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNeedsAttention(t *testing.T) {
	ok := PetState{Hunger: 20, Happiness: 20, Health: 20, Energy: 20}
	if NeedsAttention(ok) {
		t.Fatal("stats at 20 should not need attention")
	}

	cases := map[string]func(*PetState){
		"hunger":    func(s *PetState) { s.Hunger = 19 },
		"happiness": func(s *PetState) { s.Happiness = 19 },
		"health":    func(s *PetState) { s.Health = 19 },
		"energy":    func(s *PetState) { s.Energy = 19 },
		"poop":      func(s *PetState) { s.HasPoop = true; s.PoopCount = 1 },
		"sick":      func(s *PetState) { s.IsSick = true },
	}
	for name, mutate := range cases {
		s := ok
		mutate(&s)
		if !NeedsAttention(s) {
			t.Errorf("%s: expected attention", name)
		}
	}
}

func TestSnapshotQueries(t *testing.T) {
	st := hatchedState(0)
	st.Hunger = 40
	st.Happiness = 60
	st.Health = 80
	st.Energy = 20
	st.AgeMinutes = 3*minutesPerDay + 5
	p := restoreTestPet(st, &manualClock{}, fixedRand(0))

	snap := p.Snapshot()
	if want := (40*25 + 60*35 + 80*25 + 20*15) / 100; snap.Overall != want || OverallHappiness(snap.PetState) != want {
		t.Fatalf("overall = %d, want %d", snap.Overall, want)
	}
	if snap.AgeDays != 3 || p.AgeDays() != 3 {
		t.Fatalf("age days = %d", snap.AgeDays)
	}
	if snap.StageName != "Baby" || p.StageName() != "Baby" || snap.MoodName != p.MoodName() {
		t.Fatalf("names: %q %q", snap.StageName, snap.MoodName)
	}
	if !snap.IsAlive() || !snap.CanPlay() || snap.NeedsAttention() {
		t.Fatalf("queries: alive=%v canPlay=%v attention=%v", snap.IsAlive(), snap.CanPlay(), snap.NeedsAttention())
	}
}
