package pet

// DetermineMood returns the mood for s based on priority-ordered rules.
// Priority: Sleeping > Sick > Hungry > Sleepy > Sad > Happy > Normal
func DetermineMood(s PetState) Mood {
	if s.IsSleeping {
		return MoodSleeping
	}

	if s.IsSick {
		return MoodSick
	}

	if s.Hunger < Critical {
		return MoodHungry
	}

	if s.Energy < Critical {
		return MoodSleepy
	}

	if s.Happiness < Critical {
		return MoodSad
	}

	if s.Happiness >= 80 && s.Hunger >= 60 && s.Health >= 70 {
		return MoodHappy
	}

	return MoodNormal
}

// NeedsAttention reports whether any need is critical, there is a mess, or the pet is sick.
func NeedsAttention(s PetState) bool {
	return s.Hunger < Critical ||
		s.Happiness < Critical ||
		s.Health < Critical ||
		s.Energy < Critical ||
		s.HasPoop ||
		s.IsSick
}
