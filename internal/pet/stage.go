package pet

// Cumulative age, in minutes, at which each stage begins.
const (
	minutesPerDay = 24 * 60

	eggMinutes   = 2
	babyMinutes  = 2 * minutesPerDay
	childMinutes = 4 * minutesPerDay
	teenMinutes  = 7 * minutesPerDay
)

// StageStartMinutes returns the age at which stage s is reached.
func StageStartMinutes(s Stage) uint64 {
	switch s {
	case StageBaby:
		return eggMinutes
	case StageChild:
		return babyMinutes
	case StageTeen:
		return babyMinutes + childMinutes
	case StageAdult:
		return babyMinutes + childMinutes + teenMinutes
	default:
		return 0
	}
}

// NextStage returns the stage after re-evaluating age. It advances at most one
// step, never regresses, and leaves Dead alone.
func NextStage(current Stage, ageMinutes uint64) Stage {
	switch current {
	case StageEgg, StageBaby, StageChild, StageTeen:
		next := current + 1
		if ageMinutes >= StageStartMinutes(next) {
			return next
		}
	}
	return current
}
