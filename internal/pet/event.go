package pet

// EventKind identifies something notable that happened during an Update.
type EventKind uint8

const (
	EventHatched EventKind = iota + 1
	EventGrew
	EventPooped
	EventFellSick
	EventWokeUp
	EventDied
)

var eventNames = map[EventKind]string{
	EventHatched:  "hatched",
	EventGrew:     "grew",
	EventPooped:   "pooped",
	EventFellSick: "fell_sick",
	EventWokeUp:   "woke_up",
	EventDied:     "died",
}

func (k EventKind) String() string {
	if n, ok := eventNames[k]; ok {
		return n
	}
	return "unknown"
}

// Event is emitted by Update. Stage is the stage after the event; At is engine time.
type Event struct {
	Kind  EventKind
	Stage Stage
	At    int64
}
