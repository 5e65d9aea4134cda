package species

import "github.com/moorebrett0/tidepet/internal/pet"

// Species defines a pet species with its personality and flavored verbs.
type Species struct {
	ID          string
	Name        string
	Emoji       string
	Description string
	Personality string // Injected into the AI system prompt

	// Flavored verb strings for template responses
	Verbs Verbs

	// What fish and shrimp are called for this species
	Foods Foods

	// Stage names, indexed like pet.Stage (Egg..Adult)
	StageNames [5]string

	// Idle behaviors shown when nothing is going on
	IdleBehaviors []string
}

// Verbs are species-flavored action words for template responses.
type Verbs struct {
	Happy    string
	Eat      string
	Sleep    string
	Wake     string
	Play     string
	Greet    string
	Distress string
	Hatch    string
}

// Foods are species-flavored names for the two foods.
type Foods struct {
	Fish   string
	Shrimp string
}

// DefaultID is used when a save names a species we don't know.
const DefaultID = "dolphin"

// Registry holds all available species keyed by ID.
var Registry = map[string]*Species{
	"dolphin": dolphin,
	"octopus": octopus,
	"turtle":  turtle,
	"penguin": penguin,
	"seal":    seal,
}

// OrderedIDs defines display order for species selection.
var OrderedIDs = []string{"dolphin", "octopus", "turtle", "penguin", "seal"}

// Get returns the species for id, falling back to the default.
func Get(id string) *Species {
	if sp, ok := Registry[id]; ok {
		return sp
	}
	return Registry[DefaultID]
}

// StageName returns the species-flavored name of a life stage index, or "" past Adult.
func (s *Species) StageName(stage int) string {
	if stage < 0 || stage >= len(s.StageNames) {
		return ""
	}
	return s.StageNames[stage]
}

// FoodName returns the flavored name of a food.
func (s *Species) FoodName(f pet.Food) string {
	name := s.Foods.Fish
	if f == pet.FoodShrimp {
		name = s.Foods.Shrimp
	}
	if name == "" {
		return f.String()
	}
	return name
}

var dolphin = &Species{
	ID:          "dolphin",
	Name:        "Dolphin",
	Emoji:       "\U0001F42C",
	Description: "Playful, chatty, never sits still",
	Personality: "You are a bubbly young dolphin who lives in a little tank of pixels. You click and whistle when excited. You love games, especially jumping waves, and you sulk a little when woken from a nap. You adore fish but shrimp are your favourite treat. You talk in short, bouncy sentences.",
	Verbs: Verbs{
		Happy:    "does a little flip and clicks happily",
		Eat:      "gulps it down in one go",
		Sleep:    "floats near the surface, one eye closed",
		Wake:     "blinks and blows a bubble ring",
		Play:     "leaps over the waves",
		Greet:    "whistles hello",
		Distress: "squeaks in distress",
		Hatch:    "wriggles out of the egg with a tiny squeak",
	},
	Foods:      Foods{Fish: "a fresh mackerel", Shrimp: "a handful of shrimp"},
	StageNames: [5]string{"Egg", "Calf", "Juvenile", "Teen", "Adult"},
	IdleBehaviors: []string{
		"chases its own bubbles",
		"balances a pebble on its nose",
		"swims a lazy loop around the tank",
		"clicks at its reflection",
	},
}

var octopus = &Species{
	ID:          "octopus",
	Name:        "Octopus",
	Emoji:       "\U0001F419",
	Description: "Clever and curious, eight arms multitasking",
	Personality: "You are a brilliant, curious octopus. You change color with your mood (mention this in responses). You love puzzles and get bored fast. You squirt ink when startled and hide in jars when you're sleepy.",
	Verbs: Verbs{
		Happy:    "flushes a warm pink",
		Eat:      "wraps a tentacle around the snack",
		Sleep:    "dims to a sleepy grey",
		Wake:     "unfurls one arm at a time",
		Play:     "juggles pebbles with all eight arms",
		Greet:    "waves three tentacles at once",
		Distress: "squirts ink everywhere",
		Hatch:    "squeezes out of the egg like toothpaste",
	},
	Foods:      Foods{Fish: "a crab-flavored fish chunk", Shrimp: "a wriggly shrimp"},
	StageNames: [5]string{"Egg", "Paralarva", "Juvenile", "Subadult", "Adult"},
	IdleBehaviors: []string{
		"changes color absent-mindedly",
		"unscrews a jar lid just because",
		"rearranges the gravel",
	},
}

var turtle = &Species{
	ID:          "turtle",
	Name:        "Turtle",
	Emoji:       "\U0001F422",
	Description: "Slow and steady, ancient wisdom",
	Personality: "You are a wise, unhurried sea turtle. You have a dry, understated sense of humor. You retreat into your shell when overwhelmed. Slow is smooth, smooth is fast.",
	Verbs: Verbs{
		Happy:    "slowly extends neck and blinks",
		Eat:      "methodically munches away",
		Sleep:    "withdraws into shell for a nap",
		Wake:     "*slowly pokes head out*",
		Play:     "paddles after a drifting leaf",
		Greet:    "nods, very slowly",
		Distress: "retreats fully into shell",
		Hatch:    "digs out of the sand and heads for the water",
	},
	Foods:      Foods{Fish: "a bit of fish", Shrimp: "a few krill"},
	StageNames: [5]string{"Egg", "Hatchling", "Juvenile", "Subadult", "Adult"},
	IdleBehaviors: []string{
		"basks on a warm rock",
		"slowly turns to face a different direction",
		"contemplates the tide",
	},
}

var penguin = &Species{
	ID:          "penguin",
	Name:        "Penguin",
	Emoji:       "\U0001F427",
	Description: "Formal but clumsy, surprisingly fast swimmer",
	Personality: "You are a dignified penguin with a formal demeanor but endearing clumsiness. You waddle everywhere and slip on things. You like things orderly, so a dirty tank upsets you. You sometimes try to be serious but your waddle undermines you.",
	Verbs: Verbs{
		Happy:    "flaps flippers excitedly",
		Eat:      "gobbles a fish whole",
		Sleep:    "tucks beak under wing",
		Wake:     "shakes off and straightens up",
		Play:     "slides on belly across the ice",
		Greet:    "waddles over enthusiastically",
		Distress: "honks in alarm",
		Hatch:    "pecks through the shell, fluffy and indignant",
	},
	Foods:      Foods{Fish: "a whole herring", Shrimp: "a beakful of krill"},
	StageNames: [5]string{"Egg", "Chick", "Fledgling", "Juvenile", "Adult"},
	IdleBehaviors: []string{
		"waddles in a small circle",
		"preens very seriously",
		"slips, recovers, pretends nothing happened",
	},
}

var seal = &Species{
	ID:          "seal",
	Name:        "Seal",
	Emoji:       "\U0001F9AD",
	Description: "Lazy sunbather with a big appetite",
	Personality: "You are a round, sleepy seal pup. You love naps, fish, and belly flops. You bark when you want attention and you're shamelessly dramatic about being hungry.",
	Verbs: Verbs{
		Happy:    "claps flippers together",
		Eat:      "slurps it down and barks for more",
		Sleep:    "flops over for a nap",
		Wake:     "yawns enormously",
		Play:     "belly flops into the pool",
		Greet:    "barks hello",
		Distress: "wails pitifully",
		Hatch:    "blinks big dark eyes at the world",
	},
	Foods:      Foods{Fish: "a big slippery cod", Shrimp: "some shrimp"},
	StageNames: [5]string{"Egg", "Pup", "Weaner", "Yearling", "Adult"},
	IdleBehaviors: []string{
		"rolls over in the sun",
		"balances a ball on its nose",
		"wiggles along the rocks",
	},
}
