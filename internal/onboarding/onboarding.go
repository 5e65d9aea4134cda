// Package onboarding is the terminal hatching flow: pick a species, name the
// egg, watch it wobble.
package onboarding

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/moorebrett0/tidepet/internal/species"
)

// MaxNameLen bounds pet names to what fits a Discord embed title comfortably.
const MaxNameLen = 32

// ErrAborted is returned when input ends before a choice was made.
var ErrAborted = errors.New("onboarding: input closed")

// Choice is what the owner picked.
type Choice struct {
	Name      string
	SpeciesID string
}

// Prompter runs the interactive flow over any reader and writer.
type Prompter struct {
	in    *bufio.Reader
	out   io.Writer
	delay time.Duration // per character in printSlow; zero prints instantly
}

func NewPrompter(in io.Reader, out io.Writer, delay time.Duration) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out, delay: delay}
}

// Run asks for a species and a name and returns the choice.
func (p *Prompter) Run() (Choice, error) {
	fmt.Fprintln(p.out)
	p.printSlow("  \U0001F95A crk... crk...")
	fmt.Fprintln(p.out)

	fmt.Fprintln(p.out, "  pick a species:")
	fmt.Fprintln(p.out)

	// Display species grid (2 columns)
	ids := species.OrderedIDs
	for i := 0; i < len(ids); i += 2 {
		left := species.Registry[ids[i]]
		col1 := fmt.Sprintf("  %d) %s %-12s", i+1, left.Emoji, left.Name)

		if i+1 < len(ids) {
			right := species.Registry[ids[i+1]]
			fmt.Fprintf(p.out, "%s%d) %s %s\n", col1, i+2, right.Emoji, right.Name)
		} else {
			fmt.Fprintln(p.out, col1)
		}
	}
	fmt.Fprintln(p.out)

	var selectedID string
	for selectedID == "" {
		input, err := p.ask()
		if err != nil {
			return Choice{}, err
		}
		selectedID = matchSpecies(input)
		if selectedID == "" {
			fmt.Fprintf(p.out, "  hmm, pick a number 1-%d or type the species name\n", len(ids))
		}
	}

	sp := species.Registry[selectedID]
	fmt.Fprintln(p.out)
	fmt.Fprintf(p.out, "  %s ... %s\n", sp.Emoji, sp.Description)
	fmt.Fprintln(p.out)

	fmt.Fprintln(p.out, "  what's my name?")
	fmt.Fprintln(p.out)

	var name string
	for {
		input, err := p.ask()
		if err != nil {
			return Choice{}, err
		}
		if validName(input) {
			name = input
			break
		}
		fmt.Fprintf(p.out, "  pick a name (1-%d characters)\n", MaxNameLen)
	}

	fmt.Fprintln(p.out)
	fmt.Fprintf(p.out, "  %s the egg wobbles...\n", sp.Emoji)
	fmt.Fprintln(p.out)
	p.printSlow(fmt.Sprintf("  %s will hatch in a couple of minutes. look after them.", name))
	fmt.Fprintln(p.out)

	return Choice{Name: name, SpeciesID: selectedID}, nil
}

// ask prints the prompt and reads one trimmed line. A final line without a
// newline still counts.
func (p *Prompter) ask() (string, error) {
	fmt.Fprint(p.out, "  > ")
	line, err := p.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		if err == io.EOF {
			return "", ErrAborted
		}
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// matchSpecies accepts a 1-based menu number or a species ID.
func matchSpecies(input string) string {
	if num, err := strconv.Atoi(input); err == nil && num >= 1 && num <= len(species.OrderedIDs) {
		return species.OrderedIDs[num-1]
	}
	lower := strings.ToLower(input)
	if _, ok := species.Registry[lower]; ok {
		return lower
	}
	return ""
}

func validName(name string) bool {
	n := len([]rune(name))
	return n >= 1 && n <= MaxNameLen
}

// Check is one line of the startup checklist.
type Check struct {
	Label string
	OK    bool
}

// PrintStartup prints the startup checklist.
func (p *Prompter) PrintStartup(name string, checks []Check) {
	fmt.Fprintln(p.out, "  starting up...")

	for _, c := range checks {
		time.Sleep(p.delay * 4)
		mark := "✓"
		if !c.OK {
			mark = "✗"
		}
		fmt.Fprintf(p.out, "  %s %s\n", mark, c.Label)
	}

	fmt.Fprintln(p.out)
	p.printSlow(fmt.Sprintf("  %s is in the tank. don't forget about me.", name))
	fmt.Fprintln(p.out)
}

func (p *Prompter) printSlow(text string) {
	if p.delay <= 0 {
		fmt.Fprintln(p.out, text)
		return
	}
	for _, ch := range text {
		fmt.Fprint(p.out, string(ch))
		time.Sleep(p.delay)
	}
	fmt.Fprintln(p.out)
}
