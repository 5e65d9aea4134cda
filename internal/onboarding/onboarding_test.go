package onboarding

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestRun(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantName    string
		wantSpecies string
	}{
		{"by number", "2\nInky\n", "Inky", "octopus"},
		{"by name", "Seal\nBlubber\n", "Blubber", "seal"},
		{"retries bad species", "9\nsquid\nturtle\nShelly\n", "Shelly", "turtle"},
		{"retries empty and long names", "1\n\n" + strings.Repeat("x", 33) + "\nFlip", "Flip", "dolphin"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			got, err := NewPrompter(strings.NewReader(tt.input), &out, 0).Run()
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			if got.Name != tt.wantName || got.SpeciesID != tt.wantSpecies {
				t.Fatalf("Run = %+v, want %s/%s", got, tt.wantName, tt.wantSpecies)
			}
			if !strings.Contains(out.String(), "1) \U0001F42C Dolphin") {
				t.Fatalf("species menu missing:\n%s", out.String())
			}
		})
	}
}

func TestRunAborted(t *testing.T) {
	for _, input := range []string{"", "3\n"} {
		_, err := NewPrompter(strings.NewReader(input), &bytes.Buffer{}, 0).Run()
		if !errors.Is(err, ErrAborted) {
			t.Fatalf("input %q: err = %v, want ErrAborted", input, err)
		}
	}
}

func TestPrintStartup(t *testing.T) {
	var out bytes.Buffer
	NewPrompter(strings.NewReader(""), &out, 0).PrintStartup("Flip", []Check{
		{"state loaded", true},
		{"discord connected", false},
	})
	got := out.String()
	if !strings.Contains(got, "✓ state loaded") || !strings.Contains(got, "✗ discord connected") {
		t.Fatalf("checklist:\n%s", got)
	}
}
