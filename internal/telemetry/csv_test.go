package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/moorebrett0/tidepet/internal/pet"
)

func TestNilRecorderIsNoop(t *testing.T) {
	r, err := NewRecorder("")
	if err != nil || r != nil {
		t.Fatalf("NewRecorder(\"\") = %v, %v", r, err)
	}
	if err := r.WriteTick(pet.Snapshot{}); err != nil {
		t.Fatal(err)
	}
	if err := r.WriteEvent(pet.Event{}, 0); err != nil {
		t.Fatal(err)
	}
	if err := r.Close(); err != nil {
		t.Fatal(err)
	}
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return strings.Split(strings.TrimSpace(string(b)), "\n")
}

func TestHeaderWrittenOnceAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	s := pet.NewState("Flip", "dolphin", 1000)
	s.Hunger = 42
	snap := pet.NewSnapshot(s)

	r, err := NewRecorder(dir)
	if err != nil {
		t.Fatal(err)
	}
	r.WriteTick(snap)
	r.WriteTick(snap)
	r.WriteEvent(pet.Event{Kind: pet.EventHatched, Stage: pet.StageBaby, At: 5}, 2)
	if err := r.Close(); err != nil {
		t.Fatal(err)
	}

	r, err = NewRecorder(dir)
	if err != nil {
		t.Fatal(err)
	}
	r.WriteTick(snap)
	r.Close()

	ticks := readLines(t, filepath.Join(dir, "ticks.csv"))
	if len(ticks) != 4 {
		t.Fatalf("ticks.csv has %d lines:\n%s", len(ticks), strings.Join(ticks, "\n"))
	}
	if !strings.HasPrefix(ticks[0], "at_ms,name,age_minutes,stage,mood,hunger") {
		t.Fatalf("header = %q", ticks[0])
	}
	if !strings.HasPrefix(ticks[1], "1000,Flip,0,Egg,Normal,42,") {
		t.Fatalf("row = %q", ticks[1])
	}

	events := readLines(t, filepath.Join(dir, "events.csv"))
	if len(events) != 2 || events[1] != "5,hatched,Baby,2" {
		t.Fatalf("events.csv = %q", events)
	}
}
