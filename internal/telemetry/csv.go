// Package telemetry appends one CSV row per applied tick and per life event.
package telemetry

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gocarina/gocsv"

	"github.com/moorebrett0/tidepet/internal/pet"
)

// TickRow is one line of ticks.csv.
type TickRow struct {
	At         int64  `csv:"at_ms"`
	Name       string `csv:"name"`
	AgeMinutes uint64 `csv:"age_minutes"`
	Stage      string `csv:"stage"`
	Mood       string `csv:"mood"`
	Hunger     int    `csv:"hunger"`
	Happiness  int    `csv:"happiness"`
	Health     int    `csv:"health"`
	Energy     int    `csv:"energy"`
	Weight     int    `csv:"weight"`
	PoopCount  int    `csv:"poop_count"`
	Sick       bool   `csv:"sick"`
	Sleeping   bool   `csv:"sleeping"`
	Attention  bool   `csv:"attention"`
}

// EventRow is one line of events.csv.
type EventRow struct {
	At         int64  `csv:"at_ms"`
	Kind       string `csv:"kind"`
	Stage      string `csv:"stage"`
	AgeMinutes uint64 `csv:"age_minutes"`
}

// Recorder writes ticks.csv and events.csv under a directory. A nil Recorder
// discards everything, so callers need not check whether output is enabled.
type Recorder struct {
	dir string

	mu                 sync.Mutex
	tickFile           *os.File
	eventFile          *os.File
	tickHeaderWritten  bool
	eventHeaderWritten bool
}

// NewRecorder opens (appending) the CSV files under dir.
// Returns nil if dir is empty (output disabled).
func NewRecorder(dir string) (*Recorder, error) {
	if dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating telemetry directory: %w", err)
	}

	r := &Recorder{dir: dir}
	var err error
	r.tickFile, r.tickHeaderWritten, err = openAppend(filepath.Join(dir, "ticks.csv"))
	if err != nil {
		return nil, err
	}
	r.eventFile, r.eventHeaderWritten, err = openAppend(filepath.Join(dir, "events.csv"))
	if err != nil {
		r.tickFile.Close()
		return nil, err
	}
	return r, nil
}

// openAppend reports whether the file already has content, and so a header.
func openAppend(path string) (*os.File, bool, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, false, fmt.Errorf("opening %s: %w", filepath.Base(path), err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, false, fmt.Errorf("stat %s: %w", filepath.Base(path), err)
	}
	return f, info.Size() > 0, nil
}

// NewTickRow flattens a snapshot.
func NewTickRow(s pet.Snapshot) TickRow {
	return TickRow{
		At:         s.LastUpdate,
		Name:       s.Name,
		AgeMinutes: s.AgeMinutes,
		Stage:      s.StageName,
		Mood:       s.MoodName,
		Hunger:     s.Hunger,
		Happiness:  s.Happiness,
		Health:     s.Health,
		Energy:     s.Energy,
		Weight:     s.Weight,
		PoopCount:  s.PoopCount,
		Sick:       s.IsSick,
		Sleeping:   s.IsSleeping,
		Attention:  s.Attention,
	}
}

// WriteTick appends one tick row.
func (r *Recorder) WriteTick(s pet.Snapshot) error {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := writeRows(r.tickFile, []TickRow{NewTickRow(s)}, &r.tickHeaderWritten); err != nil {
		return fmt.Errorf("writing tick: %w", err)
	}
	return nil
}

// WriteEvent appends one event row.
func (r *Recorder) WriteEvent(e pet.Event, ageMinutes uint64) error {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	row := EventRow{At: e.At, Kind: e.Kind.String(), Stage: e.Stage.String(), AgeMinutes: ageMinutes}
	if err := writeRows(r.eventFile, []EventRow{row}, &r.eventHeaderWritten); err != nil {
		return fmt.Errorf("writing event: %w", err)
	}
	return nil
}

func writeRows(f *os.File, rows any, headerWritten *bool) error {
	if !*headerWritten {
		// First write includes headers
		if err := gocsv.Marshal(rows, f); err != nil {
			return err
		}
		*headerWritten = true
		return nil
	}
	return gocsv.MarshalWithoutHeaders(rows, f)
}

// Dir returns the output directory path.
func (r *Recorder) Dir() string {
	if r == nil {
		return ""
	}
	return r.dir
}

// Close closes both files.
func (r *Recorder) Close() error {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	var firstErr error
	for _, f := range []*os.File{r.tickFile, r.eventFile} {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
