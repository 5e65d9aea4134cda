package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/moorebrett0/tidepet/internal/config"
	"github.com/moorebrett0/tidepet/internal/pet"
)

func sampleState() pet.PetState {
	s := pet.NewState("Flip", "dolphin", 1_700_000_000_000)
	s.Stage = pet.StageChild
	s.AgeMinutes = 2000
	s.Hunger = 33
	s.Happiness = 71
	s.Health = 88
	s.Energy = 12
	s.Weight = 27
	s.Activity = pet.ActivitySleeping
	s.IsSleeping = true
	s.SleepStart = 1_700_000_100_000
	s.IsSick = true
	s.PoopCount = 2
	s.HasPoop = true
	s.GamesWon = 3
	s.GamesPlayed = 5
	s.TimesFed = 9
	s.TimesPlayed = 5
	s.TimesCleaned = 4
	s.TimesMedicated = 1
	return s
}

func backends(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()
	sq, err := OpenSQLite(filepath.Join(dir, "pet.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { sq.Close() })
	return map[string]Store{
		"json":   NewFileStore(filepath.Join(dir, "pet.json")),
		"zstd":   NewFileStore(filepath.Join(dir, "nested", "pet.json.zst")),
		"sqlite": sq,
	}
}

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if _, _, err := st.Load(ctx); !errors.Is(err, ErrNotFound) {
				t.Fatalf("empty load err = %v, want ErrNotFound", err)
			}

			want := sampleState()
			savedAt := time.UnixMilli(1_700_000_200_000)
			if err := st.Save(ctx, want, savedAt); err != nil {
				t.Fatalf("Save: %v", err)
			}
			got, gotAt, err := st.Load(ctx)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if !gotAt.Equal(savedAt) {
				t.Fatalf("saved_at = %v, want %v", gotAt, savedAt)
			}
			if !reflect.DeepEqual(got, want) {
				t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, want)
			}

			// Saving again replaces rather than appends.
			want.Hunger = 1
			if err := st.Save(ctx, want, savedAt.Add(time.Minute)); err != nil {
				t.Fatalf("second Save: %v", err)
			}
			got, _, _ = st.Load(ctx)
			if got.Hunger != 1 {
				t.Fatalf("hunger = %d after overwrite", got.Hunger)
			}

			if err := st.Delete(ctx); err != nil {
				t.Fatalf("Delete: %v", err)
			}
			if _, _, err := st.Load(ctx); !errors.Is(err, ErrNotFound) {
				t.Fatalf("load after delete err = %v", err)
			}
			if err := st.Delete(ctx); err != nil {
				t.Fatalf("second Delete: %v", err)
			}
		})
	}
}

func TestDerivedFieldsNotTrusted(t *testing.T) {
	ctx := context.Background()
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := sampleState()
			s.PoopCount = 0
			s.HasPoop = true
			s.Mood = pet.MoodHappy
			s.AttentionNeeded = true
			if err := st.Save(ctx, s, time.UnixMilli(0)); err != nil {
				t.Fatalf("Save: %v", err)
			}
			got, _, err := st.Load(ctx)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if got.HasPoop {
				t.Fatal("HasPoop should be re-derived from PoopCount")
			}
			if got.Mood != pet.MoodNormal || got.AttentionNeeded {
				t.Fatalf("derived fields persisted: mood=%v attention=%v", got.Mood, got.AttentionNeeded)
			}
		})
	}
}

func TestFileStoreZstdIsCompressed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pet.json.zst")
	if err := NewFileStore(path).Save(context.Background(), sampleState(), time.Now()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	// zstd frame magic
	if len(raw) < 4 || raw[0] != 0x28 || raw[1] != 0xb5 || raw[2] != 0x2f || raw[3] != 0xfd {
		t.Fatalf("file does not start with a zstd frame: % x", raw[:min(4, len(raw))])
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatal("tmp file left behind")
	}
}

func TestFileStoreRejectsBadDocuments(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr error
		wantMsg string
	}{
		{"not json", `{{{`, nil, "parse save"},
		{"missing pet", `{"version":1,"saved_at":0}`, nil, "validate save"},
		{"stat out of range", strings.Replace(validDoc, `"hunger": 50`, `"hunger": 150`, 1), nil, "validate save"},
		{"unknown stage", strings.Replace(validDoc, `"stage": "baby"`, `"stage": "elder"`, 1), nil, "validate save"},
		{"future version", strings.Replace(validDoc, `"version": 1`, `"version": 2`, 1), ErrVersionMismatch, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "pet.json")
			if err := os.WriteFile(path, []byte(tt.body), 0o644); err != nil {
				t.Fatal(err)
			}
			_, _, err := NewFileStore(path).Load(context.Background())
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if tt.wantMsg != "" && !strings.Contains(err.Error(), tt.wantMsg) {
				t.Fatalf("err = %v, want it to mention %q", err, tt.wantMsg)
			}
		})
	}

	path := filepath.Join(t.TempDir(), "pet.json")
	os.WriteFile(path, []byte(validDoc), 0o644)
	s, at, err := NewFileStore(path).Load(context.Background())
	if err != nil {
		t.Fatalf("valid doc rejected: %v", err)
	}
	if s.Name != "Bubbles" || s.Stage != pet.StageBaby || at.UnixMilli() != 60000 {
		t.Fatalf("decoded %+v at %v", s, at)
	}
}

const validDoc = `{
  "version": 1,
  "saved_at": 60000,
  "pet": {
    "name": "Bubbles",
    "species_id": "seal",
    "hunger": 50,
    "happiness": 50,
    "health": 100,
    "energy": 100,
    "weight": 20,
    "discipline": 0,
    "stage": "baby",
    "age_minutes": 3,
    "activity": "idle",
    "poop_count": 0,
    "last_update": 0
  }
}`

func TestSQLiteVersionMismatch(t *testing.T) {
	ctx := context.Background()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "pet.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	if err := db.Save(ctx, sampleState(), time.Now()); err != nil {
		t.Fatal(err)
	}
	if _, err := db.conn.Exec("UPDATE pet SET version = 99"); err != nil {
		t.Fatal(err)
	}
	if _, _, err := db.Load(ctx); !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("err = %v, want ErrVersionMismatch", err)
	}
}

func TestSQLitePragmas(t *testing.T) {
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "pet.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	var mode string
	if err := db.conn.Get(&mode, "PRAGMA journal_mode"); err != nil {
		t.Fatal(err)
	}
	if mode != "wal" {
		t.Fatalf("journal_mode = %q, want wal", mode)
	}
	var timeout int
	if err := db.conn.Get(&timeout, "PRAGMA busy_timeout"); err != nil {
		t.Fatal(err)
	}
	if timeout != 5000 {
		t.Fatalf("busy_timeout = %d, want 5000", timeout)
	}
}

func TestSQLiteEvents(t *testing.T) {
	ctx := context.Background()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "pet.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	var log EventLog = db
	log.RecordEvent(ctx, pet.Event{Kind: pet.EventHatched, Stage: pet.StageBaby, At: 1}, 2)
	log.RecordEvent(ctx, pet.Event{Kind: pet.EventPooped, Stage: pet.StageBaby, At: 2}, 40)
	log.RecordEvent(ctx, pet.Event{Kind: pet.EventFellSick, Stage: pet.StageBaby, At: 3}, 41)

	got, err := log.RecentEvents(ctx, 2)
	if err != nil {
		t.Fatalf("RecentEvents: %v", err)
	}
	if len(got) != 2 || got[0].Kind != "fell_sick" || got[1].Kind != "pooped" {
		t.Fatalf("recent = %+v", got)
	}
	if got[0].Stage != "baby" || got[0].PetAge != 41 || got[0].At != 3 {
		t.Fatalf("record = %+v", got[0])
	}

	if err := db.Delete(ctx); err != nil {
		t.Fatal(err)
	}
	got, _ = log.RecentEvents(ctx, 10)
	if len(got) != 0 {
		t.Fatalf("events survived delete: %+v", got)
	}
}

func TestOfflineMinutes(t *testing.T) {
	base := time.Unix(1_700_000_000, 0)
	tests := []struct {
		name string
		now  time.Time
		want uint64
	}{
		{"same instant", base, 0},
		{"clock went backwards", base.Add(-time.Hour), 0},
		{"partial minute", base.Add(59 * time.Second), 0},
		{"whole minutes", base.Add(3*time.Minute + 30*time.Second), 3},
		{"two days", base.Add(48 * time.Hour), 2880},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := OfflineMinutes(base, tt.now); got != tt.want {
				t.Fatalf("OfflineMinutes = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestOpenPicksBackend(t *testing.T) {
	dir := t.TempDir()

	st, err := Open(config.StoreConfig{Driver: "file", Path: filepath.Join(dir, "a.json")})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := st.(*FileStore); !ok {
		t.Fatalf("file driver gave %T", st)
	}

	st, err = Open(config.StoreConfig{Driver: "sqlite", Path: filepath.Join(dir, "a.db")})
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()
	if _, ok := st.(EventLog); !ok {
		t.Fatalf("sqlite store %T does not keep events", st)
	}

	if _, err := Open(config.StoreConfig{Driver: "redis", Path: "x"}); err == nil {
		t.Fatal("unknown driver accepted")
	}
}
