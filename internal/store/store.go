// Package store persists a pet between runs.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/moorebrett0/tidepet/internal/config"
	"github.com/moorebrett0/tidepet/internal/pet"
)

// SaveVersion is written into every save. Loads of any other version fail.
const SaveVersion = 1

var (
	ErrNotFound        = errors.New("store: no saved pet")
	ErrVersionMismatch = errors.New("store: save version mismatch")
)

// Store loads and saves the single pet.
type Store interface {
	Load(ctx context.Context) (pet.PetState, time.Time, error)
	Save(ctx context.Context, s pet.PetState, savedAt time.Time) error
	Delete(ctx context.Context) error
	Close() error
}

// EventRecord is one persisted life event.
type EventRecord struct {
	ID     int64  `json:"id" db:"id"`
	Kind   string `json:"kind" db:"kind"`
	Stage  string `json:"stage" db:"stage"`
	At     int64  `json:"at" db:"at"`
	PetAge uint64 `json:"age_minutes" db:"age_minutes"`
}

// EventLog is implemented by stores that keep an event history.
type EventLog interface {
	RecordEvent(ctx context.Context, e pet.Event, ageMinutes uint64) error
	RecentEvents(ctx context.Context, limit int) ([]EventRecord, error)
}

// Open returns the backend selected by cfg.Driver.
func Open(cfg config.StoreConfig) (Store, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", "file":
		return NewFileStore(cfg.Path), nil
	case "sqlite":
		return OpenSQLite(cfg.Path)
	default:
		return nil, fmt.Errorf("store: unknown driver %q", cfg.Driver)
	}
}

// OfflineMinutes is the whole number of minutes between savedAt and now,
// or 0 if the clock went backwards.
func OfflineMinutes(savedAt, now time.Time) uint64 {
	d := now.Sub(savedAt)
	if d <= 0 {
		return 0
	}
	return uint64(d / time.Minute)
}

// prepareLoaded refreshes fields that are derived rather than trusted from disk.
func prepareLoaded(s pet.PetState) pet.PetState {
	s.Normalize()
	return s
}
