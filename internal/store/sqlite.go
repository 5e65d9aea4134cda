package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/moorebrett0/tidepet/internal/pet"
)

// SQLiteStore keeps the pet in a single-row table and appends every life
// event to an events table.
type SQLiteStore struct {
	conn *sqlx.DB
}

// petRow is the pet table. The embedded state maps by its db tags.
type petRow struct {
	ID      int   `db:"id"`
	Version int   `db:"version"`
	SavedAt int64 `db:"saved_at"`
	pet.PetState
}

// sqliteParams are applied by the driver to every new connection. The
// modernc driver only understands _pragma; mattn-style keys are ignored.
const sqliteParams = "?_pragma=journal_mode(WAL)" +
	"&_pragma=synchronous(NORMAL)" +
	"&_pragma=busy_timeout(5000)"

// OpenSQLite opens or creates a SQLite database at the given path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	conn, err := sqlx.Open("sqlite", path+sqliteParams)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// One writer at a time keeps SQLITE_BUSY out of the autosave path.
	conn.SetMaxOpenConns(1)

	db := &SQLiteStore{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

func (db *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS pet (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		version INTEGER NOT NULL,
		saved_at INTEGER NOT NULL,
		name TEXT NOT NULL,
		species_id TEXT NOT NULL,
		hunger INTEGER NOT NULL,
		happiness INTEGER NOT NULL,
		health INTEGER NOT NULL,
		energy INTEGER NOT NULL,
		weight INTEGER NOT NULL,
		discipline INTEGER NOT NULL,
		stage INTEGER NOT NULL,
		age_minutes INTEGER NOT NULL,
		activity INTEGER NOT NULL,
		is_sick INTEGER NOT NULL,
		has_poop INTEGER NOT NULL,
		is_sleeping INTEGER NOT NULL,
		poop_count INTEGER NOT NULL,
		last_update INTEGER NOT NULL,
		last_fed INTEGER NOT NULL,
		last_played INTEGER NOT NULL,
		last_poop INTEGER NOT NULL,
		sleep_start INTEGER NOT NULL,
		games_won INTEGER NOT NULL,
		games_played INTEGER NOT NULL,
		times_fed INTEGER NOT NULL,
		times_played INTEGER NOT NULL,
		times_cleaned INTEGER NOT NULL,
		times_medicated INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		kind TEXT NOT NULL,
		stage TEXT NOT NULL,
		at INTEGER NOT NULL,
		age_minutes INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_at ON events(at);
	`
	_, err := db.conn.Exec(schema)
	return err
}

const petColumns = `id, version, saved_at, name, species_id, hunger, happiness, health, energy,
	weight, discipline, stage, age_minutes, activity, is_sick, has_poop, is_sleeping, poop_count,
	last_update, last_fed, last_played, last_poop, sleep_start, games_won, games_played,
	times_fed, times_played, times_cleaned, times_medicated`

func (db *SQLiteStore) Load(ctx context.Context) (pet.PetState, time.Time, error) {
	var row petRow
	err := db.conn.GetContext(ctx, &row, "SELECT "+petColumns+" FROM pet WHERE id = 1")
	if errors.Is(err, sql.ErrNoRows) {
		return pet.PetState{}, time.Time{}, ErrNotFound
	}
	if err != nil {
		return pet.PetState{}, time.Time{}, fmt.Errorf("select pet: %w", err)
	}
	if row.Version != SaveVersion {
		return pet.PetState{}, time.Time{}, fmt.Errorf("%w: got %d, want %d", ErrVersionMismatch, row.Version, SaveVersion)
	}
	return prepareLoaded(row.PetState), time.UnixMilli(row.SavedAt), nil
}

// Save replaces the single pet row.
func (db *SQLiteStore) Save(ctx context.Context, s pet.PetState, savedAt time.Time) error {
	row := petRow{ID: 1, Version: SaveVersion, SavedAt: savedAt.UnixMilli(), PetState: s}
	_, err := db.conn.NamedExecContext(ctx, `INSERT OR REPLACE INTO pet (`+petColumns+`) VALUES (
		:id, :version, :saved_at, :name, :species_id, :hunger, :happiness, :health, :energy,
		:weight, :discipline, :stage, :age_minutes, :activity, :is_sick, :has_poop, :is_sleeping, :poop_count,
		:last_update, :last_fed, :last_played, :last_poop, :sleep_start, :games_won, :games_played,
		:times_fed, :times_played, :times_cleaned, :times_medicated)`, row)
	if err != nil {
		return fmt.Errorf("save pet: %w", err)
	}
	return nil
}

// Delete removes the pet and its event history.
func (db *SQLiteStore) Delete(ctx context.Context) error {
	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM pet"); err != nil {
		return fmt.Errorf("delete pet: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM events"); err != nil {
		return fmt.Errorf("delete events: %w", err)
	}
	return tx.Commit()
}

// RecordEvent appends one life event.
func (db *SQLiteStore) RecordEvent(ctx context.Context, e pet.Event, ageMinutes uint64) error {
	stage, _ := e.Stage.MarshalText()
	_, err := db.conn.ExecContext(ctx,
		"INSERT INTO events (kind, stage, at, age_minutes) VALUES (?, ?, ?, ?)",
		e.Kind.String(), string(stage), e.At, ageMinutes,
	)
	if err != nil {
		return fmt.Errorf("record event: %w", err)
	}
	return nil
}

// RecentEvents returns the most recent events, newest first.
func (db *SQLiteStore) RecentEvents(ctx context.Context, limit int) ([]EventRecord, error) {
	events := []EventRecord{}
	err := db.conn.SelectContext(ctx, &events,
		"SELECT id, kind, stage, at, age_minutes FROM events ORDER BY id DESC LIMIT ?",
		limit,
	)
	return events, err
}

// Close closes the database connection.
func (db *SQLiteStore) Close() error {
	return db.conn.Close()
}
