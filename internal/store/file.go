package store

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/moorebrett0/tidepet/internal/pet"
)

//go:embed save.schema.json
var saveSchemaJSON string

var saveSchema = jsonschema.MustCompileString("save.schema.json", saveSchemaJSON)

// saveDoc is the on-disk layout of a FileStore save.
type saveDoc struct {
	Version int          `json:"version"`
	SavedAt int64        `json:"saved_at"` // unix ms
	Pet     pet.PetState `json:"pet"`
}

// FileStore keeps the pet in a single JSON document, zstd-compressed when
// the path ends in ".zst".
type FileStore struct {
	path string
	mu   sync.Mutex
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (f *FileStore) Path() string { return f.path }

func (f *FileStore) compressed() bool {
	return strings.HasSuffix(f.path, ".zst")
}

func (f *FileStore) Load(ctx context.Context) (pet.PetState, time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	raw, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return pet.PetState{}, time.Time{}, ErrNotFound
		}
		return pet.PetState{}, time.Time{}, fmt.Errorf("read save: %w", err)
	}

	if f.compressed() {
		raw, err = decompress(raw)
		if err != nil {
			return pet.PetState{}, time.Time{}, err
		}
	}

	doc, err := decodeSave(raw)
	if err != nil {
		return pet.PetState{}, time.Time{}, err
	}
	return prepareLoaded(doc.Pet), time.UnixMilli(doc.SavedAt), nil
}

// decodeSave checks the document against the save schema and its version
// before trusting any field of it.
func decodeSave(raw []byte) (saveDoc, error) {
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return saveDoc{}, fmt.Errorf("parse save: %w", err)
	}
	if err := saveSchema.Validate(generic); err != nil {
		return saveDoc{}, fmt.Errorf("validate save: %w", err)
	}

	var doc saveDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return saveDoc{}, fmt.Errorf("unmarshal save: %w", err)
	}
	if doc.Version != SaveVersion {
		return saveDoc{}, fmt.Errorf("%w: got %d, want %d", ErrVersionMismatch, doc.Version, SaveVersion)
	}
	return doc, nil
}

// Save writes the state atomically (write tmp, then rename).
func (f *FileStore) Save(ctx context.Context, s pet.PetState, savedAt time.Time) error {
	data, err := json.MarshalIndent(saveDoc{
		Version: SaveVersion,
		SavedAt: savedAt.UnixMilli(),
		Pet:     s,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal save: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if dir := filepath.Dir(f.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create save dir: %w", err)
		}
	}

	tmp := f.path + ".tmp"
	if err := writeSaveFile(tmp, data, f.compressed()); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("rename save: %w", err)
	}
	return nil
}

func writeSaveFile(path string, data []byte, compress bool) error {
	out, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("write tmp save: %w", err)
	}

	var w io.Writer = out
	var enc *zstd.Encoder
	if compress {
		enc, err = zstd.NewWriter(out, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			out.Close()
			return fmt.Errorf("zstd writer: %w", err)
		}
		w = enc
	}

	if _, err := w.Write(data); err != nil {
		out.Close()
		return fmt.Errorf("write tmp save: %w", err)
	}
	if enc != nil {
		if err := enc.Close(); err != nil {
			out.Close()
			return fmt.Errorf("zstd flush: %w", err)
		}
	}
	if err := out.Sync(); err != nil {
		out.Close()
		return fmt.Errorf("sync tmp save: %w", err)
	}
	return out.Close()
}

func decompress(raw []byte) ([]byte, error) {
	dec, err := zstd.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("zstd reader: %w", err)
	}
	defer dec.Close()

	out, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("zstd decode: %w", err)
	}
	return out, nil
}

func (f *FileStore) Delete(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete save: %w", err)
	}
	return nil
}

func (f *FileStore) Close() error { return nil }
