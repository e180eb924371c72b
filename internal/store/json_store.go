package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/moby/sys/atomicwriter"
	"github.com/thep200/devfolio-sync/internal/model"
)

// ErrCorrupt wraps a store file that exists but is not a JSON record array.
var ErrCorrupt = errors.New("portfolio store is not valid JSON")

// JSONStore keeps the records as a 2-space indented JSON array in one file.
type JSONStore struct {
	Path string
}

func NewJSONStore(path string) *JSONStore {
	return &JSONStore{Path: path}
}

// Load returns an empty set when the file does not exist yet.
func (s *JSONStore) Load(ctx context.Context) ([]model.Portfolio, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return []model.Portfolio{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.Path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return []model.Portfolio{}, nil
	}

	var portfolios []model.Portfolio
	if err := json.Unmarshal(data, &portfolios); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, s.Path, err)
	}
	if portfolios == nil {
		portfolios = []model.Portfolio{}
	}
	return portfolios, nil
}

// Save sorts a copy of portfolios by username and replaces the file
// through a rename, so readers see either the old or the new content.
func (s *JSONStore) Save(ctx context.Context, portfolios []model.Portfolio) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	records := make([]model.Portfolio, len(portfolios))
	copy(records, portfolios)
	for i := range records {
		records[i].Normalize()
	}
	model.SortByUsername(records)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encode portfolios: %w", err)
	}

	return WriteFileAtomic(s.Path, buf.Bytes())
}

// WriteFileAtomic creates the parent directories of path, then replaces
// path with data through a temp file and rename.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	if err := atomicwriter.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
