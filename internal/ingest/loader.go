// Package ingest loads exported chat history into the records store, either
// from a one-shot file import or by watching a drop directory.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ChamsBouzaiene/recap/internal/records"
)

// exportLine is one line of a JSONL chat export.
type exportLine struct {
	Chat    string `json:"chat"`
	Sender  string `json:"sender"`
	Ts      int64  `json:"ts"` // unix seconds
	Content string `json:"content"`
}

// Loader parses chat exports and persists them.
type Loader struct {
	store *records.Store
	index *records.SearchIndex // optional
}

// NewLoader creates a loader writing to store and, when index is non-nil,
// mirroring each record into the search index.
func NewLoader(store *records.Store, index *records.SearchIndex) *Loader {
	return &Loader{store: store, index: index}
}

// LoadFile imports a whole JSONL export file and returns the number of
// records stored.
func (l *Loader) LoadFile(ctx context.Context, path string) (int, error) {
	count, _, err := l.LoadFileFrom(ctx, path, 0)
	return count, err
}

// LoadFileFrom imports the export content starting at byte offset and
// returns the number of records stored plus the offset consumed up to, for
// incremental re-imports of a growing export. The whole remainder is parsed
// before anything is persisted and the records go in as one transaction, so
// a malformed or truncated line leaves the store untouched and the import
// can be retried once the file is whole. Blank lines are skipped.
func (l *Loader) LoadFileFrom(ctx context.Context, path string, offset int64) (int, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, offset, fmt.Errorf("failed to open export: %w", err)
	}
	defer f.Close()

	if offset > 0 {
		if _, err := f.Seek(offset, io.SeekStart); err != nil {
			return 0, offset, fmt.Errorf("failed to seek export: %w", err)
		}
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return 0, offset, fmt.Errorf("failed to read export: %w", err)
	}
	if len(data) == 0 {
		return 0, offset, nil
	}

	var parsed []records.Record
	for i, raw := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(raw) == "" {
			continue
		}

		var line exportLine
		if err := json.Unmarshal([]byte(raw), &line); err != nil {
			return 0, offset, fmt.Errorf("line %d: malformed export line: %w", i+1, err)
		}
		if line.Chat == "" || line.Sender == "" {
			return 0, offset, fmt.Errorf("line %d: export line missing chat or sender", i+1)
		}

		parsed = append(parsed, records.Record{
			Chat:      line.Chat,
			Sender:    line.Sender,
			Timestamp: time.Unix(line.Ts, 0).UTC(),
			Content:   line.Content,
		})
	}

	ids, err := l.store.AppendBatch(ctx, parsed)
	if err != nil {
		return 0, offset, err
	}
	for i := range parsed {
		parsed[i].ID = ids[i]
	}

	consumed := offset + int64(len(data))
	if l.index != nil && len(parsed) > 0 {
		// The store already committed; report the consumed offset so a
		// retry does not re-import the records.
		if err := l.index.IndexBatch(parsed); err != nil {
			return len(parsed), consumed, fmt.Errorf("failed to index import: %w", err)
		}
	}
	return len(parsed), consumed, nil
}
