package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ChamsBouzaiene/recap/internal/records"
)

func newTestLoader(t *testing.T) (*Loader, *records.Store) {
	t.Helper()
	dir := t.TempDir()

	store, err := records.NewStore(context.Background(), filepath.Join(dir, "records.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	index, err := records.OpenSearchIndex(filepath.Join(dir, "search.bleve"))
	if err != nil {
		t.Fatalf("OpenSearchIndex: %v", err)
	}
	t.Cleanup(func() { index.Close() })

	return NewLoader(store, index), store
}

func writeExport(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "export.jsonl")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoadFile(t *testing.T) {
	loader, store := newTestLoader(t)

	path := writeExport(t, `{"chat":"family","sender":"alice","ts":1767225600,"content":"happy new year"}
{"chat":"family","sender":"bob","ts":1767225660,"content":"same to you"}

{"chat":"work","sender":"carol","ts":1767225720,"content":"back on the 5th"}
`)

	count, err := loader.LoadFile(context.Background(), path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if count != 3 {
		t.Errorf("expected 3 records imported, got %d", count)
	}

	recs, err := store.Since(context.Background(), "family", nil, time.Unix(0, 0))
	if err != nil {
		t.Fatalf("Since: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 family records, got %d", len(recs))
	}
	if recs[0].Sender != "alice" || recs[0].Content != "happy new year" {
		t.Errorf("unexpected first record: %+v", recs[0])
	}
	if !recs[0].Timestamp.Equal(time.Unix(1767225600, 0)) {
		t.Errorf("unexpected timestamp: %v", recs[0].Timestamp)
	}
}

func TestLoadFileRejectsMalformedLine(t *testing.T) {
	loader, store := newTestLoader(t)

	path := writeExport(t, `{"chat":"family","sender":"alice","ts":1,"content":"ok"}
not json at all
`)

	_, err := loader.LoadFile(context.Background(), path)
	if err == nil {
		t.Fatal("expected an error for a malformed line")
	}
	if got := err.Error(); !strings.Contains(got, "line 2") {
		t.Errorf("error should name the offending line, got %q", got)
	}

	// A failed import must persist nothing, even for the lines that
	// parsed before the malformed one.
	if _, err := store.Since(context.Background(), "family", nil, time.Unix(0, 0)); !errors.Is(err, records.ErrNoRecords) {
		t.Errorf("store should be untouched after a failed import, got %v", err)
	}
}

func TestLoadFileRetryAfterTruncatedExport(t *testing.T) {
	loader, store := newTestLoader(t)
	path := filepath.Join(t.TempDir(), "export.jsonl")

	// First attempt sees a half-written export: the second line is cut off
	// mid-record, the way a watcher debounce can fire before the writer
	// finishes.
	truncated := `{"chat":"family","sender":"alice","ts":1,"content":"first"}
{"chat":"family","sender":"bob","ts":2,"content":"sec`
	if err := os.WriteFile(path, []byte(truncated), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := loader.LoadFile(context.Background(), path); err == nil {
		t.Fatal("expected an error for the truncated export")
	}

	// The writer finishes; the retry must import exactly the two records,
	// not duplicate what the failed attempt saw.
	complete := `{"chat":"family","sender":"alice","ts":1,"content":"first"}
{"chat":"family","sender":"bob","ts":2,"content":"second"}
`
	if err := os.WriteFile(path, []byte(complete), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	count, err := loader.LoadFile(context.Background(), path)
	if err != nil {
		t.Fatalf("LoadFile retry: %v", err)
	}
	if count != 2 {
		t.Errorf("retry imported %d records, want 2", count)
	}

	recs, err := store.Since(context.Background(), "family", nil, time.Unix(0, 0))
	if err != nil {
		t.Fatalf("Since: %v", err)
	}
	if len(recs) != 2 {
		t.Errorf("store holds %d records after retry, want 2", len(recs))
	}
}

func TestLoadFileFromResumesAtOffset(t *testing.T) {
	loader, store := newTestLoader(t)
	path := filepath.Join(t.TempDir(), "export.jsonl")

	first := "{\"chat\":\"family\",\"sender\":\"alice\",\"ts\":1,\"content\":\"first\"}\n"
	if err := os.WriteFile(path, []byte(first), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	count, offset, err := loader.LoadFileFrom(context.Background(), path, 0)
	if err != nil {
		t.Fatalf("LoadFileFrom: %v", err)
	}
	if count != 1 || offset != int64(len(first)) {
		t.Fatalf("initial import = %d records, offset %d, want 1 and %d", count, offset, len(first))
	}

	// The export grows; resuming at the returned offset imports only the
	// appended record.
	second := "{\"chat\":\"family\",\"sender\":\"bob\",\"ts\":2,\"content\":\"second\"}\n"
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	if _, err := f.WriteString(second); err != nil {
		t.Fatalf("WriteString: %v", err)
	}
	f.Close()

	count, offset, err = loader.LoadFileFrom(context.Background(), path, offset)
	if err != nil {
		t.Fatalf("LoadFileFrom resume: %v", err)
	}
	if count != 1 || offset != int64(len(first)+len(second)) {
		t.Errorf("resumed import = %d records, offset %d, want 1 and %d", count, offset, len(first)+len(second))
	}

	recs, err := store.Since(context.Background(), "family", nil, time.Unix(0, 0))
	if err != nil {
		t.Fatalf("Since: %v", err)
	}
	if len(recs) != 2 {
		t.Errorf("store holds %d records, want 2", len(recs))
	}
}

func TestLoadFileRejectsMissingFields(t *testing.T) {
	loader, _ := newTestLoader(t)

	path := writeExport(t, `{"sender":"alice","ts":1,"content":"no chat"}`)

	if _, err := loader.LoadFile(context.Background(), path); err == nil {
		t.Error("expected an error for a line without a chat")
	}
}

func TestLoadFileMissingFile(t *testing.T) {
	loader, _ := newTestLoader(t)
	if _, err := loader.LoadFile(context.Background(), "/nonexistent/export.jsonl"); err == nil {
		t.Error("expected an error for a missing file")
	}
}
