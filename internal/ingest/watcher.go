package ingest

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher watches a drop directory for new chat exports and imports them.
type Watcher struct {
	dir          string
	loader       *Loader
	watcher      *fsnotify.Watcher
	debounceTime time.Duration
	mu           sync.Mutex
	pending      map[string]bool
	offsets      map[string]int64 // bytes already imported per file
	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
}

// NewWatcher creates a watcher over dir. Only *.jsonl files are imported.
func NewWatcher(dir string, loader *Loader) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		dir:     dir,
		loader:  loader,
		watcher: fw,
		// Writers drop exports in one go, but give them a moment to finish.
		debounceTime: 500 * time.Millisecond,
		pending:      make(map[string]bool),
		offsets:      make(map[string]int64),
		ctx:          ctx,
		cancel:       cancel,
	}, nil
}

// Start begins watching the drop directory.
func (w *Watcher) Start() error {
	if err := w.watcher.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}

	w.wg.Add(2)
	go w.eventLoop()
	go w.debounceLoop()
	return nil
}

// Stop stops the watcher and waits for in-flight imports.
func (w *Watcher) Stop() error {
	w.cancel()
	w.wg.Wait()
	return w.watcher.Close()
}

func (w *Watcher) eventLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("⚠️  Watcher error: %v", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !strings.HasSuffix(event.Name, ".jsonl") {
		return
	}
	if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) {
		w.mu.Lock()
		w.pending[event.Name] = true
		w.mu.Unlock()
	}
}

func (w *Watcher) debounceLoop() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.debounceTime)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return

		case <-ticker.C:
			w.processPending()
		}
	}
}

func (w *Watcher) processPending() {
	w.mu.Lock()
	if len(w.pending) == 0 {
		w.mu.Unlock()
		return
	}
	paths := make([]string, 0, len(w.pending))
	for path := range w.pending {
		paths = append(paths, path)
	}
	w.pending = make(map[string]bool)
	w.mu.Unlock()

	for _, path := range paths {
		w.mu.Lock()
		offset := w.offsets[path]
		w.mu.Unlock()

		// Resume from the last imported byte so records appended to a
		// previously imported export are picked up without duplicating
		// the earlier ones. A failed attempt leaves the offset (and the
		// store) untouched and is retried on the next event.
		count, newOffset, err := w.loader.LoadFileFrom(w.ctx, path, offset)

		w.mu.Lock()
		w.offsets[path] = newOffset
		w.mu.Unlock()

		if err != nil {
			log.Printf("⚠️  Failed to import %s: %v", filepath.Base(path), err)
			continue
		}
		if count > 0 {
			log.Printf("📥 Imported %d records from %s", count, filepath.Base(path))
		}
	}
}
