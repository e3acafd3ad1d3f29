// Package report persists finished digests so past analyses can be listed
// and re-read without re-running the pipeline.
package report

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Report is one finished digest of a chat window.
type Report struct {
	ID           string    `json:"id"`
	Chat         string    `json:"chat"`
	Task         string    `json:"task"`
	Participants []string  `json:"participants,omitempty"`
	From         time.Time `json:"from"`
	To           time.Time `json:"to"`
	Analysis     string    `json:"analysis"`
	CreatedAt    time.Time `json:"created_at"`
}

// Meta is the listing view of a report, without the analysis body.
type Meta struct {
	ID        string    `json:"id"`
	Chat      string    `json:"chat"`
	Task      string    `json:"task"`
	CreatedAt time.Time `json:"created_at"`
}

// Store handles persistence of reports, grouped per chat.
type Store struct {
	basePath string
}

// NewStore creates a report store rooted at configPath (typically ~/.config/recap).
func NewStore(configPath string) *Store {
	return &Store{
		basePath: filepath.Join(configPath, "reports"),
	}
}

// ChatHash generates a consistent directory name for a chat. Chat names come
// from user exports and may contain characters unfit for paths.
func (s *Store) ChatHash(chat string) string {
	hash := sha256.Sum256([]byte(chat))
	return hex.EncodeToString(hash[:])[:12] // Short hash is sufficient
}

// Save persists a report, assigning an ID and creation time if unset.
func (s *Store) Save(report *Report) error {
	if report.ID == "" {
		report.ID = uuid.New().String()
	}
	if report.CreatedAt.IsZero() {
		report.CreatedAt = time.Now().UTC()
	}

	dir := filepath.Join(s.basePath, s.ChatHash(report.Chat))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}

	filename := filepath.Join(dir, fmt.Sprintf("%s.json", report.ID))
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write report file: %w", err)
	}

	return nil
}

// Load retrieves a specific report of a chat.
func (s *Store) Load(id string, chat string) (*Report, error) {
	filename := filepath.Join(s.basePath, s.ChatHash(chat), fmt.Sprintf("%s.json", id))

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read report file: %w", err)
	}

	var report Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report: %w", err)
	}

	return &report, nil
}

// List returns all reports for a chat, newest first.
func (s *Store) List(chat string) ([]Meta, error) {
	dir := filepath.Join(s.basePath, s.ChatHash(chat))

	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return []Meta{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list report directory: %w", err)
	}

	var metas []Meta
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			continue // Skip unreadable files
		}

		var report Report
		if err := json.Unmarshal(data, &report); err != nil {
			continue // Skip invalid files
		}

		metas = append(metas, Meta{
			ID:        report.ID,
			Chat:      report.Chat,
			Task:      report.Task,
			CreatedAt: report.CreatedAt,
		})
	}

	sort.Slice(metas, func(i, j int) bool {
		return metas[i].CreatedAt.After(metas[j].CreatedAt)
	})

	return metas, nil
}
