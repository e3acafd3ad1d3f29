// Package records persists timestamped chat records and turns them into the
// annotated transcript the condensation pipeline consumes.
package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNoRecords is returned when a query window contains no records. It is a
// defined empty result, not a failure: callers answer "no data" instead of
// reporting an error.
var ErrNoRecords = errors.New("no records in the requested window")

// Record is one stored chat message.
type Record struct {
	ID        int64
	Chat      string // Conversation the message belongs to
	Sender    string // Stored identity of the author
	Timestamp time.Time
	Content   string
}

// Store is the ordered-records provider, backed by SQLite.
type Store struct {
	db *sql.DB
}

// NewStore opens (creating if needed) the records database.
func NewStore(ctx context.Context, dbPath string) (*Store, error) {
	// WAL mode allows the ingest watcher to write while a digest reads.
	dsn := dbPath + "?_journal_mode=WAL&_busy_timeout=5000"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support multiple writers well
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS messages (
		id      INTEGER PRIMARY KEY AUTOINCREMENT,
		chat    TEXT NOT NULL,
		sender  TEXT NOT NULL,
		ts      INTEGER NOT NULL,
		content TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_messages_chat_ts ON messages(chat, ts);
	`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Append stores one record and returns its assigned ID.
func (s *Store) Append(ctx context.Context, rec Record) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (chat, sender, ts, content) VALUES (?, ?, ?, ?)`,
		rec.Chat, rec.Sender, rec.Timestamp.Unix(), rec.Content)
	if err != nil {
		return 0, fmt.Errorf("failed to insert record: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read insert id: %w", err)
	}
	return id, nil
}

// AppendBatch stores recs atomically: on any failure the transaction rolls
// back and nothing is persisted, so a failed import can be retried without
// duplicating records. Returns the assigned IDs in input order.
func (s *Store) AppendBatch(ctx context.Context, recs []Record) ([]int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	ids := make([]int64, 0, len(recs))
	for _, rec := range recs {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO messages (chat, sender, ts, content) VALUES (?, ?, ?, ?)`,
			rec.Chat, rec.Sender, rec.Timestamp.Unix(), rec.Content)
		if err != nil {
			return nil, fmt.Errorf("failed to insert record: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("failed to read insert id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit records: %w", err)
	}
	return ids, nil
}

// Since returns the records of a chat from the given time onward, ordered by
// timestamp ascending (insertion order breaks ties). An optional sender
// filter restricts the result to those identities. An empty window yields
// ErrNoRecords.
func (s *Store) Since(ctx context.Context, chat string, senders []string, from time.Time) ([]Record, error) {
	query := `SELECT id, chat, sender, ts, content FROM messages WHERE chat = ? AND ts >= ?`
	args := []any{chat, from.Unix()}

	if len(senders) > 0 {
		placeholders := strings.Repeat("?,", len(senders))
		query += ` AND sender IN (` + placeholders[:len(placeholders)-1] + `)`
		for _, sender := range senders {
			args = append(args, sender)
		}
	}
	query += ` ORDER BY ts ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var recs []Record
	for rows.Next() {
		var rec Record
		var ts int64
		if err := rows.Scan(&rec.ID, &rec.Chat, &rec.Sender, &ts, &rec.Content); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		rec.Timestamp = time.Unix(ts, 0).UTC()
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate records: %w", err)
	}

	if len(recs) == 0 {
		return nil, ErrNoRecords
	}
	return recs, nil
}

// Senders returns the distinct sender identities seen in a chat.
func (s *Store) Senders(ctx context.Context, chat string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT sender FROM messages WHERE chat = ? ORDER BY sender`, chat)
	if err != nil {
		return nil, fmt.Errorf("failed to query senders: %w", err)
	}
	defer rows.Close()

	var senders []string
	for rows.Next() {
		var sender string
		if err := rows.Scan(&sender); err != nil {
			return nil, fmt.Errorf("failed to scan sender: %w", err)
		}
		senders = append(senders, sender)
	}
	return senders, rows.Err()
}
