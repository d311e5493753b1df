// Package history archives ended conversations. The backend keeps its own
// session history; this is the client-side counterpart, so past turns survive
// restarts and can be searched offline.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"tellerdesk/internal/transcript"
)

// ArchivedSession is one archived conversation, newest first in listings.
type ArchivedSession struct {
	SessionID    string
	ArchivedAt   time.Time
	MessageCount int
}

// DB stores archived transcripts in SQLite.
type DB struct {
	db *sql.DB
}

// NewDB opens (or creates) the archive database and initializes the schema.
func NewDB(ctx context.Context, dbPath string) (*DB, error) {
	// WAL mode allows a reader while the archive write is in progress
	dsn := dbPath + "?_journal_mode=WAL&_busy_timeout=5000"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite doesn't support multiple writers well
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	d := &DB{db: db}
	if err := d.initSchema(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return d, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		session_id    TEXT PRIMARY KEY,
		archived_at   INTEGER NOT NULL,
		message_count INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS messages (
		id         TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		seq        INTEGER NOT NULL,
		sender     TEXT NOT NULL,
		text       TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id, seq);
	`

	if _, err := d.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Archive stores a completed transcript under its session id. Archiving the
// same session twice replaces the previous copy. An empty session id (the
// backend never assigned one) gets a locally generated one.
func (d *DB) Archive(ctx context.Context, sessionID string, msgs []transcript.Message) (string, error) {
	if sessionID == "" {
		sessionID = "local-" + uuid.NewString()
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO sessions (session_id, archived_at, message_count) VALUES (?, ?, ?)`,
		sessionID, time.Now().Unix(), len(msgs)); err != nil {
		return "", fmt.Errorf("failed to insert session: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE session_id = ?`, sessionID); err != nil {
		return "", fmt.Errorf("failed to clear old messages: %w", err)
	}

	for seq, msg := range msgs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO messages (id, session_id, seq, sender, text) VALUES (?, ?, ?, ?, ?)`,
			msg.ID, sessionID, seq, string(msg.Sender), msg.Text); err != nil {
			return "", fmt.Errorf("failed to insert message: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit archive: %w", err)
	}
	return sessionID, nil
}

// Sessions lists archived sessions, newest first.
func (d *DB) Sessions(ctx context.Context) ([]ArchivedSession, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT session_id, archived_at, message_count FROM sessions ORDER BY archived_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []ArchivedSession
	for rows.Next() {
		var s ArchivedSession
		var archivedAt int64
		if err := rows.Scan(&s.SessionID, &archivedAt, &s.MessageCount); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		s.ArchivedAt = time.Unix(archivedAt, 0)
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// Messages returns one archived transcript in insertion order.
func (d *DB) Messages(ctx context.Context, sessionID string) ([]transcript.Message, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT id, sender, text FROM messages WHERE session_id = ? ORDER BY seq`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}
	defer rows.Close()

	var msgs []transcript.Message
	for rows.Next() {
		var m transcript.Message
		var sender string
		if err := rows.Scan(&m.ID, &sender, &m.Text); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		m.Sender = transcript.Sender(sender)
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}
