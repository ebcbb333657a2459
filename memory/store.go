package memory

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mcsplatform/advisor-go-sdk/core"
)

// timeLayout keeps a fixed-width fractional second so the stored
// strings sort in timestamp order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Message is one persisted conversation message.
type Message struct {
	ID        int64
	UserID    string
	SessionID string
	Role      core.Role
	Content   string
	CreatedAt time.Time
}

// Store provides SQLite-backed storage for conversation history.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open opens (or creates) a SQLite database and initializes the schema.
// Use ":memory:" for an ephemeral store in tests.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable WAL mode for better concurrent access
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	createSQL := `CREATE TABLE IF NOT EXISTS chat_messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL,
		session_id TEXT NOT NULL,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`
	if _, err := db.Exec(createSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}
	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_chat_session ON chat_messages(user_id, session_id, created_at)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create index: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Append writes one message with a server-assigned timestamp.
func (s *Store) Append(ctx context.Context, userID, sessionID string, role core.Role, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_messages (user_id, session_id, role, content, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		userID, sessionID, string(role), content,
		time.Now().UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("append message: %w", err)
	}
	return nil
}

// LoadRecent returns up to limit of the most recent messages for the
// (user, session) pair, in chronological (oldest-first) order. An empty
// session yields an empty slice, not an error.
func (s *Store) LoadRecent(ctx context.Context, userID, sessionID string, limit int) ([]Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, session_id, role, content, created_at
		 FROM chat_messages
		 WHERE user_id = ? AND session_id = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		userID, sessionID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}
	defer rows.Close()

	var newestFirst []Message
	for rows.Next() {
		var m Message
		var role, created string
		if err := rows.Scan(&m.ID, &m.UserID, &m.SessionID, &role, &m.Content, &created); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m.Role = core.Role(role)
		if m.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
			return nil, fmt.Errorf("message %d: bad timestamp %q: %w", m.ID, created, err)
		}
		newestFirst = append(newestFirst, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Reverse to chronological order for replay.
	out := make([]Message, len(newestFirst))
	for i, m := range newestFirst {
		out[len(newestFirst)-1-i] = m
	}
	return out, nil
}

// Clear deletes all messages for the (user, session) pair. Clearing an
// already-empty session is a no-op.
func (s *Store) Clear(ctx context.Context, userID, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`DELETE FROM chat_messages WHERE user_id = ? AND session_id = ?`,
		userID, sessionID,
	)
	if err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
