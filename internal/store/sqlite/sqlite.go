package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/beamchat/server/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	username      TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS messages (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	kind         TEXT NOT NULL,
	sender       TEXT NOT NULL,
	receiver     TEXT NOT NULL DEFAULT '',
	body         TEXT NOT NULL,
	message_type TEXT NOT NULL DEFAULT 'text',
	file_data    BLOB,
	display_time TEXT NOT NULL DEFAULT '',
	created_at   DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_messages_kind ON messages(kind, id);
CREATE INDEX IF NOT EXISTS idx_messages_thread ON messages(sender, receiver, id);

CREATE TABLE IF NOT EXISTS notifications (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	title      TEXT NOT NULL,
	body       TEXT NOT NULL,
	sender     TEXT NOT NULL,
	target     TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL
);
`

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLite store and applies the schema.
// dbPath is the path to the SQLite database file.
func New(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// NewWithSetup creates a new SQLite store, applies the schema and runs
// an extra setup function. Useful for tests.
func NewWithSetup(dbPath string, setup func(*sql.DB) error) (*SQLiteStore, error) {
	s, err := New(dbPath)
	if err != nil {
		return nil, err
	}

	if setup != nil {
		if err := setup(s.db); err != nil {
			s.db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	return s, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ==== UserStore implementation ====

// CreateUser creates a new user with hashed password.
func (s *SQLiteStore) CreateUser(ctx context.Context, username, passwordHash string) (*store.User, error) {
	query := `
		INSERT INTO users (username, password_hash)
		VALUES (?, ?)
	`
	result, err := s.db.ExecContext(ctx, query, username, passwordHash)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	return s.GetUserByID(ctx, id)
}

// GetUserByID retrieves a user by ID.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id int64) (*store.User, error) {
	query := `
		SELECT id, username, password_hash, created_at
		FROM users
		WHERE id = ?
	`
	var user store.User
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user not found: %w", err)
		}
		return nil, fmt.Errorf("query user: %w", err)
	}

	return &user, nil
}

// GetUserByUsername retrieves a user by username.
func (s *SQLiteStore) GetUserByUsername(ctx context.Context, username string) (*store.User, error) {
	query := `
		SELECT id, username, password_hash, created_at
		FROM users
		WHERE username = ?
	`
	var user store.User
	err := s.db.QueryRowContext(ctx, query, username).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user not found: %w", err)
		}
		return nil, fmt.Errorf("query user: %w", err)
	}

	return &user, nil
}

// SearchUsers searches for users by username substring.
func (s *SQLiteStore) SearchUsers(ctx context.Context, query string) ([]*store.User, error) {
	stmt := `
		SELECT id, username, password_hash, created_at
		FROM users
		WHERE username LIKE ?
		ORDER BY username
	`
	rows, err := s.db.QueryContext(ctx, stmt, "%"+query+"%")
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	defer rows.Close()

	return scanUsers(rows)
}

// ListUsers lists all registered users.
func (s *SQLiteStore) ListUsers(ctx context.Context) ([]*store.User, error) {
	stmt := `
		SELECT id, username, password_hash, created_at
		FROM users
		ORDER BY username
	`
	rows, err := s.db.QueryContext(ctx, stmt)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	return scanUsers(rows)
}

func scanUsers(rows *sql.Rows) ([]*store.User, error) {
	users := make([]*store.User, 0)
	for rows.Next() {
		var user store.User
		if err := rows.Scan(&user.ID, &user.Username, &user.PasswordHash, &user.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, &user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

// ==== MessageStore implementation ====

// SaveMessage appends a message to the log and sets msg.ID.
func (s *SQLiteStore) SaveMessage(ctx context.Context, msg *store.Message) error {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	if msg.MessageType == "" {
		msg.MessageType = "text"
	}

	query := `
		INSERT INTO messages (kind, sender, receiver, body, message_type, file_data, display_time, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query,
		msg.Kind,
		msg.Sender,
		msg.Receiver,
		msg.Body,
		msg.MessageType,
		msg.FileData,
		msg.DisplayTime,
		msg.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	msg.ID = id

	return nil
}

// ListGlobalMessages returns the global log in arrival order.
func (s *SQLiteStore) ListGlobalMessages(ctx context.Context, limit int) ([]*store.Message, error) {
	stmt := `
		SELECT id, kind, sender, receiver, body, message_type, file_data, display_time, created_at
		FROM messages
		WHERE kind = 'global'
		ORDER BY id
	`
	args := []any{}
	if limit > 0 {
		// Most recent N, still oldest first.
		stmt = `
			SELECT id, kind, sender, receiver, body, message_type, file_data, display_time, created_at
			FROM (
				SELECT id, kind, sender, receiver, body, message_type, file_data, display_time, created_at
				FROM messages
				WHERE kind = 'global'
				ORDER BY id DESC
				LIMIT ?
			)
			ORDER BY id
		`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("list global messages: %w", err)
	}
	defer rows.Close()

	return scanMessages(rows)
}

// ListPrivateMessages returns the private thread between two users.
func (s *SQLiteStore) ListPrivateMessages(ctx context.Context, userA, userB string) ([]*store.Message, error) {
	stmt := `
		SELECT id, kind, sender, receiver, body, message_type, file_data, display_time, created_at
		FROM messages
		WHERE kind = 'private'
		  AND ((sender = ? AND receiver = ?) OR (sender = ? AND receiver = ?))
		ORDER BY id
	`
	rows, err := s.db.QueryContext(ctx, stmt, userA, userB, userB, userA)
	if err != nil {
		return nil, fmt.Errorf("list private messages: %w", err)
	}
	defer rows.Close()

	return scanMessages(rows)
}

// ListConversations summarizes the private threads a user is part of.
func (s *SQLiteStore) ListConversations(ctx context.Context, username string) ([]*store.Conversation, error) {
	stmt := `
		SELECT sender, receiver, body, message_type, created_at
		FROM messages
		WHERE kind = 'private' AND (sender = ? OR receiver = ?)
		ORDER BY id
	`
	rows, err := s.db.QueryContext(ctx, stmt, username, username)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	// Fold the thread list down to the last message per counterpart.
	byPartner := make(map[string]*store.Conversation)
	order := make([]string, 0)
	for rows.Next() {
		var sender, receiver, body, msgType string
		var createdAt time.Time
		if err := rows.Scan(&sender, &receiver, &body, &msgType, &createdAt); err != nil {
			return nil, fmt.Errorf("scan conversation row: %w", err)
		}

		partner := sender
		if sender == username {
			partner = receiver
		}
		conv, ok := byPartner[partner]
		if !ok {
			conv = &store.Conversation{Username: partner}
			byPartner[partner] = conv
			order = append(order, partner)
		}
		conv.LastBody = body
		conv.LastType = msgType
		conv.LastIsOwn = sender == username
		conv.LastAt = createdAt
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate conversations: %w", err)
	}

	out := make([]*store.Conversation, 0, len(byPartner))
	for _, partner := range order {
		out = append(out, byPartner[partner])
	}
	// Most recently active first.
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastAt.After(out[j].LastAt)
	})

	return out, nil
}

func scanMessages(rows *sql.Rows) ([]*store.Message, error) {
	msgs := make([]*store.Message, 0)
	for rows.Next() {
		var msg store.Message
		if err := rows.Scan(
			&msg.ID,
			&msg.Kind,
			&msg.Sender,
			&msg.Receiver,
			&msg.Body,
			&msg.MessageType,
			&msg.FileData,
			&msg.DisplayTime,
			&msg.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msgs = append(msgs, &msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return msgs, nil
}

// ==== NotificationStore implementation ====

// SaveNotification persists a notification and sets n.ID.
func (s *SQLiteStore) SaveNotification(ctx context.Context, n *store.Notification) error {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO notifications (title, body, sender, target, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query, n.Title, n.Body, n.Sender, n.Target, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	n.ID = id

	return nil
}

// ListNotifications returns broadcasts plus notifications targeted at
// username, newest first.
func (s *SQLiteStore) ListNotifications(ctx context.Context, username string) ([]*store.Notification, error) {
	stmt := `
		SELECT id, title, body, sender, target, created_at
		FROM notifications
		WHERE target = '' OR target = ?
		ORDER BY id DESC
	`
	rows, err := s.db.QueryContext(ctx, stmt, username)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	out := make([]*store.Notification, 0)
	for rows.Next() {
		var n store.Notification
		if err := rows.Scan(&n.ID, &n.Title, &n.Body, &n.Sender, &n.Target, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		out = append(out, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notifications: %w", err)
	}

	return out, nil
}
