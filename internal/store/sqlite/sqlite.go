package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/gigachat/gigachat-server/internal/store"
)

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// Schema is the full database schema. Applied idempotently on startup.
const Schema = `
CREATE TABLE IF NOT EXISTS users (
	id                 INTEGER PRIMARY KEY AUTOINCREMENT,
	username           TEXT NOT NULL UNIQUE,
	name               TEXT NOT NULL,
	email              TEXT NOT NULL UNIQUE,
	password_hash      TEXT NOT NULL,
	profile_pic        TEXT NOT NULL DEFAULT '',
	bio                TEXT NOT NULL DEFAULT '',
	is_admin           BOOLEAN NOT NULL DEFAULT 0,
	is_verified        BOOLEAN NOT NULL DEFAULT 0,
	verification_token TEXT,
	created_at         DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at         DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS contacts (
	user_id    INTEGER NOT NULL,
	contact_id INTEGER NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (user_id, contact_id),
	FOREIGN KEY (user_id) REFERENCES users(id),
	FOREIGN KEY (contact_id) REFERENCES users(id)
);

CREATE TABLE IF NOT EXISTS groups (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	name        TEXT NOT NULL,
	admin_id    INTEGER NOT NULL,
	profile_pic TEXT NOT NULL DEFAULT '',
	created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (admin_id) REFERENCES users(id)
);

CREATE TABLE IF NOT EXISTS group_members (
	group_id  INTEGER NOT NULL,
	user_id   INTEGER NOT NULL,
	joined_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (group_id, user_id),
	FOREIGN KEY (group_id) REFERENCES groups(id),
	FOREIGN KEY (user_id) REFERENCES users(id)
);

CREATE TABLE IF NOT EXISTS messages (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	sender_id    INTEGER NOT NULL,
	content      TEXT NOT NULL,
	recipient_id INTEGER,
	group_id     INTEGER,
	created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (sender_id) REFERENCES users(id),
	FOREIGN KEY (recipient_id) REFERENCES users(id),
	FOREIGN KEY (group_id) REFERENCES groups(id),
	CHECK ((recipient_id IS NULL) != (group_id IS NULL))
);

CREATE INDEX IF NOT EXISTS idx_messages_direct ON messages(sender_id, recipient_id, created_at);
CREATE INDEX IF NOT EXISTS idx_messages_group ON messages(group_id, created_at);
CREATE INDEX IF NOT EXISTS idx_group_members_user ON group_members(user_id);
`

// New creates a new SQLite store and applies the schema.
// dbPath is the path to the SQLite database file.
func New(dbPath string) (*SQLiteStore, error) {
	return NewWithSetup(dbPath, func(db *sql.DB) error {
		_, err := db.Exec(Schema)
		return err
	})
}

// NewWithSetup creates a new SQLite store and runs a setup function.
// Useful for tests to apply a reduced schema or seed data.
func NewWithSetup(dbPath string, setup func(*sql.DB) error) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if setup != nil {
		if err := setup(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const userColumns = `id, username, name, email, password_hash, profile_pic, bio,
	is_admin, is_verified, COALESCE(verification_token, ''), created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*store.User, error) {
	var u store.User
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Name,
		&u.Email,
		&u.PasswordHash,
		&u.ProfilePic,
		&u.Bio,
		&u.IsAdmin,
		&u.IsVerified,
		&u.VerificationToken,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user: %w", store.ErrNotFound)
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}

// ==== UserStore implementation ====

// CreateUser inserts a new user and returns it with ID assigned.
func (s *SQLiteStore) CreateUser(ctx context.Context, u *store.User) (*store.User, error) {
	query := `
		INSERT INTO users (username, name, email, password_hash, profile_pic, bio, is_admin, is_verified, verification_token)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	var token any
	if u.VerificationToken != "" {
		token = u.VerificationToken
	}
	result, err := s.db.ExecContext(ctx, query,
		u.Username, u.Name, u.Email, u.PasswordHash, u.ProfilePic, u.Bio, u.IsAdmin, u.IsVerified, token,
	)
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
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

// GetUserByUsername retrieves a user by username.
func (s *SQLiteStore) GetUserByUsername(ctx context.Context, username string) (*store.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username)
	return scanUser(row)
}

// GetUserByEmail retrieves a user by email.
func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*store.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	return scanUser(row)
}

// GetUserByVerificationToken retrieves an unverified user by token.
func (s *SQLiteStore) GetUserByVerificationToken(ctx context.Context, token string) (*store.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE verification_token = ? AND is_verified = 0`, token)
	return scanUser(row)
}

// MarkVerified flags the user as verified and clears the token.
func (s *SQLiteStore) MarkVerified(ctx context.Context, userID int64) error {
	query := `
		UPDATE users
		SET is_verified = 1, verification_token = NULL, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	result, err := s.db.ExecContext(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("mark verified: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("user: %w", store.ErrNotFound)
	}
	return nil
}

// UpdateProfile applies a partial profile update and returns the result.
func (s *SQLiteStore) UpdateProfile(ctx context.Context, userID int64, upd store.ProfileUpdate) (*store.User, error) {
	sets := []string{"updated_at = CURRENT_TIMESTAMP"}
	args := []any{}
	if upd.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *upd.Name)
	}
	if upd.Bio != nil {
		sets = append(sets, "bio = ?")
		args = append(args, *upd.Bio)
	}
	if upd.ProfilePic != nil {
		sets = append(sets, "profile_pic = ?")
		args = append(args, *upd.ProfilePic)
	}
	args = append(args, userID)

	query := `UPDATE users SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return nil, fmt.Errorf("user: %w", store.ErrNotFound)
	}

	return s.GetUserByID(ctx, userID)
}

// ListUsers returns all users except the excluded ID.
func (s *SQLiteStore) ListUsers(ctx context.Context, excludeID int64) ([]*store.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id != ? ORDER BY username ASC`
	rows, err := s.db.QueryContext(ctx, query, excludeID)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var users []*store.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}

	return users, rows.Err()
}

// SearchUsers finds users whose username contains the query.
func (s *SQLiteStore) SearchUsers(ctx context.Context, query string) ([]*store.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE username LIKE ? ORDER BY username ASC`
	rows, err := s.db.QueryContext(ctx, q, "%"+query+"%")
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	defer rows.Close()

	var users []*store.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}

	return users, rows.Err()
}

// GetSenderProfile resolves the display projection for a user.
func (s *SQLiteStore) GetSenderProfile(ctx context.Context, userID int64) (*store.SenderProfile, error) {
	query := `SELECT id, username, name, profile_pic FROM users WHERE id = ?`
	var p store.SenderProfile
	err := s.db.QueryRowContext(ctx, query, userID).Scan(&p.ID, &p.Username, &p.Name, &p.ProfilePic)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user: %w", store.ErrNotFound)
		}
		return nil, fmt.Errorf("query sender profile: %w", err)
	}
	return &p, nil
}

// AddContact links contactID into userID's contact list.
func (s *SQLiteStore) AddContact(ctx context.Context, userID, contactID int64) error {
	result, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO contacts (user_id, contact_id) VALUES (?, ?)`, userID, contactID)
	if err != nil {
		return fmt.Errorf("insert contact: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return store.ErrContactExists
	}
	return nil
}

// ListContacts returns the user's contacts as profile projections.
func (s *SQLiteStore) ListContacts(ctx context.Context, userID int64) ([]*store.SenderProfile, error) {
	query := `
		SELECT u.id, u.username, u.name, u.profile_pic
		FROM contacts c
		JOIN users u ON u.id = c.contact_id
		WHERE c.user_id = ?
		ORDER BY c.created_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query contacts: %w", err)
	}
	defer rows.Close()

	var contacts []*store.SenderProfile
	for rows.Next() {
		var p store.SenderProfile
		if err := rows.Scan(&p.ID, &p.Username, &p.Name, &p.ProfilePic); err != nil {
			return nil, fmt.Errorf("scan contact: %w", err)
		}
		contacts = append(contacts, &p)
	}

	return contacts, rows.Err()
}

// ==== GroupStore implementation ====

// CreateGroup inserts a group and its initial member set.
func (s *SQLiteStore) CreateGroup(ctx context.Context, name string, adminID int64, profilePic string, memberIDs []int64) (*store.Group, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	result, err := tx.ExecContext(ctx,
		`INSERT INTO groups (name, admin_id, profile_pic) VALUES (?, ?, ?)`,
		name, adminID, profilePic)
	if err != nil {
		return nil, fmt.Errorf("insert group: %w", err)
	}

	groupID, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	// The admin is always a member, whether listed or not.
	seen := map[int64]struct{}{}
	members := append([]int64{adminID}, memberIDs...)
	for _, id := range members {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO group_members (group_id, user_id) VALUES (?, ?)`, groupID, id); err != nil {
			return nil, fmt.Errorf("insert group member: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	return s.GetGroupByID(ctx, groupID)
}

// GetGroupByID retrieves a group by ID.
func (s *SQLiteStore) GetGroupByID(ctx context.Context, id int64) (*store.Group, error) {
	query := `SELECT id, name, admin_id, profile_pic, created_at, updated_at FROM groups WHERE id = ?`
	var g store.Group
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&g.ID, &g.Name, &g.AdminID, &g.ProfilePic, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("group: %w", store.ErrNotFound)
		}
		return nil, fmt.Errorf("query group: %w", err)
	}
	return &g, nil
}

// ListGroupsForUser returns groups the user belongs to, most recently updated first.
func (s *SQLiteStore) ListGroupsForUser(ctx context.Context, userID int64) ([]*store.Group, error) {
	query := `
		SELECT g.id, g.name, g.admin_id, g.profile_pic, g.created_at, g.updated_at
		FROM groups g
		JOIN group_members gm ON gm.group_id = g.id
		WHERE gm.user_id = ?
		ORDER BY g.updated_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query groups: %w", err)
	}
	defer rows.Close()

	var groups []*store.Group
	for rows.Next() {
		var g store.Group
		if err := rows.Scan(&g.ID, &g.Name, &g.AdminID, &g.ProfilePic, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan group: %w", err)
		}
		groups = append(groups, &g)
	}

	return groups, rows.Err()
}

// AddGroupMember adds a user to the group.
func (s *SQLiteStore) AddGroupMember(ctx context.Context, groupID, userID int64) error {
	result, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO group_members (group_id, user_id) VALUES (?, ?)`, groupID, userID)
	if err != nil {
		return fmt.Errorf("insert group member: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return store.ErrMemberExists
	}

	// Membership changes bump the group's recency.
	if _, err := s.db.ExecContext(ctx,
		`UPDATE groups SET updated_at = CURRENT_TIMESTAMP WHERE id = ?`, groupID); err != nil {
		return fmt.Errorf("touch group: %w", err)
	}
	return nil
}

// ListGroupMembers returns member projections for a group.
func (s *SQLiteStore) ListGroupMembers(ctx context.Context, groupID int64) ([]*store.SenderProfile, error) {
	query := `
		SELECT u.id, u.username, u.name, u.profile_pic
		FROM group_members gm
		JOIN users u ON u.id = gm.user_id
		WHERE gm.group_id = ?
		ORDER BY gm.joined_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("query group members: %w", err)
	}
	defer rows.Close()

	var members []*store.SenderProfile
	for rows.Next() {
		var p store.SenderProfile
		if err := rows.Scan(&p.ID, &p.Username, &p.Name, &p.ProfilePic); err != nil {
			return nil, fmt.Errorf("scan group member: %w", err)
		}
		members = append(members, &p)
	}

	return members, rows.Err()
}

// UpdateGroup applies name/profile pic changes.
func (s *SQLiteStore) UpdateGroup(ctx context.Context, groupID int64, name, profilePic *string) (*store.Group, error) {
	sets := []string{"updated_at = CURRENT_TIMESTAMP"}
	args := []any{}
	if name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *name)
	}
	if profilePic != nil {
		sets = append(sets, "profile_pic = ?")
		args = append(args, *profilePic)
	}
	args = append(args, groupID)

	query := `UPDATE groups SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("update group: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return nil, fmt.Errorf("group: %w", store.ErrNotFound)
	}

	return s.GetGroupByID(ctx, groupID)
}

// ==== MessageStore implementation ====

// The sender join is a LEFT JOIN: a message whose sender row is gone
// still shows up in history, with the same placeholder identity the
// live broadcast path uses.
const messageColumns = `m.id, m.sender_id, m.content, m.recipient_id, m.group_id, m.created_at,
	COALESCE(u.id, m.sender_id), COALESCE(u.username, 'Unknown'), COALESCE(u.name, 'Unknown'), COALESCE(u.profile_pic, '')`

func scanMessage(row interface{ Scan(...any) error }) (*store.MessageWithSender, error) {
	var m store.MessageWithSender
	var recipientID, groupID sql.NullInt64
	err := row.Scan(
		&m.ID,
		&m.SenderID,
		&m.Content,
		&recipientID,
		&groupID,
		&m.CreatedAt,
		&m.Sender.ID,
		&m.Sender.Username,
		&m.Sender.Name,
		&m.Sender.ProfilePic,
	)
	if err != nil {
		return nil, fmt.Errorf("scan message: %w", err)
	}
	if recipientID.Valid {
		m.RecipientID = &recipientID.Int64
	}
	if groupID.Valid {
		m.GroupID = &groupID.Int64
	}
	return &m, nil
}

func (s *SQLiteStore) queryMessages(ctx context.Context, query string, args ...any) ([]*store.MessageWithSender, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var messages []*store.MessageWithSender
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}

	return messages, rows.Err()
}

// CreateMessage persists a message and sets its ID.
func (s *SQLiteStore) CreateMessage(ctx context.Context, msg *store.Message) error {
	query := `
		INSERT INTO messages (sender_id, content, recipient_id, group_id, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query,
		msg.SenderID, msg.Content, msg.RecipientID, msg.GroupID, msg.CreatedAt)
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

// ListDirectMessages returns all direct messages between the two users,
// in either direction, ascending by (created_at, id).
func (s *SQLiteStore) ListDirectMessages(ctx context.Context, userA, userB int64) ([]*store.MessageWithSender, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM messages m
		LEFT JOIN users u ON u.id = m.sender_id
		WHERE m.group_id IS NULL
		  AND ((m.sender_id = ? AND m.recipient_id = ?) OR (m.sender_id = ? AND m.recipient_id = ?))
		ORDER BY m.created_at ASC, m.id ASC
	`
	return s.queryMessages(ctx, query, userA, userB, userB, userA)
}

// ListGroupMessages returns all messages of a group, ascending by (created_at, id).
func (s *SQLiteStore) ListGroupMessages(ctx context.Context, groupID int64) ([]*store.MessageWithSender, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM messages m
		LEFT JOIN users u ON u.id = m.sender_id
		WHERE m.group_id = ?
		ORDER BY m.created_at ASC, m.id ASC
	`
	return s.queryMessages(ctx, query, groupID)
}

// ListUserDirectMessages returns every direct message sent or received
// by the user, newest first.
func (s *SQLiteStore) ListUserDirectMessages(ctx context.Context, userID int64) ([]*store.MessageWithSender, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM messages m
		LEFT JOIN users u ON u.id = m.sender_id
		WHERE m.group_id IS NULL AND (m.sender_id = ? OR m.recipient_id = ?)
		ORDER BY m.created_at DESC, m.id DESC
	`
	return s.queryMessages(ctx, query, userID, userID)
}

// SearchMessages finds messages whose content contains the query, newest first.
func (s *SQLiteStore) SearchMessages(ctx context.Context, query string, limit int) ([]*store.MessageWithSender, error) {
	q := `
		SELECT ` + messageColumns + `
		FROM messages m
		LEFT JOIN users u ON u.id = m.sender_id
		WHERE m.content LIKE ?
		ORDER BY m.created_at DESC, m.id DESC
		LIMIT ?
	`
	return s.queryMessages(ctx, q, "%"+query+"%", limit)
}

// Ensure SQLiteStore implements store.Store
var _ store.Store = (*SQLiteStore)(nil)
