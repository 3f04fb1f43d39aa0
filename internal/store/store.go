package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrContactExists is returned when adding a contact that is already linked.
var ErrContactExists = errors.New("contact already exists")

// ErrMemberExists is returned when adding a group member that is already in.
var ErrMemberExists = errors.New("member already exists")

// User represents a registered account.
type User struct {
	ID                int64
	Username          string
	Name              string
	Email             string
	PasswordHash      string
	ProfilePic        string
	Bio               string
	IsAdmin           bool
	IsVerified        bool
	VerificationToken string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// SenderProfile is the lightweight identity projection attached to
// messages before they are broadcast or returned from history reads.
type SenderProfile struct {
	ID         int64  `json:"id"`
	Username   string `json:"username"`
	Name       string `json:"name"`
	ProfilePic string `json:"profile_pic"`
}

// Group represents a named chat group.
type Group struct {
	ID         int64
	Name       string
	AdminID    int64
	ProfilePic string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Message is a persisted chat message. Exactly one of RecipientID and
// GroupID is set: RecipientID for a direct message, GroupID for a group
// message. Messages are immutable once created.
type Message struct {
	ID          int64
	SenderID    int64
	Content     string
	RecipientID *int64
	GroupID     *int64
	CreatedAt   time.Time
}

// MessageWithSender is a message joined with its sender's profile
// projection, as served by history reads.
type MessageWithSender struct {
	Message
	Sender SenderProfile
}

// ProfileUpdate carries the mutable profile fields. Nil means "leave as is".
type ProfileUpdate struct {
	Name       *string
	Bio        *string
	ProfilePic *string
}

// UserStore handles user and contact persistence.
type UserStore interface {
	// CreateUser inserts a new user and returns it with ID assigned.
	CreateUser(ctx context.Context, u *User) (*User, error)

	// GetUserByID retrieves a user by ID.
	GetUserByID(ctx context.Context, id int64) (*User, error)

	// GetUserByUsername retrieves a user by username.
	GetUserByUsername(ctx context.Context, username string) (*User, error)

	// GetUserByEmail retrieves a user by email.
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	// GetUserByVerificationToken retrieves an unverified user by token.
	GetUserByVerificationToken(ctx context.Context, token string) (*User, error)

	// MarkVerified flags the user as verified and clears the token.
	MarkVerified(ctx context.Context, userID int64) error

	// UpdateProfile applies a partial profile update and returns the result.
	UpdateProfile(ctx context.Context, userID int64, upd ProfileUpdate) (*User, error)

	// ListUsers returns all users except the excluded ID.
	ListUsers(ctx context.Context, excludeID int64) ([]*User, error)

	// SearchUsers finds users whose username contains the query.
	SearchUsers(ctx context.Context, query string) ([]*User, error)

	// GetSenderProfile resolves the display projection for a user.
	GetSenderProfile(ctx context.Context, userID int64) (*SenderProfile, error)

	// AddContact links contactID into userID's contact list.
	// Returns ErrContactExists if already linked.
	AddContact(ctx context.Context, userID, contactID int64) error

	// ListContacts returns the user's contacts as profile projections.
	ListContacts(ctx context.Context, userID int64) ([]*SenderProfile, error)
}

// GroupStore handles group and membership persistence.
type GroupStore interface {
	// CreateGroup inserts a group and its initial member set.
	// The admin is always part of the member set.
	CreateGroup(ctx context.Context, name string, adminID int64, profilePic string, memberIDs []int64) (*Group, error)

	// GetGroupByID retrieves a group by ID.
	GetGroupByID(ctx context.Context, id int64) (*Group, error)

	// ListGroupsForUser returns groups the user belongs to,
	// most recently updated first.
	ListGroupsForUser(ctx context.Context, userID int64) ([]*Group, error)

	// AddGroupMember adds a user to the group.
	// Returns ErrMemberExists if already a member.
	AddGroupMember(ctx context.Context, groupID, userID int64) error

	// ListGroupMembers returns member projections for a group.
	ListGroupMembers(ctx context.Context, groupID int64) ([]*SenderProfile, error)

	// UpdateGroup applies name/profile pic changes. Nil means keep.
	UpdateGroup(ctx context.Context, groupID int64, name, profilePic *string) (*Group, error)
}

// MessageStore handles message persistence and ordered retrieval.
type MessageStore interface {
	// CreateMessage persists a message and sets its ID.
	CreateMessage(ctx context.Context, msg *Message) error

	// ListDirectMessages returns all direct messages between the two
	// users, in either direction, ascending by (created_at, id).
	ListDirectMessages(ctx context.Context, userA, userB int64) ([]*MessageWithSender, error)

	// ListGroupMessages returns all messages of a group,
	// ascending by (created_at, id).
	ListGroupMessages(ctx context.Context, groupID int64) ([]*MessageWithSender, error)

	// ListUserDirectMessages returns every direct message sent or
	// received by the user, newest first. Used by the admin view.
	ListUserDirectMessages(ctx context.Context, userID int64) ([]*MessageWithSender, error)

	// SearchMessages finds messages whose content contains the query,
	// newest first, capped at limit.
	SearchMessages(ctx context.Context, query string, limit int) ([]*MessageWithSender, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	UserStore
	GroupStore
	MessageStore

	// Close closes the underlying database connection.
	Close() error
}
