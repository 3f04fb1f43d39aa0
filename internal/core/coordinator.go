package core

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/gigachat/gigachat-server/internal/store"
)

// unknownSenderName is used when the sender's account no longer exists
// at enrichment time. Delivery still proceeds.
const unknownSenderName = "Unknown"

// SendInput describes an inbound send event. Exactly one of RecipientID
// and GroupID must be set.
type SendInput struct {
	SenderID    int64
	Content     string
	RecipientID *int64
	GroupID     *int64
}

// MessageCreator persists messages. Satisfied by store.MessageStore.
type MessageCreator interface {
	CreateMessage(ctx context.Context, msg *store.Message) error
}

// IdentityResolver projects a user id onto its display identity.
// Satisfied by store.UserStore.
type IdentityResolver interface {
	GetSenderProfile(ctx context.Context, userID int64) (*store.SenderProfile, error)
}

// Coordinator accepts inbound send events, persists them, enriches them
// with the sender's identity projection and fans them out to the
// sessions currently joined to the target room(s).
type Coordinator struct {
	messages MessageCreator
	users    IdentityResolver
	registry *Registry
	log      *zerolog.Logger
}

// NewCoordinator builds a delivery coordinator.
func NewCoordinator(messages MessageCreator, users IdentityResolver, registry *Registry, logger *zerolog.Logger) *Coordinator {
	return &Coordinator{
		messages: messages,
		users:    users,
		registry: registry,
		log:      logger,
	}
}

// SendMessage validates, persists and broadcasts one message. The
// message is durably stored before any session sees it: a persistence
// failure aborts the call with zero broadcasts. The enriched message is
// returned so callers can echo or inspect it.
//
// A group message goes to the group's room. A direct message goes to
// both the recipient's room and the sender's room, so the sender's other
// open connections see their own sent message. Each currently joined
// session receives the event at most once, even if it sits in both rooms.
func (c *Coordinator) SendMessage(ctx context.Context, in SendInput) (*store.MessageWithSender, error) {
	if (in.RecipientID == nil) == (in.GroupID == nil) {
		return nil, ErrInvalidTarget
	}
	if strings.TrimSpace(in.Content) == "" {
		return nil, ErrEmptyContent
	}

	msg := &store.Message{
		SenderID:    in.SenderID,
		Content:     in.Content,
		RecipientID: in.RecipientID,
		GroupID:     in.GroupID,
		CreatedAt:   time.Now().UTC(),
	}
	if err := c.messages.CreateMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("persist message: %w", err)
	}

	enriched := &store.MessageWithSender{
		Message: *msg,
		Sender:  c.senderProfile(ctx, in.SenderID),
	}

	var rooms []string
	if in.GroupID != nil {
		rooms = []string{strconv.FormatInt(*in.GroupID, 10)}
	} else {
		rooms = []string{
			strconv.FormatInt(*in.RecipientID, 10),
			strconv.FormatInt(in.SenderID, 10),
		}
	}

	c.broadcast(enriched, rooms)
	return enriched, nil
}

// senderProfile resolves the display projection for the sender. A sender
// that no longer exists degrades to a placeholder rather than failing
// the delivery.
func (c *Coordinator) senderProfile(ctx context.Context, senderID int64) store.SenderProfile {
	profile, err := c.users.GetSenderProfile(ctx, senderID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			c.log.Warn().Err(err).Int64("sender_id", senderID).Msg("resolve sender profile")
		}
		return store.SenderProfile{
			ID:       senderID,
			Username: unknownSenderName,
			Name:     unknownSenderName,
		}
	}
	return *profile
}

// broadcast delivers the event at most once to every session joined to
// any of the target rooms. Sessions that join after the member snapshot
// is taken receive nothing for this call.
func (c *Coordinator) broadcast(msg *store.MessageWithSender, rooms []string) {
	seen := make(map[*Session]struct{})
	delivered, dropped := 0, 0
	for _, room := range rooms {
		for _, s := range c.registry.Members(room) {
			if _, dup := seen[s]; dup {
				continue
			}
			seen[s] = struct{}{}
			if s.Deliver(Event{Message: msg}) {
				delivered++
			} else {
				dropped++
				c.log.Debug().Str("session_id", s.ID).Int64("message_id", msg.ID).Msg("session queue full, event dropped")
			}
		}
	}
	c.log.Debug().
		Int64("message_id", msg.ID).
		Strs("rooms", rooms).
		Int("delivered", delivered).
		Int("dropped", dropped).
		Msg("message broadcast")
}
