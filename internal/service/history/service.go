// Package history is the read-only query surface over persisted
// messages. It serves the initial chat load and the admin inspection
// views; results are ordered exactly as the delivery coordinator
// broadcast them (creation time, persisted id as tiebreak).
package history

import (
	"context"
	"fmt"

	"github.com/gigachat/gigachat-server/internal/store"
)

// searchLimit caps admin content search results.
const searchLimit = 50

// Service answers history queries. All methods are pure reads: no
// messages exist yields an empty sequence, not an error.
type Service struct {
	store store.MessageStore
}

// New creates a history service.
func New(st store.MessageStore) *Service {
	return &Service{store: st}
}

// Direct returns the full conversation between two users, in either
// direction, ascending. Symmetric: Direct(a, b) == Direct(b, a).
func (s *Service) Direct(ctx context.Context, userA, userB int64) ([]*store.MessageWithSender, error) {
	msgs, err := s.store.ListDirectMessages(ctx, userA, userB)
	if err != nil {
		return nil, fmt.Errorf("direct history: %w", err)
	}
	return msgs, nil
}

// Group returns the full history of a group, ascending.
func (s *Service) Group(ctx context.Context, groupID int64) ([]*store.MessageWithSender, error) {
	msgs, err := s.store.ListGroupMessages(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("group history: %w", err)
	}
	return msgs, nil
}

// UserDirect returns every direct message a user sent or received,
// newest first. Admin view.
func (s *Service) UserDirect(ctx context.Context, userID int64) ([]*store.MessageWithSender, error) {
	msgs, err := s.store.ListUserDirectMessages(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("user messages: %w", err)
	}
	return msgs, nil
}

// Search finds messages by content substring, newest first. An empty
// query matches nothing. Admin view.
func (s *Service) Search(ctx context.Context, query string) ([]*store.MessageWithSender, error) {
	if query == "" {
		return nil, nil
	}
	msgs, err := s.store.SearchMessages(ctx, query, searchLimit)
	if err != nil {
		return nil, fmt.Errorf("search messages: %w", err)
	}
	return msgs, nil
}
