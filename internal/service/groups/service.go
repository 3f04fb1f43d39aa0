// Package groups owns group lifecycle and the member lists that group
// rooms fan out to. The real-time relay only sees live connections;
// membership is what clients consult to decide which group rooms to join.
package groups

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gigachat/gigachat-server/internal/store"
)

// Common errors for group operations.
var (
	ErrInvalidName    = errors.New("group name is required")
	ErrGroupNotFound  = errors.New("group not found")
	ErrAlreadyMember  = errors.New("user already in group")
	ErrMemberNotFound = errors.New("user not found")
)

// GroupWithMembers is a group joined with its member projections, as
// returned to API callers.
type GroupWithMembers struct {
	Group   *store.Group
	Members []*store.SenderProfile
}

// Service provides group management business logic.
type Service struct {
	store store.Store
}

// New creates a group service.
func New(st store.Store) *Service {
	return &Service{store: st}
}

// Create makes a new group. The admin is always included in the member
// set, whether or not the caller listed them.
func (s *Service) Create(ctx context.Context, name string, adminID int64, profilePic string, memberIDs []int64) (*GroupWithMembers, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidName
	}

	group, err := s.store.CreateGroup(ctx, name, adminID, profilePic, memberIDs)
	if err != nil {
		return nil, fmt.Errorf("create group: %w", err)
	}

	return s.withMembers(ctx, group)
}

// ListForUser returns the groups a user belongs to with their member
// lists, most recently updated first.
func (s *Service) ListForUser(ctx context.Context, userID int64) ([]*GroupWithMembers, error) {
	groups, err := s.store.ListGroupsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}

	out := make([]*GroupWithMembers, 0, len(groups))
	for _, g := range groups {
		gm, err := s.withMembers(ctx, g)
		if err != nil {
			return nil, err
		}
		out = append(out, gm)
	}
	return out, nil
}

// AddMember adds a user to the group.
func (s *Service) AddMember(ctx context.Context, groupID, userID int64) (*GroupWithMembers, error) {
	if _, err := s.store.GetGroupByID(ctx, groupID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, fmt.Errorf("get group: %w", err)
	}
	if _, err := s.store.GetUserByID(ctx, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if err := s.store.AddGroupMember(ctx, groupID, userID); err != nil {
		if errors.Is(err, store.ErrMemberExists) {
			return nil, ErrAlreadyMember
		}
		return nil, fmt.Errorf("add member: %w", err)
	}

	group, err := s.store.GetGroupByID(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("get group: %w", err)
	}
	return s.withMembers(ctx, group)
}

// Update changes the group's name and/or profile picture.
func (s *Service) Update(ctx context.Context, groupID int64, name, profilePic *string) (*GroupWithMembers, error) {
	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed == "" {
			return nil, ErrInvalidName
		}
		name = &trimmed
	}

	group, err := s.store.UpdateGroup(ctx, groupID, name, profilePic)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, fmt.Errorf("update group: %w", err)
	}
	return s.withMembers(ctx, group)
}

func (s *Service) withMembers(ctx context.Context, group *store.Group) (*GroupWithMembers, error) {
	members, err := s.store.ListGroupMembers(ctx, group.ID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	return &GroupWithMembers{Group: group, Members: members}, nil
}
