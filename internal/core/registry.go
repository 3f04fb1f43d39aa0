package core

import "sync"

// Registry maps room ids to the sessions currently joined to them.
// Rooms are not stored entities: a user's private room is named by their
// user id, a group's room by its group id. Entries exist only while at
// least one session is joined; the whole structure is rebuilt from join
// requests after a restart.
type Registry struct {
	mu     sync.RWMutex
	rooms  map[string]map[*Session]struct{}
	joined map[*Session]map[string]struct{}
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		rooms:  make(map[string]map[*Session]struct{}),
		joined: make(map[*Session]map[string]struct{}),
	}
}

// Join adds the session to the room's member set. Idempotent: joining a
// room twice has no additional effect. Any string is a valid room id.
func (r *Registry) Join(s *Session, room string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.rooms[room]
	if !ok {
		members = make(map[*Session]struct{})
		r.rooms[room] = members
	}
	members[s] = struct{}{}

	rooms, ok := r.joined[s]
	if !ok {
		rooms = make(map[string]struct{})
		r.joined[s] = rooms
	}
	rooms[room] = struct{}{}
}

// Drop removes the session from every room it had joined. Called once on
// disconnect; safe to call for a session that never joined anything.
func (r *Registry) Drop(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for room := range r.joined[s] {
		members := r.rooms[room]
		delete(members, s)
		if len(members) == 0 {
			delete(r.rooms, room)
		}
	}
	delete(r.joined, s)
}

// Members returns a snapshot of the sessions currently joined to the
// room. Unknown rooms simply have no members.
func (r *Registry) Members(room string) []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := r.rooms[room]
	out := make([]*Session, 0, len(members))
	for s := range members {
		out = append(out, s)
	}
	return out
}

// Rooms returns the room ids the session has joined.
func (r *Registry) Rooms(s *Session) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.joined[s]))
	for room := range r.joined[s] {
		out = append(out, room)
	}
	return out
}
