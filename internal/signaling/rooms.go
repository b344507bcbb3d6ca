package signaling

import (
	"sync"

	"github.com/mossy-p/callrelay/internal/models"
)

// Rooms are named broadcast groups. Every connection is in the room named
// after its own identity and may join others.
type Rooms struct {
	mu      sync.RWMutex
	members map[string]map[string]models.Endpoint // room -> conn id -> endpoint
	joined  map[string]map[string]struct{}        // conn id -> rooms
}

func NewRooms() *Rooms {
	return &Rooms{
		members: make(map[string]map[string]models.Endpoint),
		joined:  make(map[string]map[string]struct{}),
	}
}

func (r *Rooms) Join(room string, ep models.Endpoint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.members[room]
	if !ok {
		m = make(map[string]models.Endpoint)
		r.members[room] = m
	}
	m[ep.ID()] = ep

	j, ok := r.joined[ep.ID()]
	if !ok {
		j = make(map[string]struct{})
		r.joined[ep.ID()] = j
	}
	j[room] = struct{}{}
}

// LeaveAll drops ep from every room it joined. Empty rooms are removed.
func (r *Rooms) LeaveAll(ep models.Endpoint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for room := range r.joined[ep.ID()] {
		m := r.members[room]
		delete(m, ep.ID())
		if len(m) == 0 {
			delete(r.members, room)
		}
	}
	delete(r.joined, ep.ID())
}

// Broadcast sends msg to every member of room and returns how many sends
// were accepted.
func (r *Rooms) Broadcast(room string, msg models.OutboundMessage) int {
	r.mu.RLock()
	targets := make([]models.Endpoint, 0, len(r.members[room]))
	for _, ep := range r.members[room] {
		targets = append(targets, ep)
	}
	r.mu.RUnlock()

	delivered := 0
	for _, ep := range targets {
		if err := ep.Send(msg); err == nil {
			delivered++
		}
	}
	return delivered
}

func (r *Rooms) Size(room string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members[room])
}
