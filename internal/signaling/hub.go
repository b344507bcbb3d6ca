// Package signaling relays WebRTC call signaling between authenticated
// connections.
//
// The Hub ties together the presence directory, the call registry owned by
// the Relay, the broadcast rooms and the connection lifecycle. Transports call
// Connect once a connection is authenticated, Dispatch for every decoded
// event in receipt order, and Disconnect exactly once when the connection
// closes.
package signaling

import (
	"github.com/mossy-p/callrelay/internal/metrics"
	"github.com/mossy-p/callrelay/internal/models"
	"github.com/mossy-p/callrelay/internal/presence"
	"github.com/rs/zerolog/log"
)

type Hub struct {
	presence  *presence.Directory
	rooms     *Rooms
	relay     *Relay
	lifecycle *Lifecycle
}

type HubOption func(*Hub)

// WithObserver reports presence changes to o.
func WithObserver(o PresenceObserver) HubOption {
	return func(h *Hub) {
		if o != nil {
			h.lifecycle.observer = o
		}
	}
}

func NewHub(m *metrics.Metrics, opts ...HubOption) *Hub {
	dir := presence.NewDirectory()
	rooms := NewRooms()
	relay := NewRelay(dir, m)
	h := &Hub{
		presence: dir,
		rooms:    rooms,
		relay:    relay,
		lifecycle: &Lifecycle{
			presence: dir,
			rooms:    rooms,
			relay:    relay,
			observer: noopObserver{},
			metrics:  m,
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Hub) Connect(ep models.Endpoint)    { h.lifecycle.Connect(ep) }
func (h *Hub) Disconnect(ep models.Endpoint) { h.lifecycle.Disconnect(ep) }

// Dispatch routes one inbound event from ep.
func (h *Hub) Dispatch(ep models.Endpoint, ev models.InboundEvent) {
	switch e := ev.(type) {
	case models.JoinRoom:
		h.lifecycle.JoinRoom(ep, e.UserID)
	case models.CallInitiate:
		h.relay.Initiate(ep, e)
	case models.CallAccept:
		h.relay.Accept(ep, e)
	case models.CallICECandidate:
		h.relay.Candidate(ep, e)
	case models.CallEnd:
		h.relay.End(ep, e)
	case nil:
	default:
		log.Warn().Str("module", "signaling").Str("event", ev.EventName()).Msg("no handler for event")
	}
}

// Broadcast emits msg to every connection in room.
func (h *Hub) Broadcast(room string, msg models.OutboundMessage) int {
	return h.rooms.Broadcast(room, msg)
}

func (h *Hub) Relay() *Relay { return h.relay }

func (h *Hub) Online() int { return h.presence.Len() }

func (h *Hub) ActiveCalls() int { return h.relay.ActiveCalls() }

// Lookup reports the current connection for id.
func (h *Hub) Lookup(id models.Identity) (models.Endpoint, bool) {
	return h.presence.Lookup(id)
}
