package signaling

import (
	"sync"

	"github.com/mossy-p/callrelay/internal/metrics"
	"github.com/mossy-p/callrelay/internal/models"
	"github.com/mossy-p/callrelay/internal/presence"
	"github.com/rs/zerolog/log"
)

// PresenceObserver is told when an identity comes online or goes offline.
// Implementations must not block.
type PresenceObserver interface {
	Online(p models.Principal, connID string)
	Offline(id models.Identity)
}

type noopObserver struct{}

func (noopObserver) Online(models.Principal, string) {}
func (noopObserver) Offline(models.Identity)         {}

// Lifecycle registers admitted connections and cleans up after them. It is
// the only writer of the presence directory.
//
// Presence writes and the observer calls that report them happen under mu, so
// observers see online and offline in the same order the directory changed.
type Lifecycle struct {
	mu       sync.Mutex
	presence *presence.Directory
	rooms    *Rooms
	relay    *Relay
	observer PresenceObserver
	metrics  *metrics.Metrics
}

// Connect makes ep the current connection for its identity and subscribes it
// to the identity's default room.
func (l *Lifecycle) Connect(ep models.Endpoint) {
	p := ep.Principal()

	l.mu.Lock()
	prev, replaced := l.presence.Set(p.ID, ep)
	l.observer.Online(p, ep.ID())
	l.mu.Unlock()

	if replaced {
		log.Info().Str("module", "signaling").Str("identity", p.ID.String()).
			Str("conn_id", ep.ID()).Str("replaced_conn_id", prev.ID()).Msg("presence replaced by newer connection")
	}
	l.rooms.Join(p.ID.Key(), ep)
	l.metrics.SetPresence(l.presence.Len())

	log.Info().Str("module", "signaling").Str("identity", p.ID.String()).
		Str("role", p.Role).Str("conn_id", ep.ID()).Msg("connected")
}

// JoinRoom subscribes ep to room. Any authenticated connection may join any
// identity's room.
func (l *Lifecycle) JoinRoom(ep models.Endpoint, room models.Identity) {
	l.rooms.Join(room.Key(), ep)
	l.metrics.Event(models.EventJoinRoom, metrics.Handled)
	log.Info().Str("module", "signaling").Str("identity", ep.Principal().ID.String()).
		Str("conn_id", ep.ID()).Str("room", room.String()).Msg("joined room")
}

// Disconnect removes ep's presence entry if it is still current, leaves its
// rooms and purges every call its identity takes part in.
func (l *Lifecycle) Disconnect(ep models.Endpoint) {
	id := ep.Principal().ID

	l.mu.Lock()
	removed := l.presence.Delete(id, ep)
	if removed {
		l.observer.Offline(id)
	}
	l.mu.Unlock()

	l.rooms.LeaveAll(ep)
	l.relay.PurgeParticipant(id)
	l.metrics.SetPresence(l.presence.Len())

	log.Info().Str("module", "signaling").Str("identity", id.String()).
		Str("conn_id", ep.ID()).Bool("presence_removed", removed).Msg("disconnected")
}
