package signaling

import (
	"context"
	"time"

	"github.com/mossy-p/callrelay/internal/calls"
	"github.com/mossy-p/callrelay/internal/metrics"
	"github.com/mossy-p/callrelay/internal/models"
	"github.com/rs/zerolog/log"
)

// PresenceReader is the read-only view of the presence directory the relay
// routes through. Only the lifecycle handler mutates presence.
type PresenceReader interface {
	Lookup(id models.Identity) (models.Endpoint, bool)
}

// Relay forwards call signaling between exactly two endpoints per call. It is
// the only writer of the call registry.
//
// A missing session or an unreachable peer on accept, candidate and end means
// the call is already over; those events are dropped without telling anyone.
type Relay struct {
	presence PresenceReader
	calls    *calls.Registry
	metrics  *metrics.Metrics
	now      func() time.Time
}

func NewRelay(presence PresenceReader, m *metrics.Metrics) *Relay {
	return &Relay{
		presence: presence,
		calls:    calls.NewRegistry(),
		metrics:  m,
		now:      time.Now,
	}
}

// Initiate opens a pending session and rings the target, or tells the caller
// the target is not connected.
func (r *Relay) Initiate(sender models.Endpoint, ev models.CallInitiate) {
	from := sender.Principal().ID
	if _, ok := r.presence.Lookup(ev.To); !ok {
		r.reject(sender, ev)
		return
	}

	replaced := r.calls.Put(models.CallSession{
		ID:        ev.CallID,
		From:      from,
		To:        ev.To,
		Offer:     ev.Offer,
		State:     models.CallStatePending,
		CreatedAt: r.now(),
	})
	if replaced {
		log.Warn().Str("module", "signaling").Str("call_id", ev.CallID.String()).Msg("call id reused, previous session overwritten")
	}

	// The target may have disconnected since the first lookup, and its purge
	// misses a session stored after it ran. Presence goes before the purge,
	// so looking again after Put catches that case.
	target, ok := r.presence.Lookup(ev.To)
	if !ok {
		r.calls.Remove(ev.CallID)
		r.metrics.SetActiveCalls(r.calls.Len())
		r.reject(sender, ev)
		return
	}
	r.metrics.SetActiveCalls(r.calls.Len())

	r.deliver(target, models.EventCallIncoming, models.IncomingCall{
		Offer:  ev.Offer,
		CallID: ev.CallID,
		From:   from,
	})
	r.metrics.Event(models.EventCallInitiate, metrics.Forwarded)
	log.Info().Str("module", "signaling").Str("call_id", ev.CallID.String()).
		Str("from", from.String()).Str("to", ev.To.String()).Msg("call initiated")
}

func (r *Relay) reject(sender models.Endpoint, ev models.CallInitiate) {
	log.Info().Str("module", "signaling").Str("call_id", ev.CallID.String()).
		Str("from", sender.Principal().ID.String()).Str("to", ev.To.String()).Msg("call rejected, recipient not available")
	r.deliver(sender, models.EventCallRejected, models.CallRejected{
		CallID: ev.CallID,
		Reason: models.ReasonNotAvailable,
	})
	r.metrics.Event(models.EventCallInitiate, metrics.Rejected)
}

// Accept relays the recipient's answer to the initiator and marks the call
// connected. The session stays registered for candidate exchange.
func (r *Relay) Accept(sender models.Endpoint, ev models.CallAccept) {
	if _, ok := r.calls.Get(ev.CallID); !ok {
		r.drop(models.EventCallAccepted, ev.CallID, "no session")
		return
	}
	initiator, ok := r.presence.Lookup(ev.To)
	if !ok {
		r.drop(models.EventCallAccepted, ev.CallID, "peer offline")
		return
	}
	// A repeated answer on a connected call is still relayed.
	if _, ok := r.calls.Advance(ev.CallID, models.CallStatePending, models.CallStateConnected); !ok {
		if _, ok := r.calls.Get(ev.CallID); !ok {
			r.drop(models.EventCallAccepted, ev.CallID, "no session")
			return
		}
	}

	r.deliver(initiator, models.EventCallAccepted, models.CallAccepted{
		Answer: ev.Answer,
		CallID: ev.CallID,
	})
	r.metrics.Event(models.EventCallAccepted, metrics.Forwarded)
	log.Info().Str("module", "signaling").Str("call_id", ev.CallID.String()).
		Str("from", sender.Principal().ID.String()).Msg("call accepted")
}

// Candidate relays an ICE candidate in either direction.
func (r *Relay) Candidate(sender models.Endpoint, ev models.CallICECandidate) {
	if _, ok := r.calls.Get(ev.CallID); !ok {
		r.drop(models.EventICECandidate, ev.CallID, "no session")
		return
	}
	peer, ok := r.presence.Lookup(ev.To)
	if !ok {
		r.drop(models.EventICECandidate, ev.CallID, "peer offline")
		return
	}

	r.deliver(peer, models.EventICECandidate, models.ICECandidate{
		Candidate: ev.Candidate,
		CallID:    ev.CallID,
		From:      sender.Principal().ID,
	})
	r.metrics.Event(models.EventICECandidate, metrics.Forwarded)
}

// End removes the session and notifies the other party if it is reachable.
// Removal happens first so two racing ends produce one notification.
func (r *Relay) End(sender models.Endpoint, ev models.CallEnd) {
	if _, ok := r.calls.Remove(ev.CallID); !ok {
		r.drop(models.EventCallEnd, ev.CallID, "no session")
		return
	}
	r.metrics.SetActiveCalls(r.calls.Len())
	log.Info().Str("module", "signaling").Str("call_id", ev.CallID.String()).
		Str("from", sender.Principal().ID.String()).Msg("call ended")

	peer, ok := r.presence.Lookup(ev.To)
	if !ok {
		r.metrics.Event(models.EventCallEnd, metrics.Handled)
		return
	}
	r.deliver(peer, models.EventCallEnded, models.CallEnded{CallID: ev.CallID})
	r.metrics.Event(models.EventCallEnd, metrics.Forwarded)
}

// PurgeParticipant removes every session id takes part in. No events are
// emitted to the other party.
func (r *Relay) PurgeParticipant(id models.Identity) []models.CallSession {
	purged := r.calls.RemoveInvolving(id)
	if len(purged) > 0 {
		r.metrics.SetActiveCalls(r.calls.Len())
		log.Info().Str("module", "signaling").Str("identity", id.String()).
			Int("calls", len(purged)).Msg("purged calls of disconnected identity")
	}
	return purged
}

// Sweep removes pending sessions older than ttl.
func (r *Relay) Sweep(ttl time.Duration) []models.CallSession {
	expired := r.calls.RemovePendingBefore(r.now().Add(-ttl))
	if len(expired) > 0 {
		r.metrics.SetActiveCalls(r.calls.Len())
		for _, s := range expired {
			log.Info().Str("module", "signaling").Str("call_id", s.ID.String()).
				Dur("age", r.now().Sub(s.CreatedAt)).Msg("expired unanswered call")
		}
	}
	return expired
}

// RunSweeper calls Sweep every interval until ctx is done. A non-positive ttl
// disables sweeping.
func (r *Relay) RunSweeper(ctx context.Context, ttl, interval time.Duration) {
	if ttl <= 0 || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep(ttl)
		}
	}
}

// Call returns a snapshot of the session for id.
func (r *Relay) Call(id models.CallID) (models.CallSession, bool) {
	return r.calls.Get(id)
}

func (r *Relay) ActiveCalls() int {
	return r.calls.Len()
}

func (r *Relay) deliver(ep models.Endpoint, event string, payload any) {
	if err := ep.Send(models.OutboundMessage{Event: event, Data: payload}); err != nil {
		log.Warn().Err(err).Str("module", "signaling").Str("conn_id", ep.ID()).
			Str("event", event).Msg("message dropped")
	}
}

func (r *Relay) drop(event string, callID models.CallID, reason string) {
	r.metrics.Event(event, metrics.Dropped)
	log.Debug().Str("module", "signaling").Str("call_id", callID.String()).
		Str("event", event).Str("reason", reason).Msg("event dropped")
}
