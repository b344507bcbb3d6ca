// Package redis mirrors relay presence into Redis for dashboards that want to
// know who is online. The relay itself never reads it back.
package redis

import (
	"context"
	"time"

	"github.com/mossy-p/callrelay/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const onlineSetKey = "presence:online"

func connKey(id models.Identity) string { return "presence:conn:" + id.Key() }

type presenceUpdate struct {
	id     models.Identity
	role   string
	connID string
	online bool
}

// PresenceMirror writes presence changes from a single worker goroutine so
// updates for one identity are applied in order. Online and Offline never
// block; updates are dropped when the queue is full.
type PresenceMirror struct {
	client  redis.Cmdable
	ttl     time.Duration
	updates chan presenceUpdate
}

func NewPresenceMirror(client redis.Cmdable, ttl time.Duration, queue int) *PresenceMirror {
	if queue <= 0 {
		queue = 1024
	}
	return &PresenceMirror{
		client:  client,
		ttl:     ttl,
		updates: make(chan presenceUpdate, queue),
	}
}

func (m *PresenceMirror) Online(p models.Principal, connID string) {
	m.enqueue(presenceUpdate{id: p.ID, role: p.Role, connID: connID, online: true})
}

func (m *PresenceMirror) Offline(id models.Identity) {
	m.enqueue(presenceUpdate{id: id})
}

func (m *PresenceMirror) enqueue(u presenceUpdate) {
	select {
	case m.updates <- u:
	default:
		log.Warn().Str("module", "redis").Str("identity", u.id.String()).Msg("presence mirror queue full, update dropped")
	}
}

// Run applies queued updates until ctx is done.
func (m *PresenceMirror) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case u := <-m.updates:
			if err := m.apply(ctx, u); err != nil {
				log.Error().Err(err).Str("module", "redis").Str("identity", u.id.String()).
					Bool("online", u.online).Msg("presence mirror write failed")
			}
		}
	}
}

func (m *PresenceMirror) apply(ctx context.Context, u presenceUpdate) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	_, err := m.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if u.online {
			pipe.SAdd(ctx, onlineSetKey, u.id.Key())
			pipe.HSet(ctx, connKey(u.id), "conn_id", u.connID, "role", u.role, "since", time.Now().Unix())
			if m.ttl > 0 {
				pipe.Expire(ctx, connKey(u.id), m.ttl)
			}
			return nil
		}
		pipe.SRem(ctx, onlineSetKey, u.id.Key())
		pipe.Del(ctx, connKey(u.id))
		return nil
	})
	return err
}
