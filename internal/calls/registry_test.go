package calls

import (
	"testing"
	"time"

	"github.com/mossy-p/callrelay/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	uid = models.NewIdentity
	cid = models.NewCallID
)

func session(id, from, to string, created time.Time) models.CallSession {
	return models.CallSession{ID: cid(id), From: uid(from), To: uid(to), State: models.CallStatePending, CreatedAt: created}
}

func TestRegistry_PutGetRemove(t *testing.T) {
	r := NewRegistry()
	now := time.Now()

	assert.False(t, r.Put(session("c1", "1", "2", now)))
	got, ok := r.Get(cid("c1"))
	require.True(t, ok)
	assert.Equal(t, uid("1"), got.From)
	assert.Equal(t, models.CallStatePending, got.State)

	removed, ok := r.Remove(cid("c1"))
	require.True(t, ok)
	assert.Equal(t, models.CallStateEnded, removed.State)

	_, ok = r.Get(cid("c1"))
	assert.False(t, ok)
	_, ok = r.Remove(cid("c1"))
	assert.False(t, ok)
}

func TestRegistry_PutOverwritesSameID(t *testing.T) {
	r := NewRegistry()
	r.Put(session("c1", "1", "2", time.Now()))
	assert.True(t, r.Put(session("c1", "3", "4", time.Now())))

	got, _ := r.Get(cid("c1"))
	assert.Equal(t, uid("3"), got.From)
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_KeyIgnoresJSONKind(t *testing.T) {
	r := NewRegistry()
	s := session("", "1", "2", time.Now())
	s.ID = models.NewNumericCallID("42")
	r.Put(s)

	got, ok := r.Get(cid("42"))
	require.True(t, ok)
	assert.True(t, got.ID.IsNumeric())
}

func TestRegistry_GetReturnsCopy(t *testing.T) {
	r := NewRegistry()
	r.Put(session("c1", "1", "2", time.Now()))

	got, _ := r.Get(cid("c1"))
	got.State = models.CallStateEnded

	again, _ := r.Get(cid("c1"))
	assert.Equal(t, models.CallStatePending, again.State)
}

func TestRegistry_Advance(t *testing.T) {
	r := NewRegistry()
	r.Put(session("c1", "1", "2", time.Now()))

	s, ok := r.Advance(cid("c1"), models.CallStatePending, models.CallStateConnected)
	require.True(t, ok)
	assert.Equal(t, models.CallStateConnected, s.State)

	s, ok = r.Advance(cid("c1"), models.CallStatePending, models.CallStateConnected)
	require.True(t, ok)
	assert.Equal(t, models.CallStateConnected, s.State)

	_, ok = r.Advance(cid("missing"), models.CallStatePending, models.CallStateConnected)
	assert.False(t, ok)
}

func TestRegistry_RemoveInvolving(t *testing.T) {
	r := NewRegistry()
	now := time.Now()
	r.Put(session("c1", "x", "2", now))
	r.Put(session("c2", "3", "x", now))
	r.Put(session("c3", "4", "5", now))

	removed := r.RemoveInvolving(uid("x"))
	ids := make([]models.CallID, 0, len(removed))
	for _, s := range removed {
		ids = append(ids, s.ID)
	}
	assert.ElementsMatch(t, []models.CallID{cid("c1"), cid("c2")}, ids)

	_, ok := r.Get(cid("c3"))
	assert.True(t, ok)
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_RemovePendingBefore(t *testing.T) {
	r := NewRegistry()
	base := time.Unix(1_700_000_000, 0)
	r.Put(session("old", "1", "2", base))
	r.Put(session("fresh", "1", "3", base.Add(time.Hour)))
	r.Put(session("live", "4", "5", base))
	r.Advance(cid("live"), models.CallStatePending, models.CallStateConnected)

	removed := r.RemovePendingBefore(base.Add(time.Minute))
	require.Len(t, removed, 1)
	assert.Equal(t, cid("old"), removed[0].ID)

	_, ok := r.Get(cid("live"))
	assert.True(t, ok)
	_, ok = r.Get(cid("fresh"))
	assert.True(t, ok)
}
