package models

import "time"

// CallState is the lifecycle position of a call session.
type CallState int

const (
	CallStatePending CallState = iota
	CallStateConnected
	CallStateEnded
)

func (s CallState) String() string {
	switch s {
	case CallStatePending:
		return "pending"
	case CallStateConnected:
		return "connected"
	case CallStateEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// CallSession is the relay's record of one call attempt.
type CallSession struct {
	ID        CallID
	From      Identity // initiator
	To        Identity // target
	Offer     []byte
	State     CallState
	CreatedAt time.Time
}

// Involves reports whether id is the initiator or the target.
func (s CallSession) Involves(id Identity) bool {
	return s.From.Equal(id) || s.To.Equal(id)
}
