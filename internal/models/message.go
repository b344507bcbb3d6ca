package models

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Event names carried in the envelope.
const (
	EventJoinRoom      = "join:room"
	EventCallInitiate  = "call:initiate"
	EventCallAccepted  = "call:accepted"
	EventICECandidate  = "call:ice-candidate"
	EventCallEnd       = "call:end"
	EventCallIncoming  = "call:incoming"
	EventCallRejected  = "call:rejected"
	EventCallEnded     = "call:ended"
	ReasonNotAvailable = "Recipient not available"
)

var (
	ErrUnknownEvent   = errors.New("unknown event")
	ErrInvalidPayload = errors.New("invalid payload")
)

// Envelope is one WebSocket frame.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// InboundEvent is the closed set of events a client may send.
type InboundEvent interface {
	EventName() string
	validate() error
}

type JoinRoom struct {
	UserID Identity `json:"userId"`
}

type CallInitiate struct {
	Offer  json.RawMessage `json:"offer"`
	To     Identity        `json:"to"`
	CallID CallID          `json:"callId"`
}

type CallAccept struct {
	Answer json.RawMessage `json:"answer"`
	To     Identity        `json:"to"`
	CallID CallID          `json:"callId"`
}

type CallICECandidate struct {
	Candidate json.RawMessage `json:"candidate"`
	To        Identity        `json:"to"`
	CallID    CallID          `json:"callId"`
}

type CallEnd struct {
	To     Identity `json:"to"`
	CallID CallID   `json:"callId"`
}

func (JoinRoom) EventName() string         { return EventJoinRoom }
func (CallInitiate) EventName() string     { return EventCallInitiate }
func (CallAccept) EventName() string       { return EventCallAccepted }
func (CallICECandidate) EventName() string { return EventICECandidate }
func (CallEnd) EventName() string          { return EventCallEnd }

func (e JoinRoom) validate() error {
	if e.UserID.IsZero() {
		return fmt.Errorf("%w: userId is required", ErrInvalidPayload)
	}
	return nil
}

func (e CallInitiate) validate() error     { return requireRoute(e.To, e.CallID) }
func (e CallAccept) validate() error       { return requireRoute(e.To, e.CallID) }
func (e CallICECandidate) validate() error { return requireRoute(e.To, e.CallID) }
func (e CallEnd) validate() error          { return requireRoute(e.To, e.CallID) }

func requireRoute(to Identity, callID CallID) error {
	if to.IsZero() {
		return fmt.Errorf("%w: to is required", ErrInvalidPayload)
	}
	if callID.IsZero() {
		return fmt.Errorf("%w: callId is required", ErrInvalidPayload)
	}
	return nil
}

// DecodeInbound parses a raw frame into one of the inbound event types.
func DecodeInbound(frame []byte) (InboundEvent, error) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	var (
		ev  InboundEvent
		err error
	)
	switch env.Event {
	case EventJoinRoom:
		ev, err = decodeAs[JoinRoom](env.Data)
	case EventCallInitiate:
		ev, err = decodeAs[CallInitiate](env.Data)
	case EventCallAccepted:
		ev, err = decodeAs[CallAccept](env.Data)
	case EventICECandidate:
		ev, err = decodeAs[CallICECandidate](env.Data)
	case EventCallEnd:
		ev, err = decodeAs[CallEnd](env.Data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, env.Event)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidPayload, env.Event, err)
	}
	if err := ev.validate(); err != nil {
		return nil, err
	}
	return ev, nil
}

func decodeAs[T InboundEvent](data json.RawMessage) (InboundEvent, error) {
	var v T
	if len(data) == 0 {
		return nil, errors.New("missing data")
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// OutboundMessage is an event addressed to exactly one connection.
type OutboundMessage struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

type IncomingCall struct {
	Offer  json.RawMessage `json:"offer"`
	CallID CallID          `json:"callId"`
	From   Identity        `json:"from"`
}

type CallRejected struct {
	CallID CallID `json:"callId"`
	Reason string `json:"reason"`
}

type CallAccepted struct {
	Answer json.RawMessage `json:"answer"`
	CallID CallID          `json:"callId"`
}

type ICECandidate struct {
	Candidate json.RawMessage `json:"candidate"`
	CallID    CallID          `json:"callId"`
	From      Identity        `json:"from"`
}

type CallEnded struct {
	CallID CallID `json:"callId"`
}
