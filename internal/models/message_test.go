package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentityJSON(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		text    string
		numeric bool
	}{
		{"number", `7`, "7", true},
		{"numeric string stays string", `"7"`, "7", false},
		{"timestamp string stays string", `"1700000000000"`, "1700000000000", false},
		{"text", `"agent-7"`, "agent-7", false},
		{"leading zero", `"007"`, "007", false},
		{"fraction", `1.5`, "1.5", true},
		{"exponent keeps literal", `1e3`, "1e3", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var id Identity
			require.NoError(t, json.Unmarshal([]byte(tt.in), &id))
			assert.Equal(t, tt.text, id.String())
			assert.Equal(t, tt.numeric, id.IsNumeric())

			out, err := json.Marshal(id)
			require.NoError(t, err)
			assert.Equal(t, tt.in, string(out))
		})
	}

	var id Identity
	require.NoError(t, json.Unmarshal([]byte(`null`), &id))
	assert.True(t, id.IsZero())
	assert.Error(t, json.Unmarshal([]byte(`{"id":1}`), &id))
	assert.Error(t, json.Unmarshal([]byte(`true`), &id))
}

func TestIdentityEqualIgnoresKind(t *testing.T) {
	assert.True(t, NewNumericIdentity("7").Equal(NewIdentity("7")))
	assert.Equal(t, NewNumericIdentity("7").Key(), NewIdentity("7").Key())
	assert.False(t, NewIdentity("7").Equal(NewIdentity("8")))
}

func TestCallIDRoundTrip(t *testing.T) {
	for _, raw := range []string{`"1700000000000"`, `"42"`, `42`, `1.5`, `1e3`, `"abc"`} {
		t.Run(raw, func(t *testing.T) {
			ev, err := DecodeInbound([]byte(`{"event":"call:end","data":{"to":1,"callId":` + raw + `}}`))
			require.NoError(t, err)
			end := ev.(CallEnd)

			out, err := json.Marshal(OutboundMessage{Event: EventCallEnded, Data: CallEnded{CallID: end.CallID}})
			require.NoError(t, err)
			assert.JSONEq(t, `{"event":"call:ended","data":{"callId":`+raw+`}}`, string(out))
			assert.Contains(t, string(out), `"callId":`+raw)
		})
	}
}

func TestDecodeInbound(t *testing.T) {
	ev, err := DecodeInbound([]byte(`{"event":"call:initiate","data":{"offer":{"type":"offer","sdp":"v=0"},"to":9,"callId":"c-1"}}`))
	require.NoError(t, err)
	call, ok := ev.(CallInitiate)
	require.True(t, ok)
	assert.Equal(t, NewNumericIdentity("9"), call.To)
	assert.Equal(t, NewCallID("c-1"), call.CallID)
	assert.JSONEq(t, `{"type":"offer","sdp":"v=0"}`, string(call.Offer))

	ev, err = DecodeInbound([]byte(`{"event":"join:room","data":{"userId":42}}`))
	require.NoError(t, err)
	assert.Equal(t, JoinRoom{UserID: NewNumericIdentity("42")}, ev)

	ev, err = DecodeInbound([]byte(`{"event":"call:end","data":{"to":"3","callId":5}}`))
	require.NoError(t, err)
	assert.Equal(t, CallEnd{To: NewIdentity("3"), CallID: NewNumericCallID("5")}, ev)
}

func TestDecodeInboundRejects(t *testing.T) {
	tests := []struct {
		name  string
		frame string
		want  error
	}{
		{"not json", `hello`, ErrInvalidPayload},
		{"unknown event", `{"event":"call:hold","data":{}}`, ErrUnknownEvent},
		{"outbound event name", `{"event":"call:incoming","data":{}}`, ErrUnknownEvent},
		{"missing data", `{"event":"call:end"}`, ErrInvalidPayload},
		{"missing to", `{"event":"call:end","data":{"callId":"c"}}`, ErrInvalidPayload},
		{"missing call id", `{"event":"call:accepted","data":{"to":"1","answer":{}}}`, ErrInvalidPayload},
		{"missing user id", `{"event":"join:room","data":{}}`, ErrInvalidPayload},
		{"bad id type", `{"event":"call:end","data":{"to":true,"callId":"c"}}`, ErrInvalidPayload},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := DecodeInbound([]byte(tt.frame))
			assert.Nil(t, ev)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestOutboundRelaysPayloadVerbatim(t *testing.T) {
	offer := json.RawMessage(`{"sdp":"v=0\r\n","type":"offer","x-custom":[1,2]}`)
	out, err := json.Marshal(OutboundMessage{
		Event: EventCallIncoming,
		Data:  IncomingCall{Offer: offer, CallID: NewCallID("c-1"), From: NewNumericIdentity("7")},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"call:incoming","data":{"offer":{"sdp":"v=0\r\n","type":"offer","x-custom":[1,2]},"callId":"c-1","from":7}}`, string(out))
}

func TestCallSessionInvolves(t *testing.T) {
	s := CallSession{ID: NewCallID("c"), From: NewNumericIdentity("1"), To: NewIdentity("2")}
	assert.True(t, s.Involves(NewIdentity("1")))
	assert.True(t, s.Involves(NewNumericIdentity("2")))
	assert.False(t, s.Involves(NewIdentity("3")))
	assert.Equal(t, "pending", CallStatePending.String())
}
