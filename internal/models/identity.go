package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Identity is the authenticated party on one end of the relay, usually a
// numeric CRM user id. Identities with the same text are the same party
// whichever JSON kind carried them; compare them with Equal or Key.
type Identity struct{ wireID }

// CallID is the caller-chosen identifier of a call attempt.
type CallID struct{ wireID }

func NewIdentity(text string) Identity { return Identity{wireID{text: text}} }

// NewNumericIdentity returns an identity encoded as a JSON number. text must
// be a JSON number literal.
func NewNumericIdentity(text string) Identity { return Identity{wireID{text: text, numeric: true}} }

func NewCallID(text string) CallID        { return CallID{wireID{text: text}} }
func NewNumericCallID(text string) CallID { return CallID{wireID{text: text, numeric: true}} }

func (id Identity) Equal(other Identity) bool { return id.text == other.text }
func (id CallID) Equal(other CallID) bool     { return id.text == other.text }

// wireID is an identifier that browser clients send as either a JSON string
// or a JSON number and compare strictly, so it goes back out with the kind
// and literal it arrived with.
type wireID struct {
	text    string
	numeric bool
}

func (w wireID) String() string { return w.text }

// Key is the map key for the identifier. It ignores the JSON kind.
func (w wireID) Key() string { return w.text }

func (w wireID) IsZero() bool { return w.text == "" }

func (w wireID) IsNumeric() bool { return w.numeric }

func (w wireID) MarshalJSON() ([]byte, error) {
	if w.numeric {
		return []byte(w.text), nil
	}
	return json.Marshal(w.text)
}

func (w *wireID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*w = wireID{}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*w = wireID{text: s}
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*w = wireID{text: n.String(), numeric: true}
	return nil
}

// Principal is the verified identity and role attached to a connection.
type Principal struct {
	ID   Identity `json:"id"`
	Role string   `json:"role"`
}
