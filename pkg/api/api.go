// Package api defines the messages exchanged between peers and the relay.
//
// Each message is a JSON object with a required "type" discriminator,
// the rest of the fields depend on the type:
//
//	in:  join, chat
//	out: existing-users, joined, user-joined, chat, user-left, error
//
// Inbound messages are decoded in two passes: first the type,
// then the payload into a type-specific request structure.
//
// Example:
//
//	{"type":"join","username":"Alice","public_ip":"1.2.3.4","public_port":5000}
//	{"type":"joined","peerId":"5d6b1c1e-...","userCount":1}
package api

import (
	"errors"
	"fmt"

	"github.com/goccy/go-json"
)

type T string

const (
	Join T = "join"
	Chat T = "chat"

	ExistingUsers T = "existing-users"
	Joined        T = "joined"
	UserJoined    T = "user-joined"
	UserLeft      T = "user-left"
	Error         T = "error"
)

func (t T) String() string { return string(t) }

var (
	ErrMalformed   = errors.New("malformed message")
	ErrUnknownType = errors.New("unknown message type")
)

// In is an inbound message with the payload kept for the second pass.
type In struct {
	T       T `json:"type"`
	payload []byte
}

// Decode reads the type of the message.
func Decode(data []byte) (In, error) {
	var in In
	if err := json.Unmarshal(data, &in); err != nil {
		return in, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	switch in.T {
	case Join, Chat:
	case "":
		return in, fmt.Errorf("%w: no type", ErrMalformed)
	default:
		return in, fmt.Errorf("%w: %q", ErrUnknownType, string(in.T))
	}
	in.payload = data
	return in, nil
}

// Unwrap decodes the payload of a message into some request structure.
func Unwrap[R any](in In) (*R, error) {
	out := new(R)
	if err := json.Unmarshal(in.payload, out); err != nil {
		return nil, fmt.Errorf("%w: %v %v", ErrMalformed, in.T, err)
	}
	return out, nil
}

// Encode serializes an outbound message.
func Encode(v any) ([]byte, error) { return json.Marshal(v) }
