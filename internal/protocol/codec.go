package protocol

import (
	"encoding/json"
	"fmt"
)

// Payload is implemented by every message body.
type Payload interface {
	Validate() error
}

// New wraps payload in an envelope of type t. A nil payload leaves the
// envelope body empty.
func New(t string, payload any) (Envelope, error) {
	if !knownTypes[t] {
		return Envelope{}, fmt.Errorf("%q: %w", t, ErrUnknownType)
	}
	if payload == nil {
		return Envelope{Type: t}, nil
	}
	pb, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode %s payload: %w", t, err)
	}
	return Envelope{Type: t, Payload: pb}, nil
}

// Encode builds the wire bytes for a message.
func Encode(t string, payload any) ([]byte, error) {
	env, err := New(t, payload)
	if err != nil {
		return nil, err
	}
	return Marshal(env)
}

// Marshal serializes an envelope.
func Marshal(env Envelope) ([]byte, error) {
	return json.Marshal(env)
}

// DecodeEnvelope parses the frame without touching the payload.
func DecodeEnvelope(b []byte) (Envelope, error) {
	if len(b) == 0 {
		return Envelope{}, fmt.Errorf("empty frame: %w", ErrMalformed)
	}
	var env Envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if !knownTypes[env.Type] {
		return Envelope{}, fmt.Errorf("%q: %w", env.Type, ErrUnknownType)
	}
	return env, nil
}

// DecodePayload unmarshals the envelope body into T.
func DecodePayload[T any](env Envelope) (T, error) {
	var out T
	if len(env.Payload) == 0 {
		return out, fmt.Errorf("empty payload for type %q: %w", env.Type, ErrMalformed)
	}
	if err := json.Unmarshal(env.Payload, &out); err != nil {
		return out, fmt.Errorf("%s payload: %w: %v", env.Type, ErrMalformed, err)
	}
	return out, nil
}

// Decode unmarshals and validates the envelope body.
func Decode[T Payload](env Envelope) (T, error) {
	out, err := DecodePayload[T](env)
	if err != nil {
		return out, err
	}
	if err := out.Validate(); err != nil {
		return out, fmt.Errorf("%s: %w", env.Type, err)
	}
	return out, nil
}
