package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrUnknownEventType is returned by Decode for a type tag with no registered
// decoder.
var ErrUnknownEventType = errors.New("unknown event type")

// Envelope is the wire form of an event once it leaves the process.
type Envelope struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	AggregateID string          `json:"aggregate_id"`
	Origin      string          `json:"origin,omitempty"`
	OccurredAt  time.Time       `json:"occurred_at"`
	Payload     json.RawMessage `json:"payload"`
}

// NewEnvelope wraps e with a fresh envelope id.
func NewEnvelope(e Event, origin string, now time.Time) (Envelope, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s payload: %w", e.EventType(), err)
	}
	return Envelope{
		ID:          uuid.NewString(),
		Type:        e.EventType(),
		AggregateID: e.AggregateID(),
		Origin:      origin,
		OccurredAt:  now.UTC(),
		Payload:     payload,
	}, nil
}

// Codec maps type tags back to concrete event types.
type Codec struct {
	mu       sync.RWMutex
	decoders map[string]func(json.RawMessage) (Event, error)
}

func NewCodec() *Codec {
	return &Codec{decoders: make(map[string]func(json.RawMessage) (Event, error))}
}

// Register adds a decoder for T under T's type tag.
func Register[T Event](c *Codec) {
	var zero T
	c.mu.Lock()
	defer c.mu.Unlock()
	c.decoders[zero.EventType()] = func(raw json.RawMessage) (Event, error) {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		return v, nil
	}
}

// Encode marshals e into an envelope.
func (c *Codec) Encode(e Event, origin string, now time.Time) ([]byte, error) {
	env, err := NewEnvelope(e, origin, now)
	if err != nil {
		return nil, err
	}
	return json.Marshal(env)
}

// Decode parses an envelope and its payload.
func (c *Codec) Decode(data []byte) (Envelope, Event, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, nil, fmt.Errorf("unmarshal envelope: %w", err)
	}
	c.mu.RLock()
	decode, ok := c.decoders[env.Type]
	c.mu.RUnlock()
	if !ok {
		return env, nil, fmt.Errorf("%w: %q", ErrUnknownEventType, env.Type)
	}
	e, err := decode(env.Payload)
	if err != nil {
		return env, nil, fmt.Errorf("unmarshal %s payload: %w", env.Type, err)
	}
	return env, e, nil
}
