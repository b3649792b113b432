package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/bytedance/sonic"
)

// Envelope is the unit of exchange between contexts. The same shape travels
// over the native extension channel and the postMessage relay.
//
// Fields the bridge does not recognize are captured in Extra on decode and
// re-emitted on encode, so callers can attach their own fields and rely on
// them surviving the round trip.
type Envelope struct {
	Type MessageType
	From Context
	To   Context

	// ExpectsResponse marks the sender as awaiting a reply correlated by
	// RequestID.
	ExpectsResponse bool

	// RequestID correlates a request with its reply. Optional on build;
	// the dispatcher assigns one before transmission when a response is
	// expected.
	RequestID string

	// Payload is an arbitrary JSON-serializable value, opaque to the
	// bridge.
	Payload any

	// Source is the relay traffic marker (SourceExtension or
	// SourceResponse). Never set on the native wire.
	Source string

	// Success and Error form the conventional reply shape. The security
	// layer uses them for structured rejection replies.
	Success *bool
	Error   string

	// Extra holds caller-defined fields passed through opaquely.
	Extra map[string]json.RawMessage
}

// Reserved wire keys; everything else lands in Extra.
const (
	keyType            = "type"
	keyFrom            = "from"
	keyTo              = "to"
	keyExpectsResponse = "expectsResponse"
	keyRequestID       = "requestId"
	keyPayload         = "payload"
	keySource          = "source"
	keySuccess         = "success"
	keyError           = "error"
)

// Marshal encodes the envelope to its wire form.
func (e *Envelope) Marshal() ([]byte, error) {
	fields := make(map[string]json.RawMessage, len(e.Extra)+9)
	for k, v := range e.Extra {
		fields[k] = v
	}

	set := func(key string, value any) error {
		raw, err := sonic.Marshal(value)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", key, err)
		}
		fields[key] = raw
		return nil
	}

	if err := set(keyType, e.Type); err != nil {
		return nil, err
	}
	if e.From != "" {
		if err := set(keyFrom, e.From); err != nil {
			return nil, err
		}
	}
	if e.To != "" {
		if err := set(keyTo, e.To); err != nil {
			return nil, err
		}
	}
	if e.ExpectsResponse {
		if err := set(keyExpectsResponse, true); err != nil {
			return nil, err
		}
	}
	if e.RequestID != "" {
		if err := set(keyRequestID, e.RequestID); err != nil {
			return nil, err
		}
	}
	if e.Payload != nil {
		if err := set(keyPayload, e.Payload); err != nil {
			return nil, err
		}
	}
	if e.Source != "" {
		if err := set(keySource, e.Source); err != nil {
			return nil, err
		}
	}
	if e.Success != nil {
		if err := set(keySuccess, *e.Success); err != nil {
			return nil, err
		}
	}
	if e.Error != "" {
		if err := set(keyError, e.Error); err != nil {
			return nil, err
		}
	}

	return sonic.Marshal(fields)
}

// Unmarshal decodes an envelope from its wire form. Unrecognized fields are
// preserved in Extra.
func Unmarshal(data []byte) (*Envelope, error) {
	var fields map[string]json.RawMessage
	if err := sonic.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}

	env := &Envelope{}

	pop := func(key string, dst any) error {
		raw, ok := fields[key]
		if !ok {
			return nil
		}
		delete(fields, key)
		if err := sonic.Unmarshal(raw, dst); err != nil {
			return fmt.Errorf("decode %s: %w", key, err)
		}
		return nil
	}

	if err := pop(keyType, &env.Type); err != nil {
		return nil, err
	}
	if err := pop(keyFrom, &env.From); err != nil {
		return nil, err
	}
	if err := pop(keyTo, &env.To); err != nil {
		return nil, err
	}
	if err := pop(keyExpectsResponse, &env.ExpectsResponse); err != nil {
		return nil, err
	}
	if err := pop(keyRequestID, &env.RequestID); err != nil {
		return nil, err
	}
	if err := pop(keyPayload, &env.Payload); err != nil {
		return nil, err
	}
	if err := pop(keySource, &env.Source); err != nil {
		return nil, err
	}
	if err := pop(keySuccess, &env.Success); err != nil {
		return nil, err
	}
	if err := pop(keyError, &env.Error); err != nil {
		return nil, err
	}

	if len(fields) > 0 {
		env.Extra = fields
	}
	return env, nil
}

// Clone returns a shallow copy with its own Extra map, safe for a transport
// to stamp without mutating the caller's envelope.
func (e *Envelope) Clone() *Envelope {
	out := *e
	if e.Extra != nil {
		out.Extra = make(map[string]json.RawMessage, len(e.Extra))
		for k, v := range e.Extra {
			out.Extra[k] = v
		}
	}
	return &out
}

// Reply builds a response envelope correlated to e.
func (e *Envelope) Reply(payload any) *Envelope {
	return &Envelope{
		Type:      e.Type,
		From:      e.To,
		To:        e.From,
		RequestID: e.RequestID,
		Payload:   payload,
	}
}

// Failure builds a structured rejection reply correlated to e.
func (e *Envelope) Failure(reason string) *Envelope {
	ok := false
	return &Envelope{
		Type:      e.Type,
		From:      e.To,
		To:        e.From,
		RequestID: e.RequestID,
		Success:   &ok,
		Error:     reason,
	}
}
