// Package client is the sending face of the bridge: it assigns request ids,
// registers waiters, and dispatches envelopes through whichever transport
// the build was constructed with.
package client

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/absmartly/extension-bridge/internal/correlate"
	"github.com/absmartly/extension-bridge/internal/logging"
	"github.com/absmartly/extension-bridge/internal/protocol"
	"github.com/absmartly/extension-bridge/internal/shared/id"
	"github.com/absmartly/extension-bridge/internal/transport"
)

// Timeouts for awaited responses. The default covers ordinary round trips;
// known-long-running operations such as AI generation pass WithTimeout(Long).
const (
	DefaultTimeout = 10 * time.Second
	LongTimeout    = 30 * time.Second
)

// replySinkSetter is implemented by both transports; the messenger wires
// itself in as the sink so inbound replies settle its correlator.
type replySinkSetter interface {
	SetReplySink(func(*protocol.Envelope))
}

// Messenger dispatches envelopes and awaits their replies.
type Messenger struct {
	transport      transport.MessageTransport
	mode           transport.Mode
	registry       *correlate.Registry
	ids            *id.Generator
	logger         *logging.Logger
	defaultTimeout time.Duration
}

// Option configures a Messenger.
type Option func(*Messenger)

// WithGenerator substitutes the request-id generator, for deterministic
// tests.
func WithGenerator(g *id.Generator) Option {
	return func(m *Messenger) { m.ids = g }
}

// WithDefaultTimeout overrides the default await window.
func WithDefaultTimeout(d time.Duration) Option {
	return func(m *Messenger) { m.defaultTimeout = d }
}

// New creates a messenger on the given transport. The mode is decided once,
// by the composition root, and injected here; nothing re-probes it per call.
func New(t transport.MessageTransport, mode transport.Mode, registry *correlate.Registry, logger *logging.Logger, opts ...Option) *Messenger {
	if logger == nil {
		logger = logging.NewNop()
	}
	m := &Messenger{
		transport:      t,
		mode:           mode,
		registry:       registry,
		ids:            id.Default(),
		logger:         logger.Named("messenger"),
		defaultTimeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(m)
	}
	if s, ok := t.(replySinkSetter); ok {
		s.SetReplySink(m.HandleReply)
	}
	return m
}

// Mode returns the transport mode the messenger was constructed with.
func (m *Messenger) Mode() transport.Mode { return m.mode }

// HandleReply routes an inbound reply envelope to its waiter. Unknown and
// late replies are ignored.
func (m *Messenger) HandleReply(env *protocol.Envelope) {
	m.registry.Resolve(env)
}

type sendOptions struct {
	timeout time.Duration
}

// SendOption configures one Send call.
type SendOption func(*sendOptions)

// WithTimeout overrides the await window for this call.
func WithTimeout(d time.Duration) SendOption {
	return func(o *sendOptions) { o.timeout = d }
}

// Send delivers env to its declared destination. When env expects a
// response, Send blocks until the reply arrives, the timeout fires, or ctx
// is cancelled; the returned envelope is the reply. Fire-and-forget sends
// return once the transport accepts the message.
func (m *Messenger) Send(ctx context.Context, env *protocol.Envelope, opts ...SendOption) (*protocol.Envelope, error) {
	so := sendOptions{timeout: m.defaultTimeout}
	for _, opt := range opts {
		opt(&so)
	}

	if env.RequestID == "" {
		env.RequestID = id.NewRequestIDFrom(m.ids).String()
	}

	if !env.ExpectsResponse {
		if err := m.transport.Send(ctx, env); err != nil {
			if m.mode == transport.ModeRelay {
				// Fire-and-forget on the relay: log, never throw.
				m.logger.Warn("fire-and-forget delivery failed",
					zap.String("type", env.Type.String()),
					zap.Error(err),
				)
				return nil, nil
			}
			// The native call itself rejected; the caller is awaiting
			// transport acceptance, so that propagates.
			return nil, err
		}
		return nil, nil
	}

	// Register before sending so a reply can never beat the waiter.
	pending, err := m.registry.Register(env.RequestID, env.Type, so.timeout)
	if err != nil {
		return nil, err
	}

	if err := m.transport.Send(ctx, env); err != nil {
		m.registry.Fail(env.RequestID, err)
	}

	return pending.Await(ctx)
}
