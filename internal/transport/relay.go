package transport

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/absmartly/extension-bridge/internal/logging"
	"github.com/absmartly/extension-bridge/internal/monitoring"
	"github.com/absmartly/extension-bridge/internal/protocol"
)

// Relay routes envelopes through the embedding parent window. Outbound
// traffic is stamped with the extension source marker so the other side can
// tell it apart from arbitrary page postMessage noise; inbound events are
// screened for the response marker and funneled to the reply sink.
type Relay struct {
	parent  Window
	events  EventSource
	logger  *logging.Logger
	metrics *monitoring.Metrics

	mu          sync.Mutex
	sink        func(*protocol.Envelope)
	unsubscribe func()
}

// NewRelay creates the test-mode transport. parent is the window the sidebar
// is embedded in; events is the sidebar window's message event stream.
func NewRelay(parent Window, events EventSource, logger *logging.Logger, metrics *monitoring.Metrics) *Relay {
	if logger == nil {
		logger = logging.NewNop()
	}
	if metrics == nil {
		metrics = monitoring.Nop()
	}
	return &Relay{
		parent:  parent,
		events:  events,
		logger:  logger.Named("relay"),
		metrics: metrics,
	}
}

// SetReplySink registers the callback that receives reply envelopes and
// starts listening for them. The messaging client points this at its
// correlator.
func (t *Relay) SetReplySink(fn func(*protocol.Envelope)) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.sink = fn
	if t.unsubscribe == nil && t.events != nil {
		t.unsubscribe = t.events.Subscribe(t.onEvent)
	}
}

// Close stops listening for replies.
func (t *Relay) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.unsubscribe != nil {
		t.unsubscribe()
		t.unsubscribe = nil
	}
}

// Send posts env to the parent window, tagged with the extension source
// marker.
func (t *Relay) Send(_ context.Context, env *protocol.Envelope) error {
	out := env.Clone()
	if out.Source == "" {
		out.Source = protocol.SourceExtension
	}

	data, err := out.Marshal()
	if err != nil {
		return err
	}

	if err := t.parent.PostMessage(data); err != nil {
		t.metrics.SendFailures.WithLabelValues(ModeRelay.String()).Inc()
		return fmt.Errorf("post to parent: %w", err)
	}

	t.metrics.MessagesSent.WithLabelValues(env.Type.String(), ModeRelay.String()).Inc()
	return nil
}

// onEvent screens inbound window messages for reply traffic. Anything
// without the response marker is someone else's postMessage and is ignored
// without logging noise.
func (t *Relay) onEvent(evt MessageEvent) {
	env, err := protocol.Unmarshal(evt.Data)
	if err != nil {
		return
	}
	if env.Source != protocol.SourceResponse || env.RequestID == "" {
		return
	}

	t.mu.Lock()
	sink := t.sink
	t.mu.Unlock()

	if sink == nil {
		t.logger.Debug("reply arrived with no sink installed",
			zap.String("request_id", env.RequestID),
		)
		return
	}
	sink(env)
}
