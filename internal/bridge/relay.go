package bridge

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/absmartly/extension-bridge/internal/logging"
	"github.com/absmartly/extension-bridge/internal/monitoring"
	"github.com/absmartly/extension-bridge/internal/protocol"
	"github.com/absmartly/extension-bridge/internal/transport"
)

// Relay bridges postMessage traffic from the sidebar iframe into the same
// dispatch shape native listeners receive.
type Relay struct {
	events      transport.EventSource
	sidebar     transport.Window
	extensionID string
	logger      *logging.Logger
	metrics     *monitoring.Metrics

	mu        sync.Mutex
	listeners []Handler

	installOnce sync.Once
	unsubscribe func()
}

// NewRelay creates a relay expecting traffic from the given sidebar window.
// events is the content script window's message event stream; sidebar is the
// content window of the identifiable sidebar iframe element.
func NewRelay(events transport.EventSource, sidebar transport.Window, extensionID string, logger *logging.Logger, metrics *monitoring.Metrics) *Relay {
	if logger == nil {
		logger = logging.NewNop()
	}
	if metrics == nil {
		metrics = monitoring.Nop()
	}
	return &Relay{
		events:      events,
		sidebar:     sidebar,
		extensionID: extensionID,
		logger:      logger.Named("bridge"),
		metrics:     metrics,
	}
}

// Install subscribes the relay's single window listener. Safe to call more
// than once; only the first call takes effect.
func (r *Relay) Install() {
	r.installOnce.Do(func() {
		unsubscribe := r.events.Subscribe(r.dispatch)
		r.mu.Lock()
		r.unsubscribe = unsubscribe
		r.mu.Unlock()
	})
}

// Close removes the window listener.
func (r *Relay) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.unsubscribe != nil {
		r.unsubscribe()
		r.unsubscribe = nil
	}
}

// AddListener appends a handler. Listeners run in registration order and the
// first one to claim a message wins, mirroring native single-listener-wins
// semantics.
func (r *Relay) AddListener(h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, h)
}

// dispatch processes one inbound window message.
func (r *Relay) dispatch(evt transport.MessageEvent) {
	// Window identity gate. Anything not posted by the registered sidebar
	// iframe is unrelated page traffic; drop it without logging.
	if evt.Source != r.sidebar {
		return
	}

	env, err := protocol.Unmarshal(evt.Data)
	if err != nil {
		return
	}
	if env.Source != protocol.SourceExtension || env.Type == "" {
		return
	}

	r.metrics.MessagesReceived.WithLabelValues(env.Type.String()).Inc()

	sender := protocol.TopFrame(r.extensionID)

	r.mu.Lock()
	listeners := make([]Handler, len(r.listeners))
	copy(listeners, r.listeners)
	r.mu.Unlock()

	ctx := context.Background()
	for _, h := range listeners {
		res := h(ctx, env, sender)
		switch res.kind {
		case kindUnhandled:
			continue
		case kindImmediate:
			r.respond(env, res.reply)
			return
		case kindDeferred:
			go r.awaitDeferred(env, res.deferred)
			return
		}
	}
}

// awaitDeferred waits for a deferred handler's eventual response.
func (r *Relay) awaitDeferred(orig *protocol.Envelope, done <-chan *protocol.Envelope) {
	reply, ok := <-done
	if !ok {
		r.logger.Debug("deferred handler abandoned response",
			zap.String("type", orig.Type.String()),
			zap.String("request_id", orig.RequestID),
		)
		return
	}
	r.respond(orig, reply)
}

// respond posts a reply back to the sidebar window, tagged with the response
// marker and the original request id.
func (r *Relay) respond(orig *protocol.Envelope, reply *protocol.Envelope) {
	if reply == nil {
		return
	}

	out := reply.Clone()
	out.Source = protocol.SourceResponse
	out.RequestID = orig.RequestID

	data, err := out.Marshal()
	if err != nil {
		r.logger.Error("marshal response failed",
			zap.String("type", orig.Type.String()),
			zap.Error(err),
		)
		return
	}
	if err := r.sidebar.PostMessage(data); err != nil {
		r.logger.Error("post response failed",
			zap.String("type", orig.Type.String()),
			zap.String("request_id", orig.RequestID),
			zap.Error(err),
		)
	}
}
