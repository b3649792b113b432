package correlate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/absmartly/extension-bridge/internal/logging"
	"github.com/absmartly/extension-bridge/internal/monitoring"
	"github.com/absmartly/extension-bridge/internal/protocol"
)

var (
	// ErrDuplicateRequest is returned when a waiter already exists for a
	// request id. Ids are generated centrally, so this indicates a logic
	// error in the caller.
	ErrDuplicateRequest = errors.New("duplicate request id")

	// ErrTimeout is wrapped by every timeout rejection.
	ErrTimeout = errors.New("timeout")
)

// Result is the settlement of a pending waiter.
type Result struct {
	Reply *protocol.Envelope
	Err   error
}

// waiter is one registry entry. The channel is buffered so the settling side
// never blocks on a caller that already gave up.
type waiter struct {
	ch      chan Result
	timer   *time.Timer
	msgType protocol.MessageType
}

// Registry tracks requests awaiting replies.
type Registry struct {
	mu      sync.Mutex
	pending map[string]*waiter
	logger  *logging.Logger
	metrics *monitoring.Metrics
}

// New creates an empty registry. A nil metrics collector is replaced with a
// no-op one.
func New(logger *logging.Logger, metrics *monitoring.Metrics) *Registry {
	if logger == nil {
		logger = logging.NewNop()
	}
	if metrics == nil {
		metrics = monitoring.Nop()
	}
	return &Registry{
		pending: make(map[string]*waiter),
		logger:  logger.Named("correlate"),
		metrics: metrics,
	}
}

// Register creates a waiter for requestID and arms its timeout. It must be
// called before the request leaves the process, so a fast reply cannot race
// the registration.
func (r *Registry) Register(requestID string, msgType protocol.MessageType, timeout time.Duration) (*Pending, error) {
	if requestID == "" {
		return nil, errors.New("empty request id")
	}

	r.mu.Lock()
	if _, exists := r.pending[requestID]; exists {
		r.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrDuplicateRequest, requestID)
	}

	w := &waiter{
		ch:      make(chan Result, 1),
		msgType: msgType,
	}
	w.timer = time.AfterFunc(timeout, func() {
		r.expire(requestID, timeout)
	})
	r.pending[requestID] = w
	r.mu.Unlock()

	r.metrics.PendingWaiters.Inc()
	return &Pending{registry: r, id: requestID, ch: w.ch}, nil
}

// Resolve settles the waiter matching reply's request id. It reports false
// for unknown or already-settled ids; those are dropped silently since late
// replies after a timeout are expected.
func (r *Registry) Resolve(reply *protocol.Envelope) bool {
	w, ok := r.take(reply.RequestID)
	if !ok {
		r.metrics.RepliesUnmatched.Inc()
		r.logger.Debug("ignoring unmatched reply",
			zap.String("request_id", reply.RequestID),
			zap.String("type", reply.Type.String()),
		)
		return false
	}

	w.ch <- Result{Reply: reply}
	r.metrics.RepliesMatched.Inc()
	return true
}

// Fail settles the waiter for requestID with err. Used when the transport
// rejects the send after the waiter was registered.
func (r *Registry) Fail(requestID string, err error) bool {
	w, ok := r.take(requestID)
	if !ok {
		return false
	}
	w.ch <- Result{Err: err}
	return true
}

// Len returns the number of pending waiters.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

// take removes and returns the waiter for id, stopping its timer.
func (r *Registry) take(id string) (*waiter, bool) {
	r.mu.Lock()
	w, ok := r.pending[id]
	if ok {
		delete(r.pending, id)
		w.timer.Stop()
	}
	r.mu.Unlock()

	if ok {
		r.metrics.PendingWaiters.Dec()
	}
	return w, ok
}

// expire is the timer path: the waiter is removed and rejected with an error
// naming the original message type.
func (r *Registry) expire(id string, timeout time.Duration) {
	r.mu.Lock()
	w, ok := r.pending[id]
	if ok {
		delete(r.pending, id)
	}
	r.mu.Unlock()

	if !ok {
		// Lost the race against Resolve.
		return
	}

	r.metrics.PendingWaiters.Dec()
	r.metrics.Timeouts.WithLabelValues(w.msgType.String()).Inc()
	r.logger.Warn("request timed out",
		zap.String("request_id", id),
		zap.String("type", w.msgType.String()),
		zap.Duration("timeout", timeout),
	)
	w.ch <- Result{Err: fmt.Errorf("%w: no %s response within %s", ErrTimeout, w.msgType, timeout)}
}

// Pending is the caller's handle on an outstanding request.
type Pending struct {
	registry *Registry
	id       string
	ch       <-chan Result
}

// ID returns the request id the handle is keyed by.
func (p *Pending) ID() string { return p.id }

// Await blocks until the request settles or ctx is done. Cancelling ctx
// deregisters the waiter, so cancellation never leaks registry entries.
func (p *Pending) Await(ctx context.Context) (*protocol.Envelope, error) {
	select {
	case res := <-p.ch:
		return res.Reply, res.Err
	case <-ctx.Done():
		p.registry.take(p.id)
		return nil, ctx.Err()
	}
}
