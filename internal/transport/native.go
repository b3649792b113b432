package transport

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/absmartly/extension-bridge/internal/logging"
	"github.com/absmartly/extension-bridge/internal/monitoring"
	"github.com/absmartly/extension-bridge/internal/protocol"
)

// ErrNoActiveTab is returned when a content-script delivery is requested but
// no active tab can be resolved. The message is never silently dropped.
var ErrNoActiveTab = errors.New("no active tab")

// Runtime is the browser's runtime-wide messaging primitive
// (background-sidebar channel). SendMessage returns the receiver's reply
// bytes, if any.
type Runtime interface {
	// ID returns the extension's own id.
	ID() string
	// SendMessage delivers data over the runtime channel and returns the
	// reply, which may be empty.
	SendMessage(ctx context.Context, data []byte) ([]byte, error)
}

// Tabs is the browser's per-tab messaging primitive (sidebar-content
// channel).
type Tabs interface {
	// ActiveTab resolves the single active tab. ok is false when no tab
	// is resolvable; err reports a query failure.
	ActiveTab(ctx context.Context) (tabID int, ok bool, err error)
	// SendToTab delivers data to the content script of tabID and returns
	// the reply, which may be empty.
	SendToTab(ctx context.Context, tabID int, data []byte) ([]byte, error)
}

// Native routes envelopes over the browser's extension messaging primitives.
type Native struct {
	runtime Runtime
	tabs    Tabs
	sink    func(*protocol.Envelope)
	logger  *logging.Logger
	metrics *monitoring.Metrics
}

// NewNative creates the production transport.
func NewNative(runtime Runtime, tabs Tabs, logger *logging.Logger, metrics *monitoring.Metrics) *Native {
	if logger == nil {
		logger = logging.NewNop()
	}
	if metrics == nil {
		metrics = monitoring.Nop()
	}
	return &Native{
		runtime: runtime,
		tabs:    tabs,
		logger:  logger.Named("native"),
		metrics: metrics,
	}
}

// SetReplySink registers the callback that receives reply envelopes. The
// messaging client points this at its correlator.
func (t *Native) SetReplySink(fn func(*protocol.Envelope)) {
	t.sink = fn
}

// Send routes env by destination: content goes through the active tab,
// everything else through the runtime channel. A rejection from the
// underlying primitive propagates to the caller.
func (t *Native) Send(ctx context.Context, env *protocol.Envelope) error {
	data, err := env.Marshal()
	if err != nil {
		return err
	}

	var reply []byte
	switch env.To {
	case protocol.ContextContent:
		tabID, ok, err := t.tabs.ActiveTab(ctx)
		if err != nil {
			t.metrics.SendFailures.WithLabelValues(ModeNative.String()).Inc()
			return fmt.Errorf("resolve active tab: %w", err)
		}
		if !ok {
			t.metrics.SendFailures.WithLabelValues(ModeNative.String()).Inc()
			return fmt.Errorf("%w: cannot deliver %s", ErrNoActiveTab, env.Type)
		}
		reply, err = t.tabs.SendToTab(ctx, tabID, data)
		if err != nil {
			t.metrics.SendFailures.WithLabelValues(ModeNative.String()).Inc()
			return fmt.Errorf("send to tab %d: %w", tabID, err)
		}
	default:
		reply, err = t.runtime.SendMessage(ctx, data)
		if err != nil {
			t.metrics.SendFailures.WithLabelValues(ModeNative.String()).Inc()
			return fmt.Errorf("runtime send: %w", err)
		}
	}

	t.metrics.MessagesSent.WithLabelValues(env.Type.String(), ModeNative.String()).Inc()

	// The native channel correlates implicitly: the reply to a send comes
	// back on the same call. Funnel it through the sink so the waiting
	// side resolves the same way it does on the relay transport.
	if env.ExpectsResponse && len(reply) > 0 && t.sink != nil {
		parsed, err := protocol.Unmarshal(reply)
		if err != nil {
			t.logger.Warn("discarding undecodable reply",
				zap.String("type", env.Type.String()),
				zap.Error(err),
			)
			return nil
		}
		if parsed.RequestID == "" {
			parsed.RequestID = env.RequestID
		}
		t.sink(parsed)
	}
	return nil
}
