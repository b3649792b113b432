// Package transport moves envelopes between execution contexts.
//
// Two implementations of MessageTransport exist. Native speaks the browser's
// extension messaging primitives: the runtime channel for background traffic
// and the per-tab channel for content-script delivery. Relay speaks
// cross-window postMessage through the embedding parent, which is how the
// extension communicates when the automated test harness loads the sidebar
// as an iframe with no background access.
//
// The active transport is chosen once, at construction, and injected into
// the messaging client. Detect exists for the composition root that has to
// probe its environment; nothing re-derives the mode per call.
package transport

import (
	"context"

	"github.com/absmartly/extension-bridge/internal/protocol"
)

// Mode identifies which transport a build is running on.
type Mode int

const (
	// ModeNative uses the browser's extension messaging primitives.
	ModeNative Mode = iota
	// ModeRelay uses postMessage through the embedding parent window.
	ModeRelay
)

// String returns the string representation of the mode.
func (m Mode) String() string {
	switch m {
	case ModeNative:
		return "native"
	case ModeRelay:
		return "relay"
	default:
		return "unknown"
	}
}

// Environment describes how the current build is loaded.
type Environment interface {
	// IsEmbedded reports whether the execution context is a non-top-level
	// frame, i.e. running inside the test harness iframe.
	IsEmbedded() bool
}

// Detect maps the environment to a transport mode. Call it once at startup
// and pass the result to the constructor.
func Detect(env Environment) Mode {
	if env.IsEmbedded() {
		return ModeRelay
	}
	return ModeNative
}

// MessageTransport delivers an envelope to its declared destination. Send
// returns once the underlying channel accepts the message; reply delivery is
// asynchronous through the transport's reply sink.
type MessageTransport interface {
	Send(ctx context.Context, env *protocol.Envelope) error
}

// Window is the postMessage surface of a browser window. Implementations
// must be comparable: the content-script relay authenticates inbound events
// by comparing their source window against the one it was configured with.
type Window interface {
	PostMessage(data []byte) error
}

// MessageEvent is one inbound window message.
type MessageEvent struct {
	// Source is the window that posted the message.
	Source Window
	// Origin is the posting window's origin.
	Origin string
	// Data is the posted payload.
	Data []byte
}

// EventSource delivers window message events. Subscribe returns an
// unsubscribe function.
type EventSource interface {
	Subscribe(fn func(MessageEvent)) (unsubscribe func())
}
