package bridge

import (
	"context"

	"github.com/absmartly/extension-bridge/internal/protocol"
)

// Handler processes one relayed message. It must not block: a handler that
// needs to do asynchronous work returns Deferred with a completion channel.
type Handler func(ctx context.Context, env *protocol.Envelope, sender protocol.Sender) Result

type resultKind int

const (
	kindUnhandled resultKind = iota
	kindImmediate
	kindDeferred
)

// Result is a handler's tagged verdict on a message. It replaces the native
// API's convention of a magic boolean return plus a side-effecting
// sendResponse callback.
type Result struct {
	kind     resultKind
	reply    *protocol.Envelope
	deferred <-chan *protocol.Envelope
}

// Unhandled passes the message to the next registered listener.
func Unhandled() Result {
	return Result{kind: kindUnhandled}
}

// Immediate answers the message synchronously. A nil reply claims the
// message without responding.
func Immediate(reply *protocol.Envelope) Result {
	return Result{kind: kindImmediate, reply: reply}
}

// Deferred claims the message and promises a response later. The relay posts
// whatever arrives on done back to the sender; closing done without a value
// abandons the response and the sender's timeout fires.
func Deferred(done <-chan *protocol.Envelope) Result {
	return Result{kind: kindDeferred, deferred: done}
}

// UnwrapImmediate returns the reply of an Immediate result. ok is false for
// Unhandled and Deferred results.
func UnwrapImmediate(r Result) (*protocol.Envelope, bool) {
	if r.kind != kindImmediate {
		return nil, false
	}
	return r.reply, true
}
