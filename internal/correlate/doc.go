// Package correlate matches reply envelopes to the requests that originated
// them.
//
// A sender that expects a response registers a waiter keyed by request id
// before its message leaves the process, then awaits the returned handle.
// Every registered waiter settles exactly once: with the matching reply, with
// a timeout error naming the original message type, with the transport error
// when the send itself fails, or with the caller's context error on
// cancellation. Late or unknown replies are counted and dropped; under
// transport jitter they are expected, not errors.
//
// The registry is an explicit, injectable object owned by whoever constructs
// the messaging client. It is mutex-guarded: unlike the single-threaded
// browser runtime this design is ported from, resolvers and timers here run
// on real OS threads.
package correlate
