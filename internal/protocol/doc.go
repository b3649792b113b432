// Package protocol defines the wire format shared by every transport in the
// extension bridge.
//
// All three execution contexts (sidebar, content script, background) exchange
// the same Envelope shape regardless of whether the message travels over the
// native extension channel or the postMessage relay used by the automated
// test harness. The package also owns the closed set of recognized message
// types: the security layer rejects anything outside it, so extending the
// protocol always starts here.
//
// Wire Fields:
//   - type: discriminator, must be a known MessageType
//   - from/to: logical sender and destination contexts
//   - expectsResponse: whether the sender awaits a reply
//   - requestId: correlation id, assigned before transmission when a
//     response is expected
//   - payload: arbitrary JSON value, opaque to this layer
//   - source: relay traffic marker, only present on the postMessage wire
//
// Unknown fields are preserved verbatim and re-emitted on marshal, so
// caller-defined extras survive a round trip unmodified.
package protocol
