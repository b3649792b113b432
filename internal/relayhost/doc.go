// Package relayhost runs the process that stands in for the embedding page
// when the extension is exercised by the automated test harness.
//
// In harness mode the sidebar runs as an iframe with no background context to
// talk to. The relay host accepts one websocket per context role — sidebar
// and content — pairs them, and forwards envelopes both ways, applying the
// same source-marker screening the in-page relay performs: frames without an
// extension marker are counted and dropped, never forwarded.
//
// Endpoints:
//   - GET /relay?role=sidebar|content: websocket upgrade for a context
//   - GET /healthz: liveness probe
package relayhost
