// Package bridge makes handler code written against the native
// listener-registration API work unmodified when the extension runs inside a
// test iframe with no native messaging primitives.
//
// The relay installs exactly one window message listener. Every inbound
// event is authenticated by window identity first: only events whose source
// window is the registered sidebar iframe's content window are considered,
// and everything else is dropped silently, because most postMessage traffic
// on a page has nothing to do with the extension. Surviving events must
// carry the extension source marker and a type; they are then dispatched to
// registered listeners in registration order, stopping at the first one that
// claims the message. Replies are posted back to the sidebar window tagged
// with the response marker and the original request id, which the sending
// side's correlator matches.
package bridge
