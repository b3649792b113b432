package transport

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/absmartly/extension-bridge/internal/protocol"
)

type fakeWindow struct {
	mu     sync.Mutex
	posted [][]byte
	err    error
}

func (w *fakeWindow) PostMessage(data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.posted = append(w.posted, data)
	return nil
}

func (w *fakeWindow) messages() [][]byte {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([][]byte, len(w.posted))
	copy(out, w.posted)
	return out
}

type fakeEvents struct {
	mu   sync.Mutex
	subs map[int]func(MessageEvent)
	next int
}

func newFakeEvents() *fakeEvents {
	return &fakeEvents{subs: make(map[int]func(MessageEvent))}
}

func (e *fakeEvents) Subscribe(fn func(MessageEvent)) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	key := e.next
	e.next++
	e.subs[key] = fn
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.subs, key)
	}
}

func (e *fakeEvents) Emit(evt MessageEvent) {
	e.mu.Lock()
	subs := make([]func(MessageEvent), 0, len(e.subs))
	for _, fn := range e.subs {
		subs = append(subs, fn)
	}
	e.mu.Unlock()
	for _, fn := range subs {
		fn(evt)
	}
}

func (e *fakeEvents) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.subs)
}

func TestRelaySendTagsSourceMarker(t *testing.T) {
	parent := &fakeWindow{}
	tr := NewRelay(parent, newFakeEvents(), nil, nil)

	env := &protocol.Envelope{
		Type: protocol.TypePing,
		From: protocol.ContextSidebar,
		To:   protocol.ContextBackground,
	}
	require.NoError(t, tr.Send(context.Background(), env))

	posted := parent.messages()
	require.Len(t, posted, 1)

	sent, err := protocol.Unmarshal(posted[0])
	require.NoError(t, err)
	assert.Equal(t, protocol.SourceExtension, sent.Source)
	// The caller's envelope is not mutated by the stamp.
	assert.Empty(t, env.Source)
}

func TestRelaySendPostFailure(t *testing.T) {
	boom := errors.New("window detached")
	tr := NewRelay(&fakeWindow{err: boom}, newFakeEvents(), nil, nil)

	err := tr.Send(context.Background(), &protocol.Envelope{Type: protocol.TypePing})
	assert.ErrorIs(t, err, boom)
}

func TestRelayFunnelsResponsesToSink(t *testing.T) {
	events := newFakeEvents()
	tr := NewRelay(&fakeWindow{}, events, nil, nil)

	var got *protocol.Envelope
	tr.SetReplySink(func(env *protocol.Envelope) { got = env })

	reply := &protocol.Envelope{
		Type:      protocol.TypePing,
		Source:    protocol.SourceResponse,
		RequestID: "req_1",
	}
	data, err := reply.Marshal()
	require.NoError(t, err)

	events.Emit(MessageEvent{Source: &fakeWindow{}, Data: data})

	require.NotNil(t, got)
	assert.Equal(t, "req_1", got.RequestID)
}

func TestRelayIgnoresForeignTraffic(t *testing.T) {
	events := newFakeEvents()
	tr := NewRelay(&fakeWindow{}, events, nil, nil)

	var calls int
	tr.SetReplySink(func(*protocol.Envelope) { calls++ })

	// Third-party postMessage noise.
	events.Emit(MessageEvent{Data: []byte(`{"source": "some-other-extension", "requestId": "req_1"}`)})
	// Outbound-marker traffic is not a reply.
	events.Emit(MessageEvent{Data: []byte(`{"source": "absmartly-extension", "requestId": "req_1"}`)})
	// Response marker without a request id cannot be correlated.
	events.Emit(MessageEvent{Data: []byte(`{"source": "absmartly-extension-response"}`)})
	// Not even JSON.
	events.Emit(MessageEvent{Data: []byte(`garbage`)})

	assert.Zero(t, calls)
}

func TestRelayCloseUnsubscribes(t *testing.T) {
	events := newFakeEvents()
	tr := NewRelay(&fakeWindow{}, events, nil, nil)

	tr.SetReplySink(func(*protocol.Envelope) {})
	assert.Equal(t, 1, events.count())

	tr.Close()
	assert.Zero(t, events.count())
}
