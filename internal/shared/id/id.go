// Package id provides request-id generation for the messaging bridge.
//
// Request ids correlate a request envelope with its eventual reply, so they
// must be unique across every outstanding request in a session. ULIDs give
// that with margin to spare:
//   - Lexicographic sortability: pending-waiter dumps read in send order
//   - Prefixed form: req_* ids are recognizable in wire captures and logs
//   - Collision-free: 80 bits of entropy per millisecond
//
// Collisions here are a correctness concern (a misrouted reply), not a
// security one, so the entropy source is swappable for deterministic tests.
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// RequestID correlates a request envelope with its reply.
type RequestID string

// RequestPrefix marks request ids in logs and wire captures.
const RequestPrefix = "req"

// Generator generates prefixed ULIDs.
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex // Protects entropy reader
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the singleton generator instance.
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a generator backed by cryptographically secure
// entropy.
func NewGenerator() *Generator {
	return &Generator{entropy: rand.Reader}
}

// NewGeneratorWithEntropy creates a generator with a custom entropy source.
// Useful for testing with deterministic entropy.
func NewGeneratorWithEntropy(entropy io.Reader) *Generator {
	return &Generator{entropy: entropy}
}

// Generate creates a new ULID.
func (g *Generator) Generate() ulid.ULID {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// GenerateString creates a new ULID as a string.
func (g *Generator) GenerateString() string {
	return g.Generate().String()
}

// GenerateWithPrefix creates a prefixed ULID string.
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.GenerateString())
}

// NewRequestID generates a new request id.
func NewRequestID() RequestID {
	return RequestID(Default().GenerateWithPrefix(RequestPrefix))
}

// NewRequestIDFrom generates a request id from a specific generator.
func NewRequestIDFrom(g *Generator) RequestID {
	return RequestID(g.GenerateWithPrefix(RequestPrefix))
}

// String returns the id as a plain string.
func (id RequestID) String() string { return string(id) }

// IsValid checks whether an id string is a valid ULID.
func IsValid(id string) bool {
	_, err := ulid.Parse(id)
	return err == nil
}

// Parse parses a ULID string.
func Parse(id string) (ulid.ULID, error) {
	return ulid.Parse(id)
}

// Timestamp extracts the embedded timestamp from a ULID string.
func Timestamp(id string) (time.Time, error) {
	parsed, err := Parse(id)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(parsed.Time()), nil
}
