package id

import (
	"strings"
	"sync"
	"testing"
)

func TestGenerate(t *testing.T) {
	gen := NewGenerator()

	id1 := gen.Generate()
	id2 := gen.Generate()

	if id1.String() == id2.String() {
		t.Error("Generated IDs should be unique")
	}
}

func TestGenerateString(t *testing.T) {
	gen := NewGenerator()

	id := gen.GenerateString()

	if len(id) != 26 {
		t.Errorf("ULID should be 26 characters, got %d", len(id))
	}
}

func TestNewRequestID(t *testing.T) {
	reqID := NewRequestID()

	if !strings.HasPrefix(string(reqID), RequestPrefix+"_") {
		t.Errorf("RequestID should start with 'req_', got: %s", reqID)
	}

	parts := strings.Split(string(reqID), "_")
	if len(parts) != 2 {
		t.Errorf("Prefixed ID should have format 'req_ulid', got: %s", reqID)
	}

	if !IsValid(parts[1]) {
		t.Errorf("ULID part should be valid: %s", parts[1])
	}
}

func TestSequentialDistinctness(t *testing.T) {
	gen := NewGenerator()
	seen := make(map[string]bool)

	for i := 0; i < 10000; i++ {
		id := NewRequestIDFrom(gen).String()
		if seen[id] {
			t.Fatalf("Duplicate request id generated: %s", id)
		}
		seen[id] = true
	}
}

func TestConcurrentGeneration(t *testing.T) {
	gen := NewGenerator()

	const goroutines = 16
	const perGoroutine = 500

	var mu sync.Mutex
	seen := make(map[string]bool)

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perGoroutine; i++ {
				id := gen.GenerateString()
				mu.Lock()
				if seen[id] {
					t.Errorf("Duplicate id under concurrency: %s", id)
				}
				seen[id] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(seen) != goroutines*perGoroutine {
		t.Errorf("Expected %d unique ids, got %d", goroutines*perGoroutine, len(seen))
	}
}

func TestTimestampExtraction(t *testing.T) {
	gen := NewGenerator()
	id := gen.GenerateString()

	ts, err := Timestamp(id)
	if err != nil {
		t.Fatalf("Timestamp extraction failed: %v", err)
	}

	if ts.IsZero() {
		t.Error("Extracted timestamp should not be zero")
	}
}
