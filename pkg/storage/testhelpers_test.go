package storage

import (
	"testing"
)

// testGraphStorage creates a memory-only GraphStorage that is closed when the test ends
func testGraphStorage(t *testing.T) *GraphStorage {
	t.Helper()

	gs, err := NewGraphStorage("")
	if err != nil {
		t.Fatalf("Failed to create GraphStorage: %v", err)
	}

	t.Cleanup(func() {
		if err := gs.Close(); err != nil {
			t.Logf("Warning: Close() failed during cleanup: %v", err)
		}
	})

	return gs
}
