package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func TestGraphStorage_CreateVertex(t *testing.T) {
	gs := testGraphStorage(t)

	vertex, err := gs.CreateVertex("User", map[string]Value{
		"login":  StringValue("alice"),
		"status": IntValue(0),
	})
	if err != nil {
		t.Fatalf("Failed to create vertex: %v", err)
	}

	if vertex.ID != 1 {
		t.Errorf("Expected vertex ID 1, got %d", vertex.ID)
	}
	if vertex.Label != "User" {
		t.Errorf("Expected label User, got %s", vertex.Label)
	}

	fetched, err := gs.GetVertex(vertex.ID)
	if err != nil {
		t.Fatalf("Failed to get vertex: %v", err)
	}
	login, ok := fetched.GetProperty("login")
	if !ok {
		t.Fatal("Property 'login' not found")
	}
	if s, _ := login.AsString(); s != "alice" {
		t.Errorf("Expected login 'alice', got '%s'", s)
	}
}

func TestGraphStorage_GetVertexReturnsCopy(t *testing.T) {
	gs := testGraphStorage(t)

	vertex, _ := gs.CreateVertex("Network", map[string]Value{"name": StringValue("home")})
	vertex.Properties["name"] = StringValue("mutated")

	fetched, _ := gs.GetVertex(vertex.ID)
	if s, _ := fetched.Properties["name"].AsString(); s != "home" {
		t.Errorf("Stored vertex was mutated through returned copy: %s", s)
	}
}

func TestGraphStorage_CreateEdge(t *testing.T) {
	gs := testGraphStorage(t)

	user, _ := gs.CreateVertex("User", nil)
	network, _ := gs.CreateVertex("Network", nil)

	edge, err := gs.CreateEdge("IS_MEMBER_OF", user.ID, network.ID, nil)
	if err != nil {
		t.Fatalf("Failed to create edge: %v", err)
	}

	if edge.FromID != user.ID || edge.ToID != network.ID {
		t.Errorf("Unexpected endpoints %d -> %d", edge.FromID, edge.ToID)
	}

	out, err := gs.EdgesOf(user.ID, Outgoing)
	if err != nil {
		t.Fatalf("EdgesOf failed: %v", err)
	}
	if len(out) != 1 || out[0].ID != edge.ID {
		t.Errorf("Expected 1 outgoing edge, got %d", len(out))
	}

	in, _ := gs.EdgesOf(network.ID, Incoming)
	if len(in) != 1 {
		t.Errorf("Expected 1 incoming edge, got %d", len(in))
	}

	both, _ := gs.EdgesOf(user.ID, Both, "OTHER")
	if len(both) != 0 {
		t.Errorf("Label filter ignored, got %d edges", len(both))
	}
}

func TestGraphStorage_CreateEdgeMissingEndpoint(t *testing.T) {
	gs := testGraphStorage(t)

	user, _ := gs.CreateVertex("User", nil)

	_, err := gs.CreateEdge("IS_MEMBER_OF", user.ID, 999, nil)
	if !errors.Is(err, ErrVertexNotFound) {
		t.Fatalf("Expected ErrVertexNotFound, got %v", err)
	}

	var storageErr *StorageError
	if !errors.As(err, &storageErr) {
		t.Fatalf("Expected *StorageError, got %T", err)
	}
	if storageErr.Context != "target" {
		t.Errorf("Expected context 'target', got %q", storageErr.Context)
	}
}

func TestGraphStorage_DeleteVertexCascades(t *testing.T) {
	gs := testGraphStorage(t)

	a, _ := gs.CreateVertex("Device", nil)
	b, _ := gs.CreateVertex("Network", nil)
	c, _ := gs.CreateVertex("User", nil)

	e1, _ := gs.CreateEdge("BELONGS_TO", a.ID, b.ID, nil)
	e2, _ := gs.CreateEdge("IS_MEMBER_OF", c.ID, b.ID, nil)

	if err := gs.DeleteVertex(b.ID); err != nil {
		t.Fatalf("DeleteVertex failed: %v", err)
	}

	for _, id := range []uint64{e1.ID, e2.ID} {
		if _, err := gs.GetEdge(id); !IsNotFound(err) {
			t.Errorf("Edge %d should be gone, got %v", id, err)
		}
	}

	edges, _ := gs.EdgesOf(a.ID, Both)
	if len(edges) != 0 {
		t.Errorf("Device still has %d edges", len(edges))
	}

	if err := gs.DeleteVertex(b.ID); !IsNotFound(err) {
		t.Errorf("Second delete should report not found, got %v", err)
	}
}

func TestGraphStorage_VerticesByProperty(t *testing.T) {
	for _, indexed := range []bool{false, true} {
		t.Run(fmt.Sprintf("indexed=%v", indexed), func(t *testing.T) {
			gs := testGraphStorage(t)
			if indexed {
				if err := gs.CreatePropertyIndex("Network", "name"); err != nil {
					t.Fatalf("CreatePropertyIndex failed: %v", err)
				}
			}

			home, _ := gs.CreateVertex("Network", map[string]Value{"name": StringValue("home")})
			gs.CreateVertex("Network", map[string]Value{"name": StringValue("office")})
			gs.CreateVertex("User", map[string]Value{"name": StringValue("home")})

			found, err := gs.VerticesByProperty("Network", "name", StringValue("home"))
			if err != nil {
				t.Fatalf("VerticesByProperty failed: %v", err)
			}
			if len(found) != 1 || found[0].ID != home.ID {
				t.Fatalf("Expected only vertex %d, got %v", home.ID, found)
			}

			// Renaming must move the vertex between index buckets
			if err := gs.SetVertexProperties(home.ID, map[string]Value{"name": StringValue("cabin")}); err != nil {
				t.Fatalf("SetVertexProperties failed: %v", err)
			}
			found, _ = gs.VerticesByProperty("Network", "name", StringValue("home"))
			if len(found) != 0 {
				t.Errorf("Stale lookup after rename: %v", found)
			}
			found, _ = gs.VerticesByProperty("Network", "name", StringValue("cabin"))
			if len(found) != 1 {
				t.Errorf("Expected 1 vertex named cabin, got %d", len(found))
			}
		})
	}
}

func TestGraphStorage_IndexDistinguishesTypes(t *testing.T) {
	gs := testGraphStorage(t)
	gs.CreatePropertyIndex("User", "role")

	gs.CreateVertex("User", map[string]Value{"role": IntValue(1)})
	gs.CreateVertex("User", map[string]Value{"role": StringValue("\x01\x00\x00\x00\x00\x00\x00\x00")})

	found, _ := gs.VerticesByProperty("User", "role", IntValue(1))
	if len(found) != 1 {
		t.Errorf("Expected 1 int match, got %d", len(found))
	}
}

func TestGraphStorage_ReplaceVertexProperties(t *testing.T) {
	gs := testGraphStorage(t)

	v, _ := gs.CreateVertex("Device", map[string]Value{
		"name": StringValue("sensor"),
		"data": StringValue("{}"),
	})

	if err := gs.ReplaceVertexProperties(v.ID, map[string]Value{"name": StringValue("gauge")}); err != nil {
		t.Fatalf("ReplaceVertexProperties failed: %v", err)
	}

	fetched, _ := gs.GetVertex(v.ID)
	if _, ok := fetched.Properties["data"]; ok {
		t.Error("Replace should drop properties not supplied")
	}
	if s, _ := fetched.Properties["name"].AsString(); s != "gauge" {
		t.Errorf("Expected name gauge, got %s", s)
	}
}

func TestGraphStorage_Sequences(t *testing.T) {
	gs := testGraphStorage(t)

	for want := uint64(0); want < 3; want++ {
		got, err := gs.NextSequence("User")
		if err != nil {
			t.Fatalf("NextSequence failed: %v", err)
		}
		if got != want {
			t.Errorf("Expected %d, got %d", want, got)
		}
	}

	if err := gs.AdvanceSequence("User", 10); err != nil {
		t.Fatalf("AdvanceSequence failed: %v", err)
	}
	if got, _ := gs.NextSequence("User"); got != 10 {
		t.Errorf("Expected 10 after advance, got %d", got)
	}

	// Advancing backwards is ignored
	gs.AdvanceSequence("User", 2)
	if got, _ := gs.NextSequence("User"); got != 11 {
		t.Errorf("Expected 11, got %d", got)
	}

	// Independent counters
	if got, _ := gs.NextSequence("Network"); got != 0 {
		t.Errorf("Expected fresh Network counter, got %d", got)
	}
}

func TestGraphStorage_ClosedRejectsCalls(t *testing.T) {
	gs, err := NewGraphStorage("")
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	if err := gs.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if _, err := gs.CreateVertex("User", nil); !IsClosed(err) {
		t.Errorf("Expected ErrStorageClosed, got %v", err)
	}
	if _, err := gs.GetVertex(1); !IsClosed(err) {
		t.Errorf("Expected ErrStorageClosed, got %v", err)
	}
	if err := gs.Close(); err != nil {
		t.Errorf("Second Close should be a no-op, got %v", err)
	}
}

func TestGraphStorage_ConcurrentCreates(t *testing.T) {
	gs := testGraphStorage(t)

	const workers = 8
	const perWorker = 50

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				if _, err := gs.CreateVertex("Device", nil); err != nil {
					t.Errorf("CreateVertex failed: %v", err)
					return
				}
				if _, err := gs.NextSequence("Device"); err != nil {
					t.Errorf("NextSequence failed: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	if count, _ := gs.CountByLabel("Device"); count != workers*perWorker {
		t.Errorf("Expected %d devices, got %d", workers*perWorker, count)
	}
	if next, _ := gs.NextSequence("Device"); next != workers*perWorker {
		t.Errorf("Sequence handed out duplicates: next=%d", next)
	}
}

func TestGraphStorage_SnapshotRoundTrip(t *testing.T) {
	for _, compress := range []bool{false, true} {
		t.Run(fmt.Sprintf("compress=%v", compress), func(t *testing.T) {
			dir := t.TempDir()
			cfg := StorageConfig{DataDir: dir, CompressSnapshots: compress, SnapshotOnClose: true}

			gs, err := NewGraphStorageWithConfig(cfg)
			if err != nil {
				t.Fatalf("Failed to create storage: %v", err)
			}
			gs.CreatePropertyIndex("Network", "name")
			user, _ := gs.CreateVertex("User", map[string]Value{"login": StringValue("alice")})
			network, _ := gs.CreateVertex("Network", map[string]Value{"name": StringValue("home")})
			gs.CreateEdge("IS_MEMBER_OF", user.ID, network.ID, nil)
			gs.NextSequence("User")
			gs.NextSequence("User")

			if err := gs.Close(); err != nil {
				t.Fatalf("Close failed: %v", err)
			}

			reopened, err := NewGraphStorageWithConfig(cfg)
			if err != nil {
				t.Fatalf("Reopen failed: %v", err)
			}
			defer reopened.Close()

			stats := reopened.GetStatistics()
			if stats.VertexCount != 2 || stats.EdgeCount != 1 {
				t.Errorf("Expected 2 vertices and 1 edge, got %d/%d", stats.VertexCount, stats.EdgeCount)
			}
			if !reopened.HasPropertyIndex("Network", "name") {
				t.Error("Index definition not restored")
			}
			found, _ := reopened.VerticesByProperty("Network", "name", StringValue("home"))
			if len(found) != 1 {
				t.Errorf("Index contents not rebuilt, got %d", len(found))
			}
			if next, _ := reopened.NextSequence("User"); next != 2 {
				t.Errorf("Sequence not restored, got %d", next)
			}
			v, _ := reopened.CreateVertex("Device", nil)
			if v.ID != 3 {
				t.Errorf("Vertex IDs must continue after reload, got %d", v.ID)
			}
		})
	}
}

func TestGraphStorage_CorruptSnapshot(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, snapshotFileName), []byte("x{}"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := NewGraphStorage(dir)
	if !errors.Is(err, ErrSnapshotCorrupt) {
		t.Fatalf("Expected ErrSnapshotCorrupt, got %v", err)
	}
}

func TestStorageError_Format(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "vertex",
			err:  VertexNotFoundError("GetVertex", 7),
			want: "GetVertex vertex 7: vertex not found",
		},
		{
			name: "sequence",
			err:  NewError("NextSequence").Sequence("User").Cause(ErrIDSpaceExhausted).Err(),
			want: "NextSequence sequence (User): ID space exhausted",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}
