package storage

import (
	"errors"
	"testing"
)

func TestTransaction_CommitIsVisible(t *testing.T) {
	gs := testGraphStorage(t)

	var userID, networkID uint64
	err := gs.Update(func(tx *Transaction) error {
		user, err := tx.CreateVertex("User", map[string]Value{"login": StringValue("alice")})
		if err != nil {
			return err
		}
		network, err := tx.CreateVertex("Network", map[string]Value{"name": StringValue("home")})
		if err != nil {
			return err
		}
		userID, networkID = user.ID, network.ID
		_, err = tx.CreateEdge("IS_MEMBER_OF", user.ID, network.ID, nil)
		return err
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	edges, _ := gs.EdgesOf(userID, Outgoing, "IS_MEMBER_OF")
	if len(edges) != 1 || edges[0].ToID != networkID {
		t.Fatalf("Expected membership edge to network %d, got %v", networkID, edges)
	}

	if stats := gs.GetStatistics(); stats.Commits != 1 || stats.Rollbacks != 0 {
		t.Errorf("Expected 1 commit, got %+v", stats)
	}
}

func TestTransaction_RollbackRestoresEverything(t *testing.T) {
	gs := testGraphStorage(t)
	gs.CreatePropertyIndex("Network", "name")

	device, _ := gs.CreateVertex("Device", map[string]Value{"guid": StringValue("dev-1")})
	oldNet, _ := gs.CreateVertex("Network", map[string]Value{"name": StringValue("home")})
	oldEdge, _ := gs.CreateEdge("BELONGS_TO", device.ID, oldNet.ID, nil)
	gs.NextSequence("Device")

	before := gs.GetStatistics()
	boom := errors.New("boom")

	err := gs.Update(func(tx *Transaction) error {
		if err := tx.DeleteEdge(oldEdge.ID); err != nil {
			return err
		}
		newNet, err := tx.CreateVertex("Network", map[string]Value{"name": StringValue("office")})
		if err != nil {
			return err
		}
		if _, err := tx.CreateEdge("BELONGS_TO", device.ID, newNet.ID, nil); err != nil {
			return err
		}
		if err := tx.SetVertexProperties(oldNet.ID, map[string]Value{"name": StringValue("renamed")}); err != nil {
			return err
		}
		if _, err := tx.NextSequence("Device"); err != nil {
			return err
		}
		if err := tx.AdvanceSequence("Fresh", 5); err != nil {
			return err
		}
		if err := tx.DeleteVertex(device.ID); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Expected callback error, got %v", err)
	}

	after := gs.GetStatistics()
	if after.VertexCount != before.VertexCount || after.EdgeCount != before.EdgeCount {
		t.Errorf("Counts changed: before %+v after %+v", before, after)
	}
	if after.Rollbacks != before.Rollbacks+1 {
		t.Errorf("Rollback not counted")
	}

	if _, err := gs.GetEdge(oldEdge.ID); err != nil {
		t.Errorf("Original edge not restored: %v", err)
	}
	edges, _ := gs.EdgesOf(device.ID, Outgoing, "BELONGS_TO")
	if len(edges) != 1 || edges[0].ToID != oldNet.ID {
		t.Errorf("Device ownership not restored: %v", edges)
	}

	found, _ := gs.VerticesByProperty("Network", "name", StringValue("home"))
	if len(found) != 1 {
		t.Errorf("Index not restored after rollback")
	}
	found, _ = gs.VerticesByProperty("Network", "name", StringValue("office"))
	if len(found) != 0 {
		t.Errorf("Rolled back vertex still indexed")
	}

	if next, _ := gs.NextSequence("Device"); next != 1 {
		t.Errorf("Sequence not restored, got %d", next)
	}
	if next, _ := gs.NextSequence("Fresh"); next != 0 {
		t.Errorf("New sequence should not survive rollback, got %d", next)
	}
}

func TestTransaction_PanicRollsBack(t *testing.T) {
	gs := testGraphStorage(t)

	func() {
		defer func() {
			if r := recover(); r == nil {
				t.Fatal("Expected panic to propagate")
			}
		}()
		gs.Update(func(tx *Transaction) error {
			tx.CreateVertex("User", nil)
			panic("kaboom")
		})
	}()

	if count, _ := gs.CountByLabel("User"); count != 0 {
		t.Errorf("Expected rollback after panic, got %d users", count)
	}

	// Lock must have been released
	if _, err := gs.CreateVertex("User", nil); err != nil {
		t.Errorf("Storage unusable after panic: %v", err)
	}
}

func TestTransaction_ViewIsReadOnly(t *testing.T) {
	gs := testGraphStorage(t)

	err := gs.View(func(tx *Transaction) error {
		if tx.Writable() {
			t.Error("View transaction should not be writable")
		}
		_, err := tx.CreateVertex("User", nil)
		return err
	})
	if !errors.Is(err, ErrReadOnly) {
		t.Fatalf("Expected ErrReadOnly, got %v", err)
	}
}

func TestTransaction_UseAfterEnd(t *testing.T) {
	gs := testGraphStorage(t)

	var leaked *Transaction
	gs.Update(func(tx *Transaction) error {
		leaked = tx
		return nil
	})

	if _, err := leaked.CreateVertex("User", nil); !errors.Is(err, ErrTxDone) {
		t.Errorf("Expected ErrTxDone, got %v", err)
	}
	if _, err := leaked.GetVertex(1); !errors.Is(err, ErrTxDone) {
		t.Errorf("Expected ErrTxDone, got %v", err)
	}
}

func TestTransaction_DeleteMissingEdge(t *testing.T) {
	gs := testGraphStorage(t)

	err := gs.DeleteEdge(42)
	if !errors.Is(err, ErrEdgeNotFound) {
		t.Fatalf("Expected ErrEdgeNotFound, got %v", err)
	}
}

func TestTransaction_SelfLoopDeleteAndRestore(t *testing.T) {
	gs := testGraphStorage(t)

	v, _ := gs.CreateVertex("Node", nil)
	loop, _ := gs.CreateEdge("SELF", v.ID, v.ID, nil)

	gs.Update(func(tx *Transaction) error {
		if err := tx.DeleteVertex(v.ID); err != nil {
			return err
		}
		return errors.New("abort")
	})

	edges, err := gs.EdgesOf(v.ID, Both)
	if err != nil {
		t.Fatalf("EdgesOf failed: %v", err)
	}
	if len(edges) != 1 || edges[0].ID != loop.ID {
		t.Errorf("Self loop not restored exactly once: %v", edges)
	}
}
