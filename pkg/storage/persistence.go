package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang/snappy"
)

const (
	snapshotFileName = "graph.snapshot"

	// First byte of a snapshot file
	snapshotFormatJSON   = 'j'
	snapshotFormatSnappy = 's'
)

type snapshotIndex struct {
	Label string
	Key   string
}

type snapshotState struct {
	Vertices     []*Vertex
	Edges        []*Edge
	Sequences    map[string]uint64
	Indexes      []snapshotIndex
	NextVertexID uint64
	NextEdgeID   uint64
	TakenAt      time.Time
}

// Snapshot writes the full graph to DataDir. It is a no-op for memory-only storage.
func (gs *GraphStorage) Snapshot() error {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	if gs.closed {
		return ErrStorageClosed
	}
	if gs.config.DataDir == "" {
		return nil
	}
	return gs.snapshotLocked()
}

func (gs *GraphStorage) snapshotLocked() error {
	state := snapshotState{
		Vertices:     make([]*Vertex, 0, len(gs.vertices)),
		Edges:        make([]*Edge, 0, len(gs.edges)),
		Sequences:    gs.sequences,
		NextVertexID: gs.nextVertexID,
		NextEdgeID:   gs.nextEdgeID,
		TakenAt:      time.Now(),
	}

	vertexIDs := make(map[uint64]struct{}, len(gs.vertices))
	for id := range gs.vertices {
		vertexIDs[id] = struct{}{}
	}
	for _, id := range sortedIDs(vertexIDs) {
		state.Vertices = append(state.Vertices, gs.vertices[id])
	}

	edgeIDs := make(map[uint64]struct{}, len(gs.edges))
	for id := range gs.edges {
		edgeIDs[id] = struct{}{}
	}
	for _, id := range sortedIDs(edgeIDs) {
		state.Edges = append(state.Edges, gs.edges[id])
	}

	for k := range gs.propertyIndexes {
		state.Indexes = append(state.Indexes, snapshotIndex{Label: k.Label, Key: k.Key})
	}

	data, err := json.Marshal(state)
	if err != nil {
		return NewError("Snapshot").Snapshot().Context("marshal").Cause(err).Err()
	}

	var payload []byte
	if gs.config.CompressSnapshots {
		payload = append([]byte{snapshotFormatSnappy}, snappy.Encode(nil, data)...)
	} else {
		payload = append([]byte{snapshotFormatJSON}, data...)
	}

	snapshotPath := filepath.Join(gs.config.DataDir, snapshotFileName)
	tmpPath := snapshotPath + ".tmp"

	// Write to temporary file first
	if err := os.WriteFile(tmpPath, payload, filePermissions); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}

	// Atomic rename
	if err := os.Rename(tmpPath, snapshotPath); err != nil {
		return fmt.Errorf("failed to rename snapshot: %w", err)
	}

	gs.lastSnapshot = state.TakenAt
	return nil
}

// loadFromDisk replaces the in-memory state with the snapshot in DataDir.
// A missing snapshot is reported with an error satisfying os.IsNotExist.
func (gs *GraphStorage) loadFromDisk() error {
	payload, err := os.ReadFile(filepath.Join(gs.config.DataDir, snapshotFileName))
	if err != nil {
		return err
	}
	if len(payload) == 0 {
		return NewError("Load").Snapshot().Context("empty file").Cause(ErrSnapshotCorrupt).Err()
	}

	var data []byte
	switch payload[0] {
	case snapshotFormatSnappy:
		data, err = snappy.Decode(nil, payload[1:])
		if err != nil {
			return NewError("Load").Snapshot().Context("decompress").Cause(ErrSnapshotCorrupt).Err()
		}
	case snapshotFormatJSON:
		data = payload[1:]
	default:
		return NewError("Load").Snapshot().Context(fmt.Sprintf("unknown format %q", payload[0])).Cause(ErrSnapshotCorrupt).Err()
	}

	var state snapshotState
	if err := json.Unmarshal(data, &state); err != nil {
		return NewError("Load").Snapshot().Context("unmarshal").Cause(ErrSnapshotCorrupt).Err()
	}

	for _, idx := range state.Indexes {
		gs.propertyIndexes[indexKey{Label: idx.Label, Key: idx.Key}] = NewPropertyIndex(idx.Label, idx.Key)
	}

	for _, vertex := range state.Vertices {
		if vertex.Properties == nil {
			vertex.Properties = make(map[string]Value)
		}
		gs.insertVertexLocked(vertex)
	}

	for _, edge := range state.Edges {
		if _, ok := gs.vertices[edge.FromID]; !ok {
			return NewError("Load").Edge(edge.ID).Context("dangling source").Cause(ErrSnapshotCorrupt).Err()
		}
		if _, ok := gs.vertices[edge.ToID]; !ok {
			return NewError("Load").Edge(edge.ID).Context("dangling target").Cause(ErrSnapshotCorrupt).Err()
		}
		if edge.Properties == nil {
			edge.Properties = make(map[string]Value)
		}
		gs.insertEdgeLocked(edge)
	}

	if state.Sequences != nil {
		gs.sequences = state.Sequences
	}
	if state.NextVertexID > 0 {
		gs.nextVertexID = state.NextVertexID
	}
	if state.NextEdgeID > 0 {
		gs.nextEdgeID = state.NextEdgeID
	}
	gs.lastSnapshot = state.TakenAt

	return nil
}
