package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []LogEntry {
	t.Helper()
	var entries []LogEntry
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry LogEntry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("Invalid JSON line %q: %v", line, err)
		}
		entries = append(entries, entry)
	}
	return entries
}

func TestLevelFromString(t *testing.T) {
	tests := []struct {
		input   string
		want    Level
		wantErr bool
	}{
		{"debug", DebugLevel, false},
		{"INFO", InfoLevel, false},
		{"", InfoLevel, false},
		{" Warning ", WarnLevel, false},
		{"error", ErrorLevel, false},
		{"verbose", InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := LevelFromString(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("LevelFromString(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("LevelFromString(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}

	if ParseLevel("nonsense") != InfoLevel {
		t.Error("ParseLevel should fall back to INFO")
	}
}

func TestDomainFields(t *testing.T) {
	id := int64(9)

	tests := []struct {
		name  string
		field Field
		key   string
		value any
	}{
		{"entity", Entity("network"), "entity", "network"},
		{"vertex", VertexID(3), "vertex_id", uint64(3)},
		{"label", Label("User"), "label", "User"},
		{"edge label", EdgeLabel("BELONGS_TO"), "edge_label", "BELONGS_TO"},
		{"user", UserID(4), "user_id", int64(4)},
		{"network", NetworkID(5), "network_id", int64(5)},
		{"guid", GUID("dev-1"), "guid", "dev-1"},
		{"optional set", OptionalID("id", &id), "id", int64(9)},
		{"optional nil", OptionalID("id", nil), "id", nil},
		{"nil error", Error(nil), "error", nil},
		{"error", Error(errors.New("boom")), "error", "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.field.Key != tt.key {
				t.Errorf("Key = %q, want %q", tt.field.Key, tt.key)
			}
			if tt.field.Value != tt.value {
				t.Errorf("Value = %v, want %v", tt.field.Value, tt.value)
			}
		})
	}
}

func TestJSONLogger_WritesOneObjectPerLine(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, DebugLevel)

	logger.Info("network created", Entity("network"), NetworkID(1))
	logger.Debug("traversal", Count(2))

	entries := decodeLines(t, &buf)
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}
	if entries[0].Level != "INFO" || entries[0].Message != "network created" {
		t.Errorf("Unexpected entry %+v", entries[0])
	}
	if entries[0].Fields["entity"] != "network" {
		t.Errorf("entity field = %v", entries[0].Fields["entity"])
	}
	// JSON numbers decode as float64
	if entries[0].Fields["network_id"] != float64(1) {
		t.Errorf("network_id field = %v", entries[0].Fields["network_id"])
	}
	if _, err := time.Parse(time.RFC3339Nano, entries[0].Time); err != nil {
		t.Errorf("Bad timestamp %q: %v", entries[0].Time, err)
	}
}

func TestJSONLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, WarnLevel)

	logger.Debug("hidden")
	logger.Info("hidden")
	logger.Warn("shown")
	logger.Error("shown")

	entries := decodeLines(t, &buf)
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}
	for _, e := range entries {
		if e.Message != "shown" {
			t.Errorf("Filtered message leaked: %+v", e)
		}
	}
}

func TestJSONLogger_NoFieldsOmitted(t *testing.T) {
	var buf bytes.Buffer
	NewJSONLogger(&buf, InfoLevel).Info("plain")

	if strings.Contains(buf.String(), `"fields"`) {
		t.Errorf("Empty fields should be omitted: %s", buf.String())
	}
}

func TestJSONLogger_WithSharesLevel(t *testing.T) {
	var buf bytes.Buffer
	parent := NewJSONLogger(&buf, InfoLevel)
	child := parent.With(Component("dao"), Entity("user"))

	child.Info("persist", Entity("override"))
	parent.SetLevel(ErrorLevel)
	child.Info("dropped")

	if child.GetLevel() != ErrorLevel {
		t.Errorf("Child level = %v, want ERROR", child.GetLevel())
	}

	entries := decodeLines(t, &buf)
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}
	if entries[0].Fields["component"] != "dao" {
		t.Errorf("Preset field missing: %v", entries[0].Fields)
	}
	if entries[0].Fields["entity"] != "override" {
		t.Errorf("Call-site field should win: %v", entries[0].Fields["entity"])
	}
}

func TestJSONLogger_ConcurrentWrites(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, InfoLevel)
	child := logger.With(Component("access"))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				logger.Info("parent", Int("i", i))
			} else {
				child.Info("child", Int("i", i))
			}
		}(i)
	}
	wg.Wait()

	if entries := decodeLines(t, &buf); len(entries) != 20 {
		t.Errorf("Expected 20 intact entries, got %d", len(entries))
	}
}

func TestTimedOperation(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, DebugLevel)

	StartTimer(logger, "dao call", Operation("find")).End(Count(1))
	StartTimer(logger, "dao call", Operation("merge")).EndError(errors.New("not found"))
	StartTimer(logger, "dao call").EndWithLevel(WarnLevel, "slow")

	entries := decodeLines(t, &buf)
	if len(entries) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(entries))
	}

	if entries[0].Level != "DEBUG" || entries[0].Fields["operation"] != "find" || entries[0].Fields["latency"] == nil {
		t.Errorf("Unexpected End entry %+v", entries[0])
	}
	if entries[1].Level != "ERROR" || entries[1].Fields["error"] != "not found" {
		t.Errorf("Unexpected EndError entry %+v", entries[1])
	}
	if entries[2].Level != "WARN" || entries[2].Message != "slow" {
		t.Errorf("Unexpected EndWithLevel entry %+v", entries[2])
	}
}

func TestSetDefaultLogger(t *testing.T) {
	var buf bytes.Buffer
	previous := DefaultLogger()
	t.Cleanup(func() { SetDefaultLogger(previous) })

	SetDefaultLogger(NewJSONLogger(&buf, InfoLevel))
	Info("via default")
	Warn("also via default")

	if entries := decodeLines(t, &buf); len(entries) != 2 {
		t.Errorf("Expected 2 entries through default logger, got %d", len(entries))
	}
}

func TestNopLogger(t *testing.T) {
	logger := NewNopLogger()
	logger.Info("ignored")
	if logger.With(Component("x")) == nil {
		t.Error("NopLogger.With returned nil")
	}
}

func BenchmarkJSONLogger_Info(b *testing.B) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, InfoLevel)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Info("benchmark", Entity("device"), GUID("dev-1"))
	}
}
