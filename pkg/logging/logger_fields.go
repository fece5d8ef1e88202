package logging

import (
	"time"
)

// Common field constructors
func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

func Int64(key string, value int64) Field {
	return Field{Key: key, Value: value}
}

func Uint64(key string, value uint64) Field {
	return Field{Key: key, Value: value}
}

func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value.String()}
}

func Error(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

func Any(key string, value any) Field {
	return Field{Key: key, Value: value}
}

func Component(name string) Field {
	return String("component", name)
}

func Operation(op string) Field {
	return String("operation", op)
}

func Latency(d time.Duration) Field {
	return Duration("latency", d)
}

func Count(n int) Field {
	return Int("count", n)
}

// Graph fields

func VertexID(id uint64) Field {
	return Uint64("vertex_id", id)
}

func EdgeID(id uint64) Field {
	return Uint64("edge_id", id)
}

func Label(label string) Field {
	return String("label", label)
}

func EdgeLabel(label string) Field {
	return String("edge_label", label)
}

// Domain fields

// Entity names the entity kind a DAO call operates on ("user", "network", "device")
func Entity(kind string) Field {
	return String("entity", kind)
}

func UserID(id int64) Field {
	return Int64("user_id", id)
}

func NetworkID(id int64) Field {
	return Int64("network_id", id)
}

func DeviceID(id int64) Field {
	return Int64("device_id", id)
}

// GUID is the external device identifier
func GUID(guid string) Field {
	return String("guid", guid)
}

// OptionalID renders a nullable entity id, nil when unset
func OptionalID(key string, id *int64) Field {
	if id == nil {
		return Field{Key: key, Value: nil}
	}
	return Int64(key, *id)
}
