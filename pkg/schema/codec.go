package schema

import (
	"fmt"
	"strings"
	"time"

	"github.com/dd0wney/hivegraph/pkg/graph"
	"github.com/dd0wney/hivegraph/pkg/storage"
)

// Codec converts between a value object and the properties of its vertex
type Codec[T any] interface {
	Label() string
	Encode(entity T) map[string]storage.Value
	Decode(v *storage.Vertex) (T, error)
}

// CorruptEntityError reports a vertex that cannot be decoded: wrong label, or a
// required property missing or of the wrong type.
type CorruptEntityError struct {
	Label    string
	VertexID uint64
	Property string
	Reason   string
}

func (e *CorruptEntityError) Error() string {
	if e.Property == "" {
		return fmt.Sprintf("corrupt %s vertex %d: %s", e.Label, e.VertexID, e.Reason)
	}
	return fmt.Sprintf("corrupt %s vertex %d: property %q %s", e.Label, e.VertexID, e.Property, e.Reason)
}

// NormalizeIdentityLogin is the case rule for external identity logins. Writers and
// lookups both go through it.
func NormalizeIdentityLogin(login string) string {
	return strings.ToLower(login)
}

// ToVertex returns a traversal that creates the vertex for entity
func ToVertex[T any](g *graph.Source, codec Codec[T], entity T) *graph.Traversal {
	return g.AddV(codec.Label()).PropertyMap(codec.Encode(entity))
}

// decoder reads typed properties off one vertex and remembers the first failure
type decoder struct {
	v     *storage.Vertex
	label string
	err   error
}

func newDecoder(v *storage.Vertex, label string) *decoder {
	d := &decoder{v: v, label: label}
	if v == nil {
		d.err = &CorruptEntityError{Label: label, Reason: "nil vertex"}
	} else if v.Label != label {
		d.err = &CorruptEntityError{Label: label, VertexID: v.ID, Reason: "has label " + v.Label}
	}
	return d
}

func (d *decoder) fail(key, reason string) {
	if d.err == nil {
		d.err = &CorruptEntityError{Label: d.label, VertexID: d.v.ID, Property: key, Reason: reason}
	}
}

func (d *decoder) lookup(key string, required bool) (storage.Value, bool) {
	if d.err != nil {
		return storage.Value{}, false
	}
	val, ok := d.v.Properties[key]
	if !ok && required {
		d.fail(key, "is missing")
	}
	return val, ok
}

func (d *decoder) getString(key string, required bool) string {
	val, ok := d.lookup(key, required)
	if !ok {
		return ""
	}
	s, err := val.AsString()
	if err != nil {
		d.fail(key, err.Error())
	}
	return s
}

func (d *decoder) getInt(key string, required bool) int64 {
	val, ok := d.lookup(key, required)
	if !ok {
		return 0
	}
	i, err := val.AsInt()
	if err != nil {
		d.fail(key, err.Error())
	}
	return i
}

func (d *decoder) getBool(key string) bool {
	val, ok := d.lookup(key, false)
	if !ok {
		return false
	}
	b, err := val.AsBool()
	if err != nil {
		d.fail(key, err.Error())
	}
	return b
}

func (d *decoder) getTime(key string) *time.Time {
	val, ok := d.lookup(key, false)
	if !ok {
		return nil
	}
	ts, err := val.AsTimestamp()
	if err != nil {
		d.fail(key, err.Error())
		return nil
	}
	return &ts
}

func (d *decoder) id() *int64 {
	id := d.getInt(PropID, true)
	if d.err != nil {
		return nil
	}
	return &id
}

// putString skips empty strings so optional properties stay absent
func putString(props map[string]storage.Value, key, value string) {
	if value != "" {
		props[key] = storage.StringValue(value)
	}
}

func putID(props map[string]storage.Value, id *int64) {
	if id != nil {
		props[PropID] = storage.IntValue(*id)
	}
}
