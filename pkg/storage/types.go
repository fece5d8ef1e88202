package storage

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"time"
)

// ValueType represents the type of a property value
type ValueType uint8

const (
	TypeString ValueType = iota
	TypeInt
	TypeFloat
	TypeBool
	TypeTimestamp
)

func (t ValueType) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeBool:
		return "bool"
	case TypeTimestamp:
		return "timestamp"
	default:
		return "unknown"
	}
}

// Value represents a typed property value
type Value struct {
	Type ValueType
	Data []byte
}

// Helper functions to create typed values
func StringValue(s string) Value {
	return Value{Type: TypeString, Data: []byte(s)}
}

func IntValue(i int64) Value {
	data := make([]byte, 8)
	binary.LittleEndian.PutUint64(data, uint64(i))
	return Value{Type: TypeInt, Data: data}
}

func FloatValue(f float64) Value {
	data := make([]byte, 8)
	binary.LittleEndian.PutUint64(data, math.Float64bits(f))
	return Value{Type: TypeFloat, Data: data}
}

func BoolValue(b bool) Value {
	data := []byte{0}
	if b {
		data[0] = 1
	}
	return Value{Type: TypeBool, Data: data}
}

// TimestampValue stores t with millisecond precision.
func TimestampValue(t time.Time) Value {
	data := make([]byte, 8)
	binary.LittleEndian.PutUint64(data, uint64(t.UnixMilli()))
	return Value{Type: TypeTimestamp, Data: data}
}

// Decode methods
func (v Value) AsString() (string, error) {
	if v.Type != TypeString {
		return "", fmt.Errorf("value is not a string (got %s)", v.Type)
	}
	return string(v.Data), nil
}

func (v Value) AsInt() (int64, error) {
	if v.Type != TypeInt || len(v.Data) != 8 {
		return 0, fmt.Errorf("value is not an int (got %s)", v.Type)
	}
	return int64(binary.LittleEndian.Uint64(v.Data)), nil
}

func (v Value) AsFloat() (float64, error) {
	if v.Type != TypeFloat || len(v.Data) != 8 {
		return 0, fmt.Errorf("value is not a float (got %s)", v.Type)
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(v.Data)), nil
}

func (v Value) AsBool() (bool, error) {
	if v.Type != TypeBool || len(v.Data) != 1 {
		return false, fmt.Errorf("value is not a bool (got %s)", v.Type)
	}
	return v.Data[0] == 1, nil
}

func (v Value) AsTimestamp() (time.Time, error) {
	if v.Type != TypeTimestamp || len(v.Data) != 8 {
		return time.Time{}, fmt.Errorf("value is not a timestamp (got %s)", v.Type)
	}
	return time.UnixMilli(int64(binary.LittleEndian.Uint64(v.Data))), nil
}

// Equal reports whether both values have the same type and payload.
func (v Value) Equal(other Value) bool {
	return v.Type == other.Type && bytes.Equal(v.Data, other.Data)
}

// Compare orders two values. Values of different types order by type.
func (v Value) Compare(other Value) int {
	if v.Type != other.Type {
		if v.Type < other.Type {
			return -1
		}
		return 1
	}
	switch v.Type {
	case TypeInt, TypeTimestamp:
		a := int64(binary.LittleEndian.Uint64(v.Data))
		b := int64(binary.LittleEndian.Uint64(other.Data))
		return compareOrdered(a, b)
	case TypeFloat:
		a, _ := v.AsFloat()
		b, _ := other.AsFloat()
		return compareOrdered(a, b)
	default:
		return bytes.Compare(v.Data, other.Data)
	}
}

// String renders the value for index keys and log output.
func (v Value) String() string {
	switch v.Type {
	case TypeString:
		return string(v.Data)
	case TypeInt:
		i, _ := v.AsInt()
		return strconv.FormatInt(i, 10)
	case TypeFloat:
		f, _ := v.AsFloat()
		return strconv.FormatFloat(f, 'g', -1, 64)
	case TypeBool:
		b, _ := v.AsBool()
		return strconv.FormatBool(b)
	case TypeTimestamp:
		ts, _ := v.AsTimestamp()
		return ts.UTC().Format(time.RFC3339Nano)
	default:
		return fmt.Sprintf("%x", v.Data)
	}
}

func compareOrdered[T int64 | float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Direction selects which incident edges of a vertex are visited
type Direction int

const (
	Outgoing Direction = iota
	Incoming
	Both
)

func (d Direction) String() string {
	switch d {
	case Outgoing:
		return "out"
	case Incoming:
		return "in"
	case Both:
		return "both"
	default:
		return "unknown"
	}
}

// Vertex is a labelled node of the property graph
type Vertex struct {
	ID         uint64
	Label      string
	Properties map[string]Value
	CreatedAt  int64
	UpdatedAt  int64
}

// Edge is a directed, labelled relationship between two vertices
type Edge struct {
	ID         uint64
	Label      string
	FromID     uint64
	ToID       uint64
	Properties map[string]Value
	CreatedAt  int64
}

// Clone creates a deep copy of a vertex
func (v *Vertex) Clone() *Vertex {
	clone := &Vertex{
		ID:         v.ID,
		Label:      v.Label,
		Properties: make(map[string]Value, len(v.Properties)),
		CreatedAt:  v.CreatedAt,
		UpdatedAt:  v.UpdatedAt,
	}
	for k, val := range v.Properties {
		clone.Properties[k] = val
	}
	return clone
}

// GetProperty gets a property value
func (v *Vertex) GetProperty(key string) (Value, bool) {
	val, ok := v.Properties[key]
	return val, ok
}

// Clone creates a deep copy of an edge
func (e *Edge) Clone() *Edge {
	clone := &Edge{
		ID:         e.ID,
		Label:      e.Label,
		FromID:     e.FromID,
		ToID:       e.ToID,
		Properties: make(map[string]Value, len(e.Properties)),
		CreatedAt:  e.CreatedAt,
	}
	for k, val := range e.Properties {
		clone.Properties[k] = val
	}
	return clone
}

// GetProperty gets a property value
func (e *Edge) GetProperty(key string) (Value, bool) {
	val, ok := e.Properties[key]
	return val, ok
}

// Other returns the endpoint of e that is not vertexID.
// For a self loop the same vertex is returned.
func (e *Edge) Other(vertexID uint64) uint64 {
	if e.FromID == vertexID {
		return e.ToID
	}
	return e.FromID
}

// Reader is the read side of the graph, implemented by GraphStorage and Transaction
type Reader interface {
	GetVertex(id uint64) (*Vertex, error)
	VerticesByLabel(label string) ([]*Vertex, error)
	VerticesByProperty(label, key string, value Value) ([]*Vertex, error)
	AllVertices() ([]*Vertex, error)
	CountByLabel(label string) (int, error)
	AllLabels() []string

	GetEdge(id uint64) (*Edge, error)
	EdgesOf(vertexID uint64, dir Direction, labels ...string) ([]*Edge, error)
	EdgesByLabel(label string) ([]*Edge, error)
}

// Writer is the mutation side of the graph
type Writer interface {
	CreateVertex(label string, properties map[string]Value) (*Vertex, error)
	SetVertexProperties(id uint64, properties map[string]Value) error
	ReplaceVertexProperties(id uint64, properties map[string]Value) error
	DeleteVertex(id uint64) error

	CreateEdge(label string, fromID, toID uint64, properties map[string]Value) (*Edge, error)
	DeleteEdge(id uint64) error

	NextSequence(name string) (uint64, error)
	AdvanceSequence(name string, atLeast uint64) error
}

// Graph combines both sides
type Graph interface {
	Reader
	Writer
}
