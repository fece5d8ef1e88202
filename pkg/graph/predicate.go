package graph

import (
	"fmt"
	"strings"
	"time"

	"github.com/dd0wney/hivegraph/pkg/storage"
)

// P is a predicate over a property value
type P struct {
	name string
	test func(storage.Value) bool
}

func (p P) String() string {
	return p.name
}

// Test applies the predicate
func (p P) Test(v storage.Value) bool {
	return p.test(v)
}

// Eq matches values equal to v
func Eq(v storage.Value) P {
	return P{name: "eq(" + v.String() + ")", test: v.Equal}
}

// Neq matches values different from v
func Neq(v storage.Value) P {
	return P{name: "neq(" + v.String() + ")", test: func(o storage.Value) bool { return !v.Equal(o) }}
}

// Within matches any of values
func Within(values ...storage.Value) P {
	names := make([]string, len(values))
	for i, v := range values {
		names[i] = v.String()
	}
	return P{
		name: "within(" + strings.Join(names, ",") + ")",
		test: func(o storage.Value) bool {
			for _, v := range values {
				if v.Equal(o) {
					return true
				}
			}
			return false
		},
	}
}

// Containing matches string values that contain substr
func Containing(substr string) P {
	return P{
		name: fmt.Sprintf("containing(%s)", substr),
		test: func(o storage.Value) bool {
			s, err := o.AsString()
			return err == nil && strings.Contains(s, substr)
		},
	}
}

// ToValue converts a Go value to a property value
func ToValue(v any) (storage.Value, error) {
	switch x := v.(type) {
	case storage.Value:
		return x, nil
	case string:
		return storage.StringValue(x), nil
	case int:
		return storage.IntValue(int64(x)), nil
	case int32:
		return storage.IntValue(int64(x)), nil
	case int64:
		return storage.IntValue(x), nil
	case float64:
		return storage.FloatValue(x), nil
	case bool:
		return storage.BoolValue(x), nil
	case time.Time:
		return storage.TimestampValue(x), nil
	default:
		return storage.Value{}, fmt.Errorf("%w: %T", ErrUnsupportedValue, v)
	}
}
