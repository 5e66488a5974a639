package param

import (
	"strconv"
	"strings"
)

// #region kind
// Kind enumerates the control families a parameter can belong to.
type Kind string

const (
	Continuous Kind = "continuous"
	Integer    Kind = "integer"
	Boolean    Kind = "boolean"
	Enum       Kind = "enum"
)

// Numeric reports whether the kind carries a [Min, Max] range.
func (k Kind) Numeric() bool {
	return k == Continuous || k == Integer
}

// #endregion kind

// #region spec
// Spec declares one bounded parameter. Numeric kinds use Min/Max/Step/Default,
// Boolean uses DefaultFlag, Enum uses Options/DefaultOption.
type Spec struct {
	ID          string
	Label       string
	Description string
	Kind        Kind

	Min     float64
	Max     float64
	Step    float64
	Default float64

	DefaultFlag bool

	Options       []string
	DefaultOption string
}

// defaultValue returns the declared default as a Value.
func (s Spec) defaultValue() Value {
	switch s.Kind {
	case Boolean:
		return Value{Kind: Boolean, Flag: s.DefaultFlag}
	case Enum:
		return Value{Kind: Enum, Option: s.DefaultOption}
	default:
		return Value{Kind: s.Kind, Number: s.Default}
	}
}

// optionIndex returns the position of option in Options, or -1.
func (s Spec) optionIndex(option string) int {
	for i, o := range s.Options {
		if o == option {
			return i
		}
	}
	return -1
}

// #endregion spec

// #region value
// Value is the current setting of a parameter. Only the field matching Kind is meaningful.
type Value struct {
	Kind   Kind
	Number float64
	Flag   bool
	Option string
}

// String renders the value the way exports and the CLI print it.
func (v Value) String() string {
	switch v.Kind {
	case Boolean:
		return strconv.FormatBool(v.Flag)
	case Enum:
		return v.Option
	case Integer:
		return strconv.FormatInt(int64(v.Number), 10)
	default:
		return strconv.FormatFloat(v.Number, 'g', -1, 64)
	}
}

// Float returns the numeric reading of the value (booleans map to 0/1).
func (v Value) Float() float64 {
	if v.Kind == Boolean {
		if v.Flag {
			return 1
		}
		return 0
	}
	return v.Number
}

// #endregion value

// #region snapshot
// Snapshot is a value-only, ordered copy of a parameter set.
type Snapshot struct {
	ids    []string
	values map[string]Value
}

// NewSnapshot builds a snapshot from ordered ids and their values.
func NewSnapshot(ids []string, values map[string]Value) Snapshot {
	s := Snapshot{
		ids:    make([]string, 0, len(ids)),
		values: make(map[string]Value, len(ids)),
	}
	for _, id := range ids {
		v, ok := values[id]
		if !ok {
			continue
		}
		s.ids = append(s.ids, id)
		s.values[id] = v
	}
	return s
}

// IDs returns parameter ids in display order.
func (s Snapshot) IDs() []string {
	out := make([]string, len(s.ids))
	copy(out, s.ids)
	return out
}

// Len is the number of parameters captured.
func (s Snapshot) Len() int {
	return len(s.ids)
}

// Get returns the value for id.
func (s Snapshot) Get(id string) (Value, bool) {
	v, ok := s.values[id]
	return v, ok
}

// Float returns the numeric reading for id, 0 when absent.
func (s Snapshot) Float(id string) float64 {
	return s.values[id].Float()
}

// Int returns the numeric reading for id rounded to the nearest integer.
func (s Snapshot) Int(id string) int {
	f := s.values[id].Float()
	if f < 0 {
		return int(f - 0.5)
	}
	return int(f + 0.5)
}

// Bool returns the flag for id.
func (s Snapshot) Bool(id string) bool {
	return s.values[id].Flag
}

// Option returns the enum option for id.
func (s Snapshot) Option(id string) string {
	return s.values[id].Option
}

// Pair is an (id, rendered value) tuple.
type Pair struct {
	ID    string
	Value string
}

// Pairs renders every value in order.
func (s Snapshot) Pairs() []Pair {
	out := make([]Pair, 0, len(s.ids))
	for _, id := range s.ids {
		out = append(out, Pair{ID: id, Value: s.values[id].String()})
	}
	return out
}

// Map returns the rendered values keyed by id.
func (s Snapshot) Map() map[string]string {
	out := make(map[string]string, len(s.ids))
	for _, id := range s.ids {
		out[id] = s.values[id].String()
	}
	return out
}

// Key is a canonical encoding of the snapshot, equal for equal snapshots.
func (s Snapshot) Key() string {
	var b strings.Builder
	for i, id := range s.ids {
		if i > 0 {
			b.WriteByte(';')
		}
		v := s.values[id]
		b.WriteString(id)
		b.WriteByte('=')
		if v.Kind.Numeric() {
			b.WriteString(strconv.FormatFloat(v.Number, 'x', -1, 64))
		} else {
			b.WriteString(v.String())
		}
	}
	return b.String()
}

// #endregion snapshot
