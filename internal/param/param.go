package param

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strconv"
	"strings"
)

// #region schema
// Schema is an ordered set of parameter specs with unique ids.
type Schema struct {
	specs []Spec
	index map[string]int
}

// NewSchema validates specs and returns them as a Schema.
func NewSchema(specs ...Spec) (Schema, error) {
	s := Schema{
		specs: make([]Spec, 0, len(specs)),
		index: make(map[string]int, len(specs)),
	}
	for _, spec := range specs {
		if spec.ID == "" {
			return Schema{}, fmt.Errorf("parameter without id")
		}
		if _, dup := s.index[spec.ID]; dup {
			return Schema{}, fmt.Errorf("duplicate parameter %q", spec.ID)
		}
		if spec.Kind == Integer && spec.Step == 0 {
			spec.Step = 1
		}
		if err := validateSpec(spec); err != nil {
			return Schema{}, fmt.Errorf("parameter %q: %w", spec.ID, err)
		}
		if spec.Label == "" {
			spec.Label = spec.ID
		}
		s.index[spec.ID] = len(s.specs)
		s.specs = append(s.specs, spec)
	}
	return s, nil
}

// MustSchema is NewSchema for build-time definitions; it panics on invalid specs.
func MustSchema(specs ...Spec) Schema {
	s, err := NewSchema(specs...)
	if err != nil {
		panic(err)
	}
	return s
}

func validateSpec(spec Spec) error {
	switch spec.Kind {
	case Continuous, Integer:
		if spec.Min > spec.Max {
			return fmt.Errorf("min %v above max %v", spec.Min, spec.Max)
		}
		if !(spec.Step > 0) {
			return fmt.Errorf("step must be positive, got %v", spec.Step)
		}
		if spec.Default < spec.Min || spec.Default > spec.Max {
			return fmt.Errorf("default %v outside [%v, %v]", spec.Default, spec.Min, spec.Max)
		}
	case Enum:
		if len(spec.Options) == 0 {
			return fmt.Errorf("enum without options")
		}
		if spec.optionIndex(spec.DefaultOption) < 0 {
			return fmt.Errorf("default option %q not declared", spec.DefaultOption)
		}
	case Boolean:
	default:
		return fmt.Errorf("unknown kind %q", spec.Kind)
	}
	return nil
}

// Specs returns the specs in display order.
func (s Schema) Specs() []Spec {
	out := make([]Spec, len(s.specs))
	copy(out, s.specs)
	return out
}

// Spec looks up a single spec.
func (s Schema) Spec(id string) (Spec, bool) {
	i, ok := s.index[id]
	if !ok {
		return Spec{}, false
	}
	return s.specs[i], true
}

// IDs returns parameter ids in display order.
func (s Schema) IDs() []string {
	ids := make([]string, len(s.specs))
	for i, spec := range s.specs {
		ids[i] = spec.ID
	}
	return ids
}

// Len is the number of declared parameters.
func (s Schema) Len() int {
	return len(s.specs)
}

// Defaults returns a snapshot holding every declared default.
func (s Schema) Defaults() Snapshot {
	values := make(map[string]Value, len(s.specs))
	for _, spec := range s.specs {
		values[spec.ID] = spec.defaultValue()
	}
	return NewSnapshot(s.IDs(), values)
}

// #endregion schema

// #region store
// Store holds the current value of every parameter in a schema.
// It belongs to one visualization instance and is not safe for concurrent use.
type Store struct {
	schema Schema
	values map[string]Value
}

// NewStore creates a store initialised to the schema defaults.
func NewStore(schema Schema) *Store {
	st := &Store{schema: schema, values: make(map[string]Value, schema.Len())}
	st.Reset()
	return st
}

// Schema returns the store's schema.
func (st *Store) Schema() Schema {
	return st.schema
}

// Set stores raw for a numeric, boolean, or enum parameter.
// Numeric values are clamped into [Min, Max] and snapped to the nearest step.
// Booleans read raw != 0; enums read raw as an option index.
// NaN and undeclared ids are ignored. Reports whether the stored value changed.
func (st *Store) Set(id string, raw float64) bool {
	spec, ok := st.schema.Spec(id)
	if !ok || math.IsNaN(raw) {
		return false
	}
	var next Value
	switch spec.Kind {
	case Boolean:
		next = Value{Kind: Boolean, Flag: raw != 0}
	case Enum:
		idx := int(math.Round(clampFloat(raw, 0, float64(len(spec.Options)-1))))
		next = Value{Kind: Enum, Option: spec.Options[idx]}
	default:
		next = Value{Kind: spec.Kind, Number: Snap(spec, raw)}
	}
	return st.store(id, next)
}

// SetBool stores a boolean parameter; other kinds read b as 0/1.
func (st *Store) SetBool(id string, b bool) bool {
	if b {
		return st.Set(id, 1)
	}
	return st.Set(id, 0)
}

// SetOption stores an enum option. Undeclared options are ignored.
func (st *Store) SetOption(id, option string) bool {
	spec, ok := st.schema.Spec(id)
	if !ok || spec.Kind != Enum || spec.optionIndex(option) < 0 {
		return false
	}
	return st.store(id, Value{Kind: Enum, Option: option})
}

// SetText parses raw the way a CLI flag or form field would and dispatches it.
// Unparsable text is ignored.
func (st *Store) SetText(id, raw string) bool {
	spec, ok := st.schema.Spec(id)
	if !ok {
		return false
	}
	raw = strings.TrimSpace(raw)
	switch spec.Kind {
	case Boolean:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			switch strings.ToLower(raw) {
			case "on", "yes":
				b = true
			case "off", "no":
				b = false
			default:
				return false
			}
		}
		return st.SetBool(id, b)
	case Enum:
		if spec.optionIndex(raw) >= 0 {
			return st.SetOption(id, raw)
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return false
		}
		return st.Set(id, float64(n))
	default:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return false
		}
		return st.Set(id, f)
	}
}

// Nudge moves a parameter by delta steps (numeric) or options (enum), or toggles a boolean.
func (st *Store) Nudge(id string, delta int) bool {
	spec, ok := st.schema.Spec(id)
	if !ok || delta == 0 {
		return false
	}
	cur := st.values[id]
	switch spec.Kind {
	case Boolean:
		return st.SetBool(id, !cur.Flag)
	case Enum:
		idx := spec.optionIndex(cur.Option) + delta
		n := len(spec.Options)
		idx = ((idx % n) + n) % n
		return st.SetOption(id, spec.Options[idx])
	default:
		return st.Set(id, cur.Number+float64(delta)*spec.Step)
	}
}

// Value returns the stored value for id.
func (st *Store) Value(id string) (Value, bool) {
	v, ok := st.values[id]
	return v, ok
}

// Snapshot returns a value-only copy of the current settings.
func (st *Store) Snapshot() Snapshot {
	return NewSnapshot(st.schema.IDs(), st.values)
}

// Load applies every value in snap through the setters, so foreign values are clamped.
func (st *Store) Load(snap Snapshot) {
	for _, id := range snap.IDs() {
		v, _ := snap.Get(id)
		switch v.Kind {
		case Enum:
			st.SetOption(id, v.Option)
		case Boolean:
			st.SetBool(id, v.Flag)
		default:
			st.Set(id, v.Number)
		}
	}
}

// Reset restores the given parameters (or all, when none are named) to their defaults.
func (st *Store) Reset(ids ...string) {
	if len(ids) == 0 {
		ids = st.schema.IDs()
	}
	for _, id := range ids {
		spec, ok := st.schema.Spec(id)
		if !ok {
			continue
		}
		st.values[id] = spec.defaultValue()
	}
}

func (st *Store) store(id string, next Value) bool {
	if cur, ok := st.values[id]; ok && cur == next {
		return false
	}
	st.values[id] = next
	return true
}

// #endregion store

// #region snapping
// Snap projects raw onto the spec's grid: Min + n*Step with n clamped so the
// result stays inside [Min, Max]. The result is rounded to 9 decimals to drop
// binary noise; the projection is idempotent.
func Snap(spec Spec, raw float64) float64 {
	if spec.Step <= 0 {
		return clampFloat(raw, spec.Min, spec.Max)
	}
	maxN := math.Floor((spec.Max-spec.Min)/spec.Step + 1e-9)
	n := math.Round((clampFloat(raw, spec.Min, spec.Max) - spec.Min) / spec.Step)
	n = clampFloat(n, 0, maxN)
	v := spec.Min + n*spec.Step
	v = math.Round(v*1e9) / 1e9
	return clampFloat(v, spec.Min, spec.Max)
}

func clampFloat(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// #endregion snapping

// #region random
// Random samples a snapshot uniformly within the schema's declared bounds.
func Random(schema Schema, r *rand.Rand) Snapshot {
	st := NewStore(schema)
	for _, spec := range schema.Specs() {
		switch spec.Kind {
		case Boolean:
			st.SetBool(spec.ID, r.IntN(2) == 1)
		case Enum:
			st.SetOption(spec.ID, spec.Options[r.IntN(len(spec.Options))])
		default:
			st.Set(spec.ID, spec.Min+r.Float64()*(spec.Max-spec.Min))
		}
	}
	return st.Snapshot()
}

// #endregion random
