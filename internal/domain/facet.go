package domain

import "encoding/json"

// MultipleItemsSentinel is the placeholder option the portal declares when a
// parameter has too many values to enumerate. It is never absorbed into a
// value list.
const MultipleItemsSentinel = "multiple items"

// Facet is a tagged variant holding either exactly one declared value or an
// ordered list of unique values. The zero Facet is empty.
type Facet struct {
	single string
	values []string
	multi  bool
}

// Single builds a facet with exactly one declared value.
func Single(v string) Facet {
	return Facet{single: v}
}

// Multiple builds a facet with an ordered list of values, dropping
// duplicates while preserving first-seen order.
func Multiple(vs []string) Facet {
	seen := make(map[string]struct{}, len(vs))
	unique := make([]string, 0, len(vs))
	for _, v := range vs {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		unique = append(unique, v)
	}
	return Facet{values: unique, multi: true}
}

// IsZero reports whether the facet carries no values at all.
func (f Facet) IsZero() bool {
	return !f.multi && f.single == ""
}

// IsMultiple reports whether the facet holds a value list.
func (f Facet) IsMultiple() bool {
	return f.multi
}

// Values returns the facet's values as a list. A single value yields a
// one-element list; an empty facet yields nil.
func (f Facet) Values() []string {
	if f.multi {
		return f.values
	}
	if f.single == "" {
		return nil
	}
	return []string{f.single}
}

// First returns the facet's first value, or "" when empty.
func (f Facet) First() string {
	if f.multi {
		if len(f.values) == 0 {
			return ""
		}
		return f.values[0]
	}
	return f.single
}

func (f Facet) contains(v string) bool {
	for _, existing := range f.values {
		if existing == v {
			return true
		}
	}
	return false
}

// Merge reconciles two representations of the same facet arriving from
// different descriptor documents. A value list absorbs a single value unless
// that value is already present or equals the "multiple items" sentinel; an
// empty list loses to a single value; two equal singles collapse.
func Merge(a, b Facet) Facet {
	switch {
	case a.IsZero():
		return b
	case b.IsZero():
		return a
	case a.multi && b.multi:
		return Multiple(append(append([]string{}, a.values...), b.values...))
	case !a.multi && !b.multi:
		if a.single == b.single {
			return a
		}
		return Multiple([]string{a.single, b.single})
	}

	list, single := a, b
	if !a.multi {
		list, single = b, a
	}
	if len(list.values) == 0 {
		return single
	}
	if len(list.values) == 1 && list.values[0] == single.single {
		return single
	}
	if list.contains(single.single) || single.single == MultipleItemsSentinel {
		return list
	}
	return Multiple(append(append([]string{}, list.values...), single.single))
}

// MarshalJSON renders a single value as a JSON string and a value list as a
// JSON array.
func (f Facet) MarshalJSON() ([]byte, error) {
	if f.multi {
		return json.Marshal(f.values)
	}
	return json.Marshal(f.single)
}

// FacetSet maps a canonical facet name (time_frequency, sensor_id, ...) to
// its value variant.
type FacetSet map[string]Facet

// Set stores a facet, merging with any facet already present under name.
func (s FacetSet) Set(name string, f Facet) {
	if f.IsZero() {
		return
	}
	if existing, ok := s[name]; ok {
		s[name] = Merge(existing, f)
		return
	}
	s[name] = f
}

// SetIfAbsent stores a facet only when name is not yet present.
func (s FacetSet) SetIfAbsent(name string, f Facet) {
	if f.IsZero() {
		return
	}
	if _, ok := s[name]; !ok {
		s[name] = f
	}
}

// Values returns the value list for name, nil when absent or empty.
func (s FacetSet) Values(name string) []string {
	return s[name].Values()
}

// First returns the first value for name, "" when absent.
func (s FacetSet) First(name string) string {
	return s[name].First()
}
