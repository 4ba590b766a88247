package graphbolt

import (
	"fmt"
	"reflect"
)

// Record is an immutable ordered tuple of values paired with their
// field names, per spec.md §3/§4.5. Two Records are equal iff their key
// tuples and value tuples are both equal.
type Record struct {
	keys   []string
	values []any
}

// NewRecord builds a Record from keys and values, which must have equal
// length.
func NewRecord(keys []string, values []any) (*Record, error) {
	if len(keys) != len(values) {
		return nil, &UsageError{Message: "record keys and values must have equal length"}
	}
	k := make([]string, len(keys))
	copy(k, keys)
	v := make([]any, len(values))
	copy(v, values)
	return &Record{keys: k, values: v}, nil
}

// Keys returns the record's field names in positional order.
func (r *Record) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// Values returns the record's values in positional order.
func (r *Record) Values() []any {
	out := make([]any, len(r.values))
	copy(out, r.values)
	return out
}

// Item is one key/value pair, as returned by Record.Items.
type Item struct {
	Key   string
	Value any
}

// Items returns the record's fields as key/value pairs in positional
// order.
func (r *Record) Items() []Item {
	items := make([]Item, len(r.keys))
	for i, k := range r.keys {
		items[i] = Item{Key: k, Value: r.values[i]}
	}
	return items
}

// Index returns the position of key, or a KeyError if key is not one of
// this record's fields.
func (r *Record) Index(key string) (int, error) {
	for i, k := range r.keys {
		if k == key {
			return i, nil
		}
	}
	return 0, &KeyError{Key: key}
}

// Get looks up a value by position (int) or by name (string). Any other
// key type is a TypeError.
func (r *Record) Get(key any) (any, error) {
	switch k := key.(type) {
	case string:
		i, err := r.Index(k)
		if err != nil {
			return nil, err
		}
		return r.values[i], nil
	case int:
		if k < 0 || k >= len(r.values) {
			return nil, &KeyError{Key: ""}
		}
		return r.values[k], nil
	default:
		return nil, &TypeError{Value: key}
	}
}

// Len returns the number of fields in the record.
func (r *Record) Len() int { return len(r.keys) }

// Contains reports whether key names one of this record's fields.
func (r *Record) Contains(key string) bool {
	_, err := r.Index(key)
	return err == nil
}

// Copy returns a shallow copy of the record.
func (r *Record) Copy() *Record {
	cp := &Record{
		keys:   make([]string, len(r.keys)),
		values: make([]any, len(r.values)),
	}
	copy(cp.keys, r.keys)
	copy(cp.values, r.values)
	return cp
}

// Equal reports structural equality: equal key tuples and equal value
// tuples, per spec.md §8.5.
func (r *Record) Equal(other *Record) bool {
	if other == nil {
		return false
	}
	return reflect.DeepEqual(r.keys, other.keys) && reflect.DeepEqual(r.values, other.values)
}

// HashKey returns a value suitable for use as a map key representing
// this record's structural identity (Go has no built-in hash for
// slices, so equal records produce equal HashKey strings instead of an
// integer hash).
func (r *Record) HashKey() string {
	return fmt.Sprintf("%#v|%#v", r.keys, r.values)
}
