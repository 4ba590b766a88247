package graphbolt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRecord_RejectsMismatchedLengths(t *testing.T) {
	_, err := NewRecord([]string{"a", "b"}, []any{1})
	require.Error(t, err)
	var usageErr *UsageError
	assert.ErrorAs(t, err, &usageErr)
}

func TestRecord_GetByNameAndIndex(t *testing.T) {
	r, err := NewRecord([]string{"name", "age"}, []any{"alice", 30})
	require.NoError(t, err)

	v, err := r.Get("name")
	require.NoError(t, err)
	assert.Equal(t, "alice", v)

	v, err = r.Get(1)
	require.NoError(t, err)
	assert.Equal(t, 30, v)
}

func TestRecord_GetUnknownKeyIsKeyError(t *testing.T) {
	r, err := NewRecord([]string{"name"}, []any{"alice"})
	require.NoError(t, err)

	_, err = r.Get("missing")
	var keyErr *KeyError
	assert.ErrorAs(t, err, &keyErr)
}

func TestRecord_GetUnsupportedKeyTypeIsTypeError(t *testing.T) {
	r, err := NewRecord([]string{"name"}, []any{"alice"})
	require.NoError(t, err)

	_, err = r.Get(3.14)
	var typeErr *TypeError
	assert.ErrorAs(t, err, &typeErr)
}

func TestRecord_KeysAndValuesAreDefensiveCopies(t *testing.T) {
	r, err := NewRecord([]string{"a"}, []any{1})
	require.NoError(t, err)

	keys := r.Keys()
	keys[0] = "mutated"
	assert.Equal(t, []string{"a"}, r.Keys())

	values := r.Values()
	values[0] = 99
	assert.Equal(t, []any{1}, r.Values())
}

func TestRecord_Items(t *testing.T) {
	r, err := NewRecord([]string{"a", "b"}, []any{1, 2})
	require.NoError(t, err)
	assert.Equal(t, []Item{{Key: "a", Value: 1}, {Key: "b", Value: 2}}, r.Items())
}

func TestRecord_Equal(t *testing.T) {
	r1, _ := NewRecord([]string{"a"}, []any{1})
	r2, _ := NewRecord([]string{"a"}, []any{1})
	r3, _ := NewRecord([]string{"a"}, []any{2})

	assert.True(t, r1.Equal(r2))
	assert.False(t, r1.Equal(r3))
	assert.False(t, r1.Equal(nil))
}

func TestRecord_HashKeyMatchesForEqualRecords(t *testing.T) {
	r1, _ := NewRecord([]string{"a"}, []any{1})
	r2, _ := NewRecord([]string{"a"}, []any{1})
	r3, _ := NewRecord([]string{"a"}, []any{2})

	assert.Equal(t, r1.HashKey(), r2.HashKey())
	assert.NotEqual(t, r1.HashKey(), r3.HashKey())
}

func TestRecord_Copy(t *testing.T) {
	r, _ := NewRecord([]string{"a"}, []any{1})
	cp := r.Copy()
	assert.True(t, r.Equal(cp))
	assert.NotSame(t, r, cp)
}

func TestRecord_Contains(t *testing.T) {
	r, _ := NewRecord([]string{"a"}, []any{1})
	assert.True(t, r.Contains("a"))
	assert.False(t, r.Contains("b"))
}
