package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	for name, want := range map[string]Type{
		"int": Int, "ptr": Ptr, "str": Str, "char": Char,
		"float": Float, "void": Void, "any": Any,
	} {
		got, ok := Parse(name)
		require.True(t, ok)
		require.Equal(t, want, got)
	}

	_, ok := Parse("byte")
	require.False(t, ok)
}

func TestParseSet(t *testing.T) {
	set, err := ParseSet("int|ptr")
	require.NoError(t, err)
	require.Equal(t, Set{Int, Ptr}, set)

	_, err = ParseSet("int|nope")
	require.Error(t, err)
	require.Contains(t, err.Error(), "nope")
}

func TestSetContains(t *testing.T) {
	set := Set{Int, Ptr}
	require.True(t, set.Contains(Int))
	require.True(t, set.Contains(Ptr))
	require.False(t, set.Contains(Str))
	require.True(t, set.Contains(Any))

	any := Set{Any}
	require.True(t, any.Contains(Str))
}

func TestSetCollapse(t *testing.T) {
	require.Equal(t, Int, Set{Int}.Collapse())
	require.Equal(t, Any, Set{Int, Ptr}.Collapse())
}

func TestAnnotationIsVoid(t *testing.T) {
	a := &Annotation{Returns: []Set{{Void}}}
	require.True(t, a.IsVoid())

	a = &Annotation{Returns: []Set{{Int}}}
	require.False(t, a.IsVoid())
}
