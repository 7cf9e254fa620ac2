package lino

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNode_Classification(t *testing.T) {
	tests := []struct {
		node     Node
		numeric  bool
		variable bool
		wildcard bool
		name     bool
	}{
		{Leaf("42"), true, false, false, false},
		{Leaf("$x"), false, true, false, false},
		{Leaf("*"), false, false, true, false},
		{Leaf("mama"), false, false, false, true},
		{Leaf("4a"), false, false, false, true},
		{Node{ID: "*", Quoted: true}, false, false, false, true},
		{Node{ID: "$x", Quoted: true}, false, false, false, true},
		{Node{}, false, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.node.String(), func(t *testing.T) {
			assert.Equal(t, tt.numeric, tt.node.IsNumeric(), "IsNumeric")
			assert.Equal(t, tt.variable, tt.node.IsVariable(), "IsVariable")
			assert.Equal(t, tt.wildcard, tt.node.IsWildcard(), "IsWildcard")
			assert.Equal(t, tt.name, tt.node.IsName(), "IsName")
		})
	}
}

func TestNode_String_RoundTrip(t *testing.T) {
	inputs := []string{
		"(() ((1 2)))",
		"(((1: 1 2)) ((1: 2 1)))",
		"((($i: $s $t)) (($i: $t $s)))",
		`(("my name": a "b c"))`,
		`("12" *)`,
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			nodes, err := Parse(input)
			require.NoError(t, err)
			require.Len(t, nodes, 1)
			assert.Equal(t, input, nodes[0].String())

			again, err := Parse(nodes[0].String())
			require.NoError(t, err)
			assert.Equal(t, nodes, again)
		})
	}
}

func TestQuote(t *testing.T) {
	assert.Equal(t, `"a b"`, Quote("a b"))
	assert.Equal(t, `"a\"b\\c"`, Quote(`a"b\c`))
	assert.True(t, NeedsQuoting(""))
	assert.True(t, NeedsQuoting("x:"))
	assert.True(t, NeedsQuoting("a(b"))
	assert.False(t, NeedsQuoting("plain"))
}
