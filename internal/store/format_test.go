package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/link-foundation/link-cli/internal/doublet"
)

func TestFormatDoublet(t *testing.T) {
	s := OpenMemory()
	mama := s.GetOrCreateNamed("mama")
	s.GetOrCreateNamed("my name")
	link := s.Create(mama, 7)

	got, _ := s.Get(link)
	assert.Equal(t, "(3: mama 7)", s.FormatDoublet(got))
	assert.Equal(t, `("my name": "my name" "my name")`, s.FormatDoublet(doublet.Point(2)))
	assert.Equal(t, "(*: * mama)", s.FormatDoublet(doublet.New(doublet.Any, doublet.Any, mama)))
}

func TestFormatReference_QuotesAmbiguousNames(t *testing.T) {
	s := OpenMemory()
	index := s.GetOrCreateNamed("42")

	assert.Equal(t, `"42"`, s.FormatReference(index))
}

func TestFormatChange(t *testing.T) {
	s := OpenMemory()
	a := doublet.New(1, 1, 2)
	b := doublet.New(1, 2, 1)

	assert.Equal(t, "() ((1: 1 2))", s.FormatChange(doublet.Created(a)))
	assert.Equal(t, "((1: 1 2)) ()", s.FormatChange(doublet.Deleted(a)))
	assert.Equal(t, "((1: 1 2)) ((1: 2 1))", s.FormatChange(doublet.Changed(a, b)))
}

func TestFormatStructure(t *testing.T) {
	s := OpenMemory()
	m := s.GetOrCreateNamed("m")
	a := s.GetOrCreateNamed("a")
	ma := s.GetOrCreate(m, a)
	outer := s.GetOrCreate(ma, ma)

	got, err := s.FormatStructure(outer)
	require.NoError(t, err)
	assert.Equal(t, "((m a) (m a))", got)

	got, err = s.FormatStructure(m)
	require.NoError(t, err)
	assert.Equal(t, "(m m)", got)
}

func TestFormatStructure_UnknownReference(t *testing.T) {
	s := OpenMemory()
	index := s.Create(1, 99)

	got, err := s.FormatStructure(index)
	require.NoError(t, err)
	assert.Equal(t, "(1 99)", got)
}

func TestFormatStructure_Cycle(t *testing.T) {
	s := OpenMemory()
	s.Create(0, 0) // 1
	s.Create(0, 0) // 2
	_, err := s.Update(1, 2, 2)
	require.NoError(t, err)
	_, err = s.Update(2, 1, 1)
	require.NoError(t, err)

	got, err := s.FormatStructure(1)
	require.NoError(t, err)
	assert.Equal(t, "((1 1) (1 1))", got)
}

func TestFormatStructure_NotFound(t *testing.T) {
	s := OpenMemory()

	_, err := s.FormatStructure(3)
	assert.True(t, doublet.IsNotFound(err))
}
