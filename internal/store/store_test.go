package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/link-foundation/link-cli/internal/doublet"
)

func TestCreate_AssignsSequentialIndices(t *testing.T) {
	s := OpenMemory()

	assert.Equal(t, uint32(1), s.Create(1, 2))
	assert.Equal(t, uint32(2), s.Create(2, 1))

	got, ok := s.Get(1)
	require.True(t, ok)
	assert.Equal(t, d(1, 1, 2), got)
	assert.Equal(t, 2, s.Count())
	assert.True(t, s.Dirty())
}

func TestDelete_IndicesNeverReused(t *testing.T) {
	s := OpenMemory()
	s.Create(1, 1)
	s.Create(2, 2)

	_, err := s.Delete(2)
	require.NoError(t, err)

	assert.Equal(t, uint32(3), s.Create(3, 3))
}

func TestUpdate(t *testing.T) {
	s := OpenMemory()
	s.Create(1, 2)

	before, err := s.Update(1, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, d(1, 1, 2), before)

	got, _ := s.Get(1)
	assert.Equal(t, d(1, 2, 1), got)

	_, found := s.Search(1, 2)
	assert.False(t, found, "old pair must be unindexed")
	index, found := s.Search(2, 1)
	assert.True(t, found)
	assert.Equal(t, uint32(1), index)
}

func TestUpdateDelete_NotFound(t *testing.T) {
	s := OpenMemory()

	_, err := s.Update(9, 1, 1)
	assert.True(t, doublet.IsNotFound(err))

	_, err = s.Delete(9)
	assert.True(t, doublet.IsNotFound(err))
}

func TestSearch_LowestIndexWins(t *testing.T) {
	s := OpenMemory()
	s.Create(5, 5)
	s.Create(7, 7)
	s.Create(5, 5)

	index, ok := s.Search(5, 5)
	require.True(t, ok)
	assert.Equal(t, uint32(1), index)

	_, err := s.Delete(1)
	require.NoError(t, err)
	index, ok = s.Search(5, 5)
	require.True(t, ok)
	assert.Equal(t, uint32(3), index)
}

func TestGetOrCreate_Deduplicates(t *testing.T) {
	s := OpenMemory()

	first := s.GetOrCreate(1, 2)
	second := s.GetOrCreate(1, 2)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, s.Count())
}

func TestEnsureCreated(t *testing.T) {
	s := OpenMemory()

	created, err := s.EnsureCreated(5)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, uint32(6), s.NextID())
	assert.Equal(t, 1, s.Count(), "only the requested index is created")

	created, err = s.EnsureCreated(5)
	require.NoError(t, err)
	assert.False(t, created)

	_, err = s.EnsureCreated(0)
	assert.True(t, doublet.IsInvalidFormat(err))
	_, err = s.EnsureCreated(doublet.Any)
	assert.True(t, doublet.IsInvalidFormat(err))
}

func TestQuery_Wildcards(t *testing.T) {
	s := OpenMemory()
	s.Create(1, 2) // 1
	s.Create(1, 3) // 2
	s.Create(2, 3) // 3

	tests := []struct {
		name    string
		pattern doublet.Doublet
		want    []doublet.Doublet
	}{
		{"by index", d(2, doublet.Any, doublet.Any), []doublet.Doublet{d(2, 1, 3)}},
		{"missing index", d(9, doublet.Any, doublet.Any), nil},
		{"by source", d(doublet.Any, 1, doublet.Any), []doublet.Doublet{d(1, 1, 2), d(2, 1, 3)}},
		{"by target", d(doublet.Any, doublet.Any, 3), []doublet.Doublet{d(2, 1, 3), d(3, 2, 3)}},
		{"exact pair", d(doublet.Any, 2, 3), []doublet.Doublet{d(3, 2, 3)}},
		{"index mismatch", d(1, 2, doublet.Any), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Query(tt.pattern)
			if len(tt.want) == 0 {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNames_Bijection(t *testing.T) {
	s := OpenMemory()

	mama := s.GetOrCreateNamed("mama")
	papa := s.GetOrCreateNamed("papa")
	assert.NotEqual(t, mama, papa)
	assert.Equal(t, mama, s.GetOrCreateNamed("mama"))

	got, _ := s.Get(mama)
	assert.True(t, got.IsPoint())

	// Moving a name takes it away from its previous holder.
	require.NoError(t, s.SetName(papa, "mama"))
	index, ok := s.Lookup("mama")
	require.True(t, ok)
	assert.Equal(t, papa, index)
	_, ok = s.Name(mama)
	assert.False(t, ok)
	_, ok = s.Lookup("papa")
	assert.False(t, ok)

	assert.Equal(t, []string{"mama"}, s.Names())
}

func TestNames_NFC(t *testing.T) {
	s := OpenMemory()

	composed := s.GetOrCreateNamed("caf\u00e9")
	decomposed := s.GetOrCreateNamed("cafe\u0301")

	assert.Equal(t, composed, decomposed)
}

func TestNames_DeleteDropsName(t *testing.T) {
	s := OpenMemory()
	index := s.GetOrCreateNamed("x")

	_, err := s.Delete(index)
	require.NoError(t, err)

	_, ok := s.Lookup("x")
	assert.False(t, ok)
}

func TestSetName_Errors(t *testing.T) {
	s := OpenMemory()

	assert.True(t, doublet.IsNotFound(s.SetName(3, "x")))
	s.Create(1, 1)
	assert.True(t, doublet.IsInvalidFormat(s.SetName(1, "")))
	assert.False(t, s.RemoveName(1))
}

func TestRollback_RestoresEverything(t *testing.T) {
	s := OpenMemory()
	s.Create(1, 2)
	named := s.GetOrCreateNamed("keep")
	require.NoError(t, s.Save(context.Background()))
	before := s.Snapshot()
	nextID := s.NextID()

	tx := s.Begin()
	_, err := s.Update(1, 9, 9)
	require.NoError(t, err)
	_, err = s.Delete(named)
	require.NoError(t, err)
	s.Create(4, 4)
	s.GetOrCreateNamed("fresh")
	_, err = s.EnsureCreated(40)
	require.NoError(t, err)
	tx.Rollback()

	assert.Equal(t, before, s.Snapshot())
	assert.Equal(t, nextID, s.NextID())
	assert.False(t, s.Dirty())
	index, ok := s.Search(1, 2)
	require.True(t, ok)
	assert.Equal(t, uint32(1), index)
	_, ok = s.Lookup("fresh")
	assert.False(t, ok)
}

func TestRollback_RestoresMovedName(t *testing.T) {
	s := OpenMemory()
	a := s.GetOrCreateNamed("a")
	b := s.Create(5, 5)

	tx := s.Begin()
	require.NoError(t, s.SetName(b, "a"))
	tx.Rollback()

	index, ok := s.Lookup("a")
	require.True(t, ok)
	assert.Equal(t, a, index)
	_, ok = s.Name(b)
	assert.False(t, ok)
}

func TestCommit_KeepsChanges(t *testing.T) {
	s := OpenMemory()

	tx := s.Begin()
	s.Create(1, 2)
	tx.Commit()
	tx.Rollback() // no-op after commit

	assert.Equal(t, 1, s.Count())
}

func TestBegin_Nested(t *testing.T) {
	s := OpenMemory()

	outer := s.Begin()
	inner := s.Begin()
	s.Create(1, 2)
	inner.Commit()
	outer.Rollback()

	assert.Equal(t, 0, s.Count())
}
