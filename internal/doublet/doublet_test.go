package doublet

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoublet_Predicates(t *testing.T) {
	assert.True(t, Null.IsNull())
	assert.True(t, Null.IsPoint(), "null doublet is trivially self-referential")
	assert.True(t, Point(7).IsPoint())
	assert.False(t, New(1, 1, 2).IsPoint())
	assert.False(t, New(1, 1, 2).IsNull())
}

func TestDoublet_Matches(t *testing.T) {
	d := New(3, 1, 2)

	tests := []struct {
		name    string
		pattern Doublet
		want    bool
	}{
		{"exact", New(3, 1, 2), true},
		{"any index", New(Any, 1, 2), true},
		{"any everything", New(Any, Any, Any), true},
		{"wrong source", New(Any, 2, Any), false},
		{"wrong index", New(4, Any, Any), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, d.Matches(tt.pattern))
		})
	}
}

func TestCompare(t *testing.T) {
	assert.Equal(t, 0, Compare(New(1, 2, 3), New(1, 2, 3)))
	assert.Equal(t, -1, Compare(New(1, 9, 9), New(2, 0, 0)))
	assert.Equal(t, 1, Compare(New(1, 3, 0), New(1, 2, 9)))
	assert.Equal(t, -1, Compare(New(1, 2, 3), New(1, 2, 4)))
}

func TestDoublet_String(t *testing.T) {
	assert.Equal(t, "(1 1 2)", New(1, 1, 2).String())
}

func TestTransition_Kind(t *testing.T) {
	a := New(1, 1, 2)
	b := New(1, 2, 1)

	assert.Equal(t, "create", Created(a).Kind())
	assert.Equal(t, "delete", Deleted(a).Kind())
	assert.Equal(t, "update", Changed(a, b).Kind())
	assert.Equal(t, "noop", Changed(a, a).Kind())
	assert.Equal(t, "empty", Transition{}.Kind())
}

func TestTransition_CopiesValues(t *testing.T) {
	d := New(1, 1, 2)
	tr := Created(d)
	d.Source = 9

	require.NotNil(t, tr.After)
	assert.Equal(t, uint32(1), tr.After.Source)
}

func TestErrors_Predicates(t *testing.T) {
	wrapped := fmt.Errorf("apply query: %w", NotFound(5))

	assert.True(t, IsNotFound(wrapped))
	assert.False(t, IsInvalidFormat(wrapped))
	assert.Equal(t, CodeNotFound, CodeOf(wrapped))
	assert.Equal(t, ErrorCode(""), CodeOf(errors.New("plain")))

	var de *Error
	require.True(t, errors.As(wrapped, &de))
	assert.Equal(t, uint32(5), de.Index)
	assert.Equal(t, "NOT_FOUND: doublet 5 not found", de.Error())
}

func TestErrors_Unwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := StorageFailure("save store", cause)

	assert.True(t, IsStorageError(err))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "STORAGE_ERROR: save store: disk full", err.Error())

	assert.True(t, IsParseError(ParseFailure(cause)))
	assert.True(t, IsInvalidFormat(InvalidFormat("bad %s", "shape")))
	assert.Equal(t, "INVALID_FORMAT: bad shape", InvalidFormat("bad %s", "shape").Error())
}
