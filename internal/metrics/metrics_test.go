package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/link-foundation/link-cli/internal/doublet"
)

func TestRecorder_ObserveQuery(t *testing.T) {
	r := NewRecorder()

	r.ObserveQuery(time.Millisecond, []doublet.Transition{
		doublet.Created(doublet.New(1, 1, 2)),
		doublet.Created(doublet.New(2, 2, 1)),
		doublet.Changed(doublet.New(1, 1, 2), doublet.New(1, 2, 1)),
	}, nil)
	r.ObserveQuery(time.Millisecond, nil, errors.New("boom"))

	assert.Equal(t, 1.0, testutil.ToFloat64(r.queries.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.queries.WithLabelValues("error")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.transitions.WithLabelValues("create")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.transitions.WithLabelValues("update")))
	assert.Equal(t, 0.0, testutil.ToFloat64(r.transitions.WithLabelValues("delete")))
}

func TestRecorder_SetDoublets(t *testing.T) {
	r := NewRecorder()
	r.SetDoublets(42)
	assert.Equal(t, 42.0, testutil.ToFloat64(r.doublets))
}

func TestRecorder_WriteTextfile(t *testing.T) {
	r := NewRecorder()
	r.ObserveQuery(time.Millisecond, []doublet.Transition{doublet.Deleted(doublet.New(3, 1, 1))}, nil)
	r.SetDoublets(7)

	path := filepath.Join(t.TempDir(), "clink.prom")
	require.NoError(t, r.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, `clink_query_total{status="ok"} 1`)
	assert.Contains(t, text, `clink_query_transitions_total{kind="delete"} 1`)
	assert.Contains(t, text, "clink_store_doublets 7")
	assert.Contains(t, text, "clink_query_duration_seconds_count 1")
}

func TestRecorder_WriteTextfileBadPath(t *testing.T) {
	r := NewRecorder()
	err := r.WriteTextfile(filepath.Join(t.TempDir(), "missing", "dir", "clink.prom"))
	assert.Error(t, err)
}
