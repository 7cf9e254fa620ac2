package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func count(n int) *int { return &n }

func TestRun_Passing(t *testing.T) {
	scenario := &Scenario{
		Name:        "passing",
		Description: "create then delete",
		QueryIDs:    []string{"s1", "q1"},
		Setup:       []string{"(() ((1 2)))"},
		Steps: []Step{
			{Query: "(((1: 1 2)) ())", Expect: &Expect{Changes: []string{"((1: 1 2)) ()"}}},
			{Query: "(() ((2 2)))"},
		},
		Assertions: []Assertion{
			{Type: AssertLinksEqual, Links: []string{"(2: 2 2)"}},
			{Type: AssertCount, Count: count(1)},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Empty(t, result.Errors)
	require.Len(t, result.Trace, 3)
	assert.Equal(t, PhaseSetup, result.Trace[0].Phase)
	assert.Equal(t, "s1", result.Trace[0].QueryID)
	assert.Equal(t, "q1", result.Trace[1].QueryID)
	assert.Equal(t, "query-3", result.Trace[2].QueryID)
	assert.Equal(t, []string{"(2: 2 2)"}, result.Links)
}

func TestRun_ExpectationMismatch(t *testing.T) {
	scenario := &Scenario{
		Name:        "mismatch",
		Description: "wrong expectations",
		Steps: []Step{
			{Query: "(() ((1 2)))", Expect: &Expect{Changes: []string{"() ((1: 2 1))"}}},
			{Query: "(() ((1 2)))", Expect: &Expect{Error: "PARSE_ERROR"}},
			{Query: "(()", Expect: &Expect{Error: "INVALID_FORMAT"}},
			{Query: "(()"},
			{Query: "(() ())", Expect: &Expect{}},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 4)
	assert.Contains(t, result.Errors[0], "expected changes")
	assert.Contains(t, result.Errors[1], "expected error PARSE_ERROR, got changes")
	assert.Contains(t, result.Errors[2], "expected error INVALID_FORMAT, got PARSE_ERROR")
	assert.Contains(t, result.Errors[3], "unexpected error")
}

func TestRun_SetupFailure(t *testing.T) {
	scenario := &Scenario{
		Name:        "broken setup",
		Description: "setup must succeed",
		Setup:       []string{"(() ((1 2 3)))"},
		Steps:       []Step{{Query: "(() ())"}},
	}

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "setup[0]")
}

func TestRun_IsolatedStores(t *testing.T) {
	scenario := &Scenario{
		Name:        "isolated",
		Description: "each run starts empty",
		Steps:       []Step{{Query: "(() ((1 2)))", Expect: &Expect{Changes: []string{"() ((1: 1 2))"}}}},
	}

	for i := 0; i < 2; i++ {
		result, err := Run(scenario)
		require.NoError(t, err)
		assert.True(t, result.Pass, "run %d: %v", i, result.Errors)
	}
}
