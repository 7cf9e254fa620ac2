package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScenario_Valid(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: sample
description: a sample
query_ids: [a, b]
setup:
  - "(() ((1 2)))"
steps:
  - query: "(((1: 1 2)) ())"
    expect:
      changes: ["((1: 1 2)) ()"]
  - query: "("
    expect:
      error: PARSE_ERROR
assertions:
  - type: count
    count: 0
`))
	require.NoError(t, err)

	assert.Equal(t, "sample", s.Name)
	assert.Equal(t, []string{"a", "b"}, s.QueryIDs)
	assert.Equal(t, []string{"(() ((1 2)))"}, s.Setup)
	require.Len(t, s.Steps, 2)
	assert.Equal(t, []string{"((1: 1 2)) ()"}, s.Steps[0].Expect.Changes)
	assert.Equal(t, "PARSE_ERROR", s.Steps[1].Expect.Error)
	require.Len(t, s.Assertions, 1)
	assert.Equal(t, 0, *s.Assertions[0].Count)
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "unknown field",
			yaml: "name: x\ndescription: y\nstep:\n  - query: \"()\"\n",
			want: "field step not found",
		},
		{
			name: "missing name",
			yaml: "description: y\nsteps:\n  - query: \"()\"\n",
			want: "name is required",
		},
		{
			name: "missing description",
			yaml: "name: x\nsteps:\n  - query: \"()\"\n",
			want: "description is required",
		},
		{
			name: "no steps",
			yaml: "name: x\ndescription: y\n",
			want: "steps list is required",
		},
		{
			name: "empty setup query",
			yaml: "name: x\ndescription: y\nsetup: [\"  \"]\nsteps:\n  - query: \"()\"\n",
			want: "setup[0]: query is empty",
		},
		{
			name: "unknown error code",
			yaml: "name: x\ndescription: y\nsteps:\n  - query: \"()\"\n    expect:\n      error: OOPS\n",
			want: "unknown error code",
		},
		{
			name: "changes with error",
			yaml: "name: x\ndescription: y\nsteps:\n  - query: \"()\"\n    expect:\n      error: PARSE_ERROR\n      changes: [\"() ()\"]\n",
			want: "mutually exclusive",
		},
		{
			name: "unknown assertion",
			yaml: "name: x\ndescription: y\nsteps:\n  - query: \"()\"\nassertions:\n  - type: vibes\n",
			want: "unknown assertion type",
		},
		{
			name: "count without value",
			yaml: "name: x\ndescription: y\nsteps:\n  - query: \"()\"\nassertions:\n  - type: count\n",
			want: "non-negative count is required",
		},
		{
			name: "link_exists without link",
			yaml: "name: x\ndescription: y\nsteps:\n  - query: \"()\"\nassertions:\n  - type: link_exists\n",
			want: "link is required",
		},
		{
			name: "name_is without name",
			yaml: "name: x\ndescription: y\nsteps:\n  - query: \"()\"\nassertions:\n  - type: name_is\n    index: 1\n",
			want: "name is required for name_is",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestFindScenarios(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.yaml", "a.yml", "notes.txt", "sub/c.yaml"} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	}

	files, err := FindScenarios(dir, "")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.yml"),
		filepath.Join(dir, "b.yaml"),
		filepath.Join(dir, "sub", "c.yaml"),
	}, files)

	filtered, err := FindScenarios(dir, "[ab]")
	require.NoError(t, err)
	assert.Len(t, filtered, 2)

	single, err := FindScenarios(filepath.Join(dir, "b.yaml"), "")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "b.yaml")}, single)

	_, err = FindScenarios(filepath.Join(dir, "nope"), "")
	assert.Error(t, err)

	_, err = FindScenarios(dir, "[")
	assert.Error(t, err)
}
