package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/link-foundation/link-cli/internal/doublet"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := NewOutputFormatter("json", "never", buf)

	require.NoError(t, formatter.Success(map[string]string{"result": "success"}))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.NotNil(t, resp.Data)
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := NewOutputFormatter("json", "never", buf)

	require.NoError(t, formatter.Error("PARSE_ERROR", "unbalanced parentheses", map[string]int{"offset": 3}))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "PARSE_ERROR", resp.Error.Code)
	assert.Equal(t, "unbalanced parentheses", resp.Error.Message)
	assert.NotNil(t, resp.Error.Details)
}

func TestOutputFormatter_TextError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := NewOutputFormatter("text", "never", buf)

	require.NoError(t, formatter.Error("NOT_FOUND", "no doublet at 7", nil))
	assert.Equal(t, "Error [NOT_FOUND]: no doublet at 7\n", buf.String())
}

func TestOutputFormatter_Color(t *testing.T) {
	plain := &bytes.Buffer{}
	NewOutputFormatter("text", "never", plain).Change("create", "() ((1: 1 2))")
	assert.Equal(t, "() ((1: 1 2))\n", plain.String())

	auto := &bytes.Buffer{}
	NewOutputFormatter("text", "auto", auto).Change("create", "() ((1: 1 2))")
	assert.Equal(t, "() ((1: 1 2))\n", auto.String(), "buffers are not terminals")

	colored := &bytes.Buffer{}
	NewOutputFormatter("text", "always", colored).Change("delete", "((1: 1 2)) ()")
	assert.Contains(t, colored.String(), "\x1b[")
	assert.Contains(t, colored.String(), "((1: 1 2)) ()")
}

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"exit error", NewExitError(ExitCommandError, "bad"), ExitCommandError},
		{"wrapped exit error", fmt.Errorf("outer: %w", NewExitError(ExitFailure, "inner")), ExitFailure},
		{"storage error", doublet.StorageFailure("save", errors.New("disk full")), ExitCommandError},
		{"parse error", doublet.ParseFailure(errors.New("bad")), ExitFailure},
		{"plain error", errors.New("plain"), ExitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetExitCode(tt.err))
		})
	}
}

func TestExitError_Unwrap(t *testing.T) {
	inner := errors.New("inner")
	err := WrapExitError(ExitCommandError, "outer", inner)
	assert.ErrorIs(t, err, inner)
	assert.Equal(t, "outer: inner", err.Error())
}
