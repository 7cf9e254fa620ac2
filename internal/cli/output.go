package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"

	"github.com/link-foundation/link-cli/internal/doublet"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Query failure or failed scenarios
	ExitCommandError = 2 // Command error (bad config, unreadable store, etc.)
)

// ExitError represents an error with a specific exit code.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error. Storage errors map to
// ExitCommandError, everything else without an ExitError to ExitFailure.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	if doublet.IsStorageError(err) {
		return ExitCommandError
	}
	return ExitFailure
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status  string    `json:"status"`             // "ok" or "error"
	Data    any       `json:"data,omitempty"`     // success payload
	Error   *CLIError `json:"error,omitempty"`    // error details
	QueryID string    `json:"query_id,omitempty"` // id of the applied query
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // doublet error code or E_* command code
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format string
	Writer io.Writer
	Color  bool

	renderer *lipgloss.Renderer
}

// NewOutputFormatter creates a formatter writing to w. colorMode is one of
// auto, always or never; auto colors only terminals.
func NewOutputFormatter(format, colorMode string, w io.Writer) *OutputFormatter {
	f := &OutputFormatter{
		Format: format,
		Writer: w,
		Color:  colorEnabled(colorMode, w),
	}
	if f.Color {
		f.renderer = lipgloss.NewRenderer(w)
		f.renderer.SetColorProfile(termenv.ANSI256)
	}
	return f
}

func colorEnabled(mode string, w io.Writer) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// JSON reports whether output is JSON.
func (f *OutputFormatter) JSON() bool {
	return f.Format == "json"
}

// Success outputs a successful result. In text mode data is printed as is.
func (f *OutputFormatter) Success(data any) error {
	if f.JSON() {
		return f.writeJSON(CLIResponse{Status: "ok", Data: data})
	}
	_, err := fmt.Fprintln(f.Writer, data)
	return err
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.JSON() {
		return f.writeJSON(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}
	_, err := fmt.Fprintf(f.Writer, "%s [%s]: %s\n", f.style(colorError, "Error"), code, message)
	return err
}

func (f *OutputFormatter) writeJSON(v any) error {
	encoder := json.NewEncoder(f.Writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// Line prints one line of text output.
func (f *OutputFormatter) Line(s string) {
	fmt.Fprintln(f.Writer, s)
}

// Change prints a formatted transition, colored by its kind.
func (f *OutputFormatter) Change(kind, text string) {
	switch kind {
	case "create":
		text = f.style(colorCreate, text)
	case "delete":
		text = f.style(colorDelete, text)
	case "update":
		text = f.style(colorUpdate, text)
	case "noop":
		text = f.style(colorMuted, text)
	}
	fmt.Fprintln(f.Writer, text)
}

const (
	colorCreate = lipgloss.Color("42")
	colorDelete = lipgloss.Color("196")
	colorUpdate = lipgloss.Color("214")
	colorMuted  = lipgloss.Color("241")
	colorError  = lipgloss.Color("196")
)

func (f *OutputFormatter) style(c lipgloss.Color, s string) string {
	if !f.Color {
		return s
	}
	return f.renderer.NewStyle().Foreground(c).Render(s)
}
