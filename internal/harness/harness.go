package harness

import (
	"context"
	"fmt"
	"slices"

	"github.com/link-foundation/link-cli/internal/doublet"
	"github.com/link-foundation/link-cli/internal/engine"
	"github.com/link-foundation/link-cli/internal/store"
	"github.com/link-foundation/link-cli/internal/testutil"
)

// Harness executes one scenario.
type Harness struct {
	store  *store.Store
	engine *engine.Engine
}

// Run executes scenario against a fresh in-memory store.
//
// Setup failures abort the run with an error. Step and assertion failures
// are reported in Result.Errors.
func Run(scenario *Scenario) (*Result, error) {
	logger := testutil.DiscardLogger()
	h := &Harness{
		store: store.OpenMemory(store.WithLogger(logger)),
		engine: engine.New(
			engine.WithLogger(logger),
			engine.WithIDGenerator(engine.NewSequenceGenerator("query", scenario.QueryIDs...)),
		),
	}
	defer h.store.Close()

	ctx := context.Background()
	result := NewResult()

	for i, query := range scenario.Setup {
		event, err := h.execute(ctx, PhaseSetup, query)
		result.addTrace(event)
		if err != nil {
			return nil, fmt.Errorf("setup[%d] %q: %w", i, query, err)
		}
	}

	for i, step := range scenario.Steps {
		event, err := h.execute(ctx, PhaseStep, step.Query)
		result.addTrace(event)
		checkStep(result, i, step, event, err)
	}

	for _, msg := range EvaluateAssertions(h.store, scenario.Assertions) {
		result.AddError(msg)
	}

	for _, d := range h.store.All() {
		result.Links = append(result.Links, h.store.FormatDoublet(d))
	}
	return result, nil
}

func (h *Harness) execute(ctx context.Context, phase, query string) (TraceEvent, error) {
	event := TraceEvent{Phase: phase, Query: query}

	res, err := h.engine.Run(ctx, h.store, query)
	if err != nil {
		event.Error = string(doublet.CodeOf(err))
		return event, err
	}
	event.QueryID = res.QueryID
	event.Changes = h.formatChanges(res.Transitions)
	return event, nil
}

func (h *Harness) formatChanges(ts []doublet.Transition) []string {
	out := make([]string, 0, len(ts))
	for _, t := range ts {
		out = append(out, h.store.FormatChange(t))
	}
	return out
}

func checkStep(result *Result, index int, step Step, event TraceEvent, err error) {
	expect := step.Expect
	switch {
	case expect == nil:
		if err != nil {
			result.AddError(fmt.Sprintf("steps[%d] %q: unexpected error: %v", index, step.Query, err))
		}
	case expect.Error != "":
		if err == nil {
			result.AddError(fmt.Sprintf("steps[%d] %q: expected error %s, got changes %v",
				index, step.Query, expect.Error, event.Changes))
		} else if event.Error != expect.Error {
			result.AddError(fmt.Sprintf("steps[%d] %q: expected error %s, got %s",
				index, step.Query, expect.Error, event.Error))
		}
	case err != nil:
		result.AddError(fmt.Sprintf("steps[%d] %q: unexpected error: %v", index, step.Query, err))
	default:
		want := expect.Changes
		if want == nil {
			want = []string{}
		}
		if !slices.Equal(want, event.Changes) {
			result.AddError(fmt.Sprintf("steps[%d] %q: expected changes %v, got %v",
				index, step.Query, want, event.Changes))
		}
	}
}
