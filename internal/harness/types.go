package harness

// Trace phases.
const (
	PhaseSetup = "setup"
	PhaseStep  = "step"
)

// TraceEvent records one executed query.
type TraceEvent struct {
	Phase   string   `json:"phase"`
	Seq     int      `json:"seq"`
	QueryID string   `json:"query_id"`
	Query   string   `json:"query"`
	Changes []string `json:"changes"`
	Error   string   `json:"error,omitempty"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every expectation and assertion held.
	Pass bool `json:"pass"`

	// Trace holds setup and step queries in execution order.
	Trace []TraceEvent `json:"trace"`

	// Errors holds one message per failed expectation or assertion.
	Errors []string `json:"errors,omitempty"`

	// Links is the final store in display format, sorted by index.
	Links []string `json:"links"`
}

// NewResult creates a passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
		Links:  []string{},
	}
}

// AddError records a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// addTrace appends an event, numbering it from 1.
func (r *Result) addTrace(event TraceEvent) {
	event.Seq = len(r.Trace) + 1
	if event.Changes == nil {
		event.Changes = []string{}
	}
	r.Trace = append(r.Trace, event)
}
