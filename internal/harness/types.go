package harness

// TraceEvent records the observable outcome of one step.
//
// Pointer and slice fields are nil when the operation does not produce
// them, so that the golden encoding only carries what the step returned.
type TraceEvent struct {
	Step  int    `json:"step"` // 1-indexed
	Op    string `json:"op"`
	Page  string `json:"page,omitempty"`
	Error string `json:"error,omitempty"` // error code

	Accepted *int `json:"accepted,omitempty"`

	Token   *int     `json:"token,omitempty"`
	Commits []string `json:"commits,omitempty"`

	Base    string   `json:"base,omitempty"`
	Changes []string `json:"changes,omitempty"` // sorted "insert k=v"

	Found *bool  `json:"found,omitempty"`
	Data  string `json:"data,omitempty"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every step matched its expectations and the journal
	// replayed to the same state.
	Pass bool `json:"pass"`

	// Trace contains one event per step, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
