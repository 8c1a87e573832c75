package model

// Per-batch generation lifecycle. FAILED is reachable from every
// non-terminal state; BatchResult.FailedStep records where.
const (
	BatchStatePending        = "Pending"
	BatchStateResolvingSlot  = "ResolvingSlot"
	BatchStateResolvingTheme = "ResolvingTheme"
	BatchStateGenerating     = "Generating"
	BatchStatePersisting     = "Persisting"
	BatchStateDone           = "Done"
	BatchStateFailed         = "Failed"
)

// BatchSpec is one admin-submitted generation request. StartDate and Theme
// are optional; empty values delegate to the slot scheduler and the
// external theme picker respectively.
type BatchSpec struct {
	StartDate string `json:"start_date,omitempty"`
	Count     int    `json:"count"`
	Theme     string `json:"theme,omitempty"`
}

// BatchResult reports one batch of a plan. Successful batches carry the
// resolved theme and date range; failed ones carry the error and the step
// that failed. A plan never fails as a whole: results for earlier batches
// survive a later batch's failure.
type BatchResult struct {
	Batch           int    `json:"batch"` // 1-based index within the plan
	Theme           string `json:"theme,omitempty"`
	StartDate       string `json:"start_date,omitempty"`
	EndDate         string `json:"end_date,omitempty"`
	ProblemsCreated int    `json:"problems_created"`
	Error           string `json:"error,omitempty"`
	FailedStep      string `json:"failed_step,omitempty"`
}

// PlanResult is the structured summary returned to the admin caller.
type PlanResult struct {
	Results      []BatchResult `json:"results"`
	TotalCreated int           `json:"total_created"`
}

// GenerationJob is an asynchronously executed plan, tracked in Redis.
const (
	JobStatusQueued    = "Queued"
	JobStatusRunning   = "Running"
	JobStatusCompleted = "Completed"
	JobStatusFailed    = "Failed"
)

type GenerationJob struct {
	ID      string      `json:"id"`
	Status  string      `json:"status"`
	Batches []BatchSpec `json:"batches"`
	Result  *PlanResult `json:"result,omitempty"`
	Error   string      `json:"error,omitempty"`
}
