package core

import "time"

// RunStatus is the overall outcome of a transformation run.
type RunStatus string

// Run status constants. A run succeeds only if every model executed and
// every test passed; it partially fails if at least one model succeeded.
const (
	RunStatusRunning         RunStatus = "running"
	RunStatusSucceeded       RunStatus = "succeeded"
	RunStatusPartiallyFailed RunStatus = "partially_failed"
	RunStatusFailed          RunStatus = "failed"
)

// ModelRunStatus is the outcome of a single model within a run.
type ModelRunStatus string

// Model run status constants. FailedTests is distinct from
// FailedExecution: the materialization is kept, only the tests failed.
const (
	ModelRunStatusSucceeded       ModelRunStatus = "succeeded"
	ModelRunStatusFailedExecution ModelRunStatus = "failed-execution"
	ModelRunStatusFailedTests     ModelRunStatus = "failed-tests"
	ModelRunStatusSkipped         ModelRunStatus = "skipped"
)

// Run is the log of one transformation execution. It is created at run
// start, appended to as each model completes, and sealed at run end.
type Run struct {
	ID          string
	Status      RunStatus
	StartedAt   time.Time
	CompletedAt *time.Time
	Error       string
	Models      []*ModelRun
}

// ModelRun is one model's outcome within a run.
type ModelRun struct {
	ID         string
	RunID      string
	ModelPath  string
	Status     ModelRunStatus
	RowCount   int64
	Duration   time.Duration
	Error      string
	Tests      []TestResult
	StartedAt  time.Time
	FinishedAt time.Time
}

// TestKind identifies a quality-test kind.
type TestKind string

// Test kind constants.
const (
	TestNotNull        TestKind = "not_null"
	TestUnique         TestKind = "unique"
	TestAcceptedValues TestKind = "accepted_values"
	TestRowCount       TestKind = "row_count"
)

// TestResult is the outcome of a single quality test.
type TestResult struct {
	Name        string
	Kind        TestKind
	Passed      bool
	FailingRows int64
	Detail      string
}
