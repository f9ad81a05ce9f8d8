package constants

// RunStatus is the canonical status for rows in extraction_runs.
type RunStatus string

// Stable values (store these exact strings in DB).
const (
	RunStatusQueued    RunStatus = "QUEUED"    // created, not started yet
	RunStatusRunning   RunStatus = "RUNNING"   // pipeline in progress
	RunStatusSucceeded RunStatus = "SUCCEEDED" // facts persisted
	RunStatusFailed    RunStatus = "FAILED"    // terminal failure
)

// FactSource marks the provenance of a persisted material fact.
type FactSource string

const (
	SourceRuleBased FactSource = "rule_based"
	SourceLLM       FactSource = "llm"
)
