package domain

import (
	"time"

	"github.com/google/uuid"
)

// AssignmentStatus is the per-row result of the assignment phase.
type AssignmentStatus string

const (
	AssignmentSuccess AssignmentStatus = "SUCCESS"
	AssignmentFailed  AssignmentStatus = "FAILED"
)

// AssignmentOutcome captures the result of one remote assign call. A failed
// row never aborts the batch; the error lands here instead.
type AssignmentOutcome struct {
	Row    int              `json:"row"`
	Serial string           `json:"serial"`
	MAC    string           `json:"mac"`
	Status AssignmentStatus `json:"status"`
	Error  string           `json:"error,omitempty"`
}

// Counts aggregates assignment outcomes for a run.
type Counts struct {
	Success int `json:"success"`
	Failed  int `json:"failed"`
	Total   int `json:"total"`
}

// RunStatus distinguishes a run that executed assignments from one the
// validation gate blocked.
type RunStatus string

const (
	RunCompleted RunStatus = "completed"
	RunBlocked   RunStatus = "blocked"
)

// RunResult is what a pipeline run hands back to its caller. Exactly one of
// the two variants is populated: a blocked run carries Issues and the
// validation report artifact, a completed run carries Outcomes, Counts and
// the results artifact. Callers branch on Status.
type RunResult struct {
	ID           uuid.UUID           `json:"id"`
	Status       RunStatus           `json:"status"`
	SiteID       string              `json:"siteId"`
	SiteName     string              `json:"siteName"`
	FileName     string              `json:"fileName"`
	Issues       []Issue             `json:"issues,omitempty"`
	Outcomes     []AssignmentOutcome `json:"outcomes,omitempty"`
	Counts       Counts              `json:"counts"`
	ArtifactPath string              `json:"artifactPath"`
}

// RunRecord is the persisted audit entry for a run.
type RunRecord struct {
	ID           uuid.UUID `json:"id"`
	SiteID       string    `json:"site_id"`
	SiteName     string    `json:"site_name"`
	FileName     string    `json:"file_name"`
	Status       RunStatus `json:"status"`
	IssueCount   int       `json:"issue_count"`
	Counts       Counts    `json:"counts"`
	ArtifactPath string    `json:"artifact_path"`
	CreatedAt    time.Time `json:"created_at"`
}
