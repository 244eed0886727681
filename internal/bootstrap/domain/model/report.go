package model

import (
	"fmt"
	"time"

	apperrors "setdb-init/internal/shared/errors"
)

// StepKind identifies the administrative action a step performs
type StepKind string

const (
	StepConnect          StepKind = "connect"
	StepSelectDatabase   StepKind = "select_database"
	StepCreateUser       StepKind = "create_user"
	StepCreateCollection StepKind = "create_collection"
)

// StepStatus is the outcome of a single step
type StepStatus string

const (
	StepPending  StepStatus = "pending"
	StepOK       StepStatus = "ok"
	StepCreated  StepStatus = "created"
	StepExisting StepStatus = "existing"
	StepError    StepStatus = "error"
	StepSkipped  StepStatus = "skipped"
)

// Run status values
const (
	StatusOK         = "ok"
	StatusError      = "error"
	StatusInProgress = "in-progress"
)

// StepResult represents the outcome of one bootstrap step
type StepResult struct {
	Name      string              `json:"name"`
	Kind      StepKind            `json:"kind"`
	Target    string              `json:"target,omitempty"`
	Status    StepStatus          `json:"status"`
	Error     string              `json:"error,omitempty"`
	ErrorKind apperrors.ErrorType `json:"errorKind,omitempty"`
}

// Report is the aggregate result of one bootstrap run
type Report struct {
	RunID      string       `json:"runId"`
	Database   string       `json:"database"`
	Mode       Mode         `json:"mode"`
	Status     string       `json:"status"`
	Steps      []StepResult `json:"steps"`
	Error      string       `json:"error,omitempty"`
	StartedAt  time.Time    `json:"startedAt"`
	FinishedAt *time.Time   `json:"finishedAt,omitempty"`
}

// StepName formats the display name of a step
func StepName(kind StepKind, target string) string {
	if target == "" {
		return string(kind)
	}
	return fmt.Sprintf("%s:%s", kind, target)
}

// NewReport lays out every step of plan, in execution order, as pending
func NewReport(runID string, plan *Plan, startedAt time.Time) *Report {
	steps := []StepResult{
		{Name: StepName(StepConnect, ""), Kind: StepConnect, Status: StepPending},
		{Name: StepName(StepSelectDatabase, plan.Database), Kind: StepSelectDatabase, Target: plan.Database, Status: StepPending},
		{Name: StepName(StepCreateUser, plan.Principal.Username), Kind: StepCreateUser, Target: plan.Principal.Username, Status: StepPending},
	}
	for _, name := range plan.Collections {
		steps = append(steps, StepResult{
			Name:   StepName(StepCreateCollection, name),
			Kind:   StepCreateCollection,
			Target: name,
			Status: StepPending,
		})
	}

	return &Report{
		RunID:     runID,
		Database:  plan.Database,
		Mode:      plan.Mode,
		Status:    StatusInProgress,
		Steps:     steps,
		StartedAt: startedAt,
	}
}

// Record stores the outcome of the step at index i
func (r *Report) Record(i int, status StepStatus, err error) {
	if i < 0 || i >= len(r.Steps) {
		return
	}
	r.Steps[i].Status = status
	if err != nil {
		r.Steps[i].Error = err.Error()
		r.Steps[i].ErrorKind = apperrors.TypeOf(err)
	}
}

// Finish closes the report. Steps still pending are marked skipped.
func (r *Report) Finish(finishedAt time.Time, err error) {
	for i := range r.Steps {
		if r.Steps[i].Status == StepPending {
			r.Steps[i].Status = StepSkipped
		}
	}

	r.Status = StatusOK
	if err != nil {
		r.Status = StatusError
		r.Error = err.Error()
	}
	for _, s := range r.Steps {
		if s.Status == StepError {
			r.Status = StatusError
			break
		}
	}
	r.FinishedAt = &finishedAt
}

// Succeeded reports whether every step completed without fault
func (r *Report) Succeeded() bool {
	return r != nil && r.Status == StatusOK
}

// ConfirmationMessage is the human-readable line printed after a successful run
func (r *Report) ConfirmationMessage() string {
	return fmt.Sprintf("Database initialized: %s", r.Database)
}

// Count returns how many steps ended with status
func (r *Report) Count(status StepStatus) int {
	n := 0
	for _, s := range r.Steps {
		if s.Status == status {
			n++
		}
	}
	return n
}

// Duration returns the wall time of a finished run
func (r *Report) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
