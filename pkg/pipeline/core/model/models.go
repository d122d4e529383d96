package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	logger "github.com/tenderworks/pipeline/pkg/pipeline/support/util/logger"

	"github.com/google/uuid"
)

// JobStatus represents the state of a pipeline job.
type JobStatus string

const (
	JobStatusPending         JobStatus = "pending"
	JobStatusRunning         JobStatus = "running"
	JobStatusCompleted       JobStatus = "completed"
	JobStatusFailed          JobStatus = "failed"
	JobStatusDoneWithWarning JobStatus = "done_with_warning"
)

// String returns the string representation of the JobStatus.
func (s JobStatus) String() string {
	return string(s)
}

// IsTerminal checks if the JobStatus represents a terminal state.
// Terminal states are absorbing: no transition leaves them.
func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusFailed, JobStatusDoneWithWarning:
		return true
	default:
		return false
	}
}

// ResultMap maps a step identifier to that step's output payload.
// Payloads are opaque raw JSON; step-specific decoding belongs to the executor
// that produced them.
type ResultMap map[string]json.RawMessage

// Value implements the `driver.Valuer` interface, converting the ResultMap to a JSON string.
func (rm ResultMap) Value() (driver.Value, error) {
	if rm == nil {
		return "{}", nil // Return empty map as JSON
	}
	data, err := json.Marshal(rm)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements the `sql.Scanner` interface, converting a JSON string to a ResultMap.
func (rm *ResultMap) Scan(value interface{}) error {
	if value == nil {
		*rm = make(ResultMap)
		return nil
	}
	var b []byte
	switch v := value.(type) {
	case []byte: // Handle byte slice from database
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("unsupported Scan type for ResultMap: %T", value)
	}

	if len(b) == 0 {
		*rm = make(ResultMap)
		return nil
	}

	if err := json.Unmarshal(b, rm); err != nil {
		return fmt.Errorf("failed to unmarshal ResultMap JSON: %w", err)
	}
	return nil
}

// StepIDs returns the step identifiers present in the map, in the order given
// by the supplied catalog ordering. Identifiers not present in the ordering are
// appended afterwards so no persisted output is ever dropped.
func (rm ResultMap) StepIDs(catalogOrder []string) []string {
	ids := make([]string, 0, len(rm))
	seen := make(map[string]bool, len(rm))
	for _, id := range catalogOrder {
		if _, ok := rm[id]; ok {
			ids = append(ids, id)
			seen[id] = true
		}
	}
	for id := range rm {
		if !seen[id] {
			ids = append(ids, id)
		}
	}
	return ids
}

// WarningList holds an ordered list of human-readable warning messages.
// Warnings accumulate monotonically over the lifetime of a job.
type WarningList []string

// Value implements the `driver.Valuer` interface, converting the WarningList to a JSON string.
func (wl WarningList) Value() (driver.Value, error) {
	if wl == nil {
		return "[]", nil
	}
	data, err := json.Marshal(wl)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements the `sql.Scanner` interface, converting a JSON string to a WarningList.
func (wl *WarningList) Scan(value interface{}) error {
	if value == nil {
		*wl = make(WarningList, 0)
		return nil
	}
	var b []byte
	switch v := value.(type) {
	case []byte: // Handle byte slice from database
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("unsupported Scan type for WarningList: %T", value)
	}

	if len(b) == 0 {
		*wl = make(WarningList, 0)
		return nil
	}

	if err := json.Unmarshal(b, wl); err != nil {
		return fmt.Errorf("failed to unmarshal WarningList JSON: %w", err)
	}
	return nil
}

// SubjectMeta describes the document a job operates on.
type SubjectMeta struct {
	FileName string `json:"file_name"`
	FileSize int64  `json:"file_size"`
}

// Value implements the `driver.Valuer` interface, converting SubjectMeta to a JSON string.
func (sm SubjectMeta) Value() (driver.Value, error) {
	data, err := json.Marshal(sm)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements the `sql.Scanner` interface, converting a JSON string to SubjectMeta.
func (sm *SubjectMeta) Scan(value interface{}) error {
	if value == nil {
		*sm = SubjectMeta{}
		return nil
	}
	var b []byte
	switch v := value.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("unsupported Scan type for SubjectMeta: %T", value)
	}

	if len(b) == 0 {
		*sm = SubjectMeta{}
		return nil
	}

	if err := json.Unmarshal(b, sm); err != nil {
		return fmt.Errorf("failed to unmarshal SubjectMeta JSON: %w", err)
	}
	return nil
}

// JobRecord is the mutable state of a single workflow instance.
// It is mutated exclusively through the orchestrator's transition operations.
type JobRecord struct {
	ID             string
	Subject        SubjectMeta
	Status         JobStatus
	CurrentStep    string // empty when no step is in flight
	CompletedSteps []string
	FailedSteps    []string
	Warnings       WarningList
	Progress       int
	Result         ResultMap
	Error          string
	StartTime      time.Time
	EndTime        *time.Time
}

// NewJobRecord creates a new JobRecord in the pending state.
func NewJobRecord(id string, subject SubjectMeta) *JobRecord {
	return &JobRecord{
		ID:             id,
		Subject:        subject,
		Status:         JobStatusPending,
		CompletedSteps: make([]string, 0),
		FailedSteps:    make([]string, 0),
		Warnings:       make(WarningList, 0),
		Progress:       0,
		Result:         make(ResultMap),
		StartTime:      time.Now(),
	}
}

// NewID generates a new UUID string.
func NewID() string {
	return uuid.New().String()
}

// isValidJobTransition checks if the state transition for a JobRecord is valid.
func isValidJobTransition(current, next JobStatus) bool {
	switch current {
	case JobStatusPending:
		// pending flips to running on the first step start; an empty pipeline
		// may finish directly, and a first-step hard failure terminates it.
		return next == JobStatusRunning || next == JobStatusCompleted ||
			next == JobStatusFailed || next == JobStatusDoneWithWarning
	case JobStatusRunning:
		return next == JobStatusCompleted || next == JobStatusFailed || next == JobStatusDoneWithWarning
	case JobStatusCompleted, JobStatusFailed, JobStatusDoneWithWarning:
		return false // Cannot transition out of terminal states
	default:
		return false
	}
}

// TransitionTo safely transitions the state of the JobRecord.
// Fields other than Status must be set separately by the caller.
func (j *JobRecord) TransitionTo(newStatus JobStatus) error {
	if !isValidJobTransition(j.Status, newStatus) {
		return fmt.Errorf("JobRecord (ID: %s): Invalid state transition: %s -> %s", j.ID, j.Status, newStatus)
	}
	j.Status = newStatus
	return nil
}

// MarkAsRunning updates the JobRecord status to running.
func (j *JobRecord) MarkAsRunning() {
	if j.Status == JobStatusRunning {
		return
	}
	if err := j.TransitionTo(JobStatusRunning); err != nil {
		logger.Warnf("Could not update JobRecord (ID: %s) status to running: %v", j.ID, err)
		j.Status = JobStatusRunning
	}
}

// MarkAsFailed transitions the JobRecord to the failed terminal state,
// recording the terminal error message and the end time.
func (j *JobRecord) MarkAsFailed(errMsg string) {
	if err := j.TransitionTo(JobStatusFailed); err != nil {
		logger.Warnf("Could not update JobRecord (ID: %s) status to failed: %v", j.ID, err)
		j.Status = JobStatusFailed
	}
	j.Error = errMsg
	j.CurrentStep = ""
	now := time.Now()
	j.EndTime = &now
}

// FinalStatus computes the terminal disposition for a job that ran to the end
// of its catalog: done_with_warning when anything was degraded, completed otherwise.
func (j *JobRecord) FinalStatus() JobStatus {
	if len(j.Warnings) > 0 || len(j.FailedSteps) > 0 {
		return JobStatusDoneWithWarning
	}
	return JobStatusCompleted
}

// MarkAsFinished transitions the JobRecord to its computed terminal state,
// forcing progress to 100 and recording the end time.
func (j *JobRecord) MarkAsFinished() {
	final := j.FinalStatus()
	if err := j.TransitionTo(final); err != nil {
		logger.Warnf("Could not update JobRecord (ID: %s) status to %s: %v", j.ID, final, err)
		j.Status = final
	}
	j.CurrentStep = ""
	j.Progress = 100
	now := time.Now()
	j.EndTime = &now
}

// AddWarning appends a warning message. Warnings never shrink.
func (j *JobRecord) AddWarning(msg string) {
	j.Warnings = append(j.Warnings, msg)
}

// HasCompletedStep reports whether the step already completed for this job.
func (j *JobRecord) HasCompletedStep(stepID string) bool {
	for _, id := range j.CompletedSteps {
		if id == stepID {
			return true
		}
	}
	return false
}

// HasFailedStep reports whether the step exhausted its retries for this job.
func (j *JobRecord) HasFailedStep(stepID string) bool {
	for _, id := range j.FailedSteps {
		if id == stepID {
			return true
		}
	}
	return false
}

// DurationMS returns the wall-clock duration of the job in milliseconds,
// or 0 while the job has not yet reached a terminal state.
func (j *JobRecord) DurationMS() int64 {
	if j.EndTime == nil {
		return 0
	}
	return j.EndTime.Sub(j.StartTime).Milliseconds()
}

// Clone creates a deep copy of the JobRecord so callers can observe state
// without being able to mutate the orchestrator's copy.
func (j *JobRecord) Clone() *JobRecord {
	clone := *j

	clone.CompletedSteps = append(make([]string, 0, len(j.CompletedSteps)), j.CompletedSteps...)
	clone.FailedSteps = append(make([]string, 0, len(j.FailedSteps)), j.FailedSteps...)
	clone.Warnings = append(make(WarningList, 0, len(j.Warnings)), j.Warnings...)

	clone.Result = make(ResultMap, len(j.Result))
	for k, v := range j.Result {
		clone.Result[k] = v
	}

	if j.EndTime != nil {
		end := *j.EndTime
		clone.EndTime = &end
	}

	return &clone
}
