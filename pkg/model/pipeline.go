// pkg/model/pipeline.go
package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// StepStatus is the lifecycle state of a pipeline step
type StepStatus string

const (
	StepPending StepStatus = "pending"
	StepApplied StepStatus = "applied"
	StepError   StepStatus = "error"
)

// PipelineStep records one requested transformation
type PipelineStep struct {
	ID        string     // Unique within a ledger
	Operation Operation  // Typed operation variant
	Status    StepStatus // pending, applied or error
	Result    string     // Outcome message (error text when Status is error)
	CreatedAt time.Time
}

// NewPipelineStep creates a pending step with a fresh identifier
func NewPipelineStep(op Operation) PipelineStep {
	return PipelineStep{
		ID:        uuid.New().String(),
		Operation: op,
		Status:    StepPending,
		CreatedAt: time.Now().UTC(),
	}
}

// WithStatus returns a copy of the step with a new status and result
func (s PipelineStep) WithStatus(status StepStatus, result string) PipelineStep {
	s.Status = status
	s.Result = result
	return s
}

// Description returns the operation's description, or "" for an empty step
func (s PipelineStep) Description() string {
	if s.Operation == nil {
		return ""
	}
	return s.Operation.Describe()
}

// ClonePipeline copies a ledger. Operations are value types, so the copy
// shares no mutable state with the input.
func ClonePipeline(steps []PipelineStep) []PipelineStep {
	out := make([]PipelineStep, len(steps))
	copy(out, steps)
	return out
}

type pipelineStepJSON struct {
	ID        string           `json:"id"`
	Operation *OperationRecord `json:"operation"`
	Status    StepStatus       `json:"status"`
	Result    string           `json:"result,omitempty"`
	CreatedAt time.Time        `json:"createdAt"`
}

// MarshalJSON encodes the step with its operation envelope
func (s PipelineStep) MarshalJSON() ([]byte, error) {
	out := pipelineStepJSON{
		ID:        s.ID,
		Status:    s.Status,
		Result:    s.Result,
		CreatedAt: s.CreatedAt,
	}
	if s.Operation != nil {
		rec, err := EncodeOperation(s.Operation)
		if err != nil {
			return nil, err
		}
		out.Operation = &rec
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the step and rebuilds its typed operation
func (s *PipelineStep) UnmarshalJSON(data []byte) error {
	var in pipelineStepJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	s.ID = in.ID
	s.Status = in.Status
	s.Result = in.Result
	s.CreatedAt = in.CreatedAt
	s.Operation = nil
	if in.Operation != nil {
		op, err := DecodeOperation(*in.Operation)
		if err != nil {
			return fmt.Errorf("step %s: %w", in.ID, err)
		}
		s.Operation = op
	}
	return nil
}
