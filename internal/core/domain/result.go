package domain

import (
	"encoding/json"
	"time"
)

// Result is the output of a job, produced upstream and pushed over realtime.
type Result struct {
	ID         string          `json:"id"`
	JobID      string          `json:"job_id"`
	Kind       string          `json:"kind"`
	Data       json.RawMessage `json:"data,omitempty"`
	Confidence float64         `json:"confidence"`
	Reviewed   bool            `json:"reviewed"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// EntityID implements Entity.
func (r Result) EntityID() string { return r.ID }

// EntityType implements Entity.
func (Result) EntityType() EntityType { return TypeResults }

// ResultPatch updates reviewable fields of a Result.
// Data is replaced as a whole, never merged key by key.
type ResultPatch struct {
	Data       json.RawMessage `json:"data,omitempty"`
	Confidence *float64        `json:"confidence,omitempty"`
	Reviewed   *bool           `json:"reviewed,omitempty"`
}

// Validate implements Patch.
func (p ResultPatch) Validate() error {
	if p.Data != nil && !json.Valid(p.Data) {
		return invalidField("data", "must be valid JSON")
	}
	if p.Confidence != nil && (*p.Confidence < 0 || *p.Confidence > 1) {
		return invalidField("confidence", "must be within [0, 1]")
	}
	return nil
}

// Apply implements Patch.
func (p ResultPatch) Apply(r Result) Result {
	if p.Data != nil {
		r.Data = append(json.RawMessage(nil), p.Data...)
	}
	if p.Confidence != nil {
		r.Confidence = *p.Confidence
	}
	if p.Reviewed != nil {
		r.Reviewed = *p.Reviewed
	}
	return r
}
