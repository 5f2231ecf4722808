package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RunStatus represents the status of a classification run
type RunStatus string

const (
	RunStatusInProgress RunStatus = "in_progress"
	RunStatusCompleted  RunStatus = "completed"
	RunStatusFailed     RunStatus = "failed"
)

// Pass names a batch operation of the engine
type Pass string

const (
	PassIngest  Pass = "ingest"
	PassRoute   Pass = "route"
	PassOutcome Pass = "outcome"
	PassMateria Pass = "materia"
	PassSeed    Pass = "seed"
)

// RunCounters tallies what a run did with each document
type RunCounters struct {
	Total     int            `json:"total"`
	Processed int            `json:"processed"`
	Skipped   int            `json:"skipped"`
	Failed    int            `json:"failed"`
	Labels    map[string]int `json:"labels,omitempty"`
}

// Count records one label assignment
func (c *RunCounters) Count(label string) {
	if c.Labels == nil {
		c.Labels = make(map[string]int)
	}
	c.Labels[label]++
	c.Processed++
}

// Value implements driver.Valuer for JSONB
func (c RunCounters) Value() (driver.Value, error) {
	return json.Marshal(c)
}

// Scan implements sql.Scanner for JSONB
func (c *RunCounters) Scan(value interface{}) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*c = RunCounters{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported counters type %T", value)
	}

	if len(raw) == 0 {
		*c = RunCounters{}
		return nil
	}
	return json.Unmarshal(raw, c)
}

// Run represents one execution of a batch pass
type Run struct {
	ID           uuid.UUID   `json:"id"`
	Pass         Pass        `json:"pass"`
	Status       RunStatus   `json:"status"`
	Counters     RunCounters `json:"counters"`
	ErrorMessage *string     `json:"error_message,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
	CompletedAt  *time.Time  `json:"completed_at,omitempty"`
}
