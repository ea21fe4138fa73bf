package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// FetchRun records one fetch+ingest attempt for one server.
type FetchRun struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	ServerID        int        `json:"server_id" db:"server_id"`
	StartedAt       time.Time  `json:"started_at" db:"started_at"`
	FinishedAt      *time.Time `json:"finished_at" db:"finished_at"`
	Status          string     `json:"status" db:"status"`
	ListingsFound   int        `json:"listings_found" db:"listings_found"`
	OffersPersisted int        `json:"offers_persisted" db:"offers_persisted"`
	Error           string     `json:"error" db:"error"`
}
