package model

import (
	"time"

	"github.com/google/uuid"
)

// TerminationReason tells why a harvest run stopped paginating.
type TerminationReason string

const (
	// TerminationEmptyPage is the regular end of the listing.
	TerminationEmptyPage TerminationReason = "empty_page"
	// TerminationBadStatus is a listing page answered with a non-success status.
	TerminationBadStatus TerminationReason = "bad_status"
	// TerminationFetchError is a listing page that could not be fetched at all.
	TerminationFetchError TerminationReason = "fetch_error"
	// TerminationMaxPages is the configured page limit.
	TerminationMaxPages TerminationReason = "max_pages"
)

// Clean reports whether the run ended on the listing's own end marker.
// bad_status and fetch_error are accepted as termination too, but may hide a transient failure.
func (r TerminationReason) Clean() bool {
	return r == TerminationEmptyPage || r == TerminationMaxPages
}

// Termination describes the page that ended a harvest run.
type Termination struct {
	Reason TerminationReason `json:"reason"`
	Page   int               `json:"page"`
	Status int               `json:"status,omitempty"`
	Err    error             `json:"-"`
}

// HarvestResult is the in-memory batch produced by one harvest run.
type HarvestResult struct {
	RunID       uuid.UUID         `json:"run_id"`
	Quotes      []Quote           `json:"quotes"`
	Authors     map[string]Author `json:"authors"`
	Pages       int               `json:"pages"`
	Termination Termination       `json:"termination"`
	StartedAt   time.Time         `json:"started_at"`
	FinishedAt  time.Time         `json:"finished_at"`
}

// NewHarvestResult creates an empty result with a fresh run id.
func NewHarvestResult() *HarvestResult {
	return &HarvestResult{
		RunID:     uuid.New(),
		Quotes:    []Quote{},
		Authors:   map[string]Author{},
		StartedAt: time.Now(),
	}
}
