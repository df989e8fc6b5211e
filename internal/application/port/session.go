package port

import (
	"context"
	"errors"
	"time"

	"github.com/garyjia/possession-response/internal/domain/journey"
)

// ErrCaseNotFound is returned when the case-management system has no such case
var ErrCaseNotFound = errors.New("case not found")

// FormDataStore persists the form data a session submits, per journey and step
type FormDataStore interface {
	// Get returns the data recorded for one step, or nil when absent
	Get(ctx context.Context, sessionID, journeyName string, step journey.StepName) (journey.FormData, error)

	// GetAll returns every step's data for the session's journey
	GetAll(ctx context.Context, sessionID, journeyName string) (journey.AllFormData, error)

	// Set records the data submitted at a step, replacing earlier data
	Set(ctx context.Context, sessionID, journeyName string, step journey.StepName, data journey.FormData) error

	// Clear removes everything recorded for the session's journey
	Clear(ctx context.Context, sessionID, journeyName string) error

	// DeleteInactive removes sessions not written to since the cutoff
	DeleteInactive(ctx context.Context, cutoff time.Time) (int64, error)
}

// CaseDataProvider fetches the current case data from the case-management system
type CaseDataProvider interface {
	GetCase(ctx context.Context, caseReference string) (map[string]interface{}, error)
}

// Pinger reports whether a backing store is reachable
type Pinger interface {
	PingContext(ctx context.Context) error
}

// TransactionManager runs fn in a transaction carried by the context
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
