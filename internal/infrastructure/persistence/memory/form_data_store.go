// Package memory provides an in-process form data store for tests and local runs.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/garyjia/possession-response/internal/application/port"
	"github.com/garyjia/possession-response/internal/domain/journey"
)

type sessionKey struct {
	sessionID string
	journey   string
}

type sessionData struct {
	steps     journey.AllFormData
	updatedAt time.Time
}

// FormDataStore implements port.FormDataStore in memory
type FormDataStore struct {
	mu       sync.RWMutex
	sessions map[sessionKey]*sessionData
	now      func() time.Time
}

// NewFormDataStore creates an empty store
func NewFormDataStore() *FormDataStore {
	return &FormDataStore{
		sessions: make(map[sessionKey]*sessionData),
		now:      time.Now,
	}
}

// SetClock replaces the store's clock
func (s *FormDataStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Get implements port.FormDataStore
func (s *FormDataStore) Get(_ context.Context, sessionID, journeyName string, step journey.StepName) (journey.FormData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sd, ok := s.sessions[sessionKey{sessionID, journeyName}]
	if !ok {
		return nil, nil
	}
	return copyFormData(sd.steps[step]), nil
}

// GetAll implements port.FormDataStore
func (s *FormDataStore) GetAll(_ context.Context, sessionID, journeyName string) (journey.AllFormData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(journey.AllFormData)
	sd, ok := s.sessions[sessionKey{sessionID, journeyName}]
	if !ok {
		return out, nil
	}
	for step, data := range sd.steps {
		out[step] = copyFormData(data)
	}
	return out, nil
}

// Set implements port.FormDataStore
func (s *FormDataStore) Set(_ context.Context, sessionID, journeyName string, step journey.StepName, data journey.FormData) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := sessionKey{sessionID, journeyName}
	sd, ok := s.sessions[key]
	if !ok {
		sd = &sessionData{steps: make(journey.AllFormData)}
		s.sessions[key] = sd
	}
	sd.steps[step] = copyFormData(data)
	sd.updatedAt = s.now()
	return nil
}

// Clear implements port.FormDataStore
func (s *FormDataStore) Clear(_ context.Context, sessionID, journeyName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, sessionKey{sessionID, journeyName})
	return nil
}

// DeleteInactive implements port.FormDataStore
func (s *FormDataStore) DeleteInactive(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for key, sd := range s.sessions {
		if sd.updatedAt.Before(cutoff) {
			delete(s.sessions, key)
			removed++
		}
	}
	return removed, nil
}

func copyFormData(data journey.FormData) journey.FormData {
	if data == nil {
		return nil
	}
	out := make(journey.FormData, len(data))
	for k, v := range data {
		out[k] = v
	}
	return out
}

// Verify interface compliance
var _ port.FormDataStore = (*FormDataStore)(nil)
