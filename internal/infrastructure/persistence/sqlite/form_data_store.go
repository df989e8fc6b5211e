package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/garyjia/possession-response/internal/application/port"
	"github.com/garyjia/possession-response/internal/domain/journey"
	"go.uber.org/zap"
)

// FormDataStore implements port.FormDataStore on SQLite
type FormDataStore struct {
	db     *DB
	logger *zap.Logger
	now    func() time.Time
}

// NewFormDataStore creates a new form data store
func NewFormDataStore(db *DB, logger *zap.Logger) *FormDataStore {
	return &FormDataStore{
		db:     db,
		logger: logger,
		now:    time.Now,
	}
}

// SetClock replaces the store's clock
func (s *FormDataStore) SetClock(now func() time.Time) {
	s.now = now
}

// Get implements port.FormDataStore
func (s *FormDataStore) Get(ctx context.Context, sessionID, journeyName string, step journey.StepName) (journey.FormData, error) {
	query := `
		SELECT data FROM form_data
		WHERE session_id = ? AND journey = ? AND step = ?
	`

	var raw string
	err := s.db.executor(ctx).QueryRowContext(ctx, query, sessionID, journeyName, string(step)).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		s.logger.Error("Failed to get form data",
			zap.String("journey", journeyName),
			zap.String("step", string(step)),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get form data: %w", err)
	}

	return decode(raw)
}

// GetAll implements port.FormDataStore
func (s *FormDataStore) GetAll(ctx context.Context, sessionID, journeyName string) (journey.AllFormData, error) {
	query := `
		SELECT step, data FROM form_data
		WHERE session_id = ? AND journey = ?
	`

	rows, err := s.db.executor(ctx).QueryContext(ctx, query, sessionID, journeyName)
	if err != nil {
		s.logger.Error("Failed to list form data", zap.String("journey", journeyName), zap.Error(err))
		return nil, fmt.Errorf("failed to list form data: %w", err)
	}
	defer rows.Close()

	all := make(journey.AllFormData)
	for rows.Next() {
		var step, raw string
		if err := rows.Scan(&step, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan form data: %w", err)
		}
		data, err := decode(raw)
		if err != nil {
			return nil, err
		}
		all[journey.StepName(step)] = data
	}
	return all, rows.Err()
}

// Set implements port.FormDataStore
func (s *FormDataStore) Set(ctx context.Context, sessionID, journeyName string, step journey.StepName, data journey.FormData) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode form data: %w", err)
	}
	now := s.now().UTC().UnixNano()

	return s.db.WithTransaction(ctx, func(ctx context.Context) error {
		exec := s.db.executor(ctx)

		_, err := exec.ExecContext(ctx, `
			INSERT INTO sessions (session_id, journey, created_at, updated_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT (session_id, journey) DO UPDATE SET updated_at = excluded.updated_at
		`, sessionID, journeyName, now, now)
		if err != nil {
			s.logger.Error("Failed to touch session", zap.String("journey", journeyName), zap.Error(err))
			return fmt.Errorf("failed to touch session: %w", err)
		}

		_, err = exec.ExecContext(ctx, `
			INSERT INTO form_data (session_id, journey, step, data, updated_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT (session_id, journey, step) DO UPDATE SET
				data = excluded.data,
				updated_at = excluded.updated_at
		`, sessionID, journeyName, string(step), string(payload), now)
		if err != nil {
			s.logger.Error("Failed to save form data",
				zap.String("journey", journeyName),
				zap.String("step", string(step)),
				zap.Error(err))
			return fmt.Errorf("failed to save form data: %w", err)
		}
		return nil
	})
}

// Clear implements port.FormDataStore
func (s *FormDataStore) Clear(ctx context.Context, sessionID, journeyName string) error {
	_, err := s.db.executor(ctx).ExecContext(ctx,
		"DELETE FROM sessions WHERE session_id = ? AND journey = ?",
		sessionID, journeyName)
	if err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// DeleteInactive implements port.FormDataStore
func (s *FormDataStore) DeleteInactive(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.executor(ctx).ExecContext(ctx,
		"DELETE FROM sessions WHERE updated_at < ?",
		cutoff.UTC().UnixNano())
	if err != nil {
		s.logger.Error("Failed to delete inactive sessions", zap.Error(err))
		return 0, fmt.Errorf("failed to delete inactive sessions: %w", err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted sessions: %w", err)
	}
	return removed, nil
}

func decode(raw string) (journey.FormData, error) {
	var data journey.FormData
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, fmt.Errorf("failed to decode form data: %w", err)
	}
	return data, nil
}

// Verify interface compliance
var _ port.FormDataStore = (*FormDataStore)(nil)
