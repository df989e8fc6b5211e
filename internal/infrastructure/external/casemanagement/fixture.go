package casemanagement

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/garyjia/possession-response/internal/application/port"
)

// FixtureProvider serves case data from a JSON file mapping case
// references to case payloads. Used for local runs and tests.
type FixtureProvider struct {
	cases map[string]map[string]interface{}
}

// NewFixtureProvider wraps an in-memory set of cases
func NewFixtureProvider(cases map[string]map[string]interface{}) *FixtureProvider {
	if cases == nil {
		cases = make(map[string]map[string]interface{})
	}
	return &FixtureProvider{cases: cases}
}

// LoadFixtureProvider reads cases from a JSON file
func LoadFixtureProvider(path string) (*FixtureProvider, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read case fixtures: %w", err)
	}

	var cases map[string]map[string]interface{}
	if err := json.Unmarshal(raw, &cases); err != nil {
		return nil, fmt.Errorf("failed to parse case fixtures %s: %w", path, err)
	}
	return NewFixtureProvider(cases), nil
}

// GetCase implements port.CaseDataProvider
func (p *FixtureProvider) GetCase(_ context.Context, caseReference string) (map[string]interface{}, error) {
	data, ok := p.cases[caseReference]
	if !ok {
		return nil, fmt.Errorf("fixture %s: %w", caseReference, port.ErrCaseNotFound)
	}
	return data, nil
}

// Verify interface compliance
var _ port.CaseDataProvider = (*FixtureProvider)(nil)
