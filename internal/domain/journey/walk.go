package journey

import (
	"context"
	"fmt"
)

// Recorder returns the form data a visit to step records, or nil for none
type Recorder func(step StepName, rc RoutingContext) FormData

// Walk follows forward resolution from a step until no next step remains,
// recording form data at each visited step. It returns the visited steps.
func (r *Resolver) Walk(ctx context.Context, rc RoutingContext, flow *FlowConfig, from StepName, record Recorder) ([]StepName, error) {
	if !r.registry.Has(from) {
		return nil, fmt.Errorf("%w: %s", ErrStepNotFound, from)
	}

	all := rc.FormData.Clone()
	visited := map[StepName]bool{from: true}
	path := []StepName{from}
	current := from

	for {
		if record != nil {
			if data := record(current, rc.WithFormData(all)); len(data) > 0 {
				all[current] = data
			}
		}
		rc = rc.WithFormData(all)

		next, err := r.NextStep(ctx, rc, current, flow)
		if err != nil {
			return path, err
		}
		if next == "" {
			return path, nil
		}
		if visited[next] {
			return path, fmt.Errorf("%w: %s after %s", ErrCycle, next, current)
		}

		visited[next] = true
		path = append(path, next)
		current = next
	}
}
