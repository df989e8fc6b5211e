package journey

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DefaultConditionTimeout bounds a single route condition
const DefaultConditionTimeout = 5 * time.Second

// Resolver computes the next and previous step of a journey.
//
// Forward resolution always evaluates conditions against the live routing
// context. Backward resolution prefers the path recorded in form data and
// only falls back to re-deriving the predecessor from live conditions.
type Resolver struct {
	registry         *Registry
	logger           Logger
	conditionTimeout time.Duration
}

// Option configures a Resolver
type Option func(*Resolver)

// WithConditionTimeout sets the per-condition timeout. Zero disables it.
func WithConditionTimeout(d time.Duration) Option {
	return func(r *Resolver) {
		r.conditionTimeout = d
	}
}

// WithLogger sets the resolver logger
func WithLogger(logger Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewResolver creates a resolver over the given registry
func NewResolver(registry *Registry, opts ...Option) *Resolver {
	r := &Resolver{
		registry:         registry,
		logger:           nopLogger{},
		conditionTimeout: DefaultConditionTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Registry returns the registry the resolver checks results against
func (r *Resolver) Registry() *Registry {
	return r.registry
}

// NextStep returns the step after current, or "" when there is none.
// The error is non-nil only when a route condition fails.
func (r *Resolver) NextStep(ctx context.Context, rc RoutingContext, current StepName, flow *FlowConfig) (StepName, error) {
	next, err := r.forward(ctx, rc, current, flow)
	if err != nil {
		return "", err
	}
	return r.verify(flow, current, next), nil
}

// PreviousStep returns the step before current, or "" when there is none.
// The error is non-nil only when a route condition fails during inference.
func (r *Resolver) PreviousStep(ctx context.Context, rc RoutingContext, current StepName, flow *FlowConfig) (StepName, error) {
	if !flow.Contains(current) && !r.registry.Has(current) {
		return "", nil
	}

	entry, _ := flow.Entry(current)
	if entry.Previous != nil {
		if prev := entry.Previous(rc.FormData); prev != "" {
			return r.verify(flow, current, prev), nil
		}
	}
	if def, ok := r.registry.GetStep(current); ok && def.PreviousStep != nil {
		if prev := def.PreviousStep(rc.FormData); prev != "" {
			return r.verify(flow, current, prev), nil
		}
	}

	prev, err := r.infer(ctx, rc, current, flow)
	if err != nil {
		return "", err
	}
	if prev != "" {
		return r.verify(flow, current, prev), nil
	}

	return r.verify(flow, current, flow.Predecessor(current)), nil
}

// forward resolves the raw next step without checking the registry.
// A step's own NextStep override takes precedence over its routing entry.
func (r *Resolver) forward(ctx context.Context, rc RoutingContext, current StepName, flow *FlowConfig) (StepName, error) {
	if def, ok := r.registry.GetStep(current); ok && def.NextStep != nil {
		if next := def.NextStep(rc.FormData[current], rc.FormData); next != "" {
			return next, nil
		}
	}

	entry, _ := flow.Entry(current)

	switch rule := entry.Next.(type) {
	case Static:
		if rule.Target != "" {
			return rule.Target, nil
		}
	case Conditional:
		for i, route := range rule.Routes {
			matched, err := r.evaluate(ctx, rc, current, i, route)
			if err != nil {
				return "", err
			}
			if matched {
				return route.Next, nil
			}
		}
		if rule.Fallback != "" {
			return rule.Fallback, nil
		}
	case Computed:
		if rule.Fn != nil {
			if next := rule.Fn(rc); next != "" {
				return next, nil
			}
		}
	}

	return flow.Successor(current), nil
}

// infer finds the upstream step whose live routing leads to current.
// When several do, one recorded in form data wins, else the earliest one
// live routing can itself reach.
func (r *Resolver) infer(ctx context.Context, rc RoutingContext, current StepName, flow *FlowConfig) (StepName, error) {
	candidates := flow.upstream(current)
	if len(candidates) == 0 {
		return "", nil
	}

	var leading []StepName
	for _, candidate := range candidates {
		next, err := r.forward(ctx, rc, candidate, flow)
		if err != nil {
			return "", err
		}
		if next == current {
			leading = append(leading, candidate)
		}
	}

	if len(leading) == 0 {
		return "", nil
	}
	if len(leading) > 1 {
		r.logger.Info("Several steps lead to current step",
			"journey", flow.Journey,
			"step", current,
			"candidates", leading)
		for _, candidate := range leading {
			if rc.FormData.Has(candidate) {
				return candidate, nil
			}
		}
		for _, candidate := range leading {
			ok, err := r.reachable(ctx, rc, candidate, flow)
			if err != nil {
				return "", err
			}
			if ok {
				return candidate, nil
			}
		}
	}
	return leading[0], nil
}

// reachable reports whether live routing from any upstream step leads to
// name. A step nothing routes to is an entry point and always reachable.
func (r *Resolver) reachable(ctx context.Context, rc RoutingContext, name StepName, flow *FlowConfig) (bool, error) {
	upstream := flow.upstream(name)
	if len(upstream) == 0 {
		return true, nil
	}
	for _, u := range upstream {
		next, err := r.forward(ctx, rc, u, flow)
		if err != nil {
			return false, err
		}
		if next == name {
			return true, nil
		}
	}
	return false, nil
}

// evaluate runs one condition, bounded by the condition timeout
func (r *Resolver) evaluate(ctx context.Context, rc RoutingContext, step StepName, index int, route Route) (bool, error) {
	if route.Condition == nil {
		return false, &ConditionError{Step: step, Route: index, Err: ErrNilCondition}
	}

	var (
		cctx   context.Context
		cancel context.CancelFunc
	)
	if r.conditionTimeout > 0 {
		cctx, cancel = context.WithTimeout(ctx, r.conditionTimeout)
	} else {
		cctx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	type outcome struct {
		matched bool
		err     error
	}
	done := make(chan outcome, 1)
	// a timed-out condition outlives this call and must not share form data
	crc := rc.WithFormData(rc.FormData.Clone())

	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- outcome{err: fmt.Errorf("condition panicked: %v", p)}
			}
		}()
		matched, err := route.Condition(cctx, crc)
		done <- outcome{matched: matched, err: err}
	}()

	select {
	case o := <-done:
		if o.err != nil {
			r.logger.Error("Route condition failed",
				"case_reference", rc.CaseReference,
				"step", step,
				"route", index,
				"error", o.err)
			return false, &ConditionError{Step: step, Route: index, Err: o.err}
		}
		return o.matched, nil
	case <-cctx.Done():
		err := cctx.Err()
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			err = ErrConditionTimeout
		}
		r.logger.Error("Route condition did not complete",
			"step", step,
			"route", index,
			"error", err)
		return false, &ConditionError{Step: step, Route: index, Err: err}
	}
}

// verify returns name when it is registered, "" otherwise
func (r *Resolver) verify(flow *FlowConfig, current, name StepName) StepName {
	if name == "" {
		return ""
	}
	if !r.registry.Has(name) {
		r.logger.Warn("Routing references unknown step",
			"journey", flow.Journey,
			"step", current,
			"target", name)
		return ""
	}
	return name
}
