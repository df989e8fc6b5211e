package journey

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/multierr"
)

// Condition decides whether a conditional route is taken.
// A returned error is never treated as false.
type Condition func(ctx context.Context, rc RoutingContext) (bool, error)

// Route is one entry of a conditional rule
type Route struct {
	Name      string
	Condition Condition
	Next      StepName
}

// Rule is the forward routing rule of a step. Implementations are
// Static, Conditional and Computed.
type Rule interface {
	// Targets lists every step the rule can resolve to
	Targets() []StepName
	isRule()
}

// Static always routes to Target
type Static struct {
	Target StepName
}

// Conditional takes the first route whose condition holds, else Fallback.
// An empty Fallback defers to the step order.
type Conditional struct {
	Routes   []Route
	Fallback StepName
}

// Computed derives the next step from the routing context. Candidates
// lists the steps Fn may return and is used for backward inference.
type Computed struct {
	Fn         func(rc RoutingContext) StepName
	Candidates []StepName
}

func (Static) isRule()      {}
func (Conditional) isRule() {}
func (Computed) isRule()    {}

// Targets implements Rule
func (s Static) Targets() []StepName {
	if s.Target == "" {
		return nil
	}
	return []StepName{s.Target}
}

// Targets implements Rule
func (c Conditional) Targets() []StepName {
	out := make([]StepName, 0, len(c.Routes)+1)
	for _, r := range c.Routes {
		out = append(out, r.Next)
	}
	if c.Fallback != "" {
		out = append(out, c.Fallback)
	}
	return out
}

// Targets implements Rule
func (c Computed) Targets() []StepName {
	return append([]StepName(nil), c.Candidates...)
}

// RoutingEntry is the routing of one step. A nil Next defers to the step
// order. Previous, when set, decides backward navigation from the form data
// recorded for the session.
type RoutingEntry struct {
	Next     Rule
	Previous PreviousStepFunc
}

// FlowConfig is the declarative routing table of a journey
type FlowConfig struct {
	Journey   string
	StepOrder []StepName
	Steps     map[StepName]RoutingEntry
}

// Entry returns the routing entry of a step
func (f *FlowConfig) Entry(name StepName) (RoutingEntry, bool) {
	if f.Steps == nil {
		return RoutingEntry{}, false
	}
	e, ok := f.Steps[name]
	return e, ok
}

// First returns the first step in the step order
func (f *FlowConfig) First() StepName {
	if len(f.StepOrder) == 0 {
		return ""
	}
	return f.StepOrder[0]
}

// Successor returns the step after name in the step order
func (f *FlowConfig) Successor(name StepName) StepName {
	i := f.index(name)
	if i < 0 || i+1 >= len(f.StepOrder) {
		return ""
	}
	return f.StepOrder[i+1]
}

// Predecessor returns the step before name in the step order
func (f *FlowConfig) Predecessor(name StepName) StepName {
	i := f.index(name)
	if i <= 0 {
		return ""
	}
	return f.StepOrder[i-1]
}

// Contains reports whether the step is known to the flow in any way
func (f *FlowConfig) Contains(name StepName) bool {
	if f.index(name) >= 0 {
		return true
	}
	_, ok := f.Entry(name)
	return ok
}

func (f *FlowConfig) index(name StepName) int {
	for i, s := range f.StepOrder {
		if s == name {
			return i
		}
	}
	return -1
}

// targets lists every step the entry for name can resolve to, including the
// step order successor it falls back to.
func (f *FlowConfig) targets(name StepName) []StepName {
	entry, _ := f.Entry(name)
	switch rule := entry.Next.(type) {
	case nil:
		return nonEmpty(f.Successor(name))
	case Static:
		if rule.Target == "" {
			return nonEmpty(f.Successor(name))
		}
		return rule.Targets()
	case Conditional:
		out := rule.Targets()
		if rule.Fallback == "" {
			out = append(out, nonEmpty(f.Successor(name))...)
		}
		return out
	case Computed:
		return append(rule.Targets(), nonEmpty(f.Successor(name))...)
	default:
		return nil
	}
}

// upstream returns the steps whose routing could lead to name, in step order
// followed by remaining entries sorted by name.
func (f *FlowConfig) upstream(name StepName) []StepName {
	seen := make(map[StepName]bool)
	var out []StepName

	consider := func(candidate StepName) {
		if seen[candidate] || candidate == name {
			return
		}
		seen[candidate] = true
		for _, t := range f.targets(candidate) {
			if t == name {
				out = append(out, candidate)
				return
			}
		}
	}

	for _, s := range f.StepOrder {
		consider(s)
	}

	rest := make([]StepName, 0, len(f.Steps))
	for s := range f.Steps {
		if !seen[s] {
			rest = append(rest, s)
		}
	}
	sort.Slice(rest, func(i, j int) bool { return rest[i] < rest[j] })
	for _, s := range rest {
		consider(s)
	}
	return out
}

// Validate checks the flow against a registry and reports every problem found
func (f *FlowConfig) Validate(registry *Registry) error {
	var err error

	if len(f.StepOrder) == 0 {
		err = multierr.Append(err, fmt.Errorf("journey %s: step order is empty", f.Journey))
	}

	seen := make(map[StepName]bool)
	for _, s := range f.StepOrder {
		if seen[s] {
			err = multierr.Append(err, fmt.Errorf("journey %s: step %s appears twice in step order", f.Journey, s))
		}
		seen[s] = true
		if !registry.Has(s) {
			err = multierr.Append(err, fmt.Errorf("journey %s: step order references %w: %s", f.Journey, ErrStepNotFound, s))
		}
	}

	names := make([]StepName, 0, len(f.Steps))
	for s := range f.Steps {
		names = append(names, s)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })

	for _, s := range names {
		if !seen[s] {
			err = multierr.Append(err, fmt.Errorf("journey %s: routing entry %s is not in step order", f.Journey, s))
		}

		entry := f.Steps[s]
		if c, ok := entry.Next.(Conditional); ok {
			for i, route := range c.Routes {
				if route.Condition == nil {
					err = multierr.Append(err, fmt.Errorf("journey %s: step %s route %d: %w", f.Journey, s, i, ErrNilCondition))
				}
			}
		}
		if c, ok := entry.Next.(Computed); ok && c.Fn == nil {
			err = multierr.Append(err, fmt.Errorf("journey %s: step %s has a computed rule without a function", f.Journey, s))
		}

		if entry.Next == nil {
			continue
		}
		for _, t := range entry.Next.Targets() {
			if !registry.Has(t) {
				err = multierr.Append(err, fmt.Errorf("journey %s: step %s targets %w: %s", f.Journey, s, ErrStepNotFound, t))
			}
		}
	}

	return err
}

func nonEmpty(name StepName) []StepName {
	if name == "" {
		return nil
	}
	return []StepName{name}
}
