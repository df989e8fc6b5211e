package journey

import (
	"fmt"
	"path"
	"sort"
	"sync"
)

// Registry stores the step definitions of a journey.
//
// Ordering: numbered steps sort ascending by StepNumber, ties broken by
// registration order. Unnumbered steps follow all numbered steps in
// registration order. Re-registering a name keeps its original position.
type Registry struct {
	mu    sync.RWMutex
	steps map[StepName]*registeredStep
	byURL map[string]StepName
	seq   int
}

type registeredStep struct {
	def StepDefinition
	seq int
}

// NewRegistry creates an empty step registry
func NewRegistry() *Registry {
	return &Registry{
		steps: make(map[StepName]*registeredStep),
		byURL: make(map[string]StepName),
	}
}

// RegisterStep inserts or overwrites a step by name
func (r *Registry) RegisterStep(step StepDefinition) error {
	if step.Name == "" || step.URL == "" {
		return fmt.Errorf("%w: name and url are required", ErrInvalidStep)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if owner, ok := r.byURL[step.URL]; ok && owner != step.Name {
		return fmt.Errorf("%w: %s is used by %s", ErrDuplicateURL, step.URL, owner)
	}

	if existing, ok := r.steps[step.Name]; ok {
		delete(r.byURL, existing.def.URL)
		existing.def = step
		r.byURL[step.URL] = step.Name
		return nil
	}

	r.seq++
	r.steps[step.Name] = &registeredStep{def: step, seq: r.seq}
	r.byURL[step.URL] = step.Name
	return nil
}

// MustRegister registers steps and panics on the first failure.
// Intended for journey bootstrap code.
func (r *Registry) MustRegister(steps ...StepDefinition) {
	for _, step := range steps {
		if err := r.RegisterStep(step); err != nil {
			panic(fmt.Sprintf("register step %s: %v", step.Name, err))
		}
	}
}

// GetStep returns the step with the given name
func (r *Registry) GetStep(name StepName) (StepDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.steps[name]
	if !ok {
		return StepDefinition{}, false
	}
	return s.def, true
}

// Has reports whether a step is registered
func (r *Registry) Has(name StepName) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.steps[name]
	return ok
}

// GetStepByURL returns the step registered under exactly this URL
func (r *Registry) GetStepByURL(url string) (StepDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	name, ok := r.byURL[url]
	if !ok {
		return StepDefinition{}, false
	}
	return r.steps[name].def, true
}

// GetAllSteps returns every registered step in step order
func (r *Registry) GetAllSteps() []StepDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ordered := r.ordered()
	out := make([]StepDefinition, len(ordered))
	for i, s := range ordered {
		out[i] = s.def
	}
	return out
}

// GetStepOrder returns a copy of the step names in step order
func (r *Registry) GetStepOrder() []StepName {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ordered := r.ordered()
	out := make([]StepName, len(ordered))
	for i, s := range ordered {
		out[i] = s.def.Name
	}
	return out
}

// FirstStep returns the first step in step order
func (r *Registry) FirstStep() (StepDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ordered := r.ordered()
	if len(ordered) == 0 {
		return StepDefinition{}, false
	}
	return ordered[0].def, true
}

// GetNextStepName returns the step after current.
// A step's own NextStep override is used when both data arguments are given;
// otherwise the next numbered step in the same URL scope is returned.
// The result is always a registered step or "".
func (r *Registry) GetNextStepName(current StepName, formData FormData, all AllFormData) StepName {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.steps[current]
	if !ok {
		return ""
	}

	if s.def.NextStep != nil && formData != nil && all != nil {
		return r.known(s.def.NextStep(formData, all))
	}

	scope := r.scope(s.def)
	for i, candidate := range scope {
		if candidate.def.Name == current {
			if i+1 < len(scope) {
				return scope[i+1].def.Name
			}
			return ""
		}
	}
	return ""
}

// GetPreviousStepName returns the step before current, symmetric to GetNextStepName
func (r *Registry) GetPreviousStepName(current StepName, all AllFormData) StepName {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.steps[current]
	if !ok {
		return ""
	}

	if s.def.PreviousStep != nil && all != nil {
		return r.known(s.def.PreviousStep(all))
	}

	scope := r.scope(s.def)
	for i, candidate := range scope {
		if candidate.def.Name == current {
			if i > 0 {
				return scope[i-1].def.Name
			}
			return ""
		}
	}
	return ""
}

// ArePrerequisitesMet reports whether every prerequisite of the step is completed.
// Unknown steps have no prerequisites.
func (r *Registry) ArePrerequisitesMet(name StepName, completed CompletedSteps) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.steps[name]
	if !ok {
		return true
	}
	for _, prereq := range s.def.Prerequisites {
		if !completed[prereq] {
			return false
		}
	}
	return true
}

// Clear removes every registered step
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.steps = make(map[StepName]*registeredStep)
	r.byURL = make(map[string]StepName)
	r.seq = 0
}

// Len returns the number of registered steps
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.steps)
}

func (r *Registry) known(name StepName) StepName {
	if _, ok := r.steps[name]; ok {
		return name
	}
	return ""
}

// ordered must be called with the read lock held.
func (r *Registry) ordered() []*registeredStep {
	out := make([]*registeredStep, 0, len(r.steps))
	for _, s := range r.steps {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch {
		case a.def.Numbered() && b.def.Numbered():
			if a.def.StepNumber != b.def.StepNumber {
				return a.def.StepNumber < b.def.StepNumber
			}
			return a.seq < b.seq
		case a.def.Numbered() != b.def.Numbered():
			return a.def.Numbered()
		default:
			return a.seq < b.seq
		}
	})
	return out
}

// scope returns the numbered steps sharing the URL prefix of def, in order.
func (r *Registry) scope(def StepDefinition) []*registeredStep {
	prefix := path.Dir(def.URL)
	var out []*registeredStep
	for _, s := range r.ordered() {
		if s.def.Numbered() && path.Dir(s.def.URL) == prefix {
			out = append(out, s)
		}
	}
	return out
}
