// Package journey holds the step registry, the per-journey flow configuration
// and the resolver that walks it forwards and backwards.
package journey

import (
	"strings"
)

// StepName identifies a step within a journey. The empty name means "no step".
type StepName string

// String returns the step name as a string
func (s StepName) String() string {
	return string(s)
}

// FormData is the data submitted on a single step
type FormData map[string]interface{}

// AllFormData is the accumulated form data of a session, keyed by step
type AllFormData map[StepName]FormData

// Has reports whether a non-empty entry is recorded for the step
func (a AllFormData) Has(name StepName) bool {
	data, ok := a[name]
	return ok && len(data) > 0
}

// Value returns a string field recorded for a step, or "" when absent
func (a AllFormData) Value(name StepName, field string) string {
	data, ok := a[name]
	if !ok {
		return ""
	}
	v, ok := data[field].(string)
	if !ok {
		return ""
	}
	return v
}

// Clone returns a shallow copy safe to extend without touching the original
func (a AllFormData) Clone() AllFormData {
	out := make(AllFormData, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// CompletedSteps is the set of steps holding form data
type CompletedSteps map[StepName]bool

// Completed derives the completed steps from accumulated form data.
func Completed(all AllFormData) CompletedSteps {
	completed := make(CompletedSteps, len(all))
	for name := range all {
		if all.Has(name) {
			completed[name] = true
		}
	}
	return completed
}

// NextStepFunc overrides structural forward navigation for a single step
type NextStepFunc func(formData FormData, all AllFormData) StepName

// PreviousStepFunc overrides backward navigation using the path actually taken
type PreviousStepFunc func(all AllFormData) StepName

// StepDefinition describes one page of a journey.
//
// StepNumber is an ordering hint; zero means the step is unnumbered and is
// ordered after every numbered step. URL may contain ":param" segments.
type StepDefinition struct {
	Name          StepName
	URL           string
	View          string
	StepNumber    int
	Prerequisites []StepName
	NextStep      NextStepFunc
	PreviousStep  PreviousStepFunc
}

// Numbered reports whether the step carries an explicit step number
func (d StepDefinition) Numbered() bool {
	return d.StepNumber > 0
}

// Path substitutes ":param" segments of the step URL with the given values.
// Segments without a value are left untouched.
func (d StepDefinition) Path(params map[string]string) string {
	return ExpandURL(d.URL, params)
}

// ExpandURL substitutes ":param" segments of a URL pattern
func ExpandURL(pattern string, params map[string]string) string {
	if len(params) == 0 || !strings.Contains(pattern, ":") {
		return pattern
	}

	segments := strings.Split(pattern, "/")
	for i, seg := range segments {
		if !strings.HasPrefix(seg, ":") {
			continue
		}
		if v, ok := params[seg[1:]]; ok && v != "" {
			segments[i] = v
		}
	}
	return strings.Join(segments, "/")
}
