// Package journeys bundles what the HTTP layer needs to serve a journey:
// its registry, flow configuration and the page behind every step.
package journeys

import (
	"fmt"

	"github.com/garyjia/possession-response/internal/domain/journey"
	"github.com/garyjia/possession-response/internal/forms"
)

// Page describes how a step is presented and what it collects
type Page struct {
	Title string
	Form  forms.Form
	// Submit is false for pages that only render, such as the final confirmation
	Submit bool
	// Summary lists the answers recorded so far
	Summary bool
}

// Definition is a fully registered journey
type Definition struct {
	Name     string
	Registry *journey.Registry
	Flow     *journey.FlowConfig
	Pages    map[journey.StepName]Page
}

// Page returns the page of a step
func (d *Definition) Page(name journey.StepName) (Page, bool) {
	p, ok := d.Pages[name]
	return p, ok
}

// Validate checks the flow against the registry and that every step has a page
func (d *Definition) Validate() error {
	if err := d.Flow.Validate(d.Registry); err != nil {
		return fmt.Errorf("journey %s: %w", d.Name, err)
	}
	for _, step := range d.Registry.GetAllSteps() {
		if _, ok := d.Pages[step.Name]; !ok {
			return fmt.Errorf("journey %s: step %s has no page", d.Name, step.Name)
		}
	}
	return nil
}
