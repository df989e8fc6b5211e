package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cast"

	"github.com/garyjia/possession-response/internal/application/port"
	"github.com/garyjia/possession-response/internal/domain/journey"
	"github.com/garyjia/possession-response/internal/forms"
	"github.com/garyjia/possession-response/internal/journeys"
)

// continueField is recorded for steps without form fields so that submitting
// them still marks the step completed
const continueField = "continue"

// ErrReadOnlyStep is returned when a step that only renders is submitted
var ErrReadOnlyStep = errors.New("step does not accept submissions")

// Logger interface for logging operations
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// Answer is a completed step as listed on check your answers
type Answer struct {
	Step      journey.StepName
	Title     string
	ChangeURL string
	Rows      []forms.SummaryRow
}

// StepView is everything needed to render a step
type StepView struct {
	Step    journey.StepDefinition
	Page    journeys.Page
	Values  map[string]string
	Errors  forms.FieldErrors
	BackURL string
	Answers []Answer
}

// SubmitResult is the outcome of a step submission. When Errors is set the
// input was rejected and nothing was stored. An empty NextURL without errors
// means no next step could be resolved.
type SubmitResult struct {
	NextURL string
	Next    journey.StepName
	Values  map[string]string
	Errors  forms.FieldErrors
}

// JourneyService drives one journey on behalf of a session
type JourneyService interface {
	Definition() *journeys.Definition
	FormData(ctx context.Context, sessionID string) (journey.AllFormData, error)
	View(ctx context.Context, sessionID string, rc journey.RoutingContext, step journey.StepName) (*StepView, error)
	Submit(ctx context.Context, sessionID string, rc journey.RoutingContext, step journey.StepName, input map[string]string) (*SubmitResult, error)
	BackURL(ctx context.Context, rc journey.RoutingContext, step journey.StepName) (string, error)
	Reset(ctx context.Context, sessionID string) error
}

type journeyServiceImpl struct {
	definition *journeys.Definition
	resolver   *journey.Resolver
	store      port.FormDataStore
	validator  *forms.Validator
	logger     Logger
}

// NewJourneyService creates a new JourneyService
func NewJourneyService(
	definition *journeys.Definition,
	resolver *journey.Resolver,
	store port.FormDataStore,
	validator *forms.Validator,
	logger Logger,
) JourneyService {
	return &journeyServiceImpl{
		definition: definition,
		resolver:   resolver,
		store:      store,
		validator:  validator,
		logger:     logger,
	}
}

// Definition returns the journey served
func (s *journeyServiceImpl) Definition() *journeys.Definition {
	return s.definition
}

// FormData returns everything the session has recorded for the journey
func (s *journeyServiceImpl) FormData(ctx context.Context, sessionID string) (journey.AllFormData, error) {
	all, err := s.store.GetAll(ctx, sessionID, s.definition.Name)
	if err != nil {
		return nil, fmt.Errorf("get form data: %w", err)
	}
	if all == nil {
		all = make(journey.AllFormData)
	}
	return all, nil
}

// View loads the data needed to render a step
func (s *journeyServiceImpl) View(ctx context.Context, sessionID string, rc journey.RoutingContext, step journey.StepName) (*StepView, error) {
	def, page, err := s.lookup(step)
	if err != nil {
		return nil, err
	}

	all, err := s.FormData(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	rc = rc.WithFormData(all)

	backURL, err := s.BackURL(ctx, rc, step)
	if err != nil {
		return nil, err
	}

	view := &StepView{
		Step:    def,
		Page:    page,
		Values:  stringValues(all[step]),
		BackURL: backURL,
	}
	if page.Summary {
		view.Answers = s.answers(rc, all)
	}
	return view, nil
}

// Submit validates input, records it and resolves the next step
func (s *journeyServiceImpl) Submit(ctx context.Context, sessionID string, rc journey.RoutingContext, step journey.StepName, input map[string]string) (*SubmitResult, error) {
	def, page, err := s.lookup(step)
	if err != nil {
		return nil, err
	}
	if !page.Submit {
		return nil, fmt.Errorf("step %s: %w", step, ErrReadOnlyStep)
	}

	data, fieldErrs := s.validator.Validate(page.Form, input)
	if fieldErrs != nil {
		s.logger.Info("Step submission rejected",
			"case_reference", rc.CaseReference,
			"step", step,
			"fields", fieldErrs.Fields())
		return &SubmitResult{Values: stringValues(data), Errors: fieldErrs}, nil
	}
	if len(data) == 0 {
		data = journey.FormData{continueField: "true"}
	}

	if err := s.store.Set(ctx, sessionID, s.definition.Name, def.Name, data); err != nil {
		s.logger.Error("Failed to save form data", "error", err, "step", step)
		return nil, fmt.Errorf("save form data: %w", err)
	}

	all, err := s.FormData(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	rc = rc.WithFormData(all)

	next, err := s.resolver.NextStep(ctx, rc, step, s.definition.Flow)
	if err != nil {
		return nil, err
	}

	result := &SubmitResult{Next: next, Values: stringValues(data)}
	if next == "" {
		s.logger.Warn("No next step resolved", "case_reference", rc.CaseReference, "step", step)
		return result, nil
	}
	result.NextURL = s.url(next, rc)
	return result, nil
}

// BackURL resolves the URL of the step the user came from, or "" when there is none
func (s *journeyServiceImpl) BackURL(ctx context.Context, rc journey.RoutingContext, step journey.StepName) (string, error) {
	previous, err := s.resolver.PreviousStep(ctx, rc, step, s.definition.Flow)
	if err != nil {
		return "", err
	}
	if previous == "" {
		return "", nil
	}
	return s.url(previous, rc), nil
}

// Reset removes everything the session recorded for the journey
func (s *journeyServiceImpl) Reset(ctx context.Context, sessionID string) error {
	if err := s.store.Clear(ctx, sessionID, s.definition.Name); err != nil {
		return fmt.Errorf("clear form data: %w", err)
	}
	return nil
}

func (s *journeyServiceImpl) lookup(step journey.StepName) (journey.StepDefinition, journeys.Page, error) {
	def, ok := s.definition.Registry.GetStep(step)
	if !ok {
		return journey.StepDefinition{}, journeys.Page{}, fmt.Errorf("step %s: %w", step, journey.ErrStepNotFound)
	}
	page, ok := s.definition.Page(step)
	if !ok {
		return journey.StepDefinition{}, journeys.Page{}, fmt.Errorf("page %s: %w", step, journey.ErrStepNotFound)
	}
	return def, page, nil
}

func (s *journeyServiceImpl) url(step journey.StepName, rc journey.RoutingContext) string {
	def, ok := s.definition.Registry.GetStep(step)
	if !ok {
		return ""
	}
	return def.Path(rc.Params())
}

// answers lists completed steps with form fields, in journey order
func (s *journeyServiceImpl) answers(rc journey.RoutingContext, all journey.AllFormData) []Answer {
	var out []Answer
	for _, name := range s.definition.Registry.GetStepOrder() {
		if !all.Has(name) {
			continue
		}
		page, ok := s.definition.Page(name)
		if !ok || len(page.Form.Fields) == 0 {
			continue
		}
		out = append(out, Answer{
			Step:      name,
			Title:     page.Title,
			ChangeURL: s.url(name, rc),
			Rows:      page.Form.Summary(stringValues(all[name])),
		})
	}
	return out
}

func stringValues(data journey.FormData) map[string]string {
	out := make(map[string]string, len(data))
	for k, v := range data {
		out[k] = cast.ToString(v)
	}
	return out
}
