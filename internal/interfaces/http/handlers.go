package http

import (
	"context"
	"errors"
	"net/http"
	"path"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/possession-response/internal/application/service"
	"github.com/garyjia/possession-response/internal/domain/journey"
	"github.com/garyjia/possession-response/internal/infrastructure/metrics"
	"github.com/garyjia/possession-response/pkg/utils"
)

// Version is reported by the health endpoint
var Version = "dev"

// startAgainPath is appended to a journey root to discard the session's answers
const startAgainPath = "start-again"

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Version   string            `json:"version"`
	Checks    map[string]string `json:"checks"`
}

// HealthCheck handles GET /health
func (s *Server) HealthCheck(c *gin.Context) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   Version,
		Checks:    map[string]string{},
	}
	status := http.StatusOK

	if s.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := s.db.PingContext(ctx); err != nil {
			s.logger.Error("Database health check failed", "error", err)
			response.Status = "unhealthy"
			response.Checks["database"] = err.Error()
			status = http.StatusServiceUnavailable
		} else {
			response.Checks["database"] = "ok"
		}
	}

	c.JSON(status, Response{
		Success: status == http.StatusOK,
		Data:    response,
	})
}

// StartJourney handles GET on the journey root by sending the user to the first step
func (s *Server) StartJourney(c *gin.Context) {
	first, ok := s.journeys.Definition().Registry.FirstStep()
	if !ok {
		s.renderNotFound(c)
		return
	}
	c.Redirect(http.StatusFound, first.Path(routingContext(c).Params()))
}

// StartAgain handles POST on the journey's start-again route by clearing the
// session's answers and sending the user back to the first step
func (s *Server) StartAgain(c *gin.Context) {
	rc := routingContext(c)

	if err := s.journeys.Reset(c.Request.Context(), sessionID(c)); err != nil {
		s.logger.Error("Failed to reset journey", "error", err, "case_reference", rc.CaseReference)
		s.renderError(c, http.StatusInternalServerError)
		return
	}
	s.logger.Info("Journey reset", "case_reference", rc.CaseReference)

	first, ok := s.journeys.Definition().Registry.FirstStep()
	if !ok {
		s.renderNotFound(c)
		return
	}
	c.Redirect(http.StatusSeeOther, first.Path(rc.Params()))
}

// ShowStep handles GET on a step
func (s *Server) ShowStep(c *gin.Context) {
	step := currentStep(c)
	rc := routingContext(c)

	view, err := s.journeys.View(c.Request.Context(), sessionID(c), rc, step)
	if err != nil {
		s.handleJourneyError(c, step, err)
		return
	}

	c.HTML(http.StatusOK, view.Step.View, s.pageData(c, rc, view))
}

// SubmitStep handles POST on a step
func (s *Server) SubmitStep(c *gin.Context) {
	step := currentStep(c)
	rc := routingContext(c)
	ctx := c.Request.Context()
	journeyName := s.journeys.Definition().Name

	if err := c.Request.ParseForm(); err != nil {
		c.String(http.StatusBadRequest, "malformed form")
		return
	}
	input := make(map[string]string, len(c.Request.PostForm))
	for name := range c.Request.PostForm {
		input[name] = utils.SanitizeString(c.Request.PostForm.Get(name))
	}

	result, err := s.journeys.Submit(ctx, sessionID(c), rc, step, input)
	if err != nil {
		s.metrics.ObserveSubmission(journeyName, step.String(), metrics.OutcomeError)
		s.handleJourneyError(c, step, err)
		return
	}

	switch {
	case result.Errors.Has():
		s.metrics.ObserveSubmission(journeyName, step.String(), metrics.OutcomeRejected)
		view, err := s.journeys.View(ctx, sessionID(c), rc, step)
		if err != nil {
			s.handleJourneyError(c, step, err)
			return
		}
		view.Values = result.Values
		view.Errors = result.Errors
		c.HTML(http.StatusBadRequest, view.Step.View, s.pageData(c, rc, view))

	case result.NextURL == "":
		s.metrics.ObserveSubmission(journeyName, step.String(), metrics.OutcomeNoNext)
		s.renderNotFound(c)

	default:
		s.metrics.ObserveSubmission(journeyName, step.String(), metrics.OutcomeAccepted)
		c.Redirect(http.StatusSeeOther, result.NextURL)
	}
}

// NotFound handles unmatched routes
func (s *Server) NotFound(c *gin.Context) {
	s.renderNotFound(c)
}

func (s *Server) handleJourneyError(c *gin.Context, step journey.StepName, err error) {
	rc := routingContext(c)

	var condErr *journey.ConditionError
	switch {
	case errors.Is(err, journey.ErrStepNotFound):
		s.renderNotFound(c)
	case errors.Is(err, service.ErrReadOnlyStep):
		c.String(http.StatusMethodNotAllowed, "method not allowed")
	case errors.As(err, &condErr):
		s.logger.Error("Route condition failed",
			"error", err,
			"case_reference", rc.CaseReference,
			"step", condErr.Step,
			"route", condErr.Route)
		s.renderError(c, http.StatusInternalServerError)
	default:
		s.logger.Error("Journey request failed",
			"error", err,
			"case_reference", rc.CaseReference,
			"step", step)
		s.renderError(c, http.StatusInternalServerError)
	}
}

func (s *Server) pageData(c *gin.Context, rc journey.RoutingContext, view *service.StepView) pageData {
	return pageData{
		Title:         view.Page.Title,
		CaseReference: rc.CaseReference,
		Case:          rc.Case,
		Action:        c.Request.URL.Path,
		BackURL:       view.BackURL,
		Fields:        view.Page.Form.Fields,
		Values:        view.Values,
		Errors:        view.Errors,
		ErrorFields:   view.Errors.Fields(),
		Answers:       view.Answers,
		Submit:        view.Page.Submit,
		StartAgainURL: path.Dir(c.Request.URL.Path) + "/" + startAgainPath,
	}
}

func (s *Server) renderNotFound(c *gin.Context) {
	c.HTML(http.StatusNotFound, viewNotFound, pageData{Title: "Page not found"})
}

func (s *Server) renderError(c *gin.Context, status int) {
	c.HTML(status, viewError, pageData{Title: "Sorry, there is a problem with the service"})
}
