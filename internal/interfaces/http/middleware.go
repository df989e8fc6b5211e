package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/possession-response/internal/application/port"
	"github.com/garyjia/possession-response/internal/domain/casedata"
	"github.com/garyjia/possession-response/internal/domain/journey"
	"github.com/garyjia/possession-response/internal/infrastructure/metrics"
	"github.com/garyjia/possession-response/pkg/utils"
)

// Keys of values attached to the gin context
const (
	ctxSessionID = "session_id"
	ctxRouting   = "routing_context"
	ctxStep      = "step"
)

// loggingMiddleware logs and measures each request
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		s.metrics.ObserveRequest(c.FullPath(), method, status, latency)
		s.logger.Info("HTTP request",
			"method", method,
			"path", path,
			"status", status,
			"latency", latency.String(),
			"client_ip", c.ClientIP(),
		)
	}
}

// sessionMiddleware attaches the session id from the signed cookie, issuing a
// new session when the cookie is missing or has been tampered with
func (s *Server) sessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		var sessionID string
		if value, err := c.Cookie(s.session.CookieName); err == nil {
			if id, err := s.signer.Verify(value); err == nil {
				sessionID = id
			} else {
				s.logger.Warn("Rejected session cookie", "client_ip", c.ClientIP())
			}
		}
		if sessionID == "" {
			sessionID = s.signer.NewID()
		}

		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(s.session.CookieName, s.signer.Sign(sessionID), int(s.session.TTL.Seconds()), "/", "", s.session.Secure, true)
		c.Set(ctxSessionID, sessionID)
		c.Next()
	}
}

// caseDataMiddleware fetches the case named in the URL and attaches the
// routing context built from it
func (s *Server) caseDataMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		caseReference := c.Param("caseReference")
		if err := utils.ValidateCaseReference(caseReference); err != nil {
			s.logger.Warn("Malformed case reference", "error", err)
			s.renderNotFound(c)
			c.Abort()
			return
		}

		raw, err := s.cases.GetCase(c.Request.Context(), caseReference)
		switch {
		case errors.Is(err, port.ErrCaseNotFound):
			s.metrics.ObserveCaseLookup(metrics.LookupNotFound)
			s.logger.Warn("Case not found", "case_reference", caseReference)
			s.renderNotFound(c)
			c.Abort()
			return
		case err != nil:
			s.metrics.ObserveCaseLookup(metrics.LookupError)
			s.logger.Error("Failed to get case data", "error", err, "case_reference", caseReference)
			s.renderError(c, http.StatusBadGateway)
			c.Abort()
			return
		}
		s.metrics.ObserveCaseLookup(metrics.LookupFound)

		c.Set(ctxRouting, journey.RoutingContext{
			CaseReference: caseReference,
			Case:          casedata.Snapshot(raw),
		})
		c.Next()
	}
}

// stepValidationMiddleware resolves the step behind the matched route and
// sends users who have not met its prerequisites back to the first step
func (s *Server) stepValidationMiddleware() gin.HandlerFunc {
	registry := s.journeys.Definition().Registry

	return func(c *gin.Context) {
		step, ok := registry.GetStepByURL(c.FullPath())
		if !ok {
			c.Next()
			return
		}
		c.Set(ctxStep, step.Name)

		first, _ := registry.FirstStep()
		if step.Name == first.Name {
			c.Next()
			return
		}

		rc := routingContext(c)
		all, err := s.journeys.FormData(c.Request.Context(), sessionID(c))
		if err != nil {
			s.logger.Error("Failed to load form data", "error", err, "step", step.Name)
			s.renderError(c, http.StatusInternalServerError)
			c.Abort()
			return
		}

		if !registry.ArePrerequisitesMet(step.Name, journey.Completed(all)) {
			s.logger.Warn("Step prerequisites not met",
				"case_reference", rc.CaseReference,
				"step", step.Name,
				"prerequisites", step.Prerequisites)
			c.Redirect(http.StatusFound, first.Path(rc.Params()))
			c.Abort()
			return
		}
		c.Next()
	}
}

func sessionID(c *gin.Context) string {
	return c.GetString(ctxSessionID)
}

func routingContext(c *gin.Context) journey.RoutingContext {
	v, ok := c.Get(ctxRouting)
	if !ok {
		return journey.RoutingContext{CaseReference: c.Param("caseReference")}
	}
	rc, _ := v.(journey.RoutingContext)
	return rc
}

func currentStep(c *gin.Context) journey.StepName {
	v, _ := c.Get(ctxStep)
	name, _ := v.(journey.StepName)
	return name
}
