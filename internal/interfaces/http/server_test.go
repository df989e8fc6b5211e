package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/possession-response/internal/application/port"
	"github.com/garyjia/possession-response/internal/application/service"
	"github.com/garyjia/possession-response/internal/domain/journey"
	"github.com/garyjia/possession-response/internal/forms"
	"github.com/garyjia/possession-response/internal/infrastructure/external/casemanagement"
	"github.com/garyjia/possession-response/internal/infrastructure/metrics"
	"github.com/garyjia/possession-response/internal/infrastructure/persistence/memory"
	"github.com/garyjia/possession-response/internal/journeys"
	"github.com/garyjia/possession-response/internal/journeys/respondtoclaim"
)

const (
	englandCase = "1234"
	walesCase   = "5678"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

type fakePinger struct{ err error }

func (p fakePinger) PingContext(context.Context) error { return p.err }

type brokenCases struct{}

func (brokenCases) GetCase(context.Context, string) (map[string]interface{}, error) {
	return nil, errors.New("connection refused")
}

type brokenStore struct {
	*memory.FormDataStore
}

func (brokenStore) GetAll(context.Context, string, string) (journey.AllFormData, error) {
	return nil, errors.New("database is locked")
}

type testOptions struct {
	cases    port.CaseDataProvider
	store    port.FormDataStore
	db       port.Pinger
	journeys service.JourneyService
}

func newTestServer(t *testing.T, opts testOptions) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	if opts.cases == nil {
		opts.cases = casemanagement.NewFixtureProvider(map[string]map[string]interface{}{
			englandCase: {
				"legislativeCountry": "England",
				"defendant1":         map[string]interface{}{"nameKnown": "YES", "firstName": "Sam", "lastName": "Jones"},
			},
			walesCase: {
				"legislativeCountry": "Wales",
				"defendant1":         map[string]interface{}{"nameKnown": "NO"},
			},
		})
	}
	if opts.store == nil {
		opts.store = memory.NewFormDataStore()
	}

	svc := opts.journeys
	if svc == nil {
		registry := journey.NewRegistry()
		now := func() time.Time { return time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC) }
		def, err := respondtoclaim.Register(registry, now)
		require.NoError(t, err)
		svc = service.NewJourneyService(def, journey.NewResolver(registry), opts.store, forms.NewValidator(), nopLogger{})
	}
	session := SessionConfig{CookieName: "pr_session", TTL: time.Hour, Secret: "test-secret"}

	server, err := NewServer(DefaultServerConfig(), session, svc, opts.cases, opts.db, metrics.New(), nopLogger{})
	require.NoError(t, err)
	return server
}

// client replays the session cookie across requests
type client struct {
	t      *testing.T
	server *Server
	cookie *http.Cookie
}

func (c *client) do(method, target string, form url.Values) *httptest.ResponseRecorder {
	c.t.Helper()
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}

	rec := httptest.NewRecorder()
	c.server.Router().ServeHTTP(rec, req)

	for _, ck := range rec.Result().Cookies() {
		if ck.Name == "pr_session" {
			c.cookie = ck
		}
	}
	return rec
}

func stepURL(caseRef string, step journey.StepName) string {
	return "/case/" + caseRef + "/respond-to-claim/" + string(step)
}

func TestHealthCheck(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		server := newTestServer(t, testOptions{db: fakePinger{}})
		c := &client{t: t, server: server}

		rec := c.do(http.MethodGet, "/health", nil)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"database":"ok"`)
	})

	t.Run("database down", func(t *testing.T) {
		server := newTestServer(t, testOptions{db: fakePinger{err: errors.New("closed")}})
		c := &client{t: t, server: server}

		rec := c.do(http.MethodGet, "/health", nil)

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Contains(t, rec.Body.String(), "unhealthy")
	})
}

func TestMetricsEndpoint(t *testing.T) {
	c := &client{t: t, server: newTestServer(t, testOptions{})}

	c.do(http.MethodGet, "/health", nil)
	rec := c.do(http.MethodGet, "/metrics", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "possession_response_http_requests_total")
}

func TestShowStep(t *testing.T) {
	c := &client{t: t, server: newTestServer(t, testOptions{})}

	rec := c.do(http.MethodGet, stepURL(englandCase, respondtoclaim.StepStartNow), nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Respond to a claim for possession")
	require.NotNil(t, c.cookie)
	assert.True(t, c.cookie.HttpOnly)
}

func TestUnknownCase(t *testing.T) {
	c := &client{t: t, server: newTestServer(t, testOptions{})}

	rec := c.do(http.MethodGet, stepURL("0000", respondtoclaim.StepStartNow), nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Page not found")
}

func TestMalformedCaseReferenceSkipsLookup(t *testing.T) {
	c := &client{t: t, server: newTestServer(t, testOptions{cases: brokenCases{}})}

	rec := c.do(http.MethodGet, stepURL("12ab", respondtoclaim.StepStartNow), nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCaseAPIFailure(t *testing.T) {
	c := &client{t: t, server: newTestServer(t, testOptions{cases: brokenCases{}})}

	rec := c.do(http.MethodGet, stepURL(englandCase, respondtoclaim.StepStartNow), nil)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestUnknownRoute(t *testing.T) {
	c := &client{t: t, server: newTestServer(t, testOptions{})}

	rec := c.do(http.MethodGet, "/nowhere", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStartJourneyRedirectsToFirstStep(t *testing.T) {
	c := &client{t: t, server: newTestServer(t, testOptions{})}

	rec := c.do(http.MethodGet, "/case/"+englandCase+"/respond-to-claim", nil)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, stepURL(englandCase, respondtoclaim.StepStartNow), rec.Header().Get("Location"))
}

func TestPrerequisitesRedirectToFirstStep(t *testing.T) {
	c := &client{t: t, server: newTestServer(t, testOptions{})}

	rec := c.do(http.MethodGet, stepURL(englandCase, respondtoclaim.StepTenancyDetails), nil)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, stepURL(englandCase, respondtoclaim.StepStartNow), rec.Header().Get("Location"))
}

func TestStepWithoutPrerequisitesIsReachable(t *testing.T) {
	c := &client{t: t, server: newTestServer(t, testOptions{})}

	rec := c.do(http.MethodGet, stepURL(englandCase, respondtoclaim.StepCorrespondenceAddress), nil)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSubmitStep(t *testing.T) {
	c := &client{t: t, server: newTestServer(t, testOptions{})}

	rec := c.do(http.MethodPost, stepURL(englandCase, respondtoclaim.StepStartNow), url.Values{})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, stepURL(englandCase, respondtoclaim.StepFreeLegalAdvice), rec.Header().Get("Location"))

	rec = c.do(http.MethodPost, stepURL(englandCase, respondtoclaim.StepFreeLegalAdvice), url.Values{"hadLegalAdvice": {"sometimes"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Select a valid option for free legal advice")
	assert.Contains(t, rec.Body.String(), "There is a problem")

	rec = c.do(http.MethodPost, stepURL(englandCase, respondtoclaim.StepFreeLegalAdvice), url.Values{"hadLegalAdvice": {"yes"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, stepURL(englandCase, respondtoclaim.StepDefendantNameConfirmation), rec.Header().Get("Location"))

	rec = c.do(http.MethodGet, stepURL(englandCase, respondtoclaim.StepDefendantNameConfirmation), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `href="`+stepURL(englandCase, respondtoclaim.StepFreeLegalAdvice)+`"`)
}

func TestBackLinkFollowsPathTaken(t *testing.T) {
	c := &client{t: t, server: newTestServer(t, testOptions{})}

	c.do(http.MethodPost, stepURL(walesCase, respondtoclaim.StepStartNow), url.Values{})
	c.do(http.MethodPost, stepURL(walesCase, respondtoclaim.StepFreeLegalAdvice), url.Values{"hadLegalAdvice": {"no"}})
	rec := c.do(http.MethodPost, stepURL(walesCase, respondtoclaim.StepDefendantNameCapture), url.Values{"firstName": {"Alex"}, "lastName": {"Evans"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, stepURL(walesCase, respondtoclaim.StepDefendantDateOfBirth), rec.Header().Get("Location"))

	rec = c.do(http.MethodGet, stepURL(walesCase, respondtoclaim.StepDefendantDateOfBirth), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `href="`+stepURL(walesCase, respondtoclaim.StepDefendantNameCapture)+`"`)
}

func TestSubmitWithoutPrerequisitesRedirects(t *testing.T) {
	c := &client{t: t, server: newTestServer(t, testOptions{})}

	rec := c.do(http.MethodPost, stepURL(englandCase, respondtoclaim.StepStartNow), url.Values{})
	require.Equal(t, http.StatusSeeOther, rec.Code)

	rec = c.do(http.MethodPost, stepURL(englandCase, respondtoclaim.StepConfirmation), url.Values{})
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, stepURL(englandCase, respondtoclaim.StepStartNow), rec.Header().Get("Location"))
}

func TestTamperedSessionCookieStartsNewSession(t *testing.T) {
	c := &client{t: t, server: newTestServer(t, testOptions{})}

	c.do(http.MethodPost, stepURL(englandCase, respondtoclaim.StepStartNow), url.Values{})
	c.do(http.MethodPost, stepURL(englandCase, respondtoclaim.StepFreeLegalAdvice), url.Values{"hadLegalAdvice": {"yes"}})
	require.NotNil(t, c.cookie)

	original := c.cookie.Value
	c.cookie = &http.Cookie{Name: "pr_session", Value: original[:len(original)-2] + "xx"}

	rec := c.do(http.MethodGet, stepURL(englandCase, respondtoclaim.StepDefendantDateOfBirth), nil)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.NotEqual(t, original, c.cookie.Value)
}

func TestStoreFailure(t *testing.T) {
	c := &client{t: t, server: newTestServer(t, testOptions{store: brokenStore{memory.NewFormDataStore()}})}

	rec := c.do(http.MethodGet, stepURL(englandCase, respondtoclaim.StepCorrespondenceAddress), nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "problem with the service")
}

// gatedJourney is a two-step journey whose first step lists the second as a
// prerequisite
func gatedJourney(t *testing.T) *journeys.Definition {
	t.Helper()
	registry := journey.NewRegistry()
	registry.MustRegister(
		journey.StepDefinition{
			Name:          "intro",
			URL:           "/case/:caseReference/gated/intro",
			View:          respondtoclaim.ViewStartNow,
			StepNumber:    1,
			Prerequisites: []journey.StepName{"outro"},
		},
		journey.StepDefinition{
			Name:       "outro",
			URL:        "/case/:caseReference/gated/outro",
			View:       respondtoclaim.ViewInterstitial,
			StepNumber: 2,
		},
	)

	def := &journeys.Definition{
		Name:     "gated",
		Registry: registry,
		Flow: &journey.FlowConfig{
			Journey:   "gated",
			StepOrder: []journey.StepName{"intro", "outro"},
		},
		Pages: map[journey.StepName]journeys.Page{
			"intro": {Title: "Gated intro", Submit: true},
			"outro": {Title: "Gated outro", Submit: true},
		},
	}
	require.NoError(t, def.Validate())
	return def
}

func TestFirstStepIgnoresPrerequisites(t *testing.T) {
	def := gatedJourney(t)
	svc := service.NewJourneyService(def, journey.NewResolver(def.Registry), memory.NewFormDataStore(), forms.NewValidator(), nopLogger{})
	c := &client{t: t, server: newTestServer(t, testOptions{journeys: svc})}

	rec := c.do(http.MethodGet, "/case/"+englandCase+"/gated/intro", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Location"))
	assert.Contains(t, rec.Body.String(), "Gated intro")
}

func TestStartAgainClearsAnswers(t *testing.T) {
	c := &client{t: t, server: newTestServer(t, testOptions{})}

	c.do(http.MethodPost, stepURL(englandCase, respondtoclaim.StepStartNow), url.Values{})
	c.do(http.MethodPost, stepURL(englandCase, respondtoclaim.StepFreeLegalAdvice), url.Values{"hadLegalAdvice": {"yes"}})

	rec := c.do(http.MethodGet, stepURL(englandCase, respondtoclaim.StepDefendantDateOfBirth), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = c.do(http.MethodPost, "/case/"+englandCase+"/respond-to-claim/start-again", url.Values{})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, stepURL(englandCase, respondtoclaim.StepStartNow), rec.Header().Get("Location"))

	rec = c.do(http.MethodGet, stepURL(englandCase, respondtoclaim.StepDefendantDateOfBirth), nil)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, stepURL(englandCase, respondtoclaim.StepStartNow), rec.Header().Get("Location"))
}
