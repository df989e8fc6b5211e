package journey

// Country values used by case data
const (
	CountryEngland = "England"
	CountryWales   = "Wales"
)

// CaseSnapshot is the subset of backing case data routing may depend on.
// It reflects the case as it is now, not as it was when a step was visited.
type CaseSnapshot struct {
	LegislativeCountry string
	DefendantNameKnown bool
	DefendantFirstName string
	DefendantLastName  string
	ClaimantName       string
	PropertyAddress    string
}

// RoutingContext is the value passed to every route condition
type RoutingContext struct {
	CaseReference string
	Case          CaseSnapshot
	FormData      AllFormData
}

// WithFormData returns a copy of the context carrying the given form data
func (rc RoutingContext) WithFormData(all AllFormData) RoutingContext {
	rc.FormData = all
	return rc
}

// Params returns the URL parameters for building step paths
func (rc RoutingContext) Params() map[string]string {
	return map[string]string{"caseReference": rc.CaseReference}
}

// Logger interface for logging operations
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
