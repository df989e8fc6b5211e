// Package respondtoclaim is the defendant's journey for responding to a
// possession claim.
package respondtoclaim

import (
	"time"

	"github.com/garyjia/possession-response/internal/domain/journey"
	"github.com/garyjia/possession-response/internal/journeys"
)

// JourneyName identifies the journey in session storage and logs
const JourneyName = "respond-to-claim"

// BaseURL is the URL scope shared by every step
const BaseURL = "/case/:caseReference/respond-to-claim"

const (
	StepStartNow                  journey.StepName = "start-now"
	StepFreeLegalAdvice           journey.StepName = "free-legal-advice"
	StepDefendantNameConfirmation journey.StepName = "defendant-name-confirmation"
	StepDefendantNameCapture      journey.StepName = "defendant-name-capture"
	StepDefendantDateOfBirth      journey.StepName = "defendant-date-of-birth"
	StepCorrespondenceAddress     journey.StepName = "correspondence-address"
	StepDisputeClaimInterstitial  journey.StepName = "dispute-claim-interstitial"
	StepLandlordRegistered        journey.StepName = "landlord-registered"
	StepTenancyDetails            journey.StepName = "tenancy-details"
	StepCheckYourAnswers          journey.StepName = "check-your-answers"
	StepConfirmation              journey.StepName = "confirmation"
)

// Views rendered by the steps
const (
	ViewStartNow         = "start-now"
	ViewQuestion         = "question"
	ViewInterstitial     = "interstitial"
	ViewCheckYourAnswers = "check-your-answers"
	ViewConfirmation     = "confirmation"
)

func step(name journey.StepName, number int, view string, prerequisites ...journey.StepName) journey.StepDefinition {
	return journey.StepDefinition{
		Name:          name,
		URL:           BaseURL + "/" + string(name),
		View:          view,
		StepNumber:    number,
		Prerequisites: prerequisites,
	}
}

// Steps returns the step definitions in journey order
func Steps() []journey.StepDefinition {
	return []journey.StepDefinition{
		step(StepStartNow, 1, ViewStartNow),
		step(StepFreeLegalAdvice, 2, ViewQuestion),
		step(StepDefendantNameConfirmation, 3, ViewQuestion),
		step(StepDefendantNameCapture, 4, ViewQuestion),
		step(StepDefendantDateOfBirth, 5, ViewQuestion, StepFreeLegalAdvice),
		step(StepCorrespondenceAddress, 6, ViewQuestion),
		step(StepDisputeClaimInterstitial, 7, ViewInterstitial),
		step(StepLandlordRegistered, 8, ViewQuestion),
		step(StepTenancyDetails, 9, ViewQuestion, StepDisputeClaimInterstitial),
		step(StepCheckYourAnswers, 10, ViewCheckYourAnswers, StepTenancyDetails),
		step(StepConfirmation, 11, ViewConfirmation, StepCheckYourAnswers),
	}
}

// Register adds the journey's steps to registry and returns the validated
// journey definition. now is used by date checks.
func Register(registry *journey.Registry, now func() time.Time) (*journeys.Definition, error) {
	if now == nil {
		now = time.Now
	}

	for _, s := range Steps() {
		if err := registry.RegisterStep(s); err != nil {
			return nil, err
		}
	}

	def := &journeys.Definition{
		Name:     JourneyName,
		Registry: registry,
		Flow:     Flow(),
		Pages:    Pages(now),
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return def, nil
}
