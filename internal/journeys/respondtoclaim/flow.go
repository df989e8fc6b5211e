package respondtoclaim

import (
	"context"

	"github.com/garyjia/possession-response/internal/domain/journey"
)

// IsWales holds when the property is in Wales according to current case data
func IsWales(_ context.Context, rc journey.RoutingContext) (bool, error) {
	return rc.Case.LegislativeCountry == journey.CountryWales, nil
}

// DefendantNameKnown holds when the claimant supplied the defendant's name
func DefendantNameKnown(_ context.Context, rc journey.RoutingContext) (bool, error) {
	return rc.Case.DefendantNameKnown, nil
}

// afterNameConfirmation sends a defendant who rejects the name on the claim
// to enter their own
func afterNameConfirmation(rc journey.RoutingContext) journey.StepName {
	if rc.FormData.Value(StepDefendantNameConfirmation, "confirmed") == "no" {
		return StepDefendantNameCapture
	}
	return StepDefendantDateOfBirth
}

// beforeDateOfBirth returns whichever name step the defendant last answered
func beforeDateOfBirth(all journey.AllFormData) journey.StepName {
	switch {
	case all.Value(StepDefendantNameConfirmation, "confirmed") == "yes":
		return StepDefendantNameConfirmation
	case all.Has(StepDefendantNameCapture):
		return StepDefendantNameCapture
	case all.Has(StepDefendantNameConfirmation):
		return StepDefendantNameConfirmation
	default:
		return ""
	}
}

// beforeTenancyDetails honours the Wales-only step if it was answered, even
// when the case has since moved to England
func beforeTenancyDetails(all journey.AllFormData) journey.StepName {
	if all.Has(StepLandlordRegistered) {
		return StepLandlordRegistered
	}
	return StepDisputeClaimInterstitial
}

// Flow returns the routing table of the journey
func Flow() *journey.FlowConfig {
	return &journey.FlowConfig{
		Journey: JourneyName,
		StepOrder: []journey.StepName{
			StepStartNow,
			StepFreeLegalAdvice,
			StepDefendantNameConfirmation,
			StepDefendantNameCapture,
			StepDefendantDateOfBirth,
			StepCorrespondenceAddress,
			StepDisputeClaimInterstitial,
			StepLandlordRegistered,
			StepTenancyDetails,
			StepCheckYourAnswers,
			StepConfirmation,
		},
		Steps: map[journey.StepName]journey.RoutingEntry{
			StepStartNow: {
				Next: journey.Static{Target: StepFreeLegalAdvice},
			},
			StepFreeLegalAdvice: {
				Next: journey.Conditional{
					Routes: []journey.Route{
						{Name: "defendant-name-known", Condition: DefendantNameKnown, Next: StepDefendantNameConfirmation},
					},
					Fallback: StepDefendantNameCapture,
				},
			},
			StepDefendantNameConfirmation: {
				Next: journey.Computed{
					Fn:         afterNameConfirmation,
					Candidates: []journey.StepName{StepDefendantNameCapture, StepDefendantDateOfBirth},
				},
			},
			StepDefendantNameCapture: {
				Next: journey.Static{Target: StepDefendantDateOfBirth},
			},
			StepDefendantDateOfBirth: {
				Next:     journey.Static{Target: StepCorrespondenceAddress},
				Previous: beforeDateOfBirth,
			},
			StepCorrespondenceAddress: {
				Next: journey.Static{Target: StepDisputeClaimInterstitial},
			},
			StepDisputeClaimInterstitial: {
				Next: journey.Conditional{
					Routes: []journey.Route{
						{Name: "wales", Condition: IsWales, Next: StepLandlordRegistered},
					},
					Fallback: StepTenancyDetails,
				},
			},
			StepLandlordRegistered: {
				Next: journey.Static{Target: StepTenancyDetails},
			},
			StepTenancyDetails: {
				Next:     journey.Static{Target: StepCheckYourAnswers},
				Previous: beforeTenancyDetails,
			},
			StepCheckYourAnswers: {
				Next: journey.Static{Target: StepConfirmation},
			},
		},
	}
}
