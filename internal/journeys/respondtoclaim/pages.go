package respondtoclaim

import (
	"time"

	"github.com/garyjia/possession-response/internal/domain/journey"
	"github.com/garyjia/possession-response/internal/forms"
	"github.com/garyjia/possession-response/internal/journeys"
)

var yesNo = []forms.Option{
	{Value: "yes", Label: "Yes"},
	{Value: "no", Label: "No"},
}

// Pages returns the page of every step
func Pages(now func() time.Time) map[journey.StepName]journeys.Page {
	return map[journey.StepName]journeys.Page{
		StepStartNow: {
			Title:  "Respond to a claim for possession",
			Submit: true,
		},
		StepFreeLegalAdvice: {
			Title:  "Have you had free legal advice?",
			Submit: true,
			Form: forms.Form{Fields: []forms.Field{{
				Name:  "hadLegalAdvice",
				Label: "Free legal advice",
				Kind:  forms.KindRadio,
				Options: []forms.Option{
					{Value: "yes", Label: "Yes"},
					{Value: "no", Label: "No"},
					{Value: "prefer-not-say", Label: "I'd prefer not to say"},
				},
				Rules: "required,oneof=yes no prefer-not-say",
			}}},
		},
		StepDefendantNameConfirmation: {
			Title:  "Is this your name?",
			Submit: true,
			Form: forms.Form{Fields: []forms.Field{{
				Name:     "confirmed",
				Label:    "Your name",
				Kind:     forms.KindRadio,
				Options:  yesNo,
				Rules:    "required,oneof=yes no",
				Messages: map[string]string{"required": "Select if this is your name"},
			}}},
		},
		StepDefendantNameCapture: {
			Title:  "What is your name?",
			Submit: true,
			Form: forms.Form{Fields: []forms.Field{
				{Name: "firstName", Label: "First name", Kind: forms.KindText, Rules: "required,notblank,max=60"},
				{Name: "lastName", Label: "Last name", Kind: forms.KindText, Rules: "required,notblank,max=60"},
			}},
		},
		StepDefendantDateOfBirth: {
			Title:  "What is your date of birth?",
			Submit: true,
			Form: forms.Form{
				Fields: forms.DateFields("dateOfBirth", "Date of birth"),
				Check:  forms.PastDate("dateOfBirth", "Date of birth", now),
			},
		},
		StepCorrespondenceAddress: {
			Title:  "What is your correspondence address?",
			Submit: true,
			Form: forms.Form{Fields: []forms.Field{
				{Name: "addressLine1", Label: "Address line 1", Kind: forms.KindText, Rules: "required,notblank,max=100"},
				{Name: "addressLine2", Label: "Address line 2", Kind: forms.KindText, Rules: "omitempty,max=100"},
				{Name: "townOrCity", Label: "Town or city", Kind: forms.KindText, Rules: "required,notblank,max=60"},
				{Name: "postcode", Label: "Postcode", Kind: forms.KindText, Rules: "required,postcode_iso3166_alpha2=GB"},
			}},
		},
		StepDisputeClaimInterstitial: {
			Title:  "Disputing the claim",
			Submit: true,
		},
		StepLandlordRegistered: {
			Title:  "Is your landlord registered with Rent Smart Wales?",
			Submit: true,
			Form: forms.Form{Fields: []forms.Field{{
				Name:  "registered",
				Label: "Landlord registration",
				Kind:  forms.KindRadio,
				Options: []forms.Option{
					{Value: "yes", Label: "Yes"},
					{Value: "no", Label: "No"},
					{Value: "not-sure", Label: "I'm not sure"},
				},
				Rules: "required,oneof=yes no not-sure",
			}}},
		},
		StepTenancyDetails: {
			Title:  "When did your tenancy start?",
			Submit: true,
			Form: forms.Form{
				Fields: forms.DateFields("tenancyStart", "Tenancy start date"),
				Check:  forms.PastDate("tenancyStart", "Tenancy start date", now),
			},
		},
		StepCheckYourAnswers: {
			Title:   "Check your answers",
			Submit:  true,
			Summary: true,
		},
		StepConfirmation: {
			Title: "Your response has been submitted",
		},
	}
}
