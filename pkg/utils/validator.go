package utils

import (
	"fmt"
	"regexp"
)

// MaxCaseReferenceLength is the length of a full case reference
const MaxCaseReferenceLength = 16

var (
	caseReferenceRegex = regexp.MustCompile(`^[0-9]+$`)
	controlCharRegex   = regexp.MustCompile(`[\x00-\x08\x0b\x0c\x0e-\x1f\x7f]`)
)

// ValidateCaseReference checks that a case reference is numeric and no
// longer than a full reference
func ValidateCaseReference(ref string) error {
	if len(ref) == 0 || len(ref) > MaxCaseReferenceLength {
		return fmt.Errorf("case reference must be 1 to %d digits: %q", MaxCaseReferenceLength, ref)
	}
	if !caseReferenceRegex.MatchString(ref) {
		return fmt.Errorf("case reference must contain only digits: %q", ref)
	}
	return nil
}

// SanitizeString removes control characters other than tab and line breaks
func SanitizeString(s string) string {
	return controlCharRegex.ReplaceAllString(s, "")
}
