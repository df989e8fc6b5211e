// Package casedata maps the nested case-management payload onto the narrow
// snapshot routing conditions are allowed to read.
package casedata

import (
	"strings"

	"github.com/spf13/cast"

	"github.com/garyjia/possession-response/internal/domain/journey"
)

// Field paths within the case payload
var (
	pathLegislativeCountry = []string{"legislativeCountry"}
	pathDefendantNameKnown = []string{"defendant1", "nameKnown"}
	pathDefendantFirstName = []string{"defendant1", "firstName"}
	pathDefendantLastName  = []string{"defendant1", "lastName"}
	pathClaimantName       = []string{"claimantName"}
	pathPropertyAddress    = []string{"propertyAddress"}
)

// Snapshot builds a CaseSnapshot from raw case data. Missing or malformed
// fields leave the corresponding snapshot field at its zero value.
func Snapshot(raw map[string]interface{}) journey.CaseSnapshot {
	snap := journey.CaseSnapshot{
		LegislativeCountry: normaliseCountry(cast.ToString(Lookup(raw, pathLegislativeCountry...))),
		DefendantFirstName: strings.TrimSpace(cast.ToString(Lookup(raw, pathDefendantFirstName...))),
		DefendantLastName:  strings.TrimSpace(cast.ToString(Lookup(raw, pathDefendantLastName...))),
		ClaimantName:       strings.TrimSpace(cast.ToString(Lookup(raw, pathClaimantName...))),
		PropertyAddress:    formatAddress(Lookup(raw, pathPropertyAddress...)),
	}
	snap.DefendantNameKnown = isYes(Lookup(raw, pathDefendantNameKnown...))
	return snap
}

// Lookup walks nested maps along the given keys and returns the value found,
// or nil when any key is missing.
func Lookup(raw map[string]interface{}, keys ...string) interface{} {
	var current interface{} = raw
	for _, key := range keys {
		m, err := cast.ToStringMapE(current)
		if err != nil {
			return nil
		}
		v, ok := m[key]
		if !ok {
			return nil
		}
		current = v
	}
	return current
}

// isYes accepts the case system's YES/NO strings as well as JSON booleans
func isYes(v interface{}) bool {
	if s, ok := v.(string); ok {
		switch strings.ToUpper(strings.TrimSpace(s)) {
		case "YES", "Y":
			return true
		case "NO", "N", "":
			return false
		}
	}
	return cast.ToBool(v)
}

func normaliseCountry(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "england":
		return journey.CountryEngland
	case "wales":
		return journey.CountryWales
	default:
		return strings.TrimSpace(s)
	}
}

// formatAddress joins the populated address lines of an address object
func formatAddress(v interface{}) string {
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	m, err := cast.ToStringMapE(v)
	if err != nil {
		return ""
	}

	var parts []string
	for _, key := range []string{"AddressLine1", "AddressLine2", "AddressLine3", "PostTown", "County", "PostCode"} {
		if line := strings.TrimSpace(cast.ToString(m[key])); line != "" {
			parts = append(parts, line)
		}
	}
	return strings.Join(parts, ", ")
}
