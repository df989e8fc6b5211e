package casedata

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/garyjia/possession-response/internal/domain/journey"
)

func TestSnapshot(t *testing.T) {
	raw := map[string]interface{}{
		"legislativeCountry": "wales",
		"claimantName":       " Treetops Housing ",
		"defendant1": map[string]interface{}{
			"nameKnown": "YES",
			"firstName": "Jo",
			"lastName":  "Bloggs",
		},
		"propertyAddress": map[string]interface{}{
			"AddressLine1": "1 High Street",
			"PostTown":     "Cardiff",
			"PostCode":     "CF10 1AA",
		},
	}

	snap := Snapshot(raw)

	assert.Equal(t, journey.CountryWales, snap.LegislativeCountry)
	assert.True(t, snap.DefendantNameKnown)
	assert.Equal(t, "Jo", snap.DefendantFirstName)
	assert.Equal(t, "Bloggs", snap.DefendantLastName)
	assert.Equal(t, "Treetops Housing", snap.ClaimantName)
	assert.Equal(t, "1 High Street, Cardiff, CF10 1AA", snap.PropertyAddress)
}

func TestSnapshot_MissingFields(t *testing.T) {
	snap := Snapshot(map[string]interface{}{})

	assert.Equal(t, journey.CaseSnapshot{}, snap)
	assert.Equal(t, journey.CaseSnapshot{}, Snapshot(nil))
}

func TestSnapshot_NameKnownVariants(t *testing.T) {
	tests := []struct {
		name  string
		value interface{}
		want  bool
	}{
		{"upper yes", "YES", true},
		{"lower yes", "yes", true},
		{"no", "NO", false},
		{"bool true", true, true},
		{"bool false", false, false},
		{"garbage", "maybe", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := map[string]interface{}{
				"defendant1": map[string]interface{}{"nameKnown": tt.value},
			}
			assert.Equal(t, tt.want, Snapshot(raw).DefendantNameKnown)
		})
	}
}

func TestLookup(t *testing.T) {
	raw := map[string]interface{}{
		"a": map[string]interface{}{"b": map[string]interface{}{"c": 3}},
		"s": "leaf",
	}

	assert.Equal(t, 3, Lookup(raw, "a", "b", "c"))
	assert.Nil(t, Lookup(raw, "a", "x"))
	assert.Nil(t, Lookup(raw, "s", "deeper"))
}
