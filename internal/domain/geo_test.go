package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistricts(t *testing.T) {
	assert.Len(t, Districts, 25)
	assert.True(t, IsDistrict("Nuwara Eliya"))
	assert.False(t, IsDistrict("nuwara eliya"), "exact match only")
	assert.False(t, IsDistrict("Atlantis"))
}

func TestSearchDistricts(t *testing.T) {
	assert.Equal(t, []string{"Colombo"}, SearchDistricts("colo"))
	assert.Equal(t, []string{"Matale", "Matara"}, SearchDistricts("MAT"))
	assert.Equal(t, []string{"Ampara", "Gampaha"}, SearchDistricts("mpa"))
	assert.Empty(t, SearchDistricts(""))
	assert.Empty(t, SearchDistricts("   "))
	assert.Empty(t, SearchDistricts("xyz"))
}

func TestMatchesDistrict(t *testing.T) {
	assert.True(t, MatchesDistrict("Galle", ""))
	assert.True(t, MatchesDistrict("Galle", "galle"))
	assert.False(t, MatchesDistrict("Galle", "Gal"))
}

func TestSriLankaBounds(t *testing.T) {
	assert.True(t, SriLankaBounds.Contains(SriLankaCenterLat, SriLankaCenterLon))
	assert.True(t, SriLankaBounds.Contains(9.9, 82.0), "edges inclusive")
	assert.False(t, SriLankaBounds.Contains(13.08, 80.27), "Chennai")
}
