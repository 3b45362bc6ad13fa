package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCountry(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"US", "United States"},
		{"u.s.", "United States"},
		{"USA", "United States"},
		{"United States of America", "United States"},
		{"  deutschland  ", "Germany"},
		{"México", "Mexico"},
		{"Brasil", "Brazil"},
		{"UK", "United Kingdom"},
		{"Columbia", "Colombia"},
		{"", ""},
		{"Atlantis", "Atlantis"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Country(tt.in), "input %q", tt.in)
	}
}

func TestCountry_Idempotent(t *testing.T) {
	inputs := []string{"US", "Deutschland", "México", "Atlantis", "United States"}
	for _, in := range inputs {
		once := Country(in)
		assert.Equal(t, once, Country(once), "canonical form must be a fixed point for %q", in)
	}
}

func TestRegionForCountry(t *testing.T) {
	tests := []struct {
		country string
		want    Region
	}{
		{"United States", RegionAMER},
		{"Brazil", RegionLATAM},
		{"Germany", RegionEMEA},
		{"Japan", RegionAPAC},
		{"", RegionUnknown},
		{"Atlantis", RegionOther},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, RegionForCountry(tt.country), "country %q", tt.country)
	}
}

func TestRegion_FollowsCanonicalization(t *testing.T) {
	// The raw variant resolves to a region only through canonicalization.
	assert.Equal(t, RegionAMER, RegionForCountry(Country("u.s.")))
	assert.Equal(t, RegionEMEA, RegionForCountry(Country("deutschland")))
}

func TestCertificationName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"GCA", "Certified Associate"},
		{"gca", "Certified Associate"},
		{"cert-professional", "Certified Professional"},
		{"CICD Specialist", "CI/CD Specialist"},
		{"Security Specialist", "Security Scanning Specialist"},
		{"  gce  ", "Certified Expert"},
		{"", ""},
		{"Homegrown Badge", "Homegrown Badge"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, CertificationName(tt.in), "input %q", tt.in)
	}
}
