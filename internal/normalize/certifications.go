// Package normalize holds the pure field-normalization functions applied
// to raw source values before merging: certification titles, country
// names, and the country-to-region mapping. All functions are total and
// idempotent; unknown input degrades to a trimmed passthrough.
package normalize

import "strings"

// certificationNames maps lower-cased short codes and casing variants to
// the canonical display title.
var certificationNames = map[string]string{
	"gca":                          "Certified Associate",
	"cert-associate":               "Certified Associate",
	"certified associate":          "Certified Associate",
	"gcp":                          "Certified Professional",
	"cert-professional":            "Certified Professional",
	"certified professional":       "Certified Professional",
	"gcs-code":                     "Code Assist Specialist",
	"code assist specialist":       "Code Assist Specialist",
	"code-assist-specialist":       "Code Assist Specialist",
	"gcs-cicd":                     "CI/CD Specialist",
	"ci/cd specialist":             "CI/CD Specialist",
	"cicd specialist":              "CI/CD Specialist",
	"cicd-specialist":              "CI/CD Specialist",
	"gcs-sec":                      "Security Scanning Specialist",
	"security specialist":          "Security Scanning Specialist",
	"security scanning specialist": "Security Scanning Specialist",
	"security-scanning-specialist": "Security Scanning Specialist",
	"gce":                          "Certified Expert",
	"cert-expert":                  "Certified Expert",
	"certified expert":             "Certified Expert",
	"gcf":                          "Foundations Certificate",
	"foundations":                  "Foundations Certificate",
	"foundations certificate":      "Foundations Certificate",
	"admin":                        "Platform Administrator",
	"platform admin":               "Platform Administrator",
	"platform administrator":       "Platform Administrator",
}

// CertificationName maps short codes and casing variants to one canonical
// display name, checked case-insensitively. Unmapped input passes through
// trimmed.
func CertificationName(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	if canonical, ok := certificationNames[strings.ToLower(trimmed)]; ok {
		return canonical
	}
	return trimmed
}
