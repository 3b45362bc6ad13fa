// Package merge resolves per-source partial learner records into one
// canonical record per identity. Attribution priority and per-field merge
// policies are declared centrally in this package; nothing else in the
// repo encodes precedence.
package merge

import (
	"fmt"
	"strings"
)

// CompanySource tags where a company attribution came from.
type CompanySource int

const (
	SourceNone CompanySource = iota
	SourceEmailDomain
	SourceOrgMembership
	SourceSelfRegistration
	SourceSelfExam
	SourcePartnerCredential
	SourceSalesOrg
	SourceSalesUser
	SourceBillingCustomer
)

var companySourceNames = map[CompanySource]string{
	SourceNone:              "none",
	SourceEmailDomain:       "email-domain",
	SourceOrgMembership:     "org-membership",
	SourceSelfRegistration:  "self-reported-registration",
	SourceSelfExam:          "self-reported-exam",
	SourcePartnerCredential: "partner-credential",
	SourceSalesOrg:          "sales-record-org",
	SourceSalesUser:         "sales-record-user",
	SourceBillingCustomer:   "billing-customer",
}

func (s CompanySource) String() string {
	if name, ok := companySourceNames[s]; ok {
		return name
	}
	return "none"
}

// ParseCompanySource maps a config string to its CompanySource.
func ParseCompanySource(name string) (CompanySource, error) {
	lower := strings.ToLower(strings.TrimSpace(name))
	for src, n := range companySourceNames {
		if n == lower {
			return src, nil
		}
	}
	return SourceNone, fmt.Errorf("unknown company source %q", name)
}

// DefaultPriority is the revised attribution order, lowest first. A
// higher-priority source's non-empty value always wins. Partner
// credentials rank above both self-reported sources but below every
// sales-derived source.
var DefaultPriority = []CompanySource{
	SourceEmailDomain,
	SourceOrgMembership,
	SourceSelfRegistration,
	SourceSelfExam,
	SourcePartnerCredential,
	SourceSalesOrg,
	SourceSalesUser,
	SourceBillingCustomer,
}

// PriorityFromConfig builds a priority order from config strings. An
// empty list yields DefaultPriority; a partial or malformed list is an
// error rather than a silent reorder.
func PriorityFromConfig(names []string) ([]CompanySource, error) {
	if len(names) == 0 {
		return DefaultPriority, nil
	}
	if len(names) != len(DefaultPriority) {
		return nil, fmt.Errorf("company priority must list all %d sources, got %d", len(DefaultPriority), len(names))
	}

	seen := make(map[CompanySource]bool, len(names))
	order := make([]CompanySource, 0, len(names))
	for _, name := range names {
		src, err := ParseCompanySource(name)
		if err != nil {
			return nil, err
		}
		if seen[src] {
			return nil, fmt.Errorf("duplicate company source %q in priority list", name)
		}
		seen[src] = true
		order = append(order, src)
	}
	return order, nil
}
