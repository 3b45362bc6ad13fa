package sources

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/learner-analytics/backend/internal/merge"
	"github.com/learner-analytics/backend/internal/normalize"
	"github.com/learner-analytics/backend/internal/sources/analytics"
	"github.com/learner-analytics/backend/pkg/config"
)

// Warehouse queries. The client appends LIMIT/OFFSET for chunking.
const (
	salesUserQuery = `SELECT email, company_name, country FROM sales_contacts WHERE email IS NOT NULL ORDER BY email`
	salesOrgQuery  = `SELECT email, account_name AS company_name, account_country AS country FROM sales_accounts_flat ORDER BY email`
	partnerQuery   = `SELECT email, partner_company AS company_name, country FROM partner_credentials ORDER BY email`
	orgMemberQuery = `SELECT handle, org_name AS company_name FROM org_memberships ORDER BY handle`
	usageQuery     = `SELECT account_id, handle, product, active_days, active_days_90d FROM product_usage_daily_rollup ORDER BY account_id`
	learningQuery  = `SELECT handle, email, surface, page_views, sessions FROM learning_events_rollup ORDER BY handle`
)

// Build assembles the full source list for a sync run from config. The
// remote client may be nil when no warehouse endpoint is configured;
// remote-backed sources are then omitted.
func Build(cfg *config.Config, remote *analytics.Client) []Source {
	sources := []Source{
		NewCSVSource("exam-results", merge.SourceSelfExam, cfg.Sources.ExamExportPath, mapExamRow),
		NewSQLiteSource("registrations", merge.SourceSelfRegistration, cfg.Sources.RegistrationDBPath,
			`SELECT account_id, email, handle, name, company, country FROM accounts`, mapRegistrationRow),
		NewCSVSource("billing-accounts", merge.SourceBillingCustomer, cfg.Sources.BillingExportPath, mapBillingRow),
	}

	if remote != nil {
		sources = append(sources,
			NewRemoteSource("sales-users", merge.SourceSalesUser, remote, salesUserQuery, mapCompanyContactRow),
			NewRemoteSource("sales-orgs", merge.SourceSalesOrg, remote, salesOrgQuery, mapCompanyContactRow),
			NewRemoteSource("partner-credentials", merge.SourcePartnerCredential, remote, partnerQuery, mapCompanyContactRow),
			NewRemoteSource("org-memberships", merge.SourceOrgMembership, remote, orgMemberQuery, mapOrgMemberRow),
			NewRemoteSource("product-usage", merge.SourceNone, remote, usageQuery, mapUsageRow),
			NewRemoteSource("learning-events", merge.SourceNone, remote, learningQuery, mapLearningRow),
		)
	}

	return sources
}

// mapExamRow converts one exam result to a partial contributing exactly
// one attempted exam. Duplicate rows for one identity sum in the merge.
func mapExamRow(raw map[string]string) merge.Partial {
	p := merge.Partial{
		AccountID:      parseID(raw["account_id"]),
		Email:          raw["email"],
		Name:           strings.TrimSpace(raw["name"]),
		Company:        strings.TrimSpace(raw["company"]),
		Country:        normalize.Country(raw["country"]),
		ExamsAttempted: 1,
	}

	examDate := parseDate(raw["exam_date"])
	p.FirstExamAt = examDate
	p.LastExamAt = examDate

	if isTruthy(raw["passed"]) {
		p.ExamsPassed = 1
		if title := normalize.CertificationName(raw["exam_title"]); title != "" {
			p.Certifications = []string{title}
		}
	}

	return p
}

func mapRegistrationRow(raw map[string]string) merge.Partial {
	return merge.Partial{
		AccountID: parseID(raw["account_id"]),
		Email:     raw["email"],
		Handle:    raw["handle"],
		Name:      strings.TrimSpace(raw["name"]),
		Company:   strings.TrimSpace(raw["company"]),
		Country:   normalize.Country(raw["country"]),
	}
}

func mapBillingRow(raw map[string]string) merge.Partial {
	return merge.Partial{
		AccountID: parseID(raw["account_id"]),
		Email:     raw["email"],
		Company:   strings.TrimSpace(raw["company"]),
		Country:   normalize.Country(raw["country"]),
	}
}

func mapCompanyContactRow(raw map[string]string) merge.Partial {
	return merge.Partial{
		Email:   raw["email"],
		Company: strings.TrimSpace(raw["company_name"]),
		Country: normalize.Country(raw["country"]),
	}
}

func mapOrgMemberRow(raw map[string]string) merge.Partial {
	return merge.Partial{
		Handle:  raw["handle"],
		Company: strings.TrimSpace(raw["company_name"]),
	}
}

func mapUsageRow(raw map[string]string) merge.Partial {
	p := merge.Partial{
		AccountID: parseID(raw["account_id"]),
		Handle:    raw["handle"],
	}

	days := parseInt(raw["active_days"])
	days90 := parseInt(raw["active_days_90d"])

	switch strings.ToLower(strings.TrimSpace(raw["product"])) {
	case "code-assist":
		p.CodeAssistDays = days
		p.CodeAssistDays90 = days90
	case "cicd", "ci/cd":
		p.CICDDays = days
		p.CICDDays90 = days90
	case "security-scan", "security-scanning":
		p.SecurityScanDays = days
		p.SecurityScanDays90 = days90
	}

	return p
}

func mapLearningRow(raw map[string]string) merge.Partial {
	p := merge.Partial{
		Handle: raw["handle"],
		Email:  raw["email"],
	}

	views := parseInt(raw["page_views"])
	sessions := parseInt(raw["sessions"])

	switch strings.ToLower(strings.TrimSpace(raw["surface"])) {
	case "tutorials", "interactive-tutorials":
		p.TutorialViews = views
		p.TutorialSessions = sessions
	case "docs", "documentation":
		p.DocsViews = views
		p.DocsSessions = sessions
	case "courses", "structured-courses":
		p.CourseViews = views
		p.CourseSessions = sessions
	}

	return p
}

func isTruthy(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "y", "pass", "passed":
		return true
	}
	return false
}

// freemailDomains never imply a company affiliation.
var freemailDomains = map[string]bool{
	"gmail.com":      true,
	"googlemail.com": true,
	"yahoo.com":      true,
	"hotmail.com":    true,
	"outlook.com":    true,
	"live.com":       true,
	"icloud.com":     true,
	"me.com":         true,
	"aol.com":        true,
	"proton.me":      true,
	"protonmail.com": true,
	"gmx.de":         true,
	"gmx.net":        true,
	"web.de":         true,
	"mail.ru":        true,
	"yandex.ru":      true,
	"qq.com":         true,
	"163.com":        true,
	"126.com":        true,
	"naver.com":      true,
}

var titleCaser = cases.Title(language.English)

// EmailDomainSet derives the lowest-priority company guesses from the
// email domains already seen in other row-sets. One row per distinct
// email; free-mail domains yield nothing.
func EmailDomainSet(partials []merge.Partial) merge.SourceSet {
	seen := make(map[string]bool)
	var rows []merge.Partial

	for _, p := range partials {
		email := strings.ToLower(strings.TrimSpace(p.Email))
		if email == "" || seen[email] {
			continue
		}
		seen[email] = true

		company := companyFromDomain(email)
		if company == "" {
			continue
		}
		rows = append(rows, merge.Partial{Email: email, Company: company})
	}

	return merge.SourceSet{
		Name:    "email-domain-guess",
		Company: merge.SourceEmailDomain,
		Rows:    rows,
	}
}

// companyFromDomain turns "ana@acme-widgets.co.uk" into "Acme Widgets".
func companyFromDomain(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return ""
	}
	domain := email[at+1:]
	if freemailDomains[domain] {
		return ""
	}

	labels := strings.Split(domain, ".")
	if len(labels) < 2 {
		return ""
	}
	// Use the registrable label, skipping country-code second levels
	// like "co" in "co.uk".
	name := labels[len(labels)-2]
	if (name == "co" || name == "com" || name == "ac" || name == "org") && len(labels) >= 3 {
		name = labels[len(labels)-3]
	}
	if name == "" {
		return ""
	}

	return titleCaser.String(strings.ReplaceAll(name, "-", " "))
}
