package merge

import (
	"time"

	"github.com/learner-analytics/backend/internal/storage/models"
)

// Policy is the per-field conflict resolution rule.
type Policy int

const (
	// OverwriteByPriority lets the highest-priority non-empty value win.
	OverwriteByPriority Policy = iota
	// Sum adds values, used for count fields where duplicate rows each
	// carry part of the total.
	Sum
	// Max keeps the largest value.
	Max
	// FirstNonEmpty keeps the first value seen and never replaces it.
	FirstNonEmpty
	// Union merges list values, deduplicated.
	Union
	// EarliestTime and LatestTime keep the boundary timestamps.
	EarliestTime
	LatestTime
)

// Partial is one source row: whichever identity keys the source has,
// plus whatever attributes it carries. Zero values mean "not supplied".
type Partial struct {
	AccountID int64
	Email     string
	Handle    string
	Name      string

	Company string
	Country string

	ExamsAttempted int
	ExamsPassed    int
	Certifications []string
	FirstExamAt    time.Time
	LastExamAt     time.Time

	CodeAssistDays     int
	CodeAssistDays90   int
	CICDDays           int
	CICDDays90         int
	SecurityScanDays   int
	SecurityScanDays90 int

	TutorialViews    int
	TutorialSessions int
	DocsViews        int
	DocsSessions     int
	CourseViews      int
	CourseSessions   int
}

// fieldRule binds one Learner attribute to its merge policy. The table
// is the single place field precedence semantics live.
type fieldRule struct {
	name   string
	policy Policy
	apply  func(dst *models.Learner, p *Partial, tag CompanySource, pol Policy)
}

var fieldRules = []fieldRule{
	{"name", FirstNonEmpty, func(dst *models.Learner, p *Partial, _ CompanySource, pol Policy) {
		mergeString(&dst.Name, p.Name, pol)
	}},
	{"company_name", OverwriteByPriority, func(dst *models.Learner, p *Partial, tag CompanySource, pol Policy) {
		if p.Company == "" {
			return
		}
		if mergeString(&dst.CompanyName, p.Company, pol) {
			dst.CompanySource = tag.String()
		}
	}},
	{"country", OverwriteByPriority, func(dst *models.Learner, p *Partial, _ CompanySource, pol Policy) {
		mergeString(&dst.Country, p.Country, pol)
	}},
	{"exams_attempted", Sum, func(dst *models.Learner, p *Partial, _ CompanySource, pol Policy) {
		mergeInt(&dst.ExamsAttempted, p.ExamsAttempted, pol)
	}},
	{"exams_passed", Sum, func(dst *models.Learner, p *Partial, _ CompanySource, pol Policy) {
		mergeInt(&dst.ExamsPassed, p.ExamsPassed, pol)
	}},
	{"certifications", Union, func(dst *models.Learner, p *Partial, _ CompanySource, _ Policy) {
		dst.Certifications = unionStrings(dst.Certifications, p.Certifications)
	}},
	{"first_exam_at", EarliestTime, func(dst *models.Learner, p *Partial, _ CompanySource, pol Policy) {
		mergeTime(&dst.FirstExamAt, p.FirstExamAt, pol)
	}},
	{"last_exam_at", LatestTime, func(dst *models.Learner, p *Partial, _ CompanySource, pol Policy) {
		mergeTime(&dst.LastExamAt, p.LastExamAt, pol)
	}},
	{"code_assist_days", Sum, func(dst *models.Learner, p *Partial, _ CompanySource, pol Policy) {
		mergeInt(&dst.CodeAssistDays, p.CodeAssistDays, pol)
	}},
	{"code_assist_days_90d", Max, func(dst *models.Learner, p *Partial, _ CompanySource, pol Policy) {
		mergeInt(&dst.CodeAssistDays90, p.CodeAssistDays90, pol)
	}},
	{"cicd_days", Sum, func(dst *models.Learner, p *Partial, _ CompanySource, pol Policy) {
		mergeInt(&dst.CICDDays, p.CICDDays, pol)
	}},
	{"cicd_days_90d", Max, func(dst *models.Learner, p *Partial, _ CompanySource, pol Policy) {
		mergeInt(&dst.CICDDays90, p.CICDDays90, pol)
	}},
	{"security_scan_days", Sum, func(dst *models.Learner, p *Partial, _ CompanySource, pol Policy) {
		mergeInt(&dst.SecurityScanDays, p.SecurityScanDays, pol)
	}},
	{"security_scan_days_90d", Max, func(dst *models.Learner, p *Partial, _ CompanySource, pol Policy) {
		mergeInt(&dst.SecurityScanDays90, p.SecurityScanDays90, pol)
	}},
	{"tutorial_views", Sum, func(dst *models.Learner, p *Partial, _ CompanySource, pol Policy) {
		mergeInt(&dst.TutorialViews, p.TutorialViews, pol)
	}},
	{"tutorial_sessions", Sum, func(dst *models.Learner, p *Partial, _ CompanySource, pol Policy) {
		mergeInt(&dst.TutorialSessions, p.TutorialSessions, pol)
	}},
	{"docs_views", Sum, func(dst *models.Learner, p *Partial, _ CompanySource, pol Policy) {
		mergeInt(&dst.DocsViews, p.DocsViews, pol)
	}},
	{"docs_sessions", Sum, func(dst *models.Learner, p *Partial, _ CompanySource, pol Policy) {
		mergeInt(&dst.DocsSessions, p.DocsSessions, pol)
	}},
	{"course_views", Sum, func(dst *models.Learner, p *Partial, _ CompanySource, pol Policy) {
		mergeInt(&dst.CourseViews, p.CourseViews, pol)
	}},
	{"course_sessions", Sum, func(dst *models.Learner, p *Partial, _ CompanySource, pol Policy) {
		mergeInt(&dst.CourseSessions, p.CourseSessions, pol)
	}},
}

// applyRules merges one partial into the accumulated record. overwrite
// controls whether OverwriteByPriority fields replace existing values:
// true when applying sources in ascending priority, false when
// collapsing duplicate rows within one source.
func applyRules(dst *models.Learner, p *Partial, tag CompanySource, overwrite bool) {
	for _, rule := range fieldRules {
		pol := rule.policy
		if pol == OverwriteByPriority && !overwrite {
			pol = FirstNonEmpty
		}
		rule.apply(dst, p, tag, pol)
	}
}

// mergeString applies a string policy; reports whether dst was written.
func mergeString(dst *string, src string, pol Policy) bool {
	if src == "" {
		return false
	}
	switch pol {
	case OverwriteByPriority:
		*dst = src
		return true
	case FirstNonEmpty:
		if *dst == "" {
			*dst = src
			return true
		}
	}
	return false
}

func mergeInt(dst *int, src int, pol Policy) {
	if src == 0 {
		return
	}
	switch pol {
	case Sum:
		*dst += src
	case Max:
		if src > *dst {
			*dst = src
		}
	case OverwriteByPriority:
		*dst = src
	case FirstNonEmpty:
		if *dst == 0 {
			*dst = src
		}
	}
}

func mergeTime(dst *time.Time, src time.Time, pol Policy) {
	if src.IsZero() {
		return
	}
	switch pol {
	case EarliestTime:
		if dst.IsZero() || src.Before(*dst) {
			*dst = src
		}
	case LatestTime:
		if dst.IsZero() || src.After(*dst) {
			*dst = src
		}
	}
}

func unionStrings(existing, incoming []string) []string {
	if len(incoming) == 0 {
		return existing
	}
	seen := make(map[string]bool, len(existing))
	for _, s := range existing {
		seen[s] = true
	}
	for _, s := range incoming {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		existing = append(existing, s)
	}
	return existing
}
