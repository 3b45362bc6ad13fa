package pipeline

import (
	"time"

	"github.com/learner-analytics/backend/internal/storage/models"
)

// qualityCheck classifies one record for one category. ok counts as
// passed, warn as a warning, anything else as failed.
type qualityCheck struct {
	category string
	check    func(l *models.Learner) (ok, warn bool)
}

var qualityChecks = []qualityCheck{
	{
		category: "identity",
		check: func(l *models.Learner) (bool, bool) {
			if l.AccountID > 0 && l.Email != "" {
				return true, false
			}
			if l.AccountID > 0 || l.Email != "" || l.Handle != "" {
				return false, true
			}
			return false, false
		},
	},
	{
		category: "company_attribution",
		check: func(l *models.Learner) (bool, bool) {
			if l.CompanyName == "" {
				return false, false
			}
			// A bare domain guess is attribution of last resort.
			return true, l.CompanySource == "email-domain"
		},
	},
	{
		category: "geography",
		check: func(l *models.Learner) (bool, bool) {
			if l.Country == "" {
				return false, false
			}
			return true, l.Region == "Other"
		},
	},
	{
		category: "engagement_signal",
		check: func(l *models.Learner) (bool, bool) {
			hasLearning := l.TotalLearningViews() > 0 || l.TotalLearningSessions() > 0
			hasProduct := l.TotalProductDays() > 0
			if hasLearning && hasProduct {
				return true, false
			}
			if hasLearning || hasProduct {
				return true, true
			}
			return false, false
		},
	},
	{
		category: "exam_consistency",
		check: func(l *models.Learner) (bool, bool) {
			if l.ExamsPassed > l.ExamsAttempted {
				return false, false
			}
			if l.ExamsPassed > 0 && len(l.Certifications) == 0 {
				return true, true
			}
			return true, false
		},
	},
}

func buildQualityReport(learners []*models.Learner, now time.Time) *models.QualityReport {
	report := &models.QualityReport{GeneratedAt: now}

	for _, qc := range qualityChecks {
		cat := models.QualityCategory{Category: qc.category}
		for _, l := range learners {
			ok, warn := qc.check(l)
			switch {
			case ok && warn:
				cat.Passed++
				cat.Warnings++
			case ok:
				cat.Passed++
			case warn:
				cat.Warnings++
				cat.Failed++
			default:
				cat.Failed++
			}
		}
		report.Categories = append(report.Categories, cat)
	}

	return report
}
