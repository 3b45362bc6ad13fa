package scoring

import "github.com/learner-analytics/backend/internal/storage/models"

// Data-quality levels.
const (
	QualityLow    = "low"
	QualityMedium = "medium"
	QualityHigh   = "high"
)

// Field-group point allocations; credits sum to 100 for a fully
// populated record.
const (
	pointsAccountID     = 15.0
	pointsEmail         = 10.0
	pointsHandle        = 5.0
	pointsCompanyName   = 15.0
	pointsCompanyStrong = 10.0
	pointsCountry       = 5.0
	pointsLearning      = 20.0
	pointsProduct       = 20.0
)

// DataQualityScore is a completeness score over fixed field groups:
// identity (30), company attribution (30), learning signals (20),
// product-usage signals (20). Each field earns its allocation when
// non-empty.
func DataQualityScore(l *models.Learner) float64 {
	var score float64

	if l.AccountID > 0 {
		score += pointsAccountID
	}
	if l.Email != "" {
		score += pointsEmail
	}
	if l.Handle != "" {
		score += pointsHandle
	}

	if l.CompanyName != "" {
		score += pointsCompanyName
		// Attribution stronger than an email-domain guess earns the
		// confidence bonus.
		if l.CompanySource != "" && l.CompanySource != "none" && l.CompanySource != "email-domain" {
			score += pointsCompanyStrong
		}
	}
	if l.Country != "" {
		score += pointsCountry
	}

	if l.TotalLearningViews() > 0 || l.TotalLearningSessions() > 0 {
		score += pointsLearning
	}
	if l.TotalProductDays() > 0 {
		score += pointsProduct
	}

	return score
}

// DataQualityLevelFor buckets the completeness score.
func DataQualityLevelFor(score float64) string {
	switch {
	case score < 40:
		return QualityLow
	case score < 70:
		return QualityMedium
	default:
		return QualityHigh
	}
}
