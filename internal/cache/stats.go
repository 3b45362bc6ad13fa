package cache

import (
	"database/sql"

	"go.uber.org/zap"

	"github.com/learner-analytics/backend/pkg/logger"
)

// Overview is the aggregate rollup behind the stats endpoints.
type Overview struct {
	TotalLearners      int     `json:"total_learners"`
	CertifiedLearners  int     `json:"certified_learners"`
	ActiveProductUsers int     `json:"active_product_users"`
	TotalProductDays   int     `json:"total_product_days"`
	TotalProductDays90 int     `json:"total_product_days_90d"`
	TotalLearningViews int     `json:"total_learning_views"`
	TotalExamsPassed   int     `json:"total_exams_passed"`
	AverageSkillScore  float64 `json:"average_skill_score"`
}

// Overview computes the aggregate rollup in a single pass. Degrades to
// zeroes on store failure.
func (s *Service) Overview() Overview {
	var o Overview
	err := s.query(func(db *sql.DB) error {
		return db.QueryRow(`SELECT
			COUNT(*),
			COALESCE(SUM(is_certified), 0),
			COALESCE(SUM(uses_products), 0),
			COALESCE(SUM(code_assist_days + cicd_days + security_scan_days), 0),
			COALESCE(SUM(code_assist_days_90d + cicd_days_90d + security_scan_days_90d), 0),
			COALESCE(SUM(tutorial_views + docs_views + course_views), 0),
			COALESCE(SUM(exams_passed), 0),
			COALESCE(AVG(skill_score), 0)
			FROM `+learnersTable).Scan(
			&o.TotalLearners,
			&o.CertifiedLearners,
			&o.ActiveProductUsers,
			&o.TotalProductDays,
			&o.TotalProductDays90,
			&o.TotalLearningViews,
			&o.TotalExamsPassed,
			&o.AverageSkillScore,
		)
	})
	if err != nil {
		logger.Error("Overview query failed", zap.Error(err))
		return Overview{}
	}
	return o
}
