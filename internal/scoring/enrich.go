package scoring

import (
	"math"
	"time"

	"github.com/learner-analytics/backend/internal/storage/models"
)

// Enrich stamps every derived field onto the record in place. Idempotent:
// derived fields are fully recomputed from the underlying counts.
func Enrich(l *models.Learner, w Weights, now time.Time) {
	l.LearnerStatus = StatusFor(l, now).String()
	l.JourneyStage = JourneyStageFor(l, now).String()
	l.SkillScore = round1(SkillScore(l, w, now))
	l.SkillLevel = SkillLevelFor(l.SkillScore)
	l.DataQualityScore = DataQualityScore(l)
	l.DataQualityLevel = DataQualityLevelFor(l.DataQualityScore)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
