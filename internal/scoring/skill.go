package scoring

import (
	"math"
	"time"

	"github.com/learner-analytics/backend/internal/storage/models"
)

// Weights for the five skill dimensions. Must sum to 1.0; validated by
// the config layer.
type Weights struct {
	Learning      float64
	ProductUsage  float64
	Certification float64
	Consistency   float64
	Growth        float64
}

// DefaultWeights matches the documented default configuration.
func DefaultWeights() Weights {
	return Weights{
		Learning:      0.25,
		ProductUsage:  0.25,
		Certification: 0.30,
		Consistency:   0.10,
		Growth:        0.10,
	}
}

// SkillLevel buckets for the composite score.
const (
	LevelExploring  = "Exploring"
	LevelDeveloping = "Developing"
	LevelProficient = "Proficient"
	LevelAdvanced   = "Advanced"
	LevelExpert     = "Expert"
)

// SkillScore computes the weighted composite across the five dimensions,
// each independently normalized to 0-100 first. Result is clamped to
// [0, 100].
func SkillScore(l *models.Learner, w Weights, now time.Time) float64 {
	score := learningDimension(l)*w.Learning +
		productDimension(l)*w.ProductUsage +
		certificationDimension(l)*w.Certification +
		consistencyDimension(l, now)*w.Consistency +
		growthDimension(l)*w.Growth

	return clamp(score, 0, 100)
}

// SkillLevelFor maps a score to its bucket. Boundaries are inclusive on
// the upper edge: 15.0 is still Exploring, 15.1 is Developing.
func SkillLevelFor(score float64) string {
	switch {
	case score <= 15:
		return LevelExploring
	case score <= 35:
		return LevelDeveloping
	case score <= 55:
		return LevelProficient
	case score <= 75:
		return LevelAdvanced
	default:
		return LevelExpert
	}
}

// learningDimension rewards page views and sessions across all learning
// surfaces, saturating at 100.
func learningDimension(l *models.Learner) float64 {
	views := float64(l.TotalLearningViews())
	sessions := float64(l.TotalLearningSessions())
	return clamp(views/5+sessions*2, 0, 100)
}

// productDimension rewards all-time engagement days across products.
func productDimension(l *models.Learner) float64 {
	return clamp(float64(l.TotalProductDays())*2, 0, 100)
}

// certificationDimension rewards passed exams and distinct areas.
func certificationDimension(l *models.Learner) float64 {
	return clamp(float64(l.ExamsPassed)*20+float64(len(l.Certifications))*10, 0, 100)
}

// consistencyDimension rewards sustained activity: recent engagement days
// plus tenure since the first exam.
func consistencyDimension(l *models.Learner, now time.Time) float64 {
	recent := clamp(float64(l.TotalProductDays90())*2, 0, 70)

	var tenure float64
	if !l.FirstExamAt.IsZero() {
		months := now.Sub(l.FirstExamAt).Hours() / (24 * 30)
		tenure = clamp(months*2.5, 0, 30)
	}

	return clamp(recent+tenure, 0, 100)
}

// growthDimension compares the trailing-90-day activity rate against the
// all-time rate. A learner whose recent pace meets or exceeds their
// historical pace scores high; an inactive learner scores zero.
func growthDimension(l *models.Learner) float64 {
	allTime := float64(l.TotalProductDays())
	recent := float64(l.TotalProductDays90())
	if allTime == 0 {
		if recent > 0 {
			return 100
		}
		return 0
	}

	// Fraction of all-time activity that happened in the last quarter.
	ratio := recent / allTime
	return clamp(math.Sqrt(ratio)*100, 0, 100)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
