// Package scoring derives the classification and score fields from a
// merged learner record. Every function here is pure: same record in,
// same values out.
package scoring

import (
	"time"

	"github.com/learner-analytics/backend/internal/storage/models"
)

// LearnerStatus is the categorical engagement ladder. Integer values
// order the ladder so rank comparisons are explicit.
type LearnerStatus int

const (
	StatusRegistered LearnerStatus = iota
	StatusEngaged
	StatusLearning
	StatusCertified
	StatusMultiCertified
	StatusSpecialist
	StatusChampion
)

func (s LearnerStatus) String() string {
	switch s {
	case StatusChampion:
		return "Champion"
	case StatusSpecialist:
		return "Specialist"
	case StatusMultiCertified:
		return "Multi-Certified"
	case StatusCertified:
		return "Certified"
	case StatusLearning:
		return "Learning"
	case StatusEngaged:
		return "Engaged"
	default:
		return "Registered"
	}
}

// JourneyStage is the ordered funnel position.
type JourneyStage int

const (
	StageRegistered JourneyStage = iota
	StageEngaged
	StageLearning
	StageCertified
	StagePowerUser
	StageSpecialist
	StageChampion
)

func (s JourneyStage) String() string {
	switch s {
	case StageChampion:
		return "Champion"
	case StageSpecialist:
		return "Specialist"
	case StagePowerUser:
		return "Power User"
	case StageCertified:
		return "Certified"
	case StageLearning:
		return "Learning"
	case StageEngaged:
		return "Engaged"
	default:
		return "Registered"
	}
}

// Classification thresholds. Each later rung's criteria strictly contain
// the previous rung's, which is what makes the ladders monotonic.
const (
	learningViewsThreshold    = 50
	learningSessionsThreshold = 1
	journeyLearningViews      = 20
	journeySessionsThreshold  = 3
	powerUserDays90           = 10
	specialistCerts           = 3
	specialistAreas           = 2
	championCerts             = 5
	championAreas             = 3
	championRecencyDays       = 365
)

// StatusFor classifies a learner on the engagement ladder; the highest
// qualifying rung wins.
func StatusFor(l *models.Learner, now time.Time) LearnerStatus {
	certs := l.ExamsPassed
	areas := len(l.Certifications)
	recentlyCertified := !l.LastExamAt.IsZero() && now.Sub(l.LastExamAt) <= championRecencyDays*24*time.Hour

	switch {
	case certs >= championCerts && areas >= championAreas && recentlyCertified:
		return StatusChampion
	case certs >= specialistCerts && areas >= specialistAreas:
		return StatusSpecialist
	case certs >= 2:
		return StatusMultiCertified
	case certs >= 1:
		return StatusCertified
	case l.TotalLearningViews() >= learningViewsThreshold || l.CourseSessions >= learningSessionsThreshold:
		return StatusLearning
	case l.TotalProductDays() > 0 || l.TotalLearningViews() > 0 || l.TotalLearningSessions() > 0:
		return StatusEngaged
	default:
		return StatusRegistered
	}
}

// JourneyStageFor assigns the furthest funnel stage whose entry criteria
// are satisfied. Each stage's predicate requires the previous stage, so
// the assignment is monotonic by construction.
func JourneyStageFor(l *models.Learner, now time.Time) JourneyStage {
	engaged := l.TotalProductDays() > 0 || l.TotalLearningViews() > 0 || l.TotalLearningSessions() > 0
	learning := engaged &&
		(l.TotalLearningViews() >= journeyLearningViews || l.TotalLearningSessions() >= journeySessionsThreshold)
	certified := l.ExamsPassed >= 1
	powerUser := certified && l.TotalProductDays90() >= powerUserDays90
	specialist := certified && l.ExamsPassed >= specialistCerts && len(l.Certifications) >= specialistAreas
	champion := specialist && l.ExamsPassed >= championCerts && len(l.Certifications) >= championAreas &&
		!l.LastExamAt.IsZero() && now.Sub(l.LastExamAt) <= championRecencyDays*24*time.Hour

	switch {
	case champion:
		return StageChampion
	case specialist:
		return StageSpecialist
	case powerUser:
		return StagePowerUser
	case certified:
		return StageCertified
	case learning:
		return StageLearning
	case engaged:
		return StageEngaged
	default:
		return StageRegistered
	}
}
