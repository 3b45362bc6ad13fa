package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learner-analytics/backend/internal/storage/models"
)

var testNow = time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

func TestStatusFor_Ladder(t *testing.T) {
	tests := []struct {
		name    string
		learner models.Learner
		want    LearnerStatus
	}{
		{
			name:    "empty record is registered",
			learner: models.Learner{},
			want:    StatusRegistered,
		},
		{
			name:    "any activity is engaged",
			learner: models.Learner{CodeAssistDays: 1},
			want:    StatusEngaged,
		},
		{
			name:    "moderate views with product usage stays engaged",
			learner: models.Learner{TutorialViews: 45, CodeAssistDays: 10},
			want:    StatusEngaged,
		},
		{
			name:    "fifty views crosses into learning",
			learner: models.Learner{TutorialViews: 50},
			want:    StatusLearning,
		},
		{
			name:    "one course session crosses into learning",
			learner: models.Learner{CourseSessions: 1, DocsViews: 3},
			want:    StatusLearning,
		},
		{
			name:    "one passed exam is certified",
			learner: models.Learner{ExamsPassed: 1},
			want:    StatusCertified,
		},
		{
			name:    "two passed exams is multi-certified",
			learner: models.Learner{ExamsPassed: 2},
			want:    StatusMultiCertified,
		},
		{
			name: "three certs in two areas is specialist",
			learner: models.Learner{
				ExamsPassed:    3,
				Certifications: []string{"Security", "Platform"},
			},
			want: StatusSpecialist,
		},
		{
			name: "five recent certs in three areas is champion",
			learner: models.Learner{
				ExamsPassed:    5,
				Certifications: []string{"Security", "Platform", "Data"},
				LastExamAt:     testNow.AddDate(0, -6, 0),
			},
			want: StatusChampion,
		},
		{
			name: "stale champion profile falls back to specialist",
			learner: models.Learner{
				ExamsPassed:    5,
				Certifications: []string{"Security", "Platform", "Data"},
				LastExamAt:     testNow.AddDate(-2, 0, 0),
			},
			want: StatusSpecialist,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(&tt.learner, testNow))
		})
	}
}

func TestJourneyStageFor(t *testing.T) {
	tests := []struct {
		name    string
		learner models.Learner
		want    JourneyStage
	}{
		{"no signals", models.Learner{}, StageRegistered},
		{"single product day", models.Learner{CICDDays: 1}, StageEngaged},
		{"twenty views reach learning", models.Learner{TutorialViews: 20}, StageLearning},
		{"three sessions reach learning", models.Learner{DocsSessions: 3}, StageLearning},
		{"passed exam reaches certified", models.Learner{ExamsPassed: 1}, StageCertified},
		{
			"certified with recent usage is power user",
			models.Learner{ExamsPassed: 1, CodeAssistDays90: 10, CodeAssistDays: 10},
			StagePowerUser,
		},
		{
			"heavy usage without certification stays learning",
			models.Learner{CodeAssistDays90: 30, CodeAssistDays: 30, TutorialViews: 25},
			StageLearning,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, JourneyStageFor(&tt.learner, testNow))
		})
	}
}

func TestJourneyStage_RequiresEarlierStages(t *testing.T) {
	// A certified learner with zero engagement signals must not rank
	// below one with signals; certification alone grants the stage.
	bare := models.Learner{ExamsPassed: 1}
	assert.Equal(t, StageCertified, JourneyStageFor(&bare, testNow))
}

func TestSkillScore_Bounds(t *testing.T) {
	w := DefaultWeights()

	empty := models.Learner{}
	assert.Equal(t, 0.0, SkillScore(&empty, w, testNow))

	maxed := models.Learner{
		TutorialViews:    2000,
		CourseSessions:   500,
		CodeAssistDays:   300,
		CodeAssistDays90: 90,
		ExamsPassed:      10,
		Certifications:   []string{"a", "b", "c", "d", "e"},
		FirstExamAt:      testNow.AddDate(-3, 0, 0),
	}
	score := SkillScore(&maxed, w, testNow)
	assert.LessOrEqual(t, score, 100.0)
	assert.Greater(t, score, 80.0)
}

func TestSkillScore_MonotonicInViews(t *testing.T) {
	w := DefaultWeights()
	prev := -1.0
	for views := 0; views <= 500; views += 50 {
		l := models.Learner{TutorialViews: views}
		score := SkillScore(&l, w, testNow)
		require.GreaterOrEqual(t, score, prev, "score must not decrease as views grow")
		prev = score
	}
}

func TestSkillLevelFor_BucketBoundaries(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{0, LevelExploring},
		{15.0, LevelExploring},
		{15.1, LevelDeveloping},
		{35.0, LevelDeveloping},
		{35.1, LevelProficient},
		{55.0, LevelProficient},
		{55.1, LevelAdvanced},
		{75.0, LevelAdvanced},
		{75.1, LevelExpert},
		{100, LevelExpert},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, SkillLevelFor(tt.score), "score %.1f", tt.score)
	}
}

func TestDataQualityScore(t *testing.T) {
	tests := []struct {
		name    string
		learner models.Learner
		want    float64
	}{
		{"empty record", models.Learner{}, 0},
		{"identity only", models.Learner{AccountID: 7, Email: "a@b.com", Handle: "a"}, 30},
		{
			"weak company attribution earns no bonus",
			models.Learner{CompanyName: "Acme", CompanySource: "email-domain"},
			15,
		},
		{
			"strong company attribution earns the bonus",
			models.Learner{CompanyName: "Acme", CompanySource: "billing-customer"},
			25,
		},
		{
			"fully populated record",
			models.Learner{
				AccountID:     7,
				Email:         "a@b.com",
				Handle:        "a",
				CompanyName:   "Acme",
				CompanySource: "billing-customer",
				Country:       "United States",
				TutorialViews: 5,
				CICDDays:      2,
			},
			100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DataQualityScore(&tt.learner))
		})
	}
}

func TestDataQualityLevelFor(t *testing.T) {
	assert.Equal(t, QualityLow, DataQualityLevelFor(39.9))
	assert.Equal(t, QualityMedium, DataQualityLevelFor(40))
	assert.Equal(t, QualityMedium, DataQualityLevelFor(69.9))
	assert.Equal(t, QualityHigh, DataQualityLevelFor(70))
}

func TestEnrich_StampsAllDerivedFields(t *testing.T) {
	l := models.Learner{
		AccountID:      42,
		Email:          "dev@acme.io",
		CompanyName:    "Acme",
		CompanySource:  "sales-record-user",
		TutorialViews:  60,
		CodeAssistDays: 5,
	}

	Enrich(&l, DefaultWeights(), testNow)

	assert.Equal(t, "Learning", l.LearnerStatus)
	assert.Equal(t, "Learning", l.JourneyStage)
	assert.NotEmpty(t, l.SkillLevel)
	assert.Greater(t, l.SkillScore, 0.0)
	assert.Greater(t, l.DataQualityScore, 0.0)
	assert.NotEmpty(t, l.DataQualityLevel)

	// Idempotent: re-enriching does not drift.
	before := l
	Enrich(&l, DefaultWeights(), testNow)
	assert.Equal(t, before, l)
}
