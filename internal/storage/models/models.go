package models

import "time"

// Learner is the canonical enriched record, one per resolved identity.
// It is the row shape of the persisted snapshot and of every cache query.
type Learner struct {
	AccountID int64  `json:"account_id"`
	Email     string `json:"email"`
	Handle    string `json:"handle"`
	Name      string `json:"name"`

	CompanyName   string `json:"company_name"`
	CompanySource string `json:"company_source"`
	Country       string `json:"country"`
	Region        string `json:"region"`

	ExamsAttempted int       `json:"exams_attempted"`
	ExamsPassed    int       `json:"exams_passed"`
	Certifications []string  `json:"certifications"`
	FirstExamAt    time.Time `json:"first_exam_at"`
	LastExamAt     time.Time `json:"last_exam_at"`

	CodeAssistDays     int `json:"code_assist_days"`
	CodeAssistDays90   int `json:"code_assist_days_90d"`
	CICDDays           int `json:"cicd_days"`
	CICDDays90         int `json:"cicd_days_90d"`
	SecurityScanDays   int `json:"security_scan_days"`
	SecurityScanDays90 int `json:"security_scan_days_90d"`

	TutorialViews    int `json:"tutorial_views"`
	TutorialSessions int `json:"tutorial_sessions"`
	DocsViews        int `json:"docs_views"`
	DocsSessions     int `json:"docs_sessions"`
	CourseViews      int `json:"course_views"`
	CourseSessions   int `json:"course_sessions"`

	LearnerStatus    string  `json:"learner_status"`
	JourneyStage     string  `json:"journey_stage"`
	SkillScore       float64 `json:"skill_score"`
	SkillLevel       string  `json:"skill_level"`
	DataQualityScore float64 `json:"data_quality_score"`
	DataQualityLevel string  `json:"data_quality_level"`
}

// TotalProductDays sums all-time engagement days across products.
func (l *Learner) TotalProductDays() int {
	return l.CodeAssistDays + l.CICDDays + l.SecurityScanDays
}

// TotalProductDays90 sums trailing-90-day engagement days across products.
func (l *Learner) TotalProductDays90() int {
	return l.CodeAssistDays90 + l.CICDDays90 + l.SecurityScanDays90
}

// TotalLearningViews sums page views across learning surfaces.
func (l *Learner) TotalLearningViews() int {
	return l.TutorialViews + l.DocsViews + l.CourseViews
}

// TotalLearningSessions sums sessions across learning surfaces.
func (l *Learner) TotalLearningSessions() int {
	return l.TutorialSessions + l.DocsSessions + l.CourseSessions
}

// LearnerFilter holds the enumerated filters accepted by list and count
// queries. Zero values mean "no constraint".
type LearnerFilter struct {
	Status           string
	JourneyStage     string
	CompanySubstring string
	Country          string
	Region           string
	IsCertified      *bool
	UsesProducts     *bool
}

// Page is the uniform paginated result envelope.
type Page struct {
	Items    []Learner `json:"items"`
	Total    int       `json:"total_count"`
	Page     int       `json:"page"`
	PageSize int       `json:"page_size"`
}

// GroupCount is one bucket of a group-by aggregation.
type GroupCount struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// SourceSyncStatus records the outcome of one source during a sync run.
type SourceSyncStatus struct {
	Source   string    `json:"source"`
	SyncedAt time.Time `json:"synced_at"`
	RowCount int       `json:"row_count"`
	Error    string    `json:"error,omitempty"`
}

// SyncStatus is the sync-status sidecar written next to the snapshot.
type SyncStatus struct {
	RunID       string             `json:"run_id"`
	StartedAt   time.Time          `json:"started_at"`
	CompletedAt time.Time          `json:"completed_at"`
	TotalRows   int                `json:"total_rows"`
	Sources     []SourceSyncStatus `json:"sources"`
	BridgeStats BridgeStats        `json:"bridge_stats"`
	DryRun      bool               `json:"dry_run,omitempty"`
}

// BridgeStats counts how merged identities were resolved. Exposed as an
// observable metric because identity coverage varies by cohort.
type BridgeStats struct {
	ByAccountID int `json:"by_account_id"`
	ByEmail     int `json:"by_email"`
	ByHandle    int `json:"by_handle"`
	NewRecords  int `json:"new_records"`
}

// QualityCategory is one category row in the data-quality report sidecar.
type QualityCategory struct {
	Category string `json:"category"`
	Passed   int    `json:"passed"`
	Failed   int    `json:"failed"`
	Warnings int    `json:"warnings"`
	Errors   int    `json:"errors"`
}

// QualityReport is the data-quality report sidecar.
type QualityReport struct {
	GeneratedAt time.Time         `json:"generated_at"`
	Categories  []QualityCategory `json:"categories"`
}
