// Package snapshot reads and writes the persisted merged table and its
// JSON sidecars. The snapshot is a full recomputation each sync run,
// written atomically so the serving cache never reads a half-written
// file.
package snapshot

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/learner-analytics/backend/internal/storage/models"
	"github.com/learner-analytics/backend/pkg/logger"
)

// Columns is the fixed snapshot column order. The cache layer's table
// schema mirrors this list.
var Columns = []string{
	"account_id", "email", "handle", "name",
	"company_name", "company_source", "country", "region",
	"exams_attempted", "exams_passed", "certifications", "first_exam_at", "last_exam_at",
	"code_assist_days", "code_assist_days_90d", "cicd_days", "cicd_days_90d",
	"security_scan_days", "security_scan_days_90d",
	"tutorial_views", "tutorial_sessions", "docs_views", "docs_sessions",
	"course_views", "course_sessions",
	"learner_status", "journey_stage", "skill_score", "skill_level",
	"data_quality_score", "data_quality_level",
}

const certSeparator = ";"

// Write persists the merged table. It writes to a temp file in the same
// directory and renames it over the target, so readers only ever see a
// complete snapshot.
func Write(path string, learners []*models.Learner) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".snapshot-*.csv")
	if err != nil {
		return fmt.Errorf("failed to create temp snapshot: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	writer := csv.NewWriter(tmp)
	if err := writer.Write(Columns); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, l := range learners {
		if err := writer.Write(toRow(l)); err != nil {
			tmp.Close()
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to flush snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp snapshot: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}

	logger.Info("Snapshot written", zap.String("path", path), zap.Int("rows", len(learners)))
	return nil
}

// Read loads every learner row from a snapshot file.
func Read(path string) ([]models.Learner, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("snapshot is empty")
	}

	index := make(map[string]int, len(records[0]))
	for i, col := range records[0] {
		index[col] = i
	}

	learners := make([]models.Learner, 0, len(records)-1)
	for _, record := range records[1:] {
		get := func(col string) string {
			if i, ok := index[col]; ok && i < len(record) {
				return record[i]
			}
			return ""
		}
		learners = append(learners, fromRow(get))
	}

	return learners, nil
}

func toRow(l *models.Learner) []string {
	return []string{
		strconv.FormatInt(l.AccountID, 10),
		l.Email,
		l.Handle,
		l.Name,
		l.CompanyName,
		l.CompanySource,
		l.Country,
		l.Region,
		strconv.Itoa(l.ExamsAttempted),
		strconv.Itoa(l.ExamsPassed),
		strings.Join(l.Certifications, certSeparator),
		formatTime(l.FirstExamAt),
		formatTime(l.LastExamAt),
		strconv.Itoa(l.CodeAssistDays),
		strconv.Itoa(l.CodeAssistDays90),
		strconv.Itoa(l.CICDDays),
		strconv.Itoa(l.CICDDays90),
		strconv.Itoa(l.SecurityScanDays),
		strconv.Itoa(l.SecurityScanDays90),
		strconv.Itoa(l.TutorialViews),
		strconv.Itoa(l.TutorialSessions),
		strconv.Itoa(l.DocsViews),
		strconv.Itoa(l.DocsSessions),
		strconv.Itoa(l.CourseViews),
		strconv.Itoa(l.CourseSessions),
		l.LearnerStatus,
		l.JourneyStage,
		strconv.FormatFloat(l.SkillScore, 'f', 1, 64),
		l.SkillLevel,
		strconv.FormatFloat(l.DataQualityScore, 'f', 1, 64),
		l.DataQualityLevel,
	}
}

func fromRow(get func(string) string) models.Learner {
	l := models.Learner{
		Email:            get("email"),
		Handle:           get("handle"),
		Name:             get("name"),
		CompanyName:      get("company_name"),
		CompanySource:    get("company_source"),
		Country:          get("country"),
		Region:           get("region"),
		LearnerStatus:    get("learner_status"),
		JourneyStage:     get("journey_stage"),
		SkillLevel:       get("skill_level"),
		DataQualityLevel: get("data_quality_level"),
	}

	l.AccountID, _ = strconv.ParseInt(get("account_id"), 10, 64)
	l.ExamsAttempted, _ = strconv.Atoi(get("exams_attempted"))
	l.ExamsPassed, _ = strconv.Atoi(get("exams_passed"))
	l.CodeAssistDays, _ = strconv.Atoi(get("code_assist_days"))
	l.CodeAssistDays90, _ = strconv.Atoi(get("code_assist_days_90d"))
	l.CICDDays, _ = strconv.Atoi(get("cicd_days"))
	l.CICDDays90, _ = strconv.Atoi(get("cicd_days_90d"))
	l.SecurityScanDays, _ = strconv.Atoi(get("security_scan_days"))
	l.SecurityScanDays90, _ = strconv.Atoi(get("security_scan_days_90d"))
	l.TutorialViews, _ = strconv.Atoi(get("tutorial_views"))
	l.TutorialSessions, _ = strconv.Atoi(get("tutorial_sessions"))
	l.DocsViews, _ = strconv.Atoi(get("docs_views"))
	l.DocsSessions, _ = strconv.Atoi(get("docs_sessions"))
	l.CourseViews, _ = strconv.Atoi(get("course_views"))
	l.CourseSessions, _ = strconv.Atoi(get("course_sessions"))
	l.SkillScore, _ = strconv.ParseFloat(get("skill_score"), 64)
	l.DataQualityScore, _ = strconv.ParseFloat(get("data_quality_score"), 64)

	if certs := get("certifications"); certs != "" {
		l.Certifications = strings.Split(certs, certSeparator)
	}
	l.FirstExamAt = parseTime(get("first_exam_at"))
	l.LastExamAt = parseTime(get("last_exam_at"))

	return l
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func parseTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}
