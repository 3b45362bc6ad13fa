package snapshot

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learner-analytics/backend/internal/storage/models"
)

func sampleLearners() []*models.Learner {
	return []*models.Learner{
		{
			AccountID:        101,
			Email:            "ana@acme.com",
			Handle:           "anadev",
			Name:             "Ana Souza",
			CompanyName:      "Acme Corporation",
			CompanySource:    "billing-customer",
			Country:          "Brazil",
			Region:           "LATAM",
			ExamsAttempted:   3,
			ExamsPassed:      2,
			Certifications:   []string{"Certified Associate", "CI/CD Specialist"},
			FirstExamAt:      time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
			LastExamAt:       time.Date(2025, 11, 20, 9, 30, 0, 0, time.UTC),
			CodeAssistDays:   40,
			CodeAssistDays90: 12,
			TutorialViews:    88,
			TutorialSessions: 9,
			LearnerStatus:    "Multi-Certified",
			JourneyStage:     "Power User",
			SkillScore:       61.5,
			SkillLevel:       "Advanced",
			DataQualityScore: 100,
			DataQualityLevel: "high",
		},
		{
			Email:  "ghost@nowhere.io",
			Handle: "ghost",
		},
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "learners_enriched.csv")
	original := sampleLearners()

	require.NoError(t, Write(path, original))

	loaded, err := Read(path)
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	got := loaded[0]
	want := original[0]
	assert.Equal(t, want.AccountID, got.AccountID)
	assert.Equal(t, want.Email, got.Email)
	assert.Equal(t, want.CompanySource, got.CompanySource)
	assert.Equal(t, want.Certifications, got.Certifications)
	assert.True(t, want.FirstExamAt.Equal(got.FirstExamAt))
	assert.True(t, want.LastExamAt.Equal(got.LastExamAt))
	assert.Equal(t, want.CodeAssistDays90, got.CodeAssistDays90)
	assert.Equal(t, want.SkillScore, got.SkillScore)
	assert.Equal(t, want.DataQualityLevel, got.DataQualityLevel)

	// Sparse record: zero values survive, no phantom data appears.
	sparse := loaded[1]
	assert.Zero(t, sparse.AccountID)
	assert.Empty(t, sparse.Certifications)
	assert.True(t, sparse.FirstExamAt.IsZero())
}

func TestSnapshotHeaderMatchesColumnOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snap.csv")
	require.NoError(t, Write(path, sampleLearners()))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	header, err := csv.NewReader(f).Read()
	require.NoError(t, err)
	assert.Equal(t, Columns, header)
}

func TestSnapshotWriteIsAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "snap.csv")

	require.NoError(t, Write(path, sampleLearners()))
	require.NoError(t, Write(path, sampleLearners()[:1]))

	// No temp files left behind after the rename.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "snap.csv", entries[0].Name())

	loaded, err := Read(path)
	require.NoError(t, err)
	assert.Len(t, loaded, 1)
}

func TestReadMissingSnapshot(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "absent.csv"))
	assert.Error(t, err)
}

func TestSidecarRoundTrip(t *testing.T) {
	dir := t.TempDir()

	status := &models.SyncStatus{
		RunID:     "run-1",
		StartedAt: time.Now().UTC().Truncate(time.Second),
		TotalRows: 2,
		Sources: []models.SourceSyncStatus{
			{Source: "exam-results", RowCount: 40},
			{Source: "billing-accounts", Error: "open failed"},
		},
		BridgeStats: models.BridgeStats{ByEmail: 12, NewRecords: 30},
	}
	statusPath := filepath.Join(dir, "sync_status.json")
	require.NoError(t, WriteSyncStatus(statusPath, status))

	loaded, err := ReadSyncStatus(statusPath)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, status.RunID, loaded.RunID)
	assert.Equal(t, status.Sources, loaded.Sources)
	assert.Equal(t, status.BridgeStats, loaded.BridgeStats)

	report := &models.QualityReport{
		GeneratedAt: time.Now().UTC().Truncate(time.Second),
		Categories: []models.QualityCategory{
			{Category: "identity", Passed: 10, Failed: 2},
		},
	}
	reportPath := filepath.Join(dir, "quality.json")
	require.NoError(t, WriteQualityReport(reportPath, report))

	loadedReport, err := ReadQualityReport(reportPath)
	require.NoError(t, err)
	require.NotNil(t, loadedReport)
	assert.Equal(t, report.Categories, loadedReport.Categories)
}

func TestSidecarMissingFiles(t *testing.T) {
	dir := t.TempDir()

	status, err := ReadSyncStatus(filepath.Join(dir, "absent.json"))
	require.NoError(t, err)
	assert.Nil(t, status)

	report, err := ReadQualityReport(filepath.Join(dir, "absent.json"))
	require.NoError(t, err)
	assert.Nil(t, report)
}
