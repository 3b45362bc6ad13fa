package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learner-analytics/backend/internal/merge"
	"github.com/learner-analytics/backend/internal/sources"
	"github.com/learner-analytics/backend/internal/storage/models"
	"github.com/learner-analytics/backend/internal/storage/snapshot"
	"github.com/learner-analytics/backend/pkg/config"
)

type stubSource struct {
	name    string
	company merge.CompanySource
	rows    []merge.Partial
	err     error
}

func (s *stubSource) Name() string                 { return s.name }
func (s *stubSource) Company() merge.CompanySource { return s.company }
func (s *stubSource) Fetch(ctx context.Context) ([]merge.Partial, error) {
	return s.rows, s.err
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Data: config.DataConfig{
			Dir:               t.TempDir(),
			SnapshotFile:      "learners_enriched.csv",
			SyncStatusFile:    "sync_status.json",
			QualityReportFile: "data_quality_report.json",
		},
		Scoring: config.ScoringConfig{
			SkillWeights: config.SkillWeights{
				Learning:      0.25,
				ProductUsage:  0.25,
				Certification: 0.30,
				Consistency:   0.10,
				Growth:        0.10,
			},
		},
	}
}

func TestRun_MergesEnrichesAndPersists(t *testing.T) {
	cfg := testConfig(t)

	registrations := &stubSource{
		name:    "registrations",
		company: merge.SourceSelfRegistration,
		rows: []merge.Partial{
			{AccountID: 1, Email: "ana@acme-widgets.io", Handle: "ana", Name: "Ana", Country: "Brazil"},
			{AccountID: 2, Email: "kim@gmail.com", Handle: "kim", Name: "Kim"},
		},
	}
	usage := &stubSource{
		name:    "product-usage",
		company: merge.SourceNone,
		rows: []merge.Partial{
			{Handle: "ana", CodeAssistDays: 20, CodeAssistDays90: 12},
		},
	}

	runner, err := NewWithSources(cfg, []sources.Source{registrations, usage})
	require.NoError(t, err)

	result, err := runner.Run(context.Background(), Options{})
	require.NoError(t, err)
	require.Len(t, result.Learners, 2)

	byEmail := make(map[string]*models.Learner)
	for _, l := range result.Learners {
		byEmail[l.Email] = l
	}

	ana := byEmail["ana@acme-widgets.io"]
	require.NotNil(t, ana)
	assert.Equal(t, 20, ana.CodeAssistDays, "usage rows bridge through the handle")
	assert.Equal(t, "LATAM", ana.Region)
	assert.Equal(t, "Acme Widgets", ana.CompanyName, "corporate domain yields the fallback attribution")
	assert.Equal(t, "email-domain", ana.CompanySource)
	assert.NotEmpty(t, ana.LearnerStatus)
	assert.NotEmpty(t, ana.SkillLevel)

	kim := byEmail["kim@gmail.com"]
	require.NotNil(t, kim)
	assert.Empty(t, kim.CompanyName, "freemail domains imply no company")
	assert.Equal(t, "Unknown", kim.Region)

	// Every artifact written.
	loaded, err := snapshot.Read(filepath.Join(cfg.Data.Dir, cfg.Data.SnapshotFile))
	require.NoError(t, err)
	assert.Len(t, loaded, 2)

	status, err := snapshot.ReadSyncStatus(filepath.Join(cfg.Data.Dir, cfg.Data.SyncStatusFile))
	require.NoError(t, err)
	require.NotNil(t, status)
	assert.Equal(t, result.Status.RunID, status.RunID)
	assert.Len(t, status.Sources, 2)

	report, err := snapshot.ReadQualityReport(filepath.Join(cfg.Data.Dir, cfg.Data.QualityReportFile))
	require.NoError(t, err)
	require.NotNil(t, report)
	assert.NotEmpty(t, report.Categories)
}

func TestRun_FailingSourceIsSkippedNotFatal(t *testing.T) {
	cfg := testConfig(t)

	good := &stubSource{
		name:    "registrations",
		company: merge.SourceSelfRegistration,
		rows:    []merge.Partial{{AccountID: 1, Email: "a@b.com"}},
	}
	bad := &stubSource{
		name:    "billing-accounts",
		company: merge.SourceBillingCustomer,
		err:     errors.New("export file truncated"),
	}

	runner, err := NewWithSources(cfg, []sources.Source{good, bad})
	require.NoError(t, err)

	result, err := runner.Run(context.Background(), Options{})
	require.NoError(t, err, "partial source failure must not fail the run")
	assert.Len(t, result.Learners, 1)

	var badStatus *models.SourceSyncStatus
	for i := range result.Status.Sources {
		if result.Status.Sources[i].Source == "billing-accounts" {
			badStatus = &result.Status.Sources[i]
		}
	}
	require.NotNil(t, badStatus)
	assert.Contains(t, badStatus.Error, "truncated")
}

func TestRun_AllSourcesFailingIsFatal(t *testing.T) {
	cfg := testConfig(t)

	runner, err := NewWithSources(cfg, []sources.Source{
		&stubSource{name: "a", err: errors.New("down")},
		&stubSource{name: "b", err: errors.New("also down")},
	})
	require.NoError(t, err)

	_, err = runner.Run(context.Background(), Options{})
	assert.Error(t, err)
}

func TestRun_DryRunWritesNothing(t *testing.T) {
	cfg := testConfig(t)

	runner, err := NewWithSources(cfg, []sources.Source{
		&stubSource{
			name:    "registrations",
			company: merge.SourceSelfRegistration,
			rows:    []merge.Partial{{AccountID: 1, Email: "a@b.com"}},
		},
	})
	require.NoError(t, err)

	result, err := runner.Run(context.Background(), Options{DryRun: true})
	require.NoError(t, err)
	assert.True(t, result.Status.DryRun)
	assert.Len(t, result.Learners, 1)

	entries, err := os.ReadDir(cfg.Data.Dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRun_InvalidPriorityConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Merge.CompanyPriority = []string{"billing-customer"}

	_, err := NewWithSources(cfg, []sources.Source{&stubSource{name: "x"}})
	assert.Error(t, err)
}

func TestBuildQualityReport(t *testing.T) {
	now := time.Now()
	learners := []*models.Learner{
		{
			AccountID:     1,
			Email:         "a@b.com",
			CompanyName:   "Acme",
			CompanySource: "billing-customer",
			Country:       "Germany",
			Region:        "EMEA",
			TutorialViews: 10,
			CICDDays:      3,
		},
		{Handle: "ghost"},
	}

	report := buildQualityReport(learners, now)
	require.NotEmpty(t, report.Categories)

	byName := make(map[string]models.QualityCategory)
	for _, c := range report.Categories {
		byName[c.Category] = c
	}

	identity := byName["identity"]
	assert.Equal(t, 1, identity.Passed)
	assert.Equal(t, 1, identity.Failed)
	assert.Equal(t, 1, identity.Warnings, "handle-only identity warns")

	attribution := byName["company_attribution"]
	assert.Equal(t, 1, attribution.Passed)
	assert.Zero(t, attribution.Warnings)
}
