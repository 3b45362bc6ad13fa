// Package pipeline orchestrates one sync run: fetch every source,
// resolve identities, merge by attribution priority, derive metrics,
// and persist the snapshot with its sidecars.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/learner-analytics/backend/internal/merge"
	"github.com/learner-analytics/backend/internal/metrics"
	"github.com/learner-analytics/backend/internal/normalize"
	"github.com/learner-analytics/backend/internal/scoring"
	"github.com/learner-analytics/backend/internal/sources"
	"github.com/learner-analytics/backend/internal/sources/analytics"
	"github.com/learner-analytics/backend/internal/storage/models"
	"github.com/learner-analytics/backend/internal/storage/snapshot"
	"github.com/learner-analytics/backend/pkg/config"
	"github.com/learner-analytics/backend/pkg/logger"
)

// Options control one run.
type Options struct {
	// Full disables the unchanged-source skip for file-backed sources.
	Full bool
	// DryRun executes the whole pipeline but writes nothing.
	DryRun bool
}

// Result is what a run produced, whether or not it was persisted.
type Result struct {
	Status   *models.SyncStatus
	Report   *models.QualityReport
	Learners []*models.Learner
}

// filePathed is implemented by sources backed by a local file, which
// makes them eligible for the unchanged-source skip.
type filePathed interface {
	Path() string
}

// Runner owns the source list and configuration for sync runs.
type Runner struct {
	cfg      *config.Config
	sources  []sources.Source
	priority []merge.CompanySource
	weights  scoring.Weights
}

// New builds a Runner from config. A warehouse client is constructed
// only when an endpoint is configured; without one the remote-backed
// sources are omitted and the run works from local exports alone.
func New(cfg *config.Config) (*Runner, error) {
	var remote *analytics.Client
	if cfg.Remote.Endpoint != "" {
		remote = analytics.NewClient(cfg.Remote.Endpoint, cfg.Remote.APIKey,
			cfg.Remote.ChunkSize, cfg.Remote.TimeoutSec, cfg.Remote.MaxRetries)
	}

	return NewWithSources(cfg, sources.Build(cfg, remote))
}

// NewWithSources builds a Runner over an explicit source list.
func NewWithSources(cfg *config.Config, srcs []sources.Source) (*Runner, error) {
	priority, err := merge.PriorityFromConfig(cfg.Merge.CompanyPriority)
	if err != nil {
		return nil, fmt.Errorf("invalid company priority: %w", err)
	}

	return &Runner{
		cfg:      cfg,
		sources:  srcs,
		priority: priority,
		weights: scoring.Weights{
			Learning:      cfg.Scoring.SkillWeights.Learning,
			ProductUsage:  cfg.Scoring.SkillWeights.ProductUsage,
			Certification: cfg.Scoring.SkillWeights.Certification,
			Consistency:   cfg.Scoring.SkillWeights.Consistency,
			Growth:        cfg.Scoring.SkillWeights.Growth,
		},
	}, nil
}

// Run executes one sync. A failing source is recorded and skipped; the
// run fails only when no source yields rows at all, or when the final
// snapshot write fails.
func (r *Runner) Run(ctx context.Context, opts Options) (*Result, error) {
	runID := uuid.New().String()
	started := time.Now()

	logger.Info("Sync run started",
		zap.String("run_id", runID),
		zap.Bool("full", opts.Full),
		zap.Bool("dry_run", opts.DryRun),
	)

	if !opts.Full && !opts.DryRun {
		if previous := r.previousStatus(); r.upToDate(previous) {
			logger.Info("Every source unchanged since last run, snapshot is up to date",
				zap.String("previous_run_id", previous.RunID),
			)
			metrics.SyncRuns.WithLabelValues("skipped").Inc()
			return &Result{Status: previous}, nil
		}
	}

	status := &models.SyncStatus{
		RunID:     runID,
		StartedAt: started,
		DryRun:    opts.DryRun,
	}

	var sets []merge.SourceSet
	var allPartials []merge.Partial
	fetched := 0

	for _, src := range r.sources {
		rows, err := src.Fetch(ctx)
		if err != nil {
			metrics.SourceErrors.WithLabelValues(src.Name()).Inc()
			logger.Warn("Source fetch failed, skipping",
				zap.String("source", src.Name()),
				zap.Error(err),
			)
			status.Sources = append(status.Sources, models.SourceSyncStatus{
				Source:   src.Name(),
				SyncedAt: time.Now(),
				Error:    err.Error(),
			})
			continue
		}

		fetched++
		metrics.SourceRows.WithLabelValues(src.Name()).Set(float64(len(rows)))
		status.Sources = append(status.Sources, models.SourceSyncStatus{
			Source:   src.Name(),
			SyncedAt: time.Now(),
			RowCount: len(rows),
		})

		sets = append(sets, merge.SourceSet{Name: src.Name(), Company: src.Company(), Rows: rows})
		allPartials = append(allPartials, rows...)
	}

	if fetched == 0 {
		metrics.SyncRuns.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("sync failed: no source could be fetched")
	}

	// Lowest-priority company attribution, derived from the email
	// domains the real sources contributed.
	if domainSet := sources.EmailDomainSet(allPartials); len(domainSet.Rows) > 0 {
		sets = append(sets, domainSet)
	}

	merger := merge.New(r.priority)
	learners := merger.Merge(sets)
	status.BridgeStats = merger.Stats()
	status.TotalRows = len(learners)

	recordBridgeMetrics(status.BridgeStats)

	now := time.Now()
	for _, l := range learners {
		l.Region = string(normalize.RegionForCountry(l.Country))
		scoring.Enrich(l, r.weights, now)
	}

	report := buildQualityReport(learners, now)
	status.CompletedAt = time.Now()

	result := &Result{Status: status, Report: report, Learners: learners}

	if opts.DryRun {
		logger.Info("Dry run complete, nothing written",
			zap.String("run_id", runID),
			zap.Int("learners", len(learners)),
		)
		metrics.SyncRuns.WithLabelValues("dry_run").Inc()
		return result, nil
	}

	if err := r.persist(result); err != nil {
		metrics.SyncRuns.WithLabelValues("failed").Inc()
		return nil, err
	}

	outcome := "ok"
	if fetched < len(r.sources) {
		outcome = "partial"
	}
	metrics.SyncRuns.WithLabelValues(outcome).Inc()
	metrics.SyncDuration.Observe(time.Since(started).Seconds())

	logger.Info("Sync run complete",
		zap.String("run_id", runID),
		zap.Int("learners", len(learners)),
		zap.Int("sources_fetched", fetched),
		zap.Int("sources_total", len(r.sources)),
		zap.Duration("elapsed", time.Since(started)),
	)

	return result, nil
}

func (r *Runner) persist(result *Result) error {
	dir := r.cfg.Data.Dir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}

	if err := snapshot.Write(filepath.Join(dir, r.cfg.Data.SnapshotFile), result.Learners); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}

	// Sidecar failures degrade: the snapshot is the artifact of record.
	if err := snapshot.WriteSyncStatus(filepath.Join(dir, r.cfg.Data.SyncStatusFile), result.Status); err != nil {
		logger.Warn("Failed to write sync status sidecar", zap.Error(err))
	}
	if err := snapshot.WriteQualityReport(filepath.Join(dir, r.cfg.Data.QualityReportFile), result.Report); err != nil {
		logger.Warn("Failed to write quality report sidecar", zap.Error(err))
	}

	return nil
}

// previousStatus loads the last run's sidecar, if any.
func (r *Runner) previousStatus() *models.SyncStatus {
	status, err := snapshot.ReadSyncStatus(filepath.Join(r.cfg.Data.Dir, r.cfg.Data.SyncStatusFile))
	if err != nil {
		logger.Warn("Failed to read previous sync status", zap.Error(err))
		return nil
	}
	return status
}

// upToDate reports whether a rebuild can be skipped outright: the last
// run persisted successfully and every source is file-backed with an
// mtime older than its last successful sync. One remote source in the
// mix forces a rebuild, since remote data can change without a trace on
// disk.
func (r *Runner) upToDate(previous *models.SyncStatus) bool {
	if previous == nil || previous.DryRun {
		return false
	}

	lastSync := make(map[string]time.Time, len(previous.Sources))
	for _, s := range previous.Sources {
		if s.Error == "" {
			lastSync[s.Source] = s.SyncedAt
		}
	}

	for _, src := range r.sources {
		fp, ok := src.(filePathed)
		if !ok {
			return false
		}
		synced, ok := lastSync[src.Name()]
		if !ok {
			return false
		}
		info, err := os.Stat(fp.Path())
		if err != nil || !info.ModTime().Before(synced) {
			return false
		}
	}
	return true
}

func recordBridgeMetrics(stats models.BridgeStats) {
	metrics.BridgeResolutions.WithLabelValues("account_id").Add(float64(stats.ByAccountID))
	metrics.BridgeResolutions.WithLabelValues("email").Add(float64(stats.ByEmail))
	metrics.BridgeResolutions.WithLabelValues("handle").Add(float64(stats.ByHandle))
	metrics.BridgeResolutions.WithLabelValues("new_record").Add(float64(stats.NewRecords))
}
