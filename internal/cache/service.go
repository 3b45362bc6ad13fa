// Package cache is the read-optimized analytical layer over the merged
// snapshot. It loads the snapshot into an in-memory sqlite table with
// secondary indexes and refreshes itself when the snapshot file changes
// on disk. All public queries are read-only and safe for concurrent use;
// reload swaps the whole table under a write lock so readers see either
// the old snapshot or the new one, never a partial state.
package cache

import (
	"database/sql"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/learner-analytics/backend/internal/metrics"
	"github.com/learner-analytics/backend/internal/storage/models"
	"github.com/learner-analytics/backend/internal/storage/snapshot"
	"github.com/learner-analytics/backend/pkg/logger"
)

const learnersTable = "learners"

// Service owns exactly one loaded snapshot at a time. Construct it once
// in the composition root and share it; it is not a hidden global.
type Service struct {
	snapshotPath string
	refreshEvery time.Duration
	maxListRows  int

	mu          sync.RWMutex
	db          *sql.DB
	loadedMtime time.Time
	lastRefresh time.Time
	closed      bool

	reloadMu sync.Mutex
	onReload []func()
}

func NewService(snapshotPath string, refreshEvery time.Duration, maxListRows int) *Service {
	if refreshEvery <= 0 {
		refreshEvery = 5 * time.Minute
	}
	if maxListRows <= 0 {
		maxListRows = 1000
	}
	return &Service{
		snapshotPath: snapshotPath,
		refreshEvery: refreshEvery,
		maxListRows:  maxListRows,
	}
}

// Available reports whether a snapshot is loaded and queryable.
func (s *Service) Available() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.db != nil && !s.closed
}

// OnReload registers a callback invoked after every successful reload,
// used to invalidate downstream response caches.
func (s *Service) OnReload(fn func()) {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()
	s.onReload = append(s.onReload, fn)
}

// Close releases the in-memory store. Queries after Close degrade to
// empty results.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.db != nil {
		err := s.db.Close()
		s.db = nil
		return err
	}
	return nil
}

// Refresh forces a reload regardless of freshness state.
func (s *Service) Refresh() error {
	return s.reload()
}

// ensureFresh runs before every query. First access loads the snapshot;
// afterwards a reload happens only when the refresh interval has elapsed
// AND the snapshot file's mtime changed.
func (s *Service) ensureFresh() error {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return ErrUnavailable
	}
	loaded := s.db != nil
	stale := loaded && time.Since(s.lastRefresh) >= s.refreshEvery
	mtime := s.loadedMtime
	s.mu.RUnlock()

	if loaded && !stale {
		return nil
	}

	if loaded && stale {
		info, err := os.Stat(s.snapshotPath)
		if err != nil {
			logger.Warn("Snapshot stat failed, keeping current snapshot", zap.Error(err))
			s.touchRefresh()
			return nil
		}
		if info.ModTime().Equal(mtime) {
			// Same file version; just restart the freshness clock.
			s.touchRefresh()
			return nil
		}
	}

	return s.reload()
}

func (s *Service) touchRefresh() {
	s.mu.Lock()
	s.lastRefresh = time.Now()
	s.mu.Unlock()
}

// reload drops and rebuilds the in-memory table from the snapshot file.
func (s *Service) reload() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrUnavailable
	}

	// Another goroutine may have reloaded while this one waited for the
	// write lock.
	if s.db != nil {
		if info, err := os.Stat(s.snapshotPath); err == nil &&
			info.ModTime().Equal(s.loadedMtime) && time.Since(s.lastRefresh) < s.refreshEvery {
			return nil
		}
	}

	start := time.Now()

	info, err := os.Stat(s.snapshotPath)
	if err != nil {
		return fmt.Errorf("failed to stat snapshot: %w", err)
	}

	learners, err := snapshot.Read(s.snapshotPath)
	if err != nil {
		return fmt.Errorf("failed to read snapshot: %w", err)
	}

	db, err := buildStore(learners)
	if err != nil {
		return fmt.Errorf("failed to build analytical store: %w", err)
	}

	old := s.db
	s.db = db
	s.loadedMtime = info.ModTime()
	s.lastRefresh = time.Now()

	if old != nil {
		old.Close()
	}

	metrics.CacheReloads.Inc()
	metrics.CachedLearners.Set(float64(len(learners)))
	logger.Info("Analytical cache reloaded",
		zap.Int("rows", len(learners)),
		zap.Duration("took", time.Since(start)),
		zap.Time("snapshot_mtime", s.loadedMtime),
	)

	s.notifyReload()
	return nil
}

func (s *Service) notifyReload() {
	s.reloadMu.Lock()
	callbacks := make([]func(), len(s.onReload))
	copy(callbacks, s.onReload)
	s.reloadMu.Unlock()

	for _, fn := range callbacks {
		fn()
	}
}

// buildStore creates the in-memory table, loads all rows in one
// transaction, and builds the secondary indexes used by the frequent
// filters.
func buildStore(learners []models.Learner) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory store: %w", err)
	}
	// The pool must not open a second connection: each :memory: handle
	// is its own database.
	db.SetMaxOpenConns(1)

	schema := `
	CREATE TABLE ` + learnersTable + ` (
		account_id INTEGER,
		email TEXT,
		handle TEXT,
		name TEXT,
		company_name TEXT,
		company_source TEXT,
		country TEXT,
		region TEXT,
		exams_attempted INTEGER NOT NULL DEFAULT 0,
		exams_passed INTEGER NOT NULL DEFAULT 0,
		certifications TEXT,
		first_exam_at TEXT,
		last_exam_at TEXT,
		code_assist_days INTEGER NOT NULL DEFAULT 0,
		code_assist_days_90d INTEGER NOT NULL DEFAULT 0,
		cicd_days INTEGER NOT NULL DEFAULT 0,
		cicd_days_90d INTEGER NOT NULL DEFAULT 0,
		security_scan_days INTEGER NOT NULL DEFAULT 0,
		security_scan_days_90d INTEGER NOT NULL DEFAULT 0,
		tutorial_views INTEGER NOT NULL DEFAULT 0,
		tutorial_sessions INTEGER NOT NULL DEFAULT 0,
		docs_views INTEGER NOT NULL DEFAULT 0,
		docs_sessions INTEGER NOT NULL DEFAULT 0,
		course_views INTEGER NOT NULL DEFAULT 0,
		course_sessions INTEGER NOT NULL DEFAULT 0,
		learner_status TEXT,
		journey_stage TEXT,
		skill_score REAL NOT NULL DEFAULT 0,
		skill_level TEXT,
		data_quality_score REAL NOT NULL DEFAULT 0,
		data_quality_level TEXT,
		is_certified INTEGER NOT NULL DEFAULT 0,
		uses_products INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX idx_learners_account ON ` + learnersTable + `(account_id);
	CREATE INDEX idx_learners_email ON ` + learnersTable + `(email);
	CREATE INDEX idx_learners_company ON ` + learnersTable + `(company_name);
	CREATE INDEX idx_learners_region ON ` + learnersTable + `(region);
	CREATE INDEX idx_learners_status ON ` + learnersTable + `(learner_status);
	CREATE INDEX idx_learners_certified ON ` + learnersTable + `(is_certified);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to begin load: %w", err)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", 33), ",")
	stmt, err := tx.Prepare("INSERT INTO " + learnersTable + " VALUES (" + placeholders + ")")
	if err != nil {
		tx.Rollback()
		db.Close()
		return nil, fmt.Errorf("failed to prepare insert: %w", err)
	}

	for i := range learners {
		l := &learners[i]
		isCertified := 0
		if l.ExamsPassed > 0 {
			isCertified = 1
		}
		usesProducts := 0
		if l.TotalProductDays() > 0 {
			usesProducts = 1
		}

		_, err := stmt.Exec(
			l.AccountID, l.Email, l.Handle, l.Name,
			l.CompanyName, l.CompanySource, l.Country, l.Region,
			l.ExamsAttempted, l.ExamsPassed, strings.Join(l.Certifications, ";"),
			timeOrEmpty(l.FirstExamAt), timeOrEmpty(l.LastExamAt),
			l.CodeAssistDays, l.CodeAssistDays90,
			l.CICDDays, l.CICDDays90,
			l.SecurityScanDays, l.SecurityScanDays90,
			l.TutorialViews, l.TutorialSessions,
			l.DocsViews, l.DocsSessions,
			l.CourseViews, l.CourseSessions,
			l.LearnerStatus, l.JourneyStage,
			l.SkillScore, l.SkillLevel,
			l.DataQualityScore, l.DataQualityLevel,
			isCertified, usesProducts,
		)
		if err != nil {
			stmt.Close()
			tx.Rollback()
			db.Close()
			return nil, fmt.Errorf("failed to insert row: %w", err)
		}
	}

	stmt.Close()
	if err := tx.Commit(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to commit load: %w", err)
	}

	return db, nil
}

func timeOrEmpty(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
