package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learner-analytics/backend/internal/storage/models"
	"github.com/learner-analytics/backend/internal/storage/snapshot"
)

// tick makes TTL-elapsed checks deterministic in tests: with a 1ns
// refresh interval only the mtime gate decides whether a reload runs.
const tick = time.Nanosecond

func writeTestSnapshot(t *testing.T, path string, n int) {
	t.Helper()

	regions := []string{"AMER", "EMEA", "APAC", "LATAM"}
	statuses := []string{"Registered", "Engaged", "Learning", "Certified"}

	learners := make([]*models.Learner, 0, n)
	for i := 1; i <= n; i++ {
		learners = append(learners, &models.Learner{
			AccountID:      int64(i),
			Email:          fmt.Sprintf("user%d@corp%d.com", i, i%5),
			Handle:         fmt.Sprintf("user%d", i),
			Name:           fmt.Sprintf("User %d", i),
			CompanyName:    fmt.Sprintf("Corp %d", i%5),
			Region:         regions[i%len(regions)],
			Country:        "United States",
			LearnerStatus:  statuses[i%len(statuses)],
			ExamsPassed:    i % 3,
			CodeAssistDays: i % 4,
			TutorialViews:  i * 3,
			SkillScore:     float64(i),
			SkillLevel:     "Developing",
		})
	}
	require.NoError(t, snapshot.Write(path, learners))
}

func newTestService(t *testing.T, n int) (*Service, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "learners_enriched.csv")
	writeTestSnapshot(t, path, n)

	svc := NewService(path, tick, 1000)
	t.Cleanup(func() { svc.Close() })
	return svc, path
}

func TestServiceLoadsLazily(t *testing.T) {
	svc, _ := newTestService(t, 5)

	assert.False(t, svc.Available(), "no load before the first query")
	assert.Equal(t, 5, svc.Count(models.LearnerFilter{}))
	assert.True(t, svc.Available())
}

func TestServiceReloadsOnlyWhenMtimeChanges(t *testing.T) {
	svc, path := newTestService(t, 2)

	reloads := 0
	svc.OnReload(func() { reloads++ })

	assert.Equal(t, 2, svc.Count(models.LearnerFilter{}))
	require.Equal(t, 1, reloads, "first query loads the snapshot")

	// TTL has elapsed but the file is unchanged: no reload.
	assert.Equal(t, 2, svc.Count(models.LearnerFilter{}))
	assert.Equal(t, 1, reloads)

	// New snapshot version with a guaranteed-different mtime.
	writeTestSnapshot(t, path, 3)
	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(path, future, future))

	assert.Equal(t, 3, svc.Count(models.LearnerFilter{}))
	assert.Equal(t, 2, reloads, "mtime change triggers exactly one reload")

	assert.Equal(t, 3, svc.Count(models.LearnerFilter{}))
	assert.Equal(t, 2, reloads)
}

func TestServiceDegradesWhenSnapshotMissing(t *testing.T) {
	svc := NewService(filepath.Join(t.TempDir(), "absent.csv"), tick, 1000)
	defer svc.Close()

	assert.Equal(t, 0, svc.Count(models.LearnerFilter{}))
	assert.Empty(t, svc.List(models.LearnerFilter{}, 1, 10, "", true).Items)
	assert.False(t, svc.Available())

	_, err := svc.GetByAccountID(1)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestServiceCloseStopsQueries(t *testing.T) {
	svc, _ := newTestService(t, 3)
	require.Equal(t, 3, svc.Count(models.LearnerFilter{}))

	require.NoError(t, svc.Close())
	assert.Equal(t, 0, svc.Count(models.LearnerFilter{}))
	assert.False(t, svc.Available())
}

func TestListPagination(t *testing.T) {
	svc, _ := newTestService(t, 40)

	page1 := svc.List(models.LearnerFilter{}, 1, 25, "account_id", false)
	require.Len(t, page1.Items, 25)
	assert.Equal(t, 40, page1.Total)
	assert.Equal(t, int64(1), page1.Items[0].AccountID)

	page2 := svc.List(models.LearnerFilter{}, 2, 25, "account_id", false)
	require.Len(t, page2.Items, 15)
	assert.Equal(t, int64(26), page2.Items[0].AccountID)

	// Past the end: empty items, real total.
	page3 := svc.List(models.LearnerFilter{}, 3, 25, "account_id", false)
	assert.Empty(t, page3.Items)
	assert.Equal(t, 40, page3.Total)
	assert.Equal(t, 3, page3.Page)
}

func TestListDefaultSortIsSkillScoreDescending(t *testing.T) {
	svc, _ := newTestService(t, 10)

	page := svc.List(models.LearnerFilter{}, 1, 3, "nonsense-column", false)
	require.Len(t, page.Items, 3)
	assert.Equal(t, 10.0, page.Items[0].SkillScore)
	assert.Equal(t, 9.0, page.Items[1].SkillScore)
}

func TestListFilters(t *testing.T) {
	svc, _ := newTestService(t, 20)

	byRegion := svc.List(models.LearnerFilter{Region: "EMEA"}, 1, 100, "", true)
	require.NotEmpty(t, byRegion.Items)
	for _, l := range byRegion.Items {
		assert.Equal(t, "EMEA", l.Region)
	}

	certified := true
	byCert := svc.List(models.LearnerFilter{IsCertified: &certified}, 1, 100, "", true)
	require.NotEmpty(t, byCert.Items)
	for _, l := range byCert.Items {
		assert.Greater(t, l.ExamsPassed, 0)
	}

	byCompany := svc.List(models.LearnerFilter{CompanySubstring: "corp 2"}, 1, 100, "", true)
	require.NotEmpty(t, byCompany.Items)
	for _, l := range byCompany.Items {
		assert.Equal(t, "Corp 2", l.CompanyName)
	}
}

func TestSearch(t *testing.T) {
	svc, _ := newTestService(t, 15)

	results := svc.Search("user7", 10)
	require.NotEmpty(t, results)
	assert.Equal(t, "user7@corp2.com", results[0].Email)

	assert.Empty(t, svc.Search("", 10))
	assert.Empty(t, svc.Search("no-such-learner", 10))

	// LIKE wildcards in the term are literals, not patterns.
	assert.Empty(t, svc.Search("%", 10))
}

func TestGroupBy(t *testing.T) {
	svc, _ := newTestService(t, 20)

	groups := svc.GroupBy("region", models.LearnerFilter{})
	require.Len(t, groups, 4)
	total := 0
	for _, g := range groups {
		total += g.Count
	}
	assert.Equal(t, 20, total)

	assert.Empty(t, svc.GroupBy("password_hash", models.LearnerFilter{}))
}

func TestTopN(t *testing.T) {
	svc, _ := newTestService(t, 12)

	top := svc.TopN("skill_score", 3)
	require.Len(t, top, 3)
	assert.Equal(t, 12.0, top[0].SkillScore)
	assert.Equal(t, 11.0, top[1].SkillScore)

	assert.Empty(t, svc.TopN("rm -rf", 3))
}

func TestGetByAccountIDAndEmail(t *testing.T) {
	svc, _ := newTestService(t, 8)

	l, err := svc.GetByAccountID(5)
	require.NoError(t, err)
	assert.Equal(t, "user5@corp0.com", l.Email)

	_, err = svc.GetByAccountID(999)
	assert.ErrorIs(t, err, ErrNotFound)

	l, err = svc.GetByEmail("  USER3@CORP3.COM ")
	require.NoError(t, err)
	assert.Equal(t, int64(3), l.AccountID)

	_, err = svc.GetByEmail("nobody@nowhere.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRawQueryGuard(t *testing.T) {
	svc, _ := newTestService(t, 5)

	rows, err := svc.RawQuery("SELECT COUNT(*) AS n FROM learners")
	require.NoError(t, err)
	require.Len(t, rows, 1)

	rejected := []string{
		"DELETE FROM learners",
		"DROP TABLE learners",
		"UPDATE learners SET email = 'x'",
		"SELECT * FROM learners; DROP TABLE learners",
		"SELECT * FROM sqlite_master",
		"SELECT * FROM learners UNION SELECT * FROM learners WHERE 1=1 ATTACH DATABASE 'x' AS y",
		"PRAGMA writable_schema = 1",
	}
	for _, q := range rejected {
		_, err := svc.RawQuery(q)
		assert.ErrorIs(t, err, ErrUnsafeQuery, "query %q must be rejected", q)
	}
}

func TestRawQueryRowCap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snap.csv")
	writeTestSnapshot(t, path, 10)

	svc := NewService(path, tick, 4)
	defer svc.Close()

	rows, err := svc.RawQuery("SELECT email FROM learners")
	require.NoError(t, err)
	assert.Len(t, rows, 4)
}

func TestOverview(t *testing.T) {
	svc, _ := newTestService(t, 9)

	o := svc.Overview()
	assert.Equal(t, 9, o.TotalLearners)
	assert.Greater(t, o.CertifiedLearners, 0)
	assert.Greater(t, o.TotalLearningViews, 0)
	assert.Greater(t, o.AverageSkillScore, 0.0)
}
