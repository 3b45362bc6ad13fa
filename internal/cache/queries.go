package cache

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/learner-analytics/backend/internal/metrics"
	"github.com/learner-analytics/backend/internal/storage/models"
	"github.com/learner-analytics/backend/pkg/logger"
)

// learnerColumns is the select list for full-record scans, matching
// scanLearner's field order.
const learnerColumns = `account_id, email, handle, name, company_name, company_source,
	country, region, exams_attempted, exams_passed, certifications,
	first_exam_at, last_exam_at,
	code_assist_days, code_assist_days_90d, cicd_days, cicd_days_90d,
	security_scan_days, security_scan_days_90d,
	tutorial_views, tutorial_sessions, docs_views, docs_sessions,
	course_views, course_sessions,
	learner_status, journey_stage, skill_score, skill_level,
	data_quality_score, data_quality_level`

// groupDimensions allowlists group-by targets.
var groupDimensions = map[string]string{
	"company": "company_name",
	"region":  "region",
	"status":  "learner_status",
	"stage":   "journey_stage",
	"country": "country",
}

// rankMetrics allowlists top-N ordering targets.
var rankMetrics = map[string]string{
	"skill_score":        "skill_score",
	"exams_passed":       "exams_passed",
	"data_quality_score": "data_quality_score",
	"tutorial_views":     "tutorial_views",
}

// sortColumns allowlists list-query sort keys.
var sortColumns = map[string]string{
	"skill_score":  "skill_score",
	"exams_passed": "exams_passed",
	"email":        "email",
	"company":      "company_name",
	"account_id":   "account_id",
}

// Count returns the number of learners matching the filter. Degrades to
// zero on store failure.
func (s *Service) Count(filter models.LearnerFilter) int {
	where, args := buildWhere(filter)

	var count int
	err := s.query(func(db *sql.DB) error {
		return db.QueryRow("SELECT COUNT(*) FROM "+learnersTable+where, args...).Scan(&count)
	})
	if err != nil {
		logger.Error("Count query failed", zap.Error(err))
		return 0
	}
	return count
}

// List returns one page of learners matching the filter. A page beyond
// the end of the result set yields empty items with the real total.
func (s *Service) List(filter models.LearnerFilter, page, pageSize int, sortBy string, descending bool) models.Page {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 25
	}
	if pageSize > s.maxListRows {
		pageSize = s.maxListRows
	}

	result := models.Page{Items: []models.Learner{}, Page: page, PageSize: pageSize}

	orderCol, ok := sortColumns[sortBy]
	if !ok {
		orderCol = "skill_score"
		descending = true
	}
	direction := "ASC"
	if descending {
		direction = "DESC"
	}

	where, args := buildWhere(filter)

	err := s.query(func(db *sql.DB) error {
		if err := db.QueryRow("SELECT COUNT(*) FROM "+learnersTable+where, args...).Scan(&result.Total); err != nil {
			return err
		}

		offset := (page - 1) * pageSize
		if offset >= result.Total {
			return nil
		}

		stmt := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY %s %s, account_id ASC LIMIT ? OFFSET ?",
			learnerColumns, learnersTable, where, orderCol, direction)
		rows, err := db.Query(stmt, append(args, pageSize, offset)...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			l, err := scanLearner(rows)
			if err != nil {
				return err
			}
			result.Items = append(result.Items, l)
		}
		return rows.Err()
	})
	if err != nil {
		logger.Error("List query failed", zap.Error(err))
		return models.Page{Items: []models.Learner{}, Page: page, PageSize: pageSize}
	}

	return result
}

// Search does substring matching across email, name, and company.
func (s *Service) Search(term string, limit int) []models.Learner {
	term = strings.TrimSpace(term)
	if term == "" {
		return []models.Learner{}
	}
	if limit < 1 || limit > s.maxListRows {
		limit = 50
	}

	pattern := "%" + escapeLike(term) + "%"
	out := []models.Learner{}

	err := s.query(func(db *sql.DB) error {
		stmt := fmt.Sprintf(`SELECT %s FROM %s
			WHERE email LIKE ? ESCAPE '\' OR name LIKE ? ESCAPE '\' OR company_name LIKE ? ESCAPE '\'
			ORDER BY skill_score DESC LIMIT ?`, learnerColumns, learnersTable)
		rows, err := db.Query(stmt, pattern, pattern, pattern, limit)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			l, err := scanLearner(rows)
			if err != nil {
				return err
			}
			out = append(out, l)
		}
		return rows.Err()
	})
	if err != nil {
		logger.Error("Search query failed", zap.Error(err), zap.String("term", term))
		return []models.Learner{}
	}

	return out
}

// GroupBy aggregates learner counts along an allowlisted dimension.
func (s *Service) GroupBy(dimension string, filter models.LearnerFilter) []models.GroupCount {
	column, ok := groupDimensions[dimension]
	if !ok {
		logger.Warn("Unknown group-by dimension", zap.String("dimension", dimension))
		return []models.GroupCount{}
	}

	where, args := buildWhere(filter)
	out := []models.GroupCount{}

	err := s.query(func(db *sql.DB) error {
		stmt := fmt.Sprintf(`SELECT COALESCE(NULLIF(%s, ''), 'Unknown') AS grp, COUNT(*)
			FROM %s%s GROUP BY grp ORDER BY COUNT(*) DESC, grp ASC`, column, learnersTable, where)
		rows, err := db.Query(stmt, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var g models.GroupCount
			if err := rows.Scan(&g.Key, &g.Count); err != nil {
				return err
			}
			out = append(out, g)
		}
		return rows.Err()
	})
	if err != nil {
		logger.Error("Group-by query failed", zap.Error(err), zap.String("dimension", dimension))
		return []models.GroupCount{}
	}

	return out
}

// TopN returns the highest-ranked learners by an allowlisted metric.
func (s *Service) TopN(metric string, n int) []models.Learner {
	column, ok := rankMetrics[metric]
	if !ok {
		logger.Warn("Unknown ranking metric", zap.String("metric", metric))
		return []models.Learner{}
	}
	if n < 1 || n > s.maxListRows {
		n = 10
	}

	out := []models.Learner{}
	err := s.query(func(db *sql.DB) error {
		stmt := fmt.Sprintf("SELECT %s FROM %s ORDER BY %s DESC, account_id ASC LIMIT ?",
			learnerColumns, learnersTable, column)
		rows, err := db.Query(stmt, n)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			l, err := scanLearner(rows)
			if err != nil {
				return err
			}
			out = append(out, l)
		}
		return rows.Err()
	})
	if err != nil {
		logger.Error("Top-N query failed", zap.Error(err), zap.String("metric", metric))
		return []models.Learner{}
	}

	return out
}

// GetByAccountID looks up one learner by platform account id.
func (s *Service) GetByAccountID(id int64) (*models.Learner, error) {
	return s.getOne("account_id = ?", id)
}

// GetByEmail looks up one learner by (lower-cased) email.
func (s *Service) GetByEmail(email string) (*models.Learner, error) {
	return s.getOne("email = ?", strings.ToLower(strings.TrimSpace(email)))
}

func (s *Service) getOne(cond string, arg interface{}) (*models.Learner, error) {
	var learner models.Learner
	found := false

	err := s.query(func(db *sql.DB) error {
		rows, err := db.Query(fmt.Sprintf("SELECT %s FROM %s WHERE %s LIMIT 1",
			learnerColumns, learnersTable, cond), arg)
		if err != nil {
			return err
		}
		defer rows.Close()

		if rows.Next() {
			learner, err = scanLearner(rows)
			if err != nil {
				return err
			}
			found = true
		}
		return rows.Err()
	})
	if err != nil {
		if err == ErrUnavailable {
			return nil, ErrUnavailable
		}
		logger.Error("Lookup query failed", zap.Error(err))
		return nil, fmt.Errorf("lookup failed: %w", err)
	}
	if !found {
		return nil, ErrNotFound
	}
	return &learner, nil
}

// mutating keywords rejected by the raw-query guard.
var deniedKeywords = []string{
	"insert", "update", "delete", "drop", "alter", "create",
	"attach", "detach", "pragma", "vacuum", "reindex", "replace", "trigger",
}

// RawQuery is the administrative escape hatch. Statements must be a
// single SELECT over the learners table; anything else is rejected
// before execution.
func (s *Service) RawQuery(query string) ([]map[string]interface{}, error) {
	if err := validateRawQuery(query); err != nil {
		return nil, err
	}

	var out []map[string]interface{}
	err := s.query(func(db *sql.DB) error {
		rows, err := db.Query(query)
		if err != nil {
			return err
		}
		defer rows.Close()

		columns, err := rows.Columns()
		if err != nil {
			return err
		}

		for rows.Next() {
			if len(out) >= s.maxListRows {
				break
			}
			values := make([]interface{}, len(columns))
			scanArgs := make([]interface{}, len(columns))
			for i := range values {
				scanArgs[i] = &values[i]
			}
			if err := rows.Scan(scanArgs...); err != nil {
				return err
			}

			row := make(map[string]interface{}, len(columns))
			for i, col := range columns {
				if b, ok := values[i].([]byte); ok {
					row[col] = string(b)
				} else {
					row[col] = values[i]
				}
			}
			out = append(out, row)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []map[string]interface{}{}
	}
	return out, nil
}

func validateRawQuery(query string) error {
	normalized := strings.ToLower(strings.TrimSpace(query))
	if !strings.HasPrefix(normalized, "select ") {
		return fmt.Errorf("%w: only SELECT statements are permitted", ErrUnsafeQuery)
	}
	if strings.ContainsRune(normalized, ';') {
		return fmt.Errorf("%w: multiple statements are not permitted", ErrUnsafeQuery)
	}

	tokens := strings.FieldsFunc(normalized, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '(' || r == ')' || r == ','
	})
	for i, token := range tokens {
		for _, denied := range deniedKeywords {
			if token == denied {
				return fmt.Errorf("%w: keyword %q is not permitted", ErrUnsafeQuery, denied)
			}
		}
		if token == "from" {
			if i+1 >= len(tokens) || tokens[i+1] != learnersTable {
				return fmt.Errorf("%w: only the %s table may be queried", ErrUnsafeQuery, learnersTable)
			}
		}
	}
	return nil
}

// query runs fn against the current store under a read lock, after the
// freshness check.
func (s *Service) query(fn func(db *sql.DB) error) error {
	if err := s.ensureFresh(); err != nil {
		logger.Warn("Analytical store unavailable", zap.Error(err))
		metrics.CacheQueryFailures.Inc()
		return ErrUnavailable
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil || s.closed {
		return ErrUnavailable
	}

	start := time.Now()
	err := fn(s.db)
	metrics.CacheQueryDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.CacheQueryFailures.Inc()
	}
	return err
}

func buildWhere(f models.LearnerFilter) (string, []interface{}) {
	var conds []string
	var args []interface{}

	if f.Status != "" {
		conds = append(conds, "learner_status = ?")
		args = append(args, f.Status)
	}
	if f.JourneyStage != "" {
		conds = append(conds, "journey_stage = ?")
		args = append(args, f.JourneyStage)
	}
	if f.CompanySubstring != "" {
		conds = append(conds, `company_name LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(f.CompanySubstring)+"%")
	}
	if f.Country != "" {
		conds = append(conds, "country = ?")
		args = append(args, f.Country)
	}
	if f.Region != "" {
		conds = append(conds, "region = ?")
		args = append(args, f.Region)
	}
	if f.IsCertified != nil {
		conds = append(conds, "is_certified = ?")
		args = append(args, boolToInt(*f.IsCertified))
	}
	if f.UsesProducts != nil {
		conds = append(conds, "uses_products = ?")
		args = append(args, boolToInt(*f.UsesProducts))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "_", `\_`)
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func scanLearner(rows *sql.Rows) (models.Learner, error) {
	var l models.Learner
	var certs, firstExam, lastExam string

	err := rows.Scan(
		&l.AccountID, &l.Email, &l.Handle, &l.Name,
		&l.CompanyName, &l.CompanySource, &l.Country, &l.Region,
		&l.ExamsAttempted, &l.ExamsPassed, &certs,
		&firstExam, &lastExam,
		&l.CodeAssistDays, &l.CodeAssistDays90,
		&l.CICDDays, &l.CICDDays90,
		&l.SecurityScanDays, &l.SecurityScanDays90,
		&l.TutorialViews, &l.TutorialSessions,
		&l.DocsViews, &l.DocsSessions,
		&l.CourseViews, &l.CourseSessions,
		&l.LearnerStatus, &l.JourneyStage,
		&l.SkillScore, &l.SkillLevel,
		&l.DataQualityScore, &l.DataQualityLevel,
	)
	if err != nil {
		return l, err
	}

	if certs != "" {
		l.Certifications = strings.Split(certs, ";")
	}
	l.FirstExamAt = parseStoredTime(firstExam)
	l.LastExamAt = parseStoredTime(lastExam)

	return l, nil
}

func parseStoredTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}
