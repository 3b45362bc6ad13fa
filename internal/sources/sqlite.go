package sources

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/learner-analytics/backend/internal/merge"
	"github.com/learner-analytics/backend/pkg/logger"
)

// SQLiteSource reads rows from a table in a local embedded database
// file. Column values are pulled as strings so malformed cells degrade
// per-field like every other adapter.
type SQLiteSource struct {
	name    string
	company merge.CompanySource
	path    string
	query   string
	mapRow  rowMapper
}

func NewSQLiteSource(name string, company merge.CompanySource, path, query string, mapRow rowMapper) *SQLiteSource {
	return &SQLiteSource{name: name, company: company, path: path, query: query, mapRow: mapRow}
}

func (s *SQLiteSource) Name() string                 { return s.name }
func (s *SQLiteSource) Company() merge.CompanySource { return s.company }
func (s *SQLiteSource) Path() string                 { return s.path }

func (s *SQLiteSource) Fetch(ctx context.Context) ([]merge.Partial, error) {
	db, err := sql.Open("sqlite3", "file:"+s.path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, s.query)
	if err != nil {
		return nil, fmt.Errorf("failed to query table: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	var out []merge.Partial
	for rows.Next() {
		values := make([]sql.NullString, len(columns))
		scanArgs := make([]interface{}, len(columns))
		for i := range values {
			scanArgs[i] = &values[i]
		}

		if err := rows.Scan(scanArgs...); err != nil {
			logger.Warn("Row scan failed, skipping", zap.String("source", s.name), zap.Error(err))
			continue
		}

		raw := make(map[string]string, len(columns))
		for i, col := range columns {
			if values[i].Valid {
				raw[col] = values[i].String
			}
		}
		out = append(out, s.mapRow(raw))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed iterating rows: %w", err)
	}

	logger.Debug("Local table read",
		zap.String("source", s.name),
		zap.String("path", s.path),
		zap.Int("rows", len(out)),
	)

	return out, nil
}
