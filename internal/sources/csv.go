package sources

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/learner-analytics/backend/internal/merge"
	"github.com/learner-analytics/backend/pkg/logger"
)

// CSVSource reads a flat file export. The first row is the header;
// lookups are case-insensitive on trimmed header names.
type CSVSource struct {
	name    string
	company merge.CompanySource
	path    string
	mapRow  rowMapper
}

func NewCSVSource(name string, company merge.CompanySource, path string, mapRow rowMapper) *CSVSource {
	return &CSVSource{name: name, company: company, path: path, mapRow: mapRow}
}

func (s *CSVSource) Name() string                 { return s.name }
func (s *CSVSource) Company() merge.CompanySource { return s.company }
func (s *CSVSource) Path() string                 { return s.path }

func (s *CSVSource) Fetch(ctx context.Context) ([]merge.Partial, error) {
	file, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open export file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read export file: %w", err)
	}
	if len(records) < 2 {
		return nil, nil
	}

	headers := make([]string, len(records[0]))
	for i, h := range records[0] {
		headers[i] = strings.ToLower(strings.TrimSpace(h))
	}

	rows := make([]merge.Partial, 0, len(records)-1)
	for _, record := range records[1:] {
		raw := make(map[string]string, len(headers))
		for i, value := range record {
			if i < len(headers) {
				raw[headers[i]] = value
			}
		}
		rows = append(rows, s.mapRow(raw))
	}

	logger.Debug("Export file read",
		zap.String("source", s.name),
		zap.String("path", s.path),
		zap.Int("rows", len(rows)),
	)

	return rows, nil
}
