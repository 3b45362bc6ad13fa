package sources

import (
	"context"
	"fmt"

	"github.com/learner-analytics/backend/internal/merge"
	"github.com/learner-analytics/backend/internal/sources/analytics"
)

// RemoteSource runs one warehouse query per sync and maps its rows.
type RemoteSource struct {
	name    string
	company merge.CompanySource
	client  *analytics.Client
	query   string
	mapRow  rowMapper
}

func NewRemoteSource(name string, company merge.CompanySource, client *analytics.Client, query string, mapRow rowMapper) *RemoteSource {
	return &RemoteSource{name: name, company: company, client: client, query: query, mapRow: mapRow}
}

func (s *RemoteSource) Name() string                 { return s.name }
func (s *RemoteSource) Company() merge.CompanySource { return s.company }

func (s *RemoteSource) Fetch(ctx context.Context) ([]merge.Partial, error) {
	rows, err := s.client.Query(ctx, s.query)
	if err != nil {
		return nil, fmt.Errorf("warehouse query for %s failed: %w", s.name, err)
	}

	out := make([]merge.Partial, 0, len(rows))
	for _, row := range rows {
		out = append(out, s.mapRow(row))
	}
	return out, nil
}
