// Package sources holds the adapters that turn heterogeneous origins
// (remote warehouse queries, local embedded databases, flat file
// exports) into uniform partial-record row-sets for the merger.
package sources

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/learner-analytics/backend/internal/merge"
)

// Source yields one row-set per sync run. A failing source is skipped by
// the pipeline, never fatal on its own.
type Source interface {
	Name() string
	Company() merge.CompanySource
	Fetch(ctx context.Context) ([]merge.Partial, error)
}

// rowMapper converts one raw string-keyed row into a partial record.
type rowMapper func(map[string]string) merge.Partial

// Tolerant field parsing: malformed values degrade to the zero value for
// that field, never failing the record or the batch.

func parseInt(raw string) int {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || v < 0 {
		return 0
	}
	return v
}

func parseID(raw string) int64 {
	v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006",
}

func parseDate(raw string) time.Time {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t
		}
	}
	return time.Time{}
}
