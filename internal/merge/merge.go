package merge

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/learner-analytics/backend/internal/storage/models"
	"github.com/learner-analytics/backend/pkg/logger"
)

// SourceSet is one source's contribution to a merge run: its rows plus
// the attribution tag its company values carry. Sources that supply no
// company data use SourceNone.
type SourceSet struct {
	Name    string
	Company CompanySource
	Rows    []Partial
}

// Merger accumulates source sets into one record per resolved identity.
// Not safe for concurrent use; a sync run owns one Merger.
type Merger struct {
	priority map[CompanySource]int

	records  map[string]*models.Learner
	keyByRec map[*models.Learner]string
	byAcct   map[int64]string
	byEmail  map[string]string
	byHandle map[string]string

	stats models.BridgeStats
}

// New builds a Merger with the given ascending attribution priority.
func New(priority []CompanySource) *Merger {
	ranks := make(map[CompanySource]int, len(priority))
	for i, src := range priority {
		ranks[src] = i
	}
	return &Merger{
		priority: ranks,
		records:  make(map[string]*models.Learner),
		keyByRec: make(map[*models.Learner]string),
		byAcct:   make(map[int64]string),
		byEmail:  make(map[string]string),
		byHandle: make(map[string]string),
	}
}

// Merge applies all source sets in ascending attribution priority and
// returns one record per resolved identity, ordered deterministically.
// Input ordering of sets does not affect the result.
func (m *Merger) Merge(sets []SourceSet) []*models.Learner {
	ordered := make([]SourceSet, len(sets))
	copy(ordered, sets)
	sort.SliceStable(ordered, func(i, j int) bool {
		return m.rank(ordered[i].Company) < m.rank(ordered[j].Company)
	})

	for _, set := range ordered {
		// The first row a set contributes to a record may overwrite
		// lower-priority values; duplicate rows within the same set
		// aggregate instead.
		touched := make(map[*models.Learner]bool, len(set.Rows))

		for i := range set.Rows {
			row := set.Rows[i]
			row.Email = strings.ToLower(strings.TrimSpace(row.Email))
			row.Handle = strings.ToLower(strings.TrimSpace(row.Handle))
			if row.AccountID <= 0 && row.Email == "" && row.Handle == "" {
				logger.Debug("Row without identity keys skipped", zap.String("source", set.Name))
				continue
			}

			rec := m.resolve(&row)
			applyRules(rec, &row, set.Company, !touched[rec])
			touched[rec] = true
		}

		logger.Debug("Source set merged",
			zap.String("source", set.Name),
			zap.Int("rows", len(set.Rows)),
			zap.Int("identities", len(touched)),
		)
	}

	out := make([]*models.Learner, 0, len(m.records))
	for _, rec := range m.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if (a.AccountID > 0) != (b.AccountID > 0) {
			return a.AccountID > 0
		}
		if a.AccountID != b.AccountID {
			return a.AccountID < b.AccountID
		}
		if a.Email != b.Email {
			return a.Email < b.Email
		}
		return a.Handle < b.Handle
	})
	return out
}

// Stats reports how identity rows were bridged during the run.
func (m *Merger) Stats() models.BridgeStats {
	return m.stats
}

// rank orders source sets for application. Untagged sets (usage and
// learning rollups) go last: they carry no company attribution, their
// count fields merge the same in any order, and by then every identity
// the tagged sources know about is indexed for bridging.
func (m *Merger) rank(src CompanySource) int {
	if r, ok := m.priority[src]; ok {
		return r
	}
	return len(m.priority)
}

// resolve finds the merged record a row belongs to, or creates one.
// Bridging cascade: numeric account id, then email, then handle. A row
// with an unseen account id still bridges through email or handle so a
// person is never split across records.
func (m *Merger) resolve(p *Partial) *models.Learner {
	if p.AccountID > 0 {
		if key, ok := m.byAcct[p.AccountID]; ok {
			m.stats.ByAccountID++
			rec := m.records[key]
			m.adoptIdentity(rec, p)
			return rec
		}
	}
	if p.Email != "" {
		if key, ok := m.byEmail[p.Email]; ok {
			m.stats.ByEmail++
			rec := m.records[key]
			m.adoptIdentity(rec, p)
			return rec
		}
	}
	if p.Handle != "" {
		if key, ok := m.byHandle[p.Handle]; ok {
			m.stats.ByHandle++
			rec := m.records[key]
			m.adoptIdentity(rec, p)
			return rec
		}
	}

	m.stats.NewRecords++
	key := pseudoKey(p)
	rec := &models.Learner{
		AccountID: p.AccountID,
		Email:     p.Email,
		Handle:    p.Handle,
	}
	m.records[key] = rec
	m.keyByRec[rec] = key
	m.index(rec)
	return rec
}

func pseudoKey(p *Partial) string {
	if p.AccountID > 0 {
		return fmt.Sprintf("acct:%d", p.AccountID)
	}
	if p.Email != "" {
		return "email:" + p.Email
	}
	return "handle:" + p.Handle
}

// adoptIdentity fills identity keys the record is missing and indexes
// them, so later rows can bridge through any key seen so far.
func (m *Merger) adoptIdentity(rec *models.Learner, p *Partial) {
	if p.AccountID > 0 {
		if rec.AccountID == 0 {
			rec.AccountID = p.AccountID
		} else if rec.AccountID != p.AccountID {
			logger.Debug("Conflicting account id ignored",
				zap.Int64("existing", rec.AccountID),
				zap.Int64("incoming", p.AccountID),
				zap.String("email", rec.Email),
			)
		}
	}
	if rec.Email == "" && p.Email != "" {
		rec.Email = p.Email
	}
	if rec.Handle == "" && p.Handle != "" {
		rec.Handle = p.Handle
	}

	m.index(rec)
}

func (m *Merger) index(rec *models.Learner) {
	key := m.keyByRec[rec]
	if rec.AccountID > 0 {
		if _, taken := m.byAcct[rec.AccountID]; !taken {
			m.byAcct[rec.AccountID] = key
		}
	}
	if rec.Email != "" {
		if _, taken := m.byEmail[rec.Email]; !taken {
			m.byEmail[rec.Email] = key
		}
	}
	if rec.Handle != "" {
		if _, taken := m.byHandle[rec.Handle]; !taken {
			m.byHandle[rec.Handle] = key
		}
	}
}
