package merge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMerge_CompanyPriorityWinsRegardlessOfInputOrder(t *testing.T) {
	registration := SourceSet{
		Name:    "registrations",
		Company: SourceSelfRegistration,
		Rows: []Partial{
			{AccountID: 1, Email: "ana@acme.com", Company: "Acme"},
		},
	}
	billing := SourceSet{
		Name:    "billing",
		Company: SourceBillingCustomer,
		Rows: []Partial{
			{Email: "ana@acme.com", Company: "Acme Corporation"},
		},
	}
	domain := SourceSet{
		Name:    "email-domain-guess",
		Company: SourceEmailDomain,
		Rows: []Partial{
			{Email: "ana@acme.com", Company: "Acme Guessed"},
		},
	}

	orderings := [][]SourceSet{
		{registration, billing, domain},
		{domain, billing, registration},
		{billing, domain, registration},
	}

	for _, sets := range orderings {
		m := New(DefaultPriority)
		out := m.Merge(sets)

		require.Len(t, out, 1)
		assert.Equal(t, "Acme Corporation", out[0].CompanyName)
		assert.Equal(t, "billing-customer", out[0].CompanySource)
		assert.Equal(t, int64(1), out[0].AccountID)
	}
}

func TestMerge_LowerPriorityNeverOverwrites(t *testing.T) {
	m := New(DefaultPriority)
	out := m.Merge([]SourceSet{
		{
			Name:    "billing",
			Company: SourceBillingCustomer,
			Rows:    []Partial{{Email: "b@corp.com", Company: "Corp Inc"}},
		},
		{
			Name:    "email-domain-guess",
			Company: SourceEmailDomain,
			Rows:    []Partial{{Email: "b@corp.com", Company: "Corp Guess"}},
		},
	})

	require.Len(t, out, 1)
	assert.Equal(t, "Corp Inc", out[0].CompanyName)
	assert.Equal(t, "billing-customer", out[0].CompanySource)
}

func TestMerge_BridgingCascade(t *testing.T) {
	m := New(DefaultPriority)
	out := m.Merge([]SourceSet{
		{
			Name:    "registrations",
			Company: SourceSelfRegistration,
			Rows: []Partial{
				{AccountID: 10, Email: "kim@dev.io", Handle: "kimdev"},
			},
		},
		{
			Name:    "usage",
			Company: SourceNone,
			Rows: []Partial{
				// No account id; must bridge through the handle.
				{Handle: "KimDev", CodeAssistDays: 4},
				// Bridges through email.
				{Email: "Kim@Dev.io", CICDDays: 2},
			},
		},
	})

	require.Len(t, out, 1)
	assert.Equal(t, int64(10), out[0].AccountID)
	assert.Equal(t, 4, out[0].CodeAssistDays)
	assert.Equal(t, 2, out[0].CICDDays)

	stats := m.Stats()
	assert.Equal(t, 1, stats.NewRecords)
	assert.Equal(t, 1, stats.ByHandle)
	assert.Equal(t, 1, stats.ByEmail)
}

func TestMerge_SameSourceRowsAggregate(t *testing.T) {
	m := New(DefaultPriority)
	out := m.Merge([]SourceSet{
		{
			Name:    "exam-results",
			Company: SourceSelfExam,
			Rows: []Partial{
				{Email: "x@y.com", ExamsAttempted: 1, ExamsPassed: 1, Certifications: []string{"Security"}},
				{Email: "x@y.com", ExamsAttempted: 1, ExamsPassed: 0},
				{Email: "x@y.com", ExamsAttempted: 1, ExamsPassed: 1, Certifications: []string{"Security"}},
			},
		},
	})

	require.Len(t, out, 1)
	assert.Equal(t, 3, out[0].ExamsAttempted)
	assert.Equal(t, 2, out[0].ExamsPassed)
	assert.Equal(t, []string{"Security"}, out[0].Certifications)
}

func TestMerge_ExamTimeBoundaries(t *testing.T) {
	early := time.Date(2023, 1, 10, 0, 0, 0, 0, time.UTC)
	late := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)

	m := New(DefaultPriority)
	out := m.Merge([]SourceSet{
		{
			Name:    "exam-results",
			Company: SourceSelfExam,
			Rows: []Partial{
				{Email: "x@y.com", FirstExamAt: late, LastExamAt: late},
				{Email: "x@y.com", FirstExamAt: early, LastExamAt: early},
			},
		},
	})

	require.Len(t, out, 1)
	assert.Equal(t, early, out[0].FirstExamAt)
	assert.Equal(t, late, out[0].LastExamAt)
}

func TestMerge_NinetyDayCountsTakeMax(t *testing.T) {
	m := New(DefaultPriority)
	out := m.Merge([]SourceSet{
		{
			Name:    "usage",
			Company: SourceNone,
			Rows: []Partial{
				{Handle: "dev1", CodeAssistDays90: 12, CodeAssistDays: 12},
				{Handle: "dev1", CodeAssistDays90: 7, CodeAssistDays: 7},
			},
		},
	})

	require.Len(t, out, 1)
	assert.Equal(t, 12, out[0].CodeAssistDays90)
	// All-time days sum across rows.
	assert.Equal(t, 19, out[0].CodeAssistDays)
}

func TestMerge_RowsWithoutIdentityAreSkipped(t *testing.T) {
	m := New(DefaultPriority)
	out := m.Merge([]SourceSet{
		{
			Name:    "usage",
			Company: SourceNone,
			Rows: []Partial{
				{CodeAssistDays: 9},
				{Email: "real@user.com", CodeAssistDays: 1},
			},
		},
	})

	require.Len(t, out, 1)
	assert.Equal(t, "real@user.com", out[0].Email)
	assert.Equal(t, 1, out[0].CodeAssistDays)
}

func TestMerge_NoDuplicateAccountIDs(t *testing.T) {
	m := New(DefaultPriority)
	out := m.Merge([]SourceSet{
		{
			Name:    "registrations",
			Company: SourceSelfRegistration,
			Rows: []Partial{
				{AccountID: 1, Email: "a@a.com"},
				{AccountID: 2, Email: "b@b.com"},
			},
		},
		{
			Name:    "exam-results",
			Company: SourceSelfExam,
			Rows: []Partial{
				{AccountID: 1, ExamsAttempted: 1, ExamsPassed: 1},
				{Email: "b@b.com", ExamsAttempted: 1, ExamsPassed: 1},
			},
		},
	})

	require.Len(t, out, 2)
	seen := make(map[int64]bool)
	for _, l := range out {
		require.False(t, seen[l.AccountID], "account id %d appears twice", l.AccountID)
		seen[l.AccountID] = true
		assert.Equal(t, 1, l.ExamsPassed)
	}
}

func TestMerge_DeterministicOutputOrder(t *testing.T) {
	sets := []SourceSet{
		{
			Name:    "registrations",
			Company: SourceSelfRegistration,
			Rows: []Partial{
				{Email: "zeta@x.com"},
				{AccountID: 9, Email: "nine@x.com"},
				{Handle: "anonymous"},
				{AccountID: 3, Email: "three@x.com"},
			},
		},
	}

	first := New(DefaultPriority).Merge(sets)
	second := New(DefaultPriority).Merge(sets)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].Email, second[i].Email)
		assert.Equal(t, first[i].Handle, second[i].Handle)
	}

	// Records with account ids sort first, ascending.
	assert.Equal(t, int64(3), first[0].AccountID)
	assert.Equal(t, int64(9), first[1].AccountID)
}

func TestPriorityFromConfig(t *testing.T) {
	t.Run("empty uses default order", func(t *testing.T) {
		order, err := PriorityFromConfig(nil)
		require.NoError(t, err)
		assert.Equal(t, DefaultPriority, order)
	})

	t.Run("partial list is rejected", func(t *testing.T) {
		_, err := PriorityFromConfig([]string{"billing-customer"})
		assert.Error(t, err)
	})

	t.Run("unknown source is rejected", func(t *testing.T) {
		names := make([]string, 0, len(DefaultPriority))
		for _, src := range DefaultPriority {
			names = append(names, src.String())
		}
		names[0] = "carrier-pigeon"
		_, err := PriorityFromConfig(names)
		assert.Error(t, err)
	})

	t.Run("full reorder is accepted", func(t *testing.T) {
		names := make([]string, 0, len(DefaultPriority))
		for i := len(DefaultPriority) - 1; i >= 0; i-- {
			names = append(names, DefaultPriority[i].String())
		}
		order, err := PriorityFromConfig(names)
		require.NoError(t, err)
		assert.Equal(t, SourceBillingCustomer, order[0])
		assert.Equal(t, SourceEmailDomain, order[len(order)-1])
	})
}
