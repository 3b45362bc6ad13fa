package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var limitOffsetRe = regexp.MustCompile(`LIMIT (\d+) OFFSET (\d+)$`)

// fakeWarehouse serves totalRows rows, honoring LIMIT/OFFSET suffixes.
func fakeWarehouse(t *testing.T, totalRows int, requests *int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		*requests++

		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req struct {
			Query string `json:"query"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		m := limitOffsetRe.FindStringSubmatch(req.Query)
		require.NotNil(t, m, "query must carry LIMIT/OFFSET: %s", req.Query)
		limit, _ := strconv.Atoi(m[1])
		offset, _ := strconv.Atoi(m[2])

		var rows []Row
		for i := offset; i < offset+limit && i < totalRows; i++ {
			rows = append(rows, Row{"email": fmt.Sprintf("u%d@x.com", i)})
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"rows": rows})
	}
}

func TestQueryFetchesAllChunks(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(fakeWarehouse(t, 25, &requests))
	defer srv.Close()

	client := NewClient(srv.URL, "test-key", 10, 5, 1)
	rows, err := client.Query(context.Background(), "SELECT email FROM sales_contacts")
	require.NoError(t, err)

	assert.Len(t, rows, 25)
	assert.Equal(t, 3, requests, "25 rows at chunk size 10 take 3 requests")
	assert.Equal(t, "u0@x.com", rows[0]["email"])
	assert.Equal(t, "u24@x.com", rows[24]["email"])
}

func TestQuerySingleShortChunk(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(fakeWarehouse(t, 4, &requests))
	defer srv.Close()

	client := NewClient(srv.URL, "test-key", 10, 5, 1)
	rows, err := client.Query(context.Background(), "SELECT email FROM sales_contacts")
	require.NoError(t, err)

	assert.Len(t, rows, 4)
	assert.Equal(t, 1, requests)
}

func TestQueryServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "warehouse on fire", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "test-key", 10, 5, 1)
	_, err := client.Query(context.Background(), "SELECT 1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "warehouse on fire")
}

func TestQueryWithoutEndpoint(t *testing.T) {
	client := NewClient("", "", 10, 5, 1)
	_, err := client.Query(context.Background(), "SELECT 1")
	assert.Error(t, err)
}
