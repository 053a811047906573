package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gostats/app"
	"gostats/domain/core"
	"gostats/domain/distribution"
	"gostats/domain/stats"
	"gostats/internal"
	"gostats/internal/errors"
	"gostats/internal/testkit"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T) (*gin.Engine, *testkit.MemoryRepository) {
	t.Helper()
	repo := testkit.NewMemoryRepository()
	logger := internal.NewLogger(internal.LogLevelError)
	service := app.NewStatsService(app.ServiceOptions{Repository: repo, Logger: logger, FacetWorkers: 2})
	return NewRouter(service, logger), repo
}

func do(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func independentPayload() DistributionPayload {
	var records []distribution.Record
	for i := 1; i <= 5; i++ {
		records = append(records,
			distribution.Record{Group: "A", Value: float64(i)},
			distribution.Record{Group: "B", Value: float64(i + 5)},
		)
	}
	return DistributionPayload{
		Tags:    distribution.SingleTags(distribution.Unordered, distribution.Independent),
		Records: records,
	}
}

func nestedPayload() DistributionPayload {
	var records []distribution.Record
	for _, outer := range []string{"x", "y"} {
		for _, s := range []string{"s1", "s2", "s3"} {
			for i, g := range []string{"1", "2"} {
				records = append(records, distribution.Record{
					Subject: s, Group: g, Facet: outer, Value: float64(len(s)+i) + float64(s[1]-'0'),
				})
			}
		}
	}
	return DistributionPayload{
		Tags:    distribution.NestedTags(distribution.Ordered, distribution.Matched),
		Records: records,
	}
}

func decodeTable(t *testing.T, w *httptest.ResponseRecorder) *stats.StatsTable {
	t.Helper()
	var table stats.StatsTable
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &table), w.Body.String())
	return &table
}

func TestHandler_Health(t *testing.T) {
	router, _ := newTestRouter(t)
	w := do(t, router, http.MethodGet, "/api/v1/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestHandler_MannWhitneyU(t *testing.T) {
	router, repo := newTestRouter(t)
	w := do(t, router, http.MethodPost, "/api/v1/mann-whitney-u", TestRequest{
		Distribution: independentPayload(),
		Persist:      true,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	table := decodeTable(t, w)
	require.Equal(t, 1, table.Len())
	assert.InDelta(t, 2.0/252.0, table.Rows()[0].PValue, 1e-12)

	stored, err := repo.GetTable(t.Context(), table.ID)
	require.NoError(t, err)
	assert.Equal(t, table.Fingerprint(), stored.Fingerprint())
}

func TestHandler_Errors(t *testing.T) {
	router, _ := newTestRouter(t)
	matched := nestedPayload()

	tests := []struct {
		name   string
		path   string
		body   interface{}
		status int
		code   string
	}{
		{"malformed body", "/api/v1/mann-whitney-u", "not an object", http.StatusBadRequest, errors.CodeValidationError},
		{"missing records", "/api/v1/mann-whitney-u", TestRequest{}, http.StatusBadRequest, errors.CodeValidationError},
		{"invalid tags", "/api/v1/mann-whitney-u", TestRequest{Distribution: DistributionPayload{Records: []distribution.Record{}}},
			http.StatusBadRequest, errors.CodeSchemaError},
		{"wrong test for pairing", "/api/v1/wilcoxon-srt", TestRequest{Distribution: independentPayload()},
			http.StatusUnprocessableEntity, errors.CodeInvalidComparison},
		{"unfaceted nested", "/api/v1/wilcoxon-srt", TestRequest{Distribution: matched},
			http.StatusUnprocessableEntity, errors.CodeInvalidComparison},
		{"bad alternative", "/api/v1/mann-whitney-u", TestRequest{Distribution: independentPayload(), Params: stats.Params{Alternative: "up"}},
			http.StatusBadRequest, errors.CodeValidationError},
		{"across of single", "/api/v1/facet/across", FacetRequest{Distribution: independentPayload()},
			http.StatusUnprocessableEntity, errors.CodeInvalidComparison},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, router, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.code, resp.Code)
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestHandler_FacetAndCollate(t *testing.T) {
	router, _ := newTestRouter(t)

	w := do(t, router, http.MethodPost, "/api/v1/facet/within", FacetRequest{Distribution: nestedPayload()})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var facets FacetResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &facets))
	require.Len(t, facets.Facets, 2)
	assert.Equal(t, "x", facets.Facets[0].Key)
	assert.Equal(t, distribution.Single, facets.Facets[0].Distribution.Tags.Multiplicity)

	// run each facet on its own, then collate
	var tables []*stats.StatsTable
	var keys []string
	for _, f := range facets.Facets {
		w := do(t, router, http.MethodPost, "/api/v1/wilcoxon-srt", TestRequest{Distribution: f.Distribution})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		tables = append(tables, decodeTable(t, w))
		keys = append(keys, f.Key)
	}
	w = do(t, router, http.MethodPost, "/api/v1/collate", CollateRequest{Tables: tables, Keys: keys})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	collated := decodeTable(t, w)

	// the facet entry point gives the same rows
	w = do(t, router, http.MethodPost, "/api/v1/wilcoxon-srt/facet", TestRequest{Distribution: nestedPayload()})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	direct := decodeTable(t, w)

	require.Equal(t, collated.Len(), direct.Len())
	for i, r := range direct.Rows() {
		assert.Equal(t, stats.FormatRow(collated.Rows()[i]), stats.FormatRow(r))
	}
}

func TestHandler_CollateMismatch(t *testing.T) {
	router, _ := newTestRouter(t)
	mw := stats.NewStatsTable(stats.TestMannWhitneyU, stats.CompareAllPairwise, stats.TwoSided).Freeze()
	w := stats.NewStatsTable(stats.TestWilcoxonSRT, stats.CompareAllPairwise, stats.TwoSided).Freeze()

	resp := do(t, router, http.MethodPost, "/api/v1/collate", CollateRequest{
		Tables: []*stats.StatsTable{mw, w},
		Keys:   []string{"a", "b"},
	})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, resp.Body.String(), errors.CodeSchemaMismatch)
}

func TestHandler_Tables(t *testing.T) {
	router, _ := newTestRouter(t)
	w := do(t, router, http.MethodPost, "/api/v1/mann-whitney-u", TestRequest{Distribution: independentPayload(), Persist: true})
	require.Equal(t, http.StatusOK, w.Code)
	id := decodeTable(t, w).ID.String()

	w = do(t, router, http.MethodGet, "/api/v1/tables", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), id)

	tests := []struct {
		format      string
		contentType string
		contains    string
	}{
		{"json", "application/json", `"group_a":"A"`},
		{"tsv", "text/tab-separated-values", "test-statistic:U"},
		{"html", "text/html", "<table>"},
		{"xlsx", "application/vnd.openxmlformats", ""},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			w := do(t, router, http.MethodGet, "/api/v1/tables/"+id+"?format="+tt.format, nil)
			require.Equal(t, http.StatusOK, w.Code)
			assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), tt.contentType), w.Header().Get("Content-Type"))
			assert.Contains(t, w.Body.String(), tt.contains)
		})
	}

	w = do(t, router, http.MethodGet, "/api/v1/tables/"+id+"?format=pdf", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, router, http.MethodGet, "/api/v1/tables/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, router, http.MethodDelete, "/api/v1/tables/"+id, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, router, http.MethodGet, "/api/v1/tables/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, router, http.MethodGet, "/api/v1/tables/"+core.NewTableID().String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, StatusFor(errors.CodeSchemaError))
	assert.Equal(t, http.StatusUnprocessableEntity, StatusFor(errors.CodeUnsupportedExact))
	assert.Equal(t, http.StatusNotFound, StatusFor(errors.CodeNotFound))
	assert.Equal(t, http.StatusServiceUnavailable, StatusFor(errors.CodeDatabaseError))
	assert.Equal(t, http.StatusInternalServerError, StatusFor("SOMETHING_ELSE"))
}
