package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adfharrison1/go-campus/pkg/campus"
	"github.com/adfharrison1/go-campus/pkg/domain"
	"github.com/adfharrison1/go-campus/pkg/snapshot"
	"github.com/adfharrison1/go-campus/pkg/storage"
)

func newTestRouter(t *testing.T, options ...HandlerOption) *mux.Router {
	t.Helper()
	collections, err := storage.LoadFixturesFile("../../fixtures/campus.yaml")
	require.NoError(t, err)
	catalog, err := storage.NewCatalog(collections)
	require.NoError(t, err)

	options = append([]HandlerOption{WithDescriber(catalog)}, options...)
	handler := NewHandler(campus.NewPortal(catalog), options...)

	router := mux.NewRouter()
	handler.RegisterRoutes(router)
	return router
}

func get(router http.Handler, path, role string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", path, nil)
	if role != "" {
		req.Header.Set(HeaderUserID, "u-1")
		req.Header.Set(HeaderUserRole, role)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp
}

func TestHandler_HandleHealth(t *testing.T) {
	router := newTestRouter(t)

	w := get(router, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)

	var resp HealthResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "healthy", resp.Status)
}

func TestHandler_SessionRequired(t *testing.T) {
	router := newTestRouter(t)

	w := get(router, "/datasets", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, http.StatusUnauthorized, decodeError(t, w).Code)
}

func TestHandler_HandleListDatasets(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		name           string
		role           string
		expectedStatus int
		expectedNames  []string
	}{
		{"student", "student", http.StatusOK, []string{"courses", "fees", "library", "exams", "timetable"}},
		{"faculty", "faculty", http.StatusOK, []string{"courses", "exams", "timetable"}},
		{"admin with prefix form", "admin:", http.StatusOK, []string{"courses", "fees", "library", "exams", "timetable"}},
		{"unknown role", "guest", http.StatusForbidden, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(router, "/datasets", tt.role)
			require.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedNames == nil {
				return
			}

			var resp struct {
				Datasets []DatasetSummary `json:"datasets"`
				Count    int              `json:"count"`
			}
			require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
			names := make([]string, 0, len(resp.Datasets))
			for _, d := range resp.Datasets {
				names = append(names, d.Name)
			}
			assert.Equal(t, tt.expectedNames, names)
			assert.Equal(t, len(tt.expectedNames), resp.Count)
			assert.EqualValues(t, 12, resp.Datasets[0].RecordCount)
		})
	}
}

func TestHandler_HandleRows(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		name            string
		path            string
		expectedTotal   int
		expectedPage    int
		expectedItems   int
		expectedCaption string
	}{
		{"first page", "/datasets/courses/rows", 12, 1, 5, "Showing 1 to 5 of 12"},
		{"last page", "/datasets/courses/rows?page=3", 12, 3, 2, "Showing 11 to 12 of 12"},
		{"page clamped", "/datasets/courses/rows?page=99", 12, 3, 2, "Showing 11 to 12 of 12"},
		{"free text", "/datasets/courses/rows?q=COMPUTER&page_size=10", 8, 1, 8, "Showing 1 to 8 of 8"},
		{"numeric filter from string", "/datasets/courses/rows?f.semester=5", 3, 1, 3, "Showing 1 to 3 of 3"},
		{"filter and text", "/datasets/courses/rows?f.semester=3&q=dr.%20mehta", 2, 1, 2, "Showing 1 to 2 of 2"},
		{"nothing matches", "/datasets/courses/rows?q=zzz", 0, 1, 0, "Showing 0 to 0 of 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(router, tt.path, "student")
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())

			var resp RowsResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
			assert.Equal(t, "courses", resp.Dataset)
			assert.Equal(t, tt.expectedTotal, resp.Window.Total)
			assert.Equal(t, tt.expectedPage, resp.Window.Page)
			assert.Len(t, resp.Window.Items, tt.expectedItems)
			assert.Equal(t, tt.expectedCaption, resp.Caption)
		})
	}
}

func TestHandler_HandleRows_Errors(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		name           string
		path           string
		role           string
		expectedStatus int
	}{
		{"faculty cannot see fees", "/datasets/fees/rows", "faculty", http.StatusForbidden},
		{"unknown dataset", "/datasets/nope/rows", "admin", http.StatusNotFound},
		{"zero page size", "/datasets/courses/rows?page_size=0", "student", http.StatusBadRequest},
		{"page size too large", "/datasets/courses/rows?page_size=101", "student", http.StatusBadRequest},
		{"page not a number", "/datasets/courses/rows?page=two", "student", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(router, tt.path, tt.role)
			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, tt.expectedStatus, decodeError(t, w).Code)
		})
	}
}

func TestHandler_HandleFacet(t *testing.T) {
	router := newTestRouter(t)

	w := get(router, "/datasets/fees/facets/status", "student")
	require.Equal(t, http.StatusOK, w.Code)

	var facet domain.Facet
	require.NoError(t, json.NewDecoder(w.Body).Decode(&facet))
	assert.Equal(t, "status", facet.Field)
	require.Len(t, facet.Values, 3)

	counts := map[interface{}]int{}
	for _, v := range facet.Values {
		counts[v.Value] = v.Count
	}
	assert.Equal(t, map[interface{}]int{"Paid": 3, "Pending": 2, "Overdue": 1}, counts)

	w = get(router, "/datasets/fees/facets/status", "faculty")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestHandler_HandleExportCSV(t *testing.T) {
	router := newTestRouter(t)

	w := get(router, "/datasets/fees/export.csv?f.status=Paid&tab=paid&page=2", "student")
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, "attachment; filename=Fee_Statement_paid.csv", w.Header().Get("Content-Disposition"))
	assert.NotEmpty(t, w.Header().Get("X-Export-Id"))

	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	require.Len(t, lines, 4, "header plus every paid row, regardless of page")
	assert.Equal(t, "id,term,description,amount,due_date,status", lines[0])
	for _, line := range lines[1:] {
		assert.True(t, strings.HasSuffix(line, ",Paid"), line)
	}
}

func TestHandler_HandleSnapshot(t *testing.T) {
	t.Run("document", func(t *testing.T) {
		router := newTestRouter(t)

		w := get(router, "/datasets/courses/snapshot?orientation=landscape&all=true", "student")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, snapshot.PDFContentType, w.Header().Get("Content-Type"))
		assert.Equal(t, "attachment; filename=courses_snapshot.pdf", w.Header().Get("Content-Disposition"))
		assert.Equal(t, "done", w.Header().Get("X-Snapshot-State"))
		assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF-")))
	})

	t.Run("degraded to inline image", func(t *testing.T) {
		router := newTestRouter(t, WithSnapshotOptions(snapshot.WithDocumentProviders()))

		w := get(router, "/datasets/courses/snapshot", "student")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, snapshot.PNGContentType, w.Header().Get("Content-Type"))
		assert.Equal(t, "inline; filename=courses_snapshot.png", w.Header().Get("Content-Disposition"))
		assert.Equal(t, "done_degraded", w.Header().Get("X-Snapshot-State"))
		assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("\x89PNG")))
	})

	t.Run("no backend", func(t *testing.T) {
		router := newTestRouter(t, WithSnapshotOptions(
			snapshot.WithDocumentProviders(),
			snapshot.WithRasterProviders(),
		))

		w := get(router, "/datasets/courses/snapshot", "student")
		assert.Equal(t, http.StatusNotImplemented, w.Code)
		assert.Equal(t, snapshot.UnsupportedMessage, decodeError(t, w).Message)
	})

	t.Run("bad orientation", func(t *testing.T) {
		router := newTestRouter(t)

		w := get(router, "/datasets/courses/snapshot?orientation=sideways", "student")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("margin", func(t *testing.T) {
		router := newTestRouter(t)

		tests := []struct {
			margin         string
			expectedStatus int
		}{
			{"20", http.StatusOK},
			{"0", http.StatusOK},
			{"-1", http.StatusBadRequest},
			{"wide", http.StatusBadRequest},
			{"200", http.StatusBadRequest},
		}
		for _, tt := range tests {
			w := get(router, "/datasets/courses/snapshot?margin="+tt.margin, "student")
			assert.Equal(t, tt.expectedStatus, w.Code, "margin %s: %s", tt.margin, w.Body.String())
		}
	})

	t.Run("forbidden", func(t *testing.T) {
		router := newTestRouter(t)

		w := get(router, "/datasets/library/snapshot", "faculty")
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestIdentityFromRequest(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(HeaderUserID, " s-9 ")
	req.Header.Set(HeaderUserRole, "Student")
	req.Header.Set(HeaderUserName, "Asha")

	id := IdentityFromRequest(req)
	assert.Equal(t, "s-9", id.UserID)
	assert.Equal(t, "Asha", id.DisplayName)
	assert.True(t, id.IsStudent())
}

func TestHandler_SessionResolver(t *testing.T) {
	router := newTestRouter(t, WithSessionResolver(campus.StaticSession{UserID: "kiosk", Role: domain.RoleFaculty}))

	w := get(router, "/datasets", "")
	require.Equal(t, http.StatusOK, w.Code, "the resolver places requests without headers")

	var resp struct {
		Role  string `json:"role"`
		Count int    `json:"count"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, domain.RoleFaculty, resp.Role)
	assert.Equal(t, 3, resp.Count)

	w = get(router, "/datasets/fees/rows", "admin")
	assert.Equal(t, http.StatusForbidden, w.Code, "headers do not override the resolver")

	router = newTestRouter(t, WithSessionResolver(campus.StaticSession{UserID: "kiosk"}))
	w = get(router, "/datasets", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func feesBundle(t *testing.T, path string, bump time.Duration, statuses ...string) {
	t.Helper()
	fees := storage.NewCollection("fees", "id", "status")
	for i, status := range statuses {
		fees.Records = append(fees.Records, domain.Record{"id": i + 1, "status": status})
	}
	require.NoError(t, storage.WriteBundleFile(context.Background(), path, []*storage.Collection{fees}))
	when := time.Now().Add(bump)
	require.NoError(t, os.Chtimes(path, when, when))
}

func TestHandler_HandleFacet_AfterReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "campus.campus")
	feesBundle(t, path, 0, "Paid", "Paid")

	catalog, err := storage.OpenCatalog(context.Background(), path)
	require.NoError(t, err)
	defer catalog.Close()

	handler := NewHandler(campus.NewPortal(catalog), WithDescriber(catalog), WithReloadNotifier(catalog))
	router := mux.NewRouter()
	handler.RegisterRoutes(router)

	facetValues := func() map[interface{}]int {
		w := get(router, "/datasets/fees/facets/status", "student")
		require.Equal(t, http.StatusOK, w.Code)
		var facet domain.Facet
		require.NoError(t, json.NewDecoder(w.Body).Decode(&facet))
		counts := map[interface{}]int{}
		for _, v := range facet.Values {
			counts[v.Value] = v.Count
		}
		return counts
	}

	assert.Equal(t, map[interface{}]int{"Paid": 2}, facetValues())

	feesBundle(t, path, time.Minute, "Overdue")
	changed, err := catalog.Reload(context.Background())
	require.NoError(t, err)
	require.True(t, changed)

	w := get(router, "/datasets/fees/rows", "student")
	require.Equal(t, http.StatusOK, w.Code)
	var rows RowsResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&rows))
	assert.Equal(t, 1, rows.Window.Total)

	assert.Equal(t, map[interface{}]int{"Overdue": 1}, facetValues())
}
