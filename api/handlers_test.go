package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/warp/mdf-accruals/api"
	"github.com/warp/mdf-accruals/config"
	"github.com/warp/mdf-accruals/store/sqlite"
)

// =============================================================================
// TEST FIXTURES
// =============================================================================

func workbookBytes(t *testing.T, rows [][]interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, f.Close())
	return buf.Bytes()
}

func lifecycleWorkbook(t *testing.T) []byte {
	return workbookBytes(t, [][]interface{}{
		{"PA Number", "Claim Number", "Activity Name", "Partner Name", "Partner Type",
			"Region", "Country", "Program", "Claim Status", "PA Status",
			"Activity Start Date", "Activity End Date", "Approved PA in Local Currency",
			"Claim Approved Amount (Local)", "Partner Local Currency",
			"APPROVAL_BUDGET_FUND", "APPROVAL_BUDGET_NAME"},
		{"P-100", "C-1", "Partner Campaign", "Globex", "Reseller",
			"NA", "US", "Alliance Coop", "Submitted", "Approved",
			"2024-01-01", "2024-01-10", 1000,
			300, "USD",
			"FY24 Alliance Fund", "Alliance Fund"},
	})
}

func trackerWorkbook(t *testing.T) []byte {
	return workbookBytes(t, [][]interface{}{
		{"Claim Number", "Payment Amount (Partner Currency)", "Status"},
		{"C-1", 0, "Open"},
	})
}

func countryWorkbook(t *testing.T) []byte {
	return workbookBytes(t, [][]interface{}{
		{"Country Name", "Country Code", "Company Code", "Location Code", "New Region This Week"},
		{"United States", "US", 100, 77, "NA"},
	})
}

func activitiesWorkbook(t *testing.T) []byte {
	return workbookBytes(t, [][]interface{}{
		{"Activity Name", "Accounting Category", "Cost Center", "DR Entry", "CR Entry",
			"APAC", "EMEA", "LATAM", "NA"},
		{"Partner Campaign", "Marketing Expense", 7, 100200, 200300,
			"", "", "", 0.5},
	})
}

func newTestRouter(t *testing.T) (http.Handler, *sqlite.Store) {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	cfg := config.Default()
	cfg.AccrualYear = 2024
	handler := api.NewHandler(store, cfg, zerolog.Nop())
	return api.NewRouter(handler), store
}

func uploadRequest(t *testing.T, files map[string][]byte) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	form := multipart.NewWriter(body)
	for field, content := range files {
		part, err := form.CreateFormFile(field, field+".xlsx")
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, form.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/reports/build", body)
	req.Header.Set("Content-Type", form.FormDataContentType())
	return req
}

func allUploads(t *testing.T) map[string][]byte {
	return map[string][]byte{
		"activity_lifecycle": lifecycleWorkbook(t),
		"payment_tracker":    trackerWorkbook(t),
		"country_codes":      countryWorkbook(t),
		"activities_table":   activitiesWorkbook(t),
	}
}

// =============================================================================
// BUILD ENDPOINT
// =============================================================================

func TestBuildReport_EndToEnd(t *testing.T) {
	// GIVEN: The four source workbooks with one live claim
	// WHEN: Uploading them to the build endpoint
	// THEN: The response streams a report workbook and records a completed run

	router, store := newTestRouter(t)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, allUploads(t)))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Run-ID"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ".xlsx")

	report, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer report.Close()

	rows, err := report.GetRows("Accruals")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "PA Number", rows[0][0])
	assert.Equal(t, "P-100", rows[1][0])
	assert.Contains(t, rows[0], "Total Accrual")

	runs, err := store.ListRuns(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, sqlite.RunCompleted, runs[0].Status)
	assert.Equal(t, 1, runs[0].InputRows)
	assert.Equal(t, 1, runs[0].OutputRows)
}

func TestBuildReport_MissingUpload_BadRequest(t *testing.T) {
	// GIVEN: An upload missing three of the four workbooks
	// WHEN: Posting it
	// THEN: 400 with an error body naming the gap

	router, _ := newTestRouter(t)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, map[string][]byte{
		"activity_lifecycle": lifecycleWorkbook(t),
	}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp["error"])
}

func TestBuildReport_BadSourceData_Unprocessable(t *testing.T) {
	// GIVEN: An activities table that does not know the claimed activity
	// WHEN: Building
	// THEN: 422 and the run is recorded as failed

	uploads := allUploads(t)
	uploads["activities_table"] = workbookBytes(t, [][]interface{}{
		{"Activity Name", "Accounting Category", "Cost Center", "DR Entry", "CR Entry",
			"APAC", "EMEA", "LATAM", "NA"},
		{"Different Event", "Marketing Expense", 7, 100200, 200300,
			"", "", "", 0.5},
	})

	router, store := newTestRouter(t)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, uploads))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())

	runs, err := store.ListRuns(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, sqlite.RunFailed, runs[0].Status)
	assert.NotEmpty(t, runs[0].Error)
}

// =============================================================================
// RUNS AND HEALTH ENDPOINTS
// =============================================================================

func TestListRuns_Endpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	// Empty history first
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/runs", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var runs []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &runs))
	assert.Empty(t, runs)

	// After a build there is one
	build := httptest.NewRecorder()
	router.ServeHTTP(build, uploadRequest(t, allUploads(t)))
	require.Equal(t, http.StatusOK, build.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/runs", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, "completed", runs[0]["status"])
}

func TestGetRun_Unknown_NotFound(t *testing.T) {
	router, _ := newTestRouter(t)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/runs/ghost", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealth_Endpoint(t *testing.T) {
	router, _ := newTestRouter(t)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var health map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "ok", health["status"])
	assert.Equal(t, float64(2024), health["accrual_year"])
}
