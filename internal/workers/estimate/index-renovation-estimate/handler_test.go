// internal/workers/estimate/index-renovation-estimate/handler_test.go
package indexrenovationestimate

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	apperrors "renovation-estimator/internal/common/errors"
	"renovation-estimator/internal/common/logger"
	"renovation-estimator/internal/estimator"
	"renovation-estimator/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

type recordedRequest struct {
	Method string
	Path   string
	Body   []byte
}

// fakeElasticsearch replies to every request with status and body.
func fakeElasticsearch(t *testing.T, status int, body string) (*elasticsearch.Client, *[]recordedRequest) {
	var reqs []recordedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		reqs = append(reqs, recordedRequest{Method: r.Method, Path: r.URL.Path, Body: b})
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses:    []string{srv.URL},
		DisableRetry: true,
	})
	require.NoError(t, err)
	return client, &reqs
}

func createInput(t *testing.T) *Input {
	project := estimator.ProjectInput{
		Location:     "Urban Core",
		City:         "Manchester",
		PropertyAge:  "60+ years",
		PropertyType: "Terraced House",
		Rooms: []estimator.RoomInput{
			{RoomType: "Kitchen", Width: 3, Length: 4, FloorFinish: "Porcelain Tile", WallFinish: "Paint"},
			{RoomType: "Bedroom", Width: 3, Length: 3, FloorFinish: "Carpet", WallFinish: "Paint"},
			{RoomType: "Bedroom", Width: 2.5, Length: 3, FloorFinish: "Carpet", WallFinish: "Wallpaper"},
		},
	}
	result, err := estimator.CalculateEstimate(estimator.DefaultRateCard(), project)
	require.NoError(t, err)
	return &Input{EstimateID: "7c9e6679-7425-40de-944b-e07fc1f90ae7", Project: project, Estimate: result}
}

func createTestHandler(t *testing.T, client *elasticsearch.Client) *Handler {
	h := NewHandler(&Config{Timeout: 5 * time.Second, Index: "renovation-estimates", Refresh: "false"}, client, logger.NewTestLogger(t))
	h.now = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }
	return h
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_Success(t *testing.T) {
	client, reqs := fakeElasticsearch(t, http.StatusCreated,
		`{"_index":"renovation-estimates","_id":"7c9e6679-7425-40de-944b-e07fc1f90ae7","result":"created"}`)
	h := createTestHandler(t, client)
	input := createInput(t)

	out, err := h.Execute(context.Background(), input)
	require.NoError(t, err)
	assert.True(t, out.Indexed)
	assert.Equal(t, "renovation-estimates", out.IndexName)
	assert.Equal(t, input.EstimateID, out.DocumentID)
	assert.Equal(t, "created", out.Result)

	require.Len(t, *reqs, 1)
	req := (*reqs)[0]
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Equal(t, "/renovation-estimates/_doc/"+input.EstimateID, req.Path)

	var doc models.EstimateDocument
	require.NoError(t, json.Unmarshal(req.Body, &doc))
	assert.Equal(t, input.EstimateID, doc.EstimateID)
	assert.Equal(t, "Manchester", doc.City)
	assert.Equal(t, 3, doc.RoomCount)
	assert.Equal(t, []string{"Kitchen", "Bedroom"}, doc.RoomTypes)
	assert.Equal(t, 28.5, doc.TotalArea)
	assert.Equal(t, input.Estimate.Total, doc.Total)
	assert.Equal(t, input.Estimate.Summary.TaxTotal, doc.TaxTotal)
}

// ==========================
// Error Path Tests
// ==========================

func TestHandler_Execute_Errors(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		mutate        func(in *Input)
		wantCode      apperrors.ErrorCode
		wantRetryable bool
	}{
		{
			name:     "missing estimate id",
			status:   http.StatusCreated,
			mutate:   func(in *Input) { in.EstimateID = "" },
			wantCode: apperrors.ErrCodeEstimateInvalidInput,
		},
		{
			name:     "missing estimate",
			status:   http.StatusCreated,
			mutate:   func(in *Input) { in.Estimate = nil },
			wantCode: apperrors.ErrCodeEstimateInvalidInput,
		},
		{
			name:     "index missing",
			status:   http.StatusNotFound,
			wantCode: apperrors.ErrCodeIndexNotFound,
		},
		{
			name:          "cluster error",
			status:        http.StatusInternalServerError,
			wantCode:      apperrors.ErrCodeSearchIndexFailed,
			wantRetryable: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := fakeElasticsearch(t, tt.status, `{"error":{"type":"test"}}`)
			h := createTestHandler(t, client)
			in := createInput(t)
			if tt.mutate != nil {
				tt.mutate(in)
			}

			_, err := h.Execute(context.Background(), in)
			require.Error(t, err)
			stdErr := apperrors.FromEstimatorError(err)
			assert.Equal(t, tt.wantCode, stdErr.Code)
			assert.Equal(t, tt.wantRetryable, stdErr.Retryable)
		})
	}
}

func TestHandler_Execute_Unreachable(t *testing.T) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses:    []string{"http://127.0.0.1:1"},
		DisableRetry: true,
	})
	require.NoError(t, err)
	h := createTestHandler(t, client)

	_, err = h.Execute(context.Background(), createInput(t))
	require.Error(t, err)
	stdErr := apperrors.FromEstimatorError(err)
	assert.Equal(t, apperrors.ErrCodeElasticsearchConnectionFailed, stdErr.Code)
	assert.True(t, stdErr.Retryable)
}
