package server

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/qbridge/pkg/summarizer"
)

func TestProcessEndpoint(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/v1/bedrock/process", map[string]any{
		"data_objects": []map[string]any{
			{"query": "ec2 analysis", "response": "i-0abc is idle"},
			{"query": "ebs analysis", "response": "vol-1 is unattached"},
		},
		"processing_type": "analysis",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var result ProcessingResponse
	env := decodeData(t, rec, &result)
	assert.Equal(t, "Successfully processed 2 data objects", env.Message)
	assert.Equal(t, "processed analysis", result.ProcessedData)
	assert.Equal(t, "analysis", result.ProcessingType)
	assert.Equal(t, "session-1700000000", result.SessionID)
	assert.EqualValues(t, 2, result.Metadata["input_objects_count"])
	assert.Equal(t, "fake", result.Metadata["provider"])

	require.Len(t, ts.processor.processCalls, 1)
	assert.Equal(t, "analysis", ts.processor.processCalls[0].processingType)
	assert.Len(t, ts.processor.processCalls[0].objects, 2)
}

func TestProcessValidation(t *testing.T) {
	tests := []struct {
		name string
		body map[string]any
		want string
	}{
		{
			name: "no objects",
			body: map[string]any{"data_objects": []map[string]any{}, "processing_type": "summary"},
			want: "at least one data object",
		},
		{
			name: "empty object",
			body: map[string]any{"data_objects": []map[string]any{{"k": "v"}, {}}, "processing_type": "summary"},
			want: "data object at index 1",
		},
		{
			name: "unknown processing type",
			body: map[string]any{"data_objects": []map[string]any{{"k": "v"}}, "processing_type": "weekly"},
			want: "processing type must be one of",
		},
		{
			name: "missing processing type",
			body: map[string]any{"data_objects": []map[string]any{{"k": "v"}}},
			want: "processing type must be one of",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)

			rec := ts.do(t, http.MethodPost, "/api/v1/bedrock/process", tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, decodeError(t, rec).Message, tt.want)
			assert.Empty(t, ts.processor.processCalls)
		})
	}
}

func TestDashboardSummaryEndpoint(t *testing.T) {
	t.Run("structured answer", func(t *testing.T) {
		ts := newTestServer(t)

		rec := ts.do(t, http.MethodPost, "/api/v1/bedrock/create-dashboard-summary", map[string]any{
			"processed_data": "idle instances: i-0abc, i-0def",
		})
		require.Equal(t, http.StatusOK, rec.Code)

		var result ProcessingResponse
		env := decodeData(t, rec, &result)
		assert.Equal(t, "Dashboard summary created successfully", env.Message)
		assert.Equal(t, map[string]any{"executive_summary": "idle fleet detected"}, result.ProcessedData)
		assert.Equal(t, true, result.Metadata["is_structured"])
		assert.Equal(t, "dashboard_summary", result.ProcessingType)

		require.Len(t, ts.processor.summaryCalls, 1)
		assert.Equal(t, "idle instances: i-0abc, i-0def", ts.processor.summaryCalls[0])
	})

	t.Run("prose answer stays a string", func(t *testing.T) {
		ts := newTestServer(t)
		ts.processor.summaryResult = &summarizer.Result{
			Response:       "the agent answered in prose",
			SessionID:      "dashboard-session-1700000000",
			ProcessingType: "dashboard_summary",
			Status:         summarizer.StatusCompleted,
			Provider:       "fake",
		}

		rec := ts.do(t, http.MethodPost, "/api/v1/bedrock/create-dashboard-summary", map[string]any{
			"processed_data": "idle instances: i-0abc",
		})
		require.Equal(t, http.StatusOK, rec.Code)

		var result ProcessingResponse
		decodeData(t, rec, &result)
		assert.Equal(t, "the agent answered in prose", result.ProcessedData)
		assert.Equal(t, false, result.Metadata["is_structured"])
	})

	t.Run("empty input", func(t *testing.T) {
		ts := newTestServer(t)
		rec := ts.do(t, http.MethodPost, "/api/v1/bedrock/create-dashboard-summary", map[string]any{
			"processed_data": "   ",
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, decodeError(t, rec).Message, "processed data cannot be empty")
	})
}

func TestBulkProcessEndpoint(t *testing.T) {
	ts := newTestServer(t)

	objects := make([]map[string]any, 5)
	for i := range objects {
		objects[i] = map[string]any{"query": "analysis", "index": i}
	}
	rec := ts.do(t, http.MethodPost, "/api/v1/bedrock/bulk-process", map[string]any{
		"data_objects": objects,
		"batch_size":   2,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var data struct {
		TotalObjects int              `json:"total_objects"`
		TotalBatches int              `json:"total_batches"`
		BatchSize    int              `json:"batch_size"`
		BatchResults []map[string]any `json:"batch_results"`
	}
	env := decodeData(t, rec, &data)
	assert.Equal(t, "Bulk processing completed: 5 objects in 3 batches", env.Message)
	assert.Equal(t, 5, data.TotalObjects)
	assert.Equal(t, 3, data.TotalBatches)
	assert.Equal(t, 2, data.BatchSize)

	require.Len(t, data.BatchResults, 3)
	assert.EqualValues(t, 1, data.BatchResults[0]["batch_number"])
	assert.EqualValues(t, 2, data.BatchResults[0]["objects_processed"])
	assert.EqualValues(t, 1, data.BatchResults[2]["objects_processed"])
	assert.Equal(t, "processed analysis", data.BatchResults[0]["result"])

	require.Len(t, ts.processor.processCalls, 3)
	for _, call := range ts.processor.processCalls {
		assert.Equal(t, "analysis", call.processingType)
	}
	assert.Len(t, ts.processor.processCalls[0].objects, 2)
	assert.Len(t, ts.processor.processCalls[2].objects, 1)
}

func TestBulkProcessValidation(t *testing.T) {
	t.Run("batch size too large", func(t *testing.T) {
		ts := newTestServer(t)
		rec := ts.do(t, http.MethodPost, "/api/v1/bedrock/bulk-process", map[string]any{
			"data_objects": []map[string]any{{"k": "v"}},
			"batch_size":   11,
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, decodeError(t, rec).Message, "between 1 and 10")
	})

	t.Run("too many objects", func(t *testing.T) {
		ts := newTestServer(t)
		objects := make([]map[string]any, 51)
		for i := range objects {
			objects[i] = map[string]any{"index": i}
		}
		rec := ts.do(t, http.MethodPost, "/api/v1/bedrock/bulk-process", map[string]any{
			"data_objects": objects,
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, decodeError(t, rec).Message, "maximum of 50")
	})
}

func TestSessionStatusPlaceholder(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/v1/bedrock/session/sess-9/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var data map[string]any
	env := decodeData(t, rec, &data)
	assert.Equal(t, "Session status placeholder", env.Message)
	assert.Equal(t, "sess-9", data["session_id"])
	assert.Equal(t, "placeholder", data["status"])
}
