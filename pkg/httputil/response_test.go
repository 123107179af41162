package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/mockapi/pkg/endpoint"
)

func TestWriteJSON(t *testing.T) {
	t.Parallel()

	t.Run("writes JSON with correct content type", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		data := map[string]string{"foo": "bar"}

		WriteJSON(rec, http.StatusOK, data)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		var result map[string]string
		err := json.Unmarshal(rec.Body.Bytes(), &result)
		require.NoError(t, err)
		assert.Equal(t, "bar", result["foo"])
	})

	t.Run("handles nil data", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()

		WriteJSON(rec, http.StatusNoContent, nil)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Empty(t, rec.Body.String())
	})

	t.Run("created", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()

		WriteCreated(rec, map[string]string{"url": "http://x/p/r"})

		assert.Equal(t, http.StatusCreated, rec.Code)
	})
}

func TestWriteError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		err    error
		status int
		want   map[string]string
	}{
		{
			name:   "not found carries context",
			err:    &endpoint.NotFoundError{Project: "shop", Route: "items", Method: "GET"},
			status: http.StatusNotFound,
			want:   map[string]string{"error": "endpoint not found", "project": "shop", "route": "items", "method": "GET"},
		},
		{
			name:   "method not allowed carries expected",
			err:    &endpoint.MethodNotAllowedError{Method: "POST", Expected: "GET"},
			status: http.StatusMethodNotAllowed,
			want:   map[string]string{"error": "method not allowed", "method": "POST", "expected": "GET"},
		},
		{
			name:   "bad request carries uri",
			err:    &endpoint.BadRequestError{Message: "missing route", URI: "/shop"},
			status: http.StatusBadRequest,
			want:   map[string]string{"error": "bad request", "detail": "missing route", "uri": "/shop"},
		},
		{
			name:   "unknown errors are internal",
			err:    errors.New("disk on fire"),
			status: http.StatusInternalServerError,
			want:   map[string]string{"error": "internal error", "detail": "disk on fire"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := httptest.NewRecorder()

			got := WriteError(rec, tt.err)

			assert.Equal(t, tt.status, got)
			assert.Equal(t, tt.status, rec.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.want, body)
		})
	}
}

func TestWriteTooManyRequests(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteTooManyRequests(rec, "slow down")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.JSONEq(t, `{"error":"slow down"}`, rec.Body.String())
}
