package errors

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"sales-kpi/internal/dataset"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestFromLoadError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantCode   ErrorCode
		wantStatus int
	}{
		{
			name:       "missing column",
			err:        &dataset.MissingColumnError{Columns: []string{"region"}},
			wantCode:   CodeValidation,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "wrapped cell error",
			err:        fmt.Errorf("sheets: %w", &dataset.CellError{Row: 3, Column: "cost", Value: "x", Reason: "not a number"}),
			wantCode:   CodeValidation,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "transport failure",
			err:        fmt.Errorf("dial tcp: connection refused"),
			wantCode:   CodeSourceUnavailable,
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name:       "cancelled",
			err:        context.Canceled,
			wantCode:   CodeServiceUnavail,
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name:       "already classified",
			err:        BadRequest("bins must be positive"),
			wantCode:   CodeBadRequest,
			wantStatus: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromLoadError(tt.err, "csv")
			if got.Code != tt.wantCode {
				t.Errorf("Code = %v, want %v", got.Code, tt.wantCode)
			}
			if got.StatusCode != tt.wantStatus {
				t.Errorf("StatusCode = %d, want %d", got.StatusCode, tt.wantStatus)
			}
		})
	}
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, testLogger(), Validation("bad filter"), "req-1")

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	var resp ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Success || resp.Error.Code != CodeValidation || resp.Error.RequestID != "req-1" {
		t.Errorf("response = %+v", resp.Error)
	}
}

func TestWriteError_PlainError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, testLogger(), fmt.Errorf("boom"), "")

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestWriteSuccess(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteSuccessWithHeaders(rec, map[string]int{"rows": 3}, map[string]string{"X-Data-Source": "synthetic"})

	if rec.Header().Get("X-Data-Source") != "synthetic" {
		t.Error("custom header not set")
	}
	var resp struct {
		Data    map[string]int `json:"data"`
		Success bool           `json:"success"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Success || resp.Data["rows"] != 3 {
		t.Errorf("response = %+v", resp)
	}
}
