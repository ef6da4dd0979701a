package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAssistError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *AssistError
		expected string
	}{
		{
			name:     "error without cause",
			err:      New(CategoryConfig, SeverityFatal, "configuration invalid"),
			expected: "config (fatal): configuration invalid",
		},
		{
			name:     "error with cause",
			err:      Wrap(fmt.Errorf("file not found"), CategoryConfig, SeverityFatal, "failed to load config"),
			expected: "config (fatal): failed to load config: file not found",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := test.err.Error()
			if result != test.expected {
				t.Errorf("Error() = %q, want %q", result, test.expected)
			}
		})
	}
}

func TestAssistError_WithContext(t *testing.T) {
	err := New(CategoryMarketplace, SeverityWarning, "search failed").
		WithContext("keyword", "headphones").
		WithContext("attempt", 2)

	if err.Context == nil {
		t.Fatal("Context should not be nil")
	}
	if err.Context["keyword"] != "headphones" {
		t.Errorf("Context[keyword] = %v, want headphones", err.Context["keyword"])
	}
	if err.Context["attempt"] != 2 {
		t.Errorf("Context[attempt] = %v, want 2", err.Context["attempt"])
	}
}

func TestAssistError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := Wrap(cause, CategoryNetwork, SeverityWarning, "request failed")

	if !stdErrors.Is(err, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}
}

func TestIsRetryable(t *testing.T) {
	if !IsRetryable(LLMRequestError("gpt", fmt.Errorf("timeout"))) {
		t.Error("LLM request errors should be retryable")
	}
	if IsRetryable(ValidationError("bad input")) {
		t.Error("validation errors should not be retryable")
	}
	if IsRetryable(fmt.Errorf("plain error")) {
		t.Error("plain errors should not be retryable")
	}
}

func TestIsCategory(t *testing.T) {
	err := MarketplaceUnavailable(fmt.Errorf("dial tcp: refused"))
	if !IsCategory(err, CategoryMarketplace) {
		t.Error("expected marketplace category")
	}
	if IsCategory(err, CategoryLLM) {
		t.Error("unexpected llm category")
	}
}

func TestGetCategory_PlainError(t *testing.T) {
	if got := GetCategory(fmt.Errorf("boom")); got != CategoryInternal {
		t.Errorf("GetCategory = %v, want internal", got)
	}
}

func TestCLIAdapter_ExitCodes(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, nil)

	tests := []struct {
		err  error
		code int
	}{
		{nil, 0},
		{ValidationError("bad"), 2},
		{ConfigRequired("api_key"), 7},
		{LLMAuthError(fmt.Errorf("401")), 5},
		{MarketplaceUnavailable(fmt.Errorf("down")), 8},
		{StoreError("save", fmt.Errorf("disk")), 11},
		{DaemonError("not running"), 12},
		{InternalError("bug", nil), 10},
		{fmt.Errorf("plain"), 1},
	}

	for _, test := range tests {
		if got := adapter.ExitCodeFor(test.err); got != test.code {
			t.Errorf("ExitCodeFor(%v) = %d, want %d", test.err, got, test.code)
		}
	}
}

func TestHTTPAdapter_StatusCodes(t *testing.T) {
	adapter := NewHTTPErrorAdapter(nil)

	tests := []struct {
		err    error
		status int
	}{
		{nil, http.StatusOK},
		{MissingKeyword(), http.StatusBadRequest},
		{MarketplaceAuthError(fmt.Errorf("AccessDenied")), http.StatusForbidden},
		{MarketplaceThrottled(fmt.Errorf("TooManyRequests")), http.StatusTooManyRequests},
		{RecordNotFound("wishlist", "abc"), http.StatusNotFound},
		{LLMRequestError("gpt", fmt.Errorf("boom")), http.StatusBadGateway},
		{DaemonError("stopped"), http.StatusServiceUnavailable},
		{fmt.Errorf("plain"), http.StatusInternalServerError},
	}

	for _, test := range tests {
		if got := adapter.StatusCodeFor(test.err); got != test.status {
			t.Errorf("StatusCodeFor(%v) = %d, want %d", test.err, got, test.status)
		}
	}
}

func TestHTTPAdapter_WriteErrorResponse(t *testing.T) {
	adapter := NewHTTPErrorAdapter(nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/search", nil)

	adapter.WriteErrorResponse(rec, req, MissingKeyword())

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q, want application/json", ct)
	}
	body := rec.Body.String()
	if body == "" || body[0] != '{' {
		t.Errorf("expected JSON body, got %q", body)
	}
}
