package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	err := NewAppError(ErrCodeInvalidInput, "test error", 400)
	expected := "INVALID_INPUT: test error"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestAppError_WithCause(t *testing.T) {
	originalErr := errors.New("original error")
	err := WrapError(originalErr, ErrCodeInternal, "wrapped error", 500)

	if err.Cause != originalErr {
		t.Errorf("Cause = %v, want %v", err.Cause, originalErr)
	}

	if !errors.Is(err, originalErr) {
		t.Error("errors.Is should find the cause through Unwrap")
	}
}

func TestAppError_WithContext(t *testing.T) {
	err := NewAppError(ErrCodeInvalidInput, "test error", 400)
	err.WithContext("channel", "server-channel").WithContext("count", 42)

	if err.Context["channel"] != "server-channel" {
		t.Errorf("Context[channel] = %v, want 'server-channel'", err.Context["channel"])
	}
	if err.Context["count"] != 42 {
		t.Errorf("Context[count] = %v, want 42", err.Context["count"])
	}
}

func TestConstructorStatusCodes(t *testing.T) {
	cases := []struct {
		err        *AppError
		wantCode   ErrorCode
		wantStatus int
	}{
		{NewInvalidInputError("bad offer"), ErrCodeInvalidInput, http.StatusBadRequest},
		{NewConflictError("already connected"), ErrCodeConflict, http.StatusConflict},
		{NewInternalError("boom"), ErrCodeInternal, http.StatusInternalServerError},
		{NewGatewayTimeoutError("ICE gathering timeout"), ErrCodeGatewayTimeout, http.StatusGatewayTimeout},
		{NewRateLimitError(), ErrCodeRateLimit, http.StatusTooManyRequests},
		{NewServiceUnavailableError("down"), ErrCodeServiceUnavailable, http.StatusServiceUnavailable},
	}

	for _, tc := range cases {
		if tc.err.Code != tc.wantCode {
			t.Errorf("Code = %v, want %v", tc.err.Code, tc.wantCode)
		}
		if tc.err.HTTPStatus != tc.wantStatus {
			t.Errorf("HTTPStatus = %v, want %v", tc.err.HTTPStatus, tc.wantStatus)
		}
	}
}

func TestGetAppError(t *testing.T) {
	appErr := NewGatewayTimeoutError("timeout")

	if got := GetAppError(appErr); got != appErr {
		t.Errorf("GetAppError() = %v, want %v", got, appErr)
	}

	wrapped := fmt.Errorf("handler: %w", appErr)
	if got := GetAppError(wrapped); got != appErr {
		t.Errorf("GetAppError(wrapped) = %v, want %v", got, appErr)
	}

	if got := GetAppError(errors.New("plain")); got != nil {
		t.Errorf("GetAppError(plain) = %v, want nil", got)
	}

	if got := GetAppError(nil); got != nil {
		t.Errorf("GetAppError(nil) = %v, want nil", got)
	}
}
