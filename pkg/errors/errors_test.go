package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

var errRoomTaken = errors.New("room taken")

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name: "without underlying error",
			appErr: &AppError{
				Code:    CodeNotFound,
				Message: "Reservation not found",
			},
			expected: "NOT_FOUND: Reservation not found",
		},
		{
			name: "with underlying error",
			appErr: &AppError{
				Code:    CodeInternal,
				Message: "internal error",
				Err:     errors.New("database connection failed"),
			},
			expected: "INTERNAL_ERROR: internal error (caused by: database connection failed)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.appErr.Error()
			if got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestAppError_CauseMatchesThroughWrapping(t *testing.T) {
	appErr := Conflict("Room is not available").WithCause(errRoomTaken)
	wrapped := fmt.Errorf("create reservation: %w", appErr)

	if !errors.Is(wrapped, errRoomTaken) {
		t.Fatalf("errors.Is should find the domain cause through the AppError")
	}
	if got := AsAppError(wrapped); got != appErr {
		t.Errorf("AsAppError() should unwrap to the original AppError")
	}
}

func TestWrap(t *testing.T) {
	originalErr := errors.New("database connection failed")
	wrapped := Wrap(originalErr, CodeInternal, "internal error", http.StatusInternalServerError)

	if errors.Unwrap(wrapped) != originalErr {
		t.Errorf("Unwrap() should return original error")
	}
	if wrapped.Code != CodeInternal {
		t.Errorf("expected code %s, got %s", CodeInternal, wrapped.Code)
	}
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		err    *AppError
		code   string
		status int
	}{
		{"not found", NotFoundWithID("Room", "101"), CodeNotFound, http.StatusNotFound},
		{"validation", Validation("bad input", nil), CodeValidation, http.StatusUnprocessableEntity},
		{"invalid input", InvalidInput("bad id"), CodeInvalidInput, http.StatusBadRequest},
		{"conflict", Conflict("taken"), CodeConflict, http.StatusConflict},
		{"internal", Internal("boom", errors.New("x")), CodeInternal, http.StatusInternalServerError},
		{"unavailable", Unavailable("MongoDB"), CodeUnavailable, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("expected code %s, got %s", tt.code, tt.err.Code)
			}
			if tt.err.StatusCode() != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, tt.err.StatusCode())
			}
		})
	}
}

func TestStatusCode_FallsBackToCode(t *testing.T) {
	err := &AppError{Code: CodeConflict, Message: "capacity reached"}
	if err.StatusCode() != http.StatusConflict {
		t.Errorf("StatusCode() = %d, want %d", err.StatusCode(), http.StatusConflict)
	}
}

func TestWithDetail(t *testing.T) {
	err := Conflict("Daily task capacity reached").
		WithDetail("room_count", int64(3)).
		WithDetail("existing", int64(3))

	if err.Details["room_count"] != int64(3) {
		t.Errorf("expected room_count 3, got %v", err.Details["room_count"])
	}
	if len(err.Details) != 2 {
		t.Errorf("expected 2 details, got %d", len(err.Details))
	}
}

func TestNotFoundWithID(t *testing.T) {
	err := NotFoundWithID("Reservation", "12345")

	if err.Details["id"] != "12345" {
		t.Errorf("expected id '12345', got %v", err.Details["id"])
	}
	if err.Details["resource"] != "Reservation" {
		t.Errorf("expected resource 'Reservation', got %v", err.Details["resource"])
	}
	if err.Message != "Reservation not found" {
		t.Errorf("unexpected message %q", err.Message)
	}
}

func TestAsAppError(t *testing.T) {
	appErr := NotFoundWithID("Task", "1")
	regularErr := errors.New("regular error")

	if result := AsAppError(appErr); result != appErr {
		t.Errorf("AsAppError() should return same AppError")
	}

	result := AsAppError(regularErr)
	if result.Code != CodeInternal {
		t.Errorf("AsAppError() should wrap regular error as internal error")
	}
	if result.Err != regularErr {
		t.Errorf("AsAppError() should wrap the original error")
	}
}

func TestKind(t *testing.T) {
	if Kind(nil) != "" {
		t.Errorf("Kind(nil) should be empty")
	}
	if Kind(Conflict("x")) != CodeConflict {
		t.Errorf("Kind() should return the AppError code")
	}
	if Kind(errors.New("x")) != "UNEXPECTED" {
		t.Errorf("Kind() should label foreign errors as UNEXPECTED")
	}
}

func TestAppError_ToJSON(t *testing.T) {
	err := NotFoundWithID("Reservation", "12345")
	body := string(err.ToJSON())

	if !strings.Contains(body, "NOT_FOUND") {
		t.Errorf("ToJSON() should contain error code")
	}
	if !strings.Contains(body, "not found") {
		t.Errorf("ToJSON() should contain error message")
	}
}
