package errors

import (
	"fmt"
	"testing"
)

func TestError_Error(t *testing.T) {
	err := &Error{
		Code:    ErrNotFound,
		Status:  404,
		Message: "not found: thread",
	}

	expected := "NOT_FOUND: not found: thread"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
}

func TestNewInvalidRequest(t *testing.T) {
	err := NewInvalidRequest("text is required")

	if err.Code != ErrInvalidRequest {
		t.Errorf("Code = %q, want %q", err.Code, ErrInvalidRequest)
	}
	if err.Status != 400 {
		t.Errorf("Status = %d, want 400", err.Status)
	}
	if err.Message != "text is required" {
		t.Errorf("Message = %q, want %q", err.Message, "text is required")
	}
}

func TestNewNotFound(t *testing.T) {
	err := NewNotFound("01ABC")

	if err.Code != ErrNotFound {
		t.Errorf("Code = %q, want %q", err.Code, ErrNotFound)
	}
	if err.Status != 404 {
		t.Errorf("Status = %d, want 404", err.Status)
	}
	if err.Details["identifier"] != "01ABC" {
		t.Errorf("Details[identifier] = %v, want %q", err.Details["identifier"], "01ABC")
	}
}

func TestNewConfigMissing(t *testing.T) {
	err := NewConfigMissing()

	if err.Code != ErrConfigMissing {
		t.Errorf("Code = %q, want %q", err.Code, ErrConfigMissing)
	}
	if err.Status != 412 {
		t.Errorf("Status = %d, want 412", err.Status)
	}
}

func TestNewGatewayIO(t *testing.T) {
	err := NewGatewayIO(fmt.Errorf("disk full"))

	if err.Code != ErrGatewayIO {
		t.Errorf("Code = %q, want %q", err.Code, ErrGatewayIO)
	}
	if err.Message != "storage error: disk full" {
		t.Errorf("Message = %q", err.Message)
	}

	nilErr := NewGatewayIO(nil)
	if nilErr.Message != "storage error" {
		t.Errorf("Message = %q, want %q", nilErr.Message, "storage error")
	}
}

func TestNewProvider(t *testing.T) {
	err := NewProvider(fmt.Errorf("429 rate limited"))

	if err.Code != ErrProvider {
		t.Errorf("Code = %q, want %q", err.Code, ErrProvider)
	}
	if err.Status != 502 {
		t.Errorf("Status = %d, want 502", err.Status)
	}
}

func TestNewNoCandidates(t *testing.T) {
	err := NewNoCandidates()

	if err.Code != ErrNoCandidates {
		t.Errorf("Code = %q, want %q", err.Code, ErrNoCandidates)
	}
	if err.Status != 502 {
		t.Errorf("Status = %d, want 502", err.Status)
	}
}

func TestNewCancelled(t *testing.T) {
	err := NewCancelled("export")

	if err.Code != ErrCancelled {
		t.Errorf("Code = %q, want %q", err.Code, ErrCancelled)
	}
	if err.Status != 499 {
		t.Errorf("Status = %d, want 499", err.Status)
	}
	if err.Details["operation"] != "export" {
		t.Errorf("Details[operation] = %v, want %q", err.Details["operation"], "export")
	}
}

func TestNewInternal(t *testing.T) {
	err := NewInternal(fmt.Errorf("boom"))

	if err.Code != ErrInternal {
		t.Errorf("Code = %q, want %q", err.Code, ErrInternal)
	}
	if err.Message != "boom" {
		t.Errorf("Message = %q, want %q", err.Message, "boom")
	}

	nilErr := NewInternal(nil)
	if nilErr.Message != "internal error" {
		t.Errorf("Message = %q, want %q", nilErr.Message, "internal error")
	}
}

func TestIs(t *testing.T) {
	err := NewNotFound("x")

	if !Is(err, ErrNotFound) {
		t.Error("Is(NewNotFound, ErrNotFound) = false, want true")
	}
	if Is(err, ErrInternal) {
		t.Error("Is(NewNotFound, ErrInternal) = true, want false")
	}
	if Is(fmt.Errorf("plain"), ErrNotFound) {
		t.Error("Is(plain error, ErrNotFound) = true, want false")
	}
}
