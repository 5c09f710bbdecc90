package response

import (
	"strings"
	"testing"

	"github.com/go-playground/validator"
)

func TestOKWithData(t *testing.T) {
	resp := OKWithData(map[string]any{"id": 1})
	if resp.Status != StatusOK {
		t.Errorf("expected status %s, got %s", StatusOK, resp.Status)
	}
	if resp.Error != "" {
		t.Errorf("expected empty error, got %s", resp.Error)
	}
	if resp.Data == nil {
		t.Error("expected data to be set")
	}
}

func TestError(t *testing.T) {
	resp := Error("something went wrong")
	if resp.Status != StatusError {
		t.Errorf("expected status %s, got %s", StatusError, resp.Status)
	}
	if resp.Error != "something went wrong" {
		t.Errorf("unexpected error message: %s", resp.Error)
	}
}

func TestValidationError(t *testing.T) {
	type form struct {
		Username string `validate:"required,alphanum"`
		Email    string `validate:"required,email"`
		Tier     string `validate:"required,oneof=trial monthly yearly lifetime"`
	}

	v := validator.New()
	err := v.Struct(form{Username: "", Email: "not-an-email", Tier: "weekly"})
	if err == nil {
		t.Fatal("expected validation to fail")
	}

	resp := ValidationError(err.(validator.ValidationErrors))
	if resp.Status != StatusError {
		t.Errorf("expected status %s, got %s", StatusError, resp.Status)
	}
	for _, want := range []string{"Username is a required field", "Email must be a valid email address", "Tier must be one of"} {
		if !strings.Contains(resp.Error, want) {
			t.Errorf("expected error to contain %q, got %q", want, resp.Error)
		}
	}
}
