package validation

import (
	"errors"
	"testing"

	"stuntcheck/internal/models"
)

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

func floatPtr(v float64) *float64 { return &v }

func TestValidateRegisterRequest(t *testing.T) {
	v := New()

	tests := []struct {
		name      string
		req       models.RegisterRequest
		wantField string
	}{
		{
			name: "valid request",
			req:  models.RegisterRequest{Email: "test@example.com", Password: "secret1", Name: "Dewi"},
		},
		{
			name:      "invalid email",
			req:       models.RegisterRequest{Email: "testexample.com", Password: "secret1", Name: "Dewi"},
			wantField: "email",
		},
		{
			name:      "password too short",
			req:       models.RegisterRequest{Email: "test@example.com", Password: "12345", Name: "Dewi"},
			wantField: "password",
		},
		{
			name:      "name too short",
			req:       models.RegisterRequest{Email: "test@example.com", Password: "secret1", Name: "D"},
			wantField: "name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(tt.req)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Struct() error = %v, want nil", err)
				}
				return
			}

			var verrs Errors
			if !errors.As(err, &verrs) {
				t.Fatalf("Struct() error = %v, want Errors", err)
			}
			if verrs[0].Field != tt.wantField {
				t.Errorf("Field = %q, want %q", verrs[0].Field, tt.wantField)
			}
			if verrs[0].Message == "" {
				t.Error("expected a translated message")
			}
		})
	}
}

func TestValidateChildInput(t *testing.T) {
	v := New()

	tests := []struct {
		name    string
		input   models.ChildInput
		wantErr bool
	}{
		{
			name:  "valid child",
			input: models.ChildInput{Name: "Ana", Gender: "female", Age: intPtr(3)},
		},
		{
			name:  "indonesian gender label",
			input: models.ChildInput{Name: "Budi", Gender: "Laki-laki", Age: intPtr(0)},
		},
		{
			name:    "unknown gender",
			input:   models.ChildInput{Name: "Ana", Gender: "unknown", Age: intPtr(3)},
			wantErr: true,
		},
		{
			name:    "negative age",
			input:   models.ChildInput{Name: "Ana", Gender: "female", Age: intPtr(-1)},
			wantErr: true,
		},
		{
			name:    "missing age",
			input:   models.ChildInput{Name: "Ana", Gender: "female"},
			wantErr: true,
		},
		{
			name:    "missing name",
			input:   models.ChildInput{Gender: "female", Age: intPtr(3)},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("Struct() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGenderMessage(t *testing.T) {
	v := New()

	err := v.Struct(models.ChildPatch{Gender: strPtr("robot")})
	var verrs Errors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected Errors, got %v", err)
	}
	if verrs[0].Message != "gender must be male or female" {
		t.Errorf("Message = %q", verrs[0].Message)
	}
}

func TestValidatePredictionRequest(t *testing.T) {
	v := New()

	ok := models.PredictionRequest{Gender: strPtr("male"), Age: floatPtr(24), Height: floatPtr(80), Weight: floatPtr(10)}
	if err := v.Struct(ok); err != nil {
		t.Errorf("Struct() error = %v", err)
	}

	badHeight := ok
	badHeight.Height = floatPtr(0)
	if err := v.Struct(badHeight); err == nil {
		t.Error("expected error for zero height")
	}

	badChild := ok
	badChild.ChildID = strPtr("not-a-uuid")
	if err := v.Struct(badChild); err == nil {
		t.Error("expected error for malformed child_id")
	}
}
