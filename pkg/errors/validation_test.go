package errors

import (
	"strings"
	"testing"
)

func TestValidateRefID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"numeric", "1", false},
		{"word", "deploy", false},
		{"with dash", "bake-us-east", false},
		{"unicode", "déploiement", false},

		{"empty", "", true},
		{"too long", strings.Repeat("a", 300), true},
		{"null byte", "foo\x00bar", true},
		{"newline", "foo\nbar", true},
		{"tab", "foo\tbar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRefID(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateRefID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidInput) {
				t.Errorf("ValidateRefID(%q) code = %v, want %v", tt.input, GetCode(err), ErrCodeInvalidInput)
			}
		})
	}
}

func TestValidateInputPath(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantCode Code
	}{
		{"json", "pipeline.json", ""},
		{"toml", "configs/pipeline.toml", ""},
		{"upper case ext", "EXEC.JSON", ""},
		{"empty", "", ErrCodeInvalidPath},
		{"control char", "pipe\x01line.json", ErrCodeInvalidPath},
		{"yaml", "pipeline.yaml", ErrCodeInvalidFormat},
		{"no ext", "pipeline", ErrCodeInvalidFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateInputPath(tt.input)
			if got := GetCode(err); got != tt.wantCode {
				t.Errorf("ValidateInputPath(%q) code = %q, want %q", tt.input, got, tt.wantCode)
			}
		})
	}
}
