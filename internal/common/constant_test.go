package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLanguageOrDefault(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"pl", "pl"},
		{"en", "en"},
		{"ru", "ru"},
		{"en-US", "en"},
		{"", DefaultLanguage},
		{"de", DefaultLanguage},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LanguageOrDefault(tt.in), "input %q", tt.in)
	}
}

func TestSentinelsSurviveWrapping(t *testing.T) {
	err := fmt.Errorf("load client: %w", ErrorNotFound)
	if !errors.Is(err, ErrorNotFound) {
		t.Fatalf("expected wrapped ErrorNotFound, got %v", err)
	}
	if errors.Is(err, ErrorAlreadyExists) {
		t.Fatalf("unexpected match with ErrorAlreadyExists")
	}
}
