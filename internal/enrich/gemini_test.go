package enrich

import (
	"errors"
	"testing"

	"google.golang.org/genai"
)

func TestClassifyErr(t *testing.T) {
	cases := []struct {
		name          string
		in            error
		wantTransient bool
	}{
		{name: "api_429", in: genai.APIError{Code: 429}, wantTransient: true},
		{name: "api_500", in: genai.APIError{Code: 500}, wantTransient: true},
		{name: "api_503", in: genai.APIError{Code: 503}, wantTransient: true},
		{name: "api_401", in: genai.APIError{Code: 401}, wantTransient: false},
		{name: "api_400", in: genai.APIError{Code: 400}, wantTransient: false},
		{name: "plain", in: errors.New("boom"), wantTransient: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := IsTransient(classifyErr(tc.in))
			if got != tc.wantTransient {
				t.Errorf("classifyErr(%v): transient = %v, want %v", tc.in, got, tc.wantTransient)
			}
		})
	}
}

func TestNewGeminiRequiresConfig(t *testing.T) {
	if _, err := NewGemini(t.Context(), GeminiConfig{Model: "gemini-2.5-flash"}); err == nil {
		t.Error("expected error without api key")
	}
	if _, err := NewGemini(t.Context(), GeminiConfig{APIKey: "k"}); err == nil {
		t.Error("expected error without model")
	}
}

func TestBuildPromptCapsBody(t *testing.T) {
	long := make([]byte, maxPromptBodyLen*2)
	for i := range long {
		long[i] = 'a'
	}
	prompt := buildPrompt("Title", string(long))
	if len(prompt) > maxPromptBodyLen+1000 {
		t.Errorf("prompt not capped: %d bytes", len(prompt))
	}
}
