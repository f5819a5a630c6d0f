package util_test

import (
	"strings"
	"testing"

	"github.com/edudata/teacher-enrich-pipeline/internal/util"
)

func TestRedactSecrets(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"plain message untouched", "record 3: parse curriculum json", "record 3: parse curriculum json"},
		{"bearer token", `401 from api: Bearer eyJhbGciOiJIUzI1NiJ9.payload`, "401 from api: Bearer <redacted>"},
		{"api key kv", "config error: api_key=sk-123456 rejected", "config error: <redacted_kv> rejected"},
		{"raw google key", "quota exceeded for AIzaSyA1234567890abcdefghijk", "quota exceeded for <redacted_key>"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := util.RedactSecrets(tc.in); got != tc.want {
				t.Fatalf("got %q want %q", got, tc.want)
			}
		})
	}
}

func TestRedactSecretsTrims(t *testing.T) {
	if got := util.RedactSecrets("  padded  "); got != "padded" {
		t.Fatalf("got %q", got)
	}
	if strings.Contains(util.RedactSecrets("GEMINI_API_KEY: abc123"), "abc123") {
		t.Fatal("key value leaked")
	}
}
