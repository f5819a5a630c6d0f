package gemini_test

import (
	"strings"
	"testing"

	"github.com/edudata/teacher-enrich-pipeline/internal/enrich/gemini"
)

func TestBuildProfilePrompt(t *testing.T) {
	record := map[string]string{
		"name":                     "Amira Hassan",
		"headline":                 "Math Teacher at GEMS Wellington",
		"email":                    "amira@example.com",
		"current_location_country": "United Arab Emirates",
	}
	prompt := gemini.BuildProfilePrompt(record)

	if !strings.Contains(prompt, "name: Amira Hassan") {
		t.Fatalf("prompt missing name:\n%s", prompt)
	}
	if !strings.Contains(prompt, "demonym form") {
		t.Fatalf("prompt missing nationality rule:\n%s", prompt)
	}
	if !strings.Contains(prompt, `"High School (Ages 14-18, Grades 9-12)"`) {
		t.Fatalf("prompt missing grade level literals:\n%s", prompt)
	}
	// Contact details are not a profile-task field and must not leak.
	if strings.Contains(prompt, "amira@example.com") {
		t.Fatalf("prompt leaks email:\n%s", prompt)
	}
}

func TestBuildCurriculumPrompt(t *testing.T) {
	record := map[string]string{
		"current_school":            "SABIS International",
		"ranked_employment":         "SABIS International (Teacher, current)",
		"employment_years_estimate": "6.5",
	}
	prompt := gemini.BuildCurriculumPrompt(record)

	if !strings.Contains(prompt, `"Australian"`) {
		t.Fatalf("prompt missing curriculum enum:\n%s", prompt)
	}
	if !strings.Contains(prompt, "SABIS schools typically follow the IB curriculum") {
		t.Fatalf("prompt missing brand note:\n%s", prompt)
	}
	if !strings.Contains(prompt, "employment_years_estimate: 6.5") {
		t.Fatalf("prompt missing deterministic hint:\n%s", prompt)
	}
}

func TestBuildPromptEmptyRecord(t *testing.T) {
	prompt := gemini.BuildProfilePrompt(map[string]string{})
	if !strings.Contains(prompt, "(no details available)") {
		t.Fatalf("expected empty-record placeholder:\n%s", prompt)
	}
}
