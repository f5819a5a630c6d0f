package pipeline

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/edudata/teacher-enrich-pipeline/internal/employment"
	"github.com/edudata/teacher-enrich-pipeline/internal/table"
)

// ScaffoldColumns is the fixed set of columns declared empty before
// enrichment so the output column set never varies with inference outcomes.
var ScaffoldColumns = []string{
	"subject",
	"bio",
	"nationality",
	"preferred_grade_level",
	"curriculum_experience",
	"teaching_experience_years",
	"is_currently_teacher",
	"current_school",
	"school_website",
	"profile_confidence",
	"profile_rationale",
	"curriculum_confidence",
	"curriculum_rationale",
	"enrich_status",
	"enrich_error",
	"profile_completion_percentage",
	"missing_fields",
	"profile_visibility",
	"preferred_teaching_modes",
	"willing_to_relocate",
	"hourly_rate",
	"monthly_salary_expectation",
	"available_start_date",
	"cv_resume_url",
	"video_intro_url",
}

// BaseStages returns the deterministic stages in their fixed order. now is
// captured once per run so every row shares the same created_at.
func BaseStages(now time.Time) []Stage {
	return []Stage{
		{Name: "teacher_id", Apply: addTeacherID},
		{Name: "name", Apply: addName},
		{Name: "headline", Apply: copyColumn("headline", "headline")},
		{Name: "email", Apply: copyColumn("email", "email")},
		{Name: "source_id", Apply: copyColumn("id", "source_id")},
		{Name: "linkedin_url", Apply: copyColumn("linkedin_url", "linkedin_profile_url")},
		{Name: "location", Apply: addLocation},
		{Name: "created_at", Apply: addCreatedAt(now)},
		{Name: "current_school_seed", Apply: addCurrentSchoolSeed(now)},
		{Name: "school_website_seed", Apply: addSchoolWebsiteSeed},
		{Name: "scaffold", Apply: addScaffold},
	}
}

func addTeacherID(acc, src *table.Table) error {
	acc.EnsureColumns("teacher_id")
	for i := 0; i < acc.Len(); i++ {
		acc.SetCell(i, "teacher_id", uuid.NewString())
	}
	return nil
}

func addName(acc, src *table.Table) error {
	acc.EnsureColumns("name")
	for i := 0; i < acc.Len(); i++ {
		first := strings.TrimSpace(src.Cell(i, "first_name"))
		last := strings.TrimSpace(src.Cell(i, "last_name"))
		acc.SetCell(i, "name", strings.TrimSpace(first+" "+last))
	}
	return nil
}

// copyColumn copies a source column verbatim, trimmed. A missing source
// column degrades to empty values rather than failing the run.
func copyColumn(srcCol, dstCol string) func(acc, src *table.Table) error {
	return func(acc, src *table.Table) error {
		acc.EnsureColumns(dstCol)
		if !src.HasColumn(srcCol) {
			return nil
		}
		for i := 0; i < acc.Len(); i++ {
			acc.SetCell(i, dstCol, strings.TrimSpace(src.Cell(i, srcCol)))
		}
		return nil
	}
}

func addLocation(acc, src *table.Table) error {
	acc.EnsureColumns("current_location_country", "current_location_city")
	for i := 0; i < acc.Len(); i++ {
		acc.SetCell(i, "current_location_country", valueOr(src.Cell(i, "country"), "Unknown"))
		acc.SetCell(i, "current_location_city", valueOr(src.Cell(i, "city"), "Unknown"))
	}
	return nil
}

func addCreatedAt(now time.Time) func(acc, src *table.Table) error {
	stamp := now.UTC().Format(time.RFC3339)
	return func(acc, src *table.Table) error {
		acc.EnsureColumns("created_at")
		for i := 0; i < acc.Len(); i++ {
			acc.SetCell(i, "created_at", stamp)
		}
		return nil
	}
}

// addCurrentSchoolSeed derives a starting value for current_school from the
// ranked employment history; the enrichment stage may refine it.
func addCurrentSchoolSeed(now time.Time) func(acc, src *table.Table) error {
	return func(acc, src *table.Table) error {
		acc.EnsureColumns("current_school")
		for i := 0; i < acc.Len(); i++ {
			row := src.Row(i)
			entries := employment.ParseEntries(row, now)
			school := employment.CurrentEmployer(entries, row)
			acc.SetCell(i, "current_school", valueOr(school, "Not specified"))
		}
		return nil
	}
}

func addSchoolWebsiteSeed(acc, src *table.Table) error {
	acc.EnsureColumns("school_website")
	for i := 0; i < acc.Len(); i++ {
		url := src.Cell(i, "employment_history/0/organization_website_url")
		if strings.TrimSpace(url) == "" {
			url = src.Cell(i, "organization_website_url")
		}
		acc.SetCell(i, "school_website", valueOr(extractDomain(url), "Not specified"))
	}
	return nil
}

func addScaffold(acc, src *table.Table) error {
	acc.EnsureColumns(ScaffoldColumns...)
	return nil
}

func valueOr(v, fallback string) string {
	if table.IsPlaceholder(v) {
		return fallback
	}
	return strings.TrimSpace(v)
}

// extractDomain reduces a URL to its bare domain: no scheme, no www, no path,
// no port.
func extractDomain(url string) string {
	d := strings.ToLower(strings.TrimSpace(url))
	if d == "" {
		return ""
	}
	d = strings.TrimPrefix(d, "https://")
	d = strings.TrimPrefix(d, "http://")
	d = strings.TrimPrefix(d, "www.")
	if i := strings.IndexByte(d, '/'); i >= 0 {
		d = d[:i]
	}
	if i := strings.IndexByte(d, ':'); i >= 0 {
		d = d[:i]
	}
	return d
}
