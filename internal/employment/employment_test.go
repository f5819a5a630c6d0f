package employment_test

import (
	"testing"
	"time"

	"github.com/edudata/teacher-enrich-pipeline/internal/employment"
)

var now = time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)

func TestParseEntriesRanking(t *testing.T) {
	row := map[string]string{
		"employment_history/0/organization_name": "Old Town School",
		"employment_history/0/is_current":        "false",
		"employment_history/0/start_date":        "2015",
		"employment_history/1/organization_name": "GEMS Wellington Academy",
		"employment_history/1/is_current":        "true",
		"employment_history/1/start_date":        "2020",
		"employment_history/2/organization_name": "Riverside Academy",
		"employment_history/2/is_current":        "false",
		"employment_history/2/start_date":        "2022",
	}
	entries := employment.ParseEntries(row, now)
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	// Current first regardless of date, then start date descending.
	want := []string{"GEMS Wellington Academy", "Riverside Academy", "Old Town School"}
	for i, org := range want {
		if entries[i].Organization != org {
			t.Fatalf("rank[%d]: want %q got %q", i, org, entries[i].Organization)
		}
	}
}

func TestParseEntriesStopsAtFirstGap(t *testing.T) {
	row := map[string]string{
		"employment_history/0/organization_name": "First School",
		"employment_history/2/organization_name": "Unreachable School",
	}
	entries := employment.ParseEntries(row, now)
	if len(entries) != 1 || entries[0].Organization != "First School" {
		t.Fatalf("expected only the first entry, got %#v", entries)
	}
}

func TestParseEntriesFiltersPlaceholders(t *testing.T) {
	row := map[string]string{
		"employment_history/0/organization_name": "none",
		"employment_history/1/organization_name": "  ",
		"employment_history/2/organization_name": "Real School",
	}
	entries := employment.ParseEntries(row, now)
	if len(entries) != 1 || entries[0].Organization != "Real School" {
		t.Fatalf("expected placeholders filtered, got %#v", entries)
	}
}

func TestUnparsableStartDateRanksLast(t *testing.T) {
	row := map[string]string{
		"employment_history/0/organization_name": "Mystery Dates School",
		"employment_history/0/start_date":        "a while ago",
		"employment_history/1/organization_name": "Dated School",
		"employment_history/1/start_date":        "Jan 2010",
	}
	entries := employment.ParseEntries(row, now)
	if entries[0].Organization != "Dated School" {
		t.Fatalf("expected parsable date first, got %#v", entries)
	}
	if !entries[1].Start.IsZero() {
		t.Fatalf("expected zero start for unparsable date, got %v", entries[1].Start)
	}
}

func TestCurrentEmployerFallback(t *testing.T) {
	t.Run("prefers top ranked entry", func(t *testing.T) {
		row := map[string]string{
			"employment_history/0/organization_name": "Top School",
			"current_employer":                       "Ignored Inc",
		}
		entries := employment.ParseEntries(row, now)
		if got := employment.CurrentEmployer(entries, row); got != "Top School" {
			t.Fatalf("want Top School, got %q", got)
		}
	})

	t.Run("fixed priority over alternate columns", func(t *testing.T) {
		row := map[string]string{
			"current_employer": "n/a",
			"company":          "Fallback Academy",
			"organization":     "Lower Priority Org",
		}
		if got := employment.CurrentEmployer(nil, row); got != "Fallback Academy" {
			t.Fatalf("want Fallback Academy, got %q", got)
		}
	})

	t.Run("empty when nothing usable", func(t *testing.T) {
		if got := employment.CurrentEmployer(nil, map[string]string{"company": "none"}); got != "" {
			t.Fatalf("want empty, got %q", got)
		}
	})
}

func TestTotalYears(t *testing.T) {
	row := map[string]string{
		"employment_history/0/organization_name": "A School",
		"employment_history/0/start_date":        "2020",
		"employment_history/0/end_date":          "2024",
		"employment_history/1/organization_name": "B School",
		"employment_history/1/is_current":        "true",
		"employment_history/1/start_date":        "Jan 2025",
	}
	entries := employment.ParseEntries(row, now)
	got := employment.TotalYears(entries, now)
	// 4 years closed + ~1.4 years open-ended.
	if got < 5.0 || got > 5.8 {
		t.Fatalf("unexpected total years: %v", got)
	}
}
