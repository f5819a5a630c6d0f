package pipeline_test

import (
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/edudata/teacher-enrich-pipeline/internal/pipeline"
	"github.com/edudata/teacher-enrich-pipeline/internal/table"
)

var testNow = time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

const sourceCSV = "id,first_name,last_name,headline,email,linkedin_url,country,city," +
	"employment_history/0/organization_name,employment_history/0/is_current,employment_history/0/organization_website_url\n" +
	"42,Amira,Hassan,Math Teacher,amira@example.com,https://linkedin.com/in/amira,UAE,Dubai," +
	"GEMS Wellington Academy,true,https://www.gemswellington.com/campus\n" +
	"43,John,,,,,,,,,\n"

func runBase(t *testing.T) (*table.Table, *table.Table) {
	t.Helper()
	src, err := table.ReadCSV(strings.NewReader(sourceCSV))
	if err != nil {
		t.Fatalf("read source: %v", err)
	}
	acc := table.New(src.Len())
	if err := pipeline.Run(pipeline.BaseStages(testNow), acc, src, zap.NewNop()); err != nil {
		t.Fatalf("run stages: %v", err)
	}
	return acc, src
}

func TestBaseStages(t *testing.T) {
	acc, src := runBase(t)

	if acc.Len() != src.Len() {
		t.Fatalf("row count changed: %d != %d", acc.Len(), src.Len())
	}

	t.Run("teacher_id is assigned per row", func(t *testing.T) {
		id0, id1 := acc.Cell(0, "teacher_id"), acc.Cell(1, "teacher_id")
		if id0 == "" || id1 == "" || id0 == id1 {
			t.Fatalf("unexpected ids: %q %q", id0, id1)
		}
	})

	t.Run("name concatenates and trims", func(t *testing.T) {
		if got := acc.Cell(0, "name"); got != "Amira Hassan" {
			t.Fatalf("want Amira Hassan, got %q", got)
		}
		if got := acc.Cell(1, "name"); got != "John" {
			t.Fatalf("want John, got %q", got)
		}
	})

	t.Run("direct copies", func(t *testing.T) {
		if acc.Cell(0, "source_id") != "42" {
			t.Fatalf("source_id: %q", acc.Cell(0, "source_id"))
		}
		if acc.Cell(0, "linkedin_profile_url") != "https://linkedin.com/in/amira" {
			t.Fatalf("linkedin: %q", acc.Cell(0, "linkedin_profile_url"))
		}
		if acc.Cell(0, "email") != "amira@example.com" {
			t.Fatalf("email: %q", acc.Cell(0, "email"))
		}
	})

	t.Run("location defaults to Unknown", func(t *testing.T) {
		if acc.Cell(0, "current_location_city") != "Dubai" {
			t.Fatalf("city: %q", acc.Cell(0, "current_location_city"))
		}
		if acc.Cell(1, "current_location_country") != "Unknown" {
			t.Fatalf("country: %q", acc.Cell(1, "current_location_country"))
		}
	})

	t.Run("created_at is one RFC3339 stamp per run", func(t *testing.T) {
		want := testNow.Format(time.RFC3339)
		if acc.Cell(0, "created_at") != want || acc.Cell(1, "created_at") != want {
			t.Fatalf("created_at: %q %q", acc.Cell(0, "created_at"), acc.Cell(1, "created_at"))
		}
	})

	t.Run("current school seeded from employment history", func(t *testing.T) {
		if got := acc.Cell(0, "current_school"); got != "GEMS Wellington Academy" {
			t.Fatalf("current_school: %q", got)
		}
		if got := acc.Cell(1, "current_school"); got != "Not specified" {
			t.Fatalf("current_school fallback: %q", got)
		}
	})

	t.Run("school website reduced to bare domain", func(t *testing.T) {
		if got := acc.Cell(0, "school_website"); got != "gemswellington.com" {
			t.Fatalf("school_website: %q", got)
		}
	})

	t.Run("scaffold declares the full column set", func(t *testing.T) {
		for _, col := range pipeline.ScaffoldColumns {
			if !acc.HasColumn(col) {
				t.Fatalf("missing scaffold column %q", col)
			}
		}
		if acc.Cell(0, "subject") != "" {
			t.Fatalf("scaffold columns must start empty")
		}
	})
}

func TestMissingSourceColumnDegradesToEmpty(t *testing.T) {
	src, err := table.ReadCSV(strings.NewReader("first_name,last_name\nAmira,Hassan\n"))
	if err != nil {
		t.Fatal(err)
	}
	acc := table.New(src.Len())
	if err := pipeline.Run(pipeline.BaseStages(testNow), acc, src, zap.NewNop()); err != nil {
		t.Fatalf("run stages: %v", err)
	}
	if acc.Cell(0, "linkedin_profile_url") != "" || acc.Cell(0, "source_id") != "" {
		t.Fatalf("expected empty degraded values, got %#v", acc.Row(0))
	}
}
