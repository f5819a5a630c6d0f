// Package score computes the deterministic profile completeness score: a
// bounded [0,50] integer plus a machine-readable list of violation codes,
// derived only from the record's final field values.
package score

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/edudata/teacher-enrich-pipeline/internal/enrich"
)

const (
	// MaxScore is the score of a fully complete, fully valid profile.
	MaxScore = 50
	// fieldPenalty is deducted once per violating field, no matter how many
	// violation codes that field produced.
	fieldPenalty = 5
)

// RequiredFields is the canonical ordered set of fields checked per record.
var RequiredFields = []string{
	"name",
	"headline",
	"linkedin_profile_url",
	"email",
	"subject",
	"bio",
	"nationality",
	"preferred_grade_level",
	"curriculum_experience",
	"teaching_experience_years",
	"current_school",
	"school_website",
	"current_location_country",
	"current_location_city",
}

// genericValues flags free-text categorical fields that carry a value too
// generic to be useful.
var genericValues = map[string][]string{
	"subject":     {"education", "general"},
	"nationality": {},
}

// gradeLevelValues is the closed enum for preferred_grade_level, shared with
// the inference prompt's literals.
var gradeLevelValues = func() map[string]struct{} {
	out := make(map[string]struct{}, len(enrich.GradeLevels))
	for _, v := range enrich.GradeLevels {
		out[v] = struct{}{}
	}
	return out
}()

const (
	yearsMin = 0
	yearsMax = 50
)

// Completion is the per-record scoring artifact.
type Completion struct {
	// Score is in [0, MaxScore].
	Score int
	// Violations is ordered by RequiredFields order, then by check order
	// within a field. Codes: <field>_missing, <field>_not_specific,
	// <field>_invalid, <field>_out_of_range.
	Violations []string
}

// MissingFieldsJSON renders the violations as the JSON array string stored in
// the output table, empty when there are none.
func (c Completion) MissingFieldsJSON() string {
	if len(c.Violations) == 0 {
		return ""
	}
	b, err := json.Marshal(c.Violations)
	if err != nil {
		// Cannot happen for []string, but keep output stable.
		return ""
	}
	return string(b)
}

// Compute scores one fully enriched record. It is pure: recomputing on an
// unchanged record yields an identical result.
func Compute(record map[string]string) Completion {
	completion := MaxScore
	var violations []string

	for _, field := range RequiredFields {
		value := strings.TrimSpace(record[field])
		var fieldCodes []string

		if isMissing(value) {
			fieldCodes = append(fieldCodes, field+"_missing")
		} else {
			fieldCodes = append(fieldCodes, validate(field, value)...)
		}

		if len(fieldCodes) > 0 {
			violations = append(violations, fieldCodes...)
			completion -= fieldPenalty
		}
	}

	if completion < 0 {
		completion = 0
	}
	if completion > MaxScore {
		completion = MaxScore
	}
	return Completion{Score: completion, Violations: violations}
}

func isMissing(value string) bool {
	switch strings.ToLower(value) {
	case "", "not specified", "unknown", "n/a", "none":
		return true
	default:
		return false
	}
}

// validate applies field-specific rules to a non-missing value.
func validate(field, value string) []string {
	if generics, ok := genericValues[field]; ok {
		lower := strings.ToLower(value)
		for _, g := range generics {
			if lower == g {
				return []string{field + "_not_specific"}
			}
		}
		return nil
	}

	switch field {
	case "preferred_grade_level":
		if _, ok := gradeLevelValues[value]; !ok {
			return []string{field + "_invalid"}
		}
	case "teaching_experience_years":
		years, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return []string{field + "_invalid"}
		}
		if years < yearsMin || years > yearsMax {
			return []string{field + "_out_of_range"}
		}
	}
	return nil
}
