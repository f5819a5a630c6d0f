// Package employment normalizes a record's sparse indexed employment history
// columns into an ordered list of structured entries. The indexed-key encoding
// (employment_history/<i>/<field>) is treated purely as an input serialization
// detail; everything downstream works with Entry values.
package employment

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Entry is one position in a teacher's work history.
type Entry struct {
	Organization string
	Title        string
	Current      bool
	StartRaw     string
	EndRaw       string

	// Start is the parsed start date; zero when StartRaw is absent or
	// unparsable, which ranks the entry as oldest.
	Start time.Time
	// End is the parsed end date; open entries (current, "present") end now.
	End time.Time
}

const keyPrefix = "employment_history/"

// Alternate single-value columns scanned, in priority order, when no indexed
// entry survives filtering.
var fallbackColumns = []string{"current_employer", "company", "organization"}

var startLayouts = []string{"Jan 2006", "January 2006", "2006", "01/2006", "2006-01"}

var yearRe = regexp.MustCompile(`\b(19|20)\d{2}\b`)

// ParseEntries discovers entries by consecutive index starting at 0 and stops
// at the first missing index. Entries whose organization is empty or a
// placeholder token are discarded. The returned slice is in ranked order:
// current entries first, then start date descending, unparsable dates last.
func ParseEntries(row map[string]string, now time.Time) []Entry {
	var entries []Entry
	for i := 0; ; i++ {
		prefix := fmt.Sprintf("%s%d/", keyPrefix, i)
		org, ok := row[prefix+"organization_name"]
		if !ok {
			// A gap terminates discovery even if higher indices exist.
			break
		}
		e := Entry{
			Organization: strings.TrimSpace(org),
			Title:        strings.TrimSpace(row[prefix+"title"]),
			Current:      parseBool(row[prefix+"is_current"]),
			StartRaw:     strings.TrimSpace(row[prefix+"start_date"]),
			EndRaw:       strings.TrimSpace(row[prefix+"end_date"]),
		}
		if isEmptyOrg(e.Organization) {
			continue
		}
		e.Start = parseDate(e.StartRaw, now, time.Time{})
		e.End = parseDate(e.EndRaw, now, time.Time{})
		if e.Current && e.End.IsZero() {
			e.End = now
		}
		entries = append(entries, e)
	}
	rank(entries)
	return entries
}

// CurrentEmployer returns the organization of the top-ranked entry, or, when
// no entry survives filtering, the first non-placeholder value among the
// alternate single-value columns.
func CurrentEmployer(entries []Entry, row map[string]string) string {
	if len(entries) > 0 {
		return entries[0].Organization
	}
	for _, col := range fallbackColumns {
		v := strings.TrimSpace(row[col])
		if v != "" && !isEmptyOrg(v) {
			return v
		}
	}
	return ""
}

// TotalYears sums entry durations in years, rounded to one decimal. Entries
// without a parsable start date contribute nothing; entries without an end
// date are treated as running until now.
func TotalYears(entries []Entry, now time.Time) float64 {
	var total float64
	for _, e := range entries {
		if e.Start.IsZero() {
			continue
		}
		end := e.End
		if end.IsZero() {
			end = now
		}
		if end.Before(e.Start) {
			continue
		}
		total += end.Sub(e.Start).Hours() / (24 * 365.25)
	}
	return float64(int(total*10+0.5)) / 10
}

// rank sorts current entries first, then start date descending. The sort is
// stable so identical input always yields identical order.
func rank(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Current != entries[j].Current {
			return entries[i].Current
		}
		return entries[i].Start.After(entries[j].Start)
	})
}

func isEmptyOrg(org string) bool {
	switch strings.ToLower(strings.TrimSpace(org)) {
	case "", "none", "n/a", "not specified":
		return true
	default:
		return false
	}
}

func parseBool(v string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(strings.ToLower(v)))
	return err == nil && b
}

// parseDate handles the free-text date shapes seen in source exports. The
// fallback is returned when nothing parses.
func parseDate(raw string, now, fallback time.Time) time.Time {
	s := strings.TrimSpace(raw)
	if s == "" {
		return fallback
	}
	switch strings.ToLower(s) {
	case "present", "current", "now":
		return now
	}
	for _, layout := range startLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts
		}
	}
	if m := yearRe.FindString(s); m != "" {
		year, err := strconv.Atoi(m)
		if err == nil {
			return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
		}
	}
	return fallback
}
