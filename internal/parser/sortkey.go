package parser

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/starford/casefolio/internal/models"
)

var digitRunRe = regexp.MustCompile(`\d{4,}`)

// dateLayouts are tried in order; layouts without a zone parse as UTC.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006-1-2",
	"2006-01",
	"2006/01/02",
	"2006/1/2",
	"01/02/2006",
	"1/2/2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"2 Jan 2006",
	"January 2006",
	"Jan 2006",
	time.RFC1123Z,
	time.RFC1123,
	"2006",
}

// ParseDate parses the ISO-like and human date forms found in frontmatter.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// Timestamp is the sort key of a case: parsed date, else Jan 1 of year (UTC),
// else the year embedded in yearLabel (see labelYear), else the zero time.
func Timestamp(m models.CaseMeta) time.Time {
	if m.Date != "" {
		if t, ok := ParseDate(m.Date); ok {
			return t
		}
	}
	if m.Year != nil {
		return time.Date(*m.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
	}
	if m.YearLabel != "" {
		if y, ok := labelYear(m.YearLabel); ok {
			return time.Date(y, time.January, 1, 0, 0, 0, 0, time.UTC)
		}
	}
	return time.Time{}
}

// labelYear picks the leftmost four digits that are not followed anywhere
// later in label by another four digits. Only the last run of four or more
// digits can hold that window: for a run [a, b) it starts at max(a, b-7),
// so "2021–2023" gives 2023, "Est. 12345" gives 1234 and "123456789" 3456.
func labelYear(label string) (int, bool) {
	runs := digitRunRe.FindAllStringIndex(label, -1)
	if len(runs) == 0 {
		return 0, false
	}
	a, b := runs[len(runs)-1][0], runs[len(runs)-1][1]
	start := max(a, b-7)
	y, err := strconv.Atoi(label[start : start+4])
	return y, err == nil
}

// DisplayDate picks the single date string shown on cards and detail pages:
// a parseable date as "Jan 2006", an unparseable date verbatim, then
// yearLabel, then year. Empty means nothing to show.
func DisplayDate(m models.CaseMeta) string {
	if m.Date != "" {
		if t, ok := ParseDate(m.Date); ok {
			return t.Format("Jan 2006")
		}
		return m.Date
	}
	if m.YearLabel != "" {
		return m.YearLabel
	}
	if m.Year != nil {
		return strconv.Itoa(*m.Year)
	}
	return ""
}

// SortNewestFirst orders metas by descending Timestamp. Equal keys fall back
// to slug order so listings are stable across reads.
func SortNewestFirst(metas []models.CaseMeta) {
	keys := make(map[string]time.Time, len(metas))
	for _, m := range metas {
		keys[m.Slug] = Timestamp(m)
	}
	sort.SliceStable(metas, func(i, j int) bool {
		ki, kj := keys[metas[i].Slug], keys[metas[j].Slug]
		if !ki.Equal(kj) {
			return ki.After(kj)
		}
		return metas[i].Slug < metas[j].Slug
	})
}
