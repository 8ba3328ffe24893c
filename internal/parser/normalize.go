package parser

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/starford/casefolio/internal/models"
)

var fourDigitsRe = regexp.MustCompile(`^\d{4}$`)

// NormalizeOptions tunes legacy behavior of Normalize.
type NormalizeOptions struct {
	// CategoryAsSectorFallback fills an absent sector from category.
	CategoryAsSectorFallback bool
}

// Normalize maps raw frontmatter onto CaseMeta. It never fails: anything
// malformed becomes absent. A "slug" key in fm is ignored.
func Normalize(slug string, fm map[string]any, opts NormalizeOptions) models.CaseMeta {
	meta := models.CaseMeta{
		Slug:     slug,
		Title:    stringField(fm["title"]),
		Summary:  stringField(fm["summary"]),
		Sector:   tagField(fm["sector"]),
		Category: tagField(fm["category"]),
		Role:     tagField(fm["role"]),
		Featured: boolField(fm["featured"]),
		Cover:    stringField(fm["cover"]),
		Date:     dateField(fm["date"]),
		Draft:    fm["draft"] == true,
	}
	if opts.CategoryAsSectorFallback && meta.Sector == nil && meta.Category != nil {
		meta.Sector = append([]string(nil), meta.Category...)
	}

	rawYear := fm["year"]
	meta.Year = yearField(rawYear)
	meta.YearLabel = yearLabel(rawYear, meta.Year)
	if meta.YearLabel == "" {
		meta.YearLabel = stringField(fm["yearLabel"])
	}
	return meta
}

func stringField(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case []any, map[string]any:
		return ""
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

// tagField accepts a sequence or a single non-empty string.
func tagField(v any) []string {
	switch t := v.(type) {
	case string:
		if s := strings.TrimSpace(t); s != "" {
			return []string{s}
		}
		return nil
	case []any:
		var out []string
		for _, item := range t {
			if s := stringField(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	case []string:
		var out []string
		for _, item := range t {
			if s := strings.TrimSpace(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func boolField(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		b, err := cast.ToBoolE(strings.TrimSpace(t))
		return err == nil && b
	}
	return false
}

// yearField accepts an integral number or a string of exactly four digits.
func yearField(v any) *int {
	switch t := v.(type) {
	case nil, bool:
		return nil
	case string:
		s := strings.TrimSpace(t)
		if !fourDigitsRe.MatchString(s) {
			return nil
		}
		y, err := strconv.Atoi(s)
		if err != nil {
			return nil
		}
		return &y
	case float32, float64:
		f := cast.ToFloat64(t)
		if f != math.Trunc(f) || math.IsInf(f, 0) {
			return nil
		}
		y := int(f)
		return &y
	}
	y, err := cast.ToIntE(v)
	if err != nil {
		return nil
	}
	return &y
}

// yearLabel prefers the raw year verbatim so labels like "2022–2023" survive.
func yearLabel(raw any, resolved *int) string {
	switch t := raw.(type) {
	case string:
		if s := strings.TrimSpace(t); s != "" {
			return s
		}
	case int, int64, uint64, float64, float32, int32, uint32:
		return cast.ToString(t)
	}
	if resolved != nil {
		return cast.ToString(*resolved)
	}
	return ""
}

// dateField accepts a non-empty string. YAML timestamps decoded as time.Time
// are rendered back to their calendar date.
func dateField(v any) string {
	switch t := v.(type) {
	case string:
		if strings.TrimSpace(t) == "" {
			return ""
		}
		return t
	case time.Time:
		if t.IsZero() {
			return ""
		}
		if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
			return t.Format("2006-01-02")
		}
		return t.Format(time.RFC3339)
	}
	return ""
}
