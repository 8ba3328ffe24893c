// Package filter holds the tag-filter state of a case listing: one
// selection set per tag dimension, combined with AND across dimensions
// and OR within a dimension.
package filter

import (
	"net/url"
	"sort"
	"strings"

	"github.com/starford/casefolio/internal/models"
)

// Dimension names one tag dimension of a case.
type Dimension string

const (
	Sector   Dimension = "sector"
	Category Dimension = "category"
	Role     Dimension = "role"
)

// Dimensions lists every dimension in display order.
var Dimensions = []Dimension{Sector, Category, Role}

// ParseDimension maps a name to a Dimension.
func ParseDimension(s string) (Dimension, bool) {
	d := Dimension(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Dimensions {
		if d == known {
			return d, true
		}
	}
	return "", false
}

// Filter is the mutable selection state. The zero value is not usable;
// call New. A Filter is owned by one UI and is not safe for concurrent use.
type Filter struct {
	selected map[Dimension]map[string]struct{}
}

// New returns a filter with every dimension empty.
func New() *Filter {
	f := &Filter{selected: make(map[Dimension]map[string]struct{}, len(Dimensions))}
	for _, d := range Dimensions {
		f.selected[d] = make(map[string]struct{})
	}
	return f
}

// FromQuery builds a filter from repeated query parameters such as
// ?sector=Health&sector=Finance&role=Lead. Unknown keys are ignored.
func FromQuery(q url.Values) *Filter {
	f := New()
	for _, d := range Dimensions {
		for _, v := range q[string(d)] {
			v = strings.TrimSpace(v)
			if v == "" {
				continue
			}
			f.selected[d][v] = struct{}{}
		}
	}
	return f
}

// Toggle adds value to the dimension's selection if absent, otherwise removes it.
func (f *Filter) Toggle(dim Dimension, value string) {
	set, ok := f.selected[dim]
	if !ok {
		return
	}
	if _, on := set[value]; on {
		delete(set, value)
		return
	}
	set[value] = struct{}{}
}

// Reset clears every dimension at once.
func (f *Filter) Reset() {
	for _, d := range Dimensions {
		f.selected[d] = make(map[string]struct{})
	}
}

// IsSelected reports whether value is selected in dim.
func (f *Filter) IsSelected(dim Dimension, value string) bool {
	_, ok := f.selected[dim][value]
	return ok
}

// Selected returns the selected values of dim in sorted order.
func (f *Filter) Selected(dim Dimension) []string {
	set := f.selected[dim]
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// ActiveCount is the total number of selected values across dimensions.
func (f *Filter) ActiveCount() int {
	n := 0
	for _, set := range f.selected {
		n += len(set)
	}
	return n
}

// Active reports whether any dimension constrains the listing.
func (f *Filter) Active() bool { return f.ActiveCount() > 0 }

// Match reports whether one case passes the filter.
func (f *Filter) Match(m models.CaseMeta) bool {
	for _, d := range Dimensions {
		set := f.selected[d]
		if len(set) == 0 {
			continue
		}
		hit := false
		for _, tag := range m.Tags(string(d)) {
			if _, ok := set[tag]; ok {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	return true
}

// Visible returns the cases that pass the filter, preserving order.
func (f *Filter) Visible(items []models.CaseMeta) []models.CaseMeta {
	out := make([]models.CaseMeta, 0, len(items))
	for _, m := range items {
		if f.Match(m) {
			out = append(out, m)
		}
	}
	return out
}

// Vocabulary returns the distinct values of dim across items, sorted.
func Vocabulary(items []models.CaseMeta, dim Dimension) []string {
	seen := make(map[string]struct{})
	for _, m := range items {
		for _, tag := range m.Tags(string(dim)) {
			seen[tag] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Vocabularies returns Vocabulary for every dimension, keyed by name.
func Vocabularies(items []models.CaseMeta) map[string][]string {
	out := make(map[string][]string, len(Dimensions))
	for _, d := range Dimensions {
		out[string(d)] = Vocabulary(items, d)
	}
	return out
}
