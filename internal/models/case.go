// Package models defines the domain types for casefolio.
package models

import "time"

// CaseMeta is the normalized frontmatter of one case-study document.
// Optional fields are pointers or nil slices so that "absent" survives JSON.
type CaseMeta struct {
	Slug      string   `json:"slug"`
	Title     string   `json:"title"`
	Summary   string   `json:"summary"`
	Sector    []string `json:"sector,omitempty"`
	Category  []string `json:"category,omitempty"`
	Role      []string `json:"role,omitempty"`
	Featured  bool     `json:"featured,omitempty"`
	Cover     string   `json:"cover,omitempty"`
	Year      *int     `json:"year,omitempty"`
	Date      string   `json:"date,omitempty"`
	YearLabel string   `json:"yearLabel,omitempty"`
	Draft     bool     `json:"draft,omitempty"`
}

// Tags returns the tags of one dimension ("sector", "category" or "role").
func (m CaseMeta) Tags(dimension string) []string {
	switch dimension {
	case "sector":
		return m.Sector
	case "category":
		return m.Category
	case "role":
		return m.Role
	}
	return nil
}

// CaseEntry is a case with its raw body, produced only by single lookups.
type CaseEntry struct {
	CaseMeta
	Content string `json:"content"`
}

// DocumentInfo is a lightweight representation returned by storage listings.
type DocumentInfo struct {
	Slug      string    `json:"slug"`
	Filename  string    `json:"filename"`
	UpdatedAt time.Time `json:"updated_at"`
}
