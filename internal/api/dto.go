package api

import (
	"github.com/starford/casefolio/internal/caseservice"
	"github.com/starford/casefolio/internal/index"
	"github.com/starford/casefolio/internal/models"
	"github.com/starford/casefolio/internal/render"
)

// CreateCaseRequest is the request body for creating a case.
type CreateCaseRequest struct {
	Slug    string `json:"slug" example:"intake-redesign" validate:"required"`
	Content string `json:"content" example:"---\ntitle: Intake\n---\nBody" validate:"required"`
}

// UpdateCaseRequest is the request body for replacing a case document.
type UpdateCaseRequest struct {
	Content string `json:"content" example:"---\ntitle: Intake\n---\nNew body" validate:"required"`
}

// CaseListResponse is the home listing: featured cases and the filtered grid.
type CaseListResponse struct {
	Featured   []models.CaseMeta   `json:"featured" validate:"required"`
	Cases      []models.CaseMeta   `json:"cases" validate:"required"`
	Total      int                 `json:"total" example:"12" validate:"required"`
	Vocabulary map[string][]string `json:"vocabulary" validate:"required"`
	Active     map[string][]string `json:"active" validate:"required"`
}

// CaseResponse is a single case with its rendered body.
type CaseResponse struct {
	caseservice.CaseDetail
	HTML        string         `json:"html"`
	Images      []render.Media `json:"images"`
	DisplayDate string         `json:"display_date,omitempty" example:"Jan 2024"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []index.SearchResult `json:"results" validate:"required"`
}

// TagsResponse lists the vocabulary of every dimension.
type TagsResponse struct {
	Sector   []string `json:"sector" validate:"required"`
	Category []string `json:"category" validate:"required"`
	Role     []string `json:"role" validate:"required"`
}
