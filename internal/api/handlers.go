package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/casefolio/internal/caseservice"
	"github.com/starford/casefolio/internal/checksum"
	"github.com/starford/casefolio/internal/filter"
	"github.com/starford/casefolio/internal/index"
	"github.com/starford/casefolio/internal/parser"
	"github.com/starford/casefolio/internal/render"
	"github.com/starford/casefolio/internal/theme"
)

const maxDocumentBytes = 10 << 20

// Handler holds API route handlers.
type Handler struct {
	svc      *caseservice.Service
	renderer *render.Renderer
	sizes    render.SizeLookup
	theme    theme.Theme
}

// NewHandler creates a new Handler. sizes may be nil.
func NewHandler(svc *caseservice.Service, renderer *render.Renderer, sizes render.SizeLookup, th theme.Theme) *Handler {
	return &Handler{svc: svc, renderer: renderer, sizes: sizes, theme: th}
}

// ListCases handles GET /api/cases.
//
//	@Summary		Home listing: featured cases plus the filtered grid
//	@Tags			cases
//	@Produce		json
//	@Param			sector		query		[]string	false	"Sector tags (OR)"
//	@Param			category	query		[]string	false	"Category tags (OR)"
//	@Param			role		query		[]string	false	"Role tags (OR)"
//	@Success		200			{object}	CaseListResponse
//	@Router			/cases [get]
func (h *Handler) ListCases(w http.ResponseWriter, r *http.Request) {
	cases, err := h.svc.ListCases(r.Context())
	if err != nil {
		writeError(w, err, "list cases", "")
		return
	}
	featured, others := caseservice.Split(cases)

	f := filter.FromQuery(r.URL.Query())
	visible := f.Visible(others)

	active := make(map[string][]string, len(filter.Dimensions))
	for _, d := range filter.Dimensions {
		active[string(d)] = f.Selected(d)
	}

	writeJSON(w, http.StatusOK, CaseListResponse{
		Featured:   featured,
		Cases:      visible,
		Total:      len(visible),
		Vocabulary: filter.Vocabularies(others),
		Active:     active,
	})
}

// GetCase handles GET /api/cases/{slug}.
//
//	@Summary		Get a single case with rendered HTML
//	@Tags			cases
//	@Produce		json
//	@Param			slug	path		string	true	"Case slug"
//	@Success		200		{object}	CaseResponse
//	@Failure		404		{object}	errResponse
//	@Router			/cases/{slug} [get]
func (h *Handler) GetCase(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	c, err := h.svc.GetCase(r.Context(), slug)
	if err != nil {
		writeError(w, err, "get case", slug)
		return
	}
	resp, err := h.caseResponse(c)
	if err != nil {
		writeError(w, err, "render case", slug)
		return
	}
	w.Header().Set("ETag", checksum.Tag(c.Checksum))
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) caseResponse(c *caseservice.CaseDetail) (*CaseResponse, error) {
	html, err := h.renderer.HTML(c.Content)
	if err != nil {
		return nil, err
	}
	media, err := render.ExtractMedia(html, h.sizes)
	if err != nil {
		return nil, err
	}
	if media == nil {
		media = []render.Media{}
	}
	return &CaseResponse{
		CaseDetail:  *c,
		HTML:        html,
		Images:      media,
		DisplayDate: parser.DisplayDate(c.CaseMeta),
	}, nil
}

// CreateCase handles POST /api/cases.
//
//	@Summary		Create a new case document
//	@Tags			cases
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateCaseRequest	true	"Case to create"
//	@Success		201		{object}	caseservice.CaseDetail
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/cases [post]
func (h *Handler) CreateCase(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxDocumentBytes)
	var req CreateCaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Slug == "" || req.Content == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("slug and content are required"))
		return
	}
	c, err := h.svc.CreateCase(r.Context(), req.Slug, []byte(req.Content))
	if err != nil {
		writeError(w, err, "create case", req.Slug)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// UpdateCase handles PUT /api/cases/{slug}.
//
//	@Summary		Replace a case document with optimistic concurrency
//	@Tags			cases
//	@Accept			json
//	@Produce		json
//	@Param			slug		path	string				true	"Case slug"
//	@Param			If-Match	header	string				false	"ETag or SHA-256 checksum"
//	@Param			body		body	UpdateCaseRequest	true	"New content"
//	@Success		200		{object}	caseservice.CaseDetail
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/cases/{slug} [put]
func (h *Handler) UpdateCase(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxDocumentBytes)
	slug := chi.URLParam(r, "slug")

	var req UpdateCaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Content == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("content is required"))
		return
	}

	c, err := h.svc.UpdateCase(r.Context(), slug, []byte(req.Content), r.Header.Get("If-Match"))
	if err != nil {
		writeError(w, err, "update case", slug)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// DeleteCase handles DELETE /api/cases/{slug}.
//
//	@Summary		Delete a case document
//	@Tags			cases
//	@Param			slug	path	string	true	"Case slug"
//	@Success		204		"Case deleted"
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/cases/{slug} [delete]
func (h *Handler) DeleteCase(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	if err := h.svc.DeleteCase(r.Context(), slug); err != nil {
		writeError(w, err, "delete case", slug)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Tags handles GET /api/tags.
//
//	@Summary		Tag vocabulary per dimension
//	@Tags			cases
//	@Produce		json
//	@Success		200	{object}	TagsResponse
//	@Router			/tags [get]
func (h *Handler) Tags(w http.ResponseWriter, r *http.Request) {
	vocab, err := h.svc.Vocabulary(r.Context())
	if err != nil {
		writeError(w, err, "tags", "")
		return
	}
	writeJSON(w, http.StatusOK, TagsResponse{
		Sector:   vocab[string(filter.Sector)],
		Category: vocab[string(filter.Category)],
		Role:     vocab[string(filter.Role)],
	})
}

// Search handles GET /api/search.
//
//	@Summary		Full-text search across published cases
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := q.Get("q")
	if query == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(q.Get("limit"))
	results, err := h.svc.Search(r.Context(), query, index.SearchOptions{
		Limit:    limit,
		Sector:   q["sector"],
		Category: q["category"],
		Role:     q["role"],
	})
	if err != nil {
		writeError(w, err, "search", "")
		return
	}
	if results == nil {
		results = []index.SearchResult{}
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// Theme handles GET /api/theme.
//
//	@Summary		Site palette and tag styles
//	@Tags			theme
//	@Produce		json
//	@Success		200	{object}	theme.Theme
//	@Router			/theme [get]
func (h *Handler) Theme(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.theme)
}
