package api

import (
	"errors"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"

	"github.com/starford/casefolio/internal/assets"
)

const maxUploadBytes = 50 << 20 // 50 MB

// AssetHandler serves the public directory and accepts uploads.
type AssetHandler struct {
	lib *assets.Library
}

// NewAssetHandler creates a handler over lib.
func NewAssetHandler(lib *assets.Library) *AssetHandler {
	return &AssetHandler{lib: lib}
}

// ServeFile handles GET /assets/*.
func (h *AssetHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	abs, err := h.lib.Resolve(chi.URLParam(r, "*"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid asset path"))
		return
	}
	info, err := os.Stat(abs)
	if err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, abs)
}

// Manifest handles GET /api/assets/manifest.
//
//	@Summary		Image sizes keyed by site path
//	@Tags			assets
//	@Produce		json
//	@Success		200	{object}	assets.Manifest
//	@Router			/assets/manifest [get]
func (h *AssetHandler) Manifest(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.lib.Manifest())
}

// Upload handles POST /api/assets (multipart/form-data, field "file").
//
//	@Summary		Upload an image or other public asset
//	@Tags			assets
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			file	formData	file	true	"File to upload"
//	@Success		201		{object}	assets.Saved
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/assets [post]
func (h *AssetHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("missing 'file' field in multipart form"))
		return
	}
	defer file.Close()

	saved, err := h.lib.Save(header.Filename, file)
	if err != nil {
		if errors.Is(err, assets.ErrInvalidName) {
			writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
			return
		}
		writeError(w, err, "upload asset", header.Filename)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}
