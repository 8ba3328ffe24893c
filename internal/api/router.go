package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/casefolio/internal/assets"
	"github.com/starford/casefolio/internal/caseservice"
	"github.com/starford/casefolio/internal/render"
	"github.com/starford/casefolio/internal/theme"
)

// Deps are the collaborators the API routes need.
type Deps struct {
	Service  *caseservice.Service
	Renderer *render.Renderer
	Library  *assets.Library // nil disables asset routes
	Theme    theme.Theme

	// AuthEnabled guards the authoring routes with Token.
	AuthEnabled bool
	Token       string

	// Events, if non-nil, is mounted at GET /events.
	Events http.Handler
}

// NewRouter creates a chi router with all API routes mounted. Reads are
// public; authoring and uploads sit behind the bearer-token middleware.
func NewRouter(d Deps) chi.Router {
	var sizes render.SizeLookup
	if d.Library != nil {
		sizes = d.Library
	}
	renderer := d.Renderer
	if renderer == nil {
		renderer = render.New()
	}
	h := NewHandler(d.Service, renderer, sizes, d.Theme)

	r := chi.NewRouter()

	r.Get("/cases", h.ListCases)
	r.Get("/cases/{slug}", h.GetCase)
	r.Get("/tags", h.Tags)
	r.Get("/search", h.Search)
	r.Get("/theme", h.Theme)

	var ah *AssetHandler
	if d.Library != nil {
		ah = NewAssetHandler(d.Library)
		r.Get("/assets/manifest", ah.Manifest)
	}

	if d.Events != nil {
		r.Get("/events", d.Events.ServeHTTP)
	}

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(d.AuthEnabled, d.Token))
		r.Post("/cases", h.CreateCase)
		r.Put("/cases/{slug}", h.UpdateCase)
		r.Delete("/cases/{slug}", h.DeleteCase)
		if ah != nil {
			r.Post("/assets", ah.Upload)
		}
	})

	return r
}

// MountAssets serves the public directory under /assets on r.
func MountAssets(r chi.Router, lib *assets.Library) {
	r.Get("/assets/*", NewAssetHandler(lib).ServeFile)
}
