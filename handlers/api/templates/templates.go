package templates

import (
	"fmt"
	"net/http"

	"socialcard-server/compose"
	"socialcard-server/handlers/api"
	"socialcard-server/studio"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

// HandleList returns every template descriptor with its gallery preview, in
// registry order.
func HandleList(gallery []studio.GalleryEntry) http.HandlerFunc {
	if gallery == nil {
		gallery = []studio.GalleryEntry{}
	}
	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, gallery)
	}
}

// HandleGet returns one template. Unknown ids answer 404 and name the
// template the client should fall back to.
func HandleGet(gallery []studio.GalleryEntry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		for _, entry := range gallery {
			if entry.ID == id {
				render.JSON(w, r, entry)
				return
			}
		}

		api.RenderError(w, r, http.StatusNotFound, api.ErrorResponse{
			Error:           fmt.Sprintf("%v: %q", compose.ErrNotFound, id),
			DefaultTemplate: compose.DefaultTemplateID,
		})
	}
}
