package preview

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"socialcard-server/compose"
	"socialcard-server/handlers/api"
	"socialcard-server/studio"
	"socialcard-server/transform"

	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
)

type Previewer interface {
	Preview(req studio.PreviewRequest) (*studio.Preview, error)
	Download(ctx context.Context, rawURL string) (*studio.Download, error)
}

func requestFromQuery(r *http.Request) studio.PreviewRequest {
	q := r.URL.Query()
	return studio.PreviewRequest{
		TemplateID: q.Get("template"),
		Asset:      q.Get("asset"),
		Title:      q.Get("title"),
		Subtitle:   q.Get("subtitle"),
	}
}

// renderPreviewError maps composition failures onto HTTP responses.
func renderPreviewError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, compose.ErrNotFound):
		api.RenderError(w, r, http.StatusNotFound, api.ErrorResponse{
			Error:           err.Error(),
			DefaultTemplate: compose.DefaultTemplateID,
		})
	case errors.Is(err, compose.ErrMissingAsset):
		api.RenderError(w, r, http.StatusUnprocessableEntity, api.ErrorResponse{
			Error:       err.Error(),
			Placeholder: true,
		})
	case errors.Is(err, transform.ErrUnencodableLayer):
		api.RenderError(w, r, http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to encode composition"})
	default:
		logrus.WithField("error", err).Error("Failed to build preview")
		api.RenderError(w, r, http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to build preview"})
	}
}

// HandlePreview builds a card from a JSON body and returns its URL and layers.
func HandlePreview(p Previewer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req studio.PreviewRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logrus.WithField("error", err).Error("Failed to decode request")
			api.RenderError(w, r, http.StatusBadRequest, api.ErrorResponse{Error: "Invalid request body"})
			return
		}

		preview, err := p.Preview(req)
		if err != nil {
			renderPreviewError(w, r, err)
			return
		}

		render.JSON(w, r, preview)
	}
}

// HandlePreviewURL returns the bare delivery URL as text so the client can
// copy it to the clipboard.
func HandlePreviewURL(p Previewer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		preview, err := p.Preview(requestFromQuery(r))
		if err != nil {
			renderPreviewError(w, r, err)
			return
		}

		render.PlainText(w, r, preview.URL)
	}
}

// HandleExport downloads the rendered image and sends it as an attachment.
func HandleExport(p Previewer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rawURL := r.URL.Query().Get("url")
		if rawURL == "" {
			preview, err := p.Preview(requestFromQuery(r))
			if err != nil {
				renderPreviewError(w, r, err)
				return
			}
			rawURL = preview.URL
		}

		download, err := p.Download(r.Context(), rawURL)
		if err != nil {
			switch {
			case errors.Is(err, studio.ErrForeignURL):
				api.RenderError(w, r, http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
			case errors.Is(err, studio.ErrTooLarge):
				api.RenderError(w, r, http.StatusBadGateway, api.ErrorResponse{Error: err.Error()})
			case errors.Is(err, studio.ErrTransient):
				api.RenderError(w, r, http.StatusBadGateway, api.ErrorResponse{Error: err.Error(), Retryable: true})
			default:
				logrus.WithField("error", err).Error("Failed to export image")
				api.RenderError(w, r, http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to export image"})
			}
			return
		}

		w.Header().Set("Content-Type", download.ContentType)
		w.Header().Set("Content-Length", strconv.Itoa(len(download.Data)))
		w.Header().Set("Content-Disposition", `attachment; filename="`+download.Filename+`"`)
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(download.Data); err != nil {
			logrus.WithField("error", err).Error("Failed to write image")
		}
	}
}
