package assets

import (
	"context"
	"errors"
	"io"
	"net/http"

	"socialcard-server/core"
	"socialcard-server/handlers/api"
	"socialcard-server/upload"

	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
)

type Uploader interface {
	Upload(ctx context.Context, filename string, file io.Reader) (*core.Asset, error)
}

// HandleUpload accepts a multipart form with a single "file" field and
// stores it with the rendering backend. The returned asset ID can be used
// as the background of any template.
func HandleUpload(u Uploader, maxBytes int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		if err := r.ParseMultipartForm(maxBytes); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				api.RenderError(w, r, http.StatusRequestEntityTooLarge, api.ErrorResponse{Error: "File too large"})
				return
			}
			logrus.WithField("error", err).Error("Failed to parse upload")
			api.RenderError(w, r, http.StatusBadRequest, api.ErrorResponse{Error: "Invalid upload"})
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			api.RenderError(w, r, http.StatusBadRequest, api.ErrorResponse{Error: "Missing file"})
			return
		}
		defer file.Close()

		asset, err := u.Upload(r.Context(), header.Filename, file)
		if err != nil {
			if errors.Is(err, upload.ErrNotConfigured) {
				api.RenderError(w, r, http.StatusServiceUnavailable, api.ErrorResponse{Error: err.Error()})
				return
			}
			logrus.WithFields(logrus.Fields{
				"filename": header.Filename,
				"error":    err,
			}).Error("Failed to upload asset")
			api.RenderError(w, r, http.StatusBadGateway, api.ErrorResponse{Error: err.Error()})
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, asset)
	}
}
