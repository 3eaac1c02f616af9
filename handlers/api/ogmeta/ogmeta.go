package ogmeta

import (
	"context"
	"errors"
	"net/http"

	"socialcard-server/core"
	"socialcard-server/handlers/api"
	"socialcard-server/metadata"

	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
)

type Fetcher interface {
	Fetch(ctx context.Context, pageURL string) (*core.LinkMetadata, error)
}

// HandleFetch returns the link metadata of the page given in ?url=, used to
// prefill the title and subtitle of a card.
func HandleFetch(f Fetcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pageURL := r.URL.Query().Get("url")

		md, err := f.Fetch(r.Context(), pageURL)
		if err != nil {
			switch {
			case errors.Is(err, metadata.ErrInvalidURL):
				api.RenderError(w, r, http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
			case errors.Is(err, metadata.ErrFetch):
				logrus.WithFields(logrus.Fields{
					"url":   pageURL,
					"error": err,
				}).Warn("Failed to fetch link metadata")
				api.RenderError(w, r, http.StatusBadGateway, api.ErrorResponse{Error: err.Error(), Retryable: true})
			default:
				logrus.WithField("error", err).Error("Failed to fetch link metadata")
				api.RenderError(w, r, http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to fetch link metadata"})
			}
			return
		}

		render.JSON(w, r, md)
	}
}
