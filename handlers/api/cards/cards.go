package cards

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"socialcard-server/core"
	"socialcard-server/handlers/api"
	"socialcard-server/studio"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
)

type CardService interface {
	Save(ctx context.Context, req studio.SaveRequest) (*core.SavedCard, error)
	Cards(ctx context.Context) ([]*core.SavedCard, error)
	Card(ctx context.Context, id string) (*core.SavedCard, error)
	Thumbnail(ctx context.Context, rawURL string, width int) ([]byte, error)
	ShareQR(ctx context.Context, cardID string, size int) ([]byte, error)
}

// HandleList lists saved cards, most recent first.
func HandleList(service CardService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cards, err := service.Cards(r.Context())
		if err != nil {
			logrus.WithField("error", err).Error("Failed to list cards")
			api.RenderError(w, r, http.StatusInternalServerError, api.ErrorResponse{Error: err.Error()})
			return
		}

		render.JSON(w, r, cards)
	}
}

// HandleCreate saves a card. url and headline are required.
func HandleCreate(service CardService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req studio.SaveRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logrus.WithField("error", err).Error("Failed to decode request")
			api.RenderError(w, r, http.StatusBadRequest, api.ErrorResponse{Error: "Invalid request body"})
			return
		}

		card, err := service.Save(r.Context(), req)
		if err != nil {
			if errors.Is(err, studio.ErrInvalidCard) {
				api.RenderError(w, r, http.StatusBadRequest, api.ErrorResponse{Error: "Missing required fields"})
				return
			}
			logrus.WithField("error", err).Error("Failed to save card")
			api.RenderError(w, r, http.StatusInternalServerError, api.ErrorResponse{Error: err.Error()})
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, card)
	}
}

func HandleGet(service CardService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		card, ok := findCard(w, r, service)
		if !ok {
			return
		}
		render.JSON(w, r, card)
	}
}

// HandleThumbnail renders a small PNG of the saved card for the gallery.
func HandleThumbnail(service CardService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		card, ok := findCard(w, r, service)
		if !ok {
			return
		}

		width := parseIntQuery(r, "width", studio.DefaultThumbnailWidth)
		data, err := service.Thumbnail(r.Context(), card.URL, width)
		if err != nil {
			switch {
			case errors.Is(err, studio.ErrForeignURL):
				api.RenderError(w, r, http.StatusUnprocessableEntity, api.ErrorResponse{Error: err.Error()})
			case errors.Is(err, studio.ErrTooLarge):
				api.RenderError(w, r, http.StatusBadGateway, api.ErrorResponse{Error: err.Error()})
			case errors.Is(err, studio.ErrTransient):
				api.RenderError(w, r, http.StatusBadGateway, api.ErrorResponse{Error: err.Error(), Retryable: true})
			default:
				logrus.WithField("error", err).Error("Failed to render thumbnail")
				api.RenderError(w, r, http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to render thumbnail"})
			}
			return
		}

		writePNG(w, data)
	}
}

// HandleQR renders a QR code linking to the saved card's image.
func HandleQR(service CardService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		size := parseIntQuery(r, "size", studio.DefaultQRSize)

		data, err := service.ShareQR(r.Context(), id, size)
		if err != nil {
			if errors.Is(err, core.ErrCardNotFound) {
				api.RenderError(w, r, http.StatusNotFound, api.ErrorResponse{Error: "Card not found"})
				return
			}
			logrus.WithField("error", err).Error("Failed to render QR code")
			api.RenderError(w, r, http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to render QR code"})
			return
		}

		writePNG(w, data)
	}
}

func findCard(w http.ResponseWriter, r *http.Request, service CardService) (*core.SavedCard, bool) {
	id := chi.URLParam(r, "id")

	card, err := service.Card(r.Context(), id)
	if err != nil {
		if errors.Is(err, core.ErrCardNotFound) {
			api.RenderError(w, r, http.StatusNotFound, api.ErrorResponse{Error: "Card not found"})
			return nil, false
		}
		logrus.WithField("error", err).Error("Failed to get card")
		api.RenderError(w, r, http.StatusInternalServerError, api.ErrorResponse{Error: err.Error()})
		return nil, false
	}
	return card, true
}

func writePNG(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		logrus.WithField("error", err).Error("Failed to write image")
	}
}

// parseIntQuery parses an integer query parameter
func parseIntQuery(r *http.Request, param string, defaultValue int) int {
	value := r.URL.Query().Get(param)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intValue
}
