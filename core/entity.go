package core

import (
	"context"
	"errors"
	"time"
)

// ErrCardNotFound is returned by CardStore.FindID for unknown ids.
var ErrCardNotFound = errors.New("card not found")

type (
	// SavedCard is a finished card the user chose to keep. URL is the final
	// transformation URL produced by the encoder.
	SavedCard struct {
		ID        string    `json:"id"`
		URL       string    `json:"url"`
		Headline  string    `json:"headline"`
		Tagline   string    `json:"tagline"`
		CreatedAt time.Time `json:"createdAt"`
	}

	// CardStore persists saved cards. List returns the most recent card first.
	CardStore interface {
		List(ctx context.Context) ([]*SavedCard, error)
		Create(ctx context.Context, card *SavedCard) (*SavedCard, error)
		FindID(ctx context.Context, id string) (*SavedCard, error)
	}

	// Asset is an image stored by the rendering backend.
	Asset struct {
		ID     string `json:"id"`
		URL    string `json:"url"`
		Width  int    `json:"width,omitempty"`
		Height int    `json:"height,omitempty"`
	}

	// LinkMetadata is what a page advertises about itself through its
	// OpenGraph and related meta tags.
	LinkMetadata struct {
		Title       string `json:"title,omitempty"`
		Description string `json:"description,omitempty"`
		Image       string `json:"image,omitempty"`
	}
)
