package studio

import (
	"socialcard-server/compose"
	"socialcard-server/transform"
)

// GalleryEntry is a template descriptor with its rendered example.
type GalleryEntry struct {
	compose.Template
	PreviewURL string `json:"previewUrl"`
}

// BuildGallery encodes the example card of every template. It runs once at
// start-up; the result is passed to whoever lists templates.
func BuildGallery(b *compose.Builder, e *transform.Encoder) ([]GalleryEntry, error) {
	examples, err := compose.Examples(b)
	if err != nil {
		return nil, err
	}

	gallery := make([]GalleryEntry, 0, len(examples))
	for _, ex := range examples {
		u, err := e.Encode(ex.Composition)
		if err != nil {
			return nil, err
		}
		gallery = append(gallery, GalleryEntry{Template: ex.Template, PreviewURL: u})
	}
	return gallery, nil
}
