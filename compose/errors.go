package compose

import "errors"

var (
	// ErrNotFound is returned when a template id is not in the registry.
	ErrNotFound = errors.New("template not found")

	// ErrMissingAsset is returned when an overlay-bearing template is built
	// without a background asset. Callers usually show a placeholder.
	ErrMissingAsset = errors.New("background asset is required")
)
