package api

import (
	"net/http"

	"github.com/go-chi/render"
)

// ErrorResponse is the JSON body of every failed API call.
type ErrorResponse struct {
	Error           string `json:"error"`
	Retryable       bool   `json:"retryable,omitempty"`
	Placeholder     bool   `json:"placeholder,omitempty"`
	DefaultTemplate string `json:"defaultTemplate,omitempty"`
}

func RenderError(w http.ResponseWriter, r *http.Request, status int, body ErrorResponse) {
	render.Status(r, status)
	render.JSON(w, r, body)
}
