package compose

import (
	"fmt"
)

// Family selects the builder that lays out a template.
type Family string

const (
	FamilyFullBleed Family = "full-bleed"
	FamilySplit     Family = "split"
	FamilyBadged    Family = "badged"
)

const (
	CanvasWidth  = 1200
	CanvasHeight = 630

	// DefaultTemplateID is what the UI falls back to for unknown ids.
	DefaultTemplateID = "full"
)

type (
	Anchor struct {
		Gravity Gravity `json:"gravity"`
		X       int     `json:"x"`
		Y       int     `json:"y"`
	}

	NamedAnchor struct {
		Name string `json:"name"`
		Anchor
	}

	TextAnchors struct {
		Title    Anchor `json:"title"`
		Subtitle Anchor `json:"subtitle"`
	}

	// Template describes one layout. It is static configuration; the
	// geometry that is not exposed here lives with the family builder.
	Template struct {
		ID             string        `json:"id"`
		DisplayName    string        `json:"name"`
		PreviewAssetID string        `json:"previewAssetId"`
		Width          int           `json:"width"`
		Height         int           `json:"height"`
		TextAnchors    TextAnchors   `json:"textPositions"`
		BadgeAnchors   []NamedAnchor `json:"badgePositions,omitempty"`
		Family         Family        `json:"family"`
	}
)

// BadgeAnchor returns the badge anchor with the given name.
func (t Template) BadgeAnchor(name string) (Anchor, bool) {
	for _, a := range t.BadgeAnchors {
		if a.Name == name {
			return a.Anchor, true
		}
	}
	return Anchor{}, false
}

// Registry is the immutable, ordered catalog of templates.
type Registry struct {
	templates []Template
	index     map[string]int
}

// NewRegistry panics on an empty or duplicate id, or on a family no builder
// is registered for; both are programming errors caught at start-up.
func NewRegistry(templates ...Template) *Registry {
	r := &Registry{
		templates: make([]Template, 0, len(templates)),
		index:     make(map[string]int, len(templates)),
	}
	for _, t := range templates {
		if t.ID == "" {
			panic("compose: template with empty id")
		}
		if _, dup := r.index[t.ID]; dup {
			panic(fmt.Sprintf("compose: template %q registered twice", t.ID))
		}
		if _, ok := families[t.Family]; !ok {
			panic(fmt.Sprintf("compose: template %q has unknown family %q", t.ID, t.Family))
		}
		t.BadgeAnchors = append([]NamedAnchor(nil), t.BadgeAnchors...)
		r.index[t.ID] = len(r.templates)
		r.templates = append(r.templates, t)
	}
	return r
}

// DefaultRegistry returns the three built-in templates. previewAssetID is the
// backend asset used for gallery previews.
func DefaultRegistry(previewAssetID string) *Registry {
	return NewRegistry(
		Template{
			ID:             "full",
			DisplayName:    "Full Bleed",
			PreviewAssetID: previewAssetID,
			Width:          CanvasWidth,
			Height:         CanvasHeight,
			TextAnchors: TextAnchors{
				Title:    Anchor{Gravity: Center, X: 0, Y: -50},
				Subtitle: Anchor{Gravity: Center, X: 0, Y: 80},
			},
			Family: FamilyFullBleed,
		},
		Template{
			ID:             "split",
			DisplayName:    "Split Layout",
			PreviewAssetID: previewAssetID,
			Width:          CanvasWidth,
			Height:         CanvasHeight,
			TextAnchors: TextAnchors{
				Title:    Anchor{Gravity: West, X: 90, Y: 50},
				Subtitle: Anchor{Gravity: West, X: 90, Y: 220},
			},
			Family: FamilySplit,
		},
		Template{
			ID:             "article",
			DisplayName:    "Article Badge",
			PreviewAssetID: previewAssetID,
			Width:          CanvasWidth,
			Height:         CanvasHeight,
			TextAnchors: TextAnchors{
				Title:    Anchor{Gravity: NorthWest, X: 100, Y: 90},
				Subtitle: Anchor{Gravity: SouthWest, X: 100, Y: 110},
			},
			BadgeAnchors: []NamedAnchor{
				{Name: LogoAnchor, Anchor: Anchor{Gravity: NorthWest, X: 100, Y: 30}},
			},
			Family: FamilyBadged,
		},
	)
}

// List returns the templates in registration order.
func (r *Registry) List() []Template {
	out := make([]Template, len(r.templates))
	copy(out, r.templates)
	return out
}

func (r *Registry) Get(id string) (Template, error) {
	i, ok := r.index[id]
	if !ok {
		return Template{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return r.templates[i], nil
}

// Resolve is Get with the UI fallback: unknown ids resolve to the default
// template, or the first registered one when there is no default.
func (r *Registry) Resolve(id string) Template {
	if t, err := r.Get(id); err == nil {
		return t
	}
	if t, err := r.Get(DefaultTemplateID); err == nil {
		return t
	}
	if len(r.templates) > 0 {
		return r.templates[0]
	}
	return Template{}
}
