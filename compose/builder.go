package compose

import "fmt"

const defaultFormat = "png"

// TextFields are the user-entered lines. Both may be empty.
type TextFields struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
}

// Options is environment-provided configuration for the builder.
type Options struct {
	// BadgeAssetID is the backend id of the logo drawn by badged templates.
	// Empty means no badge layer.
	BadgeAssetID string
}

// Builder turns a template choice, an asset and text into a Composition. It
// holds no mutable state; equal inputs always give equal compositions.
type Builder struct {
	registry *Registry
	opts     Options
}

func NewBuilder(registry *Registry, opts Options) *Builder {
	return &Builder{registry: registry, opts: opts}
}

func (b *Builder) Registry() *Registry {
	return b.registry
}

// Build lays out a card. An unknown template fails with ErrNotFound and an
// empty asset with ErrMissingAsset. An external URL cannot be addressed by
// overlays, so it yields a single background layer for every template.
func (b *Builder) Build(templateID string, asset AssetRef, fields TextFields) (Composition, error) {
	t, err := b.registry.Get(templateID)
	if err != nil {
		return Composition{}, err
	}

	if asset.IsZero() {
		return Composition{}, fmt.Errorf("%w: template %q", ErrMissingAsset, t.ID)
	}

	c := Composition{
		TemplateID: t.ID,
		Width:      t.Width,
		Height:     t.Height,
		Format:     defaultFormat,
	}

	if asset.IsExternal() {
		c.Layers = []Layer{background(t, asset)}
		return c, nil
	}

	build, ok := families[t.Family]
	if !ok {
		return Composition{}, fmt.Errorf("compose: no builder for family %q", t.Family)
	}
	c.Layers, c.Effects = build(t, asset, fields, b.opts)
	return c, nil
}
