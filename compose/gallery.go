package compose

import "fmt"

// ExampleTagline is the subtitle shown on gallery previews.
const ExampleTagline = "Share your story"

// Example is the sample card shown for a template in the gallery.
type Example struct {
	Template    Template
	Composition Composition
}

// Examples builds one sample composition per registered template, in
// registry order, from each template's preview asset.
func Examples(b *Builder) ([]Example, error) {
	templates := b.registry.List()
	out := make([]Example, 0, len(templates))
	for _, t := range templates {
		c, err := b.Build(t.ID, AssetRef{ID: t.PreviewAssetID}, TextFields{
			Title:    t.DisplayName,
			Subtitle: ExampleTagline,
		})
		if err != nil {
			return nil, fmt.Errorf("example for %q: %w", t.ID, err)
		}
		out = append(out, Example{Template: t, Composition: c})
	}
	return out, nil
}
