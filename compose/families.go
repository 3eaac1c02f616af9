package compose

// LogoAnchor names the badge anchor used for the configured logo.
const LogoAnchor = "logo"

const (
	fontFamily = "arial"

	underlineOffset = 95
	underlineHeight = 2
	badgeWidth      = 60
	badgeRadius     = 12
)

// familyFunc lays out one template family. It only runs with a non-empty,
// backend-hosted asset.
type familyFunc func(t Template, asset AssetRef, fields TextFields, opts Options) ([]Layer, []Effect)

var families = map[Family]familyFunc{
	FamilyFullBleed: buildFullBleed,
	FamilySplit:     buildSplit,
	FamilyBadged:    buildBadged,
}

func background(t Template, asset AssetRef, effects ...Effect) Layer {
	return Layer{
		Kind:    Background,
		Source:  asset,
		Size:    Size{Crop: CropFill, Width: t.Width, Height: t.Height},
		Effects: effects,
	}
}

func text(content string, style Text, width int, at Anchor) Layer {
	style.Font = fontFamily
	style.Content = content
	return Layer{
		Kind:      TextOverlay,
		Text:      &style,
		Size:      Size{Crop: CropFit, Width: width},
		Placement: at,
	}
}

// buildFullBleed darkens the photo and centers both lines over it.
func buildFullBleed(t Template, asset AssetRef, fields TextFields, _ Options) ([]Layer, []Effect) {
	return []Layer{
		background(t, asset, Tint(80, "black")),
		text(fields.Title, Text{Size: 60, Bold: true, Color: "white"}, 1000, t.TextAnchors.Title),
		text(fields.Subtitle, Text{Size: 38, Color: "white"}, 1000, t.TextAnchors.Subtitle),
	}, nil
}

// buildSplit washes the canvas white, puts the photo in the right-hand
// column and the text in the left one.
func buildSplit(t Template, asset AssetRef, fields TextFields, _ Options) ([]Layer, []Effect) {
	photo := Layer{
		Kind:   ImageOverlay,
		Source: asset,
		Size: Size{
			Crop:      CropFill,
			Gravity:   Auto,
			Relative:  true,
			RelWidth:  0.35,
			RelHeight: 1.0,
		},
		Placement: Anchor{Gravity: NorthEast},
	}

	return []Layer{
		background(t, asset, Tint(100, "white")),
		photo,
		text(fields.Title, Text{Size: 68, Bold: true, Color: "black"}, 680, t.TextAnchors.Title),
		text(fields.Subtitle, Text{Size: 34, Color: "black"}, 680, t.TextAnchors.Subtitle),
	}, nil
}

// buildBadged renders a faded photo under a navy gradient with an underlined
// headline, an optional logo and a tagline.
func buildBadged(t Template, asset AssetRef, fields TextFields, opts Options) ([]Layer, []Effect) {
	title := t.TextAnchors.Title

	layers := []Layer{
		background(t, asset, Opacity(20)),
		text(fields.Title, Text{Size: 56, Bold: true, LineSpacing: 8, Color: "white"}, 1000, title),
		{
			Kind:      UnderlineOverlay,
			Source:    asset,
			Size:      Size{Crop: CropFill, Width: 1000, Height: underlineHeight},
			Placement: Anchor{Gravity: title.Gravity, X: title.X, Y: title.Y + underlineOffset},
			Effects:   []Effect{Tint(100, "white"), Opacity(70)},
		},
	}

	if opts.BadgeAssetID != "" {
		if at, ok := t.BadgeAnchor(LogoAnchor); ok {
			layers = append(layers, Layer{
				Kind:      BadgeOverlay,
				Source:    AssetRef{ID: opts.BadgeAssetID},
				Size:      Size{Crop: CropFit, Width: badgeWidth},
				Placement: at,
				Effects:   []Effect{Radius(badgeRadius)},
			})
		}
	}

	layers = append(layers,
		text(fields.Subtitle, Text{Size: 36, Bold: true, Color: "white"}, 1000, t.TextAnchors.Subtitle))

	effects := []Effect{
		Backdrop("rgb:010A44"),
		Tint(100, "rgb:2A005F"),
		GradientFade("symmetric"),
	}
	return layers, effects
}
