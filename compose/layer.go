package compose

type (
	// Gravity is a compass anchor on the canvas (or the crop focus for image
	// layers, where Auto is also allowed).
	Gravity string

	// Crop is the strategy used to fit an image into its box.
	Crop string

	// LayerKind tags a Layer. Each kind carries a fixed subset of Layer's
	// fields; see the Layer doc.
	LayerKind int

	// EffectKind tags an Effect.
	EffectKind int
)

const (
	Center    Gravity = "center"
	North     Gravity = "north"
	NorthEast Gravity = "north_east"
	East      Gravity = "east"
	SouthEast Gravity = "south_east"
	South     Gravity = "south"
	SouthWest Gravity = "south_west"
	West      Gravity = "west"
	NorthWest Gravity = "north_west"
	Auto      Gravity = "auto"
)

const (
	CropFill Crop = "fill"
	CropFit  Crop = "fit"
)

const (
	Background LayerKind = iota
	ImageOverlay
	TextOverlay
	UnderlineOverlay
	BadgeOverlay
)

const (
	EffectOpacity EffectKind = iota
	EffectTint
	EffectRadius
	EffectGradientFade
	EffectBackdrop
)

func (k LayerKind) String() string {
	switch k {
	case Background:
		return "background"
	case ImageOverlay:
		return "image"
	case TextOverlay:
		return "text"
	case UnderlineOverlay:
		return "underline"
	case BadgeOverlay:
		return "badge"
	}
	return "unknown"
}

// MarshalText renders the kind by name so compositions read well as JSON.
func (k LayerKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k EffectKind) String() string {
	switch k {
	case EffectOpacity:
		return "opacity"
	case EffectTint:
		return "tint"
	case EffectRadius:
		return "radius"
	case EffectGradientFade:
		return "gradient_fade"
	case EffectBackdrop:
		return "backdrop"
	}
	return "unknown"
}

func (k EffectKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Effect is a visual adjustment. Amount is used by Opacity, Tint and Radius;
// Color by Tint and Backdrop; Mode by GradientFade.
type Effect struct {
	Kind   EffectKind `json:"kind"`
	Amount int        `json:"amount,omitempty"`
	Color  string     `json:"color,omitempty"`
	Mode   string     `json:"mode,omitempty"`
}

func Opacity(percent int) Effect {
	return Effect{Kind: EffectOpacity, Amount: percent}
}

// Tint colorizes the layer with color at the given strength (0-100).
func Tint(strength int, color string) Effect {
	return Effect{Kind: EffectTint, Amount: strength, Color: color}
}

func Radius(px int) Effect {
	return Effect{Kind: EffectRadius, Amount: px}
}

func GradientFade(mode string) Effect {
	return Effect{Kind: EffectGradientFade, Mode: mode}
}

// Backdrop fills transparent canvas areas with color.
func Backdrop(color string) Effect {
	return Effect{Kind: EffectBackdrop, Color: color}
}

// Text is the content and style of a text overlay.
type Text struct {
	Font        string `json:"font"`
	Size        int    `json:"size"`
	Bold        bool   `json:"bold,omitempty"`
	LineSpacing int    `json:"lineSpacing,omitempty"`
	Color       string `json:"color"`
	Content     string `json:"content"`
}

// Size is the box a layer is fitted into. When Relative is set the box is
// RelWidth x RelHeight of the canvas, otherwise Width x Height pixels; a zero
// pixel dimension leaves that axis to the crop strategy.
type Size struct {
	Crop      Crop    `json:"crop,omitempty"`
	Gravity   Gravity `json:"gravity,omitempty"`
	Width     int     `json:"width,omitempty"`
	Height    int     `json:"height,omitempty"`
	Relative  bool    `json:"relative,omitempty"`
	RelWidth  float64 `json:"relWidth,omitempty"`
	RelHeight float64 `json:"relHeight,omitempty"`
}

// Layer is one step of a composition.
//
//	Background                 Source, Size, Effects
//	ImageOverlay, Underline,
//	BadgeOverlay               Source, Size, Placement, Effects
//	TextOverlay                Text, Size (fit width), Placement
type Layer struct {
	Kind      LayerKind `json:"kind"`
	Source    AssetRef  `json:"source,omitempty"`
	Text      *Text     `json:"text,omitempty"`
	Size      Size      `json:"size"`
	Placement Anchor    `json:"placement"`
	Effects   []Effect  `json:"effects,omitempty"`
}

// Composition is the ordered description of a card. Layers are in paint
// order; Effects apply to the whole canvas right after the background.
type Composition struct {
	TemplateID string   `json:"templateId"`
	Width      int      `json:"width"`
	Height     int      `json:"height"`
	Format     string   `json:"format"`
	Layers     []Layer  `json:"layers"`
	Effects    []Effect `json:"effects,omitempty"`
}
