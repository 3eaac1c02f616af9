package transform

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"socialcard-server/compose"
)

// DefaultBaseURL is the delivery host of the rendering backend.
const DefaultBaseURL = "https://res.cloudinary.com"

// ErrUnencodableLayer means a composition holds a layer the URL grammar cannot
// express. It indicates a builder defect, never bad user input.
var ErrUnencodableLayer = errors.New("layer cannot be encoded")

type Options struct {
	BaseURL   string
	CloudName string
}

// Operation is the group of path segments one layer (or one canvas effect)
// contributes to the URL.
type Operation struct {
	Name     string   `json:"name"`
	Segments []string `json:"segments"`
}

// Encoder serializes compositions into delivery URLs. It is stateless.
type Encoder struct {
	baseURL   string
	cloudName string
}

func New(opts Options) *Encoder {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	return &Encoder{baseURL: base, cloudName: opts.CloudName}
}

// BaseURL is the delivery host every encoded URL starts with.
func (e *Encoder) BaseURL() string {
	return e.baseURL
}

// Encode returns the delivery URL for c. Backend-hosted backgrounds use the
// upload delivery type; an external background is proxied through fetch.
func (e *Encoder) Encode(c compose.Composition) (string, error) {
	ops, err := e.Operations(c)
	if err != nil {
		return "", err
	}

	segments := make([]string, 0, len(ops)*2+1)
	for _, op := range ops {
		segments = append(segments, op.Segments...)
	}

	format := c.Format
	if format == "" {
		format = "png"
	}

	src := c.Layers[0].Source
	var b strings.Builder
	b.WriteString(e.baseURL)
	b.WriteString("/")
	b.WriteString(url.PathEscape(e.cloudName))
	if src.IsExternal() {
		b.WriteString("/image/fetch/")
		b.WriteString(strings.Join(segments, "/"))
		b.WriteString("/f_")
		b.WriteString(format)
		b.WriteString("/")
		b.WriteString(url.PathEscape(src.URL))
		return b.String(), nil
	}

	b.WriteString("/image/upload/")
	b.WriteString(strings.Join(segments, "/"))
	b.WriteString("/")
	b.WriteString(escapePublicID(src.ID))
	b.WriteString(".")
	b.WriteString(format)
	return b.String(), nil
}

// Operations returns the ordered operations of c: the background, then each
// canvas effect, then one operation per overlay layer in paint order.
func (e *Encoder) Operations(c compose.Composition) ([]Operation, error) {
	if e.cloudName == "" {
		return nil, fmt.Errorf("%w: cloud name is not configured", ErrUnencodableLayer)
	}
	if len(c.Layers) == 0 {
		return nil, fmt.Errorf("%w: composition has no layers", ErrUnencodableLayer)
	}

	ops := make([]Operation, 0, len(c.Layers)+len(c.Effects))
	for i, layer := range c.Layers {
		if i == 0 && layer.Kind != compose.Background {
			return nil, layerError(i, layer, "first layer must be the background")
		}
		if i > 0 && layer.Kind == compose.Background {
			return nil, layerError(i, layer, "background must be the first layer")
		}

		var (
			op  Operation
			err error
		)
		switch layer.Kind {
		case compose.Background:
			op, err = encodeBackground(i, layer)
		case compose.TextOverlay:
			op, err = encodeText(i, layer)
		case compose.ImageOverlay, compose.UnderlineOverlay, compose.BadgeOverlay:
			op, err = encodeImage(i, layer)
		default:
			err = layerError(i, layer, "unknown layer kind")
		}
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)

		if i == 0 {
			for _, effect := range c.Effects {
				param, err := effectParam(effect)
				if err != nil {
					return nil, fmt.Errorf("%w: canvas effect: %v", ErrUnencodableLayer, err)
				}
				ops = append(ops, Operation{Name: "effect", Segments: []string{param}})
			}
		}
	}
	return ops, nil
}

func layerError(i int, layer compose.Layer, reason string) error {
	return fmt.Errorf("%w: layer %d (%s): %s", ErrUnencodableLayer, i, layer.Kind, reason)
}

func encodeBackground(i int, layer compose.Layer) (Operation, error) {
	if layer.Source.IsZero() {
		return Operation{}, layerError(i, layer, "background has no source")
	}

	params, err := sizeParams(layer.Size)
	if err != nil {
		return Operation{}, layerError(i, layer, err.Error())
	}
	effects, err := effectParams(layer.Effects)
	if err != nil {
		return Operation{}, layerError(i, layer, err.Error())
	}
	params = append(params, effects...)

	return Operation{Name: layer.Kind.String(), Segments: []string{strings.Join(params, ",")}}, nil
}

func encodeImage(i int, layer compose.Layer) (Operation, error) {
	if layer.Source.IsExternal() {
		return Operation{}, layerError(i, layer, "overlays cannot reference external urls")
	}
	if layer.Source.ID == "" {
		return Operation{}, layerError(i, layer, "overlay has no source")
	}

	params := []string{"l_" + overlayID(layer.Source.ID)}
	size, err := sizeParams(layer.Size)
	if err != nil {
		return Operation{}, layerError(i, layer, err.Error())
	}
	effects, err := effectParams(layer.Effects)
	if err != nil {
		return Operation{}, layerError(i, layer, err.Error())
	}
	params = append(params, size...)
	params = append(params, effects...)

	return Operation{
		Name:     layer.Kind.String(),
		Segments: []string{strings.Join(params, ","), applyParams(layer.Placement)},
	}, nil
}

func encodeText(i int, layer compose.Layer) (Operation, error) {
	t := layer.Text
	if t == nil {
		return Operation{}, layerError(i, layer, "text overlay has no text")
	}
	if t.Font == "" || t.Size <= 0 {
		return Operation{}, layerError(i, layer, "text overlay has no font")
	}

	style := t.Font + "_" + strconv.Itoa(t.Size)
	if t.Bold {
		style += "_bold"
	}
	if t.LineSpacing != 0 {
		style += "_line_spacing_" + strconv.Itoa(t.LineSpacing)
	}

	params := []string{"l_text:" + style + ":" + EscapeText(t.Content)}
	if t.Color != "" {
		params = append(params, "co_"+t.Color)
	}
	size, err := sizeParams(layer.Size)
	if err != nil {
		return Operation{}, layerError(i, layer, err.Error())
	}
	params = append(params, size...)

	return Operation{
		Name:     layer.Kind.String(),
		Segments: []string{strings.Join(params, ","), applyParams(layer.Placement)},
	}, nil
}

func sizeParams(s compose.Size) ([]string, error) {
	var params []string
	if s.Crop != "" {
		params = append(params, "c_"+string(s.Crop))
	}
	if s.Gravity != "" {
		params = append(params, "g_"+string(s.Gravity))
	}

	if s.Relative {
		if !validFraction(s.RelWidth) || !validFraction(s.RelHeight) {
			return nil, fmt.Errorf("relative size %gx%g out of range", s.RelWidth, s.RelHeight)
		}
		params = append(params,
			"w_"+formatFraction(s.RelWidth),
			"h_"+formatFraction(s.RelHeight),
			"fl_relative")
		return params, nil
	}

	if s.Width < 0 || s.Height < 0 {
		return nil, fmt.Errorf("negative size %dx%d", s.Width, s.Height)
	}
	if s.Width > 0 {
		params = append(params, "w_"+strconv.Itoa(s.Width))
	}
	if s.Height > 0 {
		params = append(params, "h_"+strconv.Itoa(s.Height))
	}
	return params, nil
}

func applyParams(at compose.Anchor) string {
	params := []string{"fl_layer_apply"}
	if at.Gravity != "" {
		params = append(params, "g_"+string(at.Gravity))
	}
	if at.X != 0 {
		params = append(params, "x_"+strconv.Itoa(at.X))
	}
	if at.Y != 0 {
		params = append(params, "y_"+strconv.Itoa(at.Y))
	}
	return strings.Join(params, ",")
}

func effectParams(effects []compose.Effect) ([]string, error) {
	params := make([]string, 0, len(effects))
	for _, e := range effects {
		p, err := effectParam(e)
		if err != nil {
			return nil, err
		}
		params = append(params, p)
	}
	return params, nil
}

func effectParam(e compose.Effect) (string, error) {
	switch e.Kind {
	case compose.EffectOpacity:
		return "o_" + strconv.Itoa(e.Amount), nil
	case compose.EffectTint:
		p := "e_colorize:" + strconv.Itoa(e.Amount)
		if e.Color != "" {
			p += ",co_" + e.Color
		}
		return p, nil
	case compose.EffectRadius:
		return "r_" + strconv.Itoa(e.Amount), nil
	case compose.EffectGradientFade:
		if e.Mode == "" {
			return "e_gradient_fade", nil
		}
		return "e_gradient_fade:" + e.Mode, nil
	case compose.EffectBackdrop:
		if e.Color == "" {
			return "", fmt.Errorf("backdrop without color")
		}
		return "b_" + e.Color, nil
	}
	return "", fmt.Errorf("unknown effect %v", e.Kind)
}

func validFraction(f float64) bool {
	return f > 0 && f <= 1
}

// formatFraction always keeps a decimal point so the backend reads the value
// as relative (1 -> "1.0").
func formatFraction(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// overlayID converts a folder path to the overlay form, which uses ':' as the
// folder separator.
func overlayID(id string) string {
	return strings.ReplaceAll(id, "/", ":")
}

func escapePublicID(id string) string {
	parts := strings.Split(id, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
