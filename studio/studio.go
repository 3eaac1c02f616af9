package studio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"socialcard-server/compose"
	"socialcard-server/core"
	"socialcard-server/transform"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"
	"github.com/skip2/go-qrcode"
	_ "golang.org/x/image/webp"
)

const (
	DefaultMaxDownloadBytes = 20 << 20

	DefaultThumbnailWidth = 300
	DefaultQRSize         = 256
)

var (
	// ErrTransient wraps download failures the caller may retry.
	ErrTransient = errors.New("transient failure")

	// ErrInvalidCard is returned by Save when required fields are missing.
	ErrInvalidCard = errors.New("missing required fields")

	// ErrTooLarge is returned when the backend sends more than the download
	// limit. The image is never passed on truncated.
	ErrTooLarge = errors.New("image exceeds download limit")

	// ErrForeignURL is returned when asked to download an image that was not
	// produced by this service's rendering backend.
	ErrForeignURL = errors.New("url is not served by the rendering backend")
)

type (
	Deps struct {
		Builder *compose.Builder
		Encoder *transform.Encoder
		Store   core.CardStore
		Client  *http.Client

		// MaxDownloadBytes caps exported images; zero means
		// DefaultMaxDownloadBytes.
		MaxDownloadBytes int64
	}

	PreviewRequest struct {
		TemplateID string `json:"templateId"`
		Asset      string `json:"asset"`
		Title      string `json:"title"`
		Subtitle   string `json:"subtitle"`
	}

	Preview struct {
		TemplateID string                `json:"templateId"`
		URL        string                `json:"url"`
		Layers     []compose.Layer       `json:"layers"`
		Operations []transform.Operation `json:"operations"`
	}

	SaveRequest struct {
		URL      string `json:"url"`
		Headline string `json:"headline"`
		Tagline  string `json:"tagline"`
	}

	Download struct {
		Data        []byte
		ContentType string
		Filename    string
	}
)

// Studio is the surface the UI talks to: it previews compositions, exports
// the rendered image and keeps the saved-card gallery.
type Studio struct {
	builder *compose.Builder
	encoder *transform.Encoder
	store   core.CardStore
	client  *http.Client
	maxBody int64
}

func New(deps Deps) *Studio {
	client := deps.Client
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	maxBody := deps.MaxDownloadBytes
	if maxBody <= 0 {
		maxBody = DefaultMaxDownloadBytes
	}
	return &Studio{
		builder: deps.Builder,
		encoder: deps.Encoder,
		store:   deps.Store,
		client:  client,
		maxBody: maxBody,
	}
}

// Preview builds and encodes a card. An empty template id means the client
// has not picked one yet and gets the default template. Errors from the
// builder pass through unchanged so callers can tell a missing template from
// a missing asset.
func (s *Studio) Preview(req PreviewRequest) (*Preview, error) {
	templateID := strings.TrimSpace(req.TemplateID)
	if templateID == "" {
		templateID = s.builder.Registry().Resolve(templateID).ID
	}

	c, err := s.builder.Build(templateID, compose.ParseAssetRef(req.Asset), compose.TextFields{
		Title:    req.Title,
		Subtitle: req.Subtitle,
	})
	if err != nil {
		return nil, err
	}

	ops, err := s.encoder.Operations(c)
	if err != nil {
		logrus.WithError(err).WithField("template_id", c.TemplateID).Error("Composition could not be encoded")
		return nil, err
	}
	u, err := s.encoder.Encode(c)
	if err != nil {
		logrus.WithError(err).WithField("template_id", c.TemplateID).Error("Composition could not be encoded")
		return nil, err
	}

	return &Preview{
		TemplateID: c.TemplateID,
		URL:        u,
		Layers:     c.Layers,
		Operations: ops,
	}, nil
}

// Download fetches the rendered image behind a delivery URL.
func (s *Studio) Download(ctx context.Context, rawURL string) (*Download, error) {
	if !strings.HasPrefix(rawURL, s.encoder.BaseURL()+"/") {
		return nil, fmt.Errorf("%w: %s", ErrForeignURL, rawURL)
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrForeignURL, err)
	}

	log := logrus.WithField("url", rawURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		log.WithError(err).Warn("Image download failed")
		return nil, fmt.Errorf("%w: %v", ErrTransient, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.WithField("status", resp.StatusCode).Warn("Rendering backend refused image download")
		return nil, fmt.Errorf("%w: backend responded %d", ErrTransient, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransient, err)
	}
	if int64(len(data)) > s.maxBody {
		log.WithField("limit", s.maxBody).Warn("Rendered image exceeds download limit")
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, s.maxBody)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	ext := path.Ext(parsed.Path)
	if ext == "" || len(ext) > 5 {
		ext = ".png"
	}

	log.WithField("data_length", len(data)).Info("Image downloaded successfully")
	return &Download{
		Data:        data,
		ContentType: contentType,
		Filename:    "social-card" + ext,
	}, nil
}

// Thumbnail downloads an image and scales it to width pixels, keeping the
// aspect ratio. The result is PNG encoded.
func (s *Studio) Thumbnail(ctx context.Context, rawURL string, width int) ([]byte, error) {
	if width <= 0 || width > compose.CanvasWidth {
		width = DefaultThumbnailWidth
	}

	d, err := s.Download(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	img, err := imaging.Decode(bytes.NewReader(d.Data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	thumb := imaging.Resize(img, width, 0, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}

// ShareQR renders a QR code pointing at the saved card's final URL.
func (s *Studio) ShareQR(ctx context.Context, cardID string, size int) ([]byte, error) {
	if size < 64 || size > 1024 {
		size = DefaultQRSize
	}

	card, err := s.store.FindID(ctx, cardID)
	if err != nil {
		return nil, err
	}

	png, err := qrcode.Encode(card.URL, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	return png, nil
}

// Save stores a finished card. The store's error is returned as is; nothing
// is kept locally on failure.
func (s *Studio) Save(ctx context.Context, req SaveRequest) (*core.SavedCard, error) {
	card := &core.SavedCard{
		URL:      strings.TrimSpace(req.URL),
		Headline: strings.TrimSpace(req.Headline),
		Tagline:  strings.TrimSpace(req.Tagline),
	}
	if card.URL == "" || card.Headline == "" {
		return nil, ErrInvalidCard
	}

	return s.store.Create(ctx, card)
}

// Cards lists saved cards, most recent first.
func (s *Studio) Cards(ctx context.Context) ([]*core.SavedCard, error) {
	cards, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	if cards == nil {
		cards = []*core.SavedCard{}
	}
	return cards, nil
}

func (s *Studio) Card(ctx context.Context, id string) (*core.SavedCard, error) {
	return s.store.FindID(ctx, id)
}
