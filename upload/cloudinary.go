package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"socialcard-server/core"

	"github.com/sirupsen/logrus"
)

const DefaultAPIBase = "https://api.cloudinary.com"

// ErrNotConfigured is returned when no cloud name or upload preset is set.
var ErrNotConfigured = errors.New("uploads are not configured")

type Options struct {
	APIBase      string
	CloudName    string
	UploadPreset string
	Folder       string
	Client       *http.Client
}

// Cloudinary sends images to the rendering backend with an unsigned upload
// preset and returns the stored asset.
type Cloudinary struct {
	endpoint string
	preset   string
	folder   string
	client   *http.Client
}

type uploadResponse struct {
	PublicID  string `json:"public_id"`
	SecureURL string `json:"secure_url"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Error     *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func NewCloudinary(opts Options) *Cloudinary {
	base := strings.TrimRight(opts.APIBase, "/")
	if base == "" {
		base = DefaultAPIBase
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}

	var endpoint string
	if opts.CloudName != "" {
		endpoint = fmt.Sprintf("%s/v1_1/%s/image/upload", base, opts.CloudName)
	}
	return &Cloudinary{
		endpoint: endpoint,
		preset:   opts.UploadPreset,
		folder:   opts.Folder,
		client:   client,
	}
}

// Upload streams the file to the backend. Backend error messages are returned
// verbatim.
func (c *Cloudinary) Upload(ctx context.Context, filename string, file io.Reader) (*core.Asset, error) {
	if c.endpoint == "" || c.preset == "" {
		return nil, ErrNotConfigured
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("upload_preset", c.preset); err != nil {
		return nil, err
	}
	if c.folder != "" {
		if err := mw.WriteField("folder", c.folder); err != nil {
			return nil, err
		}
	}
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	log := logrus.WithFields(logrus.Fields{
		"filename":    filename,
		"data_length": body.Len(),
	})

	resp, err := c.client.Do(req)
	if err != nil {
		log.WithError(err).Error("Upload request failed")
		return nil, fmt.Errorf("upload: %w", err)
	}
	defer resp.Body.Close()

	var out uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("upload: decode response (status %d): %w", resp.StatusCode, err)
	}
	if out.Error != nil {
		log.WithField("status", resp.StatusCode).Warn(out.Error.Message)
		return nil, errors.New(out.Error.Message)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 || out.PublicID == "" {
		return nil, fmt.Errorf("upload: backend responded %d", resp.StatusCode)
	}

	log.WithField("asset_id", out.PublicID).Info("Asset uploaded successfully")
	return &core.Asset{
		ID:     out.PublicID,
		URL:    out.SecureURL,
		Width:  out.Width,
		Height: out.Height,
	}, nil
}
