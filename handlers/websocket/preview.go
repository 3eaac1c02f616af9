package websocket

import (
	"errors"
	"fmt"
	"regexp"
	"sync/atomic"

	"socialcard-server/compose"
	"socialcard-server/studio"
	"socialcard-server/transform"

	"github.com/sirupsen/logrus"
	"github.com/zishang520/engine.io/v2/types"
	socketio "github.com/zishang520/socket.io/v2/socket"
)

const (
	composeEvent = "compose"
	previewEvent = "preview"
)

// Error codes sent with failed previews.
const (
	CodeInvalidPayload = "invalid_payload"
	CodeNotFound       = "template_not_found"
	CodeMissingAsset   = "missing_asset"
	CodeUnencodable    = "unencodable"
	CodeInternal       = "internal"
)

type Previewer interface {
	Preview(req studio.PreviewRequest) (*studio.Preview, error)
}

var activeSessions atomic.Int64

// GetActiveSessions reports the number of connected live-preview clients.
func GetActiveSessions() int64 {
	return activeSessions.Load()
}

func SetupSocketIO(p Previewer, allowedOrigins []string) *socketio.Server {
	opts := socketio.DefaultServerOptions()
	opts.SetMaxHttpBufferSize(1000000)
	opts.SetPath("/socket.io")
	opts.SetAllowEIO3(true)

	localhostOrigin := regexp.MustCompile(`^https?://(localhost|127\.0\.0\.1|\[::1\])(:\d+)?$`)
	origins := []any{localhostOrigin}
	for _, o := range allowedOrigins {
		origins = append(origins, o)
	}
	opts.SetCors(&types.Cors{
		Origin:      origins,
		Credentials: true,
	})
	srv := socketio.NewServer(nil, opts)

	//nolint:errcheck // Socket.IO event handlers do not return useful errors
	srv.On("connection", func(clients ...any) {
		socket, ok := clients[0].(*socketio.Socket)
		if !ok {
			return
		}

		activeSessions.Add(1)
		log := logrus.WithField("socket_id", socket.Id())
		log.Debug("Live preview session opened")

		//nolint:errcheck // Socket.IO event handlers do not return useful errors
		socket.On(composeEvent, func(datas ...any) {
			args, reply := composeArgs(datas)
			payload := handleCompose(p, args)
			if payload["status"] == "error" {
				log.WithFields(logrus.Fields{
					"code":  payload["code"],
					"error": payload["error"],
				}).Debug("Live preview failed")
			}
			sendPreview(socket, reply, payload)
		})

		socket.On("disconnect", func(datas ...any) {
			activeSessions.Add(-1)
			log.Debug("Live preview session closed")
			socket.RemoveAllListeners("")
		})
	})

	return srv
}

// handleCompose turns one compose event into the reply payload. seq is
// echoed unchanged so clients can drop results of superseded requests.
func handleCompose(p Previewer, args []any) map[string]any {
	req, seq, err := parseComposeArgs(args)
	if err != nil {
		return errorPayload(seq, CodeInvalidPayload, err)
	}

	preview, err := p.Preview(req)
	if err != nil {
		return errorPayload(seq, errorCode(err), err)
	}

	return map[string]any{
		"status":     "ok",
		"url":        preview.URL,
		"templateId": preview.TemplateID,
		"seq":        seq,
	}
}

func parseComposeArgs(args []any) (studio.PreviewRequest, any, error) {
	var req studio.PreviewRequest
	if len(args) == 0 {
		return req, nil, fmt.Errorf("compose payload is required")
	}

	fields, ok := args[0].(map[string]any)
	if !ok {
		return req, nil, fmt.Errorf("invalid compose payload")
	}

	req.TemplateID, _ = fields["templateId"].(string)
	req.Asset, _ = fields["asset"].(string)
	req.Title, _ = fields["title"].(string)
	req.Subtitle, _ = fields["subtitle"].(string)
	return req, fields["seq"], nil
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, compose.ErrNotFound):
		return CodeNotFound
	case errors.Is(err, compose.ErrMissingAsset):
		return CodeMissingAsset
	case errors.Is(err, transform.ErrUnencodableLayer):
		return CodeUnencodable
	default:
		return CodeInternal
	}
}

func errorPayload(seq any, code string, err error) map[string]any {
	return map[string]any{
		"status": "error",
		"error":  err.Error(),
		"code":   code,
		"seq":    seq,
	}
}
