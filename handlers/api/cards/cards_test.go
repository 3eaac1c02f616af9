package cards

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image/color"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"socialcard-server/compose"
	"socialcard-server/core"
	"socialcard-server/handlers/api"
	"socialcard-server/studio"
	"socialcard-server/transform"

	"github.com/disintegration/imaging"
	"github.com/go-chi/chi/v5"
)

// Mock card store for testing
type mockCardStore struct {
	mu        sync.Mutex
	cards     map[string]*core.SavedCard
	order     []string
	createErr error
	listErr   error
	getErr    error
}

func newMockCardStore() *mockCardStore {
	return &mockCardStore{cards: make(map[string]*core.SavedCard)}
}

func (m *mockCardStore) List(ctx context.Context) ([]*core.SavedCard, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*core.SavedCard, 0, len(m.order))
	for i := len(m.order) - 1; i >= 0; i-- {
		result = append(result, m.cards[m.order[i]])
	}
	return result, nil
}

func (m *mockCardStore) Create(ctx context.Context, card *core.SavedCard) (*core.SavedCard, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	saved := *card
	saved.ID = fmt.Sprintf("card-%d", len(m.order))
	saved.CreatedAt = time.Unix(1700000000+int64(len(m.order)), 0)
	m.cards[saved.ID] = &saved
	m.order = append(m.order, saved.ID)
	return &saved, nil
}

func (m *mockCardStore) FindID(ctx context.Context, id string) (*core.SavedCard, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	card, ok := m.cards[id]
	if !ok {
		return nil, core.ErrCardNotFound
	}
	return card, nil
}

func newTestService(store core.CardStore, baseURL string) *studio.Studio {
	return studio.New(studio.Deps{
		Builder: compose.NewBuilder(compose.DefaultRegistry("sample"), compose.Options{}),
		Encoder: transform.New(transform.Options{BaseURL: baseURL, CloudName: "demo"}),
		Store:   store,
	})
}

func withID(req *http.Request, id string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) api.ErrorResponse {
	t.Helper()
	var response api.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return response
}

func TestHandleCreate(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		createErr  error
		wantStatus int
		wantError  string
	}{
		{
			name:       "valid card",
			body:       `{"url":"https://res.cloudinary.com/demo/image/upload/dog.png","headline":"Hello","tagline":"World"}`,
			wantStatus: http.StatusCreated,
		},
		{
			name:       "invalid json",
			body:       `{bad`,
			wantStatus: http.StatusBadRequest,
			wantError:  "Invalid request body",
		},
		{
			name:       "missing headline",
			body:       `{"url":"https://res.cloudinary.com/demo/image/upload/dog.png","headline":"  "}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "Missing required fields",
		},
		{
			name:       "missing url",
			body:       `{"headline":"Hello"}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "Missing required fields",
		},
		{
			name:       "store failure passes message through",
			body:       `{"url":"https://x/y.png","headline":"Hello"}`,
			createErr:  errors.New("disk quota exceeded"),
			wantStatus: http.StatusInternalServerError,
			wantError:  "disk quota exceeded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMockCardStore()
			store.createErr = tt.createErr
			req := httptest.NewRequest(http.MethodPost, "/api/templates/saved", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()

			HandleCreate(newTestService(store, ""))(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("Status code mismatch: got %d, want %d", rec.Code, tt.wantStatus)
			}

			if tt.wantError != "" {
				if got := decodeError(t, rec).Error; got != tt.wantError {
					t.Errorf("Error mismatch: got %q, want %q", got, tt.wantError)
				}
				if len(store.order) != 0 {
					t.Errorf("Store should be untouched, has %d cards", len(store.order))
				}
				return
			}

			var card core.SavedCard
			if err := json.NewDecoder(rec.Body).Decode(&card); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}
			if card.ID == "" {
				t.Error("Card ID is empty")
			}
			if card.Headline != "Hello" || card.Tagline != "World" {
				t.Errorf("Card fields mismatch: got %+v", card)
			}
		})
	}
}

func TestHandleList(t *testing.T) {
	store := newMockCardStore()
	service := newTestService(store, "")
	for _, h := range []string{"first", "second"} {
		if _, err := service.Save(context.Background(), studio.SaveRequest{URL: "https://x/" + h + ".png", Headline: h}); err != nil {
			t.Fatalf("Save() failed: %v", err)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/templates/saved", nil)
	rec := httptest.NewRecorder()
	HandleList(service)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Status code mismatch: got %d, want %d", rec.Code, http.StatusOK)
	}

	var cards []core.SavedCard
	if err := json.NewDecoder(rec.Body).Decode(&cards); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(cards) != 2 {
		t.Fatalf("Card count mismatch: got %d, want 2", len(cards))
	}
	if cards[0].Headline != "second" {
		t.Errorf("Expected newest card first, got %q", cards[0].Headline)
	}
}

func TestHandleList_Empty(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/templates/saved", nil)
	rec := httptest.NewRecorder()
	HandleList(newTestService(newMockCardStore(), ""))(rec, req)

	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Errorf("Body mismatch: got %q, want []", got)
	}
}

func TestHandleList_StoreError(t *testing.T) {
	store := newMockCardStore()
	store.listErr = errors.New("connection refused")

	req := httptest.NewRequest(http.MethodGet, "/api/templates/saved", nil)
	rec := httptest.NewRecorder()
	HandleList(newTestService(store, ""))(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("Status code mismatch: got %d, want %d", rec.Code, http.StatusInternalServerError)
	}
	if got := decodeError(t, rec).Error; got != "connection refused" {
		t.Errorf("Error mismatch: got %q", got)
	}
}

func TestHandleGet(t *testing.T) {
	store := newMockCardStore()
	service := newTestService(store, "")
	card, err := service.Save(context.Background(), studio.SaveRequest{URL: "https://x/a.png", Headline: "Hi"})
	if err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	rec := httptest.NewRecorder()
	HandleGet(service)(rec, withID(httptest.NewRequest(http.MethodGet, "/", nil), card.ID))
	if rec.Code != http.StatusOK {
		t.Fatalf("Status code mismatch: got %d, want %d", rec.Code, http.StatusOK)
	}

	rec = httptest.NewRecorder()
	HandleGet(service)(rec, withID(httptest.NewRequest(http.MethodGet, "/", nil), "nope"))
	if rec.Code != http.StatusNotFound {
		t.Errorf("Status code mismatch: got %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestHandleThumbnail(t *testing.T) {
	img := imaging.New(1200, 630, color.NRGBA{R: 0x01, G: 0x0a, B: 0x44, A: 0xff})
	var src bytes.Buffer
	if err := imaging.Encode(&src, img, imaging.PNG); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(src.Bytes())
	}))
	defer srv.Close()

	store := newMockCardStore()
	service := newTestService(store, srv.URL)
	card, err := service.Save(context.Background(), studio.SaveRequest{
		URL:      srv.URL + "/demo/image/upload/dog.png",
		Headline: "Hi",
	})
	if err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	rec := httptest.NewRecorder()
	HandleThumbnail(service)(rec, withID(httptest.NewRequest(http.MethodGet, "/?width=120", nil), card.ID))

	if rec.Code != http.StatusOK {
		t.Fatalf("Status code mismatch: got %d, want %d", rec.Code, http.StatusOK)
	}
	thumb, err := imaging.Decode(rec.Body)
	if err != nil {
		t.Fatalf("Failed to decode thumbnail: %v", err)
	}
	if w := thumb.Bounds().Dx(); w != 120 {
		t.Errorf("Thumbnail width mismatch: got %d, want 120", w)
	}
}

func TestHandleThumbnail_ForeignCardURL(t *testing.T) {
	store := newMockCardStore()
	service := newTestService(store, "")
	card, err := service.Save(context.Background(), studio.SaveRequest{URL: "http://169.254.169.254/latest", Headline: "Hi"})
	if err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	rec := httptest.NewRecorder()
	HandleThumbnail(service)(rec, withID(httptest.NewRequest(http.MethodGet, "/", nil), card.ID))

	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("Status code mismatch: got %d, want %d", rec.Code, http.StatusUnprocessableEntity)
	}
}

func TestHandleQR(t *testing.T) {
	store := newMockCardStore()
	service := newTestService(store, "")
	card, err := service.Save(context.Background(), studio.SaveRequest{URL: "https://x/a.png", Headline: "Hi"})
	if err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	rec := httptest.NewRecorder()
	HandleQR(service)(rec, withID(httptest.NewRequest(http.MethodGet, "/?size=128", nil), card.ID))

	if rec.Code != http.StatusOK {
		t.Fatalf("Status code mismatch: got %d, want %d", rec.Code, http.StatusOK)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("Content-Type mismatch: got %q", ct)
	}
	qr, err := imaging.Decode(rec.Body)
	if err != nil {
		t.Fatalf("Failed to decode QR code: %v", err)
	}
	if w := qr.Bounds().Dx(); w != 128 {
		t.Errorf("QR width mismatch: got %d, want 128", w)
	}

	rec = httptest.NewRecorder()
	HandleQR(service)(rec, withID(httptest.NewRequest(http.MethodGet, "/", nil), "missing"))
	if rec.Code != http.StatusNotFound {
		t.Errorf("Status code mismatch: got %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestParseIntQuery(t *testing.T) {
	tests := []struct {
		query string
		want  int
	}{
		{"", 300},
		{"width=120", 120},
		{"width=abc", 300},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/?"+tt.query, nil)
		if got := parseIntQuery(req, "width", 300); got != tt.want {
			t.Errorf("parseIntQuery(%q) = %d, want %d", tt.query, got, tt.want)
		}
	}
}
