package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LAMpbrien/adventures-of/internal/config"
	"github.com/LAMpbrien/adventures-of/internal/models"
	"github.com/LAMpbrien/adventures-of/internal/security"
	"github.com/LAMpbrien/adventures-of/internal/service"
)

const (
	jwtSecret     = "jwt-secret"
	webhookSecret = "webhook-secret"
	bookID        = "0b6f7c1e-2d4a-4e8b-9a51-3f2c7d9e1a44"
	childID       = "5a0c9e3b-7f1d-4b62-8c0e-91d2f4a6b7c3"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeBooks struct {
	err        error
	created    service.CreateBookInput
	generated  service.GenerateInput
	async      bool
	imagesMode models.GenerationMode
	confirmed  []service.PaymentConfirmation
}

func (f *fakeBooks) CreateBook(_ context.Context, in service.CreateBookInput) (service.CreateBookResult, error) {
	f.created = in
	return service.CreateBookResult{BookID: bookID, ChildID: childID}, f.err
}

func (f *fakeBooks) GetBook(context.Context, string, string) (service.BookView, error) {
	title := "Mira and the Lost Egg"
	url := "https://cdn.example/p1.png"
	return service.BookView{
		Book:      models.Book{ID: bookID, ChildID: childID, Status: models.BookStatusPreviewReady, Title: &title},
		ChildName: "Mira",
		Pages:     []models.BookPage{{PageNumber: 1, Text: "Once", ImageURL: &url, IsPreview: true}, {PageNumber: 2, Text: "Then"}},
	}, f.err
}

func (f *fakeBooks) DeleteBook(context.Context, string, string) error { return f.err }

func (f *fakeBooks) Status(context.Context, string, string) (models.BookStatus, error) {
	return models.BookStatusGeneratingImages, f.err
}

func (f *fakeBooks) Checkout(context.Context, string, string) (models.BookStatus, error) {
	return models.BookStatusPaid, f.err
}

func (f *fakeBooks) Download(context.Context, string, string) (service.Download, error) {
	return service.Download{Filename: bookID + ".epub", Data: []byte("PK")}, f.err
}

func (f *fakeBooks) Generate(_ context.Context, in service.GenerateInput) (service.GenerateResult, error) {
	f.generated = in
	return service.GenerateResult{Status: models.BookStatusPreviewReady}, f.err
}

func (f *fakeBooks) GenerateAsync(_ context.Context, in service.GenerateInput) (service.GenerateResult, error) {
	f.generated = in
	f.async = true
	return service.GenerateResult{Status: models.BookStatusGenerating}, f.err
}

func (f *fakeBooks) GenerateStory(_ context.Context, in service.GenerateInput) (string, error) {
	f.generated = in
	return "Mira and the Lost Egg", f.err
}

func (f *fakeBooks) GenerateImages(_ context.Context, _ string, _ string, mode models.GenerationMode) (service.GenerateResult, error) {
	f.imagesMode = mode
	return service.GenerateResult{Status: models.BookStatusComplete, Warning: "Some illustrations failed to generate (pages 3, 7)."}, f.err
}

func (f *fakeBooks) ConfirmPayment(_ context.Context, in service.PaymentConfirmation) error {
	f.confirmed = append(f.confirmed, in)
	return f.err
}

type fakeGuard struct {
	seen      map[string]bool
	forgotten []string
}

func (g *fakeGuard) FirstSeen(_ context.Context, id string) (bool, error) {
	if g.seen[id] {
		return false, nil
	}
	g.seen[id] = true
	return true, nil
}

func (g *fakeGuard) Forget(_ context.Context, id string) error {
	delete(g.seen, id)
	g.forgotten = append(g.forgotten, id)
	return nil
}

type testAPI struct {
	engine *gin.Engine
	books  *fakeBooks
	guard  *fakeGuard
	dbErr  error
	token  string
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	api := &testAPI{books: &fakeBooks{}, guard: &fakeGuard{seen: map[string]bool{}}}

	cfg := &config.AppConfig{Environment: "test"}
	cfg.Security.JWTAccessSecret = jwtSecret
	cfg.Security.WebhookSecret = webhookSecret

	h := NewHandlerSet(zerolog.Nop(), cfg, api.books, api.guard,
		func(context.Context) error { return api.dbErr },
		func(context.Context) error { return nil },
	)
	api.engine = gin.New()
	h.Register(api.engine.Group("/api"))

	token, err := security.GenerateAccessToken(jwtSecret, "user-1", time.Minute)
	require.NoError(t, err)
	api.token = token
	return api
}

func (a *testAPI) do(method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.token)
	rec := httptest.NewRecorder()
	a.engine.ServeHTTP(rec, req)
	return rec
}

func (a *testAPI) webhook(payload []byte, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/payment", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set(security.HeaderPaymentSignature, signature)
	}
	rec := httptest.NewRecorder()
	a.engine.ServeHTTP(rec, req)
	return rec
}

func TestCreateBook(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodPost, "/api/v1/books", map[string]any{
		"childDetails": map[string]any{
			"name":         "Mira",
			"age":          6,
			"interests":    []string{"Dinosaurs", "Art & Drawing"},
			"readingLevel": "beginner",
			"photoUrls":    []string{"https://photos.example/mira.jpg"},
		},
		"theme":        "dinosaur-rescue",
		"region":       "global",
		"imageQuality": "fast",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"bookId":"`+bookID+`","childId":"`+childID+`"}`, rec.Body.String())

	in := api.books.created
	assert.Equal(t, "user-1", in.UserID)
	require.NotNil(t, in.ChildDetails)
	assert.Equal(t, "Mira", in.ChildDetails.Name)
	assert.Equal(t, models.ReadingLevelBeginner, in.ChildDetails.ReadingLevel)
	assert.Equal(t, models.ThemeDinosaurRescue, in.Theme)
	assert.Equal(t, models.ImageQualityFast, in.ImageQuality)
}

func TestRequiresBearerToken(t *testing.T) {
	api := newTestAPI(t)
	api.token = "forged"

	rec := api.do(http.MethodGet, "/api/v1/books/"+bookID+"/status", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{nil, http.StatusOK},
		{errors.Join(service.ErrInvalidInput, errors.New("bookId must be a uuid")), http.StatusBadRequest},
		{service.ErrUnauthenticated, http.StatusUnauthorized},
		{service.ErrForbidden, http.StatusForbidden},
		{service.ErrChildNotFound, http.StatusNotFound},
		{service.ErrBookNotFound, http.StatusNotFound},
		{service.ErrInvalidState, http.StatusConflict},
		{service.ErrRunInProgress, http.StatusConflict},
		{service.ErrPaymentRequired, http.StatusPaymentRequired},
		{&service.UpstreamError{Stage: "story", Err: errors.New("overloaded")}, http.StatusBadGateway},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		name := "ok"
		if tt.err != nil {
			name = tt.err.Error()
		}
		t.Run(name, func(t *testing.T) {
			api := newTestAPI(t)
			api.books.err = tt.err

			rec := api.do(http.MethodGet, "/api/v1/books/"+bookID+"/status", nil)
			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusInternalServerError {
				assert.JSONEq(t, `{"error":"internal_server_error"}`, rec.Body.String())
			}
		})
	}
}

func TestGetBook(t *testing.T) {
	api := newTestAPI(t)
	rec := api.do(http.MethodGet, "/api/v1/books/"+bookID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body bookResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Mira", body.ChildName)
	assert.Equal(t, models.BookStatusPreviewReady, body.Status)
	require.Len(t, body.Pages, 2)
	assert.NotNil(t, body.Pages[0].ImageURL)
	assert.Nil(t, body.Pages[1].ImageURL)
}

func TestGenerate(t *testing.T) {
	payload := map[string]any{"childId": childID, "bookId": bookID, "theme": "dinosaur-rescue", "region": "global"}

	t.Run("synchronous", func(t *testing.T) {
		api := newTestAPI(t)
		rec := api.do(http.MethodPost, "/api/v1/generate", payload)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"preview_ready"}`, rec.Body.String())
		assert.False(t, api.books.async)
		assert.Equal(t, service.GenerateInput{
			UserID:  "user-1",
			ChildID: childID,
			BookID:  bookID,
			Theme:   models.ThemeDinosaurRescue,
			Region:  models.RegionGlobal,
		}, api.books.generated)
	})

	t.Run("asynchronous", func(t *testing.T) {
		api := newTestAPI(t)
		rec := api.do(http.MethodPost, "/api/v1/generate?async=true", payload)
		require.Equal(t, http.StatusAccepted, rec.Code)
		assert.JSONEq(t, `{"status":"generating"}`, rec.Body.String())
		assert.True(t, api.books.async)
	})

	t.Run("upstream failure", func(t *testing.T) {
		api := newTestAPI(t)
		api.books.err = &service.UpstreamError{Stage: "story", Err: errors.New("overloaded")}
		rec := api.do(http.MethodPost, "/api/v1/generate", payload)
		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.JSONEq(t, `{"error":"story_generation_failed"}`, rec.Body.String())
	})

	t.Run("malformed body", func(t *testing.T) {
		api := newTestAPI(t)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/generate", bytes.NewBufferString("{"))
		req.Header.Set("Authorization", "Bearer "+api.token)
		rec := httptest.NewRecorder()
		api.engine.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestGenerateStory(t *testing.T) {
	api := newTestAPI(t)
	rec := api.do(http.MethodPost, "/api/v1/generate-story", map[string]any{"childId": childID, "bookId": bookID})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"title":"Mira and the Lost Egg"}`, rec.Body.String())
}

func TestGenerateImages(t *testing.T) {
	api := newTestAPI(t)
	rec := api.do(http.MethodPost, "/api/v1/generate-images", map[string]any{"bookId": bookID, "mode": "full"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"complete","warning":"Some illustrations failed to generate (pages 3, 7)."}`, rec.Body.String())
	assert.Equal(t, models.ModeFull, api.books.imagesMode)
}

func TestCheckoutAndDelete(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodPost, "/api/v1/books/"+bookID+"/checkout", nil)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.JSONEq(t, `{"status":"paid"}`, rec.Body.String())

	rec = api.do(http.MethodDelete, "/api/v1/books/"+bookID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestDownload(t *testing.T) {
	api := newTestAPI(t)
	rec := api.do(http.MethodGet, "/api/v1/books/"+bookID+"/download", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/epub+zip", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="`+bookID+`.epub"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "PK", rec.Body.String())
}

func checkoutEvent(id string) []byte {
	payload, _ := json.Marshal(map[string]any{
		"id":   id,
		"type": "checkout.session.completed",
		"data": map[string]any{"object": map[string]any{
			"id":             "cs_123",
			"payment_intent": "pi_456",
			"metadata":       map[string]string{"book_id": bookID},
		}},
	})
	return payload
}

func TestPaymentWebhook(t *testing.T) {
	t.Run("confirms once", func(t *testing.T) {
		api := newTestAPI(t)
		payload := checkoutEvent("evt_1")
		sig := security.SignPayload(webhookSecret, payload)

		require.Equal(t, http.StatusOK, api.webhook(payload, sig).Code)
		require.Len(t, api.books.confirmed, 1)
		got := api.books.confirmed[0]
		assert.Equal(t, bookID, got.BookID)
		require.NotNil(t, got.SessionID)
		assert.Equal(t, "cs_123", *got.SessionID)
		require.NotNil(t, got.IntentID)
		assert.Equal(t, "pi_456", *got.IntentID)

		rec := api.webhook(payload, sig)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"duplicate":true`)
		assert.Len(t, api.books.confirmed, 1)
	})

	t.Run("bad signature", func(t *testing.T) {
		api := newTestAPI(t)
		payload := checkoutEvent("evt_1")
		assert.Equal(t, http.StatusUnauthorized, api.webhook(payload, security.SignPayload("wrong", payload)).Code)
		assert.Empty(t, api.books.confirmed)
	})

	t.Run("other event types", func(t *testing.T) {
		api := newTestAPI(t)
		payload := []byte(`{"id":"evt_2","type":"invoice.paid"}`)
		assert.Equal(t, http.StatusOK, api.webhook(payload, security.SignPayload(webhookSecret, payload)).Code)
		assert.Empty(t, api.books.confirmed)
	})

	t.Run("unknown book is acknowledged", func(t *testing.T) {
		api := newTestAPI(t)
		api.books.err = service.ErrBookNotFound
		payload := checkoutEvent("evt_3")
		assert.Equal(t, http.StatusOK, api.webhook(payload, security.SignPayload(webhookSecret, payload)).Code)
		assert.Empty(t, api.guard.forgotten)
	})

	t.Run("internal failure is retried", func(t *testing.T) {
		api := newTestAPI(t)
		api.books.err = errors.New("queue down")
		payload := checkoutEvent("evt_4")
		assert.Equal(t, http.StatusInternalServerError, api.webhook(payload, security.SignPayload(webhookSecret, payload)).Code)
		assert.Equal(t, []string{"evt_4"}, api.guard.forgotten)
	})
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t)
	rec := api.do(http.MethodGet, "/api/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	api.dbErr = errors.New("down")
	rec = api.do(http.MethodGet, "/api/healthz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"database":"error"`)
}

func TestCatalog(t *testing.T) {
	api := newTestAPI(t)
	api.token = ""

	rec := api.do(http.MethodGet, "/api/v1/catalog?region=nz", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Region string `json:"region"`
		Themes []struct {
			ID string `json:"id"`
		} `json:"themes"`
		Styles    []json.RawMessage `json:"styles"`
		Interests []string          `json:"interests"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "nz", body.Region)
	assert.Len(t, body.Themes, 4)
	assert.Equal(t, "forest-guardian", body.Themes[3].ID)
	assert.Len(t, body.Styles, 4)
	assert.Contains(t, body.Interests, "Volcanoes")

	rec = api.do(http.MethodGet, "/api/v1/catalog?region=mars", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
