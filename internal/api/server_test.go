package api

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/grimoireapp/grimoire-server/internal/auth"
	"github.com/grimoireapp/grimoire-server/internal/media/images"
	"github.com/grimoireapp/grimoire-server/internal/service"
	"github.com/grimoireapp/grimoire-server/internal/store"
)

// testEnvelope mirrors the response envelope for decoding in tests.
type testEnvelope[T any] struct {
	Data    T      `json:"data"`
	Error   string `json:"error"`
	Message string `json:"message"`
	Success bool   `json:"success"`
}

type testServer struct {
	server *Server
	store  *store.Store
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	s, err := store.New(filepath.Join(t.TempDir(), "test.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	storage, err := images.NewStorage(t.TempDir())
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	manager := images.NewManager(storage, images.NewOptimizer(800), "http://localhost:8080", logger)

	keyHex, err := auth.GenerateKeyHex()
	require.NoError(t, err)
	tokens, err := auth.NewTokenService(keyHex, time.Hour)
	require.NoError(t, err)

	locks := service.NewRecordLocks()
	authSvc := service.NewAuthService(s, tokens, logger)
	bookSvc := service.NewBookService(s, manager, locks, logger)
	ratingSvc := service.NewRatingService(s, locks, logger, 3)

	return &testServer{
		server: NewServer(authSvc, bookSvc, ratingSvc, storage.Dir(), logger),
		store:  s,
	}
}

// do performs a request against the in-memory server.
func (ts *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	contentType := ""
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
		contentType = "application/json"
	}

	req := httptest.NewRequest(method, path, reader)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	ts.server.ServeHTTP(rec, req)
	return rec
}

// doMultipart performs a multipart book create or update. imageData of nil
// omits the image part.
func (ts *testServer) doMultipart(t *testing.T, method, path, token string, book map[string]any, imageData []byte) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	bookJSON, err := json.Marshal(book)
	require.NoError(t, err)
	require.NoError(t, writer.WriteField("book", string(bookJSON)))

	if imageData != nil {
		part, err := writer.CreateFormFile("image", "cover.png")
		require.NoError(t, err)
		_, err = part.Write(imageData)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	ts.server.ServeHTTP(rec, req)
	return rec
}

// signup registers an account and returns its id and a login token.
func (ts *testServer) signup(t *testing.T, email string) (userID, token string) {
	t.Helper()

	resp := ts.do(t, http.MethodPost, "/api/auth/signup", "", map[string]any{
		"email":    email,
		"password": "a-long-enough-password",
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	resp = ts.do(t, http.MethodPost, "/api/auth/login", "", map[string]any{
		"email":    email,
		"password": "a-long-enough-password",
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var envelope testEnvelope[LoginResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	return envelope.Data.UserID, envelope.Data.Token
}

// testPNG encodes a small PNG for upload tests.
func testPNG(t *testing.T) []byte {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, 200, 150))
	for y := 0; y < 150; y++ {
		for x := 0; x < 200; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 120, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func validBook(title string) map[string]any {
	return map[string]any{
		"title":  title,
		"author": "Test Author",
		"genre":  "Fiction",
		"year":   2020,
	}
}

func TestHealthCheck(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, resp.Code)

	var envelope testEnvelope[HealthResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	require.True(t, envelope.Success)
	require.Equal(t, "healthy", envelope.Data.Status)
}

func TestImagesAreServed(t *testing.T) {
	ts := setupTestServer(t)
	_, token := ts.signup(t, "reader@example.com")

	resp := ts.doMultipart(t, http.MethodPost, "/api/books", token, validBook("Served"), testPNG(t))
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	var envelope testEnvelope[struct {
		CoverURL string `json:"cover_url"`
	}]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))

	// The cover URL path resolves against the static file route.
	u := envelope.Data.CoverURL
	idx := len("http://localhost:8080")
	require.Greater(t, len(u), idx, u)

	img := ts.do(t, http.MethodGet, u[idx:], "", nil)
	require.Equal(t, http.StatusOK, img.Code)
	require.Equal(t, "image/jpeg", img.Header().Get("Content-Type"))
}
