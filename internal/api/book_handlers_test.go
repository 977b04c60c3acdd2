package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grimoireapp/grimoire-server/internal/domain"
)

// createBook drives the full multipart create flow and returns the new book.
func createBook(t *testing.T, ts *testServer, token, title string) *domain.Book {
	t.Helper()

	resp := ts.doMultipart(t, http.MethodPost, "/api/books", token, validBook(title), testPNG(t))
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	var envelope testEnvelope[*domain.Book]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	return envelope.Data
}

func TestCreateBook(t *testing.T) {
	ts := setupTestServer(t)
	userID, token := ts.signup(t, "reader@example.com")

	book := createBook(t, ts, token, "The Glass Orchard")
	assert.Equal(t, "The Glass Orchard", book.Title)
	assert.Equal(t, userID, book.OwnerID)
	assert.Contains(t, book.CoverURL, "/images/")
	assert.NotEmpty(t, book.CoverBlurHash)
	assert.Zero(t, book.AverageRating)
}

func TestCreateBook_RequiresAuth(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.doMultipart(t, http.MethodPost, "/api/books", "", validBook("X"), testPNG(t))
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestCreateBook_MissingImage(t *testing.T) {
	ts := setupTestServer(t)
	_, token := ts.signup(t, "reader@example.com")

	resp := ts.doMultipart(t, http.MethodPost, "/api/books", token, validBook("X"), nil)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestCreateBook_InvalidImage(t *testing.T) {
	ts := setupTestServer(t)
	_, token := ts.signup(t, "reader@example.com")

	resp := ts.doMultipart(t, http.MethodPost, "/api/books", token, validBook("X"), []byte("not an image"))
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code, resp.Body.String())
}

func TestCreateBook_InvalidPayload(t *testing.T) {
	ts := setupTestServer(t)
	_, token := ts.signup(t, "reader@example.com")

	resp := ts.doMultipart(t, http.MethodPost, "/api/books", token, map[string]any{"title": ""}, testPNG(t))
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestListAndGetBooks(t *testing.T) {
	ts := setupTestServer(t)
	_, token := ts.signup(t, "reader@example.com")

	created := createBook(t, ts, token, "One")
	createBook(t, ts, token, "Two")

	// Reads are public, no token needed.
	resp := ts.do(t, http.MethodGet, "/api/books", "", nil)
	require.Equal(t, http.StatusOK, resp.Code)

	var list testEnvelope[[]*domain.Book]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &list))
	assert.Len(t, list.Data, 2)

	resp = ts.do(t, http.MethodGet, "/api/books/"+created.ID, "", nil)
	require.Equal(t, http.StatusOK, resp.Code)

	var got testEnvelope[*domain.Book]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &got))
	assert.Equal(t, "One", got.Data.Title)
}

func TestGetBook_NotFound(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.do(t, http.MethodGet, "/api/books/book-missing", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestUpdateBook_JSONBody(t *testing.T) {
	ts := setupTestServer(t)
	_, token := ts.signup(t, "reader@example.com")
	book := createBook(t, ts, token, "Before")

	resp := ts.do(t, http.MethodPut, "/api/books/"+book.ID, token, validBook("After"))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var updated testEnvelope[*domain.Book]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &updated))
	assert.Equal(t, "After", updated.Data.Title)
	assert.Equal(t, book.CoverURL, updated.Data.CoverURL)
}

func TestUpdateBook_WithNewCover(t *testing.T) {
	ts := setupTestServer(t)
	_, token := ts.signup(t, "reader@example.com")
	book := createBook(t, ts, token, "Before")

	resp := ts.doMultipart(t, http.MethodPut, "/api/books/"+book.ID, token, validBook("After"), testPNG(t))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var updated testEnvelope[*domain.Book]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &updated))
	assert.Equal(t, "After", updated.Data.Title)
	assert.NotEqual(t, book.CoverURL, updated.Data.CoverURL)
}

func TestUpdateBook_NotOwner(t *testing.T) {
	ts := setupTestServer(t)
	_, ownerToken := ts.signup(t, "owner@example.com")
	_, otherToken := ts.signup(t, "other@example.com")
	book := createBook(t, ts, ownerToken, "Mine")

	resp := ts.do(t, http.MethodPut, "/api/books/"+book.ID, otherToken, validBook("Stolen"))
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestDeleteBook(t *testing.T) {
	ts := setupTestServer(t)
	_, token := ts.signup(t, "reader@example.com")
	book := createBook(t, ts, token, "Doomed")

	resp := ts.do(t, http.MethodDelete, "/api/books/"+book.ID, token, nil)
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.do(t, http.MethodGet, "/api/books/"+book.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestDeleteBook_NotOwner(t *testing.T) {
	ts := setupTestServer(t)
	_, ownerToken := ts.signup(t, "owner@example.com")
	_, otherToken := ts.signup(t, "other@example.com")
	book := createBook(t, ts, ownerToken, "Mine")

	resp := ts.do(t, http.MethodDelete, "/api/books/"+book.ID, otherToken, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestRateBook(t *testing.T) {
	ts := setupTestServer(t)
	_, ownerToken := ts.signup(t, "owner@example.com")
	_, raterToken := ts.signup(t, "rater@example.com")
	book := createBook(t, ts, ownerToken, "Rated")

	resp := ts.do(t, http.MethodPost, "/api/books/"+book.ID+"/rating", raterToken, map[string]any{"grade": 4})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var rated testEnvelope[*domain.Book]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &rated))
	assert.Equal(t, 4.0, rated.Data.AverageRating)
	assert.Len(t, rated.Data.Ratings, 1)
}

func TestRateBook_Duplicate(t *testing.T) {
	ts := setupTestServer(t)
	_, token := ts.signup(t, "reader@example.com")
	book := createBook(t, ts, token, "Rated")

	resp := ts.do(t, http.MethodPost, "/api/books/"+book.ID+"/rating", token, map[string]any{"grade": 4})
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.do(t, http.MethodPost, "/api/books/"+book.ID+"/rating", token, map[string]any{"grade": 2})
	assert.Equal(t, http.StatusConflict, resp.Code)
}

func TestRateBook_OutOfRange(t *testing.T) {
	ts := setupTestServer(t)
	_, token := ts.signup(t, "reader@example.com")
	book := createBook(t, ts, token, "Rated")

	for _, grade := range []int{0, 6} {
		resp := ts.do(t, http.MethodPost, "/api/books/"+book.ID+"/rating", token, map[string]any{"grade": grade})
		assert.Equal(t, http.StatusBadRequest, resp.Code, "grade %d", grade)
	}
}

func TestBestRating(t *testing.T) {
	ts := setupTestServer(t)
	_, ownerToken := ts.signup(t, "owner@example.com")
	_, raterToken := ts.signup(t, "rater@example.com")

	grades := []struct {
		title string
		grade int
	}{
		{"Low", 1},
		{"Mid", 3},
		{"High", 5},
		{"Higher", 4},
	}
	for _, g := range grades {
		book := createBook(t, ts, ownerToken, g.title)
		resp := ts.do(t, http.MethodPost, "/api/books/"+book.ID+"/rating", raterToken, map[string]any{"grade": g.grade})
		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	}

	resp := ts.do(t, http.MethodGet, "/api/books/bestrating", "", nil)
	require.Equal(t, http.StatusOK, resp.Code)

	var top testEnvelope[[]*domain.Book]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &top))
	require.Len(t, top.Data, 3)
	assert.Equal(t, "High", top.Data[0].Title)
	assert.Equal(t, "Higher", top.Data[1].Title)
	assert.Equal(t, "Mid", top.Data[2].Title)

	resp = ts.do(t, http.MethodGet, "/api/books/bestrating?limit=1", "", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &top))
	assert.Len(t, top.Data, 1)

	resp = ts.do(t, http.MethodGet, "/api/books/bestrating?limit=zero", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}
