package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimitByUser(t *testing.T) {
	ts := setupTestServer(t)
	_, token := ts.signup(t, "reader@example.com")
	book := createBook(t, ts, token, "Hammered")

	// The bucket holds ratingBurst tokens; requests beyond that are
	// rejected before the handler runs, duplicate or not.
	statuses := make([]int, 0, ratingBurst+1)
	for i := 0; i <= ratingBurst; i++ {
		resp := ts.do(t, http.MethodPost, "/api/books/"+book.ID+"/rating", token, map[string]any{"grade": 3})
		statuses = append(statuses, resp.Code)
	}

	require.Equal(t, http.StatusOK, statuses[0])
	for _, code := range statuses[1:ratingBurst] {
		assert.Equal(t, http.StatusConflict, code)
	}
	assert.Equal(t, http.StatusTooManyRequests, statuses[ratingBurst])
}

func TestRateLimit_PerUserIsolation(t *testing.T) {
	ts := setupTestServer(t)
	_, ownerToken := ts.signup(t, "owner@example.com")
	book := createBook(t, ts, ownerToken, "Shared")

	// Exhaust one user's bucket.
	_, heavyToken := ts.signup(t, "heavy@example.com")
	for i := 0; i <= ratingBurst; i++ {
		ts.do(t, http.MethodPost, "/api/books/"+book.ID+"/rating", heavyToken, map[string]any{"grade": 3})
	}

	// A different user is unaffected.
	_, calmToken := ts.signup(t, "calm@example.com")
	resp := ts.do(t, http.MethodPost, "/api/books/"+book.ID+"/rating", calmToken, map[string]any{"grade": 5})
	assert.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
}
