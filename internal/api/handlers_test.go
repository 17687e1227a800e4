package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticket-price-tracker/internal/alert"
	"ticket-price-tracker/internal/database"
)

type stubRunner struct {
	report alert.CycleReport
	err    error
}

func (r stubRunner) RunCycle(context.Context) (alert.CycleReport, error) {
	return r.report, r.err
}

// ctxRunner records the context error seen by RunCycle.
type ctxRunner struct {
	seen chan error
}

func (r ctxRunner) RunCycle(ctx context.Context) (alert.CycleReport, error) {
	r.seen <- ctx.Err()
	return alert.CycleReport{}, nil
}

func newTestRouter(t *testing.T, runner CycleRunner) (*gin.Engine, *database.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return NewRouter(store, runner), store
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAddListDelete(t *testing.T) {
	r, _ := newTestRouter(t, stubRunner{})

	w := do(r, http.MethodPost, "/api/add", `{"concert_name":"Shawn Mendes","ticket_url":"https://tickets.example.com/e/1","email":"fan@example.com","target_price":120}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var added struct {
		OK bool  `json:"ok"`
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &added))
	assert.True(t, added.OK)
	assert.NotZero(t, added.ID)

	w = do(r, http.MethodGet, "/api/watchlist", "")
	require.Equal(t, http.StatusOK, w.Code)

	var items []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &items))
	require.Len(t, items, 1)
	assert.Equal(t, "Shawn Mendes", items[0]["concert_name"])
	assert.Equal(t, 120.0, items[0]["target_price"])
	assert.Nil(t, items[0]["last_price"])
	assert.Nil(t, items[0]["lowest_price"])

	w = do(r, http.MethodDelete, "/api/delete/"+jsonNumber(added.ID), "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true,"deleted":1}`, w.Body.String())

	w = do(r, http.MethodDelete, "/api/delete/"+jsonNumber(added.ID), "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true,"deleted":0}`, w.Body.String())
}

func TestAddValidation(t *testing.T) {
	r, store := newTestRouter(t, stubRunner{})

	bodies := []string{
		`{"ticket_url":"https://tickets.example.com/e/1","email":"fan@example.com"}`,
		`{"concert_name":"x","ticket_url":"not a url","email":"fan@example.com"}`,
		`{"concert_name":"x","ticket_url":"https://tickets.example.com/e/1","email":"nope"}`,
		`{"concert_name":"x","ticket_url":"https://tickets.example.com/e/1","email":"fan@example.com","target_price":-5}`,
		`{"concert_name":"Show\r\nBcc: x@evil.example","ticket_url":"https://tickets.example.com/e/1","email":"fan@example.com"}`,
		`{"concert_name":"Show\tTwo","ticket_url":"https://tickets.example.com/e/1","email":"fan@example.com"}`,
		`{`,
	}
	for _, body := range bodies {
		w := do(r, http.MethodPost, "/api/add", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}

	items, err := store.ListWatchItems(context.Background())
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestAddWithoutTarget(t *testing.T) {
	r, store := newTestRouter(t, stubRunner{})

	w := do(r, http.MethodPost, "/api/add", `{"concert_name":"x","ticket_url":"https://tickets.example.com/e/1","email":"fan@example.com"}`)
	require.Equal(t, http.StatusOK, w.Code)

	items, err := store.ListWatchItems(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Nil(t, items[0].TargetPrice)
}

func TestDeleteInvalidID(t *testing.T) {
	r, _ := newTestRouter(t, stubRunner{})
	w := do(r, http.MethodDelete, "/api/delete/abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCheck(t *testing.T) {
	r, _ := newTestRouter(t, stubRunner{report: alert.CycleReport{Items: 2, Updated: 1, Notified: 1}})
	w := do(r, http.MethodPost, "/api/check", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true,"items":2,"updated":1,"notified":1,"failed":0,"no_quote":0}`, w.Body.String())

	r, _ = newTestRouter(t, stubRunner{err: alert.ErrCycleInProgress})
	w = do(r, http.MethodPost, "/api/check", "")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestAddAcceptsUnicodeName(t *testing.T) {
	r, _ := newTestRouter(t, stubRunner{})
	w := do(r, http.MethodPost, "/api/add", `{"concert_name":"Beyoncé Renaissance Tour","ticket_url":"https://tickets.example.com/e/1","email":"fan@example.com"}`)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestCheckOutlivesClientDisconnect(t *testing.T) {
	runner := ctxRunner{seen: make(chan error, 1)}
	r, _ := newTestRouter(t, runner)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/api/check", nil).WithContext(ctx)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NoError(t, <-runner.seen)
}

func jsonNumber(id int64) string {
	b, _ := json.Marshal(id)
	return string(b)
}
