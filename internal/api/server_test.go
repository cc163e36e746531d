package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kabuka-watcher/internal/crawl"
	apperrors "kabuka-watcher/internal/errors"
	"kabuka-watcher/internal/fetch"
	"kabuka-watcher/internal/models"
	"kabuka-watcher/internal/scrape"
	"kabuka-watcher/internal/store"
)

type testEnv struct {
	server *Server
	store  *store.SQLiteStore
	quotes *httptest.Server
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	quotes := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/quote/7203":
			io.WriteString(w, `<span class="kabuka">2,500円</span>`)
		case "/quote/broken":
			io.WriteString(w, `<span class="price">2,500円</span>`)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(quotes.Close)

	db, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "kabuka.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	extractor, err := scrape.NewExtractor(scrape.DefaultExtractorConfig())
	require.NoError(t, err)
	crawler := crawl.New(db, fetch.NewFetcher(quotes.Client(), fetch.DefaultConfig(), zerolog.Nop()), extractor, zerolog.Nop())

	srv := NewServer(Config{CrawlTimeout: 5 * time.Second}, db, crawler, zerolog.Nop())
	return &testEnv{server: srv, store: db, quotes: quotes}
}

func (e *testEnv) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, map[string]json.RawMessage) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rec, req)

	var payload map[string]json.RawMessage
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	}
	return rec, payload
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	rec, payload := env.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `"ok"`, string(payload["status"]))

	require.NoError(t, env.store.Close())
	rec, payload = env.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, `"unhealthy"`, string(payload["status"]))
}

func TestStockRoutes(t *testing.T) {
	env := newTestEnv(t)

	rec, payload := env.do(t, http.MethodGet, "/stocks", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, string(payload["stocks"]))

	body := fmt.Sprintf(`{"code":7203,"name":"Toyota","url":%q}`, env.quotes.URL+"/quote/7203")
	rec, payload = env.do(t, http.MethodPost, "/stocks", body)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created models.Instrument
	require.NoError(t, json.Unmarshal(payload["stock"], &created))
	assert.Equal(t, int64(7203), created.Code)

	rec, _ = env.do(t, http.MethodPost, "/stocks", body)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, _ = env.do(t, http.MethodPost, "/stocks", `{"name":"no code"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, payload = env.do(t, http.MethodGet, fmt.Sprintf("/stocks/%d", created.ID), "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got models.Instrument
	require.NoError(t, json.Unmarshal(payload["stock"], &got))
	assert.Equal(t, "Toyota", got.Name)

	rec, payload = env.do(t, http.MethodGet, "/stocks/999", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "null", string(payload["stock"]))

	rec, _ = env.do(t, http.MethodGet, "/stocks/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = env.do(t, http.MethodDelete, fmt.Sprintf("/stocks/%d", created.ID), "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec, _ = env.do(t, http.MethodDelete, fmt.Sprintf("/stocks/%d", created.ID), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAlertRoutes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	inst, err := env.store.CreateInstrument(ctx, 7203, "Toyota", env.quotes.URL+"/quote/7203")
	require.NoError(t, err)
	base := fmt.Sprintf("/stocks/%d/amount_alerts", inst.ID)

	rec, payload := env.do(t, http.MethodPost, base, `{"mode":"UP","amount":2000}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var alert models.AlertRule
	require.NoError(t, json.Unmarshal(payload["amount_alert"], &alert))
	assert.Equal(t, models.DirectionUp, alert.Direction)
	assert.Equal(t, int64(7203), alert.InstrumentCode)

	rec, _ = env.do(t, http.MethodPost, base, `{"mode":"sideways","amount":2000}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = env.do(t, http.MethodPost, "/stocks/999/amount_alerts", `{"mode":"down","amount":1}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, payload = env.do(t, http.MethodGet, base, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var alerts []models.AlertRule
	require.NoError(t, json.Unmarshal(payload["amount_alerts"], &alerts))
	require.Len(t, alerts, 1)
	assert.Equal(t, alert.ID, alerts[0].ID)

	rec, _ = env.do(t, http.MethodDelete, fmt.Sprintf("/amount_alerts/%d", alert.ID), "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec, payload = env.do(t, http.MethodDelete, fmt.Sprintf("/amount_alerts/%d", alert.ID), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, `"Alert not found"`, string(payload["error"]))
}

func TestCrawlRoute(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	inst, err := env.store.CreateInstrument(ctx, 7203, "Toyota", env.quotes.URL+"/quote/7203")
	require.NoError(t, err)
	up, err := env.store.CreateAlert(ctx, inst.ID, models.DirectionUp, 2000)
	require.NoError(t, err)
	down, err := env.store.CreateAlert(ctx, inst.ID, models.DirectionDown, 3000)
	require.NoError(t, err)
	_, err = env.store.CreateAlert(ctx, inst.ID, models.DirectionUp, 2500)
	require.NoError(t, err)

	rec, payload := env.do(t, http.MethodPost, fmt.Sprintf("/stocks/%d/crawling", inst.ID), "")
	require.Equal(t, http.StatusOK, rec.Code)

	var triggered []models.TriggeredAlert
	require.NoError(t, json.Unmarshal(payload["crawling_responses"], &triggered))
	require.Len(t, triggered, 2)
	assert.Equal(t, up.ID, triggered[0].AlertID)
	assert.Equal(t, down.ID, triggered[1].AlertID)
	assert.Equal(t, "Toyota", triggered[0].Name)
	assert.Equal(t, int64(2000), triggered[0].AlertAmount)
	assert.Equal(t, int64(2500), triggered[0].CurrentAmount)
	assert.Equal(t, "2500", string(payload["current_amount"]))
}

func TestCrawlRouteErrors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	broken, err := env.store.CreateInstrument(ctx, 1, "Broken", env.quotes.URL+"/quote/broken")
	require.NoError(t, err)
	gone, err := env.store.CreateInstrument(ctx, 2, "Gone", env.quotes.URL+"/quote/gone")
	require.NoError(t, err)

	rec, payload := env.do(t, http.MethodPost, "/stocks/999/crawling", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, `"Stock not found"`, string(payload["error"]))

	rec, payload = env.do(t, http.MethodPost, fmt.Sprintf("/stocks/%d/crawling", broken.ID), "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, `"crawl failed"`, string(payload["error"]))

	rec, _ = env.do(t, http.MethodPost, fmt.Sprintf("/stocks/%d/crawling", gone.ID), "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

type failingCrawler struct{ err error }

func (f failingCrawler) Crawl(context.Context, int64) (*models.Crawl, error) {
	return nil, f.err
}

func TestCrawlRouteStoreFailure(t *testing.T) {
	var logs bytes.Buffer
	srv := NewServer(Config{}, nil, failingCrawler{
		err: apperrors.NewCrawlError(apperrors.CrawlStore, 1, apperrors.ErrDatabaseError),
	}, zerolog.New(&logs))

	req := httptest.NewRequest(http.MethodPost, "/stocks/1/crawling", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Unexpected error"}`, rec.Body.String())
	assert.Contains(t, logs.String(), "Database request failed")
}

func TestListStocksAfterStoreClosed(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.store.Close())

	rec, payload := env.do(t, http.MethodGet, "/stocks", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, `"Unexpected error"`, string(payload["error"]))
}

func TestRunShutsDownOnCancel(t *testing.T) {
	srv := NewServer(Config{Addr: "127.0.0.1:0"}, nil, failingCrawler{}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
