package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trade-journal/internal/analytics"
	"trade-journal/internal/config"
	"trade-journal/internal/journal"
	"trade-journal/internal/models"
	"trade-journal/internal/performance"
	"trade-journal/internal/security"
	"trade-journal/internal/store"
)

var now = time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Meta    map[string]any  `json:"meta"`
}

func newTestServer(t *testing.T, cfg config.ServerConfig, opts ...Option) (*Server, *journal.Service) {
	t.Helper()
	repo, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	pool := performance.NewWorkerPool(2)
	pool.Start()
	t.Cleanup(pool.Stop)

	svc := journal.NewService(repo, zerolog.Nop(), journal.Options{Pool: pool})
	if cfg.RateLimit == 0 {
		cfg.RateLimit = 1000
		cfg.Burst = 1000
	}
	opts = append([]Option{WithPool(pool), WithClock(func() time.Time { return now })}, opts...)
	return NewServer(svc, cfg, zerolog.Nop(), opts...), svc
}

func do(t *testing.T, s *Server, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	var env envelope
	if rec.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func seed(t *testing.T, svc *journal.Service) {
	t.Helper()
	_, err := svc.SeedSampleData(context.Background(), now)
	require.NoError(t, err)
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, config.ServerConfig{})

	rec, env := do(t, s, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, env.Code)

	var data map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "ok", data["status"])
	assert.Contains(t, data, "memory")
	assert.Contains(t, data, "pool")
}

func TestTrades_ReadOnly(t *testing.T) {
	repo, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	auditDir := t.TempDir()
	audit, err := security.NewAuditLogger(security.AuditConfig{LogDir: auditDir, MaxSize: 1})
	require.NoError(t, err)
	t.Cleanup(func() { audit.Close() })

	svc := journal.NewService(repo, zerolog.Nop(), journal.Options{
		Access: security.NewAccessController(true, audit),
		Audit:  audit,
	})
	s := NewServer(svc, config.ServerConfig{RateLimit: 1000, Burst: 1000}, zerolog.Nop(),
		WithClock(func() time.Time { return now }))

	form := map[string]string{
		"symbol": "BTC/USDT", "entry_price": "100", "exit_price": "110", "quantity": "1",
		"stop_loss": "90", "take_profit": "120",
	}
	rec, env := do(t, s, http.MethodPost, "/api/v1/trades", form)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, env.Message, "read-only")

	_, env = do(t, s, http.MethodGet, "/health", nil)
	var data map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, true, data["read_only"])

	logged, err := os.ReadFile(security.AuditPath(auditDir))
	require.NoError(t, err)
	assert.Contains(t, string(logged), `"source":"api"`)
}

func TestTrades_CreateGetDelete(t *testing.T) {
	s, _ := newTestServer(t, config.ServerConfig{})

	form := map[string]string{
		"symbol":      "BTC/USDT",
		"side":        "Long",
		"entry_price": "42000",
		"exit_price":  "43500",
		"quantity":    "0.1",
		"stop_loss":   "41000",
		"take_profit": "44000",
		"fees":        "0.1",
	}
	rec, env := do(t, s, http.MethodPost, "/api/v1/trades", form)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created models.TradeDetail
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.InDelta(t, 141.45, created.ProfitLoss, 1e-9)
	assert.True(t, created.Date.Equal(now))

	rec, env = do(t, s, http.MethodGet, "/api/v1/trades/"+created.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got models.TradeDetail
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, created.ID, got.ID)

	rec, _ = do(t, s, http.MethodDelete, "/api/v1/trades/"+created.ID.String(), nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, env = do(t, s, http.MethodGet, "/api/v1/trades/"+created.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, http.StatusNotFound, env.Code)
}

func TestTrades_CreateRejectsExistingID(t *testing.T) {
	s, _ := newTestServer(t, config.ServerConfig{})

	id := "7b0c7a36-5c1e-4a0b-9f43-2d1f6f5b8e11"
	form := map[string]string{
		"id": id, "symbol": "BTC/USDT", "entry_price": "100", "exit_price": "110",
		"quantity": "1", "stop_loss": "90", "take_profit": "120",
	}
	rec, _ := do(t, s, http.MethodPost, "/api/v1/trades", form)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	form["symbol"] = "ETH/USDT"
	form["exit_price"] = "50"
	rec, env := do(t, s, http.MethodPost, "/api/v1/trades", form)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, http.StatusConflict, env.Code)

	rec, env = do(t, s, http.MethodGet, "/api/v1/trades/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got models.TradeDetail
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, "BTC/USDT", got.Symbol)
	assert.InDelta(t, 10.0, got.ProfitLoss, 1e-9)
}

func TestTrades_ListDefaultFilter(t *testing.T) {
	s, _ := newTestServer(t, config.ServerConfig{}, WithDefaultFilter(analytics.Last7Days))

	for symbol, date := range map[string]string{"BTC/USDT": "2024-06-13", "ETH/USDT": "2024-03-01"} {
		rec, _ := do(t, s, http.MethodPost, "/api/v1/trades", map[string]string{
			"symbol": symbol, "entry_price": "100", "exit_price": "110", "quantity": "1",
			"stop_loss": "90", "take_profit": "120", "date": date,
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec, env := do(t, s, http.MethodGet, "/api/v1/trades", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var trades []models.TradeDetail
	require.NoError(t, json.Unmarshal(env.Data, &trades))
	require.Len(t, trades, 1)
	assert.Equal(t, "BTC/USDT", trades[0].Symbol)
	assert.Equal(t, string(analytics.Last7Days), env.Meta["filter"])

	_, env = do(t, s, http.MethodGet, "/api/v1/trades?filter=all", nil)
	require.NoError(t, json.Unmarshal(env.Data, &trades))
	assert.Len(t, trades, 2)

	_, env = do(t, s, http.MethodGet, "/api/v1/trades?limit=10", nil)
	require.NoError(t, json.Unmarshal(env.Data, &trades))
	assert.Len(t, trades, 2)
	assert.EqualValues(t, 2, env.Meta["total"])
}

func TestTrades_CreateValidation(t *testing.T) {
	s, _ := newTestServer(t, config.ServerConfig{})

	rec, env := do(t, s, http.MethodPost, "/api/v1/trades", map[string]string{
		"symbol":      "BTC/USDT",
		"entry_price": "42000",
		"exit_price":  "43500",
		"quantity":    "0.1",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, journal.MsgMissingRisk, env.Message)
}

func TestTrades_BadID(t *testing.T) {
	s, _ := newTestServer(t, config.ServerConfig{})

	rec, env := do(t, s, http.MethodGet, "/api/v1/trades/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "id", env.Meta["field"])
}

func TestTrades_ListPaged(t *testing.T) {
	s, svc := newTestServer(t, config.ServerConfig{})
	seed(t, svc)

	rec, env := do(t, s, http.MethodGet, "/api/v1/trades?limit=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var trades []models.TradeDetail
	require.NoError(t, json.Unmarshal(env.Data, &trades))
	assert.Len(t, trades, 1)
	assert.EqualValues(t, 2, env.Meta["total"])
	assert.Equal(t, true, env.Meta["has_more"])

	rec, _ = do(t, s, http.MethodGet, "/api/v1/trades?filter=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalytics_Summary(t *testing.T) {
	s, svc := newTestServer(t, config.ServerConfig{})
	seed(t, svc)

	rec, env := do(t, s, http.MethodGet, "/api/v1/analytics/summary", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var summary struct {
		TotalTrades     int     `json:"total_trades"`
		TotalProfitLoss float64 `json:"total_profit_loss"`
		WinRate         float64 `json:"win_rate"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &summary))
	assert.Equal(t, 2, summary.TotalTrades)
	assert.InDelta(t, 187.10, summary.TotalProfitLoss, 1e-6)
	assert.Equal(t, 100.0, summary.WinRate)

	rec, env = do(t, s, http.MethodGet, "/api/v1/analytics/summary?strategy=Price%20Action", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(env.Data, &summary))
	assert.Equal(t, 1, summary.TotalTrades)
	assert.InDelta(t, 45.65, summary.TotalProfitLoss, 1e-6)
}

func TestAnalytics_Endpoints(t *testing.T) {
	s, svc := newTestServer(t, config.ServerConfig{})
	seed(t, svc)

	for _, path := range []string{
		"/api/v1/analytics/equity",
		"/api/v1/analytics/monthly",
		"/api/v1/analytics/groups?by=timeframe",
		"/api/v1/analytics/symbols?limit=1",
		"/api/v1/analytics/symbols?symbol=BTC/USDT",
		"/api/v1/analytics/streaks",
		"/api/v1/analytics/risk",
		"/api/v1/analytics/distribution",
		"/api/v1/analytics/report?period=Month",
	} {
		t.Run(path, func(t *testing.T) {
			rec, env := do(t, s, http.MethodGet, path, nil)
			assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Equal(t, 0, env.Code)
		})
	}
}

func TestAnalytics_BadQuery(t *testing.T) {
	s, _ := newTestServer(t, config.ServerConfig{})

	for _, path := range []string{
		"/api/v1/analytics/summary?timeframe=2h",
		"/api/v1/analytics/summary?period=decade",
		"/api/v1/analytics/groups?by=color",
	} {
		rec, _ := do(t, s, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
	}
}

func TestRateLimit(t *testing.T) {
	s, _ := newTestServer(t, config.ServerConfig{RateLimit: 0.001, Burst: 2})

	for i := 0; i < 2; i++ {
		rec, _ := do(t, s, http.MethodGet, "/api/v1/trades", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	}
	rec, env := do(t, s, http.MethodGet, "/api/v1/trades", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, http.StatusTooManyRequests, env.Code)

	// health bypasses the limiter
	rec, _ = do(t, s, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(t, config.ServerConfig{})
	do(t, s, http.MethodGet, "/api/v1/trades", nil)

	rec, _ := do(t, s, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "journal_http_requests_total")
}
