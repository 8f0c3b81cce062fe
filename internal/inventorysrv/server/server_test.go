package server

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tansive/tansive-inventory/internal/common/middleware"
	"github.com/tansive/tansive-inventory/internal/common/uuid"
	"github.com/tansive/tansive-inventory/internal/inventorysrv/apis"
	"github.com/tansive/tansive-inventory/internal/inventorysrv/bom"
	"github.com/tansive/tansive-inventory/internal/inventorysrv/config"
	"github.com/tansive/tansive-inventory/internal/inventorysrv/db/dbtest"
	"github.com/tansive/tansive-inventory/internal/inventorysrv/eventbus"
	"github.com/tansive/tansive-inventory/internal/inventorysrv/ingest"
	"github.com/tansive/tansive-inventory/internal/inventorysrv/metrics"
	"github.com/tansive/tansive-inventory/internal/inventorysrv/worker"
	"github.com/tidwall/gjson"
)

func executeTestRequest(t *testing.T, req *http.Request, cfg *config.ConfigParam) *httptest.ResponseRecorder {
	t.Helper()
	if cfg != nil {
		prev := config.Config()
		config.SetConfig(cfg)
		t.Cleanup(func() { config.SetConfig(prev) })
	}

	store := dbtest.NewStore(t)
	collector := metrics.New()
	bus := eventbus.New(eventbus.WithDropHandler(collector.EventDropped))
	t.Cleanup(bus.Shutdown)
	sink := ingest.NewBusSink(bus, 0)
	proc := ingest.NewProcessor(store, bom.NewParser(bom.Options{CycloneDXEnabled: true}), sink, sink, ingest.WithRecorder(collector))
	pool := worker.NewPool(proc, worker.Options{Workers: 1, QueueSize: 1, OnQueueDepth: collector.SetQueueDepth})

	a := apis.New(store, pool, proc, apis.Options{Observer: collector})
	s, err := CreateNewServer(a, WithMetricsHandler(collector.Handler()))
	require.NoError(t, err, "create new server")
	s.MountHandlers()

	rr := httptest.NewRecorder()
	s.Router.ServeHTTP(rr, req)
	return rr
}

func TestCreateNewServerNeedsAPI(t *testing.T) {
	_, err := CreateNewServer(nil)
	assert.Error(t, err)
}

func TestVersion(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/version", nil)
	rr := executeTestRequest(t, req, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.NotEmpty(t, rr.Header().Get(middleware.RequestIdHeader))
	assert.JSONEq(t, `{"serverVersion":"`+ServerVersion+`","apiVersion":"v1"}`, rr.Body.String())
}

func TestHealthz(t *testing.T) {
	rr := executeTestRequest(t, httptest.NewRequest(http.MethodGet, "/healthz", nil), nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "up", gjson.Get(rr.Body.String(), "database").String())
}

func TestMetricsEndpoint(t *testing.T) {
	t.Run("enabled", func(t *testing.T) {
		rr := executeTestRequest(t, httptest.NewRequest(http.MethodGet, "/metrics", nil), nil)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "inventory_upload_queue_depth")
	})

	t.Run("custom path and disabled", func(t *testing.T) {
		cfg := config.Default()
		cfg.Metrics.Path = "/internal/metrics"
		rr := executeTestRequest(t, httptest.NewRequest(http.MethodGet, "/internal/metrics", nil), cfg)
		assert.Equal(t, http.StatusOK, rr.Code)

		cfg = config.Default()
		cfg.Metrics.Enabled = false
		rr = executeTestRequest(t, httptest.NewRequest(http.MethodGet, "/metrics", nil), cfg)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestCORS(t *testing.T) {
	cfg := config.Default()
	cfg.CORSAllowedOrigins = []string{"https://inventory.example"}

	req := httptest.NewRequest(http.MethodOptions, "/v1/projects", nil)
	req.Header.Set("Origin", "https://inventory.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := executeTestRequest(t, req, cfg)
	assert.Equal(t, "https://inventory.example", rr.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/version", nil)
	req.Header.Set("Origin", "https://elsewhere.example")
	rr = executeTestRequest(t, req, cfg)
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))

	cfg = config.Default()
	cfg.HandleCORS = false
	req = httptest.NewRequest(http.MethodGet, "/version", nil)
	req.Header.Set("Origin", cfg.CORSAllowedOrigins[0])
	rr = executeTestRequest(t, req, cfg)
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestEventLog(t *testing.T) {
	out := &syncBuffer{}
	logger := zerolog.New(out).Level(zerolog.DebugLevel)
	ctx := logger.WithContext(context.Background())

	bus := eventbus.New()
	stop := StartEventLog(ctx, bus, 8)
	sink := ingest.NewBusSink(bus, time.Second)
	project := uuid.New()
	sink.Dispatch(ctx, ingest.Event{Kind: ingest.EventVulnerabilityAnalysis, ChainID: uuid.New(), ProjectUUID: project})
	sink.Notify(ctx, ingest.Notification{
		Group:       ingest.NotificationBomProcessingFailed,
		Level:       ingest.LevelError,
		ProjectUUID: project,
		Title:       "Bill of Materials Processing Failed",
		Content:     "An error occurred while processing a BOM",
		Cause:       "boom",
	})
	bus.Publish("event.unknown", 42, time.Second)

	require.Eventually(t, func() bool {
		return strings.Count(out.String(), "\n") == 3
	}, 2*time.Second, 5*time.Millisecond)
	stop()

	logged := out.String()
	assert.Contains(t, logged, `"topic":"event.vulnerability_analysis"`)
	assert.Contains(t, logged, `"group":"BOM_PROCESSING_FAILED"`)
	assert.Contains(t, logged, `"cause":"boom"`)
	assert.Contains(t, logged, `"level":"error"`)
	assert.Contains(t, logged, "unexpected message int")
}
