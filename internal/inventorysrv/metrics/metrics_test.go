package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tansive/tansive-inventory/internal/inventorysrv/ingest"
)

func scrape(t *testing.T, c *Collector) string {
	t.Helper()
	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestCollector(t *testing.T) {
	c := New()
	c.ImportFinished(ingest.OutcomeProcessed, 250*time.Millisecond)
	c.ImportFinished(ingest.OutcomeFailed, time.Second)
	c.Reconciled(ingest.Stats{ComponentsCreated: 3, ComponentsDeleted: 1, ServicesUpdated: 2})
	c.SetQueueDepth(5)
	c.UploadReceived("accepted")
	c.EventDropped("event.index")

	out := scrape(t, c)
	assert.Contains(t, out, `inventory_bom_imports_total{outcome="processed"} 1`)
	assert.Contains(t, out, `inventory_bom_imports_total{outcome="failed"} 1`)
	assert.Contains(t, out, `inventory_bom_import_duration_seconds_count{outcome="processed"} 1`)
	assert.Contains(t, out, `inventory_components_reconciled_total{action="created",entity="component"} 3`)
	assert.Contains(t, out, `inventory_components_reconciled_total{action="deleted",entity="component"} 1`)
	assert.Contains(t, out, `inventory_components_reconciled_total{action="updated",entity="service"} 2`)
	assert.NotContains(t, out, `action="unchanged"`)
	assert.Contains(t, out, `inventory_upload_queue_depth 5`)
	assert.Contains(t, out, `inventory_bom_uploads_total{result="accepted"} 1`)
	assert.Contains(t, out, `inventory_events_dropped_total{topic="event.index"} 1`)
	assert.Contains(t, out, "go_goroutines")
}
