package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		code int
		want string
	}{
		{200, "2xx"},
		{204, "2xx"},
		{302, "3xx"},
		{404, "4xx"},
		{503, "5xx"},
		{99, "unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, classifyStatus(tt.code), "code %d", tt.code)
	}
}

func TestMetricsHandlerExposesCatalogSeries(t *testing.T) {
	RecordRequest(http.MethodGet, "/api/products", 200, 10*time.Millisecond)
	RecordSyncRecords(1, 2, 3, 0)
	RecordCacheHit()
	RecordSupplierRequest("/items", nil, 200*time.Millisecond)

	rec := httptest.NewRecorder()
	MetricsHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := rec.Body.String()
	assert.Contains(t, body, `bloom_http_requests_total{method="GET",route="/api/products",status="2xx"}`)
	assert.Contains(t, body, `bloom_supplier_requests_total{endpoint="/items",result="ok"}`)
	assert.Contains(t, body, "catalog_sync_records_total")
	assert.Contains(t, body, "catalog_realtime_lookups_total")
}
