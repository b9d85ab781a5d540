package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// TestCollector_RecordStoryCreated はストーリー作成カウンターが地域別に増加することを検証する。
func TestCollector_RecordStoryCreated(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordStoryCreated("Tokyo")
	c.RecordStoryCreated("Tokyo")
	c.RecordStoryCreated("Osaka")

	got := testutil.ToFloat64(c.storiesCreated.WithLabelValues("Tokyo"))
	if got != 2 {
		t.Errorf("stories_created{location=Tokyo} = %v, want 2", got)
	}
	got = testutil.ToFloat64(c.storiesCreated.WithLabelValues("Osaka"))
	if got != 1 {
		t.Errorf("stories_created{location=Osaka} = %v, want 1", got)
	}
}

// TestCollector_RecordStoryView は新規閲覧と重複閲覧が別カウンターに記録されることを検証する。
func TestCollector_RecordStoryView(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordStoryView(false)
	c.RecordStoryView(false)
	c.RecordStoryView(true)

	if got := testutil.ToFloat64(c.viewsRecorded); got != 2 {
		t.Errorf("views_recorded = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.viewDuplicates); got != 1 {
		t.Errorf("view_duplicates = %v, want 1", got)
	}
}

// TestCollector_RecordEngagement はリアクションとコメントのカウンターを検証する。
func TestCollector_RecordEngagement(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordStoryLike("like")
	c.RecordStoryLike("love")
	c.RecordStoryUnlike()
	c.RecordStoryComment()
	c.RecordCleanupDeleted(3)

	if got := testutil.ToFloat64(c.likes.WithLabelValues("like")); got != 1 {
		t.Errorf("likes{like} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.unlikes); got != 1 {
		t.Errorf("unlikes = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.comments); got != 1 {
		t.Errorf("comments = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.cleanupDeleted); got != 3 {
		t.Errorf("cleanup_deleted = %v, want 3", got)
	}
}

// TestCollector_RecordHTTPStatus はステータスコード別カウンターを検証する。
func TestCollector_RecordHTTPStatus(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordHTTPStatus(200)
	c.RecordHTTPStatus(200)
	c.RecordHTTPStatus(404)
	c.RecordRequestLatency(50 * time.Millisecond)

	if got := testutil.ToFloat64(c.httpStatus.WithLabelValues("200")); got != 2 {
		t.Errorf("http_status{200} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.httpStatus.WithLabelValues("404")); got != 1 {
		t.Errorf("http_status{404} = %v, want 1", got)
	}
}

// TestSetupMetricsRoute_ServesMetrics は/metricsパスでメトリクスが返ることを検証する。
func TestSetupMetricsRoute_ServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordStoryCreated("Tokyo")

	handler := SetupMetricsRoute(reg)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "bivochat_stories_created_total") {
		t.Error("response should contain bivochat_stories_created_total metric")
	}
}
