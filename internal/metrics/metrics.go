// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// サービス層およびワーカーから利用する。
type MetricsCollector interface {
	RecordStoryCreated(location string)
	RecordStoryView(duplicate bool)
	RecordStoryLike(reactionType string)
	RecordStoryUnlike()
	RecordStoryComment()
	RecordCleanupDeleted(count int)
	RecordHTTPStatus(statusCode int)
	RecordRequestLatency(duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	storiesCreated *prometheus.CounterVec
	viewsRecorded  prometheus.Counter
	viewDuplicates prometheus.Counter
	likes          *prometheus.CounterVec
	unlikes        prometheus.Counter
	comments       prometheus.Counter
	cleanupDeleted prometheus.Counter
	httpStatus     *prometheus.CounterVec
	requestLatency prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		storiesCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bivochat_stories_created_total",
			Help: "作成されたストーリーの合計数（地域別）",
		}, []string{"location"}),
		viewsRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bivochat_story_views_total",
			Help: "新規に記録されたストーリー閲覧の合計数",
		}),
		viewDuplicates: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bivochat_story_view_duplicates_total",
			Help: "重複として無視されたストーリー閲覧の合計数",
		}),
		likes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bivochat_story_likes_total",
			Help: "記録されたリアクションの合計数（種別ごと）",
		}, []string{"reaction_type"}),
		unlikes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bivochat_story_unlikes_total",
			Help: "取り消されたリアクションの合計数",
		}),
		comments: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bivochat_story_comments_total",
			Help: "追加されたコメントの合計数",
		}),
		cleanupDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bivochat_cleanup_deleted_stories_total",
			Help: "クリーンアップワーカーが削除した失効ストーリーの合計数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bivochat_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "bivochat_request_latency_seconds",
			Help:    "HTTPリクエストのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.storiesCreated,
		c.viewsRecorded,
		c.viewDuplicates,
		c.likes,
		c.unlikes,
		c.comments,
		c.cleanupDeleted,
		c.httpStatus,
		c.requestLatency,
	)

	return c
}

// RecordStoryCreated はストーリー作成を記録する。
func (c *Collector) RecordStoryCreated(location string) {
	c.storiesCreated.WithLabelValues(location).Inc()
}

// RecordStoryView はストーリー閲覧を記録する。
// duplicateがtrueの場合は重複閲覧としてカウントする。
func (c *Collector) RecordStoryView(duplicate bool) {
	if duplicate {
		c.viewDuplicates.Inc()
		return
	}
	c.viewsRecorded.Inc()
}

// RecordStoryLike はリアクションの記録を種別ごとにカウントする。
func (c *Collector) RecordStoryLike(reactionType string) {
	c.likes.WithLabelValues(reactionType).Inc()
}

// RecordStoryUnlike はリアクション取り消しを記録する。
func (c *Collector) RecordStoryUnlike() {
	c.unlikes.Inc()
}

// RecordStoryComment はコメント追加を記録する。
func (c *Collector) RecordStoryComment() {
	c.comments.Inc()
}

// RecordCleanupDeleted はクリーンアップで削除されたストーリー数を記録する。
func (c *Collector) RecordCleanupDeleted(count int) {
	c.cleanupDeleted.Add(float64(count))
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestLatency はリクエストのレイテンシを記録する。
func (c *Collector) RecordRequestLatency(duration time.Duration) {
	c.requestLatency.Observe(duration.Seconds())
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// Prometheusスクレイプに対応する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}

// compile-time interface check
var _ MetricsCollector = (*Collector)(nil)
