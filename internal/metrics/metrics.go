// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ワーカーやサービス層から利用する。
type MetricsCollector interface {
	RecordFetchSuccess()
	RecordFetchFailure(reason string)
	RecordParseFailure()
	RecordFetchLatency(duration time.Duration)
	RecordEventsIngested(count int)
	RecordProjectAutoCreated()
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	fetchSuccess   prometheus.Counter
	fetchFail      *prometheus.CounterVec
	parseFail      prometheus.Counter
	fetchLatency   prometheus.Histogram
	eventsIngested prometheus.Counter
	autoCreated    prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		fetchSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "workman_calendar_fetch_success_total",
			Help: "カレンダー取得成功の合計数",
		}),
		fetchFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "workman_calendar_fetch_fail_total",
			Help: "カレンダー取得失敗の合計数",
		}, []string{"reason"}),
		parseFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "workman_calendar_parse_fail_total",
			Help: "iCalendar解析失敗の合計数",
		}),
		fetchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "workman_calendar_fetch_latency_seconds",
			Help:    "カレンダー取得のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		eventsIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "workman_events_ingested_total",
			Help: "取り込まれたイベントの合計数",
		}),
		autoCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "workman_projects_autocreated_total",
			Help: "自動作成されたプロジェクトの合計数",
		}),
	}

	reg.MustRegister(
		c.fetchSuccess,
		c.fetchFail,
		c.parseFail,
		c.fetchLatency,
		c.eventsIngested,
		c.autoCreated,
	)

	return c
}

// RecordFetchSuccess はカレンダー取得成功を記録する。
func (c *Collector) RecordFetchSuccess() {
	c.fetchSuccess.Inc()
}

// RecordFetchFailure はカレンダー取得失敗を記録する。
func (c *Collector) RecordFetchFailure(reason string) {
	c.fetchFail.WithLabelValues(reason).Inc()
}

// RecordParseFailure は解析失敗を記録する。
func (c *Collector) RecordParseFailure() {
	c.parseFail.Inc()
}

// RecordFetchLatency は取得のレイテンシを記録する。
func (c *Collector) RecordFetchLatency(duration time.Duration) {
	c.fetchLatency.Observe(duration.Seconds())
}

// RecordEventsIngested は取り込んだイベント数を記録する。
func (c *Collector) RecordEventsIngested(count int) {
	c.eventsIngested.Add(float64(count))
}

// RecordProjectAutoCreated はプロジェクトの自動作成を記録する。
func (c *Collector) RecordProjectAutoCreated() {
	c.autoCreated.Inc()
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
