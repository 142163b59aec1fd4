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
// ミドルウェアやワーカーから利用する。
type MetricsCollector interface {
	RecordHTTPStatus(statusCode int)
	RecordRequestLatency(duration time.Duration)
	RecordAuthDenied()
	RecordTokensPurged(count int64)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	httpStatus     *prometheus.CounterVec
	requestLatency prometheus.Histogram
	authDenied     prometheus.Counter
	tokensPurged   prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "worklink_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "worklink_request_latency_seconds",
			Help:    "APIリクエストのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		authDenied: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "worklink_auth_denied_total",
			Help: "認証・認可で拒否されたリクエストの合計数",
		}),
		tokensPurged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "worklink_refresh_tokens_purged_total",
			Help: "クリーンアップで削除された期限切れリフレッシュトークンの合計数",
		}),
	}

	reg.MustRegister(
		c.httpStatus,
		c.requestLatency,
		c.authDenied,
		c.tokensPurged,
	)

	return c
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestLatency はリクエストのレイテンシを記録する。
func (c *Collector) RecordRequestLatency(duration time.Duration) {
	c.requestLatency.Observe(duration.Seconds())
}

// RecordAuthDenied は認証・認可による拒否を記録する。
func (c *Collector) RecordAuthDenied() {
	c.authDenied.Inc()
}

// RecordTokensPurged は削除された期限切れトークン数を記録する。
func (c *Collector) RecordTokensPurged(count int64) {
	c.tokensPurged.Add(float64(count))
}

// statusRecorder はレスポンスのステータスコードを捕捉するResponseWriterラッパー。
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Middleware は全リクエストのステータスコードとレイテンシを記録するHTTPミドルウェアを返す。
// 401/403は認可拒否カウンタにも加算する。
func Middleware(collector MetricsCollector) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()

			next.ServeHTTP(rec, r)

			collector.RecordHTTPStatus(rec.status)
			collector.RecordRequestLatency(time.Since(start))
			if rec.status == http.StatusUnauthorized || rec.status == http.StatusForbidden {
				collector.RecordAuthDenied()
			}
		})
	}
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
