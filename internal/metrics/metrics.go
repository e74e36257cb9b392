// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	httpRequests    *prometheus.CounterVec
	requestDuration prometheus.Histogram
	storiesCreated  prometheus.Counter
	logins          prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storypad_http_requests_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "storypad_http_request_duration_seconds",
			Help:    "HTTPリクエスト処理のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		storiesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "storypad_stories_created_total",
			Help: "作成されたストーリーの合計数",
		}),
		logins: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "storypad_logins_total",
			Help: "OAuthログイン成功の合計数",
		}),
	}

	reg.MustRegister(
		c.httpRequests,
		c.requestDuration,
		c.storiesCreated,
		c.logins,
	)

	return c
}

// RecordHTTPRequest はHTTPリクエストのステータスコードと処理時間を記録する。
func (c *Collector) RecordHTTPRequest(statusCode int, duration time.Duration) {
	c.httpRequests.WithLabelValues(strconv.Itoa(statusCode)).Inc()
	c.requestDuration.Observe(duration.Seconds())
}

// RecordStoryCreated はストーリー作成を記録する。
func (c *Collector) RecordStoryCreated() {
	c.storiesCreated.Inc()
}

// RecordLogin はOAuthログイン成功を記録する。
func (c *Collector) RecordLogin() {
	c.logins.Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// NewMiddleware はHTTPリクエストのメトリクスを記録するミドルウェアを返す。
func NewMiddleware(c *Collector) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(rec, r)

			c.RecordHTTPRequest(rec.statusCode, time.Since(start))
		})
	}
}

// statusRecorder はhttp.ResponseWriterをラップし、ステータスコードを記録する。
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func (sr *statusRecorder) WriteHeader(code int) {
	if !sr.written {
		sr.statusCode = code
		sr.written = true
	}
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if !sr.written {
		sr.statusCode = http.StatusOK
		sr.written = true
	}
	return sr.ResponseWriter.Write(b)
}
