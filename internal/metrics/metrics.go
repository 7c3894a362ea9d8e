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
// ハンドラー、外部APIクライアント、ワーカーから利用する。
type MetricsCollector interface {
	RecordHTTPStatus(statusCode int)
	RecordLogin()
	RecordGitHubCall(operation string, success bool)
	RecordGitHubLatency(operation string, duration time.Duration)
	RecordCompletion(success bool)
	RecordCompletionLatency(duration time.Duration)
	RecordSessionsSwept(count int64)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	httpStatus        *prometheus.CounterVec
	logins            prometheus.Counter
	githubCalls       *prometheus.CounterVec
	githubLatency     *prometheus.HistogramVec
	completions       *prometheus.CounterVec
	completionLatency prometheus.Histogram
	sessionsSwept     prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gitquiz_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		logins: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gitquiz_logins_total",
			Help: "OAuthログイン成功の合計数",
		}),
		githubCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gitquiz_github_calls_total",
			Help: "GitHub API呼び出しの操作・結果別の合計数",
		}, []string{"operation", "result"}),
		githubLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gitquiz_github_latency_seconds",
			Help:    "GitHub API呼び出しのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		completions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gitquiz_completions_total",
			Help: "LLM補完呼び出しの結果別の合計数",
		}, []string{"result"}),
		completionLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "gitquiz_completion_latency_seconds",
			Help:    "LLM補完呼び出しのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		sessionsSwept: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gitquiz_sessions_swept_total",
			Help: "スイープで削除された期限切れセッションの合計数",
		}),
	}

	reg.MustRegister(
		c.httpStatus,
		c.logins,
		c.githubCalls,
		c.githubLatency,
		c.completions,
		c.completionLatency,
		c.sessionsSwept,
	)

	return c
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordLogin はOAuthログイン成功を記録する。
func (c *Collector) RecordLogin() {
	c.logins.Inc()
}

// RecordGitHubCall はGitHub API呼び出しの結果を記録する。
func (c *Collector) RecordGitHubCall(operation string, success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	c.githubCalls.WithLabelValues(operation, result).Inc()
}

// RecordGitHubLatency はGitHub API呼び出しのレイテンシを記録する。
func (c *Collector) RecordGitHubLatency(operation string, duration time.Duration) {
	c.githubLatency.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordCompletion はLLM補完呼び出しの結果を記録する。
func (c *Collector) RecordCompletion(success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	c.completions.WithLabelValues(result).Inc()
}

// RecordCompletionLatency はLLM補完呼び出しのレイテンシを記録する。
func (c *Collector) RecordCompletionLatency(duration time.Duration) {
	c.completionLatency.Observe(duration.Seconds())
}

// RecordSessionsSwept はスイープで削除されたセッション数を記録する。
func (c *Collector) RecordSessionsSwept(count int64) {
	c.sessionsSwept.Add(float64(count))
}

// compile-time interface check
var _ MetricsCollector = (*Collector)(nil)

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
