// Package metrics はPrometheusメトリクスを定義する。
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DecryptRequestsTotal は復号リクエスト数を入力元と結果コード別に数える。
	DecryptRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "config_decrypt_requests_total",
			Help: "Total config decrypt requests by input source and result",
		},
		[]string{"source", "result"},
	)

	// DecryptDuration は復号パイプライン全体の所要時間。
	DecryptDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "config_decrypt_duration_seconds",
			Help:    "Config decrypt pipeline duration in seconds",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"source"},
	)

	// FetchDuration はリモート取得の所要時間。
	FetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "config_fetch_duration_seconds",
			Help:    "Remote encrypted config fetch duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// DatabaseCheckLatency はデータベース疎通確認のレイテンシ。
	DatabaseCheckLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "database_check_latency_seconds",
			Help:    "Database ping latency in seconds by check kind",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 5, 10},
		},
		[]string{"check", "result"},
	)

	// AdminLoginsTotal は管理者ログイン試行数を結果別に数える。
	AdminLoginsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admin_logins_total",
			Help: "Total admin login attempts by result",
		},
		[]string{"result"},
	)
)
