// Package metrics holds Prometheus instruments that are used across the
// publish-and-serve core.  All collectors are registered with the global
// registry, so importing this package in main.go is enough to expose them
// on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ActiveTenants = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_tenants",
			Help: "Number of tenant sites currently loaded in memory.",
		})

	TenantLoadTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tenant_load_total",
			Help: "Cumulative number of tenant sites successfully loaded.",
		})

	TenantLoadErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tenant_load_errors_total",
			Help: "Cumulative number of tenant load errors.",
		})

	TenantEvictTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tenant_evict_total",
			Help: "Cumulative number of tenants evicted from the cache.",
		})

	PageServeTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "page_serve_total",
			Help: "Pages served, labelled by the fallback tier that produced the body.",
		},
		[]string{"tier"})

	PageNotFoundTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "page_not_found_total",
			Help: "Requests that resolved to no published site or page.",
		})

	PublishTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "publish_total",
			Help: "Cumulative number of successful page publishes.",
		})

	PublishErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "publish_errors_total",
			Help: "Cumulative number of failed page publishes.",
		})

	CacheHitTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "page_cache_hit_total",
			Help: "Rendered-content cache hits across both tiers.",
		})

	CacheMissTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "page_cache_miss_total",
			Help: "Rendered-content cache misses across both tiers.",
		})

	EditorTokensIssued = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "editor_tokens_issued_total",
			Help: "Editor-access tokens minted.",
		})

	TokenVerifyFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "token_verify_failures_total",
			Help: "Tokens rejected by signature, expiry, type, or revocation checks.",
		})
)

func init() {
	prometheus.MustRegister(
		ActiveTenants,
		TenantLoadTotal,
		TenantLoadErrorsTotal,
		TenantEvictTotal,
		PageServeTotal,
		PageNotFoundTotal,
		PublishTotal,
		PublishErrorsTotal,
		CacheHitTotal,
		CacheMissTotal,
		EditorTokensIssued,
		TokenVerifyFailures,
	)
}
