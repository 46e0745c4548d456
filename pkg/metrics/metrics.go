package metrics

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	CatalogQueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "catalog_query_duration_seconds",
		Help:    "Duration of paginated catalog queries in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "count_mode"})

	CatalogQueryResults = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "catalog_query_total_items",
		Help:    "Number of books matched by catalog queries",
		Buckets: prometheus.ExponentialBuckets(1, 4, 10),
	}, []string{"route"})

	FilterDimensionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_filter_dimensions_total",
		Help: "Number of catalog queries using each filter dimension",
	}, []string{"dimension"})

	StoreUnavailableTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_store_unavailable_total",
		Help: "Number of requests that failed because the catalog store was unavailable",
	})

	RateLimitedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_rate_limited_total",
		Help: "Number of requests rejected by the rate limiter",
	})
)

// RegisterRoutes exposes the default registry at /metrics.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}
