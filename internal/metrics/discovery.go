package metrics

import "github.com/prometheus/client_golang/prometheus"

// Domain counters.
var (
	PhotoIngestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "storefinder",
			Name:      "photo_ingest_total",
			Help:      "Photo uploads by outcome",
		},
		[]string{"result"}, // stored / skipped / unsupported / too_large / decode_error / encode_error / persist_error
	)

	PageRedirectsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "storefinder",
			Name:      "page_redirects_total",
			Help:      "Listing requests redirected to the last page",
		},
	)

	CacheRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "storefinder",
			Name:      "cache_requests_total",
			Help:      "Query cache hits and misses",
		},
		[]string{"query", "result"}, // result: hit / miss / error
	)

	HeartTogglesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "storefinder",
			Name:      "heart_toggles_total",
			Help:      "Heart toggles by resulting state",
		},
		[]string{"state"}, // hearted / unhearted
	)
)

func init() {
	prometheus.MustRegister(PhotoIngestTotal, PageRedirectsTotal, CacheRequestsTotal, HeartTogglesTotal)
}
