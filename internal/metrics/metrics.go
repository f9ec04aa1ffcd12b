package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	GeocodeRequests   *prometheus.CounterVec
	APIErrors         prometheus.Counter
	RequestSeconds    *prometheus.HistogramVec
	CacheLookups      *prometheus.CounterVec
	Registrations     *prometheus.CounterVec
	NearbyMarkers     prometheus.Histogram
	BackfillProcessed *prometheus.CounterVec
	ActiveWorkers     prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		GeocodeRequests: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "locus_geocode_requests_total",
			Help: "Total number of geocode lookups by outcome.",
		}, []string{"outcome"}),
		APIErrors: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "locus_geocoding_provider_api_errors_total",
			Help: "Total number of errors received from the geocoding provider API.",
		}),
		RequestSeconds: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "locus_geocoding_provider_request_duration_seconds",
			Help:    "Duration of requests to the geocoding provider API.",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider"}),
		CacheLookups: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "locus_geocode_cache_lookups_total",
			Help: "Total number of geocode cache lookups by result.",
		}, []string{"result"}),
		Registrations: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "locus_registrations_total",
			Help: "Total number of profile registrations by status.",
		}, []string{"status"}),
		NearbyMarkers: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "locus_nearby_markers",
			Help:    "Number of markers returned by a nearby query.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}),
		BackfillProcessed: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "locus_backfill_profiles_processed_total",
			Help: "Total number of pending profiles processed by the backfill worker.",
		}, []string{"status"}),
		ActiveWorkers: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "locus_backfill_active_workers",
			Help: "Current number of active workers geocoding pending profiles.",
		}),
	}
}
