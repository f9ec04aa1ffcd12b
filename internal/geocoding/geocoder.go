package geocoding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/UnknownOlympus/locus/internal/geo"
	"github.com/UnknownOlympus/locus/internal/metrics"
	"github.com/UnknownOlympus/locus/internal/models"
)

// Lookup outcomes surfaced to callers of Geocoder.
var (
	// ErrEmptyQuery is returned for a blank location text.
	ErrEmptyQuery = errors.New("location query is empty")
	// ErrNotFound is returned when no place matched the query. It is a normal outcome.
	ErrNotFound = errors.New("location not found")
	// ErrProviderUnavailable is returned when the provider could not be reached or answered garbage.
	ErrProviderUnavailable = errors.New("geocoding provider unavailable")
)

// Cache stores quantized lookups keyed by the qualified query text.
// Get returns nil without an error on a miss.
type Cache interface {
	Get(ctx context.Context, key string) (*models.Coordinates, error)
	Set(ctx context.Context, key string, coords models.Coordinates) error
}

// GeocoderConfig holds the privacy and dispatch settings of a Geocoder.
type GeocoderConfig struct {
	ProviderName string // Provider name for metrics labeling
	Qualifier    string // Region suffix appended to every query, e.g. ", Indiana, USA"
	Precision    int    // Decimal places kept from a provider result
	Cache        Cache  // Optional lookup cache
}

// Geocoder resolves free text to a coarse coordinate. Every coordinate it
// returns has been quantized; the provider's precise answer never leaves it.
type Geocoder struct {
	provider     Provider
	providerName string
	qualifier    string
	precision    int
	cache        Cache
	metrics      *metrics.Metrics
	log          *slog.Logger
}

// NewGeocoder wraps provider with region qualification, quantization and caching.
// A precision below 1 selects geo.GeocodePrecision.
func NewGeocoder(provider Provider, cfg GeocoderConfig, metrics *metrics.Metrics, log *slog.Logger) *Geocoder {
	if cfg.Precision < 1 {
		cfg.Precision = geo.GeocodePrecision
	}

	return &Geocoder{
		provider:     provider,
		providerName: cfg.ProviderName,
		qualifier:    cfg.Qualifier,
		precision:    cfg.Precision,
		cache:        cfg.Cache,
		metrics:      metrics,
		log:          log,
	}
}

// Geocode returns the quantized coordinate of the best match for query.
// It fails with ErrEmptyQuery, ErrNotFound or ErrProviderUnavailable.
func (g *Geocoder) Geocode(ctx context.Context, query string) (models.Coordinates, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		g.metrics.GeocodeRequests.WithLabelValues("invalid").Inc()
		return models.Coordinates{}, ErrEmptyQuery
	}

	qualified := query + g.qualifier

	if coords, ok := g.cached(ctx, qualified); ok {
		g.metrics.GeocodeRequests.WithLabelValues("success").Inc()
		return coords, nil
	}

	startTime := time.Now()
	raw, err := g.provider.Geocode(ctx, qualified)
	g.metrics.RequestSeconds.WithLabelValues(g.providerName).Observe(time.Since(startTime).Seconds())

	if err == nil && (raw == nil || !raw.Valid()) {
		err = ErrInvalidCoords
	}

	switch {
	case errors.Is(err, ErrNoResults):
		g.log.DebugContext(ctx, "No place matched the query", "query", qualified)
		g.metrics.GeocodeRequests.WithLabelValues("not_found").Inc()
		return models.Coordinates{}, fmt.Errorf("%w: %q", ErrNotFound, query)
	case err != nil:
		g.log.ErrorContext(ctx, "Geocoding provider failed", "query", qualified, "error", err)
		g.metrics.GeocodeRequests.WithLabelValues("unavailable").Inc()
		g.metrics.APIErrors.Inc()
		return models.Coordinates{}, fmt.Errorf("%w: %w", ErrProviderUnavailable, err)
	}

	coords := g.Quantize(*raw)
	g.store(ctx, qualified, coords)
	g.metrics.GeocodeRequests.WithLabelValues("success").Inc()

	return coords, nil
}

// GeocodeWithOffset geocodes query, moves the result by the deterministic
// offset of subjectID and re-quantizes it to geo.StoragePrecision.
func (g *Geocoder) GeocodeWithOffset(ctx context.Context, query, subjectID string) (models.Coordinates, error) {
	base, err := g.Geocode(ctx, query)
	if err != nil {
		return models.Coordinates{}, err
	}

	return geo.Quantize(geo.Offset(subjectID, base), geo.StoragePrecision), nil
}

// Quantize applies the geocoder's precision policy to a coordinate obtained elsewhere.
func (g *Geocoder) Quantize(coords models.Coordinates) models.Coordinates {
	return geo.Quantize(coords, g.precision)
}

func (g *Geocoder) cached(ctx context.Context, key string) (models.Coordinates, bool) {
	if g.cache == nil {
		return models.Coordinates{}, false
	}

	coords, err := g.cache.Get(ctx, key)
	switch {
	case err != nil:
		g.log.WarnContext(ctx, "Geocode cache lookup failed", "key", key, "error", err)
		g.metrics.CacheLookups.WithLabelValues("error").Inc()
		return models.Coordinates{}, false
	case coords == nil:
		g.metrics.CacheLookups.WithLabelValues("miss").Inc()
		return models.Coordinates{}, false
	}

	g.metrics.CacheLookups.WithLabelValues("hit").Inc()

	return g.Quantize(*coords), true
}

func (g *Geocoder) store(ctx context.Context, key string, coords models.Coordinates) {
	if g.cache == nil {
		return
	}

	if err := g.cache.Set(ctx, key, coords); err != nil {
		g.log.WarnContext(ctx, "Failed to store geocode result in cache", "key", key, "error", err)
	}
}
