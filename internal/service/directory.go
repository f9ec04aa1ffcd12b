package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/UnknownOlympus/locus/internal/events"
	"github.com/UnknownOlympus/locus/internal/geo"
	"github.com/UnknownOlympus/locus/internal/geocoding"
	"github.com/UnknownOlympus/locus/internal/metrics"
	"github.com/UnknownOlympus/locus/internal/models"
	"github.com/UnknownOlympus/locus/internal/repository"
	"github.com/google/uuid"
)

const (
	// DefaultRadiusMiles is used when a nearby query does not name a radius.
	DefaultRadiusMiles = 50.0
	// MaxRadiusMiles is the largest radius a nearby query may ask for.
	MaxRadiusMiles = 500.0
)

// ErrInvalidInput wraps every validation failure of a request.
var ErrInvalidInput = errors.New("invalid input")

// Geocoder resolves location text to coarse coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, query string) (models.Coordinates, error)
	GeocodeWithOffset(ctx context.Context, query, subjectID string) (models.Coordinates, error)
	Quantize(coords models.Coordinates) models.Coordinates
}

// ReferenceRequest names the point a nearby search is centered on: either
// location text or a device position. An empty request means no reference.
type ReferenceRequest struct {
	Query     string
	Latitude  *float64
	Longitude *float64
}

// Empty reports whether the request carries neither text nor a position.
func (r ReferenceRequest) Empty() bool {
	return strings.TrimSpace(r.Query) == "" && r.Latitude == nil && r.Longitude == nil
}

// NearbyQuery selects the directory entries shown on the map.
type NearbyQuery struct {
	Reference ReferenceRequest
	Radius    *float64 // miles; nil selects DefaultRadiusMiles
}

// NearbyResult is the answer of a nearby query.
type NearbyResult struct {
	Reference *models.Coordinates     `json:"reference,omitempty"`
	Radius    float64                 `json:"radius_miles"`
	Entries   []models.DirectoryEntry `json:"entries"`
}

// DirectoryService registers community members and answers map queries.
// It also runs the backfill loop that locates profiles stored while the
// geocoding provider was unavailable.
type DirectoryService struct {
	log            *slog.Logger
	repo           repository.Interface
	geocoder       Geocoder
	publisher      events.Publisher
	metrics        *metrics.Metrics
	numWorkers     int
	pollInterval   time.Duration
	quantizeDevice bool
	newID          func() string
}

// NewDirectoryService creates a new instance of DirectoryService.
// quantizeDevice controls whether device positions are coarsened like geocoded ones.
func NewDirectoryService(
	log *slog.Logger,
	repo repository.Interface,
	geocoder Geocoder,
	publisher events.Publisher,
	metrics *metrics.Metrics,
	numWorkers int,
	pollInterval time.Duration,
	quantizeDevice bool,
) *DirectoryService {
	if publisher == nil {
		publisher = events.Noop{}
	}

	return &DirectoryService{
		log:            log,
		repo:           repo,
		geocoder:       geocoder,
		publisher:      publisher,
		metrics:        metrics,
		numWorkers:     numWorkers,
		pollInterval:   pollInterval,
		quantizeDevice: quantizeDevice,
		newID:          uuid.NewString,
	}
}

// Register validates a registration, locates it and stores the profile.
// An unknown location rejects the registration. When the provider is unavailable
// the profile is stored without coordinates and located later by Run.
func (ds *DirectoryService) Register(ctx context.Context, reg models.Registration) (*models.Profile, error) {
	reg.FullName = strings.TrimSpace(reg.FullName)
	reg.CityOrZip = strings.TrimSpace(reg.CityOrZip)
	reg.ContactValue = strings.TrimSpace(reg.ContactValue)
	reg.AboutMe = strings.TrimSpace(reg.AboutMe)

	if err := reg.Validate(); err != nil {
		ds.metrics.Registrations.WithLabelValues("invalid").Inc()
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	profile := &models.Profile{
		ID:             ds.newID(),
		FullName:       reg.FullName,
		CityOrZip:      reg.CityOrZip,
		ContactType:    reg.ContactType,
		ContactValue:   reg.ContactValue,
		AboutMe:        reg.AboutMe,
		ConsentToShare: reg.ConsentToShare,
	}

	coords, err := ds.geocoder.GeocodeWithOffset(ctx, reg.CityOrZip, profile.ID)
	switch {
	case errors.Is(err, geocoding.ErrProviderUnavailable):
		ds.log.WarnContext(ctx, "Provider unavailable, storing profile as pending", "ID", profile.ID, "error", err)
	case err != nil:
		ds.metrics.Registrations.WithLabelValues("rejected").Inc()
		return nil, err
	default:
		profile.Coordinates = &coords
	}

	if err = ds.repo.InsertProfile(ctx, profile); err != nil {
		ds.metrics.Registrations.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("failed to store profile: %w", err)
	}

	status := "located"
	if profile.Pending() {
		status = "pending"
	}
	ds.metrics.Registrations.WithLabelValues(status).Inc()
	ds.log.InfoContext(ctx, "Profile registered", "ID", profile.ID, "status", status)

	if err = ds.publisher.PublishRegistered(ctx, *profile); err != nil {
		ds.log.ErrorContext(ctx, "Failed to publish registration event", "ID", profile.ID, "error", err)
	}

	return profile, nil
}

// ResolveReference turns a reference request into a coordinate. Location text
// is geocoded; a device position is validated and, unless disabled, quantized
// with the geocoder's precision. A request carrying both is rejected with
// ErrInvalidInput.
func (ds *DirectoryService) ResolveReference(ctx context.Context, req ReferenceRequest) (models.Coordinates, error) {
	if req.Latitude == nil && req.Longitude == nil {
		return ds.geocoder.Geocode(ctx, req.Query)
	}

	if strings.TrimSpace(req.Query) != "" {
		return models.Coordinates{}, fmt.Errorf("%w: give either location text or a device location, not both",
			ErrInvalidInput)
	}

	if req.Latitude == nil || req.Longitude == nil {
		return models.Coordinates{}, fmt.Errorf("%w: both latitude and longitude are required", ErrInvalidInput)
	}

	coords := models.Coordinates{Latitude: *req.Latitude, Longitude: *req.Longitude}
	if !coords.Valid() {
		return models.Coordinates{}, fmt.Errorf("%w: device location %v, %v is out of range",
			ErrInvalidInput, coords.Latitude, coords.Longitude)
	}

	if ds.quantizeDevice {
		coords = ds.geocoder.Quantize(coords)
	}

	return coords, nil
}

// Nearby returns the consenting profiles around the reference as spread markers.
// Without a reference every located profile is returned. With one, the
// repository is narrowed to the geohash cells covering the radius and the
// exact cut is made by distance.
func (ds *DirectoryService) Nearby(ctx context.Context, query NearbyQuery) (*NearbyResult, error) {
	radius := DefaultRadiusMiles
	if query.Radius != nil {
		radius = *query.Radius
	}
	if math.IsNaN(radius) || radius < 0 || radius > MaxRadiusMiles {
		return nil, fmt.Errorf("%w: radius must be between 0 and %v miles", ErrInvalidInput, MaxRadiusMiles)
	}

	result := &NearbyResult{Radius: radius, Entries: []models.DirectoryEntry{}}

	if !query.Reference.Empty() {
		reference, err := ds.ResolveReference(ctx, query.Reference)
		if err != nil {
			return nil, err
		}
		result.Reference = &reference
	}

	var cells []string
	if result.Reference != nil {
		cells = geo.CoveringPrefixes(*result.Reference, radius)
	}

	profiles, err := ds.repo.FetchSharedProfiles(ctx, cells)
	if err != nil {
		return nil, fmt.Errorf("failed to load profiles: %w", err)
	}

	byID := make(map[string]models.Profile, len(profiles))
	candidates := make([]models.Candidate, 0, len(profiles))
	for _, profile := range profiles {
		byID[profile.ID] = profile
		candidates = append(candidates, profile.Candidate())
	}

	if result.Reference != nil {
		candidates = geo.WithinRadius(*result.Reference, radius, candidates)
	}

	for _, marker := range geo.Spread(geo.GroupByCoordinates(candidates)) {
		profile := byID[marker.ID]
		result.Entries = append(result.Entries, models.DirectoryEntry{
			Marker:    marker,
			FullName:  profile.FullName,
			CityOrZip: profile.CityOrZip,
			Contact:   profile.ContactType.Format(profile.ContactValue),
			AboutMe:   profile.AboutMe,
		})
	}

	ds.metrics.NearbyMarkers.Observe(float64(len(result.Entries)))
	ds.log.DebugContext(ctx, "Nearby query answered",
		"profiles", len(profiles), "markers", len(result.Entries), "radius", radius)

	return result, nil
}
