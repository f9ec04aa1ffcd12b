package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/UnknownOlympus/locus/internal/geocoding"
	"github.com/UnknownOlympus/locus/internal/models"
	"github.com/UnknownOlympus/locus/internal/service"
	"github.com/gin-gonic/gin"
)

// Directory is the service behind the HTTP API.
type Directory interface {
	Register(ctx context.Context, reg models.Registration) (*models.Profile, error)
	ResolveReference(ctx context.Context, req service.ReferenceRequest) (models.Coordinates, error)
	Nearby(ctx context.Context, query service.NearbyQuery) (*service.NearbyResult, error)
}

// Handler serves the directory endpoints.
type Handler struct {
	directory Directory
	log       *slog.Logger
}

func NewHandler(directory Directory, log *slog.Logger) *Handler {
	return &Handler{directory: directory, log: log}
}

type registrationResponse struct {
	*models.Profile
	Pending bool `json:"pending"`
}

// Register handles POST /v1/profiles
func (h *Handler) Register(c *gin.Context) {
	var reg models.Registration
	if err := c.ShouldBindJSON(&reg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	profile, err := h.directory.Register(c.Request.Context(), reg)
	if err != nil {
		h.fail(c, err, http.StatusUnprocessableEntity)
		return
	}

	status := http.StatusCreated
	if profile.Pending() {
		status = http.StatusAccepted
	}

	c.JSON(status, registrationResponse{Profile: profile, Pending: profile.Pending()})
}

// Geocode handles GET /v1/geocode?q= and GET /v1/geocode?lat=&lng=
// Passing q together with lat or lng is a bad request.
func (h *Handler) Geocode(c *gin.Context) {
	ref, err := referenceFromQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	coords, err := h.directory.ResolveReference(c.Request.Context(), ref)
	if err != nil {
		h.fail(c, err, http.StatusNotFound)
		return
	}

	c.JSON(http.StatusOK, coords)
}

// Nearby handles GET /v1/profiles/nearby?q=|lat=&lng=&radius=
// Passing q together with lat or lng is a bad request.
func (h *Handler) Nearby(c *gin.Context) {
	ref, err := referenceFromQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	query := service.NearbyQuery{Reference: ref}
	if query.Radius, err = floatParam(c, "radius"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.directory.Nearby(c.Request.Context(), query)
	if err != nil {
		h.fail(c, err, http.StatusUnprocessableEntity)
		return
	}

	c.JSON(http.StatusOK, result)
}

// fail writes the JSON error matching err. notFound is the status used for an unknown location.
func (h *Handler) fail(c *gin.Context, err error, notFound int) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, geocoding.ErrEmptyQuery):
		status = http.StatusBadRequest
	case errors.Is(err, geocoding.ErrNotFound):
		status = notFound
	case errors.Is(err, geocoding.ErrProviderUnavailable):
		status = http.StatusServiceUnavailable
	default:
		h.log.ErrorContext(c.Request.Context(), "Request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "service temporarily unavailable"})
		return
	}

	c.JSON(status, gin.H{"error": err.Error()})
}

func referenceFromQuery(c *gin.Context) (service.ReferenceRequest, error) {
	lat, err := floatParam(c, "lat")
	if err != nil {
		return service.ReferenceRequest{}, err
	}
	lng, err := floatParam(c, "lng")
	if err != nil {
		return service.ReferenceRequest{}, err
	}

	query := c.Query("q")
	if strings.TrimSpace(query) != "" && (lat != nil || lng != nil) {
		return service.ReferenceRequest{}, errors.New("q cannot be combined with lat and lng")
	}

	return service.ReferenceRequest{Query: query, Latitude: lat, Longitude: lng}, nil
}

func floatParam(c *gin.Context, name string) (*float64, error) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return nil, nil //nolint:nilnil // absent parameter
	}

	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s parameter: %q", name, raw)
	}

	return &value, nil
}
