package repository

import (
	"context"
	"log/slog"

	"github.com/UnknownOlympus/locus/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Database is the subset of pgxpool.Pool the repository needs. pgxmock pools satisfy it too.
type Database interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Repository struct {
	db  Database
	log *slog.Logger
}

type Interface interface {
	InsertProfile(ctx context.Context, profile *models.Profile) error
	FetchSharedProfiles(ctx context.Context, cells []string) ([]models.Profile, error)
	FetchProfilesForGeocoding(ctx context.Context, limit int) ([]models.Profile, error)
	UpdateProfileCoordinates(ctx context.Context, profileID string, coords models.Coordinates) error
	IncrementFailureCount(ctx context.Context, profileID string, errMsg string) error
}

// NewRepository creates a new instance of Repository with the provided Database.
// It returns a pointer to the newly created Repository.
func NewRepository(db Database, log *slog.Logger) *Repository {
	return &Repository{db: db, log: log}
}
