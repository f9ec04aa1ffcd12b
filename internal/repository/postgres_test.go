package repository_test

import (
	"log/slog"
	"regexp"
	"testing"
	"time"

	"github.com/TomiHiltunen/geohash-golang"
	"github.com/UnknownOlympus/locus/internal/models"
	"github.com/UnknownOlympus/locus/internal/repository"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const insertProfileQuery = `
		INSERT INTO profiles (
			id, full_name, city_or_zip, latitude, longitude, geohash,
			contact_type, contact_value, about_me, consent_to_share
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at;
	`

const fetchSharedQuery = `
		SELECT id, full_name, city_or_zip, latitude, longitude,
			contact_type, contact_value, about_me, created_at
		FROM profiles
		WHERE consent_to_share = true
		ORDER BY created_at ASC, id ASC;
	`

const fetchSharedInCellsQuery = `
		SELECT id, full_name, city_or_zip, latitude, longitude,
			contact_type, contact_value, about_me, created_at
		FROM profiles
		WHERE
			consent_to_share = true
			AND left(geohash, $1) = ANY($2)
		ORDER BY created_at ASC, id ASC;
	`

const fetchPendingQuery = `
		SELECT id, city_or_zip
		FROM profiles
		WHERE
			latitude IS NULL
			AND geocoding_attempts < $1
			AND city_or_zip <> ''
		ORDER BY created_at ASC
		LIMIT $2;
	`

var sharedColumns = []string{
	"id", "full_name", "city_or_zip", "latitude", "longitude",
	"contact_type", "contact_value", "about_me", "created_at",
}

func ptr[T any](v T) *T { return &v }

func TestInsertProfile(t *testing.T) {
	t.Parallel()
	logger := slog.Default()
	ctx := t.Context()
	createdAt := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("success - located profile", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock, logger)
		profile := &models.Profile{
			ID:             "7d1f0a4e-3a52-4c83-9d0e-2f3c1c6f8a11",
			FullName:       "Jane Doe",
			CityOrZip:      "46220",
			Coordinates:    &models.Coordinates{Latitude: 39.8701, Longitude: -86.1102},
			ContactType:    models.ContactEmail,
			ContactValue:   "jane@example.com",
			AboutMe:        "Gardener",
			ConsentToShare: true,
		}
		hash := geohash.EncodeWithPrecision(39.8701, -86.1102, repository.GeohashPrecision)

		mock.ExpectQuery(regexp.QuoteMeta(insertProfileQuery)).
			WithArgs(profile.ID, "Jane Doe", "46220", ptr(39.8701), ptr(-86.1102), &hash,
				"email", "jane@example.com", ptr("Gardener"), true).
			WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(createdAt))

		err = repo.InsertProfile(ctx, profile)

		require.NoError(t, err)
		assert.Equal(t, createdAt, profile.CreatedAt)
		assert.Equal(t, hash, profile.Geohash)
		assert.Len(t, profile.Geohash, repository.GeohashPrecision)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success - pending profile stores nulls", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock, logger)
		profile := &models.Profile{
			ID:           "1b9d6bcd-bbfd-4b2d-9b5d-ab8dfbbd4bed",
			FullName:     "John Roe",
			CityOrZip:    "Muncie",
			ContactType:  models.ContactPhone,
			ContactValue: "555-0100",
		}

		mock.ExpectQuery(regexp.QuoteMeta(insertProfileQuery)).
			WithArgs(profile.ID, "John Roe", "Muncie", (*float64)(nil), (*float64)(nil), (*string)(nil),
				"phone", "555-0100", (*string)(nil), false).
			WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(createdAt))

		err = repo.InsertProfile(ctx, profile)

		require.NoError(t, err)
		assert.Empty(t, profile.Geohash)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("error - insert profile", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock, logger)

		mock.ExpectQuery(regexp.QuoteMeta(insertProfileQuery)).
			WithArgs("x", "", "", (*float64)(nil), (*float64)(nil), (*string)(nil),
				"other", "", (*string)(nil), false).
			WillReturnError(assert.AnError)

		err = repo.InsertProfile(ctx, &models.Profile{ID: "x", ContactType: models.ContactOther})

		require.Error(t, err)
		require.ErrorContains(t, err, "failed to insert profile")
		require.ErrorIs(t, err, assert.AnError)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestFetchSharedProfiles(t *testing.T) {
	t.Parallel()
	logger := slog.Default()
	ctx := t.Context()
	createdAt := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("error - query shared profiles", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock, logger)

		mock.ExpectQuery(regexp.QuoteMeta(fetchSharedQuery)).WillReturnError(assert.AnError)

		profiles, err := repo.FetchSharedProfiles(ctx, nil)

		require.Nil(t, profiles)
		require.ErrorContains(t, err, "failed to query shared profiles")
		require.ErrorIs(t, err, assert.AnError)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("error - scan shared profile", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock, logger)

		mock.ExpectQuery(regexp.QuoteMeta(fetchSharedQuery)).
			WillReturnRows(pgxmock.NewRows(sharedColumns).
				AddRow("id-1", "Jane", "46220", "not a number", ptr(-86.1), "email", "a@b.c", nil, createdAt))

		profiles, err := repo.FetchSharedProfiles(ctx, nil)

		require.Nil(t, profiles)
		require.ErrorContains(t, err, "failed to scan shared profile")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("error - rows error", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock, logger)

		mock.ExpectQuery(regexp.QuoteMeta(fetchSharedQuery)).
			WillReturnRows(pgxmock.NewRows(sharedColumns).
				AddRow("id-1", "Jane", "46220", ptr(39.87), ptr(-86.11), "email", "a@b.c", nil, createdAt).
				RowError(1, assert.AnError))

		profiles, err := repo.FetchSharedProfiles(ctx, nil)

		require.Nil(t, profiles)
		require.ErrorContains(t, err, "failed to read row")
		require.ErrorIs(t, err, assert.AnError)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success - located and pending profiles", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock, logger)

		mock.ExpectQuery(regexp.QuoteMeta(fetchSharedQuery)).
			WillReturnRows(pgxmock.NewRows(sharedColumns).
				AddRow("id-1", "Jane", "46220", ptr(39.87), ptr(-86.11), "email", "a@b.c", ptr("Gardener"), createdAt).
				AddRow("id-2", "John", "Muncie", nil, nil, "phone", "555-0100", nil, createdAt))

		profiles, err := repo.FetchSharedProfiles(ctx, nil)

		require.NoError(t, err)
		require.Len(t, profiles, 2)
		assert.Equal(t, &models.Coordinates{Latitude: 39.87, Longitude: -86.11}, profiles[0].Coordinates)
		assert.Equal(t, models.ContactEmail, profiles[0].ContactType)
		assert.Equal(t, "Gardener", profiles[0].AboutMe)
		assert.True(t, profiles[0].ConsentToShare)
		assert.Nil(t, profiles[1].Coordinates)
		assert.Empty(t, profiles[1].AboutMe)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success - filtered by geohash cells", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock, logger)
		cells := []string{"dp4", "dp5", "dp6"}

		mock.ExpectQuery(regexp.QuoteMeta(fetchSharedInCellsQuery)).
			WithArgs(3, cells).
			WillReturnRows(pgxmock.NewRows(sharedColumns).
				AddRow("id-1", "Jane", "46220", ptr(39.87), ptr(-86.11), "email", "a@b.c", nil, createdAt))

		profiles, err := repo.FetchSharedProfiles(ctx, cells)

		require.NoError(t, err)
		require.Len(t, profiles, 1)
		assert.Equal(t, "id-1", profiles[0].ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("error - query by geohash cells", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock, logger)

		mock.ExpectQuery(regexp.QuoteMeta(fetchSharedInCellsQuery)).
			WithArgs(1, []string{"d"}).
			WillReturnError(assert.AnError)

		profiles, err := repo.FetchSharedProfiles(ctx, []string{"d"})

		require.Nil(t, profiles)
		require.ErrorIs(t, err, assert.AnError)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestFetchProfilesForGeocoding(t *testing.T) {
	t.Parallel()
	logger := slog.Default()
	ctx := t.Context()
	limit := 10

	t.Run("error - query pending profiles", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock, logger)

		mock.ExpectQuery(regexp.QuoteMeta(fetchPendingQuery)).
			WithArgs(repository.MaxGeocodingAttempts, limit).
			WillReturnError(assert.AnError)

		profiles, err := repo.FetchProfilesForGeocoding(ctx, limit)

		require.Nil(t, profiles)
		require.ErrorContains(t, err, "failed to query pending profiles")
		require.ErrorIs(t, err, assert.AnError)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("error - scan pending profile", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock, logger)

		mock.ExpectQuery(regexp.QuoteMeta(fetchPendingQuery)).
			WithArgs(repository.MaxGeocodingAttempts, limit).
			WillReturnRows(pgxmock.NewRows([]string{"id", "city_or_zip"}).AddRow("id-7", 46.5))

		profiles, err := repo.FetchProfilesForGeocoding(ctx, limit)

		require.Nil(t, profiles)
		require.ErrorContains(t, err, "failed to scan pending profile")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success - fetch pending profiles", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock, logger)

		mock.ExpectQuery(regexp.QuoteMeta(fetchPendingQuery)).
			WithArgs(repository.MaxGeocodingAttempts, limit).
			WillReturnRows(pgxmock.NewRows([]string{"id", "city_or_zip"}).AddRow("id-7", "Muncie"))

		profiles, err := repo.FetchProfilesForGeocoding(ctx, limit)

		require.NoError(t, err)
		require.Len(t, profiles, 1)
		assert.Equal(t, "id-7", profiles[0].ID)
		assert.Equal(t, "Muncie", profiles[0].CityOrZip)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUpdateProfileCoordinates(t *testing.T) {
	t.Parallel()
	logger := slog.Default()
	ctx := t.Context()
	profileID := "id-7"
	coords := models.Coordinates{Latitude: 40.1934, Longitude: -85.3864}
	hash := geohash.EncodeWithPrecision(coords.Latitude, coords.Longitude, repository.GeohashPrecision)
	query := `
		UPDATE profiles
		SET
			latitude = $1,
			longitude = $2,
			geohash = $3,
			geocoding_error = NULL
		WHERE
			id = $4;
	`

	t.Run("error - update profile coords", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock, logger)

		mock.ExpectExec(regexp.QuoteMeta(query)).WithArgs(coords.Latitude, coords.Longitude, hash, profileID).
			WillReturnError(assert.AnError)

		err = repo.UpdateProfileCoordinates(ctx, profileID, coords)

		require.ErrorContains(t, err, "failed to update profile coordinates")
		require.ErrorIs(t, err, assert.AnError)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success - update profile coords", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock, logger)

		mock.ExpectExec(regexp.QuoteMeta(query)).WithArgs(coords.Latitude, coords.Longitude, hash, profileID).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		err = repo.UpdateProfileCoordinates(ctx, profileID, coords)

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestIncrementFailureCount(t *testing.T) {
	t.Parallel()
	logger := slog.Default()
	ctx := t.Context()
	profileID := "id-7"
	query := `
		UPDATE profiles
		SET
			geocoding_attempts = geocoding_attempts + 1,
			geocoding_error = $1
		WHERE id = $2;
	`

	t.Run("error - increment failure count", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock, logger)

		mock.ExpectExec(regexp.QuoteMeta(query)).WithArgs("location not found", profileID).
			WillReturnError(assert.AnError)

		err = repo.IncrementFailureCount(ctx, profileID, "location not found")

		require.ErrorContains(t, err, "failed to update geocoding error and number of attempts")
		require.ErrorIs(t, err, assert.AnError)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success - increment failure count", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock, logger)

		mock.ExpectExec(regexp.QuoteMeta(query)).WithArgs("location not found", profileID).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		err = repo.IncrementFailureCount(ctx, profileID, "location not found")

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestMigrate(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	t.Run("error - apply schema", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock, slog.Default())

		mock.ExpectExec("CREATE TABLE IF NOT EXISTS profiles").WillReturnError(assert.AnError)

		err = repo.Migrate(ctx)

		require.ErrorContains(t, err, "failed to apply schema")
		require.ErrorIs(t, err, assert.AnError)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success - apply schema", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock, slog.Default())

		mock.ExpectExec("CREATE TABLE IF NOT EXISTS profiles").WillReturnResult(pgxmock.NewResult("CREATE", 0))

		err = repo.Migrate(ctx)

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
