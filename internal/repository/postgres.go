package repository

import (
	"context"
	"fmt"

	"github.com/TomiHiltunen/geohash-golang"
	"github.com/UnknownOlympus/locus/internal/models"
)

// GeohashPrecision is the length of the geohash stored next to every located profile (~150 m cells).
const GeohashPrecision = 7

// MaxGeocodingAttempts is how many times the backfill worker retries a profile.
const MaxGeocodingAttempts = 5

// InsertProfile stores a new profile and fills in its creation time.
// A profile without coordinates is stored as pending and picked up by the backfill worker.
func (r *Repository) InsertProfile(ctx context.Context, profile *models.Profile) error {
	query := `
		INSERT INTO profiles (
			id, full_name, city_or_zip, latitude, longitude, geohash,
			contact_type, contact_value, about_me, consent_to_share
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at;
	`

	lat, lng, hash := locationColumns(profile.Coordinates)

	var aboutMe *string
	if profile.AboutMe != "" {
		aboutMe = &profile.AboutMe
	}

	err := r.db.QueryRow(ctx, query,
		profile.ID, profile.FullName, profile.CityOrZip, lat, lng, hash,
		string(profile.ContactType), profile.ContactValue, aboutMe, profile.ConsentToShare,
	).Scan(&profile.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert profile: %w", err)
	}

	profile.Geohash = derefString(hash)
	r.log.DebugContext(ctx, "Profile stored", "ID", profile.ID, "pending", profile.Coordinates == nil)

	return nil
}

// FetchSharedProfiles returns every profile whose owner consented to be shown on the map,
// oldest first. Profiles still waiting for geocoding are included with nil coordinates.
//
// When cells is not empty only located profiles whose geohash starts with one
// of the given prefixes are returned. All prefixes must have the same length.
func (r *Repository) FetchSharedProfiles(ctx context.Context, cells []string) ([]models.Profile, error) {
	query := `
		SELECT id, full_name, city_or_zip, latitude, longitude,
			contact_type, contact_value, about_me, created_at
		FROM profiles
		WHERE consent_to_share = true
		ORDER BY created_at ASC, id ASC;
	`
	var args []any

	if len(cells) > 0 {
		query = `
		SELECT id, full_name, city_or_zip, latitude, longitude,
			contact_type, contact_value, about_me, created_at
		FROM profiles
		WHERE
			consent_to_share = true
			AND left(geohash, $1) = ANY($2)
		ORDER BY created_at ASC, id ASC;
	`
		args = []any{len(cells[0]), cells}
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query shared profiles: %w", err)
	}
	defer rows.Close()

	var profiles []models.Profile
	for rows.Next() {
		var (
			profile     models.Profile
			lat, lng    *float64
			contactType string
			aboutMe     *string
		)
		if errScan := rows.Scan(
			&profile.ID, &profile.FullName, &profile.CityOrZip, &lat, &lng,
			&contactType, &profile.ContactValue, &aboutMe, &profile.CreatedAt,
		); errScan != nil {
			return nil, fmt.Errorf("failed to scan shared profile: %w", errScan)
		}

		if lat != nil && lng != nil {
			profile.Coordinates = &models.Coordinates{Latitude: *lat, Longitude: *lng}
		}
		profile.ContactType = models.ContactType(contactType)
		profile.AboutMe = derefString(aboutMe)
		profile.ConsentToShare = true
		profiles = append(profiles, profile)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read row: %w", err)
	}

	return profiles, nil
}

// FetchProfilesForGeocoding retrieves profiles that still have no coordinates,
// have fewer than MaxGeocodingAttempts failed attempts and a non-empty location,
// ordered by creation date and limited to the specified count.
func (r *Repository) FetchProfilesForGeocoding(ctx context.Context, limit int) ([]models.Profile, error) {
	query := `
		SELECT id, city_or_zip
		FROM profiles
		WHERE
			latitude IS NULL
			AND geocoding_attempts < $1
			AND city_or_zip <> ''
		ORDER BY created_at ASC
		LIMIT $2;
	`

	rows, err := r.db.Query(ctx, query, MaxGeocodingAttempts, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending profiles: %w", err)
	}
	defer rows.Close()

	var profiles []models.Profile
	for rows.Next() {
		var profile models.Profile
		if errScan := rows.Scan(&profile.ID, &profile.CityOrZip); errScan != nil {
			return nil, fmt.Errorf("failed to scan pending profile: %w", errScan)
		}
		r.log.DebugContext(ctx, "A profile without coordinates has been received.",
			"ID", profile.ID, "location", profile.CityOrZip)
		profiles = append(profiles, profile)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read row: %w", err)
	}

	return profiles, nil
}

// UpdateProfileCoordinates stores the coordinates of a pending profile and clears its geocoding error.
func (r *Repository) UpdateProfileCoordinates(ctx context.Context, profileID string, coords models.Coordinates) error {
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

	hash := geohash.EncodeWithPrecision(coords.Latitude, coords.Longitude, GeohashPrecision)

	_, err := r.db.Exec(ctx, query, coords.Latitude, coords.Longitude, hash, profileID)
	if err != nil {
		return fmt.Errorf("failed to update profile coordinates: %w", err)
	}

	return nil
}

// IncrementFailureCount increments the geocoding attempt count for a profile
// and records the last error message.
func (r *Repository) IncrementFailureCount(ctx context.Context, profileID string, errMsg string) error {
	query := `
		UPDATE profiles
		SET
			geocoding_attempts = geocoding_attempts + 1,
			geocoding_error = $1
		WHERE id = $2;
	`

	_, err := r.db.Exec(ctx, query, errMsg, profileID)
	if err != nil {
		return fmt.Errorf("failed to update geocoding error and number of attempts: %w", err)
	}

	return nil
}

func locationColumns(coords *models.Coordinates) (*float64, *float64, *string) {
	if coords == nil {
		return nil, nil, nil
	}

	lat, lng := coords.Latitude, coords.Longitude
	hash := geohash.EncodeWithPrecision(lat, lng, GeohashPrecision)

	return &lat, &lng, &hash
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}

	return *s
}
