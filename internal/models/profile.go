package models

import (
	"errors"
	"fmt"
	"time"
)

// ContactType is the method a registrant chose to be reached by.
type ContactType string

const (
	ContactEmail    ContactType = "email"
	ContactPhone    ContactType = "phone"
	ContactFacebook ContactType = "facebook"
	ContactOther    ContactType = "other"
)

// Valid reports whether the contact type belongs to the fixed enumeration.
func (ct ContactType) Valid() bool {
	switch ct {
	case ContactEmail, ContactPhone, ContactFacebook, ContactOther:
		return true
	default:
		return false
	}
}

// Format renders a contact value for display.
func (ct ContactType) Format(value string) string {
	switch ct {
	case ContactEmail:
		return "Email: " + value
	case ContactPhone:
		return "Phone: " + value
	case ContactFacebook:
		return "Facebook: " + value
	default:
		return value
	}
}

// Profile is a registrant record as kept by the profile store.
// Coordinates is nil while the location is still waiting for geocoding.
type Profile struct {
	ID                string       `json:"id"`
	FullName          string       `json:"full_name"`
	CityOrZip         string       `json:"city_or_zip"`
	Coordinates       *Coordinates `json:"coordinates,omitempty"`
	Geohash           string       `json:"-"`
	ContactType       ContactType  `json:"contact_type"`
	ContactValue      string       `json:"contact_value"`
	AboutMe           string       `json:"about_me,omitempty"`
	ConsentToShare    bool         `json:"consent_to_share"`
	GeocodingAttempts int          `json:"-"`
	CreatedAt         time.Time    `json:"created_at"`
}

// Candidate returns the profile as a proximity candidate.
func (p Profile) Candidate() Candidate {
	return Candidate{ID: p.ID, Coordinates: p.Coordinates}
}

// Registration is the input of a new profile.
type Registration struct {
	FullName       string      `json:"full_name"        binding:"required"`
	CityOrZip      string      `json:"city_or_zip"      binding:"required"`
	ContactType    ContactType `json:"contact_type"     binding:"required"`
	ContactValue   string      `json:"contact_value"    binding:"required"`
	AboutMe        string      `json:"about_me"`
	ConsentToShare bool        `json:"consent_to_share"`
}

// Validate checks the fields the store requires.
func (r Registration) Validate() error {
	switch {
	case r.FullName == "":
		return errors.New("full name is required")
	case r.CityOrZip == "":
		return errors.New("city or ZIP code is required")
	case !r.ContactType.Valid():
		return fmt.Errorf("unsupported contact type %q", r.ContactType)
	case r.ContactValue == "":
		return errors.New("contact value is required")
	}

	return nil
}

// DirectoryEntry is a marker joined with the fields shown in its popup.
type DirectoryEntry struct {
	Marker
	FullName  string `json:"full_name"`
	CityOrZip string `json:"city_or_zip"`
	Contact   string `json:"contact"`
	AboutMe   string `json:"about_me,omitempty"`
}

// Pending reports whether the profile is still waiting for geocoding.
func (p Profile) Pending() bool {
	return p.Coordinates == nil
}
