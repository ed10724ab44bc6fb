package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/zulandar/jobyard/internal/geocode"
	"github.com/zulandar/jobyard/internal/models"
	"gorm.io/gorm"
)

// Update carries profile edits. Nil fields are left unchanged; an empty
// City clears the city and its coordinates.
type Update struct {
	UserType *string // applied only when the profile is created
	Email    *string
	Bio      *string
	Skills   *string
	Projects *string
	City     *string
	Privacy  *string
}

// SaveResult is the outcome of Save.
type SaveResult struct {
	Profile *models.UserProfile
	Created bool
	// GeocodeErr is set when the city could not be geocoded. The profile
	// is saved regardless.
	GeocodeErr error
}

// Save creates or updates a user's profile. When a city is set and
// coordinates are missing or the city changed, the geocoder is asked for
// them. Callers must recompute the candidate's matches afterwards.
func Save(ctx context.Context, db *gorm.DB, userID uint, u Update, g geocode.Geocoder) (*SaveResult, error) {
	if userID == 0 {
		return nil, fmt.Errorf("%w: user ID is required", ErrInvalid)
	}
	if u.Privacy != nil && *u.Privacy != models.PrivacyPublic && *u.Privacy != models.PrivacyPrivate {
		return nil, fmt.Errorf("%w: privacy must be %q or %q, got %q", ErrInvalid, models.PrivacyPublic, models.PrivacyPrivate, *u.Privacy)
	}
	if u.UserType != nil && *u.UserType != models.UserTypeSeeker && *u.UserType != models.UserTypeRecruiter {
		return nil, fmt.Errorf("%w: user type must be %q or %q, got %q", ErrInvalid, models.UserTypeSeeker, models.UserTypeRecruiter, *u.UserType)
	}

	db = db.WithContext(ctx)
	res := &SaveResult{}

	p, err := Get(db, userID)
	switch {
	case err == nil:
	case errors.Is(err, ErrNotFound):
		p = &models.UserProfile{UserID: userID, UserType: models.UserTypeSeeker, Privacy: models.PrivacyPrivate}
		if u.UserType != nil {
			p.UserType = *u.UserType
		}
		res.Created = true
	default:
		return nil, err
	}

	if u.Email != nil {
		p.Email = strings.TrimSpace(*u.Email)
	}
	if u.Bio != nil {
		p.Bio = *u.Bio
	}
	if u.Skills != nil {
		p.Skills = *u.Skills
	}
	if u.Projects != nil {
		p.Projects = *u.Projects
	}
	if u.Privacy != nil {
		p.Privacy = *u.Privacy
	}
	if u.City != nil {
		city := strings.TrimSpace(*u.City)
		if !sameCity(p.City, city) {
			p.Latitude, p.Longitude = nil, nil
		}
		if city == "" {
			p.City = nil
		} else {
			p.City = &city
		}
	}

	if p.City != nil && (p.Latitude == nil || p.Longitude == nil) && g != nil {
		lat, lng, err := g.Geocode(ctx, *p.City)
		if err != nil {
			res.GeocodeErr = err
		} else {
			p.Latitude, p.Longitude = &lat, &lng
		}
	}

	if err := db.Save(p).Error; err != nil {
		return nil, fmt.Errorf("profile: save user %d: %w", userID, err)
	}
	res.Profile = p
	return res, nil
}

func sameCity(old *string, city string) bool {
	if old == nil {
		return city == ""
	}
	return strings.EqualFold(*old, city)
}
