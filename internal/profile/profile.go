// Package profile projects user profiles into the normalized candidate view
// used for matching, and saves profile edits.
package profile

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zulandar/jobyard/internal/models"
	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when a user has no profile.
	ErrNotFound = errors.New("profile: not found")

	// ErrCandidateNotPublic is returned by LoadPublic for private profiles.
	ErrCandidateNotPublic = errors.New("profile: candidate profile is not public")

	// ErrInvalid wraps input validation failures.
	ErrInvalid = errors.New("profile: invalid")
)

// CandidateProfile is the matching-relevant subset of a profile. All text
// is lowercased. SkillText and ProjectText keep the original comma-joined
// text so that criteria match as substrings across token boundaries.
type CandidateProfile struct {
	UserID      uint
	Skills      []string
	Projects    []string
	SkillText   string
	ProjectText string
	City        string
	Public      bool
}

// Project normalizes a stored profile.
func Project(p models.UserProfile) CandidateProfile {
	c := CandidateProfile{
		UserID:      p.UserID,
		Skills:      tokens(p.Skills),
		Projects:    tokens(p.Projects),
		SkillText:   strings.ToLower(p.Skills),
		ProjectText: strings.ToLower(p.Projects),
		Public:      p.Privacy == models.PrivacyPublic,
	}
	if p.City != nil {
		c.City = strings.ToLower(strings.TrimSpace(*p.City))
	}
	return c
}

// tokens splits comma-separated text into trimmed lowercase items.
func tokens(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.ToLower(strings.TrimSpace(part)); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// Get returns the stored profile for a user.
func Get(db *gorm.DB, userID uint) (*models.UserProfile, error) {
	var p models.UserProfile
	result := db.Where("user_id = ?", userID).Limit(1).Find(&p)
	if result.Error != nil {
		return nil, fmt.Errorf("profile: get user %d: %w", userID, result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: user %d", ErrNotFound, userID)
	}
	return &p, nil
}

// Load returns the candidate projection of a user's profile, public or not.
func Load(db *gorm.DB, userID uint) (*CandidateProfile, error) {
	p, err := Get(db, userID)
	if err != nil {
		return nil, err
	}
	c := Project(*p)
	return &c, nil
}

// LoadPublic is Load restricted to public profiles.
func LoadPublic(db *gorm.DB, userID uint) (*CandidateProfile, error) {
	c, err := Load(db, userID)
	if err != nil {
		return nil, err
	}
	if !c.Public {
		return nil, fmt.Errorf("%w: user %d", ErrCandidateNotPublic, userID)
	}
	return c, nil
}

// ListPublic returns the projections of every public profile, ordered by
// user ID.
func ListPublic(db *gorm.DB) ([]CandidateProfile, error) {
	var rows []models.UserProfile
	if err := db.Where("privacy = ?", models.PrivacyPublic).Order("user_id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("profile: list public: %w", err)
	}
	out := make([]CandidateProfile, 0, len(rows))
	for _, r := range rows {
		out = append(out, Project(r))
	}
	return out, nil
}
