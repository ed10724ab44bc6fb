// Package search stores recruiters' saved candidate searches.
package search

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zulandar/jobyard/internal/models"
	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when a saved search does not exist.
	ErrNotFound = errors.New("search: not found")

	// ErrNotOwner is returned when a recruiter touches another recruiter's
	// search.
	ErrNotOwner = errors.New("search: not owned by recruiter")

	// ErrInvalid wraps input validation failures.
	ErrInvalid = errors.New("search: invalid")
)

// Criteria are the three match criteria of a search. An empty field is a
// wildcard.
type Criteria struct {
	Skill   string `json:"skill"`
	City    string `json:"city"`
	Project string `json:"project"`
}

// Normalize trims and lowercases every criterion.
func Normalize(c Criteria) Criteria {
	return Criteria{
		Skill:   strings.ToLower(strings.TrimSpace(c.Skill)),
		City:    strings.ToLower(strings.TrimSpace(c.City)),
		Project: strings.ToLower(strings.TrimSpace(c.Project)),
	}
}

// Of returns the criteria stored on a search.
func Of(s models.SavedSearch) Criteria {
	return Criteria{Skill: s.Skill, City: s.City, Project: s.Project}
}

// IsEmpty reports whether every criterion is a wildcard.
func (c Criteria) IsEmpty() bool {
	return c.Skill == "" && c.City == "" && c.Project == ""
}

// Create saves a search for a recruiter. Identical criteria may be saved
// more than once. Creating a search does not compute matches; those appear
// as candidates' profiles are recomputed.
func Create(db *gorm.DB, recruiterID uint, c Criteria) (*models.SavedSearch, error) {
	if recruiterID == 0 {
		return nil, fmt.Errorf("%w: recruiter ID is required", ErrInvalid)
	}
	c = Normalize(c)
	s := models.SavedSearch{
		RecruiterID: recruiterID,
		Skill:       c.Skill,
		City:        c.City,
		Project:     c.Project,
	}
	if err := db.Create(&s).Error; err != nil {
		return nil, fmt.Errorf("search: create: %w", err)
	}
	return &s, nil
}

// Get returns a saved search by ID.
func Get(db *gorm.DB, id uint) (*models.SavedSearch, error) {
	var s models.SavedSearch
	if err := db.Where("id = ?", id).First(&s).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
		}
		return nil, fmt.Errorf("search: get %d: %w", id, err)
	}
	return &s, nil
}

// List returns a recruiter's searches, newest first.
func List(db *gorm.DB, recruiterID uint) ([]models.SavedSearch, error) {
	var out []models.SavedSearch
	if err := db.Where("recruiter_id = ?", recruiterID).
		Order("created_at DESC, id DESC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("search: list for recruiter %d: %w", recruiterID, err)
	}
	return out, nil
}

// GetOwned returns a saved search only if recruiterID owns it.
func GetOwned(db *gorm.DB, recruiterID, id uint) (*models.SavedSearch, error) {
	s, err := Get(db, id)
	if err != nil {
		return nil, err
	}
	if s.RecruiterID != recruiterID {
		return nil, fmt.Errorf("%w: search %d", ErrNotOwner, id)
	}
	return s, nil
}

// Delete removes one of the recruiter's searches together with its matches.
func Delete(db *gorm.DB, recruiterID, id uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if _, err := GetOwned(tx, recruiterID, id); err != nil {
			return err
		}
		if err := tx.Where("search_id = ?", id).Delete(&models.Match{}).Error; err != nil {
			return fmt.Errorf("search: delete matches of %d: %w", id, err)
		}
		if err := tx.Delete(&models.SavedSearch{}, id).Error; err != nil {
			return fmt.Errorf("search: delete %d: %w", id, err)
		}
		return nil
	})
}

// FindExact returns the recruiter's searches whose criteria equal c after
// normalization.
func FindExact(db *gorm.DB, recruiterID uint, c Criteria) ([]models.SavedSearch, error) {
	c = Normalize(c)
	var out []models.SavedSearch
	if err := db.Where("recruiter_id = ? AND skill = ? AND city = ? AND project = ?",
		recruiterID, c.Skill, c.City, c.Project).Order("id ASC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("search: find exact for recruiter %d: %w", recruiterID, err)
	}
	return out, nil
}

// AllExcept returns every saved search not owned by userID.
func AllExcept(db *gorm.DB, userID uint) ([]models.SavedSearch, error) {
	var out []models.SavedSearch
	if err := db.Where("recruiter_id <> ?", userID).Order("id ASC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("search: list all except %d: %w", userID, err)
	}
	return out, nil
}
