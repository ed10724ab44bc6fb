package models

import "time"

// SavedSearch is a recruiter's stored match criteria. An empty criterion is
// a wildcard. Identical criteria may be saved more than once.
type SavedSearch struct {
	ID          uint   `gorm:"primaryKey;autoIncrement"`
	RecruiterID uint   `gorm:"not null;index:idx_search_recruiter_criteria"`
	Skill       string `gorm:"size:255;index:idx_search_recruiter_criteria"`
	City        string `gorm:"size:255;index:idx_search_recruiter_criteria"`
	Project     string `gorm:"size:255;index:idx_search_recruiter_criteria"`
	CreatedAt   time.Time

	Matches []Match `gorm:"foreignKey:SearchID;constraint:OnDelete:CASCADE"`
}

// Match is a derived link between a saved search and a candidate that
// currently satisfies it. At most one row exists per (search, candidate).
type Match struct {
	ID          uint `gorm:"primaryKey;autoIncrement"`
	SearchID    uint `gorm:"not null;uniqueIndex:idx_match_search_candidate"`
	CandidateID uint `gorm:"not null;uniqueIndex:idx_match_search_candidate;index"`
	Seen        bool `gorm:"default:false;index"`
	CreatedAt   time.Time
}
