package models

import "time"

// Profile privacy and account type values.
const (
	PrivacyPublic  = "public"
	PrivacyPrivate = "private"

	UserTypeSeeker    = "user"
	UserTypeRecruiter = "recruiter"
)

// UserProfile holds the profile fields a user edits. Skills and Projects are
// free-form comma-separated text.
type UserProfile struct {
	ID        uint    `gorm:"primaryKey;autoIncrement"`
	UserID    uint    `gorm:"not null;uniqueIndex"`
	UserType  string  `gorm:"size:10;default:user"`
	Email     string  `gorm:"size:255"`
	Bio       string  `gorm:"type:text"`
	Skills    string  `gorm:"type:text"`
	Projects  string  `gorm:"type:text"`
	City      *string `gorm:"size:255"`
	Latitude  *float64
	Longitude *float64
	Privacy   string `gorm:"size:10;default:private;index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
