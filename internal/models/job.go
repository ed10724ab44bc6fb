package models

import "time"

// Job is a posted position. Listing CRUD lives outside this module; the
// pipeline only needs the row to hang stages and applications from.
type Job struct {
	ID              uint   `gorm:"primaryKey;autoIncrement"`
	Title           string `gorm:"size:255;not null"`
	Company         string `gorm:"size:255;not null"`
	Location        string `gorm:"size:255"`
	Latitude        *float64
	Longitude       *float64
	Description     string `gorm:"type:text"`
	Requirements    string `gorm:"type:text"`
	SalaryRange     string `gorm:"size:100"`
	JobType         string `gorm:"size:20;default:full_time"`
	ExperienceLevel string `gorm:"size:20;default:mid"`
	Active          bool   `gorm:"default:true;index"`
	PostedAt        time.Time

	Stages       []Stage       `gorm:"foreignKey:JobID"`
	Applications []Application `gorm:"foreignKey:JobID"`
}

// Application links an applicant to a job. One per (job, applicant).
type Application struct {
	ID          uint   `gorm:"primaryKey;autoIncrement"`
	JobID       uint   `gorm:"not null;uniqueIndex:idx_job_applicant"`
	ApplicantID uint   `gorm:"not null;uniqueIndex:idx_job_applicant;index"`
	Note        string `gorm:"type:text"`
	Status      string `gorm:"size:20;default:applied"`
	ResumePath  string `gorm:"size:255"`
	AppliedAt   time.Time

	Job      Job            `gorm:"foreignKey:JobID"`
	Pipeline *PipelineEntry `gorm:"foreignKey:ApplicationID"`
}
