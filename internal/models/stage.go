package models

import "time"

// Stage is one ordered step of a job's hiring pipeline. Order is unique per
// job but need not be contiguous.
type Stage struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	JobID     uint   `gorm:"not null;uniqueIndex:idx_stage_job_order;index"`
	Name      string `gorm:"size:64;not null"`
	Order     int    `gorm:"column:stage_order;not null;uniqueIndex:idx_stage_job_order"`
	Color     string `gorm:"size:16"`
	CreatedAt time.Time
}
