package models

import "time"

// PipelineEntry is an application's position in its job's pipeline.
// CurrentStage always belongs to the same job as the application.
type PipelineEntry struct {
	ID             uint `gorm:"primaryKey;autoIncrement"`
	ApplicationID  uint `gorm:"not null;uniqueIndex"`
	JobID          uint `gorm:"not null;index"`
	CurrentStageID uint `gorm:"not null;index"`
	CreatedAt      time.Time
	UpdatedAt      time.Time

	CurrentStage Stage           `gorm:"foreignKey:CurrentStageID"`
	Visits       []PipelineVisit `gorm:"foreignKey:EntryID"`
	Transitions  []Transition    `gorm:"foreignKey:EntryID"`
}

// PipelineVisit records membership in an entry's previously-visited set.
// The composite key makes repeated visits collapse to one row; chronology
// lives in Transition.
type PipelineVisit struct {
	EntryID uint `gorm:"primaryKey"`
	StageID uint `gorm:"primaryKey"`
}

// Transition is an append-only record of one accepted stage move.
type Transition struct {
	ID          uint      `gorm:"primaryKey;autoIncrement"`
	EntryID     uint      `gorm:"not null;index:idx_transition_entry_moved"`
	FromStageID uint      `gorm:"not null"`
	ToStageID   uint      `gorm:"not null"`
	MovedAt     time.Time `gorm:"not null;index:idx_transition_entry_moved"`
	MovedBy     string    `gorm:"size:64"`
	Notes       string    `gorm:"type:text"`

	FromStage Stage `gorm:"foreignKey:FromStageID"`
	ToStage   Stage `gorm:"foreignKey:ToStageID"`
}
