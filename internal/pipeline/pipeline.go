// Package pipeline tracks where each application stands in its job's
// hiring pipeline and keeps the full history of stage moves.
//
// Every stage of the job is a legal state; there is no enforced terminal
// stage. Moves are serialized per entry so the current stage and the
// transition log never diverge.
package pipeline

import (
	"errors"
	"fmt"
	"time"

	"github.com/zulandar/jobyard/internal/models"
	"github.com/zulandar/jobyard/internal/stage"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrNoStagesConfigured is returned by EnsureEntry when the application's
	// job has no stages. It is the same error as stage.ErrNotConfigured.
	ErrNoStagesConfigured = stage.ErrNotConfigured

	// ErrCrossJobStage is returned when a move targets a stage of another job.
	ErrCrossJobStage = errors.New("pipeline: stage belongs to a different job")

	// ErrNotFound is returned when no pipeline entry exists.
	ErrNotFound = errors.New("pipeline: entry not found")

	// ErrApplicationNotFound is returned when the application does not exist.
	ErrApplicationNotFound = errors.New("pipeline: application not found")

	// ErrInvalid wraps input validation failures.
	ErrInvalid = errors.New("pipeline: invalid")

	errConcurrentMove = errors.New("pipeline: entry moved concurrently")
)

// maxMoveAttempts bounds retries when the compare-and-set on the current
// stage loses to a concurrent move.
const maxMoveAttempts = 3

// now is swapped in tests.
var now = time.Now

// MoveOpts holds parameters for moving an entry to another stage.
type MoveOpts struct {
	EntryID uint
	StageID uint
	MovedBy string
	Notes   string
}

// EnsureEntry returns the application's pipeline entry, creating it at the
// job's first stage if needed. Concurrent callers get the same entry.
func EnsureEntry(db *gorm.DB, applicationID uint) (*models.PipelineEntry, error) {
	entry, _, err := ensureEntry(db, applicationID)
	return entry, err
}

func ensureEntry(db *gorm.DB, applicationID uint) (*models.PipelineEntry, bool, error) {
	if existing, err := Get(db, applicationID); err == nil {
		return existing, false, nil
	} else if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}

	var app models.Application
	if err := db.Where("id = ?", applicationID).First(&app).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, fmt.Errorf("%w: %d", ErrApplicationNotFound, applicationID)
		}
		return nil, false, fmt.Errorf("pipeline: get application %d: %w", applicationID, err)
	}

	first, err := stage.First(db, app.JobID)
	if err != nil {
		return nil, false, fmt.Errorf("pipeline: ensure entry for application %d: %w", applicationID, err)
	}

	entry := models.PipelineEntry{
		ApplicationID:  app.ID,
		JobID:          app.JobID,
		CurrentStageID: first.ID,
	}
	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "application_id"}},
		DoNothing: true,
	}).Create(&entry)
	if result.Error != nil {
		return nil, false, fmt.Errorf("pipeline: create entry for application %d: %w", applicationID, result.Error)
	}

	// Re-read so a caller that lost the race gets the winner's row.
	winner, err := Get(db, applicationID)
	if err != nil {
		return nil, false, err
	}
	return winner, result.RowsAffected > 0, nil
}

// Get returns the pipeline entry of an application with its current stage.
func Get(db *gorm.DB, applicationID uint) (*models.PipelineEntry, error) {
	var entry models.PipelineEntry
	result := db.Preload("CurrentStage").Where("application_id = ?", applicationID).Limit(1).Find(&entry)
	if result.Error != nil {
		return nil, fmt.Errorf("pipeline: get entry for application %d: %w", applicationID, result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: application %d", ErrNotFound, applicationID)
	}
	return &entry, nil
}

// GetByID returns a pipeline entry by its own ID.
func GetByID(db *gorm.DB, entryID uint) (*models.PipelineEntry, error) {
	var entry models.PipelineEntry
	if err := db.Preload("CurrentStage").Where("id = ?", entryID).First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrNotFound, entryID)
		}
		return nil, fmt.Errorf("pipeline: get entry %d: %w", entryID, err)
	}
	return &entry, nil
}

// MoveTo moves an entry to another stage of the same job. Moving to the
// current stage is a no-op and returns a nil Transition. Otherwise the old
// stage joins the visited set, one Transition is appended and the current
// stage is updated, all in one transaction.
func MoveTo(db *gorm.DB, opts MoveOpts) (*models.Transition, error) {
	if opts.EntryID == 0 {
		return nil, fmt.Errorf("%w: entry ID is required", ErrInvalid)
	}
	if opts.StageID == 0 {
		return nil, fmt.Errorf("%w: stage ID is required", ErrInvalid)
	}

	for range maxMoveAttempts {
		tr, err := moveOnce(db, opts)
		if errors.Is(err, errConcurrentMove) {
			continue
		}
		return tr, err
	}
	return nil, fmt.Errorf("pipeline: move entry %d: %w", opts.EntryID, errConcurrentMove)
}

func moveOnce(db *gorm.DB, opts MoveOpts) (*models.Transition, error) {
	var moved *models.Transition

	err := db.Transaction(func(tx *gorm.DB) error {
		var entry models.PipelineEntry
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", opts.EntryID).First(&entry).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %d", ErrNotFound, opts.EntryID)
			}
			return fmt.Errorf("pipeline: lock entry %d: %w", opts.EntryID, err)
		}

		if entry.CurrentStageID == opts.StageID {
			return nil
		}

		target, err := stage.Get(tx, opts.StageID)
		if err != nil {
			return fmt.Errorf("pipeline: move entry %d: %w", entry.ID, err)
		}
		if target.JobID != entry.JobID {
			return fmt.Errorf("%w: stage %d is in job %d, entry %d is in job %d",
				ErrCrossJobStage, target.ID, target.JobID, entry.ID, entry.JobID)
		}

		visit := models.PipelineVisit{EntryID: entry.ID, StageID: entry.CurrentStageID}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&visit).Error; err != nil {
			return fmt.Errorf("pipeline: record visit for entry %d: %w", entry.ID, err)
		}

		movedAt, err := nextMovedAt(tx, entry.ID)
		if err != nil {
			return err
		}

		tr := models.Transition{
			EntryID:     entry.ID,
			FromStageID: entry.CurrentStageID,
			ToStageID:   target.ID,
			MovedAt:     movedAt,
			MovedBy:     opts.MovedBy,
			Notes:       opts.Notes,
		}
		if err := tx.Create(&tr).Error; err != nil {
			return fmt.Errorf("pipeline: append transition for entry %d: %w", entry.ID, err)
		}

		result := tx.Model(&models.PipelineEntry{}).
			Where("id = ? AND current_stage_id = ?", entry.ID, entry.CurrentStageID).
			Updates(map[string]interface{}{
				"current_stage_id": target.ID,
				"updated_at":       movedAt,
			})
		if result.Error != nil {
			return fmt.Errorf("pipeline: update entry %d: %w", entry.ID, result.Error)
		}
		if result.RowsAffected == 0 {
			return errConcurrentMove
		}

		moved = &tr
		return nil
	})
	if err != nil {
		return nil, err
	}
	return moved, nil
}

// nextMovedAt returns the current time, raised to the entry's latest
// transition time so history never goes backwards.
func nextMovedAt(tx *gorm.DB, entryID uint) (time.Time, error) {
	t := now()
	var last models.Transition
	result := tx.Where("entry_id = ?", entryID).Order("moved_at DESC, id DESC").Limit(1).Find(&last)
	if result.Error != nil {
		return time.Time{}, fmt.Errorf("pipeline: last transition for entry %d: %w", entryID, result.Error)
	}
	if result.RowsAffected > 0 && last.MovedAt.After(t) {
		t = last.MovedAt
	}
	return t, nil
}

// Visited returns the stages the entry has left at least once, in
// pipeline order.
func Visited(db *gorm.DB, entryID uint) ([]models.Stage, error) {
	var stages []models.Stage
	if err := db.Model(&models.Stage{}).
		Joins("JOIN pipeline_visits ON pipeline_visits.stage_id = stages.id").
		Where("pipeline_visits.entry_id = ?", entryID).
		Order("stages.stage_order ASC").
		Find(&stages).Error; err != nil {
		return nil, fmt.Errorf("pipeline: visited stages for entry %d: %w", entryID, err)
	}
	return stages, nil
}
