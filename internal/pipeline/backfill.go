package pipeline

import (
	"errors"
	"fmt"

	"github.com/zulandar/jobyard/internal/models"
	"github.com/zulandar/jobyard/internal/stage"
	"gorm.io/gorm"
)

// BackfillOpts controls a backfill sweep.
type BackfillOpts struct {
	// SeedDefaultStages creates the canonical stages for jobs that have
	// none before entries are created.
	SeedDefaultStages bool
}

// BackfillResult counts what a sweep did.
type BackfillResult struct {
	JobsSeeded     int
	EntriesCreated int
	Skipped        int // applications whose job still has no stages
}

// Backfill creates pipeline entries for applications that lack one. It is
// idempotent; running it twice creates nothing the second time.
func Backfill(db *gorm.DB, opts BackfillOpts) (BackfillResult, error) {
	var res BackfillResult

	if opts.SeedDefaultStages {
		jobIDs, err := stage.JobsWithoutStages(db)
		if err != nil {
			return res, fmt.Errorf("pipeline: backfill: %w", err)
		}
		for _, jobID := range jobIDs {
			if _, err := stage.CreateDefaults(db, jobID); err != nil {
				return res, fmt.Errorf("pipeline: backfill: seed job %d: %w", jobID, err)
			}
			res.JobsSeeded++
		}
	}

	var appIDs []uint
	if err := db.Model(&models.Application{}).
		Where("id NOT IN (?)", db.Model(&models.PipelineEntry{}).Select("application_id")).
		Order("id ASC").
		Pluck("id", &appIDs).Error; err != nil {
		return res, fmt.Errorf("pipeline: backfill: list applications: %w", err)
	}

	for _, appID := range appIDs {
		_, created, err := ensureEntry(db, appID)
		if errors.Is(err, ErrNoStagesConfigured) {
			res.Skipped++
			continue
		}
		if err != nil {
			return res, fmt.Errorf("pipeline: backfill: %w", err)
		}
		if created {
			res.EntriesCreated++
		}
	}
	return res, nil
}
