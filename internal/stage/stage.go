// Package stage owns the ordered list of hiring pipeline stages per job.
package stage

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/zulandar/jobyard/internal/db"
	"github.com/zulandar/jobyard/internal/models"
	"gorm.io/gorm"
)

var (
	// ErrNotConfigured is returned when a job has no stages yet. Run
	// CreateDefaults (or add stages) first.
	ErrNotConfigured = errors.New("stage: job has no stages configured")

	// ErrDuplicateOrder is returned when an explicit order is already used
	// by another stage of the same job.
	ErrDuplicateOrder = errors.New("stage: order already used in job")

	// ErrNotFound is returned when a stage ID does not exist.
	ErrNotFound = errors.New("stage: not found")

	// ErrInvalid wraps input validation failures.
	ErrInvalid = errors.New("stage: invalid")
)

// DefaultColor is used when a stage is created without a color.
const DefaultColor = "#6c757d"

// Default describes one canonical stage created for every new job.
type Default struct {
	Name  string
	Order int
	Color string
}

// Defaults are the canonical stages, in pipeline order.
var Defaults = []Default{
	{Name: "Applied", Order: 0, Color: "#6c757d"},
	{Name: "Screening", Order: 1, Color: "#17a2b8"},
	{Name: "Interview", Order: 2, Color: "#ffc107"},
	{Name: "Offer", Order: 3, Color: "#28a745"},
	{Name: "Hired", Order: 4, Color: "#007bff"},
	{Name: "Rejected", Order: 5, Color: "#dc3545"},
}

// maxOrderAttempts bounds retries when concurrent creators race for the
// next free order.
const maxOrderAttempts = 16

// CreateOpts holds parameters for creating a stage. A nil Order means
// "append after the last stage".
type CreateOpts struct {
	JobID uint
	Name  string
	Order *int
	Color string
}

// Create adds a stage to a job. An explicit order that collides with an
// existing stage fails with ErrDuplicateOrder.
func Create(gormDB *gorm.DB, opts CreateOpts) (*models.Stage, error) {
	opts.Name = strings.TrimSpace(opts.Name)
	if opts.JobID == 0 {
		return nil, fmt.Errorf("%w: job ID is required", ErrInvalid)
	}
	if opts.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalid)
	}
	if opts.Order != nil && *opts.Order < 0 {
		return nil, fmt.Errorf("%w: order must be >= 0, got %d", ErrInvalid, *opts.Order)
	}
	if opts.Color == "" {
		opts.Color = DefaultColor
	}

	if opts.Order != nil {
		s := models.Stage{JobID: opts.JobID, Name: opts.Name, Order: *opts.Order, Color: opts.Color}
		if err := gormDB.Create(&s).Error; err != nil {
			if db.IsDuplicate(err) {
				return nil, fmt.Errorf("%w: job %d order %d", ErrDuplicateOrder, opts.JobID, *opts.Order)
			}
			return nil, fmt.Errorf("stage: create %q: %w", opts.Name, err)
		}
		return &s, nil
	}

	return appendStage(gormDB, opts.JobID, opts.Name, opts.Color)
}

// appendStage inserts at NextOrder, retrying when a concurrent creator
// takes the same order first.
func appendStage(gormDB *gorm.DB, jobID uint, name, color string) (*models.Stage, error) {
	for range maxOrderAttempts {
		next, err := NextOrder(gormDB, jobID)
		if err != nil {
			return nil, err
		}
		s := models.Stage{JobID: jobID, Name: name, Order: next, Color: color}
		err = gormDB.Create(&s).Error
		if err == nil {
			return &s, nil
		}
		if !db.IsDuplicate(err) {
			return nil, fmt.Errorf("stage: create %q: %w", name, err)
		}
	}
	return nil, fmt.Errorf("stage: create %q: no free order after %d attempts", name, maxOrderAttempts)
}

// CreateDefaults creates any canonical stage the job does not have yet,
// matched by name. Calling it again is a no-op. A canonical order already
// taken by a recruiter-defined stage is replaced by the next free order.
func CreateDefaults(gormDB *gorm.DB, jobID uint) ([]models.Stage, error) {
	if jobID == 0 {
		return nil, fmt.Errorf("%w: job ID is required", ErrInvalid)
	}

	var created []models.Stage
	for _, d := range Defaults {
		var count int64
		if err := gormDB.Model(&models.Stage{}).
			Where("job_id = ? AND name = ?", jobID, d.Name).
			Count(&count).Error; err != nil {
			return nil, fmt.Errorf("stage: check default %q for job %d: %w", d.Name, jobID, err)
		}
		if count > 0 {
			continue
		}

		order := d.Order
		s, err := Create(gormDB, CreateOpts{JobID: jobID, Name: d.Name, Order: &order, Color: d.Color})
		if errors.Is(err, ErrDuplicateOrder) {
			// Either a recruiter stage owns this order or a concurrent
			// CreateDefaults just inserted this very default.
			var again int64
			if cerr := gormDB.Model(&models.Stage{}).
				Where("job_id = ? AND name = ?", jobID, d.Name).
				Count(&again).Error; cerr != nil {
				return nil, fmt.Errorf("stage: recheck default %q for job %d: %w", d.Name, jobID, cerr)
			}
			if again > 0 {
				continue
			}
			s, err = appendStage(gormDB, jobID, d.Name, d.Color)
		}
		if err != nil {
			return nil, err
		}
		created = append(created, *s)
	}
	return created, nil
}

// NextOrder returns one past the highest order used by the job, or 0 when
// the job has no stages.
func NextOrder(gormDB *gorm.DB, jobID uint) (int, error) {
	var highest sql.NullInt64
	if err := gormDB.Model(&models.Stage{}).
		Where("job_id = ?", jobID).
		Select("MAX(stage_order)").
		Row().Scan(&highest); err != nil {
		return 0, fmt.Errorf("stage: next order for job %d: %w", jobID, err)
	}
	if !highest.Valid {
		return 0, nil
	}
	return int(highest.Int64) + 1, nil
}

// First returns the job's stage with the lowest order.
func First(gormDB *gorm.DB, jobID uint) (*models.Stage, error) {
	var s models.Stage
	result := gormDB.Where("job_id = ?", jobID).Order("stage_order ASC").Limit(1).Find(&s)
	if result.Error != nil {
		return nil, fmt.Errorf("stage: first for job %d: %w", jobID, result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: job %d", ErrNotConfigured, jobID)
	}
	return &s, nil
}

// Get retrieves a stage by ID.
func Get(gormDB *gorm.DB, id uint) (*models.Stage, error) {
	var s models.Stage
	if err := gormDB.Where("id = ?", id).First(&s).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
		}
		return nil, fmt.Errorf("stage: get %d: %w", id, err)
	}
	return &s, nil
}

// List returns the job's stages in pipeline order.
func List(gormDB *gorm.DB, jobID uint) ([]models.Stage, error) {
	var stages []models.Stage
	if err := gormDB.Where("job_id = ?", jobID).Order("stage_order ASC").Find(&stages).Error; err != nil {
		return nil, fmt.Errorf("stage: list for job %d: %w", jobID, err)
	}
	return stages, nil
}

// JobsWithoutStages returns the IDs of jobs that have no stage at all.
func JobsWithoutStages(gormDB *gorm.DB) ([]uint, error) {
	var ids []uint
	if err := gormDB.Model(&models.Job{}).
		Where("id NOT IN (?)", gormDB.Model(&models.Stage{}).Select("job_id")).
		Order("id ASC").
		Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("stage: jobs without stages: %w", err)
	}
	return ids, nil
}
