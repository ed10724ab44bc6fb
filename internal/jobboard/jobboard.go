// Package jobboard is the application lifecycle around the hiring
// pipeline: posting jobs, applying, and the per-job Kanban board.
package jobboard

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/zulandar/jobyard/internal/db"
	"github.com/zulandar/jobyard/internal/logger"
	"github.com/zulandar/jobyard/internal/models"
	"github.com/zulandar/jobyard/internal/pipeline"
	"github.com/zulandar/jobyard/internal/stage"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	// ErrJobNotFound is returned when a job does not exist.
	ErrJobNotFound = errors.New("jobboard: job not found")

	// ErrJobClosed is returned when applying to an inactive job.
	ErrJobClosed = errors.New("jobboard: job is not accepting applications")

	// ErrAlreadyApplied is returned for a second application to the same job.
	ErrAlreadyApplied = errors.New("jobboard: already applied to this job")

	// ErrInvalid wraps input validation failures.
	ErrInvalid = errors.New("jobboard: invalid")
)

// Valid job types and experience levels.
var (
	JobTypes         = []string{"full_time", "part_time", "contract", "internship"}
	ExperienceLevels = []string{"entry", "mid", "senior", "lead"}
)

// Board performs application-lifecycle operations.
type Board struct {
	DB  *gorm.DB
	Log *zap.Logger
}

// JobOpts holds parameters for posting a job.
type JobOpts struct {
	Title           string
	Company         string
	Location        string
	Description     string
	Requirements    string
	SalaryRange     string
	JobType         string
	ExperienceLevel string
}

// ApplyOpts holds parameters for an application.
type ApplyOpts struct {
	JobID       uint
	ApplicantID uint
	Note        string
	ResumePath  string
}

func (b *Board) log() *zap.Logger {
	return logger.OrNop(b.Log).Named("jobboard")
}

// CreateJob posts a job and gives it the default pipeline stages.
func (b *Board) CreateJob(opts JobOpts) (*models.Job, []models.Stage, error) {
	opts.Title = strings.TrimSpace(opts.Title)
	opts.Company = strings.TrimSpace(opts.Company)
	if opts.Title == "" {
		return nil, nil, fmt.Errorf("%w: title is required", ErrInvalid)
	}
	if opts.Company == "" {
		return nil, nil, fmt.Errorf("%w: company is required", ErrInvalid)
	}
	if opts.JobType == "" {
		opts.JobType = "full_time"
	}
	if opts.ExperienceLevel == "" {
		opts.ExperienceLevel = "mid"
	}
	if !contains(JobTypes, opts.JobType) {
		return nil, nil, fmt.Errorf("%w: job type %q (valid: %s)", ErrInvalid, opts.JobType, strings.Join(JobTypes, ", "))
	}
	if !contains(ExperienceLevels, opts.ExperienceLevel) {
		return nil, nil, fmt.Errorf("%w: experience level %q (valid: %s)", ErrInvalid, opts.ExperienceLevel, strings.Join(ExperienceLevels, ", "))
	}

	job := models.Job{
		Title:           opts.Title,
		Company:         opts.Company,
		Location:        opts.Location,
		Description:     opts.Description,
		Requirements:    opts.Requirements,
		SalaryRange:     opts.SalaryRange,
		JobType:         opts.JobType,
		ExperienceLevel: opts.ExperienceLevel,
		Active:          true,
		PostedAt:        time.Now(),
	}
	var stages []models.Stage
	err := b.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&job).Error; err != nil {
			return fmt.Errorf("jobboard: create job: %w", err)
		}
		var err error
		stages, err = stage.CreateDefaults(tx, job.ID)
		if err != nil {
			return fmt.Errorf("jobboard: default stages for job %d: %w", job.ID, err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	b.log().Info("job posted", zap.Uint("job_id", job.ID), zap.String("title", job.Title), zap.Int("stages", len(stages)))
	return &job, stages, nil
}

// GetJob returns a job by ID.
func (b *Board) GetJob(id uint) (*models.Job, error) {
	var job models.Job
	if err := b.DB.Where("id = ?", id).First(&job).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrJobNotFound, id)
		}
		return nil, fmt.Errorf("jobboard: get job %d: %w", id, err)
	}
	return &job, nil
}

// CloseJob stops a job from accepting applications.
func (b *Board) CloseJob(id uint) error {
	result := b.DB.Model(&models.Job{}).Where("id = ?", id).Update("active", false)
	if result.Error != nil {
		return fmt.Errorf("jobboard: close job %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %d", ErrJobNotFound, id)
	}
	return nil
}

// Apply records an application and places it in the job's pipeline. If the
// job has no stages yet the application is kept without an entry; a later
// backfill sweep picks it up.
func (b *Board) Apply(opts ApplyOpts) (*models.Application, *models.PipelineEntry, error) {
	if opts.ApplicantID == 0 {
		return nil, nil, fmt.Errorf("%w: applicant ID is required", ErrInvalid)
	}
	job, err := b.GetJob(opts.JobID)
	if err != nil {
		return nil, nil, err
	}
	if !job.Active {
		return nil, nil, fmt.Errorf("%w: %d", ErrJobClosed, job.ID)
	}

	app := models.Application{
		JobID:       job.ID,
		ApplicantID: opts.ApplicantID,
		Note:        opts.Note,
		ResumePath:  opts.ResumePath,
		AppliedAt:   time.Now(),
	}
	if err := b.DB.Create(&app).Error; err != nil {
		if db.IsDuplicate(err) {
			return nil, nil, fmt.Errorf("%w: applicant %d, job %d", ErrAlreadyApplied, opts.ApplicantID, job.ID)
		}
		return nil, nil, fmt.Errorf("jobboard: create application: %w", err)
	}

	entry, err := pipeline.EnsureEntry(b.DB, app.ID)
	if errors.Is(err, pipeline.ErrNoStagesConfigured) {
		b.log().Warn("job has no stages, application left for backfill",
			zap.Uint("application_id", app.ID), zap.Uint("job_id", job.ID))
		return &app, nil, nil
	}
	if err != nil {
		return &app, nil, err
	}
	b.log().Info("application received",
		zap.Uint("application_id", app.ID),
		zap.Uint("job_id", job.ID),
		zap.Uint("applicant_id", app.ApplicantID),
		zap.String("stage", entry.CurrentStage.Name))
	return &app, entry, nil
}

// Column is one stage of a job's board with the applications in it.
type Column struct {
	Stage        models.Stage
	Applications []models.Application
}

// BoardView is a job's Kanban board. Unstaged holds applications that have
// no pipeline entry yet.
type BoardView struct {
	Job      models.Job
	Columns  []Column
	Unstaged []models.Application
}

// ListApplications groups a job's applications by current stage, in stage
// order.
func (b *Board) ListApplications(jobID uint) (*BoardView, error) {
	job, err := b.GetJob(jobID)
	if err != nil {
		return nil, err
	}
	stages, err := stage.List(b.DB, jobID)
	if err != nil {
		return nil, err
	}

	var apps []models.Application
	if err := b.DB.Preload("Pipeline").Where("job_id = ?", jobID).
		Order("applied_at ASC, id ASC").Find(&apps).Error; err != nil {
		return nil, fmt.Errorf("jobboard: list applications for job %d: %w", jobID, err)
	}

	view := &BoardView{Job: *job, Columns: make([]Column, len(stages))}
	index := make(map[uint]int, len(stages))
	for i, s := range stages {
		view.Columns[i] = Column{Stage: s}
		index[s.ID] = i
	}
	for _, a := range apps {
		if a.Pipeline == nil {
			view.Unstaged = append(view.Unstaged, a)
			continue
		}
		i, ok := index[a.Pipeline.CurrentStageID]
		if !ok {
			view.Unstaged = append(view.Unstaged, a)
			continue
		}
		view.Columns[i].Applications = append(view.Columns[i].Applications, a)
	}
	return view, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
