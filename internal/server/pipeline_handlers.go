package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/jobyard/internal/jobboard"
	"github.com/zulandar/jobyard/internal/models"
	"github.com/zulandar/jobyard/internal/pipeline"
	"github.com/zulandar/jobyard/internal/stage"
	"gorm.io/gorm"
)

type createJobRequest struct {
	Title           string `json:"title" binding:"required"`
	Company         string `json:"company" binding:"required"`
	Location        string `json:"location"`
	Description     string `json:"description"`
	Requirements    string `json:"requirements"`
	SalaryRange     string `json:"salary_range"`
	JobType         string `json:"job_type"`
	ExperienceLevel string `json:"experience_level"`
}

func (a *api) handleCreateJob(c *gin.Context) {
	var req createJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	job, stages, err := a.board.CreateJob(jobboard.JobOpts(req))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"job": newJobView(*job), "stages": newStageViews(stages)})
}

func (a *api) handleBoard(c *gin.Context) {
	jobID, ok := idParam(c, "id")
	if !ok {
		return
	}
	view, err := a.board.ListApplications(jobID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, newBoardView(view))
}

type applyRequest struct {
	ApplicantID uint   `json:"applicant_id" binding:"required"`
	Note        string `json:"note"`
	ResumePath  string `json:"resume_path"`
}

func (a *api) handleApply(c *gin.Context) {
	jobID, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req applyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	app, entry, err := a.board.Apply(jobboard.ApplyOpts{
		JobID: jobID, ApplicantID: req.ApplicantID, Note: req.Note, ResumePath: req.ResumePath,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	resp := gin.H{"application": newApplicationView(*app)}
	if entry != nil {
		resp["pipeline"] = newEntryView(*entry)
	}
	c.JSON(http.StatusCreated, resp)
}

func (a *api) handleListStages(c *gin.Context) {
	jobID, ok := idParam(c, "id")
	if !ok {
		return
	}
	if _, err := a.board.GetJob(jobID); err != nil {
		abortWithError(c, err)
		return
	}
	stages, err := stage.List(a.db.WithContext(c.Request.Context()), jobID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stages": newStageViews(stages)})
}

type createStageRequest struct {
	Name  string `json:"name" binding:"required"`
	Order *int   `json:"order"`
	Color string `json:"color"`
}

func (a *api) handleCreateStage(c *gin.Context) {
	jobID, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req createStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if _, err := a.board.GetJob(jobID); err != nil {
		abortWithError(c, err)
		return
	}
	s, err := stage.Create(a.db.WithContext(c.Request.Context()), stage.CreateOpts{
		JobID: jobID, Name: req.Name, Order: req.Order, Color: req.Color,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newStageView(*s))
}

func (a *api) handleCreateDefaultStages(c *gin.Context) {
	jobID, ok := idParam(c, "id")
	if !ok {
		return
	}
	if _, err := a.board.GetJob(jobID); err != nil {
		abortWithError(c, err)
		return
	}
	created, err := stage.CreateDefaults(a.db.WithContext(c.Request.Context()), jobID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"created": newStageViews(created)})
}

func (a *api) entryWithVisits(c *gin.Context, applicationID uint) (*entryView, error) {
	db := a.db.WithContext(c.Request.Context())
	entry, err := pipeline.Get(db, applicationID)
	if err != nil {
		return nil, err
	}
	return withVisits(db, entry)
}

func withVisits(db *gorm.DB, entry *models.PipelineEntry) (*entryView, error) {
	visited, err := pipeline.Visited(db, entry.ID)
	if err != nil {
		return nil, err
	}
	v := newEntryView(*entry)
	v.Visited = newStageViews(visited)
	return &v, nil
}

func (a *api) handleEnsureEntry(c *gin.Context) {
	appID, ok := idParam(c, "id")
	if !ok {
		return
	}
	if _, err := pipeline.EnsureEntry(a.db.WithContext(c.Request.Context()), appID); err != nil {
		abortWithError(c, err)
		return
	}
	v, err := a.entryWithVisits(c, appID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (a *api) handleGetEntry(c *gin.Context) {
	appID, ok := idParam(c, "id")
	if !ok {
		return
	}
	v, err := a.entryWithVisits(c, appID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

// handleGetEntryByID looks an entry up by its own ID, as returned in
// entry views.
func (a *api) handleGetEntryByID(c *gin.Context) {
	entryID, ok := idParam(c, "entry")
	if !ok {
		return
	}
	db := a.db.WithContext(c.Request.Context())
	entry, err := pipeline.GetByID(db, entryID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	v, err := withVisits(db, entry)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

type moveRequest struct {
	StageID uint   `json:"stage_id" binding:"required"`
	MovedBy string `json:"moved_by"`
	Notes   string `json:"notes"`
}

func (a *api) handleMove(c *gin.Context) {
	appID, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req moveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	db := a.db.WithContext(c.Request.Context())
	entry, err := pipeline.Get(db, appID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	tr, err := pipeline.MoveTo(db, pipeline.MoveOpts{
		EntryID: entry.ID, StageID: req.StageID, MovedBy: req.MovedBy, Notes: req.Notes,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	v, err := a.entryWithVisits(c, appID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	resp := gin.H{"pipeline": v, "moved": tr != nil}
	if tr != nil {
		resp["transition"] = newTransitionView(*tr)
	}
	c.JSON(http.StatusOK, resp)
}

func (a *api) handleHistory(c *gin.Context) {
	appID, ok := idParam(c, "id")
	if !ok {
		return
	}
	db := a.db.WithContext(c.Request.Context())
	entry, err := pipeline.Get(db, appID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	out := []transitionView{}
	for tr, err := range pipeline.History(db, entry.ID) {
		if err != nil {
			abortWithError(c, err)
			return
		}
		out = append(out, newTransitionView(tr))
	}
	c.JSON(http.StatusOK, gin.H{"transitions": out})
}
