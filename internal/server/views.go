package server

import (
	"time"

	"github.com/zulandar/jobyard/internal/jobboard"
	"github.com/zulandar/jobyard/internal/models"
	"github.com/zulandar/jobyard/internal/profile"
)

type stageView struct {
	ID    uint   `json:"id"`
	JobID uint   `json:"job_id"`
	Name  string `json:"name"`
	Order int    `json:"order"`
	Color string `json:"color"`
}

func newStageView(s models.Stage) stageView {
	return stageView{ID: s.ID, JobID: s.JobID, Name: s.Name, Order: s.Order, Color: s.Color}
}

func newStageViews(stages []models.Stage) []stageView {
	out := make([]stageView, 0, len(stages))
	for _, s := range stages {
		out = append(out, newStageView(s))
	}
	return out
}

type jobView struct {
	ID              uint      `json:"id"`
	Title           string    `json:"title"`
	Company         string    `json:"company"`
	Location        string    `json:"location,omitempty"`
	JobType         string    `json:"job_type"`
	ExperienceLevel string    `json:"experience_level"`
	Active          bool      `json:"active"`
	PostedAt        time.Time `json:"posted_at"`
}

func newJobView(j models.Job) jobView {
	return jobView{
		ID: j.ID, Title: j.Title, Company: j.Company, Location: j.Location,
		JobType: j.JobType, ExperienceLevel: j.ExperienceLevel, Active: j.Active, PostedAt: j.PostedAt,
	}
}

type applicationView struct {
	ID          uint      `json:"id"`
	JobID       uint      `json:"job_id"`
	ApplicantID uint      `json:"applicant_id"`
	Note        string    `json:"note,omitempty"`
	AppliedAt   time.Time `json:"applied_at"`
}

func newApplicationView(a models.Application) applicationView {
	return applicationView{ID: a.ID, JobID: a.JobID, ApplicantID: a.ApplicantID, Note: a.Note, AppliedAt: a.AppliedAt}
}

type entryView struct {
	ID            uint        `json:"id"`
	ApplicationID uint        `json:"application_id"`
	JobID         uint        `json:"job_id"`
	CurrentStage  stageView   `json:"current_stage"`
	Visited       []stageView `json:"visited,omitempty"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

func newEntryView(e models.PipelineEntry) entryView {
	return entryView{
		ID: e.ID, ApplicationID: e.ApplicationID, JobID: e.JobID,
		CurrentStage: newStageView(e.CurrentStage), UpdatedAt: e.UpdatedAt,
	}
}

type transitionView struct {
	ID          uint      `json:"id"`
	FromStageID uint      `json:"from_stage_id"`
	ToStageID   uint      `json:"to_stage_id"`
	MovedAt     time.Time `json:"moved_at"`
	MovedBy     string    `json:"moved_by,omitempty"`
	Notes       string    `json:"notes,omitempty"`
}

func newTransitionView(t models.Transition) transitionView {
	return transitionView{
		ID: t.ID, FromStageID: t.FromStageID, ToStageID: t.ToStageID,
		MovedAt: t.MovedAt, MovedBy: t.MovedBy, Notes: t.Notes,
	}
}

type columnView struct {
	Stage        stageView         `json:"stage"`
	Applications []applicationView `json:"applications"`
}

type boardView struct {
	Job      jobView           `json:"job"`
	Columns  []columnView      `json:"columns"`
	Unstaged []applicationView `json:"unstaged"`
}

func newBoardView(v *jobboard.BoardView) boardView {
	out := boardView{Job: newJobView(v.Job), Columns: []columnView{}, Unstaged: []applicationView{}}
	for _, col := range v.Columns {
		cv := columnView{Stage: newStageView(col.Stage), Applications: []applicationView{}}
		for _, a := range col.Applications {
			cv.Applications = append(cv.Applications, newApplicationView(a))
		}
		out.Columns = append(out.Columns, cv)
	}
	for _, a := range v.Unstaged {
		out.Unstaged = append(out.Unstaged, newApplicationView(a))
	}
	return out
}

type searchView struct {
	ID          uint      `json:"id"`
	RecruiterID uint      `json:"recruiter_id"`
	Skill       string    `json:"skill"`
	City        string    `json:"city"`
	Project     string    `json:"project"`
	CreatedAt   time.Time `json:"created_at"`
	Unseen      int64     `json:"unseen"`
}

func newSearchView(s models.SavedSearch, unseen int64) searchView {
	return searchView{
		ID: s.ID, RecruiterID: s.RecruiterID, Skill: s.Skill, City: s.City, Project: s.Project,
		CreatedAt: s.CreatedAt, Unseen: unseen,
	}
}

type matchView struct {
	ID          uint      `json:"id"`
	SearchID    uint      `json:"search_id"`
	CandidateID uint      `json:"candidate_id"`
	Seen        bool      `json:"seen"`
	CreatedAt   time.Time `json:"created_at"`
}

func newMatchView(m models.Match) matchView {
	return matchView{ID: m.ID, SearchID: m.SearchID, CandidateID: m.CandidateID, Seen: m.Seen, CreatedAt: m.CreatedAt}
}

type candidateView struct {
	UserID   uint     `json:"user_id"`
	Skills   []string `json:"skills"`
	Projects []string `json:"projects"`
	City     string   `json:"city,omitempty"`
}

func newCandidateView(p profile.CandidateProfile) candidateView {
	v := candidateView{UserID: p.UserID, Skills: p.Skills, Projects: p.Projects, City: p.City}
	if v.Skills == nil {
		v.Skills = []string{}
	}
	if v.Projects == nil {
		v.Projects = []string{}
	}
	return v
}

type profileView struct {
	UserID    uint     `json:"user_id"`
	UserType  string   `json:"user_type"`
	Email     string   `json:"email,omitempty"`
	Bio       string   `json:"bio,omitempty"`
	Skills    string   `json:"skills"`
	Projects  string   `json:"projects"`
	City      *string  `json:"city"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Privacy   string   `json:"privacy"`
}

func newProfileView(p models.UserProfile) profileView {
	return profileView{
		UserID: p.UserID, UserType: p.UserType, Email: p.Email, Bio: p.Bio,
		Skills: p.Skills, Projects: p.Projects, City: p.City,
		Latitude: p.Latitude, Longitude: p.Longitude, Privacy: p.Privacy,
	}
}
