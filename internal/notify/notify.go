// Package notify delivers new-match events to recruiters' chat channels and
// subscribers. Delivery is best effort; every event is also logged.
package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event announces that a candidate newly matches a saved search.
type Event struct {
	ID          string    `json:"id"`
	RecruiterID uint      `json:"recruiter_id"`
	SearchID    uint      `json:"search_id"`
	CandidateID uint      `json:"candidate_id"`
	Skill       string    `json:"skill,omitempty"`
	City        string    `json:"city,omitempty"`
	Project     string    `json:"project,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewMatchEvent builds an Event with a fresh ID.
func NewMatchEvent(recruiterID, searchID, candidateID uint, skill, city, project string) Event {
	return Event{
		ID:          uuid.NewString(),
		RecruiterID: recruiterID,
		SearchID:    searchID,
		CandidateID: candidateID,
		Skill:       skill,
		City:        city,
		Project:     project,
		CreatedAt:   time.Now(),
	}
}

// Notifier delivers one event.
type Notifier interface {
	Notify(ctx context.Context, e Event) error
}

// Nop discards events.
type Nop struct{}

// Notify implements Notifier.
func (Nop) Notify(context.Context, Event) error { return nil }
