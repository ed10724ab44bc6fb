package notify

import (
	"context"

	"go.uber.org/zap"
)

// Log writes events to a zap logger.
type Log struct {
	L *zap.Logger
}

// Notify implements Notifier.
func (n Log) Notify(_ context.Context, e Event) error {
	if n.L == nil {
		return nil
	}
	n.L.Info("new match",
		zap.String("event_id", e.ID),
		zap.Uint("recruiter_id", e.RecruiterID),
		zap.Uint("search_id", e.SearchID),
		zap.Uint("candidate_id", e.CandidateID),
		zap.String("criteria", Describe(e.Skill, e.City, e.Project)),
	)
	return nil
}
