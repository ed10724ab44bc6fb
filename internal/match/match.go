// Package match keeps the derived links between saved searches and the
// candidates that satisfy them.
//
// A candidate's matches are recomputed from scratch whenever the candidate's
// profile changes: every existing match is dropped and rebuilt against all
// saved searches owned by other users. Creating a saved search does not
// trigger matching.
package match

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/zulandar/jobyard/internal/logger"
	"github.com/zulandar/jobyard/internal/models"
	"github.com/zulandar/jobyard/internal/notify"
	"github.com/zulandar/jobyard/internal/profile"
	"github.com/zulandar/jobyard/internal/search"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// insertBatchSize bounds rows per INSERT when rebuilding matches.
const insertBatchSize = 100

// Engine recomputes and queries matches.
type Engine struct {
	DB       *gorm.DB
	Log      *zap.Logger
	Notifier notify.Notifier // optional; new matches are always logged
}

// Result describes one recomputation.
type Result struct {
	CandidateID uint
	Public      bool
	Removed     int64  // matches dropped before rebuilding
	Matched     []uint // search IDs the candidate now matches
	New         []uint // subset of Matched that did not match before
}

// Satisfies reports whether a candidate meets the criteria. Skill and
// project match as substrings of the candidate's text, so "java" matches
// "javascript". City must equal the candidate's city, ignoring case. An
// empty criterion matches anything.
func Satisfies(c search.Criteria, p profile.CandidateProfile) bool {
	c = search.Normalize(c)
	if c.Skill != "" && !strings.Contains(p.SkillText, c.Skill) {
		return false
	}
	if c.Project != "" && !strings.Contains(p.ProjectText, c.Project) {
		return false
	}
	if c.City != "" && c.City != p.City {
		return false
	}
	return true
}

func (e *Engine) log() *zap.Logger {
	return logger.OrNop(e.Log).Named("match")
}

// RecomputeForCandidate rebuilds every match of one candidate. The
// candidate's profile row is locked for the duration so concurrent
// recomputations of the same candidate serialize. A missing or private
// profile leaves the candidate with no matches. Newly appearing matches
// are logged and sent to the Notifier after commit.
func (e *Engine) RecomputeForCandidate(ctx context.Context, candidateID uint) (Result, error) {
	res := Result{CandidateID: candidateID}
	var fresh []models.SavedSearch

	err := e.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res = Result{CandidateID: candidateID}
		fresh = nil

		var locked models.UserProfile
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ?", candidateID).Limit(1).Find(&locked).Error; err != nil {
			return fmt.Errorf("match: lock profile of candidate %d: %w", candidateID, err)
		}

		var before []uint
		if err := tx.Model(&models.Match{}).Where("candidate_id = ?", candidateID).
			Pluck("search_id", &before).Error; err != nil {
			return fmt.Errorf("match: read matches of candidate %d: %w", candidateID, err)
		}
		had := make(map[uint]bool, len(before))
		for _, id := range before {
			had[id] = true
		}

		del := tx.Where("candidate_id = ?", candidateID).Delete(&models.Match{})
		if del.Error != nil {
			return fmt.Errorf("match: clear matches of candidate %d: %w", candidateID, del.Error)
		}
		res.Removed = del.RowsAffected

		cand, err := profile.LoadPublic(tx, candidateID)
		if errors.Is(err, profile.ErrNotFound) || errors.Is(err, profile.ErrCandidateNotPublic) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("match: %w", err)
		}
		res.Public = true

		searches, err := search.AllExcept(tx, candidateID)
		if err != nil {
			return fmt.Errorf("match: %w", err)
		}

		var rows []models.Match
		for _, s := range searches {
			if !Satisfies(search.Of(s), *cand) {
				continue
			}
			rows = append(rows, models.Match{SearchID: s.ID, CandidateID: candidateID})
			res.Matched = append(res.Matched, s.ID)
			if !had[s.ID] {
				res.New = append(res.New, s.ID)
				fresh = append(fresh, s)
			}
		}
		if len(rows) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(&rows, insertBatchSize).Error; err != nil {
			return fmt.Errorf("match: insert matches of candidate %d: %w", candidateID, err)
		}
		return nil
	})
	if err != nil {
		return Result{CandidateID: candidateID}, err
	}

	l := e.log()
	if !res.Public {
		l.Info("candidate not public, matches cleared",
			zap.Uint("candidate_id", candidateID),
			zap.Int64("removed", res.Removed))
		return res, nil
	}
	l.Debug("matches recomputed",
		zap.Uint("candidate_id", candidateID),
		zap.Int("matched", len(res.Matched)),
		zap.Int("new", len(res.New)),
		zap.Int64("removed", res.Removed))

	e.announce(ctx, candidateID, fresh)
	return res, nil
}

// announce logs each new match and forwards it to the Notifier. Delivery
// failures are logged, never returned.
func (e *Engine) announce(ctx context.Context, candidateID uint, fresh []models.SavedSearch) {
	l := e.log()
	for _, s := range fresh {
		evt := notify.NewMatchEvent(s.RecruiterID, s.ID, candidateID, s.Skill, s.City, s.Project)
		l.Info("new match",
			zap.String("event_id", evt.ID),
			zap.Uint("recruiter_id", s.RecruiterID),
			zap.Uint("search_id", s.ID),
			zap.Uint("candidate_id", candidateID))
		if e.Notifier == nil {
			continue
		}
		if err := e.Notifier.Notify(ctx, evt); err != nil {
			l.Warn("notify new match",
				zap.String("event_id", evt.ID),
				zap.Uint("search_id", s.ID),
				zap.Error(err))
		}
	}
}

// RecomputeAll recomputes every candidate that has a profile and returns
// the number recomputed.
func (e *Engine) RecomputeAll(ctx context.Context) (int, error) {
	var ids []uint
	if err := e.DB.WithContext(ctx).Model(&models.UserProfile{}).
		Order("user_id ASC").Pluck("user_id", &ids).Error; err != nil {
		return 0, fmt.Errorf("match: list candidates: %w", err)
	}
	for i, id := range ids {
		if _, err := e.RecomputeForCandidate(ctx, id); err != nil {
			return i, err
		}
	}
	return len(ids), nil
}
