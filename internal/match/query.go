package match

import (
	"context"
	"fmt"

	"github.com/zulandar/jobyard/internal/models"
	"github.com/zulandar/jobyard/internal/profile"
	"github.com/zulandar/jobyard/internal/search"
	"gorm.io/gorm"
)

// ListForSearch returns a saved search's matches, oldest first.
func (e *Engine) ListForSearch(ctx context.Context, searchID uint) ([]models.Match, error) {
	var out []models.Match
	if err := e.DB.WithContext(ctx).Where("search_id = ?", searchID).
		Order("created_at ASC, id ASC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("match: list for search %d: %w", searchID, err)
	}
	return out, nil
}

type unseenMatch struct {
	ID       uint
	SearchID uint
}

// unseenMatches returns the unseen matches across the recruiter's searches.
func unseenMatches(db *gorm.DB, recruiterID uint) ([]unseenMatch, error) {
	var rows []unseenMatch
	if err := db.Model(&models.Match{}).
		Select("matches.id AS id, matches.search_id AS search_id").
		Joins("JOIN saved_searches ON saved_searches.id = matches.search_id").
		Where("saved_searches.recruiter_id = ? AND matches.seen = ?", recruiterID, false).
		Order("matches.id ASC").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("match: unseen matches for recruiter %d: %w", recruiterID, err)
	}
	return rows, nil
}

// unseenCounts returns, per saved search of the recruiter, how many matches
// are unseen without marking them. Searches with none are absent.
func (e *Engine) unseenCounts(ctx context.Context, recruiterID uint) (map[uint]int64, error) {
	rows, err := unseenMatches(e.DB.WithContext(ctx), recruiterID)
	if err != nil {
		return nil, err
	}
	out := make(map[uint]int64)
	for _, r := range rows {
		out[r.SearchID]++
	}
	return out, nil
}

// FindCandidates runs criteria live against all public profiles other than
// the recruiter's own.
func (e *Engine) FindCandidates(ctx context.Context, recruiterID uint, c search.Criteria) ([]profile.CandidateProfile, error) {
	all, err := profile.ListPublic(e.DB.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("match: %w", err)
	}
	var out []profile.CandidateProfile
	for _, p := range all {
		if p.UserID == recruiterID {
			continue
		}
		if Satisfies(c, p) {
			out = append(out, p)
		}
	}
	return out, nil
}
