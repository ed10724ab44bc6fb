package match

import (
	"context"
	"fmt"

	"github.com/zulandar/jobyard/internal/models"
	"github.com/zulandar/jobyard/internal/search"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MarkSeenForExactSearch marks as seen every unseen match of the
// recruiter's saved searches whose criteria equal c. It returns the number
// of matches updated.
func (e *Engine) MarkSeenForExactSearch(ctx context.Context, recruiterID uint, c search.Criteria) (int64, error) {
	db := e.DB.WithContext(ctx)
	searches, err := search.FindExact(db, recruiterID, c)
	if err != nil {
		return 0, fmt.Errorf("match: %w", err)
	}
	if len(searches) == 0 {
		return 0, nil
	}
	ids := make([]uint, len(searches))
	for i, s := range searches {
		ids[i] = s.ID
	}

	result := db.Model(&models.Match{}).
		Where("search_id IN ? AND seen = ?", ids, false).
		Update("seen", true)
	if result.Error != nil {
		return 0, fmt.Errorf("match: mark seen for recruiter %d: %w", recruiterID, result.Error)
	}
	e.log().Debug("matches marked seen",
		zap.Uint("recruiter_id", recruiterID),
		zap.Uints("search_ids", ids),
		zap.Int64("updated", result.RowsAffected))
	return result.RowsAffected, nil
}

// markBatchSize bounds the IDs per UPDATE when marking matches seen.
const markBatchSize = 500

// MarkSeenForRecruiter marks every unseen match of every saved search the
// recruiter owns as seen. It returns, per search, how many matches it
// marked. Only the rows it counted are marked, so a match inserted
// concurrently stays unseen for the next call.
func (e *Engine) MarkSeenForRecruiter(ctx context.Context, recruiterID uint) (map[uint]int64, error) {
	counts := make(map[uint]int64)
	err := e.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		clear(counts)
		rows, err := unseenMatches(tx.Clauses(clause.Locking{Strength: "UPDATE"}), recruiterID)
		if err != nil {
			return err
		}
		ids := make([]uint, len(rows))
		for i, r := range rows {
			ids[i] = r.ID
			counts[r.SearchID]++
		}
		for start := 0; start < len(ids); start += markBatchSize {
			end := min(start+markBatchSize, len(ids))
			if err := tx.Model(&models.Match{}).Where("id IN ?", ids[start:end]).
				Update("seen", true).Error; err != nil {
				return fmt.Errorf("match: mark all seen for recruiter %d: %w", recruiterID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return counts, nil
}
