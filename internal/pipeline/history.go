package pipeline

import (
	"fmt"
	"iter"
	"time"

	"github.com/zulandar/jobyard/internal/models"
	"gorm.io/gorm"
)

// historyPageSize is the number of transitions read per query.
var historyPageSize = 100

// History yields an entry's transitions in chronological order, reading
// them in pages keyed on (moved_at, id). The sequence may be ranged over
// more than once; each pass queries afresh.
func History(db *gorm.DB, entryID uint) iter.Seq2[models.Transition, error] {
	return func(yield func(models.Transition, error) bool) {
		var (
			afterAt time.Time
			afterID uint
			paging  bool
		)
		for {
			q := db.Where("entry_id = ?", entryID)
			if paging {
				q = q.Where("(moved_at > ? OR (moved_at = ? AND id > ?))", afterAt, afterAt, afterID)
			}
			var page []models.Transition
			if err := q.Order("moved_at ASC, id ASC").Limit(historyPageSize).Find(&page).Error; err != nil {
				yield(models.Transition{}, fmt.Errorf("pipeline: history for entry %d: %w", entryID, err))
				return
			}
			for _, tr := range page {
				if !yield(tr, nil) {
					return
				}
			}
			if len(page) < historyPageSize {
				return
			}
			last := page[len(page)-1]
			afterAt, afterID, paging = last.MovedAt, last.ID, true
		}
	}
}
