package pipeline

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/zulandar/jobyard/internal/config"
	"github.com/zulandar/jobyard/internal/db"
	"github.com/zulandar/jobyard/internal/models"
	"github.com/zulandar/jobyard/internal/stage"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gormDB, err := db.Connect(config.DatabaseConfig{Driver: config.DriverSQLite, Path: ":memory:"})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(gormDB); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return gormDB
}

func createJob(t *testing.T, gormDB *gorm.DB) uint {
	t.Helper()
	job := models.Job{Title: "Data Engineer", Company: "Initech", Active: true}
	if err := gormDB.Create(&job).Error; err != nil {
		t.Fatalf("create job: %v", err)
	}
	return job.ID
}

func createApplication(t *testing.T, gormDB *gorm.DB, jobID, applicantID uint) uint {
	t.Helper()
	app := models.Application{JobID: jobID, ApplicantID: applicantID, AppliedAt: time.Now()}
	if err := gormDB.Create(&app).Error; err != nil {
		t.Fatalf("create application: %v", err)
	}
	return app.ID
}

// threeStages creates Applied(0), Screening(1), Interview(2).
func threeStages(t *testing.T, gormDB *gorm.DB, jobID uint) (applied, screening, interview *models.Stage) {
	t.Helper()
	mk := func(name string, order int) *models.Stage {
		s, err := stage.Create(gormDB, stage.CreateOpts{JobID: jobID, Name: name, Order: &order})
		if err != nil {
			t.Fatalf("create stage %s: %v", name, err)
		}
		return s
	}
	return mk("Applied", 0), mk("Screening", 1), mk("Interview", 2)
}

func historyOf(t *testing.T, gormDB *gorm.DB, entryID uint) []models.Transition {
	t.Helper()
	var trs []models.Transition
	for tr, err := range History(gormDB, entryID) {
		if err != nil {
			t.Fatalf("history: %v", err)
		}
		trs = append(trs, tr)
	}
	return trs
}

func visitedIDs(t *testing.T, gormDB *gorm.DB, entryID uint) map[uint]bool {
	t.Helper()
	stages, err := Visited(gormDB, entryID)
	if err != nil {
		t.Fatalf("visited: %v", err)
	}
	out := make(map[uint]bool, len(stages))
	for _, s := range stages {
		out[s.ID] = true
	}
	return out
}

func TestEnsureEntry_NoStagesConfigured(t *testing.T) {
	gormDB := openTestDB(t)
	jobID := createJob(t, gormDB)
	appID := createApplication(t, gormDB, jobID, 1)

	_, err := EnsureEntry(gormDB, appID)
	if !errors.Is(err, ErrNoStagesConfigured) {
		t.Fatalf("err = %v, want ErrNoStagesConfigured", err)
	}
	if !errors.Is(err, stage.ErrNotConfigured) {
		t.Error("ErrNoStagesConfigured should be stage.ErrNotConfigured")
	}

	var count int64
	gormDB.Model(&models.PipelineEntry{}).Count(&count)
	if count != 0 {
		t.Errorf("entries = %d, want 0", count)
	}
}

func TestEnsureEntry_ApplicationNotFound(t *testing.T) {
	gormDB := openTestDB(t)
	_, err := EnsureEntry(gormDB, 404)
	if !errors.Is(err, ErrApplicationNotFound) {
		t.Fatalf("err = %v, want ErrApplicationNotFound", err)
	}
}

func TestEnsureEntry_PlacesAtFirstStageAndIsIdempotent(t *testing.T) {
	gormDB := openTestDB(t)
	jobID := createJob(t, gormDB)
	// Insert out of order to prove First picks the minimum.
	late := 5
	if _, err := stage.Create(gormDB, stage.CreateOpts{JobID: jobID, Name: "Offer", Order: &late}); err != nil {
		t.Fatal(err)
	}
	applied, _, _ := threeStages(t, gormDB, jobID)
	appID := createApplication(t, gormDB, jobID, 1)

	first, err := EnsureEntry(gormDB, appID)
	if err != nil {
		t.Fatalf("EnsureEntry: %v", err)
	}
	if first.CurrentStageID != applied.ID {
		t.Errorf("CurrentStageID = %d, want %d (Applied)", first.CurrentStageID, applied.ID)
	}
	if first.CurrentStage.Name != "Applied" {
		t.Errorf("CurrentStage.Name = %q, want Applied", first.CurrentStage.Name)
	}
	if first.JobID != jobID {
		t.Errorf("JobID = %d, want %d", first.JobID, jobID)
	}

	second, err := EnsureEntry(gormDB, appID)
	if err != nil {
		t.Fatalf("second EnsureEntry: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("second entry ID = %d, want %d", second.ID, first.ID)
	}
}

func TestEnsureEntry_Concurrent(t *testing.T) {
	gormDB := openTestDB(t)
	jobID := createJob(t, gormDB)
	threeStages(t, gormDB, jobID)
	appID := createApplication(t, gormDB, jobID, 1)

	const workers = 8
	ids := make([]uint, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e, err := EnsureEntry(gormDB, appID)
			errs[i] = err
			if e != nil {
				ids[i] = e.ID
			}
		}()
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("worker %d: %v", i, err)
		}
		if ids[i] != ids[0] {
			t.Errorf("worker %d got entry %d, want %d", i, ids[i], ids[0])
		}
	}
	var count int64
	gormDB.Model(&models.PipelineEntry{}).Where("application_id = ?", appID).Count(&count)
	if count != 1 {
		t.Errorf("entries = %d, want 1", count)
	}
}

func TestGet_NotFound(t *testing.T) {
	gormDB := openTestDB(t)
	if _, err := Get(gormDB, 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get err = %v, want ErrNotFound", err)
	}
	if _, err := GetByID(gormDB, 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID err = %v, want ErrNotFound", err)
	}
}

func TestMoveTo_AppliedScreeningApplied(t *testing.T) {
	gormDB := openTestDB(t)
	jobID := createJob(t, gormDB)
	applied, screening, _ := threeStages(t, gormDB, jobID)
	appID := createApplication(t, gormDB, jobID, 1)

	entry, err := EnsureEntry(gormDB, appID)
	if err != nil {
		t.Fatal(err)
	}

	tr, err := MoveTo(gormDB, MoveOpts{EntryID: entry.ID, StageID: screening.ID, MovedBy: "rita", Notes: "phone screen booked"})
	if err != nil {
		t.Fatalf("move to Screening: %v", err)
	}
	if tr == nil {
		t.Fatal("expected a transition")
	}
	if tr.FromStageID != applied.ID || tr.ToStageID != screening.ID {
		t.Errorf("transition = %d->%d, want %d->%d", tr.FromStageID, tr.ToStageID, applied.ID, screening.ID)
	}
	if tr.MovedBy != "rita" || tr.Notes != "phone screen booked" {
		t.Errorf("MovedBy/Notes = %q/%q", tr.MovedBy, tr.Notes)
	}
	if v := visitedIDs(t, gormDB, entry.ID); !v[applied.ID] || len(v) != 1 {
		t.Errorf("visited = %v, want only Applied", v)
	}

	if _, err := MoveTo(gormDB, MoveOpts{EntryID: entry.ID, StageID: applied.ID}); err != nil {
		t.Fatalf("move back to Applied: %v", err)
	}

	got, err := Get(gormDB, appID)
	if err != nil {
		t.Fatal(err)
	}
	if got.CurrentStageID != applied.ID {
		t.Errorf("CurrentStageID = %d, want Applied", got.CurrentStageID)
	}

	trs := historyOf(t, gormDB, entry.ID)
	if len(trs) != 2 {
		t.Fatalf("history length = %d, want 2", len(trs))
	}
	if trs[1].FromStageID != screening.ID || trs[1].ToStageID != applied.ID {
		t.Errorf("second transition = %d->%d, want Screening->Applied", trs[1].FromStageID, trs[1].ToStageID)
	}
	if v := visitedIDs(t, gormDB, entry.ID); !v[applied.ID] || !v[screening.ID] || len(v) != 2 {
		t.Errorf("visited = %v, want Applied and Screening", v)
	}
}

func TestMoveTo_SameStageIsNoop(t *testing.T) {
	gormDB := openTestDB(t)
	jobID := createJob(t, gormDB)
	applied, screening, _ := threeStages(t, gormDB, jobID)
	entry, err := EnsureEntry(gormDB, createApplication(t, gormDB, jobID, 1))
	if err != nil {
		t.Fatal(err)
	}

	tr, err := MoveTo(gormDB, MoveOpts{EntryID: entry.ID, StageID: applied.ID})
	if err != nil {
		t.Fatalf("no-op move: %v", err)
	}
	if tr != nil {
		t.Errorf("expected nil transition for no-op, got %+v", tr)
	}
	if n := len(historyOf(t, gormDB, entry.ID)); n != 0 {
		t.Errorf("history length = %d, want 0", n)
	}
	if v := visitedIDs(t, gormDB, entry.ID); len(v) != 0 {
		t.Errorf("visited = %v, want empty", v)
	}

	// Also a no-op after real moves.
	if _, err := MoveTo(gormDB, MoveOpts{EntryID: entry.ID, StageID: screening.ID}); err != nil {
		t.Fatal(err)
	}
	before := visitedIDs(t, gormDB, entry.ID)
	if tr, err := MoveTo(gormDB, MoveOpts{EntryID: entry.ID, StageID: screening.ID}); err != nil || tr != nil {
		t.Fatalf("no-op move = %v, %v", tr, err)
	}
	if n := len(historyOf(t, gormDB, entry.ID)); n != 1 {
		t.Errorf("history length = %d, want 1", n)
	}
	if after := visitedIDs(t, gormDB, entry.ID); len(after) != len(before) {
		t.Errorf("visited changed on no-op: %v -> %v", before, after)
	}
}

func TestMoveTo_CrossJobStageRejected(t *testing.T) {
	gormDB := openTestDB(t)
	jobA := createJob(t, gormDB)
	jobB := createJob(t, gormDB)
	applied, _, _ := threeStages(t, gormDB, jobA)
	_, otherScreening, _ := threeStages(t, gormDB, jobB)
	entry, err := EnsureEntry(gormDB, createApplication(t, gormDB, jobA, 1))
	if err != nil {
		t.Fatal(err)
	}

	_, err = MoveTo(gormDB, MoveOpts{EntryID: entry.ID, StageID: otherScreening.ID})
	if !errors.Is(err, ErrCrossJobStage) {
		t.Fatalf("err = %v, want ErrCrossJobStage", err)
	}

	got, _ := GetByID(gormDB, entry.ID)
	if got.CurrentStageID != applied.ID {
		t.Errorf("CurrentStageID changed to %d", got.CurrentStageID)
	}
	if n := len(historyOf(t, gormDB, entry.ID)); n != 0 {
		t.Errorf("history length = %d, want 0", n)
	}
	if v := visitedIDs(t, gormDB, entry.ID); len(v) != 0 {
		t.Errorf("visited = %v, want empty after rejected move", v)
	}
}

func TestMoveTo_UnknownStageAndEntry(t *testing.T) {
	gormDB := openTestDB(t)
	jobID := createJob(t, gormDB)
	threeStages(t, gormDB, jobID)
	entry, err := EnsureEntry(gormDB, createApplication(t, gormDB, jobID, 1))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := MoveTo(gormDB, MoveOpts{EntryID: entry.ID, StageID: 9999}); !errors.Is(err, stage.ErrNotFound) {
		t.Errorf("unknown stage err = %v, want stage.ErrNotFound", err)
	}
	if _, err := MoveTo(gormDB, MoveOpts{EntryID: 9999, StageID: 1}); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown entry err = %v, want ErrNotFound", err)
	}
	if _, err := MoveTo(gormDB, MoveOpts{StageID: 1}); !errors.Is(err, ErrInvalid) {
		t.Error("expected error for zero entry ID")
	}
}

func TestHistory_LengthAndOrderingOverMoveSequence(t *testing.T) {
	gormDB := openTestDB(t)
	jobID := createJob(t, gormDB)
	applied, screening, interview := threeStages(t, gormDB, jobID)
	entry, err := EnsureEntry(gormDB, createApplication(t, gormDB, jobID, 1))
	if err != nil {
		t.Fatal(err)
	}

	// Clock goes backwards halfway through; history must still be
	// non-decreasing.
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ticks := []time.Time{
		base,
		base.Add(time.Minute),
		base.Add(-time.Hour),
		base.Add(2 * time.Minute),
		base.Add(-2 * time.Hour),
		base.Add(3 * time.Minute),
		base.Add(4 * time.Minute),
	}
	tick := 0
	now = func() time.Time {
		ts := ticks[tick%len(ticks)]
		tick++
		return ts
	}
	t.Cleanup(func() { now = time.Now })

	targets := []uint{screening.ID, screening.ID, interview.ID, applied.ID, applied.ID, interview.ID, screening.ID, applied.ID, interview.ID}
	current := applied.ID
	wantMoves := 0
	for _, target := range targets {
		if target != current {
			wantMoves++
		}
		if _, err := MoveTo(gormDB, MoveOpts{EntryID: entry.ID, StageID: target}); err != nil {
			t.Fatalf("move to %d: %v", target, err)
		}
		current = target
	}

	trs := historyOf(t, gormDB, entry.ID)
	if len(trs) != wantMoves {
		t.Fatalf("history length = %d, want %d", len(trs), wantMoves)
	}
	for i := 1; i < len(trs); i++ {
		if trs[i].MovedAt.Before(trs[i-1].MovedAt) {
			t.Errorf("history[%d].MovedAt %v before history[%d].MovedAt %v", i, trs[i].MovedAt, i-1, trs[i-1].MovedAt)
		}
		if trs[i].FromStageID != trs[i-1].ToStageID {
			t.Errorf("history[%d] starts at %d, previous ended at %d", i, trs[i].FromStageID, trs[i-1].ToStageID)
		}
	}
	if v := visitedIDs(t, gormDB, entry.ID); len(v) != 3 {
		t.Errorf("visited = %v, want all three stages", v)
	}
}

func TestHistory_PagesAndRestarts(t *testing.T) {
	gormDB := openTestDB(t)
	jobID := createJob(t, gormDB)
	applied, screening, _ := threeStages(t, gormDB, jobID)
	entry, err := EnsureEntry(gormDB, createApplication(t, gormDB, jobID, 1))
	if err != nil {
		t.Fatal(err)
	}

	// Same timestamp for every move so paging relies on the id tiebreak.
	fixed := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	now = func() time.Time { return fixed }
	historyPageSize = 2
	t.Cleanup(func() {
		now = time.Now
		historyPageSize = 100
	})

	const moves = 7
	for i := range moves {
		target := screening.ID
		if i%2 == 1 {
			target = applied.ID
		}
		if _, err := MoveTo(gormDB, MoveOpts{EntryID: entry.ID, StageID: target}); err != nil {
			t.Fatal(err)
		}
	}

	seq := History(gormDB, entry.ID)
	for pass := range 2 {
		var ids []uint
		for tr, err := range seq {
			if err != nil {
				t.Fatalf("pass %d: %v", pass, err)
			}
			ids = append(ids, tr.ID)
		}
		if len(ids) != moves {
			t.Fatalf("pass %d: got %d transitions, want %d", pass, len(ids), moves)
		}
		for i := 1; i < len(ids); i++ {
			if ids[i] <= ids[i-1] {
				t.Errorf("pass %d: ids not ascending: %v", pass, ids)
				break
			}
		}
	}

	// Early break stops iteration.
	n := 0
	for range seq {
		n++
		if n == 3 {
			break
		}
	}
	if n != 3 {
		t.Errorf("early break visited %d, want 3", n)
	}
}

func TestHistory_UnknownEntryIsEmpty(t *testing.T) {
	gormDB := openTestDB(t)
	if n := len(historyOf(t, gormDB, 12345)); n != 0 {
		t.Errorf("history length = %d, want 0", n)
	}
}

func TestMoveTo_ConcurrentMovesKeepLogConsistent(t *testing.T) {
	gormDB := openTestDB(t)
	jobID := createJob(t, gormDB)
	_, screening, interview := threeStages(t, gormDB, jobID)
	entry, err := EnsureEntry(gormDB, createApplication(t, gormDB, jobID, 1))
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			target := screening.ID
			if i%2 == 0 {
				target = interview.ID
			}
			if _, err := MoveTo(gormDB, MoveOpts{EntryID: entry.ID, StageID: target}); err != nil {
				t.Errorf("move: %v", err)
			}
		}()
	}
	wg.Wait()

	trs := historyOf(t, gormDB, entry.ID)
	got, err := GetByID(gormDB, entry.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(trs) == 0 {
		t.Fatal("expected at least one transition")
	}
	if last := trs[len(trs)-1]; last.ToStageID != got.CurrentStageID {
		t.Errorf("last transition ends at %d, current stage is %d", last.ToStageID, got.CurrentStageID)
	}
	for i := 1; i < len(trs); i++ {
		if trs[i].FromStageID != trs[i-1].ToStageID {
			t.Errorf("history[%d] starts at %d, previous ended at %d", i, trs[i].FromStageID, trs[i-1].ToStageID)
		}
	}
}

func TestBackfill(t *testing.T) {
	gormDB := openTestDB(t)
	configured := createJob(t, gormDB)
	bare := createJob(t, gormDB)
	threeStages(t, gormDB, configured)

	a1 := createApplication(t, gormDB, configured, 1)
	a2 := createApplication(t, gormDB, configured, 2)
	b1 := createApplication(t, gormDB, bare, 1)

	// One entry already exists.
	if _, err := EnsureEntry(gormDB, a1); err != nil {
		t.Fatal(err)
	}

	res, err := Backfill(gormDB, BackfillOpts{})
	if err != nil {
		t.Fatalf("Backfill: %v", err)
	}
	if res.EntriesCreated != 1 || res.Skipped != 1 || res.JobsSeeded != 0 {
		t.Errorf("result = %+v, want 1 created, 1 skipped", res)
	}
	if _, err := Get(gormDB, a2); err != nil {
		t.Errorf("a2 should have an entry: %v", err)
	}
	if _, err := Get(gormDB, b1); !errors.Is(err, ErrNotFound) {
		t.Errorf("b1 should have no entry without seeding, err = %v", err)
	}

	res, err = Backfill(gormDB, BackfillOpts{SeedDefaultStages: true})
	if err != nil {
		t.Fatalf("Backfill with seeding: %v", err)
	}
	if res.JobsSeeded != 1 || res.EntriesCreated != 1 || res.Skipped != 0 {
		t.Errorf("seeded result = %+v, want 1 seeded, 1 created", res)
	}
	entry, err := Get(gormDB, b1)
	if err != nil {
		t.Fatalf("b1 entry: %v", err)
	}
	if entry.CurrentStage.Name != stage.Defaults[0].Name {
		t.Errorf("b1 stage = %q, want %q", entry.CurrentStage.Name, stage.Defaults[0].Name)
	}

	res, err = Backfill(gormDB, BackfillOpts{SeedDefaultStages: true})
	if err != nil {
		t.Fatal(err)
	}
	if res != (BackfillResult{}) {
		t.Errorf("third run result = %+v, want zero", res)
	}
}
