package stage

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/zulandar/jobyard/internal/config"
	"github.com/zulandar/jobyard/internal/db"
	"github.com/zulandar/jobyard/internal/models"
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
	job := models.Job{Title: "Backend Engineer", Company: "Acme", Active: true}
	if err := gormDB.Create(&job).Error; err != nil {
		t.Fatalf("create job: %v", err)
	}
	return job.ID
}

func intPtr(i int) *int { return &i }

func stageSet(t *testing.T, gormDB *gorm.DB, jobID uint) map[string]int {
	t.Helper()
	stages, err := List(gormDB, jobID)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	out := make(map[string]int, len(stages))
	for _, s := range stages {
		out[s.Name] = s.Order
	}
	return out
}

func TestCreateDefaults_CanonicalStages(t *testing.T) {
	gormDB := openTestDB(t)
	jobID := createJob(t, gormDB)

	created, err := CreateDefaults(gormDB, jobID)
	if err != nil {
		t.Fatalf("CreateDefaults: %v", err)
	}
	if len(created) != 6 {
		t.Fatalf("created %d stages, want 6", len(created))
	}

	stages, err := List(gormDB, jobID)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	for i, s := range stages {
		if s.Name != Defaults[i].Name || s.Order != Defaults[i].Order || s.Color != Defaults[i].Color {
			t.Errorf("stage[%d] = %s/%d/%s, want %s/%d/%s", i, s.Name, s.Order, s.Color,
				Defaults[i].Name, Defaults[i].Order, Defaults[i].Color)
		}
	}
}

func TestCreateDefaults_Idempotent(t *testing.T) {
	gormDB := openTestDB(t)
	jobID := createJob(t, gormDB)

	if _, err := CreateDefaults(gormDB, jobID); err != nil {
		t.Fatalf("first CreateDefaults: %v", err)
	}
	before := stageSet(t, gormDB, jobID)

	created, err := CreateDefaults(gormDB, jobID)
	if err != nil {
		t.Fatalf("second CreateDefaults: %v", err)
	}
	if len(created) != 0 {
		t.Errorf("second call created %d stages, want 0", len(created))
	}
	after := stageSet(t, gormDB, jobID)
	if fmt.Sprint(before) != fmt.Sprint(after) {
		t.Errorf("stage set changed: before %v, after %v", before, after)
	}
}

func TestCreateDefaults_ChecksByNameNotCount(t *testing.T) {
	gormDB := openTestDB(t)
	jobID := createJob(t, gormDB)

	// Six unrelated stages: a count-based check would wrongly skip defaults.
	for i := range 6 {
		if _, err := Create(gormDB, CreateOpts{JobID: jobID, Name: fmt.Sprintf("Custom %d", i), Order: intPtr(10 + i)}); err != nil {
			t.Fatalf("Create custom: %v", err)
		}
	}
	created, err := CreateDefaults(gormDB, jobID)
	if err != nil {
		t.Fatalf("CreateDefaults: %v", err)
	}
	if len(created) != 6 {
		t.Errorf("created %d, want 6", len(created))
	}
}

func TestCreateDefaults_PartialExisting(t *testing.T) {
	gormDB := openTestDB(t)
	jobID := createJob(t, gormDB)

	if _, err := Create(gormDB, CreateOpts{JobID: jobID, Name: "Applied", Order: intPtr(0)}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	created, err := CreateDefaults(gormDB, jobID)
	if err != nil {
		t.Fatalf("CreateDefaults: %v", err)
	}
	if len(created) != 5 {
		t.Errorf("created %d, want 5", len(created))
	}
	if got := len(stageSet(t, gormDB, jobID)); got != 6 {
		t.Errorf("job has %d stages, want 6", got)
	}
}

func TestCreateDefaults_OrderTakenByRecruiterStage(t *testing.T) {
	gormDB := openTestDB(t)
	jobID := createJob(t, gormDB)

	if _, err := Create(gormDB, CreateOpts{JobID: jobID, Name: "Sourced", Order: intPtr(0)}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := CreateDefaults(gormDB, jobID); err != nil {
		t.Fatalf("CreateDefaults: %v", err)
	}

	set := stageSet(t, gormDB, jobID)
	if len(set) != 7 {
		t.Fatalf("job has %d stages, want 7: %v", len(set), set)
	}
	if set["Sourced"] != 0 {
		t.Errorf("Sourced moved to %d; existing stages must keep their order", set["Sourced"])
	}
	seen := map[int]string{}
	for name, order := range set {
		if other, dup := seen[order]; dup {
			t.Errorf("order %d shared by %s and %s", order, name, other)
		}
		seen[order] = name
	}
}

func TestCreateDefaults_RequiresJob(t *testing.T) {
	if _, err := CreateDefaults(nil, 0); err == nil {
		t.Fatal("expected error for zero job ID")
	}
}

func TestNextOrder(t *testing.T) {
	gormDB := openTestDB(t)
	jobID := createJob(t, gormDB)

	next, err := NextOrder(gormDB, jobID)
	if err != nil {
		t.Fatalf("NextOrder: %v", err)
	}
	if next != 0 {
		t.Errorf("NextOrder(empty) = %d, want 0", next)
	}

	for _, o := range []int{0, 3} {
		if _, err := Create(gormDB, CreateOpts{JobID: jobID, Name: fmt.Sprintf("S%d", o), Order: intPtr(o)}); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	next, err = NextOrder(gormDB, jobID)
	if err != nil {
		t.Fatalf("NextOrder: %v", err)
	}
	if next != 4 {
		t.Errorf("NextOrder = %d, want 4 (gaps are kept)", next)
	}
}

func TestNextOrder_PerJob(t *testing.T) {
	gormDB := openTestDB(t)
	jobA := createJob(t, gormDB)
	jobB := createJob(t, gormDB)

	if _, err := CreateDefaults(gormDB, jobA); err != nil {
		t.Fatalf("CreateDefaults: %v", err)
	}
	next, err := NextOrder(gormDB, jobB)
	if err != nil {
		t.Fatalf("NextOrder: %v", err)
	}
	if next != 0 {
		t.Errorf("NextOrder(jobB) = %d, want 0", next)
	}
}

func TestFirst_NotConfigured(t *testing.T) {
	gormDB := openTestDB(t)
	jobID := createJob(t, gormDB)

	_, err := First(gormDB, jobID)
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("First() error = %v, want ErrNotConfigured", err)
	}
}

func TestFirst_LowestOrder(t *testing.T) {
	gormDB := openTestDB(t)
	jobID := createJob(t, gormDB)

	for _, o := range []int{5, 2, 9} {
		if _, err := Create(gormDB, CreateOpts{JobID: jobID, Name: fmt.Sprintf("S%d", o), Order: intPtr(o)}); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	first, err := First(gormDB, jobID)
	if err != nil {
		t.Fatalf("First: %v", err)
	}
	if first.Order != 2 || first.Name != "S2" {
		t.Errorf("First = %s/%d, want S2/2", first.Name, first.Order)
	}
}

func TestCreate_DuplicateOrderRejected(t *testing.T) {
	gormDB := openTestDB(t)
	jobID := createJob(t, gormDB)

	if _, err := Create(gormDB, CreateOpts{JobID: jobID, Name: "Applied", Order: intPtr(0)}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	_, err := Create(gormDB, CreateOpts{JobID: jobID, Name: "Phone Screen", Order: intPtr(0)})
	if !errors.Is(err, ErrDuplicateOrder) {
		t.Fatalf("Create() error = %v, want ErrDuplicateOrder", err)
	}
	set := stageSet(t, gormDB, jobID)
	if len(set) != 1 || set["Applied"] != 0 {
		t.Errorf("stages = %v, want only Applied at 0", set)
	}
}

func TestCreate_SameOrderDifferentJobs(t *testing.T) {
	gormDB := openTestDB(t)
	jobA := createJob(t, gormDB)
	jobB := createJob(t, gormDB)

	for _, jobID := range []uint{jobA, jobB} {
		if _, err := Create(gormDB, CreateOpts{JobID: jobID, Name: "Applied", Order: intPtr(0)}); err != nil {
			t.Fatalf("Create for job %d: %v", jobID, err)
		}
	}
}

func TestCreate_OmittedOrderAppends(t *testing.T) {
	gormDB := openTestDB(t)
	jobID := createJob(t, gormDB)

	s, err := Create(gormDB, CreateOpts{JobID: jobID, Name: "Applied"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if s.Order != 0 {
		t.Errorf("first appended order = %d, want 0", s.Order)
	}
	if s.Color != DefaultColor {
		t.Errorf("Color = %q, want %q", s.Color, DefaultColor)
	}

	if _, err := Create(gormDB, CreateOpts{JobID: jobID, Name: "Offer", Order: intPtr(7)}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	s, err = Create(gormDB, CreateOpts{JobID: jobID, Name: "Take-home", Color: "#abcdef"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if s.Order != 8 {
		t.Errorf("appended order = %d, want 8", s.Order)
	}
}

func TestCreate_ExplicitZeroIsNotUnset(t *testing.T) {
	gormDB := openTestDB(t)
	jobID := createJob(t, gormDB)

	if _, err := Create(gormDB, CreateOpts{JobID: jobID, Name: "Applied", Order: intPtr(0)}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	_, err := Create(gormDB, CreateOpts{JobID: jobID, Name: "Sourced", Order: intPtr(0)})
	if !errors.Is(err, ErrDuplicateOrder) {
		t.Errorf("explicit order 0 must not fall back to NextOrder; err = %v", err)
	}
}

func TestCreate_Validation(t *testing.T) {
	tests := []struct {
		name string
		opts CreateOpts
		want string
	}{
		{"missing job", CreateOpts{Name: "X"}, "stage: invalid: job ID is required"},
		{"missing name", CreateOpts{JobID: 1, Name: "  "}, "stage: invalid: name is required"},
		{"negative order", CreateOpts{JobID: 1, Name: "X", Order: intPtr(-1)}, "stage: invalid: order must be >= 0, got -1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Create(nil, tt.opts)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, ErrInvalid) {
				t.Errorf("error %v does not wrap ErrInvalid", err)
			}
			if err.Error() != tt.want {
				t.Errorf("error = %q, want %q", err.Error(), tt.want)
			}
		})
	}
}

func TestCreate_ConcurrentAppendsGetDistinctOrders(t *testing.T) {
	gormDB := openTestDB(t)
	jobID := createJob(t, gormDB)

	const n = 8
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := range n {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := Create(gormDB, CreateOpts{JobID: jobID, Name: fmt.Sprintf("Round %d", i)}); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("Create: %v", err)
	}

	stages, err := List(gormDB, jobID)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(stages) != n {
		t.Fatalf("got %d stages, want %d", len(stages), n)
	}
	for i, s := range stages {
		if s.Order != i {
			t.Errorf("stages[%d].Order = %d, want %d", i, s.Order, i)
		}
	}
}

func TestGet_NotFound(t *testing.T) {
	gormDB := openTestDB(t)
	_, err := Get(gormDB, 999)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestJobsWithoutStages(t *testing.T) {
	gormDB := openTestDB(t)
	configured := createJob(t, gormDB)
	bare := createJob(t, gormDB)

	if _, err := CreateDefaults(gormDB, configured); err != nil {
		t.Fatalf("CreateDefaults: %v", err)
	}
	ids, err := JobsWithoutStages(gormDB)
	if err != nil {
		t.Fatalf("JobsWithoutStages: %v", err)
	}
	if len(ids) != 1 || ids[0] != bare {
		t.Errorf("JobsWithoutStages = %v, want [%d]", ids, bare)
	}
}

func TestDefaults_OrdersAreCanonical(t *testing.T) {
	want := []string{"Applied", "Screening", "Interview", "Offer", "Hired", "Rejected"}
	if len(Defaults) != len(want) {
		t.Fatalf("len(Defaults) = %d, want %d", len(Defaults), len(want))
	}
	for i, d := range Defaults {
		if d.Name != want[i] || d.Order != i {
			t.Errorf("Defaults[%d] = %s/%d, want %s/%d", i, d.Name, d.Order, want[i], i)
		}
	}
}
