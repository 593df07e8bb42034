package diagnoses_test

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/JaimeStill/verdant/internal/diagnoses"
	"github.com/JaimeStill/verdant/internal/workflow"
	"github.com/JaimeStill/verdant/pkg/auth"
	"github.com/JaimeStill/verdant/pkg/pagination"
	"github.com/JaimeStill/verdant/pkg/pipeline"
)

const envTestDSN = "VERDANT_TEST_DATABASE_DSN"

// openTestDB connects to the database named by VERDANT_TEST_DATABASE_DSN
// and applies the diagnoses migration. Tests skip when it is unset.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv(envTestDSN)
	if dsn == "" {
		t.Skipf("%s not set", envTestDSN)
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	up, err := os.ReadFile("../../cmd/migrate/migrations/000001_diagnoses.up.sql")
	if err != nil {
		t.Fatalf("read migration: %v", err)
	}
	if _, err := db.Exec(string(up)); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// persistingRunner stands in for the workflow, persisting a fixed judgment.
type persistingRunner struct {
	persister *diagnoses.Persister
}

func (r persistingRunner) Execute(ctx context.Context, s workflow.State) (workflow.State, pipeline.Outcome, error) {
	s.Description.Set("a wilting green plant")
	s.IsPlant.Set(true)
	s.Score.Set(4.5)
	s.Disease.Set("none")
	s.Advice.Set("water regularly")

	id, err := r.persister.Persist(ctx, s)
	if err != nil {
		return s, pipeline.Failed, &pipeline.StepError{Step: workflow.StepPersist, Err: err}
	}
	s.DiagnosisID.Set(id)
	return s, pipeline.Completed, nil
}

func TestRepositoryRoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	sys := diagnoses.New(
		db,
		persistingRunner{persister: diagnoses.NewPersister(db)},
		discard(),
		pagination.Config{DefaultPageSize: 20, MaxPageSize: 100},
	)

	owner := "owner-" + uuid.NewString()
	other := auth.Identity{Subject: "other-" + uuid.NewString()}
	me := auth.Identity{Subject: owner, Authorization: "Bearer token"}

	d, err := sys.Diagnose(ctx, me, diagnoses.DiagnoseCommand{ImageID: "img-1", UserText: "yellow leaves"})
	if err != nil {
		t.Fatalf("diagnose: %v", err)
	}
	if d.Score != 4.5 || d.Disease != "none" || d.Advice != "water regularly" || d.CreatedAt.IsZero() {
		t.Errorf("stored = %+v", d)
	}

	if _, err := sys.Find(ctx, d.ID, other.Subject); !errors.Is(err, diagnoses.ErrNotFound) {
		t.Errorf("find as other: %v", err)
	}

	page, err := sys.List(ctx, owner, pagination.PageRequest{}, diagnoses.Filters{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Total != 1 || page.Data[0].ID != d.ID {
		t.Errorf("list = %+v", page)
	}

	blight := "blight"
	page, err = sys.List(ctx, owner, pagination.PageRequest{}, diagnoses.Filters{Disease: &blight})
	if err != nil {
		t.Fatalf("filtered list: %v", err)
	}
	if page.Total != 0 {
		t.Errorf("filtered list total = %d, want 0", page.Total)
	}

	if err := sys.Delete(ctx, d.ID, other.Subject); !errors.Is(err, diagnoses.ErrNotFound) {
		t.Errorf("delete as other: %v", err)
	}
	if err := sys.Delete(ctx, d.ID, owner); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := sys.Find(ctx, d.ID, owner); !errors.Is(err, diagnoses.ErrNotFound) {
		t.Errorf("find after delete: %v", err)
	}
}

func TestPersistRejectsScoreOutsideCheck(t *testing.T) {
	db := openTestDB(t)

	s := workflow.State{
		ImageID:  "img-" + uuid.NewString(),
		UserText: "brown rings on the leaves",
		Owner:    "owner-" + uuid.NewString(),
	}
	s.Description.Set("a tomato leaf with concentric lesions")
	s.Score.Set(7)
	s.Disease.Set("early blight")
	s.Advice.Set("remove affected leaves")

	_, err := diagnoses.NewPersister(db).Persist(context.Background(), s)
	if !errors.Is(err, diagnoses.ErrInvalidRecord) {
		t.Fatalf("err = %v, want ErrInvalidRecord", err)
	}
}
