package database

import (
	"context"
	"strings"
	"testing"

	"github.com/BetulAlbayrak1999/ramadan-program-management-basira-org/internal/config"
	"github.com/BetulAlbayrak1999/ramadan-program-management-basira-org/internal/model"
	"github.com/BetulAlbayrak1999/ramadan-program-management-basira-org/internal/store"
)

// d1Fake answers the statements the provisioner issues from in-memory
// state: a flag for the seed admin row and a column list for daily_cards.
// ALTER TABLE statements mutate the column list like the real engine.
type d1Fake struct {
	stmts    []store.Statement
	batches  [][]store.Statement
	adminRow bool
	columns  []string
}

func (f *d1Fake) Execute(ctx context.Context, stmt store.Statement) (store.Result, error) {
	f.stmts = append(f.stmts, stmt)
	switch {
	case strings.HasPrefix(stmt.SQL, "SELECT id FROM users"):
		if f.adminRow {
			return store.Result{Rows: []store.Row{{"id": float64(1)}}}, nil
		}
		return store.Result{}, nil
	case strings.HasPrefix(stmt.SQL, "PRAGMA table_info"):
		rows := make([]store.Row, len(f.columns))
		for i, c := range f.columns {
			rows[i] = store.Row{"name": c}
		}
		return store.Result{Rows: rows}, nil
	case strings.HasPrefix(stmt.SQL, "ALTER TABLE daily_cards ADD COLUMN "):
		fields := strings.Fields(stmt.SQL)
		f.columns = append(f.columns, fields[5])
		return store.Result{RowsAffected: 1}, nil
	default:
		return store.Result{RowsAffected: 1, LastRowID: 1}, nil
	}
}

func (f *d1Fake) ExecuteBatch(ctx context.Context, stmts []store.Statement) error {
	f.batches = append(f.batches, stmts)
	return nil
}

func (f *d1Fake) sawDrop() bool {
	for _, s := range f.stmts {
		if strings.HasPrefix(s.SQL, "DROP TABLE") {
			return true
		}
	}
	for _, b := range f.batches {
		for _, s := range b {
			if strings.HasPrefix(s.SQL, "DROP TABLE") {
				return true
			}
		}
	}
	return false
}

func cardColumnsWithout(missing string) []string {
	cols := []string{"id", "user_id", "date", "extra_work_description", "created_at", "updated_at"}
	for _, f := range model.ScoreFields {
		if f != missing {
			cols = append(cols, f)
		}
	}
	return cols
}

func testCfg() config.Config {
	return config.Config{
		SuperAdminEmail:    "Admin@Example.com",
		SuperAdminPassword: "pw",
		BcryptCost:         4,
	}
}

func TestIsInitializedD1AdminMissing(t *testing.T) {
	exec := &d1Fake{columns: cardColumnsWithout("")}
	ok, applied := IsInitializedD1(context.Background(), exec, testCfg())
	if ok {
		t.Fatalf("reported initialized without the admin row")
	}
	if applied != nil {
		t.Fatalf("applied migrations without the admin row: %v", applied)
	}
}

// A database seeded before a score column existed must still count as
// initialized: the admin row decides, and the probe brings the card table
// up to date instead of letting callers drop it.
func TestIsInitializedD1MigratesStaleCardTable(t *testing.T) {
	exec := &d1Fake{adminRow: true, columns: cardColumnsWithout("tadabbur")}

	ok, applied := IsInitializedD1(context.Background(), exec, testCfg())
	if !ok {
		t.Fatalf("stale card table made the probe report uninitialized")
	}
	if len(applied) != 1 || applied[0] != "add_tadabbur_to_daily_cards" {
		t.Fatalf("applied = %v, want the tadabbur migration", applied)
	}
	if exec.sawDrop() {
		t.Fatalf("probe issued a DROP TABLE")
	}

	// The column now exists, so a second probe has nothing left to do.
	ok, applied = IsInitializedD1(context.Background(), exec, testCfg())
	if !ok || len(applied) != 0 {
		t.Fatalf("second probe = %v, %v, want true and no migrations", ok, applied)
	}
}

func TestIsInitializedD1CurrentSchema(t *testing.T) {
	exec := &d1Fake{adminRow: true, columns: cardColumnsWithout("")}
	ok, applied := IsInitializedD1(context.Background(), exec, testCfg())
	if !ok || len(applied) != 0 {
		t.Fatalf("got %v, %v, want true and no migrations", ok, applied)
	}
	for _, s := range exec.stmts {
		if strings.HasPrefix(s.SQL, "ALTER TABLE") {
			t.Fatalf("unexpected migration: %q", s.SQL)
		}
	}
}

func TestMigrateD1DailyCardsMissingTable(t *testing.T) {
	exec := &d1Fake{}
	applied, err := MigrateD1DailyCards(context.Background(), exec)
	if err != nil {
		t.Fatalf("MigrateD1DailyCards: %v", err)
	}
	if applied != nil {
		t.Fatalf("migrated a table that does not exist: %v", applied)
	}
}

func TestInitializeD1ProvisionsAndSeeds(t *testing.T) {
	exec := &d1Fake{}
	report := InitializeD1(context.Background(), exec, testCfg())

	if !report.Success || !report.TablesCreated || !report.SettingsCreated || !report.AdminCreated {
		t.Fatalf("incomplete report: %+v", report)
	}
	if len(exec.batches) != 3 {
		t.Fatalf("got %d batches, want drop, create, index", len(exec.batches))
	}
	for _, s := range exec.batches[0] {
		if !strings.HasPrefix(s.SQL, "DROP TABLE IF EXISTS ") {
			t.Fatalf("first batch is not the drop pass: %q", s.SQL)
		}
	}

	var sawSettings, sawAdmin bool
	for _, s := range exec.stmts {
		if strings.HasPrefix(s.SQL, "INSERT INTO site_settings") {
			sawSettings = true
		}
		if strings.HasPrefix(s.SQL, "INSERT OR IGNORE INTO users") {
			sawAdmin = true
			if s.Params[1] != "admin@example.com" {
				t.Fatalf("admin email not lowercased: %v", s.Params[1])
			}
		}
	}
	if !sawSettings || !sawAdmin {
		t.Fatalf("missing seed statements (settings=%v admin=%v)", sawSettings, sawAdmin)
	}
}
