package medicine_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"dosetrack/internal/db"
	"dosetrack/internal/medicine"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrateAndIndexes(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return gdb
}

const catalogCSV = `ITEM_SEQ,ITEM_NAME,PRINT,DRUG_SHAPE,COLOR,TYPE,LINE,TOKENIZED
200808876,tylenol 500mg,TY 500,oblong,white,tablet,none,tylenol 500
200301234,aspirin protect,BA,round,white,tablet,none,aspirin protect
201107654,gelfos m,,rectangle,ivory,suspension,none,gelfos
`

func writeCatalog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	return path
}

func TestImportCSV(t *testing.T) {
	gdb := newTestDB(t)
	svc := &medicine.Service{DB: gdb}
	ctx := context.Background()

	path := writeCatalog(t, catalogCSV)
	n, err := svc.ImportCSV(ctx, path)
	if err != nil {
		t.Fatalf("ImportCSV: %v", err)
	}
	if n != 3 {
		t.Errorf("imported %d rows, want 3", n)
	}

	var count int64
	gdb.Model(&medicine.Medicine{}).Count(&count)
	if count != 3 {
		t.Errorf("%d rows in catalog, want 3", count)
	}

	// re-running the import on boot must not duplicate rows
	if _, err := svc.ImportCSV(ctx, path); err != nil {
		t.Fatalf("ImportCSV rerun: %v", err)
	}
	gdb.Model(&medicine.Medicine{}).Count(&count)
	if count != 3 {
		t.Errorf("%d rows after rerun, want 3", count)
	}
}

func TestImportCSVSkipsBlankSeq(t *testing.T) {
	svc := &medicine.Service{DB: newTestDB(t)}

	csv := "ITEM_SEQ,ITEM_NAME\n111,first\n,no seq\n222,second\n"
	n, err := svc.ImportCSV(context.Background(), writeCatalog(t, csv))
	if err != nil {
		t.Fatalf("ImportCSV: %v", err)
	}
	if n != 2 {
		t.Errorf("imported %d rows, want 2", n)
	}
}

func TestImportCSVRejectsBadHeader(t *testing.T) {
	svc := &medicine.Service{DB: newTestDB(t)}

	if _, err := svc.ImportCSV(context.Background(), writeCatalog(t, "FOO,BAR\n1,2\n")); err == nil {
		t.Error("ImportCSV accepted a csv without ITEM_SEQ")
	}
	if _, err := svc.ImportCSV(context.Background(), filepath.Join(t.TempDir(), "missing.csv")); err == nil {
		t.Error("ImportCSV accepted a missing file")
	}
}

func TestSearch(t *testing.T) {
	gdb := newTestDB(t)
	svc := &medicine.Service{DB: gdb}
	ctx := context.Background()

	if _, err := svc.ImportCSV(ctx, writeCatalog(t, catalogCSV)); err != nil {
		t.Fatalf("ImportCSV: %v", err)
	}

	tests := []struct {
		name   string
		filter medicine.SearchFilter
		want   int
	}{
		{"by seq", medicine.SearchFilter{Seq: "200808876"}, 1},
		{"by name", medicine.SearchFilter{Name: "aspirin protect"}, 1},
		{"by shape and color", medicine.SearchFilter{Shape: "round", Color: "white"}, 1},
		{"color matches two", medicine.SearchFilter{Color: "white"}, 2},
		{"no filter returns all", medicine.SearchFilter{}, 3},
		{"no match", medicine.SearchFilter{Name: "no such drug"}, 0},
		{"conflicting filters", medicine.SearchFilter{Seq: "200808876", Color: "ivory"}, 0},
	}

	for _, tt := range tests {
		got, err := svc.Search(ctx, tt.filter)
		if err != nil {
			t.Errorf("%s: Search = %v", tt.name, err)
			continue
		}
		if len(got) != tt.want {
			t.Errorf("%s: got %d rows, want %d", tt.name, len(got), tt.want)
		}
	}
}
