package sqlite

import (
	"path/filepath"
	"testing"
)

func TestOpenAndQuery(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	if _, err := db.Exec(`CREATE TABLE t (v INTEGER)`); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO t VALUES (42)`); err != nil {
		t.Fatalf("insert: %v", err)
	}
	var v int
	if err := db.QueryRow(`SELECT v FROM t`).Scan(&v); err != nil {
		t.Fatalf("select: %v", err)
	}
	if v != 42 {
		t.Errorf("got %d, want 42", v)
	}
}

func TestGetInfo(t *testing.T) {
	info := GetInfo()
	if info.DriverName != DriverName() {
		t.Errorf("info driver name %q != %q", info.DriverName, DriverName())
	}
	if info.IsCGO != IsCGO() {
		t.Error("info IsCGO mismatch")
	}
	if info.Package == "" {
		t.Error("empty driver package")
	}
}
