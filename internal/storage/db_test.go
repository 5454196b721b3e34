package storage

import (
	"path/filepath"
	"reflect"
	"testing"

	"meshalias/internal"
	"meshalias/internal/mesh"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "nested", "meshalias.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func sampleMapping() *mesh.Mapping {
	m := mesh.NewMapping()
	m.Set("flu", internal.ConditionRecord{Code: "C01.001", Aliases: []string{"influenza", "grippe"}})
	m.Set("anemia", internal.ConditionRecord{Code: "C15.378.071", Aliases: []string{}})
	m.Set("influenza, avian", internal.ConditionRecord{Code: "C01.925", Aliases: []string{"grippe", "bird flu"}})
	return m
}

func loadAliases(t *testing.T, db *DB, m *mesh.Mapping) int {
	t.Helper()
	w, err := db.NewAliasWriter()
	if err != nil {
		t.Fatal(err)
	}
	n, err := mesh.NewExpander(nil).Expand(m, w)
	if err != nil {
		_ = w.Rollback()
		t.Fatal(err)
	}
	if err := w.Commit(); err != nil {
		t.Fatal(err)
	}
	return n
}

func TestReplaceAndListConditions(t *testing.T) {
	db := openTestDB(t)
	m := sampleMapping()
	if err := db.ReplaceConditions(m); err != nil {
		t.Fatal(err)
	}
	if err := db.ReplaceConditions(m); err != nil {
		t.Fatal(err)
	}
	n, err := db.CountConditions()
	if err != nil || n != 3 {
		t.Fatalf("count=%d err=%v", n, err)
	}
	back, err := db.ListConditions()
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(back.Terms(), m.Terms()) {
		t.Fatalf("terms=%v", back.Terms())
	}
	for _, term := range m.Terms() {
		a, _ := m.Get(term)
		b, _ := back.Get(term)
		if !reflect.DeepEqual(a, b) {
			t.Fatalf("%q: %+v != %+v", term, a, b)
		}
	}
}

func TestLookupAlias(t *testing.T) {
	db := openTestDB(t)
	m := sampleMapping()
	if err := db.ReplaceConditions(m); err != nil {
		t.Fatal(err)
	}
	if n := loadAliases(t, db, m); n != 4 {
		t.Fatalf("rows=%d", n)
	}

	res, err := db.LookupAlias("Grippe")
	if err != nil {
		t.Fatal(err)
	}
	want := []internal.Resolution{
		{Alias: "grippe", Term: "flu", Code: "C01.001"},
		{Alias: "grippe", Term: "influenza, avian", Code: "C01.925"},
	}
	if !reflect.DeepEqual(res, want) {
		t.Fatalf("res=%+v", res)
	}

	res, err = db.LookupAlias("anemia")
	if err != nil || len(res) != 0 {
		t.Fatalf("res=%+v err=%v", res, err)
	}

	fields, err := db.GetMetadata("aliases.fields")
	if err != nil || fields == nil || *fields != "alias,term" {
		t.Fatalf("fields=%v err=%v", fields, err)
	}
}

func TestAliasWriterReplacesPreviousLoad(t *testing.T) {
	db := openTestDB(t)
	loadAliases(t, db, sampleMapping())
	small := mesh.NewMapping()
	small.Set("flu", internal.ConditionRecord{Code: "C01.001", Aliases: []string{"grippe"}})
	loadAliases(t, db, small)
	n, err := db.CountAliases()
	if err != nil || n != 1 {
		t.Fatalf("count=%d err=%v", n, err)
	}
}

func TestAliasWriterRollback(t *testing.T) {
	db := openTestDB(t)
	loadAliases(t, db, sampleMapping())
	w, err := db.NewAliasWriter()
	if err != nil {
		t.Fatal(err)
	}
	_ = w.WriteHeader([]string{"alias", "term"})
	_ = w.WriteRow(internal.AliasRow{Alias: "x", Term: "y"})
	if err := w.Rollback(); err != nil {
		t.Fatal(err)
	}
	n, err := db.CountAliases()
	if err != nil || n != 4 {
		t.Fatalf("count=%d err=%v", n, err)
	}
}

func TestMetadata(t *testing.T) {
	db := openTestDB(t)
	v, err := db.GetMetadata("missing")
	if err != nil || v != nil {
		t.Fatalf("v=%v err=%v", v, err)
	}
	if err := db.SetMetadata("k", "1"); err != nil {
		t.Fatal(err)
	}
	if err := db.SetMetadata("k", "2"); err != nil {
		t.Fatal(err)
	}
	v, err = db.GetMetadata("k")
	if err != nil || v == nil || *v != "2" {
		t.Fatalf("v=%v err=%v", v, err)
	}
}
