package database

import (
	"strings"
	"testing"
	"testing/fstest"
	"time"
)

func TestLoadMigrations_OrdenYFiltro(t *testing.T) {
	files := fstest.MapFS{
		"002_pagos.sql":    {Data: []byte("CREATE TABLE pago ();")},
		"001_esquema.sql":  {Data: []byte("CREATE TABLE paciente ();")},
		"README.md":        {Data: []byte("docs")},
		"notas.sql":        {Data: []byte("SELECT 1;")},
		"abc_otro.sql":     {Data: []byte("SELECT 1;")},
		"010_indices.sql":  {Data: []byte("CREATE INDEX x ON pago(id_pago);")},
		"subdir/003_x.sql": {Data: []byte("SELECT 1;")},
	}

	migs, err := LoadMigrations(files)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(migs) != 3 {
		t.Fatalf("expected 3 migrations, got %d", len(migs))
	}
	want := []int{1, 2, 10}
	for i, v := range want {
		if migs[i].Version != v {
			t.Errorf("migration %d: version = %d, want %d", i, migs[i].Version, v)
		}
	}
	if migs[0].SQL != "CREATE TABLE paciente ();" {
		t.Errorf("SQL = %q", migs[0].SQL)
	}
}

func TestLoadMigrations_VersionDuplicada(t *testing.T) {
	files := fstest.MapFS{
		"001_a.sql": {Data: []byte("SELECT 1;")},
		"001_b.sql": {Data: []byte("SELECT 2;")},
	}
	if _, err := LoadMigrations(files); err == nil {
		t.Fatal("expected error for duplicate versions")
	}
}

func TestPending(t *testing.T) {
	migs := []Migration{{Version: 1}, {Version: 2}, {Version: 3}}
	got := pending(migs, map[int]time.Time{1: time.Now(), 3: time.Now()})
	if len(got) != 1 || got[0].Version != 2 {
		t.Errorf("pending = %+v", got)
	}
}

func TestMigracionesEmbebidas(t *testing.T) {
	migs, err := LoadMigrations(Migraciones())
	if err != nil {
		t.Fatal(err)
	}
	if len(migs) == 0 || migs[0].Version != 1 {
		t.Fatalf("embedded migrations = %+v", migs)
	}
	for _, tabla := range []string{"costos_atencion", "pago", "transaccion_pasarela", "cita_medica"} {
		if !strings.Contains(migs[0].SQL, "CREATE TABLE IF NOT EXISTS "+tabla) {
			t.Errorf("schema is missing table %s", tabla)
		}
	}
	if !strings.Contains(migs[0].SQL, "id_costo INTEGER NOT NULL UNIQUE") {
		t.Error("pago must be unique per cost record")
	}
}
