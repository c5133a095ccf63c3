package report_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"emmark/internal/config"
	"emmark/internal/domain"
	"emmark/internal/report"
)

func fixedExporter() report.Exporter {
	exp := report.New(config.Default())
	exp.Now = func() time.Time { return time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC) }
	return exp
}

func TestBuildEmptyCollections(t *testing.T) {
	doc, err := fixedExporter().Build(nil, nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	out := string(doc)
	for _, want := range []string{
		"EVENTO EMMARK",
		"Reporte de Proceso - 29/08/2026",
		"Total Clientes: 0",
		"Confirmados: 0 (0%)",
		"Costo Total: $0",
		"Progreso Actividades: 0%",
		"Lista de Clientes",
		"Detalle de Actividades",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("document missing %q:\n%s", want, out)
		}
	}
}

func TestBuildTablesFollowCollectionOrder(t *testing.T) {
	clients := []domain.Client{
		{ID: "c1", Name: "Ana", Branch: "Centro", Phone: "555-1234", IsConfirmed: true},
		{ID: "c2", Name: "Luis", Branch: "Norte", Phone: "555-5678"},
	}
	activities := []domain.Activity{
		{ID: "a1", Name: "Carpa", Date: "2026-09-01", Cost: 1500, InCharge: "Pedro", Type: domain.TypeLogistica, Status: domain.StatusEnProceso},
	}
	doc, err := fixedExporter().Build(clients, activities)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	out := string(doc)
	if !strings.Contains(out, "CONFIRMADO") || !strings.Contains(out, "PENDIENTE") {
		t.Fatalf("confirmation column missing:\n%s", out)
	}
	if strings.Index(out, "Ana") > strings.Index(out, "Luis") {
		t.Fatalf("client rows out of collection order:\n%s", out)
	}
	if !strings.Contains(out, "$1500") {
		t.Fatalf("currency-prefixed cost missing:\n%s", out)
	}
	if !strings.Contains(out, "En Proceso") {
		t.Fatalf("activity status missing:\n%s", out)
	}
}

func TestExportFileWritesDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reporte.txt")
	if err := fixedExporter().ExportFile(path, nil, nil); err != nil {
		t.Fatalf("export: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read exported file: %v", err)
	}
	if !strings.Contains(string(data), "EVENTO EMMARK") {
		t.Fatalf("exported file incomplete:\n%s", data)
	}
}

func TestExportFileFailureLeavesNoFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "no", "such", "dir", "reporte.txt")
	err := fixedExporter().ExportFile(path, nil, nil)
	if err == nil {
		t.Fatal("expected write failure")
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Fatalf("partial file left behind: %v", statErr)
	}
}
