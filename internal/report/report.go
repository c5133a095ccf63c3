// Package report renders the printable process report: a title block,
// the summary figures, and the client and activity tables.
package report

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"emmark/internal/config"
	"emmark/internal/domain"
	"emmark/internal/stats"
)

// ErrGeneration marks a failed render. No file is produced when it is
// returned; the document is built fully in memory first.
var ErrGeneration = errors.New("report generation failed")

// Exporter builds report documents from the current collections.
type Exporter struct {
	Config *config.Config
	Now    func() time.Time
}

func New(cfg *config.Config) Exporter {
	return Exporter{Config: cfg, Now: time.Now}
}

func (e Exporter) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e Exporter) cfg() *config.Config {
	if e.Config != nil {
		return e.Config
	}
	return config.Default()
}

// Build renders the full document into memory. Empty collections yield a
// well-formed document with empty tables.
func (e Exporter) Build(clients []domain.Client, activities []domain.Activity) ([]byte, error) {
	cfg := e.cfg()
	s := stats.Compute(clients, activities)

	var buf bytes.Buffer
	fmt.Fprintln(&buf, cfg.Event.Name)
	fmt.Fprintf(&buf, "Reporte de Proceso - %s\n\n", e.now().Format("02/01/2006"))

	fmt.Fprintf(&buf, "Total Clientes: %d\n", s.TotalClients)
	fmt.Fprintf(&buf, "Confirmados: %d (%d%%)\n", s.ConfirmedClients, s.ConfirmationRate)
	fmt.Fprintf(&buf, "Costo Total: %s\n", e.money(s.TotalCost))
	fmt.Fprintf(&buf, "Progreso Actividades: %d%%\n\n", s.Progress)

	fmt.Fprintln(&buf, "Lista de Clientes")
	tw := table.NewWriter()
	tw.AppendHeader(table.Row{"Nombre", "Sucursal", "Teléfono", "Estado"})
	for _, c := range clients {
		state := "PENDIENTE"
		if c.IsConfirmed {
			state = "CONFIRMADO"
		}
		tw.AppendRow(table.Row{c.Name, c.Branch, c.Phone, state})
	}
	fmt.Fprintln(&buf, tw.Render())
	fmt.Fprintln(&buf)

	fmt.Fprintln(&buf, "Detalle de Actividades")
	tw = table.NewWriter()
	tw.AppendHeader(table.Row{"Actividad", "Fecha", "Encargado", "Tipo", "Costo", "Estado"})
	for _, a := range activities {
		tw.AppendRow(table.Row{a.Name, a.Date, a.InCharge, string(a.Type), e.money(a.Cost), string(a.Status)})
	}
	fmt.Fprintln(&buf, tw.Render())

	return buf.Bytes(), nil
}

// ExportFile builds the document and writes it to path. The file is only
// written after a successful build, so a failed render leaves nothing
// behind.
func (e Exporter) ExportFile(path string, clients []domain.Client, activities []domain.Activity) error {
	doc, err := e.Build(clients, activities)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrGeneration, err)
	}
	if err := os.WriteFile(path, doc, 0o644); err != nil {
		return fmt.Errorf("%w: write %s: %v", ErrGeneration, path, err)
	}
	return nil
}

func (e Exporter) money(v float64) string {
	return e.cfg().Event.Currency + strconv.FormatFloat(v, 'f', -1, 64)
}
