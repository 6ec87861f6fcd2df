// Package picklist renders the shortage report handed to a picker for
// one job. Generating the report is what moves the job's lines from
// NOT_STARTED to IN_PROGRESS, so the printed sheet and the state
// machine always agree on what is out on the floor.
package picklist

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/OhmBoyz/receiving-shipping-tracker/backorder"
	"github.com/OhmBoyz/receiving-shipping-tracker/store"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Generator renders picklists and drives the pick-status transitions
// that generation implies.
type Generator struct {
	svc  *backorder.Service
	tmpl *template.Template
}

func NewGenerator(svc *backorder.Service) *Generator {
	tmpl := template.Must(template.New("").ParseFS(templatesFS, "templates/*.html"))
	return &Generator{svc: svc, tmpl: tmpl}
}

// Sheet is the data handed to the picklist template.
type Sheet struct {
	GoNumber    string
	GeneratedAt string
	Items       []store.BOItem
	TotalReq    int
	TotalOpen   int
}

// Generate renders the picklist for goNumber to w and moves its
// NOT_STARTED lines to IN_PROGRESS. A job with no lines is an error;
// re-generating an already in-progress job re-renders without touching
// state.
func (g *Generator) Generate(w io.Writer, goNumber string) (*Sheet, error) {
	items, err := g.svc.StartPicking(goNumber)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("no demand lines for job %s", goNumber)
	}
	sheet := &Sheet{
		GoNumber:    goNumber,
		GeneratedAt: time.Now().Format("2006-01-02 15:04"),
		Items:       items,
	}
	for _, item := range items {
		sheet.TotalReq += item.QtyReq
		open := item.QtyReq - item.QtyFulfilled
		if open > 0 {
			sheet.TotalOpen += open
		}
	}
	if err := g.tmpl.ExecuteTemplate(w, "picklist.html", sheet); err != nil {
		return nil, fmt.Errorf("render picklist: %w", err)
	}
	return sheet, nil
}

// NextUrgent renders the picklist for the most urgent waiting job.
func (g *Generator) NextUrgent(w io.Writer) (*Sheet, error) {
	goNumber, err := g.svc.NextUrgentJob()
	if err != nil {
		return nil, err
	}
	if goNumber == "" {
		return nil, fmt.Errorf("no jobs waiting for a picklist")
	}
	return g.Generate(w, goNumber)
}
