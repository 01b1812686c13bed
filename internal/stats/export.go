package stats

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/careerlink/portal-engine/internal/triage"
)

const (
	verificationSheet = "Verifications"
	applicationSheet  = "Applications"
	queueSheet        = "Triage queue"
)

// Report is the content of a statistics workbook. Nil sections are skipped.
type Report struct {
	GeneratedAt   time.Time
	Verifications *VerificationStats
	Applications  *ApplicationStats
	Queue         []triage.Entry
}

// WriteXLSX writes the report as an excel workbook to w.
func WriteXLSX(w io.Writer, r Report) error {
	f := excelize.NewFile()
	defer f.Close()

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	sheets := 0
	if r.Verifications != nil {
		rows := [][]any{
			{"generated at", r.GeneratedAt.Format(time.RFC3339)},
			{"total", r.Verifications.Total},
			{"recently resolved", r.Verifications.RecentlyResolved},
			{"documents complete", r.Verifications.DocumentsComplete},
			{"average days to resolution", average(r.Verifications.AverageDaysToResolution, r.Verifications.HasResolutionData)},
		}
		rows = appendCounts(rows, "status ", r.Verifications.ByStatus)
		rows = appendCounts(rows, "priority ", r.Verifications.ByPriority)
		rows = appendCounts(rows, "pending age ", r.Verifications.PendingAge)
		if err := writeSheet(f, verificationSheet, []string{"metric", "value"}, rows, header, sheets == 0); err != nil {
			return err
		}
		sheets++
	}

	if r.Applications != nil {
		a := r.Applications
		rows := [][]any{
			{"generated at", r.GeneratedAt.Format(time.RFC3339)},
			{"total", a.Total},
			{"shortlisted", a.Shortlisted},
			{"recently resolved", a.RecentlyResolved},
			{"shortlist rate", a.ShortlistRate},
			{"selection rate", a.SelectionRate},
			{"acceptance rate", a.AcceptanceRate},
			{"average days to shortlist", average(a.AverageDaysToShortlist, a.HasShortlistData)},
		}
		rows = appendCounts(rows, "status ", a.ByStatus)
		rows = appendCounts(rows, "priority ", a.ByPriority)
		if err := writeSheet(f, applicationSheet, []string{"metric", "value"}, rows, header, sheets == 0); err != nil {
			return err
		}
		sheets++
	}

	if r.Queue != nil {
		rows := make([][]any, 0, len(r.Queue))
		for _, e := range r.Queue {
			waiting := ""
			if e.WaitingSince != nil {
				waiting = e.WaitingSince.Format(time.RFC3339)
			}
			rows = append(rows, []any{
				e.RecordType, e.ID.String(), e.Status, string(e.Effective),
				string(e.Priority), string(e.Suggestion.Level), waiting,
			})
		}
		cols := []string{"record type", "id", "status", "effective priority", "priority", "suggested", "waiting since"}
		if err := writeSheet(f, queueSheet, cols, rows, header, sheets == 0); err != nil {
			return err
		}
		sheets++
	}

	if sheets == 0 {
		return fmt.Errorf("report has no content")
	}
	_, err = f.WriteTo(w)
	return err
}

func writeSheet(f *excelize.File, name string, columns []string, rows [][]any, headerStyle int, first bool) error {
	if first {
		if err := f.SetSheetName("Sheet1", name); err != nil {
			return err
		}
	} else if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", name, err)
	}

	for i, col := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(name, cell, col); err != nil {
			return err
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(columns), 1)
	if err := f.SetCellStyle(name, "A1", last, headerStyle); err != nil {
		return err
	}

	for r, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, r+2)
		if err := f.SetSheetRow(name, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d of %s: %w", r+2, name, err)
		}
	}

	return f.SetPanes(name, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
}

func average(v float64, ok bool) any {
	if !ok {
		return "no data"
	}
	return v
}

func appendCounts[K ~string](rows [][]any, prefix string, counts map[K]int) [][]any {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)
	for _, k := range keys {
		rows = append(rows, []any{prefix + k, counts[K(k)]})
	}
	return rows
}
