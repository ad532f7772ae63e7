// Package export writes the task list in printable and machine-readable formats.
package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/dona/internal/presentation/tui"
	"github.com/aretw0/dona/pkg/domain"
	"github.com/jung-kurt/gofpdf"
)

// Supported formats.
const (
	FormatJSON     = "json"
	FormatCSV      = "csv"
	FormatMarkdown = "md"
	FormatPDF      = "pdf"
)

// Lister returns tasks newest first.
type Lister interface {
	List(ctx context.Context) ([]domain.Task, error)
}

type Exporter struct{ tasks Lister }

func NewExporter(tasks Lister) *Exporter { return &Exporter{tasks: tasks} }

// Formats lists the accepted format names.
func Formats() []string {
	return []string{FormatJSON, FormatCSV, FormatMarkdown, FormatPDF}
}

// Export writes every task to w in the given format.
func (e *Exporter) Export(ctx context.Context, w io.Writer, format string) error {
	all, err := e.tasks.List(ctx)
	if err != nil {
		return err
	}
	switch strings.ToLower(format) {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(all)
	case FormatCSV:
		return writeCSV(w, all)
	case FormatMarkdown, "markdown":
		_, err := io.WriteString(w, tui.Markdown(all))
		return err
	case FormatPDF:
		return writePDF(w, all)
	default:
		return fmt.Errorf("unknown format %s", format)
	}
}

func writeCSV(w io.Writer, all []domain.Task) error {
	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"id", "title", "timestamp", "is_starred", "is_completed"})
	for _, t := range all {
		_ = cw.Write([]string{
			t.ID.String(),
			t.Title,
			t.Timestamp.Format(time.RFC3339Nano),
			strconv.FormatBool(t.IsStarred),
			strconv.FormatBool(t.IsCompleted),
		})
	}
	cw.Flush()
	return cw.Error()
}

func writePDF(w io.Writer, all []domain.Task) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("") // core fonts are cp1252
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(40, 10, tui.ScreenTitle)
	pdf.Ln(12)
	pdf.SetFont("Arial", "", 10)
	if len(all) == 0 {
		pdf.MultiCell(0, 6, "Nothing to do yet.", "0", "L", false)
	}
	for i, t := range all {
		check := "[ ]"
		if t.IsCompleted {
			check = "[x]"
		}
		star := ""
		if t.IsStarred {
			star = "* "
		}
		line := fmt.Sprintf("%d. %s %s%s  (%s)", i+1, check, star, tr(t.Title), t.Timestamp.Format("2006-01-02 15:04"))
		pdf.MultiCell(0, 6, line, "0", "L", false)
	}
	return pdf.Output(w)
}
