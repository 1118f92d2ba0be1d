package renderer

import (
	"fmt"
	"os"
	"strconv"

	"github.com/nguyentantai21042004/procedure-flow/internal/models"
)

// documentInfo lists the label/value pairs printed under the title.
func documentInfo(doc *models.ProcedureDocument) [][2]string {
	m := doc.Metadata
	rows := [][2]string{
		{"Document Date:", m.GeneratedAt.Format("January 02, 2006")},
		{"Revision:", "1.0"},
		{"Total Steps:", strconv.Itoa(len(doc.Steps))},
	}
	if m.SourcePath != "" {
		rows = append(rows, [2]string{"Source:", m.SourcePath})
	}
	if m.SourceDuration > 0 {
		rows = append(rows, [2]string{"Duration:", fmt.Sprintf("%.1f seconds", m.SourceDuration)})
	}
	if m.BackendUsed != "" {
		rows = append(rows, [2]string{"Analysis:", string(m.BackendUsed)})
	}
	return rows
}

func caption(s models.BoundStep) string {
	if s.Frame == nil {
		return "No visual evidence"
	}
	return fmt.Sprintf("Image at %.1f seconds", s.Frame.Timestamp)
}

// copyFile copies a file from src to dst
func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("read source: %w", err)
	}
	if err := os.WriteFile(dst, data, 0644); err != nil {
		return fmt.Errorf("write destination: %w", err)
	}
	return nil
}
