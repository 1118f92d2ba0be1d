package renderer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nguyentantai21042004/procedure-flow/internal/logger"
	"github.com/nguyentantai21042004/procedure-flow/internal/models"
)

type markdownRenderer struct {
	opts   Options
	logger logger.Logger
}

func (r *markdownRenderer) Ext() string { return ".md" }

// Render writes outPath and copies each referenced frame into
// <name>_frames/ beside it.
func (r *markdownRenderer) Render(ctx context.Context, doc *models.ProcedureDocument, outPath string) error {
	dir := filepath.Dir(outPath)
	name := strings.TrimSuffix(filepath.Base(outPath), filepath.Ext(outPath))
	framesDir := name + "_frames"

	if err := os.MkdirAll(filepath.Join(dir, framesDir), 0755); err != nil {
		return fmt.Errorf("create frames dir: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", doc.Title)
	fmt.Fprintf(&b, "**%s** | STANDARD OPERATING PROCEDURE\n\n", r.opts.Company)
	if doc.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", doc.Description)
	}
	for _, row := range documentInfo(doc) {
		fmt.Fprintf(&b, "- **%s** %s\n", row[0], row[1])
	}
	b.WriteString("\n")

	if len(doc.GlobalSafetyNotes) > 0 {
		b.WriteString("## Safety Information\n\n")
		for _, note := range doc.GlobalSafetyNotes {
			fmt.Fprintf(&b, "- %s\n", note)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Procedure\n")
	copied := make(map[string]string)
	for _, s := range doc.Steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprintf(&b, "\n### Step %d\n\n%s\n\n", s.Number, s.Instruction)

		if s.Frame != nil && s.Frame.Path != "" {
			rel, ok := copied[s.Frame.Path]
			if !ok {
				rel = filepath.ToSlash(filepath.Join(framesDir, filepath.Base(s.Frame.Path)))
				if err := copyFile(s.Frame.Path, filepath.Join(dir, rel)); err != nil {
					return fmt.Errorf("copy frame for step %d: %w", s.Number, err)
				}
				copied[s.Frame.Path] = rel
			}
			fmt.Fprintf(&b, "![Step %d](%s)\n\n", s.Number, rel)
		}
		fmt.Fprintf(&b, "*%s*\n", caption(s))

		if s.Reasoning != nil {
			fmt.Fprintf(&b, "\n> Note: %s\n", *s.Reasoning)
		}
		if s.SafetyNote != nil {
			fmt.Fprintf(&b, "\n**Caution:** %s\n", *s.SafetyNote)
		}
	}

	if err := os.WriteFile(outPath, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("write markdown: %w", err)
	}

	r.logger.Info(ctx, "Document saved: %s (%d frames)", outPath, len(copied))
	return nil
}
