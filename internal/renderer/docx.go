package renderer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gomutex/godocx"
	"github.com/gomutex/godocx/common/units"
	"github.com/gomutex/godocx/docx"

	"github.com/nguyentantai21042004/procedure-flow/internal/logger"
	"github.com/nguyentantai21042004/procedure-flow/internal/models"
)

const (
	fontName = "Times New Roman"
	fontSize = 12

	// imageWidth is the printed width of a step image; height follows the
	// frame's aspect ratio.
	imageWidth = units.Inch(5.5)
)

type docxRenderer struct {
	opts   Options
	logger logger.Logger
}

func (r *docxRenderer) Ext() string { return ".docx" }

func (r *docxRenderer) Render(ctx context.Context, doc *models.ProcedureDocument, outPath string) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	d, err := godocx.NewDocument()
	if err != nil {
		return fmt.Errorf("create document: %w", err)
	}

	addStyledRun(d.AddParagraph(""), r.opts.Company, true, 18)
	addStyledRun(d.AddParagraph(""), "STANDARD OPERATING PROCEDURE", true, 14)
	addStyledRun(d.AddParagraph(""), doc.Title, true, 16)
	if doc.Description != "" {
		addStyledRun(d.AddParagraph(""), doc.Description, false, fontSize)
	}

	d.AddParagraph("")
	for _, row := range documentInfo(doc) {
		p := d.AddParagraph("")
		p.AddText(row[0] + " ").Font(fontName).Size(fontSize).Color("000000").Bold(true)
		p.AddText(row[1]).Font(fontName).Size(fontSize).Color("000000")
	}

	if len(doc.GlobalSafetyNotes) > 0 {
		d.AddParagraph("")
		addStyledRun(d.AddParagraph(""), "SAFETY INFORMATION", true, 14)
		for _, note := range doc.GlobalSafetyNotes {
			addStyledRun(d.AddParagraph(""), "• "+note, false, fontSize)
		}
	}

	d.AddParagraph("")
	addStyledRun(d.AddParagraph(""), "PROCEDURE", true, 14)
	for _, s := range doc.Steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		addStyledRun(d.AddParagraph(""), fmt.Sprintf("Step %d", s.Number), true, 13)
		addStyledRun(d.AddParagraph(""), s.Instruction, false, fontSize)
		if s.Frame != nil {
			w, h := imageSize(*s.Frame)
			if _, err := d.AddParagraph("").AddPicture(s.Frame.Path, w, h); err != nil {
				return fmt.Errorf("embed frame for step %d: %w", s.Number, err)
			}
		}
		addStyledRun(d.AddParagraph(""), caption(s), false, 10)
		if s.Reasoning != nil {
			p := d.AddParagraph("")
			p.AddText("Note: " + *s.Reasoning).Font(fontName).Size(10).Color("555555")
		}
		if s.SafetyNote != nil {
			p := d.AddParagraph("")
			p.AddText("Caution: " + *s.SafetyNote).Font(fontName).Size(fontSize).Color("C00000").Bold(true)
		}
	}

	if err := d.SaveTo(outPath); err != nil {
		return fmt.Errorf("save docx: %w", err)
	}

	r.logger.Info(ctx, "Document saved: %s", outPath)
	return nil
}

func addStyledRun(p *docx.Paragraph, text string, bold bool, size uint64) {
	run := p.AddText(strings.TrimSpace(text)).Font(fontName).Size(size).Color("000000")
	if bold {
		run.Bold(true)
	}
}

func imageSize(f models.Frame) (units.Inch, units.Inch) {
	if f.Width <= 0 || f.Height <= 0 {
		return imageWidth, imageWidth * 9 / 16
	}
	return imageWidth, imageWidth * units.Inch(f.Height) / units.Inch(f.Width)
}
