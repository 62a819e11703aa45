// Package report renders the extracted metadata as a one-table PDF
// summary for review alongside the machine-readable output.
package report

import (
	"fmt"
	"path/filepath"

	"github.com/phpdave11/gofpdf"

	"slidemeta/contracts"
)

var columns = []struct {
	title string
	width float64
}{
	{"Slide", 90},
	{"Extent", 40},
	{"Level", 15},
	{"MPP x/y", 40},
	{"Tile", 30},
	{"Stride", 30},
}

// Write renders one table row per record into a landscape A4 PDF at
// outputPath.
func Write(records []contracts.SlideMeta, outputPath string) error {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, fmt.Sprintf("Slide tiling metadata (%d slides)", len(records)), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "B", 8)
	for _, col := range columns {
		pdf.CellFormat(col.width, 6, col.title, "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 8)
	for _, rec := range records {
		cells := []string{
			filepath.Base(rec.Path),
			fmt.Sprintf("%d x %d", rec.ExtentX, rec.ExtentY),
			fmt.Sprintf("%d", rec.Level),
			fmt.Sprintf("%.4f / %.4f", rec.MPPX, rec.MPPY),
			fmt.Sprintf("%d x %d", rec.TileExtentX, rec.TileExtentY),
			fmt.Sprintf("%d x %d", rec.StrideX, rec.StrideY),
		}
		for i, cell := range cells {
			pdf.CellFormat(columns[i].width, 6, cell, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	if err := pdf.OutputFileAndClose(outputPath); err != nil {
		return fmt.Errorf("Error saving PDF report: %v", err)
	}
	return nil
}
