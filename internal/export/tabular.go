package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/fairtrack/fairtrack-api/internal/domain"
)

// tabularHeaders is the shared column layout of CSV and XLSX exports.
var tabularHeaders = []string{
	"Name",
	"Email",
	"Degree",
	"Institution",
	"Graduation Year",
	"Resume Text",
}

// tabularRow renders one participant; tabular formats only include
// participants who consented to data export.
func tabularRow(p domain.Participant) []string {
	text := ""
	if p.Resume.ExtractedText != nil {
		text = *p.Resume.ExtractedText
	}
	year := ""
	if p.GraduationYear > 0 {
		year = strconv.Itoa(p.GraduationYear)
	}
	return []string{p.Name, p.Email, p.Degree, p.Institution, year, text}
}

// csvBuilder writes the tabular export as CSV.
type csvBuilder struct {
	file *os.File
	w    *csv.Writer
}

func newCSVBuilder(path string) (*csvBuilder, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create csv %s: %w", path, err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(tabularHeaders); err != nil {
		_ = f.Close()
		return nil, err
	}
	return &csvBuilder{file: f, w: w}, nil
}

func (b *csvBuilder) Add(p domain.Participant, _ []byte) error {
	if !p.ExportConsent {
		return nil
	}
	return b.w.Write(tabularRow(p))
}

func (b *csvBuilder) Close() (int64, error) {
	b.w.Flush()
	if err := b.w.Error(); err != nil {
		_ = b.file.Close()
		return 0, err
	}
	if err := b.file.Close(); err != nil {
		return 0, err
	}
	info, err := os.Stat(b.file.Name())
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

func (b *csvBuilder) Abort() error {
	return b.file.Close()
}

// xlsxBuilder writes the tabular export as an XLSX workbook.
type xlsxBuilder struct {
	path string
	f    *excelize.File
	row  int
}

const xlsxSheet = "Participants"

func newXLSXBuilder(path string) *xlsxBuilder {
	f := excelize.NewFile()
	index, _ := f.NewSheet(xlsxSheet)
	f.SetActiveSheet(index)

	for i, h := range tabularHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(xlsxSheet, cell, h)
	}
	return &xlsxBuilder{path: path, f: f, row: 2}
}

func (b *xlsxBuilder) Add(p domain.Participant, _ []byte) error {
	if !p.ExportConsent {
		return nil
	}
	for i, v := range tabularRow(p) {
		cell, err := excelize.CoordinatesToCellName(i+1, b.row)
		if err != nil {
			return err
		}
		if err := b.f.SetCellValue(xlsxSheet, cell, v); err != nil {
			return err
		}
	}
	b.row++
	return nil
}

func (b *xlsxBuilder) Close() (int64, error) {
	defer func() { _ = b.f.Close() }()
	if err := b.f.SaveAs(b.path); err != nil {
		return 0, err
	}
	info, err := os.Stat(b.path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

func (b *xlsxBuilder) Abort() error {
	return b.f.Close()
}
