// Package report renders analysis history into a spreadsheet.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/resume-tailor/internal/core/domain"
)

const historySheet = "History"

var historyHeader = []string{
	"ID", "Created", "Job title", "ATS score", "Rating", "Matched keywords", "Missing keywords", "Suggestions", "Edited",
}

// WriteHistoryXLSX writes one row per snapshot in the given order.
func WriteHistoryXLSX(w io.Writer, items []domain.HistorySnapshot) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", historySheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	for col, title := range historyHeader {
		if err := setCell(f, col+1, 1, title); err != nil {
			return err
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(historyHeader), 1)
	if err := f.SetCellStyle(historySheet, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	for i, item := range items {
		row := i + 2
		title := item.JobTitle
		if strings.TrimSpace(title) == "" {
			title = "Untitled position"
		}
		values := []any{
			item.ID,
			item.CreatedAt.UTC().Format("2006-01-02 15:04"),
			title,
			item.ATSScore,
			domain.ScoreLabel(item.ATSScore),
			strings.Join(item.MatchedKeywords, ", "),
			strings.Join(item.MissingKeywords, ", "),
			strings.Join(item.Suggestions, "\n"),
			edited(item),
		}
		for col, v := range values {
			if err := setCell(f, col+1, row, v); err != nil {
				return err
			}
		}
	}

	if err := f.SetColWidth(historySheet, "C", "C", 32); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}
	if err := f.SetColWidth(historySheet, "F", "H", 48); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func edited(item domain.HistorySnapshot) string {
	if strings.TrimSpace(item.FinalResumeHTML) != "" {
		return "yes"
	}
	return "no"
}

func setCell(f *excelize.File, col, row int, value any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return fmt.Errorf("cell name: %w", err)
	}
	if err := f.SetCellValue(historySheet, cell, value); err != nil {
		return fmt.Errorf("set cell %s: %w", cell, err)
	}
	return nil
}
