// Package export 将一周的排班导出为 XLSX
package export

import (
	"fmt"
	"io"
	"strconv"

	"github.com/sysu-ecnc-dev/weekly-shifts/backend/internal/domain"
	"github.com/xuri/excelize/v2"
)

const SheetName = "Roster"

var header = []string{"Date", "Name", "Start", "End", "Published"}

// WriteRoster 写出一个工作表，每个班次一行，顺序与传入的顺序一致
func WriteRoster(w io.Writer, week domain.WeekView, shifts []domain.ShiftView) error {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return err
	}

	if err := writeRow(f, 1, toAny(header)); err != nil {
		return err
	}
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		endCell, _ := excelize.CoordinatesToCellName(len(header), 1)
		_ = f.SetCellStyle(SheetName, "A1", endCell, style)
	}

	for i, shift := range shifts {
		row := []any{shift.Date, shift.Name, shift.StartTime, shift.EndTime, strconv.FormatBool(week.IsPublished)}
		if err := writeRow(f, i+2, row); err != nil {
			return fmt.Errorf("write shift %s: %w", shift.ID, err)
		}
	}

	return f.Write(w)
}

// Filename 返回导出文件的文件名
func Filename(week domain.WeekView) string {
	return fmt.Sprintf("roster-%s.xlsx", week.StartDate)
}

func writeRow(f *excelize.File, rowNum int, values []any) error {
	for i, val := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, rowNum)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(SheetName, cell, val); err != nil {
			return err
		}
	}
	return nil
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
