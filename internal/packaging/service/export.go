package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

var itemExportHeaders = []string{"ID", "名称", "内部编码", "材料", "状态", "重量", "PPWR等级", "组件数", "文档数", "创建时间"}
var componentExportHeaders = []string{"包装项ID", "包装项名称", "组件名称", "形态", "重量", "体积", "PPWR类别", "PPWR等级", "数量", "供应商", "工艺", "颜色"}

// Export 导出全部包装项及组件为 Excel
func (s *PackagingService) Export(ctx context.Context) (*excelize.File, error) {
	items, err := s.itemRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list packaging items: %w", err)
	}

	f := excelize.NewFile()
	sheet := "包装项"
	f.SetSheetName("Sheet1", sheet)
	compSheet := "组件"
	if _, err := f.NewSheet(compSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("create sheet: %w", err)
	}

	boldStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	writeHeader(f, sheet, itemExportHeaders, boldStyle)
	writeHeader(f, compSheet, componentExportHeaders, boldStyle)

	compRow := 2
	for i, item := range items {
		row := i + 2
		values := []interface{}{
			item.ID,
			item.Name,
			item.InternalCode,
			strings.Join(item.Materials, ", "),
			item.Status,
			item.Weight,
			item.PPWRLevel,
			len(item.Components),
			len(item.Documents),
			item.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		writeRow(f, sheet, row, values)

		for _, c := range item.Components {
			writeRow(f, compSheet, compRow, []interface{}{
				item.ID, item.Name, c.Name, c.Format, c.Weight, c.Volume,
				c.PPWRCategory, c.PPWRLevel, c.Quantity, c.Supplier, c.ManufacturingProcess, c.Color,
			})
			compRow++
		}
	}

	itemWidths := []float64{38, 24, 16, 24, 12, 10, 10, 8, 8, 20}
	for i, w := range itemWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheet, col, col, w)
	}
	compWidths := []float64{38, 24, 20, 12, 10, 10, 14, 10, 8, 18, 18, 10}
	for i, w := range compWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(compSheet, col, col, w)
	}

	return f, nil
}

func writeHeader(f *excelize.File, sheet string, headers []string, style int) {
	for i, h := range headers {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := col + "1"
		f.SetCellValue(sheet, cell, h)
		f.SetCellStyle(sheet, cell, cell, style)
	}
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) {
	for i, v := range values {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetCellValue(sheet, fmt.Sprintf("%s%d", col, row), v)
	}
}
