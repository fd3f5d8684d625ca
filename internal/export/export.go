// Package export writes the inventory as a spreadsheet.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/erazemk/labstock/internal/model"
)

// ContentType is the MIME type of the workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Sheet is the name of the inventory worksheet.
const Sheet = "Inventory"

var header = []string{"ID", "Name", "Kind", "Location", "Quantity", "Min Quantity", "Status", "Purchase Link", "Updated"}

// WriteInventory writes items as an xlsx workbook to w.
func WriteInventory(w io.Writer, items []model.Item) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", Sheet); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}

	for i, h := range header {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(Sheet, cell, h)
	}

	for i, item := range items {
		row := i + 2
		values := []any{
			item.ID,
			item.Name,
			item.Kind,
			item.Location,
			optional(item.Quantity),
			optional(item.MinQuantity),
			string(item.Status()),
			item.PurchaseLink,
			item.UpdatedAt.UTC().Format("2006-01-02 15:04"),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			f.SetCellValue(Sheet, cell, v)
		}
	}

	if err := f.SetPanes(Sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return fmt.Errorf("freezing header: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func optional(n *int) any {
	if n == nil {
		return ""
	}
	return *n
}
