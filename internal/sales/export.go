package sales

import (
	"bytes"
	"fmt"
	"time"

	"pos-backend/internal/models"

	"github.com/xuri/excelize/v2"
)

var exportHeader = []string{
	"Invoice", "Tanggal", "Kasir", "Jumlah Item", "Subtotal", "Diskon", "Total",
}

// ExportXLSX renders one row per sale for the given range and returns the
// workbook bytes for download.
func ExportXLSX(rows []models.Sale, from, to time.Time) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := "Penjualan"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	title := fmt.Sprintf("Laporan Penjualan %s s/d %s",
		from.Format("02-01-2006"), to.Add(-time.Second).Format("02-01-2006"))
	if err := f.SetCellValue(sheet, "A1", title); err != nil {
		return nil, err
	}

	for col, name := range exportHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 3)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, name); err != nil {
			return nil, err
		}
	}

	var grandTotal float64
	for i, sale := range rows {
		itemCount := 0
		for _, item := range sale.Items {
			itemCount += item.Quantity
		}
		cashier := ""
		if sale.User != nil {
			cashier = sale.User.Name
		}
		values := []any{
			sale.InvoiceNumber,
			sale.CreatedAt.Format("02-01-2006 15:04"),
			cashier,
			itemCount,
			sale.Subtotal,
			sale.Discount,
			sale.Total,
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, i+4)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, err
			}
		}
		grandTotal += sale.Total
	}

	totalRow := len(rows) + 4
	totalLabel, _ := excelize.CoordinatesToCellName(len(exportHeader)-1, totalRow)
	totalCell, _ := excelize.CoordinatesToCellName(len(exportHeader), totalRow)
	if err := f.SetCellValue(sheet, totalLabel, "Grand Total"); err != nil {
		return nil, err
	}
	if err := f.SetCellValue(sheet, totalCell, grandTotal); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
