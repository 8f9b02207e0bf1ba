package reports

import (
	"context"
	"fmt"
	"io"
	"time"

	"bitbucket.org/logesys/invoices_backend/config"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

type InvoiceRegisterRow struct {
	WaybillNumber     string          `json:"waybill_number"`
	DateOfExportation time.Time       `json:"date_of_exportation"`
	BillToName        string          `json:"bill_to_name"`
	ItemDescription   string          `json:"item_description"`
	Quantity          decimal.Decimal `json:"quantity"`
	UnitPrice         decimal.Decimal `json:"unit_price"`
	Total             decimal.Decimal `json:"total"`
}

func getInvoiceRegister(ctx context.Context) ([]*InvoiceRegisterRow, error) {

	sql := `
SELECT
    invoices.waybill_number,
    invoices.date_of_exportation,
    invoices.bill_to_name,
    li.item_description,
    li.quantity,
    li.unit_price,
    li.total
FROM
    invoice_line_items AS li
    JOIN invoices ON invoices.id = li.invoice_id
ORDER BY
    invoices.date_of_exportation, invoices.id, li.id;
`

	var rows []*InvoiceRegisterRow
	db := config.GetDB()
	if err := db.WithContext(ctx).Raw(sql).Scan(&rows).Error; err != nil {
		return nil, err
	}

	return rows, nil
}

// WriteInvoiceRegister writes the register as an XLSX workbook, one row per
// invoice line item.
func WriteInvoiceRegister(ctx context.Context, w io.Writer) error {

	rows, err := getInvoiceRegister(ctx)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	if _, err := f.NewSheet("Sheet1"); err != nil {
		return err
	}

	// Add headers
	f.SetCellValue("Sheet1", "A1", "WaybillNumber")
	f.SetCellValue("Sheet1", "B1", "DateOfExportation")
	f.SetCellValue("Sheet1", "C1", "BillToName")
	f.SetCellValue("Sheet1", "D1", "ItemDescription")
	f.SetCellValue("Sheet1", "E1", "Quantity")
	f.SetCellValue("Sheet1", "F1", "UnitPrice")
	f.SetCellValue("Sheet1", "G1", "Total")

	// Add data
	for i, r := range rows {
		f.SetCellValue("Sheet1", "A"+fmt.Sprint(i+2), r.WaybillNumber)
		f.SetCellValue("Sheet1", "B"+fmt.Sprint(i+2), r.DateOfExportation.Format("2006-01-02"))
		f.SetCellValue("Sheet1", "C"+fmt.Sprint(i+2), r.BillToName)
		f.SetCellValue("Sheet1", "D"+fmt.Sprint(i+2), r.ItemDescription)
		f.SetCellValue("Sheet1", "E"+fmt.Sprint(i+2), r.Quantity.String())
		f.SetCellValue("Sheet1", "F"+fmt.Sprint(i+2), r.UnitPrice.String())
		f.SetCellValue("Sheet1", "G"+fmt.Sprint(i+2), r.Total.String())
	}

	return f.Write(w)
}
