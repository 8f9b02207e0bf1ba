package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bitbucket.org/logesys/invoices_backend/config"
	"bitbucket.org/logesys/invoices_backend/models"
	"bitbucket.org/logesys/invoices_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ErrInvalidInvoiceDate marks a malformed date of exportation. The whole
// ingestion call fails; nothing is written.
var ErrInvalidInvoiceDate = errors.New("invalid date of exportation")

// ReminderSummary carries the latest derived payment reminder back to the
// caller in the result value. The presentation layer reads it from here
// instead of any shared state.
type ReminderSummary struct {
	VendorId      int             `json:"vendor_id"`
	VendorName    string          `json:"vendor_name"`
	LineItemId    int             `json:"line_item_id"`
	InvoiceDate   time.Time       `json:"invoice_date"`
	DueDate       time.Time       `json:"due_date"`
	WaybillNumber string          `json:"waybill_number"`
	Amount        decimal.Decimal `json:"amount"`
}

// IngestResult is the whole outcome of one ingestion call: whether anything
// was written, the advisory messages for every business-rule skip along the
// way, and the last derived reminder.
type IngestResult struct {
	Success      bool             `json:"success"`
	Duplicate    bool             `json:"duplicate"`
	InvoiceId    int              `json:"invoice_id,omitempty"`
	Messages     []string         `json:"messages"`
	LastReminder *ReminderSummary `json:"last_reminder,omitempty"`
}

func (r *IngestResult) addMessage(format string, args ...any) {
	r.Messages = append(r.Messages, fmt.Sprintf(format, args...))
}

// IngestInvoice runs the full pipeline for one structured invoice record:
// duplicate guard, header and line-item inserts, payment reminder derivation,
// and purchase-order delivery reconciliation, all inside one transaction.
// Business-rule skips (duplicate waybill, unmatched vendor, missing purchase
// order, already-recorded delivery) surface as advisory messages; any store
// fault rolls the whole transaction back and returns the error.
func IngestInvoice(ctx context.Context, logger *logrus.Logger, input *models.NewInvoice) (*IngestResult, error) {

	result := &IngestResult{Messages: []string{}}

	invoiceDate, err := utils.ParseDayMonthYear(input.DateOfExportation)
	if err != nil {
		config.LogError(ctx, logger, "invoiceWorkflow.go", "IngestInvoice", "ParseDateOfExportation", input.DateOfExportation, err)
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidInvoiceDate, input.DateOfExportation, err)
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	// Always rollback on early-return or panic; Commit makes the later
	// Rollback a no-op.
	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback().Error
			panic(r)
		}
	}()
	defer func() { _ = tx.Rollback().Error }()

	existing, err := models.GetInvoiceByWaybillNumber(tx, input.WaybillNumber)
	if err != nil {
		config.LogError(ctx, logger, "invoiceWorkflow.go", "IngestInvoice", "GetInvoiceByWaybillNumber", input.WaybillNumber, err)
		return nil, err
	}
	if existing != nil {
		result.Duplicate = true
		result.addMessage("Invoice with waybill number %s already exists. Skipping insert.", input.WaybillNumber)
		config.LogSkip(ctx, logger, "invoiceWorkflow.go", "IngestInvoice", "duplicate waybill number", input.WaybillNumber)
		return result, nil
	}

	invoice := models.Invoice{
		WaybillNumber:     input.WaybillNumber,
		DateOfExportation: invoiceDate,
		BillToName:        input.BillToName,
		BillToAddress:     input.BillToAddress,
		ShipToName:        input.ShipToName,
		ShipToAddress:     input.ShipToAddress,
	}
	if err := tx.Create(&invoice).Error; err != nil {
		config.LogError(ctx, logger, "invoiceWorkflow.go", "IngestInvoice", "CreateInvoice", invoice, err)
		return nil, err
	}
	result.InvoiceId = invoice.ID

	for _, item := range input.LineItems {
		lineItem := models.InvoiceLineItem{
			InvoiceId:       invoice.ID,
			ItemDescription: item.ItemDescription,
			Quantity:        item.Quantity,
			UnitPrice:       item.UnitPrice,
			Total:           item.Total,
		}
		if err := tx.Create(&lineItem).Error; err != nil {
			config.LogError(ctx, logger, "invoiceWorkflow.go", "IngestInvoice", "CreateInvoiceLineItem", lineItem, err)
			return nil, err
		}
		result.addMessage("Inserted line: %s | Qty: %s | Unit Price: %s | Total: %s",
			lineItem.ItemDescription, lineItem.Quantity, lineItem.UnitPrice, lineItem.Total)

		if err := insertPaymentReminder(ctx, tx, logger, result, input.BillToName, invoiceDate, item.Total, input.WaybillNumber, lineItem.ID); err != nil {
			return nil, err
		}

		if err := reconcileDelivery(ctx, tx, logger, result, input.BillToName, item.ItemDescription, item.Quantity, input.WaybillNumber, invoiceDate); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		config.LogError(ctx, logger, "invoiceWorkflow.go", "IngestInvoice", "Commit", input.WaybillNumber, err)
		return nil, err
	}

	result.Success = true
	return result, nil
}

// insertPaymentReminder derives one reminder for a line item: due date is the
// invoice date plus the vendor's credit period in calendar days. An unmatched
// bill-to name only skips this sub-step; the line item itself stays ingested.
func insertPaymentReminder(ctx context.Context, tx *gorm.DB, logger *logrus.Logger, result *IngestResult,
	billToName string, invoiceDate time.Time, amount decimal.Decimal, waybillNumber string, lineItemId int) error {

	vendor, err := models.GetVendorByName(tx, billToName)
	if err != nil {
		config.LogError(ctx, logger, "invoiceWorkflow.go", "insertPaymentReminder", "GetVendorByName", billToName, err)
		return err
	}
	if vendor == nil {
		result.addMessage("No vendor found with name: %s. Cannot create payment reminder.", billToName)
		config.LogSkip(ctx, logger, "invoiceWorkflow.go", "insertPaymentReminder", "no vendor found", billToName)
		return nil
	}

	dueDate := reminderDueDate(invoiceDate, vendor.CreditPeriodDays)

	reminder := models.PaymentReminder{
		VendorId:      vendor.ID,
		LineItemId:    lineItemId,
		InvoiceDate:   invoiceDate,
		DueDate:       dueDate,
		WaybillNumber: waybillNumber,
		Amount:        amount,
	}
	if err := tx.Create(&reminder).Error; err != nil {
		config.LogError(ctx, logger, "invoiceWorkflow.go", "insertPaymentReminder", "CreatePaymentReminder", reminder, err)
		return err
	}

	result.LastReminder = &ReminderSummary{
		VendorId:      vendor.ID,
		VendorName:    vendor.Name,
		LineItemId:    lineItemId,
		InvoiceDate:   invoiceDate,
		DueDate:       dueDate,
		WaybillNumber: waybillNumber,
		Amount:        amount,
	}
	result.addMessage("Payment reminder created for %s with due date %s and amount %s.",
		vendor.Name, dueDate.Format("2006-01-02"), amount)
	return nil
}

// reconcileDelivery matches the line item against an open purchase order by
// (vendor, exact item description), records the delivery receipt once per
// (purchase order, waybill) pair, and adds the delivered quantity to the
// cumulative received quantity. Fractional quantities truncate toward zero.
func reconcileDelivery(ctx context.Context, tx *gorm.DB, logger *logrus.Logger, result *IngestResult,
	vendorName string, itemDescription string, quantity decimal.Decimal, waybillNumber string, deliveryDate time.Time) error {

	// Received quantities only ever grow; a negative delivered quantity is
	// bad extractor output, not a retraction.
	if quantity.IsNegative() {
		result.addMessage("Negative quantity %s for item: %s. Skipping delivery reconciliation.", quantity, itemDescription)
		config.LogSkip(ctx, logger, "invoiceWorkflow.go", "reconcileDelivery", "negative delivered quantity", itemDescription)
		return nil
	}

	vendor, err := models.GetVendorByName(tx, vendorName)
	if err != nil {
		config.LogError(ctx, logger, "invoiceWorkflow.go", "reconcileDelivery", "GetVendorByName", vendorName, err)
		return err
	}
	if vendor == nil {
		result.addMessage("No vendor found for delivery: %s.", vendorName)
		config.LogSkip(ctx, logger, "invoiceWorkflow.go", "reconcileDelivery", "no vendor found for delivery", vendorName)
		return nil
	}

	po, err := models.GetPurchaseOrderByVendorAndItem(tx, vendor.ID, itemDescription)
	if err != nil {
		config.LogError(ctx, logger, "invoiceWorkflow.go", "reconcileDelivery", "GetPurchaseOrderByVendorAndItem", itemDescription, err)
		return err
	}
	if po == nil {
		result.addMessage("No purchase order found for item: %s from vendor: %s.", itemDescription, vendorName)
		config.LogSkip(ctx, logger, "invoiceWorkflow.go", "reconcileDelivery", "no purchase order found", itemDescription)
		return nil
	}

	alreadyRecorded, err := models.DeliveryReceiptExists(tx, po.ID, waybillNumber)
	if err != nil {
		config.LogError(ctx, logger, "invoiceWorkflow.go", "reconcileDelivery", "DeliveryReceiptExists", po.ID, err)
		return err
	}
	if alreadyRecorded {
		result.addMessage("Delivery for purchase order %d with waybill %s already recorded. Skipping.", po.ID, waybillNumber)
		config.LogSkip(ctx, logger, "invoiceWorkflow.go", "reconcileDelivery", "delivery already recorded", waybillNumber)
		return nil
	}

	deliveredQuantity := truncateQuantity(quantity)
	receipt := models.DeliveryReceipt{
		PurchaseOrderId:   po.ID,
		WaybillNumber:     waybillNumber,
		DeliveredQuantity: deliveredQuantity,
		DeliveryDate:      deliveryDate,
	}
	if err := tx.Create(&receipt).Error; err != nil {
		config.LogError(ctx, logger, "invoiceWorkflow.go", "reconcileDelivery", "CreateDeliveryReceipt", receipt, err)
		return err
	}

	newReceivedQuantity := po.ReceivedQuantity + deliveredQuantity
	if err := tx.Model(&models.PurchaseOrder{}).Where("id = ?", po.ID).
		Update("received_quantity", newReceivedQuantity).Error; err != nil {
		config.LogError(ctx, logger, "invoiceWorkflow.go", "reconcileDelivery", "UpdateReceivedQuantity", po.ID, err)
		return err
	}

	result.addMessage("%s", fulfillmentMessage(po.ID, newReceivedQuantity, po.OrderedQuantity))
	return nil
}

// reminderDueDate is plain calendar-day arithmetic: no business-day or
// month-end adjustment.
func reminderDueDate(invoiceDate time.Time, creditPeriodDays int) time.Time {
	return invoiceDate.AddDate(0, 0, creditPeriodDays)
}

// truncateQuantity drops the fractional part of a delivered quantity.
// Received quantities on purchase orders are whole units.
func truncateQuantity(quantity decimal.Decimal) int {
	return int(quantity.IntPart())
}

func fulfillmentMessage(purchaseOrderId, receivedQuantity, orderedQuantity int) string {
	if receivedQuantity >= orderedQuantity {
		return fmt.Sprintf("Purchase order %d fulfilled with delivery of %d items.", purchaseOrderId, receivedQuantity)
	}
	return fmt.Sprintf("Purchase order %d partially fulfilled (%d/%d).", purchaseOrderId, receivedQuantity, orderedQuantity)
}
