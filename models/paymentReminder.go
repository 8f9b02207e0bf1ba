package models

import (
	"context"
	"time"

	"bitbucket.org/logesys/invoices_backend/config"
	"github.com/shopspring/decimal"
)

// PaymentReminder is derived once per invoice line item during ingestion:
// due date = invoice date + the vendor's credit period in calendar days.
// This workflow never updates or deletes reminders.
type PaymentReminder struct {
	ID            int             `gorm:"primary_key" json:"id"`
	VendorId      int             `gorm:"index;not null" json:"vendor_id"`
	LineItemId    int             `gorm:"index;not null" json:"line_item_id"`
	InvoiceDate   time.Time       `gorm:"not null" json:"invoice_date"`
	DueDate       time.Time       `gorm:"not null" json:"due_date"`
	WaybillNumber string          `gorm:"size:100;not null" json:"waybill_number"`
	Amount        decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"amount"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func GetPaymentReminders(ctx context.Context, waybillNumber string) ([]*PaymentReminder, error) {
	db := config.GetDB()
	var reminders []*PaymentReminder
	dbCtx := db.WithContext(ctx).Order("due_date ASC")
	if waybillNumber != "" {
		dbCtx = dbCtx.Where("waybill_number = ?", waybillNumber)
	}
	if err := dbCtx.Find(&reminders).Error; err != nil {
		return nil, err
	}
	return reminders, nil
}
