package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/logesys/invoices_backend/config"
	"bitbucket.org/logesys/invoices_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Invoice is the header of one ingested shipment document. The waybill
// number is the natural key: one invoice per waybill, never updated.
type Invoice struct {
	ID                int               `gorm:"primary_key" json:"id"`
	WaybillNumber     string            `gorm:"size:100;uniqueIndex;not null" json:"waybill_number" binding:"required"`
	DateOfExportation time.Time         `gorm:"not null" json:"date_of_exportation"`
	BillToName        string            `gorm:"size:255" json:"bill_to_name"`
	BillToAddress     string            `gorm:"type:text" json:"bill_to_address"`
	ShipToName        string            `gorm:"size:255" json:"ship_to_name"`
	ShipToAddress     string            `gorm:"type:text" json:"ship_to_address"`
	LineItems         []InvoiceLineItem `gorm:"foreignKey:InvoiceId" json:"line_items"`
	CreatedAt         time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
}

type InvoiceLineItem struct {
	ID              int             `gorm:"primary_key" json:"id"`
	InvoiceId       int             `gorm:"index;not null" json:"invoice_id"`
	ItemDescription string          `gorm:"size:255" json:"item_description"`
	Quantity        decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"quantity"`
	UnitPrice       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"unit_price"`
	Total           decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

// NewInvoice mirrors the structured record the upstream extractor produces
// from free text. DateOfExportation stays a string here; the workflow parses
// it once and fails the whole ingestion on a malformed date.
type NewInvoice struct {
	WaybillNumber     string               `json:"waybill_number" binding:"required"`
	DateOfExportation string               `json:"date_of_exportation" binding:"required"`
	BillToName        string               `json:"bill_to_name"`
	BillToAddress     string               `json:"bill_to_address"`
	ShipToName        string               `json:"ship_to_name"`
	ShipToAddress     string               `json:"ship_to_address"`
	LineItems         []NewInvoiceLineItem `json:"line_items" binding:"dive"`
}

type NewInvoiceLineItem struct {
	ItemDescription string          `json:"item_description" binding:"required"`
	Quantity        decimal.Decimal `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	Total           decimal.Decimal `json:"total"`
}

// GetInvoiceByWaybillNumber runs inside the caller's transaction so the
// duplicate guard and the header insert observe the same snapshot.
func GetInvoiceByWaybillNumber(tx *gorm.DB, waybillNumber string) (*Invoice, error) {
	var invoice Invoice
	err := tx.Where("waybill_number = ?", waybillNumber).First(&invoice).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

func GetInvoice(ctx context.Context, id int) (*Invoice, error) {
	db := config.GetDB()
	var invoice Invoice
	err := db.WithContext(ctx).Preload("LineItems").First(&invoice, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrorRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

func GetInvoices(ctx context.Context) ([]*Invoice, error) {
	db := config.GetDB()
	var invoices []*Invoice
	if err := db.WithContext(ctx).Preload("LineItems").
		Order("date_of_exportation DESC").Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

func GetInvoiceCount(ctx context.Context) (int64, error) {
	db := config.GetDB()
	var count int64
	if err := db.WithContext(ctx).Model(&Invoice{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
