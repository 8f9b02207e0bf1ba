package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/logesys/invoices_backend/config"
	"gorm.io/gorm"
)

// PurchaseOrder is pre-existing reference data. ReceivedQuantity is the only
// field the ingestion workflow mutates, and it must never decrease: each
// reconciled delivery adds its quantity exactly once, guarded by the
// (purchase order, waybill) delivery receipt.
type PurchaseOrder struct {
	ID               int       `gorm:"primary_key" json:"id"`
	VendorId         int       `gorm:"index;not null" json:"vendor_id" binding:"required"`
	ItemDescription  string    `gorm:"size:255;not null" json:"item_description" binding:"required"`
	OrderedQuantity  int       `gorm:"not null;default:0" json:"ordered_quantity"`
	ReceivedQuantity int       `gorm:"not null;default:0" json:"received_quantity"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewPurchaseOrder struct {
	VendorId        int    `json:"vendor_id" binding:"required"`
	ItemDescription string `json:"item_description" binding:"required"`
	OrderedQuantity int    `json:"ordered_quantity" binding:"gt=0"`
}

// IsFulfilled derives the fulfillment status from the two quantity columns.
// There is no separate status field: callers always re-derive it.
func (po PurchaseOrder) IsFulfilled() bool {
	return po.ReceivedQuantity >= po.OrderedQuantity
}

func CreatePurchaseOrder(ctx context.Context, input *NewPurchaseOrder) (*PurchaseOrder, error) {
	db := config.GetDB()

	po := PurchaseOrder{
		VendorId:        input.VendorId,
		ItemDescription: input.ItemDescription,
		OrderedQuantity: input.OrderedQuantity,
	}
	if err := db.WithContext(ctx).Create(&po).Error; err != nil {
		return nil, err
	}
	return &po, nil
}

// GetPurchaseOrderByVendorAndItem matches an open purchase order by exact
// item description for the vendor. No fuzzy matching.
func GetPurchaseOrderByVendorAndItem(tx *gorm.DB, vendorId int, itemDescription string) (*PurchaseOrder, error) {
	var po PurchaseOrder
	err := tx.Where("vendor_id = ? AND item_description = ?", vendorId, itemDescription).First(&po).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &po, nil
}

func GetPurchaseOrderCount(ctx context.Context) (int64, error) {
	db := config.GetDB()
	var count int64
	if err := db.WithContext(ctx).Model(&PurchaseOrder{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
