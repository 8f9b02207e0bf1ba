package models

import (
	"time"

	"gorm.io/gorm"
)

// DeliveryReceipt records that a waybill's shipment was counted against a
// purchase order. The (purchase order, waybill) pair is the idempotency key:
// re-processing the same shipment document must not double-count.
type DeliveryReceipt struct {
	ID                int       `gorm:"primary_key" json:"id"`
	PurchaseOrderId   int       `gorm:"uniqueIndex:idx_po_waybill;not null" json:"purchase_order_id"`
	WaybillNumber     string    `gorm:"size:100;uniqueIndex:idx_po_waybill;not null" json:"waybill_number"`
	DeliveredQuantity int       `gorm:"not null;default:0" json:"delivered_quantity"`
	DeliveryDate      time.Time `gorm:"not null" json:"delivery_date"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func DeliveryReceiptExists(tx *gorm.DB, purchaseOrderId int, waybillNumber string) (bool, error) {
	var count int64
	err := tx.Model(&DeliveryReceipt{}).
		Where("purchase_order_id = ? AND waybill_number = ?", purchaseOrderId, waybillNumber).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
