package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/logesys/invoices_backend/config"
	"bitbucket.org/logesys/invoices_backend/utils"
	"gorm.io/gorm"
)

// Vendor is reference data: the ingestion workflow only reads it. Name is
// the lookup key matched against the invoice's bill-to name, exact equality.
type Vendor struct {
	ID               int       `gorm:"primary_key" json:"id"`
	Name             string    `gorm:"size:255;uniqueIndex;not null" json:"name" binding:"required"`
	CreditPeriodDays int       `gorm:"not null;default:0" json:"credit_period_days"`
	IsActive         *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewVendor struct {
	Name             string `json:"name" binding:"required"`
	CreditPeriodDays int    `json:"credit_period_days" binding:"gte=0"`
	IsActive         *bool  `json:"is_active"`
}

func CreateVendor(ctx context.Context, input *NewVendor) (*Vendor, error) {
	db := config.GetDB()

	vendor := Vendor{
		Name:             input.Name,
		CreditPeriodDays: input.CreditPeriodDays,
		IsActive:         utils.NewTrue(),
	}
	if input.IsActive != nil {
		vendor.IsActive = input.IsActive
	}
	if err := db.WithContext(ctx).Create(&vendor).Error; err != nil {
		return nil, err
	}
	return &vendor, nil
}

// GetVendorByName resolves a vendor inside the caller's transaction.
// A missing vendor is reported as (nil, nil): unmatched bill-to names are a
// business-rule skip, not a fault.
func GetVendorByName(tx *gorm.DB, name string) (*Vendor, error) {
	var vendor Vendor
	err := tx.Where("name = ?", name).First(&vendor).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &vendor, nil
}

func GetVendors(ctx context.Context) ([]*Vendor, error) {
	db := config.GetDB()
	var vendors []*Vendor
	if err := db.WithContext(ctx).Order("name ASC").Find(&vendors).Error; err != nil {
		return nil, err
	}
	return vendors, nil
}

func GetVendorCount(ctx context.Context) (int64, error) {
	db := config.GetDB()
	var count int64
	if err := db.WithContext(ctx).Model(&Vendor{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
