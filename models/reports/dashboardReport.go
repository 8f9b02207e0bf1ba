package reports

import (
	"context"

	"bitbucket.org/logesys/invoices_backend/models"
)

type DashboardCounters struct {
	InvoiceCount       int64 `json:"invoice_count"`
	VendorCount        int64 `json:"vendor_count"`
	PurchaseOrderCount int64 `json:"purchase_order_count"`
}

// GetDashboardCounters issues the three count queries independently:
// no shared state, no caching.
func GetDashboardCounters(ctx context.Context) (*DashboardCounters, error) {

	invoiceCount, err := models.GetInvoiceCount(ctx)
	if err != nil {
		return nil, err
	}
	vendorCount, err := models.GetVendorCount(ctx)
	if err != nil {
		return nil, err
	}
	poCount, err := models.GetPurchaseOrderCount(ctx)
	if err != nil {
		return nil, err
	}

	return &DashboardCounters{
		InvoiceCount:       invoiceCount,
		VendorCount:        vendorCount,
		PurchaseOrderCount: poCount,
	}, nil
}
