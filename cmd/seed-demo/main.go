// seed-demo loads the reference data the ingestion workflow reads:
// vendors with their credit periods and open purchase orders.
//
// Usage (from backend directory):
//
//	DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/seed-demo
package main

import (
	"context"
	"fmt"
	"os"

	"bitbucket.org/logesys/invoices_backend/config"
	"bitbucket.org/logesys/invoices_backend/models"
)

type seedVendor struct {
	name             string
	creditPeriodDays int
	orders           []seedOrder
}

type seedOrder struct {
	itemDescription string
	orderedQuantity int
}

var seedVendors = []seedVendor{
	{
		name:             "Acme Exports Pvt Ltd",
		creditPeriodDays: 30,
		orders: []seedOrder{
			{itemDescription: "Cotton T-Shirts (Carton of 50)", orderedQuantity: 40},
			{itemDescription: "Denim Jeans (Carton of 24)", orderedQuantity: 10},
		},
	},
	{
		name:             "Global Freight Supplies",
		creditPeriodDays: 45,
		orders: []seedOrder{
			{itemDescription: "Packing Tape Rolls", orderedQuantity: 500},
		},
	},
	{
		name:             "Sunrise Electronics",
		creditPeriodDays: 15,
		orders: []seedOrder{
			{itemDescription: "USB-C Cables 1m", orderedQuantity: 1000},
			{itemDescription: "Power Adapters 65W", orderedQuantity: 250},
		},
	},
}

func main() {
	ctx := context.Background()
	config.ConnectDatabase()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}
	models.MigrateTable()

	for _, sv := range seedVendors {
		existing, err := models.GetVendorByName(db.WithContext(ctx), sv.name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to lookup vendor %q: %v\n", sv.name, err)
			os.Exit(1)
		}
		vendor := existing
		if vendor == nil {
			vendor, err = models.CreateVendor(ctx, &models.NewVendor{
				Name:             sv.name,
				CreditPeriodDays: sv.creditPeriodDays,
			})
			if err != nil {
				fmt.Fprintf(os.Stderr, "failed to create vendor %q: %v\n", sv.name, err)
				os.Exit(1)
			}
			fmt.Printf("created vendor %q (credit period %d days)\n", sv.name, sv.creditPeriodDays)
		}

		for _, so := range sv.orders {
			po, err := models.GetPurchaseOrderByVendorAndItem(db.WithContext(ctx), vendor.ID, so.itemDescription)
			if err != nil {
				fmt.Fprintf(os.Stderr, "failed to lookup purchase order %q: %v\n", so.itemDescription, err)
				os.Exit(1)
			}
			if po != nil {
				continue
			}
			if _, err := models.CreatePurchaseOrder(ctx, &models.NewPurchaseOrder{
				VendorId:        vendor.ID,
				ItemDescription: so.itemDescription,
				OrderedQuantity: so.orderedQuantity,
			}); err != nil {
				fmt.Fprintf(os.Stderr, "failed to create purchase order %q: %v\n", so.itemDescription, err)
				os.Exit(1)
			}
			fmt.Printf("created purchase order %q x%d for %q\n", so.itemDescription, so.orderedQuantity, sv.name)
		}
	}

	fmt.Println("seed complete")
}
