package models

import (
	"bitbucket.org/logesys/invoices_backend/config"
	"bitbucket.org/logesys/invoices_backend/utils"
)

func MigrateTable() {
	db := config.GetDB()

	utils.ErrorPanic(db.AutoMigrate(
		&Invoice{}, &InvoiceLineItem{},
		&Vendor{},
		&PurchaseOrder{},
		&PaymentReminder{},
		&DeliveryReceipt{},
	))
}
