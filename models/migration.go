package models

import (
	"gorm.io/gorm"
)

func MigrateTable(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Customer{},
		&Supplier{},
		&Item{},
		&Category{},
		&Transaction{},
		&SellInvoice{},
		&SellInvoiceItem{},
		&SellPayment{},
		&PurchaseInvoice{},
		&PurchaseInvoiceItem{},
		&PurchasePayment{},
		&StockReceipt{},
	)
}
