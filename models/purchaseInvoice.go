package models

import (
	"context"

	"bitbucket.org/mmdatafocus/ledger_backend/utils"
	"github.com/shopspring/decimal"
)

type PurchaseInvoice struct {
	InvoiceCore
	SupplierId int       `gorm:"index;not null" json:"supplier_id"`
	Supplier   *Supplier `gorm:"foreignKey:SupplierId" json:"supplier,omitempty"`
}

func (pi *PurchaseInvoice) GetCounterpartyId() int   { return pi.SupplierId }
func (pi *PurchaseInvoice) SetCounterpartyId(id int) { pi.SupplierId = id }

type PurchaseInvoiceItem struct {
	InvoiceLineCore
	Item *Item `gorm:"foreignKey:ItemId" json:"item,omitempty"`
}

type PurchasePayment struct {
	PaymentCore
}

var purchaseInvoices = &invoiceFamily[
	PurchaseInvoice, *PurchaseInvoice,
	PurchaseInvoiceItem, *PurchaseInvoiceItem,
	PurchasePayment, *PurchasePayment,
]{
	name:                "purchase invoice",
	lockType:            "purchase_invoice",
	counterpartyColumn:  "supplier_id",
	counterpartyMissing: "supplier not found",
	validateCounterparty: func(ctx context.Context, userId string, id int) error {
		return utils.ValidateResourceId[Supplier](ctx, userId, id)
	},
	counterpartyIdsByName: func(ctx context.Context, userId string, name string) ([]int, error) {
		return supplierIdsByName(ctx, userId, name)
	},
	syncSideRecords:  syncStockReceipts,
	clearSideRecords: clearStockReceipts,
}

func CreatePurchaseInvoice(ctx context.Context, input *NewInvoice) (*PurchaseInvoice, error) {
	return purchaseInvoices.create(ctx, input)
}

func UpdatePurchaseInvoice(ctx context.Context, invoiceId int, input *NewInvoice) (*PurchaseInvoice, error) {
	return purchaseInvoices.update(ctx, invoiceId, input)
}

func DeletePurchaseInvoice(ctx context.Context, invoiceId int) error {
	return purchaseInvoices.delete(ctx, invoiceId)
}

func GetPurchaseInvoice(ctx context.Context, invoiceId int) (*InvoiceDetail[PurchaseInvoice, PurchaseInvoiceItem, PurchasePayment], error) {
	return purchaseInvoices.getById(ctx, invoiceId)
}

func GetPurchaseInvoiceDetail(ctx context.Context, invoiceId int) (*InvoiceDetail[PurchaseInvoice, PurchaseInvoiceItem, PurchasePayment], error) {
	return purchaseInvoices.detailById(ctx, invoiceId)
}

func PaginatePurchaseInvoices(ctx context.Context, filter *InvoiceFilter, page int, limit int) (*Page[PurchaseInvoice], error) {
	return purchaseInvoices.paginate(ctx, filter, page, limit)
}

func PayPurchaseInvoice(ctx context.Context, invoiceId int, amount decimal.Decimal, description string) (*PurchaseInvoice, error) {
	return purchaseInvoices.payRemaining(ctx, invoiceId, amount, description)
}

func PurchasePaymentHistory(ctx context.Context, invoiceId int) ([]*PurchasePayment, error) {
	return purchaseInvoices.paymentHistory(ctx, invoiceId)
}

func PurchaseUnpaidSummary(ctx context.Context, supplierId int) (*UnpaidSummary, error) {
	return purchaseInvoices.unpaidSummary(ctx, supplierId)
}

// PayAllPurchaseInvoices spreads one payment across a supplier's open bills,
// oldest first, and returns the unapplied remainder.
func PayAllPurchaseInvoices(ctx context.Context, supplierId int, amount decimal.Decimal, description string) (decimal.Decimal, error) {
	return purchaseInvoices.payAllOldestFirst(ctx, supplierId, amount, description)
}
