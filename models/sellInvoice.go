package models

import (
	"context"

	"bitbucket.org/mmdatafocus/ledger_backend/utils"
	"github.com/shopspring/decimal"
)

type SellInvoice struct {
	InvoiceCore
	CustomerId int       `gorm:"index;not null" json:"customer_id"`
	Customer   *Customer `gorm:"foreignKey:CustomerId" json:"customer,omitempty"`
}

func (si *SellInvoice) GetCounterpartyId() int   { return si.CustomerId }
func (si *SellInvoice) SetCounterpartyId(id int) { si.CustomerId = id }

type SellInvoiceItem struct {
	InvoiceLineCore
	Item *Item `gorm:"foreignKey:ItemId" json:"item,omitempty"`
}

type SellPayment struct {
	PaymentCore
}

var sellInvoices = &invoiceFamily[
	SellInvoice, *SellInvoice,
	SellInvoiceItem, *SellInvoiceItem,
	SellPayment, *SellPayment,
]{
	name:                "sales invoice",
	lockType:            "sell_invoice",
	counterpartyColumn:  "customer_id",
	counterpartyMissing: "customer not found",
	validateCounterparty: func(ctx context.Context, userId string, id int) error {
		return utils.ValidateResourceId[Customer](ctx, userId, id)
	},
	counterpartyIdsByName: func(ctx context.Context, userId string, name string) ([]int, error) {
		return customerIdsByName(ctx, userId, name)
	},
}

func CreateSellInvoice(ctx context.Context, input *NewInvoice) (*SellInvoice, error) {
	return sellInvoices.create(ctx, input)
}

func UpdateSellInvoice(ctx context.Context, invoiceId int, input *NewInvoice) (*SellInvoice, error) {
	return sellInvoices.update(ctx, invoiceId, input)
}

func DeleteSellInvoice(ctx context.Context, invoiceId int) error {
	return sellInvoices.delete(ctx, invoiceId)
}

func GetSellInvoice(ctx context.Context, invoiceId int) (*InvoiceDetail[SellInvoice, SellInvoiceItem, SellPayment], error) {
	return sellInvoices.getById(ctx, invoiceId)
}

func GetSellInvoiceDetail(ctx context.Context, invoiceId int) (*InvoiceDetail[SellInvoice, SellInvoiceItem, SellPayment], error) {
	return sellInvoices.detailById(ctx, invoiceId)
}

func PaginateSellInvoices(ctx context.Context, filter *InvoiceFilter, page int, limit int) (*Page[SellInvoice], error) {
	return sellInvoices.paginate(ctx, filter, page, limit)
}

func PaySellInvoice(ctx context.Context, invoiceId int, amount decimal.Decimal, description string) (*SellInvoice, error) {
	return sellInvoices.payRemaining(ctx, invoiceId, amount, description)
}

func SellPaymentHistory(ctx context.Context, invoiceId int) ([]*SellPayment, error) {
	return sellInvoices.paymentHistory(ctx, invoiceId)
}

func SellUnpaidSummary(ctx context.Context, customerId int) (*UnpaidSummary, error) {
	return sellInvoices.unpaidSummary(ctx, customerId)
}

// PayAllSellInvoices spreads one payment across a customer's open invoices,
// oldest first, and returns the unapplied remainder.
func PayAllSellInvoices(ctx context.Context, customerId int, amount decimal.Decimal, description string) (decimal.Decimal, error) {
	return sellInvoices.payAllOldestFirst(ctx, customerId, amount, description)
}
