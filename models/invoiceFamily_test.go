package models

import (
	"context"
	"errors"
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/ledger_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

// The engine type parameters require the concrete pointer types to satisfy
// these interfaces. An embedded core field named the same as its accessor
// would shadow the promoted method and break every family, so pin the
// contract here.
var (
	_ invoiceModel        = (*SellInvoice)(nil)
	_ invoiceModel        = (*PurchaseInvoice)(nil)
	_ invoiceLineModel    = (*SellInvoiceItem)(nil)
	_ invoiceLineModel    = (*PurchaseInvoiceItem)(nil)
	_ invoicePaymentModel = (*SellPayment)(nil)
	_ invoicePaymentModel = (*PurchasePayment)(nil)
)

func buildPaymentRow[P any, PP interface {
	*P
	invoicePaymentModel
}](core PaymentCore) *P {
	var payment P
	*PP(&payment).PayCore() = core
	return &payment
}

func TestPaymentCoreAccessorRoundTrips(t *testing.T) {
	core := PaymentCore{
		InvoiceId:   7,
		UserId:      "u1",
		Amount:      decimal.NewFromInt(25),
		Description: "deposit",
		PaymentDate: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
	}

	sell := buildPaymentRow[SellPayment, *SellPayment](core)
	assert.Equal(t, 7, sell.PayCore().InvoiceId)
	assert.True(t, sell.PayCore().Amount.Equal(decimal.NewFromInt(25)))

	purchase := buildPaymentRow[PurchasePayment, *PurchasePayment](core)
	assert.Equal(t, "u1", purchase.PayCore().UserId)
	assert.Equal(t, "deposit", purchase.PayCore().Description)

	// the accessor must hand back the embedded core, not a copy
	sell.PayCore().Amount = decimal.NewFromInt(30)
	assert.True(t, sell.Amount.Equal(decimal.NewFromInt(30)))
}

func TestValidateInputKeepsCounterpartyErrorKinds(t *testing.T) {
	input := &NewInvoice{
		CounterpartyId: 1,
		Date:           time.Now(),
		Total:          decimal.NewFromInt(10),
		Items: []NewInvoiceItem{
			{ItemId: 1, Quantity: 1, UnitPrice: decimal.NewFromInt(10)},
		},
	}

	family := &invoiceFamily[SellInvoice, *SellInvoice, SellInvoiceItem, *SellInvoiceItem, SellPayment, *SellPayment]{
		name:                "sales invoice",
		counterpartyMissing: "customer not found",
	}

	// a missing counterparty is the caller's mistake
	family.validateCounterparty = func(ctx context.Context, userId string, id int) error {
		return utils.NotFoundError("customer not found")
	}
	err := family.validateInput(context.Background(), "u1", input)
	assert.Equal(t, utils.ErrorKindValidation, utils.KindOf(err))
	assert.ErrorContains(t, err, "customer not found")

	// a storage outage is not, and must surface as such
	family.validateCounterparty = func(ctx context.Context, userId string, id int) error {
		return utils.StorageError("count query failed", errors.New("dial tcp: connection refused"))
	}
	err = family.validateInput(context.Background(), "u1", input)
	assert.Equal(t, utils.ErrorKindStorageFailure, utils.KindOf(err))
}
