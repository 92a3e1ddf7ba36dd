package models

import (
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/ledger_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func validInvoiceInput() *NewInvoice {
	return &NewInvoice{
		CounterpartyId: 1,
		Date:           time.Now(),
		Total:          decimal.NewFromInt(10),
		Items: []NewInvoiceItem{
			{ItemId: 1, Quantity: 1, UnitPrice: decimal.NewFromInt(10)},
		},
	}
}

func TestNewInvoiceInputTags(t *testing.T) {
	assert.NoError(t, utils.ValidateInput(validInvoiceInput()))

	missingDate := validInvoiceInput()
	missingDate.Date = time.Time{}
	assert.Error(t, utils.ValidateInput(missingDate))

	noItems := validInvoiceInput()
	noItems.Items = nil
	assert.Error(t, utils.ValidateInput(noItems))

	zeroQty := validInvoiceInput()
	zeroQty.Items[0].Quantity = 0
	assert.Error(t, utils.ValidateInput(zeroQty))

	noCounterparty := validInvoiceInput()
	noCounterparty.CounterpartyId = 0
	assert.Error(t, utils.ValidateInput(noCounterparty))
}

func TestNewCategoryTypeRestricted(t *testing.T) {
	assert.NoError(t, utils.ValidateInput(&NewCategory{Name: "Rent", Type: TransactionTypeExpense}))
	assert.NoError(t, utils.ValidateInput(&NewCategory{Name: "Sales", Type: TransactionTypeIncome}))

	err := utils.ValidateInput(&NewCategory{Name: "Rent", Type: "other"})
	assert.Equal(t, utils.ErrorKindValidation, utils.KindOf(err))
}

func TestNewTransactionTypeRestricted(t *testing.T) {
	input := &NewTransaction{
		Type:   "transfer",
		Amount: decimal.NewFromInt(5),
		Date:   time.Now(),
	}
	assert.Error(t, utils.ValidateInput(input))

	input.Type = TransactionTypeIncome
	assert.NoError(t, utils.ValidateInput(input))
}
