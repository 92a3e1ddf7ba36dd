package models_test

import (
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/ledger_backend/config"
	"bitbucket.org/mmdatafocus/ledger_backend/models"
	"bitbucket.org/mmdatafocus/ledger_backend/utils"
	"github.com/shopspring/decimal"
)

// A payment that reads an invoice snapshot and then loses the version race
// must come back as Conflict, with nothing persisted.
func TestStalePaymentWriteReturnsConflict(t *testing.T) {
	ctx := setupIntegration(t)

	customer, err := models.CreateCustomer(ctx, &models.NewCustomer{Name: "Race Case"})
	if err != nil {
		t.Fatalf("CreateCustomer: %v", err)
	}
	item, err := models.CreateItem(ctx, &models.NewItem{Name: "Cog", SalePrice: decimal.NewFromInt(5)})
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}
	invoice, err := models.CreateSellInvoice(ctx, &models.NewInvoice{
		CounterpartyId: customer.ID,
		Date:           time.Now(),
		Total:          decimal.NewFromInt(50),
		Items: []models.NewInvoiceItem{
			{ItemId: item.ID, Quantity: 10, UnitPrice: decimal.NewFromInt(5)},
		},
	})
	if err != nil {
		t.Fatalf("CreateSellInvoice: %v", err)
	}

	// Bump the version inside an open transaction and sit on the row lock.
	// The payment below snapshots the old version, then its guarded update
	// queues behind this lock; once we commit, it matches zero rows.
	db := config.GetDB()
	blocker := db.Begin()
	if err := blocker.Exec("UPDATE sell_invoices SET version = version + 1 WHERE id = ?", invoice.ID).Error; err != nil {
		blocker.Rollback()
		t.Fatalf("bump version: %v", err)
	}

	payErr := make(chan error, 1)
	go func() {
		_, err := models.PaySellInvoice(ctx, invoice.ID, decimal.NewFromInt(10), "stale write")
		payErr <- err
	}()

	time.Sleep(2 * time.Second)
	if err := blocker.Commit().Error; err != nil {
		t.Fatalf("commit version bump: %v", err)
	}

	select {
	case err := <-payErr:
		if utils.KindOf(err) != utils.ErrorKindConflict {
			t.Fatalf("expected Conflict from stale payment; got %v", err)
		}
	case <-time.After(30 * time.Second):
		t.Fatalf("stale payment did not return")
	}

	// The losing payment must leave no trace.
	detail, err := models.GetSellInvoice(ctx, invoice.ID)
	if err != nil {
		t.Fatalf("GetSellInvoice: %v", err)
	}
	if !detail.Invoice.PaidAmount.IsZero() {
		t.Fatalf("expected paid unchanged after conflict; got %s", detail.Invoice.PaidAmount)
	}
	var payments int64
	if err := db.WithContext(ctx).Model(&models.SellPayment{}).Where("invoice_id = ?", invoice.ID).Count(&payments).Error; err != nil {
		t.Fatalf("count payments: %v", err)
	}
	if payments != 0 {
		t.Fatalf("expected 0 payment rows after rollback; got %d", payments)
	}
}

// Updating a purchase invoice replaces its stock receipts wholesale and
// refreshes the item's last purchase price.
func TestUpdatePurchaseInvoiceRebuildsReceipts(t *testing.T) {
	ctx := setupIntegration(t)

	supplier, err := models.CreateSupplier(ctx, &models.NewSupplier{Name: "Restock Ltd"})
	if err != nil {
		t.Fatalf("CreateSupplier: %v", err)
	}
	bolt, err := models.CreateItem(ctx, &models.NewItem{Name: "Bolt", SalePrice: decimal.NewFromInt(2)})
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}
	nut, err := models.CreateItem(ctx, &models.NewItem{Name: "Nut", SalePrice: decimal.NewFromInt(1)})
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}

	bill, err := models.CreatePurchaseInvoice(ctx, &models.NewInvoice{
		CounterpartyId: supplier.ID,
		Date:           time.Now(),
		Total:          decimal.NewFromInt(20),
		Items: []models.NewInvoiceItem{
			{ItemId: bolt.ID, Quantity: 10, UnitPrice: decimal.NewFromInt(2)},
		},
	})
	if err != nil {
		t.Fatalf("CreatePurchaseInvoice: %v", err)
	}

	// Re-line the bill: bolts at a new price plus a second item.
	bill, err = models.UpdatePurchaseInvoice(ctx, bill.ID, &models.NewInvoice{
		CounterpartyId: supplier.ID,
		Date:           time.Now(),
		Total:          decimal.NewFromInt(19),
		Items: []models.NewInvoiceItem{
			{ItemId: bolt.ID, Quantity: 5, UnitPrice: decimal.RequireFromString("2.6")},
			{ItemId: nut.ID, Quantity: 12, UnitPrice: decimal.RequireFromString("0.5")},
		},
	})
	if err != nil {
		t.Fatalf("UpdatePurchaseInvoice: %v", err)
	}

	receipts, err := models.PaginateStockReceipts(ctx, &models.StockReceiptFilter{InvoiceId: bill.ID}, 1, 10)
	if err != nil {
		t.Fatalf("PaginateStockReceipts: %v", err)
	}
	if receipts.Total != 2 {
		t.Fatalf("expected receipts rebuilt to 2 rows; got %d", receipts.Total)
	}
	byItem := map[int]int{}
	for _, r := range receipts.Data {
		byItem[r.ItemId] = r.Quantity
	}
	if byItem[bolt.ID] != 5 || byItem[nut.ID] != 12 {
		t.Fatalf("expected bolt=5 nut=12; got %v", byItem)
	}

	gotBolt, err := models.GetItem(ctx, bolt.ID)
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if !gotBolt.LastPrice.Equal(decimal.RequireFromString("2.6")) {
		t.Fatalf("expected bolt last_price=2.6; got %s", gotBolt.LastPrice)
	}
	gotNut, err := models.GetItem(ctx, nut.ID)
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if !gotNut.LastPrice.Equal(decimal.RequireFromString("0.5")) {
		t.Fatalf("expected nut last_price=0.5; got %s", gotNut.LastPrice)
	}
}
