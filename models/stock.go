package models

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/ledger_backend/config"
	"bitbucket.org/mmdatafocus/ledger_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StockReceipt records inventory received against a purchase invoice line.
// Rows are owned by the invoice: they are rebuilt when its lines change and
// removed when it is deleted. Sales invoices never touch this table.
type StockReceipt struct {
	ID          int             `gorm:"primary_key" json:"id"`
	UserId      string          `gorm:"index;not null" json:"user_id"`
	InvoiceId   int             `gorm:"index;not null" json:"invoice_id"`
	ItemId      int             `gorm:"index;not null" json:"item_id"`
	Quantity    int             `gorm:"not null" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"unit_price"`
	Total       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total"`
	ReceiptDate time.Time       `gorm:"not null" json:"receipt_date"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// syncStockReceipts rebuilds the receipt rows for a purchase invoice from its
// current lines and refreshes each item's last purchase price. Runs inside the
// caller's transaction so the invoice and its receipts commit together.
func syncStockReceipts(tx *gorm.DB, ctx context.Context, userId string, invoiceId int, date time.Time, lines []*InvoiceLineCore) error {
	receipts := make([]StockReceipt, 0, len(lines))
	for _, line := range lines {
		receipts = append(receipts, StockReceipt{
			UserId:      userId,
			InvoiceId:   invoiceId,
			ItemId:      line.ItemId,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
			Total:       line.Total,
			ReceiptDate: date,
		})
	}
	if err := tx.WithContext(ctx).Create(&receipts).Error; err != nil {
		return utils.StorageError("failed to create stock receipts", err)
	}

	for _, line := range lines {
		if err := tx.WithContext(ctx).Model(&Item{}).
			Where("id = ? AND user_id = ?", line.ItemId, userId).
			Update("last_price", line.UnitPrice).Error; err != nil {
			return utils.StorageError("failed to update item last price", err)
		}
	}
	return nil
}

func clearStockReceipts(tx *gorm.DB, ctx context.Context, userId string, invoiceId int) error {
	if err := tx.WithContext(ctx).
		Where("invoice_id = ? AND user_id = ?", invoiceId, userId).
		Delete(&StockReceipt{}).Error; err != nil {
		return utils.StorageError("failed to delete stock receipts", err)
	}
	return nil
}

type StockReceiptFilter struct {
	ItemId    int `json:"item_id"`
	InvoiceId int `json:"invoice_id"`
}

func PaginateStockReceipts(ctx context.Context, filter *StockReceiptFilter, page int, limit int) (*Page[StockReceipt], error) {

	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == "" {
		return nil, utils.ValidationError("user id is required")
	}

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&StockReceipt{}).Where("user_id = ?", userId)
	if filter != nil {
		if filter.ItemId > 0 {
			dbCtx = dbCtx.Where("item_id = ?", filter.ItemId)
		}
		if filter.InvoiceId > 0 {
			dbCtx = dbCtx.Where("invoice_id = ?", filter.InvoiceId)
		}
	}

	return FetchPageOffset[StockReceipt](dbCtx, page, limit, "receipt_date DESC, id DESC")
}
