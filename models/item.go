package models

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/ledger_backend/config"
	"bitbucket.org/mmdatafocus/ledger_backend/utils"
	"github.com/shopspring/decimal"
)

// Item.LastPrice tracks the unit price of the most recent purchase receipt;
// it is maintained by the purchase invoice flow, not by item updates.
type Item struct {
	ID          int             `gorm:"primary_key" json:"id"`
	UserId      string          `gorm:"index;not null" json:"user_id"`
	Name        string          `gorm:"type:varchar(255);not null" json:"name"`
	Unit        string          `gorm:"type:varchar(50)" json:"unit"`
	SalePrice   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"sale_price"`
	LastPrice   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"last_price"`
	Description string          `gorm:"type:text" json:"description"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewItem struct {
	Name        string          `json:"name" validate:"required,max=255"`
	Unit        string          `json:"unit" validate:"max=50"`
	SalePrice   decimal.Decimal `json:"sale_price"`
	Description string          `json:"description"`
}

func CreateItem(ctx context.Context, input *NewItem) (*Item, error) {

	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == "" {
		return nil, utils.ValidationError("user id is required")
	}
	if err := utils.ValidateInput(input); err != nil {
		return nil, err
	}
	if input.SalePrice.IsNegative() {
		return nil, utils.ValidationError("sale price must be zero or greater")
	}
	if err := utils.ValidateUnique[Item](ctx, userId, "name", input.Name, nil); err != nil {
		return nil, err
	}

	db := config.GetDB()
	item := Item{
		UserId:      userId,
		Name:        input.Name,
		Unit:        input.Unit,
		SalePrice:   utils.RoundMoney(input.SalePrice),
		Description: input.Description,
	}
	if err := db.WithContext(ctx).Create(&item).Error; err != nil {
		return nil, utils.StorageError("failed to create item", err)
	}
	return &item, nil
}

func UpdateItem(ctx context.Context, itemId int, input *NewItem) (*Item, error) {

	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == "" {
		return nil, utils.ValidationError("user id is required")
	}
	if err := utils.ValidateInput(input); err != nil {
		return nil, err
	}
	if input.SalePrice.IsNegative() {
		return nil, utils.ValidationError("sale price must be zero or greater")
	}
	if err := utils.ValidateUnique[Item](ctx, userId, "name", input.Name, itemId); err != nil {
		return nil, err
	}

	item, err := utils.FetchModel[Item](ctx, userId, itemId)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	item.Name = input.Name
	item.Unit = input.Unit
	item.SalePrice = utils.RoundMoney(input.SalePrice)
	item.Description = input.Description
	if err := db.WithContext(ctx).Save(item).Error; err != nil {
		return nil, utils.StorageError("failed to update item", err)
	}
	return item, nil
}

func DeleteItem(ctx context.Context, itemId int) error {

	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == "" {
		return utils.ValidationError("user id is required")
	}

	item, err := utils.FetchModel[Item](ctx, userId, itemId)
	if err != nil {
		return err
	}

	for _, check := range []struct {
		count func() (int64, error)
		msg   string
	}{
		{func() (int64, error) {
			return utils.ResourceCountWhere[SellInvoiceItem](ctx, userId, "item_id = ?", itemId)
		}, "item is used by sales invoices and cannot be deleted"},
		{func() (int64, error) {
			return utils.ResourceCountWhere[PurchaseInvoiceItem](ctx, userId, "item_id = ?", itemId)
		}, "item is used by purchase invoices and cannot be deleted"},
		{func() (int64, error) {
			return utils.ResourceCountWhere[StockReceipt](ctx, userId, "item_id = ?", itemId)
		}, "item has stock receipts and cannot be deleted"},
	} {
		count, err := check.count()
		if err != nil {
			return err
		}
		if count > 0 {
			return utils.ReferentialBlockError(check.msg)
		}
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Delete(item).Error; err != nil {
		return utils.StorageError("failed to delete item", err)
	}
	return nil
}

func GetItem(ctx context.Context, itemId int) (*Item, error) {

	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == "" {
		return nil, utils.ValidationError("user id is required")
	}
	return utils.FetchModel[Item](ctx, userId, itemId)
}

func PaginateItems(ctx context.Context, name string, page int, limit int) (*Page[Item], error) {

	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == "" {
		return nil, utils.ValidationError("user id is required")
	}

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&Item{}).Where("user_id = ?", userId)
	if name != "" {
		dbCtx = dbCtx.Where("name LIKE ?", "%"+name+"%")
	}
	return FetchPageOffset[Item](dbCtx, page, limit, "name")
}
