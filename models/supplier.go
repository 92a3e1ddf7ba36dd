package models

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/ledger_backend/config"
	"bitbucket.org/mmdatafocus/ledger_backend/utils"
)

type Supplier struct {
	ID          int       `gorm:"primary_key" json:"id"`
	UserId      string    `gorm:"index;not null" json:"user_id"`
	Name        string    `gorm:"type:varchar(255);not null" json:"name"`
	Phone       string    `gorm:"type:varchar(100)" json:"phone"`
	Address     string    `gorm:"type:text" json:"address"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewSupplier struct {
	Name        string `json:"name" validate:"required,max=255"`
	Phone       string `json:"phone" validate:"max=100"`
	Address     string `json:"address"`
	Description string `json:"description"`
}

func CreateSupplier(ctx context.Context, input *NewSupplier) (*Supplier, error) {

	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == "" {
		return nil, utils.ValidationError("user id is required")
	}
	if err := utils.ValidateInput(input); err != nil {
		return nil, err
	}
	if err := utils.ValidateUnique[Supplier](ctx, userId, "name", input.Name, nil); err != nil {
		return nil, err
	}

	db := config.GetDB()
	supplier := Supplier{
		UserId:      userId,
		Name:        input.Name,
		Phone:       input.Phone,
		Address:     input.Address,
		Description: input.Description,
	}
	if err := db.WithContext(ctx).Create(&supplier).Error; err != nil {
		return nil, utils.StorageError("failed to create supplier", err)
	}
	return &supplier, nil
}

func UpdateSupplier(ctx context.Context, supplierId int, input *NewSupplier) (*Supplier, error) {

	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == "" {
		return nil, utils.ValidationError("user id is required")
	}
	if err := utils.ValidateInput(input); err != nil {
		return nil, err
	}
	if err := utils.ValidateUnique[Supplier](ctx, userId, "name", input.Name, supplierId); err != nil {
		return nil, err
	}

	supplier, err := utils.FetchModel[Supplier](ctx, userId, supplierId)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	supplier.Name = input.Name
	supplier.Phone = input.Phone
	supplier.Address = input.Address
	supplier.Description = input.Description
	if err := db.WithContext(ctx).Save(supplier).Error; err != nil {
		return nil, utils.StorageError("failed to update supplier", err)
	}
	return supplier, nil
}

func DeleteSupplier(ctx context.Context, supplierId int) error {

	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == "" {
		return utils.ValidationError("user id is required")
	}

	supplier, err := utils.FetchModel[Supplier](ctx, userId, supplierId)
	if err != nil {
		return err
	}

	count, err := utils.ResourceCountWhere[PurchaseInvoice](ctx, userId, "supplier_id = ?", supplierId)
	if err != nil {
		return err
	}
	if count > 0 {
		return utils.ReferentialBlockError("supplier has invoices and cannot be deleted")
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Delete(supplier).Error; err != nil {
		return utils.StorageError("failed to delete supplier", err)
	}
	return nil
}

func GetSupplier(ctx context.Context, supplierId int) (*Supplier, error) {

	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == "" {
		return nil, utils.ValidationError("user id is required")
	}
	return utils.FetchModel[Supplier](ctx, userId, supplierId)
}

func PaginateSuppliers(ctx context.Context, name string, page int, limit int) (*Page[Supplier], error) {

	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == "" {
		return nil, utils.ValidationError("user id is required")
	}

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&Supplier{}).Where("user_id = ?", userId)
	if name != "" {
		dbCtx = dbCtx.Where("name LIKE ?", "%"+name+"%")
	}
	return FetchPageOffset[Supplier](dbCtx, page, limit, "name")
}

func supplierIdsByName(ctx context.Context, userId string, name string) ([]int, error) {
	db := config.GetDB()
	var ids []int
	if err := db.WithContext(ctx).Model(&Supplier{}).
		Where("user_id = ? AND name LIKE ?", userId, "%"+name+"%").
		Pluck("id", &ids).Error; err != nil {
		return nil, utils.StorageError("failed to search suppliers", err)
	}
	return ids, nil
}
