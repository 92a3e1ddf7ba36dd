package models

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/ledger_backend/config"
	"bitbucket.org/mmdatafocus/ledger_backend/utils"
)

type Customer struct {
	ID          int       `gorm:"primary_key" json:"id"`
	UserId      string    `gorm:"index;not null" json:"user_id"`
	Name        string    `gorm:"type:varchar(255);not null" json:"name"`
	ShopName    string    `gorm:"type:varchar(255)" json:"shop_name"`
	Phone       string    `gorm:"type:varchar(100)" json:"phone"`
	Address     string    `gorm:"type:text" json:"address"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewCustomer struct {
	Name        string `json:"name" validate:"required,max=255"`
	ShopName    string `json:"shop_name" validate:"max=255"`
	Phone       string `json:"phone" validate:"max=100"`
	Address     string `json:"address"`
	Description string `json:"description"`
}

func CreateCustomer(ctx context.Context, input *NewCustomer) (*Customer, error) {

	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == "" {
		return nil, utils.ValidationError("user id is required")
	}
	if err := utils.ValidateInput(input); err != nil {
		return nil, err
	}
	if err := utils.ValidateUnique[Customer](ctx, userId, "name", input.Name, nil); err != nil {
		return nil, err
	}

	db := config.GetDB()
	customer := Customer{
		UserId:      userId,
		Name:        input.Name,
		ShopName:    input.ShopName,
		Phone:       input.Phone,
		Address:     input.Address,
		Description: input.Description,
	}
	if err := db.WithContext(ctx).Create(&customer).Error; err != nil {
		return nil, utils.StorageError("failed to create customer", err)
	}
	return &customer, nil
}

func UpdateCustomer(ctx context.Context, customerId int, input *NewCustomer) (*Customer, error) {

	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == "" {
		return nil, utils.ValidationError("user id is required")
	}
	if err := utils.ValidateInput(input); err != nil {
		return nil, err
	}
	if err := utils.ValidateUnique[Customer](ctx, userId, "name", input.Name, customerId); err != nil {
		return nil, err
	}

	customer, err := utils.FetchModel[Customer](ctx, userId, customerId)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	customer.Name = input.Name
	customer.ShopName = input.ShopName
	customer.Phone = input.Phone
	customer.Address = input.Address
	customer.Description = input.Description
	if err := db.WithContext(ctx).Save(customer).Error; err != nil {
		return nil, utils.StorageError("failed to update customer", err)
	}
	return customer, nil
}

func DeleteCustomer(ctx context.Context, customerId int) error {

	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == "" {
		return utils.ValidationError("user id is required")
	}

	customer, err := utils.FetchModel[Customer](ctx, userId, customerId)
	if err != nil {
		return err
	}

	count, err := utils.ResourceCountWhere[SellInvoice](ctx, userId, "customer_id = ?", customerId)
	if err != nil {
		return err
	}
	if count > 0 {
		return utils.ReferentialBlockError("customer has invoices and cannot be deleted")
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Delete(customer).Error; err != nil {
		return utils.StorageError("failed to delete customer", err)
	}
	return nil
}

func GetCustomer(ctx context.Context, customerId int) (*Customer, error) {

	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == "" {
		return nil, utils.ValidationError("user id is required")
	}
	return utils.FetchModel[Customer](ctx, userId, customerId)
}

func PaginateCustomers(ctx context.Context, name string, page int, limit int) (*Page[Customer], error) {

	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == "" {
		return nil, utils.ValidationError("user id is required")
	}

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&Customer{}).Where("user_id = ?", userId)
	if name != "" {
		dbCtx = dbCtx.Where("name LIKE ?", "%"+name+"%")
	}
	return FetchPageOffset[Customer](dbCtx, page, limit, "name")
}

func customerIdsByName(ctx context.Context, userId string, name string) ([]int, error) {
	db := config.GetDB()
	var ids []int
	if err := db.WithContext(ctx).Model(&Customer{}).
		Where("user_id = ? AND name LIKE ?", userId, "%"+name+"%").
		Pluck("id", &ids).Error; err != nil {
		return nil, utils.StorageError("failed to search customers", err)
	}
	return ids, nil
}
