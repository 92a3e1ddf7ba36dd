package models

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/ledger_backend/config"
	"bitbucket.org/mmdatafocus/ledger_backend/utils"
)

// Category groups income or expense transactions. Names are unique per owner
// within a type, so "Rent" can exist once as income and once as expense.
type Category struct {
	ID          int       `gorm:"primary_key" json:"id"`
	UserId      string    `gorm:"index;not null" json:"user_id"`
	Name        string    `gorm:"type:varchar(255);not null" json:"name"`
	Type        string    `gorm:"type:varchar(20);not null" json:"type"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewCategory struct {
	Name        string `json:"name" validate:"required,max=255"`
	Type        string `json:"type" validate:"required,oneof=income expense"`
	Description string `json:"description"`
}

func validateCategoryName(ctx context.Context, userId string, input *NewCategory, exceptId int) error {
	var count int64
	var err error
	if exceptId > 0 {
		count, err = utils.ResourceCountWhere[Category](ctx, userId, "name = ? AND type = ? AND NOT id = ?", input.Name, input.Type, exceptId)
	} else {
		count, err = utils.ResourceCountWhere[Category](ctx, userId, "name = ? AND type = ?", input.Name, input.Type)
	}
	if err != nil {
		return err
	}
	if count > 0 {
		return utils.ValidationError("duplicate name")
	}
	return nil
}

func CreateCategory(ctx context.Context, input *NewCategory) (*Category, error) {

	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == "" {
		return nil, utils.ValidationError("user id is required")
	}
	if err := utils.ValidateInput(input); err != nil {
		return nil, err
	}
	if err := validateCategoryName(ctx, userId, input, 0); err != nil {
		return nil, err
	}

	db := config.GetDB()
	category := Category{
		UserId:      userId,
		Name:        input.Name,
		Type:        input.Type,
		Description: input.Description,
	}
	if err := db.WithContext(ctx).Create(&category).Error; err != nil {
		return nil, utils.StorageError("failed to create category", err)
	}
	return &category, nil
}

func UpdateCategory(ctx context.Context, categoryId int, input *NewCategory) (*Category, error) {

	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == "" {
		return nil, utils.ValidationError("user id is required")
	}
	if err := utils.ValidateInput(input); err != nil {
		return nil, err
	}
	if err := validateCategoryName(ctx, userId, input, categoryId); err != nil {
		return nil, err
	}

	category, err := utils.FetchModel[Category](ctx, userId, categoryId)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	category.Name = input.Name
	category.Type = input.Type
	category.Description = input.Description
	if err := db.WithContext(ctx).Save(category).Error; err != nil {
		return nil, utils.StorageError("failed to update category", err)
	}
	return category, nil
}

func DeleteCategory(ctx context.Context, categoryId int) error {

	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == "" {
		return utils.ValidationError("user id is required")
	}

	category, err := utils.FetchModel[Category](ctx, userId, categoryId)
	if err != nil {
		return err
	}

	count, err := utils.ResourceCountWhere[Transaction](ctx, userId, "category_id = ?", categoryId)
	if err != nil {
		return err
	}
	if count > 0 {
		return utils.ReferentialBlockError("category has transactions and cannot be deleted")
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Delete(category).Error; err != nil {
		return utils.StorageError("failed to delete category", err)
	}
	return nil
}

func GetCategory(ctx context.Context, categoryId int) (*Category, error) {

	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == "" {
		return nil, utils.ValidationError("user id is required")
	}
	return utils.FetchModel[Category](ctx, userId, categoryId)
}

// AllCategories returns the owner's full category list, for pickers that need
// every category rather than a page.
func AllCategories(ctx context.Context) ([]*Category, error) {

	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == "" {
		return nil, utils.ValidationError("user id is required")
	}
	return utils.FetchAllModels[Category](ctx, userId)
}

func PaginateCategories(ctx context.Context, name string, page int, limit int) (*Page[Category], error) {

	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == "" {
		return nil, utils.ValidationError("user id is required")
	}

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&Category{}).Where("user_id = ?", userId)
	if name != "" {
		dbCtx = dbCtx.Where("name LIKE ?", "%"+name+"%")
	}
	return FetchPageOffset[Category](dbCtx, page, limit, "name")
}
