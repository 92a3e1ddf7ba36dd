package models

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/ledger_backend/config"
	"bitbucket.org/mmdatafocus/ledger_backend/utils"
	"github.com/shopspring/decimal"
)

const (
	TransactionTypeIncome  = "income"
	TransactionTypeExpense = "expense"
)

// Transaction is a standalone income or expense entry under a category,
// independent of the invoice subsystem.
type Transaction struct {
	ID              int             `gorm:"primary_key" json:"id"`
	UserId          string          `gorm:"index;not null" json:"user_id"`
	CategoryId      int             `gorm:"index" json:"category_id"`
	Category        *Category       `gorm:"foreignKey:CategoryId" json:"category,omitempty"`
	Type            string          `gorm:"type:varchar(20);not null" json:"type"`
	Amount          decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"amount"`
	TransactionDate time.Time       `gorm:"not null" json:"date"`
	Description     string          `gorm:"type:text" json:"description"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewTransaction struct {
	CategoryId  int             `json:"category_id"`
	Type        string          `json:"type" validate:"required,oneof=income expense"`
	Amount      decimal.Decimal `json:"amount"`
	Date        time.Time       `json:"date" validate:"required"`
	Description string          `json:"description"`
}

func validateTransactionInput(ctx context.Context, userId string, input *NewTransaction) error {
	if err := utils.ValidateInput(input); err != nil {
		return err
	}
	if !input.Amount.IsPositive() {
		return utils.ValidationError("amount must be greater than zero")
	}
	// category is optional for quick entries
	if input.CategoryId > 0 {
		if err := utils.ValidateResourceId[Category](ctx, userId, input.CategoryId); err != nil {
			if utils.KindOf(err) == utils.ErrorKindNotFound {
				return utils.ValidationError("category not found")
			}
			return err
		}
	}
	return nil
}

func CreateTransaction(ctx context.Context, input *NewTransaction) (*Transaction, error) {

	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == "" {
		return nil, utils.ValidationError("user id is required")
	}
	if err := validateTransactionInput(ctx, userId, input); err != nil {
		return nil, err
	}

	db := config.GetDB()
	transaction := Transaction{
		UserId:          userId,
		CategoryId:      input.CategoryId,
		Type:            input.Type,
		Amount:          utils.RoundMoney(input.Amount),
		TransactionDate: input.Date,
		Description:     input.Description,
	}
	if err := db.WithContext(ctx).Create(&transaction).Error; err != nil {
		return nil, utils.StorageError("failed to create transaction", err)
	}
	return &transaction, nil
}

func UpdateTransaction(ctx context.Context, transactionId int, input *NewTransaction) (*Transaction, error) {

	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == "" {
		return nil, utils.ValidationError("user id is required")
	}
	if err := validateTransactionInput(ctx, userId, input); err != nil {
		return nil, err
	}

	transaction, err := utils.FetchModel[Transaction](ctx, userId, transactionId)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	transaction.CategoryId = input.CategoryId
	transaction.Type = input.Type
	transaction.Amount = utils.RoundMoney(input.Amount)
	transaction.TransactionDate = input.Date
	transaction.Description = input.Description
	if err := db.WithContext(ctx).Save(transaction).Error; err != nil {
		return nil, utils.StorageError("failed to update transaction", err)
	}
	return transaction, nil
}

func DeleteTransaction(ctx context.Context, transactionId int) error {

	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == "" {
		return utils.ValidationError("user id is required")
	}

	transaction, err := utils.FetchModel[Transaction](ctx, userId, transactionId)
	if err != nil {
		return err
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Delete(transaction).Error; err != nil {
		return utils.StorageError("failed to delete transaction", err)
	}
	return nil
}

func GetTransaction(ctx context.Context, transactionId int) (*Transaction, error) {

	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == "" {
		return nil, utils.ValidationError("user id is required")
	}
	return utils.FetchModel[Transaction](ctx, userId, transactionId, "Category")
}

type TransactionFilter struct {
	CategoryId int        `json:"category_id"`
	Type       string     `json:"type"`
	From       *time.Time `json:"from"`
	To         *time.Time `json:"to"`
}

func PaginateTransactions(ctx context.Context, filter *TransactionFilter, page int, limit int) (*Page[Transaction], error) {

	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == "" {
		return nil, utils.ValidationError("user id is required")
	}

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&Transaction{}).Where("user_id = ?", userId)
	if filter != nil {
		if filter.CategoryId > 0 {
			dbCtx = dbCtx.Where("category_id = ?", filter.CategoryId)
		}
		if filter.Type != "" {
			dbCtx = dbCtx.Where("type = ?", filter.Type)
		}
		if filter.From != nil {
			dbCtx = dbCtx.Where("transaction_date >= ?", *filter.From)
		}
		if filter.To != nil {
			dbCtx = dbCtx.Where("transaction_date <= ?", *filter.To)
		}
	}
	return FetchPageOffset[Transaction](dbCtx, page, limit, "transaction_date DESC, id DESC")
}
