package models_test

import (
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/ledger_backend/models"
	"bitbucket.org/mmdatafocus/ledger_backend/utils"
	"github.com/shopspring/decimal"
)

func TestCategoryAndTransactionFlow(t *testing.T) {
	ctx := setupIntegration(t)

	userId, _ := utils.GetUserIdFromContext(ctx)
	user, err := models.GetUser(ctx, userId)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if user.ID != userId {
		t.Fatalf("expected user %s; got %s", userId, user.ID)
	}

	rent, err := models.CreateCategory(ctx, &models.NewCategory{Name: "Rent", Type: models.TransactionTypeExpense})
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	_, err = models.CreateCategory(ctx, &models.NewCategory{Name: "Rent", Type: models.TransactionTypeIncome})
	if err != nil {
		t.Fatalf("same name under another type must be allowed: %v", err)
	}

	// Duplicate name under the same type is rejected.
	_, err = models.CreateCategory(ctx, &models.NewCategory{Name: "Rent", Type: models.TransactionTypeExpense})
	if utils.KindOf(err) != utils.ErrorKindValidation {
		t.Fatalf("expected validation error for duplicate category; got %v", err)
	}

	all, err := models.AllCategories(ctx)
	if err != nil {
		t.Fatalf("AllCategories: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 categories; got %d", len(all))
	}

	txn, err := models.CreateTransaction(ctx, &models.NewTransaction{
		CategoryId: rent.ID,
		Type:       models.TransactionTypeExpense,
		Amount:     decimal.NewFromInt(800),
		Date:       time.Now(),
	})
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}

	// Category in use cannot be deleted.
	err = models.DeleteCategory(ctx, rent.ID)
	if utils.KindOf(err) != utils.ErrorKindReferentialBlock {
		t.Fatalf("expected ReferentialBlock deleting used category; got %v", err)
	}

	if err := models.DeleteTransaction(ctx, txn.ID); err != nil {
		t.Fatalf("DeleteTransaction: %v", err)
	}
	if err := models.DeleteCategory(ctx, rent.ID); err != nil {
		t.Fatalf("DeleteCategory after freeing it: %v", err)
	}

	all, err = models.AllCategories(ctx)
	if err != nil {
		t.Fatalf("AllCategories: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected 1 category left; got %d", len(all))
	}
}
