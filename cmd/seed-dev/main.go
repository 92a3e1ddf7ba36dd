package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"bitbucket.org/mmdatafocus/ledger_backend/config"
	"bitbucket.org/mmdatafocus/ledger_backend/models"
	"bitbucket.org/mmdatafocus/ledger_backend/utils"
	"github.com/shopspring/decimal"
)

// Seeds a development database with one user and a small set of customers,
// suppliers, items and invoices so the API has data to work against.
func main() {
	email := flag.String("email", "dev@example.com", "email of the seed user")
	flag.Parse()

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil)")
		os.Exit(1)
	}
	if err := models.MigrateTable(db); err != nil {
		fmt.Fprintf(os.Stderr, "migration failed: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	user, err := models.CreateUser(ctx, &models.NewUser{Name: "Dev User", Email: *email})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create seed user: %v\n", err)
		os.Exit(1)
	}
	ctx = utils.SetUserIdInContext(ctx, user.ID)
	ctx = utils.SetUserNameInContext(ctx, user.Name)

	customer, err := models.CreateCustomer(ctx, &models.NewCustomer{Name: "Aung Trading", Phone: "09-111111"})
	fatalOn(err, "customer")
	supplier, err := models.CreateSupplier(ctx, &models.NewSupplier{Name: "Golden Supply Co", Phone: "09-222222"})
	fatalOn(err, "supplier")

	rice, err := models.CreateItem(ctx, &models.NewItem{Name: "Rice 25kg", Unit: "bag", SalePrice: decimal.NewFromInt(30)})
	fatalOn(err, "item")
	oil, err := models.CreateItem(ctx, &models.NewItem{Name: "Cooking Oil 1L", Unit: "bottle", SalePrice: decimal.NewFromInt(4)})
	fatalOn(err, "item")

	category, err := models.CreateCategory(ctx, &models.NewCategory{Name: "Utilities", Type: models.TransactionTypeExpense})
	fatalOn(err, "category")
	_, err = models.CreateTransaction(ctx, &models.NewTransaction{
		CategoryId: category.ID,
		Type:       models.TransactionTypeExpense,
		Amount:     decimal.NewFromInt(120),
		Date:       time.Now(),
	})
	fatalOn(err, "transaction")

	_, err = models.CreateSellInvoice(ctx, &models.NewInvoice{
		CounterpartyId: customer.ID,
		Date:           time.Now(),
		Total:          decimal.NewFromInt(68),
		PaidAmount:     decimal.NewFromInt(20),
		Items: []models.NewInvoiceItem{
			{ItemId: rice.ID, Quantity: 2, UnitPrice: decimal.NewFromInt(30)},
			{ItemId: oil.ID, Quantity: 2, UnitPrice: decimal.NewFromInt(4)},
		},
	})
	fatalOn(err, "sales invoice")

	_, err = models.CreatePurchaseInvoice(ctx, &models.NewInvoice{
		CounterpartyId: supplier.ID,
		Date:           time.Now(),
		Total:          decimal.NewFromInt(250),
		Items: []models.NewInvoiceItem{
			{ItemId: rice.ID, Quantity: 10, UnitPrice: decimal.NewFromInt(25)},
		},
	})
	fatalOn(err, "purchase invoice")

	fmt.Printf("seeded dev data for user %s (%s)\n", user.Name, user.ID)
}

func fatalOn(err error, what string) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to seed %s: %v\n", what, err)
		os.Exit(1)
	}
}
