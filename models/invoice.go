package models

import (
	"context"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/ledger_backend/config"
	"bitbucket.org/mmdatafocus/ledger_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InvoiceCore carries the fields shared by both invoice families. The
// paid/remaining pair is denormalized for listing but always recomputed from
// payment rows before any write. Version is the optimistic-lock token: every
// UPDATE is a compare-and-swap on it, and a losing writer gets Conflict.
type InvoiceCore struct {
	ID              int             `gorm:"primary_key" json:"id"`
	UserId          string          `gorm:"index;not null" json:"user_id"`
	Total           decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total"`
	PaidAmount      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"paid_amount"`
	RemainingAmount decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"remaining_amount"`
	Version         int             `gorm:"not null;default:0" json:"-"`
	InvoiceDate     time.Time       `gorm:"not null" json:"date"`
	Description     string          `gorm:"type:text" json:"description"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (c *InvoiceCore) Core() *InvoiceCore { return c }

type InvoiceLineCore struct {
	ID          int             `gorm:"primary_key" json:"id"`
	InvoiceId   int             `gorm:"index;not null" json:"invoice_id"`
	UserId      string          `gorm:"index;not null" json:"user_id"`
	ItemId      int             `gorm:"index;not null" json:"item_id"`
	Quantity    int             `gorm:"not null" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"unit_price"`
	Total       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total"`
	Description string          `gorm:"type:text" json:"description"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (c *InvoiceLineCore) LineCore() *InvoiceLineCore { return c }

// PaymentCore rows are immutable once created; corrections are made by
// inserting an offsetting (negative) payment.
type PaymentCore struct {
	ID          int             `gorm:"primary_key" json:"id"`
	InvoiceId   int             `gorm:"index;not null" json:"invoice_id"`
	UserId      string          `gorm:"index;not null" json:"user_id"`
	Amount      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"amount"`
	Description string          `gorm:"type:text" json:"description"`
	PaymentDate time.Time       `gorm:"not null" json:"payment_date"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (c *PaymentCore) PayCore() *PaymentCore { return c }

type invoiceModel interface {
	Core() *InvoiceCore
	GetCounterpartyId() int
	SetCounterpartyId(int)
}

type invoiceLineModel interface {
	LineCore() *InvoiceLineCore
}

type invoicePaymentModel interface {
	PayCore() *PaymentCore
}

/* inputs */

type NewInvoice struct {
	CounterpartyId int              `json:"counterparty_id" validate:"required"`
	Date           time.Time        `json:"date" validate:"required"`
	Description    string           `json:"description"`
	Total          decimal.Decimal  `json:"total"`
	PaidAmount     decimal.Decimal  `json:"paid_amount"`
	Items          []NewInvoiceItem `json:"items" validate:"required,min=1,dive"`
}

type NewInvoiceItem struct {
	ItemId      int             `json:"item_id" validate:"required"`
	Quantity    int             `json:"quantity" validate:"required,gt=0"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Description string          `json:"description"`
}

type InvoiceFilter struct {
	InvoiceId        int    `json:"invoice_id"`
	OnlyRemaining    bool   `json:"only_remaining"`
	CounterpartyName string `json:"counterparty_name"`
}

// InvoiceDetail is the getById/detail read model: the invoice, its lines and
// (for the detail endpoint) its payment history with derived balance.
type InvoiceDetail[I any, L any, P any] struct {
	Invoice   *I              `json:"invoice"`
	Items     []*L            `json:"items"`
	Payments  []*P            `json:"payments,omitempty"`
	TotalPaid decimal.Decimal `json:"total_paid"`
	Balance   decimal.Decimal `json:"balance"`
}

// invoiceFamily is the one lifecycle implementation shared by the sales and
// purchase families. A family differs only in its counterparty (customer vs
// supplier) and an optional side-record hook run inside the same transaction
// after lines are written (purchases: stock receipts + item last-price).
type invoiceFamily[I any, PI interface {
	*I
	invoiceModel
}, L any, PL interface {
	*L
	invoiceLineModel
}, P any, PP interface {
	*P
	invoicePaymentModel
}] struct {
	name                  string
	lockType              string
	counterpartyColumn    string
	counterpartyMissing   string
	validateCounterparty  func(ctx context.Context, userId string, id int) error
	counterpartyIdsByName func(ctx context.Context, userId string, name string) ([]int, error)
	// both hooks are nil for the sales family
	syncSideRecords  func(tx *gorm.DB, ctx context.Context, userId string, invoiceId int, date time.Time, lines []*InvoiceLineCore) error
	clearSideRecords func(tx *gorm.DB, ctx context.Context, userId string, invoiceId int) error
}

func (f *invoiceFamily[I, PI, L, PL, P, PP]) validateInput(ctx context.Context, userId string, input *NewInvoice) error {
	if err := utils.ValidateInput(input); err != nil {
		return err
	}
	if err := f.validateCounterparty(ctx, userId, input.CounterpartyId); err != nil {
		// only a genuine miss becomes a validation failure; storage errors
		// must keep their own kind
		if utils.KindOf(err) == utils.ErrorKindNotFound {
			return utils.ValidationError(f.counterpartyMissing)
		}
		return err
	}
	itemIds := make([]int, 0, len(input.Items))
	for _, item := range input.Items {
		if item.Quantity <= 0 {
			return utils.ValidationError("quantity must be greater than zero")
		}
		if item.UnitPrice.IsNegative() {
			return utils.ValidationError("unit price must be zero or greater")
		}
		itemIds = append(itemIds, item.ItemId)
	}
	unqIds := utils.UniqueSlice(itemIds)
	count, err := utils.ResourceCountWhere[Item](ctx, userId, "id IN ?", unqIds)
	if err != nil {
		return err
	}
	if count != int64(len(unqIds)) {
		return utils.ValidationError("item not found")
	}
	if input.Total.IsNegative() {
		return utils.ValidationError("total must be zero or greater")
	}
	return nil
}

// build line rows; line totals are recomputed server-side (qty x unit price)
// rather than trusted from the caller
func (f *invoiceFamily[I, PI, L, PL, P, PP]) buildLines(userId string, invoiceId int, items []NewInvoiceItem) []L {
	lines := make([]L, 0, len(items))
	for _, item := range items {
		unitPrice := utils.RoundMoney(item.UnitPrice)
		var line L
		*PL(&line).LineCore() = InvoiceLineCore{
			InvoiceId:   invoiceId,
			UserId:      userId,
			ItemId:      item.ItemId,
			Quantity:    item.Quantity,
			UnitPrice:   unitPrice,
			Total:       unitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))),
			Description: item.Description,
		}
		lines = append(lines, line)
	}
	return lines
}

func lineCores[L any, PL interface {
	*L
	invoiceLineModel
}](lines []L) []*InvoiceLineCore {
	cores := make([]*InvoiceLineCore, 0, len(lines))
	for i := range lines {
		cores = append(cores, PL(&lines[i]).LineCore())
	}
	return cores
}

func (f *invoiceFamily[I, PI, L, PL, P, PP]) create(ctx context.Context, input *NewInvoice) (*I, error) {

	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == "" {
		return nil, utils.ValidationError("user id is required")
	}

	if err := f.validateInput(ctx, userId, input); err != nil {
		return nil, err
	}

	paidAmount := utils.RoundMoney(input.PaidAmount)
	total := utils.RoundMoney(input.Total)
	if paidAmount.GreaterThan(total) {
		return nil, utils.ValidationError("paid amount cannot exceed total")
	}
	if paidAmount.IsNegative() {
		return nil, utils.ValidationError("paid amount cannot be negative")
	}

	ctx, cancel := context.WithTimeout(ctx, config.OperationTimeout())
	defer cancel()

	release, err := utils.OwnerLock(ctx, userId, f.lockType, "models", "create "+f.name)
	if err != nil {
		return nil, err
	}
	defer release()

	db := config.GetDB()
	tx := db.Begin()
	// rollback is a no-op once the transaction commits
	defer tx.Rollback()

	var invoice I
	pi := PI(&invoice)
	*pi.Core() = InvoiceCore{
		UserId:          userId,
		Total:           total,
		PaidAmount:      paidAmount,
		RemainingAmount: total.Sub(paidAmount),
		InvoiceDate:     input.Date,
		Description:     input.Description,
	}
	pi.SetCounterpartyId(input.CounterpartyId)

	if err := tx.WithContext(ctx).Create(pi).Error; err != nil {
		return nil, utils.StorageError("failed to create "+f.name, err)
	}

	lines := f.buildLines(userId, pi.Core().ID, input.Items)
	if err := tx.WithContext(ctx).Create(&lines).Error; err != nil {
		return nil, utils.StorageError("failed to create "+f.name+" items", err)
	}

	if f.syncSideRecords != nil {
		if err := f.syncSideRecords(tx, ctx, userId, pi.Core().ID, input.Date, lineCores[L, PL](lines)); err != nil {
			return nil, err
		}
	}

	if paidAmount.IsPositive() {
		var payment P
		*PP(&payment).PayCore() = PaymentCore{
			InvoiceId:   pi.Core().ID,
			UserId:      userId,
			Amount:      paidAmount,
			PaymentDate: input.Date,
		}
		if err := tx.WithContext(ctx).Create(&payment).Error; err != nil {
			return nil, utils.StorageError("failed to record initial payment", err)
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, utils.StorageError("failed to commit "+f.name, err)
	}
	f.invalidateSummary(userId, input.CounterpartyId)

	return &invoice, nil
}

// fetch invoice scoped to owner; NotFound when absent
func (f *invoiceFamily[I, PI, L, PL, P, PP]) fetch(tx *gorm.DB, ctx context.Context, userId string, invoiceId int) (*I, error) {
	var invoice I
	err := tx.WithContext(ctx).Where("user_id = ?", userId).First(&invoice, invoiceId).Error
	if err == gorm.ErrRecordNotFound {
		return nil, utils.NotFoundError(f.name + " not found")
	}
	if err != nil {
		return nil, utils.StorageError("failed to fetch "+f.name, err)
	}
	return &invoice, nil
}

func (f *invoiceFamily[I, PI, L, PL, P, PP]) fetchPayments(tx *gorm.DB, ctx context.Context, userId string, invoiceId int) ([]*P, []*PaymentCore, error) {
	var payments []*P
	if err := tx.WithContext(ctx).
		Where("invoice_id = ? AND user_id = ?", invoiceId, userId).
		Order("id").
		Find(&payments).Error; err != nil {
		return nil, nil, utils.StorageError("failed to fetch payments", err)
	}
	cores := make([]*PaymentCore, 0, len(payments))
	for _, p := range payments {
		cores = append(cores, PP(p).PayCore())
	}
	return payments, cores, nil
}

// compare-and-swap write of the invoice aggregate fields; Conflict when a
// concurrent writer bumped the version first
func (f *invoiceFamily[I, PI, L, PL, P, PP]) saveAggregate(tx *gorm.DB, ctx context.Context, pi PI, updates map[string]interface{}) error {
	version := pi.Core().Version
	updates["version"] = version + 1
	res := tx.WithContext(ctx).Model(pi).Where("version = ?", version).Updates(updates)
	if res.Error != nil {
		return utils.StorageError("failed to update "+f.name, res.Error)
	}
	if res.RowsAffected == 0 {
		return utils.ConflictError(f.name + " was modified concurrently; retry the operation")
	}
	pi.Core().Version = version + 1
	return nil
}

func (f *invoiceFamily[I, PI, L, PL, P, PP]) summaryCacheKey(userId string, counterpartyId int) string {
	return fmt.Sprintf("unpaid_summary:%s:%s:%d", f.lockType, userId, counterpartyId)
}

// best-effort; a stale summary self-heals when the cache entry expires
func (f *invoiceFamily[I, PI, L, PL, P, PP]) invalidateSummary(userId string, counterpartyIds ...int) {
	keys := make([]string, 0, len(counterpartyIds))
	for _, id := range counterpartyIds {
		keys = append(keys, f.summaryCacheKey(userId, id))
	}
	_ = config.RemoveRedisKey(keys...)
}

func (f *invoiceFamily[I, PI, L, PL, P, PP]) update(ctx context.Context, invoiceId int, input *NewInvoice) (*I, error) {

	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == "" {
		return nil, utils.ValidationError("user id is required")
	}

	if err := f.validateInput(ctx, userId, input); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, config.OperationTimeout())
	defer cancel()

	release, err := utils.OwnerLock(ctx, userId, f.lockType, "models", "update "+f.name)
	if err != nil {
		return nil, err
	}
	defer release()

	db := config.GetDB()
	tx := db.Begin()
	defer tx.Rollback()

	invoice, err := f.fetch(tx, ctx, userId, invoiceId)
	if err != nil {
		return nil, err
	}
	pi := PI(invoice)
	previousCounterpartyId := pi.GetCounterpartyId()

	// payments are never touched by an update; the new total is validated
	// against their sum and paid/remaining recomputed from it
	_, paymentCores, err := f.fetchPayments(tx, ctx, userId, invoiceId)
	if err != nil {
		return nil, err
	}
	total := utils.RoundMoney(input.Total)
	totalPaid, remaining, err := recomputeInvoiceTotals(total, paymentCores)
	if err != nil {
		return nil, err
	}

	if err := f.saveAggregate(tx, ctx, pi, map[string]interface{}{
		f.counterpartyColumn: input.CounterpartyId,
		"invoice_date":       input.Date,
		"description":        input.Description,
		"total":              total,
		"paid_amount":        totalPaid,
		"remaining_amount":   remaining,
	}); err != nil {
		return nil, err
	}

	// lines are replaced wholesale, never patched
	var line L
	if err := tx.WithContext(ctx).
		Where("invoice_id = ? AND user_id = ?", invoiceId, userId).
		Delete(&line).Error; err != nil {
		return nil, utils.StorageError("failed to delete "+f.name+" items", err)
	}
	lines := f.buildLines(userId, invoiceId, input.Items)
	if err := tx.WithContext(ctx).Create(&lines).Error; err != nil {
		return nil, utils.StorageError("failed to create "+f.name+" items", err)
	}

	if f.clearSideRecords != nil {
		if err := f.clearSideRecords(tx, ctx, userId, invoiceId); err != nil {
			return nil, err
		}
	}
	if f.syncSideRecords != nil {
		if err := f.syncSideRecords(tx, ctx, userId, invoiceId, input.Date, lineCores[L, PL](lines)); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, utils.StorageError("failed to commit "+f.name, err)
	}
	f.invalidateSummary(userId, previousCounterpartyId, input.CounterpartyId)

	pi.SetCounterpartyId(input.CounterpartyId)
	pi.Core().InvoiceDate = input.Date
	pi.Core().Description = input.Description
	pi.Core().Total = total
	pi.Core().PaidAmount = totalPaid
	pi.Core().RemainingAmount = remaining

	return invoice, nil
}

func (f *invoiceFamily[I, PI, L, PL, P, PP]) delete(ctx context.Context, invoiceId int) error {

	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == "" {
		return utils.ValidationError("user id is required")
	}

	ctx, cancel := context.WithTimeout(ctx, config.OperationTimeout())
	defer cancel()

	release, err := utils.OwnerLock(ctx, userId, f.lockType, "models", "delete "+f.name)
	if err != nil {
		return err
	}
	defer release()

	db := config.GetDB()
	tx := db.Begin()
	defer tx.Rollback()

	invoice, err := f.fetch(tx, ctx, userId, invoiceId)
	if err != nil {
		return err
	}

	var line L
	if err := tx.WithContext(ctx).
		Where("invoice_id = ? AND user_id = ?", invoiceId, userId).
		Delete(&line).Error; err != nil {
		return utils.StorageError("failed to delete "+f.name+" items", err)
	}
	var payment P
	if err := tx.WithContext(ctx).
		Where("invoice_id = ? AND user_id = ?", invoiceId, userId).
		Delete(&payment).Error; err != nil {
		return utils.StorageError("failed to delete payments", err)
	}
	if f.clearSideRecords != nil {
		if err := f.clearSideRecords(tx, ctx, userId, invoiceId); err != nil {
			return err
		}
	}
	if err := tx.WithContext(ctx).Delete(invoice).Error; err != nil {
		return utils.StorageError("failed to delete "+f.name, err)
	}

	if err := tx.Commit().Error; err != nil {
		return utils.StorageError("failed to commit delete", err)
	}
	f.invalidateSummary(userId, PI(invoice).GetCounterpartyId())
	return nil
}

func (f *invoiceFamily[I, PI, L, PL, P, PP]) getById(ctx context.Context, invoiceId int) (*InvoiceDetail[I, L, P], error) {

	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == "" {
		return nil, utils.ValidationError("user id is required")
	}

	db := config.GetDB()
	invoice, err := f.fetch(db, ctx, userId, invoiceId)
	if err != nil {
		return nil, err
	}

	var items []*L
	if err := db.WithContext(ctx).
		Where("invoice_id = ? AND user_id = ?", invoiceId, userId).
		Order("id").
		Find(&items).Error; err != nil {
		return nil, utils.StorageError("failed to fetch "+f.name+" items", err)
	}

	return &InvoiceDetail[I, L, P]{Invoice: invoice, Items: items}, nil
}

// detail adds payment history and the balance derived from it
func (f *invoiceFamily[I, PI, L, PL, P, PP]) detailById(ctx context.Context, invoiceId int) (*InvoiceDetail[I, L, P], error) {

	detail, err := f.getById(ctx, invoiceId)
	if err != nil {
		return nil, err
	}
	userId, _ := utils.GetUserIdFromContext(ctx)

	db := config.GetDB()
	payments, paymentCores, err := f.fetchPayments(db, ctx, userId, invoiceId)
	if err != nil {
		return nil, err
	}
	// newest first for display
	for i, j := 0, len(payments)-1; i < j; i, j = i+1, j-1 {
		payments[i], payments[j] = payments[j], payments[i]
	}
	detail.Payments = payments
	detail.TotalPaid = utils.RoundMoney(sumPaymentAmounts(paymentCores))
	detail.Balance = PI(detail.Invoice).Core().Total.Sub(detail.TotalPaid)
	return detail, nil
}

func (f *invoiceFamily[I, PI, L, PL, P, PP]) paginate(ctx context.Context, filter *InvoiceFilter, page int, limit int) (*Page[I], error) {

	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == "" {
		return nil, utils.ValidationError("user id is required")
	}

	db := config.GetDB()
	var model I
	dbCtx := db.WithContext(ctx).Model(&model).Where("user_id = ?", userId)
	if filter != nil {
		if filter.InvoiceId > 0 {
			dbCtx = dbCtx.Where("id = ?", filter.InvoiceId)
		}
		if filter.OnlyRemaining {
			dbCtx = dbCtx.Where("remaining_amount > 0")
		}
		if filter.CounterpartyName != "" {
			ids, err := f.counterpartyIdsByName(ctx, userId, filter.CounterpartyName)
			if err != nil {
				return nil, err
			}
			if len(ids) == 0 {
				return &Page[I]{Data: []*I{}, Total: 0, Page: page, Limit: limit}, nil
			}
			dbCtx = dbCtx.Where(f.counterpartyColumn+" IN ?", ids)
		}
	}

	return FetchPageOffset[I](dbCtx, page, limit, "created_at DESC, id DESC")
}

func (f *invoiceFamily[I, PI, L, PL, P, PP]) payRemaining(ctx context.Context, invoiceId int, delta decimal.Decimal, description string) (*I, error) {

	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == "" {
		return nil, utils.ValidationError("user id is required")
	}
	if delta.IsZero() {
		return nil, utils.ValidationErrorCode(utils.CodePayAmountNonZero, "pay amount must be non-zero")
	}
	delta = utils.RoundMoney(delta)

	ctx, cancel := context.WithTimeout(ctx, config.OperationTimeout())
	defer cancel()

	release, err := utils.OwnerLock(ctx, userId, f.lockType, "models", "pay "+f.name)
	if err != nil {
		return nil, err
	}
	defer release()

	db := config.GetDB()
	tx := db.Begin()
	defer tx.Rollback()

	invoice, err := f.fetch(tx, ctx, userId, invoiceId)
	if err != nil {
		return nil, err
	}
	pi := PI(invoice)

	// paid-so-far comes from payment rows, not the cached column
	_, paymentCores, err := f.fetchPayments(tx, ctx, userId, invoiceId)
	if err != nil {
		return nil, err
	}
	paidSoFar := sumPaymentAmounts(paymentCores)
	newPaid, err := applyPaymentDelta(pi.Core().Total, paidSoFar, delta)
	if err != nil {
		return nil, err
	}

	var payment P
	*PP(&payment).PayCore() = PaymentCore{
		InvoiceId:   invoiceId,
		UserId:      userId,
		Amount:      delta,
		Description: description,
		PaymentDate: time.Now().UTC(),
	}
	if err := tx.WithContext(ctx).Create(&payment).Error; err != nil {
		return nil, utils.StorageError("failed to record payment", err)
	}

	remaining := pi.Core().Total.Sub(newPaid)
	if err := f.saveAggregate(tx, ctx, pi, map[string]interface{}{
		"paid_amount":      newPaid,
		"remaining_amount": remaining,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, utils.StorageError("failed to commit payment", err)
	}
	f.invalidateSummary(userId, pi.GetCounterpartyId())

	pi.Core().PaidAmount = newPaid
	pi.Core().RemainingAmount = remaining
	return invoice, nil
}

func (f *invoiceFamily[I, PI, L, PL, P, PP]) paymentHistory(ctx context.Context, invoiceId int) ([]*P, error) {

	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == "" {
		return nil, utils.ValidationError("user id is required")
	}

	db := config.GetDB()
	var payments []*P
	if err := db.WithContext(ctx).
		Where("invoice_id = ? AND user_id = ?", invoiceId, userId).
		Order("payment_date DESC, id DESC").
		Find(&payments).Error; err != nil {
		return nil, utils.StorageError("failed to fetch payment history", err)
	}
	return payments, nil
}

type UnpaidSummary struct {
	TotalUnpaidCount     int64           `json:"totalUnpaidCount"`
	TotalRemainingAmount decimal.Decimal `json:"totalRemainingAmount"`
}

func (f *invoiceFamily[I, PI, L, PL, P, PP]) unpaidSummary(ctx context.Context, counterpartyId int) (*UnpaidSummary, error) {

	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == "" {
		return nil, utils.ValidationError("user id is required")
	}
	if counterpartyId <= 0 {
		return nil, utils.ValidationError("counterparty id is required")
	}

	cacheKey := f.summaryCacheKey(userId, counterpartyId)
	var cached UnpaidSummary
	if hit, err := config.GetRedisObject(cacheKey, &cached); err == nil && hit {
		return &cached, nil
	}

	db := config.GetDB()
	var model I
	var summary struct {
		Count int64
		Total decimal.Decimal
	}
	if err := db.WithContext(ctx).Model(&model).
		Where("user_id = ? AND "+f.counterpartyColumn+" = ? AND remaining_amount > 0", userId, counterpartyId).
		Select("COUNT(*) AS count, COALESCE(SUM(remaining_amount), 0) AS total").
		Scan(&summary).Error; err != nil {
		return nil, utils.StorageError("failed to fetch unpaid summary", err)
	}

	result := &UnpaidSummary{
		TotalUnpaidCount:     summary.Count,
		TotalRemainingAmount: summary.Total,
	}
	_ = config.SetRedisObject(cacheKey, result, 5*time.Minute)
	return result, nil
}

// payAllOldestFirst distributes one bulk payment across the counterparty's
// open invoices, oldest created first (ties broken by id). The amount must not
// exceed the sum of remaining balances: this is checked up front so the
// operation is all-or-nothing, never partially applied then rejected.
func (f *invoiceFamily[I, PI, L, PL, P, PP]) payAllOldestFirst(ctx context.Context, counterpartyId int, amount decimal.Decimal, description string) (decimal.Decimal, error) {

	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == "" {
		return decimal.Zero, utils.ValidationError("user id is required")
	}
	if counterpartyId <= 0 {
		return decimal.Zero, utils.ValidationError("counterparty id is required")
	}
	if !amount.IsPositive() {
		return decimal.Zero, utils.ValidationErrorCode(utils.CodePayAmountNonZero, "pay amount must be greater than zero")
	}
	amount = utils.RoundMoney(amount)

	ctx, cancel := context.WithTimeout(ctx, config.OperationTimeout())
	defer cancel()

	release, err := utils.OwnerLock(ctx, userId, f.lockType, "models", "pay all "+f.name)
	if err != nil {
		return decimal.Zero, err
	}
	defer release()

	db := config.GetDB()
	tx := db.Begin()
	defer tx.Rollback()

	var invoices []*I
	if err := tx.WithContext(ctx).
		Where("user_id = ? AND "+f.counterpartyColumn+" = ? AND remaining_amount > 0", userId, counterpartyId).
		Order("created_at, id").
		Find(&invoices).Error; err != nil {
		return decimal.Zero, utils.StorageError("failed to fetch unpaid invoices", err)
	}

	remainings := make([]decimal.Decimal, 0, len(invoices))
	totalRemaining := decimal.Zero
	for _, inv := range invoices {
		r := PI(inv).Core().RemainingAmount
		remainings = append(remainings, r)
		totalRemaining = totalRemaining.Add(r)
	}
	if amount.GreaterThan(totalRemaining) {
		return decimal.Zero, utils.ValidationError(
			fmt.Sprintf("pay amount (%s) cannot exceed the total remaining debt (%s)", amount.StringFixed(2), totalRemaining.StringFixed(2)))
	}

	allocations, left := allocateOldestFirst(remainings, amount)
	now := time.Now().UTC()
	for _, allocation := range allocations {
		pi := PI(invoices[allocation.Index])

		var payment P
		*PP(&payment).PayCore() = PaymentCore{
			InvoiceId:   pi.Core().ID,
			UserId:      userId,
			Amount:      allocation.Amount,
			Description: description,
			PaymentDate: now,
		}
		if err := tx.WithContext(ctx).Create(&payment).Error; err != nil {
			return decimal.Zero, utils.StorageError("failed to record payment", err)
		}

		newPaid := pi.Core().PaidAmount.Add(allocation.Amount)
		newRemaining := pi.Core().RemainingAmount.Sub(allocation.Amount)
		if err := f.saveAggregate(tx, ctx, pi, map[string]interface{}{
			"paid_amount":      newPaid,
			"remaining_amount": newRemaining,
		}); err != nil {
			return decimal.Zero, err
		}
		pi.Core().PaidAmount = newPaid
		pi.Core().RemainingAmount = newRemaining
	}

	if err := tx.Commit().Error; err != nil {
		return decimal.Zero, utils.StorageError("failed to commit bulk payment", err)
	}
	f.invalidateSummary(userId, counterpartyId)

	return left, nil
}
