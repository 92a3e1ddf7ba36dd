package utils

import (
	"context"
	"reflect"
	"strings"

	"bitbucket.org/mmdatafocus/ledger_backend/config"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateInput runs struct-tag validation (`validate:"..."`) on an input
// payload. Failures are reported as ValidationError so the caller can render a
// precise message.
func ValidateInput(input any) error {
	if err := validate.Struct(input); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			return ValidationError("invalid input: " + verrs[0].Error())
		}
		return ValidationError("invalid input")
	}
	return nil
}

// check if id exists, using ctx's user_id in WHERE, return RecordNotFound error
func ValidateResourceId[T any](ctx context.Context, userId string, id interface{}) error {

	count, err := ResourceCountWhere[T](ctx, userId, "id = ?", id)
	if err != nil {
		return err
	}
	if count <= 0 {
		return NotFoundError(strings.ToLower(GetTypeName[T]()) + " not found")
	}

	return nil
}

func ValidateUnique[T any](ctx context.Context, userId string, column string, value interface{}, exceptId interface{}) error {
	var count int64
	var err error
	if exceptId == nil || reflect.ValueOf(exceptId).IsZero() {
		count, err = ResourceCountWhere[T](ctx, userId, column+" = ?", value)
	} else {
		count, err = ResourceCountWhere[T](ctx, userId, column+" = ? AND NOT id = ?", value, exceptId)
	}

	if err != nil {
		return err
	}
	if count > 0 {
		return ValidationError("duplicate " + column)
	}
	return nil
}

// count records, using WHERE user_id = ? AND $condition
func ResourceCountWhere[T any](ctx context.Context, userId string, condition string, value ...interface{}) (int64, error) {
	var model T

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&model)
	var count int64
	if userId != "" {
		dbCtx.Where("user_id = ?", userId)
	}
	dbCtx.Where(condition, value...)
	if err := dbCtx.Count(&count).Error; err != nil {
		return 0, StorageError("count query failed", err)
	}
	return count, nil
}
