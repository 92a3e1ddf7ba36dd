package utils

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/ledger_backend/config"
	"github.com/bsm/redislock"
	"github.com/shopspring/decimal"
)

/* generic functions */

func GetTypeName[T any]() string {
	var v T
	typeOfT := reflect.TypeOf(v)
	return typeOfT.Name()
}

func UniqueSlice[T comparable](s []T) []T {
	seen := make(map[T]bool, len(s))
	result := make([]T, 0, len(s))
	for _, v := range s {
		if !seen[v] {
			seen[v] = true
			result = append(result, v)
		}
	}
	return result
}

/* money */

// RoundMoney rounds to the cent (half-up) at the persistence boundary.
// All intermediate arithmetic stays on decimal.Decimal.
func RoundMoney(v decimal.Decimal) decimal.Decimal {
	return v.Round(2)
}

// ParseDecimal converts a string to a decimal.Decimal value.
func ParseDecimal(value string) (decimal.Decimal, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return decimal.Zero, errors.New("empty decimal string")
	}

	dec, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, err
	}

	return dec, nil
}

/* locking */

// OwnerLock serializes mutating operations per owner. It is the first-line
// guard against two writers racing on the same invoice; the invoice row's
// version check inside the transaction is the correctness guard.
// Returns a release func; Conflict when the lock is held elsewhere.
func OwnerLock(ctx context.Context, userId string, lockType string, moduleName string, functionName string) (func(), error) {
	logger := config.GetLogger()
	locker := config.GetRedisLock()
	if locker == nil {
		// Redis is optional in dev/test; the version check still protects us.
		return func() {}, nil
	}
	userName, _ := GetUserNameFromContext(ctx)
	correlationId, _ := GetCorrelationIdFromContext(ctx)
	logData := map[string]string{
		"userId":        userId,
		"userName":      userName,
		"correlationId": correlationId,
	}
	lockKey := fmt.Sprintf("%s:%s", lockType, userId)
	lock, err := locker.Obtain(ctx, lockKey, 30*time.Second, nil)
	if err == redislock.ErrNotObtained {
		config.LogError(logger, moduleName, functionName, "could not obtain lock for user", logData, err)
		return nil, ConflictError("another operation is in progress for this user")
	} else if err != nil {
		config.LogError(logger, moduleName, functionName, "error obtaining lock for user", logData, err)
		return nil, StorageError("lock service unavailable", err)
	}
	return func() { _ = lock.Release(ctx) }, nil
}
