package models

import (
	"gorm.io/gorm"

	"bitbucket.org/mmdatafocus/ledger_backend/utils"
)

// Page is an offset-paginated result set with the total row count for the
// filter, so clients can render page controls.
type Page[T any] struct {
	Data  []*T  `json:"data"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
}

const defaultPageLimit = 10

// fetch one page plus total count; dbCtx must already carry Model and filters
func FetchPageOffset[T any](dbCtx *gorm.DB, page int, limit int, order string) (*Page[T], error) {

	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultPageLimit
	}

	var total int64
	if err := dbCtx.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, utils.StorageError("count query failed", err)
	}

	results := make([]*T, 0, limit)
	if err := dbCtx.Session(&gorm.Session{}).
		Order(order).
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, utils.StorageError("page query failed", err)
	}

	return &Page[T]{Data: results, Total: total, Page: page, Limit: limit}, nil
}
