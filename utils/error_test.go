package utils

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOfClassifiesKindErrors(t *testing.T) {
	assert.Equal(t, ErrorKindValidation, KindOf(ValidationError("bad input")))
	assert.Equal(t, ErrorKindNotFound, KindOf(NotFoundError("missing")))
	assert.Equal(t, ErrorKindConflict, KindOf(ConflictError("raced")))
	assert.Equal(t, ErrorKindReferentialBlock, KindOf(ReferentialBlockError("in use")))
	assert.Equal(t, ErrorKindStorageFailure, KindOf(StorageError("db down", errors.New("dial tcp"))))
}

func TestKindOfSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("create invoice: %w", ValidationError("bad input"))
	assert.Equal(t, ErrorKindValidation, KindOf(err))
}

func TestKindOfDeadlineIsTimeout(t *testing.T) {
	err := fmt.Errorf("query: %w", context.DeadlineExceeded)
	assert.Equal(t, ErrorKindTimeout, KindOf(err))
}

func TestKindOfUnknownIsStorageFailure(t *testing.T) {
	assert.Equal(t, ErrorKindStorageFailure, KindOf(errors.New("boom")))
}

func TestCodeOf(t *testing.T) {
	err := ValidationErrorCode(CodePayAmountNonZero, "pay amount must be non-zero")
	assert.Equal(t, CodePayAmountNonZero, CodeOf(err))
	assert.Equal(t, "", CodeOf(ValidationError("no code")))
	assert.Equal(t, "", CodeOf(errors.New("boom")))
}

func TestStorageErrorKeepsCause(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := StorageError("failed to fetch invoice", cause)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "failed to fetch invoice", err.Error())
}
