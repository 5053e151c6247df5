package repository

import (
	"errors"

	"github.com/lib/pq"
)

// Postgres SQLSTATE codes the repositories translate.
const (
	uniqueViolation     = pq.ErrorCode("23505")
	foreignKeyViolation = pq.ErrorCode("23503")
)

// translate maps constraint failures onto domain errors, keeping the driver
// error in the chain.
func translate(err error, onUnique, onForeignKey error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch {
	case pqErr.Code == uniqueViolation && onUnique != nil:
		return errors.Join(onUnique, err)
	case pqErr.Code == foreignKeyViolation && onForeignKey != nil:
		return errors.Join(onForeignKey, err)
	}
	return err
}
