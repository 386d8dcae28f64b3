package postgres

import (
	"strings"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// Helper functions for PostgreSQL error checking
func isUniqueConstraintViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

// isSerializationFailure matches serialization_failure (40001) and
// deadlock_detected (40P01), which the kv backend reports as a conflict.
func isSerializationFailure(err error) bool {
	errMsg := strings.ToLower(err.Error())

	return strings.Contains(errMsg, "40001") ||
		strings.Contains(errMsg, "40p01") ||
		strings.Contains(errMsg, "could not serialize access")
}

// isOutOfSpace matches disk_full (53100) and program_limit_exceeded (54000).
func isOutOfSpace(err error) bool {
	errMsg := strings.ToLower(err.Error())

	return strings.Contains(errMsg, "53100") ||
		strings.Contains(errMsg, "54000") ||
		strings.Contains(errMsg, "no space left")
}
