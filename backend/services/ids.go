package services

import (
	"context"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// ParseID accepts positive decimal ids only.
func ParseID(raw string) (uint, bool) {
	n, err := strconv.ParseUint(strings.TrimSpace(raw), 10, strconv.IntSize)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}

// runInTx retries fn in a fresh transaction while it fails with ErrRevisionConflict.
func runInTx(ctx context.Context, db *gorm.DB, attempts int, fn func(tx *gorm.DB) error) error {
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for i := 0; i < attempts; i++ {
		err = db.WithContext(ctx).Transaction(fn)
		if !errors.Is(err, ErrRevisionConflict) {
			return err
		}
	}
	return err
}
