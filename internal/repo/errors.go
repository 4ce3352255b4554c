package repo

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

var (
	ErrDuplicate  = errors.New("duplicate key")
	ErrForeignKey = errors.New("referenced row missing")
)

// Postgres reaches us through lib/pq, which gorm does not translate; sqlite
// errors are translated by the dialector.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey),
		errors.As(err, &pqErr) && pqErr.Code == "23505",
		strings.Contains(err.Error(), "UNIQUE constraint failed"):
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	case errors.Is(err, gorm.ErrForeignKeyViolated),
		errors.As(err, &pqErr) && pqErr.Code == "23503",
		strings.Contains(err.Error(), "FOREIGN KEY constraint failed"):
		return fmt.Errorf("%w: %v", ErrForeignKey, err)
	}
	return err
}
