package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/storepanel/internal/models"
	"github.com/Skotchmaster/storepanel/internal/repo"
	pkghash "github.com/Skotchmaster/storepanel/pkg/hash"
)

const msgRequired = "this field is required"

func need[T any](f fieldErrors, field string, v *T, mode Mode) bool {
	if v == nil {
		if mode.Full() {
			f.add(field, msgRequired)
		}
		return false
	}
	return true
}

func needText(f fieldErrors, field string, v *string, mode Mode) bool {
	if !need(f, field, v, mode) {
		return false
	}
	if strings.TrimSpace(*v) == "" {
		f.add(field, "this field may not be blank")
		return false
	}
	return true
}

// checkRef reports a missing referenced row on field.
func checkRef[M models.Entity](ctx context.Context, t *repo.Table[M], f fieldErrors, field string, id *uuid.UUID) error {
	if id == nil {
		return nil
	}
	ok, err := t.Exists(ctx, *id)
	if err != nil {
		return err
	}
	if !ok {
		f.add(field, fmt.Sprintf("invalid pk %q - object does not exist", id.String()))
	}
	return nil
}

// checkDecimal enforces a decimal(maxDigits, places) column.
func checkDecimal(f fieldErrors, field string, d decimal.Decimal, maxDigits, places int32) {
	switch {
	case d.IsNegative():
		f.add(field, "ensure this value is greater than or equal to 0")
	case !d.Equal(d.Round(places)):
		f.add(field, fmt.Sprintf("ensure that there are no more than %d decimal places", places))
	case d.GreaterThanOrEqual(decimal.New(1, maxDigits-places)):
		f.add(field, fmt.Sprintf("ensure that there are no more than %d digits before the decimal point", maxDigits-places))
	}
}

func checkPassword(f fieldErrors, field, password string) bool {
	if len(password) > pkghash.MaxPasswordBytes {
		f.add(field, fmt.Sprintf("ensure this field has no more than %d bytes", pkghash.MaxPasswordBytes))
		return false
	}
	return true
}

// NormalizeEmail lower-cases the domain part and trims spaces.
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at+1] + strings.ToLower(email[at+1:])
}

func oneOf(f fieldErrors, field, v string, allowed ...string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	f.add(field, fmt.Sprintf("%q is not a valid choice", v))
	return false
}
