package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type (
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Transaction is one row of the base table: a bank or card movement as
	// delivered by the external sync. Positive amounts are outflows
	// (purchases); negative or zero amounts are inflows and refunds.
	Transaction struct {
		ID               string
		Date             Date
		Amount           Money
		MerchantName     string
		Name             string
		AccountID        string
		Category         Category
		CategoryDetailed string
	}

	// Override is a user correction for a single transaction. Only the
	// non-nil fields replace the base values; a nil field inherits from
	// base. A present zero amount is a real value, not "unset".
	Override struct {
		TransactionID string
		Amount        *Money
		Category      *string
	}
)

var (
	ErrNotFound        = errors.New("transaction not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrDataSource      = errors.New("data source unreadable")

	// Specific invalid-argument cases; all satisfy errors.Is with
	// ErrInvalidArgument.
	ErrEmptyID      = fmt.Errorf("%w: empty transaction id", ErrInvalidArgument)
	ErrInvalidDate  = fmt.Errorf("%w: invalid date", ErrInvalidArgument)
	ErrNoFieldToSet = fmt.Errorf("%w: override sets no field", ErrInvalidArgument)
)

// NewDate creates a Date at midnight UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// MonthLabel returns the named-period label for the date, e.g. "January 2006".
func (d Date) MonthLabel() string {
	return d.Format("January 2006")
}

func (d Date) String() string {
	return d.Format("2006-01-02")
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return ErrEmptyID
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	return nil
}

func (o Override) Validate() error {
	if strings.TrimSpace(o.TransactionID) == "" {
		return ErrEmptyID
	}
	if o.Amount == nil && o.Category == nil {
		return ErrNoFieldToSet
	}
	return nil
}
