package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

const (
	Income  TxType = "Thu nhập"
	Expense TxType = "Chi tiêu"
)

type (
	// TxType is the transaction kind as stored by the remote sheet.
	TxType string

	// ID is the opaque transaction identifier assigned by the remote store.
	// The store may send it as a JSON number or string.
	ID string

	Transaction struct {
		ID       ID     `json:"id"`
		Date     string `json:"date"` // DD/MM/YYYY
		Amount   Dong   `json:"amount"`
		Type     TxType `json:"type"`
		Category string `json:"category"`
		Content  string `json:"content"`
		Note     string `json:"note,omitempty"`
	}

	// TransactionInput is what the add/edit forms submit. Date is ISO (YYYY-MM-DD).
	TransactionInput struct {
		ID       ID
		Date     string
		Amount   Dong
		Type     TxType
		Category string
		Content  string
		Note     string
	}
)

var (
	ErrInvalidAmount = errors.New("amount must be greater than 0")
	ErrWholeAmount   = errors.New("amount must be a whole number of dong")
	ErrMissingDate   = errors.New("date is required")
	ErrFutureDate    = errors.New("date cannot be in the future")
	ErrInvalidDate   = errors.New("invalid date")
	ErrInvalidType   = errors.New("invalid transaction type")
	ErrMissingID     = errors.New("transaction id is required")
	ErrEmptySearch   = errors.New("at least one of content, amount or category is required")
	ErrInvalidRange  = errors.New("start month must be less than or equal to end month")
	ErrInvalidMonth  = errors.New("invalid month")
	ErrEmptyCategory = errors.New("category is required")
	ErrEmptyKeyword  = errors.New("keyword is required")
)

// ValidationError is a local form/field violation. It is never sent to the
// remote store.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Err.Error()
	}
	return e.Field + ": " + e.Err.Error()
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Invalid wraps err as a ValidationError for field.
func Invalid(field string, err error) error {
	return &ValidationError{Field: field, Err: err}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func (t TxType) Valid() bool {
	return t == Income || t == Expense
}

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string { return string(id) }

// Validate checks the form input before anything is sent. now is the
// reference "today".
func (in TransactionInput) Validate(now time.Time) error {
	if strings.TrimSpace(in.Date) == "" {
		return Invalid("date", ErrMissingDate)
	}
	d, err := ParseISODate(in.Date)
	if err != nil {
		return err
	}
	if err := ValidateNotFuture(d, now); err != nil {
		return err
	}
	if err := in.Amount.Validate(); err != nil {
		return Invalid("amount", err)
	}
	if in.Type != "" && !in.Type.Valid() {
		return Invalid("type", ErrInvalidType)
	}
	return nil
}

// ToTransaction converts validated input into the wire form with a
// DD/MM/YYYY date.
func (in TransactionInput) ToTransaction() (Transaction, error) {
	display, err := ISOToDisplay(in.Date)
	if err != nil {
		return Transaction{}, err
	}
	return Transaction{
		ID:       in.ID,
		Date:     display,
		Amount:   in.Amount,
		Type:     in.Type,
		Category: in.Category,
		Content:  in.Content,
		Note:     in.Note,
	}, nil
}

// FindByID returns the transaction with the given id.
func FindByID(txs []Transaction, id ID) (Transaction, bool) {
	for _, t := range txs {
		if t.ID == id {
			return t, true
		}
	}
	return Transaction{}, false
}

// CloneTransactions returns a copy so cached batches stay immutable.
func CloneTransactions(in []Transaction) []Transaction {
	if in == nil {
		return nil
	}
	return append([]Transaction(nil), in...)
}
