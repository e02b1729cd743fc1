package core

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

const (
	Income  Kind = "income"
	Expense Kind = "expense"
)

type (
	// Kind classifies a transaction as money coming in or going out.
	// It is fixed at creation time.
	Kind string

	// Date is the user-chosen calendar date of a transaction. It may be
	// empty, in which case RecordedAt is used as a fallback.
	Date struct {
		time.Time
	}

	// Transaction is a single income or expense record owned by one user.
	Transaction struct {
		ID          string    `json:"id"`
		OwnerID     string    `json:"ownerId"`
		Description string    `json:"description"`
		Amount      Money     `json:"amount"`
		Category    string    `json:"category"`
		Kind        Kind      `json:"kind"`
		OccurredOn  Date      `json:"occurredOn,omitempty"`
		RecordedAt  time.Time `json:"recordedAt"`
	}

	// TransactionPatch carries partial updates to a transaction. Nil fields
	// are left untouched. OwnerID and Kind are deliberately absent: both are
	// immutable after creation.
	TransactionPatch struct {
		Description *string `json:"description,omitempty"`
		Amount      *Money  `json:"amount,omitempty"`
		Category    *string `json:"category,omitempty"`
		OccurredOn  *Date   `json:"occurredOn,omitempty"`
	}

	// Session identifies the authenticated user driving an engine.
	Session struct {
		UserID string `json:"id"`
		Name   string `json:"name"`
		Email  string `json:"email"`
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidKind      = errors.New("invalid kind")
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptyOwner       = errors.New("empty owner")

	// ErrNotFound is returned by stores when no transaction matches the
	// given id for the given owner. It is distinct from ErrEmptyOwner so
	// a missing owner is never mistaken for a missing record.
	ErrNotFound = errors.New("transaction not found")
)

const dateLayout = "2006-01-02"

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string. An empty string yields an empty Date.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

// IsEmpty reports whether the date was never set.
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (k Kind) Validate() error {
	switch k {
	case Income, Expense:
		return nil
	default:
		return ErrInvalidKind
	}
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.OwnerID) == "" {
		return ErrEmptyOwner
	}
	if len(strings.TrimSpace(t.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(t.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if err := t.Kind.Validate(); err != nil {
		return err
	}
	return nil
}

// Validate checks the fields a patch actually carries.
func (p TransactionPatch) Validate() error {
	if p.Description != nil {
		if len(strings.TrimSpace(*p.Description)) == 0 {
			return ErrEmptyDescription
		}
		if len(*p.Description) > 200 {
			return errors.New("description too long (max 200 characters)")
		}
	}
	if p.Amount != nil {
		if err := p.Amount.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Empty reports whether the patch carries no fields at all.
func (p TransactionPatch) Empty() bool {
	return p.Description == nil && p.Amount == nil && p.Category == nil && p.OccurredOn == nil
}

// Active reports whether the session belongs to an authenticated user.
func (s Session) Active() bool {
	return s.UserID != ""
}
