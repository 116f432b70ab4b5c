package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the wire format of expense dates.
const DateLayout = "2006-01-02"

type (
	Date struct {
		time.Time
	}

	// Expense is one record as returned by GET /expenses/.
	Expense struct {
		Date        Date            `json:"expense_date"`
		Description string          `json:"description"`
		Amount      decimal.Decimal `json:"amount"`
		Category    string          `json:"category"`
	}

	// User is the payload of GET /auth/users/me.
	User struct {
		Email    string `json:"email"`
		FullName string `json:"full_name,omitempty"`
		ID       any    `json:"id,omitempty"`
		IsActive *bool  `json:"is_active,omitempty"`
	}

	// Registration is the JSON body of POST /auth/register.
	Registration struct {
		Email    string `json:"email"`
		FullName string `json:"full_name"`
		Password string `json:"password"`
	}

	// ExpenseDraft holds the add-expense form exactly as typed.
	ExpenseDraft struct {
		Description string
		Amount      string
		Category    string
		Date        string // optional, YYYY-MM-DD
	}
)

var (
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptyCategory    = errors.New("empty category")
	ErrMissingEmail     = errors.New("user payload has no email")
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate accepts YYYY-MM-DD and, for backends that send datetimes, RFC 3339.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return Date{Time: t}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return NewDate(t.Year(), int(t.Month()), t.Day()), nil
	}
	return Date{}, ErrInvalidDate
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// MonthKey returns the zero-padded YYYY-MM key used for monthly totals.
func (d Date) MonthKey() string {
	return d.Format("2006-01")
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" {
		*d = Date{}
		return nil
	}
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return ErrInvalidDate
	}
	parsed, err := ParseDate(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Validate reports whether the user payload identifies someone.
func (u User) Validate() error {
	if strings.TrimSpace(u.Email) == "" {
		return ErrMissingEmail
	}
	return nil
}

// Validate checks that description, amount and category are present and
// that the amount is numeric. An optional date must be YYYY-MM-DD.
func (d ExpenseDraft) Validate() error {
	if strings.TrimSpace(d.Description) == "" {
		return ErrEmptyDescription
	}
	if _, err := ParseAmount(d.Amount); err != nil {
		return err
	}
	if strings.TrimSpace(d.Category) == "" {
		return ErrEmptyCategory
	}
	if strings.TrimSpace(d.Date) != "" {
		if _, err := time.Parse(DateLayout, strings.TrimSpace(d.Date)); err != nil {
			return ErrInvalidDate
		}
	}
	return nil
}
