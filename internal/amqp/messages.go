package amqp

import (
	"encoding/json"
	"time"

	"budget/internal/core"
)

// ExpenseAddedMessage announces an expense the backend accepted. Amount is
// the decimal string that was submitted.
type ExpenseAddedMessage struct {
	Description string    `json:"description"`
	Amount      string    `json:"amount"`
	Category    string    `json:"category"`
	Date        string    `json:"expense_date,omitempty"`
	UserEmail   string    `json:"user_email,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewExpenseAddedMessage builds the message for a submitted draft.
func NewExpenseAddedMessage(d core.ExpenseDraft, userEmail string) (*ExpenseAddedMessage, error) {
	amount, err := core.ParseAmount(d.Amount)
	if err != nil {
		return nil, err
	}
	return &ExpenseAddedMessage{
		Description: d.Description,
		Amount:      amount.String(),
		Category:    d.Category,
		Date:        d.Date,
		UserEmail:   userEmail,
		Timestamp:   time.Now().UTC(),
	}, nil
}

func (m *ExpenseAddedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ExpenseAddedMessageFromJSON(data []byte) (*ExpenseAddedMessage, error) {
	var msg ExpenseAddedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
