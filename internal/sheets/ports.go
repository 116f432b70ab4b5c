// Package sheets exports expenses to a spreadsheet.
package sheets

import (
	"context"

	"budget/internal/core"
)

// ExpenseExporter appends expenses as rows and returns a reference to the
// range written.
type ExpenseExporter interface {
	AppendExpenses(ctx context.Context, expenses []core.Expense) (ref string, err error)
}

// Row is the cell values written for one expense: date, description,
// amount, category.
func Row(e core.Expense) []any {
	return []any{e.Date.String(), e.Description, e.Amount.InexactFloat64(), e.Category}
}
