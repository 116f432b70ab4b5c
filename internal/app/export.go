package app

import (
	"context"
	"errors"
	"fmt"

	"budget/internal/core"
	applog "budget/internal/log"
	"budget/internal/session"
)

// Exporter copies expenses somewhere outside the backend.
type Exporter interface {
	AppendExpenses(ctx context.Context, expenses []core.Expense) (ref string, err error)
}

var ErrNotAuthenticated = errors.New("not logged in")

// ExportExpenses sends the list loaded by the dashboard to exp. It must run
// on a loaded dashboard page.
func (c *Controller) ExportExpenses(ctx context.Context, exp Exporter) (string, error) {
	if c.outcome.State != session.Authenticated {
		return "", ErrNotAuthenticated
	}
	if len(c.expenses) == 0 {
		c.view.Notice.Say("Nothing to export.", false)
		return "", nil
	}

	ref, err := exp.AppendExpenses(ctx, c.expenses)
	if err != nil {
		c.logger.WarnContext(ctx, "Export failed",
			applog.NewFields().WithOperation(applog.OpExport).WithError(err).ToSlice()...)
		c.view.Notice.Say("Export failed: "+err.Error(), true)
		return "", fmt.Errorf("export expenses: %w", err)
	}

	c.logger.InfoContext(ctx, "Expenses exported", applog.FieldCount, len(c.expenses), applog.FieldSheetsRef, ref)
	c.view.Notice.Say(fmt.Sprintf("Exported %d expenses to %s", len(c.expenses), ref), false)
	return ref, nil
}

// ExportAction adapts ExportExpenses to a page action. Errors are already on
// the page, so the action only records them in errp when it is not nil.
func ExportAction(exp Exporter, errp *error) Action {
	return func(ctx context.Context, c *Controller) {
		_, err := c.ExportExpenses(ctx, exp)
		if errp != nil {
			*errp = err
		}
	}
}
