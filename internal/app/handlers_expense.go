package app

import (
	"context"
	"errors"
	"fmt"

	"budget/internal/api"
	"budget/internal/charts"
	"budget/internal/core"
	applog "budget/internal/log"
	"budget/internal/session"
	"budget/internal/view"
)

// FetchAndDisplayExpenses loads the list, then draws the charts.
func (c *Controller) FetchAndDisplayExpenses(ctx context.Context) {
	list := &c.view.ExpenseList

	expenses, err := c.backend.ListExpenses(ctx)
	list.Items = nil
	if err != nil {
		c.logger.WarnContext(ctx, "Failed to fetch expenses",
			applog.NewFields().WithOperation(applog.OpList).WithError(err).ToSlice()...)
		c.expenses = nil
		list.Items = []string{MsgLoadFailedPrefix + api.Message(err)}
		list.Placeholder.Hide()
		c.hideCharts(ctx)
		return
	}

	c.expenses = expenses
	if len(expenses) == 0 {
		list.Placeholder.Say(MsgNoExpenses, false)
		c.hideCharts(ctx)
		return
	}

	list.Placeholder.Hide()
	for _, e := range expenses {
		list.Items = append(list.Items, c.formatExpense(e))
	}
	c.logger.DebugContext(ctx, "Expenses loaded", applog.FieldCount, len(expenses))

	c.renderCharts(ctx, expenses)
}

func (c *Controller) formatExpense(e core.Expense) string {
	return fmt.Sprintf("%s: %s - %s%s (%s)",
		e.Date.String(), e.Description, string(c.currency), core.FormatAmount(e.Amount), e.Category)
}

func (c *Controller) renderCharts(ctx context.Context, expenses []core.Expense) {
	if c.charts == nil {
		return
	}
	// A failed canvas is left empty by the renderer, so binding below hides
	// just that one.
	if err := c.charts.RenderAll(ctx, expenses); err != nil {
		c.logger.WarnContext(ctx, "Failed to render charts",
			applog.NewFields().WithOperation(applog.OpRender).WithError(err).ToSlice()...)
	}
	c.bindCanvas(&c.view.Category, charts.CanvasCategory)
	c.bindCanvas(&c.view.Monthly, charts.CanvasMonthly)
}

func (c *Controller) bindCanvas(canvas *view.Canvas, id string) {
	inst, ok := c.charts.Instance(id)
	if !ok {
		canvas.Visible, canvas.Path, canvas.Tooltips = false, "", nil
		return
	}
	canvas.Visible = true
	canvas.Path = inst.Path
	canvas.Tooltips = append([]string(nil), inst.Tooltips...)
}

func (c *Controller) hideCharts(ctx context.Context) {
	c.view.HideCanvases()
	if c.charts == nil {
		return
	}
	if err := c.charts.Hide(); err != nil {
		c.logger.WarnContext(ctx, "Failed to clear charts", applog.FieldError, err)
	}
}

func (c *Controller) clearExpenses() {
	c.expenses = nil
	c.view.ExpenseList.Items = nil
	c.hideCharts(context.Background())
}

// SubmitExpense validates the add-expense form locally and posts it. The
// backend answers success with a redirect, which is turned into navigation
// to the dashboard.
func (c *Controller) SubmitExpense(ctx context.Context) {
	form := &c.view.ExpenseForm
	form.Message.Clear()

	draft := core.ExpenseDraft{
		Description: form.Description,
		Amount:      form.Amount,
		Category:    form.Category,
		Date:        form.Date,
	}
	if err := draft.Validate(); err != nil {
		if errors.Is(err, core.ErrInvalidDate) {
			form.Message.Say(MsgExpenseBadDate, true)
		} else {
			form.Message.Say(MsgExpenseIncomplete, true)
		}
		return
	}

	res, err := c.backend.AddExpense(ctx, draft)
	if err != nil {
		c.logger.WarnContext(ctx, "Failed to add expense",
			applog.NewFields().WithOperation(applog.OpAdd).WithError(err).ToSlice()...)
		msg := api.Message(err)
		if msg == "" {
			msg = MsgExpenseAddFailed
		}
		form.Message.Say(msg, true)
		return
	}

	c.logger.InfoContext(ctx, "Expense submitted",
		applog.FieldOperation, applog.OpAdd,
		applog.FieldExpenseDesc, draft.Description,
		applog.FieldCategory, draft.Category,
		"outcome", res.Outcome.String())

	switch res.Outcome {
	case api.SubmitRedirected:
		c.publishAdded(ctx, draft)
		c.navigate(session.RouteDashboard)
	case api.SubmitSucceeded:
		c.publishAdded(ctx, draft)
		form.Message.Say(MsgExpenseAdded, false)
		c.FetchAndDisplayExpenses(ctx)
		form.Reset()
	default:
		form.Message.Say(res.Message, true)
	}
}

func (c *Controller) publishAdded(ctx context.Context, d core.ExpenseDraft) {
	if c.events == nil {
		return
	}
	if err := c.events.PublishExpenseAdded(ctx, d, c.outcome.User.Email); err != nil {
		c.logger.WarnContext(ctx, "Failed to publish expense event",
			applog.NewFields().WithOperation(applog.OpPublish).WithError(err).ToSlice()...)
	}
}
