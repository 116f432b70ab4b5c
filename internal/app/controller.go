// Package app is the page controller: it verifies the session on every page
// load and wires the login, register, logout and expense handlers to the
// view bindings.
package app

import (
	"context"
	"errors"
	"time"

	"budget/internal/api"
	"budget/internal/charts"
	"budget/internal/core"
	applog "budget/internal/log"
	"budget/internal/session"
	"budget/internal/storage"
	"budget/internal/view"
)

// Messages shown inline.
const (
	MsgMissingCredentials = "Please enter email and password."
	MsgPasswordMismatch   = "Passwords do not match."
	MsgRegistered         = "Registration successful! Please login."
	MsgExpenseIncomplete  = "Please fill in description, amount, and category."
	MsgExpenseBadDate     = "Please enter the date as YYYY-MM-DD."
	MsgExpenseAdded       = "Expense added! Refreshing..."
	MsgExpenseAddFailed   = "Error adding expense."
	MsgNoExpenses         = "No expenses recorded yet."
	MsgLoadFailedPrefix   = "Error loading expenses: "
)

// DefaultRegisterRedirectDelay is how long the registration message stays
// before the login page loads.
const DefaultRegisterRedirectDelay = 2 * time.Second

// Backend is the subset of the api client the pages use.
type Backend interface {
	session.UserVerifier
	Login(ctx context.Context, email, password string) (string, error)
	Register(ctx context.Context, reg core.Registration) error
	ListExpenses(ctx context.Context) ([]core.Expense, error)
	AddExpense(ctx context.Context, d core.ExpenseDraft) (api.SubmitResult, error)
}

// Charts draws and clears the dashboard canvases.
type Charts interface {
	RenderAll(ctx context.Context, expenses []core.Expense) error
	Hide() error
	Instance(canvas string) (*charts.Instance, bool)
}

// ExpenseEvents is told about every expense the backend accepted.
type ExpenseEvents interface {
	PublishExpenseAdded(ctx context.Context, d core.ExpenseDraft, userEmail string) error
}

type Deps struct {
	Tokens   storage.TokenStore
	Backend  Backend
	Charts   Charts
	View     *view.Bindings
	Events   ExpenseEvents // optional
	Logger   *applog.Logger
	Currency charts.Currency

	RegisterRedirectDelay time.Duration
}

type Controller struct {
	tokens        storage.TokenStore
	backend       Backend
	charts        Charts
	view          *view.Bindings
	events        ExpenseEvents
	logger        *applog.Logger
	currency      charts.Currency
	registerDelay time.Duration
	sleep         func(ctx context.Context, d time.Duration) error

	route    string
	redirect string
	outcome  session.Outcome
	expenses []core.Expense
}

func NewController(d Deps) *Controller {
	logger := d.Logger
	if logger == nil {
		logger = applog.Discard()
	}
	cur := d.Currency
	if cur == "" {
		cur = charts.Dollar
	}
	delay := d.RegisterRedirectDelay
	if delay < 0 {
		delay = 0
	}
	v := d.View
	if v == nil {
		v = view.NewBindings(charts.CanvasCategory, charts.CanvasMonthly)
	}

	return &Controller{
		tokens:        d.Tokens,
		backend:       d.Backend,
		charts:        d.Charts,
		view:          v,
		events:        d.Events,
		logger:        logger.WithComponent(applog.ComponentApp),
		currency:      cur,
		registerDelay: delay,
		sleep:         sleepContext,
	}
}

func (c *Controller) View() *view.Bindings { return c.view }

// Route is the page currently loaded.
func (c *Controller) Route() string { return c.route }

// Redirect is the page a handler asked to navigate to, or "".
func (c *Controller) Redirect() string { return c.redirect }

// Session is the outcome of the last verification.
func (c *Controller) Session() session.Outcome { return c.outcome }

// Expenses is the list shown by the last successful fetch.
func (c *Controller) Expenses() []core.Expense { return c.expenses }

// Load enters route and runs the session check, as a page load does.
func (c *Controller) Load(ctx context.Context, route string) session.Outcome {
	c.route = route
	c.redirect = ""
	return c.CheckLoginState(ctx)
}

// CheckLoginState verifies the stored token and applies the result to the
// current page.
func (c *Controller) CheckLoginState(ctx context.Context) session.Outcome {
	o := session.Check(ctx, c.tokens, c.backend)
	c.outcome = o
	eff := session.Plan(o, c.route)

	logger := c.logger.WithComponent(applog.ComponentSession)
	if o.State == session.Authenticated {
		logger.DebugContext(ctx, "Session verified", applog.FieldEmail, o.User.Email, applog.FieldRoute, c.route)
	} else if errors.Is(o.Err, session.ErrTokenUnreadable) {
		logger.ErrorContext(ctx, "Failed to read stored token",
			applog.NewFields().WithRoute(c.route).WithOperation(applog.OpVerify).WithError(o.Err).ToSlice()...)
	} else if o.Err != nil {
		logger.WarnContext(ctx, "Session invalid or expired, clearing token",
			applog.NewFields().WithRoute(c.route).WithOperation(applog.OpVerify).WithError(o.Err).ToSlice()...)
	}

	if eff.DiscardToken {
		if err := c.tokens.Remove(ctx); err != nil {
			logger.ErrorContext(ctx, "Failed to discard token", applog.FieldError, err)
		}
	}
	c.view.Nav.SetLoggedIn(eff.LoggedIn, eff.Email)

	if eff.Redirect != "" {
		c.navigate(eff.Redirect)
	}
	if eff.FetchExpenses {
		c.FetchAndDisplayExpenses(ctx)
	}
	return o
}

func (c *Controller) navigate(route string) {
	c.redirect = route
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
