package app

import (
	"context"
	"errors"
	"fmt"

	applog "budget/internal/log"
)

// DefaultMaxHops bounds how many redirects one Open follows.
const DefaultMaxHops = 5

var ErrTooManyRedirects = errors.New("too many redirects")

// Action is a form submission or click performed on a loaded page.
type Action func(ctx context.Context, c *Controller)

// Page actions for the forms and links.
var (
	LoginAction      Action = func(ctx context.Context, c *Controller) { c.SubmitLogin(ctx) }
	RegisterAction   Action = func(ctx context.Context, c *Controller) { c.SubmitRegister(ctx) }
	LogoutAction     Action = func(ctx context.Context, c *Controller) { c.Logout(ctx) }
	AddExpenseAction Action = func(ctx context.Context, c *Controller) { c.SubmitExpense(ctx) }
)

// Browser loads routes on a Controller and follows the redirects its
// handlers ask for.
type Browser struct {
	ctrl    *Controller
	maxHops int
	// OnPage, when set, sees every page once it settles, including pages
	// that are left through a redirect.
	OnPage func(route string) error
}

func NewBrowser(ctrl *Controller) *Browser {
	return &Browser{ctrl: ctrl, maxHops: DefaultMaxHops}
}

// WithMaxHops sets how many redirects Open follows. Values below 1 keep the
// default.
func (b *Browser) WithMaxHops(n int) *Browser {
	if n >= 1 {
		b.maxHops = n
	}
	return b
}

// Open loads route, runs submit if the page did not navigate away on load,
// then follows redirects. It returns the route the browser ends on.
func (b *Browser) Open(ctx context.Context, route string, submit Action) (string, error) {
	current := route
	for hop := 0; ; hop++ {
		if hop > b.maxHops {
			return current, fmt.Errorf("%w: stopped at %s", ErrTooManyRedirects, current)
		}
		if err := ctx.Err(); err != nil {
			return current, err
		}

		if hop > 0 {
			b.ctrl.view.Reset()
		}
		b.ctrl.Load(ctx, current)
		if hop == 0 && submit != nil && b.ctrl.Redirect() == "" {
			submit(ctx, b.ctrl)
		}

		if b.OnPage != nil {
			if err := b.OnPage(current); err != nil {
				return current, err
			}
		}

		next := b.ctrl.Redirect()
		if next == "" {
			return current, nil
		}
		b.ctrl.logger.DebugContext(ctx, "Navigating", "from", current, applog.FieldRoute, next)
		current = next
	}
}
