package app

import (
	"context"
	"strings"

	"budget/internal/api"
	"budget/internal/core"
	applog "budget/internal/log"
	"budget/internal/session"
)

// SubmitLogin posts the login form and, on success, stores the token and
// re-runs the session check.
func (c *Controller) SubmitLogin(ctx context.Context) {
	form := &c.view.LoginForm
	form.Error.Clear()

	email := strings.TrimSpace(form.Email)
	if email == "" || form.Password == "" {
		form.Error.Say(MsgMissingCredentials, true)
		return
	}

	token, err := c.backend.Login(ctx, email, form.Password)
	if err != nil {
		c.logger.WarnContext(ctx, "Login failed",
			applog.NewFields().WithOperation(applog.OpLogin).WithError(err).ToSlice()...)
		form.Error.Say(api.Message(err), true)
		return
	}

	if err := c.tokens.Store(ctx, token); err != nil {
		c.logger.ErrorContext(ctx, "Failed to store token", applog.FieldError, err)
		form.Error.Say(err.Error(), true)
		return
	}

	c.logger.InfoContext(ctx, "Logged in", applog.FieldOperation, applog.OpLogin, applog.FieldEmail, email)
	c.CheckLoginState(ctx)
}

// SubmitRegister posts the registration form and sends the user to the
// login page after a short pause.
func (c *Controller) SubmitRegister(ctx context.Context) {
	form := &c.view.RegisterForm
	form.Message.Clear()

	if form.Password != form.ConfirmPassword {
		form.Message.Say(MsgPasswordMismatch, true)
		return
	}

	err := c.backend.Register(ctx, core.Registration{
		Email:    strings.TrimSpace(form.Email),
		FullName: strings.TrimSpace(form.FullName),
		Password: form.Password,
	})
	if err != nil {
		c.logger.WarnContext(ctx, "Registration failed",
			applog.NewFields().WithOperation(applog.OpRegister).WithError(err).ToSlice()...)
		form.Message.Say(api.Message(err), true)
		return
	}

	form.Message.Say(MsgRegistered, false)
	c.logger.InfoContext(ctx, "Registered", applog.FieldOperation, applog.OpRegister, applog.FieldEmail, form.Email)

	if err := c.sleep(ctx, c.registerDelay); err != nil {
		return
	}
	c.navigate(session.RouteLogin)
}

// Logout forgets the token locally. The backend is not called.
func (c *Controller) Logout(ctx context.Context) {
	if err := c.tokens.Remove(ctx); err != nil {
		c.logger.ErrorContext(ctx, "Failed to remove token", applog.FieldError, err)
	}
	c.view.Nav.SetLoggedIn(false, "")
	c.clearExpenses()
	c.logger.InfoContext(ctx, "Logged out", applog.FieldOperation, applog.OpLogout)
	c.navigate(session.RouteHome)
}
