package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"budget/internal/core"
)

// Backend paths.
const (
	PathToken      = "/auth/token"
	PathRegister   = "/auth/register"
	PathCurrent    = "/auth/users/me"
	PathExpenses   = "/expenses/"
	PathAddExpense = "/expenses/add"
)

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Login exchanges credentials for an access token. The backend expects an
// OAuth2 password form where the email travels as "username".
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)

	raw, err := c.Fetch(ctx, PathToken, RequestOptions{Method: http.MethodPost, Body: FormBody(form)})
	if err != nil {
		return "", err
	}

	var tr tokenResponse
	if raw != nil {
		if err := json.Unmarshal(raw, &tr); err != nil {
			return "", fmt.Errorf("decode token response: %w", ErrMalformedPayload)
		}
	}
	if strings.TrimSpace(tr.AccessToken) == "" {
		return "", ErrMissingToken
	}
	return tr.AccessToken, nil
}

func (c *Client) Register(ctx context.Context, reg core.Registration) error {
	_, err := c.Fetch(ctx, PathRegister, RequestOptions{Method: http.MethodPost, Body: JSONBody(reg)})
	return err
}

// CurrentUser verifies the stored token. A payload without an email is
// reported as ErrMalformedPayload.
func (c *Client) CurrentUser(ctx context.Context) (core.User, error) {
	raw, err := c.Fetch(ctx, PathCurrent, RequestOptions{})
	if err != nil {
		return core.User{}, err
	}
	if raw == nil {
		return core.User{}, fmt.Errorf("empty user payload: %w", ErrMalformedPayload)
	}

	var u core.User
	if err := json.Unmarshal(raw, &u); err != nil {
		return core.User{}, fmt.Errorf("decode user: %w", ErrMalformedPayload)
	}
	if err := u.Validate(); err != nil {
		return core.User{}, fmt.Errorf("%v: %w", err, ErrMalformedPayload)
	}
	return u, nil
}

func (c *Client) ListExpenses(ctx context.Context) ([]core.Expense, error) {
	raw, err := c.Fetch(ctx, PathExpenses, RequestOptions{})
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}

	var out []core.Expense
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode expenses: %w", ErrMalformedPayload)
	}
	return out, nil
}

// AddExpense posts the draft as multipart form data without following the
// redirect the backend answers with. Only transport failures are returned
// as errors; everything else is in the SubmitResult.
func (c *Client) AddExpense(ctx context.Context, d core.ExpenseDraft) (SubmitResult, error) {
	amount, err := core.ParseAmount(d.Amount)
	if err != nil {
		return SubmitResult{}, err
	}

	fields := []Field{
		{Name: "description", Value: d.Description},
		{Name: "amount", Value: amount.String()},
		{Name: "category", Value: d.Category},
	}
	if date := strings.TrimSpace(d.Date); date != "" {
		fields = append(fields, Field{Name: "expense_date_str", Value: date})
	}

	resp, err := c.Do(ctx, PathAddExpense, RequestOptions{
		Method:     http.MethodPost,
		Body:       MultipartBody(fields...),
		NoRedirect: true,
	})
	if err != nil {
		return SubmitResult{}, err
	}
	return ClassifySubmission(resp.Status, resp.Location, resp.Body), nil
}
