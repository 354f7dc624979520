package api

import (
	"context"

	"github.com/dmitrijs2005/communityhub/internal/client/models"
)

type userEnvelope struct {
	User *models.User `json:"user"`
}

// AuthAPI covers the /auth endpoints.
type AuthAPI struct {
	c *Client
}

func NewAuthAPI(c *Client) *AuthAPI {
	return &AuthAPI{c: c}
}

func (a *AuthAPI) Login(ctx context.Context, email, password string) (*models.AuthResult, error) {
	return a.authCall(ctx, "/auth/login", models.Credentials{Email: email, Password: password})
}

// Register creates an account. The result either carries a session or
// asks for OTP verification.
func (a *AuthAPI) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResult, error) {
	return a.authCall(ctx, "/auth/register", req)
}

func (a *AuthAPI) VerifyOTP(ctx context.Context, email, otp string) (*models.AuthResult, error) {
	return a.authCall(ctx, "/auth/verify-otp", models.OTPRequest{Email: email, OTP: otp})
}

func (a *AuthAPI) ResendOTP(ctx context.Context, email string) (string, error) {
	resp, err := a.c.Post(ctx, "/auth/resend-otp", models.OTPRequest{Email: email})
	if err != nil {
		return "", err
	}
	return resp.Message, nil
}

func (a *AuthAPI) Logout(ctx context.Context) error {
	_, err := a.c.Post(ctx, "/auth/logout", nil)
	return err
}

// Me fetches the canonical record of the authenticated user.
func (a *AuthAPI) Me(ctx context.Context) (*models.User, error) {
	resp, err := a.c.Get(ctx, "/auth/me", nil)
	if err != nil {
		return nil, err
	}

	// The backend answers either {data: user} or {data: {user: ...}}.
	wrapped, err := Decode[userEnvelope](resp)
	if err == nil && wrapped.User != nil {
		return wrapped.User, nil
	}

	u, err := Decode[*models.User](resp)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrInvalidResponse
	}
	return u, nil
}

func (a *AuthAPI) authCall(ctx context.Context, endpoint string, payload any) (*models.AuthResult, error) {
	resp, err := a.c.Post(ctx, endpoint, payload)
	if err != nil {
		return nil, err
	}
	res, err := Decode[models.AuthResult](resp)
	if err != nil {
		return nil, err
	}
	if res.Email == "" && res.RequiresVerification {
		res.Email = emailOf(payload)
	}
	return &res, nil
}

func emailOf(payload any) string {
	switch p := payload.(type) {
	case models.Credentials:
		return p.Email
	case models.RegisterRequest:
		return p.Email
	case models.OTPRequest:
		return p.Email
	}
	return ""
}
