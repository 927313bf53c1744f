package backendapi

import (
	"context"
	"net/http"

	"github.com/go-resty/resty/v2"

	"jan-server/clients/jan-chat/internal/domain/session"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates an account.
func (c *Client) Register(ctx context.Context, in session.Registration) (*session.AuthResult, error) {
	var out session.AuthResult
	_, err := c.call(ctx, http.MethodPost, "/auth/register", func(r *resty.Request) {
		r.SetBody(registerRequest{Name: in.Name, Email: in.Email, Password: in.Password}).SetResult(&out)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Login authenticates with email and password.
func (c *Client) Login(ctx context.Context, in session.Credentials) (*session.AuthResult, error) {
	var out session.AuthResult
	_, err := c.call(ctx, http.MethodPost, "/auth/login", func(r *resty.Request) {
		r.SetBody(loginRequest{Email: in.Email, Password: in.Password}).SetResult(&out)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Me returns the profile behind the stored token.
func (c *Client) Me(ctx context.Context) (*session.Identity, error) {
	var out session.Identity
	_, err := c.call(ctx, http.MethodGet, "/auth/me", func(r *resty.Request) {
		r.SetResult(&out)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
