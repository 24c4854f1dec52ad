package api

import (
	"context"
	"fmt"
)

// AuthClient talks to the auth collaborator. It runs on a bare client
// with no token source: the credential exchange itself is anonymous.
type AuthClient struct {
	api *Client
}

func NewAuthClient(api *Client) *AuthClient {
	return &AuthClient{api: api}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType"`
	Username    string `json:"username"`
	Role        string `json:"role"`
}

func (c *AuthClient) Login(ctx context.Context, username, password string) (string, error) {
	var resp loginResponse
	err := c.api.Post(ctx, "/auth/login", loginRequest{Username: username, Password: password}, &resp)
	if err != nil {
		return "", err
	}
	return resp.AccessToken, nil
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c *AuthClient) Register(ctx context.Context, username, email, password string) error {
	err := c.api.Post(ctx, "/auth/register", registerRequest{
		Username: username,
		Email:    email,
		Password: password,
	}, nil)
	if err != nil {
		return fmt.Errorf("register %q: %w", username, err)
	}
	return nil
}
