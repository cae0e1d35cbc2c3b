package client

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// Identity is the principal resolved by the identity service.
type Identity struct {
	ID       uint   `json:"ID"`
	UserName string `json:"UserName"`
	FullName string `json:"FullName"`
	Email    string `json:"Email"`
	RoleID   int    `json:"RoleID"`
}

// IdentityClient verifies bearer tokens against the identity service.
type IdentityClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewIdentityClient creates a new identity service client.
func NewIdentityClient(baseURL string, httpClient *http.Client) *IdentityClient {
	return &IdentityClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// CheckAuth resolves the user behind a bearer token.
func (c *IdentityClient) CheckAuth(ctx context.Context, token string) (*Identity, error) {
	var result struct {
		Result *Identity `json:"Result"`
	}
	headers := map[string]string{"Authorization": "Bearer " + token}
	if _, err := doJSON(ctx, c.httpClient, http.MethodGet, c.baseURL+"/auth/check", headers, nil, &result); err != nil {
		return nil, fmt.Errorf("checking auth: %w", err)
	}
	if result.Result == nil || result.Result.ID == 0 {
		return nil, fmt.Errorf("checking auth: %w", ErrUnauthorized)
	}
	return result.Result, nil
}
