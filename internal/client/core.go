package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// PlaidAccount is the core service's record of an aggregator-linked account.
type PlaidAccount struct {
	PlaidID         string `json:"PlaidID"`
	AccessToken     string `json:"AccessToken"`
	InstitutionName string `json:"InstitutionName"`
	AccountSubtype  string `json:"AccountSubtype"`
}

// CoreClient talks to the core service that owns linked accounts and devices.
type CoreClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewCoreClient creates a new core service client.
func NewCoreClient(baseURL, apiKey string, httpClient *http.Client) *CoreClient {
	return &CoreClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: httpClient,
	}
}

func (c *CoreClient) headers() map[string]string {
	return map[string]string{"X-API-Key": c.apiKey}
}

// GetPlaidAccount returns the linked account for plaidID, or
// ErrAccountNotFound when the core service does not know it.
func (c *CoreClient) GetPlaidAccount(ctx context.Context, plaidID string) (*PlaidAccount, error) {
	var result struct {
		Result *PlaidAccount `json:"Result"`
	}
	endpoint := c.baseURL + "/plaid-accounts/" + url.PathEscape(plaidID)
	status, err := doJSON(ctx, c.httpClient, http.MethodGet, endpoint, c.headers(), nil, &result)
	if status == http.StatusNotFound {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching plaid account: %w", err)
	}
	if result.Result == nil {
		return nil, ErrAccountNotFound
	}
	return result.Result, nil
}

// GetDeviceTokens returns the push player ids registered for the users.
func (c *CoreClient) GetDeviceTokens(ctx context.Context, userIDs []uint) ([]string, error) {
	body := struct {
		UserIDs []uint `json:"user_ids"`
	}{UserIDs: userIDs}

	var result struct {
		Result []string `json:"Result"`
	}
	if _, err := doJSON(ctx, c.httpClient, http.MethodPost, c.baseURL+"/user-devices/tokens", c.headers(), body, &result); err != nil {
		return nil, fmt.Errorf("fetching device tokens: %w", err)
	}
	return result.Result, nil
}
