package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const providerDateLayout = "2006-01-02"

// RawTransaction is one transaction record exactly as the aggregator sent it.
type RawTransaction json.RawMessage

// ProviderTransaction is the decoded subset of a raw aggregator record.
type ProviderTransaction struct {
	TransactionID   string          `json:"transaction_id"`
	Amount          decimal.Decimal `json:"amount"`
	ISOCurrencyCode string          `json:"iso_currency_code"`
	UnofficialCode  string          `json:"unofficial_currency_code"`
	Date            string          `json:"date"`
	Name            string          `json:"name"`
	Category        []string        `json:"category"`
}

// Decode parses and validates the record.
func (r RawTransaction) Decode() (*ProviderTransaction, error) {
	var t ProviderTransaction
	if err := json.Unmarshal(r, &t); err != nil {
		return nil, fmt.Errorf("decoding transaction: %w", err)
	}
	if t.TransactionID == "" {
		return nil, errors.New("transaction_id is missing")
	}
	if t.ISOCurrencyCode == "" {
		t.ISOCurrencyCode = t.UnofficialCode
	}
	if t.ISOCurrencyCode == "" {
		return nil, fmt.Errorf("transaction %s has no currency", t.TransactionID)
	}
	if _, err := t.PostedAt(); err != nil {
		return nil, fmt.Errorf("transaction %s: %w", t.TransactionID, err)
	}
	return &t, nil
}

// PostedAt parses the record's calendar date as UTC midnight.
func (t *ProviderTransaction) PostedAt() (time.Time, error) {
	at, err := time.Parse(providerDateLayout, t.Date)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", t.Date)
	}
	return at, nil
}

// PlaidClient fetches transactions from a Plaid-compatible aggregator.
type PlaidClient struct {
	baseURL    string
	clientID   string
	secret     string
	pageSize   int
	httpClient *http.Client
}

// NewPlaidClient creates a new aggregator client.
func NewPlaidClient(baseURL, clientID, secret string, pageSize int, httpClient *http.Client) *PlaidClient {
	return &PlaidClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		clientID:   clientID,
		secret:     secret,
		pageSize:   pageSize,
		httpClient: httpClient,
	}
}

type transactionsGetRequest struct {
	ClientID    string `json:"client_id"`
	Secret      string `json:"secret"`
	AccessToken string `json:"access_token"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	Options     struct {
		Count  int `json:"count"`
		Offset int `json:"offset"`
	} `json:"options"`
}

type transactionsGetResponse struct {
	Transactions      []json.RawMessage `json:"transactions"`
	TotalTransactions int               `json:"total_transactions"`
}

// GetTransactions returns every transaction posted in [from, to), following
// offset pagination until the reported total is reached.
func (c *PlaidClient) GetTransactions(ctx context.Context, accessToken string, from, to time.Time) ([]RawTransaction, error) {
	req := transactionsGetRequest{
		ClientID:    c.clientID,
		Secret:      c.secret,
		AccessToken: accessToken,
		StartDate:   from.Format(providerDateLayout),
		EndDate:     to.AddDate(0, 0, -1).Format(providerDateLayout),
	}
	req.Options.Count = c.pageSize

	var all []RawTransaction
	for {
		req.Options.Offset = len(all)

		var page transactionsGetResponse
		if _, err := doJSON(ctx, c.httpClient, http.MethodPost, c.baseURL+"/transactions/get", nil, req, &page); err != nil {
			return nil, fmt.Errorf("fetching transactions: %w", err)
		}
		for _, raw := range page.Transactions {
			all = append(all, RawTransaction(raw))
		}

		if len(all) >= page.TotalTransactions || len(page.Transactions) == 0 {
			return all, nil
		}
	}
}
