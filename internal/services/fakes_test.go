package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"budgeting/internal/client"
)

// fakeDirectory is an in-memory AccountDirectory.
type fakeDirectory struct {
	accounts  map[string]*client.PlaidAccount
	tokens    []string
	err       error
	tokensErr error
}

var _ AccountDirectory = (*fakeDirectory)(nil)

func newFakeDirectory(plaidIDs ...string) *fakeDirectory {
	d := &fakeDirectory{accounts: map[string]*client.PlaidAccount{}, tokens: []string{"player-1"}}
	for _, id := range plaidIDs {
		d.accounts[id] = &client.PlaidAccount{
			PlaidID:         id,
			AccessToken:     "access-" + id,
			InstitutionName: "Bank " + id,
			AccountSubtype:  "checking",
		}
	}
	return d
}

func (d *fakeDirectory) GetPlaidAccount(_ context.Context, plaidID string) (*client.PlaidAccount, error) {
	if d.err != nil {
		return nil, d.err
	}
	acc, ok := d.accounts[plaidID]
	if !ok {
		return nil, client.ErrAccountNotFound
	}
	return acc, nil
}

func (d *fakeDirectory) GetDeviceTokens(_ context.Context, _ []uint) ([]string, error) {
	if d.tokensErr != nil {
		return nil, d.tokensErr
	}
	return d.tokens, nil
}

// fakeProvider returns canned raw transactions per access token.
type fakeProvider struct {
	byToken map[string][]client.RawTransaction
	err     error
	calls   []providerCall
}

type providerCall struct {
	token    string
	from, to time.Time
}

var _ TransactionProvider = (*fakeProvider)(nil)

func newFakeProvider() *fakeProvider {
	return &fakeProvider{byToken: map[string][]client.RawTransaction{}}
}

func (p *fakeProvider) add(token string, records ...map[string]interface{}) {
	for _, r := range records {
		data, err := json.Marshal(r)
		if err != nil {
			panic(err)
		}
		p.byToken[token] = append(p.byToken[token], client.RawTransaction(data))
	}
}

func (p *fakeProvider) addRaw(token, raw string) {
	p.byToken[token] = append(p.byToken[token], client.RawTransaction(raw))
}

func (p *fakeProvider) GetTransactions(_ context.Context, accessToken string, from, to time.Time) ([]client.RawTransaction, error) {
	p.calls = append(p.calls, providerCall{token: accessToken, from: from, to: to})
	if p.err != nil {
		return nil, p.err
	}
	return p.byToken[accessToken], nil
}

// fakeSender records every payload it is asked to send.
type fakeSender struct {
	mu       sync.Mutex
	payloads []map[string]interface{}
	err      error
}

var _ NotificationSender = (*fakeSender)(nil)

func (s *fakeSender) Send(_ context.Context, payload map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.payloads = append(s.payloads, payload)
	return nil
}

func (s *fakeSender) ofType(kind NotificationType) []map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []map[string]interface{}
	for _, p := range s.payloads {
		if p["type"] == string(kind) {
			out = append(out, p)
		}
	}
	return out
}

func plaidRecord(id string, amount float64, date string, tags ...string) map[string]interface{} {
	r := map[string]interface{}{
		"transaction_id":    id,
		"amount":            amount,
		"iso_currency_code": "USD",
		"date":              date,
		"name":              "Merchant " + id,
	}
	if tags != nil {
		r["category"] = tags
	}
	return r
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
