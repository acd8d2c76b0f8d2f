// Package bankapi is the agent-side HTTP client for the banking API. Every
// call carries the caller's session id in the X-Session-Id header; the client
// holds no session state of its own.
package bankapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/voicebank/voicebank/internal/account"
	"github.com/voicebank/voicebank/internal/customer"
	"github.com/voicebank/voicebank/internal/ledger"
	"github.com/voicebank/voicebank/internal/transfer"
)

const (
	sessionHeader  = "X-Session-Id"
	requestTimeout = 5 * time.Second
)

// Account mirrors the API's account representation. The agent masks it before
// anything reaches the conversation.
type Account struct {
	AccountNumber string          `json:"account_number"`
	Nickname      string          `json:"nickname"`
	Type          account.Type    `json:"account_type"`
	Balance       decimal.Decimal `json:"balance"`
	CustomerID    string          `json:"customer_id"`
}

// Mask derives the conversation-safe view.
func (a Account) Mask() account.Masked {
	return account.Masked{
		ID:       a.AccountNumber,
		Last4:    account.Last4(a.AccountNumber),
		Nickname: a.Nickname,
		Type:     a.Type,
	}
}

// TransactionQuery filters a transaction listing.
type TransactionQuery struct {
	Limit        int
	Direction    ledger.Direction
	Counterparty string
}

// TransferRequest is the body of POST /me/transfers.
type TransferRequest struct {
	SourceAccountNumber string          `json:"source_account_number"`
	PayeeAccountNumber  string          `json:"payee_account_number"`
	PayeeName           string          `json:"payee_name,omitempty"`
	Amount              decimal.Decimal `json:"amount"`
	TPIN                string          `json:"tpin"`
}

// Client talks to the banking API over HTTP with a short fixed timeout; a
// timeout is a hard failure, never retried here.
type Client struct {
	base string
	http *http.Client
}

// New builds a client for the API at baseURL.
func New(baseURL string) *Client {
	return &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{Timeout: requestTimeout},
	}
}

// ListAccounts fetches the caller's accounts.
func (c *Client) ListAccounts(ctx context.Context, sessionID string) ([]Account, error) {
	var accounts []Account
	if err := c.get(ctx, sessionID, "/me/accounts", &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

// GetAccount fetches one of the caller's accounts by number.
func (c *Client) GetAccount(ctx context.Context, sessionID, accountNumber string) (Account, error) {
	var acct Account
	if err := c.get(ctx, sessionID, "/me/accounts/"+url.PathEscape(accountNumber), &acct); err != nil {
		return Account{}, err
	}
	return acct, nil
}

// ListTransactions fetches recent ledger entries for an owned account.
func (c *Client) ListTransactions(ctx context.Context, sessionID, accountNumber string, q TransactionQuery) ([]ledger.Entry, error) {
	params := url.Values{}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Direction != "" {
		params.Set("direction", string(q.Direction))
	}
	if q.Counterparty != "" {
		params.Set("counterparty", q.Counterparty)
	}
	path := "/me/accounts/" + url.PathEscape(accountNumber) + "/transactions"
	if encoded := params.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var entries []ledger.Entry
	if err := c.get(ctx, sessionID, path, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Transfer posts a funds transfer.
func (c *Client) Transfer(ctx context.Context, sessionID string, req TransferRequest) (transfer.Outcome, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return transfer.Outcome{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/me/transfers", bytes.NewReader(body))
	if err != nil {
		return transfer.Outcome{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set(sessionHeader, sessionID)

	var outcome transfer.Outcome
	if err := c.do(httpReq, &outcome); err != nil {
		return transfer.Outcome{}, err
	}
	return outcome, nil
}

// Customer fetches the signed-in user's customer profile.
func (c *Client) Customer(ctx context.Context, sessionID string) (customer.Customer, error) {
	var cust customer.Customer
	if err := c.get(ctx, sessionID, "/me/customer", &cust); err != nil {
		return customer.Customer{}, err
	}
	return cust, nil
}

func (c *Client) get(ctx context.Context, sessionID, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set(sessionHeader, sessionID)
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("bank api request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("bank api response: %w", err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("bank api %s %s: status %d: %s", req.Method, req.URL.Path, resp.StatusCode, apiErrorMessage(body))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode bank api response: %w", err)
	}
	return nil
}

// apiErrorMessage extracts a readable message from an error body, which may
// be a JSON object or plain text.
func apiErrorMessage(body []byte) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	return strings.TrimSpace(string(body))
}
