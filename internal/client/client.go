// Package client talks to the invoicing server over HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"timetrack-invoicing-backend/internal/services/billing"
	"timetrack-invoicing-backend/internal/services/draft"
	"timetrack-invoicing-backend/internal/wire"
)

var _ draft.Backend = (*Client)(nil)

// APIError is a non-2xx answer from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server error %d: %s", e.StatusCode, e.Message)
}

// Client is an authenticated API client.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New returns a client sending token as bearer on every request.
func New(ctx context.Context, baseURL, token string) *Client {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
	httpClient := oauth2.NewClient(ctx, ts)
	httpClient.Timeout = 30 * time.Second
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// Login exchanges credentials for a token.
func Login(ctx context.Context, baseURL, email, password string) (wire.LoginResponse, error) {
	var resp wire.LoginResponse
	c := &Client{baseURL: strings.TrimRight(baseURL, "/"), httpClient: &http.Client{Timeout: 30 * time.Second}}

	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return resp, err
	}
	err = c.do(ctx, http.MethodPost, "/login", bytes.NewReader(body), "application/json", &resp)
	return resp, err
}

func (c *Client) Projects(ctx context.Context) ([]wire.ProjectJSON, error) {
	var projects []wire.ProjectJSON
	err := c.do(ctx, http.MethodGet, "/projects.json", nil, "", &projects)
	return projects, err
}

func (c *Client) Clients(ctx context.Context) ([]wire.ClientJSON, error) {
	var clients []wire.ClientJSON
	err := c.do(ctx, http.MethodGet, "/clients.json", nil, "", &clients)
	return clients, err
}

// FetchEntries returns the work logged on project between the days of
// start and end.
func (c *Client) FetchEntries(ctx context.Context, project uuid.UUID, start, end time.Time) ([]billing.Entry, error) {
	q := url.Values{}
	q.Set("start_date", start.Format(time.DateOnly))
	q.Set("end_date", end.Format(time.DateOnly))

	var entries []billing.Entry
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/projects/%s/status_period.json?%s", project, q.Encode()), nil, "", &entries)
	return entries, err
}

func (c *Client) CreateInvoice(ctx context.Context, inv billing.Invoice) (billing.Invoice, error) {
	return c.sendInvoice(ctx, http.MethodPost, "/invoices.json", inv)
}

func (c *Client) UpdateInvoice(ctx context.Context, inv billing.Invoice) (billing.Invoice, error) {
	return c.sendInvoice(ctx, http.MethodPut, fmt.Sprintf("/invoices/%s.json", inv.ID), inv)
}

func (c *Client) Invoice(ctx context.Context, id uuid.UUID) (wire.InvoiceShowResponse, error) {
	var resp wire.InvoiceShowResponse
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/invoices/%s.json", id), nil, "", &resp)
	return resp, err
}

func (c *Client) MakeInvoiceVisible(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/invoices/%s/make_visible.json", id), nil, "", nil)
}

// NotifyClient asks the server to email the client about an invoice.
func (c *Client) NotifyClient(ctx context.Context, project, invoice uuid.UUID) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/projects/%s/invoices/%s/email_notify.json", project, invoice), nil, "", nil)
}

func (c *Client) sendInvoice(ctx context.Context, method, path string, inv billing.Invoice) (billing.Invoice, error) {
	var buf bytes.Buffer
	contentType, err := wire.WriteInvoiceForm(&buf, inv)
	if err != nil {
		return billing.Invoice{}, fmt.Errorf("encoding invoice: %w", err)
	}

	var resp wire.InvoiceShowResponse
	if err := c.do(ctx, method, path, &buf, contentType, &resp); err != nil {
		return billing.Invoice{}, err
	}
	return resp.Draft(), nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	data, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var payload struct {
			Error string `json:"error"`
		}
		msg := strings.TrimSpace(string(data))
		if json.Unmarshal(data, &payload) == nil && payload.Error != "" {
			msg = payload.Error
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
