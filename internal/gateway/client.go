package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Report is the gateway's authoritative view of one transaction. It is
// transient; nothing here is persisted as-is.
type Report struct {
	TxnID     string
	Amount    int
	Status    string
	Method    string
	VbankNum  string
	VbankName string
	VbankDate time.Time
}

// Adapter verifies a gateway transaction reference and returns the
// authoritative report for it. Callers must never trust client-supplied
// amount or status instead of this call.
type Adapter interface {
	Verify(ctx context.Context, txnID string) (*Report, error)
}

// Client talks to the payment gateway's REST API. The gateway hands out
// short-lived bearer tokens in exchange for the API key pair; the token is
// cached until shortly before expiry.
type Client struct {
	baseURL    string
	apiKey     string
	apiSecret  string
	httpClient *http.Client
	log        *zap.Logger

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

func NewClient(baseURL, apiKey, apiSecret string, log *zap.Logger) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		apiKey:    apiKey,
		apiSecret: apiSecret,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: log,
	}
}

type tokenResponse struct {
	Code     int    `json:"code"`
	Message  string `json:"message"`
	Response struct {
		AccessToken string `json:"access_token"`
		ExpiredAt   int64  `json:"expired_at"`
	} `json:"response"`
}

type paymentResponse struct {
	Code     int    `json:"code"`
	Message  string `json:"message"`
	Response struct {
		ImpUID    string `json:"imp_uid"`
		Amount    int    `json:"amount"`
		Status    string `json:"status"`
		PayMethod string `json:"pay_method"`
		VbankNum  string `json:"vbank_num"`
		VbankName string `json:"vbank_name"`
		VbankDate int64  `json:"vbank_date"`
	} `json:"response"`
}

func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.tokenExpiry) {
		return c.accessToken, nil
	}

	body, err := json.Marshal(map[string]string{
		"imp_key":    c.apiKey,
		"imp_secret": c.apiSecret,
	})
	if err != nil {
		return "", fmt.Errorf("marshal token request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/users/getToken", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", uuid.New().String())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token request failed with status %d", resp.StatusCode)
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if tr.Response.AccessToken == "" {
		return "", fmt.Errorf("gateway refused token: %s", tr.Message)
	}

	c.accessToken = tr.Response.AccessToken
	// renew a minute early to survive clock skew
	c.tokenExpiry = time.Unix(tr.Response.ExpiredAt, 0).Add(-time.Minute)
	return c.accessToken, nil
}

// Verify fetches the authoritative status of the given gateway transaction.
func (c *Client) Verify(ctx context.Context, txnID string) (*Report, error) {
	token, err := c.token(ctx)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/payments/%s", c.baseURL, txnID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create verify request: %w", err)
	}
	req.Header.Set("Authorization", token)
	req.Header.Set("X-Request-Id", uuid.New().String())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("verify %s: %w", txnID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("verify %s: gateway returned status %d", txnID, resp.StatusCode)
	}

	var pr paymentResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return nil, fmt.Errorf("decode verify response: %w", err)
	}
	if pr.Code != 0 {
		return nil, fmt.Errorf("verify %s: gateway error: %s", txnID, pr.Message)
	}

	c.log.Debug("gateway verification",
		zap.String("txn_id", txnID),
		zap.String("status", pr.Response.Status),
		zap.Int("amount", pr.Response.Amount),
	)

	report := &Report{
		TxnID:     pr.Response.ImpUID,
		Amount:    pr.Response.Amount,
		Status:    pr.Response.Status,
		Method:    pr.Response.PayMethod,
		VbankNum:  pr.Response.VbankNum,
		VbankName: pr.Response.VbankName,
	}
	if pr.Response.VbankDate > 0 {
		report.VbankDate = time.Unix(pr.Response.VbankDate, 0)
	}
	return report, nil
}
