package gatewayhttp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"
	"github.com/zapshift/zapshift/internal/integrations/payments"
)

type Client struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
}

func New(baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:9100"
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpc: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type chargeReq struct {
	Reference string  `json:"reference"`
	Email     string  `json:"email"`
	Amount    float64 `json:"amount"`
	Currency  string  `json:"currency"`
	Method    string  `json:"method"`
}

type chargeResp struct {
	Status        string `json:"status"` // "succeeded" | "failed"
	TransactionID string `json:"transaction_id"`
	Reason        string `json:"reason"`
}

func (c *Client) Charge(ctx context.Context, req payments.ChargeRequest) (payments.ChargeResult, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return payments.ChargeResult{}, errors.Wrap(err, "parse base url")
	}
	u.Path = "/v1/charges"

	body, err := json.Marshal(chargeReq{
		Reference: fmt.Sprintf("parcel-%d", req.ParcelID),
		Email:     req.Email,
		Amount:    req.Amount,
		Currency:  req.Currency,
		Method:    req.Method,
	})
	if err != nil {
		return payments.ChargeResult{}, errors.Wrap(err, "marshal charge")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return payments.ChargeResult{}, errors.Wrap(err, "new request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpc.Do(httpReq)
	if err != nil {
		return payments.ChargeResult{}, errors.Wrap(err, "do request")
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return payments.ChargeResult{}, fmt.Errorf("payment gateway http %d", resp.StatusCode)
	}

	var r chargeResp
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return payments.ChargeResult{}, errors.Wrap(err, "decode")
	}

	return payments.ChargeResult{
		TransactionID: r.TransactionID,
		Succeeded:     r.Status == "succeeded",
		FailureReason: r.Reason,
	}, nil
}
