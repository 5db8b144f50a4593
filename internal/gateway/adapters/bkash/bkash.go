package bkash

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
	"github.com/shopspring/decimal"
	billingdomain "github.com/wavelinklabs/wavelink/internal/billing/domain"
	"github.com/wavelinklabs/wavelink/internal/config"
	"github.com/wavelinklabs/wavelink/internal/gateway/domain"
)

type tokenResponse struct {
	IDToken   string `json:"id_token"`
	ExpiresIn int64  `json:"expires_in"`
}

type searchResponse struct {
	TrxID             string `json:"trxID"`
	TransactionStatus string `json:"transactionStatus"`
	Amount            string `json:"amount"`
	StatusMessage     string `json:"statusMessage"`
}

// Verifier checks a claimed bKash transaction through the tokenized checkout
// search API.
type Verifier struct {
	creds  config.GatewayCredentials
	client *http.Client

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

func New(creds config.GatewayCredentials) *Verifier {
	return &Verifier{
		creds:  creds,
		client: &http.Client{Timeout: 12 * time.Second},
	}
}

func (v *Verifier) Method() billingdomain.PaymentMethod { return billingdomain.MethodBkash }

func (v *Verifier) Verify(ctx context.Context, req domain.VerifyRequest) (domain.VerifyResult, error) {
	token, err := v.grantToken(ctx)
	if err != nil {
		return domain.VerifyResult{}, fmt.Errorf("%w: %s", domain.ErrGatewayUnavailable, err)
	}

	payload, err := json.Marshal(map[string]string{"trxID": strings.TrimSpace(req.TrxID)})
	if err != nil {
		return domain.VerifyResult{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		v.creds.BaseURL+"/tokenized/checkout/general/searchTransaction", bytes.NewReader(payload))
	if err != nil {
		return domain.VerifyResult{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", token)
	httpReq.Header.Set("X-App-Key", v.creds.AppKey)
	httpReq.Header.Set("X-Request-Id", uuid.NewString())

	resp, err := v.client.Do(httpReq)
	if err != nil {
		return domain.VerifyResult{}, fmt.Errorf("%w: %s", domain.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return domain.VerifyResult{Reason: "transaction not found"}, nil
	}

	var out searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return domain.VerifyResult{}, err
	}

	if !strings.EqualFold(out.TransactionStatus, "Completed") {
		reason := out.StatusMessage
		if reason == "" {
			reason = "transaction not completed"
		}
		return domain.VerifyResult{Reason: reason}, nil
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(out.Amount))
	if err != nil {
		return domain.VerifyResult{Reason: "unreadable transaction amount"}, nil
	}
	if amount.LessThan(req.ExpectedAmount) {
		return domain.VerifyResult{
			Amount: amount,
			Reason: "transaction amount less than claimed",
		}, nil
	}

	return domain.VerifyResult{
		Verified:       true,
		Amount:         amount,
		CanonicalTrxID: out.TrxID,
	}, nil
}

func (v *Verifier) grantToken(ctx context.Context) (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.token != "" && time.Now().Before(v.tokenExpiry) {
		return v.token, nil
	}

	payload, err := json.Marshal(map[string]string{
		"app_key":    v.creds.AppKey,
		"app_secret": v.creds.AppSecret,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		v.creds.BaseURL+"/tokenized/checkout/token/grant", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("username", v.creds.Username)
	req.Header.Set("password", v.creds.Password)

	resp, err := v.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return "", fmt.Errorf("token grant failed with status %d", resp.StatusCode)
	}

	var out tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if strings.TrimSpace(out.IDToken) == "" {
		return "", fmt.Errorf("token grant returned empty token")
	}

	v.token = out.IDToken
	// Refresh one minute ahead of provider expiry.
	v.tokenExpiry = time.Now().Add(time.Duration(out.ExpiresIn)*time.Second - time.Minute)
	return v.token, nil
}
