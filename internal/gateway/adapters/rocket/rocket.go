package rocket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	billingdomain "github.com/wavelinklabs/wavelink/internal/billing/domain"
	"github.com/wavelinklabs/wavelink/internal/config"
	"github.com/wavelinklabs/wavelink/internal/gateway/domain"
)

type lookupResponse struct {
	TxnID     string `json:"txnId"`
	TxnStatus string `json:"txnStatus"`
	Amount    string `json:"amount"`
	Remarks   string `json:"remarks"`
}

type Verifier struct {
	creds  config.GatewayCredentials
	client *http.Client
}

func New(creds config.GatewayCredentials) *Verifier {
	return &Verifier{
		creds:  creds,
		client: &http.Client{Timeout: 12 * time.Second},
	}
}

func (v *Verifier) Method() billingdomain.PaymentMethod { return billingdomain.MethodRocket }

func (v *Verifier) Verify(ctx context.Context, req domain.VerifyRequest) (domain.VerifyResult, error) {
	q := url.Values{}
	q.Set("txnId", strings.TrimSpace(req.TrxID))
	q.Set("apiKey", v.creds.AppKey)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet,
		v.creds.BaseURL+"/txn/lookup?"+q.Encode(), nil)
	if err != nil {
		return domain.VerifyResult{}, err
	}
	httpReq.Header.Set("X-Api-Secret", v.creds.AppSecret)
	httpReq.Header.Set("X-Request-Id", uuid.NewString())

	resp, err := v.client.Do(httpReq)
	if err != nil {
		return domain.VerifyResult{}, fmt.Errorf("%w: %s", domain.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return domain.VerifyResult{Reason: "transaction not found"}, nil
	}

	var out lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return domain.VerifyResult{}, err
	}

	if !strings.EqualFold(out.TxnStatus, "SUCCESS") {
		reason := out.Remarks
		if reason == "" {
			reason = "transaction not successful"
		}
		return domain.VerifyResult{Reason: reason}, nil
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(out.Amount))
	if err != nil {
		return domain.VerifyResult{Reason: "unreadable transaction amount"}, nil
	}
	if amount.LessThan(req.ExpectedAmount) {
		return domain.VerifyResult{Amount: amount, Reason: "transaction amount less than claimed"}, nil
	}

	return domain.VerifyResult{
		Verified:       true,
		Amount:         amount,
		CanonicalTrxID: out.TxnID,
	}, nil
}
