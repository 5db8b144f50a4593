package nagad

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	billingdomain "github.com/wavelinklabs/wavelink/internal/billing/domain"
	"github.com/wavelinklabs/wavelink/internal/config"
	"github.com/wavelinklabs/wavelink/internal/gateway/domain"
)

type statusResponse struct {
	IssuerPaymentRefNo string `json:"issuerPaymentRefNo"`
	Status             string `json:"status"`
	Amount             string `json:"amount"`
	Message            string `json:"message"`
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

func (v *Verifier) Method() billingdomain.PaymentMethod { return billingdomain.MethodNagad }

func (v *Verifier) Verify(ctx context.Context, req domain.VerifyRequest) (domain.VerifyResult, error) {
	url := fmt.Sprintf("%s/verify/payment/%s", v.creds.BaseURL, strings.TrimSpace(req.TrxID))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return domain.VerifyResult{}, err
	}
	httpReq.Header.Set("X-KM-Api-Version", "v-0.2.0")
	httpReq.Header.Set("X-KM-MC-Id", v.creds.AppKey)
	httpReq.Header.Set("X-KM-Client-Key", v.creds.AppSecret)
	httpReq.Header.Set("X-Request-Id", uuid.NewString())

	resp, err := v.client.Do(httpReq)
	if err != nil {
		return domain.VerifyResult{}, fmt.Errorf("%w: %s", domain.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return domain.VerifyResult{Reason: "transaction not found"}, nil
	}

	var out statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return domain.VerifyResult{}, err
	}

	if !strings.EqualFold(out.Status, "Success") {
		reason := out.Message
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
		CanonicalTrxID: out.IssuerPaymentRefNo,
	}, nil
}
