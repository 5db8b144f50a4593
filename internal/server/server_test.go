package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	billingdomain "github.com/wavelinklabs/wavelink/internal/billing/domain"
	billingrepo "github.com/wavelinklabs/wavelink/internal/billing/repository"
	billingservice "github.com/wavelinklabs/wavelink/internal/billing/service"
	"github.com/wavelinklabs/wavelink/internal/clock"
	"github.com/wavelinklabs/wavelink/internal/config"
	gatewaydomain "github.com/wavelinklabs/wavelink/internal/gateway/domain"
	invoicedomain "github.com/wavelinklabs/wavelink/internal/invoice/domain"
	"github.com/wavelinklabs/wavelink/internal/invoice/render"
	invoicerepo "github.com/wavelinklabs/wavelink/internal/invoice/repository"
	invoiceservice "github.com/wavelinklabs/wavelink/internal/invoice/service"
	"github.com/wavelinklabs/wavelink/internal/paylink"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const testAPIKey = "staff-key-123"

type stubGateway struct {
	verified bool
	reason   string
}

func (g *stubGateway) Supports(method billingdomain.PaymentMethod) bool {
	return billingdomain.PublicMethods[method]
}

func (g *stubGateway) Verify(ctx context.Context, req gatewaydomain.VerifyRequest) (gatewaydomain.VerifyResult, error) {
	return gatewaydomain.VerifyResult{
		Verified:       g.verified,
		Amount:         req.ExpectedAmount,
		CanonicalTrxID: req.TrxID,
		Reason:         g.reason,
	}, nil
}

type serverFixture struct {
	db      *gorm.DB
	ts      *httptest.Server
	gateway *stubGateway
	genID   *snowflake.Node
}

func newServerFixture(t *testing.T) *serverFixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&billingdomain.CustomerProfile{},
		&billingdomain.Bill{},
		&billingdomain.Payment{},
		&invoicedomain.Invoice{},
		&invoicedomain.InvoiceSequence{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	redisClient := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})

	log := zap.NewNop()
	clk := clock.New()
	bills := billingrepo.NewBillRepository(db)
	payments := billingrepo.NewPaymentRepository(db)
	profiles := billingrepo.NewCustomerRepository(db)

	advance := billingservice.NewAdvanceBalance(billingservice.AdvanceParams{
		Log: log, CustomerRepo: profiles,
	})
	ledger := billingservice.NewLedger(billingservice.LedgerParams{
		DB: db, Log: log, GenID: node, Clock: clk,
		BillRepo: bills, PaymentRepo: payments, CustomerRepo: profiles,
		Advance: advance,
	})

	gw := &stubGateway{verified: true}
	payLink := paylink.NewService(paylink.Params{
		DB: db, Log: log, Clock: clk,
		BillRepo: bills, PaymentRepo: payments, Customers: profiles,
		Ledger: ledger, Gateway: gw,
	})

	invoices := invoiceservice.NewService(invoiceservice.Params{
		DB: db, Log: log, GenID: node, Clock: clk,
		Repo:      invoicerepo.NewInvoiceRepository(db),
		Sequence:  invoicerepo.NewSequenceAllocator(db),
		Customers: profiles,
	})

	cfg := config.Config{
		InternalAPIKey:     testAPIKey,
		PayRateLimit:       100,
		PayRateLimitWindow: time.Minute,
		PaymentTokenTTL:    72 * time.Hour,
	}
	srv := NewServer(Params{
		Cfg: cfg, Log: log, DB: db, Redis: redisClient,
		Registry:  prometheus.NewRegistry(),
		Ledger:    ledger,
		Advance:   advance,
		Customers: profiles,
		PayLink:   payLink,
		Invoices:  invoices,
		Renderer:  render.NewRenderer(),
	})

	ts := httptest.NewServer(srv.engine)
	t.Cleanup(ts.Close)
	return &serverFixture{db: db, ts: ts, gateway: gw, genID: node}
}

func (f *serverFixture) seedBillWithToken(t *testing.T, amount int64, token string, expiresAt *time.Time) *billingdomain.Bill {
	t.Helper()
	profile := &billingdomain.CustomerProfile{
		ID:     f.genID.Generate(),
		Name:   "Jamal Hossain",
		Status: billingdomain.CustomerStatusActive,
	}
	require.NoError(t, f.db.Create(profile).Error)

	bill := &billingdomain.Bill{
		ID:                    f.genID.Generate(),
		CustomerID:            profile.ID,
		PackageName:           "Home 20Mbps",
		Amount:                decimal.NewFromInt(amount),
		DiscountAmount:        decimal.Zero,
		Status:                billingdomain.BillStatusPending,
		PaymentToken:          &token,
		PaymentTokenExpiresAt: expiresAt,
	}
	require.NoError(t, f.db.Create(bill).Error)
	return bill
}

func (f *serverFixture) doJSON(t *testing.T, method, path string, body any, apiKey string) (*http.Response, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, f.ts.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func TestPublicPay_ResolveAndSubmit(t *testing.T) {
	f := newServerFixture(t)
	f.seedBillWithToken(t, 1000, "tok-public", nil)

	resp, body := f.doJSON(t, http.MethodGet, "/pay/tok-public", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "Jamal Hossain", body["customerName"])
	require.Equal(t, "Home 20Mbps", body["packageName"])

	resp, body = f.doJSON(t, http.MethodPost, "/pay/tok-public", map[string]any{
		"amount": "1000", "method": "BKASH", "trxId": "BK12345678",
	}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, true, body["ok"])
	require.Equal(t, "PAID", body["status"])

	// A settled bill no longer resolves through its token.
	resp, _ = f.doJSON(t, http.MethodGet, "/pay/tok-public", nil, "")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPublicPay_ExpiredLink404(t *testing.T) {
	f := newServerFixture(t)
	past := time.Now().UTC().Add(-time.Hour)
	f.seedBillWithToken(t, 1000, "tok-dead", &past)

	resp, body := f.doJSON(t, http.MethodGet, "/pay/tok-dead", nil, "")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Equal(t, "Invalid or expired payment link", body["error"])
}

func TestPublicPay_VerificationFailure400(t *testing.T) {
	f := newServerFixture(t)
	f.seedBillWithToken(t, 1000, "tok-badtrx", nil)
	f.gateway.verified = false
	f.gateway.reason = "transaction not found"

	resp, body := f.doJSON(t, http.MethodPost, "/pay/tok-badtrx", map[string]any{
		"amount": "1000", "method": "NAGAD", "trxId": "NG12345678",
	}, "")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Contains(t, body["error"], "transaction not found")
}

func TestPublicPay_MalformedBody400(t *testing.T) {
	f := newServerFixture(t)
	f.seedBillWithToken(t, 1000, "tok-malformed", nil)

	resp, _ := f.doJSON(t, http.MethodPost, "/pay/tok-malformed", map[string]any{
		"method": "BKASH",
	}, "")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_RequiresKey(t *testing.T) {
	f := newServerFixture(t)
	bill := f.seedBillWithToken(t, 1000, "tok-auth", nil)

	resp, _ := f.doJSON(t, http.MethodGet, "/api/bills/"+bill.ID.String(), nil, "")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = f.doJSON(t, http.MethodGet, "/api/bills/"+bill.ID.String(), nil, "wrong-key")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = f.doJSON(t, http.MethodGet, "/api/bills/"+bill.ID.String(), nil, testAPIKey)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAPI_StaffCashPaymentAndBalance(t *testing.T) {
	f := newServerFixture(t)
	bill := f.seedBillWithToken(t, 1000, "tok-staff", nil)

	resp, body := f.doJSON(t, http.MethodPost, "/api/bills/"+bill.ID.String()+"/payments", map[string]any{
		"amount": "1200", "method": "CASH", "trx_id": "COUNTER0001",
	}, testAPIKey)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := body["data"].(map[string]any)
	require.Equal(t, "PAID", data["bill"].(map[string]any)["status"])

	resp, body = f.doJSON(t, http.MethodGet, "/api/customers/"+bill.CustomerID.String()+"/balance", nil, testAPIKey)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	balance := body["data"].(map[string]any)["advance_balance"]
	require.Equal(t, "200", balance)
}

func TestAPI_IssuePaymentLink(t *testing.T) {
	f := newServerFixture(t)
	bill := f.seedBillWithToken(t, 1000, "tok-rotate", nil)

	resp, body := f.doJSON(t, http.MethodPost, "/api/bills/"+bill.ID.String()+"/payment-link",
		map[string]any{"ttl_hours": 24}, testAPIKey)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	token := body["data"].(map[string]any)["token"].(string)
	require.NotEmpty(t, token)

	resp, _ = f.doJSON(t, http.MethodGet, "/pay/"+token, nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAPI_InvoiceLifecycle(t *testing.T) {
	f := newServerFixture(t)
	bill := f.seedBillWithToken(t, 1000, "tok-inv", nil)

	resp, body := f.doJSON(t, http.MethodPost, "/api/invoices", map[string]any{
		"kind":        "SERVICE",
		"customer_id": bill.CustomerID.String(),
		"description": "Monthly internet service",
		"amount":      "1000",
	}, testAPIKey)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := body["data"].(map[string]any)
	require.Equal(t, "SINV-"+time.Now().UTC().Format("2006")+"-0001", data["number"])

	invID := data["id"].(string)
	req, err := http.NewRequest(http.MethodGet, f.ts.URL+"/api/invoices/"+invID+"/pdf", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+testAPIKey)
	pdfResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer pdfResp.Body.Close()
	require.Equal(t, http.StatusOK, pdfResp.StatusCode)
	require.Equal(t, "application/pdf", pdfResp.Header.Get("Content-Type"))
}
