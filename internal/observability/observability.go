package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("observability",
	fx.Provide(NewLogger),
	fx.Provide(NewRegistry),
	fx.Provide(NewMetrics),
)

func NewLogger() (*zap.Logger, error) {
	return zap.NewProduction()
}

func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	return reg
}

// Metrics are the billing-core counters shared across services.
type Metrics struct {
	PaymentsApplied      *prometheus.CounterVec
	VerificationFailures *prometheus.CounterVec
	InvoiceNumbersIssued *prometheus.CounterVec
	PayLinkLookups       *prometheus.CounterVec
}

func NewMetrics(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		PaymentsApplied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wavelink_payments_applied_total",
			Help: "Payments recorded by the billing ledger, by method and resulting bill status.",
		}, []string{"method", "status"}),
		VerificationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wavelink_payment_verification_failures_total",
			Help: "Gateway verifications that rejected a claimed transaction.",
		}, []string{"method"}),
		InvoiceNumbersIssued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wavelink_invoice_numbers_issued_total",
			Help: "Invoice numbers allocated, by invoice kind.",
		}, []string{"kind"}),
		PayLinkLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wavelink_paylink_lookups_total",
			Help: "Public payment link resolutions, by outcome.",
		}, []string{"outcome"}),
	}
	reg.MustRegister(m.PaymentsApplied, m.VerificationFailures, m.InvoiceNumbersIssued, m.PayLinkLookups)
	return m
}
