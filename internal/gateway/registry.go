package gateway

import (
	"context"

	billingdomain "github.com/wavelinklabs/wavelink/internal/billing/domain"
	"github.com/wavelinklabs/wavelink/internal/gateway/domain"
)

// Registry routes a verification request to the verifier for its method.
type Registry struct {
	verifiers map[billingdomain.PaymentMethod]domain.Verifier
}

func NewRegistry(verifiers ...domain.Verifier) *Registry {
	r := &Registry{verifiers: make(map[billingdomain.PaymentMethod]domain.Verifier, len(verifiers))}
	for _, v := range verifiers {
		r.verifiers[v.Method()] = v
	}
	return r
}

func (r *Registry) Supports(method billingdomain.PaymentMethod) bool {
	_, ok := r.verifiers[method]
	return ok
}

func (r *Registry) Verify(ctx context.Context, req domain.VerifyRequest) (domain.VerifyResult, error) {
	v, ok := r.verifiers[req.Method]
	if !ok {
		return domain.VerifyResult{}, domain.ErrMethodNotSupported
	}
	return v.Verify(ctx, req)
}
