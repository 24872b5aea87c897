package usecase

import (
	"context"
	"strings"

	"github.com/robtrove/TroveCRM/internal/domain"
)

type BillingUsecase struct {
	customers EntityStore[domain.Customer]
	gateway   BillingGateway
}

func NewBillingUsecase(customers EntityStore[domain.Customer], gateway BillingGateway) *BillingUsecase {
	return &BillingUsecase{customers: customers, gateway: gateway}
}

func (uc *BillingUsecase) billingRef(ctx context.Context, customerID string) (string, error) {
	c, err := uc.customers.Get(ctx, customerID)
	if err != nil {
		return "", err
	}
	if c.BillingRef == "" {
		return "", domain.ValidationError{Field: "billingRef", Message: "customer has no billing account"}
	}
	return c.BillingRef, nil
}

func (uc *BillingUsecase) Subscriptions(ctx context.Context, customerID string) ([]domain.Subscription, error) {
	ctx, span := tracer.Start(ctx, "Billing.Usecase.Subscriptions")
	defer span.End()

	ref, err := uc.billingRef(ctx, customerID)
	if err != nil {
		return nil, err
	}
	return uc.gateway.Subscriptions(ctx, ref)
}

func (uc *BillingUsecase) Invoices(ctx context.Context, customerID string) ([]domain.Invoice, error) {
	ctx, span := tracer.Start(ctx, "Billing.Usecase.Invoices")
	defer span.End()

	ref, err := uc.billingRef(ctx, customerID)
	if err != nil {
		return nil, err
	}
	return uc.gateway.Invoices(ctx, ref)
}

func (uc *BillingUsecase) Portal(ctx context.Context, customerID string) (domain.HostedSession, error) {
	ctx, span := tracer.Start(ctx, "Billing.Usecase.Portal")
	defer span.End()

	ref, err := uc.billingRef(ctx, customerID)
	if err != nil {
		return domain.HostedSession{}, err
	}
	return uc.gateway.PortalSession(ctx, ref)
}

// Checkout opens a hosted checkout for plan. customerID is optional; when
// given the customer must already have a billing account.
func (uc *BillingUsecase) Checkout(ctx context.Context, planID, customerID string) (domain.HostedSession, error) {
	ctx, span := tracer.Start(ctx, "Billing.Usecase.Checkout")
	defer span.End()

	if strings.TrimSpace(planID) == "" {
		return domain.HostedSession{}, domain.ValidationError{Field: "planId", Message: "required"}
	}
	var ref string
	if customerID != "" {
		var err error
		if ref, err = uc.billingRef(ctx, customerID); err != nil {
			return domain.HostedSession{}, err
		}
	}
	return uc.gateway.CheckoutSession(ctx, planID, ref)
}
