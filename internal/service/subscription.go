package service

import (
	"context"
	"strconv"

	"github.com/flexprice/curbside/internal/api/dto"
	"github.com/flexprice/curbside/internal/cache"
	"github.com/flexprice/curbside/internal/domain/billing"
	"github.com/flexprice/curbside/internal/domain/compactrule"
	"github.com/flexprice/curbside/internal/domain/schedule"
	"github.com/flexprice/curbside/internal/domain/servicearea"
	ierr "github.com/flexprice/curbside/internal/errors"
	"github.com/flexprice/curbside/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

type SubscriptionService interface {
	// Quote prices the phase list a signup would produce without creating anything
	Quote(ctx context.Context, req dto.QuoteRequest) (*dto.QuoteResponse, error)

	CreateSubscription(ctx context.Context, req dto.CreateSubscriptionRequest) (*dto.CreateSubscriptionResponse, error)
}

type subscriptionService struct {
	ServiceParams
	planner    phasePlanner
	reconciler ReconcilerService
}

func NewSubscriptionService(params ServiceParams, reconciler ReconcilerService) SubscriptionService {
	return &subscriptionService{
		ServiceParams: params,
		planner:       newPhasePlanner(params.Config.Billing),
		reconciler:    reconciler,
	}
}

// signupPlan is the resolved and scheduled form of a signup request
type signupPlan struct {
	rules []*servicearea.ResolvedRule
	plan  *schedule.Plan
}

func (s *subscriptionService) buildSignupPlan(addrs []dto.AddressSelection) (*signupPlan, error) {
	rules, err := s.Resolver.ResolveAll(lo.Map(addrs, func(a dto.AddressSelection, _ int) types.Address {
		return a.Address
	}))
	if err != nil {
		return nil, err
	}

	cfg := s.Config.Billing
	plan, err := s.planner.plan(
		windowsFromSelections(rules, addrs),
		int64(len(addrs)),
		s.Clock.Now(),
		cfg.Horizon(),
		cfg.MaxPhases,
	)
	if err != nil {
		return nil, err
	}
	if plan.Truncated {
		s.Logger.Warnw("signup phase list truncated",
			"error", ierr.ErrPhaseCountExceeded,
			"max_phases", cfg.MaxPhases,
		)
	}

	return &signupPlan{rules: rules, plan: plan}, nil
}

func (s *subscriptionService) Quote(ctx context.Context, req dto.QuoteRequest) (*dto.QuoteResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	signup, err := s.buildSignupPlan(req.Addresses)
	if err != nil {
		return nil, err
	}

	prices := make(map[string]*billing.Price)
	for _, phase := range signup.plan.Phases {
		for _, item := range phase.Items {
			if _, ok := prices[item.PriceID]; ok {
				continue
			}
			price, err := s.getPrice(ctx, item.PriceID)
			if err != nil {
				return nil, err
			}
			prices[item.PriceID] = price
		}
	}

	resp := &dto.QuoteResponse{
		Anchor:    signup.plan.Anchor,
		Truncated: signup.plan.Truncated,
		Phases:    make([]dto.PhaseResponse, 0, len(signup.plan.Phases)),
	}
	if base, ok := prices[s.Config.Billing.BasePriceID]; ok {
		resp.Currency = base.Currency
		resp.CurrencySymbol = types.GetCurrencySymbol(base.Currency)
	}

	for _, phase := range signup.plan.Phases {
		amount := decimal.Zero
		for _, item := range phase.Items {
			amount = amount.Add(prices[item.PriceID].UnitAmount.Mul(decimal.NewFromInt(item.Quantity)))
		}
		resp.Phases = append(resp.Phases, dto.PhaseResponse{Phase: phase, MonthlyAmount: amount})
	}

	return resp, nil
}

func (s *subscriptionService) CreateSubscription(ctx context.Context, req dto.CreateSubscriptionRequest) (*dto.CreateSubscriptionResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	signup, err := s.buildSignupPlan(req.Addresses)
	if err != nil {
		return nil, err
	}

	metadata, err := s.subscriptionMetadata(signup.rules, req.Addresses)
	if err != nil {
		return nil, err
	}

	requestKey := req.IdempotencyKey
	if requestKey == "" {
		requestKey = types.GenerateUUIDWithPrefix(types.UUID_PREFIX_IDEMPOTENCY)
	}

	customer, err := s.Provider.CreateCustomer(ctx, billing.CreateCustomerInput{
		Email:          req.Email,
		Name:           req.Name,
		Address:        lo.ToPtr(req.Addresses[0].Address),
		Metadata:       map[string]string{types.MetadataKeyAccountType: s.Config.Billing.AccountType},
		IdempotencyKey: requestKey + ":customer",
	})
	if err != nil {
		return nil, err
	}

	input := billing.CreateSubscriptionInput{
		CustomerID:        customer.ID,
		Items:             signup.plan.Phases[0].Items,
		ProrationBehavior: s.Config.Billing.ProrationBehavior,
		Metadata:          metadata,
		IdempotencyKey:    requestKey + ":subscription",
	}
	if signup.plan.Anchor.After(signup.plan.Phases[0].Start) {
		input.BillingCycleAnchor = lo.ToPtr(signup.plan.Anchor)
	}

	sub, err := s.Provider.CreateSubscription(ctx, input)
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("created subscription",
		"subscription_id", sub.ID,
		"customer_id", customer.ID,
		"status", sub.Status,
		"address_count", len(req.Addresses),
		"phase_count", len(signup.plan.Phases),
		"request_id", types.GetRequestID(ctx),
	)

	resp := &dto.CreateSubscriptionResponse{
		CustomerID:     customer.ID,
		SubscriptionID: sub.ID,
		Status:         string(sub.Status),
		Anchor:         signup.plan.Anchor,
		Phases:         signup.plan.Phases,
	}

	// unpaid subscriptions are attached from the invoice.paid webhook
	if !sub.Status.IsBillable() {
		return resp, nil
	}

	result, err := s.reconciler.Reconcile(ctx, sub.ID)
	if err != nil {
		s.Logger.Warnw("synchronous schedule attachment failed, deferring to webhooks",
			"subscription_id", sub.ID,
			"error", err,
		)
		return resp, nil
	}
	resp.ScheduleAttached = true
	resp.ScheduleID = result.ScheduleID
	return resp, nil
}

// getPrice reads through the price cache; catalog prices change rarely and
// quotes are requested on every signup form edit
func (s *subscriptionService) getPrice(ctx context.Context, id string) (*billing.Price, error) {
	key := cache.GenerateKey(cache.PrefixPrice, id)
	if s.Cache != nil {
		if cached, found := s.Cache.Get(ctx, key); found {
			if price, ok := cached.(*billing.Price); ok {
				return price, nil
			}
		}
	}

	price, err := s.Provider.GetPrice(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.Cache != nil {
		s.Cache.Set(ctx, key, price, 0)
	}
	return price, nil
}

// subscriptionMetadata holds the compact rules plus the plain breadcrumbs
func (s *subscriptionService) subscriptionMetadata(rules []*servicearea.ResolvedRule, addrs []dto.AddressSelection) (map[string]string, error) {
	compact := make([]compactrule.Rule, len(rules))
	for i, rule := range rules {
		compact[i] = compactrule.FromResolved(rule, addrs[i].Seasonal)
	}

	cfg := s.Config.Billing
	metadata, err := compactrule.Encode(cfg.MetadataKey, compact, cfg.MetadataChunkSize)
	if err != nil {
		return nil, err
	}

	metadata[types.MetadataKeyAccountType] = cfg.AccountType
	metadata[types.MetadataKeyAddressCount] = strconv.Itoa(len(addrs))
	metadata[types.MetadataKeyScheduleAttached] = strconv.FormatBool(false)
	return metadata, nil
}
