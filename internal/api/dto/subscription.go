package dto

import (
	"time"

	"github.com/flexprice/curbside/internal/domain/schedule"
	ierr "github.com/flexprice/curbside/internal/errors"
	"github.com/flexprice/curbside/internal/types"
	"github.com/flexprice/curbside/internal/validator"
	"github.com/shopspring/decimal"
)

// maxAddresses keeps the encoded rules inside the provider's metadata key budget
const maxAddresses = 100

// AddressSelection is one service address and whether its seasonal add-on was selected
type AddressSelection struct {
	Address  types.Address `json:"address"`
	Seasonal bool          `json:"seasonal"`
}

type QuoteRequest struct {
	Addresses []AddressSelection `json:"addresses" validate:"required,min=1,dive"`
}

func (r *QuoteRequest) Validate() error {
	return validateAddresses(r, r.Addresses)
}

type CreateSubscriptionRequest struct {
	Email     string             `json:"email" validate:"required,email"`
	Name      string             `json:"name" validate:"required"`
	Addresses []AddressSelection `json:"addresses" validate:"required,min=1,dive"`

	// IdempotencyKey makes client retries of the same signup safe
	IdempotencyKey string `json:"idempotency_key,omitempty" validate:"omitempty,max=200"`
}

func (r *CreateSubscriptionRequest) Validate() error {
	return validateAddresses(r, r.Addresses)
}

func validateAddresses(req interface{}, addrs []AddressSelection) error {
	if err := validator.ValidateRequest(req); err != nil {
		return err
	}
	if len(addrs) > maxAddresses {
		return ierr.NewErrorf("%d addresses exceed the limit of %d", len(addrs), maxAddresses).
			WithHintf("At most %d addresses can be billed on one subscription", maxAddresses).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// PhaseResponse is a phase with its estimated charge for one billing month
type PhaseResponse struct {
	schedule.Phase
	MonthlyAmount decimal.Decimal `json:"monthly_amount"`
}

type QuoteResponse struct {
	Anchor         time.Time       `json:"anchor"`
	Currency       string          `json:"currency"`
	CurrencySymbol string          `json:"currency_symbol"`
	Phases         []PhaseResponse `json:"phases"`
	Truncated      bool            `json:"truncated"`
}

type CreateSubscriptionResponse struct {
	CustomerID       string           `json:"customer_id"`
	SubscriptionID   string           `json:"subscription_id"`
	Status           string           `json:"status"`
	ScheduleAttached bool             `json:"schedule_attached"`
	ScheduleID       string           `json:"schedule_id,omitempty"`
	Anchor           time.Time        `json:"anchor"`
	Phases           []schedule.Phase `json:"phases"`
}

type ReconcileResponse struct {
	SubscriptionID string           `json:"subscription_id"`
	ScheduleID     string           `json:"schedule_id,omitempty"`
	Outcome        string           `json:"outcome"`
	Phases         []schedule.Phase `json:"phases,omitempty"`
	Truncated      bool             `json:"truncated"`
	SkippedChunks  int              `json:"skipped_chunks"`
}
