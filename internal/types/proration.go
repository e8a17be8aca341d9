package types

import (
	ierr "github.com/flexprice/curbside/internal/errors"
	"github.com/samber/lo"
)

// ProrationBehavior defines how the provider prorates when a phase changes quantities
type ProrationBehavior string

const (
	ProrationBehaviorCreateProrations ProrationBehavior = "create_prorations" // Default: Create credits/charges on invoice
	ProrationBehaviorAlwaysInvoice    ProrationBehavior = "always_invoice"    // Invoice the difference immediately
	ProrationBehaviorNone             ProrationBehavior = "none"              // Never prorate phase transitions
)

var ProrationBehaviorValues = []ProrationBehavior{
	ProrationBehaviorCreateProrations,
	ProrationBehaviorAlwaysInvoice,
	ProrationBehaviorNone,
}

func (p ProrationBehavior) String() string {
	return string(p)
}

func (p ProrationBehavior) Validate() error {
	if !lo.Contains(ProrationBehaviorValues, p) {
		return ierr.NewError("invalid proration behavior").
			WithHint("Proration behavior must be create_prorations, always_invoice, or none").
			WithReportableDetails(map[string]any{
				"allowed_values": ProrationBehaviorValues,
				"provided_value": p,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}
