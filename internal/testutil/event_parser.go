package testutil

import (
	"github.com/flexprice/curbside/internal/domain/billing"
	ierr "github.com/flexprice/curbside/internal/errors"
)

// StaticEventParser hands back a preset event, or rejects every payload when Event is nil
type StaticEventParser struct {
	Event *billing.Event
}

func (p *StaticEventParser) ParseEvent(_ []byte, _ string) (*billing.Event, error) {
	if p.Event == nil {
		return nil, ierr.NewError("invalid webhook signature").
			WithHint("Webhook signature verification failed").
			Mark(ierr.ErrValidation)
	}
	return p.Event, nil
}
