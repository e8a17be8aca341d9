package service

import (
	"testing"
	"time"

	"github.com/flexprice/curbside/internal/api/dto"
	"github.com/flexprice/curbside/internal/domain/billing"
	"github.com/flexprice/curbside/internal/domain/compactrule"
	ierr "github.com/flexprice/curbside/internal/errors"
	"github.com/flexprice/curbside/internal/testutil"
	"github.com/flexprice/curbside/internal/types"
	"github.com/stretchr/testify/suite"
)

type WebhookServiceSuite struct {
	testutil.BaseServiceTestSuite
	service WebhookService
}

func TestWebhookService(t *testing.T) {
	suite.Run(t, new(WebhookServiceSuite))
}

func (s *WebhookServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	params := testServiceParams(&s.BaseServiceTestSuite)
	s.service = NewWebhookService(params, NewReconcilerService(params))

	md, err := compactrule.Encode("addr_rules", []compactrule.Rule{
		seasonalRule(date(2026, time.April, 1), date(2026, time.December, 1)),
	}, compactrule.DefaultChunkSize)
	s.Require().NoError(err)
	s.GetProvider().AddSubscription(&billing.Subscription{
		ID:       "sub_1",
		Customer: billing.Reference[billing.Customer]("cus_1"),
		Status:   billing.SubscriptionStatusActive,
		Items:    []billing.SubscriptionItem{{ID: "si_1", PriceID: "price_base", Quantity: 1}},
		Metadata: md,
	})
}

func (s *WebhookServiceSuite) event(id string, eventType types.WebhookEventType, subscriptionID string) *billing.Event {
	return &billing.Event{
		ID:             id,
		Type:           eventType,
		SubscriptionID: subscriptionID,
		Created:        s.GetNow(),
	}
}

func (s *WebhookServiceSuite) TestHandleEvent_InvoicePaidAttachesSchedule() {
	resp, err := s.service.HandleEvent(s.GetContext(), s.event("evt_1", types.WebhookEventTypeInvoicePaid, "sub_1"))
	s.Require().NoError(err)
	s.Equal(dto.WebhookStatusProcessed, resp.Status)
	s.Equal("evt_1", resp.EventID)
	s.Equal("invoice.paid", resp.EventType)
	s.True(s.GetProvider().Subscription("sub_1").Metadata.ScheduleAttached())
}

func (s *WebhookServiceSuite) TestHandleEvent_DuplicateDelivery() {
	evt := s.event("evt_1", types.WebhookEventTypeInvoicePaid, "sub_1")

	_, err := s.service.HandleEvent(s.GetContext(), evt)
	s.Require().NoError(err)

	resp, err := s.service.HandleEvent(s.GetContext(), evt)
	s.Require().NoError(err)
	s.Equal(dto.WebhookStatusDuplicate, resp.Status)
	s.Len(s.GetProvider().ScheduleUpdates, 1)
}

func (s *WebhookServiceSuite) TestHandleEvent_DistinctEventsReconcileOnce() {
	_, err := s.service.HandleEvent(s.GetContext(), s.event("evt_1", types.WebhookEventTypeInvoicePaid, "sub_1"))
	s.Require().NoError(err)

	resp, err := s.service.HandleEvent(s.GetContext(), s.event("evt_2", types.WebhookEventTypeSubscriptionScheduleUpdated, "sub_1"))
	s.Require().NoError(err)
	s.Equal(dto.WebhookStatusProcessed, resp.Status)
	s.Len(s.GetProvider().ScheduleUpdates, 1)
}

func (s *WebhookServiceSuite) TestHandleEvent_FailureIsRetried() {
	s.GetProvider().Fail["UpdateSchedulePhases"] = ierr.NewError("stripe down").Mark(ierr.ErrProviderUnavailable)
	evt := s.event("evt_1", types.WebhookEventTypeInvoicePaid, "sub_1")

	_, err := s.service.HandleEvent(s.GetContext(), evt)
	s.True(ierr.IsProviderUnavailable(err))

	delete(s.GetProvider().Fail, "UpdateSchedulePhases")
	resp, err := s.service.HandleEvent(s.GetContext(), evt)
	s.Require().NoError(err)
	s.Equal(dto.WebhookStatusProcessed, resp.Status)
	s.True(s.GetProvider().Subscription("sub_1").Metadata.ScheduleAttached())
}

func (s *WebhookServiceSuite) TestHandleEvent_ExpiredSubscriptionIsNotScheduled() {
	s.GetProvider().SetStatus("sub_1", billing.SubscriptionStatusIncompleteExpired)

	resp, err := s.service.HandleEvent(s.GetContext(), s.event("evt_1", types.WebhookEventTypeSubscriptionUpdated, "sub_1"))
	s.Require().NoError(err)
	s.Equal(dto.WebhookStatusProcessed, resp.Status)
	s.Empty(s.GetProvider().ScheduleUpdates)
	s.False(s.GetProvider().Subscription("sub_1").Metadata.ScheduleAttached())
}

func (s *WebhookServiceSuite) TestHandleEvent_IgnoredEvents() {
	resp, err := s.service.HandleEvent(s.GetContext(), s.event("evt_1", "customer.created", ""))
	s.Require().NoError(err)
	s.Equal(dto.WebhookStatusIgnored, resp.Status)

	resp, err = s.service.HandleEvent(s.GetContext(), s.event("evt_2", types.WebhookEventTypeInvoicePaid, ""))
	s.Require().NoError(err)
	s.Equal(dto.WebhookStatusIgnored, resp.Status)
	s.Empty(s.GetProvider().ScheduleUpdates)
}

func (s *WebhookServiceSuite) TestHandleEvent_PaymentFailed() {
	resp, err := s.service.HandleEvent(s.GetContext(), s.event("evt_1", types.WebhookEventTypeInvoicePaymentFailed, "sub_1"))
	s.Require().NoError(err)
	s.Equal(dto.WebhookStatusProcessed, resp.Status)
	s.False(s.GetProvider().Subscription("sub_1").Metadata.ScheduleAttached())
}

func (s *WebhookServiceSuite) TestHandleWebhook() {
	_, err := s.service.HandleWebhook(s.GetContext(), []byte(`{}`), "bad")
	s.True(ierr.IsValidation(err))

	s.GetEventParser().Event = s.event("evt_1", types.WebhookEventTypeSubscriptionUpdated, "sub_1")
	resp, err := s.service.HandleWebhook(s.GetContext(), []byte(`{}`), "t=1,v1=abc")
	s.Require().NoError(err)
	s.Equal(dto.WebhookStatusProcessed, resp.Status)
}
