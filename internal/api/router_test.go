package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	v1 "github.com/flexprice/curbside/internal/api/v1"
	"github.com/flexprice/curbside/internal/domain/billing"
	"github.com/flexprice/curbside/internal/idempotency"
	"github.com/flexprice/curbside/internal/rest/middleware"
	"github.com/flexprice/curbside/internal/service"
	"github.com/flexprice/curbside/internal/testutil"
	"github.com/flexprice/curbside/internal/types"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
)

type RouterSuite struct {
	testutil.BaseServiceTestSuite
	router *gin.Engine
}

func TestRouter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()

	params := service.NewServiceParams(
		s.GetLogger(),
		s.GetConfig(),
		s.GetClock(),
		nil,
		s.GetResolver(),
		s.GetCache(),
		s.GetProvider(),
		s.GetEventParser(),
		s.GetDedupStore(),
		idempotency.NewGenerator(),
	)
	reconciler := service.NewReconcilerService(params)

	s.router = NewRouter(Handlers{
		Health:       v1.NewHealthHandler(s.GetLogger()),
		Subscription: v1.NewSubscriptionHandler(service.NewSubscriptionService(params, reconciler), reconciler, s.GetLogger()),
		Webhook:      v1.NewWebhookHandler(service.NewWebhookService(params, reconciler), s.GetLogger()),
	}, s.GetConfig())
}

func (s *RouterSuite) do(method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *RouterSuite) decodeError(w *httptest.ResponseRecorder) middleware.ErrorResponse {
	var resp middleware.ErrorResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func (s *RouterSuite) TestHealth() {
	w := s.do(http.MethodGet, "/health", nil, map[string]string{types.HeaderRequestID: "req_123"})
	s.Equal(http.StatusOK, w.Code)
	s.Equal("req_123", w.Header().Get(types.HeaderRequestID))
	s.JSONEq(`{"status":"ok"}`, w.Body.String())
}

func (s *RouterSuite) TestRequestIDIsGenerated() {
	w := s.do(http.MethodGet, "/health", nil, nil)
	s.NotEmpty(w.Header().Get(types.HeaderRequestID))
}

func (s *RouterSuite) TestQuote() {
	w := s.do(http.MethodPost, "/v1/subscriptions/quote", map[string]any{
		"addresses": []map[string]any{{
			"address":  map[string]string{"line1": "301 E Huron St", "city": "Ann Arbor", "postal_code": "48104"},
			"seasonal": true,
		}},
	}, nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Phases []map[string]any `json:"phases"`
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Len(resp.Phases, 3)
}

func (s *RouterSuite) TestQuote_UnresolvedAddress() {
	w := s.do(http.MethodPost, "/v1/subscriptions/quote", map[string]any{
		"addresses": []map[string]any{{
			"address": map[string]string{"line1": "1 Main St", "city": "Toledo", "postal_code": "43604"},
		}},
	}, nil)
	s.Equal(http.StatusUnprocessableEntity, w.Code)

	resp := s.decodeError(w)
	s.False(resp.Success)
	s.Equal("One or more addresses are outside our service area", resp.Error.Display)
	s.Equal([]any{float64(0)}, resp.Error.Details["indexes"])
}

func (s *RouterSuite) TestCreateSubscription_BadJSON() {
	req := httptest.NewRequest(http.MethodPost, "/v1/subscriptions", bytes.NewBufferString("{"))
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("Invalid request format", s.decodeError(w).Error.Display)
}

func (s *RouterSuite) TestCreateAndReconcile() {
	s.GetProvider().SubscriptionStatus = billing.SubscriptionStatusIncomplete

	w := s.do(http.MethodPost, "/v1/subscriptions", map[string]any{
		"email": "resident@example.com",
		"name":  "Pat Resident",
		"addresses": []map[string]any{{
			"address":  map[string]string{"line1": "301 E Huron St", "city": "Ann Arbor", "postal_code": "48104"},
			"seasonal": true,
		}},
	}, nil)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		SubscriptionID   string `json:"subscription_id"`
		ScheduleAttached bool   `json:"schedule_attached"`
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &created))
	s.False(created.ScheduleAttached)

	var reconciled struct {
		Outcome string `json:"outcome"`
	}

	w = s.do(http.MethodPost, "/v1/subscriptions/"+created.SubscriptionID+"/reconcile", nil, nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &reconciled))
	s.Equal(string(service.ReconcileOutcomeNotBillable), reconciled.Outcome)

	s.GetProvider().SetStatus(created.SubscriptionID, billing.SubscriptionStatusActive)

	w = s.do(http.MethodPost, "/v1/subscriptions/"+created.SubscriptionID+"/reconcile", nil, nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &reconciled))
	s.Equal(string(service.ReconcileOutcomeAttached), reconciled.Outcome)
}

func (s *RouterSuite) TestReconcile_NotFound() {
	w := s.do(http.MethodPost, "/v1/subscriptions/sub_missing/reconcile", nil, nil)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *RouterSuite) TestStripeWebhook() {
	w := s.do(http.MethodPost, "/v1/webhooks/stripe", map[string]any{"id": "evt_1"}, nil)
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("Missing Stripe-Signature header", s.decodeError(w).Error.Display)

	s.GetEventParser().Event = &billing.Event{ID: "evt_1", Type: "customer.created", Created: s.GetNow()}
	w = s.do(http.MethodPost, "/v1/webhooks/stripe", map[string]any{"id": "evt_1"}, map[string]string{"Stripe-Signature": "t=1,v1=abc"})
	s.Equal(http.StatusOK, w.Code)
	s.JSONEq(`{"event_id":"evt_1","event_type":"customer.created","status":"ignored"}`, w.Body.String())
}
