package testutil

import (
	"context"
	"time"

	"github.com/flexprice/curbside/internal/cache"
	"github.com/flexprice/curbside/internal/clock"
	"github.com/flexprice/curbside/internal/config"
	"github.com/flexprice/curbside/internal/domain/billing"
	"github.com/flexprice/curbside/internal/domain/servicearea"
	"github.com/flexprice/curbside/internal/idempotency"
	"github.com/flexprice/curbside/internal/logger"
	"github.com/flexprice/curbside/internal/validator"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

// BaseServiceTestSuite provides common functionality for all service test suites
type BaseServiceTestSuite struct {
	suite.Suite
	ctx      context.Context
	logger   *logger.Logger
	config   *config.Configuration
	now      time.Time
	clock    clock.Clock
	provider *InMemoryBillingProvider
	parser   *StaticEventParser
	dedup    idempotency.Store
	resolver *servicearea.Resolver
	cache    cache.Cache
}

// SetupSuite is called once before running the tests in the suite
func (s *BaseServiceTestSuite) SetupSuite() {
	validator.NewValidator()
	s.logger = logger.NewNopLogger()
}

// SetupTest is called before each test
func (s *BaseServiceTestSuite) SetupTest() {
	s.ctx = SetupContext()
	s.config = config.GetDefaultConfig()
	s.SetNow(time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC))
}

// TearDownTest is called after each test
func (s *BaseServiceTestSuite) TearDownTest() {
	s.provider.Clear()
}

// SetNow rebuilds every clock-dependent fixture around now
func (s *BaseServiceTestSuite) SetNow(now time.Time) {
	s.now = now
	s.clock = clock.FixedClock{At: now}
	s.provider = NewInMemoryBillingProvider(s.clock)
	s.parser = &StaticEventParser{}
	s.dedup = idempotency.NewMemoryStore(idempotency.DefaultTTL)
	s.resolver = servicearea.NewResolver(TestAreaRules(), s.clock)
	s.cache = cache.NewInMemoryCache(s.config, s.logger)

	s.provider.AddPrice(&billing.Price{
		ID:            s.config.Billing.BasePriceID,
		Nickname:      "Weekly pickup",
		Currency:      "usd",
		UnitAmount:    decimal.NewFromInt(30),
		Interval:      "month",
		IntervalCount: 1,
	})
	s.provider.AddPrice(&billing.Price{
		ID:            s.config.Billing.SeasonalPriceID,
		Nickname:      "Yard waste",
		Currency:      "usd",
		UnitAmount:    decimal.RequireFromString("12.50"),
		Interval:      "month",
		IntervalCount: 1,
	})
}

// TestAreaRules is a small rule table: one city with an April-November
// season, a plain zip prefix, and a longer prefix with a May-September season
func TestAreaRules() []servicearea.AreaRule {
	return []servicearea.AreaRule{
		{
			City:         "ann arbor",
			BaseDay:      time.Monday,
			SecondaryDay: lo.ToPtr(time.Thursday),
			Season: &servicearea.Season{
				Start:  time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC),
				End:    time.Date(2026, time.December, 1, 0, 0, 0, 0, time.UTC),
				Annual: true,
			},
		},
		{ZipPrefix: "481", BaseDay: time.Tuesday},
		{
			ZipPrefix:    "4810",
			BaseDay:      time.Wednesday,
			SecondaryDay: lo.ToPtr(time.Friday),
			Season: &servicearea.Season{
				Start:  time.Date(2026, time.May, 1, 0, 0, 0, 0, time.UTC),
				End:    time.Date(2026, time.October, 1, 0, 0, 0, 0, time.UTC),
				Annual: true,
			},
		},
	}
}

// GetContext returns the test context
func (s *BaseServiceTestSuite) GetContext() context.Context {
	return s.ctx
}

// GetConfig returns the test configuration
func (s *BaseServiceTestSuite) GetConfig() *config.Configuration {
	return s.config
}

// GetLogger returns the test logger
func (s *BaseServiceTestSuite) GetLogger() *logger.Logger {
	return s.logger
}

// GetNow returns the fixed test time
func (s *BaseServiceTestSuite) GetNow() time.Time {
	return s.now
}

func (s *BaseServiceTestSuite) GetClock() clock.Clock {
	return s.clock
}

func (s *BaseServiceTestSuite) GetProvider() *InMemoryBillingProvider {
	return s.provider
}

func (s *BaseServiceTestSuite) GetEventParser() *StaticEventParser {
	return s.parser
}

func (s *BaseServiceTestSuite) GetDedupStore() idempotency.Store {
	return s.dedup
}

func (s *BaseServiceTestSuite) GetCache() cache.Cache {
	return s.cache
}

func (s *BaseServiceTestSuite) GetResolver() *servicearea.Resolver {
	return s.resolver
}
