package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"connectrpc.com/connect"
	"golang.org/x/sync/errgroup"

	"github.com/mmynk/bizlens/internal/analytics"
	"github.com/mmynk/bizlens/internal/metrics"
	"github.com/mmynk/bizlens/internal/models"
	"github.com/mmynk/bizlens/internal/storage"
)

// AnalysisRequest selects the reference time for an analysis. Both fields are
// optional: Now defaults to the server clock and Timezone to the store's.
type AnalysisRequest struct {
	Now      string `json:"now,omitempty"`
	Timezone string `json:"timezone,omitempty"`
}

// CampaignsResponse wraps the segment list so the message is a JSON object.
type CampaignsResponse struct {
	Segments []analytics.Segment `json:"segments"`
}

// collections is a bit set of the inputs an RPC needs.
type collections uint8

const (
	needBills collections = 1 << iota
	needProducts
	needCustomers

	needAll = needBills | needProducts | needCustomers
)

// AnalyticsService serves the analyzers over a storage.Provider.
type AnalyticsService struct {
	provider     storage.Provider
	engine       *analytics.Engine
	metrics      *metrics.Metrics
	location     *time.Location
	fetchTimeout time.Duration
	clock        func() time.Time
}

// Option configures an AnalyticsService.
type Option func(*AnalyticsService)

// WithMetrics records analyzer timings and results in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *AnalyticsService) { s.metrics = m }
}

// WithLocation sets the store time zone used when a request names none.
func WithLocation(loc *time.Location) Option {
	return func(s *AnalyticsService) { s.location = loc }
}

// WithFetchTimeout bounds how long a snapshot fetch may take.
func WithFetchTimeout(d time.Duration) Option {
	return func(s *AnalyticsService) { s.fetchTimeout = d }
}

// WithClock replaces time.Now.
func WithClock(clock func() time.Time) Option {
	return func(s *AnalyticsService) { s.clock = clock }
}

// NewAnalyticsService creates an AnalyticsService reading from provider.
func NewAnalyticsService(provider storage.Provider, engine *analytics.Engine, opts ...Option) *AnalyticsService {
	s := &AnalyticsService{
		provider:     provider,
		engine:       engine,
		location:     time.UTC,
		fetchTimeout: 10 * time.Second,
		clock:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetForecast predicts revenue for the next seven days.
func (s *AnalyticsService) GetForecast(ctx context.Context, req *connect.Request[AnalysisRequest]) (*connect.Response[analytics.RevenueForecast], error) {
	snap, now, err := s.prepare(ctx, req.Msg, needBills)
	if err != nil {
		return nil, err
	}
	res, err := run(s, analytics.AnalyzerForecast, func() analytics.RevenueForecast {
		return s.engine.Forecast(snap.Bills, now)
	})
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&res), nil
}

// GetChurnRisk scores every customer's churn risk.
func (s *AnalyticsService) GetChurnRisk(ctx context.Context, req *connect.Request[AnalysisRequest]) (*connect.Response[analytics.ChurnReport], error) {
	snap, now, err := s.prepare(ctx, req.Msg, needBills|needCustomers)
	if err != nil {
		return nil, err
	}
	res, err := run(s, analytics.AnalyzerChurn, func() analytics.ChurnReport {
		return s.engine.Churn(snap.Bills, snap.Customers, now)
	})
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&res), nil
}

// GetHealthScore grades the business on nine metrics.
func (s *AnalyticsService) GetHealthScore(ctx context.Context, req *connect.Request[AnalysisRequest]) (*connect.Response[analytics.HealthScore], error) {
	snap, now, err := s.prepare(ctx, req.Msg, needAll)
	if err != nil {
		return nil, err
	}
	res, err := run(s, analytics.AnalyzerHealth, func() analytics.HealthScore {
		return s.engine.Health(snap, now)
	})
	if err != nil {
		return nil, err
	}
	s.metrics.SetHealthScore(res.Score)
	return connect.NewResponse(&res), nil
}

// GetAnomalies checks today's activity for unusual patterns.
func (s *AnalyticsService) GetAnomalies(ctx context.Context, req *connect.Request[AnalysisRequest]) (*connect.Response[analytics.AnomalyReport], error) {
	snap, now, err := s.prepare(ctx, req.Msg, needAll)
	if err != nil {
		return nil, err
	}
	res, err := run(s, analytics.AnalyzerAnomalies, func() analytics.AnomalyReport {
		return s.engine.Anomalies(snap, now)
	})
	if err != nil {
		return nil, err
	}
	s.recordAnomalies(res)
	return connect.NewResponse(&res), nil
}

// GetRestockPlan lists products to reorder.
func (s *AnalyticsService) GetRestockPlan(ctx context.Context, req *connect.Request[AnalysisRequest]) (*connect.Response[analytics.RestockPlan], error) {
	snap, now, err := s.prepare(ctx, req.Msg, needBills|needProducts)
	if err != nil {
		return nil, err
	}
	res, err := run(s, analytics.AnalyzerRestock, func() analytics.RestockPlan {
		return s.engine.Restock(snap.Products, snap.Bills, now)
	})
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&res), nil
}

// GetPricingAdvice suggests price changes per product.
func (s *AnalyticsService) GetPricingAdvice(ctx context.Context, req *connect.Request[AnalysisRequest]) (*connect.Response[analytics.PricingReport], error) {
	snap, now, err := s.prepare(ctx, req.Msg, needBills|needProducts)
	if err != nil {
		return nil, err
	}
	res, err := run(s, analytics.AnalyzerPricing, func() analytics.PricingReport {
		return s.engine.Pricing(snap.Products, snap.Bills, now)
	})
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&res), nil
}

// GetCampaigns builds the marketing segments.
func (s *AnalyticsService) GetCampaigns(ctx context.Context, req *connect.Request[AnalysisRequest]) (*connect.Response[CampaignsResponse], error) {
	snap, now, err := s.prepare(ctx, req.Msg, needBills|needCustomers)
	if err != nil {
		return nil, err
	}
	segments, err := run(s, analytics.AnalyzerCampaigns, func() []analytics.Segment {
		return s.engine.Campaigns(snap.Customers, snap.Bills, now)
	})
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&CampaignsResponse{Segments: segments}), nil
}

// GetDashboard runs every analyzer against one snapshot. Analyzer failures
// are reported in the response's errors map rather than failing the call.
func (s *AnalyticsService) GetDashboard(ctx context.Context, req *connect.Request[AnalysisRequest]) (*connect.Response[analytics.Dashboard], error) {
	snap, now, err := s.prepare(ctx, req.Msg, needAll)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	dash := s.engine.Dashboard(snap, now)
	elapsed := time.Since(start)

	for name, reason := range dash.Errors {
		s.metrics.AnalyzerFailed(name)
		slog.Error("Analyzer failed", "analyzer", name, "error", reason)
	}
	if dash.Health != nil {
		s.metrics.SetHealthScore(dash.Health.Score)
	}
	if dash.Anomalies != nil {
		s.recordAnomalies(*dash.Anomalies)
	}

	slog.Info("Dashboard built",
		"bills", len(snap.Bills),
		"products", len(snap.Products),
		"customers", len(snap.Customers),
		"failed", len(dash.Errors),
		"duration_ms", elapsed.Milliseconds(),
	)
	return connect.NewResponse(&dash), nil
}

// prepare resolves the reference time and fetches the collections in need.
func (s *AnalyticsService) prepare(ctx context.Context, req *AnalysisRequest, need collections) (models.Snapshot, time.Time, error) {
	now, err := s.resolveNow(req)
	if err != nil {
		return models.Snapshot{}, time.Time{}, connect.NewError(connect.CodeInvalidArgument, err)
	}
	snap, err := s.fetch(ctx, need)
	if err != nil {
		return models.Snapshot{}, time.Time{}, err
	}
	slog.Debug("Snapshot fetched",
		"bills", len(snap.Bills),
		"products", len(snap.Products),
		"customers", len(snap.Customers),
		"now", now,
	)
	return snap, now, nil
}

func (s *AnalyticsService) resolveNow(req *AnalysisRequest) (time.Time, error) {
	loc := s.location
	if req.Timezone != "" {
		l, err := time.LoadLocation(req.Timezone)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid timezone %q: %w", req.Timezone, err)
		}
		loc = l
	}

	now := s.clock()
	if req.Now != "" {
		t, err := time.Parse(time.RFC3339, req.Now)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid now %q: expected RFC3339", req.Now)
		}
		now = t
	}
	return now.In(loc), nil
}

// fetch loads the needed collections concurrently. Collections not in need
// are left empty.
func (s *AnalyticsService) fetch(ctx context.Context, need collections) (models.Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()

	snap := models.Snapshot{
		Bills:     []models.Bill{},
		Products:  []models.Product{},
		Customers: []models.Customer{},
	}
	g, gctx := errgroup.WithContext(ctx)
	if need&needBills != 0 {
		g.Go(func() error {
			bills, err := s.provider.FetchBills(gctx)
			if err != nil {
				s.metrics.FetchFailed("bills")
				return fmt.Errorf("failed to fetch bills: %w", err)
			}
			snap.Bills = bills
			return nil
		})
	}
	if need&needProducts != 0 {
		g.Go(func() error {
			products, err := s.provider.FetchProducts(gctx)
			if err != nil {
				s.metrics.FetchFailed("products")
				return fmt.Errorf("failed to fetch products: %w", err)
			}
			snap.Products = products
			return nil
		})
	}
	if need&needCustomers != 0 {
		g.Go(func() error {
			customers, err := s.provider.FetchCustomers(gctx)
			if err != nil {
				s.metrics.FetchFailed("customers")
				return fmt.Errorf("failed to fetch customers: %w", err)
			}
			snap.Customers = customers
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		slog.Error("Snapshot fetch failed", "error", err)
		return models.Snapshot{}, fetchError(err)
	}
	return snap, nil
}

func fetchError(err error) error {
	switch {
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	default:
		return connect.NewError(connect.CodeUnavailable, err)
	}
}

func (s *AnalyticsService) recordAnomalies(report analytics.AnomalyReport) {
	bySeverity := make(map[string]int)
	for _, a := range report.Anomalies {
		bySeverity[string(a.Severity)]++
	}
	s.metrics.SetAnomalies(bySeverity)
	if report.Health != analytics.SystemHealthy {
		slog.Warn("Anomalies detected", "health", report.Health, "count", len(report.Anomalies))
	}
}

// run times one analyzer and turns a panic into an Internal error.
func run[T any](s *AnalyticsService, name string, fn func() T) (res T, err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			s.metrics.AnalyzerFailed(name)
			slog.Error("Analyzer panicked", "analyzer", name, "panic", r)
			err = connect.NewError(connect.CodeInternal, fmt.Errorf("%s analyzer failed: %v", name, r))
		}
	}()
	res = fn()
	s.metrics.ObserveAnalyzer(name, time.Since(start))
	return res, nil
}
