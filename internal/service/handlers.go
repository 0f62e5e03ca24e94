package service

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/bizlens/internal/analytics"
)

const (
	// AnalyticsServiceName is the fully-qualified name of the AnalyticsService.
	AnalyticsServiceName = "bizlens.v1.AnalyticsService"
	// IngestServiceName is the fully-qualified name of the IngestService.
	IngestServiceName = "bizlens.v1.IngestService"
)

// Procedure paths, in the form Connect clients and servers expect.
const (
	GetForecastProcedure      = "/" + AnalyticsServiceName + "/GetForecast"
	GetChurnRiskProcedure     = "/" + AnalyticsServiceName + "/GetChurnRisk"
	GetHealthScoreProcedure   = "/" + AnalyticsServiceName + "/GetHealthScore"
	GetAnomaliesProcedure     = "/" + AnalyticsServiceName + "/GetAnomalies"
	GetRestockPlanProcedure   = "/" + AnalyticsServiceName + "/GetRestockPlan"
	GetPricingAdviceProcedure = "/" + AnalyticsServiceName + "/GetPricingAdvice"
	GetCampaignsProcedure     = "/" + AnalyticsServiceName + "/GetCampaigns"
	GetDashboardProcedure     = "/" + AnalyticsServiceName + "/GetDashboard"

	ImportSnapshotProcedure = "/" + IngestServiceName + "/ImportSnapshot"
)

// IsRPCPath reports whether path belongs to one of the bizlens services.
func IsRPCPath(path string) bool {
	return strings.HasPrefix(path, "/bizlens.v1.")
}

// NewAnalyticsServiceHandler builds an HTTP handler for svc and returns the
// path to mount it on.
func NewAnalyticsServiceHandler(svc *AnalyticsService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{WithJSON()}, opts...)

	mux := http.NewServeMux()
	mux.Handle(GetForecastProcedure, connect.NewUnaryHandler(GetForecastProcedure, svc.GetForecast, opts...))
	mux.Handle(GetChurnRiskProcedure, connect.NewUnaryHandler(GetChurnRiskProcedure, svc.GetChurnRisk, opts...))
	mux.Handle(GetHealthScoreProcedure, connect.NewUnaryHandler(GetHealthScoreProcedure, svc.GetHealthScore, opts...))
	mux.Handle(GetAnomaliesProcedure, connect.NewUnaryHandler(GetAnomaliesProcedure, svc.GetAnomalies, opts...))
	mux.Handle(GetRestockPlanProcedure, connect.NewUnaryHandler(GetRestockPlanProcedure, svc.GetRestockPlan, opts...))
	mux.Handle(GetPricingAdviceProcedure, connect.NewUnaryHandler(GetPricingAdviceProcedure, svc.GetPricingAdvice, opts...))
	mux.Handle(GetCampaignsProcedure, connect.NewUnaryHandler(GetCampaignsProcedure, svc.GetCampaigns, opts...))
	mux.Handle(GetDashboardProcedure, connect.NewUnaryHandler(GetDashboardProcedure, svc.GetDashboard, opts...))
	return "/" + AnalyticsServiceName + "/", mux
}

// NewIngestServiceHandler builds an HTTP handler for svc and returns the
// path to mount it on.
func NewIngestServiceHandler(svc *IngestService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{WithJSON()}, opts...)
	return "/" + IngestServiceName + "/",
		connect.NewUnaryHandler(ImportSnapshotProcedure, svc.ImportSnapshot, opts...)
}

// AnalyticsServiceClient calls a remote AnalyticsService.
type AnalyticsServiceClient struct {
	forecast  *connect.Client[AnalysisRequest, analytics.RevenueForecast]
	churn     *connect.Client[AnalysisRequest, analytics.ChurnReport]
	health    *connect.Client[AnalysisRequest, analytics.HealthScore]
	anomalies *connect.Client[AnalysisRequest, analytics.AnomalyReport]
	restock   *connect.Client[AnalysisRequest, analytics.RestockPlan]
	pricing   *connect.Client[AnalysisRequest, analytics.PricingReport]
	campaigns *connect.Client[AnalysisRequest, CampaignsResponse]
	dashboard *connect.Client[AnalysisRequest, analytics.Dashboard]
}

// NewAnalyticsServiceClient creates a client for the service at baseURL.
func NewAnalyticsServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *AnalyticsServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{WithJSON()}, opts...)
	return &AnalyticsServiceClient{
		forecast:  connect.NewClient[AnalysisRequest, analytics.RevenueForecast](httpClient, baseURL+GetForecastProcedure, opts...),
		churn:     connect.NewClient[AnalysisRequest, analytics.ChurnReport](httpClient, baseURL+GetChurnRiskProcedure, opts...),
		health:    connect.NewClient[AnalysisRequest, analytics.HealthScore](httpClient, baseURL+GetHealthScoreProcedure, opts...),
		anomalies: connect.NewClient[AnalysisRequest, analytics.AnomalyReport](httpClient, baseURL+GetAnomaliesProcedure, opts...),
		restock:   connect.NewClient[AnalysisRequest, analytics.RestockPlan](httpClient, baseURL+GetRestockPlanProcedure, opts...),
		pricing:   connect.NewClient[AnalysisRequest, analytics.PricingReport](httpClient, baseURL+GetPricingAdviceProcedure, opts...),
		campaigns: connect.NewClient[AnalysisRequest, CampaignsResponse](httpClient, baseURL+GetCampaignsProcedure, opts...),
		dashboard: connect.NewClient[AnalysisRequest, analytics.Dashboard](httpClient, baseURL+GetDashboardProcedure, opts...),
	}
}

func (c *AnalyticsServiceClient) GetForecast(ctx context.Context, req *connect.Request[AnalysisRequest]) (*connect.Response[analytics.RevenueForecast], error) {
	return c.forecast.CallUnary(ctx, req)
}

func (c *AnalyticsServiceClient) GetChurnRisk(ctx context.Context, req *connect.Request[AnalysisRequest]) (*connect.Response[analytics.ChurnReport], error) {
	return c.churn.CallUnary(ctx, req)
}

func (c *AnalyticsServiceClient) GetHealthScore(ctx context.Context, req *connect.Request[AnalysisRequest]) (*connect.Response[analytics.HealthScore], error) {
	return c.health.CallUnary(ctx, req)
}

func (c *AnalyticsServiceClient) GetAnomalies(ctx context.Context, req *connect.Request[AnalysisRequest]) (*connect.Response[analytics.AnomalyReport], error) {
	return c.anomalies.CallUnary(ctx, req)
}

func (c *AnalyticsServiceClient) GetRestockPlan(ctx context.Context, req *connect.Request[AnalysisRequest]) (*connect.Response[analytics.RestockPlan], error) {
	return c.restock.CallUnary(ctx, req)
}

func (c *AnalyticsServiceClient) GetPricingAdvice(ctx context.Context, req *connect.Request[AnalysisRequest]) (*connect.Response[analytics.PricingReport], error) {
	return c.pricing.CallUnary(ctx, req)
}

func (c *AnalyticsServiceClient) GetCampaigns(ctx context.Context, req *connect.Request[AnalysisRequest]) (*connect.Response[CampaignsResponse], error) {
	return c.campaigns.CallUnary(ctx, req)
}

func (c *AnalyticsServiceClient) GetDashboard(ctx context.Context, req *connect.Request[AnalysisRequest]) (*connect.Response[analytics.Dashboard], error) {
	return c.dashboard.CallUnary(ctx, req)
}

// IngestServiceClient calls a remote IngestService.
type IngestServiceClient struct {
	importSnapshot *connect.Client[ImportSnapshotRequest, ImportSnapshotResponse]
}

// NewIngestServiceClient creates a client for the service at baseURL.
func NewIngestServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *IngestServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{WithJSON()}, opts...)
	return &IngestServiceClient{
		importSnapshot: connect.NewClient[ImportSnapshotRequest, ImportSnapshotResponse](httpClient, baseURL+ImportSnapshotProcedure, opts...),
	}
}

func (c *IngestServiceClient) ImportSnapshot(ctx context.Context, req *connect.Request[ImportSnapshotRequest]) (*connect.Response[ImportSnapshotResponse], error) {
	return c.importSnapshot.CallUnary(ctx, req)
}
