package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/bizlens/internal/ingest"
	"github.com/mmynk/bizlens/internal/metrics"
	"github.com/mmynk/bizlens/internal/middleware"
	"github.com/mmynk/bizlens/internal/storage"
)

// ImportSnapshotRequest carries raw records exactly as the billing system
// exports them. Field names may use any of the accepted aliases.
type ImportSnapshotRequest struct {
	Bills     []ingest.Record `json:"bills"`
	Products  []ingest.Record `json:"products"`
	Customers []ingest.Record `json:"customers"`
}

// ImportSnapshotResponse reports what was stored and what was skipped.
type ImportSnapshotResponse struct {
	ingest.Report
}

// Invalidator drops cached snapshot data after an import.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// IngestService normalizes and persists snapshot data.
type IngestService struct {
	store   storage.Store
	cache   Invalidator
	metrics *metrics.Metrics
}

// NewIngestService creates an IngestService writing to store. cache and m
// may be nil.
func NewIngestService(store storage.Store, cache Invalidator, m *metrics.Metrics) *IngestService {
	return &IngestService{store: store, cache: cache, metrics: m}
}

// ImportSnapshot normalizes the raw records and upserts them into the store.
// Records that fail normalization are skipped and listed in the response.
func (s *IngestService) ImportSnapshot(ctx context.Context, req *connect.Request[ImportSnapshotRequest]) (*connect.Response[ImportSnapshotResponse], error) {
	if err := middleware.RequireImportRole(ctx); err != nil {
		return nil, err
	}
	msg := req.Msg
	if len(msg.Bills)+len(msg.Products)+len(msg.Customers) == 0 {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("snapshot is empty"))
	}

	snap, report := ingest.Normalize(msg.Bills, msg.Products, msg.Customers)

	if err := s.store.SaveProducts(ctx, snap.Products); err != nil {
		return nil, s.saveError("products", err)
	}
	if err := s.store.SaveCustomers(ctx, snap.Customers); err != nil {
		return nil, s.saveError("customers", err)
	}
	if err := s.store.SaveBills(ctx, snap.Bills); err != nil {
		return nil, s.saveError("bills", err)
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx); err != nil {
			slog.Warn("Failed to invalidate snapshot cache", "error", err)
		}
	}

	skipped := make(map[ingest.Kind]int)
	for _, sk := range report.Skipped {
		skipped[sk.Kind]++
	}
	s.metrics.Ingested(string(ingest.KindBill), report.Bills, skipped[ingest.KindBill])
	s.metrics.Ingested(string(ingest.KindProduct), report.Products, skipped[ingest.KindProduct])
	s.metrics.Ingested(string(ingest.KindCustomer), report.Customers, skipped[ingest.KindCustomer])

	slog.Info("Snapshot imported",
		"user_id", middleware.GetUserID(ctx),
		"bills", report.Bills,
		"products", report.Products,
		"customers", report.Customers,
		"skipped", len(report.Skipped),
	)
	return connect.NewResponse(&ImportSnapshotResponse{Report: report}), nil
}

func (s *IngestService) saveError(collection string, err error) error {
	slog.Error("Failed to save snapshot", "collection", collection, "error", err)
	return connect.NewError(connect.CodeInternal, fmt.Errorf("failed to save %s: %w", collection, err))
}
