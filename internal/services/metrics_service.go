package services

import (
	"context"

	"crowdfund/internal/metrics"
	"crowdfund/internal/models"
)

// MetricsService translates receipts into Prometheus metrics
type MetricsService struct{}

// NewMetricsService creates a new MetricsService
func NewMetricsService() *MetricsService {
	return &MetricsService{}
}

// Process records one receipt
func (s *MetricsService) Process(ctx context.Context, r *models.Receipt) error {
	outcome := "accepted"
	if !r.Accepted {
		outcome = "rejected"
		metrics.RejectionsTotal.WithLabelValues(r.Code).Inc()
	}
	metrics.RequestsProcessed.WithLabelValues(string(r.Kind), outcome).Inc()
	metrics.RequestDuration.Observe(r.Duration.Seconds())
	metrics.CustodyBalance.Set(float64(r.CustodyBalance))

	if !r.Accepted {
		return nil
	}

	switch r.Kind {
	case models.KindCreateProject:
		metrics.ProjectsCreated.Inc()
	case models.KindContribute:
		metrics.ContributedStroops.Add(float64(r.Contributed))
	}

	for _, a := range r.Actions {
		metrics.ActionsExecuted.WithLabelValues(string(a.Type)).Inc()
		switch a.Type {
		case models.ActionTransfer:
			metrics.PaidOutStroops.WithLabelValues(string(r.Kind)).Add(float64(a.Amount))
		case models.ActionTokenCreate:
			metrics.RewardsMinted.Inc()
		}
	}

	return nil
}

// Name returns the service name
func (s *MetricsService) Name() string {
	return "MetricsService"
}
