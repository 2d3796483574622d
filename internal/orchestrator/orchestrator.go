package orchestrator

import (
	"context"
	"log/slog"
	"time"

	"crowdfund/internal/metrics"
	"crowdfund/internal/models"
	"crowdfund/internal/services"
)

// Orchestrator hands every committed receipt to the registered services, in
// registration order
type Orchestrator struct {
	services []services.Service
}

func New(svcs []services.Service) *Orchestrator {
	return &Orchestrator{services: svcs}
}

// ProcessReceipt delivers r to each service. A failing service is logged and
// counted under its name; the request behind r stays committed either way.
func (o *Orchestrator) ProcessReceipt(ctx context.Context, r *models.Receipt) {
	for _, svc := range o.services {
		if ctx.Err() != nil {
			slog.Warn("Receipt delivery interrupted",
				"request_id", r.RequestID,
				"next_service", svc.Name(),
				"error", ctx.Err(),
			)
			return
		}

		start := time.Now()
		err := svc.Process(ctx, r)
		if err != nil {
			slog.Error("Receipt service failed",
				"service", svc.Name(),
				"request_id", r.RequestID,
				"kind", r.Kind,
				"error", err,
			)
			metrics.ErrorsTotal.WithLabelValues(svc.Name()).Inc()
			continue
		}
		slog.Debug("Receipt delivered",
			"service", svc.Name(),
			"request_id", r.RequestID,
			"took", time.Since(start),
		)
	}
}

// Services lists the registered services
func (o *Orchestrator) Services() []services.Service {
	return o.services
}
