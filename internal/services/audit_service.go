package services

import (
	"context"
	"log/slog"

	"crowdfund/internal/debug"
	"crowdfund/internal/models"
)

// AuditService writes one structured log line per processed request
type AuditService struct {
	verbose bool
}

// NewAuditService creates a new AuditService
// When verbose is set, the full receipt is dumped at debug level as well.
func NewAuditService(verbose bool) *AuditService {
	return &AuditService{verbose: verbose}
}

// Process logs one receipt
func (s *AuditService) Process(ctx context.Context, r *models.Receipt) error {
	attrs := []any{
		"request_id", r.RequestID,
		"kind", r.Kind,
		"sender", r.Sender,
		"ledger_time", r.LedgerTime,
		"duration_ms", r.Duration.Milliseconds(),
	}
	if r.ProjectID != nil {
		attrs = append(attrs, "project_id", *r.ProjectID)
	}

	if r.Accepted {
		attrs = append(attrs, "actions", len(r.Actions), "custody_balance", r.CustodyBalance)
		if r.TokenID != 0 {
			attrs = append(attrs, "token_id", r.TokenID)
		}
		slog.Info("Request accepted", attrs...)
	} else {
		attrs = append(attrs, "code", r.Code, "message", r.Message)
		slog.Info("Request rejected", attrs...)
	}

	if s.verbose {
		debug.LogReceipt(r)
	}
	return nil
}

// Name returns the service name
func (s *AuditService) Name() string {
	return "AuditService"
}
