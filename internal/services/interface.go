package services

import (
	"context"

	"crowdfund/internal/models"
)

// Service consumes receipts of committed requests
// An error from Process is reported but never rolls the request back.
type Service interface {
	Process(ctx context.Context, r *models.Receipt) error
	Name() string
}
