// Package debug renders domain values for verbose logging.
package debug

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"crowdfund/internal/models"
)

// JSON renders v as indented JSON, falling back to %+v when it cannot be encoded
func JSON(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%+v", v)
	}
	return string(data)
}

// LogReceipt dumps a receipt at debug level, one line per executed action
func LogReceipt(r *models.Receipt) {
	if !slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		return
	}

	slog.Debug("Receipt", "request_id", r.RequestID, "json", JSON(r))
	for i, a := range r.Actions {
		slog.Debug("Receipt action",
			"request_id", r.RequestID,
			"index", i,
			"type", a.Type,
			"token_id", a.TokenID,
			"amount", a.Amount,
			"destination", a.Destination,
		)
	}
}
