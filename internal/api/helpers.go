package api

import (
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/stellar/go/amount"

	"crowdfund/internal/crowdfund"
	"crowdfund/internal/models"
)

// StroopsToXLM renders an amount in stroops as XLM with seven decimals
// 1 XLM = 10,000,000 stroops
func StroopsToXLM(stroops uint64) string {
	if stroops <= math.MaxInt64 {
		return amount.StringFromInt64(int64(stroops))
	}
	return fmt.Sprintf("%d.%07d", stroops/amount.One, stroops%amount.One)
}

// StatusForCode maps a rejection code to the HTTP status reported to callers
func StatusForCode(code string) int {
	switch crowdfund.Code(code) {
	case crowdfund.CodeInvalidArgs, crowdfund.CodeMalformedTransferGroup:
		return http.StatusBadRequest
	case crowdfund.CodeUnauthorized:
		return http.StatusForbidden
	case crowdfund.CodeProjectNotFound:
		return http.StatusNotFound
	case crowdfund.CodeActionFailed:
		return http.StatusUnprocessableEntity
	case crowdfund.CodeFundingClosed,
		crowdfund.CodeTargetNotReached,
		crowdfund.CodeTargetReached,
		crowdfund.CodeDeadlineNotReached,
		crowdfund.CodeAlreadyFinalized,
		crowdfund.CodeNothingToRefund,
		crowdfund.CodeBelowThreshold,
		crowdfund.CodeAlreadyRewarded:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// BuildProjectResponse creates the API view of a project at the given time
func BuildProjectResponse(p *models.Project, now uint64) models.ProjectResponse {
	return models.ProjectResponse{
		ID:               p.ID,
		Name:             p.Name,
		Description:      p.Description,
		Category:         p.Category,
		Creator:          p.Creator,
		TargetStroops:    p.Target,
		TargetXLM:        StroopsToXLM(p.Target),
		CollectedStroops: p.Collected,
		CollectedXLM:     StroopsToXLM(p.Collected),
		RefundedStroops:  p.Refunded,
		ThresholdStroops: p.RewardThreshold,
		ThresholdXLM:     StroopsToXLM(p.RewardThreshold),
		Deadline:         p.Deadline,
		Active:           p.Active,
		Phase:            p.Phase(now).String(),
	}
}

// parsePagination reads limit/offset with the given default and cap
func parsePagination(r *http.Request, defaultLimit, maxLimit int) (limit, offset int) {
	query := r.URL.Query()

	limit = defaultLimit
	if v := query.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	if v := query.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}

// parseProjectID reads the {id} path segment
func parseProjectID(r *http.Request) (uint64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid project id %q", raw)
	}
	return id, nil
}
