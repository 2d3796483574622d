package models

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// ProjectResponse represents a project with its derived phase for API responses
type ProjectResponse struct {
	ID          uint64 `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
	Creator     string `json:"creator"`

	// Financials (formatted for UI)
	TargetStroops    uint64 `json:"target_stroops"`
	TargetXLM        string `json:"target_xlm"` // Divided by 10^7
	CollectedStroops uint64 `json:"collected_stroops"`
	CollectedXLM     string `json:"collected_xlm"`
	RefundedStroops  uint64 `json:"refunded_stroops"`
	ThresholdStroops uint64 `json:"reward_threshold_stroops"`
	ThresholdXLM     string `json:"reward_threshold_xlm"`

	// Status
	Deadline uint64 `json:"deadline"`
	Active   bool   `json:"active"`
	Phase    string `json:"phase"`
}

// ProjectListResponse represents a paginated list of projects
type ProjectListResponse struct {
	Projects []ProjectResponse `json:"projects"`
	Total    uint64            `json:"total"`
	Limit    int               `json:"limit"`
	Offset   int               `json:"offset"`
}

// ContributionResponse represents one contributor's position in a project
type ContributionResponse struct {
	ProjectID      uint64 `json:"project_id"`
	Contributor    string `json:"contributor"`
	AmountStroops  uint64 `json:"amount_stroops"`
	AmountXLM      string `json:"amount_xlm"`
	RewardEligible bool   `json:"reward_eligible"`
}

// RewardResponse represents the reward record of one contributor
type RewardResponse struct {
	ProjectID   uint64       `json:"project_id"`
	Contributor string       `json:"contributor"`
	Issued      bool         `json:"issued"`
	TokenID     uint64       `json:"token_id,omitempty"`
	Token       *RewardToken `json:"token,omitempty"`
}

// CustodyResponse reports the custody balance
type CustodyResponse struct {
	Address        string `json:"address"`
	BalanceStroops uint64 `json:"balance_stroops"`
	BalanceXLM     string `json:"balance_xlm"`
}

// ErrorResponse represents an API error
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code"`
}

// SubmitRequest is the body of POST /requests
type SubmitRequest struct {
	Kind      RequestKind `json:"kind"`
	Sender    string      `json:"sender"`
	ProjectID *uint64     `json:"project_id,omitempty"`
	Args      []string    `json:"args,omitempty"`
	Payments  []Payment   `json:"payments,omitempty"`
}

// Validate checks the body for fields no backend can store as text
func (r SubmitRequest) Validate() error {
	if r.Kind == "" {
		return fmt.Errorf("kind is required")
	}
	if err := storableText("kind", string(r.Kind)); err != nil {
		return err
	}
	if err := storableText("sender", r.Sender); err != nil {
		return err
	}
	for i, a := range r.Args {
		if err := storableText(fmt.Sprintf("args[%d]", i), a); err != nil {
			return err
		}
	}
	for i, p := range r.Payments {
		if err := storableText(fmt.Sprintf("payments[%d].from", i), p.From); err != nil {
			return err
		}
		if err := storableText(fmt.Sprintf("payments[%d].to", i), p.To); err != nil {
			return err
		}
	}
	return nil
}

// storableText rejects invalid UTF-8 and NUL, which Postgres TEXT refuses
func storableText(field, v string) error {
	if !utf8.ValidString(v) {
		return fmt.Errorf("%s is not valid UTF-8", field)
	}
	if strings.IndexByte(v, 0) >= 0 {
		return fmt.Errorf("%s contains a NUL character", field)
	}
	return nil
}

// Submission converts the body into a host submission
func (r SubmitRequest) Submission() Submission {
	return Submission{
		Request: Request{
			Kind:      r.Kind,
			ProjectID: r.ProjectID,
			Args:      r.Args,
		},
		Sender:   r.Sender,
		Payments: r.Payments,
	}
}

// ActivityListResponse represents a paginated list of activities
type ActivityListResponse struct {
	Activities []*Activity `json:"activities"`
	Limit      int         `json:"limit"`
	Offset     int         `json:"offset"`
}
