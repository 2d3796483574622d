package models

import "time"

// Receipt is the outcome of one submission processed by the host
type Receipt struct {
	// Identification
	RequestID string      `json:"request_id"`
	Kind      RequestKind `json:"kind"`
	Sender    string      `json:"sender"`
	ProjectID *uint64     `json:"project_id,omitempty"`

	// Outcome
	Accepted bool   `json:"accepted"`
	Code     string `json:"code,omitempty"` // Rejection code when not accepted
	Message  string `json:"message,omitempty"`

	// Side effects executed with the transition
	Actions []Action `json:"actions,omitempty"`
	TokenID uint64   `json:"token_id,omitempty"`

	// Timing
	LedgerTime uint64        `json:"ledger_time"` // Host time supplied to the machine
	Timestamp  time.Time     `json:"timestamp"`
	Duration   time.Duration `json:"duration"`

	// Custody movements
	Contributed    uint64 `json:"contributed,omitempty"` // Inbound payment credited to custody
	CustodyBalance uint64 `json:"custody_balance"`       // Balance after the request
}

// Activity is the persisted form of a receipt
type Activity struct {
	RequestID  string    `json:"request_id"`
	Kind       string    `json:"kind"`
	Sender     string    `json:"sender"`
	ProjectID  *uint64   `json:"project_id,omitempty"`
	Accepted   bool      `json:"accepted"`
	Code       string    `json:"code,omitempty"`
	Message    string    `json:"message,omitempty"`
	Actions    []Action  `json:"actions,omitempty"`
	LedgerTime uint64    `json:"ledger_time"`
	DurationMs int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}

// ActivityFromReceipt converts a receipt into its persisted form
func ActivityFromReceipt(r *Receipt) *Activity {
	return &Activity{
		RequestID:  r.RequestID,
		Kind:       string(r.Kind),
		Sender:     r.Sender,
		ProjectID:  r.ProjectID,
		Accepted:   r.Accepted,
		Code:       r.Code,
		Message:    r.Message,
		Actions:    r.Actions,
		LedgerTime: r.LedgerTime,
		DurationMs: r.Duration.Milliseconds(),
		CreatedAt:  r.Timestamp,
	}
}
