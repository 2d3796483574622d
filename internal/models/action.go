package models

// ActionType represents the kind of side effect a transition requests
type ActionType string

const (
	ActionTransfer      ActionType = "transfer"
	ActionTokenCreate   ActionType = "token_create"
	ActionTokenTransfer ActionType = "token_transfer"
)

// TokenSpec describes a token to create
type TokenSpec struct {
	Total       uint64 `json:"total"`
	Decimals    uint32 `json:"decimals"`
	UnitName    string `json:"unit_name"`
	DisplayName string `json:"display_name"`
	ContentRef  string `json:"content_ref"`
}

// Action is a side effect queued by a transition and executed by the host
type Action struct {
	Type        ActionType `json:"type"`
	Destination string     `json:"destination,omitempty"`
	Amount      uint64     `json:"amount,omitempty"`
	TokenID     uint64     `json:"token_id,omitempty"`
	Token       *TokenSpec `json:"token,omitempty"` // Only for token_create
}

// RewardToken is a token held in the host's registry
type RewardToken struct {
	TokenID   uint64    `json:"token_id"`
	Spec      TokenSpec `json:"spec"`
	Owner     string    `json:"owner"`
	RequestID string    `json:"request_id"`
}
