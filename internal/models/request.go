package models

// RequestKind identifies the transition a request asks for
type RequestKind string

const (
	KindCreateProject RequestKind = "create_project"
	KindContribute    RequestKind = "contribute"
	KindWithdraw      RequestKind = "withdraw"
	KindRefund        RequestKind = "refund"
	KindMintReward    RequestKind = "mint_reward"

	// Lifecycle calls carried over from the on-chain program
	KindOptIn     RequestKind = "opt_in"
	KindCloseOut  RequestKind = "close_out"
	KindUpdateApp RequestKind = "update_app"
	KindDeleteApp RequestKind = "delete_app"
)

// Request is one call against the state machine
type Request struct {
	Kind      RequestKind `json:"kind"`
	ProjectID *uint64     `json:"project_id,omitempty"` // Absent only for create_project
	Args      []string    `json:"args,omitempty"`       // Kind-specific fields
}

// Payment is a value transfer attached to a request by the host
type Payment struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount uint64 `json:"amount"`
}

// Invocation is the trusted context the host supplies with every request
type Invocation struct {
	Sender   string    // Account that signed the request
	Now      uint64    // Host time in unix seconds
	Payments []Payment // Inbound value transfers grouped with the request
	Custody  string    // The machine's own custody address
}

// Submission is what a caller hands to the host runtime
type Submission struct {
	Request  Request   `json:"request"`
	Sender   string    `json:"sender"`
	Payments []Payment `json:"payments,omitempty"`
}
