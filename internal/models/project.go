package models

// Project represents a single funding campaign held in escrow
type Project struct {
	// Identification
	ID uint64 `json:"id"`

	// Descriptive data, set once at creation (opaque byte strings)
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`

	// Account that created the project
	Creator string `json:"creator"`

	// Funding terms
	Target          uint64 `json:"target"`           // Amount required for success (stroops)
	Deadline        uint64 `json:"deadline"`         // Unix seconds; funding closes at this instant
	RewardThreshold uint64 `json:"reward_threshold"` // Minimum per-contributor amount for a reward

	// Running totals
	Collected uint64 `json:"collected"` // Sum of accepted contributions
	Refunded  uint64 `json:"refunded"`  // Sum of refunds paid out

	// Active is cleared exactly once, by a successful withdrawal
	Active bool `json:"active"`
}

// Phase represents the lifecycle phase of a project derived from its state and the current time
type Phase int

const (
	PhaseOpen Phase = iota
	PhaseSucceededPending
	PhaseFailedPending
	PhaseFinalized
)

// Phases lists every phase in declaration order
var Phases = []Phase{PhaseOpen, PhaseSucceededPending, PhaseFailedPending, PhaseFinalized}

func (p Phase) String() string {
	switch p {
	case PhaseOpen:
		return "open"
	case PhaseSucceededPending:
		return "succeeded_pending"
	case PhaseFailedPending:
		return "failed_pending"
	case PhaseFinalized:
		return "finalized"
	default:
		return "unknown"
	}
}

// Phase derives the lifecycle phase at the given unix time
func (p *Project) Phase(now uint64) Phase {
	switch {
	case !p.Active:
		return PhaseFinalized
	case now < p.Deadline:
		return PhaseOpen
	case p.Collected >= p.Target:
		return PhaseSucceededPending
	default:
		return PhaseFailedPending
	}
}

// TargetReached reports whether the collected amount meets the target
func (p *Project) TargetReached() bool {
	return p.Collected >= p.Target
}

// Contribution is the cumulative amount one account has paid toward one project
type Contribution struct {
	ProjectID   uint64 `json:"project_id"`
	Contributor string `json:"contributor"`
	Amount      uint64 `json:"amount"`
}

// RewardRecord marks the reward token issued to one contributor of one project
// TokenID is zero while no reward has been issued
type RewardRecord struct {
	ProjectID   uint64 `json:"project_id"`
	Contributor string `json:"contributor"`
	TokenID     uint64 `json:"token_id"`
}
