package crowdfund

import (
	"fmt"

	"crowdfund/internal/ledger"
	"crowdfund/internal/models"
)

// Result is what an accepted request produced besides ledger writes and actions
type Result struct {
	ProjectID uint64 // Project the request created or acted on
	TokenID   uint64 // Reward token created by mint_reward
}

// Machine is the crowdfunding state machine
// It holds no state of its own; everything lives in the Ledger passed to Apply.
type Machine struct{}

// New creates a new Machine
func New() *Machine {
	return &Machine{}
}

// Apply runs one request against the ledger
// It returns a *Rejection when a precondition fails; in that case nothing has
// been written to l or queued on q. Any other error comes from the ledger or
// the queue and leaves l and q in an unspecified state that the host must
// discard.
func (m *Machine) Apply(l ledger.Ledger, q ActionQueue, req models.Request, inv models.Invocation) (*Result, error) {
	if inv.Custody == "" {
		return nil, fmt.Errorf("invocation carries no custody address")
	}
	if !ValidAccount(inv.Sender) {
		return nil, Reject(CodeInvalidArgs, "sender %q is not an account address", inv.Sender)
	}
	if req.Kind != models.KindContribute && len(inv.Payments) > 0 {
		return nil, Reject(CodeMalformedTransferGroup, "%s does not accept attached payments", req.Kind)
	}

	s := store{l}

	switch req.Kind {
	case models.KindCreateProject:
		return m.createProject(s, req, inv)

	case models.KindContribute, models.KindWithdraw, models.KindRefund, models.KindMintReward:
		id, err := targetProject(req)
		if err != nil {
			return nil, err
		}
		switch req.Kind {
		case models.KindContribute:
			return m.contribute(s, id, inv)
		case models.KindWithdraw:
			return m.withdraw(s, q, id, inv)
		case models.KindRefund:
			return m.refund(s, q, id, inv)
		default:
			return m.mintReward(s, q, id, inv)
		}

	case models.KindOptIn, models.KindCloseOut:
		if req.ProjectID != nil || len(req.Args) != 0 {
			return nil, Reject(CodeInvalidArgs, "%s takes no project id or fields", req.Kind)
		}
		// Per-account namespaces exist implicitly; nothing to set up or tear down.
		return &Result{}, nil

	case models.KindUpdateApp, models.KindDeleteApp:
		return nil, Reject(CodeUnauthorized, "%s is disabled", req.Kind)

	default:
		return nil, Reject(CodeInvalidArgs, "unknown request kind %q", req.Kind)
	}
}

// targetProject extracts the project id of a project-scoped request
func targetProject(req models.Request) (uint64, error) {
	if req.ProjectID == nil {
		return 0, Reject(CodeInvalidArgs, "%s requires a project id", req.Kind)
	}
	if len(req.Args) != 0 {
		return 0, Reject(CodeInvalidArgs, "%s takes no fields besides the project id, got %d", req.Kind, len(req.Args))
	}
	return *req.ProjectID, nil
}

// existing loads a project or rejects with ProjectNotFound
func existing(s store, id uint64) (*models.Project, error) {
	p, err := s.project(id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, Reject(CodeProjectNotFound, "project %d does not exist", id)
	}
	return p, nil
}

// addAmount adds two amounts, reporting overflow
func addAmount(a, b uint64) (uint64, bool) {
	sum := a + b
	return sum, sum >= a
}
