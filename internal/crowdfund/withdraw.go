package crowdfund

import (
	"fmt"

	"crowdfund/internal/ledger"
	"crowdfund/internal/models"
)

func (m *Machine) withdraw(s store, q ActionQueue, id uint64, inv models.Invocation) (*Result, error) {
	p, err := existing(s, id)
	if err != nil {
		return nil, err
	}
	if inv.Sender != p.Creator {
		return nil, Reject(CodeUnauthorized, "only the creator may withdraw project %d", id)
	}
	if !p.Active {
		return nil, Reject(CodeAlreadyFinalized, "project %d was already withdrawn", id)
	}
	if inv.Now < p.Deadline {
		return nil, Reject(CodeDeadlineNotReached, "project %d is funding until %d", id, p.Deadline)
	}
	if !p.TargetReached() {
		return nil, Reject(CodeTargetNotReached, "project %d collected %d of %d", id, p.Collected, p.Target)
	}

	// Deactivate before the payout is queued so a replay sees a finalized project.
	if err := s.putBool(ledger.ProjectKey(id, ledger.FieldActive), false); err != nil {
		return nil, err
	}
	if err := q.RequestTransfer(p.Creator, p.Collected); err != nil {
		return nil, fmt.Errorf("failed to queue payout of project %d: %w", id, err)
	}

	return &Result{ProjectID: id}, nil
}
