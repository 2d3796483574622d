package crowdfund

import (
	"fmt"

	"crowdfund/internal/ledger"
	"crowdfund/internal/models"
)

func (m *Machine) refund(s store, q ActionQueue, id uint64, inv models.Invocation) (*Result, error) {
	p, err := existing(s, id)
	if err != nil {
		return nil, err
	}
	if inv.Now < p.Deadline {
		return nil, Reject(CodeDeadlineNotReached, "project %d is funding until %d", id, p.Deadline)
	}
	if p.TargetReached() {
		return nil, Reject(CodeTargetReached, "project %d reached its target", id)
	}
	if !p.Active {
		return nil, Reject(CodeAlreadyFinalized, "project %d is finalized", id)
	}

	key := ledger.ContributionKey(inv.Sender, id)
	amount, err := s.getUint64(key)
	if err != nil {
		return nil, err
	}
	if amount == 0 {
		return nil, Reject(CodeNothingToRefund, "%s holds no contribution to project %d", inv.Sender, id)
	}

	if err := q.RequestTransfer(inv.Sender, amount); err != nil {
		return nil, fmt.Errorf("failed to queue refund of project %d: %w", id, err)
	}
	if err := s.putUint64(key, 0); err != nil {
		return nil, err
	}
	// refunded never exceeds collected, which already fit in a uint64
	if err := s.putUint64(ledger.ProjectKey(id, ledger.FieldRefunded), p.Refunded+amount); err != nil {
		return nil, err
	}

	return &Result{ProjectID: id}, nil
}
