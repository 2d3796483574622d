package crowdfund

import (
	"fmt"

	"crowdfund/internal/ledger"
	"crowdfund/internal/models"
)

// mintReward issues the one reward token of a qualifying contributor
// The project's active flag is not consulted: eligibility rests on past
// contributions, so rewards stay claimable after the creator has withdrawn.
func (m *Machine) mintReward(s store, q ActionQueue, id uint64, inv models.Invocation) (*Result, error) {
	p, err := existing(s, id)
	if err != nil {
		return nil, err
	}
	if inv.Now < p.Deadline {
		return nil, Reject(CodeDeadlineNotReached, "project %d is funding until %d", id, p.Deadline)
	}
	if !p.TargetReached() {
		return nil, Reject(CodeTargetNotReached, "project %d collected %d of %d", id, p.Collected, p.Target)
	}

	contributed, err := s.getUint64(ledger.ContributionKey(inv.Sender, id))
	if err != nil {
		return nil, err
	}
	if contributed < p.RewardThreshold {
		return nil, Reject(CodeBelowThreshold, "contribution %d is below the reward threshold %d", contributed, p.RewardThreshold)
	}

	rewardKey := ledger.RewardKey(inv.Sender, id)
	issued, err := s.getUint64(rewardKey)
	if err != nil {
		return nil, err
	}
	if issued != 0 {
		return nil, Reject(CodeAlreadyRewarded, "reward token %d was already issued for project %d", issued, id)
	}

	ref, err := RewardReference(id, inv.Sender)
	if err != nil {
		return nil, err
	}
	tokenID, err := q.RequestTokenCreate(models.TokenSpec{
		Total:       1,
		Decimals:    0,
		UnitName:    RewardUnitName,
		DisplayName: RewardName(p.Name),
		ContentRef:  ref,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to queue reward token creation: %w", err)
	}
	if tokenID == 0 {
		return nil, fmt.Errorf("action queue returned an empty token id")
	}
	if err := q.RequestTokenTransfer(tokenID, inv.Sender, 1); err != nil {
		return nil, fmt.Errorf("failed to queue reward token transfer: %w", err)
	}

	if err := s.putUint64(rewardKey, tokenID); err != nil {
		return nil, err
	}

	return &Result{ProjectID: id, TokenID: tokenID}, nil
}
