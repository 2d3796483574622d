package crowdfund

import (
	"crowdfund/internal/ledger"
	"crowdfund/internal/models"
)

func (m *Machine) contribute(s store, id uint64, inv models.Invocation) (*Result, error) {
	pay, err := inboundPayment(inv)
	if err != nil {
		return nil, err
	}

	p, err := existing(s, id)
	if err != nil {
		return nil, err
	}
	if inv.Now >= p.Deadline {
		return nil, Reject(CodeFundingClosed, "funding for project %d closed at %d", id, p.Deadline)
	}
	if !p.Active {
		return nil, Reject(CodeFundingClosed, "project %d is finalized", id)
	}

	collected, ok := addAmount(p.Collected, pay.Amount)
	if !ok {
		return nil, Reject(CodeInvalidArgs, "contribution overflows the collected total of project %d", id)
	}
	key := ledger.ContributionKey(inv.Sender, id)
	current, err := s.getUint64(key)
	if err != nil {
		return nil, err
	}
	total, ok := addAmount(current, pay.Amount)
	if !ok {
		return nil, Reject(CodeInvalidArgs, "contribution overflows the contributor total")
	}

	if err := s.putUint64(ledger.ProjectKey(id, ledger.FieldCollected), collected); err != nil {
		return nil, err
	}
	if err := s.putUint64(key, total); err != nil {
		return nil, err
	}

	return &Result{ProjectID: id}, nil
}

// inboundPayment returns the single payment from the sender into custody
func inboundPayment(inv models.Invocation) (models.Payment, error) {
	if len(inv.Payments) != 1 {
		return models.Payment{}, Reject(CodeMalformedTransferGroup, "expected exactly one attached payment, got %d", len(inv.Payments))
	}
	pay := inv.Payments[0]
	if pay.From != inv.Sender {
		return models.Payment{}, Reject(CodeMalformedTransferGroup, "payment source %s is not the sender", pay.From)
	}
	if pay.To != inv.Custody {
		return models.Payment{}, Reject(CodeMalformedTransferGroup, "payment destination %s is not the custody address", pay.To)
	}
	if pay.Amount == 0 {
		return models.Payment{}, Reject(CodeMalformedTransferGroup, "payment amount must be positive")
	}
	return pay, nil
}
