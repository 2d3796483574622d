package runtime

import (
	"context"
	"errors"
	"fmt"

	"crowdfund/internal/crowdfund"
	"crowdfund/internal/models"
	"crowdfund/internal/storage"
)

// TokenSource resolves tokens created by earlier requests
type TokenSource interface {
	GetToken(ctx context.Context, tokenID uint64) (*models.RewardToken, error)
}

// effects is what executing one accepted request does to custody
type effects struct {
	balance     uint64
	contributed uint64
	tokens      []*models.RewardToken
}

// executor applies the value side of a request against a custody balance
// It never touches storage; its result is committed together with the ledger
// changes or dropped along with them.
type executor struct {
	custody   string
	requestID string
	tokens    TokenSource

	balance     uint64
	contributed uint64
	touched     map[uint64]*models.RewardToken
	order       []uint64
}

func newExecutor(custody, requestID string, balance uint64, tokens TokenSource) *executor {
	return &executor{
		custody:   custody,
		requestID: requestID,
		tokens:    tokens,
		balance:   balance,
		touched:   make(map[uint64]*models.RewardToken),
	}
}

// run credits the inbound payments, then executes the queued actions in order
func (e *executor) run(ctx context.Context, payments []models.Payment, actions []models.Action) (*effects, error) {
	for _, p := range payments {
		if p.To != e.custody {
			continue
		}
		balance := e.balance + p.Amount
		if balance < e.balance {
			return nil, crowdfund.Reject(crowdfund.CodeActionFailed, "custody balance overflow")
		}
		e.balance = balance
		e.contributed += p.Amount
	}

	for _, a := range actions {
		var err error
		switch a.Type {
		case models.ActionTransfer:
			err = e.transfer(a)
		case models.ActionTokenCreate:
			err = e.tokenCreate(a)
		case models.ActionTokenTransfer:
			err = e.tokenTransfer(ctx, a)
		default:
			err = crowdfund.Reject(crowdfund.CodeActionFailed, "unknown action type %q", a.Type)
		}
		if err != nil {
			if _, ok := crowdfund.AsRejection(err); ok {
				return nil, err
			}
			return nil, fmt.Errorf("failed to execute %s action: %w", a.Type, err)
		}
	}

	out := &effects{balance: e.balance, contributed: e.contributed}
	for _, id := range e.order {
		out.tokens = append(out.tokens, e.touched[id])
	}
	return out, nil
}

func (e *executor) transfer(a models.Action) error {
	if a.Amount > e.balance {
		return crowdfund.Reject(crowdfund.CodeActionFailed, "custody holds %d, cannot pay %d to %s", e.balance, a.Amount, a.Destination)
	}
	e.balance -= a.Amount
	return nil
}

func (e *executor) tokenCreate(a models.Action) error {
	if a.Token == nil {
		return crowdfund.Reject(crowdfund.CodeActionFailed, "token creation without a token spec")
	}
	if _, exists := e.touched[a.TokenID]; exists {
		return crowdfund.Reject(crowdfund.CodeActionFailed, "token %d created twice", a.TokenID)
	}
	e.track(&models.RewardToken{
		TokenID:   a.TokenID,
		Spec:      *a.Token,
		Owner:     e.custody,
		RequestID: e.requestID,
	})
	return nil
}

func (e *executor) tokenTransfer(ctx context.Context, a models.Action) error {
	token, ok := e.touched[a.TokenID]
	if !ok {
		stored, err := e.tokens.GetToken(ctx, a.TokenID)
		if errors.Is(err, storage.ErrNotFound) {
			return crowdfund.Reject(crowdfund.CodeActionFailed, "token %d does not exist", a.TokenID)
		}
		if err != nil {
			return err
		}
		token = stored
		e.track(token)
	}

	if token.Owner != e.custody {
		return crowdfund.Reject(crowdfund.CodeActionFailed, "token %d is not held by custody", a.TokenID)
	}
	if a.Amount != token.Spec.Total {
		return crowdfund.Reject(crowdfund.CodeActionFailed, "token %d: cannot move %d of %d units", a.TokenID, a.Amount, token.Spec.Total)
	}
	token.Owner = a.Destination
	return nil
}

func (e *executor) track(t *models.RewardToken) {
	e.touched[t.TokenID] = t
	e.order = append(e.order, t.TokenID)
}
