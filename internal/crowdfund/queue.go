package crowdfund

import (
	"fmt"

	"crowdfund/internal/models"
)

// ActionQueue collects the side effects a transition requests
// Implementations must not execute anything until the host commits the
// transition; every action queued by one Apply call succeeds or none does.
type ActionQueue interface {
	// RequestTransfer queues a payment out of custody
	RequestTransfer(destination string, amount uint64) error

	// RequestTokenCreate queues a token creation and returns the id the token will have
	RequestTokenCreate(spec models.TokenSpec) (uint64, error)

	// RequestTokenTransfer queues a transfer of a token held by custody
	RequestTokenTransfer(tokenID uint64, destination string, amount uint64) error
}

// ActionList is an ActionQueue that records actions in order
// Token ids are allocated sequentially starting at the given id.
type ActionList struct {
	actions     []models.Action
	nextTokenID uint64
}

// NewActionList creates an ActionList whose first created token gets firstTokenID
func NewActionList(firstTokenID uint64) *ActionList {
	if firstTokenID == 0 {
		firstTokenID = 1
	}
	return &ActionList{nextTokenID: firstTokenID}
}

func (l *ActionList) RequestTransfer(destination string, amount uint64) error {
	if amount == 0 {
		return fmt.Errorf("transfer amount must be positive")
	}
	l.actions = append(l.actions, models.Action{
		Type:        models.ActionTransfer,
		Destination: destination,
		Amount:      amount,
	})
	return nil
}

func (l *ActionList) RequestTokenCreate(spec models.TokenSpec) (uint64, error) {
	id := l.nextTokenID
	l.nextTokenID++
	s := spec
	l.actions = append(l.actions, models.Action{
		Type:    models.ActionTokenCreate,
		Amount:  spec.Total,
		TokenID: id,
		Token:   &s,
	})
	return id, nil
}

func (l *ActionList) RequestTokenTransfer(tokenID uint64, destination string, amount uint64) error {
	if tokenID == 0 {
		return fmt.Errorf("token id must be set")
	}
	l.actions = append(l.actions, models.Action{
		Type:        models.ActionTokenTransfer,
		Destination: destination,
		Amount:      amount,
		TokenID:     tokenID,
	})
	return nil
}

// Actions returns the queued actions in request order
func (l *ActionList) Actions() []models.Action {
	out := make([]models.Action, len(l.actions))
	copy(out, l.actions)
	return out
}

// NextTokenID returns the id the next created token would get
func (l *ActionList) NextTokenID() uint64 {
	return l.nextTokenID
}
