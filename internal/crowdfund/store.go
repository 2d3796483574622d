package crowdfund

import (
	"fmt"

	"crowdfund/internal/ledger"
	"crowdfund/internal/models"
)

// store wraps a Ledger with typed accessors
type store struct {
	l ledger.Ledger
}

func (s store) getUint64(key ledger.Key) (uint64, error) {
	raw, _, err := s.l.Get(key)
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", key, err)
	}
	v, err := ledger.DecodeUint64(raw)
	if err != nil {
		return 0, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return v, nil
}

func (s store) getBytes(key ledger.Key) (string, error) {
	raw, _, err := s.l.Get(key)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", key, err)
	}
	return string(raw), nil
}

func (s store) putUint64(key ledger.Key, v uint64) error {
	if err := s.l.Put(key, ledger.EncodeUint64(v)); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

func (s store) putBytes(key ledger.Key, v string) error {
	if err := s.l.Put(key, []byte(v)); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

func (s store) putBool(key ledger.Key, v bool) error {
	var n uint64
	if v {
		n = 1
	}
	return s.putUint64(key, n)
}

// project loads a project; a zero target marks a project that was never created
func (s store) project(id uint64) (*models.Project, error) {
	p := &models.Project{ID: id}

	var err error
	if p.Target, err = s.getUint64(ledger.ProjectKey(id, ledger.FieldTarget)); err != nil {
		return nil, err
	}
	if p.Target == 0 {
		return nil, nil
	}

	for _, f := range []struct {
		field ledger.Field
		dst   *uint64
	}{
		{ledger.FieldDeadline, &p.Deadline},
		{ledger.FieldCollected, &p.Collected},
		{ledger.FieldRefunded, &p.Refunded},
		{ledger.FieldThreshold, &p.RewardThreshold},
	} {
		if *f.dst, err = s.getUint64(ledger.ProjectKey(id, f.field)); err != nil {
			return nil, err
		}
	}

	for _, f := range []struct {
		field ledger.Field
		dst   *string
	}{
		{ledger.FieldName, &p.Name},
		{ledger.FieldDescription, &p.Description},
		{ledger.FieldCategory, &p.Category},
		{ledger.FieldCreator, &p.Creator},
	} {
		if *f.dst, err = s.getBytes(ledger.ProjectKey(id, f.field)); err != nil {
			return nil, err
		}
	}

	active, err := s.getUint64(ledger.ProjectKey(id, ledger.FieldActive))
	if err != nil {
		return nil, err
	}
	p.Active = active == 1

	return p, nil
}

// createProject writes every field of a new project
func (s store) createProject(p *models.Project) error {
	id := p.ID
	for _, w := range []struct {
		field ledger.Field
		value string
	}{
		{ledger.FieldName, p.Name},
		{ledger.FieldDescription, p.Description},
		{ledger.FieldCategory, p.Category},
		{ledger.FieldCreator, p.Creator},
	} {
		if err := s.putBytes(ledger.ProjectKey(id, w.field), w.value); err != nil {
			return err
		}
	}
	for _, w := range []struct {
		field ledger.Field
		value uint64
	}{
		{ledger.FieldTarget, p.Target},
		{ledger.FieldDeadline, p.Deadline},
		{ledger.FieldCollected, p.Collected},
		{ledger.FieldRefunded, p.Refunded},
		{ledger.FieldThreshold, p.RewardThreshold},
	} {
		if err := s.putUint64(ledger.ProjectKey(id, w.field), w.value); err != nil {
			return err
		}
	}
	return s.putBool(ledger.ProjectKey(id, ledger.FieldActive), p.Active)
}

// LoadProject returns the project with the given id, or nil if it does not exist
func LoadProject(l ledger.Ledger, id uint64) (*models.Project, error) {
	return store{l}.project(id)
}

// ProjectCount returns the number of projects created so far
func ProjectCount(l ledger.Ledger) (uint64, error) {
	return store{l}.getUint64(ledger.ProjectCounterKey)
}

// ContributionOf returns the current contribution of account to a project
func ContributionOf(l ledger.Ledger, projectID uint64, account string) (uint64, error) {
	return store{l}.getUint64(ledger.ContributionKey(account, projectID))
}

// RewardOf returns the reward token issued to account for a project, zero if none
func RewardOf(l ledger.Ledger, projectID uint64, account string) (uint64, error) {
	return store{l}.getUint64(ledger.RewardKey(account, projectID))
}
