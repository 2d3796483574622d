package crowdfund

import (
	"math"
	"strconv"

	"crowdfund/internal/ledger"
	"crowdfund/internal/models"
)

// Positions of the create_project fields
const (
	argName = iota
	argDescription
	argTarget
	argDeadline
	argCategory
	argThreshold

	createArgCount
)

func (m *Machine) createProject(s store, req models.Request, inv models.Invocation) (*Result, error) {
	if req.ProjectID != nil {
		return nil, Reject(CodeInvalidArgs, "create_project does not take a project id")
	}
	if len(req.Args) != createArgCount {
		return nil, Reject(CodeInvalidArgs, "create_project takes %d fields, got %d", createArgCount, len(req.Args))
	}

	name := req.Args[argName]
	if name == "" {
		return nil, Reject(CodeInvalidArgs, "project name is required")
	}
	target, err := parseAmount(req.Args[argTarget], "target")
	if err != nil {
		return nil, err
	}
	deadline, err := parseAmount(req.Args[argDeadline], "deadline")
	if err != nil {
		return nil, err
	}
	threshold, err := parseAmount(req.Args[argThreshold], "reward threshold")
	if err != nil {
		return nil, err
	}

	if target == 0 {
		return nil, Reject(CodeInvalidArgs, "target must be positive")
	}
	if deadline <= inv.Now {
		return nil, Reject(CodeInvalidArgs, "deadline %d is not after current time %d", deadline, inv.Now)
	}
	if threshold == 0 {
		return nil, Reject(CodeInvalidArgs, "reward threshold must be positive")
	}

	id, err := s.getUint64(ledger.ProjectCounterKey)
	if err != nil {
		return nil, err
	}
	if id == math.MaxUint64 {
		return nil, Reject(CodeInvalidArgs, "project id space exhausted")
	}

	p := &models.Project{
		ID:              id,
		Name:            name,
		Description:     req.Args[argDescription],
		Category:        req.Args[argCategory],
		Creator:         inv.Sender,
		Target:          target,
		Deadline:        deadline,
		RewardThreshold: threshold,
		Active:          true,
	}
	if err := s.createProject(p); err != nil {
		return nil, err
	}
	if err := s.putUint64(ledger.ProjectCounterKey, id+1); err != nil {
		return nil, err
	}

	return &Result{ProjectID: id}, nil
}

func parseAmount(raw, field string) (uint64, error) {
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, Reject(CodeInvalidArgs, "%s must be an unsigned decimal integer, got %q", field, raw)
	}
	return v, nil
}
