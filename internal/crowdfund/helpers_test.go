package crowdfund

import (
	"bytes"
	"strconv"
	"testing"

	"github.com/stellar/go/keypair"
	"github.com/stellar/go/strkey"
	"github.com/stretchr/testify/require"

	"crowdfund/internal/ledger"
	"crowdfund/internal/models"
)

const startTime uint64 = 1_700_000_000

var (
	creator = keypair.Master("crowdfund creator").Address()
	alice   = keypair.Master("crowdfund alice").Address()
	bob     = keypair.Master("crowdfund bob").Address()
)

// harness drives a Machine the way a host does: each call runs over an
// overlay that is applied only when the request is accepted.
type harness struct {
	t         *testing.T
	m         *Machine
	l         *ledger.Memory
	now       uint64
	custody   string
	nextToken uint64
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	custody, err := strkey.Encode(strkey.VersionByteContract, bytes.Repeat([]byte{7}, 32))
	require.NoError(t, err)
	return &harness{
		t:         t,
		m:         New(),
		l:         ledger.NewMemory(),
		now:       startTime,
		custody:   custody,
		nextToken: 1,
	}
}

func (h *harness) apply(sender string, req models.Request, payments ...models.Payment) (*Result, []models.Action, error) {
	h.t.Helper()
	o := ledger.NewOverlay(h.l)
	q := NewActionList(h.nextToken)
	res, err := h.m.Apply(o, q, req, models.Invocation{
		Sender:   sender,
		Now:      h.now,
		Payments: payments,
		Custody:  h.custody,
	})
	if err != nil {
		_, isRejection := AsRejection(err)
		require.True(h.t, isRejection, "unexpected non-rejection error: %v", err)
		require.Empty(h.t, o.Changes(), "rejected request wrote to the ledger")
		require.Empty(h.t, q.Actions(), "rejected request queued actions")
		return nil, nil, err
	}
	h.l.Apply(o.Changes())
	h.nextToken = q.NextTokenID()
	return res, q.Actions(), nil
}

func (h *harness) create(target, deadline, threshold string) uint64 {
	h.t.Helper()
	res, _, err := h.apply(creator, createRequest("Solar Roof", target, deadline, threshold))
	require.NoError(h.t, err)
	return res.ProjectID
}

func (h *harness) contribute(sender string, id uint64, amount uint64) error {
	h.t.Helper()
	_, _, err := h.apply(sender, projectRequest(models.KindContribute, id), models.Payment{
		From:   sender,
		To:     h.custody,
		Amount: amount,
	})
	return err
}

func (h *harness) project(id uint64) *models.Project {
	h.t.Helper()
	p, err := LoadProject(h.l, id)
	require.NoError(h.t, err)
	require.NotNil(h.t, p)
	return p
}

func (h *harness) contribution(id uint64, account string) uint64 {
	h.t.Helper()
	v, err := ContributionOf(h.l, id, account)
	require.NoError(h.t, err)
	return v
}

func createRequest(name, target, deadline, threshold string) models.Request {
	return models.Request{
		Kind: models.KindCreateProject,
		Args: []string{name, "Panels for the community hall", target, deadline, "energy", threshold},
	}
}

func projectRequest(kind models.RequestKind, id uint64) models.Request {
	return models.Request{Kind: kind, ProjectID: &id}
}

func u(v uint64) string {
	return strconv.FormatUint(v, 10)
}
