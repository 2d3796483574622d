package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crowdfund/internal/ledger"
	"crowdfund/internal/models"
)

type fakeSource struct {
	l   *ledger.Memory
	now uint64
}

func (f *fakeSource) State() ledger.Ledger { return f.l }
func (f *fakeSource) Now() uint64          { return f.now }

func putProject(t *testing.T, l *ledger.Memory, id uint64, p models.Project) {
	t.Helper()
	active := uint64(0)
	if p.Active {
		active = 1
	}
	for field, v := range map[ledger.Field]uint64{
		ledger.FieldTarget:    p.Target,
		ledger.FieldDeadline:  p.Deadline,
		ledger.FieldCollected: p.Collected,
		ledger.FieldActive:    active,
	} {
		require.NoError(t, l.Put(ledger.ProjectKey(id, field), ledger.EncodeUint64(v)))
	}
	require.NoError(t, l.Put(ledger.ProjectCounterKey, ledger.EncodeUint64(id+1)))
}

func TestSweep_CountsPhasesAndTransitions(t *testing.T) {
	src := &fakeSource{l: ledger.NewMemory(), now: 100}
	putProject(t, src.l, 0, models.Project{Target: 10, Deadline: 150, Collected: 20, Active: true})
	putProject(t, src.l, 1, models.Project{Target: 10, Deadline: 150, Collected: 5, Active: true})
	putProject(t, src.l, 2, models.Project{Target: 10, Deadline: 50, Collected: 10, Active: false})

	s, err := NewScheduler(src)
	require.NoError(t, err)

	first, err := s.Sweep()
	require.NoError(t, err)
	assert.Equal(t, 2, first.Counts[models.PhaseOpen])
	assert.Equal(t, 1, first.Counts[models.PhaseFinalized])
	assert.Zero(t, first.Counts[models.PhaseFailedPending])
	assert.Empty(t, first.Transitions)

	src.now = 150
	second, err := s.Sweep()
	require.NoError(t, err)
	assert.Equal(t, 1, second.Counts[models.PhaseSucceededPending])
	assert.Equal(t, 1, second.Counts[models.PhaseFailedPending])
	assert.ElementsMatch(t, []Transition{
		{ProjectID: 0, From: models.PhaseOpen, To: models.PhaseSucceededPending},
		{ProjectID: 1, From: models.PhaseOpen, To: models.PhaseFailedPending},
	}, second.Transitions)
}

func TestSchedulePhaseSweep(t *testing.T) {
	s, err := NewScheduler(&fakeSource{l: ledger.NewMemory()})
	require.NoError(t, err)

	_, err = s.SchedulePhaseSweep(0)
	assert.Error(t, err)

	id, err := s.SchedulePhaseSweep(time.Minute)
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	require.NoError(t, s.Stop(t.Context()))
}
