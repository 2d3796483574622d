package crowdfund

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crowdfund/internal/ledger"
	"crowdfund/internal/models"
)

func TestCreateProject_AssignsSequentialIDs(t *testing.T) {
	h := newHarness(t)

	for want := uint64(0); want < 5; want++ {
		id := h.create("1000", u(startTime+100), "10")
		assert.Equal(t, want, id)
	}

	count, err := ProjectCount(h.l)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), count)

	p := h.project(3)
	assert.Equal(t, "Solar Roof", p.Name)
	assert.Equal(t, "Panels for the community hall", p.Description)
	assert.Equal(t, "energy", p.Category)
	assert.Equal(t, creator, p.Creator)
	assert.Equal(t, uint64(1000), p.Target)
	assert.Equal(t, startTime+100, p.Deadline)
	assert.Equal(t, uint64(10), p.RewardThreshold)
	assert.Zero(t, p.Collected)
	assert.True(t, p.Active)
	assert.Equal(t, models.PhaseOpen, p.Phase(h.now))
}

func TestCreateProject_Validation(t *testing.T) {
	future := u(startTime + 100)
	id := uint64(0)

	tests := []struct {
		name     string
		req      models.Request
		payments []models.Payment
		code     Code
	}{
		{"too few fields", models.Request{Kind: models.KindCreateProject, Args: []string{"a", "b", "1", future, "c"}}, nil, CodeInvalidArgs},
		{"too many fields", models.Request{Kind: models.KindCreateProject, Args: []string{"a", "b", "1", future, "c", "1", "img"}}, nil, CodeInvalidArgs},
		{"empty name", createRequest("", "1000", future, "10"), nil, CodeInvalidArgs},
		{"zero target", createRequest("p", "0", future, "10"), nil, CodeInvalidArgs},
		{"negative target", createRequest("p", "-5", future, "10"), nil, CodeInvalidArgs},
		{"non-numeric target", createRequest("p", "lots", future, "10"), nil, CodeInvalidArgs},
		{"deadline now", createRequest("p", "1000", u(startTime), "10"), nil, CodeInvalidArgs},
		{"deadline past", createRequest("p", "1000", u(startTime-1), "10"), nil, CodeInvalidArgs},
		{"zero threshold", createRequest("p", "1000", future, "0"), nil, CodeInvalidArgs},
		{"with project id", models.Request{Kind: models.KindCreateProject, ProjectID: &id, Args: createRequest("p", "1", future, "1").Args}, nil, CodeInvalidArgs},
		{"with payment", createRequest("p", "1000", future, "10"), []models.Payment{{From: creator, Amount: 5}}, CodeMalformedTransferGroup},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			_, _, err := h.apply(creator, tt.req, tt.payments...)
			require.Error(t, err)
			r, ok := AsRejection(err)
			require.True(t, ok)
			assert.Equal(t, tt.code, r.Code)

			count, err := ProjectCount(h.l)
			require.NoError(t, err)
			assert.Zero(t, count)
		})
	}
}

func TestContribute_Accumulates(t *testing.T) {
	h := newHarness(t)
	id := h.create("1000", u(startTime+100), "10")

	require.NoError(t, h.contribute(alice, id, 100))
	require.NoError(t, h.contribute(bob, id, 250))
	require.NoError(t, h.contribute(alice, id, 50))

	assert.Equal(t, uint64(150), h.contribution(id, alice))
	assert.Equal(t, uint64(250), h.contribution(id, bob))
	assert.Equal(t, uint64(400), h.project(id).Collected)
}

func TestContribute_MalformedTransferGroup(t *testing.T) {
	h := newHarness(t)
	id := h.create("1000", u(startTime+100), "10")
	req := projectRequest(models.KindContribute, id)

	tests := []struct {
		name     string
		payments []models.Payment
	}{
		{"no payment", nil},
		{"two payments", []models.Payment{{From: alice, To: h.custody, Amount: 1}, {From: alice, To: h.custody, Amount: 1}}},
		{"foreign source", []models.Payment{{From: bob, To: h.custody, Amount: 10}}},
		{"wrong destination", []models.Payment{{From: alice, To: bob, Amount: 10}}},
		{"zero amount", []models.Payment{{From: alice, To: h.custody, Amount: 0}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := h.apply(alice, req, tt.payments...)
			assert.ErrorIs(t, err, ErrMalformedTransferGroup)
		})
	}
	assert.Zero(t, h.project(id).Collected)
}

func TestContribute_Rejections(t *testing.T) {
	h := newHarness(t)
	id := h.create("1000", u(startTime+100), "10")

	assert.ErrorIs(t, h.contribute(alice, 42, 10), ErrProjectNotFound)

	h.now = startTime + 100
	assert.ErrorIs(t, h.contribute(alice, id, 10), ErrFundingClosed)
}

func TestContribute_Overflow(t *testing.T) {
	h := newHarness(t)
	id := h.create("1000", u(startTime+100), "10")

	require.NoError(t, h.contribute(alice, id, ^uint64(0)-5))
	assert.ErrorIs(t, h.contribute(bob, id, 10), ErrInvalidArgs)
}

func TestScenario_FailedProjectRefunds(t *testing.T) {
	h := newHarness(t)
	id := h.create("1000000", u(startTime+1000), "500000")

	require.NoError(t, h.contribute(alice, id, 600_000))
	assert.Equal(t, uint64(600_000), h.contribution(id, alice))
	assert.Equal(t, uint64(600_000), h.project(id).Collected)

	_, _, err := h.apply(alice, projectRequest(models.KindMintReward, id))
	assert.ErrorIs(t, err, ErrDeadlineNotReached)

	h.now = startTime + 1001
	assert.Equal(t, models.PhaseFailedPending, h.project(id).Phase(h.now))

	_, _, err = h.apply(creator, projectRequest(models.KindWithdraw, id))
	assert.ErrorIs(t, err, ErrTargetNotReached)

	_, actions, err := h.apply(alice, projectRequest(models.KindRefund, id))
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, models.Action{Type: models.ActionTransfer, Destination: alice, Amount: 600_000}, actions[0])
	assert.Zero(t, h.contribution(id, alice))

	_, _, err = h.apply(alice, projectRequest(models.KindRefund, id))
	assert.ErrorIs(t, err, ErrNothingToRefund)

	p := h.project(id)
	assert.True(t, p.Active, "refunds do not finalize the project")
	assert.Equal(t, uint64(600_000), p.Refunded)
}

func TestScenario_SuccessfulProjectWithdrawAndReward(t *testing.T) {
	h := newHarness(t)
	id := h.create("1000000", u(startTime+1000), "500000")

	require.NoError(t, h.contribute(alice, id, 1_200_000))
	h.now = startTime + 1000
	assert.Equal(t, models.PhaseSucceededPending, h.project(id).Phase(h.now))

	_, actions, err := h.apply(creator, projectRequest(models.KindWithdraw, id))
	require.NoError(t, err)
	require.Equal(t, []models.Action{{Type: models.ActionTransfer, Destination: creator, Amount: 1_200_000}}, actions)
	assert.False(t, h.project(id).Active)
	assert.Equal(t, models.PhaseFinalized, h.project(id).Phase(h.now))

	_, _, err = h.apply(creator, projectRequest(models.KindWithdraw, id))
	assert.ErrorIs(t, err, ErrAlreadyFinalized)

	res, actions, err := h.apply(alice, projectRequest(models.KindMintReward, id))
	require.NoError(t, err)
	require.Len(t, actions, 2)

	create := actions[0]
	assert.Equal(t, models.ActionTokenCreate, create.Type)
	require.NotNil(t, create.Token)
	assert.Equal(t, uint64(1), create.Token.Total)
	assert.Zero(t, create.Token.Decimals)
	assert.Equal(t, RewardUnitName, create.Token.UnitName)
	assert.Equal(t, "Reward NFT - Solar Roof", create.Token.DisplayName)
	ref, err := RewardReference(id, alice)
	require.NoError(t, err)
	assert.Equal(t, ref, create.Token.ContentRef)

	assert.Equal(t, models.Action{Type: models.ActionTokenTransfer, Destination: alice, Amount: 1, TokenID: create.TokenID}, actions[1])
	assert.Equal(t, create.TokenID, res.TokenID)

	token, err := RewardOf(h.l, id, alice)
	require.NoError(t, err)
	assert.Equal(t, res.TokenID, token)

	_, _, err = h.apply(alice, projectRequest(models.KindMintReward, id))
	assert.ErrorIs(t, err, ErrAlreadyRewarded)
}

func TestWithdraw_Rejections(t *testing.T) {
	h := newHarness(t)
	id := h.create("100", u(startTime+10), "10")
	require.NoError(t, h.contribute(alice, id, 100))

	_, _, err := h.apply(creator, projectRequest(models.KindWithdraw, id))
	assert.ErrorIs(t, err, ErrDeadlineNotReached)

	h.now = startTime + 10
	_, _, err = h.apply(alice, projectRequest(models.KindWithdraw, id))
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, _, err = h.apply(creator, projectRequest(models.KindWithdraw, 9))
	assert.ErrorIs(t, err, ErrProjectNotFound)
}

func TestRefund_Rejections(t *testing.T) {
	h := newHarness(t)
	id := h.create("100", u(startTime+10), "10")
	require.NoError(t, h.contribute(alice, id, 40))

	_, _, err := h.apply(alice, projectRequest(models.KindRefund, id))
	assert.ErrorIs(t, err, ErrDeadlineNotReached)

	h.now = startTime + 10
	_, _, err = h.apply(bob, projectRequest(models.KindRefund, id))
	assert.ErrorIs(t, err, ErrNothingToRefund)

	funded := h.create("100", u(startTime+20), "10")
	require.NoError(t, h.contribute(bob, funded, 100))
	h.now = startTime + 20
	_, _, err = h.apply(bob, projectRequest(models.KindRefund, funded))
	assert.ErrorIs(t, err, ErrTargetReached)
}

func TestRefund_EachContributorOnce(t *testing.T) {
	h := newHarness(t)
	id := h.create("1000", u(startTime+10), "10")
	require.NoError(t, h.contribute(alice, id, 300))
	require.NoError(t, h.contribute(bob, id, 200))
	h.now = startTime + 10

	_, actions, err := h.apply(alice, projectRequest(models.KindRefund, id))
	require.NoError(t, err)
	assert.Equal(t, uint64(300), actions[0].Amount)

	_, actions, err = h.apply(bob, projectRequest(models.KindRefund, id))
	require.NoError(t, err)
	assert.Equal(t, uint64(200), actions[0].Amount)

	for _, who := range []string{alice, bob} {
		_, _, err = h.apply(who, projectRequest(models.KindRefund, id))
		assert.ErrorIs(t, err, ErrNothingToRefund)
	}
}

func TestMintReward_Rejections(t *testing.T) {
	h := newHarness(t)
	id := h.create("100", u(startTime+10), "50")
	require.NoError(t, h.contribute(alice, id, 60))
	require.NoError(t, h.contribute(bob, id, 49))
	h.now = startTime + 10

	_, _, err := h.apply(bob, projectRequest(models.KindMintReward, id))
	assert.ErrorIs(t, err, ErrBelowThreshold)

	_, _, err = h.apply(creator, projectRequest(models.KindMintReward, id))
	assert.ErrorIs(t, err, ErrBelowThreshold)

	short := h.create("1000", u(startTime+20), "50")
	require.NoError(t, h.contribute(alice, short, 60))
	h.now = startTime + 20
	_, _, err = h.apply(alice, projectRequest(models.KindMintReward, short))
	assert.ErrorIs(t, err, ErrTargetNotReached)
}

func TestMintReward_AllowedBeforeAndAfterWithdrawal(t *testing.T) {
	h := newHarness(t)
	id := h.create("100", u(startTime+10), "50")
	require.NoError(t, h.contribute(alice, id, 60))
	require.NoError(t, h.contribute(bob, id, 60))
	h.now = startTime + 10

	first, _, err := h.apply(alice, projectRequest(models.KindMintReward, id))
	require.NoError(t, err)

	_, _, err = h.apply(creator, projectRequest(models.KindWithdraw, id))
	require.NoError(t, err)

	second, _, err := h.apply(bob, projectRequest(models.KindMintReward, id))
	require.NoError(t, err)
	assert.NotEqual(t, first.TokenID, second.TokenID)
}

func TestApply_RequestShape(t *testing.T) {
	h := newHarness(t)
	id := h.create("100", u(startTime+10), "10")

	tests := []struct {
		name   string
		sender string
		req    models.Request
		code   Code
	}{
		{"missing project id", alice, models.Request{Kind: models.KindWithdraw}, CodeInvalidArgs},
		{"extra fields", alice, models.Request{Kind: models.KindRefund, ProjectID: &id, Args: []string{"x"}}, CodeInvalidArgs},
		{"unknown kind", alice, models.Request{Kind: "vote"}, CodeInvalidArgs},
		{"invalid sender", "not-an-account", projectRequest(models.KindRefund, id), CodeInvalidArgs},
		{"opt_in with project id", alice, models.Request{Kind: models.KindOptIn, ProjectID: &id}, CodeInvalidArgs},
		{"close_out with fields", alice, models.Request{Kind: models.KindCloseOut, Args: []string{"x"}}, CodeInvalidArgs},
		{"update disabled", creator, models.Request{Kind: models.KindUpdateApp}, CodeUnauthorized},
		{"delete disabled", creator, models.Request{Kind: models.KindDeleteApp}, CodeUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := h.apply(tt.sender, tt.req)
			r, ok := AsRejection(err)
			require.True(t, ok, "expected a rejection, got %v", err)
			assert.Equal(t, tt.code, r.Code)
		})
	}
}

func TestApply_OptInAndCloseOutAreNoOps(t *testing.T) {
	h := newHarness(t)
	for _, kind := range []models.RequestKind{models.KindOptIn, models.KindCloseOut} {
		_, actions, err := h.apply(alice, models.Request{Kind: kind})
		require.NoError(t, err)
		assert.Empty(t, actions)
	}
	assert.Zero(t, h.l.Len())
}

func TestApply_RequiresCustody(t *testing.T) {
	_, err := New().Apply(ledger.NewMemory(), NewActionList(1), models.Request{Kind: models.KindOptIn}, models.Invocation{Sender: alice})
	require.Error(t, err)
	_, isRejection := AsRejection(err)
	assert.False(t, isRejection)
}

func TestRejection_Matching(t *testing.T) {
	err := Reject(CodeNothingToRefund, "nothing for %s", "alice")
	assert.True(t, errors.Is(err, ErrNothingToRefund))
	assert.False(t, errors.Is(err, ErrAlreadyRewarded))
	assert.Equal(t, "NOTHING_TO_REFUND: nothing for alice", err.Error())
	assert.Equal(t, "ALREADY_REWARDED", ErrAlreadyRewarded.Error())
}
