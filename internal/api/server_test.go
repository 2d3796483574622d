package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stellar/go/keypair"
	"github.com/stellar/go/strkey"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crowdfund/internal/models"
	"crowdfund/internal/runtime"
	"crowdfund/internal/storage"
)

var (
	creator = keypair.Master("api creator").Address()
	alice   = keypair.Master("api alice").Address()
)

type testEnv struct {
	t       *testing.T
	server  *Server
	custody string
	now     time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	custody, err := strkey.Encode(strkey.VersionByteContract, bytes.Repeat([]byte{3}, 32))
	require.NoError(t, err)

	repo, err := storage.NewSQLiteRepository(context.Background(), filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	env := &testEnv{t: t, custody: custody, now: time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)}
	host, err := runtime.NewHost(context.Background(), runtime.Config{
		Custody: custody,
		Clock:   func() time.Time { return env.now },
	}, repo, nil, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = host.Start(ctx) }()
	t.Cleanup(cancel)

	env.server = NewServer(0, host, repo)
	return env
}

func (e *testEnv) do(method, path string, body any) *httptest.ResponseRecorder {
	e.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(e.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func (e *testEnv) submit(body models.SubmitRequest) (*httptest.ResponseRecorder, models.Receipt) {
	e.t.Helper()
	rec := e.do(http.MethodPost, "/requests", body)
	if rec.Code >= 500 {
		e.t.Fatalf("server error: %s", rec.Body.String())
	}
	return rec, decode[models.Receipt](e.t, rec)
}

func TestAPI_ProjectLifecycle(t *testing.T) {
	env := newTestEnv(t)
	deadline := env.now.Add(time.Hour)

	rec, receipt := env.submit(models.SubmitRequest{
		Kind:   models.KindCreateProject,
		Sender: creator,
		Args:   []string{"Bridge", "A footbridge", "20000000", strconv.FormatInt(deadline.Unix(), 10), "civic", "5000000"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NotNil(t, receipt.ProjectID)
	id := *receipt.ProjectID

	rec, _ = env.submit(models.SubmitRequest{
		Kind:      models.KindContribute,
		Sender:    alice,
		ProjectID: &id,
		Payments:  []models.Payment{{From: alice, To: env.custody, Amount: 25_000_000}},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(http.MethodGet, "/projects/0", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	project := decode[models.ProjectResponse](t, rec)
	assert.Equal(t, "Bridge", project.Name)
	assert.Equal(t, "2.5000000", project.CollectedXLM)
	assert.Equal(t, "open", project.Phase)

	rec = env.do(http.MethodGet, "/projects/0/contributions/"+alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	contribution := decode[models.ContributionResponse](t, rec)
	assert.Equal(t, uint64(25_000_000), contribution.AmountStroops)
	assert.True(t, contribution.RewardEligible)

	rec, receipt = env.submit(models.SubmitRequest{Kind: models.KindWithdraw, Sender: creator, ProjectID: &id})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "DEADLINE_NOT_REACHED", receipt.Code)

	env.now = deadline
	rec, receipt = env.submit(models.SubmitRequest{Kind: models.KindWithdraw, Sender: alice, ProjectID: &id})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "UNAUTHORIZED", receipt.Code)

	rec, receipt = env.submit(models.SubmitRequest{Kind: models.KindMintReward, Sender: alice, ProjectID: &id})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NotZero(t, receipt.TokenID)

	rec = env.do(http.MethodGet, "/projects/0/rewards/"+alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	reward := decode[models.RewardResponse](t, rec)
	assert.True(t, reward.Issued)
	require.NotNil(t, reward.Token)
	assert.Equal(t, alice, reward.Token.Owner)

	rec = env.do(http.MethodGet, "/custody", nil)
	custody := decode[models.CustodyResponse](t, rec)
	assert.Equal(t, env.custody, custody.Address)
	assert.Equal(t, uint64(25_000_000), custody.BalanceStroops)

	rec = env.do(http.MethodGet, "/projects", nil)
	list := decode[models.ProjectListResponse](t, rec)
	assert.Equal(t, uint64(1), list.Total)
	require.Len(t, list.Projects, 1)
	assert.Equal(t, "succeeded_pending", list.Projects[0].Phase)

	rec = env.do(http.MethodGet, "/activities?project_id=0&limit=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	activities := decode[models.ActivityListResponse](t, rec)
	assert.Len(t, activities.Activities, 2)
}

func TestAPI_BadRequests(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"unknown field", http.MethodPost, "/requests", map[string]any{"kind": "opt_in", "color": "blue"}, http.StatusBadRequest},
		{"missing kind", http.MethodPost, "/requests", map[string]any{"sender": alice}, http.StatusBadRequest},
		{"NUL in sender", http.MethodPost, "/requests", map[string]any{"kind": "opt_in", "sender": alice + "\x00"}, http.StatusBadRequest},
		{"NUL in args", http.MethodPost, "/requests", map[string]any{"kind": "create_project", "sender": creator, "args": []string{"Bri\x00dge"}}, http.StatusBadRequest},
		{"project id not numeric", http.MethodGet, "/projects/abc", nil, http.StatusBadRequest},
		{"missing project", http.MethodGet, "/projects/7", nil, http.StatusNotFound},
		{"bad activity filter", http.MethodGet, "/activities?project_id=x", nil, http.StatusBadRequest},
		{"wrong method", http.MethodDelete, "/projects", nil, http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}

	activities := env.do(http.MethodGet, "/activities", nil)
	require.Equal(t, http.StatusOK, activities.Code)
	assert.Empty(t, decode[models.ActivityListResponse](t, activities).Activities, "malformed bodies never reach the host")

	rec, receipt := env.submit(models.SubmitRequest{Kind: models.KindCreateProject, Sender: creator, Args: []string{"x"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_ARGS", receipt.Code)
	assert.False(t, receipt.Accepted)
}

func TestAPI_Health(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decode[map[string]any](t, rec)["status"])
}

func TestStroopsToXLM(t *testing.T) {
	assert.Equal(t, "0.0000000", StroopsToXLM(0))
	assert.Equal(t, "1.0000000", StroopsToXLM(10_000_000))
	assert.Equal(t, "0.0000001", StroopsToXLM(1))
	assert.Equal(t, "1844674407370.9551615", StroopsToXLM(^uint64(0)))
}

func TestStatusForCode(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, StatusForCode("MALFORMED_TRANSFER_GROUP"))
	assert.Equal(t, http.StatusNotFound, StatusForCode("PROJECT_NOT_FOUND"))
	assert.Equal(t, http.StatusConflict, StatusForCode("ALREADY_REWARDED"))
	assert.Equal(t, http.StatusUnprocessableEntity, StatusForCode("ACTION_FAILED"))
	assert.Equal(t, http.StatusInternalServerError, StatusForCode("SOMETHING_ELSE"))
}
