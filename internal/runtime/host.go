package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"crowdfund/internal/crowdfund"
	"crowdfund/internal/ledger"
	"crowdfund/internal/metrics"
	"crowdfund/internal/models"
	"crowdfund/internal/orchestrator"
	"crowdfund/internal/storage"
	"crowdfund/internal/storage/retry"
)

const defaultQueueSize = 64

// Config configures a Host
type Config struct {
	Custody   string           // Contract address that holds escrowed funds
	QueueSize int              // Capacity of the submission queue
	Clock     func() time.Time // Source of ledger time; time.Now when nil
	NewID     func() string    // Request id generator; random UUIDs when nil
}

// Host executes requests against the machine one at a time
// It owns the in-memory ledger, the custody balance and the token id
// sequence. A request's ledger changes, custody movement, tokens and activity
// record are committed to storage in one transaction before any of them
// become visible in memory.
type Host struct {
	machine *crowdfund.Machine
	repo    storage.Repository
	retry   retry.Strategy
	orch    *orchestrator.Orchestrator
	custody string
	clock   func() time.Time
	newID   func() string

	state   *ledger.Memory
	balance atomic.Uint64

	mu          sync.Mutex // Serializes Execute
	nextTokenID uint64

	queue chan *pending
}

type pending struct {
	ctx  context.Context
	sub  models.Submission
	done chan outcome
}

type outcome struct {
	receipt *models.Receipt
	err     error
}

// NewHost creates a Host and restores its state from the repository
func NewHost(ctx context.Context, cfg Config, repo storage.Repository, strategy retry.Strategy, orch *orchestrator.Orchestrator) (*Host, error) {
	if !crowdfund.ValidCustody(cfg.Custody) {
		return nil, fmt.Errorf("invalid custody address %q", cfg.Custody)
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaultQueueSize
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.NewID == nil {
		cfg.NewID = uuid.NewString
	}
	if strategy == nil {
		strategy = retry.Once{}
	}
	if orch == nil {
		orch = orchestrator.New(nil)
	}

	h := &Host{
		machine: crowdfund.New(),
		repo:    repo,
		retry:   strategy,
		orch:    orch,
		custody: cfg.Custody,
		clock:   cfg.Clock,
		newID:   cfg.NewID,
		state:   ledger.NewMemory(),
		queue:   make(chan *pending, cfg.QueueSize),
	}

	changes, err := repo.LoadState(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to restore ledger state: %w", err)
	}
	h.state.Apply(changes)

	balance, err := repo.CustodyBalance(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to restore custody balance: %w", err)
	}
	h.balance.Store(balance)
	metrics.CustodyBalance.Set(float64(balance))

	maxToken, err := repo.MaxTokenID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to restore token sequence: %w", err)
	}
	h.nextTokenID = maxToken + 1

	projects, err := crowdfund.ProjectCount(h.state)
	if err != nil {
		return nil, fmt.Errorf("failed to read project count: %w", err)
	}

	slog.Info("Host state restored",
		"ledger_entries", h.state.Len(),
		"projects", projects,
		"custody", h.custody,
		"custody_balance", balance,
		"next_token_id", h.nextTokenID,
	)

	return h, nil
}

// Start processes queued submissions until ctx is cancelled
func (h *Host) Start(ctx context.Context) error {
	slog.Info("Starting request host", "queue_size", cap(h.queue))

	for {
		select {
		case <-ctx.Done():
			slog.Warn("Context cancelled, stopping host")
			return ctx.Err()
		case p := <-h.queue:
			metrics.QueueDepth.Set(float64(len(h.queue)))
			receipt, err := h.Execute(p.ctx, p.sub)
			p.done <- outcome{receipt: receipt, err: err}
		}
	}
}

// Submit queues a submission and waits for its receipt
// Start must be running for the submission to be processed.
func (h *Host) Submit(ctx context.Context, sub models.Submission) (*models.Receipt, error) {
	p := &pending{ctx: ctx, sub: sub, done: make(chan outcome, 1)}

	select {
	case h.queue <- p:
		metrics.QueueDepth.Set(float64(len(h.queue)))
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case out := <-p.done:
		return out.receipt, out.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Execute processes one submission synchronously
// A rejected request yields a receipt with Accepted unset and a nil error; a
// non-nil error means nothing was committed.
func (h *Host) Execute(ctx context.Context, sub models.Submission) (*models.Receipt, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	start := h.clock()
	receipt := &models.Receipt{
		RequestID:      h.newID(),
		Kind:           sub.Request.Kind,
		Sender:         sub.Sender,
		ProjectID:      sub.Request.ProjectID,
		LedgerTime:     unixSeconds(start),
		Timestamp:      start.UTC(),
		CustodyBalance: h.balance.Load(),
	}

	inv := models.Invocation{
		Sender:   sub.Sender,
		Now:      receipt.LedgerTime,
		Payments: sub.Payments,
		Custody:  h.custody,
	}

	overlay := ledger.NewOverlay(h.state)
	queue := crowdfund.NewActionList(h.nextTokenID)

	res, err := h.machine.Apply(overlay, queue, sub.Request, inv)
	if err != nil {
		return h.finishRejected(ctx, receipt, start, err)
	}

	actions := queue.Actions()
	fx, err := newExecutor(h.custody, receipt.RequestID, receipt.CustodyBalance, h.repo).run(ctx, sub.Payments, actions)
	if err != nil {
		return h.finishRejected(ctx, receipt, start, err)
	}

	if sub.Request.Kind == models.KindCreateProject {
		id := res.ProjectID
		receipt.ProjectID = &id
	}
	receipt.Accepted = true
	receipt.Actions = actions
	receipt.TokenID = res.TokenID
	receipt.Contributed = fx.contributed
	receipt.CustodyBalance = fx.balance
	receipt.Duration = h.clock().Sub(start)

	changes := overlay.Changes()
	c := &storage.Commit{
		Changes:  changes,
		Tokens:   fx.tokens,
		Activity: models.ActivityFromReceipt(receipt),
	}
	if fx.balance != h.balance.Load() {
		balance := fx.balance
		c.CustodyBalance = &balance
	}
	if err := h.commit(ctx, c); err != nil {
		return nil, err
	}

	h.state.Apply(changes)
	h.balance.Store(fx.balance)
	h.nextTokenID = queue.NextTokenID()
	metrics.LedgerWritesPerRequest.Observe(float64(len(changes)))

	h.orch.ProcessReceipt(ctx, receipt)
	return receipt, nil
}

// finishRejected records a declined request; only its activity is persisted
func (h *Host) finishRejected(ctx context.Context, receipt *models.Receipt, start time.Time, err error) (*models.Receipt, error) {
	rejection, ok := crowdfund.AsRejection(err)
	if !ok {
		metrics.ErrorsTotal.WithLabelValues("machine").Inc()
		slog.Error("Request failed",
			"request_id", receipt.RequestID,
			"kind", receipt.Kind,
			"error", err,
		)
		return nil, fmt.Errorf("failed to process %s request: %w", receipt.Kind, err)
	}

	receipt.Code = string(rejection.Code)
	receipt.Message = rejection.Message
	receipt.Duration = h.clock().Sub(start)

	if err := h.commit(ctx, &storage.Commit{Activity: models.ActivityFromReceipt(receipt)}); err != nil {
		return nil, err
	}

	h.orch.ProcessReceipt(ctx, receipt)
	return receipt, nil
}

func (h *Host) commit(ctx context.Context, c *storage.Commit) error {
	start := time.Now()
	err := h.retry.Do(ctx, func(ctx context.Context, n int) error {
		if n > 1 {
			metrics.CommitRetries.Inc()
		}
		return h.repo.Commit(ctx, c)
	})
	metrics.CommitDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ErrorsTotal.WithLabelValues("storage").Inc()
		return fmt.Errorf("failed to commit request: %w", err)
	}
	return nil
}

// State returns a read-only view of the committed ledger
func (h *Host) State() ledger.Ledger {
	return readOnly{h.state}
}

// CustodyBalance returns the committed custody balance
func (h *Host) CustodyBalance() uint64 {
	return h.balance.Load()
}

// Custody returns the custody address
func (h *Host) Custody() string {
	return h.custody
}

// Now returns the current ledger time in unix seconds
func (h *Host) Now() uint64 {
	return unixSeconds(h.clock())
}

// Tokens returns the token registry backing reward lookups
func (h *Host) Tokens() TokenSource {
	return h.repo
}

func unixSeconds(t time.Time) uint64 {
	s := t.Unix()
	if s < 0 {
		return 0
	}
	return uint64(s)
}

// readOnly rejects writes so API readers cannot bypass the host
type readOnly struct {
	l ledger.Ledger
}

func (r readOnly) Get(key ledger.Key) ([]byte, bool, error) {
	return r.l.Get(key)
}

func (r readOnly) Put(ledger.Key, []byte) error {
	return fmt.Errorf("ledger view is read-only")
}
