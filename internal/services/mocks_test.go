package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/taskcoin/backend/internal/ledger"
	"github.com/taskcoin/backend/internal/models"
)

// ---------------------------------------------------------------------------
// Transactions
// ---------------------------------------------------------------------------

// noopTx satisfies pgx.Tx; the in-memory repositories ignore it.
type noopTx struct{}

func (noopTx) Begin(context.Context) (pgx.Tx, error) { return noopTx{}, nil }
func (noopTx) Commit(context.Context) error          { return nil }
func (noopTx) Rollback(context.Context) error        { return nil }
func (noopTx) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (noopTx) Query(context.Context, string, ...any) (pgx.Rows, error) { return nil, nil }
func (noopTx) QueryRow(context.Context, string, ...any) pgx.Row        { return nil }
func (noopTx) CopyFrom(context.Context, pgx.Identifier, []string, pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (noopTx) SendBatch(context.Context, *pgx.Batch) pgx.BatchResults { return nil }
func (noopTx) LargeObjects() pgx.LargeObjects                         { return pgx.LargeObjects{} }
func (noopTx) Prepare(context.Context, string, string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (noopTx) Conn() *pgx.Conn { return nil }

type mockPool struct{}

func (mockPool) Begin(context.Context) (pgx.Tx, error) { return noopTx{}, nil }

// snapshotTx puts the memDB back to its state at Begin unless it was committed.
// Only for sequential tests: a rollback discards concurrent writes too.
type snapshotTx struct {
	noopTx
	db    *memDB
	saved *memDB
	done  bool
}

func (tx *snapshotTx) Commit(context.Context) error {
	tx.done = true
	return nil
}

func (tx *snapshotTx) Rollback(context.Context) error {
	if !tx.done {
		tx.db.restore(tx.saved)
		tx.done = true
	}
	return nil
}

type snapshotPool struct{ db *memDB }

func (p snapshotPool) Begin(context.Context) (pgx.Tx, error) {
	return &snapshotTx{db: p.db, saved: p.db.snapshot()}, nil
}

// ---------------------------------------------------------------------------
// memDB: one mutex-guarded store behind every repository interface.
// ---------------------------------------------------------------------------

type memDB struct {
	mu          sync.Mutex
	accounts    map[uuid.UUID]*models.Account
	entries     []*models.LedgerEntry
	tasks       map[uuid.UUID]*models.Task
	submissions map[uuid.UUID]*models.Submission
	withdrawals map[uuid.UUID]*models.Withdrawal
	reports     map[uuid.UUID]*models.Report
	purchases   map[string]*models.CoinPurchase
	notes       []models.Notification
	clock       time.Time
}

func newMemDB() *memDB {
	return &memDB{
		accounts:    make(map[uuid.UUID]*models.Account),
		tasks:       make(map[uuid.UUID]*models.Task),
		submissions: make(map[uuid.UUID]*models.Submission),
		withdrawals: make(map[uuid.UUID]*models.Withdrawal),
		reports:     make(map[uuid.UUID]*models.Report),
		purchases:   make(map[string]*models.CoinPurchase),
		clock:       time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// snapshot deep-copies every table.
func (m *memDB) snapshot() *memDB {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := newMemDB()
	for id, a := range m.accounts {
		cp := *a
		c.accounts[id] = &cp
	}
	for _, e := range m.entries {
		cp := *e
		c.entries = append(c.entries, &cp)
	}
	for id, t := range m.tasks {
		cp := *t
		c.tasks[id] = &cp
	}
	for id, sub := range m.submissions {
		cp := *sub
		c.submissions[id] = &cp
	}
	for id, wd := range m.withdrawals {
		cp := *wd
		c.withdrawals[id] = &cp
	}
	for id, r := range m.reports {
		cp := *r
		c.reports[id] = &cp
	}
	for token, p := range m.purchases {
		cp := *p
		c.purchases[token] = &cp
	}
	c.notes = append(c.notes, m.notes...)
	c.clock = m.clock
	return c
}

func (m *memDB) restore(saved *memDB) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts = saved.accounts
	m.entries = saved.entries
	m.tasks = saved.tasks
	m.submissions = saved.submissions
	m.withdrawals = saved.withdrawals
	m.reports = saved.reports
	m.purchases = saved.purchases
	m.notes = saved.notes
}

// now returns a strictly increasing timestamp so list ordering is stable. Caller holds mu.
func (m *memDB) now() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

func (m *memDB) balance(id uuid.UUID) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.accounts[id].Coin
}

func (m *memDB) task(id uuid.UUID) *models.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return nil
	}
	cp := *t
	return &cp
}

func (m *memDB) entriesOf(entryType string) []*models.LedgerEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.LedgerEntry
	for _, e := range m.entries {
		if e.EntryType == entryType {
			out = append(out, e)
		}
	}
	return out
}

func (m *memDB) notificationsFor(id uuid.UUID) []models.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Notification
	for _, n := range m.notes {
		if n.AccountID == id {
			out = append(out, n)
		}
	}
	return out
}

// --- ledger.Store ---

type memLedgerStore struct{ *memDB }

func (m memLedgerStore) GetBalanceForUpdate(_ context.Context, _ pgx.Tx, id uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return 0, models.ErrNotFound
	}
	return a.Coin, nil
}

func (m memLedgerStore) Deduct(_ context.Context, _ pgx.Tx, id uuid.UUID, amount int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := m.accounts[id]
	if a.Coin < amount {
		return 0, models.ErrInsufficientFunds
	}
	a.Coin -= amount
	return a.Coin, nil
}

func (m memLedgerStore) Add(_ context.Context, _ pgx.Tx, id uuid.UUID, amount int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := m.accounts[id]
	a.Coin += amount
	return a.Coin, nil
}

func (m memLedgerStore) InsertEntry(_ context.Context, _ pgx.Tx, e *models.LedgerEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *e
	cp.CreatedAt = m.now()
	m.entries = append(m.entries, &cp)
	return nil
}

// --- TaskRepo ---

type memTasks struct{ *memDB }

func (m memTasks) Create(_ context.Context, _ pgx.Tx, t *models.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t.CreatedAt = m.now()
	t.UpdatedAt = t.CreatedAt
	cp := *t
	m.tasks[t.ID] = &cp
	return nil
}

func (m memTasks) GetByID(_ context.Context, id uuid.UUID) (*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m memTasks) GetByIDForUpdate(ctx context.Context, _ pgx.Tx, id uuid.UUID) (*models.Task, error) {
	return m.GetByID(ctx, id)
}

func (m memTasks) UpdateDetails(_ context.Context, _ pgx.Tx, id uuid.UUID, title, detail, info string) (*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	t.Title, t.Detail, t.SubmissionInfo = title, detail, info
	t.UpdatedAt = m.now()
	cp := *t
	return &cp, nil
}

func (m memTasks) Delete(_ context.Context, _ pgx.Tx, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[id]; !ok {
		return models.ErrNotFound
	}
	delete(m.tasks, id)
	for _, s := range m.submissions {
		if s.TaskID != nil && *s.TaskID == id {
			s.TaskID = nil
		}
	}
	return nil
}

func (m memTasks) ConsumeSlot(_ context.Context, _ pgx.Tx, id uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return 0, models.ErrNotFound
	}
	if t.RequiredWorkers == 0 {
		return 0, models.ErrQuotaExhausted
	}
	t.RequiredWorkers--
	return t.RequiredWorkers, nil
}

func (m memTasks) ReleaseSlot(_ context.Context, _ pgx.Tx, id uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return 0, models.ErrNotFound
	}
	if t.RequiredWorkers >= t.InitialWorkers {
		return 0, fmt.Errorf("release on full task %s", id)
	}
	t.RequiredWorkers++
	return t.RequiredWorkers, nil
}

func (m memTasks) ListAvailable(_ context.Context, f models.TaskFilter) ([]*models.Task, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []*models.Task
	for _, t := range m.tasks {
		if t.RequiredWorkers == 0 {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(t.Title), strings.ToLower(f.Search)) {
			continue
		}
		if f.RewardMin > 0 && t.PayableAmount < f.RewardMin {
			continue
		}
		if f.RewardMax > 0 && t.PayableAmount > f.RewardMax {
			continue
		}
		cp := *t
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	total := len(all)
	start := (f.Page - 1) * f.PageSize
	if start > total {
		start = total
	}
	end := start + f.PageSize
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}

func (m memTasks) ListByBuyer(_ context.Context, buyerID uuid.UUID) ([]*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Task
	for _, t := range m.tasks {
		if t.BuyerID == buyerID {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m memTasks) ListAll(_ context.Context) ([]*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Task
	for _, t := range m.tasks {
		cp := *t
		out = append(out, &cp)
	}
	return out, nil
}

// --- SubmissionRepo ---

type memSubmissions struct{ *memDB }

func (m memSubmissions) activeLocked(taskID, workerID uuid.UUID) bool {
	for _, s := range m.submissions {
		if s.TaskID != nil && *s.TaskID == taskID && s.WorkerID == workerID &&
			(s.Status == models.SubmissionPending || s.Status == models.SubmissionApproved) {
			return true
		}
	}
	return false
}

func (m memSubmissions) Create(_ context.Context, _ pgx.Tx, s *models.Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.activeLocked(*s.TaskID, s.WorkerID) {
		return models.ErrDuplicateSubmission
	}
	s.CreatedAt = m.now()
	s.UpdatedAt = s.CreatedAt
	cp := *s
	m.submissions[s.ID] = &cp
	return nil
}

func (m memSubmissions) GetByID(_ context.Context, id uuid.UUID) (*models.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.submissions[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m memSubmissions) HasActive(_ context.Context, _ pgx.Tx, taskID, workerID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.activeLocked(taskID, workerID), nil
}

func (m memSubmissions) Transition(_ context.Context, _ pgx.Tx, id uuid.UUID, from, to string) (*models.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.submissions[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	if s.Status != from {
		return nil, models.ErrAlreadyFinalized
	}
	s.Status = to
	s.UpdatedAt = m.now()
	cp := *s
	return &cp, nil
}

func (m memSubmissions) RejectPendingForTask(_ context.Context, _ pgx.Tx, taskID uuid.UUID) ([]*models.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Submission
	for _, s := range m.submissions {
		if s.TaskID != nil && *s.TaskID == taskID && s.Status == models.SubmissionPending {
			s.Status = models.SubmissionRejected
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m memSubmissions) ListByWorker(_ context.Context, workerID uuid.UUID, status string, limit, offset int) ([]*models.Submission, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []*models.Submission
	for _, s := range m.submissions {
		if s.WorkerID == workerID && (status == "" || s.Status == status) {
			cp := *s
			all = append(all, &cp)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	total := len(all)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (m memSubmissions) ListPendingForBuyer(_ context.Context, buyerID uuid.UUID) ([]*models.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Submission
	for _, s := range m.submissions {
		if s.BuyerID == buyerID && s.Status == models.SubmissionPending {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

// --- WithdrawalRepo ---

type memWithdrawals struct{ *memDB }

func (m memWithdrawals) Create(_ context.Context, _ pgx.Tx, w *models.Withdrawal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	w.RequestedAt = m.now()
	cp := *w
	m.withdrawals[w.ID] = &cp
	return nil
}

func (m memWithdrawals) Transition(_ context.Context, _ pgx.Tx, id uuid.UUID, from, to string, by uuid.UUID) (*models.Withdrawal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.withdrawals[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	if w.Status != from {
		return nil, models.ErrAlreadyFinalized
	}
	now := m.now()
	w.Status = to
	w.ProcessedAt = &now
	w.ProcessedBy = &by
	cp := *w
	return &cp, nil
}

func (m memWithdrawals) ListByWorker(_ context.Context, workerID uuid.UUID) ([]*models.Withdrawal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Withdrawal
	for _, w := range m.withdrawals {
		if w.WorkerID == workerID {
			cp := *w
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m memWithdrawals) ListByStatus(_ context.Context, status string) ([]*models.Withdrawal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Withdrawal
	for _, w := range m.withdrawals {
		if w.Status == status {
			cp := *w
			out = append(out, &cp)
		}
	}
	return out, nil
}

// --- ReportRepo ---

type memReports struct{ *memDB }

func (m memReports) Create(_ context.Context, r *models.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r.CreatedAt = m.now()
	cp := *r
	m.reports[r.ID] = &cp
	return nil
}

func (m memReports) List(_ context.Context, status string) ([]*models.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Report
	for _, r := range m.reports {
		if status == "" || r.Status == status {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m memReports) Resolve(_ context.Context, id uuid.UUID) (*models.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reports[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	if r.Status != models.ReportOpen {
		return nil, models.ErrAlreadyFinalized
	}
	now := m.now()
	r.Status = models.ReportResolved
	r.ResolvedAt = &now
	cp := *r
	return &cp, nil
}

// --- PurchaseRepo ---

type memPurchases struct{ *memDB }

func (m memPurchases) Insert(_ context.Context, _ pgx.Tx, p *models.CoinPurchase) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.purchases[p.ConfirmationToken]; ok {
		return false, nil
	}
	p.CreatedAt = m.now()
	cp := *p
	m.purchases[p.ConfirmationToken] = &cp
	return true, nil
}

func (m memPurchases) ListByBuyer(_ context.Context, buyerID uuid.UUID) ([]*models.CoinPurchase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.CoinPurchase
	for _, p := range m.purchases {
		if p.BuyerID == buyerID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

// --- AccountRepo + ConservationReader ---

type memAccounts struct{ *memDB }

func (m memAccounts) GetByID(_ context.Context, id uuid.UUID) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m memAccounts) GetByIDForUpdate(ctx context.Context, _ pgx.Tx, id uuid.UUID) (*models.Account, error) {
	return m.GetByID(ctx, id)
}

func (m memAccounts) LockForShare(ctx context.Context, _ pgx.Tx, id uuid.UUID) error {
	_, err := m.GetByID(ctx, id)
	return err
}

func (m memAccounts) List(_ context.Context) ([]*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Account
	for _, a := range m.accounts {
		cp := *a
		out = append(out, &cp)
	}
	return out, nil
}

func (m memAccounts) UpdateRole(_ context.Context, id uuid.UUID, role string) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	a.Role = role
	cp := *a
	return &cp, nil
}

func (m memAccounts) HasOpenObligations(_ context.Context, _ pgx.Tx, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tasks {
		if t.BuyerID == id && t.RequiredWorkers > 0 {
			return true, nil
		}
	}
	for _, s := range m.submissions {
		if s.Status == models.SubmissionPending && (s.WorkerID == id || s.BuyerID == id) {
			return true, nil
		}
	}
	for _, w := range m.withdrawals {
		if w.WorkerID == id && w.Status == models.WithdrawalPending {
			return true, nil
		}
	}
	return false, nil
}

func (m memAccounts) Delete(_ context.Context, _ pgx.Tx, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[id]; !ok {
		return models.ErrNotFound
	}
	delete(m.accounts, id)
	return nil
}

func (m memAccounts) Conservation(_ context.Context) (models.ConservationReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var r models.ConservationReport
	for _, a := range m.accounts {
		r.AccountBalances += a.Coin
	}
	for _, t := range m.tasks {
		r.TaskEscrow += t.Reserved()
	}
	for _, s := range m.submissions {
		if s.Status == models.SubmissionPending {
			r.SubmissionEscrow += s.PayableAmount
		}
	}
	for _, w := range m.withdrawals {
		switch w.Status {
		case models.WithdrawalPending:
			r.PendingWithdrawals += w.WithdrawalCoin
		case models.WithdrawalApproved:
			r.ApprovedWithdrawals += w.WithdrawalCoin
		}
	}
	for _, e := range m.entries {
		switch e.EntryType {
		case models.EntryRegistrationBonus:
			r.RegistrationBonuses += e.Amount
		case models.EntryAccountClosure:
			r.Forfeited += e.Amount
		}
	}
	for _, p := range m.purchases {
		r.Purchases += p.Coins
	}
	return r, nil
}

// --- Notifier ---

type memNotifier struct{ *memDB }

func (m memNotifier) Notify(_ context.Context, _ pgx.Tx, accountID uuid.UUID, message, route string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notes = append(m.notes, models.Notification{ID: uuid.New(), AccountID: accountID, Message: message, ActionRoute: route, CreatedAt: m.now()})
	return nil
}

// ---------------------------------------------------------------------------
// world wires every service over one memDB.
// ---------------------------------------------------------------------------

type world struct {
	db          *memDB
	tasks       *TaskStore
	submissions *SubmissionWorkflow
	withdrawals *WithdrawalProcessor
	reports     *ReportingSubsystem
	purchases   *CoinPurchaseLedger
	admin       *AccountAdmin
}

func newWorld() *world {
	return newWorldOn(newMemDB(), mockPool{})
}

// newAtomicWorld rolls back every failed transaction, like a real database.
func newAtomicWorld() *world {
	db := newMemDB()
	return newWorldOn(db, snapshotPool{db})
}

func newWorldOn(db *memDB, pool TxBeginner) *world {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	l := ledger.New(memLedgerStore{db})
	notifier := memNotifier{db}

	tasks := NewTaskStore(pool, memTasks{db}, memSubmissions{db}, l, notifier, logger)
	return &world{
		db:          db,
		tasks:       tasks,
		submissions: NewSubmissionWorkflow(pool, memTasks{db}, tasks, memSubmissions{db}, memAccounts{db}, l, notifier, logger),
		withdrawals: NewWithdrawalProcessor(pool, memWithdrawals{db}, l, notifier, WithdrawalPolicy{
			MinCoins:       200,
			CoinsPerDollar: 20,
			PaymentSystems: []string{"Stripe", "Bkash", "Rocket", "Nagad"},
		}, logger),
		reports:   NewReportingSubsystem(memReports{db}, memSubmissions{db}, logger),
		purchases: NewCoinPurchaseLedger(pool, memPurchases{db}, l, testCatalog(), logger),
		admin:     NewAccountAdmin(pool, memAccounts{db}, l, memAccounts{db}, logger),
	}
}

// account registers an account whose starting balance is journaled as a bonus.
func (w *world) account(role string, coin int64) *models.Account {
	w.db.mu.Lock()
	defer w.db.mu.Unlock()
	a := &models.Account{ID: uuid.New(), Email: role + "-" + uuid.NewString()[:8] + "@example.com", Name: role, Role: role, Coin: coin}
	cp := *a
	w.db.accounts[a.ID] = &cp
	if coin > 0 {
		w.db.entries = append(w.db.entries, &models.LedgerEntry{
			ID: uuid.New(), AccountID: a.ID, EntryType: models.EntryRegistrationBonus, Amount: coin, BalanceAfter: coin,
		})
	}
	return a
}

func (w *world) assertConserved(t testing.TB) {
	t.Helper()
	r, err := w.admin.Audit(context.Background())
	if err != nil {
		t.Fatalf("Audit: %v", err)
	}
	if !r.Balanced() {
		t.Fatalf("conservation violated: held %d, issued %d (%+v)", r.Held(), r.Issued(), r)
	}
}
