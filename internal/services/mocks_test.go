package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/scribewell/backend/internal/models"
)

// ---------------------------------------------------------------------------
// In-memory mocks for the repository interfaces. These let us test the real
// lifecycle/evaluator/promotion logic without a database. The mocks take a
// mutex around every operation so the lock-race tests exercise the same
// only-one-winner CAS guarantee the SQL gives us.
// ---------------------------------------------------------------------------

// --- noopTx satisfies pgx.Tx for test use; only Commit/Rollback are called. ---

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

// --- TxBeginner mock ---

type mockDB struct{}

func (mockDB) Begin(context.Context) (pgx.Tx, error) { return noopTx{}, nil }

// --- User repo mock ---

type mockUsers struct {
	mu    sync.Mutex
	users map[uuid.UUID]*models.User
}

func newMockUsers(us ...*models.User) *mockUsers {
	m := &mockUsers{users: make(map[uuid.UUID]*models.User)}
	for _, u := range us {
		cp := *u
		m.users[u.ID] = &cp
	}
	return m
}

func (m *mockUsers) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *u
	return &cp, nil
}

func (m *mockUsers) GetByIDForUpdate(_ context.Context, _ pgx.Tx, id uuid.UUID) (*models.User, error) {
	return m.GetByID(nil, id)
}

func (m *mockUsers) DeductBalance(_ context.Context, _ pgx.Tx, id uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok || u.WalletBalance.LessThan(amount) {
		// Mirrors the conditional UPDATE matching no row.
		return decimal.Zero, pgx.ErrNoRows
	}
	u.WalletBalance = u.WalletBalance.Sub(amount)
	return u.WalletBalance, nil
}

func (m *mockUsers) AddBalance(_ context.Context, _ pgx.Tx, id uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return decimal.Zero, pgx.ErrNoRows
	}
	u.WalletBalance = u.WalletBalance.Add(amount)
	return u.WalletBalance, nil
}

func (m *mockUsers) PromoteToWriter(_ context.Context, _ pgx.Tx, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok && u.Role == models.RoleTrainee {
		u.Role = models.RoleWriter
	}
	return nil
}

func (m *mockUsers) balance(id uuid.UUID) decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users[id].WalletBalance
}

func (m *mockUsers) role(id uuid.UUID) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users[id].Role
}

// --- Task repo mock ---

type mockTasks struct {
	mu    sync.Mutex
	tasks map[uuid.UUID]*models.Task
}

func newMockTasks(ts ...*models.Task) *mockTasks {
	m := &mockTasks{tasks: make(map[uuid.UUID]*models.Task)}
	for _, t := range ts {
		cp := *t
		m.tasks[t.ID] = &cp
	}
	return m
}

func (m *mockTasks) GetByID(_ context.Context, id uuid.UUID) (*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *t
	return &cp, nil
}

func (m *mockTasks) LockIfOpen(_ context.Context, _ pgx.Tx, taskID, userID uuid.UUID, lockedAt time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[taskID]
	if !ok {
		return false, nil
	}
	if t.Status != models.TaskStatusOpen {
		return false, nil
	}
	t.Status = models.TaskStatusLocked
	uid := userID
	t.AssignedTo = &uid
	la := lockedAt
	t.LockedAt = &la
	return true, nil
}

func (m *mockTasks) Reopen(_ context.Context, _ pgx.Tx, taskID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.tasks[taskID]; ok {
		t.Status = models.TaskStatusOpen
		t.AssignedTo = nil
		t.LockedAt = nil
	}
	return nil
}

func (m *mockTasks) ReopenIfLockedBy(_ context.Context, _ pgx.Tx, taskID, userID uuid.UUID, lockedAt time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[taskID]
	if !ok || t.Status != models.TaskStatusLocked {
		return false, nil
	}
	if t.AssignedTo == nil || *t.AssignedTo != userID || t.LockedAt == nil || !t.LockedAt.Equal(lockedAt) {
		return false, nil
	}
	t.Status = models.TaskStatusOpen
	t.AssignedTo = nil
	t.LockedAt = nil
	return true, nil
}

func (m *mockTasks) CompleteIfAssigned(_ context.Context, _ pgx.Tx, taskID, userID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[taskID]
	if !ok || t.Status != models.TaskStatusLocked || t.AssignedTo == nil || *t.AssignedTo != userID {
		return false, nil
	}
	t.Status = models.TaskStatusCompleted
	t.AssignedTo = nil
	t.LockedAt = nil
	return true, nil
}

func (m *mockTasks) ReopenIfAssigned(_ context.Context, _ pgx.Tx, taskID, userID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[taskID]
	if !ok || t.Status != models.TaskStatusLocked || t.AssignedTo == nil || *t.AssignedTo != userID {
		return false, nil
	}
	t.Status = models.TaskStatusOpen
	t.AssignedTo = nil
	t.LockedAt = nil
	return true, nil
}

func (m *mockTasks) Complete(_ context.Context, _ pgx.Tx, taskID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.tasks[taskID]; ok {
		t.Status = models.TaskStatusCompleted
		t.AssignedTo = nil
		t.LockedAt = nil
	}
	return nil
}

func (m *mockTasks) get(id uuid.UUID) *models.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *m.tasks[id]
	return &cp
}

// --- Submission repo mock ---

type mockSubs struct {
	mu    sync.Mutex
	subs  map[uuid.UUID]*models.Submission
	tasks *mockTasks
}

func newMockSubs(tasks *mockTasks) *mockSubs {
	return &mockSubs{subs: make(map[uuid.UUID]*models.Submission), tasks: tasks}
}

func (m *mockSubs) CreateTx(_ context.Context, _ pgx.Tx, s *models.Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	cp.CreatedAt = time.Now()
	m.subs[s.ID] = &cp
	return nil
}

func (m *mockSubs) GetByID(_ context.Context, id uuid.UUID) (*models.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.subs[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *s
	return &cp, nil
}

func (m *mockSubs) UpdateStatusTx(_ context.Context, _ pgx.Tx, id uuid.UUID, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.subs[id]; ok {
		s.Status = status
	}
	return nil
}

func (m *mockSubs) CountApprovedAssessments(_ context.Context, _ pgx.Tx, userID uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.subs {
		if s.UserID != userID || s.Status != models.SubmissionStatusApproved {
			continue
		}
		if m.tasks.get(s.TaskID).Type == models.TaskTypeAssessment {
			n++
		}
	}
	return n, nil
}

// --- Ledger mock ---

type mockLedger struct {
	mu      sync.Mutex
	entries []*models.Transaction
}

func (m *mockLedger) AppendTx(_ context.Context, _ pgx.Tx, t *models.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *t
	m.entries = append(m.entries, &cp)
	return nil
}

func (m *mockLedger) byType(entryType string) []*models.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Transaction
	for _, e := range m.entries {
		if e.Type == entryType {
			out = append(out, e)
		}
	}
	return out
}

func (m *mockLedger) all() []*models.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.Transaction, len(m.entries))
	copy(out, m.entries)
	return out
}

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func trainee(balance string) *models.User {
	return &models.User{ID: uuid.New(), Role: models.RoleTrainee, WalletBalance: dec(balance)}
}

func writer(balance string) *models.User {
	return &models.User{ID: uuid.New(), Role: models.RoleWriter, WalletBalance: dec(balance)}
}

func openTask(taskType, deposit, reward string) *models.Task {
	return &models.Task{
		ID:               uuid.New(),
		Type:             taskType,
		Status:           models.TaskStatusOpen,
		DepositAmount:    dec(deposit),
		RewardAmount:     dec(reward),
		TimeLimitMinutes: 30,
	}
}
