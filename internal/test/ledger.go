package test

import (
	"context"
	"iter"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	domainErrors "github.com/polkiloo/pointledger/internal/domain/errors"
	"github.com/polkiloo/pointledger/internal/domain/model"
	"github.com/polkiloo/pointledger/internal/domain/repository"
)

type memoryTxKey struct{}

// MemoryLedger is an in-memory storage with the same guarantees as the
// PostgreSQL adapter: guarded debits, unique withdraw/refund entries per
// withdrawal and serialized transactions. A failed transaction undoes only
// its own writes; writes made outside it survive.
type MemoryLedger struct {
	mu   sync.Mutex
	txMu sync.Mutex

	balances map[uuid.UUID]model.Balance
	entries  []model.Transaction
	requests map[uuid.UUID]model.WithdrawalRequest

	// Fault hooks run before the corresponding write.
	AppendFn       func(model.Transaction) error
	CreateFn       func(model.WithdrawalRequest) error
	CreditFn       func(uuid.UUID, int64) error
	UpdateStatusFn func(model.WithdrawalRequest) error
}

// NewMemoryLedger constructs an empty ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		balances: make(map[uuid.UUID]model.Balance),
		requests: make(map[uuid.UUID]model.WithdrawalRequest),
	}
}

// Balances returns the balance store view.
func (m *MemoryLedger) Balances() repository.BalanceStore { return memoryBalances{m} }

// Transactions returns the transaction log view.
func (m *MemoryLedger) Transactions() repository.TransactionLog { return memoryLog{m} }

// Withdrawals returns the withdrawal repository view.
func (m *MemoryLedger) Withdrawals() repository.WithdrawalRepository { return memoryWithdrawals{m} }

// WithinTransaction serializes fn against other transactions.
func (m *MemoryLedger) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if txFrom(ctx) != nil {
		return fn(ctx)
	}
	m.txMu.Lock()
	defer m.txMu.Unlock()

	tx := &memoryTx{}
	if err := fn(context.WithValue(ctx, memoryTxKey{}, tx)); err != nil {
		m.mu.Lock()
		for i := len(tx.undo) - 1; i >= 0; i-- {
			tx.undo[i]()
		}
		m.mu.Unlock()
		return err
	}
	return nil
}

type memoryTx struct {
	undo []func()
}

func txFrom(ctx context.Context) *memoryTx {
	tx, _ := ctx.Value(memoryTxKey{}).(*memoryTx)
	return tx
}

// onRollback registers undo for the transaction in ctx, if any. Callers hold
// m.mu, and undo runs with m.mu held.
func onRollback(ctx context.Context, undo func()) {
	if tx := txFrom(ctx); tx != nil {
		tx.undo = append(tx.undo, undo)
	}
}

// Seed opens an account for user with points recorded as an earn entry.
func (m *MemoryLedger) Seed(userID uuid.UUID, points int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[userID] = model.Balance{UserID: userID, Points: points, UpdatedAt: time.Now().UTC()}
	if points != 0 {
		m.entries = append(m.entries, model.Transaction{
			ID:          uuid.New(),
			UserID:      userID,
			Amount:      points,
			Kind:        model.TransactionKindEarn,
			Description: "seed",
			CreatedAt:   time.Now().UTC(),
		})
	}
}

// Points returns the stored balance or -1 when the user is unknown.
func (m *MemoryLedger) Points(userID uuid.UUID) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.balances[userID]
	if !ok {
		return -1
	}
	return b.Points
}

// LedgerSum adds up the user's entries.
func (m *MemoryLedger) LedgerSum(userID uuid.UUID) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	var sum int64
	for _, e := range m.entries {
		if e.UserID == userID {
			sum += e.Amount
		}
	}
	return sum
}

// EntriesFor returns entries referencing withdrawalID with the given kind.
func (m *MemoryLedger) EntriesFor(withdrawalID uuid.UUID, kind model.TransactionKind) []model.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Transaction
	for _, e := range m.entries {
		if e.Kind == kind && e.RelatedWithdrawalID != nil && *e.RelatedWithdrawalID == withdrawalID {
			out = append(out, e)
		}
	}
	return out
}

// RequestCount returns the number of stored withdrawal requests.
func (m *MemoryLedger) RequestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// PutRequest stores req as is.
func (m *MemoryLedger) PutRequest(req model.WithdrawalRequest) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests[req.ID] = req
}

// AppendRaw stores entry without touching balances.
func (m *MemoryLedger) AppendRaw(entry model.Transaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
}

type memoryBalances struct{ m *MemoryLedger }

func (s memoryBalances) Get(_ context.Context, userID uuid.UUID) (*model.Balance, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	b, ok := s.m.balances[userID]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	return &b, nil
}

func (s memoryBalances) Open(ctx context.Context, userID uuid.UUID) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.balances[userID]; !ok {
		s.m.balances[userID] = model.Balance{UserID: userID, UpdatedAt: time.Now().UTC()}
		onRollback(ctx, func() { delete(s.m.balances, userID) })
	}
	return nil
}

func (s memoryBalances) TryDebit(ctx context.Context, userID uuid.UUID, amount int64) (bool, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	b, ok := s.m.balances[userID]
	if !ok {
		return false, domainErrors.ErrNotFound
	}
	if b.Points < amount {
		return false, nil
	}
	b.Points -= amount
	b.UpdatedAt = time.Now().UTC()
	s.m.balances[userID] = b
	onRollback(ctx, func() { s.m.adjust(userID, amount) })
	return true, nil
}

func (s memoryBalances) Credit(ctx context.Context, userID uuid.UUID, amount int64) error {
	if s.m.CreditFn != nil {
		if err := s.m.CreditFn(userID, amount); err != nil {
			return err
		}
	}
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	b, ok := s.m.balances[userID]
	if !ok {
		return domainErrors.ErrNotFound
	}
	b.Points += amount
	b.UpdatedAt = time.Now().UTC()
	s.m.balances[userID] = b
	onRollback(ctx, func() { s.m.adjust(userID, -amount) })
	return nil
}

// adjust applies delta to an existing balance. Callers hold m.mu.
func (m *MemoryLedger) adjust(userID uuid.UUID, delta int64) {
	if b, ok := m.balances[userID]; ok {
		b.Points += delta
		m.balances[userID] = b
	}
}

func (s memoryBalances) ListUsers(_ context.Context, after uuid.UUID, limit int) ([]uuid.UUID, error) {
	s.m.mu.Lock()
	ids := make([]uuid.UUID, 0, len(s.m.balances))
	for id := range s.m.balances {
		if id.String() > after.String() {
			ids = append(ids, id)
		}
	}
	s.m.mu.Unlock()

	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

type memoryLog struct{ m *MemoryLedger }

func (l memoryLog) Append(ctx context.Context, t *model.Transaction) error {
	if l.m.AppendFn != nil {
		if err := l.m.AppendFn(*t); err != nil {
			return err
		}
	}
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}

	l.m.mu.Lock()
	defer l.m.mu.Unlock()
	if _, ok := l.m.balances[t.UserID]; !ok {
		return domainErrors.ErrNotFound
	}
	for _, e := range l.m.entries {
		if e.ID == t.ID {
			return domainErrors.ErrAlreadyExists
		}
		unique := t.Kind == model.TransactionKindWithdraw || t.Kind == model.TransactionKindRefund
		if unique && e.Kind == t.Kind && e.RelatedWithdrawalID != nil && t.RelatedWithdrawalID != nil &&
			*e.RelatedWithdrawalID == *t.RelatedWithdrawalID {
			return domainErrors.ErrAlreadyExists
		}
	}
	l.m.entries = append(l.m.entries, *t)
	id := t.ID
	onRollback(ctx, func() {
		l.m.entries = slices.DeleteFunc(l.m.entries, func(e model.Transaction) bool { return e.ID == id })
	})
	return nil
}

func (l memoryLog) ListForUser(_ context.Context, userID uuid.UUID, opts repository.ListOptions) iter.Seq2[model.Transaction, error] {
	return func(yield func(model.Transaction, error) bool) {
		l.m.mu.Lock()
		type indexed struct {
			pos   int
			entry model.Transaction
		}
		var rows []indexed
		for i, e := range l.m.entries {
			if e.UserID == userID {
				rows = append(rows, indexed{pos: i, entry: e})
			}
		}
		l.m.mu.Unlock()

		sort.Slice(rows, func(i, j int) bool {
			if !rows[i].entry.CreatedAt.Equal(rows[j].entry.CreatedAt) {
				return rows[i].entry.CreatedAt.After(rows[j].entry.CreatedAt)
			}
			return rows[i].pos > rows[j].pos
		})
		for i, r := range rows {
			if opts.Limit > 0 && i >= opts.Limit {
				return
			}
			if !yield(r.entry, nil) {
				return
			}
		}
	}
}

func (l memoryLog) HasEntry(_ context.Context, withdrawalID uuid.UUID, kind model.TransactionKind) (bool, error) {
	l.m.mu.Lock()
	defer l.m.mu.Unlock()
	for _, e := range l.m.entries {
		if e.Kind == kind && e.RelatedWithdrawalID != nil && *e.RelatedWithdrawalID == withdrawalID {
			return true, nil
		}
	}
	return false, nil
}

func (l memoryLog) ListOrphanedWithdrawals(_ context.Context, olderThan time.Time, limit int) ([]model.Transaction, error) {
	l.m.mu.Lock()
	defer l.m.mu.Unlock()

	refunded := make(map[uuid.UUID]bool)
	for _, e := range l.m.entries {
		if e.Kind == model.TransactionKindRefund && e.RelatedWithdrawalID != nil {
			refunded[*e.RelatedWithdrawalID] = true
		}
	}
	var out []model.Transaction
	for _, e := range l.m.entries {
		if e.Kind != model.TransactionKindWithdraw || e.RelatedWithdrawalID == nil || !e.CreatedAt.Before(olderThan) {
			continue
		}
		if _, ok := l.m.requests[*e.RelatedWithdrawalID]; ok || refunded[*e.RelatedWithdrawalID] {
			continue
		}
		out = append(out, e)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

type memoryWithdrawals struct{ m *MemoryLedger }

func (w memoryWithdrawals) Create(ctx context.Context, req *model.WithdrawalRequest) error {
	if w.m.CreateFn != nil {
		if err := w.m.CreateFn(*req); err != nil {
			return err
		}
	}
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now().UTC()
	}

	w.m.mu.Lock()
	defer w.m.mu.Unlock()
	if _, ok := w.m.balances[req.UserID]; !ok {
		return domainErrors.ErrNotFound
	}
	if _, ok := w.m.requests[req.ID]; ok {
		return domainErrors.ErrAlreadyExists
	}
	if req.IdempotencyKey != nil {
		for _, existing := range w.m.requests {
			if existing.UserID == req.UserID && existing.IdempotencyKey != nil && *existing.IdempotencyKey == *req.IdempotencyKey {
				return domainErrors.ErrAlreadyExists
			}
		}
	}
	w.m.requests[req.ID] = *req
	id := req.ID
	onRollback(ctx, func() { delete(w.m.requests, id) })
	return nil
}

func (w memoryWithdrawals) Get(_ context.Context, id uuid.UUID) (*model.WithdrawalRequest, error) {
	w.m.mu.Lock()
	defer w.m.mu.Unlock()
	req, ok := w.m.requests[id]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	return &req, nil
}

func (w memoryWithdrawals) GetForUpdate(ctx context.Context, id uuid.UUID) (*model.WithdrawalRequest, error) {
	return w.Get(ctx, id)
}

func (w memoryWithdrawals) FindByIdempotencyKey(_ context.Context, userID uuid.UUID, key string) (*model.WithdrawalRequest, error) {
	w.m.mu.Lock()
	defer w.m.mu.Unlock()
	for _, req := range w.m.requests {
		if req.UserID == userID && req.IdempotencyKey != nil && *req.IdempotencyKey == key {
			return &req, nil
		}
	}
	return nil, domainErrors.ErrNotFound
}

func (w memoryWithdrawals) ListByUser(_ context.Context, userID uuid.UUID) ([]model.WithdrawalRequest, error) {
	out := w.filter(func(r model.WithdrawalRequest) bool { return r.UserID == userID })
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (w memoryWithdrawals) ListByStatus(_ context.Context, status model.WithdrawalStatus, limit int) ([]model.WithdrawalRequest, error) {
	out := w.filter(func(r model.WithdrawalRequest) bool { return r.Status == status })
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (w memoryWithdrawals) filter(keep func(model.WithdrawalRequest) bool) []model.WithdrawalRequest {
	w.m.mu.Lock()
	defer w.m.mu.Unlock()
	var out []model.WithdrawalRequest
	for _, r := range w.m.requests {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

func (w memoryWithdrawals) UpdateStatus(ctx context.Context, req *model.WithdrawalRequest, expected model.WithdrawalStatus) (bool, error) {
	if w.m.UpdateStatusFn != nil {
		if err := w.m.UpdateStatusFn(*req); err != nil {
			return false, err
		}
	}
	w.m.mu.Lock()
	defer w.m.mu.Unlock()
	stored, ok := w.m.requests[req.ID]
	if !ok || stored.Status != expected {
		return false, nil
	}
	prev := stored
	onRollback(ctx, func() {
		if cur, ok := w.m.requests[prev.ID]; ok {
			cur.Status, cur.ProcessedAt, cur.ProcessedBy, cur.Notes = prev.Status, prev.ProcessedAt, prev.ProcessedBy, prev.Notes
			w.m.requests[prev.ID] = cur
		}
	})
	stored.Status = req.Status
	stored.ProcessedAt = req.ProcessedAt
	stored.ProcessedBy = req.ProcessedBy
	stored.Notes = req.Notes
	w.m.requests[req.ID] = stored
	return true, nil
}

var (
	_ repository.BalanceStore         = memoryBalances{}
	_ repository.TransactionLog       = memoryLog{}
	_ repository.WithdrawalRepository = memoryWithdrawals{}
	_ repository.Transactor           = (*MemoryLedger)(nil)
	_ repository.Factory              = (*MemoryLedger)(nil)
)
