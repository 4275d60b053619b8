package lending

import (
	"context"
	"sync"
	"time"

	"neighborly/models"
)

// memStore is an in-memory Store. InTx works on a copy and swaps it in only
// when fn succeeds, so a failed borrow leaves no trace.
type memStore struct {
	mu    sync.Mutex
	state memState
	// failOn makes the named Tx method return errInjected.
	failOn string
}

type memState struct {
	items   map[string]models.Item
	records map[string]models.BorrowRecord
	txs     map[string]models.Transaction
	stats   map[string]models.ItemStat
	outbox  []memEvent
}

type memEvent struct {
	Topic   string
	Key     string
	Payload any
}

type injectedError struct{}

func (injectedError) Error() string { return "injected failure" }

var errInjected = injectedError{}

func newMemStore() *memStore {
	return &memStore{state: memState{
		items:   map[string]models.Item{},
		records: map[string]models.BorrowRecord{},
		txs:     map[string]models.Transaction{},
		stats:   map[string]models.ItemStat{},
	}}
}

func (s memState) clone() memState {
	c := memState{
		items:   make(map[string]models.Item, len(s.items)),
		records: make(map[string]models.BorrowRecord, len(s.records)),
		txs:     make(map[string]models.Transaction, len(s.txs)),
		stats:   make(map[string]models.ItemStat, len(s.stats)),
		outbox:  append([]memEvent(nil), s.outbox...),
	}
	for k, v := range s.items {
		v.BorrowerHistory = append([]string(nil), v.BorrowerHistory...)
		c.items[k] = v
	}
	for k, v := range s.records {
		c.records[k] = v
	}
	for k, v := range s.txs {
		c.txs[k] = v
	}
	for k, v := range s.stats {
		c.stats[k] = v
	}
	return c
}

func (m *memStore) InTx(_ context.Context, fn func(tx Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	work := m.state.clone()
	if err := fn(&memTx{s: &work, failOn: m.failOn}); err != nil {
		return err
	}
	m.state = work
	return nil
}

func (m *memStore) ListBorrowRecords(_ context.Context, q BorrowQuery) ([]models.BorrowRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.BorrowRecord
	for _, r := range m.state.records {
		if q.BorrowerID != "" && r.BorrowerID != q.BorrowerID {
			continue
		}
		if q.Status == "open" && r.IsReturned || q.Status == "returned" && !r.IsReturned {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (m *memStore) ItemStatsByLender(_ context.Context, lenderID string) ([]models.ItemStat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.ItemStat
	for _, st := range m.state.stats {
		if st.LenderID == lenderID {
			out = append(out, st)
		}
	}
	return out, nil
}

func (m *memStore) item(id string) models.Item {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.items[id]
}

func (m *memStore) record(id string) models.BorrowRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.records[id]
}

func (m *memStore) snapshot() memState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.clone()
}

type memTx struct {
	s      *memState
	failOn string
}

func (t *memTx) fail(op string) error {
	if t.failOn == op {
		return errInjected
	}
	return nil
}

func (t *memTx) LockItem(id string) (*models.Item, error) {
	it, ok := t.s.items[id]
	if !ok || it.DeletedAt.Valid {
		return nil, models.ErrNotFound
	}
	return &it, nil
}

func (t *memTx) FindTransaction(id string) (*models.Transaction, error) {
	tr, ok := t.s.txs[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &tr, nil
}

func (t *memTx) TransactionInUse(id string) (bool, error) {
	for _, r := range t.s.records {
		if r.TransactionID != nil && *r.TransactionID == id {
			return true, nil
		}
	}
	return false, nil
}

func (t *memTx) MarkItemBorrowed(itemID, borrowerID string, until time.Time) error {
	if err := t.fail("MarkItemBorrowed"); err != nil {
		return err
	}
	it := t.s.items[itemID]
	if !it.IsAvailable {
		return models.ErrStaleState
	}
	b := borrowerID
	it.IsAvailable = false
	it.CurrentBorrowerID = &b
	it.AvailableFrom = until
	it.BorrowerHistory = append(it.BorrowerHistory, borrowerID)
	t.s.items[itemID] = it
	return nil
}

func (t *memTx) CreateBorrowRecord(rec *models.BorrowRecord) error {
	if err := t.fail("CreateBorrowRecord"); err != nil {
		return err
	}
	t.s.records[rec.ID] = *rec
	return nil
}

func (t *memTx) BumpItemStat(itemID, lenderID string, profit int64) error {
	if err := t.fail("BumpItemStat"); err != nil {
		return err
	}
	key := itemID + "/" + lenderID
	st, ok := t.s.stats[key]
	if !ok {
		st = models.ItemStat{ID: key, ItemID: itemID, LenderID: lenderID}
	}
	st.BorrowCount++
	st.TotalProfit += profit
	t.s.stats[key] = st
	return nil
}

func (t *memTx) LockBorrowRecord(id string) (*models.BorrowRecord, error) {
	r, ok := t.s.records[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &r, nil
}

func (t *memTx) MarkItemReturned(itemID, borrowerID string, at time.Time) error {
	it := t.s.items[itemID]
	if it.CurrentBorrowerID == nil || *it.CurrentBorrowerID != borrowerID {
		return models.ErrStaleState
	}
	it.IsAvailable = true
	it.CurrentBorrowerID = nil
	it.AvailableFrom = at
	t.s.items[itemID] = it
	return nil
}

func (t *memTx) MarkRecordReturned(recordID string, at time.Time) error {
	if err := t.fail("MarkRecordReturned"); err != nil {
		return err
	}
	r := t.s.records[recordID]
	if r.IsReturned {
		return models.ErrStaleState
	}
	r.IsReturned = true
	r.ReturnedAt = &at
	t.s.records[recordID] = r
	return nil
}

func (t *memTx) Emit(topic, key string, payload any) error {
	t.s.outbox = append(t.s.outbox, memEvent{Topic: topic, Key: key, Payload: payload})
	return nil
}
