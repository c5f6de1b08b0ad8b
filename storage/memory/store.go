package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/stagefront/concession_backend/models"
	"github.com/stagefront/concession_backend/storage"
)

// Store is an in-memory implementation of storage.LedgerStore. It backs the
// recompute engine's unit tests and doubles as a reference for the atomic-swap
// write strategy: InTransaction runs against a deep copy and publishes it only
// on success, so readers see either the pre- or post-correction chain.
type Store struct {
	mu sync.Mutex
	st *state
}

func NewStore() *Store {
	return &Store{st: newState()}
}

type state struct {
	nextLedgerId int
	ledgers      []models.MonthlyLedger
	entries      map[int][]models.DailyEntry // ledger id -> ascending by date
}

func newState() *state {
	return &state{
		nextLedgerId: 1,
		entries:      make(map[int][]models.DailyEntry),
	}
}

func (st *state) clone() *state {
	c := &state{
		nextLedgerId: st.nextLedgerId,
		ledgers:      append([]models.MonthlyLedger(nil), st.ledgers...),
		entries:      make(map[int][]models.DailyEntry, len(st.entries)),
	}
	for id, es := range st.entries {
		cp := append([]models.DailyEntry(nil), es...)
		for i := range cp {
			if cp[i].UsedStock != nil {
				v := *cp[i].UsedStock
				cp[i].UsedStock = &v
			}
		}
		c.entries[id] = cp
	}
	return c
}

func (s *Store) GetLedger(ctx context.Context, tenantId string, productId, year, month int) (*models.MonthlyLedger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.getLedger(tenantId, productId, year, month), nil
}

func (s *Store) CreateLedger(ctx context.Context, ledger *models.MonthlyLedger) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.createLedger(ledger)
}

func (s *Store) SaveLedger(ctx context.Context, ledger *models.MonthlyLedger) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.saveLedger(ledger)
}

func (s *Store) UpsertEntry(ctx context.Context, entry *models.DailyEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.upsertEntry(entry)
}

func (s *Store) SaveEntries(ctx context.Context, entries []*models.DailyEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.saveEntries(entries)
}

func (s *Store) ListEntries(ctx context.Context, ledgerId int) ([]*models.DailyEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.listEntries(ledgerId), nil
}

func (s *Store) PreviousLedger(ctx context.Context, tenantId string, productId, year, month int) (*models.MonthlyLedger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.neighborLedger(tenantId, productId, year, month, -1), nil
}

func (s *Store) NextLedger(ctx context.Context, tenantId string, productId, year, month int) (*models.MonthlyLedger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.neighborLedger(tenantId, productId, year, month, +1), nil
}

func (s *Store) ListLedgers(ctx context.Context, tenantId string, productId int) ([]*models.MonthlyLedger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.listLedgers(tenantId, productId), nil
}

func (s *Store) ListLedgersByMonth(ctx context.Context, tenantId string, year, month int) ([]*models.MonthlyLedger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.listLedgersByMonth(tenantId, year, month), nil
}

func (s *Store) ListLedgerProducts(ctx context.Context, tenantId string) ([]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.listLedgerProducts(tenantId), nil
}

func (s *Store) ListAvailableDates(ctx context.Context, tenantId string, productId int) ([]time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.listAvailableDates(tenantId, productId), nil
}

// InTransaction clones the state, runs fn against the clone and swaps it in on
// success. An error (or panic) discards the clone entirely.
func (s *Store) InTransaction(ctx context.Context, fn func(storage.LedgerStore) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.st.clone()
	if err := fn(&txStore{st: next}); err != nil {
		return err
	}
	s.st = next
	return nil
}

// txStore operates directly on a transaction clone; the outer mutex is held
// for the whole transaction, so no locking is needed here.
type txStore struct {
	st *state
}

func (t *txStore) GetLedger(ctx context.Context, tenantId string, productId, year, month int) (*models.MonthlyLedger, error) {
	return t.st.getLedger(tenantId, productId, year, month), nil
}

func (t *txStore) CreateLedger(ctx context.Context, ledger *models.MonthlyLedger) error {
	return t.st.createLedger(ledger)
}

func (t *txStore) SaveLedger(ctx context.Context, ledger *models.MonthlyLedger) error {
	return t.st.saveLedger(ledger)
}

func (t *txStore) UpsertEntry(ctx context.Context, entry *models.DailyEntry) error {
	return t.st.upsertEntry(entry)
}

func (t *txStore) SaveEntries(ctx context.Context, entries []*models.DailyEntry) error {
	return t.st.saveEntries(entries)
}

func (t *txStore) ListEntries(ctx context.Context, ledgerId int) ([]*models.DailyEntry, error) {
	return t.st.listEntries(ledgerId), nil
}

func (t *txStore) PreviousLedger(ctx context.Context, tenantId string, productId, year, month int) (*models.MonthlyLedger, error) {
	return t.st.neighborLedger(tenantId, productId, year, month, -1), nil
}

func (t *txStore) NextLedger(ctx context.Context, tenantId string, productId, year, month int) (*models.MonthlyLedger, error) {
	return t.st.neighborLedger(tenantId, productId, year, month, +1), nil
}

func (t *txStore) ListLedgers(ctx context.Context, tenantId string, productId int) ([]*models.MonthlyLedger, error) {
	return t.st.listLedgers(tenantId, productId), nil
}

func (t *txStore) ListLedgersByMonth(ctx context.Context, tenantId string, year, month int) ([]*models.MonthlyLedger, error) {
	return t.st.listLedgersByMonth(tenantId, year, month), nil
}

func (t *txStore) ListLedgerProducts(ctx context.Context, tenantId string) ([]int, error) {
	return t.st.listLedgerProducts(tenantId), nil
}

func (t *txStore) ListAvailableDates(ctx context.Context, tenantId string, productId int) ([]time.Time, error) {
	return t.st.listAvailableDates(tenantId, productId), nil
}

// Nested transactions join the ambient one.
func (t *txStore) InTransaction(ctx context.Context, fn func(storage.LedgerStore) error) error {
	return fn(t)
}

func (st *state) getLedger(tenantId string, productId, year, month int) *models.MonthlyLedger {
	for i := range st.ledgers {
		l := st.ledgers[i]
		if l.TenantId == tenantId && l.ProductId == productId && l.Year == year && l.Month == month {
			cp := l
			return &cp
		}
	}
	return nil
}

func (st *state) createLedger(ledger *models.MonthlyLedger) error {
	ledger.ID = st.nextLedgerId
	st.nextLedgerId++
	if ledger.CreatedAt.IsZero() {
		ledger.CreatedAt = time.Now().UTC()
	}
	ledger.UpdatedAt = time.Now().UTC()
	st.ledgers = append(st.ledgers, *ledger)
	return nil
}

func (st *state) saveLedger(ledger *models.MonthlyLedger) error {
	ledger.UpdatedAt = time.Now().UTC()
	for i := range st.ledgers {
		if st.ledgers[i].ID == ledger.ID {
			st.ledgers[i] = *ledger
			return nil
		}
	}
	st.ledgers = append(st.ledgers, *ledger)
	return nil
}

func (st *state) upsertEntry(entry *models.DailyEntry) error {
	es := st.entries[entry.LedgerId]
	for i := range es {
		if es[i].EntryDate.Equal(entry.EntryDate) {
			// Amend in place: the stored row keeps its identity.
			entry.ID = es[i].ID
			entry.CreatedAt = es[i].CreatedAt
			entry.UpdatedAt = time.Now().UTC()
			es[i] = *entry
			return nil
		}
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	entry.UpdatedAt = time.Now().UTC()
	idx := sort.Search(len(es), func(i int) bool {
		return es[i].EntryDate.After(entry.EntryDate)
	})
	es = append(es, models.DailyEntry{})
	copy(es[idx+1:], es[idx:])
	es[idx] = *entry
	st.entries[entry.LedgerId] = es
	return nil
}

func (st *state) saveEntries(entries []*models.DailyEntry) error {
	for _, e := range entries {
		if err := st.upsertEntry(e); err != nil {
			return err
		}
	}
	return nil
}

func (st *state) listEntries(ledgerId int) []*models.DailyEntry {
	es := st.entries[ledgerId]
	out := make([]*models.DailyEntry, len(es))
	for i := range es {
		cp := es[i]
		out[i] = &cp
	}
	return out
}

func (st *state) neighborLedger(tenantId string, productId, year, month, direction int) *models.MonthlyLedger {
	var best *models.MonthlyLedger
	target := year*12 + (month - 1)
	for i := range st.ledgers {
		l := st.ledgers[i]
		if l.TenantId != tenantId || l.ProductId != productId {
			continue
		}
		key := l.Year*12 + (l.Month - 1)
		if direction < 0 && key >= target {
			continue
		}
		if direction > 0 && key <= target {
			continue
		}
		if best == nil ||
			(direction < 0 && key > best.Year*12+(best.Month-1)) ||
			(direction > 0 && key < best.Year*12+(best.Month-1)) {
			cp := l
			best = &cp
		}
	}
	return best
}

func (st *state) listLedgers(tenantId string, productId int) []*models.MonthlyLedger {
	var out []*models.MonthlyLedger
	for i := range st.ledgers {
		l := st.ledgers[i]
		if l.TenantId == tenantId && l.ProductId == productId {
			cp := l
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Month < out[j].Month
	})
	return out
}

func (st *state) listLedgersByMonth(tenantId string, year, month int) []*models.MonthlyLedger {
	var out []*models.MonthlyLedger
	for i := range st.ledgers {
		l := st.ledgers[i]
		if l.TenantId == tenantId && l.Year == year && l.Month == month {
			cp := l
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductId < out[j].ProductId })
	return out
}

func (st *state) listLedgerProducts(tenantId string) []int {
	seen := make(map[int]bool)
	var out []int
	for i := range st.ledgers {
		l := st.ledgers[i]
		if l.TenantId == tenantId && !seen[l.ProductId] {
			seen[l.ProductId] = true
			out = append(out, l.ProductId)
		}
	}
	sort.Ints(out)
	return out
}

func (st *state) listAvailableDates(tenantId string, productId int) []time.Time {
	seen := make(map[time.Time]bool)
	var out []time.Time
	for i := range st.ledgers {
		l := st.ledgers[i]
		if l.TenantId != tenantId || l.ProductId != productId {
			continue
		}
		for _, e := range st.entries[l.ID] {
			if !seen[e.EntryDate] {
				seen[e.EntryDate] = true
				out = append(out, e.EntryDate)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

var _ storage.LedgerStore = (*Store)(nil)
var _ storage.LedgerStore = (*txStore)(nil)
