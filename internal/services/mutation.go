package services

import (
	"context"
	"strings"

	"chitieu/internal/amqp"
	"chitieu/internal/cache"
	"chitieu/internal/core"
	"chitieu/internal/log"
)

// State is the mutation coordinator state.
type State string

const (
	StateIdle       State = "idle"
	StateSubmitting State = "submitting"
)

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// MutationResult reports an applied change and the refreshed active view.
// A failed refresh does not undo the change; it is reported in RefreshError.
type MutationResult struct {
	Transaction  core.Transaction `json:"transaction"`
	Month        string           `json:"month"`
	Tab          Tab              `json:"tab"`
	Refreshed    *PageResult      `json:"refreshed,omitempty"`
	RefreshError string           `json:"refreshError,omitempty"`
}

func (s *Session) acquire() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateSubmitting {
		return ErrMutationInProgress
	}
	s.state = StateSubmitting
	return nil
}

func (s *Session) release() {
	s.mu.Lock()
	s.state = StateIdle
	s.mu.Unlock()
}

// Add validates and creates a transaction. With the daily tab active the
// daily view moves to the new transaction's date.
func (s *Session) Add(ctx context.Context, in core.TransactionInput) (MutationResult, error) {
	tx, month, err := s.prepare(in)
	if err != nil {
		return MutationResult{}, err
	}
	tx.ID = ""
	if err := s.acquire(); err != nil {
		return MutationResult{}, err
	}
	defer s.release()

	if err := s.remote.AddTransaction(ctx, tx); err != nil {
		return MutationResult{}, s.mutationFailed(ctx, log.OpCreate, tx, err)
	}

	s.mu.Lock()
	if s.tab == TabDaily && s.dailyDate != tx.Date {
		s.dailyDate = tx.Date
		s.cursors[ViewDaily].Reset()
	}
	s.mu.Unlock()
	return s.applied(ctx, amqp.ChangeAdded, log.OpCreate, tx, month), nil
}

// Update validates and rewrites a transaction in the month partition of
// its date.
func (s *Session) Update(ctx context.Context, in core.TransactionInput) (MutationResult, error) {
	if strings.TrimSpace(in.ID.String()) == "" {
		return MutationResult{}, core.Invalid("id", core.ErrMissingID)
	}
	tx, month, err := s.prepare(in)
	if err != nil {
		return MutationResult{}, err
	}
	if err := s.acquire(); err != nil {
		return MutationResult{}, err
	}
	defer s.release()

	if err := s.remote.UpdateTransaction(ctx, tx, month); err != nil {
		return MutationResult{}, s.mutationFailed(ctx, log.OpUpdate, tx, err)
	}
	return s.applied(ctx, amqp.ChangeUpdated, log.OpUpdate, tx, month), nil
}

// Delete removes the transaction with id. It must be on display in the
// active view, which supplies its date.
func (s *Session) Delete(ctx context.Context, id core.ID) (MutationResult, error) {
	if strings.TrimSpace(id.String()) == "" {
		return MutationResult{}, core.Invalid("id", core.ErrMissingID)
	}
	tx, ok := s.lookupActive(id)
	if !ok {
		return MutationResult{}, ErrTransactionNotFound
	}
	month, err := core.MonthOf(tx.Date)
	if err != nil {
		return MutationResult{}, err
	}
	if err := s.acquire(); err != nil {
		return MutationResult{}, err
	}
	defer s.release()

	if err := s.remote.DeleteTransaction(ctx, id, month); err != nil {
		return MutationResult{}, s.mutationFailed(ctx, log.OpDelete, tx, err)
	}
	return s.applied(ctx, amqp.ChangeDeleted, log.OpDelete, tx, month), nil
}

func (s *Session) prepare(in core.TransactionInput) (core.Transaction, string, error) {
	if err := in.Validate(s.now()); err != nil {
		return core.Transaction{}, "", err
	}
	tx, err := in.ToTransaction()
	if err != nil {
		return core.Transaction{}, "", err
	}
	month, err := core.MonthOf(tx.Date)
	if err != nil {
		return core.Transaction{}, "", err
	}
	return tx, month, nil
}

// lookupActive finds id in the cached data of the active view.
func (s *Session) lookupActive(id core.ID) (core.Transaction, bool) {
	s.mu.Lock()
	tab, daily, year, month, q, category := s.tab, s.dailyDate, s.monthYear, s.monthMonth, s.searchQuery, s.category
	s.mu.Unlock()

	var txs []core.Transaction
	switch tab {
	case TabDaily:
		txs, _ = s.cache.Daily(daily)
	case TabMonthly:
		txs, _ = s.cache.Monthly(cache.MonthlyKey(year, month))
	case TabSearch:
		if q != nil {
			p, _ := s.cache.Search(q.Fingerprint())
			txs = p.Transactions
		}
	case TabCharts:
		if category != "" {
			d, _ := s.cache.CategoryDetail(category)
			txs = d.Transactions
		}
	}
	return core.FindByID(txs, id)
}

func (s *Session) mutationFailed(ctx context.Context, op string, tx core.Transaction, err error) error {
	s.mutLogger.LogError(ctx, "Mutation failed", err, op,
		log.NewFields().
			WithTransaction(tx.ID.String(), tx.Date, int64(tx.Amount), tx.Category).
			WithErrorKind(string(Kind(err))))
	return err
}

// applied runs after the store accepted a change: caches are invalidated,
// the active view is fetched again and the change is published.
func (s *Session) applied(ctx context.Context, kind amqp.ChangeKind, op string, tx core.Transaction, month string) MutationResult {
	logger := s.mutLogger
	s.cache.InvalidateAfterMutation()
	logger.InfoContext(ctx, "Mutation applied", log.NewFields().
		WithOperation(op).
		WithTransaction(tx.ID.String(), tx.Date, int64(tx.Amount), tx.Category).
		ToSlice()...)

	res := MutationResult{Transaction: tx, Month: month, Tab: s.ActiveTab()}
	refreshed, err := s.refreshActive(ctx, res.Tab)
	if err != nil {
		res.RefreshError = err.Error()
	} else {
		res.Refreshed = refreshed
	}

	if s.publisher != nil {
		msg := amqp.NewTransactionChange(kind, s.remote.SheetID(), tx, month)
		msg.Origin = s.id
		if err := s.publisher.PublishChange(ctx, msg); err != nil {
			logger.LogError(ctx, "Failed to publish change", err, log.OpPublish, nil)
		}
	}
	return res
}

// refreshActive re-fetches the view of tab. Charts and keywords are left
// alone.
func (s *Session) refreshActive(ctx context.Context, tab Tab) (*PageResult, error) {
	s.mu.Lock()
	daily, year, month, q := s.dailyDate, s.monthYear, s.monthMonth, s.searchQuery
	s.mu.Unlock()

	switch {
	case tab == TabDaily && daily != "":
		v, err := s.loadDaily(ctx, daily)
		if err != nil {
			return nil, err
		}
		return &PageResult{View: ViewDaily, Daily: &v}, nil
	case tab == TabMonthly && month != 0:
		v, err := s.loadMonthly(ctx, year, month)
		if err != nil {
			return nil, err
		}
		return &PageResult{View: ViewMonthly, Monthly: &v}, nil
	case tab == TabSearch && q != nil:
		v, err := s.loadSearch(ctx, *q)
		if err != nil {
			return nil, err
		}
		return &PageResult{View: ViewSearch, Search: &v}, nil
	}
	return nil, nil
}
