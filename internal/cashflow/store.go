package cashflow

import (
	"context"
	"fmt"
	"sync"

	"cashlens/internal/common"
	"cashlens/internal/model"
	"cashlens/internal/service"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// State is the store's load state.
type State int

// Store states. A load resolves to Ready only when every fetch succeeds.
const (
	StateLoading State = iota
	StateReady
	StateFailed
)

// Store caches the cash-flow backend's state for the UI. The cache is only
// ever written from server responses: mutations update the balance from the
// server's echo and re-derive the movement list with a follow-up fetch, so
// server-side rounding, validation, or dedup can never drift from what the
// user sees. The store lives for one mount of the cash-flow screen and is
// discarded on navigation away.
type Store struct {
	err           error
	api           service.CashFlowAPI
	denominations []model.Denomination
	movements     []model.Movement
	balance       model.Balance
	state         State
	mu            sync.Mutex
}

// NewStore creates a store over the given backend.
func NewStore(api service.CashFlowAPI) *Store {
	return &Store{api: api, state: StateLoading}
}

// Load fetches balance, denominations, and movements concurrently. All three
// must succeed for the store to become Ready; otherwise it is Failed with the
// first error and the other responses are discarded.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	s.state = StateLoading
	s.err = nil
	s.mu.Unlock()

	var (
		balance       model.Balance
		denominations []model.Denomination
		movements     []model.Movement
	)

	g := new(errgroup.Group)
	g.Go(func() error {
		var err error
		balance, err = s.api.Balance(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		denominations, err = s.api.Denominations(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		movements, err = s.api.Movements(ctx)
		return err
	})

	if err := g.Wait(); err != nil {
		s.mu.Lock()
		s.state = StateFailed
		s.err = err
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	s.state = StateReady
	s.balance = balance
	s.denominations = denominations
	s.movements = movements
	s.mu.Unlock()
	return nil
}

// Refresh re-enters Loading and repeats the full fetch set.
func (s *Store) Refresh(ctx context.Context) error {
	return s.Load(ctx)
}

// AddMovement records a manual movement. The balance comes from the server's
// echo and the movement list is re-fetched afterwards; the cache is never
// updated with an optimistic local insert.
func (s *Store) AddMovement(ctx context.Context, amount decimal.Decimal, t model.MovementType) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("%w: amount must be positive", common.ErrValidation)
	}
	if !t.Valid() {
		return fmt.Errorf("%w: unknown movement type %q", common.ErrValidation, t)
	}

	balance, err := s.api.AddMovement(ctx, amount, t)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.balance = balance
	s.mu.Unlock()

	return s.refetchMovements(ctx)
}

// EditMovement replaces a movement's amount. Validation happens before any
// network call: the new amount must be positive and different from the
// current one.
func (s *Store) EditMovement(ctx context.Context, id int64, newAmount decimal.Decimal) error {
	if newAmount.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("%w: amount must be positive", common.ErrValidation)
	}

	current, ok := s.movementByID(id)
	if !ok {
		return fmt.Errorf("%w: unknown movement %d", common.ErrValidation, id)
	}
	if newAmount.Equal(current.Amount) {
		return fmt.Errorf("%w: amount is unchanged", common.ErrValidation)
	}

	if _, err := s.api.EditMovement(ctx, id, newAmount); err != nil {
		return err
	}

	// The edit shifts the server-side balance too.
	balance, err := s.api.Balance(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.balance = balance
	s.mu.Unlock()

	return s.refetchMovements(ctx)
}

// AddFromScan credits the cash box with a scanned banknote and refreshes the
// caches the server changed: balance (echo), movements, and denominations.
func (s *Store) AddFromScan(ctx context.Context, value decimal.Decimal) error {
	if value.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("%w: amount must be positive", common.ErrValidation)
	}

	balance, err := s.api.AddFromScan(ctx, value)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.balance = balance
	s.mu.Unlock()

	denominations, err := s.api.Denominations(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.denominations = denominations
	s.mu.Unlock()

	return s.refetchMovements(ctx)
}

func (s *Store) refetchMovements(ctx context.Context) error {
	movements, err := s.api.Movements(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.movements = movements
	s.mu.Unlock()
	return nil
}

func (s *Store) movementByID(id int64) (model.Movement, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.movements {
		if m.ID == id {
			return m, true
		}
	}
	return model.Movement{}, false
}

// State returns the current load state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the error that put the store into Failed, if any.
func (s *Store) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Balance returns the cached balance.
func (s *Store) Balance() model.Balance {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balance
}

// Denominations returns a copy of the cached denomination breakdown.
func (s *Store) Denominations() []model.Denomination {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Denomination, len(s.denominations))
	copy(out, s.denominations)
	return out
}

// Movements returns a copy of the cached movement history.
func (s *Store) Movements() []model.Movement {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Movement, len(s.movements))
	copy(out, s.movements)
	return out
}
