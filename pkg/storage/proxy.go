package storage

import (
	"Prazo-Certo/entities"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type Backend string

const (
	BackendPostgres Backend = "postgres"
	BackendFirebase Backend = "firebase"
)

func ParseBackend(s string) (Backend, error) {
	switch Backend(strings.ToLower(strings.TrimSpace(s))) {
	case BackendPostgres:
		return BackendPostgres, nil
	case BackendFirebase:
		return BackendFirebase, nil
	default:
		return "", fmt.Errorf("unknown storage provider %q", s)
	}
}

// Status is a snapshot of the Proxy state.
type Status struct {
	Nominal          Backend    `json:"nominal"`
	Effective        Backend    `json:"effective"`
	RelationalReady  bool       `json:"relational_ready"`
	Failovers        int        `json:"failovers"`
	LastFailure      string     `json:"last_failure,omitempty"`
	LastFailureAt    *time.Time `json:"last_failure_at,omitempty"`
	LastFailureOp    string     `json:"last_failure_op,omitempty"`
	Recovering       bool       `json:"recovering"`
	RecoveryAttempts int        `json:"recovery_attempts"`
}

// Proxy is the Store the application uses. It sends every call to the
// effective backend; when the relational backend fails, it switches to the
// hierarchical backend for good and repeats the failed call there once.
// Only SetProvider or an enabled RecoveryPolicy switch it back.
type Proxy struct {
	relational   Store
	hierarchical Store
	logger       zerolog.Logger
	clock        Clock
	policy       RecoveryPolicy

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu               sync.RWMutex
	nominal          Backend
	effective        Backend
	failovers        int
	lastFailure      error
	lastFailureAt    time.Time
	lastFailureOp    string
	stopRecovery     context.CancelFunc
	recoveryAttempts int
}

var _ Store = (*Proxy)(nil)

// NewProxy needs a hierarchical store. A nil relational store pins the Proxy
// to the hierarchical backend.
func NewProxy(relational, hierarchical Store, nominal Backend, opts ...Option) *Proxy {
	o := buildOptions(opts)
	ctx, cancel := context.WithCancel(context.Background())

	p := &Proxy{
		relational:   relational,
		hierarchical: hierarchical,
		logger:       o.logger.With().Str("component", "storage-proxy").Logger(),
		clock:        o.clock,
		policy:       o.recovery,
		ctx:          ctx,
		cancel:       cancel,
		nominal:      nominal,
		effective:    nominal,
	}
	if relational == nil {
		p.effective = BackendFirebase
	}
	return p
}

// Start runs the startup probe. A configured relational backend that does not
// answer leaves the Proxy on the hierarchical backend.
func (p *Proxy) Start(ctx context.Context) Status {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.nominal != BackendPostgres {
		p.effective = BackendFirebase
		p.logger.Info().Str("effective", string(p.effective)).Msg("storage started")
		return p.statusLocked()
	}
	if p.relational == nil {
		p.effective = BackendFirebase
		p.logger.Warn().Msg("relational backend not configured, using hierarchical backend")
		return p.statusLocked()
	}

	if err := p.relational.Ping(ctx); err != nil {
		p.effective = BackendFirebase
		p.recordFailureLocked("startup-probe", err)
		p.logger.Warn().Err(err).
			Str("from", string(BackendPostgres)).
			Str("to", string(BackendFirebase)).
			Msg("relational backend unreachable at startup")
		p.startRecoveryLocked()
		return p.statusLocked()
	}

	p.effective = BackendPostgres
	p.logger.Info().Str("effective", string(p.effective)).Msg("storage started")
	return p.statusLocked()
}

func (p *Proxy) Status() Status {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.statusLocked()
}

func (p *Proxy) statusLocked() Status {
	s := Status{
		Nominal:          p.nominal,
		Effective:        p.effective,
		RelationalReady:  p.relational != nil,
		Failovers:        p.failovers,
		LastFailureOp:    p.lastFailureOp,
		Recovering:       p.stopRecovery != nil,
		RecoveryAttempts: p.recoveryAttempts,
	}
	if p.lastFailure != nil {
		s.LastFailure = p.lastFailure.Error()
		at := p.lastFailureAt
		s.LastFailureAt = &at
	}
	return s
}

// SetProvider changes the nominal backend. It is idempotent. Moving to
// postgres only succeeds when the relational backend answers a probe.
func (p *Proxy) SetProvider(ctx context.Context, backend Backend) (Status, error) {
	switch backend {
	case BackendFirebase:
		p.mu.Lock()
		defer p.mu.Unlock()
		p.nominal = BackendFirebase
		p.effective = BackendFirebase
		p.stopRecoveryLocked()
		p.logger.Info().Msg("storage provider set to firebase")
		return p.statusLocked(), nil

	case BackendPostgres:
		if p.relational == nil {
			return p.Status(), fmt.Errorf("%w: relational backend not configured", ErrBackendUnavailable)
		}
		if err := p.relational.Ping(ctx); err != nil {
			return p.Status(), fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
		}

		p.mu.Lock()
		defer p.mu.Unlock()
		p.nominal = BackendPostgres
		p.effective = BackendPostgres
		p.stopRecoveryLocked()
		p.logger.Info().Msg("storage provider set to postgres")
		return p.statusLocked(), nil

	default:
		return p.Status(), fmt.Errorf("unknown storage provider %q", backend)
	}
}

// Relational returns the relational store, or nil when none is configured.
func (p *Proxy) Relational() Store {
	return p.relational
}

func (p *Proxy) Hierarchical() Store {
	return p.hierarchical
}

func (p *Proxy) current() (Backend, Store) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.effective == BackendPostgres {
		return BackendPostgres, p.relational
	}
	return BackendFirebase, p.hierarchical
}

// triggersFailover separates backend faults from outcomes that describe the
// data or the caller.
func triggersFailover(ctx context.Context, err error) bool {
	if err == nil || isDomainError(err) {
		return false
	}
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		return false
	}
	return true
}

func (p *Proxy) downgrade(op string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.effective != BackendPostgres {
		return
	}
	p.effective = BackendFirebase
	p.failovers++
	p.recordFailureLocked(op, err)
	p.logger.Warn().Err(err).
		Str("op", op).
		Str("from", string(BackendPostgres)).
		Str("to", string(BackendFirebase)).
		Msg("relational backend failed, switching to hierarchical backend")
	p.startRecoveryLocked()
}

func (p *Proxy) recordFailureLocked(op string, err error) {
	p.lastFailure = err
	p.lastFailureAt = p.clock()
	p.lastFailureOp = op
}

func dispatch[T any](p *Proxy, ctx context.Context, op string, fn func(Store) (T, error)) (T, error) {
	backend, store := p.current()
	res, err := fn(store)
	if backend != BackendPostgres || !triggersFailover(ctx, err) {
		return res, err
	}

	p.downgrade(op, err)
	return fn(p.hierarchical)
}

func dispatchErr(p *Proxy, ctx context.Context, op string, fn func(Store) error) error {
	_, err := dispatch(p, ctx, op, func(s Store) (struct{}, error) {
		return struct{}{}, fn(s)
	})
	return err
}

// Recovery

func (p *Proxy) startRecoveryLocked() {
	if !p.policy.Enabled || p.relational == nil || p.stopRecovery != nil {
		return
	}
	if p.ctx.Err() != nil {
		return
	}

	ctx, cancel := context.WithCancel(p.ctx)
	p.stopRecovery = cancel
	p.recoveryAttempts = 0
	p.wg.Add(1)
	go p.recover(ctx)
}

func (p *Proxy) stopRecoveryLocked() {
	if p.stopRecovery != nil {
		p.stopRecovery()
		p.stopRecovery = nil
	}
}

func (p *Proxy) recover(ctx context.Context) {
	defer p.wg.Done()

	var lastErr error
	for attempt := 0; ; attempt++ {
		delay, ok := p.policy.NextDelay(attempt, lastErr)
		if !ok {
			p.logger.Warn().Int("attempts", attempt).Msg("relational recovery gave up")
			p.finishRecovery(ctx, false)
			return
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		p.mu.Lock()
		p.recoveryAttempts = attempt + 1
		p.mu.Unlock()

		lastErr = p.relational.Ping(ctx)
		if lastErr == nil {
			p.finishRecovery(ctx, true)
			return
		}
		p.logger.Debug().Err(lastErr).Int("attempt", attempt+1).Msg("relational backend still unreachable")
	}
}

func (p *Proxy) finishRecovery(ctx context.Context, restored bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	// SetProvider or Close may have taken over while the probe was running.
	if ctx.Err() != nil {
		return
	}
	p.stopRecoveryLocked()
	if restored && p.nominal == BackendPostgres && p.effective == BackendFirebase {
		p.effective = BackendPostgres
		p.logger.Info().
			Str("from", string(BackendFirebase)).
			Str("to", string(BackendPostgres)).
			Msg("relational backend recovered")
	}
}

// Store operations

func (p *Proxy) CreateUser(ctx context.Context, user *entities.User) (*entities.User, error) {
	return dispatch(p, ctx, "CreateUser", func(s Store) (*entities.User, error) {
		u := *user
		return s.CreateUser(ctx, &u)
	})
}

func (p *Proxy) GetUserByID(ctx context.Context, id entities.UserID) (*entities.User, error) {
	return dispatch(p, ctx, "GetUserByID", func(s Store) (*entities.User, error) {
		return s.GetUserByID(ctx, id)
	})
}

func (p *Proxy) GetUserByUsername(ctx context.Context, username string) (*entities.User, error) {
	return dispatch(p, ctx, "GetUserByUsername", func(s Store) (*entities.User, error) {
		return s.GetUserByUsername(ctx, username)
	})
}

func (p *Proxy) ListUsers(ctx context.Context) ([]*entities.User, error) {
	return dispatch(p, ctx, "ListUsers", func(s Store) ([]*entities.User, error) {
		return s.ListUsers(ctx)
	})
}

func (p *Proxy) UpdateUserSettings(ctx context.Context, id entities.UserID, settings entities.UserSettings) (*entities.User, error) {
	return dispatch(p, ctx, "UpdateUserSettings", func(s Store) (*entities.User, error) {
		return s.UpdateUserSettings(ctx, id, settings)
	})
}

func (p *Proxy) CreateCategory(ctx context.Context, category *entities.Category) (*entities.Category, error) {
	return dispatch(p, ctx, "CreateCategory", func(s Store) (*entities.Category, error) {
		c := *category
		return s.CreateCategory(ctx, &c)
	})
}

func (p *Proxy) GetCategoryByID(ctx context.Context, id entities.CategoryID) (*entities.Category, error) {
	return dispatch(p, ctx, "GetCategoryByID", func(s Store) (*entities.Category, error) {
		return s.GetCategoryByID(ctx, id)
	})
}

func (p *Proxy) GetCategoriesByUserID(ctx context.Context, userID entities.UserID) ([]*entities.Category, error) {
	return dispatch(p, ctx, "GetCategoriesByUserID", func(s Store) ([]*entities.Category, error) {
		return s.GetCategoriesByUserID(ctx, userID)
	})
}

func (p *Proxy) UpdateCategory(ctx context.Context, id entities.CategoryID, patch CategoryPatch) (*entities.Category, error) {
	return dispatch(p, ctx, "UpdateCategory", func(s Store) (*entities.Category, error) {
		return s.UpdateCategory(ctx, id, patch)
	})
}

func (p *Proxy) DeleteCategory(ctx context.Context, id entities.CategoryID) error {
	return dispatchErr(p, ctx, "DeleteCategory", func(s Store) error {
		return s.DeleteCategory(ctx, id)
	})
}

func (p *Proxy) CreateProduct(ctx context.Context, product *entities.Product) (*entities.Product, error) {
	return dispatch(p, ctx, "CreateProduct", func(s Store) (*entities.Product, error) {
		pr := *product
		return s.CreateProduct(ctx, &pr)
	})
}

func (p *Proxy) GetProductByID(ctx context.Context, id entities.ProductID) (*entities.Product, error) {
	return dispatch(p, ctx, "GetProductByID", func(s Store) (*entities.Product, error) {
		return s.GetProductByID(ctx, id)
	})
}

func (p *Proxy) GetProductsByUserID(ctx context.Context, userID entities.UserID, filter ProductFilter) ([]*entities.Product, error) {
	return dispatch(p, ctx, "GetProductsByUserID", func(s Store) ([]*entities.Product, error) {
		return s.GetProductsByUserID(ctx, userID, filter)
	})
}

func (p *Proxy) GetExpiringProducts(ctx context.Context, userID entities.UserID, days int) ([]*entities.Product, error) {
	return dispatch(p, ctx, "GetExpiringProducts", func(s Store) ([]*entities.Product, error) {
		return s.GetExpiringProducts(ctx, userID, days)
	})
}

func (p *Proxy) UpdateProduct(ctx context.Context, id entities.ProductID, patch ProductPatch) (*entities.Product, error) {
	return dispatch(p, ctx, "UpdateProduct", func(s Store) (*entities.Product, error) {
		return s.UpdateProduct(ctx, id, patch)
	})
}

func (p *Proxy) MarkProductConsumed(ctx context.Context, id entities.ProductID) (*entities.Product, error) {
	return dispatch(p, ctx, "MarkProductConsumed", func(s Store) (*entities.Product, error) {
		return s.MarkProductConsumed(ctx, id)
	})
}

func (p *Proxy) MarkProductDiscarded(ctx context.Context, id entities.ProductID) (*entities.Product, error) {
	return dispatch(p, ctx, "MarkProductDiscarded", func(s Store) (*entities.Product, error) {
		return s.MarkProductDiscarded(ctx, id)
	})
}

func (p *Proxy) MarkProductNotified(ctx context.Context, id entities.ProductID) (*entities.Product, error) {
	return dispatch(p, ctx, "MarkProductNotified", func(s Store) (*entities.Product, error) {
		return s.MarkProductNotified(ctx, id)
	})
}

func (p *Proxy) DeleteProduct(ctx context.Context, id entities.ProductID) error {
	return dispatchErr(p, ctx, "DeleteProduct", func(s Store) error {
		return s.DeleteProduct(ctx, id)
	})
}

func (p *Proxy) DeleteExpiredProducts(ctx context.Context, userID entities.UserID) (int64, error) {
	return dispatch(p, ctx, "DeleteExpiredProducts", func(s Store) (int64, error) {
		return s.DeleteExpiredProducts(ctx, userID)
	})
}

func (p *Proxy) DeleteAllProducts(ctx context.Context, userID entities.UserID) (int64, error) {
	return dispatch(p, ctx, "DeleteAllProducts", func(s Store) (int64, error) {
		return s.DeleteAllProducts(ctx, userID)
	})
}

func (p *Proxy) CreateShoppingItem(ctx context.Context, item *entities.ShoppingItem) (*entities.ShoppingItem, error) {
	return dispatch(p, ctx, "CreateShoppingItem", func(s Store) (*entities.ShoppingItem, error) {
		i := *item
		return s.CreateShoppingItem(ctx, &i)
	})
}

func (p *Proxy) GetShoppingItemByID(ctx context.Context, id entities.ShoppingItemID) (*entities.ShoppingItem, error) {
	return dispatch(p, ctx, "GetShoppingItemByID", func(s Store) (*entities.ShoppingItem, error) {
		return s.GetShoppingItemByID(ctx, id)
	})
}

func (p *Proxy) GetShoppingItemsByUserID(ctx context.Context, userID entities.UserID) ([]*entities.ShoppingItem, error) {
	return dispatch(p, ctx, "GetShoppingItemsByUserID", func(s Store) ([]*entities.ShoppingItem, error) {
		return s.GetShoppingItemsByUserID(ctx, userID)
	})
}

func (p *Proxy) MarkShoppingItemPurchased(ctx context.Context, id entities.ShoppingItemID, purchased bool) (*entities.ShoppingItem, error) {
	return dispatch(p, ctx, "MarkShoppingItemPurchased", func(s Store) (*entities.ShoppingItem, error) {
		return s.MarkShoppingItemPurchased(ctx, id, purchased)
	})
}

func (p *Proxy) DeleteShoppingItem(ctx context.Context, id entities.ShoppingItemID) error {
	return dispatchErr(p, ctx, "DeleteShoppingItem", func(s Store) error {
		return s.DeleteShoppingItem(ctx, id)
	})
}

func (p *Proxy) AddProductToShoppingList(ctx context.Context, productID entities.ProductID, userID entities.UserID) (*entities.ShoppingItem, error) {
	return dispatch(p, ctx, "AddProductToShoppingList", func(s Store) (*entities.ShoppingItem, error) {
		return s.AddProductToShoppingList(ctx, productID, userID)
	})
}

func (p *Proxy) GetExpirationSummary(ctx context.Context, userID entities.UserID) (ExpirationSummary, error) {
	return dispatch(p, ctx, "GetExpirationSummary", func(s Store) (ExpirationSummary, error) {
		return s.GetExpirationSummary(ctx, userID)
	})
}

func (p *Proxy) GetConsumptionStats(ctx context.Context, userID entities.UserID) (ConsumptionStats, error) {
	return dispatch(p, ctx, "GetConsumptionStats", func(s Store) (ConsumptionStats, error) {
		return s.GetConsumptionStats(ctx, userID)
	})
}

func (p *Proxy) ProcessAutoReplenish(ctx context.Context, userID entities.UserID) (int, error) {
	return dispatch(p, ctx, "ProcessAutoReplenish", func(s Store) (int, error) {
		return s.ProcessAutoReplenish(ctx, userID)
	})
}

func (p *Proxy) Ping(ctx context.Context) error {
	return dispatchErr(p, ctx, "Ping", func(s Store) error {
		return s.Ping(ctx)
	})
}

// Migrate prepares both backends. A relational failure is returned but does
// not switch the effective backend.
func (p *Proxy) Migrate(ctx context.Context) error {
	var errs []error
	if p.relational != nil {
		if err := p.relational.Migrate(ctx); err != nil {
			errs = append(errs, fmt.Errorf("relational: %w", err))
		}
	}
	if err := p.hierarchical.Migrate(ctx); err != nil {
		errs = append(errs, fmt.Errorf("hierarchical: %w", err))
	}
	return errors.Join(errs...)
}

func (p *Proxy) Close() error {
	p.mu.Lock()
	p.stopRecoveryLocked()
	p.mu.Unlock()
	p.cancel()
	p.wg.Wait()

	var errs []error
	if p.relational != nil {
		if err := p.relational.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := p.hierarchical.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
