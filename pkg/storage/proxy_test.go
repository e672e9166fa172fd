package storage

import (
	"Prazo-Certo/entities"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProxy(t *testing.T, opts ...Option) (*Proxy, *faultInjector, *HierarchicalStore) {
	t.Helper()
	relational, faults := newFaultyRelational(t, fixedClock(testNow))
	hierarchical := newTestHierarchical(t, fixedClock(testNow))
	opts = append([]Option{WithClock(fixedClock(testNow))}, opts...)
	p := NewProxy(relational, hierarchical, BackendPostgres, opts...)
	t.Cleanup(func() { _ = p.Close() })
	return p, faults, hierarchical
}

func TestProxy_FailoverScenario(t *testing.T) {
	ctx := context.Background()
	p, faults, hierarchical := newTestProxy(t)
	f := seedUser(t, hierarchical, "ana")

	faults.failing.Store(true)
	before := faults.statements.Load()

	categories, err := p.GetCategoriesByUserID(ctx, f.user.ID)
	require.NoError(t, err)
	require.Len(t, categories, 1)
	assert.Equal(t, f.category.ID, categories[0].ID)

	status := p.Status()
	assert.Equal(t, BackendPostgres, status.Nominal)
	assert.Equal(t, BackendFirebase, status.Effective)
	assert.Equal(t, 1, status.Failovers)
	assert.Equal(t, "GetCategoriesByUserID", status.LastFailureOp)
	assert.Contains(t, status.LastFailure, "connection refused")
	assert.Greater(t, faults.statements.Load(), before)

	attempted := faults.statements.Load()
	product, err := p.CreateProduct(ctx, &entities.Product{
		Name:           "Leite",
		ExpirationDate: testNow.Add(day(2)),
		CategoryID:     f.category.ID,
		UserID:         f.user.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, attempted, faults.statements.Load(), "no relational attempt after the downgrade")

	stored, err := hierarchical.GetProductByID(ctx, product.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, 1, p.Status().Failovers)
}

func TestProxy_StartProbe(t *testing.T) {
	t.Run("unreachable relational backend", func(t *testing.T) {
		p, faults, _ := newTestProxy(t)
		faults.failing.Store(true)

		status := p.Start(context.Background())
		assert.Equal(t, BackendPostgres, status.Nominal)
		assert.Equal(t, BackendFirebase, status.Effective)
		assert.Equal(t, "startup-probe", status.LastFailureOp)
	})

	t.Run("healthy relational backend", func(t *testing.T) {
		p, _, _ := newTestProxy(t)
		status := p.Start(context.Background())
		assert.Equal(t, BackendPostgres, status.Effective)
		assert.Zero(t, status.Failovers)
	})

	t.Run("no relational backend", func(t *testing.T) {
		p := NewProxy(nil, newTestHierarchical(t, fixedClock(testNow)), BackendPostgres)
		defer p.Close()
		status := p.Start(context.Background())
		assert.Equal(t, BackendFirebase, status.Effective)
		assert.False(t, status.RelationalReady)
	})
}

func TestProxy_DomainErrorsDoNotFailOver(t *testing.T) {
	ctx := context.Background()
	p, _, _ := newTestProxy(t)
	p.Start(ctx)

	f := seedUser(t, p, "ana")
	_, err := p.CreateUser(ctx, &entities.User{Username: "ana"})
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.ErrorIs(t, p.DeleteProduct(ctx, 999), ErrNotFound)

	seedProduct(t, p, f, "Maçã", day(1))
	assert.ErrorIs(t, p.DeleteCategory(ctx, f.category.ID), ErrCategoryInUse)

	missing, err := p.GetProductByID(ctx, 999)
	require.NoError(t, err)
	assert.Nil(t, missing)

	status := p.Status()
	assert.Equal(t, BackendPostgres, status.Effective)
	assert.Zero(t, status.Failovers)
}

func TestProxy_CanceledCallerDoesNotFailOver(t *testing.T) {
	p, faults, _ := newTestProxy(t)
	faults.failing.Store(true)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.ListUsers(ctx)
	require.Error(t, err)
	assert.Equal(t, BackendPostgres, p.Status().Effective)
}

func TestProxy_BothBackendsFail(t *testing.T) {
	ctx := context.Background()
	p, faults, hierarchical := newTestProxy(t)
	faults.failing.Store(true)
	require.NoError(t, hierarchical.Close())

	_, err := p.ListUsers(ctx)
	require.Error(t, err)
	assert.Equal(t, BackendFirebase, p.Status().Effective)
}

func TestProxy_SetProvider(t *testing.T) {
	ctx := context.Background()
	p, faults, _ := newTestProxy(t)
	p.Start(ctx)

	status, err := p.SetProvider(ctx, BackendFirebase)
	require.NoError(t, err)
	assert.Equal(t, BackendFirebase, status.Nominal)
	assert.Equal(t, BackendFirebase, status.Effective)

	status, err = p.SetProvider(ctx, BackendFirebase)
	require.NoError(t, err)
	assert.Equal(t, BackendFirebase, status.Effective)

	faults.failing.Store(true)
	_, err = p.SetProvider(ctx, BackendPostgres)
	assert.ErrorIs(t, err, ErrBackendUnavailable)
	assert.Equal(t, BackendFirebase, p.Status().Effective)

	faults.failing.Store(false)
	status, err = p.SetProvider(ctx, BackendPostgres)
	require.NoError(t, err)
	assert.Equal(t, BackendPostgres, status.Nominal)
	assert.Equal(t, BackendPostgres, status.Effective)

	_, err = p.SetProvider(ctx, Backend("mysql"))
	assert.Error(t, err)
}

func TestProxy_PermanentDowngradeByDefault(t *testing.T) {
	ctx := context.Background()
	p, faults, _ := newTestProxy(t)
	p.Start(ctx)

	faults.failing.Store(true)
	_, err := p.ListUsers(ctx)
	require.NoError(t, err)
	faults.failing.Store(false)

	status := p.Status()
	assert.Equal(t, BackendFirebase, status.Effective)
	assert.False(t, status.Recovering)
}

func TestProxy_Recovery(t *testing.T) {
	ctx := context.Background()
	p, faults, _ := newTestProxy(t, WithRecovery(RecoveryPolicy{
		Enabled:      true,
		InitialDelay: 5 * time.Millisecond,
		MaxDelay:     20 * time.Millisecond,
		Multiplier:   2,
	}))
	p.Start(ctx)

	faults.failing.Store(true)
	_, err := p.ListUsers(ctx)
	require.NoError(t, err)
	assert.True(t, p.Status().Recovering)

	faults.failing.Store(false)
	require.Eventually(t, func() bool {
		return p.Status().Effective == BackendPostgres
	}, 2*time.Second, 5*time.Millisecond)

	status := p.Status()
	assert.False(t, status.Recovering)
	assert.GreaterOrEqual(t, status.RecoveryAttempts, 1)
}

func TestProxy_RecoveryGivesUp(t *testing.T) {
	ctx := context.Background()
	p, faults, _ := newTestProxy(t, WithRecovery(RecoveryPolicy{
		Enabled:      true,
		InitialDelay: time.Millisecond,
		MaxDelay:     time.Millisecond,
		Multiplier:   1,
		MaxAttempts:  2,
	}))
	p.Start(ctx)

	faults.failing.Store(true)
	_, err := p.ListUsers(ctx)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return !p.Status().Recovering
	}, 2*time.Second, 5*time.Millisecond)

	status := p.Status()
	assert.Equal(t, BackendFirebase, status.Effective)
	assert.Equal(t, 2, status.RecoveryAttempts)
}

func TestParseBackend(t *testing.T) {
	b, err := ParseBackend(" Postgres ")
	require.NoError(t, err)
	assert.Equal(t, BackendPostgres, b)

	b, err = ParseBackend("firebase")
	require.NoError(t, err)
	assert.Equal(t, BackendFirebase, b)

	_, err = ParseBackend("sqlite")
	assert.Error(t, err)
}
