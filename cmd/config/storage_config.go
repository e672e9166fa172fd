package config

import (
	"Prazo-Certo/internal/utils"
	"Prazo-Certo/pkg/storage"
	"Prazo-Certo/pkg/storage/tree"
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

func Location() *time.Location {
	loc, err := time.LoadLocation(utils.GetConfig("TIMEZONE"))
	if err != nil {
		return time.UTC
	}
	return loc
}

// Clock reads the wall clock in the configured time zone, so calendar-day
// arithmetic follows the household's local midnight.
func Clock() func() time.Time {
	loc := Location()
	return func() time.Time {
		return time.Now().In(loc)
	}
}

func NewTree(ctx context.Context) (tree.Tree, error) {
	switch driver := utils.GetConfig("TREE_DRIVER"); driver {
	case "firebase":
		return tree.NewFirebase(ctx, utils.GetConfig("FIREBASE_DATABASE_URL"), utils.GetConfig("FIREBASE_CREDENTIALS_FILE"))
	case "surrealdb":
		return tree.NewSurreal(ctx, tree.SurrealConfig{
			URL:       utils.GetConfig("SURREAL_URL"),
			Namespace: utils.GetConfig("SURREAL_NS"),
			Database:  utils.GetConfig("SURREAL_DB"),
			Username:  utils.GetConfig("SURREAL_USER"),
			Password:  utils.GetConfig("SURREAL_PASS"),
		})
	case "memory":
		return tree.NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown TREE_DRIVER %q", driver)
	}
}

func RecoveryPolicy() storage.RecoveryPolicy {
	policy := storage.DefaultRecoveryPolicy()
	policy.Enabled = utils.GetConfigBool("RECOVERY_ENABLED")
	if d := utils.GetConfigDuration("RECOVERY_INITIAL_DELAY"); d > 0 {
		policy.InitialDelay = d
	}
	if d := utils.GetConfigDuration("RECOVERY_MAX_DELAY"); d > 0 {
		policy.MaxDelay = d
	}
	if m := utils.GetConfigFloat("RECOVERY_MULTIPLIER"); m >= 1 {
		policy.Multiplier = m
	}
	if n := utils.GetConfigInt("RECOVERY_MAX_ATTEMPTS"); n > 0 {
		policy.MaxAttempts = n
	}
	return policy
}

// NewStorage builds both adapters and the failover proxy in front of them.
// An unreachable relational database at boot is not fatal: the proxy starts
// on the hierarchical backend. Start has not been called on the result.
func NewStorage(ctx context.Context, logger zerolog.Logger) (*storage.Proxy, error) {
	nominal, err := storage.ParseBackend(utils.GetConfig("STORAGE_PROVIDER"))
	if err != nil {
		return nil, err
	}

	t, err := NewTree(ctx)
	if err != nil {
		return nil, fmt.Errorf("hierarchical backend: %w", err)
	}

	clock := Clock()
	opts := []storage.Option{
		storage.WithClock(clock),
		storage.WithLogger(logger.With().Str("component", "storage").Logger()),
		storage.WithRecovery(RecoveryPolicy()),
	}

	var relational storage.Store
	db, err := ConnectDB()
	if err != nil {
		logger.Error().Err(err).Msg("relational backend unavailable at boot")
	} else {
		relational = storage.NewRelationalStore(db, opts...)
	}

	hierarchical := storage.NewHierarchicalStore(t, opts...)
	return storage.NewProxy(relational, hierarchical, nominal, opts...), nil
}
