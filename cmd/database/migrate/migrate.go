package migration

import (
	"Prazo-Certo/pkg/storage"
	"context"

	"github.com/rs/zerolog"
)

// Migrate prepares the schema of every configured backend. It runs before the
// startup probe, which reads the users table.
func Migrate(ctx context.Context, store storage.Store, log zerolog.Logger) error {
	if err := store.Migrate(ctx); err != nil {
		log.Error().Err(err).Msg("error migrating database")
		return err
	}

	log.Info().Msg("database migration complete")
	return nil
}
