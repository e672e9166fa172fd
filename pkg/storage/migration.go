package storage

import (
	"Prazo-Certo/entities"
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// MigrationReport counts the records copied by CopyAll. Users already present
// in the target (same username) are reused and counted as skipped.
type MigrationReport struct {
	Users         int `json:"users"`
	SkippedUsers  int `json:"skipped_users"`
	Categories    int `json:"categories"`
	Products      int `json:"products"`
	ShoppingItems int `json:"shopping_items"`
}

// CopyAll copies every user with their categories, products and shopping
// items from one store to another. Ids are assigned by the target and every
// reference, the default category in the user settings included, is
// rewritten to the new ids. Flags and timestamps are kept.
func CopyAll(ctx context.Context, from, to Store, logger zerolog.Logger) (MigrationReport, error) {
	var report MigrationReport

	users, err := from.ListUsers(ctx)
	if err != nil {
		return report, fmt.Errorf("list users: %w", err)
	}

	for _, u := range users {
		userID, created, err := copyUser(ctx, to, u)
		if err != nil {
			return report, err
		}
		if created {
			report.Users++
		} else {
			report.SkippedUsers++
		}

		categoryIDs, err := copyCategories(ctx, from, to, u.ID, userID, &report)
		if err != nil {
			return report, err
		}
		if created {
			if err := remapDefaultCategory(ctx, to, u, userID, categoryIDs); err != nil {
				return report, err
			}
		}
		productIDs, err := copyProducts(ctx, from, to, u.ID, userID, categoryIDs, &report)
		if err != nil {
			return report, err
		}
		if err := copyShoppingItems(ctx, from, to, u.ID, userID, categoryIDs, productIDs, &report); err != nil {
			return report, err
		}

		logger.Info().
			Str("username", u.Username).
			Str("from_id", u.ID.String()).
			Str("to_id", userID.String()).
			Msg("user data copied")
	}
	return report, nil
}

func copyUser(ctx context.Context, to Store, u *entities.User) (entities.UserID, bool, error) {
	existing, err := to.GetUserByUsername(ctx, u.Username)
	if err != nil {
		return 0, false, fmt.Errorf("lookup user %q: %w", u.Username, err)
	}
	if existing != nil {
		return existing.ID, false, nil
	}

	clone := *u
	clone.ID = 0
	created, err := to.CreateUser(ctx, &clone)
	if err != nil {
		return 0, false, fmt.Errorf("create user %q: %w", u.Username, err)
	}
	return created.ID, true, nil
}

// remapDefaultCategory points the copied user's default category at the
// target id. A default that was not copied is cleared.
func remapDefaultCategory(ctx context.Context, to Store, u *entities.User, userID entities.UserID, categoryIDs map[entities.CategoryID]entities.CategoryID) error {
	settings := u.Settings.Data()
	if settings.DefaultCategory == nil {
		return nil
	}
	if id, ok := categoryIDs[*settings.DefaultCategory]; ok {
		settings.DefaultCategory = &id
	} else {
		settings.DefaultCategory = nil
	}
	if _, err := to.UpdateUserSettings(ctx, userID, settings); err != nil {
		return fmt.Errorf("update settings of user %q: %w", u.Username, err)
	}
	return nil
}

func copyCategories(ctx context.Context, from, to Store, srcUser, dstUser entities.UserID, report *MigrationReport) (map[entities.CategoryID]entities.CategoryID, error) {
	categories, err := from.GetCategoriesByUserID(ctx, srcUser)
	if err != nil {
		return nil, fmt.Errorf("list categories of user %s: %w", srcUser, err)
	}

	ids := make(map[entities.CategoryID]entities.CategoryID, len(categories))
	for _, c := range categories {
		clone := *c
		clone.ID = 0
		clone.UserID = dstUser
		created, err := to.CreateCategory(ctx, &clone)
		if err != nil {
			return nil, fmt.Errorf("create category %q: %w", c.Name, err)
		}
		ids[c.ID] = created.ID
		report.Categories++
	}
	return ids, nil
}

func copyProducts(ctx context.Context, from, to Store, srcUser, dstUser entities.UserID, categoryIDs map[entities.CategoryID]entities.CategoryID, report *MigrationReport) (map[entities.ProductID]entities.ProductID, error) {
	products, err := from.GetProductsByUserID(ctx, srcUser, ProductFilter{Status: StatusAll, SortBy: SortByCreatedAt})
	if err != nil {
		return nil, fmt.Errorf("list products of user %s: %w", srcUser, err)
	}

	ids := make(map[entities.ProductID]entities.ProductID, len(products))
	for _, p := range products {
		categoryID, ok := categoryIDs[p.CategoryID]
		if !ok {
			return nil, fmt.Errorf("product %s references unknown category %s", p.ID, p.CategoryID)
		}

		clone := *p
		clone.ID = 0
		clone.UserID = dstUser
		clone.CategoryID = categoryID
		clone.Category = nil
		created, err := to.CreateProduct(ctx, &clone)
		if err != nil {
			return nil, fmt.Errorf("create product %q: %w", p.Name, err)
		}
		ids[p.ID] = created.ID
		report.Products++
	}
	return ids, nil
}

func copyShoppingItems(ctx context.Context, from, to Store, srcUser, dstUser entities.UserID, categoryIDs map[entities.CategoryID]entities.CategoryID, productIDs map[entities.ProductID]entities.ProductID, report *MigrationReport) error {
	items, err := from.GetShoppingItemsByUserID(ctx, srcUser)
	if err != nil {
		return fmt.Errorf("list shopping items of user %s: %w", srcUser, err)
	}

	for _, item := range items {
		clone := *item
		clone.ID = 0
		clone.UserID = dstUser
		clone.Category = nil
		clone.CategoryID = nil
		clone.ProductID = nil
		if item.CategoryID != nil {
			if id, ok := categoryIDs[*item.CategoryID]; ok {
				clone.CategoryID = &id
			}
		}
		if item.ProductID != nil {
			if id, ok := productIDs[*item.ProductID]; ok {
				clone.ProductID = &id
			}
		}
		if _, err := to.CreateShoppingItem(ctx, &clone); err != nil {
			return fmt.Errorf("create shopping item %q: %w", item.Name, err)
		}
		report.ShoppingItems++
	}
	return nil
}

// MigrateToHierarchical copies the relational data into the hierarchical
// backend without changing the effective backend.
func (p *Proxy) MigrateToHierarchical(ctx context.Context) (MigrationReport, error) {
	if p.relational == nil {
		return MigrationReport{}, fmt.Errorf("%w: relational backend not configured", ErrBackendUnavailable)
	}
	if err := p.relational.Ping(ctx); err != nil {
		return MigrationReport{}, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	report, err := CopyAll(ctx, p.relational, p.hierarchical, p.logger)
	if err != nil {
		p.logger.Error().Err(err).Msg("migration to hierarchical backend failed")
		return report, err
	}
	p.logger.Info().
		Int("users", report.Users).
		Int("categories", report.Categories).
		Int("products", report.Products).
		Int("shopping_items", report.ShoppingItems).
		Msg("migration to hierarchical backend finished")
	return report, nil
}
