package user

import (
	"Prazo-Certo/domain"
	"Prazo-Certo/entities"
	"Prazo-Certo/pkg/jwt"
	"Prazo-Certo/pkg/storage"
	"Prazo-Certo/pkg/storage/tree"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (UserService, storage.Store, jwt.JWTService) {
	t.Helper()
	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	store := storage.NewHierarchicalStore(tree.NewMemory(), storage.WithClock(func() time.Time { return now }))
	t.Cleanup(func() { _ = store.Close() })

	jwtService := jwt.NewJWTServiceWithSecret("test-secret")
	return NewUserService(store, jwtService, []string{"admin"}), store, jwtService
}

func TestUserService_Register(t *testing.T) {
	ctx := context.Background()
	svc, store, jwtService := newTestService(t)

	res, err := svc.Register(ctx, domain.RegisterRequest{Username: " ana ", Password: "secret1", Email: "ana@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "ana", res.User.Username)
	assert.Equal(t, domain.RoleUser, res.User.Role)
	assert.Equal(t, entities.DefaultNotificationDays, res.User.Settings.NotificationDays)
	assert.Equal(t, "ana@example.com", res.User.Settings.Email)

	userID, role, err := jwtService.GetUserIDByToken(res.Token)
	require.NoError(t, err)
	assert.Equal(t, entities.UserID(res.User.ID), userID)
	assert.Equal(t, domain.RoleUser, role)

	categories, err := store.GetCategoriesByUserID(ctx, userID)
	require.NoError(t, err)
	require.Len(t, categories, 6)
	names := make([]string, 0, len(categories))
	for _, c := range categories {
		names = append(names, c.Name)
	}
	assert.ElementsMatch(t, []string{"Frutas", "Laticínios", "Carnes", "Cereais", "Vegetais", "Bebidas"}, names)

	stored, err := store.GetUserByID(ctx, userID)
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", stored.Password, "password is hashed")

	_, err = svc.Register(ctx, domain.RegisterRequest{Username: "ana", Password: "another"})
	assert.ErrorIs(t, err, domain.ErrUsernameAlreadyExists)
}

func TestUserService_Login(t *testing.T) {
	ctx := context.Background()
	svc, _, jwtService := newTestService(t)

	_, err := svc.Register(ctx, domain.RegisterRequest{Username: "admin", Password: "secret1"})
	require.NoError(t, err)

	res, err := svc.Login(ctx, domain.LoginRequest{Username: "admin", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, res.User.Role)
	_, role, err := jwtService.GetUserIDByToken(res.Token)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, role)

	_, err = svc.Login(ctx, domain.LoginRequest{Username: "admin", Password: "wrong"})
	assert.ErrorIs(t, err, domain.ErrCredentialsNotMatch)

	_, err = svc.Login(ctx, domain.LoginRequest{Username: "nobody", Password: "secret1"})
	assert.ErrorIs(t, err, domain.ErrCredentialsNotMatch)
}

func TestUserService_UpdateSettings(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestService(t)

	ana, err := svc.Register(ctx, domain.RegisterRequest{Username: "ana", Password: "secret1"})
	require.NoError(t, err)
	bia, err := svc.Register(ctx, domain.RegisterRequest{Username: "bia", Password: "secret1"})
	require.NoError(t, err)

	anaID := entities.UserID(ana.User.ID)
	categories, err := store.GetCategoriesByUserID(ctx, anaID)
	require.NoError(t, err)
	own := int64(categories[0].ID)

	res, err := svc.UpdateSettings(ctx, anaID, domain.UpdateSettingsRequest{
		NotificationDays: []int{7, 1, 3, 1},
		DefaultCategory:  &own,
		Email:            "ana@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3, 7}, res.Settings.NotificationDays)
	require.NotNil(t, res.Settings.DefaultCategory)
	assert.Equal(t, own, *res.Settings.DefaultCategory)
	assert.Equal(t, "ana@example.com", res.Settings.Email)

	me, err := svc.Me(ctx, anaID)
	require.NoError(t, err)
	assert.Equal(t, res.Settings, me.Settings)

	biaCategories, err := store.GetCategoriesByUserID(ctx, entities.UserID(bia.User.ID))
	require.NoError(t, err)
	foreign := int64(biaCategories[0].ID)
	_, err = svc.UpdateSettings(ctx, anaID, domain.UpdateSettingsRequest{DefaultCategory: &foreign})
	assert.ErrorIs(t, err, domain.ErrCategoryNotFound)

	_, err = svc.Me(ctx, 404)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestUserService_GuestLogin(t *testing.T) {
	ctx := context.Background()
	svc, store, jwtService := newTestService(t)

	first, err := svc.GuestLogin(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.GuestUsername, first.User.Username)
	assert.Equal(t, domain.RoleUser, first.User.Role)

	userID, _, err := jwtService.GetUserIDByToken(first.Token)
	require.NoError(t, err)
	assert.Equal(t, entities.UserID(first.User.ID), userID)

	second, err := svc.GuestLogin(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.User.ID, second.User.ID)

	categories, err := store.GetCategoriesByUserID(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, categories, 6, "categories are seeded once")

	_, err = svc.Login(ctx, domain.LoginRequest{Username: domain.GuestUsername, Password: ""})
	assert.ErrorIs(t, err, domain.ErrCredentialsNotMatch)
}
