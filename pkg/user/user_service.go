package user

import (
	"Prazo-Certo/domain"
	"Prazo-Certo/entities"
	"Prazo-Certo/pkg/jwt"
	"Prazo-Certo/pkg/storage"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
)

type (
	UserService interface {
		Register(ctx context.Context, req domain.RegisterRequest) (domain.LoginResponse, error)
		Login(ctx context.Context, req domain.LoginRequest) (domain.LoginResponse, error)
		Me(ctx context.Context, userID entities.UserID) (domain.UserResponse, error)
		UpdateSettings(ctx context.Context, userID entities.UserID, req domain.UpdateSettingsRequest) (domain.UserResponse, error)
		GuestLogin(ctx context.Context) (domain.LoginResponse, error)
	}

	userService struct {
		store          storage.Store
		jwtService     jwt.JWTService
		adminUsernames []string
	}
)

func NewUserService(store storage.Store, jwtService jwt.JWTService, adminUsernames []string) UserService {
	return &userService{
		store:          store,
		jwtService:     jwtService,
		adminUsernames: adminUsernames,
	}
}

func (s *userService) roleOf(username string) string {
	if slices.Contains(s.adminUsernames, username) {
		return domain.RoleAdmin
	}
	return domain.RoleUser
}

func (s *userService) toResponse(u *entities.User) domain.UserResponse {
	settings := u.Settings.Data()
	res := domain.UserResponse{
		ID:       int64(u.ID),
		Username: u.Username,
		Role:     s.roleOf(u.Username),
		Settings: domain.SettingsResponse{
			NotificationDays: settings.NotificationDays,
			Email:            settings.Email,
		},
		CreatedAt: u.CreatedAt,
	}
	if settings.DefaultCategory != nil {
		id := int64(*settings.DefaultCategory)
		res.Settings.DefaultCategory = &id
	}
	return res
}

func (s *userService) issueToken(u *entities.User) (domain.LoginResponse, error) {
	token, err := s.jwtService.GenerateTokenUser(u.ID, s.roleOf(u.Username))
	if err != nil {
		return domain.LoginResponse{}, err
	}
	return domain.LoginResponse{
		Token: token,
		User:  s.toResponse(u),
	}, nil
}

// Register creates the account with the default categories and logs it in.
func (s *userService) Register(ctx context.Context, req domain.RegisterRequest) (domain.LoginResponse, error) {
	username := strings.TrimSpace(req.Username)

	existing, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		return domain.LoginResponse{}, err
	}
	if existing != nil {
		return domain.LoginResponse{}, domain.ErrUsernameAlreadyExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.LoginResponse{}, err
	}

	settings := entities.DefaultUserSettings()
	settings.Email = strings.TrimSpace(req.Email)
	created, err := s.store.CreateUser(ctx, &entities.User{
		Username: username,
		Password: string(hash),
		Settings: datatypes.NewJSONType(settings),
	})
	if err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return domain.LoginResponse{}, domain.ErrUsernameAlreadyExists
		}
		return domain.LoginResponse{}, err
	}

	if err := s.seedCategories(ctx, created.ID); err != nil {
		return domain.LoginResponse{}, err
	}
	return s.issueToken(created)
}

func (s *userService) seedCategories(ctx context.Context, userID entities.UserID) error {
	for _, c := range entities.DefaultCategories(userID) {
		if _, err := s.store.CreateCategory(ctx, c); err != nil {
			return fmt.Errorf("create default category %q: %w", c.Name, err)
		}
	}
	return nil
}

// GuestLogin logs into the shared demo account, creating it on first use.
// The account gets a random password, so it is only reachable this way.
func (s *userService) GuestLogin(ctx context.Context) (domain.LoginResponse, error) {
	guest, err := s.store.GetUserByUsername(ctx, domain.GuestUsername)
	if err != nil {
		return domain.LoginResponse{}, err
	}
	if guest != nil {
		return s.issueToken(guest)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), bcrypt.DefaultCost)
	if err != nil {
		return domain.LoginResponse{}, err
	}
	created, err := s.store.CreateUser(ctx, &entities.User{
		Username: domain.GuestUsername,
		Password: string(hash),
		Settings: datatypes.NewJSONType(entities.DefaultUserSettings()),
	})
	if errors.Is(err, storage.ErrDuplicate) {
		// Lost the race against a concurrent guest login.
		guest, err = s.store.GetUserByUsername(ctx, domain.GuestUsername)
		if err != nil {
			return domain.LoginResponse{}, err
		}
		if guest == nil {
			return domain.LoginResponse{}, domain.ErrUserNotFound
		}
		return s.issueToken(guest)
	}
	if err != nil {
		return domain.LoginResponse{}, err
	}

	if err := s.seedCategories(ctx, created.ID); err != nil {
		return domain.LoginResponse{}, err
	}
	return s.issueToken(created)
}

func (s *userService) Login(ctx context.Context, req domain.LoginRequest) (domain.LoginResponse, error) {
	u, err := s.store.GetUserByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		return domain.LoginResponse{}, err
	}
	if u == nil {
		return domain.LoginResponse{}, domain.ErrCredentialsNotMatch
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(req.Password)); err != nil {
		return domain.LoginResponse{}, domain.ErrCredentialsNotMatch
	}
	return s.issueToken(u)
}

func (s *userService) Me(ctx context.Context, userID entities.UserID) (domain.UserResponse, error) {
	u, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return domain.UserResponse{}, err
	}
	if u == nil {
		return domain.UserResponse{}, domain.ErrUserNotFound
	}
	return s.toResponse(u), nil
}

func (s *userService) UpdateSettings(ctx context.Context, userID entities.UserID, req domain.UpdateSettingsRequest) (domain.UserResponse, error) {
	u, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return domain.UserResponse{}, err
	}
	if u == nil {
		return domain.UserResponse{}, domain.ErrUserNotFound
	}

	settings := u.Settings.Data()
	if req.NotificationDays != nil {
		settings.NotificationDays = normalizeDays(req.NotificationDays)
	}
	if req.DefaultCategory != nil {
		categoryID := entities.CategoryID(*req.DefaultCategory)
		c, err := s.store.GetCategoryByID(ctx, categoryID)
		if err != nil {
			return domain.UserResponse{}, err
		}
		if c == nil || c.UserID != userID {
			return domain.UserResponse{}, domain.ErrCategoryNotFound
		}
		settings.DefaultCategory = &categoryID
	}
	if req.Email != "" {
		settings.Email = strings.TrimSpace(req.Email)
	}

	updated, err := s.store.UpdateUserSettings(ctx, userID, settings)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return domain.UserResponse{}, domain.ErrUserNotFound
		}
		return domain.UserResponse{}, err
	}
	return s.toResponse(updated), nil
}

// normalizeDays sorts and de-duplicates the reminder offsets.
func normalizeDays(days []int) []int {
	out := slices.Clone(days)
	slices.Sort(out)
	return slices.Compact(out)
}
