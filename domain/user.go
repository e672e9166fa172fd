package domain

import (
	"errors"
	"time"
)

var (
	MessageSuccessRegister       = "user registered successfully"
	MessageSuccessLogin          = "user logged in successfully"
	MessageSuccessGetDetailUser  = "user detail retrieved successfully"
	MessageSuccessUpdateSettings = "settings updated successfully"
	MessageSuccessGuestLogin     = "guest session started successfully"

	MessageFailedRegister       = "failed to register user"
	MessageFailedLogin          = "failed to login"
	MessageFailedGetDetailUser  = "failed to get user detail"
	MessageFailedUpdateSettings = "failed to update settings"
	MessageFailedGuestLogin     = "failed to start guest session"

	ErrUsernameAlreadyExists = errors.New("username already exists")
	ErrCredentialsNotMatch   = errors.New("username or password does not match")
	ErrUserNotFound          = errors.New("user not found")

	// GuestUsername is the shared demo account behind guest sessions.
	GuestUsername = "demo_user"
)

type (
	RegisterRequest struct {
		Username string `json:"username" validate:"required,min=3,max=100"`
		Password string `json:"password" validate:"required,min=6"`
		Email    string `json:"email" validate:"omitempty,email"`
	}

	LoginRequest struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Token string       `json:"token"`
		User  UserResponse `json:"user"`
	}

	UpdateSettingsRequest struct {
		NotificationDays []int  `json:"notification_days" validate:"omitempty,max=10,dive,min=0,max=365"`
		DefaultCategory  *int64 `json:"default_category" validate:"omitempty"`
		Email            string `json:"email" validate:"omitempty,email"`
	}

	SettingsResponse struct {
		NotificationDays []int  `json:"notification_days"`
		DefaultCategory  *int64 `json:"default_category,omitempty"`
		Email            string `json:"email,omitempty"`
	}

	UserResponse struct {
		ID        int64            `json:"id"`
		Username  string           `json:"username"`
		Role      string           `json:"role"`
		Settings  SettingsResponse `json:"settings"`
		CreatedAt time.Time        `json:"created_at"`
	}
)
