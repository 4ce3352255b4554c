package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Skotchmaster/storepanel/internal/models"
	"github.com/Skotchmaster/storepanel/internal/repo"
	"github.com/Skotchmaster/storepanel/internal/transport"
	pkghash "github.com/Skotchmaster/storepanel/pkg/hash"
)

const msgEmailTaken = "user with this email already exists"

func prepareUser(users *repo.Table[models.User]) func(context.Context, *transport.UserRequest, uuid.UUID, Mode) error {
	return func(ctx context.Context, req *transport.UserRequest, id uuid.UUID, _ Mode) error {
		if req.Email == nil {
			return nil
		}
		taken, err := users.Taken(ctx, "email", NormalizeEmail(*req.Email), id)
		if err != nil {
			return err
		}
		if taken {
			return Invalid("email", msgEmailTaken)
		}
		return nil
	}
}

func applyUser(_ context.Context, req *transport.UserRequest, u *models.User, mode Mode) error {
	f := fieldErrors{}
	if needText(f, "name", req.Name, mode) {
		u.Name = strings.TrimSpace(*req.Name)
	}
	if needText(f, "email", req.Email, mode) {
		u.Email = NormalizeEmail(*req.Email)
	}

	// Only a new account has to come with a password.
	pwMode := ModePatch
	if mode == ModeCreate {
		pwMode = ModeCreate
	}
	hasPassword := needText(f, "password", req.Password, pwMode) && checkPassword(f, "password", *req.Password)

	if req.Role != nil && oneOf(f, "role", *req.Role, models.RoleAdmin, models.RoleStoreOwner, models.RoleStaff) {
		u.Role = *req.Role
	}
	if req.IsActive != nil {
		u.IsActive = *req.IsActive
	} else if mode == ModeCreate {
		u.IsActive = true
	}
	if req.IsStaff != nil {
		u.IsStaff = *req.IsStaff
	}
	if err := f.err(); err != nil {
		return err
	}

	if hasPassword {
		h, err := pkghash.HashPassword(*req.Password)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		u.PasswordHash = h
	}
	return nil
}
