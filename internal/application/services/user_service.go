package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/taskmaster/todo/internal/domain/entities"
	"github.com/taskmaster/todo/internal/infrastructure/logger"
	"github.com/taskmaster/todo/internal/ports"
)

// UserService handles user-related operations
type UserService struct {
	userRepo ports.UserRepository
	taskRepo ports.TaskRepository
	tx       ports.Transactor
	logger   *logger.Logger
	now      func() time.Time
}

// NewUserService creates a new user service
func NewUserService(userRepo ports.UserRepository, taskRepo ports.TaskRepository, tx ports.Transactor, logger *logger.Logger) *UserService {
	return &UserService{
		userRepo: userRepo,
		taskRepo: taskRepo,
		tx:       tx,
		logger:   logger.WithComponent("user_service"),
		now:      time.Now,
	}
}

// SetClock replaces the time source used for timestamps.
func (s *UserService) SetClock(now func() time.Time) {
	s.now = now
}

// Create registers a new account. An empty password yields an account that
// exists for task ownership but cannot log in.
func (s *UserService) Create(ctx context.Context, username, password string) (*entities.User, error) {
	var hash string
	if password != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		hash = string(hashed)
	}
	return s.CreateWithHash(ctx, username, hash)
}

// CreateWithHash registers an account whose password was hashed elsewhere.
func (s *UserService) CreateWithHash(ctx context.Context, username, passwordHash string) (*entities.User, error) {
	now := s.now()
	user := &entities.User{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.ensureNameFree(ctx, username, uuid.Nil); err != nil {
			return err
		}
		return s.userRepo.Create(ctx, user)
	})
	if err != nil {
		return nil, fmt.Errorf("create user %q: %w", username, err)
	}

	s.logger.Infow("User created", "user_id", user.ID, "username", user.Username)
	return user, nil
}

// Rename changes a username. Renaming to the current name is not a conflict.
func (s *UserService) Rename(ctx context.Context, id uuid.UUID, newName string) (*entities.User, error) {
	var user *entities.User
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.userRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := s.ensureNameFree(ctx, newName, id); err != nil {
			return err
		}

		existing.Username = newName
		existing.UpdatedAt = s.now()
		if err := s.userRepo.Update(ctx, existing); err != nil {
			return err
		}
		user = existing
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("rename user %s: %w", id, err)
	}

	s.logger.Infow("User renamed", "user_id", id, "username", newName)
	return user, nil
}

// Delete removes an account that owns no tasks.
func (s *UserService) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.userRepo.GetByID(ctx, id); err != nil {
			return err
		}

		count, err := s.taskRepo.CountByUser(ctx, id)
		if err != nil {
			return err
		}
		if count > 0 {
			return entities.ErrUserHasTasks
		}

		return s.userRepo.Delete(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("delete user %s: %w", id, err)
	}

	s.logger.Infow("User deleted", "user_id", id)
	return nil
}

// FindByID retrieves a user by ID
func (s *UserService) FindByID(ctx context.Context, id uuid.UUID) (*entities.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find user %s: %w", id, err)
	}
	return user, nil
}

// FindByName retrieves a user by exact username
func (s *UserService) FindByName(ctx context.Context, username string) (*entities.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("find user %q: %w", username, err)
	}
	return user, nil
}

// ListAll returns every account.
func (s *UserService) ListAll(ctx context.Context) ([]*entities.User, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// ensureNameFree fails with ErrUserAlreadyExists when username belongs to an
// account other than self.
func (s *UserService) ensureNameFree(ctx context.Context, username string, self uuid.UUID) error {
	other, err := s.userRepo.GetByUsername(ctx, username)
	switch {
	case errors.Is(err, entities.ErrUserNotFound):
		return nil
	case err != nil:
		return err
	case other.ID != self:
		return entities.ErrUserAlreadyExists
	default:
		return nil
	}
}
