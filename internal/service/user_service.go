package service

import (
	"context"
	"database/sql"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"store-catalog-service/internal/entity"
	"store-catalog-service/internal/repository"
)

type UserService struct {
	userRepo repository.UserRepository
}

// NewUserService creates a new instance of UserService.
func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// Register creates a new user with a bcrypt-hashed password. The first
// registered user becomes the admin.
func (s *UserService) Register(ctx context.Context, username, password string) (*entity.User, error) {
	_, err := s.userRepo.FindByUsername(ctx, username)
	if err == nil {
		return nil, ErrConflict
	}
	if !errors.Is(err, sql.ErrNoRows) {
		logger.Error().Err(err).Msgf("Error checking user %s", username)
		return nil, storageError(err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	count, err := s.userRepo.Count(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Error counting users")
		return nil, storageError(err)
	}

	user := &entity.User{
		Username: username,
		Password: string(hash),
		IsAdmin:  count == 0,
	}

	created, err := s.userRepo.Create(ctx, user)
	if err != nil {
		logger.Error().Err(err).Msgf("Error creating user %s", username)
		return nil, storageError(err)
	}

	return created, nil
}

// GetUser retrieves a user by ID.
func (s *UserService) GetUser(ctx context.Context, id int) (*entity.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		logger.Error().Err(err).Msgf("Error getting user by ID %d", id)
		return nil, storageError(err)
	}

	return user, nil
}

// DeleteUser removes a user by ID.
func (s *UserService) DeleteUser(ctx context.Context, id int) error {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		logger.Error().Err(err).Msgf("Error getting user by ID %d", id)
		return storageError(err)
	}

	if err := s.userRepo.Delete(ctx, user.ID); err != nil {
		logger.Error().Err(err).Msgf("Error deleting user %d", id)
		return storageError(err)
	}

	return nil
}
