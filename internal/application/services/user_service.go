package services

import (
	"context"
	"fmt"
	"time"

	"github.com/relaxflow/core/internal/domain/entities"
	"github.com/relaxflow/core/internal/ports"
)

// UserService handles dashboard user records
type UserService struct {
	users ports.Collection[entities.User]
	deps  Dependencies
}

// NewUserService creates a new user service
func NewUserService(users ports.Collection[entities.User], deps Dependencies) *UserService {
	return &UserService{
		users: users,
		deps:  deps.withDefaults(),
	}
}

// List returns every user in stored order
func (s *UserService) List(ctx context.Context) ([]entities.User, error) {
	users, err := s.users.ReadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// Create adds a new active user at the front of the collection
func (s *UserService) Create(ctx context.Context, req ports.CreateUserRequest) (*entities.User, error) {
	if err := s.deps.Validator.Struct(req); err != nil {
		return nil, err
	}

	var created entities.User
	err := s.users.Update(ctx, func(users []entities.User) ([]entities.User, error) {
		created = entities.User{
			ID:        s.deps.IDs.NextID(existingIDs(users)),
			Name:      req.Name,
			Email:     req.Email,
			Role:      req.Role,
			Status:    entities.UserStatusActive,
			LastLogin: s.deps.Now().UTC().Format(time.RFC3339),
			Avatar:    orDefault(req.Avatar, entities.DefaultImage),
		}
		return prepend(users, created), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.deps.recordChange(entities.CollectionUsers, ports.ChangeCreated, created.ID)

	return &created, nil
}

// Update replaces the user with the same id in place
func (s *UserService) Update(ctx context.Context, req ports.UpdateUserRequest) (*entities.User, error) {
	if err := s.deps.Validator.Struct(req); err != nil {
		return nil, err
	}

	var updated entities.User
	err := s.users.Update(ctx, func(users []entities.User) ([]entities.User, error) {
		i := indexByID(users, req.ID)
		if i < 0 {
			return nil, entities.ErrUserNotFound
		}

		existing := users[i]
		updated = entities.User{
			ID:        existing.ID,
			Name:      req.Name,
			Email:     req.Email,
			Role:      req.Role,
			Status:    req.Status,
			LastLogin: orDefault(req.LastLogin, existing.LastLogin),
			Avatar:    orDefault(req.Avatar, existing.Avatar),
		}
		users[i] = updated
		return users, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update user %s: %w", req.ID, err)
	}

	s.deps.recordChange(entities.CollectionUsers, ports.ChangeUpdated, updated.ID)

	return &updated, nil
}

// Delete removes exactly one user
func (s *UserService) Delete(ctx context.Context, id string) (*ports.MessageResponse, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}

	err := s.users.Update(ctx, func(users []entities.User) ([]entities.User, error) {
		i := indexByID(users, id)
		if i < 0 {
			return nil, entities.ErrUserNotFound
		}
		return removeAt(users, i), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to delete user %s: %w", id, err)
	}

	s.deps.recordChange(entities.CollectionUsers, ports.ChangeDeleted, id)

	return &ports.MessageResponse{Message: "User deleted successfully"}, nil
}
