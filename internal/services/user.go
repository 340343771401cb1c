package services

import (
	"context"

	"github.com/mentornet/apiserver/types"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id int64) (types.User, error)
	GetByRemoteID(ctx context.Context, remoteID string) (types.User, error)
	FindOrCreateByRemoteID(ctx context.Context, remoteID, name string) (types.User, error)
}

// UserService encapsulates user use-cases.
type UserService struct {
	repo UserRepository
}

func NewUserService(repo UserRepository) *UserService {
	return &UserService{repo: repo}
}

func (s *UserService) GetByID(ctx context.Context, id int64) (types.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *UserService) GetByRemoteID(ctx context.Context, remoteID string) (types.User, error) {
	return s.repo.GetByRemoteID(ctx, remoteID)
}

func (s *UserService) FindOrCreateByRemoteID(ctx context.Context, remoteID, name string) (types.User, error) {
	return s.repo.FindOrCreateByRemoteID(ctx, remoteID, name)
}
