package services

import (
	"context"

	"github.com/Dosada05/debate-tab/models"
	"github.com/Dosada05/debate-tab/repositories"
)

type UserService interface {
	GetProfileByID(ctx context.Context, id int) (*models.User, error)
}

type userService struct {
	userRepo repositories.UserRepository
}

func NewUserService(userRepo repositories.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

func (s *userService) GetProfileByID(ctx context.Context, id int) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	user.PasswordHash = ""
	return user, nil
}
