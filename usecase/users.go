package usecase

import (
	"context"
	"errors"
	"time"

	"main/model"
	"main/repository"
	"main/services"

	"github.com/google/uuid"
)

type UserService struct {
	UsersRepo *repository.UserRepo
}

// CreateUser registers a new account: unique username and email, argon2id
// password hash, generated opaque id.
func (svc *UserService) CreateUser(ctx context.Context, user *model.User) error {
	if existing, err := svc.UsersRepo.FindUserByUsername(ctx, user.Username); err != nil {
		return err
	} else if existing != nil {
		return errors.New("username already exists")
	}

	if existing, err := svc.UsersRepo.FindUserByEmail(ctx, user.Email); err != nil {
		return err
	} else if existing != nil {
		return errors.New("email already exists")
	}

	hashed, err := services.HashPassword(user.Password)
	if err != nil {
		return err
	}
	user.Password = hashed
	user.UserID = model.UserID(uuid.New().String())
	user.CreatedAt = time.Now()

	return svc.UsersRepo.AddUser(ctx, user)
}

// Authenticate verifies the username/password pair and returns the user.
// Returns nil, nil when the credentials do not match any account.
func (svc *UserService) Authenticate(ctx context.Context, username, password string) (*model.User, error) {
	user, err := svc.UsersRepo.FindUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, nil
	}

	match, err := services.VerifyPassword(user.Password, password)
	if err != nil || !match {
		return nil, nil
	}
	return user, nil
}

// FindUser fetches a user by id, nil when missing.
func (svc *UserService) FindUser(ctx context.Context, userID model.UserID) (*model.User, error) {
	return svc.UsersRepo.FindUser(ctx, userID)
}
