package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"techstep-backend/internal/shared/auth"
)

const minPasswordLength = 6

type Service struct {
	Repo   Repo
	Hasher *auth.PasswordHasher

	now   func() time.Time
	newID func() string
}

func NewService(repo Repo, hasher *auth.PasswordHasher) *Service {
	if hasher == nil {
		hasher = &auth.PasswordHasher{Cost: auth.DefaultBcryptCost}
	}
	return &Service{
		Repo:   repo,
		Hasher: hasher,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
}

// Register creates an active account after checking email and username are free.
func (s *Service) Register(ctx context.Context, in RegisterInput) (User, error) {
	email := normalizeEmail(in.Email)
	username := strings.TrimSpace(in.Username)
	password := strings.TrimSpace(in.Password)
	if email == "" || username == "" || password == "" {
		return User{}, fmt.Errorf("%w: email, username and password are required", ErrInvalidInput)
	}
	if err := checkPassword(password); err != nil {
		return User{}, err
	}
	if err := s.ensureFree(ctx, "", email, username); err != nil {
		return User{}, err
	}

	hash, err := s.Hasher.Hash(password)
	if err != nil {
		return User{}, err
	}
	now := s.now()
	user := User{
		ID:           s.newID(),
		Email:        email,
		Username:     username,
		PasswordHash: hash,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Repo.Create(ctx, user); err != nil {
		return User{}, err
	}
	return user, nil
}

// Login checks credentials and returns the user with a signed access token.
// Unknown users, wrong passwords and inactive accounts all yield ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, username, password string) (User, string, error) {
	user, err := s.Repo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return User{}, "", ErrInvalidCredentials
		}
		return User{}, "", err
	}
	if !user.IsActive || !s.Hasher.Verify(strings.TrimSpace(password), user.PasswordHash) {
		return User{}, "", ErrInvalidCredentials
	}
	token, err := auth.SignJWT(user.ID, user.Username, user.Email)
	if err != nil {
		return User{}, "", fmt.Errorf("issue token: %w", err)
	}
	return user, token, nil
}

func (s *Service) GetByID(ctx context.Context, userID string) (User, error) {
	if _, err := uuid.Parse(strings.TrimSpace(userID)); err != nil {
		return User{}, ErrNotFound
	}
	return s.Repo.GetByID(ctx, strings.TrimSpace(userID))
}

func (s *Service) Update(ctx context.Context, userID string, in UpdateInput) (User, error) {
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return User{}, err
	}

	email, username := user.Email, user.Username
	if in.Email != nil {
		if email = normalizeEmail(*in.Email); email == "" {
			return User{}, fmt.Errorf("%w: email must not be blank", ErrInvalidInput)
		}
	}
	if in.Username != nil {
		if username = strings.TrimSpace(*in.Username); username == "" {
			return User{}, fmt.Errorf("%w: username must not be blank", ErrInvalidInput)
		}
	}
	checkEmail, checkUsername := "", ""
	if email != user.Email {
		checkEmail = email
	}
	if username != user.Username {
		checkUsername = username
	}
	if err := s.ensureFree(ctx, user.ID, checkEmail, checkUsername); err != nil {
		return User{}, err
	}
	user.Email, user.Username = email, username

	if in.Password != nil {
		password := strings.TrimSpace(*in.Password)
		if err := checkPassword(password); err != nil {
			return User{}, err
		}
		hash, err := s.Hasher.Hash(password)
		if err != nil {
			return User{}, err
		}
		user.PasswordHash = hash
	}

	user.UpdatedAt = s.now()
	if err := s.Repo.Update(ctx, user); err != nil {
		return User{}, err
	}
	return user, nil
}

func (s *Service) Delete(ctx context.Context, userID string) error {
	if _, err := uuid.Parse(strings.TrimSpace(userID)); err != nil {
		return ErrNotFound
	}
	return s.Repo.Delete(ctx, strings.TrimSpace(userID))
}

// ensureFree checks non-empty email and username against other accounts.
func (s *Service) ensureFree(ctx context.Context, selfID, email, username string) error {
	if email != "" {
		existing, err := s.Repo.GetByEmail(ctx, email)
		switch {
		case err == nil && existing.ID != selfID:
			return ErrEmailTaken
		case err != nil && !errors.Is(err, ErrNotFound):
			return err
		}
	}
	if username != "" {
		existing, err := s.Repo.GetByUsername(ctx, username)
		switch {
		case err == nil && existing.ID != selfID:
			return ErrUsernameTaken
		case err != nil && !errors.Is(err, ErrNotFound):
			return err
		}
	}
	return nil
}

func checkPassword(password string) error {
	if len(password) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLength)
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
