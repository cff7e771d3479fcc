package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailExists        = errors.New("email already exists")
	ErrMissingFields      = errors.New("missing required fields")
)

type Service struct {
	repo   UserRepository
	tokens *Tokens
	log    *slog.Logger
}

func NewService(repo UserRepository, tokens *Tokens, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{repo: repo, tokens: tokens, log: log.With(slog.String("component", "auth"))}
}

type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	SchoolID string `json:"school_id"`
}

// REGISTER creates a STAFF account bound to one school.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	in.Email = strings.TrimSpace(in.Email)
	in.SchoolID = strings.TrimSpace(in.SchoolID)
	if in.Name == "" || in.Email == "" || in.Password == "" || in.SchoolID == "" {
		return nil, ErrMissingFields
	}

	return s.create(ctx, in, RoleStaff)
}

// LOGIN returns the account and a signed session token.
func (s *Service) Login(ctx context.Context, email, password string) (*User, string, error) {
	user, err := s.repo.FindByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, ErrUserNotFound) {
		return nil, "", ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", err
	}

	err = bcrypt.CompareHashAndPassword(
		[]byte(user.Password),
		[]byte(password),
	)
	if err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.tokens.Generate(user.ID, user.Email, user.Role, user.SchoolID)
	if err != nil {
		return nil, "", fmt.Errorf("sign token: %w", err)
	}
	return user, token, nil
}

// EnsureAdmin creates the bootstrap ADMIN account unless the email is taken.
func (s *Service) EnsureAdmin(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return nil
	}

	exists, err := s.repo.ExistsByEmail(ctx, email)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	_, err = s.create(ctx, RegisterInput{Name: "Administrator", Email: email, Password: password}, RoleAdmin)
	if errors.Is(err, ErrEmailExists) {
		return nil
	}
	if err == nil {
		s.log.Info("admin_bootstrapped", slog.String("email", email))
	}
	return err
}

func (s *Service) create(ctx context.Context, in RegisterInput, role string) (*User, error) {
	exists, err := s.repo.ExistsByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrEmailExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword(
		[]byte(in.Password),
		bcrypt.DefaultCost,
	)
	if err != nil {
		return nil, err
	}

	user := &User{
		Name:     in.Name,
		Email:    in.Email,
		Password: string(hashedPassword),
		Role:     role,
		SchoolID: in.SchoolID,
	}

	if err := s.repo.Save(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}
