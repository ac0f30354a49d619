package auth

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/aadish-25/todo-backend/internal/domain"
	"github.com/aadish-25/todo-backend/internal/repository"
	"github.com/aadish-25/todo-backend/pkg/config"
	"github.com/aadish-25/todo-backend/pkg/crypto"
	jwtpkg "github.com/aadish-25/todo-backend/pkg/jwt"
)

var (
	// ErrValidation marks missing or malformed registration input.
	ErrValidation = errors.New("invalid input")
	// ErrAccountExists is returned when the email is already registered.
	ErrAccountExists = errors.New("user already exists")
	// ErrInvalidCredentials covers both unknown emails and wrong passwords.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrMissingToken is returned when no bearer token was presented.
	ErrMissingToken = errors.New("access token required")
	// ErrInvalidToken is returned when a presented token fails verification.
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrUnknownUser is returned when a verified token names an account that no longer exists.
	ErrUnknownUser = errors.New("invalid token")
)

// Service handles registration, login and token resolution.
type Service struct {
	users  repository.UserRepository
	logger *slog.Logger
	secret string
	ttl    time.Duration
	cost   int
	gate   *semaphore.Weighted
	now    func() time.Time
	decoy  *decoyHash
}

// New constructs a Service. An empty signing secret is a configuration error.
func New(users repository.UserRepository, logger *slog.Logger, cfg config.APIConfig) (Service, error) {
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		return Service{}, jwtpkg.ErrMissingSecret
	}
	workers := cfg.HashWorkers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = jwtpkg.DefaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return Service{
		users:  users,
		logger: logger,
		secret: cfg.JWTSecret,
		ttl:    ttl,
		cost:   crypto.PasswordCost,
		gate:   semaphore.NewWeighted(int64(workers)),
		now:    time.Now,
		decoy:  &decoyHash{},
	}, nil
}

// Register creates an account. The stored record keeps only the bcrypt hash.
func (s Service) Register(ctx context.Context, username, email, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	email = normalizeEmail(email)
	switch {
	case username == "":
		return nil, fmt.Errorf("%w: username is required", ErrValidation)
	case email == "" || !strings.Contains(email, "@"):
		return nil, fmt.Errorf("%w: a valid email is required", ErrValidation)
	case password == "":
		return nil, fmt.Errorf("%w: password is required", ErrValidation)
	}

	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		s.logger.Info("registration rejected", "reason", "account_exists")
		return nil, ErrAccountExists
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("lookup account: %w", err)
	}

	hash, err := s.hash(ctx, password)
	if err != nil {
		if errors.Is(err, crypto.ErrPasswordTooLong) {
			return nil, fmt.Errorf("%w: password is too long", ErrValidation)
		}
		return nil, fmt.Errorf("hash password: %w", err)
	}
	now := s.now().UTC()
	user := &domain.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			s.logger.Info("registration rejected", "reason", "account_exists")
			return nil, ErrAccountExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	s.logger.Info("user registered", "user_id", user.ID)
	return user, nil
}

// VerifyCredentials returns the user whose password matches.
// Unknown emails and wrong passwords are indistinguishable to the caller.
func (s Service) VerifyCredentials(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.users.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("lookup account: %w", err)
		}
		s.burnCompare(ctx, password)
		s.logger.Info("login rejected", "reason", "unknown_email")
		return nil, ErrInvalidCredentials
	}
	if err := s.compare(ctx, user.PasswordHash, password); err != nil {
		if errors.Is(err, crypto.ErrMismatch) {
			s.logger.Info("login rejected", "reason", "password_mismatch", "user_id", user.ID)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	return user, nil
}

// Login verifies credentials and issues a bearer token.
func (s Service) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	user, err := s.VerifyCredentials(ctx, email, password)
	if err != nil {
		return nil, "", err
	}
	token, err := s.IssueToken(user)
	if err != nil {
		return nil, "", err
	}
	s.logger.Info("user logged in", "user_id", user.ID)
	return user, token, nil
}

// IssueToken signs an identity claim for user valid for the configured ttl.
func (s Service) IssueToken(user *domain.User) (string, error) {
	token, err := jwtpkg.GenerateTokenAt(jwtpkg.Identity{UserID: user.ID, Email: user.Email}, s.secret, s.ttl, s.now())
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

// Resolve verifies a bearer token and loads the account it names.
func (s Service) Resolve(ctx context.Context, token string) (*domain.User, error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return nil, ErrMissingToken
	}
	claims, err := jwtpkg.ParseAt(trimmed, s.secret, s.now())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	user, err := s.users.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnknownUser
		}
		return nil, fmt.Errorf("lookup token user: %w", err)
	}
	return user, nil
}

func (s Service) hash(ctx context.Context, password string) ([]byte, error) {
	if err := s.gate.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer s.gate.Release(1)
	return crypto.HashPasswordCost(password, s.cost)
}

func (s Service) compare(ctx context.Context, hash []byte, password string) error {
	if err := s.gate.Acquire(ctx, 1); err != nil {
		return err
	}
	defer s.gate.Release(1)
	return crypto.ComparePassword(hash, password)
}

// burnCompare spends one comparison against a throwaway hash so unknown emails
// cost the same as wrong passwords.
func (s Service) burnCompare(ctx context.Context, password string) {
	hash := s.decoy.get(s.cost)
	if hash == nil {
		return
	}
	_ = s.compare(ctx, hash, password)
}

type decoyHash struct {
	once sync.Once
	hash []byte
}

func (d *decoyHash) get(cost int) []byte {
	if d == nil {
		return nil
	}
	d.once.Do(func() {
		d.hash, _ = crypto.HashPasswordCost(uuid.NewString(), cost)
	})
	return d.hash
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
