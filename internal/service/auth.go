package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"rideshare/internal/domain"
	"rideshare/internal/repository"
)

// SignupRequest contains the parameters for registering a user.
type SignupRequest struct {
	Name    string
	Email   string
	PhoneNo string
	Secret  string
}

// LoginRequest contains the parameters for logging in.
type LoginRequest struct {
	Email  string
	Secret string
}

// AuthService handles signup and login.
type AuthService struct {
	userRepo  repository.UserRepository
	creds     *CredentialService
	opTimeout time.Duration
	log       *logrus.Logger

	dummyOnce   sync.Once
	dummyDigest string
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repository.UserRepository, creds *CredentialService, opTimeout time.Duration, log *logrus.Logger) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		creds:     creds,
		opTimeout: opTimeout,
		log:       orDiscard(log),
	}
}

// Signup registers a new user.
func (s *AuthService) Signup(ctx context.Context, req SignupRequest) error {
	user := &domain.User{
		Email:   req.Email,
		Name:    req.Name,
		PhoneNo: req.PhoneNo,
	}
	if err := user.Validate(); err != nil {
		return err
	}

	digest, err := s.creds.Hash(req.Secret)
	if err != nil {
		return err
	}
	user.SecretDigest = digest

	ctx, cancel := withOpTimeout(ctx, s.opTimeout)
	defer cancel()

	if err := s.userRepo.Insert(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return ErrDuplicateEmail
		}
		return storeError(err)
	}

	s.log.WithField("email", user.Email).Info("user registered")
	return nil
}

// Login verifies credentials and returns a signed token.
// Unknown emails and wrong passwords are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (string, error) {
	if req.Email == "" || req.Secret == "" {
		return "", ErrInvalidCredentials
	}

	ctx, cancel := withOpTimeout(ctx, s.opTimeout)
	defer cancel()

	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Keep the unknown-email path as slow as a real comparison.
			s.creds.Verify(req.Secret, s.dummy())
			return "", ErrInvalidCredentials
		}
		return "", storeError(err)
	}

	if !s.creds.Verify(req.Secret, user.SecretDigest) {
		s.log.WithField("email", req.Email).Info("login rejected")
		return "", ErrInvalidCredentials
	}

	token, err := s.creds.IssueToken(TokenClaims{
		Email:   user.Email,
		Name:    user.Name,
		PhoneNo: user.PhoneNo,
	})
	if err != nil {
		return "", err
	}

	s.log.WithField("email", user.Email).Info("user logged in")
	return token, nil
}

func (s *AuthService) dummy() string {
	s.dummyOnce.Do(func() {
		digest, err := s.creds.Hash("rideshare-placeholder-secret")
		if err == nil {
			s.dummyDigest = digest
		}
	})
	return s.dummyDigest
}
