package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/eventos-api/internal/metrics"
	"github.com/iliyamo/eventos-api/internal/model"
	"github.com/iliyamo/eventos-api/internal/queue"
	"github.com/iliyamo/eventos-api/internal/repository"
	"github.com/iliyamo/eventos-api/internal/utils"
)

// UserStore is the subset of the user repository the services need.
type UserStore interface {
	ExistsUsernameOrEmail(ctx context.Context, username, email string) (usernameTaken, emailTaken bool, err error)
	Create(ctx context.Context, u *model.User) error
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	ExistsByID(ctx context.Context, id uint64) (bool, error)
	List(ctx context.Context) ([]model.User, error)
}

// SignupInput is the signup payload.
type SignupInput struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Username string `json:"username" validate:"required,min=3,max=50,username"`
	Email    string `json:"email" validate:"required,max=100,email"`
	Password string `json:"password" validate:"required,min=6,max=100,maxbytes=72"`
}

// LoginInput is the login payload.
type LoginInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthResult is returned by Login and Refresh.
type AuthResult struct {
	AccessToken  string            `json:"accessToken"`
	RefreshToken string            `json:"refreshToken"`
	User         model.UserSummary `json:"user"`
}

// AuthService signs users up, verifies credentials and issues tokens.
type AuthService struct {
	users     UserStore
	hasher    *utils.PasswordHasher
	tokens    *utils.TokenService
	publisher queue.Publisher
	now       func() time.Time

	// dummyHash is compared against when the username is unknown so a
	// failed login costs one bcrypt comparison either way.
	dummyHash string
}

func NewAuthService(users UserStore, hasher *utils.PasswordHasher, tokens *utils.TokenService, publisher queue.Publisher) *AuthService {
	dummy, err := hasher.Hash("eventos-timing-equaliser")
	if err != nil {
		panic(fmt.Sprintf("service: build login timing hash: %v", err))
	}
	return &AuthService{
		users:     users,
		hasher:    hasher,
		tokens:    tokens,
		publisher: publisher,
		now:       time.Now,
		dummyHash: dummy,
	}
}

// Signup creates an active USER account.  It never returns a token.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (err error) {
	defer func() { metrics.AuthAttempts.WithLabelValues("signup", signupOutcome(err)).Inc() }()

	in.Name = strings.TrimSpace(in.Name)
	in.Username = strings.TrimSpace(in.Username)
	in.Email = repository.NormalizeEmail(in.Email)
	if err := validateStruct(in); err != nil {
		return err
	}

	usernameTaken, emailTaken, err := s.users.ExistsUsernameOrEmail(ctx, in.Username, in.Email)
	if err != nil {
		return fmt.Errorf("check uniqueness: %w", err)
	}
	if usernameTaken {
		return ErrDuplicateUsername
	}
	if emailTaken {
		return ErrDuplicateEmail
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	u := &model.User{
		Name:         in.Name,
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         model.RoleUser,
		IsActive:     true,
	}
	// The unique keys are the authority; a concurrent signup that slipped
	// past the pre-check surfaces here.
	if err := s.users.Create(ctx, u); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateUsername):
			return ErrDuplicateUsername
		case errors.Is(err, repository.ErrDuplicateEmail):
			return ErrDuplicateEmail
		}
		return fmt.Errorf("create user: %w", err)
	}

	publish(ctx, s.publisher, queue.ActivityEvent{
		Type: queue.UserSignedUp, ActorID: u.ID, ResourceID: u.ID, OccurredAt: s.now().UTC(),
	})
	return nil
}

// Login verifies credentials.  Unknown usernames, wrong passwords and
// disabled accounts all fail with ErrAuthentication.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (res *AuthResult, err error) {
	defer func() { metrics.AuthAttempts.WithLabelValues("login", metrics.Outcome(err)).Inc() }()

	in.Username = strings.TrimSpace(in.Username)
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	u, err := s.users.GetByUsername(ctx, in.Username)
	if errors.Is(err, repository.ErrNotFound) {
		s.hasher.Verify(s.dummyHash, in.Password)
		return nil, ErrAuthentication
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if !s.hasher.Verify(u.PasswordHash, in.Password) || !u.IsActive {
		return nil, ErrAuthentication
	}

	sub := subjectOf(u)
	access, err := s.tokens.GenerateAccessToken(sub)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := s.tokens.GenerateRefreshToken(sub)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}
	return &AuthResult{AccessToken: access.Value, RefreshToken: refresh.Value, User: u.Summary()}, nil
}

// Refresh issues a new access token for the subject of a valid refresh
// token.  The user is reloaded so role and activation changes apply.
// The refresh token itself is returned unchanged.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (res *AuthResult, err error) {
	defer func() { metrics.AuthAttempts.WithLabelValues("refresh", metrics.Outcome(err)).Inc() }()

	refreshToken = strings.TrimSpace(refreshToken)
	claims, err := s.tokens.ParseRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidToken
	}
	u, err := s.users.GetByUsername(ctx, claims.Subject)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if !u.IsActive {
		return nil, ErrAuthentication
	}

	access, err := s.tokens.GenerateAccessToken(subjectOf(u))
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	return &AuthResult{AccessToken: access.Value, RefreshToken: refreshToken, User: u.Summary()}, nil
}

// Me returns the summary of the named user.
func (s *AuthService) Me(ctx context.Context, username string) (*model.UserSummary, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	sum := u.Summary()
	return &sum, nil
}

// ListUsers returns every account's summary ordered by id.
func (s *AuthService) ListUsers(ctx context.Context) ([]model.UserSummary, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	out := make([]model.UserSummary, 0, len(users))
	for _, u := range users {
		out = append(out, u.Summary())
	}
	return out, nil
}

func subjectOf(u *model.User) utils.TokenSubject {
	return utils.TokenSubject{ID: u.ID, Username: u.Username, Role: u.Role}
}

func signupOutcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrDuplicateUsername), errors.Is(err, ErrDuplicateEmail):
		return "duplicate"
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return "invalid"
	}
	return "error"
}
