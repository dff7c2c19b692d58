package service

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/copperline/streamgate/internal/domain"
	"github.com/copperline/streamgate/internal/store"
	"github.com/copperline/streamgate/pkg/cryptox"
	"github.com/copperline/streamgate/pkg/idx"
	"github.com/copperline/streamgate/pkg/slogx"
)

const (
	// MinPasswordLength is the minimum accepted password length on registration.
	MinPasswordLength = 8

	// RoleUser is assigned to every registered account.
	RoleUser = "user"
	// RoleAdmin unlocks invite administration. The first account registered
	// into an empty store receives it.
	RoleAdmin = "admin"
)

var (
	ErrInvalidRegistration    = errors.New("invalid_registration")
	ErrEmailAlreadyRegistered = errors.New("email_already_registered")
	ErrInvalidCredentials     = errors.New("invalid_credentials")
	ErrUnauthorized           = errors.New("unauthorized")
	ErrUserNotFound           = errors.New("user_not_found")
)

// AuthService orchestrates registration, login, refresh and logout on top of
// the invite gate and the token service.
type AuthService struct {
	Store   store.Store
	Tokens  *TokenService
	Invites *InviteService
}

// Register creates an account gated by an invite code and returns the new
// user with a signed token pair. Invite consumption, the email-uniqueness
// check, account creation and refresh token persistence all run in a single
// transaction: a failed registration never burns the invite.
func (s *AuthService) Register(ctx context.Context, email, password, inviteCode string) (domain.User, *domain.TokenPair, error) {
	now := time.Now().UTC()
	log := slogx.FromContext(ctx)

	// 1. Validate input before touching the store.
	email = normalizeEmail(email)
	if email == "" || inviteCode == "" || len(password) < MinPasswordLength {
		return domain.User{}, nil, ErrInvalidRegistration
	}

	// 2. Hash outside the transaction; argon2 is deliberately slow.
	passwordHash, err := cryptox.HashSecret(password)
	if err != nil {
		return domain.User{}, nil, err
	}

	var (
		newUser domain.User
		pair    *domain.TokenPair
	)
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		// 3. Consume the invite first; everything after rolls back with it.
		if err := s.Invites.Consume(ctx, tx, inviteCode); err != nil {
			return err
		}

		// 4. The first account into an empty store becomes the admin.
		roles := []string{RoleUser}
		empty, err := tx.Users().IsEmpty(ctx)
		if err != nil {
			return err
		}
		if empty {
			roles = []string{RoleAdmin, RoleUser}
		}

		newUser = domain.User{
			ID:           idx.New().String(),
			Email:        email,
			PasswordHash: passwordHash,
			Roles:        roles,
		}
		if err := tx.Users().CreateUser(ctx, newUser); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return ErrEmailAlreadyRegistered
			}
			return err
		}

		// 5. Issue the pair inside the same unit of work.
		pair, err = s.Tokens.IssuePair(ctx, tx, newUser, now)
		return err
	})
	if err != nil {
		return domain.User{}, nil, err
	}

	log.Info("user registered",
		slog.String("user_id", newUser.ID),
		slog.Bool("admin", newUser.HasRole(RoleAdmin)),
	)
	return newUser, pair, nil
}

// Login verifies credentials and issues a fresh token pair. A missing email
// and a wrong password produce the same generic error so callers cannot
// probe which emails are registered.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.TokenPair, error) {
	now := time.Now().UTC()
	log := slogx.FromContext(ctx)

	u, err := s.Store.Users().GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := cryptox.VerifySecret(password, u.PasswordHash); err != nil {
		log.Info("login password verification failed", slog.String("user_id", u.ID))
		return nil, ErrInvalidCredentials
	}

	return s.Tokens.IssuePair(ctx, s.Store, u, now)
}

// Refresh rotates a presented refresh token. Every rotation failure collapses
// to ErrUnauthorized so the response never reveals whether a token was
// malformed, expired, revoked or simply wrong.
func (s *AuthService) Refresh(ctx context.Context, presented string) (*domain.TokenPair, error) {
	pair, err := s.Tokens.Rotate(ctx, presented)
	if err != nil {
		switch {
		case errors.Is(err, ErrRefreshMalformed),
			errors.Is(err, ErrRefreshInvalid),
			errors.Is(err, ErrRefreshRevoked),
			errors.Is(err, ErrRefreshExpired):
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	return pair, nil
}

// Logout revokes the presented refresh token best-effort. Already-invalid
// tokens are not an error; logout is idempotent.
func (s *AuthService) Logout(ctx context.Context, presented string) error {
	return s.Tokens.Revoke(ctx, presented)
}

// Me loads the account behind a verified token subject.
func (s *AuthService) Me(ctx context.Context, userID string) (domain.User, error) {
	u, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}
	return u, nil
}

// normalizeEmail lowercases and validates the address; invalid input maps to
// the empty string.
func normalizeEmail(email string) string {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return ""
	}
	return email
}
