package service

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"

	"github.com/copperline/streamgate/internal/domain"
	"github.com/copperline/streamgate/internal/store"
	"github.com/copperline/streamgate/pkg/idx"
	"github.com/copperline/streamgate/pkg/slogx"
)

var (
	ErrInvalidUpstreamRequest = errors.New("invalid upstream request")
	ErrUpstreamNotFound       = errors.New("upstream account not found")
)

// UpstreamService manages a user's stored upstream provider credentials.
// Credential encryption happens at the persistence boundary, so the service
// only ever sees plaintext domain records. Every operation is scoped to the
// calling user; an account owned by someone else reads as not found so ids
// cannot be enumerated.
type UpstreamService struct {
	Store store.Store
}

// Create stores a new upstream account for the user.
func (s *UpstreamService) Create(ctx context.Context, userID string, a domain.UpstreamAccount) (domain.UpstreamAccount, error) {
	log := slogx.FromContext(ctx)

	if err := validateUpstream(a); err != nil {
		return domain.UpstreamAccount{}, err
	}

	a.ID = idx.New().String()
	a.UserID = userID
	if err := s.Store.UpstreamAccounts().CreateUpstreamAccount(ctx, a); err != nil {
		log.Error("failed to create upstream account", slog.Any("error", err))
		return domain.UpstreamAccount{}, err
	}

	log.Debug("upstream account created",
		slog.String("upstream_id", a.ID),
		slog.String("user_id", userID),
	)
	return a, nil
}

// Get returns one of the user's upstream accounts.
func (s *UpstreamService) Get(ctx context.Context, userID, id string) (domain.UpstreamAccount, error) {
	a, err := s.Store.UpstreamAccounts().GetUpstreamAccountByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.UpstreamAccount{}, ErrUpstreamNotFound
		}
		return domain.UpstreamAccount{}, err
	}
	if a.UserID != userID {
		return domain.UpstreamAccount{}, ErrUpstreamNotFound
	}
	return a, nil
}

// List returns all of the user's upstream accounts, newest first.
func (s *UpstreamService) List(ctx context.Context, userID string) ([]domain.UpstreamAccount, error) {
	return s.Store.UpstreamAccounts().ListUpstreamAccountsByUser(ctx, userID)
}

// Update rewrites name, api url and credentials of one of the user's accounts.
func (s *UpstreamService) Update(ctx context.Context, userID string, a domain.UpstreamAccount) (domain.UpstreamAccount, error) {
	if err := validateUpstream(a); err != nil {
		return domain.UpstreamAccount{}, err
	}

	existing, err := s.Get(ctx, userID, a.ID)
	if err != nil {
		return domain.UpstreamAccount{}, err
	}

	a.UserID = existing.UserID
	if err := s.Store.UpstreamAccounts().UpdateUpstreamAccount(ctx, a); err != nil {
		return domain.UpstreamAccount{}, err
	}
	return s.Get(ctx, userID, a.ID)
}

// Delete removes one of the user's accounts.
func (s *UpstreamService) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	return s.Store.UpstreamAccounts().DeleteUpstreamAccount(ctx, id)
}

func validateUpstream(a domain.UpstreamAccount) error {
	if strings.TrimSpace(a.Name) == "" || a.Username == "" || a.Password == "" {
		return ErrInvalidUpstreamRequest
	}
	u, err := url.Parse(a.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidUpstreamRequest
	}
	return nil
}
