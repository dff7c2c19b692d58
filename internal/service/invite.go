package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/copperline/streamgate/internal/domain"
	"github.com/copperline/streamgate/internal/store"
	"github.com/copperline/streamgate/pkg/idx"
	"github.com/copperline/streamgate/pkg/slogx"
	"github.com/google/uuid"
)

const (
	// MaxInviteUses bounds how many registrations a single code can admit.
	MaxInviteUses = 1000
)

var (
	ErrInvalidInviteRequest = errors.New("invalid invite request")
	ErrInviteNotFound       = errors.New("invite not found")
	ErrInviteExpired        = errors.New("invite expired")
	ErrInviteExhausted      = errors.New("invite exhausted")
	ErrInviteCodeTaken      = errors.New("invite code already exists")
)

// InviteService mints and consumes the bounded-use invite codes that gate
// registration.
type InviteService struct {
	Store store.Store
}

// Mint creates a new invite code. maxUses must be within [1, MaxInviteUses]
// and expiresAt, when set, must be in the future. An empty code asks for a
// generated one.
func (s *InviteService) Mint(ctx context.Context, code string, maxUses int, expiresAt *time.Time) (domain.InviteCode, error) {
	log := slogx.FromContext(ctx)

	if maxUses < 1 || maxUses > MaxInviteUses {
		return domain.InviteCode{}, ErrInvalidInviteRequest
	}
	if expiresAt != nil && expiresAt.Before(time.Now()) {
		log.Warn("attempted to mint invite with past expiry", slog.Time("expires_at", *expiresAt))
		return domain.InviteCode{}, ErrInvalidInviteRequest
	}

	code = strings.TrimSpace(code)
	if code == "" {
		code = newInviteCode()
	}

	inv := domain.InviteCode{
		ID:        idx.New().String(),
		Code:      code,
		MaxUses:   maxUses,
		Uses:      0,
		ExpiresAt: expiresAt,
	}
	if err := s.Store.Invites().CreateInvite(ctx, inv); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.InviteCode{}, ErrInviteCodeTaken
		}
		log.Error("failed to create invite", slog.Any("error", err))
		return domain.InviteCode{}, err
	}

	log.Debug("invite minted",
		slog.String("invite_id", inv.ID),
		slog.Int("max_uses", maxUses),
	)
	return inv, nil
}

// Consume claims one use of a code within the caller's transaction, so a
// failed registration rolls the consumption back. The conditional update is
// race-free: of N concurrent consumers of a code with one use left, exactly
// one succeeds and the rest observe ErrInviteExhausted.
func (s *InviteService) Consume(ctx context.Context, tx store.Tx, code string) error {
	now := time.Now().UTC()

	claimed, err := tx.Invites().ConsumeInvite(ctx, code, now)
	if err != nil {
		return err
	}
	if claimed {
		return nil
	}

	// The claim failed; fetch the row to report why.
	inv, err := tx.Invites().GetInviteByCode(ctx, code)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInviteNotFound
		}
		return err
	}
	if inv.Expired(now) {
		return ErrInviteExpired
	}
	return ErrInviteExhausted
}

// Revoke clamps maxUses down to the current uses so the code can never be
// consumed again. One-way; consumption history is preserved.
func (s *InviteService) Revoke(ctx context.Context, code string) error {
	log := slogx.FromContext(ctx)

	inv, err := s.Store.Invites().GetInviteByCode(ctx, code)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInviteNotFound
		}
		return err
	}
	if err := s.Store.Invites().RevokeInvite(ctx, code); err != nil {
		return err
	}

	log.Info("invite revoked",
		slog.String("invite_id", inv.ID),
		slog.Int("uses", inv.Uses),
	)
	return nil
}

// List returns all invites, newest first.
func (s *InviteService) List(ctx context.Context) ([]domain.InviteCode, error) {
	return s.Store.Invites().ListInvites(ctx)
}

// newInviteCode generates an easily shareable 32-char hex code.
func newInviteCode() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
