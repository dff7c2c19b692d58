package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/copperline/streamgate/internal/domain"
	"github.com/copperline/streamgate/internal/service"
	"github.com/copperline/streamgate/pkg/httpx"
	"github.com/copperline/streamgate/pkg/slogx"
)

type InviteAdminHandler struct {
	Invites *service.InviteService
}

type mintInviteRequest struct {
	Code      string `json:"code,omitempty"`       // optional, generated when empty
	MaxUses   int    `json:"max_uses"`             // 1..1000
	ExpiresAt int64  `json:"expires_at,omitempty"` // unix seconds, 0 = never
}

type revokeInviteRequest struct {
	Code string `json:"code"`
}

type inviteResponse struct {
	ID        string `json:"id"`
	Code      string `json:"code"`
	MaxUses   int    `json:"max_uses"`
	Uses      int    `json:"uses"`
	ExpiresAt int64  `json:"expires_at,omitempty"`
	CreatedAt int64  `json:"created_at"`
}

func toInviteResponse(inv domain.InviteCode) inviteResponse {
	out := inviteResponse{
		ID:        inv.ID,
		Code:      inv.Code,
		MaxUses:   inv.MaxUses,
		Uses:      inv.Uses,
		CreatedAt: inv.CreatedAt.Unix(),
	}
	if inv.ExpiresAt != nil {
		out.ExpiresAt = inv.ExpiresAt.Unix()
	}
	return out
}

// HandleMint creates a new invite code. Admin only.
func (h *InviteAdminHandler) HandleMint(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req mintInviteRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	var expiresAt *time.Time
	if req.ExpiresAt != 0 {
		t := time.Unix(req.ExpiresAt, 0).UTC()
		expiresAt = &t
	}

	inv, err := h.Invites.Mint(ctx, req.Code, req.MaxUses, expiresAt)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInviteRequest) {
			httpx.WriteError(w, http.StatusBadRequest, "invalid_request",
				"max_uses must be between 1 and 1000 and expires_at must be in the future")
			return
		}
		if errors.Is(err, service.ErrInviteCodeTaken) {
			httpx.WriteError(w, http.StatusConflict, "invite_code_taken", "Invite code already exists")
			return
		}
		log.Error("failed to mint invite", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "Failed to create invite")
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, toInviteResponse(inv))
}

// HandleList returns all invites, newest first. Admin only.
func (h *InviteAdminHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	invites, err := h.Invites.List(ctx)
	if err != nil {
		log.Error("failed to list invites", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "Failed to list invites")
		return
	}

	out := make([]inviteResponse, 0, len(invites))
	for _, inv := range invites {
		out = append(out, toInviteResponse(inv))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

// HandleRevoke permanently disables an invite code. Admin only.
func (h *InviteAdminHandler) HandleRevoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req revokeInviteRequest
	if err := httpx.DecodeJSON(r, &req); err != nil || req.Code == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "code is required")
		return
	}

	if err := h.Invites.Revoke(ctx, req.Code); err != nil {
		if errors.Is(err, service.ErrInviteNotFound) {
			httpx.WriteError(w, http.StatusNotFound, "invite_not_found", "Unknown invite code")
			return
		}
		log.Error("failed to revoke invite", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "Failed to revoke invite")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
