package httpapi

import (
	"errors"
	"net/http"

	"github.com/copperline/streamgate/internal/domain"
	"github.com/copperline/streamgate/internal/service"
	"github.com/copperline/streamgate/pkg/httpx"
	"github.com/copperline/streamgate/pkg/slogx"
)

type UpstreamsHandler struct {
	Upstreams *service.UpstreamService
}

type upstreamRequest struct {
	Name     string `json:"name"`
	APIURL   string `json:"api_url"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// upstreamResponse never carries the password back out; it is write-only at
// the API surface even though the service can decrypt it.
type upstreamResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	APIURL    string `json:"api_url"`
	Username  string `json:"username"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
}

func toUpstreamResponse(a domain.UpstreamAccount) upstreamResponse {
	return upstreamResponse{
		ID:        a.ID,
		Name:      a.Name,
		APIURL:    a.APIURL,
		Username:  a.Username,
		CreatedAt: a.CreatedAt.Unix(),
		UpdatedAt: a.UpdatedAt.Unix(),
	}
}

func (h *UpstreamsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req upstreamRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	created, err := h.Upstreams.Create(ctx, httpx.UserIDFromContext(ctx), domain.UpstreamAccount{
		Name:     req.Name,
		APIURL:   req.APIURL,
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidUpstreamRequest) {
			httpx.WriteError(w, http.StatusBadRequest, "invalid_request",
				"name, username, password and an http(s) api_url are required")
			return
		}
		log.Error("failed to create upstream account", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "Failed to create upstream account")
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, toUpstreamResponse(created))
}

func (h *UpstreamsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	accounts, err := h.Upstreams.List(ctx, httpx.UserIDFromContext(ctx))
	if err != nil {
		log.Error("failed to list upstream accounts", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "Failed to list upstream accounts")
		return
	}

	out := make([]upstreamResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, toUpstreamResponse(a))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *UpstreamsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	a, err := h.Upstreams.Get(ctx, httpx.UserIDFromContext(ctx), r.PathValue("id"))
	if err != nil {
		h.writeLookupError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toUpstreamResponse(a))
}

func (h *UpstreamsHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req upstreamRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	updated, err := h.Upstreams.Update(ctx, httpx.UserIDFromContext(ctx), domain.UpstreamAccount{
		ID:       r.PathValue("id"),
		Name:     req.Name,
		APIURL:   req.APIURL,
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidUpstreamRequest) {
			httpx.WriteError(w, http.StatusBadRequest, "invalid_request",
				"name, username, password and an http(s) api_url are required")
			return
		}
		h.writeLookupError(w, r, err)
		return
	}

	log.Debug("upstream account updated", "upstream_id", updated.ID)
	httpx.WriteJSON(w, http.StatusOK, toUpstreamResponse(updated))
}

func (h *UpstreamsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.Upstreams.Delete(ctx, httpx.UserIDFromContext(ctx), r.PathValue("id")); err != nil {
		h.writeLookupError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *UpstreamsHandler) writeLookupError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, service.ErrUpstreamNotFound) {
		httpx.WriteError(w, http.StatusNotFound, "not_found", "Upstream account not found")
		return
	}
	slogx.FromContext(r.Context()).Error("upstream account operation failed", "err", err)
	httpx.WriteError(w, http.StatusInternalServerError, "server_error", "Upstream account operation failed")
}
