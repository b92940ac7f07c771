package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/tourbook-api/internal/api/shared"
	"github.com/phrazzld/tourbook-api/internal/domain"
	"github.com/phrazzld/tourbook-api/internal/query"
	"github.com/phrazzld/tourbook-api/internal/service"
)

// UserHandler serves the self-service profile routes and the
// administrative user CRUD.
type UserHandler struct {
	users  service.UserService
	logger *slog.Logger

	list, get, create, update, remove http.HandlerFunc
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(users service.UserService, queryOpts query.Options, logger *slog.Logger) *UserHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for UserHandler")
	}

	var coll Collection[domain.User, service.UserInput, domain.UserPatch] = users
	return &UserHandler{
		users:  users,
		logger: logger.With(slog.String("component", "user_handler")),
		list:   ListAll(coll, WithQueryOptions(queryOpts)),
		get:    GetOne(coll),
		create: Create(coll),
		update: Update(coll),
		remove: Delete(coll),
	}
}

// ListUsers handles GET /users
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) { h.list(w, r) }

// GetUser handles GET /users/{id}
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) { h.get(w, r) }

// CreateUser handles POST /users with an explicit role.
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) { h.create(w, r) }

// UpdateUser handles PATCH /users/{id}
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) { h.update(w, r) }

// DeleteUser handles DELETE /users/{id}. The record is removed permanently.
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) { h.remove(w, r) }

// GetMe handles GET /users/me
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	actor, err := identity(r)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	user, err := h.users.Get(r.Context(), actor.ID)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondSuccess(w, r, http.StatusOK, "data", user)
}

// UpdateMe handles PATCH /users/updateMe
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	actor, err := identity(r)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	var req service.MeInput
	if err := shared.DecodeJSON(r, &req); err != nil {
		HandleAPIError(w, r, err)
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		HandleAPIError(w, r, err)
		return
	}

	user, err := h.users.UpdateMe(r.Context(), actor, &req)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondSuccess(w, r, http.StatusOK, "user", user)
}

// DeleteMe handles DELETE /users/deleteMe by deactivating the account.
func (h *UserHandler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	actor, err := identity(r)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	if err := h.users.DeleteMe(r.Context(), actor); err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondNoContent(w)
}
