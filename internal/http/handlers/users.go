package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/geocoder89/authhub/internal/domain/user"
	"github.com/gin-gonic/gin"
)

type UsersService interface {
	List(ctx context.Context) ([]user.Identity, error)
	Get(ctx context.Context, id int64) (user.Identity, error)
	Create(ctx context.Context, email, password string) (user.Identity, error)
	Update(ctx context.Context, id int64, email, password string) (user.Identity, error)
	Delete(ctx context.Context, id int64) error
}

type UsersHandler struct {
	svc     UsersService
	timeout time.Duration
}

func NewUsersHandler(svc UsersService, timeout time.Duration) *UsersHandler {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}

	return &UsersHandler{svc: svc, timeout: timeout}
}

func (h *UsersHandler) ListUsers(ctx *gin.Context) {
	cctx, cancel := context.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	users, err := h.svc.List(cctx)

	if err != nil {
		respondUserErr(ctx, err, "Could not list users")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, users)
}

func (h *UsersHandler) GetUser(ctx *gin.Context) {
	id, ok := BindID(ctx)

	if !ok {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	u, err := h.svc.Get(cctx, id)

	if err != nil {
		respondUserErr(ctx, err, "Could not fetch user")
		return
	}

	ctx.JSON(http.StatusOK, u)
}

func (h *UsersHandler) CreateUser(ctx *gin.Context) {
	var req user.CredentialsRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	u, err := h.svc.Create(cctx, req.Email, req.Password)

	if err != nil {
		respondUserErr(ctx, err, "Could not create user")
		return
	}

	ctx.JSON(http.StatusOK, u)
}

func (h *UsersHandler) UpdateUser(ctx *gin.Context) {
	id, ok := BindID(ctx)

	if !ok {
		return
	}

	var req user.CredentialsRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	u, err := h.svc.Update(cctx, id, req.Email, req.Password)

	if err != nil {
		respondUserErr(ctx, err, "Could not update user")
		return
	}

	ctx.JSON(http.StatusOK, u)
}

func (h *UsersHandler) DeleteUser(ctx *gin.Context) {
	id, ok := BindID(ctx)

	if !ok {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	if err := h.svc.Delete(cctx, id); err != nil {
		respondUserErr(ctx, err, "Could not delete user")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}
