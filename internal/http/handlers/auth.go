package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/geocoder89/authhub/internal/auth"
	"github.com/geocoder89/authhub/internal/domain/user"
	"github.com/geocoder89/authhub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type CredentialsService interface {
	Register(ctx context.Context, email, password string) (auth.Session, error)
	Login(ctx context.Context, email, password string) (auth.Session, error)
}

type AuthHandler struct {
	svc     CredentialsService
	timeout time.Duration
}

func NewAuthHandler(svc CredentialsService, timeout time.Duration) *AuthHandler {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}

	return &AuthHandler{svc: svc, timeout: timeout}
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	UserID      int64  `json:"user_id"`
	Email       string `json:"email"`
}

func newTokenResponse(s auth.Session) TokenResponse {
	return TokenResponse{
		AccessToken: s.AccessToken,
		TokenType:   "bearer",
		UserID:      s.Identity.UserID,
		Email:       s.Identity.Email,
	}
}

func (h *AuthHandler) Register(ctx *gin.Context) {
	var req user.CredentialsRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), h.timeout)

	defer cancel()

	sess, err := h.svc.Register(cctx, req.Email, req.Password)

	if err != nil {
		if errors.Is(err, auth.ErrEmailTaken) {
			RespondEmailTaken(ctx)
			return
		}

		_ = ctx.Error(err)
		RespondInternal(ctx, "Could not create user")
		return
	}

	ctx.JSON(http.StatusOK, newTokenResponse(sess))
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req user.CredentialsRequest

	if !BindJSON(ctx, &req) {
		return
	}
	// short timeout for DB lookup
	cctx, cancel := context.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	sess, err := h.svc.Login(cctx, req.Email, req.Password)

	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			RespondUnauthorized(ctx, "invalid_credentials", "Email or password is incorrect.")
			return
		}

		_ = ctx.Error(err)
		RespondInternal(ctx, "Could not log in")
		return
	}

	ctx.JSON(http.StatusOK, newTokenResponse(sess))
}

// Me echoes the identity resolved by the auth middleware.
func (h *AuthHandler) Me(ctx *gin.Context) {
	who, ok := middlewares.IdentityFromContext(ctx)

	if !ok {
		RespondUnauthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	ctx.JSON(http.StatusOK, who)
}
