package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/eventos-api/internal/middleware"
	"github.com/iliyamo/eventos-api/internal/model"
	"github.com/iliyamo/eventos-api/internal/service"
)

// AuthService is what AuthHandler needs from the service layer.
type AuthService interface {
	Signup(ctx context.Context, in service.SignupInput) error
	Login(ctx context.Context, in service.LoginInput) (*service.AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (*service.AuthResult, error)
	Me(ctx context.Context, username string) (*model.UserSummary, error)
	ListUsers(ctx context.Context) ([]model.UserSummary, error)
}

// AuthHandler serves /api/auth and /api/users.
type AuthHandler struct {
	svc     AuthService
	timeout time.Duration
}

func NewAuthHandler(svc AuthService, timeout time.Duration) *AuthHandler {
	return &AuthHandler{svc: svc, timeout: timeout}
}

type refreshReq struct {
	RefreshToken string `json:"refreshToken"`
}

// Signup creates an account and answers 200 with an empty body.
func (h *AuthHandler) Signup(c echo.Context) error {
	var req service.SignupInput
	if err := c.Bind(&req); err != nil {
		return err
	}
	ctx, cancel := requestCtx(c, h.timeout)
	defer cancel()

	if err := h.svc.Signup(ctx, req); err != nil {
		return err
	}
	return c.NoContent(http.StatusOK)
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req service.LoginInput
	if err := c.Bind(&req); err != nil {
		return err
	}
	ctx, cancel := requestCtx(c, h.timeout)
	defer cancel()

	res, err := h.svc.Login(ctx, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil {
		return err
	}
	ctx, cancel := requestCtx(c, h.timeout)
	defer cancel()

	res, err := h.svc.Refresh(ctx, req.RefreshToken)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

// Me returns the authenticated user's summary.
func (h *AuthHandler) Me(c echo.Context) error {
	ctx, cancel := requestCtx(c, h.timeout)
	defer cancel()

	me, err := h.svc.Me(ctx, middleware.Username(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, me)
}

// ListUsers is restricted to ADMIN by the router.
func (h *AuthHandler) ListUsers(c echo.Context) error {
	ctx, cancel := requestCtx(c, h.timeout)
	defer cancel()

	users, err := h.svc.ListUsers(ctx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, users)
}
