package server

import (
	"net/http"

	"github.com/comrade-chat/comrade-client/internal/models"
	"github.com/comrade-chat/comrade-client/internal/repo/authapi"
	"github.com/comrade-chat/comrade-client/internal/server/middleware"
	"github.com/comrade-chat/comrade-client/internal/session"
	"github.com/labstack/echo/v4"
)

// AuthController covers account onboarding. Login itself happens at startup
// from configured credentials; these endpoints exist so a fresh account can
// be created and verified through the gateway.
type AuthController interface {
	Register(c echo.Context) error
	VerifyEmail(c echo.Context) error
	ResendVerification(c echo.Context) error
	RefreshSession(c echo.Context) error
}

type authController struct {
	auth authapi.Client
	sess *session.Session
}

func NewAuthController(auth authapi.Client, sess *session.Session) AuthController {
	return &authController{
		auth: auth,
		sess: sess,
	}
}

func (ac *authController) Register(c echo.Context) error {
	var req models.RegisterParams
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	created, err := ac.auth.Register(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, middleware.Response{Success: true, Data: created.User})
}

func (ac *authController) VerifyEmail(c echo.Context) error {
	var req models.VerifyEmailParams
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := ac.auth.VerifyEmail(c.Request().Context(), req); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, middleware.Response{Success: true})
}

type resendVerificationRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func (ac *authController) ResendVerification(c echo.Context) error {
	var req resendVerificationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := ac.auth.ResendVerification(c.Request().Context(), req.Email); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, middleware.Response{Success: true})
}

func (ac *authController) RefreshSession(c echo.Context) error {
	if err := ac.sess.Refresh(c.Request().Context()); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, middleware.Response{Success: true})
}
