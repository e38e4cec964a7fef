package server

import (
	"context"
	"net/http"

	"github.com/comrade-chat/comrade-client/internal/models"
	"github.com/comrade-chat/comrade-client/internal/repo/requestapi"
	"github.com/comrade-chat/comrade-client/internal/repo/userapi"
	"github.com/comrade-chat/comrade-client/internal/server/middleware"
	"github.com/comrade-chat/comrade-client/internal/session"
	"github.com/labstack/echo/v4"
)

// ContactController covers the dashboard surface: contact requests, profile
// and user search.
type ContactController interface {
	IncomingRequests(c echo.Context) error
	OutgoingRequests(c echo.Context) error
	SendRequest(c echo.Context) error
	AcceptRequest(c echo.Context) error
	RejectRequest(c echo.Context) error
	GetProfile(c echo.Context) error
	UpdateProfile(c echo.Context) error
	SearchUsers(c echo.Context) error
	BlockUser(c echo.Context) error
	UnblockUser(c echo.Context) error
	MuteUser(c echo.Context) error
	UnmuteUser(c echo.Context) error
	ReportUser(c echo.Context) error
	CurrentSession(c echo.Context) error
}

type contactController struct {
	requests requestapi.Client
	users    userapi.Client
	sess     *session.Session
}

func NewContactController(requests requestapi.Client, users userapi.Client, sess *session.Session) ContactController {
	return &contactController{
		requests: requests,
		users:    users,
		sess:     sess,
	}
}

func (cc *contactController) IncomingRequests(c echo.Context) error {
	reqs, err := cc.requests.Incoming(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, middleware.Response{Success: true, Data: reqs})
}

func (cc *contactController) OutgoingRequests(c echo.Context) error {
	reqs, err := cc.requests.Outgoing(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, middleware.Response{Success: true, Data: reqs})
}

type sendRequestRequest struct {
	RecipientID string `json:"recipientId" validate:"required"`
}

func (cc *contactController) SendRequest(c echo.Context) error {
	var req sendRequestRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	sent, err := cc.requests.Send(c.Request().Context(), req.RecipientID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, middleware.Response{Success: true, Data: sent})
}

func (cc *contactController) AcceptRequest(c echo.Context) error {
	if err := cc.requests.Accept(c.Request().Context(), c.Param("requestId")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, middleware.Response{Success: true})
}

func (cc *contactController) RejectRequest(c echo.Context) error {
	if err := cc.requests.Reject(c.Request().Context(), c.Param("requestId")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, middleware.Response{Success: true})
}

func (cc *contactController) GetProfile(c echo.Context) error {
	user, err := cc.users.GetMe(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, middleware.Response{Success: true, Data: user})
}

func (cc *contactController) UpdateProfile(c echo.Context) error {
	var req models.UpdateProfileParams
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	user, err := cc.users.UpdateMe(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, middleware.Response{Success: true, Data: user})
}

func (cc *contactController) SearchUsers(c echo.Context) error {
	query := c.QueryParam("q")
	if query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing query")
	}

	users, err := cc.users.SearchUsers(c.Request().Context(), query)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, middleware.Response{Success: true, Data: users})
}

func (cc *contactController) BlockUser(c echo.Context) error {
	return cc.userAction(c, cc.users.BlockUser)
}

func (cc *contactController) UnblockUser(c echo.Context) error {
	return cc.userAction(c, cc.users.UnblockUser)
}

func (cc *contactController) MuteUser(c echo.Context) error {
	return cc.userAction(c, cc.users.MuteUser)
}

func (cc *contactController) UnmuteUser(c echo.Context) error {
	return cc.userAction(c, cc.users.UnmuteUser)
}

func (cc *contactController) userAction(c echo.Context, action func(ctx context.Context, userID string) error) error {
	if err := action(c.Request().Context(), c.Param("userId")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, middleware.Response{Success: true})
}

type reportRequest struct {
	Reason string `json:"reason" validate:"required"`
}

func (cc *contactController) ReportUser(c echo.Context) error {
	var req reportRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := cc.users.ReportUser(c.Request().Context(), c.Param("userId"), req.Reason); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, middleware.Response{Success: true})
}

func (cc *contactController) CurrentSession(c echo.Context) error {
	return c.JSON(http.StatusOK, middleware.Response{Success: true, Data: cc.sess.CurrentUser()})
}
