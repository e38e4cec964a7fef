package server

import (
	"net/http"
	"time"

	"github.com/comrade-chat/comrade-client/internal/chatview"
	"github.com/comrade-chat/comrade-client/internal/models"
	"github.com/comrade-chat/comrade-client/internal/repo/chatapi"
	"github.com/comrade-chat/comrade-client/internal/server/middleware"
	"github.com/labstack/echo/v4"
)

// ChatController exposes the reconciled chat views to the local UI.
type ChatController interface {
	ListChats(c echo.Context) error
	GetChat(c echo.Context) error
	OpenChat(c echo.Context) error
	CloseChat(c echo.Context) error
	GetMessages(c echo.Context) error
	SendMessage(c echo.Context) error
	SendMedia(c echo.Context) error
	LoadOlder(c echo.Context) error
	ToggleReaction(c echo.Context) error
}

type chatController struct {
	views *chatview.ViewManager
	chats chatapi.Client
}

func NewChatController(views *chatview.ViewManager, chats chatapi.Client) ChatController {
	return &chatController{
		views: views,
		chats: chats,
	}
}

func (cc *chatController) ListChats(c echo.Context) error {
	chats, err := cc.chats.ListChats(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, middleware.Response{Success: true, Data: chats})
}

func (cc *chatController) GetChat(c echo.Context) error {
	chat, err := cc.chats.GetChat(c.Request().Context(), c.Param("chatId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, middleware.Response{Success: true, Data: chat})
}

type chatViewPayload struct {
	ChatID   string                      `json:"chatId"`
	Messages []chatview.ProjectedMessage `json:"messages"`
	HasMore  bool                        `json:"hasMore"`
}

func (cc *chatController) viewPayload(v *chatview.View) chatViewPayload {
	return chatViewPayload{
		ChatID:   v.ChatID(),
		Messages: v.Projected(time.Now()),
		HasMore:  v.HasMoreHistory(),
	}
}

func (cc *chatController) OpenChat(c echo.Context) error {
	v, err := cc.views.Open(c.Request().Context(), c.Param("chatId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, middleware.Response{Success: true, Data: cc.viewPayload(v)})
}

func (cc *chatController) CloseChat(c echo.Context) error {
	cc.views.Close(c.Param("chatId"))
	return c.JSON(http.StatusOK, middleware.Response{Success: true})
}

func (cc *chatController) GetMessages(c echo.Context) error {
	v, ok := cc.views.Get(c.Param("chatId"))
	if !ok {
		return echo.NewHTTPError(http.StatusConflict, "chat is not open")
	}
	return c.JSON(http.StatusOK, middleware.Response{Success: true, Data: cc.viewPayload(v)})
}

type sendMessageRequest struct {
	Text    string `json:"text" validate:"required"`
	ReplyTo string `json:"replyTo,omitempty"`
}

func (cc *chatController) SendMessage(c echo.Context) error {
	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	v, ok := cc.views.Get(c.Param("chatId"))
	if !ok {
		return echo.NewHTTPError(http.StatusConflict, "chat is not open")
	}

	v.SetDraft(req.Text)
	if req.ReplyTo != "" {
		if err := v.AttachReply(req.ReplyTo); err != nil {
			return err
		}
	} else {
		v.ClearReply()
	}
	if err := v.Send(c.Request().Context()); err != nil {
		return err
	}

	// the message shows up once it comes back over the live channel
	return c.JSON(http.StatusAccepted, middleware.Response{Success: true})
}

func (cc *chatController) SendMedia(c echo.Context) error {
	v, ok := cc.views.Get(c.Param("chatId"))
	if !ok {
		return echo.NewHTTPError(http.StatusConflict, "chat is not open")
	}

	file, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "missing file")
	}
	src, err := file.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unreadable file")
	}
	defer src.Close()

	if err := v.SendMedia(c.Request().Context(), file.Filename, src); err != nil {
		return err
	}
	return c.JSON(http.StatusAccepted, middleware.Response{Success: true})
}

func (cc *chatController) LoadOlder(c echo.Context) error {
	v, ok := cc.views.Get(c.Param("chatId"))
	if !ok {
		return echo.NewHTTPError(http.StatusConflict, "chat is not open")
	}
	if err := v.LoadOlder(c.Request().Context()); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, middleware.Response{Success: true, Data: cc.viewPayload(v)})
}

type reactionRequest struct {
	ChatID string              `json:"chatId" validate:"required"`
	Type   models.ReactionType `json:"type" validate:"required,oneof=like love laugh"`
}

func (cc *chatController) ToggleReaction(c echo.Context) error {
	var req reactionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	v, ok := cc.views.Get(req.ChatID)
	if !ok {
		return echo.NewHTTPError(http.StatusConflict, "chat is not open")
	}
	if err := v.ToggleReaction(c.Request().Context(), c.Param("messageId"), req.Type); err != nil {
		return err
	}
	return c.JSON(http.StatusAccepted, middleware.Response{Success: true})
}
