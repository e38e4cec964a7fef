package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/carousell/ct-go/pkg/logger"
	log "github.com/carousell/ct-go/pkg/logger/log_context"
	"github.com/comrade-chat/comrade-client/internal/config"
	pkgmdw "github.com/comrade-chat/comrade-client/internal/server/middleware"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/fx"
)

// StartServer runs the local gateway the browser UI talks to. Loopback only
// by default; it fronts the reconciled chat views and proxies the dashboard
// endpoints.
func StartServer(
	lc fx.Lifecycle,
	sd fx.Shutdowner,
	conf *config.Config,
	handler Controller,
	chats ChatController,
	contacts ContactController,
	auth AuthController,
) {
	e := echo.New()
	e.HideBanner = true
	e.Validator = pkgmdw.NewValidator()
	e.HTTPErrorHandler = pkgmdw.ErrorHandler(logger.MustNamed("http"))

	logConfig := pkgmdw.LogRequestConfig{
		Logger: logger.MustNamed("http"),
		Enabled: func(c echo.Context) bool {
			uri := c.Request().RequestURI
			return uri != "/health" && uri != "/metrics"
		},
	}

	e.Use(pkgmdw.Metrics())
	e.Use(pkgmdw.RequestID())
	e.Use(pkgmdw.LogRequest(logConfig))
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			log.Errorw(c.Request().Context(), "PANIC RECOVER", "error", err, "stack", string(stack))
			return nil
		},
	}))

	e.GET("/health", handler.Health)

	api := e.Group("/api/v1")

	api.GET("/session", contacts.CurrentSession)
	api.POST("/session/refresh", auth.RefreshSession)

	api.POST("/auth/register", auth.Register)
	api.POST("/auth/verify-email", auth.VerifyEmail)
	api.POST("/auth/resend-verification", auth.ResendVerification)

	api.GET("/chats", chats.ListChats)
	api.GET("/chats/:chatId", chats.GetChat)
	api.POST("/chats/:chatId/open", chats.OpenChat)
	api.DELETE("/chats/:chatId/open", chats.CloseChat)
	api.GET("/chats/:chatId/messages", chats.GetMessages)
	api.POST("/chats/:chatId/messages", chats.SendMessage)
	api.POST("/chats/:chatId/media", chats.SendMedia)
	api.POST("/chats/:chatId/backfill", chats.LoadOlder)
	api.POST("/chats/messages/:messageId/reactions", chats.ToggleReaction)

	api.GET("/requests/incoming", contacts.IncomingRequests)
	api.GET("/requests/outgoing", contacts.OutgoingRequests)
	api.POST("/requests", contacts.SendRequest)
	api.POST("/requests/:requestId/accept", contacts.AcceptRequest)
	api.POST("/requests/:requestId/reject", contacts.RejectRequest)

	api.GET("/users/me", contacts.GetProfile)
	api.PATCH("/users/me", contacts.UpdateProfile)
	api.GET("/users/search", contacts.SearchUsers)
	api.POST("/users/:userId/block", contacts.BlockUser)
	api.DELETE("/users/:userId/block", contacts.UnblockUser)
	api.POST("/users/:userId/mute", contacts.MuteUser)
	api.DELETE("/users/:userId/mute", contacts.UnmuteUser)
	api.POST("/users/:userId/report", contacts.ReportUser)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Infow(ctx, "starting HTTP server", "addr", conf.Server.Addr)
				if err := e.Start(conf.Server.Addr); !errors.Is(err, http.ErrServerClosed) {
					sd.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return e.Shutdown(ctx)
		},
	})
}
