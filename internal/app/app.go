package app

import (
	"github.com/carousell/ct-go/pkg/logger"
	"github.com/comrade-chat/comrade-client/internal/chatview"
	"github.com/comrade-chat/comrade-client/internal/config"
	"github.com/comrade-chat/comrade-client/internal/repo/authapi"
	"github.com/comrade-chat/comrade-client/internal/repo/chatapi"
	"github.com/comrade-chat/comrade-client/internal/repo/mediaapi"
	"github.com/comrade-chat/comrade-client/internal/repo/requestapi"
	"github.com/comrade-chat/comrade-client/internal/repo/userapi"
	"github.com/comrade-chat/comrade-client/internal/server"
	"github.com/comrade-chat/comrade-client/internal/session"
	"github.com/comrade-chat/comrade-client/internal/transport"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap/zapcore"
)

func Invoke(funcs ...any) *fx.App {
	log := logger.MustNamed("app")
	conf := config.MustLoad()
	log.Debugw("config loaded", log.Reflect("config", conf))
	return fx.New(
		fx.WithLogger(func() fxevent.Logger {
			l := &fxevent.ZapLogger{
				Logger: log.Unwrap().Desugar(),
			}
			l.UseLogLevel(zapcore.DebugLevel)
			return l
		}),
		fx.Provide(
			transport.NewManager,
			session.New,

			authapi.NewClient,
			newChatAPIClient,
			newUserAPIClient,
			newRequestAPIClient,
			newMediaAPIClient,

			newConnSource,
			chatview.NewViewManager,

			server.NewController,
			server.NewChatController,
			server.NewContactController,
			server.NewAuthController,
		),
		fx.Supply(conf),
		fx.Invoke(StartSession),
		fx.Invoke(funcs...),
	)
}

func newChatAPIClient(conf *config.Config, sess *session.Session) chatapi.Client {
	return chatapi.NewClient(conf, sess)
}

func newUserAPIClient(conf *config.Config, sess *session.Session) userapi.Client {
	return userapi.NewClient(conf, sess)
}

func newRequestAPIClient(conf *config.Config, sess *session.Session) requestapi.Client {
	return requestapi.NewClient(conf, sess)
}

func newMediaAPIClient(conf *config.Config, sess *session.Session) mediaapi.Client {
	return mediaapi.NewClient(conf, sess)
}

func newConnSource(sess *session.Session) chatview.ConnSource {
	return sess
}
