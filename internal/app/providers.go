package app

import (
	"context"

	"github.com/comrade-chat/comrade-client/internal/chatview"
	"github.com/comrade-chat/comrade-client/internal/session"
	"go.uber.org/fx"
)

// StartSession authenticates on startup and tears down every open chat view
// plus the event channel on shutdown.
func StartSession(
	lc fx.Lifecycle,
	sess *session.Session,
	views *chatview.ViewManager,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return sess.Start(ctx)
		},
		OnStop: func(ctx context.Context) error {
			views.CloseAll()
			return sess.Close()
		},
	})
}
