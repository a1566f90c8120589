package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"rideshare/internal/app"
	"rideshare/internal/handler"
	"rideshare/internal/hub"
	"rideshare/internal/repository/postgres"
)

func serveCmd() *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, live hub, reaper and notification workers",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			gin.SetMode(gin.ReleaseMode)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			deps, err := connect(connectCtx, cfg)
			if err == nil && migrate {
				err = postgres.Migrate(connectCtx, deps.db)
			}
			cancel()
			if err != nil {
				return err
			}
			defer deps.Close()

			svc := wireServices(deps, cfg)

			events, err := svc.events.Subscribe(ctx)
			if err != nil {
				return err
			}
			liveHub := hub.New(handler.EncodeRoomEvent)
			go liveHub.Run(ctx, events)

			svc.notifier.Start(ctx)
			go svc.reaper.Run(ctx)

			router := app.NewRouter(app.RouterDeps{
				AuthHandler:      handler.NewAuthHandler(svc.auth),
				UserHandler:      handler.NewUserHandler(svc.profiles),
				RoomHandler:      handler.NewRoomHandler(svc.rooms, svc.discovery),
				RouteHandler:     handler.NewRouteHandler(svc.routes),
				AssistantHandler: handler.NewAssistantHandler(svc.assistant),
				LiveHandler:      handler.NewLiveHandler(svc.rooms, liveHub, cfg.Server.AllowOrigin),
				PushHandler:      handler.NewPushHandler(svc.notifier),
				Tokens:           svc.tokens,
				RedisClient:      deps.redisClient,
				NewRelicApp:      deps.nrApp,
				Registry:         svc.registry,
				Server:           cfg.Server,
				RateLimit:        cfg.RateLimit,
			})

			server := &http.Server{
				Addr:         ":" + cfg.Server.Port,
				Handler:      router,
				ReadTimeout:  cfg.Server.ReadTimeout,
				WriteTimeout: cfg.Server.WriteTimeout,
			}

			serveErr := make(chan error, 1)
			go func() {
				slog.Info("starting server", "port", cfg.Server.Port)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serveErr <- err
				}
				close(serveErr)
			}()

			select {
			case err := <-serveErr:
				if err != nil {
					return err
				}
			case <-ctx.Done():
			}
			slog.Info("shutting down server")

			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				return err
			}

			stop()
			svc.notifier.Wait()
			slog.Info("server exited")
			return nil
		},
	}

	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply the schema before serving")
	return cmd
}
