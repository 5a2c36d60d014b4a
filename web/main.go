package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"zentrix.com/portal/infrastructure/devops"
	"zentrix.com/portal/portal/app"
	"zentrix.com/portal/web/handlers/advance"
	"zentrix.com/portal/web/handlers/attendance"
	"zentrix.com/portal/web/handlers/auth"
	"zentrix.com/portal/web/handlers/travel"
	"zentrix.com/portal/web/handlers/users"
	"zentrix.com/portal/web/middlewares"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := devops.Load(ctx, os.Args[1:])
	if errors.Is(err, devops.ErrHelpWanted) {
		return
	}
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	app.NewLogger(cfg)
	slog.Info("starting portal", "config", cfg.String())

	a, err := app.New(ctx, cfg)
	if err != nil {
		slog.Error("init services", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	secret := []byte(cfg.Auth.JWTSecret)
	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Web.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	api := r.Group("/api/v1")
	(&auth.Handler{Directory: a.Directory, Secret: secret, TokenTTL: cfg.Auth.TokenTTL}).Register(api)

	protected := api.Group("")
	protected.Use(middlewares.Authentication(secret))
	{
		(&attendance.Handler{Attendance: a.Attendance, Punches: a.Punches, Directory: a.Directory}).Register(protected)
		(&travel.Handler{Engine: a.Travel}).Register(protected)
		(&advance.Handler{Service: a.Advances}).Register(protected)
		(&users.Handler{Directory: a.Directory}).Register(protected)
	}

	srv := &http.Server{Addr: cfg.Web.Addr, Handler: r}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdown); err != nil {
		slog.Error("shutdown", "error", err)
	}
}
