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

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	auth "github.com/phillip/event-easy-go/auth"
	config "github.com/phillip/event-easy-go/config"
	controllers "github.com/phillip/event-easy-go/controllers"
	mailer "github.com/phillip/event-easy-go/mailer"
	media "github.com/phillip/event-easy-go/media"
	middleware "github.com/phillip/event-easy-go/middleware"
	payments "github.com/phillip/event-easy-go/payments"
	routes "github.com/phillip/event-easy-go/routes"
	services "github.com/phillip/event-easy-go/services"
	store "github.com/phillip/event-easy-go/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}
	log := config.NewLogger(cfg.Env)
	log.Info("starting event-easy", slog.String("env", cfg.Env), slog.String("port", cfg.Port))

	if err := cfg.ConnectMongo(context.Background()); err != nil {
		log.Error("connect mongo", "err", err)
		os.Exit(1)
	}
	db := cfg.DB()

	policy, err := services.PolicyByName(cfg.StatusPolicy)
	if err != nil {
		log.Error("status policy", "err", err)
		os.Exit(1)
	}
	cloud, err := media.NewCloudinary(cfg.Cloudinary.CloudName, cfg.Cloudinary.APIKey, cfg.Cloudinary.APISecret, cfg.Cloudinary.Folder)
	if err != nil {
		log.Error("cloudinary", "err", err)
		os.Exit(1)
	}
	sender, err := mailer.New(mailer.Config{
		Provider:     cfg.Email.Provider,
		From:         cfg.Email.From,
		FromName:     cfg.Email.FromName,
		ZeptoURL:     cfg.Email.ZeptoURL,
		ZeptoKey:     cfg.Email.ZeptoKey,
		AWSRegion:    cfg.Email.AWSRegion,
		AWSAccessKey: cfg.Email.AWSAccessKey,
		AWSSecretKey: cfg.Email.AWSSecretKey,
	}, log)
	if err != nil {
		log.Error("mailer", "err", err)
		os.Exit(1)
	}

	events := store.NewEventStore(db)
	resolver := auth.NewJWTResolver(cfg.JWTSecret)
	chapa := payments.NewChapa(cfg.Payment.BaseURL, cfg.Payment.SecretKey, cfg.Payment.Timeout)

	deps := &controllers.Deps{
		Events: services.NewEventService(events, store.NewUserDirectory(db), cloud, policy, log),
		Attendance: services.NewAttendanceService(events, chapa, resolver, sender, services.PaymentSettings{
			Currency:    cfg.Payment.Currency,
			ReturnURL:   cfg.Payment.ReturnURL,
			CallbackURL: cfg.Payment.CallbackURL,
		}, log),
		Ping: func(ctx context.Context) error { return cfg.MongoClient.Ping(ctx, readpref.Primary()) },
		Log:  log,
	}

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log))
	routes.SetupRoutes(r, cfg, deps, resolver)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server", "err", err)
			os.Exit(1)
		}
	}()
	log.Info("server listening", slog.String("addr", srv.Addr))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("http shutdown", "err", err)
	}
	if err := cfg.MongoClient.Disconnect(ctx); err != nil {
		log.Error("mongo disconnect", "err", err)
	}
}
