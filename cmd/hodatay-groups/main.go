package main

import (
	"context"
	"errors"
	stdlog "log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	appConfig "github.com/kgellert/hodatay-groups/internal/config"
	configHandler "github.com/kgellert/hodatay-groups/internal/config/handler"
	groupsHandler "github.com/kgellert/hodatay-groups/internal/groups/handler"
	groupsRepo "github.com/kgellert/hodatay-groups/internal/groups/repo"
	groupsService "github.com/kgellert/hodatay-groups/internal/groups/service"
	mwLogger "github.com/kgellert/hodatay-groups/internal/http-server/middleware/logger"
	"github.com/kgellert/hodatay-groups/internal/lib/logger/handlers/slogpretty"
	"github.com/kgellert/hodatay-groups/internal/lib/logger/sl"
	messagesHandler "github.com/kgellert/hodatay-groups/internal/messages/handler"
	messagesRepo "github.com/kgellert/hodatay-groups/internal/messages/repo"
	messagesService "github.com/kgellert/hodatay-groups/internal/messages/service"
	"github.com/kgellert/hodatay-groups/internal/storage"
	uploadsdomain "github.com/kgellert/hodatay-groups/internal/uploads/domain"
	uploadsHandler "github.com/kgellert/hodatay-groups/internal/uploads/handler"
	"github.com/kgellert/hodatay-groups/internal/uploads/localstore"
	"github.com/kgellert/hodatay-groups/internal/uploads/s3store"
	uploadsService "github.com/kgellert/hodatay-groups/internal/uploads/service"
	"github.com/kgellert/hodatay-groups/internal/ws"
	wsHandler "github.com/kgellert/hodatay-groups/internal/ws/handler"
	"github.com/kgellert/hodatay-groups/internal/ws/hub"
	"github.com/kgellert/hodatay-groups/internal/ws/notify"
)

const (
	envLocal = "local"
	envDev   = "dev"

	shutdownTimeout = 10 * time.Second
)

func main() {
	if err := godotenv.Load("infra/.env"); err != nil {
		stdlog.Println("No .env file found, skipping...")
	}

	cfg := appConfig.MustLoad()

	log := setupLogger(cfg.Env)
	log.Info("starting hodatay-groups", slog.String("env", cfg.Env))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		log.Error("failed to init storage", sl.Err(err))
		os.Exit(1)
	}
	defer db.Close()

	log.Info("storage ready", slog.String("driver", cfg.Storage.Driver))

	store, err := setupBlobStore(ctx, cfg.Blob)
	if err != nil {
		log.Error("failed to init blob store", sl.Err(err))
		os.Exit(1)
	}

	h := hub.NewHub()
	go h.Run(ctx)

	var publisher ws.Publisher = h
	if cfg.Storage.Driver == appConfig.StoragePostgres {
		publisher = notify.NewPublisher(db, cfg.Live.NotifyChannel)

		listener := notify.NewListener(cfg.Storage.DSN, cfg.Live.NotifyChannel, h, log)
		go func() {
			if err := listener.Run(ctx); err != nil {
				log.Error("change listener stopped", sl.Err(err))
			}
		}()
	}

	gs := groupsService.New(groupsRepo.New(db), publisher, log)

	msgOpts := messagesService.Options{ResolveConcurrency: cfg.Messages.ResolveConcurrency}
	if cfg.Messages.EnforceGroupExists {
		msgOpts.Groups = gs
	}
	ms := messagesService.New(messagesRepo.New(db), store, publisher, log, msgOpts)

	us := uploadsService.New(store, ms, log, uploadsService.Options{
		CompensateOrphans: cfg.Uploads.CompensateOrphans,
	})

	gh := groupsHandler.New(gs, log)
	mh := messagesHandler.New(ms, log)
	uh := uploadsHandler.New(us, store, cfg.Uploads.MaxImageSize, log)
	ch := configHandler.New(*cfg, log)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(mwLogger.New(log))
	router.Use(middleware.Recoverer)

	router.Get("/config", ch.GetConfig())

	router.Get("/groups", gh.GetGroups())
	router.Post("/groups", gh.CreateGroup())
	router.Get("/groups/{groupId}", gh.GetGroup())

	router.Get("/groups/{groupId}/messages", mh.GetMessages())
	router.Post("/groups/{groupId}/messages", mh.SendMessage())

	router.Post("/sendImage", uh.SendImage())
	if cfg.Blob.Driver == appConfig.BlobLocal {
		router.Get(localstore.FilesPath+"*", uh.GetFile())
	}

	router.Get("/ws", wsHandler.WSHandler(h, wsHandler.Queries{Groups: gs, Messages: ms}, log))

	log.Info("starting server", slog.String("address", cfg.HTTPServer.Address))

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("failed to start server", sl.Err(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to stop server", sl.Err(err))
	}

	log.Info("server stopped")
}

func setupBlobStore(ctx context.Context, cfg appConfig.BlobConfig) (uploadsdomain.BlobStore, error) {
	switch cfg.Driver {
	case appConfig.BlobS3:
		client, err := s3store.NewClient(ctx, cfg.S3.Region, cfg.S3.Endpoint, cfg.S3.AccessKey, cfg.S3.SecretKey)
		if err != nil {
			return nil, err
		}
		return s3store.New(cfg.S3.Bucket, client, cfg.URLTTL), nil
	default:
		return localstore.New(cfg.LocalDir, cfg.PublicBaseURL)
	}
}

func setupPrettySlog() *slog.Logger {
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: slog.LevelDebug,
		},
	}

	handler := opts.NewPrettyHandler(os.Stdout)

	return slog.New(handler)
}

func setupLogger(env string) *slog.Logger {
	switch env {
	case envLocal:
		return setupPrettySlog()
	case envDev:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	default:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
}
