package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/clipzipship/czs-admin/internal/auth"
	"github.com/clipzipship/czs-admin/internal/catalog"
	"github.com/clipzipship/czs-admin/internal/config"
	"github.com/clipzipship/czs-admin/internal/es"
	"github.com/clipzipship/czs-admin/internal/events"
	"github.com/clipzipship/czs-admin/internal/handlers"
	"github.com/clipzipship/czs-admin/internal/logging"
	"github.com/clipzipship/czs-admin/internal/metadata"
	"github.com/clipzipship/czs-admin/internal/search"
	httpserver "github.com/clipzipship/czs-admin/internal/transport/http"
	"github.com/clipzipship/czs-admin/internal/usererr"
	"github.com/clipzipship/czs-admin/internal/users"
)

func main() {
	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(configuration.LOG_LEVEL)

	db, err := config.InitDB(configuration)
	if err != nil {
		log.Fatalf("database init error: %v", err)
	}

	authService := &auth.Service{
		DB:         db,
		Secret:     []byte(configuration.JWT_SECRET),
		AccessTTL:  time.Duration(configuration.TOKEN_EXP_MINUTES) * time.Minute,
		RefreshTTL: time.Duration(configuration.REFRESH_EXP_MINUTES) * time.Minute,
	}

	registry := &catalog.Registry{
		DB:       db,
		Store:    &catalog.PGStore{DB: db},
		Cfg:      configuration,
		Notifier: catalog.NewReloadNotifier(configuration.RELOAD_URL),
	}

	var prod *events.Producer
	if configuration.KAFKA_ADDRESS != "" {
		prod = events.NewProducer([]string{configuration.KAFKA_ADDRESS})
		registry.Events = prod
	}

	var searchHandler *handlers.SearchHandler
	if configuration.ES_URL != "" {
		esClient, err := es.NewClient(configuration)
		if err != nil {
			log.Fatalf("elasticsearch init error: %v", err)
		}
		searchService := &search.Service{ES: esClient, Index: "collections"}
		registry.Index = searchService
		searchHandler = &handlers.SearchHandler{Service: searchService}
	}

	directory := &users.Directory{DB: db}

	e := echo.New()
	e.HideBanner = true
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{AllowOrigins: []string{"*"}}))
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			c.SetRequest(req.WithContext(logging.IntoContext(req.Context(), logger)))
			return next(c)
		}
	})
	e.HTTPErrorHandler = usererr.HTTPErrorHandler(configuration.IsDev(), logger)

	deps := httpserver.Deps{
		Auth:              authService,
		AuthHandler:       &handlers.AuthHandler{Auth: authService},
		CollectionHandler: &handlers.CollectionHandler{Registry: registry},
		UserHandler:       &handlers.UserHandler{Dir: directory},
		MetadataHandler:   &handlers.MetadataHandler{Client: metadata.NewClient(configuration.CATALOG_URL)},
		SearchHandler:     searchHandler,
		WebHandler: &handlers.WebHandler{
			Auth:      authService,
			Dir:       directory,
			AccessTTL: authService.AccessTTL,
		},
	}

	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         configuration.HTTP_ADDR,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("db close error: %v", err)
		}
	}

	if prod != nil {
		if err := prod.Close(); err != nil {
			log.Printf("kafka close error: %v", err)
		}
	}

	log.Println("shutdown complete")
}
