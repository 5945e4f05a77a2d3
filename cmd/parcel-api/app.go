package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger"
	"github.com/zapshift/zapshift/internal/api/parcels_api"
	"github.com/zapshift/zapshift/internal/api/riders_api"
	"github.com/zapshift/zapshift/internal/api/users_api"
	"github.com/zapshift/zapshift/internal/auth"
	"github.com/zapshift/zapshift/internal/broker/messages"
	"github.com/zapshift/zapshift/internal/services/parcels"
	"github.com/zapshift/zapshift/internal/services/riders"
	"github.com/zapshift/zapshift/internal/services/users"
)

type parcelAPIOpts struct {
	httpAddr    string
	swaggerPath string

	topic         string
	consumerGroup string

	onListen func(httpAddr string)
}

type parcelAPIDeps struct {
	parcels *parcels.Service
	riders  *riders.Service
	users   *users.Service

	verifier    auth.TokenVerifier
	resolveRole auth.RoleResolver

	consumer kafkaConsumer

	// readyz: nil — всегда готовы
	ready func(ctx context.Context) error
}

type kafkaConsumer interface {
	Consume(ctx context.Context, handler func(msg messages.ParcelTracked) error) error
}

func runParcelAPI(ctx context.Context, opts parcelAPIOpts, deps parcelAPIDeps) error {
	if opts.swaggerPath == "" {
		return fmt.Errorf("swaggerPath env var is required")
	}
	if _, err := os.Stat(opts.swaggerPath); os.IsNotExist(err) {
		return fmt.Errorf("swagger file not found: %s", opts.swaggerPath)
	}

	lis, err := net.Listen("tcp", opts.httpAddr)
	if err != nil {
		return err
	}
	if opts.onListen != nil {
		opts.onListen(lis.Addr().String())
	}

	r := newRouter(opts, deps)

	if deps.consumer != nil {
		go func() {
			slog.Info("kafka consumer started", "topic", opts.topic, "group", opts.consumerGroup)
			_ = deps.consumer.Consume(ctx, func(m messages.ParcelTracked) error {
				return deps.parcels.ApplyTrackingMessage(ctx, m)
			})
		}()
	}

	srv := &http.Server{Handler: r}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	slog.Info("HTTP server listening", "addr", lis.Addr().String())
	return srv.Serve(lis)
}

func newRouter(opts parcelAPIOpts, deps parcelAPIDeps) chi.Router {
	parcelsAPI := parcels_api.New(deps.parcels)
	ridersAPI := riders_api.New(deps.riders, deps.parcels)
	usersAPI := users_api.New(deps.users)

	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/readyz", func(w http.ResponseWriter, req *http.Request) {
		if deps.ready != nil {
			if err := deps.ready(req.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte("not ready"))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/swagger.json", func(w http.ResponseWriter, req *http.Request) {
		http.ServeFile(w, req, opts.swaggerPath)
	})
	r.Get("/docs/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger.json"),
	))

	parcelsAPI.RegisterPublic(r)

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(deps.verifier, deps.resolveRole))
		parcelsAPI.Register(r)
		ridersAPI.Register(r)
		usersAPI.Register(r)
	})

	return r
}
