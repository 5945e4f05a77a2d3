package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zapshift/zapshift/config"
	"github.com/zapshift/zapshift/internal/auth"
	"github.com/zapshift/zapshift/internal/broker/kafka"
	"github.com/zapshift/zapshift/internal/cache/rediscache"
	"github.com/zapshift/zapshift/internal/earnings"
	"github.com/zapshift/zapshift/internal/integrations/payments"
	"github.com/zapshift/zapshift/internal/integrations/payments/fake"
	"github.com/zapshift/zapshift/internal/integrations/payments/gatewayhttp"
	"github.com/zapshift/zapshift/internal/services/parcels"
	"github.com/zapshift/zapshift/internal/services/riders"
	"github.com/zapshift/zapshift/internal/services/users"
	"github.com/zapshift/zapshift/internal/storage/pgparcel"
)

type parcelAPIApp struct {
	ctx      context.Context
	cancel   context.CancelFunc
	opts     parcelAPIOpts
	deps     parcelAPIDeps
	producer *kafka.Producer
	consumer *kafka.Consumer
	closeDB  func()
}

func mustBootstrapParcelAPI() *parcelAPIApp {
	cfgPath := os.Getenv("configPath")
	if cfgPath == "" {
		panic("configPath env var is required")
	}
	swaggerPath := os.Getenv("swaggerPath")
	if swaggerPath == "" {
		panic("swaggerPath env var is required")
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		panic(fmt.Sprintf("ошибка парсинга конфига, %v", err))
	}

	httpAddr := cfg.ZapShift.HTTPAddr
	if httpAddr == "" {
		httpAddr = ":8080"
	}
	consumerGroup := cfg.ZapShift.KafkaConsumerGroup
	if consumerGroup == "" {
		consumerGroup = "parcel-api"
	}
	topic := cfg.Kafka.ParcelTrackedTopicName
	if topic == "" {
		topic = "parcel.tracked"
	}
	timelineTTL := time.Duration(cfg.ZapShift.TimelineTTLSeconds) * time.Second
	if timelineTTL <= 0 {
		timelineTTL = 10 * time.Minute
	}

	sslMode := cfg.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	connString := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.Database.Username, cfg.Database.Password, cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName, sslMode)
	st := mustOpenPostgresWithRetry(connString, 60*time.Second)

	redisAddr := fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port)
	rc := rediscache.New(redisAddr)
	limiter := rediscache.NewRateLimiter(redisAddr)

	var charger payments.Client = fake.New()
	if cfg.ZapShift.PaymentGatewayBaseURL != "" {
		charger = gatewayhttp.New(cfg.ZapShift.PaymentGatewayBaseURL, cfg.ZapShift.PaymentGatewayAPIKey)
	}

	brokers := []string{fmt.Sprintf("%s:%d", cfg.Kafka.Host, cfg.Kafka.Port)}
	producer := kafka.NewProducer(brokers)
	consumer := kafka.NewConsumer(brokers, topic, consumerGroup)

	parcelsSvc := parcels.New(st, rc, producer, limiter, charger, parcels.Config{
		TrackingTopic:    topic,
		BookingRateLimit: int64(cfg.ZapShift.BookingRateLimitPerMinute),
		TimelineTTL:      timelineTTL,
		SplitRates:       earnings.DefaultSplitRates(),
		Currency:         cfg.ZapShift.Currency,
	})
	ridersSvc := riders.New(st)
	usersSvc := users.New(st)

	tokens := make(map[string]auth.Identity, len(cfg.ZapShift.AuthTokens))
	for token, id := range cfg.ZapShift.AuthTokens {
		tokens[token] = auth.Identity{Email: id.Email, Name: id.Name, Role: id.Role}
	}
	verifier := auth.NewStaticVerifier(tokens)

	// роль из БД важнее роли в токене: approve райдера действует сразу
	resolveRole := func(ctx context.Context, email string) (string, error) {
		return usersSvc.Role(ctx, email), nil
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	return &parcelAPIApp{
		ctx:    ctx,
		cancel: cancel,
		opts: parcelAPIOpts{
			httpAddr:      httpAddr,
			swaggerPath:   swaggerPath,
			topic:         topic,
			consumerGroup: consumerGroup,
		},
		deps: parcelAPIDeps{
			parcels:     parcelsSvc,
			riders:      ridersSvc,
			users:       usersSvc,
			verifier:    verifier,
			resolveRole: resolveRole,
			consumer:    consumer,
			ready:       st.Ping,
		},
		producer: producer,
		consumer: consumer,
		closeDB:  st.Close,
	}
}

func mustOpenPostgresWithRetry(connString string, wait time.Duration) *pgparcel.Storage {
	deadline := time.Now().Add(wait)
	var lastErr error
	for time.Now().Before(deadline) {
		st, err := pgparcel.New(connString)
		if err == nil {
			return st
		}
		lastErr = err
		time.Sleep(1 * time.Second)
	}
	panic(fmt.Sprintf("postgres is not ready after %s: %v", wait, lastErr))
}

func (a *parcelAPIApp) Close() {
	if a.cancel != nil {
		a.cancel()
	}
	if a.consumer != nil {
		_ = a.consumer.Close()
	}
	if a.producer != nil {
		_ = a.producer.Close()
	}
	if a.closeDB != nil {
		a.closeDB()
	}
}

func (a *parcelAPIApp) Run() error {
	return runParcelAPI(a.ctx, a.opts, a.deps)
}
