package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ariefcatur/go-bookshop/internal/cart"
	"github.com/ariefcatur/go-bookshop/internal/catalog"
	"github.com/ariefcatur/go-bookshop/internal/config"
	"github.com/ariefcatur/go-bookshop/internal/events"
	"github.com/ariefcatur/go-bookshop/internal/httpx"
	"github.com/ariefcatur/go-bookshop/internal/identity"
	kafkax "github.com/ariefcatur/go-bookshop/internal/kafka"
	"github.com/ariefcatur/go-bookshop/internal/logx"
	"github.com/ariefcatur/go-bookshop/internal/orders"
	"github.com/ariefcatur/go-bookshop/internal/postgres"
	"github.com/ariefcatur/go-bookshop/internal/redisx"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := logx.New(cfg.ServiceName, cfg.LogLevel, cfg.LogPretty)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN, postgres.Pool{
		MaxConns:        int32(cfg.DBMaxConns),
		MinConns:        int32(cfg.DBMinConns),
		MaxConnLifetime: cfg.DBMaxConnLifetime,
		HealthCheck:     30 * time.Second,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("db connect")
	}
	defer db.Close()
	if err := postgres.Migrate(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("db migrate")
	}

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producers, one per topic
	orderProd := kafkax.NewProducer(cfg.KafkaBrokers, events.TopicOrderPlaced, 1024, log)
	orderProd.Start()
	customerProd := kafkax.NewProducer(cfg.KafkaBrokers, events.TopicCustomerRegistered, 1024, log)
	customerProd.Start()

	// Repos & services
	tx := &postgres.TxManager{DB: db}
	catalogRepo := &postgres.CatalogRepo{DB: db}
	cartRepo := &postgres.CartRepo{DB: db}
	ordersRepo := &postgres.OrdersRepo{DB: db}
	summaries := &redisx.CartSummaries{R: rdb}
	statuses := &redisx.OrderStatuses{R: rdb}

	shop := &httpx.Shop{
		Catalog: catalog.NewService(catalogRepo),
		Carts:   cart.NewEngine(cartRepo, catalogRepo, tx, summaries, log),
		Checkout: &orders.Workflow{
			Orders:    ordersRepo,
			Stock:     ordersRepo,
			Carts:     cartRepo,
			Tx:        tx,
			Publisher: orderProd,
			Summaries: summaries,
			Statuses:  statuses,
			Service:   cfg.ServiceName,
			Log:       log,
		},
		Orders: orders.NewService(ordersRepo, statuses, log),
		Identity: identity.NewService(&postgres.IdentityRepo{DB: db}, tx,
			identity.NewTokens(cfg.SecretKey, cfg.VerifyTokenTTL), customerProd, cfg.ServiceName, log),
		Sessions:      identity.NewSessions(cfg.SecretKey, cfg.SessionTTL),
		Flashes:       &redisx.Flashes{R: rdb},
		Log:           log,
		SecureCookies: strings.HasPrefix(cfg.BaseURL, "https://"),
	}
	router := httpx.NewRouter(log)
	shop.Register(router)

	// HTTP server
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router, ReadHeaderTimeout: 5 * time.Second}

	// graceful shutdown
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("http listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	// wait signal
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info().Msg("shutting down")

	// in-flight handlers may still publish, so wait out the request timeout
	ctx2, cancel2 := context.WithTimeout(context.Background(), httpx.RequestTimeout+5*time.Second)
	defer cancel2()
	if err := srv.Shutdown(ctx2); err != nil {
		log.Warn().Err(err).Msg("http shutdown")
	}
	orderProd.Close() // flush & close writer
	customerProd.Close()
	orderProd.WaitClosed()
	customerProd.WaitClosed()
}
