package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"hilo/internal/audit"
	"hilo/internal/garment"
	"hilo/internal/identity"
	"hilo/internal/ledger"
	"hilo/internal/market"
	"hilo/internal/material"
	"hilo/internal/platform/config"
	"hilo/internal/platform/httpserver"
	"hilo/internal/platform/logger"
	"hilo/internal/platform/metrics"
	"hilo/internal/platform/redis"
	"hilo/internal/product"
	"hilo/internal/provenance"
	"hilo/internal/session"
	httptransport "hilo/internal/transport/http"
)

// main wires the registries to their stores and runs the HTTP server plus the
// audit worker under one lifecycle. Empty infrastructure URLs select the
// in-process variants, so a bare `go run` serves a working ledger.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	m := metrics.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		pool          *pgxpool.Pool
		tx            ledger.Tx
		identityStore identity.Store
		materialStore material.Store
		productStore  product.Store
		garmentStore  garment.Store
		balances      market.BalanceStore
		prodReader    provenance.ProductReader
		garmReader    provenance.GarmentReader
		marketStore   market.GarmentStore
	)

	if cfg.PostgresURL != "" {
		var err error
		pool, err = pgxpool.New(ctx, cfg.PostgresURL)
		if err != nil {
			log.Error("postgres connection failed", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		if err := ledger.ApplySchema(ctx, pool); err != nil {
			log.Error("schema apply failed", "error", err)
			os.Exit(1)
		}

		tx = ledger.NewPostgresTx(pool)
		identityStore = identity.NewPostgresStore(pool)
		materialStore = material.NewPostgresStore(pool)
		pgProducts := product.NewPostgresStore(pool)
		pgGarments := garment.NewPostgresStore(pool)
		productStore, prodReader = pgProducts, pgProducts
		garmentStore, garmReader, marketStore = pgGarments, pgGarments, pgGarments
		balances = market.NewPostgresBalances(pool)
	} else {
		seq := ledger.NewTokenSequence()
		tx = ledger.NewMemoryTx()
		identityStore = identity.NewInMemoryStore()
		materialStore = material.NewInMemoryStore()
		memProducts := product.NewInMemoryStore(seq)
		memGarments := garment.NewInMemoryStore(seq)
		productStore, prodReader = memProducts, memProducts
		garmentStore, garmReader, marketStore = memGarments, memGarments, memGarments
		balances = market.NewInMemoryBalances()
	}

	redisClient, err := redis.New(cfg.RedisURL)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	var sink audit.Sink = audit.NewLogSink(log)
	if cfg.KafkaBrokers != "" {
		kafkaSink, err := audit.NewKafkaSink(ctx, cfg.KafkaBrokers, cfg.KafkaAuditTopic)
		if err != nil {
			log.Error("kafka connection failed", "error", err)
			os.Exit(1)
		}
		defer kafkaSink.Close()
		sink = kafkaSink
	}

	publisher := audit.NewPublisher(1024, func() {
		log.Warn("audit inbox full, event dropped")
	})
	worker := audit.NewWorker(sink, publisher.Inbox())

	tokens := session.NewTokenService(cfg.JWTSigningKey, cfg.SessionTTL)

	identityOpts := []identity.Option{
		identity.WithLogger(log),
		identity.WithAuditPublisher(publisher),
		identity.WithMetrics(m),
	}
	if redisClient != nil {
		identityOpts = append(identityOpts,
			identity.WithSessionMirror(identity.NewRedisSessionMirror(redisClient.Client, cfg.SessionTTL)))
	}
	identitySvc := identity.NewService(identityStore, tokens, identityOpts...)

	materialSvc := material.NewService(materialStore, identitySvc,
		material.WithLogger(log), material.WithAuditPublisher(publisher), material.WithMetrics(m))
	productSvc := product.NewService(productStore, identitySvc,
		product.WithLogger(log), product.WithAuditPublisher(publisher), product.WithMetrics(m))
	garmentSvc := garment.NewService(garmentStore, identitySvc, productSvc, tx,
		garment.WithLogger(log), garment.WithAuditPublisher(publisher), garment.WithMetrics(m))
	marketSvc := market.NewService(marketStore, balances, tx,
		market.WithLogger(log), market.WithAuditPublisher(publisher), market.WithMetrics(m))
	provenanceSvc := provenance.NewService(prodReader, garmReader)

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:     log,
		Metrics:    m,
		Sessions:   tokens,
		Identity:   identitySvc,
		Materials:  materialSvc,
		Products:   productSvc,
		Garments:   garmentSvc,
		Market:     marketSvc,
		Provenance: provenanceSvc,
		Health: func() error {
			if pool != nil {
				if err := pool.Ping(context.Background()); err != nil {
					return err
				}
			}
			if redisClient != nil {
				return redisClient.Health(context.Background())
			}
			return nil
		},
	})

	srv := httpserver.New(cfg.Addr, router)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return worker.Run(ctx)
	})
	g.Go(func() error {
		log.Info("starting hilo record engine", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}
