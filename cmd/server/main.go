package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	checkhandler "gatepass/internal/checklog/handler"
	checkservice "gatepass/internal/checklog/service"
	checkstore "gatepass/internal/checklog/store"
	httpapi "gatepass/internal/http"
	"gatepass/internal/jwttoken"
	"gatepass/internal/jwttoken/revocation"
	passhandler "gatepass/internal/pass/handler"
	passservice "gatepass/internal/pass/service"
	passstore "gatepass/internal/pass/store"
	"gatepass/internal/platform/config"
	"gatepass/internal/platform/httpserver"
	"gatepass/internal/platform/logger"
	"gatepass/internal/platform/metrics"
	"gatepass/internal/platform/postgres"
	platformredis "gatepass/internal/platform/redis"
	reporthandler "gatepass/internal/report/handler"
	reportservice "gatepass/internal/report/service"
	userhandler "gatepass/internal/user/handler"
	userservice "gatepass/internal/user/service"
	userstore "gatepass/internal/user/store"
	visithandler "gatepass/internal/visit/handler"
	visitservice "gatepass/internal/visit/service"
	visitstore "gatepass/internal/visit/store"
)

const shutdownTimeout = 10 * time.Second

// main wires dependencies and owns the server lifecycle. Business logic lives
// in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := buildApp(ctx, cfg, log)
	if err != nil {
		log.Error("startup failed", "error", err.Error())
		os.Exit(1)
	}
	defer app.close()

	router := httpapi.NewRouter(log, app.metrics, app.health, app.handlers...)
	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting gatepass", "addr", cfg.Addr, "storage", app.storage)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err.Error())
		os.Exit(1)
	}
	log.Info("gatepass stopped")
}

// app carries everything main needs after wiring.
type app struct {
	handlers []httpapi.Registrar
	health   map[string]httpapi.HealthChecker
	metrics  *metrics.Metrics
	storage  string
	close    func()
}

// buildApp assembles stores, services and handlers. With DATABASE_URL set
// everything persists in Postgres; otherwise the process runs entirely in
// memory with seeded bootstrap accounts.
func buildApp(ctx context.Context, cfg config.Server, log *slog.Logger) (*app, error) {
	m := metrics.New()

	jwtSvc := jwttoken.NewService(cfg.JWT.SigningKey, cfg.JWT.Issuer)
	validator := jwttoken.NewValidatorAdapter(jwtSvc)

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return nil, err
	}

	var revocations interface {
		Revoke(ctx context.Context, tokenID string, until time.Time) error
		IsRevoked(ctx context.Context, tokenID string) (bool, error)
	}
	if redisClient != nil {
		revocations = revocation.NewRedis(redisClient)
	} else {
		revocations = revocation.NewInMemory()
	}

	a := &app{
		metrics: m,
		health:  map[string]httpapi.HealthChecker{},
		close:   func() {},
	}
	if redisClient != nil {
		a.health["redis"] = redisClient
	}

	var (
		users   userservice.Store
		visits  visitservice.Store
		passes  passservice.Store
		logs    checkservice.Store
		visitTx visitservice.TxRunner
		passTx  passservice.TxRunner
		gateTx  checkservice.TxRunner
	)

	if cfg.DatabaseURL != "" {
		db, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := postgres.EnsureSchema(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
		users = userstore.NewPostgres(db)
		visits = visitstore.NewPostgres(db)
		passes = passstore.NewPostgres(db)
		logs = checkstore.NewPostgres(db)
		visitTx = newVisitPostgresTx(db)
		passTx = newPassPostgresTx(db)
		gateTx = newChecklogPostgresTx(db)

		a.storage = "postgres"
		a.health["postgres"] = dbHealth{db}
		prev := a.close
		a.close = func() {
			db.Close()
			prev()
		}
	} else {
		userMem := userstore.NewInMemory()
		visitMem := visitstore.NewInMemory()
		passMem := passstore.NewInMemory()
		logMem := checkstore.NewInMemory()
		userstore.SeedBootstrapUsers(userMem)

		// One lock across all memory runners: a pass issue and a lifecycle
		// transition on the same visit must not interleave.
		var mu sync.Mutex
		users = userMem
		visits = visitMem
		passes = passMem
		logs = logMem
		visitTx = visitservice.NewMemoryTx(visitMem, &mu)
		passTx = passservice.NewMemoryTx(passMem, visitMem, &mu)
		gateTx = checkservice.NewMemoryTx(logMem, passMem, visitMem, &mu)

		a.storage = "memory"
		log.Info("running with in-memory storage; bootstrap accounts seeded")
	}
	if redisClient != nil {
		prev := a.close
		a.close = func() {
			redisClient.Close()
			prev()
		}
	}

	userSvc := userservice.New(users, jwtSvc, cfg.JWT.TokenTTL,
		userservice.WithLogger(log),
		userservice.WithMetrics(m),
		userservice.WithRevocations(revocations),
	)
	visitSvc := visitservice.New(visits, users, visitTx,
		visitservice.WithLogger(log),
		visitservice.WithMetrics(m),
	)
	passSvc := passservice.New(passes, visits, users, passTx,
		passservice.WithLogger(log),
		passservice.WithMetrics(m),
	)
	gateSvc := checkservice.New(logs, visits, users, gateTx,
		checkservice.WithLogger(log),
		checkservice.WithMetrics(m),
	)
	reportSvc := reportservice.New(visits, logs)

	a.handlers = []httpapi.Registrar{
		userhandler.New(userSvc, log, validator, revocations),
		visithandler.New(visitSvc, userSvc, log, validator, revocations),
		passhandler.New(passSvc, log, validator, revocations),
		checkhandler.New(gateSvc, log, validator, revocations),
		reporthandler.New(reportSvc, log, validator, revocations),
	}
	return a, nil
}

type dbHealth struct {
	db *sql.DB
}

func (h dbHealth) Health(ctx context.Context) error {
	return h.db.PingContext(ctx)
}
