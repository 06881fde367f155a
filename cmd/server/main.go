// Command server runs the votilio voting service: credential issuance and
// revocation on the admin surface, anonymous ballot casting on the public
// one. Wiring only; domain logic lives under internal/.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	ballotstore "votilio/internal/ballot/store"
	"votilio/internal/credential/digest"
	"votilio/internal/credential/generator"
	credentialhandler "votilio/internal/credential/handler"
	credentialmetrics "votilio/internal/credential/metrics"
	credentialservice "votilio/internal/credential/service"
	credentialstore "votilio/internal/credential/store"
	electionhandler "votilio/internal/election/handler"
	electionservice "votilio/internal/election/service"
	electionstore "votilio/internal/election/store"
	"votilio/internal/platform/config"
	"votilio/internal/platform/httpserver"
	"votilio/internal/platform/logger"
	"votilio/internal/platform/middleware"
	"votilio/internal/platform/postgres"
	platformredis "votilio/internal/platform/redis"
	redemptionhandler "votilio/internal/redemption/handler"
	redemptionmetrics "votilio/internal/redemption/metrics"
	redemptionservice "votilio/internal/redemption/service"
	tallyhandler "votilio/internal/tally/handler"
	tallyservice "votilio/internal/tally/service"
	"votilio/internal/throttle"
	"votilio/pkg/platform/audit"
	"votilio/pkg/platform/audit/publisher"
	auditmemory "votilio/pkg/platform/audit/store/memory"
	auditpostgres "votilio/pkg/platform/audit/store/postgres"
	"votilio/pkg/platform/httputil"
)

// ballotStore is the union of the read and write sides both the cast path
// and the tally need; both store implementations satisfy it.
type ballotStore interface {
	redemptionservice.Ballots
	tallyservice.Ballots
}

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Stores: postgres when configured, in-memory otherwise.
	var (
		elections   electionservice.Store
		credentials credentialservice.Store
		ballots     ballotStore
		auditStore  audit.Store
	)
	if cfg.PostgresURL != "" {
		db, err := postgres.Open(ctx, cfg.PostgresURL)
		if err != nil {
			log.Error("postgres connection failed", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		elections = electionstore.NewPostgres(db)
		credentials = credentialstore.NewPostgres(db)
		ballots = ballotstore.NewPostgres(db)
		auditStore = auditpostgres.New(db)
		log.Info("using postgres stores")
	} else {
		elections = electionstore.NewInMemory()
		credentials = credentialstore.NewInMemory()
		ballots = ballotstore.NewInMemory()
		auditStore = auditmemory.New()
		log.Warn("DATABASE_URL not set, using in-memory stores")
	}

	// Optional Kafka audit sink, fanned out next to the queryable store.
	if len(cfg.KafkaBrokers) > 0 {
		sink, err := publisher.NewKafka(cfg.KafkaBrokers, cfg.AuditTopic, log)
		if err != nil {
			log.Error("kafka audit sink failed", "error", err)
			os.Exit(1)
		}
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = sink.Close(closeCtx)
		}()
		auditStore = audit.Multi(auditStore, sink)
		log.Info("kafka audit sink enabled", "topic", cfg.AuditTopic)
	}

	inbox := make(chan audit.Event, 256)
	recorder := audit.NewRecorder(inbox, log)
	auditWorker := audit.NewWorker(auditStore, inbox, log)

	// Cast throttle: redis when configured so the limit holds across
	// replicas, in-memory otherwise.
	var attempts throttle.Store
	redisClient, err := platformredis.New(ctx, cfg.RedisURL)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		attempts = throttle.NewRedis(redisClient)
		log.Info("using redis cast throttle")
	} else {
		attempts = throttle.NewMemory()
	}

	keyer := digest.NewKeyer(cfg.CredentialKey)
	codes := generator.New(cfg.CodeLength)

	electionSvc := electionservice.New(elections, log, recorder)
	credentialSvc := credentialservice.New(credentials, electionSvc, keyer, codes,
		log, credentialmetrics.New(), recorder)
	redemptionSvc := redemptionservice.New(credentials, ballots, electionSvc, keyer, codes,
		log, redemptionmetrics.New(), recorder)
	tallySvc := tallyservice.New(ballots, credentials, electionSvc, log)

	electionH := electionhandler.New(electionSvc, log)
	credentialH := credentialhandler.New(credentialSvc, log)
	voteH := redemptionhandler.New(redemptionSvc, log)
	tallyH := tallyhandler.New(tallySvc, log)
	castThrottle := throttle.NewMiddleware(attempts, log, cfg.ThrottleLimit, cfg.ThrottleWindow)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.ClientIP)
	r.Use(middleware.Recovery(log))
	r.Use(middleware.Logger(log))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.ContentTypeJSON)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	// Public voting surface.
	r.Group(func(r chi.Router) {
		r.Use(castThrottle.Limit)
		voteH.Register(r)
	})
	tallyH.RegisterPublic(r)

	// Admin surface.
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAdminToken(cfg.AdminToken, log))
		electionH.Register(r)
		credentialH.Register(r)
		tallyH.RegisterAdmin(r)
		r.Get("/audit", func(w http.ResponseWriter, req *http.Request) {
			limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
			events, err := auditStore.Recent(req.Context(), limit)
			if err != nil {
				log.ErrorContext(req.Context(), "audit read failed", "error", err)
				httputil.WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal"})
				return
			}
			httputil.WriteJSON(w, http.StatusOK, events)
		})
	})

	srv := httpserver.New(cfg.Addr, r)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := auditWorker.Run(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		log.Info("server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
