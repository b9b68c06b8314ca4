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

	"github.com/xavierca1/matchday-leads/internal/clock"
	"github.com/xavierca1/matchday-leads/internal/config"
	"github.com/xavierca1/matchday-leads/internal/entity"
	"github.com/xavierca1/matchday-leads/internal/infra/database"
	"github.com/xavierca1/matchday-leads/internal/infra/http/handlers"
	"github.com/xavierca1/matchday-leads/internal/infra/mail"
	"github.com/xavierca1/matchday-leads/internal/infra/memstore"
	"github.com/xavierca1/matchday-leads/internal/infra/queue"
	"github.com/xavierca1/matchday-leads/internal/infra/worker"
	"github.com/xavierca1/matchday-leads/internal/intake"
	"github.com/xavierca1/matchday-leads/internal/pricing"
	"github.com/xavierca1/matchday-leads/internal/usecase"
)

const (
	version         = "1.0.0"
	shutdownTimeout = 10 * time.Second
)

// storage is the set of repositories the use cases need, backed either by
// Postgres or by the in-process store.
type storage struct {
	leads         entity.LeadRepositoryInterface
	history       entity.StatusHistoryRepositoryInterface
	quotes        entity.QuoteRepositoryInterface
	packages      entity.PackageRepositoryInterface
	events        entity.EventRepositoryInterface
	verifications entity.EmailVerificationRepositoryInterface
	tx            usecase.TxManager
	pinger        handlers.Pinger
	close         func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ config: %v", err)
	}

	clk := clock.NewSystem()

	store, err := openStorage(cfg, clk)
	if err != nil {
		log.Fatalf("❌ storage: %v", err)
	}
	defer store.close()

	rules := pricing.DefaultRules()
	if cfg.PricingRulesFile != "" {
		rules, err = pricing.LoadRules(cfg.PricingRulesFile)
		if err != nil {
			log.Fatalf("❌ pricing rules: %v", err)
		}
		log.Printf("💰 Pricing rules %s loaded from %s", rules.Version, cfg.PricingRulesFile)
	}
	engine := pricing.NewEngine(rules)

	var (
		quoteMailer queue.QuoteMailer
		verifyMail  usecase.EmailService
	)
	if cfg.MailConfigured() {
		sender := mail.NewEmailSender(cfg.MailHost, cfg.MailPort, cfg.MailUser, cfg.MailPass, cfg.MailFrom, cfg.BackendURL)
		quoteMailer, verifyMail = sender, sender
	} else {
		log.Println("⚠️ MAIL_HOST not set, emails will only be logged")
		sender := mail.LogSender{BackendURL: cfg.BackendURL}
		quoteMailer, verifyMail = sender, sender
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The publisher and broker stay nil interfaces when no broker is configured.
	var (
		publisher usecase.EventPublisher
		broker    handlers.BrokerStatus
	)
	if cfg.AMQPURL != "" {
		rabbitMQ, err := queue.NewRabbitMQ(cfg.AMQPURL)
		if err != nil {
			log.Fatalf("❌ rabbitmq: %v", err)
		}
		defer rabbitMQ.Close()

		publisher = queue.NewProducer(rabbitMQ.Ch)
		broker = rabbitMQ

		quoteWorker := queue.NewWorker(rabbitMQ.Ch, quoteMailer)
		go func() {
			if err := quoteWorker.Start(ctx, queue.QuoteEmailQueue); err != nil {
				log.Printf("❌ quote email worker: %v", err)
			}
		}()
	} else {
		log.Println("⚠️ AMQP_URL not set, domain events are disabled")
	}

	go worker.NewVerificationCleanupWorker(store.verifications, clk.Now).Start(ctx)

	workflow := usecase.NewWorkflow(store.leads, store.history, clk)

	createLeadUC := usecase.NewCreateLeadUseCase(
		store.leads, store.events, store.packages, store.verifications,
		intake.NewGuard(cfg.IntakePolicy()), workflow, store.tx, publisher, clk,
		cfg.RequireEmailVerification,
	)
	updateStatusUC := usecase.NewUpdateLeadStatusUseCase(store.leads, workflow, store.tx)
	queriesUC := usecase.NewLeadQueryUseCase(store.leads, store.history)
	eventsUC := usecase.NewEventQueryUseCase(store.events, store.packages)
	generateUC := usecase.NewGenerateQuoteUseCase(
		store.leads, store.packages, store.events, store.quotes,
		engine, workflow, store.tx, publisher, clk, cfg.QuoteValidity,
	)
	previewUC := usecase.NewPreviewQuoteUseCase(store.packages, engine, clk)
	respondUC := usecase.NewRespondQuoteUseCase(store.quotes, store.leads, workflow, store.tx, publisher, clk)
	verifyUC := usecase.NewEmailVerificationUseCase(store.verifications, verifyMail, clk, cfg.BackendURL)

	limiter := handlers.NewIPRateLimiter(cfg.IPRateLimit, cfg.IPRateWindow)
	go limiter.Cleanup(ctx, 10*time.Minute)

	router := handlers.NewRouter(handlers.Routes{
		Events:         handlers.NewEventHandler(eventsUC),
		Leads:          handlers.NewLeadHandler(createLeadUC, updateStatusUC, queriesUC),
		Quotes:         handlers.NewQuoteHandler(generateUC, previewUC, respondUC, cfg.FrontendURL),
		Verification:   handlers.NewVerificationHandler(verifyUC, cfg.FrontendURL),
		Health:         handlers.NewHealthHandler(store.pinger, broker, version),
		IntakeLimiter:  limiter,
		AllowedOrigins: cfg.AllowedOrigins,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Printf("🔥 Matchday leads API listening on :%s", cfg.Port)
		srvErr <- server.ListenAndServe()
	}()

	select {
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("❌ server error: %v", err)
		}
	case <-ctx.Done():
		log.Println("⚠️ shutdown signal received, stopping server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Printf("❌ server shutdown error: %v", err)
	}
	log.Println("server stopped")
}

func openStorage(cfg *config.Config, clk clock.Clock) (*storage, error) {
	if cfg.DatabaseURL == "" {
		log.Println("⚠️ DATABASE_URL not set, using in-memory store with a demo catalog")
		s := memstore.New()
		seedDemoCatalog(s.Catalog(), clk.Now())
		return &storage{
			leads:         s.Leads(),
			history:       s.History(),
			quotes:        s.Quotes(),
			packages:      s.Catalog().Packages(),
			events:        s.Catalog().Events(),
			verifications: s.Verifications(),
			tx:            s,
			pinger:        s,
			close:         func() {},
		}, nil
	}

	db, err := database.NewDBConnection(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	log.Println("✅ Database connected and migrated")

	txm := database.NewTxManager(db)
	return &storage{
		leads:         database.NewLeadRepository(db),
		history:       database.NewHistoryRepository(db),
		quotes:        database.NewQuoteRepository(db),
		packages:      database.NewPackageRepository(db),
		events:        database.NewEventRepository(db),
		verifications: database.NewEmailVerificationRepository(db),
		tx:            txm,
		pinger:        txm,
		close:         func() { db.Close() },
	}, nil
}
