package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xavierca1/leadgate/internal/config"
	"github.com/xavierca1/leadgate/internal/infra/http/handlers"
	"github.com/xavierca1/leadgate/internal/infra/http/middleware"
	"github.com/xavierca1/leadgate/internal/infra/mail"
	"github.com/xavierca1/leadgate/internal/infra/notify"
	"github.com/xavierca1/leadgate/internal/infra/queue"
	"github.com/xavierca1/leadgate/internal/infra/session"
	"github.com/xavierca1/leadgate/internal/infra/storage"
	"github.com/xavierca1/leadgate/internal/infra/worker"
	"github.com/xavierca1/leadgate/internal/usecase"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx)
	},
}

func serve(ctx context.Context) error {
	// 1. Store
	repo := storage.NewLeadRepository(cfg.DataFile)
	if err := repo.Check(); err != nil {
		return fmt.Errorf("lead store %s: %w", cfg.DataFile, err)
	}

	g, ctx := errgroup.WithContext(ctx)

	// 2. Notificação
	var (
		transport notify.Transport
		broker    handlers.Checker
		rabbitMQ  *queue.RabbitMQ
	)
	switch cfg.NotifyTransport {
	case config.TransportSMTP:
		transport = newMailSender()
	case config.TransportAMQP:
		var err error
		rabbitMQ, err = queue.NewRabbitMQ(cfg.AMQPURL)
		if err != nil {
			return err
		}
		defer rabbitMQ.Close()
		broker = rabbitMQ
		transport = queue.NewProducer(rabbitMQ.Ch)

		// o consumidor usa um canal próprio
		consumerCh, err := rabbitMQ.Conn.Channel()
		if err != nil {
			return fmt.Errorf("falha ao abrir canal do worker: %w", err)
		}
		w := queue.NewWorker(newMailSender(), cfg.NotifyTimeout, logger)
		g.Go(func() error {
			return w.Start(ctx, consumerCh, queue.QueueName)
		})
	default:
		transport = notify.LogTransport{Logger: logger.Named("notify")}
	}

	dispatcher := notify.NewDispatcher(transport, cfg.NotifyTimeout, int64(cfg.NotifyMaxInFlight), logger)
	dispatcher.OnResult = middleware.RecordNotification
	defer dispatcher.Close()

	// 3. Sessões e rate limit
	sessions := session.NewStore(cfg.SessionTTL)
	limiter := handlers.NewRateLimiter(cfg.RateLimit, cfg.RateLimitWindow)
	g.Go(func() error {
		worker.NewSweeper("sessions", sessions, time.Minute, logger).Start(ctx)
		return nil
	})
	g.Go(func() error {
		worker.NewSweeper("rate-limiter", limiter, 10*time.Minute, logger).Start(ctx)
		return nil
	})

	// 4. UseCases
	captureUC := usecase.NewCaptureLeadUseCase(
		repo, dispatcher,
		usecase.IntakeRules{DedupEnabled: cfg.DedupEnabled, CheckEmailFormat: cfg.ValidateEmailFormat},
		cfg.ChallengeEnabled, cfg.PDFURL, logger.Named("capture"),
	)
	adminUC := usecase.NewAdminUseCase(repo, cfg.AdminUsername, cfg.AdminPassword, logger.Named("admin"))

	// 5. Handlers e router
	cookies := handlers.NewSessions(sessions, cfg.SessionTTL, cfg.CookieSecure)
	router := handlers.NewRouter(handlers.RouterConfig{
		Leads:       handlers.NewLeadHandler(captureUC, cookies, limiter, cfg.TrustProxy, logger),
		Admin:       handlers.NewAdminHandler(adminUC, captureUC, cookies, logger),
		Health:      handlers.NewHealthHandler(repo, broker),
		CORSOrigins: cfg.CORSOrigins,
		AccessLog:   true,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.Go(func() error {
		logger.Info("server listening",
			zap.String("addr", cfg.Addr),
			zap.String("data_file", cfg.DataFile),
			zap.String("notify_transport", cfg.NotifyTransport))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func newMailSender() *mail.EmailSender {
	return mail.NewEmailSender(
		cfg.Mail.Host, cfg.Mail.Port, cfg.Mail.User, cfg.Mail.Password, cfg.Mail.From, cfg.Mail.To,
	)
}
