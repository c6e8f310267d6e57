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

	"go.uber.org/zap"

	"github.com/AVVKavvk/plivo-ivr/config"
	"github.com/AVVKavvk/plivo-ivr/ivr"
	"github.com/AVVKavvk/plivo-ivr/logger"
	"github.com/AVVKavvk/plivo-ivr/metrics"
	"github.com/AVVKavvk/plivo-ivr/monitor"
	"github.com/AVVKavvk/plivo-ivr/provider"
	"github.com/AVVKavvk/plivo-ivr/rabbitmq"
	"github.com/AVVKavvk/plivo-ivr/redisClient"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	if err := logger.Initialize(cfg.LogLevel); err != nil {
		log.Fatal(err)
	}
	defer logger.Log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logger.Log.Fatal("server stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	srv := &Server{
		Menu: &ivr.Menu{
			Routes:          ivr.Routes{BaseURL: cfg.HostURL},
			AudioURL:        cfg.AudioURL,
			AssociateNumber: cfg.AssociateNumber,
		},
		From:    cfg.SourceNumber,
		Hub:     monitor.NewHub(),
		Metrics: metrics.New(),
	}
	waitHub := background(ctx, "monitor hub", func(ctx context.Context) error {
		srv.Hub.Run(ctx)
		return nil
	})

	if cfg.ProviderConfigured() {
		srv.Caller = provider.NewClient(cfg.APIURL, cfg.AuthID, cfg.AuthToken)
	} else {
		logger.Log.Warn("provider credentials missing, outbound calls are disabled")
	}

	// Events reach the journal and the monitor either directly or, with a
	// broker configured, through the exchange so every replica sees them.
	local := []NamedSink{{Name: "monitor", Sink: srv.Hub}}
	waitConsumer := func() {}
	if cfg.RedisAddr != "" {
		rc, err := redisClient.NewClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return err
		}
		journal := redisClient.NewJournal(rc, cfg.EventTTL)
		defer journal.Close()
		srv.Journal = journal
		local = append(local, NamedSink{Name: "journal", Sink: journal})
	}

	if cfg.RabbitMQURL != "" {
		conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQExchange)
		if err != nil {
			return err
		}
		defer conn.Close()

		producer, err := rabbitmq.NewProducer(conn, cfg.RabbitMQExchange)
		if err != nil {
			return err
		}
		defer producer.Close()
		srv.Sinks = []NamedSink{{Name: "rabbitmq", Sink: producer}}

		waitConsumer = background(ctx, "call event consumer", func(ctx context.Context) error {
			return rabbitmq.Consume(ctx, conn, cfg.RabbitMQExchange, fanOut(local))
		})
	} else {
		srv.Sinks = local
	}

	// Runs before the deferred closes above: the sinks and the consumer
	// must be idle before the journal and the broker go away.
	defer func() {
		srv.WaitEvents()
		cancel()
		waitConsumer()
		waitHub()
	}()

	e := srv.Echo()
	errCh := make(chan error, 1)
	go func() {
		logger.Log.Info("listening", zap.String("addr", cfg.Addr()), zap.String("host_url", cfg.HostURL))
		errCh <- e.Start(cfg.Addr())
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

// background runs fn in its own goroutine and returns a func that blocks
// until fn has returned.
func background(ctx context.Context, name string, fn func(context.Context) error) (wait func()) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := fn(ctx); err != nil {
			logger.Log.Error("background task stopped", zap.String("task", name), zap.Error(err))
		}
	}()
	return func() { <-done }
}
