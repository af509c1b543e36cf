package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/ariefcatur/go-bookshop/internal/config"
	"github.com/ariefcatur/go-bookshop/internal/events"
	kafkax "github.com/ariefcatur/go-bookshop/internal/kafka"
	"github.com/ariefcatur/go-bookshop/internal/logx"
	"github.com/ariefcatur/go-bookshop/internal/mailer"
	"github.com/ariefcatur/go-bookshop/internal/redisx"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	log := logx.New(cfg.ServiceName+"-mailer", cfg.LogLevel, cfg.LogPretty)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	svc := &mailer.Service{
		Sender:  mailer.LogSender{Log: log},
		Dedup:   &redisx.Dedup{R: rdb, Service: "mailer"},
		BaseURL: cfg.BaseURL,
		Log:     log,
	}

	// Consumers, one per topic
	var wg sync.WaitGroup
	for _, topic := range []string{events.TopicCustomerRegistered, events.TopicOrderPlaced} {
		cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.MailerGroup, topic, cfg.MailerWorkers, log)
		wg.Add(1)
		go func(topic string) {
			defer wg.Done()
			log.Info().Str("group", cfg.MailerGroup).Str("topic", topic).Int("workers", cfg.MailerWorkers).Msg("mailer consumer started")
			if err := cons.Start(ctx, svc.Handle); err != nil {
				log.Error().Err(err).Str("topic", topic).Msg("consumer exit")
				cancel()
			}
		}(topic)
	}

	// graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case <-ctx.Done():
	}
	log.Info().Msg("shutting down mailer")
	cancel()
	wg.Wait()
}
