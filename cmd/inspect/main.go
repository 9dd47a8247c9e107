package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kotikvkofte/deal-service/internal/application/factories/infrastructure"
	"github.com/kotikvkofte/deal-service/internal/config"
	"github.com/kotikvkofte/deal-service/internal/infrastructure/kafka"
	"github.com/kotikvkofte/deal-service/internal/infrastructure/postgres"
)

func main() {
	limit := flag.Int("limit", 5, "number of rows to print per section")
	deadLetters := flag.Bool("dead-letters", false, "also read the abandoned-message topic")
	flag.Parse()

	cfg, err := config.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to load config: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	infraFactory := infrastructure.NewFactory(cfg)
	defer infraFactory.Close()

	pool, err := infraFactory.Postgres(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to connect to database: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("--- Inbox ---")
	records, err := postgres.NewInboxRepository(pool).ListRecent(ctx, *limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Inbox query failed: %v\n", err)
	}
	for _, r := range records {
		fmt.Printf("ID: %s | Kind: %s | Recorded: %s\n", r.ID, r.Kind, r.RecordedAt.Format(time.RFC3339))
	}

	fmt.Println("\n--- Deal contractors ---")
	contractors, err := postgres.NewContractorRepository(pool).ListRecent(ctx, *limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Deal contractor query failed: %v\n", err)
	}
	for _, c := range contractors {
		modified := "-"
		if c.ModifyDate != nil {
			modified = c.ModifyDate.Format(time.RFC3339)
		}
		fmt.Printf("ID: %s | Contractor: %s | Name: %s | Active: %t | Modified: %s\n",
			c.ID, c.ContractorID, c.Name, c.IsActive, modified)
	}

	if !*deadLetters {
		return
	}

	fmt.Println("\n--- Abandoned messages ---")
	if cfg.Kafka.AbandonedTopic == "" {
		fmt.Println("kafka.abandoned_topic is not configured")
		return
	}

	reader := kafka.NewDeadLetterReader(kafka.Config{Brokers: cfg.Kafka.Brokers, Topic: cfg.Kafka.AbandonedTopic})
	defer reader.Close()

	letters, err := reader.ReadBatch(ctx, *limit, 3*time.Second)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Read failed: %v\n", err)
	}
	for _, dl := range letters {
		fmt.Printf("ID: %s | Reason: %s | Retries: %d | At: %s | Error: %s\n",
			dl.MessageID, dl.Reason, dl.RetryCount, dl.AbandonedAt.Format(time.RFC3339), dl.Error)
	}
}
