// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

// Package trigger starts location refreshes from outside events: Kafka
// messages and a periodic ticker.
package trigger

import (
	"context"
	"errors"
	"io"
	"log"
	"time"

	"github.com/jcodagnone/cajero/locator"
	"github.com/segmentio/kafka-go"
)

// Refresher is the operation triggered by every event.
type Refresher interface {
	Refresh(ctx context.Context) (*locator.BuildReport, error)
}

// Reader is the subset of *kafka.Reader the consumer needs.
type Reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer refreshes once per message of a Kafka topic and commits the
// message after the refresh returns, whatever its outcome.
type Consumer struct {
	reader    Reader
	refresher Refresher
	backoff   time.Duration
}

// NewConsumer creates a consumer reading from reader.
func NewConsumer(reader Reader, refresher Refresher) *Consumer {
	return &Consumer{reader: reader, refresher: refresher, backoff: time.Second}
}

// NewKafkaConsumer creates a consumer for topic as member of groupID.
func NewKafkaConsumer(brokers []string, topic, groupID string, refresher Refresher) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: groupID,
		// offsets are committed explicitly once the refresh ran
		CommitInterval: 0,
		MinBytes:       1,
		MaxBytes:       1e6,
	})

	return NewConsumer(reader, refresher)
}

// Run consumes until ctx is canceled or the reader is closed, then closes the
// reader.
func (c *Consumer) Run(ctx context.Context) error {
	defer func() {
		if err := c.reader.Close(); err != nil {
			log.Printf("Failed to close Kafka reader: %v", err)
		}
	}()

	log.Println("Starting Kafka refresh consumer...")

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				log.Println("Kafka refresh consumer stopped.")

				return nil
			}

			log.Printf("Error reading message: %v", err)

			select {
			case <-ctx.Done():
				return nil
			case <-time.After(c.backoff):
			}

			continue
		}

		c.handle(ctx, msg)

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}

			log.Printf("Error committing offset for topic=%s, partition=%d, offset=%d: %v",
				msg.Topic, msg.Partition, msg.Offset, err)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, msg kafka.Message) {
	log.Printf("Refresh requested: topic=%s, partition=%d, offset=%d", msg.Topic, msg.Partition, msg.Offset)

	report, err := c.refresher.Refresh(ctx)

	switch {
	case errors.Is(err, locator.ErrRefreshInProgress):
		log.Println("Refresh already running, request folded into it")
	case err != nil:
		log.Printf("🛑 refresh failed: %v", err)
	default:
		log.Printf("✅ refresh done: generation %d, %d locations", report.Generation, report.Total)
	}
}
