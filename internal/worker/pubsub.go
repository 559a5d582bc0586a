// Package worker hosts the ingestion triggers: the Pub/Sub message
// handler for on-demand runs and the cron schedule for periodic ones.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"

	"github.com/asthmaguardian/asthmaguardian/internal/ingest"
)

// IngestRunner starts ingestion runs; satisfied by *ingest.Runner.
type IngestRunner interface {
	Run(ctx context.Context, postcodes []string) (*ingest.Result, error)
}

// PubSubHandler consumes ingestion job messages from a subscription.
type PubSubHandler struct {
	client           *pubsub.Client
	subscriber       *pubsub.Subscriber
	subscriptionName string
	runner           IngestRunner
	logger           zerolog.Logger
}

// PubSubConfig holds configuration for the Pub/Sub handler.
type PubSubConfig struct {
	ProjectID        string
	SubscriptionName string
	Runner           IngestRunner
	Logger           zerolog.Logger
}

// IngestMessage is the wire form of an ingestion job. An empty Postcodes
// list means a full registry sweep.
type IngestMessage struct {
	JobType   string   `json:"job_type"`
	Postcodes []string `json:"postcodes,omitempty"`
}

// NewPubSubHandler creates a Pub/Sub handler bound to one subscription.
func NewPubSubHandler(ctx context.Context, cfg PubSubConfig) (*PubSubHandler, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	subscriber := client.Subscriber(cfg.SubscriptionName)

	// One run can take minutes; never process two batches at once.
	subscriber.ReceiveSettings.MaxOutstandingMessages = 1
	subscriber.ReceiveSettings.MaxExtension = 10 * time.Minute

	return &PubSubHandler{
		client:           client,
		subscriber:       subscriber,
		subscriptionName: cfg.SubscriptionName,
		runner:           cfg.Runner,
		logger:           cfg.Logger,
	}, nil
}

// Start begins processing messages until the context is canceled.
func (h *PubSubHandler) Start(ctx context.Context) error {
	h.logger.Info().
		Str("subscription", h.subscriptionName).
		Msg("starting pubsub handler")

	return h.subscriber.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		h.handleMessage(ctx, msg)
	})
}

// Close closes the Pub/Sub client.
func (h *PubSubHandler) Close() error {
	return h.client.Close()
}

func (h *PubSubHandler) handleMessage(ctx context.Context, msg *pubsub.Message) {
	startTime := time.Now()

	logger := h.logger.With().
		Str("message_id", msg.ID).
		Str("publish_time", msg.PublishTime.Format(time.RFC3339)).
		Logger()

	logger.Debug().Msg("received pubsub message")

	var ingestMsg IngestMessage
	if err := json.Unmarshal(msg.Data, &ingestMsg); err != nil {
		logger.Error().Err(err).Msg("failed to parse message")
		msg.Nack()
		return
	}

	var err error
	switch ingestMsg.JobType {
	case "ingest":
		err = h.handleIngest(ctx, ingestMsg)
	case "health_check":
		err = h.handleHealthCheck(ctx)
	default:
		logger.Warn().Str("job_type", ingestMsg.JobType).Msg("unknown job type")
		msg.Ack() // Ack unknown messages to prevent redelivery
		return
	}

	if err != nil {
		logger.Error().Err(err).Msg("job failed")
		msg.Nack()
		return
	}

	duration := time.Since(startTime)
	logger.Info().
		Str("job_type", ingestMsg.JobType).
		Dur("duration", duration).
		Msg("job completed successfully")

	msg.Ack()
}

func (h *PubSubHandler) handleIngest(ctx context.Context, msg IngestMessage) error {
	h.logger.Info().
		Int("requested_postcodes", len(msg.Postcodes)).
		Msg("starting ingestion run")

	result, err := h.runner.Run(ctx, msg.Postcodes)
	if err != nil {
		// A ceiling hit still produced a partial result; redelivering the
		// message would just hit the ceiling again.
		if errors.Is(err, ingest.ErrRunCeiling) {
			h.logger.Warn().
				Int("successful", result.Successful).
				Int("failed", result.Failed).
				Msg("run hit wall-clock ceiling, keeping partial result")
			return nil
		}
		return err
	}

	h.logger.Info().
		Str("run_id", result.RunID).
		Dur("duration", result.Duration).
		Int("total_locations", result.TotalLocations).
		Int("successful", result.Successful).
		Int("failed", result.Failed).
		Msg("ingestion run completed")

	return nil
}

func (h *PubSubHandler) handleHealthCheck(ctx context.Context) error {
	h.logger.Debug().Msg("running health check")

	// Ingest a single well-known postcode to verify provider and store
	// connectivity end to end.
	result, err := h.runner.Run(ctx, []string{"2000"})
	if err != nil {
		return err
	}
	if result.Failed > 0 {
		return fmt.Errorf("health check failed: %d errors", result.Failed)
	}

	h.logger.Debug().Msg("health check passed")
	return nil
}
