package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"

	"github.com/greenroute/greenroute/internal/geo"
)

// Job types carried in RefreshMessage.JobType.
const (
	JobProviderRefresh = "provider_refresh"
	JobHealthCheck     = "health_check"
)

// healthCheckPoint is refreshed by health_check jobs.
var healthCheckPoint = geo.Point{Lat: 37.7749, Lon: -122.4194}

// PubSubHandler handles Pub/Sub messages for the worker.
type PubSubHandler struct {
	client           *pubsub.Client
	subscriber       *pubsub.Subscriber
	subscriptionName string
	refreshJob       *RefreshJob
	logger           zerolog.Logger
}

// PubSubConfig holds configuration for the Pub/Sub handler.
type PubSubConfig struct {
	ProjectID        string
	SubscriptionName string
	RefreshJob       *RefreshJob
	Logger           zerolog.Logger
}

// RefreshMessage represents a provider refresh job message.
type RefreshMessage struct {
	JobType string `json:"job_type"`
}

// NewPubSubHandler creates a new Pub/Sub handler.
func NewPubSubHandler(ctx context.Context, cfg PubSubConfig) (*PubSubHandler, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	subscriber := client.Subscriber(cfg.SubscriptionName)
	subscriber.ReceiveSettings.MaxOutstandingMessages = 10
	subscriber.ReceiveSettings.MaxExtension = 10 * time.Minute

	return &PubSubHandler{
		client:           client,
		subscriber:       subscriber,
		subscriptionName: cfg.SubscriptionName,
		refreshJob:       cfg.RefreshJob,
		logger:           cfg.Logger,
	}, nil
}

// Start blocks processing Pub/Sub messages until ctx is done.
func (h *PubSubHandler) Start(ctx context.Context) error {
	h.logger.Info().
		Str("subscription", h.subscriptionName).
		Msg("starting pubsub handler")

	return h.subscriber.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		logger := h.logger.With().
			Str("message_id", msg.ID).
			Str("publish_time", msg.PublishTime.Format(time.RFC3339)).
			Logger()

		if Dispatch(ctx, h.refreshJob, msg.Data, logger) {
			msg.Ack()
			return
		}
		msg.Nack()
	})
}

// Close closes the Pub/Sub client.
func (h *PubSubHandler) Close() error {
	return h.client.Close()
}

// Dispatch runs the job named in a message body and reports whether the
// message should be acked. Malformed bodies and failed jobs are nacked;
// unknown job types are acked to prevent redelivery.
func Dispatch(ctx context.Context, job *RefreshJob, data []byte, logger zerolog.Logger) bool {
	startTime := job.now()

	var msg RefreshMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		logger.Error().Err(err).Msg("failed to parse message")
		return false
	}

	var err error
	switch msg.JobType {
	case JobProviderRefresh:
		err = providerRefresh(ctx, job)
	case JobHealthCheck:
		err = healthCheck(ctx, job)
	default:
		logger.Warn().Str("job_type", msg.JobType).Msg("unknown job type")
		return true
	}

	if err != nil {
		logger.Error().Err(err).Str("job_type", msg.JobType).Msg("job failed")
		return false
	}

	logger.Info().
		Str("job_type", msg.JobType).
		Dur("duration", job.now().Sub(startTime)).
		Msg("job completed successfully")
	return true
}

func providerRefresh(ctx context.Context, job *RefreshJob) error {
	result := job.Run(ctx)

	// Successful if at least half of the points refreshed.
	if result.Failed > result.Successful {
		return fmt.Errorf("too many refresh failures: %d/%d", result.Failed, result.TotalPoints)
	}
	return nil
}

func healthCheck(ctx context.Context, job *RefreshJob) error {
	check := NewRefreshJob(RefreshJobConfig{
		Config: RefreshConfig{
			Targets:           []RefreshTarget{{Name: "health-check", Priority: 1, Points: []geo.Point{healthCheckPoint}}},
			Concurrency:       1,
			Timeout:           10 * time.Second,
			RefreshAirQuality: true,
			RefreshWeather:    true,
		},
		Logger:     job.logger,
		AirQuality: job.airQuality,
		Weather:    job.weather,
		Now:        job.now,
	})

	result := check.Run(ctx)
	if len(result.Errors) > 0 {
		return fmt.Errorf("health check failed: %d errors", len(result.Errors))
	}
	return nil
}
