package events

import (
	"context"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/Kilat-Pet-Delivery/service-transfer/internal/application"
	"github.com/Kilat-Pet-Delivery/service-transfer/internal/common/domain"
	"github.com/Kilat-Pet-Delivery/service-transfer/internal/common/kafka"
	bookingDomain "github.com/Kilat-Pet-Delivery/service-transfer/internal/domain/booking"
)

// BookingTransitioner applies provider decisions to bookings.
type BookingTransitioner interface {
	TransitionBooking(ctx context.Context, bookingID uuid.UUID, target bookingDomain.BookingStatus, req application.TransitionRequest) (*application.BookingDTO, error)
}

// ProviderCommandConsumer listens to provider commands and applies the
// requested booking transitions.
type ProviderCommandConsumer struct {
	consumer *kafka.Consumer
	service  BookingTransitioner
	logger   *zap.Logger
}

// NewProviderCommandConsumer creates a new ProviderCommandConsumer.
func NewProviderCommandConsumer(
	brokers []string,
	groupID string,
	service BookingTransitioner,
	logger *zap.Logger,
) *ProviderCommandConsumer {
	consumer := kafka.NewConsumer(brokers, groupID, bookingDomain.TopicProviderCommands, logger)
	return &ProviderCommandConsumer{
		consumer: consumer,
		service:  service,
		logger:   logger,
	}
}

// Start begins consuming provider commands. This blocks until the context is cancelled.
func (c *ProviderCommandConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handleMessage)
}

// Close closes the underlying Kafka consumer.
func (c *ProviderCommandConsumer) Close() error {
	return c.consumer.Close()
}

func (c *ProviderCommandConsumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	cloudEvent, err := kafka.ParseCloudEvent(msg.Value)
	if err != nil {
		c.logger.Error("failed to parse cloud event from provider command topic",
			zap.Error(err),
			zap.String("raw", string(msg.Value)),
		)
		return nil // Don't retry malformed messages
	}
	return c.handleCommand(ctx, cloudEvent)
}

func (c *ProviderCommandConsumer) handleCommand(ctx context.Context, cloudEvent kafka.CloudEvent) error {
	target, ok := bookingDomain.CommandTarget(cloudEvent.Type)
	if !ok {
		c.logger.Debug("ignoring unhandled provider command type",
			zap.String("type", cloudEvent.Type),
		)
		return nil
	}

	var cmd bookingDomain.ProviderCommand
	if err := cloudEvent.ParseData(&cmd); err != nil {
		c.logger.Error("failed to parse provider command data",
			zap.String("type", cloudEvent.Type),
			zap.Error(err),
		)
		return nil // Don't retry malformed data
	}

	req := application.TransitionRequest{Reason: cmd.Reason}
	if cmd.ProviderID != uuid.Nil {
		req.ProviderID = cmd.ProviderID.String()
	}

	_, err := c.service.TransitionBooking(ctx, cmd.BookingID, target, req)
	if err != nil {
		c.logger.Error("failed to apply provider command",
			zap.String("booking_id", cmd.BookingID.String()),
			zap.String("type", cloudEvent.Type),
			zap.Error(err),
		)
		if isPermanent(err) {
			return nil
		}
		return err
	}

	c.logger.Info("provider command applied",
		zap.String("booking_id", cmd.BookingID.String()),
		zap.String("status", string(target)),
	)
	return nil
}

// isPermanent reports errors that a redelivery cannot fix.
func isPermanent(err error) bool {
	return domain.IsNotFound(err) || domain.IsInvalidState(err) ||
		domain.IsForbidden(err) || domain.IsValidation(err)
}
